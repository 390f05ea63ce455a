package selector

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// maxStateLookups bounds the number of account state lookups in flight.
const maxStateLookups = 16

// candidate is a message annotated with the reward it pays the block
// producer at the reference base fee.
type candidate struct {
	msg    database.SignedMessage
	reward *big.Int
}

// candidateSet maps a sender to the usable run of its pending messages. A
// run starts at the on-chain nonce of the sender and is nonce contiguous.
type candidateSet map[database.AccountID][]candidate

// newCandidateSet resolves the account state of every sender in the
// snapshot and keeps the nonce contiguous, affordable run of each sender.
func newCandidateSet(ctx context.Context, p Provider, ts database.Tipset, baseFee *uint256.Int, pending Pending, blockGasLimit uint64) (candidateSet, error) {
	grouped := make(map[database.AccountID][]database.SignedMessage)
	for sender, msgs := range pending {
		sender = sender.Canonical()
		for _, msg := range msgs {
			grouped[sender] = append(grouped[sender], msg)
		}
	}

	senders := make([]database.AccountID, 0, len(grouped))
	for sender := range grouped {
		senders = append(senders, sender)
	}
	sort.Slice(senders, func(i, j int) bool { return senders[i].Less(senders[j]) })

	// Account state lookups may block, so they run concurrently before the
	// pure part of the computation starts.
	states := make([]database.Account, len(senders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxStateLookups)

	for i, sender := range senders {
		g.Go(func() error {
			act, err := p.AccountState(gctx, sender, ts)
			if err != nil {
				return fmt.Errorf("%w: account state for %s at %s: %w", ErrProvider, sender, ts, err)
			}
			states[i] = act
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	cands := make(candidateSet)
	for i, sender := range senders {
		run := contiguousRun(grouped[sender], states[i], baseFee, blockGasLimit)
		if len(run) > 0 {
			cands[sender] = run
		}
	}

	return cands, nil
}

// contiguousRun sorts a sender's messages by nonce and returns the prefix
// that can be used for a block. Messages below the on-chain nonce are
// skipped. The run ends at the first nonce gap, the first message with no
// gas, when the gas of the run exceeds the block gas limit or when the
// sender's balance can't cover the message.
func contiguousRun(msgs []database.SignedMessage, act database.Account, baseFee *uint256.Int, blockGasLimit uint64) []candidate {
	sort.Sort(byNonce(msgs))

	balance := new(uint256.Int)
	if act.Balance != nil {
		balance.Set(act.Balance)
	}

	nonce := act.Nonce
	var gasLimit uint64
	var run []candidate

	for _, msg := range msgs {
		if msg.Nonce < nonce {
			continue
		}

		if msg.Nonce != nonce {
			break
		}

		if msg.GasLimit == 0 || msg.GasLimit > blockGasLimit-gasLimit {
			break
		}

		required := msg.RequiredFunds()
		if balance.Lt(required) {
			break
		}

		balance.Sub(balance, required)
		gasLimit += msg.GasLimit
		nonce++

		run = append(run, candidate{
			msg:    msg,
			reward: gasReward(msg, baseFee),
		})
	}

	return run
}

// senders returns the senders of the candidate set in a fixed order.
func (cands candidateSet) senders() []database.AccountID {
	senders := make([]database.AccountID, 0, len(cands))
	for sender := range cands {
		senders = append(senders, sender)
	}
	sort.Slice(senders, func(i, j int) bool { return senders[i].Less(senders[j]) })
	return senders
}

// =============================================================================

// byNonce provides sorting support by the message nonce value.
type byNonce []database.SignedMessage

// Len returns the number of messages in the list.
func (bn byNonce) Len() int {
	return len(bn)
}

// Less helps to sort the list by nonce in ascending order to keep the
// messages in the right order of processing.
func (bn byNonce) Less(i, j int) bool {
	return bn[i].Nonce < bn[j].Nonce
}

// Swap moves messages in the order of the nonce value.
func (bn byNonce) Swap(i, j int) {
	bn[i], bn[j] = bn[j], bn[i]
}
