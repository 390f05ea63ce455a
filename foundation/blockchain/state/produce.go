package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
)

// ErrNoMessages is returned when a block is requested to be produced
// and there are no messages that can be selected.
var ErrNoMessages = errors.New("no messages to select")

// =============================================================================

// Policy returns the selection policy for a block built on top of the tipset.
func (s *State) Policy(ts database.Tipset) selector.Policy {
	return selector.Policy{
		PriorityAccounts:    s.priority,
		AllowNegativeChains: s.genesis.AllowNegativeChains(ts.Height + 1),
		Variant:             s.variant,
		BlockGasLimit:       s.genesis.BlockGasLimit,
		MinGasFloor:         s.genesis.MinGasFloor,
		MaxMessages:         s.genesis.MaxMessages,
		TicketQuality:       s.tq,
	}
}

// SelectMessages previews the messages that would be included in a block
// built on top of the current head.
func (s *State) SelectMessages(ctx context.Context) (selector.Result, error) {
	_, result, err := s.selectMessages(ctx)
	return result, err
}

// selectMessages runs the selection against the current head and records
// the metrics for the call.
func (s *State) selectMessages(ctx context.Context) (database.Tipset, selector.Result, error) {
	ts := s.LatestTipset()
	policy := s.Policy(ts)

	s.evHandler("state: selectMessages: %s: variant[%s]: pool[%d]", ts, policy.Variant, s.mempool.Count())

	start := time.Now()
	result, err := selector.Select(ctx, s, ts, policy)
	metricSelectDuration.WithLabelValues(string(policy.Variant)).Observe(time.Since(start).Seconds())

	if err != nil {
		cause := "policy"
		if errors.Is(err, selector.ErrProvider) {
			cause = "provider"
		}
		metricSelectErrors.WithLabelValues(cause).Inc()
		return database.Tipset{}, selector.Result{}, err
	}

	s.evHandler("state: selectMessages: %s: msgs[%d]: priority[%d]: chains[%d]: gas[%d]", ts, len(result.Messages), result.Priority, result.Chains, result.GasUsed)

	return ts, result, nil
}

// ProduceBlock selects the messages for the next block, builds the block and
// applies it to the local state.
func (s *State) ProduceBlock(ctx context.Context) (database.Block, error) {
	s.produce.Lock()
	defer s.produce.Unlock()

	s.evHandler("state: ProduceBlock: PRODUCE: check mempool count")

	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoMessages
	}

	s.evHandler("state: ProduceBlock: PRODUCE: select messages")

	ts, result, err := s.selectMessages(ctx)
	if err != nil {
		return database.Block{}, err
	}

	if len(result.Messages) == 0 {
		return database.Block{}, ErrNoMessages
	}

	baseFee, err := s.BaseFee(ctx, ts)
	if err != nil {
		return database.Block{}, err
	}

	block, err := database.NewBlock(database.BlockArgs{
		Producer: s.producer,
		Parent:   ts,
		BaseFee:  baseFee,
		GasLimit: s.genesis.BlockGasLimit,
		Messages: result.Messages,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if err := ctx.Err(); err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: ProduceBlock: PRODUCE: update local state")

	if err := s.updateLocalState(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// =============================================================================

// updateLocalState takes the block and updates the current state of the
// chain, including adding the block to storage.
func (s *State) updateLocalState(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := block.ValidateBlock(s.latest, s.evHandler); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: apply messages")

	// Apply the messages on a copy so a failure leaves the accounts untouched.
	accts := s.accounts.Clone()
	senders := make(map[database.AccountID]struct{})
	for _, msg := range block.Values() {
		if err := accts.ApplyMessage(block.Header.Producer, block.Header.BaseFee, msg); err != nil {
			return fmt.Errorf("apply %s: %w", msg, err)
		}
		senders[msg.Sender()] = struct{}{}
	}

	s.evHandler("state: updateLocalState: write to storage")

	if err := s.storage.Write(database.NewBlockData(block)); err != nil {
		return err
	}

	s.accounts.Replace(accts)
	s.latest = block.Tipset()

	s.evHandler("state: updateLocalState: remove included messages from mempool")

	var pruned int
	for sender := range senders {
		pruned += s.mempool.Prune(sender, accts.Query(sender).Nonce)
	}

	metricHeight.Set(float64(block.Header.Height))
	metricGasUsed.Set(float64(block.Header.GasUsed))
	metricMessagesSelected.Add(float64(len(block.Values())))
	metricPoolSize.Set(float64(s.mempool.Count()))

	s.evHandler("viewer: block: blk[%d]: hash[%s]: msgs[%d]: pruned[%d]: gas[%d]", block.Header.Height, block.Hash(), len(block.Values()), pruned, block.Header.GasUsed)

	return nil
}
