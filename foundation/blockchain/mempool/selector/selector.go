// Package selector provides the block message selection algorithms. Given a
// snapshot of pending messages it picks the subset that maximizes the reward
// collected by the block producer while respecting the nonce order of every
// sender and the block gas limit.
package selector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// Set of error variables for selection.
var (
	ErrProvider      = errors.New("provider failure")
	ErrInvalidPolicy = errors.New("invalid selection policy")
)

// DefaultMaxMessages caps the selection when the policy doesn't set a limit.
// A zero MinGasFloor is used as is, so selection packs until the budget is
// exhausted.
const DefaultMaxMessages = 16000

// probabilisticCutoff is the ticket quality above which the first block in a
// round is more likely than any other, so greedy selection is preferred.
const probabilisticCutoff = 0.84

// =============================================================================

// Pending is a snapshot of the message pool, grouped by sender and keyed by
// nonce. The selector owns the snapshot for the duration of a call.
type Pending map[database.AccountID]map[uint64]database.SignedMessage

// Count returns the number of messages in the snapshot.
func (p Pending) Count() int {
	var n int
	for _, msgs := range p {
		n += len(msgs)
	}
	return n
}

// Provider represents the behavior required to resolve the chain state a
// selection is computed against.
type Provider interface {
	BaseFee(ctx context.Context, ts database.Tipset) (*uint256.Int, error)
	AccountState(ctx context.Context, account database.AccountID, ts database.Tipset) (database.Account, error)
	PendingMessages(ctx context.Context) (Pending, error)
}

// =============================================================================

// Variant names a selection strategy.
type Variant string

// List of different select strategies.
const (
	Greedy        Variant = "greedy"
	Probabilistic Variant = "probabilistic"
)

// selectFunc fills the selection from the chains built for the candidate set.
type selectFunc func(sel *selection, cs *chains)

// Map of different select strategies with functions.
var strategies = map[Variant]selectFunc{
	Greedy:        greedySelect,
	Probabilistic: probabilisticSelect,
}

// ParseVariant returns the variant for the specified strategy name.
func ParseVariant(strategy string) (Variant, error) {
	v := Variant(strings.ToLower(strategy))
	if _, exists := strategies[v]; !exists {
		return "", fmt.Errorf("%w: strategy %q does not exist", ErrInvalidPolicy, strategy)
	}
	return v, nil
}

// VariantForTicketQuality returns the variant to use for a block producer
// holding a ticket of the specified quality.
func VariantForTicketQuality(tq float64) Variant {
	if tq > probabilisticCutoff {
		return Greedy
	}
	return Probabilistic
}

// =============================================================================

// Policy represents the knobs of a selection call. Height gated behavior,
// like allowing negative chains, is resolved by the caller.
type Policy struct {
	PriorityAccounts    []database.AccountID
	AllowNegativeChains bool
	Variant             Variant
	BlockGasLimit       uint64
	MinGasFloor         uint64
	MaxMessages         int
	TicketQuality       float64
	Probabilities       ProbabilityFunc
}

// Validate checks the policy can be used for selection.
func (p Policy) Validate() error {
	if p.Variant != "" {
		if _, exists := strategies[p.Variant]; !exists {
			return fmt.Errorf("%w: strategy %q does not exist", ErrInvalidPolicy, p.Variant)
		}
	}

	if p.TicketQuality < 0 || p.TicketQuality > 1 {
		return fmt.Errorf("%w: ticket quality %v out of range", ErrInvalidPolicy, p.TicketQuality)
	}

	if p.MaxMessages < 0 {
		return fmt.Errorf("%w: max messages %d is negative", ErrInvalidPolicy, p.MaxMessages)
	}

	return nil
}

// withDefaults fills in the values the caller didn't provide.
func (p Policy) withDefaults() Policy {
	if p.Variant == "" {
		p.Variant = Greedy
	}
	if p.MaxMessages == 0 {
		p.MaxMessages = DefaultMaxMessages
	}
	if p.Probabilities == nil {
		p.Probabilities = BlockProbabilities
	}
	return p
}

// =============================================================================

// Result is the outcome of a selection call. Messages are in the order they
// should be appended to the block.
type Result struct {
	Messages     []database.SignedMessage
	GasUsed      uint64
	GasRemaining uint64
	Priority     int
	Chains       int
}

// Select takes a snapshot from the provider and selects the messages for a
// block built on top of the specified tipset. Provider failures abort the
// call and are reported with ErrProvider. Once the snapshot is taken the
// computation performs no further I/O.
func Select(ctx context.Context, p Provider, ts database.Tipset, policy Policy) (Result, error) {
	if err := policy.Validate(); err != nil {
		return Result{}, err
	}
	policy = policy.withDefaults()

	baseFee, err := p.BaseFee(ctx, ts)
	if err != nil {
		return Result{}, fmt.Errorf("%w: base fee for %s: %w", ErrProvider, ts, err)
	}

	pending, err := p.PendingMessages(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: pending messages: %w", ErrProvider, err)
	}

	if len(pending) == 0 || policy.BlockGasLimit == 0 {
		return Result{GasRemaining: policy.BlockGasLimit}, nil
	}

	cands, err := newCandidateSet(ctx, p, ts, baseFee, pending, policy.BlockGasLimit)
	if err != nil {
		return Result{}, err
	}

	return selectCandidates(cands, policy), nil
}

// selectCandidates runs the priority lane and then the configured strategy
// over the candidate set.
func selectCandidates(cands candidateSet, policy Policy) Result {
	sel := newSelection(policy)

	sel.selectPriority(cands)
	sel.priority = len(sel.msgs)

	// Check if the block has been filled by the priority lane.
	if sel.gasLimit < policy.MinGasFloor {
		return sel.result()
	}

	cs := newChains()
	for _, sender := range cands.senders() {
		cs.add(sender, cands[sender])
	}
	sel.chains += len(cs.nodes)

	strategies[policy.Variant](sel, cs)

	return sel.result()
}

// =============================================================================

// selection accumulates the messages included in the block being built.
type selection struct {
	policy   Policy
	msgs     []database.SignedMessage
	gasLimit uint64
	priority int
	chains   int
}

func newSelection(policy Policy) *selection {
	return &selection{
		policy:   policy,
		gasLimit: policy.BlockGasLimit,
	}
}

// include marks the chain as merged and appends its messages.
func (sel *selection) include(cs *chains, idx int, effective bool) {
	node := &cs.nodes[idx]

	node.merged = true
	sel.msgs = append(sel.msgs, node.msgs...)
	sel.gasLimit -= node.gasLimit

	if effective {
		cs.carry(idx)
	}
}

// result produces the final result, capping the number of messages. Only a
// tail of the selection order is cut so the nonce order of every sender is
// kept intact.
func (sel *selection) result() Result {
	msgs := sel.msgs
	if len(msgs) > sel.policy.MaxMessages {
		msgs = msgs[:sel.policy.MaxMessages]
	}

	var gasUsed uint64
	for _, msg := range msgs {
		gasUsed += msg.GasLimit
	}

	priority := sel.priority
	if priority > len(msgs) {
		priority = len(msgs)
	}

	return Result{
		Messages:     msgs,
		GasUsed:      gasUsed,
		GasRemaining: sel.policy.BlockGasLimit - gasUsed,
		Priority:     priority,
		Chains:       sel.chains,
	}
}

// =============================================================================

// sortedAccounts returns the canonical form of the accounts in a fixed order
// with duplicates removed.
func sortedAccounts(accounts []database.AccountID) []database.AccountID {
	seen := make(map[database.AccountID]bool, len(accounts))
	out := make([]database.AccountID, 0, len(accounts))

	for _, account := range accounts {
		account = account.Canonical()
		if seen[account] {
			continue
		}
		seen[account] = true
		out = append(out, account)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
