package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
	"github.com/holiman/uint256"
)

// Base fee adjustment constants.
const (
	baseFeeMaxChangeDenom = 8
	minBaseFee            = 100
)

// These methods implement the selector.Provider interface over the head of
// the chain.

// BaseFee returns the base fee for a block built on top of the tipset.
func (s *State) BaseFee(ctx context.Context, ts database.Tipset) (*uint256.Int, error) {
	if err := s.checkTipset(ctx, ts); err != nil {
		return nil, err
	}

	if ts.Height == 0 {
		return uint256.NewInt(s.genesis.BaseFee), nil
	}

	return NextBaseFee(ts.ParentBaseFee, ts.GasUsed, s.genesis.BlockGasLimit), nil
}

// AccountState returns the nonce and balance of the account at the tipset.
func (s *State) AccountState(ctx context.Context, account database.AccountID, ts database.Tipset) (database.Account, error) {
	if err := s.checkTipset(ctx, ts); err != nil {
		return database.Account{}, err
	}

	return s.accounts.Query(account), nil
}

// PendingMessages returns a snapshot of the pool.
func (s *State) PendingMessages(ctx context.Context) (selector.Pending, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.mempool.Pending(), nil
}

// checkTipset validates the tipset is the current head.
func (s *State) checkTipset(ctx context.Context, ts database.Tipset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if ts.Key() != s.latest.Key() {
		return fmt.Errorf("%w: %s, head is %s", ErrUnknownTipset, ts.Key(), s.latest.Key())
	}

	return nil
}

// =============================================================================

// NextBaseFee moves the base fee towards the gas target, half of the block
// gas limit. A full block raises the base fee by 1/8 and an empty block
// lowers it by 1/8. The base fee never drops below the minimum.
func NextBaseFee(baseFee *uint256.Int, gasUsed uint64, blockGasLimit uint64) *uint256.Int {
	next := new(uint256.Int)
	if baseFee != nil {
		next.Set(baseFee)
	}

	target := blockGasLimit / 2
	if target == 0 {
		return atLeastMin(next)
	}

	var delta uint64
	var up bool
	switch {
	case gasUsed > target:
		delta, up = min(gasUsed-target, target), true
	default:
		delta = target - gasUsed
	}

	change := new(uint256.Int).Mul(next, uint256.NewInt(delta))
	change.Div(change, uint256.NewInt(target))
	change.Div(change, uint256.NewInt(baseFeeMaxChangeDenom))

	switch {
	case up:
		next.Add(next, change)
	case change.Gt(next):
		next.Clear()
	default:
		next.Sub(next, change)
	}

	return atLeastMin(next)
}

func atLeastMin(fee *uint256.Int) *uint256.Int {
	if fee.LtUint64(minBaseFee) {
		return fee.SetUint64(minBaseFee)
	}
	return fee
}
