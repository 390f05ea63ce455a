package state

import (
	"fmt"

	"github.com/ardanlabs/msgpool/foundation/blockchain/accounts"
	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
)

// SubmitMessage accepts a signed message from a wallet for inclusion in
// the pool.
func (s *State) SubmitMessage(msg database.SignedMessage) error {
	if err := s.validateMessage(msg); err != nil {
		return err
	}

	n, err := s.mempool.Upsert(msg)
	if err != nil {
		return err
	}

	metricPoolSize.Set(float64(n))
	s.evHandler("viewer: message: msg[%s]: pool[%d]", msg, n)

	return nil
}

// validateMessage takes the signed message and validates it has a proper
// signature, a usable nonce and is affordable by the sender.
func (s *State) validateMessage(msg database.SignedMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := s.accounts.ValidateNonce(msg); err != nil {
		return err
	}

	info := s.accounts.Query(msg.Sender())
	if required := msg.RequiredFunds(); info.Balance.Lt(required) {
		return fmt.Errorf("%w: %s has %s, needs %s", accounts.ErrInsufficientFunds, info.AccountID, info.Balance.Dec(), required.Dec())
	}

	return nil
}
