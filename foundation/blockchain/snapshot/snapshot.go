// Package snapshot provides a static view of the chain and the message pool
// read from a JSON document. It is used to run selections offline.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
	"github.com/holiman/uint256"
)

// ErrUnknownTipset is returned when the state of a tipset other than the
// snapshot's tipset is requested.
var ErrUnknownTipset = errors.New("unknown tipset")

// Document is the JSON representation of a snapshot.
type Document struct {
	Tipset   database.Tipset          `json:"tipset"`
	BaseFee  *uint256.Int             `json:"base_fee"`
	Accounts []database.Account       `json:"accounts"`
	Messages []database.SignedMessage `json:"messages"`
}

// Snapshot implements the selector provider over a document.
type Snapshot struct {
	tipset   database.Tipset
	baseFee  *uint256.Int
	accounts map[database.AccountID]database.Account
	pending  selector.Pending
}

// New constructs a snapshot from the document.
func New(doc Document) *Snapshot {
	baseFee := new(uint256.Int)
	if doc.BaseFee != nil {
		baseFee.Set(doc.BaseFee)
	}

	snap := Snapshot{
		tipset:   doc.Tipset,
		baseFee:  baseFee,
		accounts: make(map[database.AccountID]database.Account, len(doc.Accounts)),
		pending:  make(selector.Pending),
	}

	for _, act := range doc.Accounts {
		act = act.Copy()
		act.AccountID = act.AccountID.Canonical()
		if act.Balance == nil {
			act.Balance = new(uint256.Int)
		}
		snap.accounts[act.AccountID] = act
	}

	for _, msg := range doc.Messages {
		sender := msg.Sender()
		if snap.pending[sender] == nil {
			snap.pending[sender] = make(map[uint64]database.SignedMessage)
		}
		snap.pending[sender][msg.Nonce] = msg
	}

	return &snap
}

// Decode reads a document from the reader.
func Decode(r io.Reader) (*Snapshot, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	return New(doc), nil
}

// Load reads a document from the specified file.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

// Tipset returns the tipset the snapshot was taken at.
func (s *Snapshot) Tipset() database.Tipset {
	return s.tipset
}

// BaseFee implements the selector provider.
func (s *Snapshot) BaseFee(ctx context.Context, ts database.Tipset) (*uint256.Int, error) {
	if err := s.check(ts); err != nil {
		return nil, err
	}
	return s.baseFee.Clone(), nil
}

// AccountState implements the selector provider. An account missing from
// the document has a zero nonce and balance.
func (s *Snapshot) AccountState(ctx context.Context, account database.AccountID, ts database.Tipset) (database.Account, error) {
	if err := s.check(ts); err != nil {
		return database.Account{}, err
	}

	act, exists := s.accounts[account.Canonical()]
	if !exists {
		return database.NewAccount(account.Canonical(), nil), nil
	}
	return act.Copy(), nil
}

// PendingMessages implements the selector provider. The caller owns the
// returned snapshot.
func (s *Snapshot) PendingMessages(ctx context.Context) (selector.Pending, error) {
	pending := make(selector.Pending, len(s.pending))
	for sender, msgs := range s.pending {
		cpy := make(map[uint64]database.SignedMessage, len(msgs))
		for nonce, msg := range msgs {
			cpy[nonce] = msg
		}
		pending[sender] = cpy
	}
	return pending, nil
}

func (s *Snapshot) check(ts database.Tipset) error {
	if ts.Key() != s.tipset.Key() {
		return fmt.Errorf("%w: %s", ErrUnknownTipset, ts)
	}
	return nil
}
