// Package state is the core API for the node and implements the business
// rules for accepting messages, selecting them and producing blocks.
package state

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ardanlabs/msgpool/foundation/blockchain/accounts"
	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/genesis"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
	"github.com/holiman/uint256"
)

// StrategyAuto picks the selection strategy from the ticket quality.
const StrategyAuto = "auto"

// ErrUnknownTipset is returned when chain state is requested for a tipset
// that is not the current head.
var ErrUnknownTipset = errors.New("unknown tipset")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of messages and blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for producing blocks.
type Worker interface {
	Shutdown()
	SignalStartProducing()
	SignalCancelProducing() (done func())
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config struct {
	ProducerAccount database.AccountID
	Host            string
	Genesis         genesis.Genesis
	Storage         database.Storage
	Strategy        string
	TicketQuality   float64
	EvHandler       EventHandler
}

// State manages the accounts, the pool and the head of the chain.
type State struct {
	producer  database.AccountID
	host      string
	evHandler EventHandler
	variant   selector.Variant
	tq        float64
	priority  []database.AccountID

	genesis  genesis.Genesis
	storage  database.Storage
	mempool  *mempool.Mempool
	accounts *accounts.Accounts

	latest  database.Tipset
	mu      sync.RWMutex
	produce sync.Mutex

	Worker Worker
}

// New constructs the node state and replays the blocks found in storage.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	variant, err := resolveVariant(cfg.Strategy, cfg.TicketQuality)
	if err != nil {
		return nil, err
	}

	priority := make([]database.AccountID, 0, len(cfg.Genesis.PriorityAccounts))
	for _, hex := range cfg.Genesis.PriorityAccounts {
		accountID, err := database.ToAccountID(hex)
		if err != nil {
			return nil, fmt.Errorf("priority account %q: %w", hex, err)
		}
		priority = append(priority, accountID)
	}

	state := State{
		producer:  cfg.ProducerAccount.Canonical(),
		host:      cfg.Host,
		evHandler: ev,
		variant:   variant,
		tq:        cfg.TicketQuality,
		priority:  priority,

		genesis:  cfg.Genesis,
		storage:  cfg.Storage,
		mempool:  mempool.New(),
		accounts: accounts.New(cfg.Genesis),
		latest:   genesisTipset(cfg.Genesis),
	}

	if err := state.replay(); err != nil {
		return nil, err
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the storage is properly closed.
	defer func() {
		s.storage.Close()
	}()

	// Stop all block production.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Truncate resets the chain both in storage and in memory.
func (s *State) Truncate() error {

	// A block being produced must not be applied on top of the reset chain.
	if s.Worker != nil {
		done := s.Worker.SignalCancelProducing()
		defer done()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.Truncate()
	s.accounts.Reset()
	s.latest = genesisTipset(s.genesis)

	return s.storage.Reset()
}

// Host returns the host the node is running on.
func (s *State) Host() string {
	return s.host
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// =============================================================================

// replay applies the blocks in storage to rebuild the accounts and the head.
func (s *State) replay() error {
	iter := s.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return err
		}

		block, err := database.ToBlock(blockData)
		if err != nil {
			return err
		}

		s.evHandler("state: replay: blk[%d]: msgs[%d]", block.Header.Height, len(block.Values()))

		if err := block.ValidateBlock(s.latest, s.evHandler); err != nil {
			return fmt.Errorf("replay block %d: %w", block.Header.Height, err)
		}

		for _, msg := range block.Values() {
			if err := s.accounts.ApplyMessage(block.Header.Producer, block.Header.BaseFee, msg); err != nil {
				return fmt.Errorf("replay block %d: %w", block.Header.Height, err)
			}
		}

		s.latest = block.Tipset()
	}

	return nil
}

// resolveVariant maps the configured strategy name to a selection variant.
func resolveVariant(strategy string, tq float64) (selector.Variant, error) {
	if tq < 0 || tq > 1 {
		return "", fmt.Errorf("%w: ticket quality %v out of range", selector.ErrInvalidPolicy, tq)
	}

	if strategy == "" || strings.EqualFold(strategy, StrategyAuto) {
		return selector.VariantForTicketQuality(tq), nil
	}

	return selector.ParseVariant(strategy)
}

// genesisTipset returns the tipset the first block is built on.
func genesisTipset(g genesis.Genesis) database.Tipset {
	return database.Tipset{
		ParentBaseFee: uint256.NewInt(g.BaseFee),
	}
}
