// Package mempool maintains the pool of messages waiting to be included in
// a block.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
	"github.com/holiman/uint256"
)

// ErrReplaceByFee is returned when a message replaces a pending message
// without paying a high enough premium.
var ErrReplaceByFee = errors.New("replace by fee premium too low")

// A replacing message must raise the premium by 64/256 of the current
// premium plus a minimum bump.
const (
	rbfNum   = 64
	rbfDenom = 256
	rbfBump  = 2
)

// Mempool represents a cache of messages organized by sender:nonce.
type Mempool struct {
	pool map[string]database.SignedMessage
	mu   sync.RWMutex
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.SignedMessage),
	}
}

// Count returns the current number of messages in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a message to the mempool. A message with the same sender and
// nonce is replaced only when the new premium is more than 1.25 times the
// current premium. The number of messages in the pool is returned.
func (mp *Mempool) Upsert(msg database.SignedMessage) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := msg.Key()

	if cur, exists := mp.pool[key]; exists && !cur.Equals(msg) {
		minPremium := MinReplacePremium(cur.GasPremium)
		if premium(msg).Lt(minPremium) {
			return len(mp.pool), fmt.Errorf("%w: message %s needs a premium of %s", ErrReplaceByFee, key, minPremium.Dec())
		}
	}

	mp.pool[key] = msg

	return len(mp.pool), nil
}

// Delete removes a message from the mempool.
func (mp *Mempool) Delete(msg database.SignedMessage) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, msg.Key())
}

// Prune removes the messages of the account with a nonce lower than the
// specified nonce. The number of messages removed is returned.
func (mp *Mempool) Prune(account database.AccountID, nonce uint64) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	account = account.Canonical()

	var n int
	for key, msg := range mp.pool {
		if msg.Sender() == account && msg.Nonce < nonce {
			delete(mp.pool, key)
			n++
		}
	}

	return n
}

// Truncate clears all the messages from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.SignedMessage)
}

// Copy returns a list of the current messages in the pool, ordered by
// sender and nonce.
func (mp *Mempool) Copy() []database.SignedMessage {
	mp.mu.RLock()
	msgs := make([]database.SignedMessage, 0, len(mp.pool))
	for _, msg := range mp.pool {
		msgs = append(msgs, msg)
	}
	mp.mu.RUnlock()

	sort.Sort(bySenderNonce(msgs))

	return msgs
}

// Pending takes a snapshot of the pool grouped by sender for selection.
// Callers own the snapshot.
func (mp *Mempool) Pending() selector.Pending {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	pending := make(selector.Pending)
	for _, msg := range mp.pool {
		sender := msg.Sender()
		if pending[sender] == nil {
			pending[sender] = make(map[uint64]database.SignedMessage)
		}
		pending[sender][msg.Nonce] = msg
	}

	return pending
}

// =============================================================================

// MinReplacePremium returns the smallest premium a message must pay to
// replace a pending message paying the specified premium. The bump is
// never zero, even for a zero premium.
func MinReplacePremium(current *uint256.Int) *uint256.Int {
	if current == nil {
		current = new(uint256.Int)
	}

	raise := new(uint256.Int).Mul(current, uint256.NewInt(rbfNum))
	raise.Div(raise, uint256.NewInt(rbfDenom))

	minPremium := new(uint256.Int).Add(current, raise)
	minPremium.Add(minPremium, uint256.NewInt(rbfBump))

	return minPremium
}

func premium(msg database.SignedMessage) *uint256.Int {
	if msg.GasPremium == nil {
		return new(uint256.Int)
	}
	return msg.GasPremium
}
