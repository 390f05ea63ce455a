// Package accounts maintains account balances and other account information.
package accounts

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/genesis"
	"github.com/holiman/uint256"
)

// Set of error variables for applying messages.
var (
	ErrNonce             = errors.New("invalid nonce")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Accounts manages data related to accounts who have sent messages on
// the blockchain.
type Accounts struct {
	genesis genesis.Genesis
	info    map[database.AccountID]database.Account
	mu      sync.RWMutex
}

// New constructs the accounts with the balances from the genesis file.
func New(genesis genesis.Genesis) *Accounts {
	accts := Accounts{
		genesis: genesis,
		info:    make(map[database.AccountID]database.Account),
	}
	accts.seed()

	return &accts
}

// seed loads the genesis balances. The caller must hold the lock.
func (act *Accounts) seed() {
	act.info = make(map[database.AccountID]database.Account)
	for hex, balance := range act.genesis.Balances {
		accountID := database.AccountID(hex).Canonical()
		act.info[accountID] = database.NewAccount(accountID, uint256.NewInt(balance))
	}
}

// Reset re-initalizes the accounts back to the genesis information.
func (act *Accounts) Reset() {
	act.mu.Lock()
	defer act.mu.Unlock()

	act.seed()
}

// Clone makes a copy of the current accounts.
func (act *Accounts) Clone() *Accounts {
	act.mu.RLock()
	defer act.mu.RUnlock()

	accounts := Accounts{
		genesis: act.genesis,
		info:    make(map[database.AccountID]database.Account, len(act.info)),
	}
	for accountID, info := range act.info {
		accounts.info[accountID] = info.Copy()
	}
	return &accounts
}

// Replace updates the accounts based on the specified accounts.
func (act *Accounts) Replace(accounts *Accounts) {
	cpy := accounts.Clone()

	act.mu.Lock()
	defer act.mu.Unlock()

	act.info = cpy.info
}

// Copy makes a copy of the current information for all accounts.
func (act *Accounts) Copy() map[database.AccountID]database.Account {
	act.mu.RLock()
	defer act.mu.RUnlock()

	accounts := make(map[database.AccountID]database.Account, len(act.info))
	for accountID, info := range act.info {
		accounts[accountID] = info.Copy()
	}
	return accounts
}

// Query returns the information for the specified account. An account that
// never received funds has a zero balance and nonce.
func (act *Accounts) Query(accountID database.AccountID) database.Account {
	accountID = accountID.Canonical()

	act.mu.RLock()
	defer act.mu.RUnlock()

	info, exists := act.info[accountID]
	if !exists {
		return database.NewAccount(accountID, nil)
	}
	return info.Copy()
}

// ValidateNonce validates the nonce for the specified message is not lower
// than the next nonce expected from the account who signed the message.
func (act *Accounts) ValidateNonce(msg database.SignedMessage) error {
	info := act.Query(msg.Sender())

	if msg.Nonce < info.Nonce {
		return fmt.Errorf("%w: got %d, exp >= %d", ErrNonce, msg.Nonce, info.Nonce)
	}

	return nil
}

// ApplyMessage performs the business logic for applying a message to the
// accounts information. The sender pays the value plus the gas limit at the
// effective gas price. The base fee part is burned and the rest goes to the
// block producer.
func (act *Accounts) ApplyMessage(producer database.AccountID, baseFee *uint256.Int, msg database.SignedMessage) error {
	from := msg.Sender()
	to := msg.To.Canonical()
	producer = producer.Canonical()

	act.mu.Lock()
	defer act.mu.Unlock()
	{
		fromInfo := act.account(from)
		if msg.Nonce != fromInfo.Nonce {
			return fmt.Errorf("%w: %s sent %d, exp %d", ErrNonce, from, msg.Nonce, fromInfo.Nonce)
		}

		if fromInfo.Balance.Lt(msg.RequiredFunds()) {
			return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, fromInfo.Balance.Dec(), msg.RequiredFunds().Dec())
		}

		burn, tip := GasCost(baseFee, msg)

		value := orZero(msg.Value)
		fromInfo.Balance.Sub(fromInfo.Balance, value)
		fromInfo.Balance.Sub(fromInfo.Balance, burn)
		fromInfo.Balance.Sub(fromInfo.Balance, tip)
		fromInfo.Nonce++
		act.info[from] = fromInfo

		toInfo := act.account(to)
		toInfo.Balance.Add(toInfo.Balance, value)
		act.info[to] = toInfo

		producerInfo := act.account(producer)
		producerInfo.Balance.Add(producerInfo.Balance, tip)
		act.info[producer] = producerInfo
	}

	return nil
}

// account returns a copy of the account that can be modified. The caller
// must hold the lock.
func (act *Accounts) account(accountID database.AccountID) database.Account {
	info, exists := act.info[accountID]
	if !exists {
		return database.NewAccount(accountID, nil)
	}
	return info.Copy()
}

// =============================================================================

// GasCost splits what the sender pays for gas into the part that is burned
// and the tip paid to the block producer. The gas price is capped by the
// fee cap, so the burn is reduced and the tip is zero when the fee cap is
// below the base fee.
func GasCost(baseFee *uint256.Int, msg database.SignedMessage) (burn *uint256.Int, tip *uint256.Int) {
	feeCap := orZero(msg.GasFeeCap)
	gasLimit := uint256.NewInt(msg.GasLimit)

	price := orZero(baseFee)
	if feeCap.Lt(price) {
		price = feeCap
	}
	burn = new(uint256.Int).Mul(price, gasLimit)

	premium := new(uint256.Int).Sub(feeCap, price)
	if p := orZero(msg.GasPremium); p.Lt(premium) {
		premium = p
	}
	tip = new(uint256.Int).Mul(premium, gasLimit)

	return burn, tip
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
