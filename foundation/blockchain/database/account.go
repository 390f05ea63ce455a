package database

import (
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Account represents the on-chain state of an individual account at some
// tipset. The nonce is the next nonce the chain expects from the account.
type Account struct {
	AccountID AccountID    `json:"account"`
	Nonce     uint64       `json:"nonce"`
	Balance   *uint256.Int `json:"balance"`
}

// NewAccount constructs a new account value with a zero nonce.
func NewAccount(accountID AccountID, balance *uint256.Int) Account {
	if balance == nil {
		balance = new(uint256.Int)
	}

	return Account{
		AccountID: accountID,
		Balance:   balance.Clone(),
	}
}

// Copy returns a deep copy of the account so the balance can't be shared.
func (a Account) Copy() Account {
	cpy := a
	if a.Balance != nil {
		cpy.Balance = a.Balance.Clone()
	}
	return cpy
}

// =============================================================================

// AccountID represents an account id that is used to sign messages and is
// associated with messages in the pool.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly. The id is returned in its
// checksum form so the same account always maps to the same key.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a.Canonical(), nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).String())
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a AccountID) IsAccountID() bool {
	const addressLength = 20

	s := string(a)
	if has0xPrefix(s) {
		s = s[2:]
	}

	return len(s) == 2*addressLength && isHex(s)
}

// Canonical returns the checksum form of the account id. Two ids that name
// the same account always have the same canonical form.
func (a AccountID) Canonical() AccountID {
	return AccountID(common.HexToAddress(string(a)).Hex())
}

// Less orders account ids by their lower case form. It is used wherever a
// deterministic account ordering is required.
func (a AccountID) Less(other AccountID) bool {
	return strings.ToLower(string(a)) < strings.ToLower(string(other))
}

// =============================================================================

// has0xPrefix validates the account starts with a 0x.
func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// isHex validates whether each byte is valid hexadecimal string.
func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}

	for _, c := range []byte(s) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// =============================================================================

// ByAccount provides sorting support by the account id value.
type ByAccount []Account

// Len returns the number of accounts in the list.
func (ba ByAccount) Len() int {
	return len(ba)
}

// Less helps to sort the list by account id in ascending order.
func (ba ByAccount) Less(i, j int) bool {
	return ba[i].AccountID.Less(ba[j].AccountID)
}

// Swap moves accounts in the order of the account id value.
func (ba ByAccount) Swap(i, j int) {
	ba[i], ba[j] = ba[j], ba[i]
}
