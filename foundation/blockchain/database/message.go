package database

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/ardanlabs/msgpool/foundation/blockchain/signature"
	"github.com/holiman/uint256"
)

// Message is the unsigned content a sender submits for inclusion in a block.
type Message struct {
	From       AccountID    `json:"from"`        // Account paying for and signing the message.
	To         AccountID    `json:"to"`          // Account receiving the message.
	Nonce      uint64       `json:"nonce"`       // Per sender sequence number.
	Value      *uint256.Int `json:"value"`       // Amount transferred to the receiving account.
	GasLimit   uint64       `json:"gas_limit"`   // Upper bound on the gas the message may consume.
	GasFeeCap  *uint256.Int `json:"gas_fee_cap"` // Highest price per gas unit the sender will pay.
	GasPremium *uint256.Int `json:"gas_premium"` // Price per gas unit offered to the block producer.
	Method     uint64       `json:"method"`      // Method to invoke on the receiving account.
	Params     []byte       `json:"params"`      // Opaque payload for the method.
}

// NewMessage constructs a new message and validates the account formats.
func NewMessage(from AccountID, to AccountID, nonce uint64, value *uint256.Int, gasLimit uint64, feeCap *uint256.Int, premium *uint256.Int, params []byte) (Message, error) {
	if !from.IsAccountID() {
		return Message{}, fmt.Errorf("from account is not properly formatted")
	}
	if !to.IsAccountID() {
		return Message{}, fmt.Errorf("to account is not properly formatted")
	}

	msg := Message{
		From:       from,
		To:         to,
		Nonce:      nonce,
		Value:      orZero(value),
		GasLimit:   gasLimit,
		GasFeeCap:  orZero(feeCap),
		GasPremium: orZero(premium),
		Params:     params,
	}

	return msg, nil
}

// Sign uses the specified private key to sign the message. The key must
// belong to the from account.
func (m Message) Sign(privateKey *ecdsa.PrivateKey) (SignedMessage, error) {
	if PublicKeyToAccountID(privateKey.PublicKey) != m.From.Canonical() {
		return SignedMessage{}, errors.New("private key does not match from account")
	}

	m = m.normalize()

	v, r, s, err := signature.Sign(m, privateKey)
	if err != nil {
		return SignedMessage{}, err
	}

	signedMsg := SignedMessage{
		Message: m,
		V:       v,
		R:       r,
		S:       s,
	}

	return signedMsg, nil
}

// RequiredFunds returns the most the sender can be charged for the message,
// which is the fee cap for every unit of gas plus the value transferred.
func (m Message) RequiredFunds() *uint256.Int {
	m = m.normalize()

	funds, overflow := new(uint256.Int).MulOverflow(m.GasFeeCap, uint256.NewInt(m.GasLimit))
	if overflow {
		return new(uint256.Int).SetAllOne()
	}

	if _, overflow := funds.AddOverflow(funds, m.Value); overflow {
		return new(uint256.Int).SetAllOne()
	}

	return funds
}

// normalize replaces missing amounts with zero so the message can be
// marshaled and compared consistently.
func (m Message) normalize() Message {
	m.Value = orZero(m.Value)
	m.GasFeeCap = orZero(m.GasFeeCap)
	m.GasPremium = orZero(m.GasPremium)
	return m
}

// =============================================================================

// SignedMessage is a signed version of the message. This is how clients
// like a wallet provide messages for the pool.
type SignedMessage struct {
	Message
	V *big.Int `json:"v"` // Recovery identifier, either 29 or 30.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// Validate verifies the message has a proper signature that conforms to
// our standards and was produced by the claimed from account.
func (sm SignedMessage) Validate() error {
	if !sm.From.IsAccountID() {
		return errors.New("invalid account for from account")
	}

	if !sm.To.IsAccountID() {
		return errors.New("invalid account for to account")
	}

	if sm.GasLimit == 0 {
		return errors.New("gas limit must be greater than zero")
	}

	if sm.V == nil || sm.R == nil || sm.S == nil {
		return errors.New("message is not signed")
	}

	if err := signature.VerifySignature(sm.Message.normalize(), sm.V, sm.R, sm.S); err != nil {
		return err
	}

	from, err := sm.FromAccount()
	if err != nil {
		return err
	}

	if from.Canonical() != sm.Sender() {
		return fmt.Errorf("signature belongs to %s, not %s", from, sm.From)
	}

	return nil
}

// FromAccount extracts the account id that signed the message.
func (sm SignedMessage) FromAccount() (AccountID, error) {
	address, err := signature.FromAddress(sm.Message.normalize(), sm.V, sm.R, sm.S)
	return AccountID(address), err
}

// Sender returns the canonical account id of the sender.
func (sm SignedMessage) Sender() AccountID {
	return sm.From.Canonical()
}

// Key returns the pool key for the message, sender and nonce.
func (sm SignedMessage) Key() string {
	return fmt.Sprintf("%s:%d", sm.Sender(), sm.Nonce)
}

// SignatureString returns the signature as a string.
func (sm SignedMessage) SignatureString() string {
	if sm.V == nil || sm.R == nil || sm.S == nil {
		return ""
	}
	return signature.SignatureString(sm.V, sm.R, sm.S)
}

// String implements the fmt.Stringer interface for logging.
func (sm SignedMessage) String() string {
	return sm.Key()
}

// Hash implements the merkle Hashable interface for providing a hash
// of a signed message.
func (sm SignedMessage) Hash() ([]byte, error) {
	str := signature.Hash(sm)
	return hex.DecodeString(str[2:])
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two signed messages. If the sender, nonce and signatures are
// the same, the two messages are the same.
func (sm SignedMessage) Equals(other SignedMessage) bool {
	if sm.Sender() != other.Sender() || sm.Nonce != other.Nonce {
		return false
	}

	if sm.V == nil || other.V == nil {
		return sm.V == other.V
	}

	smSig := signature.ToSignatureBytes(sm.V, sm.R, sm.S)
	otherSig := signature.ToSignatureBytes(other.V, other.R, other.S)

	return bytes.Equal(smSig, otherSig)
}

// =============================================================================

// orZero returns a copy of the amount or zero when the amount is missing.
func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
