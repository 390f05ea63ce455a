package public

import (
	"math/big"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/msgpool/foundation/nameservice"
	"github.com/holiman/uint256"
)

// newMessage is what a wallet posts to submit a signed message.
type newMessage struct {
	From       string       `json:"from" validate:"required,account"`
	To         string       `json:"to" validate:"required,account"`
	Nonce      uint64       `json:"nonce"`
	Value      *uint256.Int `json:"value"`
	GasLimit   uint64       `json:"gas_limit" validate:"gt=0"`
	GasFeeCap  *uint256.Int `json:"gas_fee_cap" validate:"required"`
	GasPremium *uint256.Int `json:"gas_premium" validate:"required"`
	Method     uint64       `json:"method"`
	Params     []byte       `json:"params"`
	V          *big.Int     `json:"v" validate:"required"`
	R          *big.Int     `json:"r" validate:"required"`
	S          *big.Int     `json:"s" validate:"required"`
}

func toSignedMessage(nm newMessage) database.SignedMessage {
	return database.SignedMessage{
		Message: database.Message{
			From:       database.AccountID(nm.From),
			To:         database.AccountID(nm.To),
			Nonce:      nm.Nonce,
			Value:      nm.Value,
			GasLimit:   nm.GasLimit,
			GasFeeCap:  nm.GasFeeCap,
			GasPremium: nm.GasPremium,
			Method:     nm.Method,
			Params:     nm.Params,
		},
		V: nm.V,
		R: nm.R,
		S: nm.S,
	}
}

// =============================================================================

type msg struct {
	From       database.AccountID `json:"from"`
	FromName   string             `json:"from_name"`
	To         database.AccountID `json:"to"`
	ToName     string             `json:"to_name"`
	Nonce      uint64             `json:"nonce"`
	Value      *uint256.Int       `json:"value"`
	GasLimit   uint64             `json:"gas_limit"`
	GasFeeCap  *uint256.Int       `json:"gas_fee_cap"`
	GasPremium *uint256.Int       `json:"gas_premium"`
	Sig        string             `json:"sig"`
}

func toMsgs(ns *nameservice.NameService, signed []database.SignedMessage) []msg {
	msgs := make([]msg, len(signed))
	for i, sm := range signed {
		msgs[i] = msg{
			From:       sm.Sender(),
			FromName:   ns.Lookup(sm.From),
			To:         sm.To.Canonical(),
			ToName:     ns.Lookup(sm.To),
			Nonce:      sm.Nonce,
			Value:      sm.Value,
			GasLimit:   sm.GasLimit,
			GasFeeCap:  sm.GasFeeCap,
			GasPremium: sm.GasPremium,
			Sig:        sm.SignatureString(),
		}
	}
	return msgs
}

type info struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Nonce   uint64             `json:"nonce"`
	Balance *uint256.Int       `json:"balance"`
}

type actInfo struct {
	Tipset   string `json:"tipset"`
	Pending  int    `json:"pending"`
	Accounts []info `json:"accounts"`
}

type selection struct {
	Tipset       string           `json:"tipset"`
	BaseFee      *uint256.Int     `json:"base_fee"`
	Variant      selector.Variant `json:"variant"`
	GasUsed      uint64           `json:"gas_used"`
	GasRemaining uint64           `json:"gas_remaining"`
	Priority     int              `json:"priority"`
	Chains       int              `json:"chains"`
	Messages     []msg            `json:"messages"`
}
