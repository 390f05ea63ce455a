package database

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Tipset is the reference point in the chain that base fee and account
// state are evaluated against.
type Tipset struct {
	Height        uint64       `json:"height"`
	ParentHash    string       `json:"parent_hash"`
	MessagesRoot  string       `json:"messages_root"`
	ParentBaseFee *uint256.Int `json:"parent_base_fee"`
	GasUsed       uint64       `json:"gas_used"`
	Messages      int          `json:"messages"`
}

// Key returns a string that uniquely names the tipset.
func (ts Tipset) Key() string {
	return fmt.Sprintf("%d:%s", ts.Height, ts.MessagesRoot)
}

// String implements the fmt.Stringer interface for logging.
func (ts Tipset) String() string {
	return fmt.Sprintf("tipset[%d]", ts.Height)
}
