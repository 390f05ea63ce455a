// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date                time.Time         `json:"date"`
	ChainID             uint16            `json:"chain_id"`              // The chain id represents an unique id for this running instance.
	BlockGasLimit       uint64            `json:"block_gas_limit"`       // The maximum amount of gas the messages in a block can use.
	MinGasFloor         uint64            `json:"min_gas_floor"`         // Gas of the cheapest possible message, selection stops below it.
	MaxMessages         int               `json:"max_messages"`          // The maximum number of messages that can be in a block.
	BaseFee             uint64            `json:"base_fee"`              // Base fee used for the first block.
	NegativeChainCutoff uint64            `json:"negative_chain_cutoff"` // Height from which chains with a negative reward are not selected.
	BlockDelay          uint16            `json:"block_delay"`           // Seconds between produced blocks.
	PriorityAccounts    []string          `json:"priority_accounts"`     // Accounts whose messages are selected first.
	Balances            map[string]uint64 `json:"balances"`
}

// AllowNegativeChains reports whether chains with a negative reward can be
// selected for a block built on top of the specified height.
func (g Genesis) AllowNegativeChains(height uint64) bool {
	return height < g.NegativeChainCutoff
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
