package storage

import (
	"fmt"
	"io/fs"
	"sync"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
)

// Memory keeps the blocks in memory. It is used by tests and nodes that
// don't need to keep their blocks.
type Memory struct {
	blocks map[uint64]database.BlockData
	mu     sync.RWMutex
}

// NewMemory constructs an empty memory storage.
func NewMemory() *Memory {
	return &Memory{
		blocks: make(map[uint64]database.BlockData),
	}
}

// Close has nothing to release.
func (m *Memory) Close() error {
	return nil
}

// Write stores the block by height.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[blockData.Header.Height] = blockData
	return nil
}

// GetBlock returns the block at the specified height.
func (m *Memory) GetBlock(height uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blockData, exists := m.blocks[height]
	if !exists {
		return database.BlockData{}, fmt.Errorf("block %d: %w", height, fs.ErrNotExist)
	}
	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// block height 1.
func (m *Memory) ForEach() database.Iterator {
	return &DiskIterator{storage: m}
}

// Reset removes all the blocks.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = make(map[uint64]database.BlockData)
	return nil
}
