package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/msgpool/foundation/blockchain/merkle"
	"github.com/ardanlabs/msgpool/foundation/blockchain/signature"
	"github.com/holiman/uint256"
)

// ErrChainForked is returned when a block doesn't extend the current head.
var ErrChainForked = errors.New("block does not extend the current head")

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	ParentHash   string       `json:"parent_hash"`   // Key of the tipset the block is built on.
	TimeStamp    uint64       `json:"timestamp"`     // Time the block was produced.
	Producer     AccountID    `json:"producer"`      // The account receiving the tips.
	Height       uint64       `json:"height"`        // Block height in the chain.
	BaseFee      *uint256.Int `json:"base_fee"`      // Base fee the messages were selected against.
	GasLimit     uint64       `json:"gas_limit"`     // Block gas limit.
	GasUsed      uint64       `json:"gas_used"`      // Sum of the gas limit of the messages.
	MessagesRoot string       `json:"messages_root"` // Merkle root of the messages in this block.
}

// Block represents a group of messages batched together.
type Block struct {
	Header   BlockHeader
	Messages *merkle.Tree[SignedMessage]
}

// BlockArgs are the values needed to construct a block.
type BlockArgs struct {
	Producer AccountID
	Parent   Tipset
	BaseFee  *uint256.Int
	GasLimit uint64
	Messages []SignedMessage
}

// NewBlock constructs a block from the selected messages. The messages are
// kept in the order they were selected.
func NewBlock(args BlockArgs) (Block, error) {
	var gasUsed uint64
	for _, msg := range args.Messages {
		gasUsed += msg.GasLimit
	}

	root := signature.ZeroHash
	var tree *merkle.Tree[SignedMessage]
	if len(args.Messages) > 0 {
		var err error
		if tree, err = merkle.NewTree(args.Messages); err != nil {
			return Block{}, err
		}
		root = tree.RootHex()
	}

	block := Block{
		Header: BlockHeader{
			ParentHash:   args.Parent.Key(),
			TimeStamp:    uint64(time.Now().UTC().UnixMilli()),
			Producer:     args.Producer.Canonical(),
			Height:       args.Parent.Height + 1,
			BaseFee:      orZero(args.BaseFee),
			GasLimit:     args.GasLimit,
			GasUsed:      gasUsed,
			MessagesRoot: root,
		},
		Messages: tree,
	}

	return block, nil
}

// Values returns the messages in the block.
func (b Block) Values() []SignedMessage {
	if b.Messages == nil {
		return nil
	}
	return b.Messages.Values()
}

// Hash returns the unique hash for the block header.
func (b Block) Hash() string {
	return signature.Hash(b.Header)
}

// Tipset returns the tipset the block produces.
func (b Block) Tipset() Tipset {
	return Tipset{
		Height:        b.Header.Height,
		ParentHash:    b.Header.ParentHash,
		MessagesRoot:  b.Header.MessagesRoot,
		ParentBaseFee: orZero(b.Header.BaseFee),
		GasUsed:       b.Header.GasUsed,
		Messages:      len(b.Values()),
	}
}

// ValidateBlock takes a block and validates it can extend the parent tipset.
func (b Block) ValidateBlock(parent Tipset, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block extends the head", b.Header.Height)

	if b.Header.Height != parent.Height+1 || b.Header.ParentHash != parent.Key() {
		return fmt.Errorf("%w: parent %s, block %d on %s", ErrChainForked, parent.Key(), b.Header.Height, b.Header.ParentHash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: gas used is within the limit", b.Header.Height)

	msgs := b.Values()

	var gasUsed uint64
	for _, msg := range msgs {
		gasUsed += msg.GasLimit
	}

	if gasUsed != b.Header.GasUsed || gasUsed > b.Header.GasLimit {
		return fmt.Errorf("block gas used %d doesn't match messages %d or exceeds limit %d", b.Header.GasUsed, gasUsed, b.Header.GasLimit)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: sender nonces are in order", b.Header.Height)

	last := make(map[AccountID]uint64)
	for _, msg := range msgs {
		sender := msg.Sender()
		if nonce, exists := last[sender]; exists && msg.Nonce != nonce+1 {
			return fmt.Errorf("message %s is out of order, previous nonce %d", msg, nonce)
		}
		last[sender] = msg.Nonce
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root does match messages", b.Header.Height)

	root := signature.ZeroHash
	if b.Messages != nil {
		root = b.Messages.RootHex()
	}

	if b.Header.MessagesRoot != root {
		return fmt.Errorf("merkle root does not match messages, got %s, exp %s", root, b.Header.MessagesRoot)
	}

	return nil
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
type BlockData struct {
	Hash     string          `json:"hash"`
	Header   BlockHeader     `json:"block"`
	Messages []SignedMessage `json:"messages"`
}

// NewBlockData constructs block data from a block.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:     block.Hash(),
		Header:   block.Header,
		Messages: block.Values(),
	}
}

// ToBlock converts a storage block into a database block.
func ToBlock(blockData BlockData) (Block, error) {
	block := Block{
		Header: blockData.Header,
	}

	if len(blockData.Messages) > 0 {
		tree, err := merkle.NewTree(blockData.Messages)
		if err != nil {
			return Block{}, err
		}
		block.Messages = tree
	}

	return block, nil
}
