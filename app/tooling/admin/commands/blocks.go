package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
)

// Blocks prints the stored blocks and their messages, starting at the
// optional height argument.
func Blocks(w io.Writer, args []string, strg database.Storage) error {
	var from uint64
	if len(args) == 3 {
		var err error
		if from, err = strconv.ParseUint(args[2], 10, 64); err != nil {
			return fmt.Errorf("parse height: %w", err)
		}
	}

	iter := strg.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return err
		}

		block, err := database.ToBlock(blockData)
		if err != nil {
			return err
		}

		if block.Header.Height < from {
			continue
		}

		fmt.Fprintf(w, "Block: %d  Hash: %s  Producer: %s  BaseFee: %s  GasUsed: %d\n",
			block.Header.Height, blockData.Hash, block.Header.Producer, block.Header.BaseFee.Dec(), block.Header.GasUsed)

		for _, msg := range block.Values() {
			fmt.Fprintf(w, "\tMessage: %s  To: %s  Value: %s  Premium: %s\n", msg.Key(), msg.To, msg.Value.Dec(), msg.GasPremium.Dec())
		}
	}

	return nil
}
