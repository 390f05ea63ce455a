package storage_test

import (
	"testing"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/database/storage"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestStorage(t *testing.T) {
	disk, err := storage.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open the disk storage: %s", failed, err)
	}

	type table struct {
		name string
		strg database.Storage
	}

	tt := []table{
		{name: "memory", strg: storage.NewMemory()},
		{name: "disk", strg: disk},
	}

	t.Log("Given the need to store produced blocks.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen using %s storage.", testID, tst.name)
			{
				f := func(t *testing.T) {
					parent := database.Tipset{}
					for range 3 {
						block, err := database.NewBlock(database.BlockArgs{
							Producer: "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32",
							Parent:   parent,
							BaseFee:  uint256.NewInt(100),
							GasLimit: 1000,
						})
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to build a block: %s", failed, testID, err)
						}

						if err := tst.strg.Write(database.NewBlockData(block)); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to write a block: %s", failed, testID, err)
						}
						parent = block.Tipset()
					}
					t.Logf("\t%s\tTest %d:\tShould be able to write blocks.", success, testID)

					var heights []uint64
					iter := tst.strg.ForEach()
					for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to read a block: %s", failed, testID, err)
						}
						heights = append(heights, blockData.Header.Height)
					}

					if len(heights) != 3 || heights[0] != 1 || heights[2] != 3 {
						t.Fatalf("\t%s\tTest %d:\tShould read the blocks in order, got %v.", failed, testID, heights)
					}
					t.Logf("\t%s\tTest %d:\tShould read the blocks in order.", success, testID)

					if err := tst.strg.Reset(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to reset: %s", failed, testID, err)
					}
					if _, err := tst.strg.GetBlock(1); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould not find a block after reset.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not find a block after reset.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
