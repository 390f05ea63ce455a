package worker_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/database/storage"
	"github.com/ardanlabs/msgpool/foundation/blockchain/genesis"
	"github.com/ardanlabs/msgpool/foundation/blockchain/state"
	"github.com/ardanlabs/msgpool/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/goleak"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	kennedy    = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	kennedyKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pavel      = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
	producer   = "0xb85C52aB3d83AB4fb47b9c284561a0e2517557EB"
)

func TestProduce(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Log("Given the need to produce blocks in the background.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen production is signaled.", testID)
		{
			st, err := state.New(state.Config{
				ProducerAccount: producer,
				Genesis: genesis.Genesis{
					BlockGasLimit: 10_000,
					MinGasFloor:   100,
					BaseFee:       100,
					BlockDelay:    3600,
					Balances:      map[string]uint64{kennedy: 10_000_000},
				},
				Storage:  storage.NewMemory(),
				Strategy: "greedy",
				EvHandler: func(v string, args ...any) {
					t.Logf(v, args...)
				},
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the state: %s", failed, testID, err)
			}

			worker.Run(st, func(v string, args ...any) {
				t.Logf(v, args...)
			})

			pk, err := crypto.HexToECDSA(kennedyKey)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the key: %s", failed, testID, err)
			}

			msg, err := database.NewMessage(kennedy, pavel, 0, uint256.NewInt(10), 1000, uint256.NewInt(200), uint256.NewInt(10), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create a message: %s", failed, testID, err)
			}

			signed, err := msg.Sign(pk)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign a message: %s", failed, testID, err)
			}

			if err := st.SubmitMessage(signed); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit a message: %s", failed, testID, err)
			}

			st.Worker.SignalStartProducing()

			deadline := time.Now().Add(5 * time.Second)
			for st.LatestTipset().Height == 0 && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}

			if st.LatestTipset().Height != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould produce a block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould produce a block.", success, testID)

			if err := st.Shutdown(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to shutdown: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to shutdown without leaking goroutines.", success, testID)
		}
	}
}
