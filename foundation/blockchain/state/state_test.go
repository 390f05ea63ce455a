package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/msgpool/foundation/blockchain/accounts"
	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/database/storage"
	"github.com/ardanlabs/msgpool/foundation/blockchain/genesis"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool"
	"github.com/ardanlabs/msgpool/foundation/blockchain/state"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
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
	pavelKey   = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
	producer   = "0xb85C52aB3d83AB4fb47b9c284561a0e2517557EB"
)

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		ChainID:          1,
		BlockGasLimit:    10_000,
		MinGasFloor:      100,
		BaseFee:          100,
		BlockDelay:       3600,
		PriorityAccounts: []string{producer},
		Balances: map[string]uint64{
			kennedy:  10_000_000,
			pavel:    10_000_000,
			producer: 10_000_000,
		},
	}
}

func sign(key string, from string, to string, nonce uint64, value uint64, premium uint64) (database.SignedMessage, error) {
	pk, err := crypto.HexToECDSA(key)
	if err != nil {
		return database.SignedMessage{}, err
	}

	msg, err := database.NewMessage(database.AccountID(from), database.AccountID(to), nonce, uint256.NewInt(value), 1000, uint256.NewInt(200), uint256.NewInt(premium), nil)
	if err != nil {
		return database.SignedMessage{}, err
	}

	return msg.Sign(pk)
}

func newState(t *testing.T, strg database.Storage) *state.State {
	st, err := state.New(state.Config{
		ProducerAccount: producer,
		Host:            "localhost:9080",
		Genesis:         testGenesis(),
		Storage:         strg,
		Strategy:        "greedy",
		TicketQuality:   1,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}
	return st
}

func submit(t *testing.T, st *state.State, key string, from string, to string, nonce uint64, value uint64, premium uint64) error {
	msg, err := sign(key, from, to, nonce, value, premium)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign a message: %s", failed, err)
	}
	return st.SubmitMessage(msg)
}

// =============================================================================

func TestProduceBlock(t *testing.T) {
	t.Log("Given the need to produce a block from the pool.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling two senders.", testID)
		{
			strg := storage.NewMemory()
			st := newState(t, strg)
			ctx := context.Background()

			if _, err := st.ProduceBlock(ctx); !errors.Is(err, state.ErrNoMessages) {
				t.Fatalf("\t%s\tTest %d:\tShould not produce a block from an empty pool: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not produce a block from an empty pool.", success, testID)

			for _, err := range []error{
				submit(t, st, kennedyKey, kennedy, pavel, 0, 100, 10),
				submit(t, st, kennedyKey, kennedy, pavel, 1, 100, 10),
				submit(t, st, pavelKey, pavel, kennedy, 0, 100, 50),
			} {
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to submit messages: %s", failed, testID, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould be able to submit messages.", success, testID)

			result, err := st.SelectMessages(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to preview the selection: %s", failed, testID, err)
			}

			exp := []string{pavel + ":0", kennedy + ":0", kennedy + ":1"}
			if len(result.Messages) != len(exp) {
				t.Fatalf("\t%s\tTest %d:\tShould select %d messages, got %d.", failed, testID, len(exp), len(result.Messages))
			}
			for i, msg := range result.Messages {
				if msg.Key() != exp[i] {
					t.Fatalf("\t%s\tTest %d:\tShould select %s at %d, got %s.", failed, testID, exp[i], i, msg.Key())
				}
			}
			t.Logf("\t%s\tTest %d:\tShould select the best paying sender first.", success, testID)

			block, err := st.ProduceBlock(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to produce a block: %s", failed, testID, err)
			}

			if block.Header.Height != 1 || block.Header.GasUsed != 3000 || len(block.Values()) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould produce block 1 with 3 messages, got %d with %d.", failed, testID, block.Header.Height, len(block.Values()))
			}
			t.Logf("\t%s\tTest %d:\tShould produce block 1 with 3 messages.", success, testID)

			if n := st.QueryMempoolLength(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould remove the included messages from the pool, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould remove the included messages from the pool.", success, testID)

			balances := map[string]uint64{
				kennedy:  9_779_900,
				pavel:    9_850_100,
				producer: 10_070_000,
			}
			for account, exp := range balances {
				info := st.QueryAccount(database.AccountID(account))
				if info.Balance.Uint64() != exp {
					t.Fatalf("\t%s\tTest %d:\tShould have %d for %s, got %d.", failed, testID, exp, account, info.Balance.Uint64())
				}
			}
			if info := st.QueryAccount(kennedy); info.Nonce != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould advance the sender nonce to 2, got %d.", failed, testID, info.Nonce)
			}
			t.Logf("\t%s\tTest %d:\tShould apply the messages to the accounts.", success, testID)

			if _, err := st.BaseFee(ctx, database.Tipset{}); !errors.Is(err, state.ErrUnknownTipset) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the old head: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the old head.", success, testID)

			if blocks := st.QueryBlocksByHeight(1, state.QueryLatest); len(blocks) != 1 || blocks[0].Hash != block.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the block back.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to read the block back.", success, testID)

			replayed := newState(t, strg)
			if replayed.LatestTipset().Key() != st.LatestTipset().Key() {
				t.Fatalf("\t%s\tTest %d:\tShould replay to the same head, got %s.", failed, testID, replayed.LatestTipset().Key())
			}
			if info := replayed.QueryAccount(pavel); info.Balance.Uint64() != balances[pavel] || info.Nonce != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould replay the accounts.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould replay the stored blocks.", success, testID)

			if err := st.Truncate(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to truncate: %s", failed, testID, err)
			}
			if st.LatestTipset().Height != 0 || st.QueryAccount(kennedy).Balance.Uint64() != 10_000_000 {
				t.Fatalf("\t%s\tTest %d:\tShould reset to the genesis.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reset to the genesis.", success, testID)
		}
	}
}

func TestSubmitMessage(t *testing.T) {
	type table struct {
		name    string
		key     string
		from    string
		nonce   uint64
		value   uint64
		premium uint64
		err     error
	}

	tt := []table{
		{name: "replace too cheap", key: kennedyKey, from: kennedy, nonce: 0, premium: 13, err: mempool.ErrReplaceByFee},
		{name: "replace", key: kennedyKey, from: kennedy, nonce: 0, premium: 14},
		{name: "unaffordable", key: pavelKey, from: pavel, nonce: 0, value: 10_000_000, premium: 10, err: accounts.ErrInsufficientFunds},
		{name: "finalized nonce", key: kennedyKey, from: kennedy, nonce: 0, premium: 100, err: accounts.ErrNonce},
	}

	t.Log("Given the need to validate submitted messages.")
	{
		st := newState(t, storage.NewMemory())

		if err := submit(t, st, kennedyKey, kennedy, pavel, 0, 0, 10); err != nil {
			t.Fatalf("\t%s\tShould be able to submit a message: %s", failed, err)
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					if tst.name == "finalized nonce" {
						if _, err := st.ProduceBlock(context.Background()); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to produce a block: %s", failed, testID, err)
						}
					}

					err := submit(t, st, tst.key, tst.from, pavel, tst.nonce, tst.value, tst.premium)
					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould get error %v, got %v.", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected error.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestNextBaseFee(t *testing.T) {
	type table struct {
		name    string
		baseFee uint64
		gasUsed uint64
		exp     uint64
	}

	tt := []table{
		{name: "full block", baseFee: 1000, gasUsed: 10_000, exp: 1125},
		{name: "over the limit", baseFee: 1000, gasUsed: 20_000, exp: 1125},
		{name: "empty block", baseFee: 1000, gasUsed: 0, exp: 875},
		{name: "on target", baseFee: 1000, gasUsed: 5000, exp: 1000},
		{name: "minimum", baseFee: 100, gasUsed: 0, exp: 100},
	}

	t.Log("Given the need to adjust the base fee to the gas used.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got := state.NextBaseFee(uint256.NewInt(tst.baseFee), tst.gasUsed, 10_000)
					if got.Uint64() != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould get %d, got %d.", failed, testID, tst.exp, got.Uint64())
					}
					t.Logf("\t%s\tTest %d:\tShould get %d.", success, testID, tst.exp)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
