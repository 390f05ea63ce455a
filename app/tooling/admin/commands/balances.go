// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/genesis"
	"github.com/ardanlabs/msgpool/foundation/blockchain/state"
	"go.uber.org/zap"
)

// Balances replays the stored blocks and prints the resulting accounts.
func Balances(w io.Writer, args []string, log *zap.SugaredLogger, gen genesis.Genesis, strg database.Storage) error {
	var onlyAct database.AccountID
	if len(args) == 3 {
		accountID, err := database.ToAccountID(args[2])
		if err != nil {
			return err
		}
		onlyAct = accountID
	}

	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: strg,
		EvHandler: func(v string, args ...any) {
			log.Debugw(fmt.Sprintf(v, args...))
		},
	})
	if err != nil {
		return err
	}

	latest := st.LatestTipset()
	baseFee, err := st.BaseFee(context.Background(), latest)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "LatestTipset: %s  NextBaseFee: %s\n\n", latest.Key(), baseFee.Dec())

	for _, account := range st.QueryAccounts() {
		if onlyAct != "" && account.AccountID != onlyAct {
			continue
		}
		fmt.Fprintf(w, "Account: %s  Balance: %s  Nonce: %d\n", account.AccountID, account.Balance.Dec(), account.Nonce)
	}

	return nil
}
