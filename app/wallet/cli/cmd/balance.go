package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

type account struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Nonce   uint64             `json:"nonce"`
	Balance *uint256.Int       `json:"balance"`
}

type accounts struct {
	Tipset   string    `json:"tipset"`
	Pending  int       `json:"pending"`
	Accounts []account `json:"accounts"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance and next nonce.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

func balanceRun(cmd *cobra.Command, args []string) error {
	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	accountID := database.PublicKeyToAccountID(privateKey.PublicKey)

	resp, err := http.Get(fmt.Sprintf("%s/v1/accounts/list/%s", url, accountID))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node responded with %s", resp.Status)
	}

	var acts accounts
	if err := json.NewDecoder(resp.Body).Decode(&acts); err != nil {
		return err
	}

	for _, act := range acts.Accounts {
		fmt.Fprintf(cmd.OutOrStdout(), "account: %s\nbalance: %s\nnonce:   %d\ntipset:  %s\n", act.Account, act.Balance.Dec(), act.Nonce, acts.Tipset)
	}

	return nil
}
