package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/nameservice"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var (
	to       string
	nonce    uint64
	value    string
	gasLimit uint64
	feeCap   string
	premium  string
	method   uint64
	params   []byte
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a message",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Name or account id of the receiver.")
	sendCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce of the message.")
	sendCmd.Flags().StringVarP(&value, "value", "v", "0", "Value to send.")
	sendCmd.Flags().Uint64VarP(&gasLimit, "gas-limit", "g", 1_000_000, "Gas limit of the message.")
	sendCmd.Flags().StringVarP(&feeCap, "fee-cap", "f", "200", "Highest price per gas unit to pay.")
	sendCmd.Flags().StringVarP(&premium, "premium", "c", "10", "Price per gas unit offered to the producer.")
	sendCmd.Flags().Uint64VarP(&method, "method", "m", 0, "Method to invoke.")
	sendCmd.Flags().BytesHexVarP(&params, "params", "d", nil, "Params of the method.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	ns, err := nameservice.New(accountPath)
	if err != nil {
		return err
	}

	toID, err := ns.AccountID(to)
	if err != nil {
		return fmt.Errorf("to %q: %w", to, err)
	}

	amounts := make([]*uint256.Int, 3)
	for i, s := range []string{value, feeCap, premium} {
		if amounts[i], err = uint256.FromDecimal(s); err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
	}

	from := database.PublicKeyToAccountID(privateKey.PublicKey)

	msg, err := database.NewMessage(from, toID, nonce, amounts[0], gasLimit, amounts[1], amounts[2], params)
	if err != nil {
		return err
	}
	msg.Method = method

	signed, err := msg.Sign(privateKey)
	if err != nil {
		return err
	}

	data, err := json.Marshal(signed)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/msg/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node responded with %s: %s", resp.Status, body)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", signed, body)
	return nil
}
