package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/ardanlabs/msgpool/foundation/blockchain/genesis"
	"github.com/ardanlabs/msgpool/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/msgpool/foundation/blockchain/snapshot"
	"github.com/spf13/cobra"
)

var (
	snapshotPath  string
	genesisPath   string
	strategy      string
	ticketQuality float64
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select the messages for a block from a pool snapshot",
	Long: `Select runs the message selection offline. The snapshot file holds the
tipset, the base fee, the account states and the pending messages. The block
gas limit, the priority accounts and the negative chain cutoff come from the
genesis file.`,
	RunE: selectRun,
}

func init() {
	rootCmd.AddCommand(selectCmd)
	selectCmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Path to the pool snapshot.")
	selectCmd.Flags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")
	selectCmd.Flags().StringVar(&strategy, "strategy", "auto", "Selection strategy: greedy, probabilistic or auto.")
	selectCmd.Flags().Float64VarP(&ticketQuality, "ticket-quality", "q", 1, "Quality of the winning ticket, between 0 and 1.")
	selectCmd.MarkFlagRequired("snapshot")
}

func selectRun(cmd *cobra.Command, args []string) error {
	snap, err := snapshot.Load(snapshotPath)
	if err != nil {
		return err
	}

	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return err
	}

	policy, err := selectPolicy(gen, snap.Tipset())
	if err != nil {
		return err
	}

	result, err := selector.Select(cmd.Context(), snap, snap.Tipset(), policy)
	if err != nil {
		return err
	}

	out := struct {
		Tipset       string   `json:"tipset"`
		Variant      string   `json:"variant"`
		GasUsed      uint64   `json:"gas_used"`
		GasRemaining uint64   `json:"gas_remaining"`
		Priority     int      `json:"priority"`
		Chains       int      `json:"chains"`
		Messages     []string `json:"messages"`
	}{
		Tipset:       snap.Tipset().Key(),
		Variant:      string(policy.Variant),
		GasUsed:      result.GasUsed,
		GasRemaining: result.GasRemaining,
		Priority:     result.Priority,
		Chains:       result.Chains,
		Messages:     make([]string, len(result.Messages)),
	}
	for i, msg := range result.Messages {
		out.Messages[i] = msg.Key()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// selectPolicy builds the policy for a block on top of the tipset.
func selectPolicy(gen genesis.Genesis, ts database.Tipset) (selector.Policy, error) {
	variant := selector.VariantForTicketQuality(ticketQuality)
	if !strings.EqualFold(strategy, "auto") {
		var err error
		if variant, err = selector.ParseVariant(strategy); err != nil {
			return selector.Policy{}, err
		}
	}

	priority := make([]database.AccountID, 0, len(gen.PriorityAccounts))
	for _, hex := range gen.PriorityAccounts {
		accountID, err := database.ToAccountID(hex)
		if err != nil {
			return selector.Policy{}, fmt.Errorf("priority account %q: %w", hex, err)
		}
		priority = append(priority, accountID)
	}

	policy := selector.Policy{
		PriorityAccounts:    priority,
		AllowNegativeChains: gen.AllowNegativeChains(ts.Height + 1),
		Variant:             variant,
		BlockGasLimit:       gen.BlockGasLimit,
		MinGasFloor:         gen.MinGasFloor,
		MaxMessages:         gen.MaxMessages,
		TicketQuality:       ticketQuality,
	}

	return policy, policy.Validate()
}
