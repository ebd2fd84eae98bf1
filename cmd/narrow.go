package cmd

import (
	"context"
	"fmt"

	"log-reconciler/core/rpc"
	"log-reconciler/core/scan"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the narrow command
	narrowRefProvider  string
	narrowTestProvider string
)

// narrowCmd rechecks recorded discrepancies block by block.
var narrowCmd = &cobra.Command{
	Use:   "narrow",
	Short: "Recheck recorded discrepancies and narrow them per block",
	Long: `Recheck every recorded discrepancy range against the reference and
test providers.

Ranges where the providers still disagree are narrowed block by block and
each divergent block is reported. Ranges where they now agree get a
staleness note against the recorded count. Narrowing never writes to the
database.

Examples:
  log-reconciler narrow --ref-provider https://ref.example.org --test-provider https://other.example.org`,
	RunE: runNarrow,
}

func init() {
	narrowCmd.Flags().StringVar(&narrowRefProvider, "ref-provider", "", "Reference RPC endpoint (overrides REF_PROVIDER)")
	narrowCmd.Flags().StringVar(&narrowTestProvider, "test-provider", "", "RPC endpoint under verification (overrides TEST_PROVIDER)")

	RootCmd.AddCommand(narrowCmd)
}

func runNarrow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := setup()
	if err != nil {
		return err
	}
	cfg, l := rt.cfg, rt.log

	if cmd.Flags().Changed("ref-provider") {
		cfg.RefProvider = narrowRefProvider
	}
	if cmd.Flags().Changed("test-provider") {
		cfg.TestProvider = narrowTestProvider
	}

	if cfg.RefProvider == "" {
		return fmt.Errorf("no reference provider configured: set REF_PROVIDER or pass --ref-provider")
	}
	if cfg.TestProvider == "" {
		return fmt.Errorf("no test provider configured: set TEST_PROVIDER or pass --test-provider")
	}

	discrepancies, err := rt.store.Discrepancies(cfg.TestProvider)
	if err != nil {
		return err
	}
	if len(discrepancies) == 0 {
		l.Info("no recorded discrepancies for provider", zap.String("provider", cfg.TestProvider))
		return nil
	}

	l.Info("rechecking discrepancies",
		zap.String("ref_provider", cfg.RefProvider),
		zap.String("test_provider", cfg.TestProvider),
		zap.Int("ranges", len(discrepancies)),
	)

	counter := rpc.New(cfg.RPC, cfg.Contract, cfg.Topic, l)
	// Read-only run: no recorder, narrowing never writes.
	localizer := scan.NewLocalizer(counter, nil, cfg.RefProvider, cfg.TestProvider, l)

	findings, err := localizer.Recheck(ctx, discrepancies)
	if err != nil {
		return err
	}

	printFindings(l, findings)
	return nil
}
