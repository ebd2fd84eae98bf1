package cmd

import (
	"context"
	"fmt"

	"log-reconciler/core/config"
	"log-reconciler/core/rpc"
	"log-reconciler/core/scan"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the verify command
	verifyFromBlock     int64
	verifyToBlock       int64
	verifyTestProvider  string
	verifyDeleteRPCData bool
)

// verifyCmd compares stored range counts against a test provider.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify stored range counts against a test provider",
	Long: `Verify previously fetched log counts by querying both the reference
and a test provider per stored range.

Agreeing ranges cost one extra call per provider. Disagreeing ranges are
narrowed block by block, every divergent block is reported, and one
discrepancy row per range is recorded with the test provider's live count.

Optional --from-block/--to-block bounds snap to the nearest stored range
boundaries.

Examples:
  # Verify everything stored for the reference provider
  log-reconciler verify --test-provider https://other-rpc.example.org

  # Verify a sub-window
  log-reconciler verify --from-block 6300000 --to-block 6400000

  # Drop all recorded discrepancies for the test provider and exit
  log-reconciler verify --delete-rpc-data`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Int64Var(&verifyFromBlock, "from-block", -1, "Approximate window start; snaps to the nearest stored from_block")
	verifyCmd.Flags().Int64Var(&verifyToBlock, "to-block", -1, "Approximate window end; snaps to the nearest stored to_block")
	verifyCmd.Flags().StringVar(&verifyTestProvider, "test-provider", "", "RPC endpoint under verification (overrides TEST_PROVIDER)")
	verifyCmd.Flags().BoolVar(&verifyDeleteRPCData, "delete-rpc-data", false, "Delete all discrepancy rows for the test provider and exit")

	RootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := setup()
	if err != nil {
		return err
	}
	cfg, l := rt.cfg, rt.log

	if cmd.Flags().Changed("from-block") {
		cfg.FromBlock = verifyFromBlock
	}
	if cmd.Flags().Changed("to-block") {
		cfg.ToBlock = verifyToBlock
	}
	if cmd.Flags().Changed("test-provider") {
		cfg.TestProvider = verifyTestProvider
	}

	if cfg.TestProvider == "" {
		return fmt.Errorf("no test provider configured: set TEST_PROVIDER or pass --test-provider")
	}

	if verifyDeleteRPCData {
		deleted, err := rt.store.CleanDiscrepancies(cfg.TestProvider)
		if err != nil {
			return err
		}
		l.Info("deleted discrepancy rows",
			zap.String("provider", cfg.TestProvider),
			zap.Int64("rows", deleted),
		)
		return nil
	}

	refProvider := cfg.RefProvider
	if refProvider == "" {
		refProvider = cfg.Provider
	}
	if refProvider == "" {
		return fmt.Errorf("no reference provider configured: set REF_PROVIDER or PROVIDER")
	}

	ranges, err := rt.store.Ranges(refProvider)
	if err != nil {
		return err
	}
	if len(ranges) == 0 {
		l.Warn("no stored ranges for reference provider", zap.String("provider", refProvider))
		return nil
	}

	reqFrom := config.OptionalBlock(cfg.FromBlock)
	reqTo := config.OptionalBlock(cfg.ToBlock)
	window := scan.SelectWindow(ranges, reqFrom, reqTo)
	if reqFrom != nil || reqTo != nil {
		l.Info("selection window",
			zap.Int("stored_ranges", len(ranges)),
			zap.Int("selected", len(window)),
		)
		if len(window) == 0 {
			l.Warn("no rows fall inside the selected window after snapping")
			return nil
		}
	}

	counter := rpc.New(cfg.RPC, cfg.Contract, cfg.Topic, l)
	localizer := scan.NewLocalizer(counter, rt.store, refProvider, cfg.TestProvider, l)

	findings, err := localizer.Run(ctx, window)
	if err != nil {
		return err
	}

	printFindings(l, findings)
	return nil
}

// printFindings logs the discrepancy summary table.
func printFindings(l *zap.Logger, findings []scan.Finding) {
	if len(findings) == 0 {
		l.Info("no discrepancies recorded")
		return
	}

	for _, f := range findings {
		l.Info("discrepancy",
			zap.Uint64("from", f.From),
			zap.Uint64("to", f.To),
			zap.Int64("stored", f.StoredCount),
			zap.Int64("reference", f.RefCount),
			zap.Int64("test", f.TestCount),
			zap.Int("divergent_blocks", len(f.DivergentBlocks)),
		)
		for _, b := range f.DivergentBlocks {
			l.Info("divergent block",
				zap.Uint64("block", b.Block),
				zap.Int64("reference", b.RefCount),
				zap.Int64("test", b.TestCount),
			)
		}
	}
	l.Info("discrepancy summary", zap.Int("ranges", len(findings)))
}
