package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/mediabridge/common/output"
	"github.com/telhawk-systems/mediabridge/core/internal/seeder"
)

var (
	seedViewers  int
	seedShoppers int
	seedSeed     int64
	seedStart    string
	seedPublish  bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate synthetic analytics events",
	Long: `Generate realistic video viewing and shopping sessions as JSON lines.

Examples:
  # Two viewers and one shopper to stdout
  mbridge seed --viewers 2 --shoppers 1

  # Reproducible output
  mbridge seed --seed 42 --start 2026-01-01T00:00:00Z

  # Publish to the inbound subject of a running service
  mbridge seed --viewers 100 --publish`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedViewers, "viewers", 1, "number of video playback sessions")
	seedCmd.Flags().IntVar(&seedShoppers, "shoppers", 1, "number of shopping sessions")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 0, "random seed (0 = random)")
	seedCmd.Flags().StringVar(&seedStart, "start", "", "RFC3339 timestamp of the first event (default: now)")
	seedCmd.Flags().BoolVar(&seedPublish, "publish", false, "publish events to NATS instead of printing them")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedViewers < 0 || seedShoppers < 0 {
		return fmt.Errorf("--viewers and --shoppers must not be negative")
	}

	start := time.Now().UTC()
	if seedStart != "" {
		parsed, err := time.Parse(time.RFC3339, seedStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		start = parsed
	}

	events := seeder.New(seedSeed).Generate(seeder.Options{
		Viewers:  seedViewers,
		Shoppers: seedShoppers,
		Start:    start,
	})

	if !seedPublish {
		return output.JSONLines(cmd.OutOrStdout(), events)
	}

	logger := newLogger()
	broker, err := connectBroker(logger)
	if err != nil {
		return err
	}
	defer broker.Close()

	for i, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", i, err)
		}
		if err := broker.Publish(cmd.Context(), cfg.NATS.InboundSubject, data); err != nil {
			return fmt.Errorf("publish event %d: %w", i, err)
		}
	}
	output.Success(cmd.ErrOrStderr(), "Published %d events to %s", len(events), cfg.NATS.InboundSubject)
	return nil
}
