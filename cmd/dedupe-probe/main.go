// Command dedupe-probe is a small operational tool for exercising a live
// dynamostore-backed Coordinator by hand: claim an id, or mark it complete.
// The status subcommand logs the Stats counters of the Coordinator built
// for that invocation; it does not read the stored record for the id. It is
// a diagnostic/example binary, not part of the library's public API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/go-dedupe"
	"github.com/example/go-dedupe/dynamostore"
)

type envConfig struct {
	Table             string        `env:"DEDUPE_TABLE,required"`
	ProcessorID       string        `env:"DEDUPE_PROCESSOR_ID,required"`
	MaxProcessingTime time.Duration `env:"DEDUPE_MAX_PROCESSING_TIME" envDefault:"5m"`
	TTL               time.Duration `env:"DEDUPE_TTL" envDefault:"24h"`
	Verbose           bool          `env:"DEDUPE_VERBOSE" envDefault:"false"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dedupe-probe",
		Short: "Exercise a dynamostore-backed dedupe.Coordinator against a live table",
	}

	root.AddCommand(newClaimCmd(), newCompleteCmd(), newStatusCmd())
	return root
}

func newClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <id>",
		Short: "Attempt TryStart for an id, printing NotSeen or Seen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, logger, err := build()
			if err != nil {
				return err
			}

			sample, err := coord.TryStart(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			logger.Info().Str("id", args[0]).Stringer("sample", sample).Msg("tryStart")
			fmt.Println(sample)
			return nil
		},
	}
}

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark an id completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, logger, err := build()
			if err != nil {
				return err
			}

			if err := coord.Complete(cmd.Context(), args[0]); err != nil {
				return err
			}
			logger.Info().Str("id", args[0]).Msg("complete")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Report Stats accumulated by this process (diagnostic only; not per-id)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, logger, err := build()
			if err != nil {
				return err
			}
			stats := coord.Stats()
			logger.Info().
				Int64("claims", stats.Claims).
				Int64("reclaims", stats.Reclaims).
				Int64("seen", stats.Seen).
				Int64("completions", stats.Completions).
				Msg("stats")
			return nil
		},
	}
}

func build() (*dedupe.Coordinator[string, string], *zerolog.Logger, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, nil, fmt.Errorf("dedupe-probe: config: %w", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.Verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("dedupe-probe: aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	store := dynamostore.New[string, string](client, cfg.Table, dynamostore.StringCodec{}, dynamostore.StringCodec{})

	coord := dedupe.New[string, string](store, dedupe.Config[string, string]{
		ProcessorID:       cfg.ProcessorID,
		MaxProcessingTime: cfg.MaxProcessingTime,
		TTL:               cfg.TTL,
		Logger:            &logger,
	})

	return coord, &logger, nil
}
