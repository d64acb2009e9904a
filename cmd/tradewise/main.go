package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikeboe/tradewise/pkg/advisor"
	"github.com/mikeboe/tradewise/pkg/config"
	"github.com/mikeboe/tradewise/pkg/product"
	"github.com/mikeboe/tradewise/pkg/search"
)

var (
	jsonOutput bool
)

func main() {
	// It's okay if .env doesn't exist, as long as env vars are set
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "tradewise [query]",
		Short: "Find electronics that match a description",
		Long:  `TradeWise asks an AI shopping assistant for 3 to 6 devices matching your description, then looks up a product photo and online retailers for each of them.`,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			if len(args) == 0 {
				// Interactive Mode
				reader := bufio.NewReader(cmd.InOrStdin())
				fmt.Fprint(cmd.OutOrStdout(), "What are you looking for? ")
				input, _ := reader.ReadString('\n')
				query = strings.TrimSpace(input)
			}

			if _, err := product.NewQuery(query); err != nil {
				return errors.New(product.ValidationMessage)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger, err := config.NewLogger(cfg.Log())
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			adv, err := advisor.NewFromConfig(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}

			return run(ctx, cmd.OutOrStdout(), search.NewOrchestrator(ctx, adv, logger, nil), query, jsonOutput, logger)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the final results as JSON")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run searches for query, waits for enrichment and prints the settled results.
func run(ctx context.Context, out io.Writer, o *search.Orchestrator, query string, asJSON bool, logger *zap.Logger) error {
	if !asJSON {
		fmt.Fprintln(out, "Our AI is scanning the market for you...")
	}

	snap, err := o.Search(ctx, query)
	if err != nil {
		logger.Debug("Search failed", zap.Error(err))
		return errors.New(search.GenericFailureMessage)
	}

	if !asJSON && len(snap.Products) > 0 {
		fmt.Fprintf(out, "Found %d products, looking up photos and retailers...\n", len(snap.Products))
	}
	o.Wait()
	snap = o.Snapshot()

	if asJSON {
		return writeJSON(out, snap)
	}
	writeText(out, snap)
	return nil
}
