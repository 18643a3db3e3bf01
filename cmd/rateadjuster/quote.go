package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rateAdjuster/internal/config"
	"rateAdjuster/internal/engine"
)

func newQuoteCmd() *cobra.Command {
	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute a single rate or borrow limit against live pool state",
	}

	rateCmd := &cobra.Command{
		Use:   "rate",
		Short: "Quote the borrow rate for a pool and score",
		RunE:  runQuoteRate,
	}
	addEngineFlags(rateCmd.Flags())
	rateCmd.Flags().String("pool", "", "pool address")
	rateCmd.Flags().Uint8("score", 0, "borrower credit score (0-255)")
	rateCmd.Flags().Uint64("term", 0, "fixed loan term in seconds, 0 for none")

	limitCmd := &cobra.Command{
		Use:   "limit",
		Short: "Quote the remaining borrow limit for a pool and score",
		RunE:  runQuoteLimit,
	}
	addEngineFlags(limitCmd.Flags())
	limitCmd.Flags().String("pool", "", "pool address")
	limitCmd.Flags().Uint8("score", 0, "borrower credit score (0-255)")
	limitCmd.Flags().String("max-borrower-limit", "0", "nominal borrower limit with 18 decimals")
	limitCmd.Flags().String("total-tvl", "0", "protocol TVL")
	limitCmd.Flags().Uint8("tvl-decimals", engine.ReferenceDecimals, "decimals of total-tvl")
	limitCmd.Flags().String("total-borrowed", "0", "amount already borrowed in pool decimals")

	quoteCmd.AddCommand(rateCmd, limitCmd)
	return quoteCmd
}

func runQuoteRate(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rawPool, _ := cmd.Flags().GetString("pool")
	pool, err := config.ParseAddress(rawPool)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	score, err := scoreFlag(cmd)
	if err != nil {
		return err
	}
	term, _ := cmd.Flags().GetUint64("term")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.buildEngine(ctx, nil, nil); err != nil {
		return err
	}
	quote, err := a.engine.QuoteRate(ctx, pool, score, term)
	if err != nil {
		return err
	}
	return printJSON(cmd, quote)
}

func runQuoteLimit(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rawPool, _ := cmd.Flags().GetString("pool")
	pool, err := config.ParseAddress(rawPool)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	req := engine.BorrowLimitRequest{Pool: pool}
	if req.Score, err = scoreFlag(cmd); err != nil {
		return err
	}
	req.TVLDecimals, _ = cmd.Flags().GetUint8("tvl-decimals")
	if req.MaxBorrowerLimit, err = amountFlag(cmd, "max-borrower-limit"); err != nil {
		return err
	}
	if req.TotalTVL, err = amountFlag(cmd, "total-tvl"); err != nil {
		return err
	}
	if req.TotalBorrowed, err = amountFlag(cmd, "total-borrowed"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.buildEngine(ctx, nil, nil); err != nil {
		return err
	}
	quote, err := a.engine.QuoteLimit(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd, quote)
}

// scoreFlag reads --score. Score 0 is the worst credit, so it is never
// assumed.
func scoreFlag(cmd *cobra.Command) (uint8, error) {
	if !cmd.Flags().Changed("score") {
		return 0, fmt.Errorf("score is required")
	}
	return cmd.Flags().GetUint8("score")
}

func amountFlag(cmd *cobra.Command, name string) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
