package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rateAdjuster/internal/chain"
	"rateAdjuster/internal/config"
	"rateAdjuster/internal/engine"
	"rateAdjuster/internal/model"
	"rateAdjuster/internal/onchain"
)

func main() {
	root := &cobra.Command{
		Use:          "rateadjuster",
		Short:        "Lending pool rate and borrow limit engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newQuoteCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addEngineFlags registers the flags every engine-backed command accepts.
func addEngineFlags(flags *pflag.FlagSet) {
	defaults := model.DefaultRateConfig()
	flags.String("rpc", "", "EVM RPC URL")
	flags.String("authority", "", "address allowed to change configuration")
	flags.StringSlice("oracle", nil, "pool=oracle base rate bindings (comma-separated)")
	flags.Uint32("risk-premium", defaults.RiskPremiumBps, "risk premium in bps")
	flags.Uint32("credit-coefficient", defaults.CreditAdjustmentCoefficient, "credit score adjustment coefficient")
	flags.Uint32("utilization-coefficient", defaults.UtilizationAdjustmentCoefficient, "utilization adjustment coefficient")
	flags.Uint32("utilization-power", defaults.UtilizationAdjustmentPower, "utilization adjustment power")
	flags.Uint32("term-coefficient", defaults.FixedTermLoanAdjustmentCoefficient, "fixed term adjustment per 30 days in bps")
	flags.Uint32("score-floor", uint32(defaults.BorrowLimit.ScoreFloor), "lowest score that gets a borrow limit")
	flags.Uint32("limit-power", defaults.BorrowLimit.LimitAdjustmentPower, "borrow limit score exponent in bps")
	flags.Uint32("tvl-coefficient", defaults.BorrowLimit.TVLLimitCoefficientBps, "share of protocol TVL one borrower may draw in bps")
	flags.Uint32("pool-value-coefficient", defaults.BorrowLimit.PoolValueLimitCoefficientBps, "share of pool value one borrower may draw in bps")
	flags.Uint32("max-rate", defaults.MaxRateBps, "rate cap in bps")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
	client *chain.Client
	engine *engine.Engine
}

// loadApp merges flags, env and the config file and builds the logger.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) Close() {
	if a.client != nil {
		a.client.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) authority() (common.Address, error) {
	if a.cfg.Authority == "" {
		return common.Address{}, nil
	}
	authority, err := config.ParseAddress(a.cfg.Authority)
	if err != nil {
		return common.Address{}, fmt.Errorf("authority: %w", err)
	}
	return authority, nil
}

// buildEngine dials the RPC and builds an engine with the configured oracle
// bindings installed.
func (a *app) buildEngine(ctx context.Context, notifier engine.Notifier, recorder engine.Recorder) error {
	if a.cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	authority, err := a.authority()
	if err != nil {
		return err
	}
	bindings, err := config.ParseOracleBindings(a.cfg.Oracles)
	if err != nil {
		return err
	}

	client, err := chain.NewClient(ctx, a.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	a.client = client
	a.logger.Debug("rpc connected", zap.String("rpc", a.cfg.RPCURL), zap.String("chain_id", client.ChainID().String()))
	source := onchain.NewSource(client, a.logger)

	rateConfig := a.cfg.Rate
	eng, err := engine.New(engine.Options{
		Authority: authority,
		Config:    &rateConfig,
		Oracles:   source,
		Pools:     source,
		Notifier:  notifier,
		Recorder:  recorder,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}
	for pool, oracle := range bindings {
		if err := eng.SetBaseRateOracle(ctx, authority, pool, oracle); err != nil {
			return fmt.Errorf("bind oracle for %s: %w", pool.Hex(), err)
		}
	}
	a.engine = eng
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
