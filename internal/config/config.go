package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rateAdjuster/internal/model"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL    string
	Authority string
	// Oracles holds pool=oracle bindings installed at startup.
	Oracles   []string
	Rate      model.RateConfig
	Listen    string
	EventsOut string
	PGDSN     string
	LogLevel  string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RATEADJUSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	defaults := model.DefaultRateConfig()
	v.SetDefault("risk-premium", defaults.RiskPremiumBps)
	v.SetDefault("credit-coefficient", defaults.CreditAdjustmentCoefficient)
	v.SetDefault("utilization-coefficient", defaults.UtilizationAdjustmentCoefficient)
	v.SetDefault("utilization-power", defaults.UtilizationAdjustmentPower)
	v.SetDefault("term-coefficient", defaults.FixedTermLoanAdjustmentCoefficient)
	v.SetDefault("score-floor", defaults.BorrowLimit.ScoreFloor)
	v.SetDefault("limit-power", defaults.BorrowLimit.LimitAdjustmentPower)
	v.SetDefault("tvl-coefficient", defaults.BorrowLimit.TVLLimitCoefficientBps)
	v.SetDefault("pool-value-coefficient", defaults.BorrowLimit.PoolValueLimitCoefficientBps)
	v.SetDefault("max-rate", defaults.MaxRateBps)
	v.SetDefault("listen", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	scoreFloor := v.GetUint32("score-floor")
	if scoreFloor > 255 {
		return Config{}, fmt.Errorf("score-floor out of range: %d", scoreFloor)
	}

	cfg := Config{
		RPCURL:    v.GetString("rpc"),
		Authority: v.GetString("authority"),
		Oracles:   getStringSlice(v, "oracle"),
		Rate: model.RateConfig{
			RiskPremiumBps:                     v.GetUint32("risk-premium"),
			CreditAdjustmentCoefficient:        v.GetUint32("credit-coefficient"),
			UtilizationAdjustmentCoefficient:   v.GetUint32("utilization-coefficient"),
			UtilizationAdjustmentPower:         v.GetUint32("utilization-power"),
			FixedTermLoanAdjustmentCoefficient: v.GetUint32("term-coefficient"),
			BorrowLimit: model.BorrowLimitConfig{
				ScoreFloor:                   uint8(scoreFloor),
				LimitAdjustmentPower:         v.GetUint32("limit-power"),
				TVLLimitCoefficientBps:       v.GetUint32("tvl-coefficient"),
				PoolValueLimitCoefficientBps: v.GetUint32("pool-value-coefficient"),
			},
			MaxRateBps: v.GetUint32("max-rate"),
		},
		Listen:    v.GetString("listen"),
		EventsOut: v.GetString("events-out"),
		PGDSN:     v.GetString("pg-dsn"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
