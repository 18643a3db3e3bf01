package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"rateAdjuster/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Rate != model.DefaultRateConfig() {
		t.Fatalf("rate config mismatch: got %+v", cfg.Rate)
	}
	if cfg.Listen != ":8080" || cfg.LogLevel != "info" {
		t.Fatalf("ambient defaults mismatch: %+v", cfg)
	}
}

func TestLoadFlagsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.yaml")
	body := "risk-premium: 300\nscore-floor: 60\noracle:\n  - 0x1111111111111111111111111111111111111111=0x2222222222222222222222222222222222222222\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Uint32("max-rate", 50000, "")
	if err := flags.Parse([]string{"--max-rate=30000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Rate.RiskPremiumBps != 300 {
		t.Fatalf("risk premium mismatch: got %d", cfg.Rate.RiskPremiumBps)
	}
	if cfg.Rate.BorrowLimit.ScoreFloor != 60 {
		t.Fatalf("score floor mismatch: got %d", cfg.Rate.BorrowLimit.ScoreFloor)
	}
	if cfg.Rate.MaxRateBps != 30000 {
		t.Fatalf("max rate mismatch: got %d", cfg.Rate.MaxRateBps)
	}
	if len(cfg.Oracles) != 1 {
		t.Fatalf("oracle bindings mismatch: got %v", cfg.Oracles)
	}
}

func TestLoadRejectsScoreFloorOutOfRange(t *testing.T) {
	t.Setenv("RATEADJUSTER_SCORE_FLOOR", "300")

	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected score floor error")
	}
}

func TestParseOracleBindings(t *testing.T) {
	pool := "0x1111111111111111111111111111111111111111"
	oracle := "0x2222222222222222222222222222222222222222"
	other := "0x3333333333333333333333333333333333333333"

	got, err := ParseOracleBindings([]string{pool + "=" + oracle, " ", pool + "=" + other})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 1 || got[common.HexToAddress(pool)] != common.HexToAddress(other) {
		t.Fatalf("bindings mismatch: %v", got)
	}

	for _, input := range []string{pool, pool + "=nope", "nope=" + oracle} {
		if _, err := ParseOracleBindings([]string{input}); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
