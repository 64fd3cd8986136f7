package config

import (
	"os"
	"testing"
	"time"

	"github.com/tradingpit/tradingpit/internal/engine"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "CORS_ORIGIN", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
		"SWEEP_INTERVAL", "SESSION_TTL", "ROUND_DURATION", "TOTAL_ROUNDS",
		"ORDER_CAP", "STARTING_CASH", "MM_CASH", "MM_SHARES", "MM_COUNT",
		"INSTRUMENTS", "PRICING_RULE", "CARRY_ORDERS", "DRIFT_BPS",
		"RAND_SEED", "EVENTS", "SEED_DAYS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.RoundDuration != 30*time.Second {
		t.Errorf("RoundDuration = %v, want 30s", cfg.RoundDuration)
	}
	if cfg.TotalRounds != 10 {
		t.Errorf("TotalRounds = %d, want 10", cfg.TotalRounds)
	}
	if cfg.OrderCap != 5 {
		t.Errorf("OrderCap = %d, want 5", cfg.OrderCap)
	}
	if cfg.StartingCash != 10000 {
		t.Errorf("StartingCash = %d, want 10000", cfg.StartingCash)
	}
	if cfg.MMCash != 100000 || cfg.MMShares != 1000 || cfg.MMCount != 5 {
		t.Errorf("market maker defaults = %d/%d/%d, want 100000/1000/5",
			cfg.MMCash, cfg.MMShares, cfg.MMCount)
	}
	if len(cfg.Instruments) != 2 || cfg.Instruments[0] != "CAMB" || cfg.Instruments[1] != "OXFD" {
		t.Errorf("Instruments = %v, want [CAMB OXFD]", cfg.Instruments)
	}
	if cfg.PricingRule != string(engine.PricingSellerPrice) {
		t.Errorf("PricingRule = %q, want seller", cfg.PricingRule)
	}
	if cfg.CarryOrders {
		t.Error("CarryOrders should default to false")
	}
	if cfg.DriftBps != 500 {
		t.Errorf("DriftBps = %d, want 500", cfg.DriftBps)
	}
	if !cfg.Events {
		t.Error("Events should default to true")
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v, want 2h", cfg.SessionTTL)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ROUND_DURATION", "45s")
	t.Setenv("TOTAL_ROUNDS", "3")
	t.Setenv("INSTRUMENTS", "CAMB")
	t.Setenv("PRICING_RULE", "midpoint")
	t.Setenv("CARRY_ORDERS", "true")
	t.Setenv("RAND_SEED", "1234")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.RoundDuration != 45*time.Second {
		t.Errorf("RoundDuration = %v, want 45s", cfg.RoundDuration)
	}
	if cfg.TotalRounds != 3 {
		t.Errorf("TotalRounds = %d, want 3", cfg.TotalRounds)
	}
	if len(cfg.Instruments) != 1 || cfg.Instruments[0] != "CAMB" {
		t.Errorf("Instruments = %v, want [CAMB]", cfg.Instruments)
	}
	if cfg.PricingRule != string(engine.PricingMidpoint) {
		t.Errorf("PricingRule = %q, want midpoint", cfg.PricingRule)
	}
	if !cfg.CarryOrders {
		t.Error("expected CarryOrders true")
	}
	if cfg.RandSeed != 1234 {
		t.Errorf("RandSeed = %d, want 1234", cfg.RandSeed)
	}
}

func TestLoad_InstrumentListParsing(t *testing.T) {
	clearEnv(t)
	t.Setenv("INSTRUMENTS", " CAMB , OXFD ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Instruments) != 2 || cfg.Instruments[0] != "CAMB" || cfg.Instruments[1] != "OXFD" {
		t.Errorf("Instruments = %v, want [CAMB OXFD]", cfg.Instruments)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"PORT", "not-a-number"},
		{"LOG_LEVEL", "verbose"},
		{"ROUND_DURATION", "fast"},
		{"TOTAL_ROUNDS", "0"},
		{"ORDER_CAP", "0"},
		{"MM_COUNT", "-1"},
		{"PRICING_RULE", "vwap"},
		{"CARRY_ORDERS", "maybe"},
		{"DRIFT_BPS", "10000"},
		{"SEED_DAYS", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestConfig_GameMapping(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICING_RULE", "midpoint")
	t.Setenv("RAND_SEED", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	game := cfg.Game()
	if game.Pricing != engine.PricingMidpoint {
		t.Errorf("Pricing = %q, want midpoint", game.Pricing)
	}
	if game.Seed != 7 {
		t.Errorf("Seed = %d, want 7", game.Seed)
	}
	if game.TotalRounds != cfg.TotalRounds || game.OrderCap != cfg.OrderCap {
		t.Error("game config does not mirror loaded values")
	}
}
