package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tradingpit/tradingpit/internal/engine"
	"github.com/tradingpit/tradingpit/internal/game"
)

// Config holds all runtime configuration for the trading pit server.
type Config struct {
	Port       int
	LogLevel   string
	CORSOrigin string

	// HTTP server timeouts. Read and write timeouts stay unset on the
	// server itself: they would tear down long-lived websocket
	// connections. The websocket layer enforces its own deadlines.
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Session janitor.
	SweepInterval time.Duration
	SessionTTL    time.Duration

	// Game rules.
	RoundDuration time.Duration
	TotalRounds   int
	OrderCap      int
	StartingCash  int64
	MMCash        int64
	MMShares      int64
	MMCount       int
	Instruments   []string
	PricingRule   string
	CarryOrders   bool
	DriftBps      int64
	RandSeed      int64
	Events        bool
	SeedDays      int
}

// Load reads configuration from the environment (and an optional .env
// file), applies defaults, and validates values. It returns an error for
// any invalid value.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	corsOrigin := getStr("CORS_ORIGIN", "*")

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	sweepInterval, err := getDuration("SWEEP_INTERVAL", 1*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	sessionTTL, err := getDuration("SESSION_TTL", 2*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	roundDuration, err := getDuration("ROUND_DURATION", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid ROUND_DURATION: %w", err)
	}

	totalRounds, err := getInt("TOTAL_ROUNDS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid TOTAL_ROUNDS: %w", err)
	}
	if totalRounds < 1 {
		return nil, fmt.Errorf("invalid TOTAL_ROUNDS: must be at least 1")
	}

	orderCap, err := getInt("ORDER_CAP", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_CAP: %w", err)
	}
	if orderCap < 1 {
		return nil, fmt.Errorf("invalid ORDER_CAP: must be at least 1")
	}

	startingCash, err := getInt64("STARTING_CASH", 10000)
	if err != nil {
		return nil, fmt.Errorf("invalid STARTING_CASH: %w", err)
	}

	mmCash, err := getInt64("MM_CASH", 100000)
	if err != nil {
		return nil, fmt.Errorf("invalid MM_CASH: %w", err)
	}

	mmShares, err := getInt64("MM_SHARES", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid MM_SHARES: %w", err)
	}

	mmCount, err := getInt("MM_COUNT", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid MM_COUNT: %w", err)
	}
	if mmCount < 0 {
		return nil, fmt.Errorf("invalid MM_COUNT: must not be negative")
	}

	instruments := getStrSlice("INSTRUMENTS", []string{"CAMB", "OXFD"})
	if len(instruments) == 0 {
		return nil, fmt.Errorf("invalid INSTRUMENTS: at least one symbol required")
	}

	pricingRule := getStr("PRICING_RULE", string(engine.PricingSellerPrice))
	switch engine.PricingRule(pricingRule) {
	case engine.PricingSellerPrice, engine.PricingMidpoint:
	default:
		return nil, fmt.Errorf("invalid PRICING_RULE: %q, must be %q or %q",
			pricingRule, engine.PricingSellerPrice, engine.PricingMidpoint)
	}

	carryOrders, err := getBool("CARRY_ORDERS", false)
	if err != nil {
		return nil, fmt.Errorf("invalid CARRY_ORDERS: %w", err)
	}

	driftBps, err := getInt64("DRIFT_BPS", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid DRIFT_BPS: %w", err)
	}
	if driftBps < 0 || driftBps >= 10000 {
		return nil, fmt.Errorf("invalid DRIFT_BPS: must be in [0, 10000)")
	}

	randSeed, err := getInt64("RAND_SEED", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid RAND_SEED: %w", err)
	}

	events, err := getBool("EVENTS", true)
	if err != nil {
		return nil, fmt.Errorf("invalid EVENTS: %w", err)
	}

	seedDays, err := getInt("SEED_DAYS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_DAYS: %w", err)
	}
	if seedDays < 1 {
		return nil, fmt.Errorf("invalid SEED_DAYS: must be at least 1")
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		CORSOrigin:      corsOrigin,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
		SweepInterval:   sweepInterval,
		SessionTTL:      sessionTTL,
		RoundDuration:   roundDuration,
		TotalRounds:     totalRounds,
		OrderCap:        orderCap,
		StartingCash:    startingCash,
		MMCash:          mmCash,
		MMShares:        mmShares,
		MMCount:         mmCount,
		Instruments:     instruments,
		PricingRule:     pricingRule,
		CarryOrders:     carryOrders,
		DriftBps:        driftBps,
		RandSeed:        randSeed,
		Events:          events,
		SeedDays:        seedDays,
	}, nil
}

// Game maps the loaded values onto the session rule set.
func (c *Config) Game() game.Config {
	return game.Config{
		RoundDuration: c.RoundDuration,
		TotalRounds:   c.TotalRounds,
		OrderCap:      c.OrderCap,
		StartingCash:  c.StartingCash,
		MMCash:        c.MMCash,
		MMShares:      c.MMShares,
		MMCount:       c.MMCount,
		Instruments:   c.Instruments,
		Pricing:       engine.PricingRule(c.PricingRule),
		CarryOrders:   c.CarryOrders,
		DriftBps:      c.DriftBps,
		Seed:          c.RandSeed,
		EventsEnabled: c.Events,
		SeedDays:      c.SeedDays,
	}
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getStrSlice(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
