package game

import (
	"time"

	"github.com/tradingpit/tradingpit/internal/engine"
)

// Config carries the game rules a session is created with.
type Config struct {
	RoundDuration time.Duration // 0 disables the round timer
	TotalRounds   int
	OrderCap      int // resting intents per participant per round
	StartingCash  int64
	MMCash        int64
	MMShares      int64 // per instrument
	MMCount       int
	Instruments   []string // symbols drawn from the catalog
	Pricing       engine.PricingRule
	CarryOrders   bool // retain unfilled orders across the round boundary
	DriftBps      int64
	Seed          int64 // 0 seeds from the clock
	EventsEnabled bool
	SeedDays      int // synthetic pre-game history length
}

// DefaultConfig returns the standard classroom game: two instruments, ten
// rounds of thirty seconds, five market makers, order cap five.
func DefaultConfig() Config {
	return Config{
		RoundDuration: 30 * time.Second,
		TotalRounds:   10,
		OrderCap:      5,
		StartingCash:  10000,
		MMCash:        100000,
		MMShares:      1000,
		MMCount:       5,
		Instruments:   []string{"CAMB", "OXFD"},
		Pricing:       engine.PricingSellerPrice,
		CarryOrders:   false,
		DriftBps:      500,
		EventsEnabled: true,
		SeedDays:      10,
	}
}
