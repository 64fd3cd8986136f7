package game

import (
	"fmt"
	"math/rand"

	"github.com/tradingpit/tradingpit/internal/domain"
)

// Catalog returns the known instruments. Sessions trade a configured subset.
func Catalog() []domain.Instrument {
	return []domain.Instrument{
		{
			Symbol:   "CAMB",
			Name:     "Cambridge Mining",
			StartMin: 50, StartMax: 70,
			FloorMin: 20, FloorMax: 100,
		},
		{
			Symbol:   "OXFD",
			Name:     "Oxford Water",
			StartMin: 30, StartMax: 45,
			FloorMin: 15, FloorMax: 60,
		},
	}
}

// instrumentsFor resolves the configured symbols against the catalog.
func instrumentsFor(symbols []string) ([]*domain.Instrument, error) {
	catalog := Catalog()
	lookup := func(symbol string) (*domain.Instrument, bool) {
		for i := range catalog {
			if catalog[i].Symbol == symbol {
				inst := catalog[i]
				return &inst, true
			}
		}
		return nil, false
	}

	instruments := make([]*domain.Instrument, 0, len(symbols))
	for _, symbol := range symbols {
		inst, ok := lookup(symbol)
		if !ok {
			return nil, fmt.Errorf("unknown instrument %q", symbol)
		}
		instruments = append(instruments, inst)
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("at least one instrument is required")
	}
	return instruments, nil
}

// seedHistory generates a bounded synthetic random walk of pre-game price
// points and sets each instrument's opening price to the final day's value.
func seedHistory(rng *rand.Rand, instruments []*domain.Instrument, days int) []domain.PricePoint {
	for _, inst := range instruments {
		inst.Price = inst.StartMin + rng.Int63n(inst.StartMax-inst.StartMin+1)
	}

	history := make([]domain.PricePoint, 0, days)
	for day := 1; day <= days; day++ {
		prices := make(map[string]int64, len(instruments))
		for _, inst := range instruments {
			inst.Price += rng.Int63n(7) - 3
			if inst.Price < inst.FloorMin {
				inst.Price = inst.FloorMin
			}
			if inst.Price > inst.FloorMax {
				inst.Price = inst.FloorMax
			}
			prices[inst.Symbol] = inst.Price
		}
		history = append(history, domain.PricePoint{Day: day, Prices: prices})
	}
	return history
}
