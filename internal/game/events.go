package game

import "github.com/tradingpit/tradingpit/internal/domain"

// investorName identifies the scripted participant that carries scheduled
// market events.
const investorName = "Institutional Investor"

// MarketEvent is a pure data hook evaluated at PROCESSING entry for a
// specific round. It never bypasses the matching engine: the event order is
// admitted like any other order, owned by the institutional investor.
type MarketEvent struct {
	Round          int
	Symbol         string
	Side           domain.OrderSide
	Quantity       int64
	PriceOffsetBps int64 // applied to the current price; negative for sell shocks
	Label          string
}

// OrderPrice derives the event order's limit price from the current price.
// Buy shocks carry a positive offset and sell shocks a negative one so the
// order crosses the book it is meant to move.
func (e MarketEvent) OrderPrice(current int64) int64 {
	price := current * (10000 + e.PriceOffsetBps) / 10000
	if price < 1 {
		price = 1
	}
	return price
}

// DefaultEvents returns the standard schedule: a one-off external-investor
// buy shock halfway through the game on the first instrument.
func DefaultEvents(symbols []string) []MarketEvent {
	if len(symbols) == 0 {
		return nil
	}
	return []MarketEvent{
		{
			Round:          5,
			Symbol:         symbols[0],
			Side:           domain.OrderSideBuy,
			Quantity:       200,
			PriceOffsetBps: 1000,
			Label:          "external investor buys in",
		},
	}
}

// eventsFor selects the events scheduled for the given round.
func eventsFor(events []MarketEvent, round int) []MarketEvent {
	var due []MarketEvent
	for _, e := range events {
		if e.Round == round {
			due = append(due, e)
		}
	}
	return due
}
