package game

import (
	"math/rand"

	"github.com/tradingpit/tradingpit/internal/domain"
)

// marketMakerNames are assigned to scripted liquidity providers in order.
var marketMakerNames = []string{
	"Goldman MM",
	"Morgan MM",
	"Citadel MM",
	"Jane Street MM",
	"Virtu MM",
}

// QuoteRequest is a candidate order produced by a scripted participant. It
// goes through exactly the same admission path as a human submission.
type QuoteRequest struct {
	Symbol   string
	Side     domain.OrderSide
	Price    int64
	Quantity int64
}

// MarketMakerAgent generates liquidity quotes for scripted participants at
// round close. Quotes straddle each instrument's current price: a bid one
// to five below, an ask one to five above, with a small random quantity.
type MarketMakerAgent struct {
	rng *rand.Rand
}

// NewMarketMakerAgent builds an agent over the session's random source so
// that a fixed seed reproduces the same quotes.
func NewMarketMakerAgent(rng *rand.Rand) *MarketMakerAgent {
	return &MarketMakerAgent{rng: rng}
}

// QuoteRound produces the market maker's candidate orders for the round:
// one bid/ask pair per instrument. The session re-validates every quote
// against the maker's balances and order cap before admission.
func (a *MarketMakerAgent) QuoteRound(mm *domain.Participant, instruments []*domain.Instrument) []QuoteRequest {
	quotes := make([]QuoteRequest, 0, 2*len(instruments))
	for _, inst := range instruments {
		bid := inst.Price - (a.rng.Int63n(5) + 1)
		if bid < 1 {
			bid = 1
		}
		ask := inst.Price + a.rng.Int63n(5) + 1

		quotes = append(quotes,
			QuoteRequest{
				Symbol:   inst.Symbol,
				Side:     domain.OrderSideBuy,
				Price:    bid,
				Quantity: a.rng.Int63n(10) + 1,
			},
			QuoteRequest{
				Symbol:   inst.Symbol,
				Side:     domain.OrderSideSell,
				Price:    ask,
				Quantity: a.rng.Int63n(10) + 1,
			},
		)
	}
	return quotes
}
