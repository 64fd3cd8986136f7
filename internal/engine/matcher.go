package engine

import (
	"github.com/google/uuid"

	"github.com/tradingpit/tradingpit/internal/domain"
)

// PricingRule selects the execution-price convention for crossed orders.
type PricingRule string

const (
	// PricingSellerPrice executes at the resting sell order's price. This is
	// the default: a single fixed rule keeps the engine deterministic and
	// auditable.
	PricingSellerPrice PricingRule = "seller"
	// PricingMidpoint executes at the rounded midpoint of the crossing pair.
	PricingMidpoint PricingRule = "midpoint"
)

// MatchConfig carries the matching and settlement knobs.
type MatchConfig struct {
	Pricing  PricingRule
	DriftBps int64 // one-sided book pressure drift, basis points
}

// RoundResult is the outcome of matching one instrument for one round.
type RoundResult struct {
	Trades          []*domain.Trade
	SettlementPrice int64
	Traded          bool
}

// MatchRound crosses the round's buy and sell orders for one instrument and
// derives the settlement price.
//
// buys must be sorted by price descending, sells by price ascending, both
// with admission sequence as tiebreak (the Book yields them in this order).
// The walk is O(n) after the book's ordering; given an identical admitted
// sequence it produces identical trades and settlement price.
//
// Settlement: VWAP of the round's trades when any occurred; midpoint of the
// best remaining bid/ask when both sides rest uncrossed; a fixed-percentage
// drift toward the surviving side when only one side rests; otherwise the
// previous price. Always clamped to a positive floor.
func MatchRound(symbol string, buys, sells []*domain.Order, prevPrice int64, round int, cfg MatchConfig) RoundResult {
	var (
		trades  []*domain.Trade
		vwapNum int64
		vwapVol int64
	)

	bi, si := 0, 0
	for bi < len(buys) && si < len(sells) {
		buy, sell := buys[bi], sells[si]
		if buy.Price < sell.Price {
			break
		}

		qty := buy.RemainingQuantity
		if sell.RemainingQuantity < qty {
			qty = sell.RemainingQuantity
		}

		price := sell.Price
		if cfg.Pricing == PricingMidpoint {
			price = midpoint(buy.Price, sell.Price)
		}

		buy.Fill(qty)
		sell.Fill(qty)

		trades = append(trades, &domain.Trade{
			TradeID:  uuid.New().String(),
			Symbol:   symbol,
			Price:    price,
			Quantity: qty,
			BuyerID:  buy.ParticipantID,
			SellerID: sell.ParticipantID,
			Round:    round,
		})
		vwapNum += price * qty
		vwapVol += qty

		if buy.RemainingQuantity == 0 {
			bi++
		}
		if sell.RemainingQuantity == 0 {
			si++
		}
	}

	result := RoundResult{Trades: trades, Traded: len(trades) > 0}
	result.SettlementPrice = settle(buys[bi:], sells[si:], prevPrice, vwapNum, vwapVol, cfg)
	return result
}

// settle computes the post-round price from executed volume or, absent
// trades, from the pressure of the surviving book.
func settle(restBuys, restSells []*domain.Order, prevPrice, vwapNum, vwapVol int64, cfg MatchConfig) int64 {
	var price int64
	switch {
	case vwapVol > 0:
		// Volume-weighted average, rounded to the nearest whole price.
		price = (vwapNum + vwapVol/2) / vwapVol
	case len(restBuys) > 0 && len(restSells) > 0:
		price = midpoint(restBuys[0].Price, restSells[0].Price)
	case len(restBuys) > 0:
		// Bid-only pressure: price decays toward the best surviving bid.
		price = restBuys[0].Price * (10000 - cfg.DriftBps) / 10000
	case len(restSells) > 0:
		// Ask-only pressure: price rises toward the best surviving ask.
		price = restSells[0].Price * (10000 + cfg.DriftBps) / 10000
	default:
		price = prevPrice
	}

	if price < 1 {
		price = 1
	}
	return price
}

// midpoint rounds half up, matching integer price precision.
func midpoint(a, b int64) int64 {
	return (a + b + 1) / 2
}
