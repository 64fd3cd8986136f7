package engine

import (
	"testing"

	"github.com/tradingpit/tradingpit/internal/domain"
)

func newTestOrder(id, participantID string, side domain.OrderSide, price, qty int64) *domain.Order {
	return &domain.Order{
		OrderID:           id,
		ParticipantID:     participantID,
		Symbol:            "CAMB",
		Side:              side,
		Price:             price,
		Quantity:          qty,
		RemainingQuantity: qty,
		Status:            domain.OrderStatusPending,
	}
}

func matchOn(t *testing.T, book *Book, prevPrice int64, cfg MatchConfig) RoundResult {
	t.Helper()
	return MatchRound("CAMB", book.Buys(), book.Sells(), prevPrice, 1, cfg)
}

func TestMatchRound_FullCross_SellerPrice(t *testing.T) {
	book := NewBook("CAMB")
	book.Insert(newTestOrder("b1", "alice", domain.OrderSideBuy, 55, 10))
	book.Insert(newTestOrder("s1", "bob", domain.OrderSideSell, 52, 10))

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingSellerPrice})

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	trade := result.Trades[0]
	if trade.Price != 52 {
		t.Errorf("expected execution at seller price 52, got %d", trade.Price)
	}
	if trade.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", trade.Quantity)
	}
	if trade.BuyerID != "alice" || trade.SellerID != "bob" {
		t.Errorf("expected alice/bob, got %s/%s", trade.BuyerID, trade.SellerID)
	}
	if !result.Traded {
		t.Error("expected Traded to be set")
	}
	// Single trade at 52 for all volume: settlement is its VWAP.
	if result.SettlementPrice != 52 {
		t.Errorf("expected settlement 52, got %d", result.SettlementPrice)
	}
}

func TestMatchRound_MidpointPricing(t *testing.T) {
	book := NewBook("CAMB")
	book.Insert(newTestOrder("b1", "alice", domain.OrderSideBuy, 55, 10))
	book.Insert(newTestOrder("s1", "bob", domain.OrderSideSell, 52, 10))

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingMidpoint})

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	// (55+52+1)/2 = 54, midpoint rounded half up.
	if result.Trades[0].Price != 54 {
		t.Errorf("expected execution at midpoint 54, got %d", result.Trades[0].Price)
	}
}

func TestMatchRound_PartialFill(t *testing.T) {
	book := NewBook("CAMB")
	buy := newTestOrder("b1", "alice", domain.OrderSideBuy, 55, 10)
	sell := newTestOrder("s1", "bob", domain.OrderSideSell, 52, 4)
	book.Insert(buy)
	book.Insert(sell)

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingSellerPrice})

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if result.Trades[0].Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", result.Trades[0].Quantity)
	}
	if buy.RemainingQuantity != 6 {
		t.Errorf("expected buy remaining 6, got %d", buy.RemainingQuantity)
	}
	if buy.Status != domain.OrderStatusPartial {
		t.Errorf("expected buy PARTIAL, got %s", buy.Status)
	}
	if sell.RemainingQuantity != 0 {
		t.Errorf("expected sell remaining 0, got %d", sell.RemainingQuantity)
	}
	if sell.Status != domain.OrderStatusFilled {
		t.Errorf("expected sell FILLED, got %s", sell.Status)
	}
}

func TestMatchRound_PriceTimePriority(t *testing.T) {
	book := NewBook("CAMB")
	// Two sells at the same price: the earlier one must fill first.
	first := newTestOrder("s1", "bob", domain.OrderSideSell, 52, 5)
	second := newTestOrder("s2", "carol", domain.OrderSideSell, 52, 5)
	book.Insert(first)
	book.Insert(second)
	book.Insert(newTestOrder("b1", "alice", domain.OrderSideBuy, 52, 5))

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingSellerPrice})

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if result.Trades[0].SellerID != "bob" {
		t.Errorf("expected earlier seller bob to fill, got %s", result.Trades[0].SellerID)
	}
	if first.RemainingQuantity != 0 {
		t.Errorf("expected first sell filled, remaining %d", first.RemainingQuantity)
	}
	if second.RemainingQuantity != 5 {
		t.Errorf("expected second sell untouched, remaining %d", second.RemainingQuantity)
	}
}

func TestMatchRound_NoCross_BothSidesRest(t *testing.T) {
	book := NewBook("CAMB")
	book.Insert(newTestOrder("b1", "alice", domain.OrderSideBuy, 48, 10))
	book.Insert(newTestOrder("s1", "bob", domain.OrderSideSell, 54, 10))

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingSellerPrice})

	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(result.Trades))
	}
	if result.Traded {
		t.Error("expected Traded to be false")
	}
	// Midpoint of best bid 48 and best ask 54.
	if result.SettlementPrice != 51 {
		t.Errorf("expected settlement 51, got %d", result.SettlementPrice)
	}
}

func TestMatchRound_BidOnlyDrift(t *testing.T) {
	book := NewBook("CAMB")
	book.Insert(newTestOrder("b1", "alice", domain.OrderSideBuy, 100, 10))

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingSellerPrice, DriftBps: 500})

	// 100 * 9500 / 10000 = 95.
	if result.SettlementPrice != 95 {
		t.Errorf("expected settlement 95, got %d", result.SettlementPrice)
	}
}

func TestMatchRound_AskOnlyDrift(t *testing.T) {
	book := NewBook("CAMB")
	book.Insert(newTestOrder("s1", "bob", domain.OrderSideSell, 100, 10))

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingSellerPrice, DriftBps: 500})

	// 100 * 10500 / 10000 = 105.
	if result.SettlementPrice != 105 {
		t.Errorf("expected settlement 105, got %d", result.SettlementPrice)
	}
}

func TestMatchRound_DriftAtPriceCeiling(t *testing.T) {
	book := NewBook("CAMB")
	book.Insert(newTestOrder("s1", "bob", domain.OrderSideSell, domain.MaxOrderPrice, 10))

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingSellerPrice, DriftBps: 500})

	// 1000000 * 10500 / 10000 = 1050000, no wraparound.
	if result.SettlementPrice != 1_050_000 {
		t.Errorf("expected settlement 1050000, got %d", result.SettlementPrice)
	}
}

func TestMatchRound_EmptyBook_KeepsPreviousPrice(t *testing.T) {
	book := NewBook("CAMB")

	result := matchOn(t, book, 42, MatchConfig{Pricing: PricingSellerPrice})

	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(result.Trades))
	}
	if result.SettlementPrice != 42 {
		t.Errorf("expected settlement 42, got %d", result.SettlementPrice)
	}
}

func TestMatchRound_SettlementFloor(t *testing.T) {
	book := NewBook("CAMB")
	book.Insert(newTestOrder("b1", "alice", domain.OrderSideBuy, 1, 10))

	result := matchOn(t, book, 1, MatchConfig{Pricing: PricingSellerPrice, DriftBps: 9000})

	// 1 * 1000 / 10000 truncates to 0, clamped up to the floor.
	if result.SettlementPrice != 1 {
		t.Errorf("expected settlement clamped to 1, got %d", result.SettlementPrice)
	}
}

func TestMatchRound_VWAPSettlement(t *testing.T) {
	book := NewBook("CAMB")
	book.Insert(newTestOrder("b1", "alice", domain.OrderSideBuy, 60, 10))
	book.Insert(newTestOrder("s1", "bob", domain.OrderSideSell, 50, 4))
	book.Insert(newTestOrder("s2", "carol", domain.OrderSideSell, 56, 6))

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingSellerPrice})

	if len(result.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(result.Trades))
	}
	// (50*4 + 56*6 + 10/2) / 10 = (200 + 336 + 5) / 10 = 54.
	if result.SettlementPrice != 54 {
		t.Errorf("expected VWAP settlement 54, got %d", result.SettlementPrice)
	}
}

func TestMatchRound_SweepMultipleLevels(t *testing.T) {
	book := NewBook("CAMB")
	book.Insert(newTestOrder("s1", "bob", domain.OrderSideSell, 50, 3))
	book.Insert(newTestOrder("s2", "carol", domain.OrderSideSell, 52, 3))
	book.Insert(newTestOrder("s3", "dave", domain.OrderSideSell, 58, 3))
	buy := newTestOrder("b1", "alice", domain.OrderSideBuy, 55, 10)
	book.Insert(buy)

	result := matchOn(t, book, 50, MatchConfig{Pricing: PricingSellerPrice})

	// The buy sweeps the 50 and 52 asks and stops below 58.
	if len(result.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(result.Trades))
	}
	if result.Trades[0].Price != 50 || result.Trades[1].Price != 52 {
		t.Errorf("expected prices 50 then 52, got %d then %d",
			result.Trades[0].Price, result.Trades[1].Price)
	}
	if buy.RemainingQuantity != 4 {
		t.Errorf("expected buy remaining 4, got %d", buy.RemainingQuantity)
	}
}
