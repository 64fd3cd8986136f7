package game

import (
	"time"

	"github.com/tradingpit/tradingpit/internal/domain"
	"github.com/tradingpit/tradingpit/internal/engine"
)

// Snapshot is the full authoritative state pushed to every client after
// each accepted mutation, and served read-only over HTTP. It carries no
// connection internals.
type Snapshot struct {
	SessionID         string             `json:"sessionId"`
	Phase             Phase              `json:"phase"`
	CurrentRound      int                `json:"currentRound"`
	TotalRounds       int                `json:"totalRounds"`
	OrderWindowClosed bool               `json:"orderWindowClosed"`
	RoundEndsAt       *time.Time         `json:"roundEndsAt,omitempty"`
	Prices            map[string]int64   `json:"currentPrices"`
	Instruments       []InstrumentView   `json:"instruments"`
	Players           []PlayerView       `json:"players"`
	Orders            []OrderView        `json:"orders"`
	Books             map[string]BookView `json:"books"`
	Trades            []TradeView        `json:"trades"`
	PriceHistory      []domain.PricePoint `json:"priceHistory"`
}

// InstrumentView is the public shape of one tradable symbol.
type InstrumentView struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Price  int64  `json:"price"`
}

// PlayerView is the public shape of a participant.
type PlayerView struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Role            domain.Role      `json:"role"`
	Cash            int64            `json:"cash"`
	Shares          map[string]int64 `json:"shares"`
	TotalValue      int64            `json:"totalValue"`
	Rank            int              `json:"rank,omitempty"`
	Online          bool             `json:"online"`
	OrdersSubmitted int              `json:"ordersSubmitted"`
	Done            bool             `json:"done"`
}

// OrderView is the public shape of an active-round order.
type OrderView struct {
	ID                string             `json:"id"`
	ParticipantID     string             `json:"participantId"`
	PlayerName        string             `json:"playerName"`
	Symbol            string             `json:"symbol"`
	Side              domain.OrderSide   `json:"side"`
	Price             int64              `json:"price"`
	Quantity          int64              `json:"quantity"`
	FilledQuantity    int64              `json:"filledQuantity"`
	RemainingQuantity int64              `json:"remainingQuantity"`
	Round             int                `json:"round"`
	Status            domain.OrderStatus `json:"status"`
}

// TradeView is the public shape of an executed trade.
type TradeView struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	BuyerID  string `json:"buyerId"`
	SellerID string `json:"sellerId"`
	Round    int    `json:"round"`
}

// BookView aggregates the resting order book per price level, the
// consolidated shape clients chart.
type BookView struct {
	Bids []engine.PriceLevel `json:"bids"`
	Asks []engine.PriceLevel `json:"asks"`
}

// bookDepth bounds the aggregated levels included per snapshot side.
const bookDepth = 20

func (s *Session) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		SessionID:         s.id,
		Phase:             s.phase,
		CurrentRound:      s.round,
		TotalRounds:       s.cfg.TotalRounds,
		OrderWindowClosed: s.windowClosed,
		Prices:            make(map[string]int64, len(s.instruments)),
		Instruments:       make([]InstrumentView, 0, len(s.instruments)),
		Players:           make([]PlayerView, 0, len(s.participants)),
		Orders:            make([]OrderView, 0, len(s.orders)),
		Books:             make(map[string]BookView, len(s.instruments)),
		Trades:            make([]TradeView, 0, len(s.trades)),
		PriceHistory:      append([]domain.PricePoint(nil), s.history...),
	}

	if s.phase == PhaseTrading && !s.roundDeadline.IsZero() {
		deadline := s.roundDeadline
		snap.RoundEndsAt = &deadline
	}

	for _, inst := range s.instruments {
		snap.Prices[inst.Symbol] = inst.Price
		snap.Instruments = append(snap.Instruments, InstrumentView{
			Symbol: inst.Symbol,
			Name:   inst.Name,
			Price:  inst.Price,
		})
		book := s.books[inst.Symbol]
		snap.Books[inst.Symbol] = BookView{
			Bids: book.TopBids(bookDepth),
			Asks: book.TopAsks(bookDepth),
		}
	}

	for _, p := range s.participants {
		shares := make(map[string]int64, len(p.Shares))
		for symbol, qty := range p.Shares {
			shares[symbol] = qty
		}
		snap.Players = append(snap.Players, PlayerView{
			ID:              p.ParticipantID,
			Name:            p.Name,
			Role:            p.Role,
			Cash:            p.Cash,
			Shares:          shares,
			TotalValue:      p.TotalValue,
			Rank:            p.Rank,
			Online:          p.Online,
			OrdersSubmitted: p.OrdersSubmitted,
			Done:            p.Done,
		})
	}

	for _, o := range s.orders {
		snap.Orders = append(snap.Orders, OrderView{
			ID:                o.OrderID,
			ParticipantID:     o.ParticipantID,
			PlayerName:        s.participantName(o.ParticipantID),
			Symbol:            o.Symbol,
			Side:              o.Side,
			Price:             o.Price,
			Quantity:          o.Quantity,
			FilledQuantity:    o.FilledQuantity,
			RemainingQuantity: o.RemainingQuantity,
			Round:             o.Round,
			Status:            o.Status,
		})
	}

	for _, t := range s.trades {
		snap.Trades = append(snap.Trades, TradeView{
			ID:       t.TradeID,
			Symbol:   t.Symbol,
			Price:    t.Price,
			Quantity: t.Quantity,
			BuyerID:  t.BuyerID,
			SellerID: t.SellerID,
			Round:    t.Round,
		})
	}

	return snap
}
