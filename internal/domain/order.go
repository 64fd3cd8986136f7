package domain

import "time"

// OrderSide indicates whether an order is a buy (bid) or sell (ask).
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderStatus represents the lifecycle state of an order. Transitions move
// only forward: pending → partial → filled.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPartial OrderStatus = "partial"
	OrderStatusFilled  OrderStatus = "filled"
)

// Bounds on admitted prices and quantities. Any admitted notional
// (price*quantity) then fits in 40 bits, so settlement and drift
// arithmetic stay far from int64 wraparound.
const (
	MaxOrderPrice    int64 = 1_000_000
	MaxOrderQuantity int64 = 1_000_000
)

// Order represents one buy or sell instruction for a single round.
// Prices are whole currency units; fractional prices are rejected at
// admission so settlement arithmetic never leaves the integers.
type Order struct {
	OrderID           string
	ParticipantID     string
	Symbol            string
	Side              OrderSide
	Price             int64
	Quantity          int64
	FilledQuantity    int64
	RemainingQuantity int64
	Round             int
	Status            OrderStatus
	Sequence          int64 // monotonic admission order, matching tiebreak
	CreatedAt         time.Time
}

// Fill consumes qty from the order's remaining quantity and advances its
// status. The caller guarantees qty ≤ RemainingQuantity.
func (o *Order) Fill(qty int64) {
	o.RemainingQuantity -= qty
	o.FilledQuantity += qty
	if o.RemainingQuantity == 0 {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartial
	}
}
