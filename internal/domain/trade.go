package domain

// Trade represents a matched execution between a buy and a sell order.
// Trades are immutable once created and append-only on the session tape.
type Trade struct {
	TradeID  string
	Symbol   string
	Price    int64
	Quantity int64
	BuyerID  string
	SellerID string
	Round    int
}

// Notional returns the cash value transferred by the trade.
func (t *Trade) Notional() int64 {
	return t.Price * t.Quantity
}
