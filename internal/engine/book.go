package engine

import (
	"github.com/google/btree"

	"github.com/tradingpit/tradingpit/internal/domain"
)

// BookEntry represents a single order resting on the round's book.
type BookEntry struct {
	Price    int64
	Sequence int64
	OrderID  string
	Order    *domain.Order
}

// PriceLevel represents an aggregated price level in the order book.
type PriceLevel struct {
	Price         int64 `json:"price"`
	TotalQuantity int64 `json:"totalQuantity"`
	OrderCount    int   `json:"orderCount"`
}

// bidLess defines ordering for the buy side: price descending, then
// admission sequence ascending. Min() returns the best bid (highest price,
// earliest submission).
func bidLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.Sequence < b.Sequence
}

// askLess defines ordering for the sell side: price ascending, then
// admission sequence ascending. Min() returns the best ask.
func askLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.Sequence < b.Sequence
}

// Book holds the resting orders of the active round for a single instrument
// using B-trees with a secondary index for removal by order ID.
//
// A Book is owned by its session's actor goroutine and is not safe for
// concurrent use; the single-writer discipline makes a lock unnecessary.
type Book struct {
	symbol string
	bids   *btree.BTreeG[BookEntry]
	asks   *btree.BTreeG[BookEntry]
	index  map[string]BookEntry // order_id → entry
	seq    int64
}

// NewBook creates an order book for the given symbol.
func NewBook(symbol string) *Book {
	const degree = 32
	return &Book{
		symbol: symbol,
		bids:   btree.NewG[BookEntry](degree, bidLess),
		asks:   btree.NewG[BookEntry](degree, askLess),
		index:  make(map[string]BookEntry),
	}
}

// Symbol returns the instrument symbol the book belongs to.
func (b *Book) Symbol() string {
	return b.symbol
}

// Insert assigns the order its admission sequence number and rests it on
// the matching side of the book.
func (b *Book) Insert(o *domain.Order) {
	b.seq++
	o.Sequence = b.seq

	entry := BookEntry{
		Price:    o.Price,
		Sequence: o.Sequence,
		OrderID:  o.OrderID,
		Order:    o,
	}
	if o.Side == domain.OrderSideBuy {
		b.bids.ReplaceOrInsert(entry)
	} else {
		b.asks.ReplaceOrInsert(entry)
	}
	b.index[o.OrderID] = entry
}

// Remove deletes an order from the book by order ID using the secondary
// index. Delete is a no-op on the side the entry isn't resting on.
func (b *Book) Remove(orderID string) {
	entry, ok := b.index[orderID]
	if !ok {
		return
	}
	delete(b.index, orderID)
	b.bids.Delete(entry)
	b.asks.Delete(entry)
}

// BestBid returns the highest-priority buy order (highest price, earliest
// submission).
func (b *Book) BestBid() (BookEntry, bool) {
	return b.bids.Min()
}

// BestAsk returns the highest-priority sell order (lowest price, earliest
// submission).
func (b *Book) BestAsk() (BookEntry, bool) {
	return b.asks.Min()
}

// Buys returns the buy side in priority order for the matching pass.
func (b *Book) Buys() []*domain.Order {
	orders := make([]*domain.Order, 0, b.bids.Len())
	b.bids.Ascend(func(entry BookEntry) bool {
		orders = append(orders, entry.Order)
		return true
	})
	return orders
}

// Sells returns the sell side in priority order for the matching pass.
func (b *Book) Sells() []*domain.Order {
	orders := make([]*domain.Order, 0, b.asks.Len())
	b.asks.Ascend(func(entry BookEntry) bool {
		orders = append(orders, entry.Order)
		return true
	})
	return orders
}

// TopBids returns up to n aggregated price levels from the buy side,
// ordered by price descending.
func (b *Book) TopBids(n int) []PriceLevel {
	return topLevels(b.bids, n)
}

// TopAsks returns up to n aggregated price levels from the sell side,
// ordered by price ascending.
func (b *Book) TopAsks(n int) []PriceLevel {
	return topLevels(b.asks, n)
}

// topLevels iterates the B-tree in order and aggregates entries into at
// most n price levels.
func topLevels(tree *btree.BTreeG[BookEntry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(entry BookEntry) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == entry.Price {
			levels[len(levels)-1].TotalQuantity += entry.Order.RemainingQuantity
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         entry.Price,
			TotalQuantity: entry.Order.RemainingQuantity,
			OrderCount:    1,
		})
		return true
	})
	return levels
}

// Clear retires the round's orders at the round boundary. With carry=false
// every order leaves the book; with carry=true unfilled orders stay resting
// into the next round, and only filled ones are removed.
func (b *Book) Clear(carry bool) {
	if !carry {
		b.bids.Clear(false)
		b.asks.Clear(false)
		b.index = make(map[string]BookEntry)
		return
	}
	for id, entry := range b.index {
		if entry.Order.Status == domain.OrderStatusFilled || entry.Order.RemainingQuantity == 0 {
			delete(b.index, id)
			b.bids.Delete(entry)
			b.asks.Delete(entry)
		}
	}
}

// BidCount returns the number of individual buy orders on the book.
func (b *Book) BidCount() int {
	return b.bids.Len()
}

// AskCount returns the number of individual sell orders on the book.
func (b *Book) AskCount() int {
	return b.asks.Len()
}
