package domain

// Instrument is a tradable symbol with its current settlement price and the
// bounds used when seeding its synthetic pre-game history.
type Instrument struct {
	Symbol   string
	Name     string
	Price    int64
	StartMin int64 // seed price range, inclusive
	StartMax int64
	FloorMin int64 // clamp range for the seeded random walk
	FloorMax int64
}

// PricePoint is one entry of the published price history. Day counts the
// seeded pre-game days first (1..N) and then one step per trading round.
// Round is 0 for seeded points. Traded marks points that resulted from at
// least one executed trade rather than book-pressure drift.
type PricePoint struct {
	Day    int              `json:"day"`
	Round  int              `json:"round,omitempty"`
	Prices map[string]int64 `json:"prices"`
	Traded bool             `json:"traded,omitempty"`
}
