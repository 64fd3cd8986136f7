package domain

import "time"

// Role is the participant variant. Capabilities hang off the role so that
// invalid combinations (a monitor that also trades) are unrepresentable.
type Role string

const (
	RoleTrader      Role = "trader"
	RoleMarketMaker Role = "market_maker"
	RoleMonitor     Role = "monitor"
)

// CanTrade reports whether the role holds positions and may submit orders.
func (r Role) CanTrade() bool {
	return r == RoleTrader || r == RoleMarketMaker
}

// CanAdminRound reports whether the role controls round progression.
func (r Role) CanAdminRound() bool {
	return r == RoleMonitor
}

// Participant is one member of a game session: a human trader, a scripted
// market maker, or the monitor.
type Participant struct {
	ParticipantID   string
	Name            string
	Role            Role
	Cash            int64
	Shares          map[string]int64 // symbol → share balance
	TotalValue      int64
	Rank            int // 0 until the session finishes; monitors and MMs stay 0
	Online          bool
	OrdersSubmitted int // this round
	Done            bool
	JoinSeq         int // stable ranking tiebreak
	JoinedAt        time.Time
}

// ShareBalance returns the participant's holdings in symbol, 0 when none.
func (p *Participant) ShareBalance(symbol string) int64 {
	return p.Shares[symbol]
}

// ResetRound clears the per-round submission counter and done flag.
func (p *Participant) ResetRound() {
	p.OrdersSubmitted = 0
	p.Done = false
}
