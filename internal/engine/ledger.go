package engine

import (
	"fmt"
	"sort"

	"github.com/tradingpit/tradingpit/internal/domain"
)

// ApplyTrade settles one trade against the buyer's and seller's balances:
// the buyer's cash debit equals the seller's credit and the buyer's share
// gain equals the seller's loss, so every trade nets to zero.
//
// A balance that would go negative is an InvariantViolationError: order
// admission is supposed to make this unreachable, so the caller must treat
// it as fatal for the session rather than a recoverable rejection.
func ApplyTrade(buyer, seller *domain.Participant, t *domain.Trade) error {
	cost := t.Notional()
	if buyer.Cash < cost {
		return &domain.InvariantViolationError{
			Detail: fmt.Sprintf("trade %s would drive buyer %s cash to %d", t.TradeID, buyer.ParticipantID, buyer.Cash-cost),
		}
	}
	if seller.ShareBalance(t.Symbol) < t.Quantity {
		return &domain.InvariantViolationError{
			Detail: fmt.Sprintf("trade %s would drive seller %s %s shares to %d",
				t.TradeID, seller.ParticipantID, t.Symbol, seller.ShareBalance(t.Symbol)-t.Quantity),
		}
	}

	buyer.Cash -= cost
	buyer.Shares[t.Symbol] += t.Quantity
	seller.Cash += cost
	seller.Shares[t.Symbol] -= t.Quantity
	return nil
}

// Revalue recomputes every participant's total value as
// cash + Σ shares[i]·price[i] at the given prices.
func Revalue(participants []*domain.Participant, prices map[string]int64) {
	for _, p := range participants {
		total := p.Cash
		for symbol, qty := range p.Shares {
			total += qty * prices[symbol]
		}
		p.TotalValue = total
	}
}

// Rank orders the human traders by descending total value, ties broken by
// earliest join (stable), and stamps 1-based ranks on them. Market makers
// and the monitor are excluded and keep rank 0.
func Rank(participants []*domain.Participant) []*domain.Participant {
	humans := make([]*domain.Participant, 0, len(participants))
	for _, p := range participants {
		if p.Role == domain.RoleTrader {
			humans = append(humans, p)
		}
	}
	sort.SliceStable(humans, func(i, j int) bool {
		if humans[i].TotalValue != humans[j].TotalValue {
			return humans[i].TotalValue > humans[j].TotalValue
		}
		return humans[i].JoinSeq < humans[j].JoinSeq
	})
	for i, p := range humans {
		p.Rank = i + 1
	}
	return humans
}
