package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradingpit/tradingpit/internal/game"
)

// SessionHandler serves read-only views of live sessions. Everything it
// returns comes from the session's published snapshot, so no request ever
// touches the game actor.
type SessionHandler struct {
	registry *game.Registry
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(registry *game.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

func (h *SessionHandler) snapshot(w http.ResponseWriter, r *http.Request) *game.Snapshot {
	id := chi.URLParam(r, "session_id")
	session := h.registry.Get(id)
	if session == nil {
		WriteError(w, http.StatusNotFound, "unknown_session", "No session with that id.")
		return nil
	}
	return session.Snapshot()
}

// GetSession handles GET /sessions/{session_id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w, r)
	if snap == nil {
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// bookResponse is the JSON response for GET /sessions/{session_id}/book/{symbol}.
type bookResponse struct {
	SessionID string        `json:"sessionId"`
	Symbol    string        `json:"symbol"`
	Round     int           `json:"round"`
	Book      game.BookView `json:"book"`
}

// GetBook handles GET /sessions/{session_id}/book/{symbol}.
func (h *SessionHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w, r)
	if snap == nil {
		return
	}
	symbol := chi.URLParam(r, "symbol")
	book, ok := snap.Books[symbol]
	if !ok {
		WriteError(w, http.StatusNotFound, "unknown_instrument", "Unknown instrument symbol.")
		return
	}
	WriteJSON(w, http.StatusOK, bookResponse{
		SessionID: snap.SessionID,
		Symbol:    symbol,
		Round:     snap.CurrentRound,
		Book:      book,
	})
}

// tradesResponse is the JSON response for GET /sessions/{session_id}/trades/{symbol}.
type tradesResponse struct {
	SessionID string           `json:"sessionId"`
	Symbol    string           `json:"symbol"`
	Trades    []game.TradeView `json:"trades"`
}

// GetTrades handles GET /sessions/{session_id}/trades/{symbol}.
func (h *SessionHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w, r)
	if snap == nil {
		return
	}
	symbol := chi.URLParam(r, "symbol")
	if _, ok := snap.Books[symbol]; !ok {
		WriteError(w, http.StatusNotFound, "unknown_instrument", "Unknown instrument symbol.")
		return
	}
	trades := make([]game.TradeView, 0)
	for _, t := range snap.Trades {
		if t.Symbol == symbol {
			trades = append(trades, t)
		}
	}
	WriteJSON(w, http.StatusOK, tradesResponse{
		SessionID: snap.SessionID,
		Symbol:    symbol,
		Trades:    trades,
	})
}

// historyPoint is one entry of the per-symbol price series.
type historyPoint struct {
	Day    int   `json:"day"`
	Round  int   `json:"round,omitempty"`
	Price  int64 `json:"price"`
	Traded bool  `json:"traded"`
}

// historyResponse is the JSON response for GET /sessions/{session_id}/history/{symbol}.
type historyResponse struct {
	SessionID string         `json:"sessionId"`
	Symbol    string         `json:"symbol"`
	History   []historyPoint `json:"history"`
}

// GetHistory handles GET /sessions/{session_id}/history/{symbol}.
func (h *SessionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w, r)
	if snap == nil {
		return
	}
	symbol := chi.URLParam(r, "symbol")
	if _, ok := snap.Books[symbol]; !ok {
		WriteError(w, http.StatusNotFound, "unknown_instrument", "Unknown instrument symbol.")
		return
	}
	history := make([]historyPoint, 0, len(snap.PriceHistory))
	for _, point := range snap.PriceHistory {
		price, ok := point.Prices[symbol]
		if !ok {
			continue
		}
		history = append(history, historyPoint{
			Day:    point.Day,
			Round:  point.Round,
			Price:  price,
			Traded: point.Traded,
		})
	}
	WriteJSON(w, http.StatusOK, historyResponse{
		SessionID: snap.SessionID,
		Symbol:    symbol,
		History:   history,
	})
}
