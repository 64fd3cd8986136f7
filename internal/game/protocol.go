package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tradingpit/tradingpit/internal/domain"
)

// Client→server message types.
const (
	MsgJoin         = "JOIN"
	MsgReconnect    = "RECONNECT"
	MsgSubmitOrder  = "SUBMIT_ORDER"
	MsgMarkDone     = "MARK_DONE"
	MsgStartGame    = "START_GAME"
	MsgStartRound   = "START_ROUND"
	MsgForceClose   = "FORCE_CLOSE"
	MsgProcessRound = "PROCESS_ROUND"
	MsgNextRound    = "NEXT_ROUND"
	MsgReset        = "RESET"
)

// Server→client message types.
const (
	MsgStateSnapshot       = "STATE_SNAPSHOT"
	MsgParticipantAssigned = "PARTICIPANT_ASSIGNED"
	MsgError               = "ERROR"
)

// ClientMessage is the tagged inbound wire record. Price and quantity are
// decoded as floats so that fractional values can be rejected explicitly
// instead of failing JSON decoding.
type ClientMessage struct {
	Type          string  `json:"type"`
	PlayerName    string  `json:"playerName,omitempty"`
	AsMonitor     bool    `json:"asMonitor,omitempty"`
	ParticipantID string  `json:"participantId,omitempty"`
	Symbol        string  `json:"symbol,omitempty"`
	Side          string  `json:"side,omitempty"`
	Price         float64 `json:"price,omitempty"`
	Quantity      float64 `json:"quantity,omitempty"`
}

// ServerMessage is the tagged outbound wire record.
type ServerMessage struct {
	Type          string    `json:"type"`
	State         *Snapshot `json:"state,omitempty"`
	ParticipantID string    `json:"participantId,omitempty"`
	Kind          string    `json:"kind,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// ParseIntent decodes an inbound frame into an Intent. Malformed frames
// yield a ValidationError; non-integral or out-of-range prices and
// quantities map to the corresponding admission errors.
func ParseIntent(data []byte) (Intent, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &domain.ValidationError{Message: "invalid message format"}
	}

	switch msg.Type {
	case MsgJoin:
		if msg.PlayerName == "" {
			return nil, &domain.ValidationError{Message: "playerName is required"}
		}
		return JoinIntent{Name: msg.PlayerName, AsMonitor: msg.AsMonitor}, nil
	case MsgReconnect:
		if msg.ParticipantID == "" {
			return nil, &domain.ValidationError{Message: "participantId is required"}
		}
		return ReconnectIntent{ParticipantID: msg.ParticipantID}, nil
	case MsgSubmitOrder:
		side, err := parseSide(msg.Side)
		if err != nil {
			return nil, err
		}
		if msg.Price != math.Trunc(msg.Price) || msg.Price > float64(domain.MaxOrderPrice) {
			return nil, domain.ErrInvalidPrice
		}
		if msg.Quantity != math.Trunc(msg.Quantity) || msg.Quantity > float64(domain.MaxOrderQuantity) {
			return nil, domain.ErrInvalidQuantity
		}
		return SubmitOrderIntent{
			Symbol:   msg.Symbol,
			Side:     side,
			Price:    int64(msg.Price),
			Quantity: int64(msg.Quantity),
		}, nil
	case MsgMarkDone:
		return MarkDoneIntent{}, nil
	case MsgStartGame:
		return StartGameIntent{}, nil
	case MsgStartRound:
		return StartRoundIntent{}, nil
	case MsgForceClose:
		return ForceCloseIntent{}, nil
	case MsgProcessRound:
		return ProcessRoundIntent{}, nil
	case MsgNextRound:
		return NextRoundIntent{}, nil
	case MsgReset:
		return ResetIntent{}, nil
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown message type %q", msg.Type)}
	}
}

func parseSide(value string) (domain.OrderSide, error) {
	switch value {
	case "buy", "BUY", "bid":
		return domain.OrderSideBuy, nil
	case "sell", "SELL", "ask":
		return domain.OrderSideSell, nil
	default:
		return "", &domain.ValidationError{Message: fmt.Sprintf("unknown side %q", value)}
	}
}

// errorMessages maps sentinel error kinds to client-facing sentences.
var errorMessages = map[string]string{
	"insufficient_funds":       "Insufficient funds for this order.",
	"insufficient_shares":      "Insufficient shares for this order.",
	"invalid_price":            "Price must be a positive integer.",
	"invalid_quantity":         "Quantity must be a positive integer.",
	"order_limit_exceeded":     "Order limit for this round reached.",
	"unknown_participant":      "Unknown participant id.",
	"unknown_session":          "Unknown session id.",
	"unknown_instrument":       "Unknown instrument symbol.",
	"invalid_phase_transition": "Action not allowed in the current phase.",
	"not_authorized":           "Your role cannot perform this action.",
	"session_halted":           "The session has halted after an internal error.",
}

// ErrorMessage builds the ERROR frame for a rejected intent.
func ErrorMessage(err error) ServerMessage {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return ServerMessage{Type: MsgError, Kind: "invalid_request", Message: vErr.Message}
	}
	var iErr *domain.InvariantViolationError
	if errors.As(err, &iErr) {
		return ServerMessage{Type: MsgError, Kind: "invariant_violation", Message: iErr.Detail}
	}

	kind := err.Error()
	msg, ok := errorMessages[kind]
	if !ok {
		return ServerMessage{Type: MsgError, Kind: "internal_error", Message: err.Error()}
	}
	return ServerMessage{Type: MsgError, Kind: kind, Message: msg}
}
