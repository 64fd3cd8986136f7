package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error handling. The transport layer maps
// these to wire error kinds and HTTP status codes.
//
// Admission errors: recoverable, reported to the submitting client only,
// no state mutation.
var (
	ErrInsufficientFunds  = errors.New("insufficient_funds")
	ErrInsufficientShares = errors.New("insufficient_shares")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrOrderLimitExceeded = errors.New("order_limit_exceeded")
)

// Protocol errors: recoverable, reported, no mutation.
var (
	ErrUnknownParticipant = errors.New("unknown_participant")
	ErrUnknownSession     = errors.New("unknown_session")
	ErrUnknownInstrument  = errors.New("unknown_instrument")
	ErrInvalidPhase       = errors.New("invalid_phase_transition")
	ErrNotAuthorized      = errors.New("not_authorized")
	ErrSessionHalted      = errors.New("session_halted")
)

// ValidationError represents a malformed intent (bad field shapes rather
// than a domain rejection).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvariantViolationError reports a ledger update that admission should have
// made impossible. It is a programmer error, not a recoverable rejection:
// the session halts when it surfaces.
type InvariantViolationError struct {
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant_violation: %s", e.Detail)
}
