package game

import "github.com/tradingpit/tradingpit/internal/domain"

// Intent is a request applied to the session by its actor loop. Intents
// arrive from client connections or from the round timer and are processed
// strictly one at a time in arrival order.
type Intent interface {
	intentName() string
}

// JoinIntent registers a new participant. Accepted in LOBBY only.
type JoinIntent struct {
	Name      string
	AsMonitor bool
}

// ReconnectIntent rebinds a connection to a previously issued participant
// id. Accepted in any phase; idempotent.
type ReconnectIntent struct {
	ParticipantID string
}

// SubmitOrderIntent places a buy or sell order for the active round.
type SubmitOrderIntent struct {
	Symbol   string
	Side     domain.OrderSide
	Price    int64
	Quantity int64
}

// MarkDoneIntent flags the trader as finished submitting for the round.
type MarkDoneIntent struct{}

// StartGameIntent moves LOBBY → SETUP. Monitor only.
type StartGameIntent struct{}

// StartRoundIntent opens round 1, SETUP → TRADING. Monitor only.
type StartRoundIntent struct{}

// ForceCloseIntent immediately ends the order window. Monitor only.
type ForceCloseIntent struct{}

// ProcessRoundIntent closes the round and runs matching. Monitor only;
// requires the window closed or every eligible trader done/at cap.
type ProcessRoundIntent struct{}

// NextRoundIntent advances RESULTS → TRADING, or → FINISHED after the final
// round. Monitor only.
type NextRoundIntent struct{}

// ResetIntent recreates the session from scratch under the same id.
// Monitor only, FINISHED only.
type ResetIntent struct{}

// attachIntent and detachIntent track connection lifecycle; they are
// enqueued by the transport layer, never parsed from the wire.
type attachIntent struct{}

type detachIntent struct{}

// roundTimeoutIntent is the synthetic intent the round timer enqueues so
// that timer expiry mutates state through the mailbox like everything else.
// Round guards against stale timers from already-closed rounds.
type roundTimeoutIntent struct {
	Round int
}

func (JoinIntent) intentName() string         { return "join" }
func (ReconnectIntent) intentName() string    { return "reconnect" }
func (SubmitOrderIntent) intentName() string  { return "submit_order" }
func (MarkDoneIntent) intentName() string     { return "mark_done" }
func (StartGameIntent) intentName() string    { return "start_game" }
func (StartRoundIntent) intentName() string   { return "start_round" }
func (ForceCloseIntent) intentName() string   { return "force_close" }
func (ProcessRoundIntent) intentName() string { return "process_round" }
func (NextRoundIntent) intentName() string    { return "next_round" }
func (ResetIntent) intentName() string        { return "reset" }
func (attachIntent) intentName() string       { return "attach" }
func (detachIntent) intentName() string       { return "detach" }
func (roundTimeoutIntent) intentName() string { return "round_timeout" }
