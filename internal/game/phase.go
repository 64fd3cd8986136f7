package game

// Phase is the session's position in the round lifecycle:
// LOBBY → SETUP → TRADING → PROCESSING → RESULTS → (TRADING | FINISHED).
type Phase string

const (
	PhaseLobby      Phase = "LOBBY"
	PhaseSetup      Phase = "SETUP"
	PhaseTrading    Phase = "TRADING"
	PhaseProcessing Phase = "PROCESSING"
	PhaseResults    Phase = "RESULTS"
	PhaseFinished   Phase = "FINISHED"
)

// Terminal reports whether the phase accepts no further intents except a
// full session reset.
func (p Phase) Terminal() bool {
	return p == PhaseFinished
}
