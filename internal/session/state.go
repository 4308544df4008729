// internal/session/state.go
package session

import (
	"errors"

	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
)

// State is the controller's position in the session lifecycle.
type State int

const (
	StateIdle State = iota
	StateMatching
	StateAllReady
	StateActive
	StateRoundTransition
	StateGameOver
	StateDisconnected
)

var stateNames = map[State]string{
	StateIdle:            "idle",
	StateMatching:        "matching",
	StateAllReady:        "all_ready",
	StateActive:          "active",
	StateRoundTransition: "round_transition",
	StateGameOver:        "game_over",
	StateDisconnected:    "disconnected",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Phase maps a state onto the phase the store exposes to the UI.
func (s State) Phase() store.Phase {
	switch s {
	case StateMatching:
		return store.PhaseMatching
	case StateAllReady:
		return store.PhaseAllReady
	case StateActive:
		return store.PhaseActive
	case StateRoundTransition:
		return store.PhaseRoundTransition
	case StateGameOver:
		return store.PhaseGameOver
	case StateDisconnected:
		return store.PhaseDisconnected
	}
	return store.PhaseIdle
}

var (
	ErrClosed       = errors.New("session controller closed")
	ErrWrongGame    = errors.New("command not available in this game")
	ErrWrongState   = errors.New("command not available in the current state")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrNotOwner     = errors.New("only the room owner can do that")
	ErrUnknownCard  = errors.New("card is not in your hand")
	ErrInvalidMove  = errors.New("invalid move")
	ErrNoItemsLeft  = errors.New("no items left")
	ErrAlreadyFound = errors.New("position already found")
)

// EffectKind names a transient presentation effect.
type EffectKind string

const (
	EffectRoundClear  EffectKind = "round_clear"
	EffectRoundFail   EffectKind = "round_fail"
	EffectCorrect     EffectKind = "correct"
	EffectWrong       EffectKind = "wrong"
	EffectHint        EffectKind = "hint"
	EffectTimerStop   EffectKind = "timer_stop"
	EffectSequence    EffectKind = "sequence"
	EffectLoanSuccess EffectKind = "loan_success"
	EffectLoanFailed  EffectKind = "loan_failed"
	EffectTimeOut     EffectKind = "time_out"
	EffectServerError EffectKind = "server_error"
)

// Effect is a one-shot UI cue. It is never replayed for a round already shown.
type Effect struct {
	Kind   EffectKind
	Round  int
	UserID int64
	Point  *store.Point
	Cells  []int
	Detail string
}
