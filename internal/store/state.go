// internal/store/state.go
package store

import (
	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/rules"
)

// Phase mirrors the session controller's state for the UI.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseMatching        Phase = "matching"
	PhaseAllReady        Phase = "all_ready"
	PhaseActive          Phase = "active"
	PhaseRoundTransition Phase = "round_transition"
	PhaseGameOver        Phase = "game_over"
	PhaseDisconnected    Phase = "disconnected"
)

// Point is a click position on the find-it images.
type Point struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	UserID int64   `json:"userID,omitempty"`
}

type FindItState struct {
	Life             int     `json:"life"`
	HintCount        int     `json:"hintCount"`
	TimerItemCount   int     `json:"timerItemCount"`
	NormalImageURL   string  `json:"normalImageUrl"`
	AbnormalImageURL string  `json:"abnormalImageUrl"`
	Correct          []Point `json:"correct"`
	Wrong            []Point `json:"wrong"`
	Hints            []Point `json:"hints"`
}

type FrogState struct {
	BoardCards   []models.Card `json:"boardCards"`
	Dora         *models.Card  `json:"dora,omitempty"`
	LastDiscard  *models.Card  `json:"lastDiscard,omitempty"`
	DiscardOwner int64         `json:"discardOwner"`
	LoanAllowed  bool          `json:"loanAllowed"`
	Winner       int64         `json:"winner"`
}

// SequenceMove is the most recent chip placed or removed.
type SequenceMove struct {
	UserID  int64 `json:"userID"`
	CardID  int   `json:"cardID"`
	MapID   int   `json:"mapID"`
	Removed bool  `json:"removed"`
}

type SequenceState struct {
	Sequences map[int64][]rules.Sequence `json:"sequences"`
	LastMove  *SequenceMove              `json:"lastMove,omitempty"`
	Winner    int64                      `json:"winner"`
}

type SlimeWarState struct {
	King   int   `json:"king"`
	Winner int64 `json:"winner"`
}

// State holds the primary fields of one session. Derived values are computed
// by Snapshot and never stored.
type State struct {
	Phase      Phase           `json:"phase"`
	Session    models.Session  `json:"session"`
	MyUserID   int64           `json:"myUserID"`
	Players    []models.Player `json:"players"`
	Board      *models.Board   `json:"board,omitempty"`
	TimerValue int             `json:"timerValue"`
	TimerMax   int             `json:"timerMax"`
	TimerPause bool            `json:"timerPause"`

	// EffectRound is the latest round whose clear or fail effect was shown.
	EffectRound int `json:"effectRound"`

	FindIt   FindItState   `json:"findIt"`
	Frog     FrogState     `json:"frog"`
	Sequence SequenceState `json:"sequence"`
	SlimeWar SlimeWarState `json:"slimeWar"`
}

// Baseline is the empty state of a fresh session, the starting point a
// resync rebuilds from.
func Baseline(game models.GameType, me int64) State {
	return newState(game, me)
}

func newState(game models.GameType, me int64) State {
	s := State{
		Phase:    PhaseIdle,
		Session:  models.Session{GameType: game},
		MyUserID: me,
		Sequence: SequenceState{Sequences: map[int64][]rules.Sequence{}},
	}
	if rows, cols := game.BoardSize(); rows > 0 {
		s.Board = models.NewBoard(rows, cols)
	}
	if game == models.GameSlimeWar {
		s.SlimeWar.King = rules.KingStart(s.Board)
	}
	return s
}

// Me returns the local player, if known.
func (s *State) Me() *models.Player {
	return s.player(s.MyUserID)
}

// Opponent returns the other player, if known.
func (s *State) Opponent() *models.Player {
	for i := range s.Players {
		if s.Players[i].UserID != s.MyUserID {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *State) player(userID int64) *models.Player {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return &s.Players[i]
		}
	}
	return nil
}

// IsMyTurn is round%2 == turnSlot for the local player.
func (s *State) IsMyTurn() bool {
	me := s.Me()
	if me == nil {
		return false
	}
	return s.Session.Round%2 == me.TurnSlot
}

// TurnOwner returns the user whose slot matches the round parity, or 0.
func (s *State) TurnOwner() int64 {
	for _, p := range s.Players {
		if s.Session.Round%2 == p.TurnSlot {
			return p.UserID
		}
	}
	return 0
}

// OwnsTimeout reports whether this client sends TIME_OUT on expiry. In the
// simultaneous find-it game the room owner does.
func (s *State) OwnsTimeout() bool {
	if !s.Session.GameType.TurnBased() {
		me := s.Me()
		return me != nil && me.IsOwner
	}
	return s.IsMyTurn()
}

func (s State) clone() State {
	cp := s
	if s.Players != nil {
		cp.Players = make([]models.Player, len(s.Players))
		for i, p := range s.Players {
			cp.Players[i] = p.Clone()
		}
	}
	cp.Board = s.Board.Clone()

	cp.FindIt.Correct = append([]Point(nil), s.FindIt.Correct...)
	cp.FindIt.Wrong = append([]Point(nil), s.FindIt.Wrong...)
	cp.FindIt.Hints = append([]Point(nil), s.FindIt.Hints...)

	if s.Frog.BoardCards != nil {
		cp.Frog.BoardCards = make([]models.Card, len(s.Frog.BoardCards))
		for i, c := range s.Frog.BoardCards {
			cp.Frog.BoardCards[i] = c.Clone()
		}
	}
	cp.Frog.Dora = cloneCard(s.Frog.Dora)
	cp.Frog.LastDiscard = cloneCard(s.Frog.LastDiscard)

	cp.Sequence.Sequences = make(map[int64][]rules.Sequence, len(s.Sequence.Sequences))
	for id, seqs := range s.Sequence.Sequences {
		out := make([]rules.Sequence, len(seqs))
		for i, q := range seqs {
			out[i] = rules.Sequence{Cells: append([]int(nil), q.Cells...), Wild: q.Wild}
		}
		cp.Sequence.Sequences[id] = out
	}
	if s.Sequence.LastMove != nil {
		m := *s.Sequence.LastMove
		cp.Sequence.LastMove = &m
	}
	return cp
}

func cloneCard(c *models.Card) *models.Card {
	if c == nil {
		return nil
	}
	cp := c.Clone()
	return &cp
}
