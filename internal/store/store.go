// internal/store/store.go
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/rules"
	"github.com/sirupsen/logrus"
)

var ErrInvariant = errors.New("store invariant violated")

// Timer colours shown by the UI.
const (
	TimerGreen  = "green"
	TimerYellow = "yellow"
	TimerRed    = "red"
)

// Snapshot is an immutable copy of State plus its derived values.
type Snapshot struct {
	State
	IsMyTurn   bool          `json:"isMyTurn"`
	TurnOwner  int64         `json:"turnOwner"`
	TimerColor string        `json:"timerColor"`
	Territory  map[int64]int `json:"territory,omitempty"`
}

// Listener receives a snapshot after each committed update.
type Listener func(Snapshot)

// Store is the observable state container of one session. Writes go through
// Update; the committed state is always the last state that passed the
// invariant check.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
	logger    logrus.FieldLogger
}

func New(game models.GameType, myUserID int64, logger logrus.FieldLogger) *Store {
	return &Store{
		state:     newState(game, myUserID),
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a deep copy of the committed state with derived fields.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return derive(s.state.clone())
}

// Update applies fn to a working copy and commits it if fn succeeds and the
// result is consistent. On an invariant violation the committed state is kept
// and ErrInvariant is returned.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	work := s.state.clone()
	if err := fn(&Tx{s: &work}); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := checkInvariants(&work); err != nil {
		s.mu.Unlock()
		s.logger.WithFields(logrus.Fields{
			"room":  work.Session.RoomID,
			"round": work.Session.Round,
		}).Errorf("Rejected update, keeping last good state: %v", err)
		return err
	}
	s.state = work
	snap := derive(work.clone())
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return nil
}

// Rehydrate replaces the primary state with a server-provided one, keeping
// the local user id and the effect watermark.
func (s *Store) Rehydrate(next State) error {
	return s.Update(func(tx *Tx) error {
		tx.Rehydrate(next)
		return nil
	})
}

// Reset returns the store to a fresh idle session for the same game and user.
func (s *Store) Reset() {
	_ = s.Update(func(tx *Tx) error {
		*tx.s = newState(tx.s.Session.GameType, tx.s.MyUserID)
		return nil
	})
}

func derive(st State) Snapshot {
	snap := Snapshot{
		State:      st,
		IsMyTurn:   st.IsMyTurn(),
		TurnOwner:  st.TurnOwner(),
		TimerColor: timerColor(st.TimerValue),
	}
	if st.Session.GameType == models.GameSlimeWar && st.Board != nil {
		snap.Territory = make(map[int64]int, len(st.Players))
		for _, p := range st.Players {
			snap.Territory[p.UserID] = rules.TerritoryScore(st.Board, p.Color)
		}
	}
	return snap
}

func timerColor(v int) string {
	switch {
	case v <= 5:
		return TimerRed
	case v <= 10:
		return TimerYellow
	}
	return TimerGreen
}

func checkInvariants(st *State) error {
	if st.TimerValue < 0 || st.TimerValue > st.TimerMax {
		return fmt.Errorf("timer %d outside [0,%d]: %w", st.TimerValue, st.TimerMax, ErrInvariant)
	}

	if st.Session.IsActive && st.Session.GameType.TurnBased() && len(st.Players) == 2 {
		owners := 0
		for _, p := range st.Players {
			if p.TurnSlot == st.Session.Round%2 {
				owners++
			}
		}
		if owners != 1 {
			return fmt.Errorf("%d turn owners in round %d: %w", owners, st.Session.Round, ErrInvariant)
		}
	}

	if st.Board != nil && len(st.Players) > 0 {
		colors := map[string]bool{models.NoOwner: true}
		for _, p := range st.Players {
			colors[p.Color] = true
		}
		for i, o := range st.Board.Owners {
			if !colors[o] {
				return fmt.Errorf("cell %d owned by unknown %q: %w", i+1, o, ErrInvariant)
			}
		}
	}
	return nil
}
