// internal/store/tx.go
package store

import (
	"fmt"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/rules"
)

// Tx exposes the narrow setters available inside Store.Update.
type Tx struct {
	s *State
}

// View returns a copy of the working state.
func (tx *Tx) View() State {
	return tx.s.clone()
}

// SetMyUserID records the local user once credentials are loaded.
func (tx *Tx) SetMyUserID(id int64) {
	tx.s.MyUserID = id
}

// Rehydrate swaps in next as the working state, keeping the local user id
// and the effect watermark. Nothing commits unless the whole Update succeeds.
func (tx *Tx) Rehydrate(next State) {
	keepMe := tx.s.MyUserID
	keepEffect := tx.s.EffectRound
	*tx.s = next.clone()
	tx.s.MyUserID = keepMe
	if keepEffect > tx.s.EffectRound {
		tx.s.EffectRound = keepEffect
	}
}

func (tx *Tx) SetPhase(p Phase) {
	tx.s.Phase = p
}

func (tx *Tx) SetRoom(roomID int64) {
	tx.s.Session.RoomID = roomID
}

func (tx *Tx) SetRound(round int) {
	if round >= 0 {
		tx.s.Session.Round = round
	}
}

func (tx *Tx) SetActive(active bool) {
	tx.s.Session.IsActive = active
}

func (tx *Tx) SetOver(over bool) {
	tx.s.Session.IsOver = over
	if over {
		tx.s.Session.IsActive = false
	}
}

// SetPlayers replaces the roster, ordered by turn slot.
func (tx *Tx) SetPlayers(players []models.Player) {
	out := make([]models.Player, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].TurnSlot < out[j-1].TurnSlot; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	tx.s.Players = out
}

// SetCanMove updates one player's move flag.
func (tx *Tx) SetCanMove(userID int64, canMove bool) error {
	p := tx.s.player(userID)
	if p == nil {
		return fmt.Errorf("set can move: unknown user %d", userID)
	}
	p.CanMove = canMove
	return nil
}

// SetTimer records the countdown as the timer reports it.
func (tx *Tx) SetTimer(value, max int, paused bool) {
	tx.s.TimerValue = value
	tx.s.TimerMax = max
	tx.s.TimerPause = paused
}

// MarkEffect records that the round's transient effect has been shown.
// It reports false when an effect for this round or a later one was already shown.
func (tx *Tx) MarkEffect(round int) bool {
	if round <= tx.s.EffectRound {
		return false
	}
	tx.s.EffectRound = round
	return true
}

// SetBoardOwners rebuilds board ownership from per-owner cell lists.
func (tx *Tx) SetBoardOwners(owned map[string][]int) error {
	if tx.s.Board == nil {
		return nil
	}
	tx.s.Board.Clear()
	for owner, cells := range owned {
		for _, id := range cells {
			if err := tx.s.Board.Claim(id, owner); err != nil {
				return err
			}
		}
	}
	return nil
}

// ClaimCell assigns one cell.
func (tx *Tx) ClaimCell(mapID int, owner string) error {
	if tx.s.Board == nil {
		return fmt.Errorf("claim %d: no board", mapID)
	}
	return tx.s.Board.Claim(mapID, owner)
}

// find-it

func (tx *Tx) SetFindItItems(life, hints, timerItems int) {
	tx.s.FindIt.Life = life
	tx.s.FindIt.HintCount = hints
	tx.s.FindIt.TimerItemCount = timerItems
}

func (tx *Tx) SetFindItImages(normal, abnormal string) {
	tx.s.FindIt.NormalImageURL = normal
	tx.s.FindIt.AbnormalImageURL = abnormal
}

func (tx *Tx) SetCorrect(points []Point) {
	tx.s.FindIt.Correct = append([]Point(nil), points...)
}

func (tx *Tx) AddWrong(p Point) {
	tx.s.FindIt.Wrong = append(tx.s.FindIt.Wrong, p)
}

func (tx *Tx) AddHint(p Point) {
	tx.s.FindIt.Hints = append(tx.s.FindIt.Hints, p)
}

// ClearClicks drops the per-round transient markers.
func (tx *Tx) ClearClicks() {
	tx.s.FindIt.Correct = nil
	tx.s.FindIt.Wrong = nil
	tx.s.FindIt.Hints = nil
}

// frog

func (tx *Tx) SetFrogBoardCards(cards []models.Card) {
	out := make([]models.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	tx.s.Frog.BoardCards = out
}

func (tx *Tx) SetDora(c *models.Card) {
	tx.s.Frog.Dora = cloneCard(c)
}

func (tx *Tx) SetLastDiscard(c *models.Card, owner int64) {
	tx.s.Frog.LastDiscard = cloneCard(c)
	tx.s.Frog.DiscardOwner = owner
}

func (tx *Tx) SetLoanAllowed(allowed bool) {
	tx.s.Frog.LoanAllowed = allowed
}

func (tx *Tx) SetFrogWinner(userID int64) {
	tx.s.Frog.Winner = userID
}

// sequence

// AddSequences appends newly detected sequences and updates the player's count.
func (tx *Tx) AddSequences(userID int64, seqs []rules.Sequence) error {
	p := tx.s.player(userID)
	if p == nil {
		return fmt.Errorf("add sequences: unknown user %d", userID)
	}
	tx.s.Sequence.Sequences[userID] = append(tx.s.Sequence.Sequences[userID], seqs...)
	if n := len(tx.s.Sequence.Sequences[userID]); n > p.Sequences {
		p.Sequences = n
	}
	return nil
}

func (tx *Tx) SetLastMove(m *SequenceMove) {
	if m == nil {
		tx.s.Sequence.LastMove = nil
		return
	}
	cp := *m
	tx.s.Sequence.LastMove = &cp
}

func (tx *Tx) SetSequenceWinner(userID int64) {
	tx.s.Sequence.Winner = userID
}

// slime-war

func (tx *Tx) SetKing(mapID int) error {
	if tx.s.Board == nil || !tx.s.Board.Valid(mapID) {
		return fmt.Errorf("set king %d: %w", mapID, models.ErrOutOfBounds)
	}
	tx.s.SlimeWar.King = mapID
	return nil
}

func (tx *Tx) SetSlimeWinner(userID int64) {
	tx.s.SlimeWar.Winner = userID
}
