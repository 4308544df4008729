// internal/session/sequence.go
package session

import (
	"context"
	"fmt"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/JokerTrickster/board-game-app-sub000/internal/rules"
	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
)

func (c *Controller) applySequence(tx *store.Tx, ev protocol.Event) (reaction, error) {
	var re reaction
	round := 0
	if info := ev.Payload.Sequence; info != nil {
		round = info.Round
		if m := info.LastMove; m != nil {
			tx.SetLastMove(&store.SequenceMove{UserID: m.UserID, CardID: m.CardID, MapID: m.MapID, Removed: m.Removed})
		}
		if info.Winner != 0 {
			tx.SetSequenceWinner(info.Winner)
		}
	}

	view := tx.View()
	if view.Board == nil {
		return re, nil
	}
	for _, p := range view.Players {
		found := c.seq.Detect(view.Board.CellsOwnedBy(p.Color), view.Sequence.Sequences[p.UserID])
		if err := tx.AddSequences(p.UserID, found); err != nil {
			return re, err
		}
		for _, s := range found {
			re.effect(Effect{Kind: EffectSequence, Round: round, UserID: p.UserID, Cells: s.Cells})
		}
	}
	return re, nil
}

// checkSequenceWin claims the game once the local player holds enough sequences.
func (c *Controller) checkSequenceWin(snap store.Snapshot) {
	if c.gameOverSent || c.resync || c.state != StateActive {
		return
	}
	me := snap.Me()
	if me == nil || !rules.Done(me.Sequences) {
		return
	}
	if err := c.send(protocol.EventGameOver, protocol.RoundMessage{Round: snap.Session.Round}); err != nil {
		c.logger.Warnf("Error sending GAME_OVER with %d sequences: %v", me.Sequences, err)
		return
	}
	c.gameOverSent = true
}

// lockedSequences returns the sequences of everyone but userID; their chips
// cannot be removed.
func lockedSequences(snap *store.Snapshot, userID int64) []rules.Sequence {
	var out []rules.Sequence
	for id, seqs := range snap.Sequence.Sequences {
		if id != userID {
			out = append(out, seqs...)
		}
	}
	return out
}

// PlaceCard plays cardID on mapID and returns the sequences the move would
// complete, as computed locally. The server broadcast remains authoritative.
func (c *Controller) PlaceCard(ctx context.Context, cardID, mapID int) ([]rules.Sequence, error) {
	var preview []rules.Sequence
	err := c.do(ctx, func() error {
		snap, me, err := c.active(models.GameSequence, true)
		if err != nil {
			return err
		}
		card, ok := me.Card(cardID)
		if !ok {
			return ErrUnknownCard
		}
		if err := c.seq.CheckPlacement(snap.Board, card, mapID, me.Color, lockedSequences(&snap, me.UserID)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMove, err)
		}
		if !card.OneEyedJack() {
			owned := append(snap.Board.CellsOwnedBy(me.Color), mapID)
			preview = c.seq.Detect(owned, snap.Sequence.Sequences[me.UserID])
		}
		return c.send(protocol.EventMove, protocol.CardMessage{CardID: cardID, MapID: mapID})
	})
	if err != nil {
		return nil, err
	}
	return preview, nil
}

// DiscardDeadCard exchanges a card whose cells are all taken.
func (c *Controller) DiscardDeadCard(ctx context.Context, cardID int) error {
	return c.do(ctx, func() error {
		snap, me, err := c.active(models.GameSequence, true)
		if err != nil {
			return err
		}
		card, ok := me.Card(cardID)
		if !ok {
			return ErrUnknownCard
		}
		if !rules.DeadCard(snap.Board, card) {
			return ErrInvalidMove
		}
		return c.send(protocol.EventDiscard, protocol.CardMessage{CardID: cardID})
	})
}
