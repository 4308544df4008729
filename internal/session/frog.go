// internal/session/frog.go
package session

import (
	"context"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
)

const (
	frogHand       = 5
	frogDrawnHand  = frogHand + 1
	frogImportSize = frogHand
)

func (c *Controller) applyFrog(tx *store.Tx, ev protocol.Event, prev *store.State) (reaction, error) {
	var re reaction
	info := ev.Payload.Frog
	if info == nil {
		return re, nil
	}
	tx.SetFrogBoardCards(info.BoardCards)
	tx.SetDora(info.Dora)
	tx.SetLoanAllowed(info.IsLoan)
	if info.Winner != 0 {
		tx.SetFrogWinner(info.Winner)
	}

	switch ev.Type {
	case protocol.EventDiscard:
		// the discard belongs to whoever held the turn before this broadcast
		tx.SetLastDiscard(info.DiscardCard, prev.TurnOwner())
	case protocol.EventSuccessLoan:
		tx.SetLastDiscard(nil, 0)
		re.effect(Effect{Kind: EffectLoanSuccess, Round: info.Round})
	case protocol.EventFailedLoan:
		re.effect(Effect{Kind: EffectLoanFailed, Round: info.Round})
	case protocol.EventNextRound, protocol.EventRoundStart:
		tx.SetLastDiscard(nil, 0)
	}
	return re, nil
}

// boardTile finds the undrafted tile sitting on mapID.
func boardTile(snap *store.Snapshot, mapID int) (models.Card, bool) {
	if snap.Board == nil || !snap.Board.Valid(mapID) || snap.Board.Owner(mapID) != models.NoOwner {
		return models.Card{}, false
	}
	for _, c := range snap.Frog.BoardCards {
		if c.MapID == mapID && (c.State == "" || c.State == models.CardBoard) {
			return c, true
		}
	}
	return models.Card{}, false
}

// ImportCards drafts the opening hand from the tiles on mapIDs.
func (c *Controller) ImportCards(ctx context.Context, mapIDs []int) error {
	return c.do(ctx, func() error {
		snap, me, err := c.active(models.GameFrog, false)
		if err != nil {
			return err
		}
		if len(me.Cards) != 0 || len(mapIDs) != frogImportSize {
			return ErrInvalidMove
		}
		seen := make(map[int]bool, len(mapIDs))
		ids := make([]int, 0, len(mapIDs))
		for _, id := range mapIDs {
			tile, ok := boardTile(&snap, id)
			if !ok || seen[id] {
				return ErrInvalidMove
			}
			seen[id] = true
			ids = append(ids, tile.ID)
		}
		return c.send(protocol.EventImportCards, protocol.CardsMessage{CardIDs: ids})
	})
}

// ImportSingleCard drafts one tile on the local player's turn.
func (c *Controller) ImportSingleCard(ctx context.Context, mapID int) error {
	return c.do(ctx, func() error {
		snap, me, err := c.active(models.GameFrog, true)
		if err != nil {
			return err
		}
		if len(me.Cards) != frogHand {
			return ErrInvalidMove
		}
		tile, ok := boardTile(&snap, mapID)
		if !ok {
			return ErrInvalidMove
		}
		return c.send(protocol.EventImportSingleCard, protocol.CardMessage{CardID: tile.ID, MapID: mapID})
	})
}

// Discard throws away a held tile after drawing.
func (c *Controller) Discard(ctx context.Context, cardID int) error {
	return c.do(ctx, func() error {
		_, me, err := c.active(models.GameFrog, true)
		if err != nil {
			return err
		}
		if len(me.Cards) != frogDrawnHand {
			return ErrInvalidMove
		}
		if _, ok := me.Card(cardID); !ok {
			return ErrUnknownCard
		}
		return c.send(protocol.EventDiscard, protocol.CardMessage{CardID: cardID})
	})
}

// Loan claims the opponent's last discard.
func (c *Controller) Loan(ctx context.Context, cardID int) error {
	return c.do(ctx, func() error {
		snap, me, err := c.active(models.GameFrog, false)
		if err != nil {
			return err
		}
		last := snap.Frog.LastDiscard
		if !snap.Frog.LoanAllowed || last == nil || last.ID != cardID || snap.Frog.DiscardOwner == me.UserID {
			return ErrInvalidMove
		}
		return c.send(protocol.EventLoan, protocol.CardMessage{CardID: cardID})
	})
}
