// internal/session/slimewar.go
package session

import (
	"context"
	"fmt"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/JokerTrickster/board-game-app-sub000/internal/rules"
	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
)

func (c *Controller) applySlimeWar(tx *store.Tx, ev protocol.Event) (reaction, error) {
	var re reaction
	if info := ev.Payload.SlimeWar; info != nil {
		if info.KingIndex > 0 {
			if err := tx.SetKing(info.KingIndex); err != nil {
				return re, err
			}
		}
		if info.Winner != 0 {
			tx.SetSlimeWinner(info.Winner)
		}
	}

	view := tx.View()
	if me := view.Me(); me != nil && view.Board != nil {
		if err := tx.SetCanMove(me.UserID, rules.CanMove(view.Board, view.SlimeWar.King, *me)); err != nil {
			return re, err
		}
	}
	return re, nil
}

// Move plays a direction card, placing a slime where the king lands.
func (c *Controller) Move(ctx context.Context, cardID int) error {
	return c.do(ctx, func() error {
		snap, me, err := c.active(models.GameSlimeWar, true)
		if err != nil {
			return err
		}
		card, ok := me.Card(cardID)
		if !ok {
			return ErrUnknownCard
		}
		if _, err := rules.CheckMove(snap.Board, snap.SlimeWar.King, card); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMove, err)
		}
		return c.send(protocol.EventMove, protocol.CardMessage{CardID: cardID})
	})
}

// Hero plays a direction card onto an opponent slime, capturing it.
func (c *Controller) Hero(ctx context.Context, cardID int) error {
	return c.do(ctx, func() error {
		snap, me, err := c.active(models.GameSlimeWar, true)
		if err != nil {
			return err
		}
		card, ok := me.Card(cardID)
		if !ok {
			return ErrUnknownCard
		}
		if _, err := rules.CheckHero(snap.Board, snap.SlimeWar.King, card, me.Color, me.HeroCount); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMove, err)
		}
		return c.send(protocol.EventHero, protocol.CardMessage{CardID: cardID})
	})
}

// DrawCard takes a card from the deck (sequence and slime-war).
func (c *Controller) DrawCard(ctx context.Context) error {
	return c.do(ctx, func() error {
		if c.opts.Game != models.GameSequence && c.opts.Game != models.GameSlimeWar {
			return ErrWrongGame
		}
		snap, me, err := c.active(c.opts.Game, true)
		if err != nil {
			return err
		}
		if c.opts.Game == models.GameSlimeWar && len(me.Cards) >= rules.MaxSlimeHand {
			return ErrInvalidMove
		}
		return c.send(protocol.EventGetCard, protocol.RoundMessage{Round: snap.Session.Round})
	})
}
