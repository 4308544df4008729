// internal/session/findit.go
package session

import (
	"context"
	"math"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
)

// FoundRadius is how close, in image pixels, a click may land to an already
// found difference before it is rejected locally.
const FoundRadius = 20.0

func toPoint(p protocol.Position) store.Point {
	return store.Point{X: p.X, Y: p.Y, UserID: p.UserID}
}

func (c *Controller) applyFindIt(tx *store.Tx, ev protocol.Event) (reaction, error) {
	var re reaction
	info := ev.Payload.FindIt
	if info == nil {
		return re, nil
	}
	if ev.Type == protocol.EventRoundStart || ev.Type == protocol.EventNextRound {
		tx.ClearClicks()
	}
	before := len(tx.View().FindIt.Correct)

	tx.SetFindItItems(info.Life, info.ItemHintCount, info.ItemTimerCount)
	tx.SetFindItImages(info.NormalImageURL, info.AbnormalImageURL)
	correct := make([]store.Point, 0, len(info.CorrectPositions))
	for _, p := range info.CorrectPositions {
		correct = append(correct, toPoint(p))
	}
	tx.SetCorrect(correct)

	round := info.Round
	switch ev.Type {
	case protocol.EventSubmitPosition:
		if info.WrongPosition != nil {
			p := toPoint(*info.WrongPosition)
			tx.AddWrong(p)
			re.effect(Effect{Kind: EffectWrong, Round: round, UserID: p.UserID, Point: &p})
		} else if len(correct) > before {
			p := correct[len(correct)-1]
			re.effect(Effect{Kind: EffectCorrect, Round: round, UserID: p.UserID, Point: &p})
		}
	case protocol.EventHintItem:
		if info.HintPosition != nil {
			p := toPoint(*info.HintPosition)
			tx.AddHint(p)
			re.effect(Effect{Kind: EffectHint, Round: round, Point: &p})
		}
	case protocol.EventTimerItem:
		re.pauseTimer = true
		re.effect(Effect{Kind: EffectTimerStop, Round: round})
	}
	return re, nil
}

// SubmitPosition reports a click on the images.
func (c *Controller) SubmitPosition(ctx context.Context, x, y float64) error {
	return c.do(ctx, func() error {
		snap, _, err := c.active(models.GameFindIt, false)
		if err != nil {
			return err
		}
		if snap.FindIt.Life <= 0 {
			return ErrInvalidMove
		}
		for _, p := range snap.FindIt.Correct {
			if math.Hypot(p.X-x, p.Y-y) <= FoundRadius {
				return ErrAlreadyFound
			}
		}
		return c.send(protocol.EventSubmitPosition, protocol.PositionMessage{
			Round: snap.Session.Round,
			X:     x,
			Y:     y,
		})
	})
}

// UseHint spends a hint item.
func (c *Controller) UseHint(ctx context.Context) error {
	return c.do(ctx, func() error {
		snap, _, err := c.active(models.GameFindIt, false)
		if err != nil {
			return err
		}
		if snap.FindIt.HintCount <= 0 {
			return ErrNoItemsLeft
		}
		return c.send(protocol.EventHintItem, protocol.RoundMessage{Round: snap.Session.Round})
	})
}

// UseTimerStop spends a timer item. The countdown pauses when the server
// echoes it back.
func (c *Controller) UseTimerStop(ctx context.Context) error {
	return c.do(ctx, func() error {
		snap, _, err := c.active(models.GameFindIt, false)
		if err != nil {
			return err
		}
		if snap.FindIt.TimerItemCount <= 0 {
			return ErrNoItemsLeft
		}
		if snap.TimerPause {
			return ErrInvalidMove
		}
		return c.send(protocol.EventTimerItem, protocol.RoundMessage{Round: snap.Session.Round})
	})
}
