// internal/session/commands.go
package session

import (
	"context"

	"github.com/JokerTrickster/board-game-app-sub000/internal/cache"
	"github.com/JokerTrickster/board-game-app-sub000/internal/connection"
	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
	"github.com/google/uuid"
)

// Connect opens a new session in mode. Only valid when no session is live.
func (c *Controller) Connect(ctx context.Context, mode models.Mode, password string) error {
	return c.do(ctx, func() error {
		switch c.state {
		case StateIdle, StateDisconnected, StateGameOver:
		default:
			return ErrWrongState
		}
		return c.connect(ctx, mode, password, false)
	})
}

// Reconnect rejoins the current room after a dropped socket and rebuilds the
// local state from the next server snapshot.
func (c *Controller) Reconnect(ctx context.Context, password string) error {
	return c.do(ctx, func() error {
		if c.state != StateDisconnected {
			return ErrWrongState
		}
		return c.connect(ctx, models.ModeJoin, password, true)
	})
}

func (c *Controller) connect(ctx context.Context, mode models.Mode, password string, resync bool) error {
	c.stopTimers()
	if !resync {
		c.store.Reset()
		c.startSent = false
		c.coinsCharged = false
	}
	if resync {
		c.opts.Conn.SetRoomID(c.store.Snapshot().Session.RoomID)
	} else {
		c.opts.Conn.SetRoomID(0)
	}
	c.gameOverSent = false
	c.sessionID = uuid.New()
	c.eventIndex = 0

	epoch, err := c.opts.Conn.Connect(ctx, mode, password, socketHandler{c: c})
	if epoch == 0 {
		return err
	}
	c.epoch = epoch
	c.resync = resync

	me := c.opts.Conn.Credentials().UserID
	c.update(func(tx *store.Tx) error {
		tx.SetMyUserID(me)
		return nil
	})
	c.setState(StateMatching)
	if err != nil {
		c.logger.Warnf("Error sending %s: %v", connection.InitiatingEvent(mode), err)
		return err
	}
	c.record(cache.Outbound, connection.InitiatingEvent(mode).String(), nil)
	return nil
}

// Start asks the server to begin the game. Only the room owner may call it.
func (c *Controller) Start(ctx context.Context) error {
	return c.do(ctx, func() error {
		if c.state != StateAllReady {
			return ErrWrongState
		}
		snap := c.store.Snapshot()
		if me := snap.Me(); me == nil || !me.IsOwner {
			return ErrNotOwner
		}
		c.startSent = false
		return c.sendStart()
	})
}

// Cancel withdraws from matchmaking and closes the socket.
func (c *Controller) Cancel(ctx context.Context) error {
	return c.do(ctx, func() error {
		if c.state != StateMatching && c.state != StateAllReady {
			return ErrWrongState
		}
		if err := c.send(protocol.EventMatchCancel, nil); err != nil {
			c.logger.Warnf("Error sending MATCH_CANCEL: %v", err)
		}
		c.drop(StateDisconnected)
		return nil
	})
}

// Disconnect closes the socket and stops all timers. The store keeps its
// last state.
func (c *Controller) Disconnect(ctx context.Context) error {
	return c.do(ctx, func() error {
		next := StateDisconnected
		if c.state == StateIdle || c.state == StateGameOver {
			next = c.state
		}
		c.drop(next)
		return nil
	})
}

// active checks the preconditions shared by in-game commands and returns the
// current snapshot and local player.
func (c *Controller) active(game models.GameType, needTurn bool) (store.Snapshot, *models.Player, error) {
	if c.opts.Game != game {
		return store.Snapshot{}, nil, ErrWrongGame
	}
	if c.state != StateActive {
		return store.Snapshot{}, nil, ErrWrongState
	}
	snap := c.store.Snapshot()
	me := snap.Me()
	if me == nil {
		return snap, nil, ErrWrongState
	}
	if needTurn && !snap.IsMyTurn {
		return snap, me, ErrNotYourTurn
	}
	return snap, me, nil
}
