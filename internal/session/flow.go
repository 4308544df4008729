// internal/session/flow.go
package session

import (
	"context"
	"strconv"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/cache"
	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
	"github.com/JokerTrickster/board-game-app-sub000/internal/timer"
	"github.com/sirupsen/logrus"
)

// reaction collects what a game-specific apply wants done after the commit.
type reaction struct {
	effects    []Effect
	pauseTimer bool
}

func (r *reaction) effect(e Effect) {
	r.effects = append(r.effects, e)
}

func (c *Controller) handleFrame(epoch uint64, data []byte) {
	if epoch != c.epoch {
		c.logger.Debugf("Dropping frame from stale connection %d (current %d)", epoch, c.epoch)
		return
	}
	ev, err := protocol.Decode(data)
	if err != nil {
		c.logger.Warnf("Dropping frame: %v", err)
		return
	}
	c.record(cache.Inbound, ev.Name, ev.Raw)

	if ev.Type == protocol.EventUnknown {
		c.logger.Warnf("Ignoring unknown event %q", ev.Name)
		return
	}
	if c.state == StateGameOver {
		c.logger.Debugf("Ignoring %s after game over", ev.Type)
		return
	}

	if e := ev.Payload.ErrorInfo; e != nil {
		c.logger.WithFields(logrus.Fields{
			"event": ev.Name,
			"code":  e.Code,
			"type":  e.Type,
		}).Warnf("Server rejected command: %s", e.Message)
		c.playEffect(Effect{Kind: EffectServerError, Detail: e.Message})
	}

	prev := c.store.Snapshot()
	info := ev.Payload.Info()
	terminal := isTerminal(ev.Type, info)

	var base *store.State
	if c.resync {
		b := store.Baseline(c.opts.Game, prev.MyUserID)
		b.Phase = c.state.Phase()
		b.Session.IsActive = c.state == StateActive
		// recorded sequences survive a resync
		b.Sequence.Sequences = prev.Sequence.Sequences
		base = &b
	}

	var re reaction
	err = c.store.Update(func(tx *store.Tx) error {
		if base != nil {
			tx.Rehydrate(*base)
		}
		if len(ev.Payload.Users) > 0 {
			tx.SetPlayers(toPlayers(ev.Payload.Users))
			if err := c.applyBoard(tx, ev.Payload.Users); err != nil {
				return err
			}
		}
		if info != nil {
			if info.RoomID != 0 {
				tx.SetRoom(info.RoomID)
			}
			tx.SetRound(info.Round)
		}
		var err error
		re, err = c.applyGame(tx, ev, &prev.State)
		return err
	})
	if err != nil {
		c.logger.Errorf("Cannot apply %s: %v", ev.Type, err)
		if terminal {
			c.finish(ev.Type)
			c.resync = false
		}
		return
	}

	snap := c.store.Snapshot()
	c.opts.Conn.SetRoomID(snap.Session.RoomID)
	c.opts.Conn.SetRound(snap.Session.Round)

	for _, e := range re.effects {
		c.playEffect(e)
	}
	if re.pauseTimer {
		c.pauseTimer()
	}
	c.afterApply(snap)

	switch {
	case terminal:
		c.finish(ev.Type)
	case ev.Type == protocol.EventMatchCancel:
		c.logger.Infof("Match cancelled in room %d", snap.Session.RoomID)
		c.drop(StateDisconnected)
	case ev.Type == protocol.EventRoundClear:
		c.enterTransition(EffectRoundClear, snap.Session.Round)
	case ev.Type == protocol.EventRoundFail:
		c.enterTransition(EffectRoundFail, snap.Session.Round)
	default:
		c.advance(ev.Type, info, prev.Session.Round)
	}
	c.resync = false
}

// isTerminal reports whether a frame ends the game, whatever its payload holds.
func isTerminal(t protocol.EventType, info *protocol.GameInfo) bool {
	switch t {
	case protocol.EventGameOver, protocol.EventGameClear, protocol.EventDisconnect:
		return true
	}
	return info != nil && info.IsGameOver
}

func colorOf(u protocol.User) string {
	if u.Color != "" {
		return u.Color
	}
	return strconv.FormatInt(u.ID, 10)
}

func toPlayers(users []protocol.User) []models.Player {
	out := make([]models.Player, 0, len(users))
	for _, u := range users {
		status := models.StatusConnected
		if u.PlayerState == string(models.StatusDisconnected) {
			status = models.StatusDisconnected
		}
		out = append(out, models.Player{
			UserID:           u.ID,
			DisplayName:      u.Name,
			Color:            colorOf(u),
			Score:            u.Score,
			IsOwner:          u.IsOwner,
			ConnectionStatus: status,
			Cards:            u.Cards,
			CanMove:          u.CanMove,
			TurnSlot:         u.TurnSlot,
			HeroCount:        u.HeroCount,
			Sequences:        u.Sequences,
		})
	}
	return out
}

// applyBoard rebuilds cell ownership from the users' records. Frog claims are
// the placement slots of held tiles; sequence and slime-war send cell lists.
func (c *Controller) applyBoard(tx *store.Tx, users []protocol.User) error {
	if rows, _ := c.opts.Game.BoardSize(); rows == 0 {
		return nil
	}
	owned := make(map[string][]int, len(users))
	for _, u := range users {
		color := colorOf(u)
		if c.opts.Game != models.GameFrog {
			owned[color] = append(owned[color], u.OwnedMapIDs...)
			continue
		}
		for _, card := range u.Cards {
			if card.MapID > 0 {
				owned[color] = append(owned[color], card.MapID)
			}
		}
	}
	return tx.SetBoardOwners(owned)
}

func (c *Controller) applyGame(tx *store.Tx, ev protocol.Event, prev *store.State) (reaction, error) {
	switch c.opts.Game {
	case models.GameFindIt:
		return c.applyFindIt(tx, ev)
	case models.GameFrog:
		return c.applyFrog(tx, ev, prev)
	case models.GameSequence:
		return c.applySequence(tx, ev)
	case models.GameSlimeWar:
		return c.applySlimeWar(tx, ev)
	}
	return reaction{}, nil
}

// afterApply runs game-specific follow-ups that need the committed state.
func (c *Controller) afterApply(snap store.Snapshot) {
	if c.opts.Game == models.GameSequence {
		c.checkSequenceWin(snap)
	}
}

func isStartEvent(t protocol.EventType) bool {
	switch t {
	case protocol.EventStart, protocol.EventRoundStart, protocol.EventNextRound:
		return true
	}
	return false
}

func isPlayEvent(t protocol.EventType) bool {
	switch t {
	case protocol.EventGetCard, protocol.EventImportCards, protocol.EventImportSingleCard,
		protocol.EventDiscard, protocol.EventMove, protocol.EventHero, protocol.EventLoan,
		protocol.EventSuccessLoan, protocol.EventFailedLoan, protocol.EventSubmitPosition,
		protocol.EventHintItem, protocol.EventTimerItem, protocol.EventTimeOut:
		return true
	}
	return false
}

// advance moves the lifecycle forward for events that do not end a round or
// the game.
func (c *Controller) advance(t protocol.EventType, info *protocol.GameInfo, prevRound int) {
	if info == nil {
		return
	}
	playing := isStartEvent(t) || (isPlayEvent(t) && info.AllReady) || (c.resync && info.AllReady && info.Round > 0)

	switch {
	case playing && c.state != StateActive:
		c.activate(info)
	case playing:
		if isStartEvent(t) || info.Round != prevRound {
			c.startTimer(info.Timer)
		}
	case info.AllReady && (c.state == StateMatching || c.state == StateIdle || c.state == StateDisconnected):
		c.setState(StateAllReady)
		if c.opts.AutoStart {
			if err := c.sendStart(); err != nil {
				c.logger.Warnf("Error sending START: %v", err)
			}
		}
	case !info.AllReady && (c.state == StateIdle || c.state == StateDisconnected):
		c.setState(StateMatching)
	}
}

func (c *Controller) activate(info *protocol.GameInfo) {
	c.cancelTransition()
	c.setState(StateActive)
	if c.resync && info.Timer > 0 {
		c.timer.Start(c.opts.Game.DefaultTurnSeconds())
		c.timer.Reset(info.Timer)
		c.syncTimer()
		c.scheduleTick()
	} else {
		c.startTimer(info.Timer)
	}
	c.chargeEntryFee()
}

// sendStart sends START once per session when the local player owns the room.
func (c *Controller) sendStart() error {
	snap := c.store.Snapshot()
	me := snap.Me()
	if me == nil || !me.IsOwner || c.startSent {
		return nil
	}
	if err := c.send(protocol.EventStart, nil); err != nil {
		return err
	}
	c.startSent = true
	return nil
}

func (c *Controller) chargeEntryFee() {
	if c.coinsCharged || c.opts.EntryFee <= 0 || c.opts.Backend == nil {
		return
	}
	c.coinsCharged = true
	token := c.opts.Conn.Credentials().Token
	fee := c.opts.EntryFee
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.ResultTimeout)
		defer cancel()
		if err := c.opts.Backend.DeductCoins(ctx, token, fee); err != nil {
			c.logger.Warnf("Error deducting %d coins: %v", fee, err)
		}
	}()
}

// timer plumbing

func (c *Controller) ownsTimeout() bool {
	snap := c.store.Snapshot()
	return snap.OwnsTimeout()
}

func (c *Controller) sendTimeOut() {
	round := c.store.Snapshot().Session.Round
	if err := c.send(protocol.EventTimeOut, protocol.RoundMessage{Round: round}); err != nil {
		c.logger.Warnf("Error sending TIME_OUT for round %d: %v", round, err)
	}
}

func (c *Controller) startTimer(d int) {
	if d <= 0 {
		d = c.opts.Game.DefaultTurnSeconds()
	}
	c.timer.Start(d)
	c.syncTimer()
	c.scheduleTick()
}

func (c *Controller) pauseTimer() {
	c.timer.Pause(timer.StopItemUnits)
	c.syncTimer()
}

func (c *Controller) syncTimer() {
	value, max, paused := c.timer.Value(), c.timer.Max(), c.timer.Paused()
	c.update(func(tx *store.Tx) error {
		tx.SetTimer(value, max, paused)
		return nil
	})
}

func (c *Controller) scheduleTick() {
	if c.tick != nil {
		c.tick.Stop()
		c.tick = nil
	}
	if !c.timer.Running() {
		return
	}
	gen := c.timer.Generation()
	c.tick = time.AfterFunc(c.opts.TickUnit, func() {
		c.post(tickMsg{gen: gen})
	})
}

func (c *Controller) handleTick(gen uint64) {
	if gen != c.timer.Generation() || c.state != StateActive {
		return
	}
	expired := c.timer.Tick()
	c.syncTimer()
	if expired {
		c.tick = nil
		c.playEffect(Effect{Kind: EffectTimeOut, Round: c.store.Snapshot().Session.Round})
		return
	}
	c.scheduleTick()
}

func (c *Controller) enterTransition(kind EffectKind, round int) {
	c.timer.Stop()
	c.scheduleTick()
	c.syncTimer()
	c.setState(StateRoundTransition)

	var show bool
	c.update(func(tx *store.Tx) error {
		show = tx.MarkEffect(round)
		return nil
	})
	if show {
		c.playEffect(Effect{Kind: kind, Round: round})
	}

	c.cancelTransition()
	gen := c.transitionGen
	c.transition = time.AfterFunc(time.Duration(c.opts.TransitionUnits)*c.opts.TickUnit, func() {
		c.post(transitionMsg{gen: gen})
	})
}

func (c *Controller) cancelTransition() {
	c.transitionGen++
	if c.transition != nil {
		c.transition.Stop()
		c.transition = nil
	}
}

// handleTransitionEnd closes the effect window; the owner asks for the next round.
func (c *Controller) handleTransitionEnd(gen uint64) {
	if gen != c.transitionGen || c.state != StateRoundTransition {
		return
	}
	c.transition = nil
	snap := c.store.Snapshot()
	me := snap.Me()
	if me == nil || !me.IsOwner {
		return
	}
	if err := c.send(protocol.EventNextRound, protocol.RoundMessage{Round: snap.Session.Round}); err != nil {
		c.logger.Warnf("Error sending NEXT_ROUND after round %d: %v", snap.Session.Round, err)
	}
}

func (c *Controller) stopTimers() {
	c.timer.Stop()
	if c.tick != nil {
		c.tick.Stop()
		c.tick = nil
	}
	c.cancelTransition()
	c.syncTimer()
}

// finish ends the game: timers stop at once, the result is fetched off the
// loop and handled by handleResult.
func (c *Controller) finish(reason protocol.EventType) {
	if c.state == StateGameOver {
		return
	}
	c.stopTimers()
	c.setState(StateGameOver)

	snap := c.store.Snapshot()
	c.logger.WithFields(logrus.Fields{
		"room":   snap.Session.RoomID,
		"round":  snap.Session.Round,
		"reason": reason.String(),
	}).Info("Game over")

	if c.opts.Backend == nil {
		go c.post(resultMsg{sessionID: c.sessionID})
		return
	}
	token := c.opts.Conn.Credentials().Token
	sessionID := c.sessionID
	roomID := snap.Session.RoomID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.ResultTimeout)
		defer cancel()
		res, err := c.opts.Backend.GameResult(ctx, c.opts.Game, roomID, token)
		if err != nil {
			c.logger.Warnf("Error fetching result for room %d: %v", roomID, err)
		} else if c.opts.Archive != nil {
			if aerr := c.opts.Archive.RecordResult(ctx, c.opts.Game.Slug(), res); aerr != nil {
				c.logger.Warnf("Error archiving result for room %d: %v", roomID, aerr)
			}
		}
		c.post(resultMsg{sessionID: sessionID, res: res, err: err})
	}()
}

func (c *Controller) handleResult(m resultMsg) {
	if m.sessionID != c.sessionID {
		return
	}
	c.opts.Conn.Disconnect()
	c.epoch = 0
	if c.opts.View != nil {
		c.opts.View.ShowResult(m.res, m.err)
	}
}

func (c *Controller) handleClose(epoch uint64, err error) {
	if epoch != c.epoch {
		return
	}
	c.epoch = 0
	c.stopTimers()
	c.logger.Infof("Socket closed in state %s: %v", c.state, err)
	if c.state != StateGameOver && c.state != StateIdle {
		c.setState(StateDisconnected)
	}
}

// drop closes the socket from the loop and moves to next.
func (c *Controller) drop(next State) {
	c.stopTimers()
	c.opts.Conn.Disconnect()
	c.epoch = 0
	c.setState(next)
}

func (c *Controller) playEffect(e Effect) {
	if c.resync || c.opts.View == nil {
		return
	}
	c.opts.View.PlayEffect(e)
}
