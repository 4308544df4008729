// internal/session/controller.go
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/api"
	"github.com/JokerTrickster/board-game-app-sub000/internal/auth"
	"github.com/JokerTrickster/board-game-app-sub000/internal/cache"
	"github.com/JokerTrickster/board-game-app-sub000/internal/connection"
	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/JokerTrickster/board-game-app-sub000/internal/rules"
	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
	"github.com/JokerTrickster/board-game-app-sub000/internal/timer"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Conn is the socket surface the controller drives.
type Conn interface {
	Connect(ctx context.Context, mode models.Mode, password string, h connection.Handler) (uint64, error)
	Send(ev protocol.EventType, body interface{}) error
	Disconnect()
	SetRoomID(id int64)
	SetRound(r int)
	Credentials() auth.Credentials
}

// Backend is the REST surface used around a game.
type Backend interface {
	GameResult(ctx context.Context, game models.GameType, roomID int64, token string) (*api.Result, error)
	DeductCoins(ctx context.Context, token string, amount int) error
}

// View is the UI layer. Calls arrive on the controller goroutine.
type View interface {
	Render(snap store.Snapshot)
	PlayEffect(e Effect)
	ShowResult(res *api.Result, err error)
}

// Recorder receives every frame sent or received.
type Recorder interface {
	Record(ctx context.Context, rec cache.SessionEventRecord) error
}

// Archive stores fetched results.
type Archive interface {
	RecordResult(ctx context.Context, game string, res *api.Result) error
}

// Options configure a Controller. Recorder and Archive are optional.
type Options struct {
	Game            models.GameType
	Conn            Conn
	Backend         Backend
	View            View
	Recorder        Recorder
	Archive         Archive
	TickUnit        time.Duration
	TransitionUnits int
	ResultTimeout   time.Duration
	EntryFee        int
	// AutoStart makes the room owner send START as soon as both players are ready.
	AutoStart bool
	Logger          logrus.FieldLogger
}

// Controller orchestrates one game session. All state changes run on the
// goroutine started by Run; socket callbacks, timer ticks and UI commands are
// queued to it and each runs to completion before the next.
type Controller struct {
	opts   Options
	logger logrus.FieldLogger

	store *store.Store
	timer *timer.TurnTimer
	seq   *rules.SequenceDetector

	inbox chan message
	done  chan struct{}

	// loop-owned
	state         State
	epoch         uint64
	resync        bool
	startSent     bool
	gameOverSent  bool
	coinsCharged  bool
	tick          *time.Timer
	transition    *time.Timer
	transitionGen uint64
	sessionID     uuid.UUID
	eventIndex    int
}

type message interface{}

type frameMsg struct {
	epoch uint64
	data  []byte
}

type closeMsg struct {
	epoch uint64
	err   error
}

type tickMsg struct {
	gen uint64
}

type transitionMsg struct {
	gen uint64
}

type resultMsg struct {
	sessionID uuid.UUID
	res       *api.Result
	err       error
}

type commandMsg struct {
	fn    func() error
	reply chan error
}

func New(opts Options) *Controller {
	if opts.TickUnit <= 0 {
		opts.TickUnit = time.Second
	}
	if opts.ResultTimeout <= 0 {
		opts.ResultTimeout = 5 * time.Second
	}
	if opts.TransitionUnits < 0 {
		opts.TransitionUnits = 0
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	logger := opts.Logger.WithField("game", opts.Game.Slug())

	c := &Controller{
		opts:   opts,
		logger: logger,
		store:  store.New(opts.Game, 0, logger),
		inbox:  make(chan message, 64),
		done:   make(chan struct{}),
	}
	c.timer = timer.New(c.ownsTimeout, c.sendTimeOut)
	if opts.Game == models.GameSequence {
		rows, cols := opts.Game.BoardSize()
		c.seq = rules.NewSequenceDetector(rows, cols, rules.DefaultWildCells)
	}
	if opts.View != nil {
		c.store.Subscribe(opts.View.Render)
	}
	return c
}

// Run consumes the inbox until ctx is done. It disconnects on exit.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.stopTimers()
			c.opts.Conn.Disconnect()
			return
		case msg := <-c.inbox:
			c.dispatch(msg)
		}
	}
}

func (c *Controller) dispatch(msg message) {
	switch m := msg.(type) {
	case frameMsg:
		c.handleFrame(m.epoch, m.data)
	case closeMsg:
		c.handleClose(m.epoch, m.err)
	case tickMsg:
		c.handleTick(m.gen)
	case transitionMsg:
		c.handleTransitionEnd(m.gen)
	case resultMsg:
		c.handleResult(m)
	case commandMsg:
		m.reply <- m.fn()
	default:
		c.logger.Warnf("Unknown inbox message %T", msg)
	}
}

func (c *Controller) post(msg message) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

// do runs fn on the controller goroutine and waits for its result.
func (c *Controller) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case c.inbox <- commandMsg{fn: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// socketHandler adapts the controller to connection.Handler without
// exporting the callbacks.
type socketHandler struct {
	c *Controller
}

func (h socketHandler) OnFrame(epoch uint64, data []byte) {
	h.c.post(frameMsg{epoch: epoch, data: data})
}

func (h socketHandler) OnClose(epoch uint64, err error) {
	h.c.post(closeMsg{epoch: epoch, err: err})
}

// Snapshot returns the current store snapshot. Safe from any goroutine.
func (c *Controller) Snapshot() store.Snapshot {
	return c.store.Snapshot()
}

// Subscribe registers a store listener.
func (c *Controller) Subscribe(fn store.Listener) func() {
	return c.store.Subscribe(fn)
}

// State reports the lifecycle state.
func (c *Controller) State(ctx context.Context) (State, error) {
	var st State
	err := c.do(ctx, func() error {
		st = c.state
		return nil
	})
	return st, err
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.logger.Debugf("Session state %s -> %s", c.state, s)
	c.state = s
	c.update(func(tx *store.Tx) error {
		tx.SetPhase(s.Phase())
		switch s {
		case StateActive:
			tx.SetActive(true)
		case StateGameOver:
			tx.SetOver(true)
		case StateDisconnected, StateIdle:
			tx.SetActive(false)
		}
		return nil
	})
}

// update commits fn and logs rejected updates.
func (c *Controller) update(fn func(tx *store.Tx) error) bool {
	if err := c.store.Update(fn); err != nil {
		c.logger.Errorf("Store update failed: %v", err)
		return false
	}
	return true
}

// send emits a command and records it.
func (c *Controller) send(ev protocol.EventType, body interface{}) error {
	if err := c.opts.Conn.Send(ev, body); err != nil {
		return err
	}
	var raw json.RawMessage
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	c.record(cache.Outbound, ev.String(), raw)
	return nil
}

func (c *Controller) record(direction, eventType string, payload json.RawMessage) {
	if c.opts.Recorder == nil {
		return
	}
	c.eventIndex++
	snap := c.store.Snapshot()
	rec := cache.SessionEventRecord{
		SessionID:  c.sessionID,
		EventIndex: c.eventIndex,
		RoomID:     snap.Session.RoomID,
		UserID:     snap.MyUserID,
		Game:       c.opts.Game.Slug(),
		Direction:  direction,
		EventType:  eventType,
		Payload:    payload,
		Timestamp:  time.Now().UnixMilli(),
	}
	go func(rec cache.SessionEventRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.opts.Recorder.Record(ctx, rec); err != nil {
			c.logger.Warnf("Error recording event %d (%s): %v", rec.EventIndex, rec.EventType, err)
		}
	}(rec)
}
