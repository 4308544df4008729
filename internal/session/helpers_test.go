// internal/session/helpers_test.go
package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/api"
	"github.com/JokerTrickster/board-game-app-sub000/internal/auth"
	"github.com/JokerTrickster/board-game-app-sub000/internal/cache"
	"github.com/JokerTrickster/board-game-app-sub000/internal/connection"
	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const (
	meID  int64 = 1
	oppID int64 = 2
)

type sentCmd struct {
	event protocol.EventType
	body  interface{}
}

// fakeConn records commands instead of writing them to a socket.
type fakeConn struct {
	mu          sync.Mutex
	handler     connection.Handler
	epoch       uint64
	modes       []models.Mode
	sent        []sentCmd
	roomID      int64
	round       int
	disconnects int
	connectErr  error
	sendErr     error
}

func (f *fakeConn) Connect(ctx context.Context, mode models.Mode, password string, h connection.Handler) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return 0, f.connectErr
	}
	f.epoch++
	f.handler = h
	f.modes = append(f.modes, mode)
	return f.epoch, nil
}

func (f *fakeConn) Send(ev protocol.EventType, body interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentCmd{event: ev, body: body})
	return f.sendErr
}

func (f *fakeConn) failSends(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *fakeConn) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.roomID = 0
	f.round = 0
}

func (f *fakeConn) SetRoomID(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomID = id
}

func (f *fakeConn) SetRound(r int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.round = r
}

func (f *fakeConn) Credentials() auth.Credentials {
	return auth.Credentials{Token: "token", UserID: meID}
}

func (f *fakeConn) events() []protocol.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.EventType, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.event)
	}
	return out
}

func (f *fakeConn) count(ev protocol.EventType) int {
	n := 0
	for _, e := range f.events() {
		if e == ev {
			n++
		}
	}
	return n
}

func (f *fakeConn) room() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roomID
}

func (f *fakeConn) disconnectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

func (f *fakeConn) last() sentCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentCmd{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeConn) current() (connection.Handler, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler, f.epoch
}

func (f *fakeConn) deliver(t *testing.T, event string, p protocol.Payload) {
	t.Helper()
	h, epoch := f.current()
	require.NotNil(t, h, "deliver before connect")
	h.OnFrame(epoch, frame(t, event, p))
}

func (f *fakeConn) close(err error) {
	h, epoch := f.current()
	h.OnClose(epoch, err)
}

func frame(t *testing.T, event string, p protocol.Payload) []byte {
	t.Helper()
	msg, err := json.Marshal(p)
	require.NoError(t, err)
	data, err := json.Marshal(protocol.Frame{Event: event, Message: string(msg)})
	require.NoError(t, err)
	return data
}

type resultCall struct {
	res *api.Result
	err error
}

// recordingView collects everything the controller shows.
type recordingView struct {
	mu      sync.Mutex
	renders int
	effects []Effect
	results chan resultCall
}

func newRecordingView() *recordingView {
	return &recordingView{results: make(chan resultCall, 4)}
}

func (v *recordingView) Render(store.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders++
}

func (v *recordingView) PlayEffect(e Effect) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.effects = append(v.effects, e)
}

func (v *recordingView) ShowResult(res *api.Result, err error) {
	v.results <- resultCall{res: res, err: err}
}

func (v *recordingView) effectsOf(kind EffectKind) []Effect {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []Effect
	for _, e := range v.effects {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (v *recordingView) waitResult(t *testing.T) resultCall {
	t.Helper()
	select {
	case r := <-v.results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the result view")
	}
	return resultCall{}
}

type fakeBackend struct {
	mu       sync.Mutex
	result   *api.Result
	err      error
	deducted []int
}

func (b *fakeBackend) GameResult(ctx context.Context, game models.GameType, roomID int64, token string) (*api.Result, error) {
	return b.result, b.err
}

func (b *fakeBackend) DeductCoins(ctx context.Context, token string, amount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deducted = append(b.deducted, amount)
	return nil
}

func (b *fakeBackend) deductions() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.deducted...)
}

type fakeArchive struct {
	mu    sync.Mutex
	saved []*api.Result
}

func (a *fakeArchive) RecordResult(ctx context.Context, game string, res *api.Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, res)
	return nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	recs []cache.SessionEventRecord
}

func (r *fakeRecorder) Record(ctx context.Context, rec cache.SessionEventRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *fakeRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recs)
}

type harness struct {
	c       *Controller
	conn    *fakeConn
	view    *recordingView
	backend *fakeBackend
	archive *fakeArchive
	ctx     context.Context
}

// newHarness starts a controller whose tick source never fires on its own;
// tests drive ticks and transitions through the inbox.
func newHarness(t *testing.T, game models.GameType, tweak ...func(*Options)) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()
	h := &harness{
		conn:    &fakeConn{},
		view:    newRecordingView(),
		backend: &fakeBackend{result: &api.Result{RoomID: 7, Game: game.Slug()}},
		archive: &fakeArchive{},
	}
	opts := Options{
		Game:            game,
		Conn:            h.conn,
		Backend:         h.backend,
		View:            h.view,
		Archive:         h.archive,
		TickUnit:        time.Hour,
		TransitionUnits: 2,
		ResultTimeout:   time.Second,
		AutoStart:       true,
		Logger:          logger,
	}
	for _, fn := range tweak {
		fn(&opts)
	}
	h.c = New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.ctx = ctx
	go h.c.Run(ctx)
	return h
}

// state waits for every queued message to be handled and returns the state.
func (h *harness) state(t *testing.T) State {
	t.Helper()
	st, err := h.c.State(h.ctx)
	require.NoError(t, err)
	return st
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.Connect(h.ctx, models.ModeMatch, ""))
	require.Equal(t, StateMatching, h.state(t))
}

// timerRunning reads the countdown state on the loop.
func (h *harness) timerRunning(t *testing.T) bool {
	t.Helper()
	var running bool
	require.NoError(t, h.c.do(h.ctx, func() error {
		running = h.c.timer.Running()
		return nil
	}))
	return running
}

// tick delivers one tick for the current countdown.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.do(h.ctx, func() error {
		h.c.handleTick(h.c.timer.Generation())
		return nil
	}))
}

func (h *harness) endTransition(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.do(h.ctx, func() error {
		h.c.handleTransitionEnd(h.c.transitionGen)
		return nil
	}))
}

func user(id int64, slot int, owner bool, color string) protocol.User {
	return protocol.User{ID: id, Name: "p", IsOwner: owner, Color: color, TurnSlot: slot, PlayerState: "connected"}
}

func room(round int, allReady bool) protocol.GameInfo {
	return protocol.GameInfo{RoomID: 7, Round: round, AllReady: allReady, IsFull: allReady}
}
