package connection

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/auth"
	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameRecorder struct {
	frames chan []byte
	closes chan uint64
}

func newFrameRecorder() *frameRecorder {
	return &frameRecorder{frames: make(chan []byte, 16), closes: make(chan uint64, 4)}
}

func (r *frameRecorder) OnFrame(_ uint64, data []byte) { r.frames <- data }
func (r *frameRecorder) OnClose(epoch uint64, _ error)  { r.closes <- epoch }

// fakeServer accepts one socket, reports the request and every command it
// receives, and writes whatever is pushed to send.
type fakeServer struct {
	*httptest.Server
	requests chan *http.Request
	commands chan protocol.Command
	send     chan []byte
}

func newFakeServer(t *testing.T) *fakeServer {
	fs := &fakeServer{
		requests: make(chan *http.Request, 4),
		commands: make(chan protocol.Command, 16),
		send:     make(chan []byte, 16),
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.requests <- r
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("accept: %v", err)
			return
		}
		defer c.CloseNow()
		ctx := r.Context()
		go func() {
			for data := range fs.send {
				if err := c.Write(ctx, websocket.MessageText, data); err != nil {
					return
				}
			}
		}()
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				return
			}
			var cmd protocol.Command
			if json.Unmarshal(data, &cmd) == nil {
				fs.commands <- cmd
			}
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestManager(base string, creds *auth.MemoryStore) *Manager {
	return New(Options{
		BaseURL:      base,
		Game:         models.GameFrog,
		Credentials:  creds,
		DialTimeout:  2 * time.Second,
		WriteTimeout: time.Second,
		Logger:       quietLogger(),
	})
}

func credentials() *auth.MemoryStore {
	m := auth.NewMemoryStore()
	m.Set(auth.KeyAccessToken, "tok en")
	m.Set(auth.KeyUserID, "7")
	return m
}

func recvCommand(t *testing.T, ch chan protocol.Command) protocol.Command {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for command")
	}
	return protocol.Command{}
}

func TestURL(t *testing.T) {
	m := newTestManager("wss://example.com/", auth.NewMemoryStore())
	assert.Equal(t, "wss://example.com/frog/v0.1/rooms/match/ws?tkn=abc", m.URL(models.ModeMatch, "abc", ""))
	assert.Equal(t, "wss://example.com/frog/v0.1/rooms/join/play/ws?tkn=abc&password=p%26w", m.URL(models.ModeJoin, "abc", "p&w"))
	assert.Equal(t, "wss://example.com/frog/v0.1/rooms/play/together/ws?tkn=abc", m.URL(models.ModeTogether, "abc", ""))
}

func TestConnectSendsInitiatingCommand(t *testing.T) {
	fs := newFakeServer(t)
	m := newTestManager(fs.URL, credentials())
	rec := newFrameRecorder()

	epoch, err := m.Connect(context.Background(), models.ModeMatch, "", rec)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)
	assert.True(t, m.Connected())

	req := <-fs.requests
	assert.Equal(t, "/frog/v0.1/rooms/match/ws", req.URL.Path)
	assert.Equal(t, "tok en", req.URL.Query().Get("tkn"))

	cmd := recvCommand(t, fs.commands)
	assert.Equal(t, "MATCH", cmd.Event)
	assert.Equal(t, int64(7), cmd.UserID)
	assert.Nil(t, cmd.RoomID)

	fs.send <- []byte(`{"event":"MATCH","message":"{}"}`)
	select {
	case data := <-rec.frames:
		assert.JSONEq(t, `{"event":"MATCH","message":"{}"}`, string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}

	m.SetRoomID(55)
	require.NoError(t, m.Send(protocol.EventStart, nil))
	cmd = recvCommand(t, fs.commands)
	require.NotNil(t, cmd.RoomID)
	assert.Equal(t, int64(55), *cmd.RoomID)
	assert.Equal(t, "START", cmd.Event)
}

func TestConnectJoinWithPassword(t *testing.T) {
	fs := newFakeServer(t)
	m := newTestManager(fs.URL, credentials())

	_, err := m.Connect(context.Background(), models.ModeJoin, "1234", newFrameRecorder())
	require.NoError(t, err)

	req := <-fs.requests
	assert.Equal(t, "/frog/v0.1/rooms/join/play/ws", req.URL.Path)
	assert.Equal(t, "1234", req.URL.Query().Get("password"))

	cmd := recvCommand(t, fs.commands)
	assert.Equal(t, "JOIN", cmd.Event)
	assert.JSONEq(t, `{"password":"1234"}`, cmd.Message)
}

func TestConnectMissingCredentials(t *testing.T) {
	m := newTestManager("ws://127.0.0.1:1", auth.NewMemoryStore())
	_, err := m.Connect(context.Background(), models.ModeMatch, "", newFrameRecorder())
	assert.ErrorIs(t, err, auth.ErrMissingCredentials)
	assert.False(t, m.Connected())
}

func TestConnectInvalidMode(t *testing.T) {
	m := newTestManager("ws://127.0.0.1:1", credentials())
	_, err := m.Connect(context.Background(), models.Mode("watch"), "", newFrameRecorder())
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestSendWithoutSocket(t *testing.T) {
	m := newTestManager("ws://127.0.0.1:1", credentials())
	assert.ErrorIs(t, m.Send(protocol.EventMove, nil), ErrNotConnected)
}

func TestDisconnectClearsIdentifiers(t *testing.T) {
	fs := newFakeServer(t)
	m := newTestManager(fs.URL, credentials())
	rec := newFrameRecorder()

	epoch, err := m.Connect(context.Background(), models.ModeMatch, "", rec)
	require.NoError(t, err)
	recvCommand(t, fs.commands)
	m.SetRoomID(9)
	m.SetRound(4)

	m.Disconnect()
	assert.False(t, m.Connected())
	assert.Equal(t, int64(0), m.RoomID())
	assert.Equal(t, 0, m.Round())
	assert.Greater(t, m.Epoch(), epoch)
	assert.ErrorIs(t, m.Send(protocol.EventMove, nil), ErrNotConnected)

	select {
	case closed := <-rec.closes:
		assert.Equal(t, epoch, closed)
		assert.NotEqual(t, m.Epoch(), closed)
	case <-time.After(3 * time.Second):
		t.Fatal("reader did not exit")
	}

	m.Disconnect()
}

func TestRejoinKeepsRoomID(t *testing.T) {
	fs := newFakeServer(t)
	m := newTestManager(fs.URL, credentials())

	m.SetRoomID(12)
	_, err := m.Connect(context.Background(), models.ModeJoin, "", newFrameRecorder())
	require.NoError(t, err)

	cmd := recvCommand(t, fs.commands)
	assert.Equal(t, "JOIN", cmd.Event)
	require.NotNil(t, cmd.RoomID)
	assert.Equal(t, int64(12), *cmd.RoomID)
	m.Disconnect()
}
