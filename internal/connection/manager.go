// internal/connection/manager.go
package connection

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/auth"
	"github.com/JokerTrickster/board-game-app-sub000/internal/middleware"
	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotConnected = errors.New("socket is not connected")
	ErrInvalidMode  = errors.New("invalid room mode")
)

const readLimit = 1 << 20

// Handler receives socket callbacks from the reader goroutine, in delivery
// order. The epoch identifies the connection that produced them.
type Handler interface {
	OnFrame(epoch uint64, data []byte)
	OnClose(epoch uint64, err error)
}

// Options configure a Manager.
type Options struct {
	BaseURL      string
	Game         models.GameType
	Credentials  auth.KeyValue
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       logrus.FieldLogger
}

// Manager owns the socket of one game client. It never reconnects on its own.
type Manager struct {
	opts Options

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	epoch  uint64
	connID uuid.UUID
	creds  auth.Credentials
	roomID int64
	round  int
}

func New(opts Options) *Manager {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Manager{opts: opts}
}

// InitiatingEvent is the command sent right after the socket opens.
func InitiatingEvent(mode models.Mode) protocol.EventType {
	switch mode {
	case models.ModeTogether:
		return protocol.EventTogether
	case models.ModeJoin:
		return protocol.EventJoin
	}
	return protocol.EventMatch
}

// URL builds the socket address for mode. Parameters keep the tkn-first order
// the server expects.
func (m *Manager) URL(mode models.Mode, token, password string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s/v0.1/rooms/%s/ws?tkn=%s",
		strings.TrimRight(m.opts.BaseURL, "/"), m.opts.Game.Slug(), mode.Path(), url.QueryEscape(token))
	if password != "" {
		b.WriteString("&password=")
		b.WriteString(url.QueryEscape(password))
	}
	return b.String()
}

// Connect loads credentials, opens the socket, starts the reader and sends
// the mode's initiating command. Any previous connection is closed first; a
// room id set beforehand is kept so a rejoin addresses the same room.
// It returns the epoch assigned to the new connection.
func (m *Manager) Connect(ctx context.Context, mode models.Mode, password string, h Handler) (uint64, error) {
	if !mode.Valid() {
		return 0, fmt.Errorf("connect %q: %w", mode, ErrInvalidMode)
	}
	creds, err := auth.Load(ctx, m.opts.Credentials)
	if err != nil {
		m.opts.Logger.Warnf("Cannot connect to %s: %v", m.opts.Game, err)
		return 0, err
	}

	// a room set before connecting (rejoin) survives closing the old socket
	roomID := m.RoomID()
	m.Disconnect()

	dialCtx, cancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	defer cancel()
	c, _, err := websocket.Dial(dialCtx, m.URL(mode, creds.Token, password), nil)
	if err != nil {
		return 0, fmt.Errorf("dial %s %s: %w", m.opts.Game, mode, err)
	}
	c.SetReadLimit(readLimit)

	readCtx, readCancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch
	m.conn = c
	m.cancel = readCancel
	m.connID = uuid.New()
	m.creds = creds
	m.roomID = roomID
	m.mu.Unlock()

	middleware.LogWebSocketConnect(m.opts.Logger, m.opts.Game.Slug(), string(mode))
	go m.readLoop(readCtx, c, epoch, h)

	var body interface{}
	if password != "" {
		body = protocol.PasswordMessage{Password: password}
	}
	if err := m.Send(InitiatingEvent(mode), body); err != nil {
		return epoch, err
	}
	return epoch, nil
}

func (m *Manager) readLoop(ctx context.Context, c *websocket.Conn, epoch uint64, h Handler) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				m.opts.Logger.Infof("WebSocket closed normally for %s (epoch %d).", m.opts.Game, epoch)
			} else if errors.Is(err, context.Canceled) {
				m.opts.Logger.Debugf("WebSocket read canceled for %s (epoch %d).", m.opts.Game, epoch)
			} else {
				m.opts.Logger.Warnf("Error reading from WebSocket for %s: %v (Status: %d)", m.opts.Game, err, status)
			}
			h.OnClose(epoch, err)
			return
		}
		if msgType != websocket.MessageText {
			m.opts.Logger.Warnf("Received non-text message type %d for %s. Ignoring.", msgType, m.opts.Game)
			continue
		}
		h.OnFrame(epoch, data)
	}
}

// Send encodes and writes one command. It does not queue: with no open socket
// it logs and returns ErrNotConnected.
func (m *Manager) Send(ev protocol.EventType, body interface{}) error {
	m.mu.Lock()
	c := m.conn
	roomID := m.roomID
	userID := m.creds.UserID
	m.mu.Unlock()

	if c == nil {
		m.opts.Logger.Errorf("Cannot send %s: %v", ev, ErrNotConnected)
		return ErrNotConnected
	}
	data, err := protocol.EncodeCommand(roomID, userID, ev, body)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), m.opts.WriteTimeout)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		m.opts.Logger.Warnf("Error writing %s: %v", ev, err)
		return fmt.Errorf("write %s: %w", ev, err)
	}
	m.opts.Logger.Debugf("Sent %s (room %d).", ev, roomID)
	return nil
}

// Disconnect closes the socket and clears the session identifiers. The epoch
// is bumped so callbacks from the closed socket are recognisably stale.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	c := m.conn
	cancel := m.cancel
	roomID := m.roomID
	m.conn = nil
	m.cancel = nil
	if c != nil {
		m.epoch++
	}
	m.connID = uuid.Nil
	m.roomID = 0
	m.round = 0
	m.mu.Unlock()

	if c == nil {
		return
	}
	middleware.LogWebSocketDisconnect(m.opts.Logger, m.opts.Game.Slug(), roomID, nil)
	go func() {
		if err := c.Close(websocket.StatusNormalClosure, "client disconnect"); err != nil {
			m.opts.Logger.Debugf("Close handshake for room %d: %v", roomID, err)
		}
		cancel()
	}()
}

func (m *Manager) SetRoomID(id int64) {
	m.mu.Lock()
	m.roomID = id
	m.mu.Unlock()
}

func (m *Manager) SetRound(r int) {
	m.mu.Lock()
	m.round = r
	m.mu.Unlock()
}

func (m *Manager) RoomID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

func (m *Manager) Round() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.round
}

// Epoch returns the id of the current connection, or of the last one closed.
func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// ConnID identifies the live connection; uuid.Nil when disconnected.
func (m *Manager) ConnID() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connID
}

func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Credentials returns those used by the current connection.
func (m *Manager) Credentials() auth.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds
}
