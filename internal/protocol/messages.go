// internal/protocol/messages.go
package protocol

import "github.com/JokerTrickster/board-game-app-sub000/internal/models"

// Frame is the outer inbound envelope. Message holds JSON-encoded Payload.
type Frame struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Command is the outbound envelope. RoomID is null until the server assigns a room.
type Command struct {
	RoomID  *int64 `json:"roomID"`
	UserID  int64  `json:"userID"`
	Event   string `json:"event"`
	Message string `json:"message"`
}

// User is the per-player record inside every broadcast.
type User struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	IsOwner     bool          `json:"isOwner"`
	Color       string        `json:"color"`
	Score       int           `json:"score"`
	PlayerState string        `json:"playerState"`
	TurnSlot    int           `json:"turn"`
	CanMove     bool          `json:"canMove"`
	Cards       []models.Card `json:"cards"`
	OwnedMapIDs []int         `json:"ownedMapIDs,omitempty"`
	HeroCount   int           `json:"heroCount,omitempty"`
	Sequences   int           `json:"sequences,omitempty"`
}

// GameInfo carries the room-level fields shared by every game.
type GameInfo struct {
	RoomID     int64  `json:"roomID"`
	Round      int    `json:"round"`
	AllReady   bool   `json:"allReady"`
	IsFull     bool   `json:"isFull"`
	Timer      int    `json:"timer"`
	IsGameOver bool   `json:"isGameOver"`
	Password   string `json:"password,omitempty"`
}

// Position is an image coordinate in the spot-the-difference game.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	UserID int64   `json:"userID,omitempty"`
}

type FindItGameInfo struct {
	GameInfo
	Life             int        `json:"life"`
	ItemHintCount    int        `json:"itemHintCount"`
	ItemTimerCount   int        `json:"itemTimerCount"`
	NormalImageURL   string     `json:"normalImageUrl"`
	AbnormalImageURL string     `json:"abnormalImageUrl"`
	CorrectPositions []Position `json:"correctPositions"`
	WrongPosition    *Position  `json:"wrongPosition,omitempty"`
	HintPosition     *Position  `json:"hintPosition,omitempty"`
}

type FrogGameInfo struct {
	GameInfo
	BoardCards  []models.Card `json:"boardCards"`
	Dora        *models.Card  `json:"dora,omitempty"`
	DiscardCard *models.Card  `json:"discardCard,omitempty"`
	Winner      int64         `json:"winner,omitempty"`
	IsLoan      bool          `json:"isLoanAllowed"`
}

// SequenceMove describes the last chip placed or removed.
type SequenceMove struct {
	UserID  int64 `json:"userID"`
	CardID  int   `json:"cardID"`
	MapID   int   `json:"mapID"`
	Removed bool  `json:"removed"`
}

type SequenceGameInfo struct {
	GameInfo
	LastMove *SequenceMove `json:"lastMove,omitempty"`
	Winner   int64         `json:"winner,omitempty"`
}

type SlimeWarGameInfo struct {
	GameInfo
	KingIndex int   `json:"kingIndex"`
	Winner    int64 `json:"winner,omitempty"`
}

// ErrorInfo is attached when the server rejects a command.
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Type    string `json:"type"`
}

// Payload is the decoded inner message. At most one game info is set.
type Payload struct {
	Users     []User            `json:"users"`
	FindIt    *FindItGameInfo   `json:"findItGameInfo,omitempty"`
	Frog      *FrogGameInfo     `json:"frogGameInfo,omitempty"`
	Sequence  *SequenceGameInfo `json:"sequenceGameInfo,omitempty"`
	SlimeWar  *SlimeWarGameInfo `json:"slimeWarGameInfo,omitempty"`
	ErrorInfo *ErrorInfo        `json:"errorInfo,omitempty"`
}

// Info returns the shared room fields of whichever game info is present.
func (p *Payload) Info() *GameInfo {
	switch {
	case p.FindIt != nil:
		return &p.FindIt.GameInfo
	case p.Frog != nil:
		return &p.Frog.GameInfo
	case p.Sequence != nil:
		return &p.Sequence.GameInfo
	case p.SlimeWar != nil:
		return &p.SlimeWar.GameInfo
	}
	return nil
}

// Outbound message bodies.

type PositionMessage struct {
	Round int     `json:"round"`
	X     float64 `json:"xPosition"`
	Y     float64 `json:"yPosition"`
}

type RoundMessage struct {
	Round int `json:"round"`
}

type CardMessage struct {
	CardID int `json:"cardID"`
	MapID  int `json:"mapID,omitempty"`
}

type CardsMessage struct {
	CardIDs []int `json:"cardIDs"`
}

type PasswordMessage struct {
	Password string `json:"password,omitempty"`
}
