// internal/models/game_type.go
package models

import "fmt"

// GameType identifies one of the four supported games by its URL slug.
type GameType string

const (
	GameFindIt   GameType = "find-it"
	GameFrog     GameType = "frog"
	GameSequence GameType = "sequence"
	GameSlimeWar GameType = "slime-war"
)

// GameTypes lists every supported game in a stable order.
var GameTypes = []GameType{GameFindIt, GameFrog, GameSequence, GameSlimeWar}

// ParseGameType resolves a slug into a GameType.
func ParseGameType(slug string) (GameType, error) {
	for _, g := range GameTypes {
		if string(g) == slug {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown game type %q", slug)
}

// Slug returns the path segment used in socket and REST URLs.
func (g GameType) Slug() string {
	return string(g)
}

// TurnBased reports whether players alternate turns. The spot-the-difference
// game is played simultaneously against a shared clock.
func (g GameType) TurnBased() bool {
	return g != GameFindIt
}

// DefaultTurnSeconds is the countdown length used when the server does not send one.
func (g GameType) DefaultTurnSeconds() int {
	if g == GameFindIt {
		return 60
	}
	return 30
}

// BoardSize returns the grid dimensions, or 0x0 for games without a board.
func (g GameType) BoardSize() (rows, cols int) {
	switch g {
	case GameFrog, GameSequence:
		return 10, 10
	case GameSlimeWar:
		return 9, 9
	}
	return 0, 0
}

// Mode selects how a room is entered.
type Mode string

const (
	ModeMatch    Mode = "match"
	ModeTogether Mode = "together"
	ModeJoin     Mode = "join"
)

// Path returns the URL segment for the mode.
func (m Mode) Path() string {
	switch m {
	case ModeTogether:
		return "play/together"
	case ModeJoin:
		return "join/play"
	}
	return "match"
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeMatch || m == ModeTogether || m == ModeJoin
}
