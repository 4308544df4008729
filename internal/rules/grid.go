// internal/rules/grid.go
package rules

import "errors"

var (
	ErrOffBoard      = errors.New("target cell is off the board")
	ErrCellTaken     = errors.New("target cell is already taken")
	ErrWildCell      = errors.New("wild cells cannot be claimed")
	ErrCardMismatch  = errors.New("card does not match the target cell")
	ErrLockedCell    = errors.New("cell belongs to a completed sequence")
	ErrNotOpponent   = errors.New("target cell is not owned by the opponent")
	ErrNoHeroLeft    = errors.New("no hero moves left")
	ErrUnknownVector = errors.New("card has no known direction")
)

// Direction is a unit step on the grid.
type Direction struct {
	DR, DC int
}

// Directions8 are scanned in this order by the sequence detector.
var Directions8 = [8]Direction{
	{0, 1}, {1, 1}, {1, 0}, {1, -1},
	{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
}

// Directions4 are the neighbours used for territory connectivity.
var Directions4 = [4]Direction{
	{0, 1}, {1, 0}, {0, -1}, {-1, 0},
}
