// internal/rules/slime.go
package rules

import (
	"fmt"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
)

// MaxSlimeHand is the number of cards a player may hold.
const MaxSlimeHand = 5

var slimeDirections = map[string]Direction{
	"up":         {-1, 0},
	"down":       {1, 0},
	"left":       {0, -1},
	"right":      {0, 1},
	"up-left":    {-1, -1},
	"up-right":   {-1, 1},
	"down-left":  {1, -1},
	"down-right": {1, 1},
}

// KingStart is the centre cell where the king begins.
func KingStart(b *models.Board) int {
	return b.MapID(b.Rows/2, b.Cols/2)
}

// SlimeTarget returns the cell the king lands on when card is played.
func SlimeTarget(b *models.Board, king int, card models.Card) (int, error) {
	dir, ok := slimeDirections[card.Direction]
	if !ok || card.Magnitude <= 0 {
		return 0, fmt.Errorf("card %d direction %q: %w", card.ID, card.Direction, ErrUnknownVector)
	}
	row, col := b.RowCol(king)
	row += dir.DR * card.Magnitude
	col += dir.DC * card.Magnitude
	if !b.InBounds(row, col) {
		return 0, fmt.Errorf("card %d from %d: %w", card.ID, king, ErrOffBoard)
	}
	return b.MapID(row, col), nil
}

// CheckMove validates a normal move: the target must be unclaimed.
func CheckMove(b *models.Board, king int, card models.Card) (int, error) {
	target, err := SlimeTarget(b, king, card)
	if err != nil {
		return 0, err
	}
	if b.Owner(target) != models.NoOwner {
		return 0, fmt.Errorf("card %d to %d: %w", card.ID, target, ErrCellTaken)
	}
	return target, nil
}

// CheckHero validates a hero move: the target must belong to the opponent.
func CheckHero(b *models.Board, king int, card models.Card, color string, heroCount int) (int, error) {
	if heroCount <= 0 {
		return 0, ErrNoHeroLeft
	}
	target, err := SlimeTarget(b, king, card)
	if err != nil {
		return 0, err
	}
	owner := b.Owner(target)
	if owner == models.NoOwner || owner == color {
		return 0, fmt.Errorf("hero to %d: %w", target, ErrNotOpponent)
	}
	return target, nil
}

// CanMove reports whether any held card yields a legal move or hero move,
// or whether the player may still draw.
func CanMove(b *models.Board, king int, p models.Player) bool {
	if len(p.Cards) < MaxSlimeHand {
		return true
	}
	for _, c := range p.Cards {
		if _, err := CheckMove(b, king, c); err == nil {
			return true
		}
		if _, err := CheckHero(b, king, c, p.Color, p.HeroCount); err == nil {
			return true
		}
	}
	return false
}
