package rules

import (
	"fmt"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
)

// CheckPlacement validates playing card on mapID for the player owning color.
// A one-eyed jack removes an opponent chip that is not part of a sequence; any
// other card places a chip on an empty, non-wild cell the card is printed on.
func (d *SequenceDetector) CheckPlacement(b *models.Board, card models.Card, mapID int, color string, locked []Sequence) error {
	if !b.Valid(mapID) {
		return fmt.Errorf("place on %d: %w", mapID, ErrOffBoard)
	}
	if d.wild[mapID] {
		return fmt.Errorf("place on %d: %w", mapID, ErrWildCell)
	}
	owner := b.Owner(mapID)

	if card.OneEyedJack() {
		if owner == models.NoOwner || owner == color {
			return fmt.Errorf("remove chip at %d: %w", mapID, ErrNotOpponent)
		}
		for _, s := range locked {
			if s.Contains(mapID) {
				return fmt.Errorf("remove chip at %d: %w", mapID, ErrLockedCell)
			}
		}
		return nil
	}

	if owner != models.NoOwner {
		return fmt.Errorf("place on %d: %w", mapID, ErrCellTaken)
	}
	if card.TwoEyedJack() {
		return nil
	}
	for _, id := range card.MapIDs {
		if id == mapID {
			return nil
		}
	}
	return fmt.Errorf("card %d on %d: %w", card.ID, mapID, ErrCardMismatch)
}

// DeadCard reports whether every cell printed for card is already taken.
// Jacks are never dead.
func DeadCard(b *models.Board, card models.Card) bool {
	if card.Rank == models.RankJack || len(card.MapIDs) == 0 {
		return false
	}
	for _, id := range card.MapIDs {
		if b.Owner(id) == models.NoOwner {
			return false
		}
	}
	return true
}
