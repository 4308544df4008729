package models

// Session identifies one room from match/join until game over or disconnect.
type Session struct {
	RoomID   int64    `json:"roomID"`
	GameType GameType `json:"gameType"`
	Round    int      `json:"round"`
	IsActive bool     `json:"isActive"`
	IsOver   bool     `json:"isOver"`
}

// TurnOwnerSlot is derived from the round; it is never stored.
func (s Session) TurnOwnerSlot() int {
	return s.Round % 2
}
