package models

// ConnectionStatus mirrors the server's view of a player's socket.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Player is one of the two participants in a session.
type Player struct {
	UserID           int64            `json:"userID"`
	DisplayName      string           `json:"displayName"`
	Color            string           `json:"color"`
	Score            int              `json:"score"`
	IsOwner          bool             `json:"isOwner"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus"`
	Cards            []Card           `json:"cards"`
	CanMove          bool             `json:"canMove"`
	TurnSlot         int              `json:"turnSlot"`

	// HeroCount is the number of capture moves left (slime-war).
	HeroCount int `json:"heroCount"`
	// Sequences is the number of completed sequences (sequence).
	Sequences int `json:"sequences"`
}

// Card looks up a held card by id.
func (p *Player) Card(id int) (Card, bool) {
	for _, c := range p.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

func (p Player) Clone() Player {
	cp := p
	if p.Cards != nil {
		cp.Cards = make([]Card, len(p.Cards))
		for i, c := range p.Cards {
			cp.Cards[i] = c.Clone()
		}
	}
	return cp
}
