package models

// Card states as reported by the server.
const (
	CardOwned   = "owned"
	CardBoard   = "board"
	CardDiscard = "discard"
	CardDora    = "dora"
	CardUsed    = "used"
)

const RankJack = 11

// Card is a card or tile. Only the metadata relevant to the current game is set.
type Card struct {
	ID    int    `json:"cardID"`
	State string `json:"state,omitempty"`

	// sequence
	Suit   string `json:"suit,omitempty"`
	Rank   int    `json:"rank,omitempty"`
	MapIDs []int  `json:"mapIDs,omitempty"`

	// slime-war
	Direction string `json:"direction,omitempty"`
	Magnitude int    `json:"magnitude,omitempty"`

	// frog
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
	MapID int    `json:"mapID,omitempty"`
}

// TwoEyedJack places a chip on any empty cell.
func (c Card) TwoEyedJack() bool {
	return c.Rank == RankJack && (c.Suit == "heart" || c.Suit == "diamond")
}

// OneEyedJack removes an opponent chip.
func (c Card) OneEyedJack() bool {
	return c.Rank == RankJack && (c.Suit == "spade" || c.Suit == "clover")
}

func (c Card) Clone() Card {
	cp := c
	if c.MapIDs != nil {
		cp.MapIDs = append([]int(nil), c.MapIDs...)
	}
	return cp
}
