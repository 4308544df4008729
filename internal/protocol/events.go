// internal/protocol/events.go
package protocol

// EventType is the closed set of event names exchanged with the game server.
type EventType int

const (
	EventUnknown EventType = iota
	EventMatch
	EventTogether
	EventJoin
	EventStart
	EventGetCard
	EventImportCards
	EventImportSingleCard
	EventDiscard
	EventMove
	EventHero
	EventLoan
	EventSuccessLoan
	EventFailedLoan
	EventSubmitPosition
	EventHintItem
	EventTimerItem
	EventRoundStart
	EventRoundClear
	EventRoundFail
	EventNextRound
	EventTimeOut
	EventGameClear
	EventGameOver
	EventMatchCancel
	EventDisconnect

	eventCount
)

var eventNames = [eventCount]string{
	EventUnknown:          "UNKNOWN",
	EventMatch:            "MATCH",
	EventTogether:         "TOGETHER",
	EventJoin:             "JOIN",
	EventStart:            "START",
	EventGetCard:          "GET_CARD",
	EventImportCards:      "IMPORT_CARDS",
	EventImportSingleCard: "IMPORT_SINGLE_CARD",
	EventDiscard:          "DISCARD",
	EventMove:             "MOVE",
	EventHero:             "HERO",
	EventLoan:             "LOAN",
	EventSuccessLoan:      "SUCCESS_LOAN",
	EventFailedLoan:       "FAILED_LOAN",
	EventSubmitPosition:   "SUBMIT_POSITION",
	EventHintItem:         "HINT_ITEM",
	EventTimerItem:        "TIMER_ITEM",
	EventRoundStart:       "ROUND_START",
	EventRoundClear:       "ROUND_CLEAR",
	EventRoundFail:        "ROUND_FAIL",
	EventNextRound:        "NEXT_ROUND",
	EventTimeOut:          "TIME_OUT",
	EventGameClear:        "GAME_CLEAR",
	EventGameOver:         "GAME_OVER",
	EventMatchCancel:      "MATCH_CANCEL",
	EventDisconnect:       "DISCONNECT",
}

var eventsByName = func() map[string]EventType {
	m := make(map[string]EventType, eventCount)
	for i := EventType(1); i < eventCount; i++ {
		m[eventNames[i]] = i
	}
	return m
}()

func (e EventType) String() string {
	if e < 0 || e >= eventCount {
		return eventNames[EventUnknown]
	}
	return eventNames[e]
}

// ParseEventType maps a wire name to its EventType, or EventUnknown.
func ParseEventType(name string) EventType {
	if e, ok := eventsByName[name]; ok {
		return e
	}
	return EventUnknown
}

// AllEvents returns every known event except EventUnknown.
func AllEvents() []EventType {
	out := make([]EventType, 0, eventCount-1)
	for i := EventType(1); i < eventCount; i++ {
		out = append(out, i)
	}
	return out
}
