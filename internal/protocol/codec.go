// internal/protocol/codec.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrMalformedMessage  = errors.New("malformed message")
	ErrUnknownEvent      = errors.New("unknown event")
)

// Event is one decoded inbound frame. It is not modified after Decode returns.
type Event struct {
	Type    EventType
	Name    string
	Payload Payload
	Raw     json.RawMessage
}

// Bind decodes the raw inner message into v.
func (e Event) Bind(v interface{}) error {
	if len(e.Raw) == 0 {
		return fmt.Errorf("bind %s: %w", e.Name, ErrMalformedMessage)
	}
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return fmt.Errorf("bind %s: %v: %w", e.Name, err, ErrMalformedMessage)
	}
	return nil
}

// Decode parses an inbound frame in two passes: the outer envelope, then the
// JSON string it carries. Unknown event names decode as EventUnknown.
func Decode(data []byte) (Event, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Event{}, fmt.Errorf("%v: %w", err, ErrMalformedEnvelope)
	}
	if f.Event == "" {
		return Event{}, fmt.Errorf("missing event name: %w", ErrMalformedEnvelope)
	}

	ev := Event{Type: ParseEventType(f.Event), Name: f.Event}
	if f.Message == "" {
		return ev, nil
	}
	ev.Raw = json.RawMessage(f.Message)
	if err := json.Unmarshal(ev.Raw, &ev.Payload); err != nil {
		return Event{}, fmt.Errorf("event %s: %v: %w", f.Event, err, ErrMalformedMessage)
	}
	return ev, nil
}

// EncodeCommand builds an outbound frame. A roomID of 0 is sent as null and
// a nil body as an empty object.
func EncodeCommand(roomID, userID int64, ev EventType, body interface{}) ([]byte, error) {
	if ev <= EventUnknown || ev >= eventCount {
		return nil, fmt.Errorf("encode %d: %w", int(ev), ErrUnknownEvent)
	}
	msg := []byte("{}")
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", ev, err)
		}
		msg = b
	}
	cmd := Command{
		UserID:  userID,
		Event:   ev.String(),
		Message: string(msg),
	}
	if roomID != 0 {
		cmd.RoomID = &roomID
	}
	return json.Marshal(cmd)
}
