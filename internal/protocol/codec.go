package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is the frame of every websocket message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps payload into an envelope. A nil payload encodes an event
// without data (clear-canvas).
func Encode(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, fmt.Errorf("encode: %w: empty event", ErrMalformedEnvelope)
	}
	env := Envelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("%w: empty frame", ErrMalformedEnvelope)
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", ErrMalformedEnvelope)
	}
	return env, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("%w: empty payload for %q", ErrMalformedEnvelope, env.Event)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", env.Event, err)
	}
	return out, nil
}

// Decode turns an inbound envelope into its typed event. Unknown events
// return (nil, nil) so callers can skip them.
func Decode(env Envelope) (any, error) {
	switch env.Event {
	case EventWelcome:
		return DecodePayload[Welcome](env)
	case EventUserCount:
		return DecodePayload[UserCount](env)
	case EventActiveUsers:
		return DecodePayload[ActiveUsers](env)
	case EventUserJoined:
		return DecodePayload[UserJoined](env)
	case EventUserLeft:
		return DecodePayload[UserLeft](env)
	case EventCursorUpdate:
		return DecodePayload[CursorUpdate](env)
	case EventLoadDrawing:
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return LoadDrawing{}, nil
		}
		return DecodePayload[LoadDrawing](env)
	case EventDrawStart:
		return DecodePayload[DrawStart](env)
	case EventDrawMove:
		return DecodePayload[DrawMove](env)
	case EventDrawEnd:
		return DecodePayload[DrawEnd](env)
	case EventClearCanvas:
		return ClearCanvas{}, nil
	case EventJoinRoom, EventLeaveRoom:
		return DecodePayload[RoomRef](env)
	case EventCursorMove:
		return DecodePayload[CursorMove](env)
	default:
		return nil, nil
	}
}
