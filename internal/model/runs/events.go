package runs

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/hitesh22rana/docsync/internal/pkg/sse"
)

// DecodeRunEvent converts a parsed frame into a RunEvent. It follows the
// same drop-and-continue contract as the change feed decode: a frame with
// no payload, a non-object payload, or no resolvable event name yields
// nil. The frame's "event:" and "id:" hints substitute for missing
// payload fields.
func DecodeRunEvent(logger *zap.Logger, frame sse.Frame) *RunEvent {
	if strings.TrimSpace(frame.Data) == "" {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(frame.Data), &payload); err != nil {
		logger.Warn("dropping malformed run event frame", zap.Error(err))
		return nil
	}
	if payload == nil {
		logger.Warn("dropping non-object run event frame")
		return nil
	}

	name := eventString(payload, "event")
	if name == "" {
		name = frame.Event
	}
	if name == "" {
		return nil
	}

	id := eventString(payload, "event_id")
	if id == "" {
		id = frame.ID
	}

	return &RunEvent{
		ID:          id,
		Name:        name,
		SequenceNum: eventSequence(payload),
		Level:       eventString(payload, "level"),
		Message:     eventString(payload, "message"),
		Timestamp:   eventString(payload, "timestamp"),
		Payload:     payload,
	}
}

// eventString returns the string value of a payload field, or "" when the
// field is absent or not a string.
func eventString(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return value
}

// eventSequence returns the server-assigned sequence number. JSON numbers
// decode as float64; anything else counts as sequence zero.
func eventSequence(payload map[string]any) uint64 {
	value, ok := payload["sequence_num"].(float64)
	if !ok || value < 0 {
		return 0
	}
	return uint64(value)
}
