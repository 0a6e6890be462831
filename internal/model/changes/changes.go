package changes

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/hitesh22rana/docsync/internal/pkg/sse"
)

// RowSnapshot is the listing-row projection attached to a change event.
type RowSnapshot map[string]any

// ChangeEvent represents one entry in the document change feed.
type ChangeEvent struct {
	// Type is the change type. Always non-empty after a successful decode.
	Type string

	// Cursor is the server-issued position token for this event. Always
	// non-empty after a successful decode.
	Cursor string

	// DocumentID identifies the affected document, when reported.
	DocumentID string

	// MatchesFilters reports whether the change matches the consumer's
	// active listing filters.
	MatchesFilters bool

	// RequiresRefresh reports whether the consumer must reload the full
	// listing instead of applying the change incrementally.
	RequiresRefresh bool

	// Row is the updated listing row, when the server included one.
	Row RowSnapshot
}

// DecodeChangeEvent converts a parsed frame into a ChangeEvent. It never
// panics: a frame with no payload, a payload that is not a JSON object, or
// a payload that resolves to an empty type or cursor yields nil, and the
// stream continues. Malformed payloads are logged and dropped. The frame's
// "event:" and "id:" hints substitute for missing payload fields.
func DecodeChangeEvent(logger *zap.Logger, frame sse.Frame) *ChangeEvent {
	if strings.TrimSpace(frame.Data) == "" {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(frame.Data), &payload); err != nil {
		logger.Warn("dropping malformed change frame", zap.Error(err))
		return nil
	}
	if payload == nil {
		logger.Warn("dropping non-object change frame")
		return nil
	}

	eventType := stringField(payload, "type")
	if eventType == "" {
		eventType = frame.Event
	}
	cursor := stringField(payload, "cursor")
	if cursor == "" {
		cursor = frame.ID
	}
	if eventType == "" || cursor == "" {
		return nil
	}

	event := &ChangeEvent{
		Type:            eventType,
		Cursor:          cursor,
		DocumentID:      stringField(payload, "documentId"),
		MatchesFilters:  boolField(payload, "matchesFilters"),
		RequiresRefresh: boolField(payload, "requiresRefresh"),
	}
	if row, ok := payload["row"].(map[string]any); ok {
		event.Row = row
	}

	return event
}

// stringField returns the string value of a payload field, or "" when the
// field is absent or not a string.
func stringField(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return value
}

// boolField returns the boolean value of a payload field, defaulting to
// false when the field is absent or not a boolean.
func boolField(payload map[string]any, key string) bool {
	value, _ := payload[key].(bool)
	return value
}
