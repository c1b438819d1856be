package whoop

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Event is a "skinny" webhook notification: it names a resource but does not
// carry its data.
type Event struct {
	UserID  string
	ID      string
	Type    string
	TraceID string
}

// Resource returns the resource half of the event type ("sleep" in "sleep.updated").
func (e *Event) Resource() string {
	resource, _, _ := strings.Cut(e.Type, ".")
	return resource
}

// Action returns the action half of the event type ("updated" in "sleep.updated").
func (e *Event) Action() string {
	_, action, _ := strings.Cut(e.Type, ".")
	return action
}

// flexibleID accepts ids encoded as JSON strings or numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}

type rawEvent struct {
	UserID  flexibleID `json:"user_id"`
	ID      flexibleID `json:"id"`
	Type    string     `json:"type"`
	TraceID string     `json:"trace_id"`
	Data    *struct {
		ID flexibleID `json:"id"`
	} `json:"data"`
}

// ParseEvent decodes a notification body. The resource id may be top-level
// ("id") or nested ("data.id").
func ParseEvent(body []byte) (*Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse webhook json: %w", err)
	}

	event := &Event{
		UserID:  string(raw.UserID),
		ID:      string(raw.ID),
		Type:    strings.TrimSpace(raw.Type),
		TraceID: raw.TraceID,
	}
	if event.ID == "" && raw.Data != nil {
		event.ID = string(raw.Data.ID)
	}

	if event.Type == "" {
		return nil, errors.New("webhook event type is required")
	}
	return event, nil
}
