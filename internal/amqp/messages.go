package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReloadMessage asks every dashboard instance to drop its cached copy of a
// data source. An empty Source means every source.
type ReloadMessage struct {
	Source    string    `json:"source"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReloadMessage creates a reload message stamped with the current time.
func NewReloadMessage(source, origin string) *ReloadMessage {
	return &ReloadMessage{
		Source:    strings.TrimSpace(source),
		Origin:    origin,
		Timestamp: time.Now().UTC(),
	}
}

// All reports whether the message targets every source.
func (m *ReloadMessage) All() bool {
	return m.Source == ""
}

// ToJSON converts the message to JSON bytes
func (m *ReloadMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReloadMessageFromJSON decodes a message body.
func ReloadMessageFromJSON(data []byte) (*ReloadMessage, error) {
	var msg ReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode reload message: %w", err)
	}
	msg.Source = strings.TrimSpace(msg.Source)
	return &msg, nil
}
