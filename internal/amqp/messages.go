package amqp

import (
	"encoding/json"
	"time"
)

// Change kinds carried by settings-changed messages.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// SettingsChangedMessage tells the worker that a user's pay-cycle
// configuration changed. It carries only the user ID and the kind of
// change, the worker fetches the current settings from storage.
type SettingsChangedMessage struct {
	UserID    int64     `json:"user_id"`
	Change    string    `json:"change"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSettingsChangedMessage creates a settings-changed message
func NewSettingsChangedMessage(userID int64, change string) *SettingsChangedMessage {
	return &SettingsChangedMessage{
		UserID:    userID,
		Change:    change,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SettingsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func SettingsChangedMessageFromJSON(data []byte) (*SettingsChangedMessage, error) {
	var msg SettingsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
