// Package mqtt publishes received AC commands and daemon lifecycle events,
// with an abstraction for testing.
package mqtt

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sweeney/acremote/internal/command"
)

// DefaultTopic is the MQTT topic for received commands.
const DefaultTopic = "home/ac/ir/received"

// DefaultSystemTopic is the MQTT topic for system lifecycle events.
const DefaultSystemTopic = "home/ac/ir/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a received command to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event CommandEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandEvent is a command decoded from a validated capture.
type CommandEvent struct {
	ID        string
	Timestamp time.Time
	Command   command.Command
	Record    command.Record
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "STDIN" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Command CommandPayload `json:"command"`
}

// CommandPayload contains the received command details.
type CommandPayload struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Power       string `json:"power"`
	Mode        string `json:"mode"`
	Fan         string `json:"fan,omitempty"`
	Temperature int    `json:"temperature,omitempty"`
	Raw         string `json:"raw"`
}

// FormatPayload creates the JSON payload for a received command.
func FormatPayload(event CommandEvent) ([]byte, error) {
	raw := event.Record.Bytes()
	power := "OFF"
	if event.Command.On {
		power = "ON"
	}
	payload := Payload{
		Command: CommandPayload{
			ID:          event.ID,
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Power:       power,
			Mode:        string(event.Command.Mode),
			Fan:         string(event.Command.Fan),
			Temperature: event.Command.Temperature,
			Raw:         hex.EncodeToString(raw[:]),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// WillPayload is the last-will message the broker publishes on the system
// topic when the connection drops without a clean disconnect.
func WillPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "CONNECTION_LOST"})
	return data
}
