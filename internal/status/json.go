package status

import (
	"encoding/hex"
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string           `json:"event,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	StartTime     string           `json:"start_time"`
	Timestamp     string           `json:"timestamp"`
	MQTT          MQTTStatus       `json:"mqtt"`
	Counts        CountsJSON       `json:"counts"`
	LastCommand   *LastCommandJSON `json:"last_command,omitempty"`
	Config        ConfigJSON       `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of Counts.
type CountsJSON struct {
	Bursts         int `json:"bursts"`
	Accepted       int `json:"accepted"`
	Malformed      int `json:"malformed"`
	ChecksumFailed int `json:"checksum_failed"`
	UnknownCode    int `json:"unknown_code"`
}

// LastCommandJSON is the JSON representation of the latest command.
type LastCommandJSON struct {
	ID          string `json:"id"`
	ReceivedAt  string `json:"received_at"`
	Power       string `json:"power"`
	Mode        string `json:"mode"`
	Fan         string `json:"fan,omitempty"`
	Temperature int    `json:"temperature,omitempty"`
	Raw         string `json:"raw"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip        string `json:"chip"`
	RxLine      int    `json:"rx_line"`
	TickMs      int64  `json:"tick_ms"`
	IdleMs      int64  `json:"idle_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Counts
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Bursts:         c.Bursts,
			Accepted:       c.Accepted,
			Malformed:      c.Malformed,
			ChecksumFailed: c.ChecksumFailed,
			UnknownCode:    c.UnknownCode,
		},
		Config: ConfigJSON{
			Chip:        snap.Config.Chip,
			RxLine:      snap.Config.RxLine,
			TickMs:      snap.Config.TickMs,
			IdleMs:      snap.Config.IdleMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if last := snap.Last; last != nil {
		raw := last.Record.Bytes()
		power := "OFF"
		if last.Command.On {
			power = "ON"
		}
		inner.LastCommand = &LastCommandJSON{
			ID:          last.ID,
			ReceivedAt:  last.ReceivedAt.UTC().Format(time.RFC3339),
			Power:       power,
			Mode:        string(last.Command.Mode),
			Fan:         string(last.Command.Fan),
			Temperature: last.Command.Temperature,
			Raw:         hex.EncodeToString(raw[:]),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
