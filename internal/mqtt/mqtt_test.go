package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/acremote/internal/command"
)

func coolEvent() CommandEvent {
	cmd := command.Command{On: true, Mode: command.ModeCool, Fan: command.FanHigh, Temperature: 22}
	return CommandEvent{
		ID:        "5f1c2a9e-7a4b-4d0e-9a57-0c3d1f0e2b11",
		Timestamp: time.Date(2026, 7, 14, 13, 5, 0, 0, time.UTC),
		Command:   cmd,
		Record:    command.Encode(cmd),
	}
}

func TestFormatPayload(t *testing.T) {
	payload, err := FormatPayload(coolEvent())
	require.NoError(t, err)

	var parsed Payload
	require.NoError(t, json.Unmarshal(payload, &parsed))

	assert.Equal(t, "5f1c2a9e-7a4b-4d0e-9a57-0c3d1f0e2b11", parsed.Command.ID)
	assert.Equal(t, "2026-07-14T13:05:00Z", parsed.Command.Timestamp)
	assert.Equal(t, "ON", parsed.Command.Power)
	assert.Equal(t, "COOL", parsed.Command.Mode)
	assert.Equal(t, "HIGH", parsed.Command.Fan)
	assert.Equal(t, 22, parsed.Command.Temperature)
	assert.Equal(t, "b23f70", parsed.Command.Raw)
}

func TestFormatPayloadExactJSON(t *testing.T) {
	payload, err := FormatPayload(coolEvent())
	require.NoError(t, err)

	want := `{"command":{"id":"5f1c2a9e-7a4b-4d0e-9a57-0c3d1f0e2b11","timestamp":"2026-07-14T13:05:00Z","power":"ON","mode":"COOL","fan":"HIGH","temperature":22,"raw":"b23f70"}}`
	assert.Equal(t, want, string(payload))
}

func TestFormatPayloadOffOmitsFanAndTemperature(t *testing.T) {
	cmd := command.Command{On: false, Mode: command.ModeHeat}
	event := CommandEvent{ID: "x", Timestamp: time.Unix(0, 0), Command: cmd, Record: command.Encode(cmd)}

	payload, err := FormatPayload(event)
	require.NoError(t, err)

	s := string(payload)
	assert.Contains(t, s, `"power":"OFF"`)
	assert.Contains(t, s, `"mode":"HEAT"`)
	assert.NotContains(t, s, `"fan"`)
	assert.NotContains(t, s, `"temperature"`)
	assert.Contains(t, s, `"raw":"b27bec"`)
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	event := coolEvent()
	event.Timestamp = time.Date(2026, 2, 2, 17, 18, 12, 0, loc)

	payload, err := FormatPayload(event)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"timestamp":"2026-02-02T22:18:12Z"`)
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	require.NoError(t, err)
	assert.Equal(t, `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`, string(payload))
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "STARTUP",
	})
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "reason")
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "IGNORED", RawPayload: raw})
	require.NoError(t, err)
	assert.Equal(t, raw, payload)
}

func TestWillPayload(t *testing.T) {
	assert.Equal(t, `{"system":{"event":"OFFLINE","reason":"CONNECTION_LOST"}}`, string(WillPayload()))
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	require.NoError(t, f.Publish(coolEvent()))
	require.Len(t, f.Events, 1)
	require.Len(t, f.Payloads, 1)
	assert.Equal(t, coolEvent(), f.Events[0])
	assert.Contains(t, string(f.Payloads[0]), `"raw":"b23f70"`)

	require.NoError(t, f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true}))
	require.Len(t, f.SystemEvents, 1)
	assert.True(t, f.SystemEvents[0].Retained)
	assert.Len(t, f.SystemPayloads, 1)
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	assert.EqualError(t, f.Publish(coolEvent()), "broker down")
	assert.EqualError(t, f.PublishSystem(SystemEvent{Event: "STARTUP"}), "broker down")
	assert.Empty(t, f.Events)
	assert.Empty(t, f.SystemEvents)
}

func TestFakePublisherCloseAndConnected(t *testing.T) {
	f := NewFakePublisher()
	assert.False(t, f.IsConnected())
	f.Connected = true
	assert.True(t, f.IsConnected())

	require.NoError(t, f.Close())
	assert.True(t, f.Closed)
}

func TestFakePublisherPreservesOrder(t *testing.T) {
	f := NewFakePublisher()
	for deg := command.MinTemperature; deg <= command.MaxTemperature; deg++ {
		e := coolEvent()
		e.Command.Temperature = deg
		require.NoError(t, f.Publish(e))
	}

	require.Len(t, f.Events, command.MaxTemperature-command.MinTemperature+1)
	for i, e := range f.Events {
		assert.Equal(t, command.MinTemperature+i, e.Command.Temperature)
	}
}

func TestFakePublisherImplementsInterfaces(t *testing.T) {
	var _ Publisher = NewFakePublisher()
	var _ ConnectionStatus = NewFakePublisher()
	var _ Publisher = (*RealPublisher)(nil)
	var _ ConnectionStatus = (*RealPublisher)(nil)
}
