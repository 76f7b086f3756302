package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityEvent_TimestampMilliseconds(t *testing.T) {
	e := SecurityEvent{
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC),
		EventType: EventInvalidLink,
		Details:   Details{"href": "https://evil.example.com"},
		SessionID: "session_1_abc",
	}
	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2024-05-01T12:00:00.123Z", raw["timestamp"])
	assert.Equal(t, "invalid_link", raw["event"])

	var back SecurityEvent
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 123000000, time.UTC)))
	assert.Equal(t, e.SessionID, back.SessionID)
}

func TestSecurityEvent_WholeSecondKeepsMilliseconds(t *testing.T) {
	data, err := json.Marshal(SecurityEvent{Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp":"2024-05-01T12:00:00.000Z"`)
}

func TestLevel_FallsBackToName(t *testing.T) {
	assert.Equal(t, SeverityError, SecurityEvent{EventType: EventDOMTampering}.Level())
	assert.Equal(t, SeverityWarning, SecurityEvent{EventType: EventContentDrop}.Level())
	assert.Equal(t, SeverityInfo, SecurityEvent{EventType: EventNavigation}.Level())
	assert.Equal(t, SeverityInfo, SecurityEvent{EventType: EventCSPViolation, Severity: SeverityInfo}.Level())
}
