package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTripsEnvelope(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(envelope{
		Type:       "GLOW_SESSION_COMPLETED",
		Data:       map[string]interface{}{"mood": "empowered"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	event, err := Decode(Subject("GLOW_SESSION_COMPLETED"), raw)

	require.NoError(t, err)
	assert.Equal(t, "GLOW_SESSION_COMPLETED", event.EventType())
	assert.Equal(t, "empowered", event.Payload()["mood"])
	assert.True(t, at.Equal(event.Timestamp()))
}

func TestDecode_FallsBackToSubject(t *testing.T) {
	event, err := Decode("events.USER_LOGIN", []byte(`{"data":{"user_id":"42"}}`))

	require.NoError(t, err)
	assert.Equal(t, "USER_LOGIN", event.EventType())
	assert.False(t, event.Timestamp().IsZero())
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode("events.X", []byte("nope"))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.GLOW_SESSION_FAILED", Subject("GLOW_SESSION_FAILED"))
}
