package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	actorID := uuid.New()
	data, err := json.Marshal(ShareRequestedPayload{
		ShareRequestID: uuid.New(),
		OwnerID:        actorID,
		ItemType:       enums.ShareItemGame,
		ItemID:         uuid.New(),
		ChildCount:     2,
	})
	require.NoError(t, err)

	envelope := PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Actor:      &ActorRef{UserID: actorID},
		Data:       data,
	}
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	var decoded PayloadEnvelope
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, envelope.Version, decoded.Version)
	require.Equal(t, envelope.EventID, decoded.EventID)
	require.NotNil(t, decoded.Actor)
	require.Equal(t, actorID, decoded.Actor.UserID)

	var payload ShareRequestedPayload
	require.NoError(t, json.Unmarshal(decoded.Data, &payload))
	require.Equal(t, enums.ShareItemGame, payload.ItemType)
	require.Equal(t, 2, payload.ChildCount)
}

func TestEnvelopeFieldNames(t *testing.T) {
	envelope := PayloadEnvelope{
		Version:    1,
		EventID:    "evt-1",
		OccurredAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Data:       json.RawMessage(`{}`),
	}
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"version", "eventId", "occurredAt", "data"} {
		require.Contains(t, fields, key)
	}
	require.NotContains(t, fields, "actor", "nil actor must be omitted")
}
