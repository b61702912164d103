package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/printshop-backend/internal/entity"
)

func TestNewEnvelope(t *testing.T) {
	event := entity.OrderStatusChanged{OrderID: 42, Status: entity.StatusShipped, ChangedAt: time.Now()}

	env, err := NewEnvelope(event)
	require.NoError(t, err)

	_, err = uuid.Parse(env.ID)
	assert.NoError(t, err)
	assert.Equal(t, "OrderStatusChanged", env.Type)
	assert.Equal(t, int64(42), env.OrderID)

	var decoded entity.OrderStatusChanged
	require.NoError(t, json.Unmarshal(env.Data, &decoded))
	assert.Equal(t, entity.StatusShipped, decoded.Status)
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := NewEnvelope(entity.OrderDeleted{OrderID: 7})
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	got, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, "OrderDeleted", got.Type)
	assert.Equal(t, int64(7), got.OrderID)
}

func TestDecodeEnvelope_Rejects(t *testing.T) {
	_, err := DecodeEnvelope([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`{"id":"x"}`))
	assert.Error(t, err)
}
