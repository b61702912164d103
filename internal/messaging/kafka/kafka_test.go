package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_ReusesWriterPerTopic(t *testing.T) {
	b := NewKafkaBroker([]string{"localhost:9092"})

	w1 := b.writer("orders.events")
	w2 := b.writer("orders.events")
	w3 := b.writer("other")

	assert.Same(t, w1, w2)
	assert.NotSame(t, w1, w3)
	assert.Equal(t, "orders.events", w1.Topic)
	assert.True(t, w1.Async, "publishing must not wait for the broker")
	assert.Equal(t, BatchTimeout, w1.BatchTimeout)
	assert.Equal(t, MaxAttempts, w1.MaxAttempts)
	assert.NotNil(t, w1.Completion)

	require.NoError(t, b.Close())
	assert.Empty(t, b.writers)
}

func TestBroker_PublishRejectsUnencodableEvent(t *testing.T) {
	b := NewKafkaBroker([]string{"localhost:9092"})
	defer b.Close()

	err := b.PublishEvent(context.Background(), "orders.events", "1", make(chan int))
	assert.ErrorContains(t, err, "failed to marshal event")
}
