package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, zerolog.Nop())

	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(context.Background(), Event{
		Resource: "colleges", Action: ActionUpdated, Key: "CICS", PreviousKey: "CCS", OccurredAt: at,
	}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "colleges/CICS", string(w.msgs[0].Key))
	assert.Equal(t, at, w.msgs[0].Time)

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, ActionUpdated, got.Action)
	assert.Equal(t, "CCS", got.PreviousKey)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_StampsTime(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, zerolog.Nop())

	require.NoError(t, p.Publish(context.Background(), Event{Resource: "students", Action: ActionCreated, Key: "2024-0001"}))
	assert.False(t, w.msgs[0].Time.IsZero())
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := newKafkaPublisher(&recordingWriter{err: errors.New("broker down")}, zerolog.Nop())
	err := p.Publish(context.Background(), Event{Resource: "programs", Action: ActionDeleted, Key: "BSCS"})
	assert.ErrorContains(t, err, "broker down")
}
