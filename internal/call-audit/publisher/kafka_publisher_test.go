package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/gpu-reservation-poc/internal/reservation/client"
	"github.com/radieske/gpu-reservation-poc/internal/reservation/dto"
	"github.com/radieske/gpu-reservation-poc/internal/shared/kafka"
	"github.com/radieske/gpu-reservation-poc/pkg/contracts/events"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return c.err
}

func TestRecordCall_PublishesEvent(t *testing.T) {
	w := &captureWriter{}
	p := NewKafkaPublisher(w, "reservation-cli")
	at := time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)

	err := p.RecordCall(context.Background(), client.CallRecord{
		Action:     dto.ActionCancelReservation,
		UserID:     "user-who-owns-reservation",
		StatusCode: 404,
		Outcome:    client.OutcomeHTTPError,
		Duration:   1250 * time.Millisecond,
		Err:        errors.New("gpu api cancel_reservation: http 404: not found"),
		At:         at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "user-who-owns-reservation", string(w.msgs[0].Key))

	var ev events.APICallRecorded
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	_, perr := uuid.Parse(ev.EventID)
	assert.NoError(t, perr)
	assert.Equal(t, "cancel_reservation", ev.Action)
	assert.Equal(t, client.OutcomeHTTPError, ev.Outcome)
	assert.Equal(t, 404, ev.StatusCode)
	assert.Equal(t, int64(1250), ev.DurationMs)
	assert.Contains(t, ev.Error, "http 404")
	assert.Equal(t, "reservation-cli", ev.Source)
	assert.True(t, at.Equal(ev.At))
}

func TestRecordCall_WriterError(t *testing.T) {
	w := &captureWriter{err: errors.New("no brokers")}
	p := NewKafkaPublisher(w, "test")

	err := p.RecordCall(context.Background(), client.CallRecord{Action: dto.ActionListMyReservations, UserID: "u"})
	assert.ErrorContains(t, err, "no brokers")
}

func TestToEvent_UniqueIDs(t *testing.T) {
	rec := client.CallRecord{Action: dto.ActionListMyReservations, UserID: "u", Outcome: client.OutcomeOK}
	a, b := ToEvent(rec, "x"), ToEvent(rec, "x")
	assert.NotEqual(t, a.EventID, b.EventID)
	assert.Empty(t, a.Error)
}
