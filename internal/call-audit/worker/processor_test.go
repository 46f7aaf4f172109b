package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/gpu-reservation-poc/pkg/contracts/events"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) InsertCall(ctx context.Context, e events.APICallRecorded) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) SetLast(ctx context.Context, e events.APICallRecorded) error {
	return m.Called(ctx, e).Error(0)
}

func newTestProcessor(t *testing.T, s Store, c LastCallCache) *Processor {
	p := NewProcessor(zaptest.NewLogger(t), prometheus.NewRegistry(), s, c)
	p.Backoff = time.Millisecond
	return p
}

func sampleEvent() events.APICallRecorded {
	return events.APICallRecorded{
		EventID:    "3b6b1c1e-8d0a-4c55-9b1e-5e2f3a9a0001",
		Action:     "get_my_reservations",
		UserID:     "user-abcde",
		Outcome:    "ok",
		StatusCode: 200,
		DurationMs: 42,
		Source:     "reservation-cli",
		At:         time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
}

func encode(t *testing.T, e events.APICallRecorded) []byte {
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return b
}

func TestHandle_StoresAndCaches(t *testing.T) {
	s, c := &mockStore{}, &mockCache{}
	e := sampleEvent()
	s.On("InsertCall", mock.Anything, e).Return(true, nil).Once()
	c.On("SetLast", mock.Anything, e).Return(nil).Once()

	p := newTestProcessor(t, s, c)
	require.NoError(t, p.Handle(context.Background(), encode(t, e)))

	s.AssertExpectations(t)
	c.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.processed.WithLabelValues(resultStored)))
}

func TestHandle_DuplicateSkipsCache(t *testing.T) {
	s, c := &mockStore{}, &mockCache{}
	e := sampleEvent()
	s.On("InsertCall", mock.Anything, e).Return(false, nil).Once()

	p := newTestProcessor(t, s, c)
	require.NoError(t, p.Handle(context.Background(), encode(t, e)))

	c.AssertNotCalled(t, "SetLast", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.processed.WithLabelValues(resultDuplicate)))
}

func TestHandle_CacheFailureIsNotFatal(t *testing.T) {
	s, c := &mockStore{}, &mockCache{}
	e := sampleEvent()
	s.On("InsertCall", mock.Anything, e).Return(true, nil)
	c.On("SetLast", mock.Anything, e).Return(errors.New("redis down"))

	p := newTestProcessor(t, s, c)
	assert.NoError(t, p.Handle(context.Background(), encode(t, e)))
}

func TestHandle_InvalidEvents(t *testing.T) {
	s, c := &mockStore{}, &mockCache{}
	p := newTestProcessor(t, s, c)

	assert.ErrorIs(t, p.Handle(context.Background(), []byte("{not json")), ErrInvalidEvent)

	e := sampleEvent()
	e.EventID = ""
	assert.ErrorIs(t, p.Handle(context.Background(), encode(t, e)), ErrInvalidEvent)

	s.AssertNotCalled(t, "InsertCall", mock.Anything, mock.Anything)
}

// fakeReader entrega as mensagens e depois bloqueia até o ctx acabar
type fakeReader struct {
	msgs []kafkago.Message
	i    int
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	if f.i < len(f.msgs) {
		m := f.msgs[f.i]
		f.i++
		return m, nil
	}
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

type captureWriter struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func TestRun_RetriesThenDLQ(t *testing.T) {
	s, c := &mockStore{}, &mockCache{}
	good, bad := sampleEvent(), sampleEvent()
	bad.EventID = "3b6b1c1e-8d0a-4c55-9b1e-5e2f3a9a0002"

	s.On("InsertCall", mock.Anything, good).Return(true, nil).Once()
	c.On("SetLast", mock.Anything, good).Return(nil).Once()
	s.On("InsertCall", mock.Anything, bad).Return(false, errors.New("pg down")).Times(4)

	reader := &fakeReader{msgs: []kafkago.Message{
		{Key: []byte("user-abcde"), Value: encode(t, good)},
		{Key: []byte("user-abcde"), Value: encode(t, bad)},
		{Key: []byte("x"), Value: []byte("garbage")},
	}}
	dlq := &captureWriter{}
	p := newTestProcessor(t, s, c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, reader, dlq) }()

	require.Eventually(t, func() bool {
		dlq.mu.Lock()
		defer dlq.mu.Unlock()
		return len(dlq.msgs) == 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	s.AssertExpectations(t)
	assert.Equal(t, encode(t, bad), dlq.msgs[0].Value)
	assert.Equal(t, "garbage", string(dlq.msgs[1].Value))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.processed.WithLabelValues(resultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.processed.WithLabelValues(resultInvalid)))
}

func TestHandle_NonUUIDEventIsInvalid(t *testing.T) {
	s, c := &mockStore{}, &mockCache{}
	p := newTestProcessor(t, s, c)

	e := sampleEvent()
	e.EventID = "call-42"
	err := p.handleWithRetry(context.Background(), encode(t, e))
	assert.ErrorIs(t, err, ErrInvalidEvent)

	s.AssertNotCalled(t, "InsertCall", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.processed.WithLabelValues(resultInvalid)))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.processed.WithLabelValues(resultFailed)))
}

func TestRun_ShutdownDuringBackoffSkipsDLQ(t *testing.T) {
	s, c := &mockStore{}, &mockCache{}
	e := sampleEvent()

	attempted := make(chan struct{})
	var once sync.Once
	s.On("InsertCall", mock.Anything, e).Return(false, errors.New("pg down")).
		Run(func(mock.Arguments) { once.Do(func() { close(attempted) }) })

	reader := &fakeReader{msgs: []kafkago.Message{{Key: []byte("user-abcde"), Value: encode(t, e)}}}
	dlq := &captureWriter{}
	p := newTestProcessor(t, s, c)
	p.Backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, reader, dlq) }()

	<-attempted
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	dlq.mu.Lock()
	defer dlq.mu.Unlock()
	assert.Empty(t, dlq.msgs)
	assert.Equal(t, 0.0, testutil.ToFloat64(p.processed.WithLabelValues(resultFailed)))
}
