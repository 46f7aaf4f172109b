package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/gpu-reservation-poc/internal/shared/kafka"
	"github.com/radieske/gpu-reservation-poc/pkg/contracts/events"
)

// ErrInvalidEvent marca mensagens que nunca vão processar; vão direto pra DLQ
var ErrInvalidEvent = errors.New("invalid api call event")

// Store é onde o histórico é persistido (Postgres)
type Store interface {
	InsertCall(ctx context.Context, e events.APICallRecorded) (bool, error)
}

// LastCallCache guarda a última chamada por usuário (Redis)
type LastCallCache interface {
	SetLast(ctx context.Context, e events.APICallRecorded) error
}

// MessageReader é o subconjunto de *kafka.Reader usado no loop
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
}

const (
	resultStored    = "stored"
	resultDuplicate = "duplicate"
	resultInvalid   = "invalid"
	resultFailed    = "failed"
)

// Processor consome eventos gpu_api_calls e atualiza Postgres e Redis
type Processor struct {
	log       *zap.Logger
	store     Store
	cache     LastCallCache
	processed *prometheus.CounterVec

	// Retry simples antes da DLQ
	Retries int
	Backoff time.Duration
}

func NewProcessor(log *zap.Logger, reg prometheus.Registerer, store Store, cache LastCallCache) *Processor {
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "call_audit_processed_total",
		Help: "Eventos de chamada processados por resultado",
	}, []string{"result"})
	reg.MustRegister(processed)

	return &Processor{
		log:       log,
		store:     store,
		cache:     cache,
		processed: processed,
		Retries:   3,
		Backoff:   300 * time.Millisecond,
	}
}

// Handle processa uma mensagem:
// 1. Decodifica e valida o evento
// 2. Persiste no Postgres (idempotente por event_id)
// 3. Atualiza a última chamada do usuário no Redis (falha só gera log)
func (p *Processor) Handle(ctx context.Context, value []byte) error {
	var e events.APICallRecorded
	if err := json.Unmarshal(value, &e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if e.EventID == "" || e.Action == "" {
		return fmt.Errorf("%w: event_id and action are required", ErrInvalidEvent)
	}
	// event_id é a PK UUID no Postgres; id fora do formato nunca vai gravar
	if _, err := uuid.Parse(e.EventID); err != nil {
		return fmt.Errorf("%w: event_id: %v", ErrInvalidEvent, err)
	}

	inserted, err := p.store.InsertCall(ctx, e)
	if err != nil {
		return err
	}
	if !inserted {
		p.processed.WithLabelValues(resultDuplicate).Inc()
		p.log.Debug("duplicate api call event", zap.String("event_id", e.EventID))
		return nil
	}

	if err := p.cache.SetLast(ctx, e); err != nil {
		p.log.Warn("cache last call", zap.String("userId", e.UserID), zap.Error(err))
	}

	p.processed.WithLabelValues(resultStored).Inc()
	return nil
}

// Run é o loop principal: lê do Kafka, processa e manda falhas pra DLQ.
// Termina quando ctx é cancelado.
func (p *Processor) Run(ctx context.Context, r MessageReader, dlq kafka.MessageWriter) error {
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("kafka read", zap.Error(err))
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		if err := p.handleWithRetry(ctx, msg.Value); err != nil {
			// desligando no meio do backoff: não é falha do evento
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Error("process api call event", zap.String("key", string(msg.Key)), zap.Error(err))
			if dlq != nil {
				if derr := kafka.WriteJSON(ctx, dlq, string(msg.Key), msg.Value); derr != nil {
					p.log.Error("dlq write", zap.Error(derr))
				}
			}
		}
	}
}

func (p *Processor) handleWithRetry(ctx context.Context, value []byte) error {
	err := p.Handle(ctx, value)
	for i := 0; err != nil && !errors.Is(err, ErrInvalidEvent) && i < p.Retries; i++ {
		if !sleep(ctx, time.Duration(i+1)*p.Backoff) {
			return ctx.Err()
		}
		err = p.Handle(ctx, value)
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidEvent):
		p.processed.WithLabelValues(resultInvalid).Inc()
	default:
		p.processed.WithLabelValues(resultFailed).Inc()
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
