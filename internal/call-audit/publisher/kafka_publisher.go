package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/gpu-reservation-poc/internal/reservation/client"
	"github.com/radieske/gpu-reservation-poc/internal/shared/kafka"
	"github.com/radieske/gpu-reservation-poc/pkg/contracts/events"
)

// KafkaPublisher implementa client.Recorder publicando cada chamada no Kafka
type KafkaPublisher struct {
	Writer kafka.MessageWriter
	Source string
}

func NewKafkaPublisher(w kafka.MessageWriter, source string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Source: source}
}

// RecordCall converte o CallRecord no evento de contrato; chave = userId
func (p *KafkaPublisher) RecordCall(ctx context.Context, rec client.CallRecord) error {
	b, err := json.Marshal(ToEvent(rec, p.Source))
	if err != nil {
		return fmt.Errorf("marshal api call event: %w", err)
	}
	return kafka.WriteJSON(ctx, p.Writer, rec.UserID, b)
}

// ToEvent monta o evento com um event_id novo
func ToEvent(rec client.CallRecord, source string) events.APICallRecorded {
	e := events.APICallRecorded{
		EventID:    uuid.NewString(),
		Action:     string(rec.Action),
		UserID:     rec.UserID,
		Outcome:    rec.Outcome,
		StatusCode: rec.StatusCode,
		DurationMs: rec.Duration.Milliseconds(),
		Source:     source,
		At:         rec.At,
	}
	if rec.Err != nil {
		e.Error = rec.Err.Error()
	}
	return e
}
