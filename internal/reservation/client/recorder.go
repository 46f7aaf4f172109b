package client

import (
	"context"
	"time"

	"github.com/radieske/gpu-reservation-poc/internal/reservation/dto"
)

// CallRecord resume uma chamada de envelope para fins de auditoria
type CallRecord struct {
	Action     dto.Action
	UserID     string
	StatusCode int // 0 quando não houve resposta HTTP
	Outcome    string
	Duration   time.Duration
	Err        error
	At         time.Time
}

// Recorder recebe um CallRecord após cada chamada.
// Erros do Recorder são apenas logados; nunca alteram o resultado da chamada.
type Recorder interface {
	RecordCall(ctx context.Context, rec CallRecord) error
}
