package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/gpu-reservation-poc/pkg/contracts/events"
)

// Postgres persiste o histórico de chamadas à API de GPU
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const schema = `
CREATE TABLE IF NOT EXISTS gpu_api_calls (
	event_id    UUID PRIMARY KEY,
	action      TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	status_code INT,
	duration_ms BIGINT NOT NULL,
	error       TEXT,
	source      TEXT NOT NULL,
	called_at   TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_gpu_api_calls_user ON gpu_api_calls (user_id, called_at DESC);
`

// EnsureSchema cria tabela e índice se ainda não existirem
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertCall grava o evento; idempotente por event_id (reentrega do Kafka)
// Retorna false quando o evento já existia
func (p *Postgres) InsertCall(ctx context.Context, e events.APICallRecorded) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO gpu_api_calls (event_id, action, user_id, outcome, status_code, duration_ms, error, source, called_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (event_id) DO NOTHING`,
		e.EventID, e.Action, e.UserID, e.Outcome, nullInt(e.StatusCode), e.DurationMs, nullString(e.Error), e.Source, e.At)
	if err != nil {
		return false, fmt.Errorf("insert api call: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
