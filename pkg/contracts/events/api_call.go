package events

import "time"

// Evento publicado no tópico "gpu_api_calls" após cada chamada de envelope
type APICallRecorded struct {
	EventID    string    `json:"event_id"`
	Action     string    `json:"action"`  // "reserve_gpu_from_nlp" | "get_my_reservations" | "cancel_reservation"
	UserID     string    `json:"user_id"` // user_context.sub enviado
	Outcome    string    `json:"outcome"` // "ok" | "http_error" | "transport_error"
	StatusCode int       `json:"status_code,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Source     string    `json:"source"` // binário que fez a chamada
	At         time.Time `json:"at"`
}
