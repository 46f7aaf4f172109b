package dto

import (
	"errors"
	"fmt"
)

// Action identifica a operação executada pelo backend de reservas de GPU
type Action string

const (
	ActionReserveFromNLP     Action = "reserve_gpu_from_nlp"
	ActionListMyReservations Action = "get_my_reservations"
	ActionCancelReservation  Action = "cancel_reservation"
)

// IDs usados em user_context quando o chamador não informa um usuário
const (
	DefaultUserID             = "test-user-123"
	DefaultReserveUserID      = "test-user-nlp"
	DefaultReservationsUserID = "test-user-reservations"
	DefaultCancelUserID       = "test-user-cancel"
)

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrPayloadMismatch = errors.New("payload does not match action")
	ErrNilPayload      = errors.New("payload is nil")
)

// ValidationError indica que o envelope foi rejeitado antes de ser enviado
type ValidationError struct {
	Action Action
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %q request: %v", e.Action, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Valid informa se a action pertence ao conjunto suportado pela API
func (a Action) Valid() bool {
	switch a {
	case ActionReserveFromNLP, ActionListMyReservations, ActionCancelReservation:
		return true
	}
	return false
}

// Payload é o corpo específico de cada action.
// Cada tipo concreto sabe a qual action pertence.
type Payload interface {
	Action() Action
	Validate() error
}

// ReserveFromNLPPayload pede uma reserva descrita em linguagem natural.
// O texto vai como veio, inclusive vazio; quem interpreta é o backend.
type ReserveFromNLPPayload struct {
	NaturalLanguageRequest string `json:"natural_language_request"`
}

func (ReserveFromNLPPayload) Action() Action { return ActionReserveFromNLP }
func (ReserveFromNLPPayload) Validate() error { return nil }

// ListReservationsPayload é sempre serializado como {}
type ListReservationsPayload struct{}

func (ListReservationsPayload) Action() Action { return ActionListMyReservations }
func (ListReservationsPayload) Validate() error { return nil }

// CancelReservationPayload cancela uma reserva pelo ID.
// O ID é repassado como veio, inclusive vazio; quem decide é o backend.
type CancelReservationPayload struct {
	ReservationID string `json:"reservation_id"`
}

func (CancelReservationPayload) Action() Action { return ActionCancelReservation }
func (CancelReservationPayload) Validate() error { return nil }

// UserContext simula as claims que o gateway de autenticação injetaria
type UserContext struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

// NewUserContext monta o contexto com o e-mail placeholder derivado do ID
func NewUserContext(userID string) UserContext {
	return UserContext{Sub: userID, Email: userID + "@example.com"}
}

// Envelope é o corpo enviado em todo POST /api
type Envelope struct {
	Action      Action      `json:"action"`
	Payload     Payload     `json:"payload"`
	UserContext UserContext `json:"user_context"`
}

// NewEnvelope valida o payload e monta o envelope.
// userID vazio cai no DefaultUserID.
func NewEnvelope(p Payload, userID string) (Envelope, error) {
	if p == nil {
		return Envelope{}, &ValidationError{Err: ErrNilPayload}
	}
	if userID == "" {
		userID = DefaultUserID
	}
	env := Envelope{
		Action:      p.Action(),
		Payload:     p,
		UserContext: NewUserContext(userID),
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Validate confere action conhecida, payload coerente com a action e o próprio payload
func (e Envelope) Validate() error {
	if !e.Action.Valid() {
		return &ValidationError{Action: e.Action, Err: ErrUnknownAction}
	}
	if e.Payload == nil {
		return &ValidationError{Action: e.Action, Err: ErrNilPayload}
	}
	if e.Payload.Action() != e.Action {
		return &ValidationError{Action: e.Action, Err: ErrPayloadMismatch}
	}
	if err := e.Payload.Validate(); err != nil {
		return &ValidationError{Action: e.Action, Err: err}
	}
	return nil
}
