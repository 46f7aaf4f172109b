package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/radieske/gpu-reservation-poc/internal/reservation/dto"
)

// ErrMalformedResponse indica corpo que não é um objeto JSON
var ErrMalformedResponse = errors.New("response body is not a JSON object")

// HTTPError é devolvido quando a API responde com status 4xx/5xx
type HTTPError struct {
	Action     dto.Action
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gpu api %s: http %d: %s", actionLabel(e.Action), e.StatusCode, e.Body)
}

// TransportError é devolvido quando a requisição não chegou a completar:
// conexão recusada, DNS, timeout, cancelamento ou resposta ilegível.
type TransportError struct {
	Action dto.Action
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gpu api %s: %v", actionLabel(e.Action), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout informa se a falha foi por prazo esgotado
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// health check não tem action; usa um rótulo fixo nas mensagens e métricas
const healthLabel = "health"

func actionLabel(a dto.Action) string {
	if a == "" {
		return healthLabel
	}
	return string(a)
}
