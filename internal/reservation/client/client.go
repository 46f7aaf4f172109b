package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/radieske/gpu-reservation-poc/internal/reservation/dto"
)

// TimingKey é a chave injetada em toda resposta de envelope
const TimingKey = "total_request_time_ms"

const (
	healthPath = "/health"
	apiPath    = "/api"
)

// Response é o objeto JSON devolvido pela API, acrescido de TimingKey
type Response map[string]any

// RequestTimeMs devolve o tempo medido no cliente, se presente
func (r Response) RequestTimeMs() (int64, bool) {
	v, ok := r[TimingKey].(int64)
	return v, ok
}

// Client fala com o backend de reservas de GPU.
// Uma única sessão resty é reaproveitada entre chamadas; cada chamada é
// uma tentativa síncrona, sem retry nem cache.
type Client struct {
	baseURL  string
	conn     *resty.Client
	log      *zap.Logger
	metrics  *Metrics
	recorder Recorder
}

// Option configura o Client em New
type Option func(*Client)

// WithLogger define o logger do cliente (default: no-op)
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTimeout define o timeout total de cada requisição na sessão
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.conn.SetTimeout(d) }
}

// WithMetrics liga a coleta de métricas Prometheus
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRecorder liga o envio de CallRecord após cada chamada de envelope
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithTransport troca o RoundTripper da sessão
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.conn.SetTransport(rt) }
}

// New cria o cliente para a URL base informada, sem barra final
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")

	conn := resty.New().
		SetTransport(&http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}).
		SetBaseURL(base).
		SetHeader("Accept", "application/json")

	c := &Client{
		baseURL: base,
		conn:    conn,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	conn.SetLogger(c.log.Sugar())

	return c
}

// BaseURL devolve a URL base normalizada
func (c *Client) BaseURL() string { return c.baseURL }

// Close libera as conexões ociosas da sessão
func (c *Client) Close() error {
	c.conn.GetClient().CloseIdleConnections()
	return nil
}

// HealthCheck faz GET /health e devolve o corpo sem alterações
func (c *Client) HealthCheck(ctx context.Context) (map[string]any, error) {
	start := time.Now()
	resp, err := c.conn.R().SetContext(ctx).Get(healthPath)
	if err != nil {
		c.metrics.observe(healthLabel, OutcomeTransportError, time.Since(start))
		c.log.Warn("gpu api health request failed", zap.Error(err))
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		c.metrics.observe(healthLabel, OutcomeHTTPError, time.Since(start))
		c.log.Warn("gpu api health http error", zap.Int("status", resp.StatusCode()))
		return nil, &HTTPError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	out, err := decodeObject(resp.Body())
	if err != nil {
		c.metrics.observe(healthLabel, OutcomeTransportError, time.Since(start))
		return nil, &TransportError{Err: err}
	}
	c.metrics.observe(healthLabel, OutcomeOK, time.Since(start))
	return out, nil
}

// ReserveFromNaturalLanguage pede uma reserva a partir de texto livre
func (c *Client) ReserveFromNaturalLanguage(ctx context.Context, text, userID string) (Response, error) {
	if userID == "" {
		userID = dto.DefaultReserveUserID
	}
	return c.send(ctx, dto.ReserveFromNLPPayload{NaturalLanguageRequest: text}, userID)
}

// ListMyReservations lista as reservas do usuário
func (c *Client) ListMyReservations(ctx context.Context, userID string) (Response, error) {
	if userID == "" {
		userID = dto.DefaultReservationsUserID
	}
	return c.send(ctx, dto.ListReservationsPayload{}, userID)
}

// CancelReservation cancela a reserva informada
func (c *Client) CancelReservation(ctx context.Context, reservationID, userID string) (Response, error) {
	if userID == "" {
		userID = dto.DefaultCancelUserID
	}
	return c.send(ctx, dto.CancelReservationPayload{ReservationID: reservationID}, userID)
}

// send monta o envelope, faz o POST /api e normaliza a resposta.
// O tempo medido cobre da chamada de rede até o parse do corpo.
func (c *Client) send(ctx context.Context, p dto.Payload, userID string) (Response, error) {
	env, err := dto.NewEnvelope(p, userID)
	if err != nil {
		if p != nil {
			c.metrics.observe(string(p.Action()), OutcomeInvalid, 0)
		}
		return nil, err
	}
	userID = env.UserContext.Sub

	body, err := json.Marshal(env)
	if err != nil {
		return nil, &dto.ValidationError{Action: env.Action, Err: fmt.Errorf("marshal envelope: %w", err)}
	}

	c.log.Debug("sending gpu api request",
		zap.String("action", string(env.Action)),
		zap.String("endpoint", c.baseURL+apiPath),
		zap.ByteString("payload", mustJSON(env.Payload)),
	)

	rec := CallRecord{Action: env.Action, UserID: userID, At: time.Now().UTC()}

	start := time.Now()
	resp, err := c.conn.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(apiPath)
	if err != nil {
		rec.Duration = time.Since(start)
		return nil, c.fail(ctx, rec, &TransportError{Action: env.Action, Err: err})
	}

	rec.StatusCode = resp.StatusCode()
	if resp.StatusCode() >= http.StatusBadRequest {
		rec.Duration = time.Since(start)
		return nil, c.fail(ctx, rec, &HTTPError{Action: env.Action, StatusCode: resp.StatusCode(), Body: resp.String()})
	}

	out, err := decodeObject(resp.Body())
	elapsed := time.Since(start)
	rec.Duration = elapsed
	if err != nil {
		return nil, c.fail(ctx, rec, &TransportError{Action: env.Action, Err: err})
	}

	result := Response(out)
	result[TimingKey] = elapsed.Round(time.Millisecond).Milliseconds()

	rec.Outcome = OutcomeOK
	c.metrics.observe(string(env.Action), OutcomeOK, elapsed)
	c.record(ctx, rec)

	c.log.Debug("gpu api response",
		zap.String("action", string(env.Action)),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", elapsed),
	)
	return result, nil
}

// fail registra a falha (log, métrica, recorder) e devolve o próprio erro
func (c *Client) fail(ctx context.Context, rec CallRecord, err error) error {
	var httpErr *HTTPError
	rec.Outcome = OutcomeTransportError
	if errors.As(err, &httpErr) {
		rec.Outcome = OutcomeHTTPError
	}
	rec.Err = err

	c.log.Warn("gpu api request failed",
		zap.String("action", string(rec.Action)),
		zap.String("outcome", rec.Outcome),
		zap.Int("status", rec.StatusCode),
		zap.Duration("duration", rec.Duration),
		zap.Error(err),
	)
	c.metrics.observe(string(rec.Action), rec.Outcome, rec.Duration)
	c.record(ctx, rec)
	return err
}

func (c *Client) record(ctx context.Context, rec CallRecord) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordCall(context.WithoutCancel(ctx), rec); err != nil {
		c.log.Warn("record gpu api call", zap.String("action", string(rec.Action)), zap.Error(err))
	}
}

// decodeObject aceita apenas objetos JSON
func decodeObject(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out == nil {
		return nil, ErrMalformedResponse
	}
	return out, nil
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
