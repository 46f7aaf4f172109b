package httpapi

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/gpu-reservation-poc/internal/echo-demo/responder"
)

// tamanho máximo de uma entrada (bytes)
const maxInputBytes = 4 << 10

var page = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="ja">
<head><meta charset="utf-8"><title>インタラクティブな応答アプリ</title></head>
<body>
<h1>インタラクティブな応答アプリ</h1>
<h3>テキストを入力すると、応答が返ってきます。</h3>
<h2>💬 ユーザー入力</h2>
<form method="get" action="/">
  <label>何か入力してください: <input type="text" name="q" value="{{.Input}}"></label>
  <button type="submit">送信</button>
</form>
{{if .Reply}}
<p>あなたが入力した内容: {{.Input}}</p>
<p data-kind="{{.Kind}}">{{.Reply}}</p>
{{end}}
</body>
</html>`))

// RespondRequest é o corpo de POST /api/respond
type RespondRequest struct {
	Input string `json:"input"`
}

// Server expõe a demo de respostas fixas via HTML, JSON e WebSocket
type Server struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	replies     *prometheus.CounterVec
	connections prometheus.Gauge
}

// NewServer registra as métricas da demo no registerer informado
func NewServer(log *zap.Logger, reg prometheus.Registerer) *Server {
	s := &Server{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "echo_demo_replies_total",
			Help: "Respostas geradas por tipo",
		}, []string{"kind"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "echo_demo_ws_connections",
			Help: "Clientes WebSocket conectados",
		}),
	}
	reg.MustRegister(s.replies, s.connections)
	return s
}

// Router retorna o roteador HTTP da demo
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.index)               // Página com formulário
	r.Post("/api/respond", s.respond) // JSON {input} -> {input, reply, kind}
	r.Get("/ws", s.handleWS)          // Uma resposta por mensagem de texto
	return r
}

func (s *Server) reply(input string) responder.Reply {
	out := responder.Respond(input)
	if out.Kind != responder.KindNone {
		s.replies.WithLabelValues(string(out.Kind)).Inc()
	}
	return out
}

// index renderiza a página; ?q= traz a entrada
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	out := s.reply(r.URL.Query().Get("q"))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, out); err != nil {
		s.log.Warn("render index", zap.Error(err))
	}
}

// respond devolve a resposta em JSON
func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	writeJSON(w, http.StatusOK, s.reply(req.Input))
}

// handleWS mantém a conexão aberta e responde cada mensagem de texto
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxInputBytes)

	s.connections.Inc()
	defer s.connections.Dec()

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		out := s.reply(string(msg))
		_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteJSON(out); err != nil {
			s.log.Warn("ws write failed", zap.Error(err))
			return
		}
	}
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
