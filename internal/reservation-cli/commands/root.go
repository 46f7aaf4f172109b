package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radieske/gpu-reservation-poc/internal/call-audit/publisher"
	"github.com/radieske/gpu-reservation-poc/internal/reservation/client"
	"github.com/radieske/gpu-reservation-poc/internal/shared/config"
	"github.com/radieske/gpu-reservation-poc/internal/shared/kafka"
)

// app guarda flags e dependências compartilhadas entre os subcomandos
type app struct {
	cfg config.Config
	log *zap.Logger

	baseURL string
	timeout time.Duration
	audit   bool

	// registerer das métricas do cliente; só o probe liga por padrão
	reg     prometheus.Registerer
	metered bool

	api    *client.Client
	writer *kafka.Writer
}

// NewRootCmd monta a árvore de comandos. Defaults de flags vêm da config.
func NewRootCmd(cfg config.Config, log *zap.Logger) *cobra.Command {
	return newRootCmd(cfg, log, nil)
}

func newRootCmd(cfg config.Config, log *zap.Logger, reg prometheus.Registerer) *cobra.Command {
	a := &app{cfg: cfg, log: log, reg: reg}

	root := &cobra.Command{
		Use:   "reservation-cli",
		Short: "Cliente de linha de comando da API de reservas de GPU",
		Long: `reservation-cli chama a API de reservas de GPU (GET /health e POST /api)
e imprime as respostas em JSON. Útil para testes manuais de integração.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	root.PersistentFlags().StringVar(&a.baseURL, "url", cfg.GPUAPIURL, "URL base da API (env GPU_API_URL)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", cfg.GPUAPITimeout, "timeout por requisição; 0 desliga (env GPU_API_TIMEOUT)")
	root.PersistentFlags().BoolVar(&a.audit, "audit", false, "publica cada chamada no tópico de auditoria do Kafka")

	root.AddCommand(
		a.healthCmd(),
		a.reserveCmd(),
		a.listCmd(),
		a.cancelCmd(),
		a.demoCmd(),
		a.probeCmd(),
		a.lastCallCmd(),
	)
	return root
}

// setup cria o cliente (e o publisher de auditoria, se pedido)
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if strings.TrimSpace(a.baseURL) == "" {
		return fmt.Errorf("--url is required")
	}

	opts := []client.Option{client.WithLogger(a.log)}
	if a.timeout > 0 {
		opts = append(opts, client.WithTimeout(a.timeout))
	}
	if a.metered && a.reg != nil {
		opts = append(opts, client.WithMetrics(client.NewMetrics(a.reg)))
	}
	if a.audit {
		a.writer = kafka.NewWriter(a.cfg.KafkaBrokers, a.cfg.TopicAPICalls)
		opts = append(opts, client.WithRecorder(publisher.NewKafkaPublisher(a.writer, a.source())))
		a.log.Debug("call audit enabled", zap.String("topic", a.cfg.TopicAPICalls))
	}

	a.api = client.New(a.baseURL, opts...)
	return nil
}

func (a *app) teardown() error {
	if a.api != nil {
		_ = a.api.Close()
	}
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			return fmt.Errorf("close kafka writer: %w", err)
		}
	}
	return nil
}

func (a *app) source() string {
	if a.cfg.ServiceName != "" {
		return a.cfg.ServiceName
	}
	return "reservation-cli"
}

// printJSON imprime indentado, sem escapar caracteres não ASCII
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
