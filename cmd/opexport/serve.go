package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hanpama/opexport/internal/eventbus"
	"github.com/hanpama/opexport/internal/metrics"
	"github.com/hanpama/opexport/internal/otel"
	"github.com/hanpama/opexport/internal/schema"
	"github.com/hanpama/opexport/internal/server"
)

const serveUsage = `serve FLAGS (each also read from the OPEXPORT_ environment variable shown):
  -server.addr <addr>             HTTP listen address (ADDR, default: :8080)
  -server.pretty                  Pretty-print JSON responses (PRETTY)
  -server.timeout <duration>      Per-request timeout (TIMEOUT, default: 10s)
  -server.max-body <bytes>        Request body limit (MAX_BODY_BYTES, default: 1048576)
  -server.cors <origins>          Comma separated allowed origins (CORS_ORIGINS)
  -cache.size <n>                 Parsed documents kept (CACHE_SIZE, default: 64)
  -schema <file>                  Schema as SDL or introspection JSON (SCHEMA)
  -metrics                        Expose /metrics (METRICS, default: true)
  -otel.endpoint <addr>           OTLP collector endpoint (OTEL_ENDPOINT)
  -otel.service <name>            OpenTelemetry service name (OTEL_SERVICE, default: opexport)
  -log.level <level>              debug, info, warn or error (LOG_LEVEL, default: info)
  -log.json                       Log as JSON (LOG_JSON)
`

type serveConfig struct {
	Addr         string        `env:"ADDR" envDefault:":8080"`
	Pretty       bool          `env:"PRETTY"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"10s"`
	MaxBodyBytes int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envSeparator:","`
	CacheSize    int           `env:"CACHE_SIZE" envDefault:"64"`
	Schema       string        `env:"SCHEMA"`
	Metrics      bool          `env:"METRICS" envDefault:"true"`
	OTelEndpoint string        `env:"OTEL_ENDPOINT"`
	OTelService  string        `env:"OTEL_SERVICE" envDefault:"opexport"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON      bool          `env:"LOG_JSON"`
}

// loadServeConfig applies defaults, then OPEXPORT_* variables, then flags.
func loadServeConfig(args []string, environ map[string]string) (serveConfig, error) {
	var cfg serveConfig
	// a nil environ reads the process environment
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "OPEXPORT_", Environment: environ}); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	cors := strings.Join(cfg.CORSOrigins, ",")
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&cfg.Addr, "server.addr", cfg.Addr, "HTTP listen address")
	fs.BoolVar(&cfg.Pretty, "server.pretty", cfg.Pretty, "Pretty-print JSON responses")
	fs.DurationVar(&cfg.Timeout, "server.timeout", cfg.Timeout, "Per-request timeout")
	fs.Int64Var(&cfg.MaxBodyBytes, "server.max-body", cfg.MaxBodyBytes, "Request body limit")
	fs.StringVar(&cors, "server.cors", cors, "Allowed CORS origins")
	fs.IntVar(&cfg.CacheSize, "cache.size", cfg.CacheSize, "Parsed documents kept")
	fs.StringVar(&cfg.Schema, "schema", cfg.Schema, "Schema file")
	fs.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "Expose /metrics")
	fs.StringVar(&cfg.OTelEndpoint, "otel.endpoint", cfg.OTelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&cfg.OTelService, "otel.service", cfg.OTelService, "OpenTelemetry service name")
	fs.StringVar(&cfg.LogLevel, "log.level", cfg.LogLevel, "Log level")
	fs.BoolVar(&cfg.LogJSON, "log.json", cfg.LogJSON, "JSON logs")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.CORSOrigins = nil
	for _, o := range strings.Split(cors, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, nil
}

func cmdServe(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, err := loadServeConfig(args, nil)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}
	logger, err := newLogger(stderr, cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var sch *schema.Schema
	if cfg.Schema != "" {
		if sch, err = loadSchema(cfg.Schema); err != nil {
			return err
		}
	}

	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)

	shutdownTracing, err := otel.Setup(ctx, cfg.OTelEndpoint, cfg.OTelService, bus)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var collector *metrics.Collector
	if cfg.Metrics {
		collector = metrics.New()
		defer collector.Subscribe(bus)()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, sch, collector, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("opexport listening",
		zap.String("addr", lis.Addr().String()),
		zap.Bool("schema", sch != nil),
		zap.Bool("metrics", collector != nil),
	)
	return serve(ctx, srv, lis, logger)
}

func newRouter(cfg serveConfig, sch *schema.Schema, collector *metrics.Collector, logger *zap.Logger) http.Handler {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithCacheSize(cfg.CacheSize),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
	}
	if cfg.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if cfg.Timeout > 0 {
		opts = append(opts, server.WithTimeout(cfg.Timeout))
	}
	if len(cfg.CORSOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.CORSOrigins...))
	}
	h := server.New(sch, opts...)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/operations", h)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	if collector != nil {
		r.Method(http.MethodGet, "/metrics", collector.Handler())
	}
	return r
}

// serve runs srv on lis until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, lis net.Listener, logger *zap.Logger) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
