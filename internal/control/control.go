// Package control serves the HTTP control surface of a running processor.
//
//	GET  /params              current values
//	POST /params              {"comp.ratio": 6, ...}; values are clamped
//	GET  /params/descriptors  parameter metadata
//	GET  /levels              meter readings
//	GET  /metrics             Prometheus exposition
//	GET  /healthz             liveness
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
	"github.com/cwbudde/algo-fxchain/internal/monitor"
)

const shutdownTimeout = 5 * time.Second

// Levels is the body of GET /levels.
type Levels struct {
	Input           float64 `json:"input"`
	Output          float64 `json:"output"`
	GainReductionDB float64 `json:"gainReductionDB"`
	Blocks          uint64  `json:"blocks"`
}

// errorBody is returned with every 4xx response.
type errorBody struct {
	Error   string   `json:"error"`
	Unknown []string `json:"unknown,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves g on /metrics. Without it /metrics answers 404.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the request and lifecycle logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// Server routes control requests into a parameter store.
type Server struct {
	echo     *echo.Echo
	params   *effectchain.Params
	levels   monitor.Source
	gatherer prometheus.Gatherer
	log      logrus.FieldLogger
}

// New builds the server. levels may be nil, in which case /levels reads
// zeros.
func New(params *effectchain.Params, levels monitor.Source, opts ...Option) *Server {
	s := &Server{
		echo:   echo.New(),
		params: params,
		levels: levels,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/params", s.getParams)
	s.echo.POST("/params", s.postParams)
	s.echo.GET("/params/descriptors", s.getDescriptors)
	s.echo.GET("/levels", s.getLevels)
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.echo }

// Run listens on addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control listen %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.echo.Listener = ln
	s.log.WithField("addr", ln.Addr().String()).Info("control server listening")

	errc := make(chan error, 1)
	go func() {
		errc <- s.echo.Start("")
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("control server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("control shutdown: %w", err)
	}

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control server: %w", err)
	}

	s.log.Info("control server stopped")

	return nil
}

func (s *Server) getParams(c echo.Context) error {
	return c.JSON(http.StatusOK, s.params.Values())
}

func (s *Server) postParams(c echo.Context) error {
	var body map[string]float64
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "body must be a JSON object of numbers"})
	}

	var unknown []string
	for id := range body {
		if _, ok := effectchain.Lookup(effectchain.ParamID(id)); !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "unknown parameter", Unknown: unknown})
	}

	for id, v := range body {
		if err := s.params.Set(effectchain.ParamID(id), v); err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		}
	}

	s.log.WithField("count", len(body)).Debug("parameters updated")

	return c.JSON(http.StatusOK, s.params.Values())
}

func (s *Server) getDescriptors(c echo.Context) error {
	return c.JSON(http.StatusOK, s.params.Descriptors())
}

func (s *Server) getLevels(c echo.Context) error {
	var l Levels
	if s.levels != nil {
		r := monitor.Read(s.levels)
		l = Levels{Input: r.Input, Output: r.Output, GainReductionDB: r.GainReductionDB, Blocks: r.Blocks}
	}

	return c.JSON(http.StatusOK, l)
}
