// Package server exposes validation and conversion over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcncl/omconv/internal/config"
	"github.com/mcncl/omconv/internal/convert"
	"github.com/mcncl/omconv/internal/errors"
	"github.com/mcncl/omconv/internal/parser"
	"github.com/mcncl/omconv/internal/schema"
)

// MaxBodySize bounds request bodies.
const MaxBodySize = 10 << 20

const shutdownTimeout = 5 * time.Second

// Response is the envelope of every API answer.
type Response struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// Server serves the omconv HTTP API
type Server struct {
	cfg       *config.Config
	validator *schema.Validator
	decoder   *convert.Decoder
	logger    *slog.Logger
	mux       *http.ServeMux
}

// New creates a Server for cfg. A nil logger discards request logs.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		cfg:       cfg,
		validator: schema.NewValidator(),
		decoder:   cfg.Decoder(),
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("POST /api/v1/validate", cors(http.HandlerFunc(s.handleValidate)))
	s.mux.Handle("POST /api/v1/convert/json", cors(http.HandlerFunc(s.handleConvertJSON)))
	s.mux.Handle("POST /api/v1/convert/xml", cors(http.HandlerFunc(s.handleConvertXML)))
	s.mux.Handle("OPTIONS /api/v1/", cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	s.mux.HandleFunc("GET /download/openmath.json", s.handleSchema)
}

// Handler returns the API with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	instance, err := parser.ParseInstance(bytes.NewReader(body))
	if err != nil {
		s.fail(w, err)
		return
	}
	result, err := s.validator.Validate(instance, s.cfg.Kind(r.URL.Query().Get("kind")))
	if err != nil {
		s.fail(w, errors.NewValidationError("failed to validate", err))
		return
	}
	s.respond(w, http.StatusOK, Response{Success: true, Result: result})
}

func (s *Server) handleConvertJSON(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	el, err := parser.ParseXML(body)
	if err != nil {
		s.fail(w, err)
		return
	}
	node, err := s.decoder.Decode(el)
	if err != nil {
		s.fail(w, errors.NewConversionError("failed to convert XML", err))
		return
	}
	s.respond(w, http.StatusOK, Response{Success: true, Result: node})
}

func (s *Server) handleConvertXML(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	node, err := parser.ParseJSON(body)
	if err != nil {
		s.fail(w, err)
		return
	}
	el, err := convert.ConvertToXML(node)
	if err != nil {
		s.fail(w, errors.NewConversionError("failed to convert JSON", err))
		return
	}
	out, err := convert.Serialize(el)
	if err != nil {
		s.fail(w, errors.NewOutputError("failed to write XML", err))
		return
	}
	s.respond(w, http.StatusOK, Response{Success: true, Result: out})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="openmath.json"`)
	if _, err := w.Write(schema.Source); err != nil {
		s.logger.Warn("failed to write schema", "error", err)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return nil, errors.NewInputError("failed to read request body", err)
	}
	return body, nil
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Debug("request failed", "error", err)
	s.respond(w, errors.StatusCode(err), Response{Success: false, Message: errors.UserFriendlyError(err)})
}

func (s *Server) respond(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
