// Package server exposes conversion over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	pdfhtml "github.com/porticus-lab/go-pdf-html"
	"github.com/porticus-lab/go-pdf-html/backend"
)

// Config holds server settings.
type Config struct {
	Addr    string
	Backend backend.Kind
	// MaxBodyBytes caps uploads. Zero means 64 MiB.
	MaxBodyBytes int64
	// Timeout bounds one conversion. Zero means two minutes.
	Timeout time.Duration
	// Preflight validates uploads with pdfcpu before conversion.
	Preflight bool
}

const (
	defaultMaxBody = 64 << 20
	defaultTimeout = 2 * time.Minute
)

// Server serves POST /convert and GET /health.
type Server struct {
	cfg  Config
	conv *pdfhtml.Converter
	log  logrus.FieldLogger
}

// New returns a server converting with conv.
func New(cfg Config, conv *pdfhtml.Converter, log logrus.FieldLogger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Backend == "" {
		cfg.Backend = backend.Native
	}
	return &Server{cfg: cfg, conv: conv, log: log}
}

// Handler returns the routed handler with request ids, CORS and access
// logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /convert", s.handleConvert)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.withRequestID(cors(s.accessLog(mux)))
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithField("request_id", requestID(r.Context()))
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	data, err := readPDF(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "No PDF data provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	opts := []backend.Option{backend.WithLogger(log)}
	if s.cfg.Preflight {
		opts = append(opts, backend.WithPreflight())
	}
	src, err := backend.Open(data, s.cfg.Backend, opts...)
	if err != nil {
		log.WithError(err).Warn("document rejected")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	res, err := s.conv.Convert(ctx, src)
	if err != nil {
		log.WithError(err).Error("conversion failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := res.WriteTo(w); err != nil {
		log.WithError(err).Debug("client went away")
	}
}

// readPDF returns the multipart "file" field when present, else the raw
// body.
func readPDF(r *http.Request) ([]byte, error) {
	f, _, err := r.FormFile("file")
	switch {
	case err == nil:
		defer f.Close()
		return io.ReadAll(f)
	case errors.Is(err, http.ErrNotMultipart):
		return io.ReadAll(r.Body)
	case errors.Is(err, http.ErrMissingFile):
		return nil, nil
	}
	return nil, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
