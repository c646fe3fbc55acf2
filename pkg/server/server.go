// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/helmcode/gamemodel-ai/pkg/analyzer"
	"github.com/helmcode/gamemodel-ai/pkg/model"
	"github.com/helmcode/gamemodel-ai/pkg/parser"
	"github.com/helmcode/gamemodel-ai/pkg/store"
	"github.com/helmcode/gamemodel-ai/pkg/tree"
	"github.com/helmcode/gamemodel-ai/pkg/validator"
)

// MaxBodyBytes limits request bodies.
const MaxBodyBytes = 1 << 20

type Server struct {
	analyzer *analyzer.Analyzer
	log      *zap.SugaredLogger
}

func New(a *analyzer.Analyzer, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{analyzer: a, log: log}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// NormalFormResponse is the answer of the normal-form endpoint.
type NormalFormResponse struct {
	Analysis   *model.GameAnalysis `json:"analysis,omitempty"`
	Validation *validator.Result   `json:"validation,omitempty"`
	Error      string              `json:"error,omitempty"`
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/validate", s.handleValidate)
		r.Post("/normal-form", s.handleNormalForm)
		r.Get("/analyses/{key}", s.handleGetAnalysis)
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Infow("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, http.StatusOK, "ok")
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, http.StatusOK, s.analyzer.Metrics())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.analyzer.Analyze(r.Context(), req.Text)
	switch {
	case errors.Is(err, analyzer.ErrEmptyText):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "analysis cancelled")
		return
	case err != nil:
		s.log.Errorw("analyze failed", "error", err)
		writeInternalError(w)
		return
	}
	writeResponse(w, http.StatusOK, out)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	a, ok := s.readCandidate(w, r)
	if !ok {
		return
	}
	writeResponse(w, http.StatusOK, validator.Validate(a, s.validatorOptions()))
}

func (s *Server) handleNormalForm(w http.ResponseWriter, r *http.Request) {
	a, ok := s.readCandidate(w, r)
	if !ok {
		return
	}
	res := validator.Validate(a, s.validatorOptions())
	if !res.OK {
		writeResponse(w, http.StatusUnprocessableEntity, NormalFormResponse{Validation: &res, Error: "candidate is invalid"})
		return
	}
	nf, err := tree.Normalize(a)
	if err != nil {
		writeResponse(w, http.StatusUnprocessableEntity, NormalFormResponse{Error: err.Error()})
		return
	}
	writeResponse(w, http.StatusOK, NormalFormResponse{Analysis: nf})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	rec, err := s.analyzer.Lookup(r.Context(), key)
	switch {
	case errors.Is(err, analyzer.ErrNoStore):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.log.Errorw("lookup failed", "key", key, "error", err)
		writeInternalError(w)
	default:
		writeResponse(w, http.StatusOK, rec)
	}
}

func (s *Server) readCandidate(w http.ResponseWriter, r *http.Request) (*model.GameAnalysis, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "json unmarshalling error: "+err.Error())
		return nil, false
	}
	a, err := parser.DecodeAnalysis(raw, "json")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return a, true
}

func (s *Server) validatorOptions() validator.Options {
	cfg := s.analyzer.Config()
	return validator.Options{MaxDepth: cfg.MaxTreeDepth, Tolerance: cfg.ProbabilitySumTolerance}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("json unmarshalling error: " + err.Error())
	}
	return nil
}
