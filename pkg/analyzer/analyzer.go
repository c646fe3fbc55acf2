// Package analyzer serves game analyses: it answers from the store when the
// same text was modeled before and otherwise runs the pipeline.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helmcode/gamemodel-ai/pkg/metrics"
	"github.com/helmcode/gamemodel-ai/pkg/notify"
	"github.com/helmcode/gamemodel-ai/pkg/pipeline"
	"github.com/helmcode/gamemodel-ai/pkg/store"
)

var (
	ErrEmptyText = errors.New("text is empty")
	ErrNoStore   = errors.New("no analysis store configured")
)

type Analyzer struct {
	pipeline  *pipeline.Pipeline
	store     store.Store
	publisher notify.Publisher
	metrics   *metrics.Recorder
	log       *zap.SugaredLogger
	now       func() time.Time
}

type Option func(*Analyzer)

// WithStore enables caching of accepted analyses. A nil store disables it.
func WithStore(s store.Store) Option {
	return func(a *Analyzer) { a.store = s }
}

func WithPublisher(p notify.Publisher) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.publisher = p
		}
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(a *Analyzer) {
		if m != nil {
			a.metrics = m
		}
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

func New(p *pipeline.Pipeline, opts ...Option) *Analyzer {
	a := &Analyzer{
		pipeline:  p,
		publisher: notify.Nop{},
		metrics:   metrics.NewRecorder(),
		log:       zap.NewNop().Sugar(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the outcome for text. The error is non-nil only for empty
// input or a cancelled context.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*pipeline.Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	key := store.Digest(text)

	if out := a.cached(ctx, key); out != nil {
		a.metrics.CacheHit()
		a.publish(ctx, out)
		return out, nil
	}

	start := a.now()
	out, err := a.pipeline.Run(ctx, text)
	if err != nil {
		a.metrics.Cancelled()
		return nil, fmt.Errorf("analyze: %w", err)
	}
	elapsed := a.now().Sub(start)

	if out.Accepted() {
		a.metrics.Accepted(out.Attempts, len(out.Warnings), elapsed)
		a.save(ctx, key, out)
	} else {
		a.metrics.Rejected(string(out.Rejection.Reason), out.Attempts, elapsed)
	}
	a.publish(ctx, out)
	return out, nil
}

// Lookup returns a stored analysis by digest key.
func (a *Analyzer) Lookup(ctx context.Context, key string) (*store.Record, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	return a.store.Get(ctx, key)
}

func (a *Analyzer) Metrics() metrics.Snapshot {
	return a.metrics.Snapshot()
}

// Config exposes the pipeline limits, which also drive ad-hoc validation.
func (a *Analyzer) Config() pipeline.Config {
	return a.pipeline.Config()
}

// Close releases the store and publisher.
func (a *Analyzer) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	errs = append(errs, a.publisher.Close())
	return errors.Join(errs...)
}

func (a *Analyzer) cached(ctx context.Context, key string) *pipeline.Outcome {
	if a.store == nil {
		return nil
	}
	rec, err := a.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log.Warnw("store lookup failed", "key", key, "error", err)
		}
		return nil
	}
	return &pipeline.Outcome{
		RunID:    rec.RunID,
		State:    pipeline.StateAccepted,
		Analysis: rec.Analysis,
		Warnings: rec.Warnings,
		Cached:   true,
	}
}

func (a *Analyzer) save(ctx context.Context, key string, out *pipeline.Outcome) {
	if a.store == nil {
		return
	}
	rec := &store.Record{
		Key:       key,
		RunID:     out.RunID,
		CreatedAt: a.now().UTC(),
		Analysis:  out.Analysis,
		Warnings:  out.Warnings,
	}
	if err := a.store.Put(ctx, rec); err != nil {
		a.log.Warnw("store save failed", "run_id", out.RunID, "key", key, "error", err)
	}
}

func (a *Analyzer) publish(ctx context.Context, out *pipeline.Outcome) {
	e := &notify.Event{
		RunID:    out.RunID,
		State:    string(out.State),
		Attempts: out.Attempts,
		Cached:   out.Cached,
		At:       a.now().UTC(),
	}
	if out.Analysis != nil {
		e.Title = out.Analysis.Title
	}
	if out.Rejection != nil {
		e.Reason = string(out.Rejection.Reason)
	}
	if err := a.publisher.Publish(ctx, e); err != nil {
		a.log.Warnw("publish outcome failed", "run_id", out.RunID, "error", err)
	}
}
