package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/helmcode/gamemodel-ai/pkg/generator"
	"github.com/helmcode/gamemodel-ai/pkg/model/modeltest"
	"github.com/helmcode/gamemodel-ai/pkg/notify"
	"github.com/helmcode/gamemodel-ai/pkg/pipeline"
	"github.com/helmcode/gamemodel-ai/pkg/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, e *notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*store.Record, error) {
	return nil, errors.New("connection reset")
}
func (brokenStore) Put(context.Context, *store.Record) error { return errors.New("connection reset") }
func (brokenStore) Close() error                             { return nil }

func newAnalyzer(steps []generator.Step, opts ...Option) (*Analyzer, *generator.Scripted) {
	gen := &generator.Scripted{Steps: steps}
	return New(pipeline.New(gen, pipeline.Config{}, nil), opts...), gen
}

func TestAnalyzeCachesAcceptedOutcome(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	a, gen := newAnalyzer([]generator.Step{{Analysis: modeltest.OneShot()}},
		WithStore(store.NewMemory(time.Hour)), WithPublisher(pub))

	first, err := a.Analyze(ctx, "A decides; B waits.")
	if err != nil {
		t.Fatal(err)
	}
	if !first.Accepted() || first.Cached {
		t.Fatalf("first run: state %s cached %v", first.State, first.Cached)
	}

	second, err := a.Analyze(ctx, "  A decides;\nB waits. ")
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || !second.Accepted() {
		t.Fatalf("second run should be a cache hit: %+v", second)
	}
	if second.RunID != first.RunID || second.Analysis.Title != first.Analysis.Title {
		t.Errorf("cached outcome differs: %q/%q", second.RunID, second.Analysis.Title)
	}
	if len(second.Warnings) != len(first.Warnings) {
		t.Errorf("cached warnings = %v, want %v", second.Warnings, first.Warnings)
	}
	if gen.Calls() != 1 {
		t.Errorf("generator calls = %d, want 1", gen.Calls())
	}

	m := a.Metrics()
	if m.Runs != 1 || m.Accepted != 1 || m.CacheHits != 1 || m.Warnings != 1 {
		t.Errorf("metrics = %+v", m)
	}
	if len(pub.events) != 2 || pub.events[0].Cached || !pub.events[1].Cached {
		t.Errorf("events = %+v", pub.events)
	}
	if pub.events[0].Title != "One-shot choice" || pub.events[0].State != "accepted" {
		t.Errorf("event = %+v", pub.events[0])
	}

	rec, err := a.Lookup(ctx, store.Digest("A decides; B waits."))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.RunID != first.RunID {
		t.Errorf("stored run id = %q, want %q", rec.RunID, first.RunID)
	}
}

func TestAnalyzeRejectedIsNotCached(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	mem := store.NewMemory(0)
	a, gen := newAnalyzer([]generator.Step{{Analysis: modeltest.Lottery(0.5, 0.2)}},
		WithStore(mem), WithPublisher(pub))

	for i := 0; i < 2; i++ {
		out, err := a.Analyze(ctx, "a court case")
		if err != nil {
			t.Fatal(err)
		}
		if out.Rejection == nil || out.Rejection.Reason != pipeline.ReasonMaxRetries {
			t.Fatalf("rejection = %+v", out.Rejection)
		}
	}
	if mem.Len() != 0 {
		t.Errorf("rejected outcome stored, Len = %d", mem.Len())
	}
	if gen.Calls() != 6 {
		t.Errorf("generator calls = %d, want 6", gen.Calls())
	}
	if got := a.Metrics().Rejected[string(pipeline.ReasonMaxRetries)]; got != 2 {
		t.Errorf("rejected count = %d, want 2", got)
	}
	if pub.events[0].Reason != string(pipeline.ReasonMaxRetries) || pub.events[0].State != "rejected" {
		t.Errorf("event = %+v", pub.events[0])
	}
}

func TestAnalyzeSurvivesStoreFailure(t *testing.T) {
	a, _ := newAnalyzer([]generator.Step{{Analysis: modeltest.Entry()}}, WithStore(brokenStore{}))
	out, err := a.Analyze(context.Background(), "entry")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !out.Accepted() {
		t.Errorf("state = %s", out.State)
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	a, gen := newAnalyzer([]generator.Step{{Analysis: modeltest.Entry()}})
	if _, err := a.Analyze(context.Background(), " \n\t"); !errors.Is(err, ErrEmptyText) {
		t.Errorf("err = %v, want ErrEmptyText", err)
	}
	if gen.Calls() != 0 {
		t.Errorf("generator called for empty text")
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	a, _ := newAnalyzer([]generator.Step{{Analysis: modeltest.Entry()}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Analyze(ctx, "entry"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if m := a.Metrics(); m.Cancelled != 1 || m.Runs != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestLookupWithoutStore(t *testing.T) {
	a, _ := newAnalyzer(nil)
	if _, err := a.Lookup(context.Background(), "k"); !errors.Is(err, ErrNoStore) {
		t.Errorf("err = %v, want ErrNoStore", err)
	}
}

func TestClose(t *testing.T) {
	pub := &recordingPublisher{}
	a, _ := newAnalyzer(nil, WithStore(store.NewMemory(0)), WithPublisher(pub))
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if !pub.closed {
		t.Error("publisher not closed")
	}
}
