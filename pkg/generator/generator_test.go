package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/helmcode/gamemodel-ai/pkg/llm"
	"github.com/helmcode/gamemodel-ai/pkg/model"
)

type fakeLLM struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeLLM) Chat(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeLLM) GetModel() string { return "fake" }

const proposal = `{"title": "Duel", "players": [{"name": "A", "role": "decision_maker"}], "game_type": "extensive_form",
 "game_tree": {"id": "t", "is_terminal": true, "payoff": {"outcome_summary": "done", "utilities": {"A": 1}}}, "confidence_score": 42}`

func TestScreen(t *testing.T) {
	f := &fakeLLM{replies: []string{`{"has_strategic_interdependence": false, "rationale": "a weather report"}`}}
	g := NewLLMGenerator(f, 5)

	s, err := g.Screen(context.Background(), "Sunny tomorrow.")
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if s.HasStrategicInterdependence || s.Rationale != "a weather report" {
		t.Errorf("unexpected screening %+v", s)
	}
	if !strings.Contains(f.prompts[0], "Sunny tomorrow.") {
		t.Error("screen prompt does not carry the text")
	}
}

func TestProposeDecodesCandidate(t *testing.T) {
	f := &fakeLLM{replies: []string{"```json\n" + proposal + "\n```"}}
	g := NewLLMGenerator(f, 5)

	c, err := g.Propose(context.Background(), "story", nil)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if c.Analysis.Title != "Duel" || c.Confidence != 42 {
		t.Errorf("unexpected candidate %+v", c)
	}
	if !strings.Contains(c.Raw, proposal) {
		t.Error("candidate does not keep the raw output")
	}
}

func TestProposeRepairPromptCarriesPreviousOutput(t *testing.T) {
	f := &fakeLLM{replies: []string{proposal, proposal}}
	g := NewLLMGenerator(f, 5)
	ctx := context.Background()

	first, err := g.Propose(ctx, "story", nil)
	if err != nil {
		t.Fatal(err)
	}
	repair := &Repair{
		Previous:   first.Raw,
		Violations: []model.Violation{{Severity: model.SeverityError, Code: "missing-utility", Path: "game_tree.payoff.utilities", Message: "no utility for B"}},
	}
	if _, err := g.Propose(ctx, "story", repair); err != nil {
		t.Fatal(err)
	}

	prompt := f.prompts[1]
	if !strings.Contains(prompt, "previous answer was rejected") || !strings.Contains(prompt, `"title": "Duel"`) {
		t.Error("repair prompt lacks the previous proposal")
	}
	if !strings.Contains(prompt, "missing-utility") {
		t.Error("repair prompt lacks the violations")
	}
	if strings.Contains(f.prompts[0], "rejected") {
		t.Error("first prompt should not be a repair prompt")
	}
}

func TestProposeRepairQuotesOnlyItsOwnRun(t *testing.T) {
	runA := strings.Replace(proposal, "Duel", "RunA", 1)
	runB := strings.Replace(proposal, "Duel", "RunB", 1)
	f := &fakeLLM{replies: []string{runA, runB, runA}}
	g := NewLLMGenerator(f, 5)
	ctx := context.Background()

	a, err := g.Propose(ctx, "story", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Propose(ctx, "story", nil); err != nil {
		t.Fatal(err)
	}
	violations := []model.Violation{{Severity: model.SeverityError, Code: "missing-title", Path: "title", Message: "title is empty"}}
	if _, err := g.Propose(ctx, "story", &Repair{Previous: a.Raw, Violations: violations}); err != nil {
		t.Fatal(err)
	}

	prompt := f.prompts[2]
	if !strings.Contains(prompt, "RunA") || strings.Contains(prompt, "RunB") {
		t.Errorf("repair prompt for the first run quotes the wrong proposal:\n%s", prompt)
	}
}

// syncLLM answers every prompt with the same proposal and is safe for
// concurrent use.
type syncLLM struct {
	mu      sync.Mutex
	prompts []string
}

func (s *syncLLM) Chat(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return proposal, nil
}

func (s *syncLLM) GetModel() string { return "sync" }

func TestProposeConcurrentRepairs(t *testing.T) {
	const runs = 16
	l := &syncLLM{}
	g := NewLLMGenerator(l, 5)
	violations := []model.Violation{{Severity: model.SeverityError, Code: "missing-title", Path: "title", Message: "title is empty"}}

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			repair := &Repair{Previous: fmt.Sprintf("<previous %d>", i), Violations: violations}
			if _, err := g.Propose(context.Background(), fmt.Sprintf("<story %d>", i), repair); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	if len(l.prompts) != runs {
		t.Fatalf("got %d prompts, want %d", len(l.prompts), runs)
	}
	for _, prompt := range l.prompts {
		var story, previous int
		n, _ := fmt.Sscanf(prompt[strings.Index(prompt, "<story "):], "<story %d>", &story)
		m, _ := fmt.Sscanf(prompt[strings.Index(prompt, "<previous "):], "<previous %d>", &previous)
		if n != 1 || m != 1 || story != previous || strings.Count(prompt, "<previous ") != 1 {
			t.Errorf("prompt mixes runs: story %d, previous %d", story, previous)
		}
	}
}

func TestProposeMalformedOutput(t *testing.T) {
	f := &fakeLLM{replies: []string{"Sorry, I can't do that."}}
	g := NewLLMGenerator(f, 5)

	_, err := g.Propose(context.Background(), "story", nil)
	var de *DeserializationError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DeserializationError", err)
	}
	if de.Raw != "Sorry, I can't do that." {
		t.Errorf("Raw = %q", de.Raw)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransportErrorsAreTranslated(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ErrAdapterTimeout},
		{"net timeout", timeoutErr{}, ErrAdapterTimeout},
		{"api error", &llm.APIError{Provider: "Claude", StatusCode: 529, Body: "overloaded"}, ErrAdapterUnavailable},
		{"rejected key", &llm.APIError{Provider: "OpenAI", StatusCode: 401, Body: "invalid api key"}, ErrAdapterUnavailable},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrAdapterUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewLLMGenerator(&fakeLLM{err: tt.err}, 5)
			if _, err := g.Propose(context.Background(), "story", nil); !errors.Is(err, tt.want) {
				t.Errorf("Propose err = %v, want %v", err, tt.want)
			}
			if _, err := g.Screen(context.Background(), "story"); !errors.Is(err, tt.want) {
				t.Errorf("Screen err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAPIErrorsAreClassified(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{429, "transient failure"},
		{503, "transient failure"},
		{401, "permanent failure"},
		{400, "permanent failure"},
	}
	for _, tt := range tests {
		err := translate(context.Background(), &llm.APIError{Provider: "Claude", StatusCode: tt.status})
		if !errors.Is(err, ErrAdapterUnavailable) || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("status %d: err = %v, want %q", tt.status, err, tt.want)
		}
	}
}

func TestScripted(t *testing.T) {
	a := &model.GameAnalysis{Title: "x", ConfidenceScore: 7}
	s := &Scripted{Steps: []Step{{Err: ErrAdapterTimeout}, {Analysis: a}}}
	ctx := context.Background()

	if _, err := s.Propose(ctx, "t", nil); !errors.Is(err, ErrAdapterTimeout) {
		t.Errorf("first call err = %v", err)
	}
	for i := 0; i < 2; i++ {
		c, err := s.Propose(ctx, "t", &Repair{Previous: "p", Violations: []model.Violation{{Code: "c"}}})
		if err != nil || c.Analysis.Title != "x" || c.Confidence != 7 {
			t.Errorf("call %d: %+v, %v", i+2, c, err)
		}
		if !strings.Contains(c.Raw, `"title":"x"`) {
			t.Errorf("call %d: raw = %q", i+2, c.Raw)
		}
	}
	if s.Calls() != 3 {
		t.Errorf("Calls = %d, want 3", s.Calls())
	}
	if priors := s.Priors(); len(priors[0]) != 0 || priors[2][0].Code != "c" {
		t.Errorf("unexpected priors %v", priors)
	}
	if repairs := s.Repairs(); repairs[0] != nil || repairs[1].Previous != "p" {
		t.Errorf("unexpected repairs %v", repairs)
	}
	c, _ := s.Propose(ctx, "t", nil)
	c.Analysis.Title = "changed"
	if a.Title != "x" {
		t.Error("Scripted handed out its own analysis")
	}
}
