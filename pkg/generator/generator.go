// Package generator turns narrative text into candidate game models using a
// language model. Candidates are untrusted and must be validated.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/helmcode/gamemodel-ai/pkg/llm"
	"github.com/helmcode/gamemodel-ai/pkg/model"
	"github.com/helmcode/gamemodel-ai/pkg/parser"
	"github.com/helmcode/gamemodel-ai/pkg/prompts"
)

var (
	ErrAdapterTimeout     = errors.New("generator timed out")
	ErrAdapterUnavailable = errors.New("generator unavailable")
)

// DeserializationError means the model answered with something that is not
// a decodable candidate.
type DeserializationError struct {
	Raw string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("malformed generator output: %v", e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

type Screening struct {
	HasStrategicInterdependence bool   `json:"has_strategic_interdependence" yaml:"has_strategic_interdependence"`
	Rationale                   string `json:"rationale" yaml:"rationale"`
}

// Candidate is one unvalidated proposal.
type Candidate struct {
	Analysis *model.GameAnalysis
	// Confidence is the model's self-reported confidence. It is informative
	// only.
	Confidence int
	Raw        string
}

// Repair describes the previous candidate of a run and what was wrong with
// it. It belongs to a single run.
type Repair struct {
	// Previous is the raw output of the previous proposal, empty when there
	// was none to show.
	Previous   string
	Violations []model.Violation
}

type Generator interface {
	Screen(ctx context.Context, text string) (*Screening, error)
	// Propose returns a candidate model of text. repair is nil on the first
	// call of a run.
	Propose(ctx context.Context, text string, repair *Repair) (*Candidate, error)
}

// LLMGenerator implements Generator over a chat completion client. It keeps
// no per-run state and is safe for concurrent use.
type LLMGenerator struct {
	client   llm.LLM
	maxDepth int
}

func NewLLMGenerator(client llm.LLM, maxDepth int) *LLMGenerator {
	return &LLMGenerator{client: client, maxDepth: maxDepth}
}

func (g *LLMGenerator) Screen(ctx context.Context, text string) (*Screening, error) {
	raw, err := g.client.Chat(ctx, prompts.BuildScreenPrompt(text))
	if err != nil {
		return nil, translate(ctx, err)
	}
	resp, err := parser.ParseScreenResponse(raw)
	if err != nil {
		return nil, &DeserializationError{Raw: raw, Err: err}
	}
	return &Screening{HasStrategicInterdependence: resp.HasStrategicInterdependence, Rationale: resp.Rationale}, nil
}

func (g *LLMGenerator) Propose(ctx context.Context, text string, repair *Repair) (*Candidate, error) {
	prompt := prompts.BuildModelPrompt(text, g.maxDepth)
	if repair != nil && len(repair.Violations) > 0 {
		prompt = prompts.BuildRepairPrompt(text, g.maxDepth, repair.Previous, repair.Violations)
	}

	raw, err := g.client.Chat(ctx, prompt)
	if err != nil {
		return nil, translate(ctx, err)
	}

	analysis, err := parser.ParseAnalysis(raw)
	if err != nil {
		return nil, &DeserializationError{Raw: raw, Err: err}
	}
	return &Candidate{Analysis: analysis, Confidence: analysis.ConfidenceScore, Raw: raw}, nil
}

// translate maps transport failures onto the adapter error kinds.
func translate(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAdapterTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrAdapterTimeout, err)
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		kind := "permanent"
		if apiErr.Temporary() {
			kind = "transient"
		}
		return fmt.Errorf("%w: %s failure: %v", ErrAdapterUnavailable, kind, err)
	}
	return fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
}
