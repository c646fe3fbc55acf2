package generator

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/helmcode/gamemodel-ai/pkg/model"
)

// Step is one scripted Propose answer: a candidate or an error.
type Step struct {
	Analysis *model.GameAnalysis
	// Raw overrides the candidate's raw output, which defaults to the JSON
	// encoding of Analysis.
	Raw string
	Err error
}

// Scripted is a deterministic Generator replaying fixed answers. Once the
// steps run out the last one repeats.
type Scripted struct {
	Screening *Screening
	ScreenErr error
	Steps     []Step

	mu      sync.Mutex
	calls   int
	repairs []*Repair
}

func (s *Scripted) Screen(ctx context.Context, _ string) (*Screening, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.ScreenErr != nil {
		return nil, s.ScreenErr
	}
	if s.Screening == nil {
		return &Screening{HasStrategicInterdependence: true, Rationale: "scripted"}, nil
	}
	out := *s.Screening
	return &out, nil
}

func (s *Scripted) Propose(ctx context.Context, _ string, repair *Repair) (*Candidate, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.repairs = append(s.repairs, copyRepair(repair))
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.Steps) == 0 {
		return nil, ErrAdapterUnavailable
	}
	if i >= len(s.Steps) {
		i = len(s.Steps) - 1
	}
	step := s.Steps[i]
	if step.Err != nil {
		return nil, step.Err
	}
	c := &Candidate{Analysis: step.Analysis.Clone(), Raw: step.Raw}
	if c.Analysis != nil {
		c.Confidence = c.Analysis.ConfidenceScore
		if c.Raw == "" {
			if data, err := json.Marshal(c.Analysis); err == nil {
				c.Raw = string(data)
			}
		}
	}
	return c, nil
}

// Calls returns how many times Propose was invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Repairs returns the repair passed to each Propose call, nil for first
// attempts.
func (s *Scripted) Repairs() []*Repair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Repair(nil), s.repairs...)
}

// Priors returns the violation lists passed to each Propose call.
func (s *Scripted) Priors() [][]model.Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]model.Violation, len(s.repairs))
	for i, r := range s.repairs {
		if r != nil {
			out[i] = r.Violations
		}
	}
	return out
}

func copyRepair(r *Repair) *Repair {
	if r == nil {
		return nil
	}
	return &Repair{Previous: r.Previous, Violations: append([]model.Violation(nil), r.Violations...)}
}
