// Package pipeline drives the two-stage construction of a game model:
// screen the text, then propose, validate and repair until a candidate is
// accepted or the attempt budget runs out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helmcode/gamemodel-ai/pkg/config"
	"github.com/helmcode/gamemodel-ai/pkg/generator"
	"github.com/helmcode/gamemodel-ai/pkg/model"
	"github.com/helmcode/gamemodel-ai/pkg/validator"
)

// Codes for attempt failures that are not validator findings but still
// feed the repair prompt.
const (
	CodeMalformedOutput = "malformed-output"
	CodeInvalidField    = "invalid-field"
)

type Config struct {
	MaxTreeDepth            int
	MaxProposalAttempts     int
	ProbabilitySumTolerance float64
	ScreenTimeout           time.Duration
	ProposeTimeout          time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxTreeDepth:            validator.DefaultMaxDepth,
		MaxProposalAttempts:     3,
		ProbabilitySumTolerance: validator.DefaultTolerance,
		ScreenTimeout:           60 * time.Second,
		ProposeTimeout:          120 * time.Second,
	}
}

// ConfigFrom picks the pipeline settings out of the application config.
func ConfigFrom(c *config.Config) Config {
	return Config{
		MaxTreeDepth:            c.MaxTreeDepth,
		MaxProposalAttempts:     c.MaxProposalAttempts,
		ProbabilitySumTolerance: c.ProbabilitySumTolerance,
		ScreenTimeout:           c.ScreenTimeout,
		ProposeTimeout:          c.ProposeTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxTreeDepth <= 0 {
		c.MaxTreeDepth = d.MaxTreeDepth
	}
	if c.MaxProposalAttempts <= 0 {
		c.MaxProposalAttempts = d.MaxProposalAttempts
	}
	if c.ProbabilitySumTolerance <= 0 {
		c.ProbabilitySumTolerance = d.ProbabilitySumTolerance
	}
	if c.ScreenTimeout <= 0 {
		c.ScreenTimeout = d.ScreenTimeout
	}
	if c.ProposeTimeout <= 0 {
		c.ProposeTimeout = d.ProposeTimeout
	}
	return c
}

// Pipeline is safe for concurrent Run calls; all per-run data lives in a
// runState.
type Pipeline struct {
	gen   generator.Generator
	cfg   Config
	log   *zap.SugaredLogger
	newID func() string
}

func New(gen generator.Generator, cfg Config, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		gen:   gen,
		cfg:   cfg.withDefaults(),
		log:   log,
		newID: func() string { return uuid.New().String() },
	}
}

// Config returns the effective settings.
func (p *Pipeline) Config() Config { return p.cfg }

type runState struct {
	id         string
	state      State
	attempts   int
	history    []Attempt
	screening  *generator.Screening
	violations []model.Violation
	lastErr    error
	log        *zap.SugaredLogger
}

func (rs *runState) enter(s State) {
	rs.state = s
	rs.log.Debugw("state", "state", string(s), "attempt", rs.attempts)
}

func (rs *runState) outcome() *Outcome {
	return &Outcome{
		RunID:     rs.id,
		State:     rs.state,
		Attempts:  rs.attempts,
		Screening: rs.screening,
		History:   rs.history,
	}
}

func (rs *runState) reject(reason Reason, msg string) *Outcome {
	rs.enter(StateRejected)
	out := rs.outcome()
	out.Rejection = &Rejection{Reason: reason, Message: msg, Violations: rs.violations}
	if rs.lastErr != nil {
		out.Rejection.Cause = rs.lastErr.Error()
	}
	rs.log.Infow("run rejected", "reason", string(reason), "attempts", rs.attempts)
	return out
}

// Run models text. It returns an error only when ctx is cancelled; every
// other ending, including generator failures, is an Outcome.
func (p *Pipeline) Run(ctx context.Context, text string) (*Outcome, error) {
	id := p.newID()
	rs := &runState{id: id, log: p.log.With("run_id", id)}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}

	rs.enter(StateScreening)
	sctx, cancel := context.WithTimeout(ctx, p.cfg.ScreenTimeout)
	screening, err := p.gen.Screen(sctx, text)
	cancel()
	if cerr := ctx.Err(); cerr != nil {
		return nil, fmt.Errorf("run %s: %w", id, cerr)
	}
	if err == nil && screening == nil {
		err = &generator.DeserializationError{Err: errors.New("empty screening")}
	}
	if err != nil {
		rs.lastErr = err
		rs.log.Warnw("screening failed", "error", err)
		return rs.reject(ReasonScreeningFailed, "the screening step could not be completed"), nil
	}
	rs.screening = screening
	if !screening.HasStrategicInterdependence {
		return rs.reject(ReasonNoGame, screening.Rationale), nil
	}

	opts := validator.Options{MaxDepth: p.cfg.MaxTreeDepth, Tolerance: p.cfg.ProbabilitySumTolerance}
	var repair *generator.Repair
	for rs.attempts < p.cfg.MaxProposalAttempts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s: %w", id, err)
		}
		if rs.attempts > 0 {
			rs.enter(StateRetrying)
		}
		rs.attempts++
		rs.enter(StateProposing)

		pctx, cancel := context.WithTimeout(ctx, p.cfg.ProposeTimeout)
		cand, err := p.gen.Propose(pctx, text, repair)
		cancel()
		if cerr := ctx.Err(); cerr != nil {
			return nil, fmt.Errorf("run %s: %w", id, cerr)
		}
		if err == nil && (cand == nil || cand.Analysis == nil) {
			err = &generator.DeserializationError{Err: errors.New("empty candidate")}
		}
		if err != nil {
			rs.lastErr = err
			rs.history = append(rs.history, Attempt{Number: rs.attempts, Error: err.Error()})
			rs.log.Warnw("proposal failed", "attempt", rs.attempts, "error", err)
			var de *generator.DeserializationError
			if errors.As(err, &de) {
				repair = &generator.Repair{
					Previous: de.Raw,
					Violations: []model.Violation{{
						Severity: model.SeverityError,
						Code:     CodeMalformedOutput,
						Message:  de.Err.Error(),
					}},
				}
			}
			continue
		}
		// The cause of a rejection is the failure of the latest attempt only.
		rs.lastErr = nil

		rs.enter(StateValidating)
		res := validator.Validate(cand.Analysis, opts)
		if !res.OK {
			rs.violations = res.Violations
			repair = &generator.Repair{Previous: cand.Raw, Violations: res.Violations}
			rs.history = append(rs.history, Attempt{Number: rs.attempts, Violations: res.Violations, Confidence: cand.Confidence})
			rs.log.Infow("candidate rejected", "attempt", rs.attempts, "errors", len(res.Errors()), "warnings", len(res.Warnings()))
			continue
		}

		final, err := model.Finalize(cand.Analysis)
		if err != nil {
			v := model.Violation{Severity: model.SeverityError, Code: CodeInvalidField, Message: err.Error()}
			var fe *model.FieldError
			if errors.As(err, &fe) {
				v.Path = fe.Field
			}
			rs.violations = []model.Violation{v}
			repair = &generator.Repair{Previous: cand.Raw, Violations: rs.violations}
			rs.history = append(rs.history, Attempt{Number: rs.attempts, Violations: rs.violations, Confidence: cand.Confidence})
			continue
		}

		rs.history = append(rs.history, Attempt{Number: rs.attempts, Violations: res.Violations, Confidence: cand.Confidence})
		rs.enter(StateAccepted)
		out := rs.outcome()
		out.Analysis = final
		out.Warnings = res.Warnings()
		rs.log.Infow("run accepted", "attempts", rs.attempts, "warnings", len(out.Warnings), "title", final.Title)
		return out, nil
	}

	return rs.reject(ReasonMaxRetries,
		fmt.Sprintf("no valid model after %d proposals", rs.attempts)), nil
}
