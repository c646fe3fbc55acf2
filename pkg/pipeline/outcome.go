package pipeline

import (
	"github.com/helmcode/gamemodel-ai/pkg/generator"
	"github.com/helmcode/gamemodel-ai/pkg/model"
)

type State string

const (
	StateScreening  State = "screening"
	StateProposing  State = "proposing"
	StateValidating State = "validating"
	StateRetrying   State = "retrying"
	StateAccepted   State = "accepted"
	StateRejected   State = "rejected"
)

type Reason string

const (
	ReasonNoGame          Reason = "no-game-detected"
	ReasonMaxRetries      Reason = "max-retries-exceeded"
	ReasonScreeningFailed Reason = "screening-failed"
)

// Rejection explains why a run produced no analysis.
type Rejection struct {
	Reason     Reason            `json:"reason" yaml:"reason"`
	Message    string            `json:"message" yaml:"message"`
	Violations []model.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
	// Cause is the last generator failure, if any.
	Cause string `json:"cause,omitempty" yaml:"cause,omitempty"`
}

// Attempt records one proposal of a run.
type Attempt struct {
	Number     int               `json:"number" yaml:"number"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
	Violations []model.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
	Confidence int               `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Outcome is the terminal result of a run: exactly one of Analysis and
// Rejection is set.
type Outcome struct {
	RunID     string               `json:"run_id" yaml:"run_id"`
	State     State                `json:"state" yaml:"state"`
	Analysis  *model.GameAnalysis  `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Warnings  []model.Violation    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Rejection *Rejection           `json:"rejection,omitempty" yaml:"rejection,omitempty"`
	Attempts  int                  `json:"attempts" yaml:"attempts"`
	Screening *generator.Screening `json:"screening,omitempty" yaml:"screening,omitempty"`
	History   []Attempt            `json:"history,omitempty" yaml:"history,omitempty"`
	Cached    bool                 `json:"cached,omitempty" yaml:"cached,omitempty"`
}

func (o *Outcome) Accepted() bool { return o != nil && o.State == StateAccepted }
