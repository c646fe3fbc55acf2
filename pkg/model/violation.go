package model

import "fmt"

// Severity grades a Violation. Only errors block acceptance.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is one structural or semantic problem found in a candidate.
// Path addresses the offending field, e.g. game_tree.actions[1].next_node.payoff.
type Violation struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Path     string   `json:"path" yaml:"path"`
	Message  string   `json:"message" yaml:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s at %s: %s", v.Severity, v.Code, v.Path, v.Message)
}

// Errors returns the error-severity subset of vs, preserving order.
func Errors(vs []Violation) []Violation {
	return filter(vs, SeverityError)
}

// Warnings returns the warning-severity subset of vs, preserving order.
func Warnings(vs []Violation) []Violation {
	return filter(vs, SeverityWarning)
}

func filter(vs []Violation, sev Severity) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.Severity == sev {
			out = append(out, v)
		}
	}
	return out
}
