// Package notify announces finished pipeline runs to other systems.
package notify

import (
	"context"
	"time"
)

// Event summarizes one finished run.
type Event struct {
	RunID    string    `json:"run_id"`
	State    string    `json:"state"`
	Reason   string    `json:"reason,omitempty"`
	Title    string    `json:"title,omitempty"`
	Attempts int       `json:"attempts"`
	Cached   bool      `json:"cached,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e *Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, *Event) error { return nil }
func (Nop) Close() error                          { return nil }
