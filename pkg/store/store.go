// Package store keeps accepted analyses keyed by the digest of the text
// they were built from.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/helmcode/gamemodel-ai/pkg/model"
)

var ErrNotFound = errors.New("analysis not found")

type Record struct {
	Key       string              `json:"key"`
	RunID     string              `json:"run_id"`
	CreatedAt time.Time           `json:"created_at"`
	Analysis  *model.GameAnalysis `json:"analysis"`
	Warnings  []model.Violation   `json:"warnings,omitempty"`
}

type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	Close() error
}

// Digest is the cache key of a narrative: the hex SHA-256 of the text with
// runs of whitespace collapsed.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(strings.Join(strings.Fields(text), " ")))
	return hex.EncodeToString(sum[:])
}
