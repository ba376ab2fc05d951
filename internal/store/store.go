package store

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("not found")
)

// Key names of the records the quiz runner keeps outside the per-quiz
// namespace.
const (
	ResultsKey        = "quizResults"
	SelectedCourseKey = "selectedCourseId_v2"
)

// Backend is a durable string key/value store. Get returns ErrNotFound for a
// missing key.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
