package id

import (
	"strings"

	"github.com/google/uuid"
)

// QuizStatePrefix namespaces every in-progress quiz key in the store.
const QuizStatePrefix = "quizState_"

// FullQuizToken stands in for the topic of a whole-course quiz.
const FullQuizToken = "full"

// New returns an opaque identifier for a running session.
func New() string {
	return uuid.NewString()
}

// QuizKey derives the storage identity of a quiz configuration. It returns ""
// when courseID is empty. A nil topicID denotes the full-course quiz.
func QuizKey(courseID string, topicID *string) string {
	if courseID == "" {
		return ""
	}
	topic := FullQuizToken
	if topicID != nil {
		topic = *topicID
	}
	return QuizStatePrefix + courseID + "_" + Sanitize(topic)
}

// Sanitize replaces every character outside [A-Za-z0-9_-] with '_'.
// Characters outside the Basic Multilingual Plane count as two, matching keys
// written by clients that work in UTF-16 code units.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r > 0xFFFF:
			b.WriteString("__")
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
