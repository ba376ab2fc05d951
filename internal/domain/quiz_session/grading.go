package quizsession

import (
	"slices"

	"github.com/remaimber-it/quizrunner/internal/domain/course"
)

// IsCorrect is the only correctness rule. Single-select answers are correct
// when the chosen key is among the correct answers. Multi-select answers must
// be a set equal to the correct answers; there is no partial credit.
func IsCorrect(q course.Question, a Answer) bool {
	if !q.IsMultiSelect() {
		key, _ := a.Key()
		return slices.Contains(q.CorrectAnswers, key)
	}

	if !a.IsSet() {
		return false
	}

	correct := slices.Clone(q.CorrectAnswers)
	slices.Sort(correct)
	correct = slices.Compact(correct)

	if len(a.keys) != len(correct) {
		return false
	}
	for _, k := range correct {
		if !a.Has(k) {
			return false
		}
	}
	return true
}

// Status is the interim verdict shown for a question.
type Status int

const (
	StatusNone Status = iota
	StatusCorrect
	StatusIncorrect
)

func statusOf(correct bool) Status {
	if correct {
		return StatusCorrect
	}
	return StatusIncorrect
}

func (s Status) String() string {
	switch s {
	case StatusCorrect:
		return "correct"
	case StatusIncorrect:
		return "incorrect"
	}
	return "none"
}

func (s Status) MarshalJSON() ([]byte, error) {
	if s == StatusNone {
		return []byte("null"), nil
	}
	return []byte(`"` + s.String() + `"`), nil
}
