package quizsession

import (
	"slices"

	"github.com/remaimber-it/quizrunner/internal/domain/course"
)

// SavedState is the resumable snapshot of an in-progress quiz.
// UserAnswers, QuestionIDs and CheckedAnswers are index-aligned.
type SavedState struct {
	CurrentIndex   int                 `json:"currentIndex"`
	UserAnswers    []Answer            `json:"userAnswers"`
	StartTime      *int64              `json:"startTime"` // epoch ms
	QuestionIDs    []course.QuestionID `json:"questionIds"`
	CheckedAnswers []bool              `json:"checkedAnswers"`
	CourseID       string              `json:"courseId"`
	TopicID        *string             `json:"topicId"`
}

// Clone returns a deep copy so that callers never share slices with an index.
func (s SavedState) Clone() SavedState {
	out := s
	out.UserAnswers = slices.Clone(s.UserAnswers)
	out.QuestionIDs = slices.Clone(s.QuestionIDs)
	out.CheckedAnswers = slices.Clone(s.CheckedAnswers)
	if s.StartTime != nil {
		t := *s.StartTime
		out.StartTime = &t
	}
	if s.TopicID != nil {
		topic := *s.TopicID
		out.TopicID = &topic
	}
	return out
}

// Config returns the quiz configuration the state belongs to.
func (s SavedState) Config() Config {
	return Config{CourseID: s.CourseID, TopicID: s.TopicID}
}

// BackfillChecked replaces a missing or misaligned CheckedAnswers list with an
// all-false list of the right length.
func (s *SavedState) BackfillChecked() {
	if len(s.CheckedAnswers) != len(s.UserAnswers) {
		s.CheckedAnswers = make([]bool, len(s.UserAnswers))
	}
}

// ClampIndex resets an out-of-range CurrentIndex to the first question.
func (s *SavedState) ClampIndex() {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		s.CurrentIndex = 0
	}
}

type AnswerResult struct {
	QuestionID     course.QuestionID `json:"questionId"`
	UserAnswer     Answer            `json:"userAnswer"`
	CorrectAnswers []string          `json:"correctAnswers"`
	IsCorrect      bool              `json:"isCorrect"`
	Options        map[string]string `json:"options"`
}

// Results is the record of a completed attempt.
type Results struct {
	Score           int                 `json:"score"`
	TotalQuestions  int                 `json:"totalQuestions"`
	Answers         []AnswerResult      `json:"answers"`
	DurationSeconds int64               `json:"duration"`
	QuestionIDs     []course.QuestionID `json:"questionIds"`
	CourseID        string              `json:"courseId"`
	TopicID         *string             `json:"topicId"`
	Timestamp       int64               `json:"timestamp"` // epoch ms
	Percentage      float64             `json:"percentage"`
}

func (r Results) Config() Config {
	return Config{CourseID: r.CourseID, TopicID: r.TopicID}
}

// Percentage is score/total*100, or 0 for an empty quiz.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}
