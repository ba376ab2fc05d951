package quizsession

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/remaimber-it/quizrunner/internal/domain/course"
)

var (
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrNotMultiSelect  = errors.New("question is not multi-select")
	ErrAnswerShape     = errors.New("answer shape does not match question")
	ErrNotStarted      = errors.New("quiz has no start time or no questions")
	ErrFinished        = errors.New("quiz already finished")
)

// Session is the in-memory state of one quiz attempt. It performs no I/O;
// callers persist Snapshot after every mutating call.
type Session struct {
	questions []course.Question
	answers   []Answer
	checked   []bool
	statuses  []Status
	index     int
	feedback  bool
	startTime time.Time
	finished  bool
}

// New starts a fresh attempt over a shuffled copy of questions.
func New(questions []course.Question, rng *rand.Rand, now time.Time) *Session {
	shuffled := Shuffle(questions, rng)
	return &Session{
		questions: shuffled,
		answers:   make([]Answer, len(shuffled)),
		checked:   make([]bool, len(shuffled)),
		statuses:  make([]Status, len(shuffled)),
		startTime: now,
	}
}

// Restore resumes an attempt. questions must be aligned with the answers and
// checked flags of saved. Single-select verdicts are recomputed for every
// answered question; multi-select verdicts only where the answer was checked.
// A saved state without a start time restarts the clock at now.
func Restore(questions []course.Question, saved SavedState, now time.Time) *Session {
	s := &Session{
		questions: questions,
		answers:   make([]Answer, len(questions)),
		checked:   make([]bool, len(questions)),
		statuses:  make([]Status, len(questions)),
		index:     saved.CurrentIndex,
		startTime: now,
	}
	copy(s.answers, saved.UserAnswers)
	copy(s.checked, saved.CheckedAnswers)
	if saved.StartTime != nil {
		s.startTime = time.UnixMilli(*saved.StartTime)
	}

	for i, q := range questions {
		if q.IsMultiSelect() {
			if s.checked[i] {
				s.statuses[i] = statusOf(IsCorrect(q, s.answers[i]))
			}
			continue
		}
		if !s.answers[i].IsNone() {
			s.statuses[i] = statusOf(IsCorrect(q, s.answers[i]))
		}
	}

	if s.index < 0 || s.index >= len(questions) {
		s.index = 0
	}
	s.refreshFeedback()
	return s
}

// Shuffle returns a uniformly shuffled copy of items (Fisher–Yates, walking
// from the last index down). The input is never modified.
func Shuffle[T any](items []T, rng *rand.Rand) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

func (s *Session) Total() int { return len(s.questions) }
func (s *Session) Index() int { return s.index }
func (s *Session) Empty() bool { return len(s.questions) == 0 }
func (s *Session) Finished() bool { return s.finished }

// FeedbackVisible reports whether the verdict of the current question is on
// display.
func (s *Session) FeedbackVisible() bool { return s.feedback }

func (s *Session) StartTime() time.Time { return s.startTime }

// Current returns the question at the current index.
func (s *Session) Current() (course.Question, bool) {
	if s.Empty() {
		return course.Question{}, false
	}
	return s.questions[s.index], true
}

func (s *Session) Question(i int) (course.Question, error) {
	if i < 0 || i >= len(s.questions) {
		return course.Question{}, ErrIndexOutOfRange
	}
	return s.questions[i], nil
}

func (s *Session) Answer(i int) Answer {
	if i < 0 || i >= len(s.answers) {
		return NoAnswer()
	}
	return s.answers[i]
}

func (s *Session) Status(i int) Status {
	if i < 0 || i >= len(s.statuses) {
		return StatusNone
	}
	return s.statuses[i]
}

func (s *Session) Checked(i int) bool {
	if i < 0 || i >= len(s.checked) {
		return false
	}
	return s.checked[i]
}

// Answered counts questions that have any answer recorded.
func (s *Session) Answered() int {
	n := 0
	for _, a := range s.answers {
		if !a.IsNone() {
			n++
		}
	}
	return n
}

// RecordAnswer stores the answer for question i. A single-select answer is
// judged immediately and its feedback shown. A multi-select answer clears any
// earlier verdict and checked flag so the new selection must be checked again.
func (s *Session) RecordAnswer(i int, a Answer) error {
	if s.finished {
		return ErrFinished
	}
	if i < 0 || i >= len(s.questions) {
		return ErrIndexOutOfRange
	}

	q := s.questions[i]
	if q.IsMultiSelect() {
		if a.IsSingle() {
			return ErrAnswerShape
		}
		s.answers[i] = a
		s.statuses[i] = StatusNone
		s.checked[i] = false
		if i == s.index {
			s.feedback = false
		}
		return nil
	}

	if a.IsSet() {
		return ErrAnswerShape
	}
	s.answers[i] = a
	if a.IsNone() {
		s.statuses[i] = StatusNone
	} else {
		s.statuses[i] = statusOf(IsCorrect(q, a))
	}
	if i == s.index {
		s.feedback = !a.IsNone()
	}
	return nil
}

// Check judges the current selection of multi-select question i and marks it
// checked. Keeping a checked answer locked is left to the caller.
func (s *Session) Check(i int) (Status, error) {
	if s.finished {
		return StatusNone, ErrFinished
	}
	if i < 0 || i >= len(s.questions) {
		return StatusNone, ErrIndexOutOfRange
	}

	q := s.questions[i]
	if !q.IsMultiSelect() {
		return StatusNone, ErrNotMultiSelect
	}

	s.statuses[i] = statusOf(IsCorrect(q, s.answers[i]))
	s.checked[i] = true
	if i == s.index {
		s.feedback = true
	}
	return s.statuses[i], nil
}

// Next advances to the following question. It reports whether the index moved.
func (s *Session) Next() bool {
	return s.move(1)
}

// Prev steps back to the previous question. It reports whether the index moved.
func (s *Session) Prev() bool {
	return s.move(-1)
}

func (s *Session) move(delta int) bool {
	if s.finished || s.Empty() {
		return false
	}
	next := min(max(s.index+delta, 0), len(s.questions)-1)
	if next == s.index {
		return false
	}
	s.index = next
	s.refreshFeedback()
	return true
}

// refreshFeedback shows the verdict again only for answered single-select
// questions.
func (s *Session) refreshFeedback() {
	q, ok := s.Current()
	s.feedback = ok && !q.IsMultiSelect() && s.statuses[s.index] != StatusNone
}

// Snapshot captures the resumable state of the attempt for cfg.
func (s *Session) Snapshot(cfg Config) SavedState {
	ids := make([]course.QuestionID, len(s.questions))
	for i, q := range s.questions {
		ids[i] = q.ID
	}

	var start *int64
	if !s.startTime.IsZero() {
		ms := s.startTime.UnixMilli()
		start = &ms
	}

	st := SavedState{
		CurrentIndex:   s.index,
		UserAnswers:    make([]Answer, len(s.answers)),
		StartTime:      start,
		QuestionIDs:    ids,
		CheckedAnswers: make([]bool, len(s.checked)),
		CourseID:       cfg.CourseID,
		TopicID:        cfg.TopicID,
	}
	copy(st.UserAnswers, s.answers)
	copy(st.CheckedAnswers, s.checked)
	return st.Clone()
}

// Grade scores every question from scratch, ignoring interim verdicts.
func (s *Session) Grade(cfg Config, now time.Time) (Results, error) {
	if s.startTime.IsZero() || s.Empty() {
		return Results{}, ErrNotStarted
	}

	elapsed := now.Sub(s.startTime).Milliseconds()
	res := Results{
		TotalQuestions:  len(s.questions),
		Answers:         make([]AnswerResult, len(s.questions)),
		DurationSeconds: int64(math.Round(float64(elapsed) / 1000)),
		QuestionIDs:     make([]course.QuestionID, len(s.questions)),
		CourseID:        cfg.CourseID,
		TopicID:         cfg.TopicID,
	}

	for i, q := range s.questions {
		correct := IsCorrect(q, s.answers[i])
		if correct {
			res.Score++
		}
		res.QuestionIDs[i] = q.ID
		res.Answers[i] = AnswerResult{
			QuestionID:     q.ID,
			UserAnswer:     s.answers[i],
			CorrectAnswers: q.CorrectAnswers,
			IsCorrect:      correct,
			Options:        q.Options,
		}
	}
	res.Percentage = Percentage(res.Score, res.TotalQuestions)
	return res, nil
}

// Complete closes the attempt; later mutations fail with ErrFinished.
func (s *Session) Complete() {
	s.finished = true
	s.feedback = false
}
