package quizsession_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/remaimber-it/quizrunner/internal/domain/course"
	quizsession "github.com/remaimber-it/quizrunner/internal/domain/quiz_session"
)

var start = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func single(id string, correct string) course.Question {
	return course.Question{
		ID:             course.QuestionID(id),
		Text:           "Question " + id,
		Options:        map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
		CorrectAnswers: []string{correct},
	}
}

func multi(id string, correct ...string) course.Question {
	q := single(id, "")
	q.CorrectAnswers = correct
	return q
}

func createQuestions(n int) []course.Question {
	qs := make([]course.Question, n)
	for i := range qs {
		qs[i] = single(string(rune('a'+i)), "A")
	}
	return qs
}

// newOrdered builds a session whose order matches the input, by restoring
// from an empty saved state.
func newOrdered(qs ...course.Question) *quizsession.Session {
	return quizsession.Restore(qs, quizsession.SavedState{}, start)
}

func TestNew_IncludesAllQuestions(t *testing.T) {
	s := quizsession.New(createQuestions(10), rand.New(rand.NewSource(1)), start)

	if s.Total() != 10 {
		t.Errorf("expected 10 questions, got %d", s.Total())
	}
	if s.Index() != 0 {
		t.Errorf("expected index 0, got %d", s.Index())
	}
	if s.Answered() != 0 {
		t.Errorf("expected no answers, got %d", s.Answered())
	}
	if !s.StartTime().Equal(start) {
		t.Errorf("expected start time %v, got %v", start, s.StartTime())
	}
}

func TestShuffle_IsPermutation(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10}
	out := quizsession.Shuffle(in, rand.New(rand.NewSource(42)))

	if len(out) != len(in) {
		t.Fatalf("expected %d items, got %d", len(in), len(out))
	}
	counts := map[int]int{}
	for _, v := range in {
		counts[v]++
	}
	for _, v := range out {
		counts[v]--
	}
	for v, c := range counts {
		if c != 0 {
			t.Errorf("value %d count differs by %d", v, c)
		}
	}
}

func TestShuffle_DeterministicWithSeed(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	a := quizsession.Shuffle(in, rand.New(rand.NewSource(7)))
	b := quizsession.Shuffle(in, rand.New(rand.NewSource(7)))

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical shuffles, got %v and %v", a, b)
		}
	}
}

func TestShuffle_DoesNotMutateInput(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}
	quizsession.Shuffle(in, rand.New(rand.NewSource(3)))

	want := []string{"a", "b", "c", "d", "e"}
	for i := range want {
		if in[i] != want[i] {
			t.Fatalf("input was modified: %v", in)
		}
	}
}

func TestShuffle_RandomizesAcrossSeeds(t *testing.T) {
	in := createQuestions(20)
	first := quizsession.Shuffle(in, rand.New(rand.NewSource(1)))

	foundDifferentOrder := false
	for seed := int64(2); seed < 12; seed++ {
		other := quizsession.Shuffle(in, rand.New(rand.NewSource(seed)))
		for i := range other {
			if other[i].ID != first[i].ID {
				foundDifferentOrder = true
				break
			}
		}
	}

	if !foundDifferentOrder {
		t.Error("expected questions to be randomized across seeds")
	}
}

func TestRecordAnswer_SingleSelectShowsFeedback(t *testing.T) {
	s := newOrdered(single("1", "B"), single("2", "A"))

	if err := s.RecordAnswer(0, quizsession.Single("B")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status(0) != quizsession.StatusCorrect {
		t.Errorf("expected correct, got %v", s.Status(0))
	}
	if !s.FeedbackVisible() {
		t.Error("expected feedback to be visible")
	}

	if err := s.RecordAnswer(0, quizsession.Single("A")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status(0) != quizsession.StatusIncorrect {
		t.Errorf("expected incorrect, got %v", s.Status(0))
	}
}

func TestRecordAnswer_MultiSelectClearsCheck(t *testing.T) {
	s := newOrdered(multi("1", "A", "B"))

	_ = s.RecordAnswer(0, quizsession.SetOf("A"))
	if s.FeedbackVisible() {
		t.Error("expected no feedback before check")
	}

	status, err := s.Check(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != quizsession.StatusIncorrect || !s.Checked(0) {
		t.Fatalf("expected checked incorrect, got %v checked=%v", status, s.Checked(0))
	}

	_ = s.RecordAnswer(0, quizsession.SetOf("A", "B"))
	if s.Status(0) != quizsession.StatusNone {
		t.Errorf("expected status cleared, got %v", s.Status(0))
	}
	if s.Checked(0) {
		t.Error("expected checked flag cleared")
	}

	status, _ = s.Check(0)
	if status != quizsession.StatusCorrect {
		t.Errorf("expected correct after re-check, got %v", status)
	}
}

func TestRecordAnswer_Errors(t *testing.T) {
	s := newOrdered(single("1", "A"), multi("2", "A", "B"))

	if err := s.RecordAnswer(5, quizsession.Single("A")); !errors.Is(err, quizsession.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := s.RecordAnswer(0, quizsession.SetOf("A")); !errors.Is(err, quizsession.ErrAnswerShape) {
		t.Errorf("expected ErrAnswerShape for set on single-select, got %v", err)
	}
	if err := s.RecordAnswer(1, quizsession.Single("A")); !errors.Is(err, quizsession.ErrAnswerShape) {
		t.Errorf("expected ErrAnswerShape for key on multi-select, got %v", err)
	}
	if _, err := s.Check(0); !errors.Is(err, quizsession.ErrNotMultiSelect) {
		t.Errorf("expected ErrNotMultiSelect, got %v", err)
	}
}

func TestNavigation_ClampsAndRestoresFeedback(t *testing.T) {
	s := newOrdered(single("1", "A"), multi("2", "A", "B"), single("3", "C"))

	if s.Prev() {
		t.Error("expected Prev at first question not to move")
	}

	_ = s.RecordAnswer(0, quizsession.Single("A"))
	s.Next()
	if s.Index() != 1 {
		t.Fatalf("expected index 1, got %d", s.Index())
	}

	_ = s.RecordAnswer(1, quizsession.SetOf("A", "B"))
	_, _ = s.Check(1)
	if !s.FeedbackVisible() {
		t.Error("expected feedback after check")
	}

	s.Next()
	if s.FeedbackVisible() {
		t.Error("expected feedback hidden on unanswered question")
	}
	if s.Next() {
		t.Error("expected Next at last question not to move")
	}

	s.Prev()
	if s.FeedbackVisible() {
		t.Error("expected multi-select feedback hidden after navigation")
	}

	s.Prev()
	if !s.FeedbackVisible() {
		t.Error("expected answered single-select feedback restored")
	}
}

func TestGrade_SingleSelect(t *testing.T) {
	tests := []struct {
		name   string
		answer quizsession.Answer
		want   bool
	}{
		{"correct", quizsession.Single("B"), true},
		{"wrong", quizsession.Single("A"), false},
		{"unanswered", quizsession.NoAnswer(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newOrdered(single("1", "B"))
			_ = s.RecordAnswer(0, tt.answer)

			res, err := s.Grade(quizsession.FullQuiz("demo"), start.Add(time.Minute))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Answers[0].IsCorrect != tt.want {
				t.Errorf("expected isCorrect=%v, got %v", tt.want, res.Answers[0].IsCorrect)
			}
		})
	}
}

func TestGrade_MultiSelectExactMatch(t *testing.T) {
	tests := []struct {
		name   string
		answer quizsession.Answer
		want   bool
	}{
		{"exact", quizsession.SetOf("C", "A"), true},
		{"missing", quizsession.SetOf("A"), false},
		{"extra", quizsession.SetOf("A", "C", "D"), false},
		{"unanswered", quizsession.NoAnswer(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newOrdered(multi("1", "A", "C"))
			_ = s.RecordAnswer(0, tt.answer)

			res, _ := s.Grade(quizsession.FullQuiz("demo"), start)
			if res.Answers[0].IsCorrect != tt.want {
				t.Errorf("expected isCorrect=%v, got %v", tt.want, res.Answers[0].IsCorrect)
			}
		})
	}
}

func TestGrade_IgnoresInterimStatus(t *testing.T) {
	// Changed after check, never re-checked: the final answer decides.
	s := newOrdered(multi("1", "A", "B"))
	_ = s.RecordAnswer(0, quizsession.SetOf("A", "B"))
	_, _ = s.Check(0)
	_ = s.RecordAnswer(0, quizsession.SetOf("A"))

	res, _ := s.Grade(quizsession.FullQuiz("demo"), start)
	if res.Score != 0 {
		t.Errorf("expected score 0, got %d", res.Score)
	}
}

func TestGrade_Totals(t *testing.T) {
	topic := "t1"
	s := newOrdered(single("1", "A"), multi("2", "A", "B"), single("3", "C"))
	_ = s.RecordAnswer(0, quizsession.Single("A"))
	_ = s.RecordAnswer(1, quizsession.SetOf("A", "B"))

	res, err := s.Grade(quizsession.TopicQuiz("demo", topic), start.Add(90*time.Second+400*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Score != 2 || res.TotalQuestions != 3 {
		t.Errorf("expected 2/3, got %d/%d", res.Score, res.TotalQuestions)
	}
	if res.DurationSeconds != 90 {
		t.Errorf("expected 90 seconds, got %d", res.DurationSeconds)
	}
	if res.Percentage < 66.6 || res.Percentage > 66.7 {
		t.Errorf("expected ~66.67%%, got %v", res.Percentage)
	}
	if res.CourseID != "demo" || res.TopicID == nil || *res.TopicID != topic {
		t.Errorf("expected demo/t1, got %s/%v", res.CourseID, res.TopicID)
	}
}

func TestGrade_RequiresQuestions(t *testing.T) {
	s := quizsession.New(nil, rand.New(rand.NewSource(1)), start)

	if _, err := s.Grade(quizsession.FullQuiz("demo"), start); !errors.Is(err, quizsession.ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestComplete_BlocksMutations(t *testing.T) {
	s := newOrdered(single("1", "A"))
	if s.Finished() {
		t.Fatal("expected a new session to be open")
	}
	s.Complete()
	if !s.Finished() {
		t.Error("expected Finished after Complete")
	}

	if err := s.RecordAnswer(0, quizsession.Single("A")); !errors.Is(err, quizsession.ErrFinished) {
		t.Errorf("expected ErrFinished, got %v", err)
	}
}

func TestRestore_RecomputesStatuses(t *testing.T) {
	qs := []course.Question{single("1", "A"), multi("2", "A", "B"), multi("3", "C", "D")}
	ms := start.UnixMilli()
	saved := quizsession.SavedState{
		CurrentIndex:   0,
		UserAnswers:    []quizsession.Answer{quizsession.Single("B"), quizsession.SetOf("A", "B"), quizsession.SetOf("C", "D")},
		StartTime:      &ms,
		CheckedAnswers: []bool{false, true, false},
	}

	s := quizsession.Restore(qs, saved, start.Add(time.Hour))

	if s.Status(0) != quizsession.StatusIncorrect {
		t.Errorf("expected answered single-select to be judged, got %v", s.Status(0))
	}
	if s.Status(1) != quizsession.StatusCorrect {
		t.Errorf("expected checked multi-select to be judged, got %v", s.Status(1))
	}
	if s.Status(2) != quizsession.StatusNone {
		t.Errorf("expected unchecked multi-select to stay open, got %v", s.Status(2))
	}
	if !s.FeedbackVisible() {
		t.Error("expected feedback for answered single-select current question")
	}
	if !s.StartTime().Equal(start) {
		t.Errorf("expected saved start time, got %v", s.StartTime())
	}
}

func TestRestore_ClampsIndex(t *testing.T) {
	saved := quizsession.SavedState{CurrentIndex: 9}
	s := quizsession.Restore(createQuestions(3), saved, start)

	if s.Index() != 0 {
		t.Errorf("expected index clamped to 0, got %d", s.Index())
	}
}

func TestSnapshot_RoundTripsThroughRestore(t *testing.T) {
	qs := []course.Question{single("1", "A"), multi("2", "A", "B")}
	s := newOrdered(qs...)
	_ = s.RecordAnswer(0, quizsession.Single("A"))
	s.Next()
	_ = s.RecordAnswer(1, quizsession.SetOf("B", "A"))
	_, _ = s.Check(1)

	snap := s.Snapshot(quizsession.FullQuiz("demo"))
	restored := quizsession.Restore(qs, snap, start.Add(time.Hour))

	if restored.Index() != 1 {
		t.Errorf("expected index 1, got %d", restored.Index())
	}
	if !restored.Answer(1).Equal(quizsession.SetOf("A", "B")) {
		t.Errorf("expected set answer to survive, got %v", restored.Answer(1))
	}
	if !restored.Checked(1) || restored.Status(1) != quizsession.StatusCorrect {
		t.Error("expected checked multi-select to be restored as correct")
	}
	if snap.QuestionIDs[0] != "1" || snap.QuestionIDs[1] != "2" {
		t.Errorf("unexpected question ids %v", snap.QuestionIDs)
	}
}
