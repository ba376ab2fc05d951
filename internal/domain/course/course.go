package course

import (
	"bytes"
	"encoding/json"
	"slices"
	"sort"

	"github.com/pkg/errors"
)

// QuestionID identifies a question within a course. Bundled data carries ids
// either as JSON strings or numbers; both decode to the same string form.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Errorf("question id must be a string or number, got %s", b)
	}
	*id = QuestionID(n.String())
	return nil
}

// Question is a single multiple-choice item. Questions are immutable once
// loaded into a catalog.
type Question struct {
	ID             QuestionID        `json:"id"`
	Topic          string            `json:"topic,omitempty"`
	Text           string            `json:"question"`
	Options        map[string]string `json:"options"`
	CorrectAnswers []string          `json:"correctAnswers"`
	Explanation    string            `json:"explanation,omitempty"`
	Conditions     []string          `json:"conditions,omitempty"`
	CaseStudyID    string            `json:"caseStudyId,omitempty"`
}

// IsMultiSelect reports whether the question has more than one correct option.
// Every caller decides single vs. multi-select through this method.
func (q Question) IsMultiSelect() bool {
	return len(q.CorrectAnswers) > 1
}

// OptionKeys returns the option keys in sorted order.
func (q Question) OptionKeys() []string {
	keys := make([]string, 0, len(q.Options))
	for k := range q.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CaseStudy is shared context referenced by one or more questions.
type CaseStudy struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Course struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Topics      []string    `json:"topics,omitempty"`
	Questions   []Question  `json:"questions,omitempty"`
	CaseStudies []CaseStudy `json:"caseStudies,omitempty"`
}

var (
	ErrEmptyQuestionID   = errors.New("question id cannot be empty")
	ErrEmptyQuestionText = errors.New("question text cannot be empty")
	ErrNoOptions         = errors.New("question has no options")
	ErrNoCorrectAnswers  = errors.New("question has no correct answers")
	ErrDuplicateQuestion = errors.New("duplicate question id")
)

func New(id, title string) *Course {
	return &Course{
		ID:        id,
		Title:     title,
		Questions: []Question{},
	}
}

// AddQuestion validates q and appends it to the course.
func (c *Course) AddQuestion(q Question) error {
	if err := Validate(q); err != nil {
		return err
	}
	for _, existing := range c.Questions {
		if existing.ID == q.ID {
			return errors.Wrapf(ErrDuplicateQuestion, "question %s", q.ID)
		}
	}
	c.Questions = append(c.Questions, q)
	return nil
}

// Validate checks that a question is answerable: it has an id, text, options,
// and every correct answer names an existing option.
func Validate(q Question) error {
	if q.ID == "" {
		return ErrEmptyQuestionID
	}
	if q.Text == "" {
		return errors.Wrapf(ErrEmptyQuestionText, "question %s", q.ID)
	}
	if len(q.Options) == 0 {
		return errors.Wrapf(ErrNoOptions, "question %s", q.ID)
	}
	if len(q.CorrectAnswers) == 0 {
		return errors.Wrapf(ErrNoCorrectAnswers, "question %s", q.ID)
	}
	for _, k := range q.CorrectAnswers {
		if _, ok := q.Options[k]; !ok {
			return errors.Errorf("question %s: correct answer %q is not an option", q.ID, k)
		}
	}
	return nil
}

// TopicList returns the declared topics, or the question topics in order of
// first appearance when none are declared.
func (c *Course) TopicList() []string {
	if len(c.Topics) > 0 {
		return slices.Clone(c.Topics)
	}
	var topics []string
	for _, q := range c.Questions {
		if q.Topic != "" && !slices.Contains(topics, q.Topic) {
			topics = append(topics, q.Topic)
		}
	}
	return topics
}
