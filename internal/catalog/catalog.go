// Package catalog serves the read-only course, topic, question and case study
// data that quizzes are built from.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/remaimber-it/quizrunner/internal/domain/course"
)

// Catalog is the lookup surface the quiz core consumes.
type Catalog interface {
	ListCourses() []course.Course
	ListTopics(courseID string) []string
	// ListQuestions returns the questions of a course, restricted to one topic
	// when topicID is non-nil.
	ListQuestions(courseID string, topicID *string) []course.Question
	GetQuestion(courseID string, questionID course.QuestionID) (course.Question, bool)
	GetCaseStudy(courseID, caseStudyID string) (course.CaseStudy, bool)
}

type courseIndex struct {
	course      course.Course
	topics      []string
	questions   map[course.QuestionID]course.Question
	caseStudies map[string]course.CaseStudy
}

// Static is an immutable in-memory Catalog.
type Static struct {
	order   []string
	courses map[string]*courseIndex
}

var _ Catalog = (*Static)(nil)

// New indexes courses. Every question is validated and question ids must be
// unique within their course.
func New(courses []course.Course) (*Static, error) {
	c := &Static{courses: make(map[string]*courseIndex, len(courses))}

	for _, src := range courses {
		if src.ID == "" {
			return nil, errors.New("catalog: course with empty id")
		}
		if _, dup := c.courses[src.ID]; dup {
			return nil, errors.Errorf("catalog: duplicate course id %q", src.ID)
		}

		built := course.New(src.ID, src.Title)
		built.Topics = src.Topics
		built.CaseStudies = src.CaseStudies
		for _, q := range src.Questions {
			if err := built.AddQuestion(q); err != nil {
				return nil, errors.Wrapf(err, "catalog: course %q", src.ID)
			}
		}

		idx := &courseIndex{
			course:      *built,
			topics:      built.TopicList(),
			questions:   make(map[course.QuestionID]course.Question, len(built.Questions)),
			caseStudies: make(map[string]course.CaseStudy, len(built.CaseStudies)),
		}
		for _, q := range built.Questions {
			idx.questions[q.ID] = q
		}
		for _, cs := range built.CaseStudies {
			idx.caseStudies[cs.ID] = cs
		}

		c.order = append(c.order, src.ID)
		c.courses[src.ID] = idx
	}
	return c, nil
}

type document struct {
	Courses []course.Course `json:"courses"`
}

// FromJSON builds a catalog from a {"courses": [...]} document.
func FromJSON(r io.Reader) (*Static, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "catalog: decode")
	}
	return New(doc.Courses)
}

func FromFile(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "catalog")
	}
	defer f.Close()
	return FromJSON(f)
}

//go:embed data/courses.json
var bundled []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Static
)

// Default returns the process-wide catalog built from the bundled data. It is
// built on first use and never modified afterwards.
func Default() *Static {
	defaultOnce.Do(func() {
		c, err := FromJSON(bytes.NewReader(bundled))
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load returns the catalog at path, or the bundled catalog when path is empty.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return FromFile(path)
}

// ListCourses returns course summaries (id, title, topics) in catalog order.
func (c *Static) ListCourses() []course.Course {
	out := make([]course.Course, 0, len(c.order))
	for _, id := range c.order {
		idx := c.courses[id]
		out = append(out, course.Course{
			ID:     idx.course.ID,
			Title:  idx.course.Title,
			Topics: append([]string(nil), idx.topics...),
		})
	}
	return out
}

func (c *Static) ListTopics(courseID string) []string {
	idx, ok := c.courses[courseID]
	if !ok {
		return nil
	}
	return append([]string(nil), idx.topics...)
}

func (c *Static) ListQuestions(courseID string, topicID *string) []course.Question {
	idx, ok := c.courses[courseID]
	if !ok {
		return nil
	}

	var out []course.Question
	for _, q := range idx.course.Questions {
		if topicID != nil && q.Topic != *topicID {
			continue
		}
		out = append(out, q)
	}
	return out
}

func (c *Static) GetQuestion(courseID string, questionID course.QuestionID) (course.Question, bool) {
	idx, ok := c.courses[courseID]
	if !ok {
		return course.Question{}, false
	}
	q, ok := idx.questions[questionID]
	return q, ok
}

func (c *Static) GetCaseStudy(courseID, caseStudyID string) (course.CaseStudy, bool) {
	idx, ok := c.courses[courseID]
	if !ok {
		return course.CaseStudy{}, false
	}
	cs, ok := idx.caseStudies[caseStudyID]
	return cs, ok
}
