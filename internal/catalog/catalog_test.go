package catalog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/remaimber-it/quizrunner/internal/catalog"
	"github.com/remaimber-it/quizrunner/internal/domain/course"
)

func TestDefault_BundledDemoCourse(t *testing.T) {
	c := catalog.Default()

	courses := c.ListCourses()
	if len(courses) < 1 || courses[0].ID != "demo" {
		t.Fatalf("expected demo course first, got %+v", courses)
	}
	if courses[0].Questions != nil {
		t.Error("expected course summaries without questions")
	}

	topic := "t1"
	qs := c.ListQuestions("demo", &topic)
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions in t1, got %d", len(qs))
	}
	if len(c.ListQuestions("demo", nil)) != 3 {
		t.Error("expected 3 questions in the full demo quiz")
	}

	q, ok := c.GetQuestion("demo", "2")
	if !ok || !q.IsMultiSelect() {
		t.Errorf("expected question 2 to be multi-select, got %+v", q)
	}
}

func TestDefault_IsSingleton(t *testing.T) {
	if catalog.Default() != catalog.Default() {
		t.Error("expected the same catalog instance")
	}
}

func TestListTopics_DerivedFromQuestions(t *testing.T) {
	topics := catalog.Default().ListTopics("go-basics")

	if len(topics) != 2 || topics[0] != "Concurrency" || topics[1] != "Types & Interfaces" {
		t.Errorf("unexpected topics %v", topics)
	}
}

func TestGetCaseStudy(t *testing.T) {
	c := catalog.Default()

	cs, ok := c.GetCaseStudy("go-basics", "orders-service")
	if !ok || cs.Title != "Orders service" {
		t.Errorf("expected orders-service case study, got %+v", cs)
	}
	if _, ok := c.GetCaseStudy("demo", "orders-service"); ok {
		t.Error("expected case study lookup to be scoped to its course")
	}
}

func TestUnknownCourse(t *testing.T) {
	c := catalog.Default()

	if c.ListTopics("nope") != nil || c.ListQuestions("nope", nil) != nil {
		t.Error("expected nothing for an unknown course")
	}
	if _, ok := c.GetQuestion("nope", "1"); ok {
		t.Error("expected no question for an unknown course")
	}
}

func TestFromJSON_RejectsDuplicateQuestions(t *testing.T) {
	doc := `{"courses":[{"id":"c","title":"C","questions":[
		{"id":1,"question":"q","options":{"A":"a"},"correctAnswers":["A"]},
		{"id":"1","question":"q","options":{"A":"a"},"correctAnswers":["A"]}
	]}]}`

	_, err := catalog.FromJSON(strings.NewReader(doc))
	if !errors.Is(err, course.ErrDuplicateQuestion) {
		t.Errorf("expected ErrDuplicateQuestion, got %v", err)
	}
	if err != nil && !strings.HasPrefix(err.Error(), `catalog: course "c"`) {
		t.Errorf("expected the course in the message, got %q", err)
	}
}

func TestNew_RejectsDuplicateCourses(t *testing.T) {
	_, err := catalog.New([]course.Course{{ID: "a"}, {ID: "a"}})
	if err == nil {
		t.Error("expected duplicate course ids to be rejected")
	}
}

func TestLoad_EmptyPathUsesBundled(t *testing.T) {
	c, err := catalog.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != catalog.Catalog(catalog.Default()) {
		t.Error("expected bundled catalog")
	}
}
