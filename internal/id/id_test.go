package id_test

import (
	"testing"

	"github.com/remaimber-it/quizrunner/internal/id"
)

func ptr(s string) *string { return &s }

func TestQuizKey_Full(t *testing.T) {
	if got := id.QuizKey("demo", nil); got != "quizState_demo_full" {
		t.Errorf("expected %q, got %q", "quizState_demo_full", got)
	}
}

func TestQuizKey_Topic(t *testing.T) {
	if got := id.QuizKey("demo", ptr("t1")); got != "quizState_demo_t1" {
		t.Errorf("expected %q, got %q", "quizState_demo_t1", got)
	}
}

func TestQuizKey_Deterministic(t *testing.T) {
	a := id.QuizKey("demo", ptr("Networking & Security"))
	b := id.QuizKey("demo", ptr("Networking & Security"))
	if a != b {
		t.Errorf("expected equal keys, got %q and %q", a, b)
	}
}

func TestQuizKey_EmptyCourse(t *testing.T) {
	if got := id.QuizKey("", ptr("t1")); got != "" {
		t.Errorf("expected empty key, got %q", got)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain_topic-1", "plain_topic-1"},
		{"Networking & Security", "Networking___Security"},
		{"a/b.c", "a_b_c"},
		{"café", "caf_"},
		{"😀", "__"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := id.Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestNew_UniqueIDs(t *testing.T) {
	if id.New() == id.New() {
		t.Error("expected different ids")
	}
}
