package service_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remaimber-it/quizrunner/internal/catalog"
	"github.com/remaimber-it/quizrunner/internal/domain/course"
	"github.com/remaimber-it/quizrunner/internal/service"
	"github.com/remaimber-it/quizrunner/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// demoCatalog is a course with three questions: 1 (t1, single, A),
// 2 (t1, multi, A+B) and 3 (t2, single, B).
func demoCatalog(t *testing.T) *catalog.Static {
	t.Helper()
	c, err := catalog.New([]course.Course{{
		ID:     "demo",
		Title:  "Demo",
		Topics: []string{"t1", "t2"},
		Questions: []course.Question{
			{
				ID: "1", Topic: "t1", Text: "First letter?",
				Options:        map[string]string{"A": "A", "B": "B", "C": "C"},
				CorrectAnswers: []string{"A"},
				Explanation:    "A comes first.",
			},
			{
				ID: "2", Topic: "t1", Text: "Vowels?",
				Options:        map[string]string{"A": "A", "B": "E", "C": "K"},
				CorrectAnswers: []string{"A", "B"},
			},
			{
				ID: "3", Topic: "t2", Text: "Triangle sides?",
				Options:        map[string]string{"A": "2", "B": "3"},
				CorrectAnswers: []string{"B"},
			},
		},
	}})
	require.NoError(t, err)
	return c
}

type fixture struct {
	backend  *store.MemoryBackend
	store    *store.Store
	catalog  *catalog.Static
	clock    *fakeClock
	states   *service.StateManager
	history  *service.History
	sessions *service.SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, store.NewMemory(), newFakeClock())
}

// newFixtureOn wires fresh services over an existing backend, as a restart
// of the process would.
func newFixtureOn(t *testing.T, backend *store.MemoryBackend, clock *fakeClock) *fixture {
	t.Helper()
	return newFixtureVia(t, backend, backend, clock)
}

// newFixtureVia wires the services through via while keeping direct access
// to the memory backend underneath it.
func newFixtureVia(t *testing.T, backend *store.MemoryBackend, via store.Backend, clock *fakeClock) *fixture {
	t.Helper()
	logger := zap.NewNop()
	cat := demoCatalog(t)
	s := store.New(via, logger)
	states := service.NewStateManager(s, cat, logger)
	history := service.NewHistory(s, logger, clock.Now)
	sessions := service.NewSessionService(cat, states, history, logger,
		service.WithClock(clock.Now),
		service.WithRand(rand.New(rand.NewSource(7))),
	)
	return &fixture{
		backend:  backend,
		store:    s,
		catalog:  cat,
		clock:    clock,
		states:   states,
		history:  history,
		sessions: sessions,
	}
}

// failingBackend refuses every write.
type failingBackend struct {
	*store.MemoryBackend
}

var errWriteRefused = errors.New("write refused")

func (failingBackend) Set(context.Context, string, string) error {
	return errWriteRefused
}

func strPtr(s string) *string { return &s }
