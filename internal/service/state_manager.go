package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/remaimber-it/quizrunner/internal/catalog"
	"github.com/remaimber-it/quizrunner/internal/domain/course"
	quizsession "github.com/remaimber-it/quizrunner/internal/domain/quiz_session"
	"github.com/remaimber-it/quizrunner/internal/id"
	"github.com/remaimber-it/quizrunner/internal/metrics"
	"github.com/remaimber-it/quizrunner/internal/store"
)

// StateManager persists in-progress quizzes and keeps an index of them keyed
// by quiz identity. Storage failures never reach callers; corrupt entries are
// deleted when they are found.
type StateManager struct {
	store   *store.Store
	catalog catalog.Catalog
	logger  *zap.Logger

	mu    sync.RWMutex
	index map[string]quizsession.SavedState
}

func NewStateManager(s *store.Store, c catalog.Catalog, logger *zap.Logger) *StateManager {
	return &StateManager{
		store:   s,
		catalog: c,
		logger:  logger,
		index:   make(map[string]quizsession.SavedState),
	}
}

// Key resolves the storage identity of cfg.
func (m *StateManager) Key(cfg quizsession.Config) (string, bool) {
	return quizsession.ResolveKey(&cfg)
}

// LoadAll rebuilds the index from storage for every quiz the catalog knows:
// each course as a whole and each of its topics.
func (m *StateManager) LoadAll(ctx context.Context) map[string]quizsession.SavedState {
	found := make(map[string]quizsession.SavedState)

	for _, c := range m.catalog.ListCourses() {
		configs := []quizsession.Config{quizsession.FullQuiz(c.ID)}
		for _, topic := range m.catalog.ListTopics(c.ID) {
			configs = append(configs, quizsession.TopicQuiz(c.ID, topic))
		}

		for _, cfg := range configs {
			key, ok := m.Key(cfg)
			if !ok {
				continue
			}
			raw, ok := m.store.ReloadRaw(ctx, key)
			if !ok {
				continue
			}
			if err := quizsession.ValidateSavedStateSummary(raw); err != nil {
				m.purge(ctx, key, err)
				continue
			}
			st, err := quizsession.DecodeSavedState(raw)
			if err != nil {
				m.purge(ctx, key, err)
				continue
			}
			if len(st.QuestionIDs) == len(st.UserAnswers) {
				m.rehydrate(cfg.CourseID, &st)
			}
			found[key] = st
		}
	}

	m.mu.Lock()
	m.index = found
	m.mu.Unlock()

	m.logger.Debug("in-progress index loaded", zap.Int("quizzes", len(found)))
	return m.InProgress()
}

// Refresh re-reads the in-progress index from storage.
func (m *StateManager) Refresh(ctx context.Context) map[string]quizsession.SavedState {
	return m.LoadAll(ctx)
}

// Save writes state for cfg, or deletes it when state is nil. It is a no-op
// when cfg has no identity.
func (m *StateManager) Save(ctx context.Context, cfg quizsession.Config, state *quizsession.SavedState) {
	key, ok := m.Key(cfg)
	if !ok {
		return
	}

	if state == nil {
		m.store.Remove(ctx, key)
		m.mu.Lock()
		delete(m.index, key)
		m.mu.Unlock()
		return
	}

	m.store.Set(ctx, key, state)
	m.mu.Lock()
	m.index[key] = state.Clone()
	m.mu.Unlock()
}

// Load reads the saved state of cfg, bypassing any cached copy. Entries that
// fail validation are deleted and reported as absent. Answers are reconciled
// with the catalog as it is now.
func (m *StateManager) Load(ctx context.Context, cfg quizsession.Config) *quizsession.SavedState {
	key, ok := m.Key(cfg)
	if !ok {
		return nil
	}

	raw, ok := m.store.ReloadRaw(ctx, key)
	if !ok {
		return nil
	}
	if err := quizsession.ValidateSavedState(raw); err != nil {
		m.purge(ctx, key, err)
		return nil
	}
	st, err := quizsession.DecodeSavedState(raw)
	if err != nil {
		m.purge(ctx, key, err)
		return nil
	}
	if len(st.UserAnswers) != len(st.QuestionIDs) {
		m.purge(ctx, key, quizsession.ErrInvalidRecord)
		return nil
	}

	m.rehydrate(cfg.CourseID, &st)
	st.BackfillChecked()
	st.ClampIndex()
	return &st
}

// ClearAll deletes every in-progress quiz and the completed-attempt log.
func (m *StateManager) ClearAll(ctx context.Context) {
	for _, key := range m.store.Keys(ctx, id.QuizStatePrefix) {
		m.store.Remove(ctx, key)
	}

	// Keys cannot be listed on every backend; sweep the known identities too.
	m.mu.RLock()
	known := make([]string, 0, len(m.index))
	for key := range m.index {
		known = append(known, key)
	}
	m.mu.RUnlock()
	for _, key := range known {
		m.store.Remove(ctx, key)
	}

	m.store.Remove(ctx, store.ResultsKey)

	m.mu.Lock()
	m.index = make(map[string]quizsession.SavedState)
	m.mu.Unlock()

	m.logger.Info("all quiz progress cleared")
}

// InProgress returns a copy of the index.
func (m *StateManager) InProgress() map[string]quizsession.SavedState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]quizsession.SavedState, len(m.index))
	for key, st := range m.index {
		out[key] = st.Clone()
	}
	return out
}

// rehydrate turns stored arrays back into answer sets for questions that are
// multi-select in the current catalog, and drops them everywhere else.
func (m *StateManager) rehydrate(courseID string, st *quizsession.SavedState) {
	for i, qid := range st.QuestionIDs {
		q, ok := m.catalog.GetQuestion(courseID, qid)
		st.UserAnswers[i] = st.UserAnswers[i].Coerce(ok && q.IsMultiSelect())
	}
}

func (m *StateManager) purge(ctx context.Context, key string, err error) {
	m.logger.Warn("discarding corrupt quiz state",
		zap.String("key", key),
		zap.Error(err),
	)
	metrics.CorruptEntriesPurged.Inc()
	m.store.Remove(ctx, key)
}

// questionsFor resolves ids in order, skipping those the catalog no longer has.
func (m *StateManager) questionsFor(courseID string, ids []course.QuestionID) ([]course.Question, []int) {
	questions := make([]course.Question, 0, len(ids))
	kept := make([]int, 0, len(ids))
	for i, qid := range ids {
		q, ok := m.catalog.GetQuestion(courseID, qid)
		if !ok {
			continue
		}
		questions = append(questions, q)
		kept = append(kept, i)
	}
	return questions, kept
}
