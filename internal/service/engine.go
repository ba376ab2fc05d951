package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/remaimber-it/quizrunner/internal/catalog"
	"github.com/remaimber-it/quizrunner/internal/domain/course"
	quizsession "github.com/remaimber-it/quizrunner/internal/domain/quiz_session"
	"github.com/remaimber-it/quizrunner/internal/id"
	"github.com/remaimber-it/quizrunner/internal/metrics"
)

var ErrInvalidConfig = errors.New("invalid quiz configuration")

type Phase string

const (
	PhaseLoading      Phase = "loading"
	PhaseInitializing Phase = "initializing"
	PhaseResuming     Phase = "resuming"
	PhaseActive       Phase = "active"
	PhaseFinished     Phase = "finished"
)

// SessionService starts quiz attempts, resuming saved progress when there is
// any.
type SessionService struct {
	catalog catalog.Catalog
	states  *StateManager
	history *History
	logger  *zap.Logger
	now     func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*SessionService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) {
		s.now = now
	}
}

// WithRand sets the source used to shuffle new attempts.
func WithRand(rng *rand.Rand) Option {
	return func(s *SessionService) {
		s.rng = rng
	}
}

func NewSessionService(c catalog.Catalog, states *StateManager, history *History, logger *zap.Logger, opts ...Option) *SessionService {
	s := &SessionService{
		catalog: c,
		states:  states,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.now().UnixNano()))
	}
	return s
}

// Start opens an attempt for cfg. Saved progress is resumed; otherwise the
// configured questions are shuffled into a fresh attempt. A configuration
// with no questions yields an empty engine, not an error.
func (s *SessionService) Start(ctx context.Context, cfg quizsession.Config) (*Engine, error) {
	key, ok := quizsession.ResolveKey(&cfg)
	if !ok {
		return nil, ErrInvalidConfig
	}

	sessionID := id.New()
	e := &Engine{
		id:    sessionID,
		cfg:   cfg,
		key:   key,
		svc:   s,
		phase: PhaseLoading,
		logger: s.logger.With(
			zap.String("session_id", sessionID),
			zap.String("quiz", key),
		),
	}

	if saved := s.states.Load(ctx, cfg); saved != nil && e.resume(ctx, *saved) {
		metrics.SessionsStarted.WithLabelValues("resumed").Inc()
	} else {
		e.initialize()
		metrics.SessionsStarted.WithLabelValues("fresh").Inc()
	}

	e.phase = PhaseActive
	e.logger.Info("quiz session started",
		zap.Bool("resumed", e.resumed),
		zap.Int("questions", e.session.Total()),
	)
	return e, nil
}

// Engine drives one quiz attempt and persists it after every change.
type Engine struct {
	id     string
	cfg    quizsession.Config
	key    string
	svc    *SessionService
	logger *zap.Logger

	mu      sync.Mutex
	phase   Phase
	session *quizsession.Session
	resumed bool
	results *quizsession.Results
}

func (e *Engine) initialize() {
	e.phase = PhaseInitializing
	questions := e.svc.catalog.ListQuestions(e.cfg.CourseID, e.cfg.TopicID)

	e.svc.rngMu.Lock()
	e.session = quizsession.New(questions, e.svc.rng, e.svc.now())
	e.svc.rngMu.Unlock()
}

// resume rebuilds the attempt from saved. Questions that left the catalog are
// dropped together with their answers. It reports false when none remain.
func (e *Engine) resume(ctx context.Context, saved quizsession.SavedState) bool {
	e.phase = PhaseResuming

	questions, kept := e.svc.states.questionsFor(e.cfg.CourseID, saved.QuestionIDs)
	if len(questions) == 0 {
		e.logger.Warn("saved quiz has no resolvable questions, starting over")
		return false
	}

	dropped := len(saved.QuestionIDs) - len(kept)
	if dropped > 0 {
		e.logger.Warn("dropping saved questions missing from the catalog",
			zap.Int("dropped", dropped),
		)
		saved = realign(saved, kept)
	}

	e.session = quizsession.Restore(questions, saved, e.svc.now())
	e.resumed = true
	if dropped > 0 {
		e.persist(ctx)
	}
	return true
}

// realign keeps only the entries at positions kept. The current index follows
// its question, or the next surviving one when it was dropped, or the last
// one when nothing after it survived.
func realign(saved quizsession.SavedState, kept []int) quizsession.SavedState {
	out := saved
	out.QuestionIDs = make([]course.QuestionID, len(kept))
	out.UserAnswers = make([]quizsession.Answer, len(kept))
	out.CheckedAnswers = make([]bool, len(kept))
	out.CurrentIndex = 0

	for n, i := range kept {
		out.QuestionIDs[n] = saved.QuestionIDs[i]
		out.UserAnswers[n] = saved.UserAnswers[i]
		out.CheckedAnswers[n] = saved.CheckedAnswers[i]
		if i < saved.CurrentIndex {
			out.CurrentIndex = n + 1
		}
	}
	if out.CurrentIndex >= len(kept) {
		out.CurrentIndex = len(kept) - 1
	}
	return out
}

func (e *Engine) persist(ctx context.Context) {
	snap := e.session.Snapshot(e.cfg)
	e.svc.states.Save(ctx, e.cfg, &snap)
}

func (e *Engine) ID() string                 { return e.id }
func (e *Engine) Key() string                { return e.key }
func (e *Engine) Config() quizsession.Config { return e.cfg }

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Resumed reports whether the attempt continued saved progress.
func (e *Engine) Resumed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resumed
}

func (e *Engine) RecordAnswer(ctx context.Context, index int, a quizsession.Answer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.session.RecordAnswer(index, a); err != nil {
		return err
	}

	kind := "single"
	if q, _ := e.session.Question(index); q.IsMultiSelect() {
		kind = "multi"
	}
	metrics.AnswersRecorded.WithLabelValues(kind).Inc()

	e.persist(ctx)
	return nil
}

// Check judges the selection of a multi-select question.
func (e *Engine) Check(ctx context.Context, index int) (quizsession.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	status, err := e.session.Check(index)
	if err != nil {
		return quizsession.StatusNone, err
	}
	e.persist(ctx)
	return status, nil
}

// Next moves forward one question and reports whether the index changed.
func (e *Engine) Next(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Next() {
		return false
	}
	e.persist(ctx)
	return true
}

// Prev moves back one question and reports whether the index changed.
func (e *Engine) Prev(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Prev() {
		return false
	}
	e.persist(ctx)
	return true
}

// Finish scores the attempt, removes its saved progress and records it in the
// history.
func (e *Engine) Finish(ctx context.Context) (quizsession.Results, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Finished() {
		return quizsession.Results{}, quizsession.ErrFinished
	}

	res, err := e.session.Grade(e.cfg, e.svc.now())
	if err != nil {
		return quizsession.Results{}, err
	}

	e.svc.states.Save(ctx, e.cfg, nil)
	res = e.svc.history.Append(ctx, res)

	e.session.Complete()
	e.phase = PhaseFinished
	e.results = &res

	metrics.SessionsFinished.Inc()
	metrics.ScorePercentage.Observe(res.Percentage)
	e.logger.Info("quiz session finished",
		zap.Int("score", res.Score),
		zap.Int("total", res.TotalQuestions),
		zap.Int64("duration_s", res.DurationSeconds),
	)
	return res, nil
}

// QuestionView is a question as shown to the user. Correct answers and the
// explanation are only filled in while feedback is visible.
type QuestionView struct {
	ID             course.QuestionID `json:"id"`
	Topic          string            `json:"topic,omitempty"`
	Text           string            `json:"question"`
	Options        map[string]string `json:"options"`
	OptionKeys     []string          `json:"optionKeys"`
	MultiSelect    bool              `json:"multiSelect"`
	Conditions     []string          `json:"conditions,omitempty"`
	CaseStudy      *course.CaseStudy `json:"caseStudy,omitempty"`
	CorrectAnswers []string          `json:"correctAnswers,omitempty"`
	Explanation    string            `json:"explanation,omitempty"`
}

// View is a snapshot of the engine for presentation.
type View struct {
	SessionID       string               `json:"sessionId"`
	Phase           Phase                `json:"phase"`
	CourseID        string               `json:"courseId"`
	TopicID         *string              `json:"topicId"`
	Resumed         bool                 `json:"resumed"`
	Empty           bool                 `json:"empty"`
	CurrentIndex    int                  `json:"currentIndex"`
	Total           int                  `json:"total"`
	Answered        int                  `json:"answered"`
	Question        *QuestionView        `json:"question,omitempty"`
	Answer          quizsession.Answer   `json:"answer"`
	Status          quizsession.Status   `json:"status"`
	Checked         bool                 `json:"checked"`
	FeedbackVisible bool                 `json:"feedbackVisible"`
	CanPrev         bool                 `json:"canPrev"`
	CanNext         bool                 `json:"canNext"`
	CanFinish       bool                 `json:"canFinish"`
	Results         *quizsession.Results `json:"results,omitempty"`
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	v := View{
		SessionID:       e.id,
		Phase:           e.phase,
		CourseID:        e.cfg.CourseID,
		TopicID:         e.cfg.TopicID,
		Resumed:         e.resumed,
		Empty:           s.Empty(),
		CurrentIndex:    s.Index(),
		Total:           s.Total(),
		Answered:        s.Answered(),
		FeedbackVisible: s.FeedbackVisible(),
		Results:         e.results,
	}

	q, ok := s.Current()
	if !ok || e.phase == PhaseFinished {
		return v
	}

	i := s.Index()
	v.Answer = s.Answer(i)
	v.Status = s.Status(i)
	v.Checked = s.Checked(i)
	v.CanPrev = i > 0
	v.CanNext = i < s.Total()-1 && settled(q, v.Answer, v.Checked)
	v.CanFinish = true

	qv := &QuestionView{
		ID:          q.ID,
		Topic:       q.Topic,
		Text:        q.Text,
		Options:     q.Options,
		OptionKeys:  q.OptionKeys(),
		MultiSelect: q.IsMultiSelect(),
		Conditions:  q.Conditions,
	}
	if q.CaseStudyID != "" {
		if cs, ok := e.svc.catalog.GetCaseStudy(e.cfg.CourseID, q.CaseStudyID); ok {
			qv.CaseStudy = &cs
		}
	}
	if v.FeedbackVisible {
		qv.CorrectAnswers = q.CorrectAnswers
		qv.Explanation = q.Explanation
	}
	v.Question = qv
	return v
}

// settled reports whether the user has committed to an answer: any answer for
// single-select, a checked selection for multi-select.
func settled(q course.Question, a quizsession.Answer, checked bool) bool {
	if q.IsMultiSelect() {
		return checked
	}
	return !a.IsNone()
}
