package service

import (
	"context"
	"encoding/json"
	"math"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	quizsession "github.com/remaimber-it/quizrunner/internal/domain/quiz_session"
	"github.com/remaimber-it/quizrunner/internal/store"
)

// HistoryLimit is the number of completed attempts kept.
const HistoryLimit = 50

// LastAttempt summarizes the most recent completed attempt of one quiz.
type LastAttempt struct {
	Score          int     `json:"score"`
	TotalQuestions int     `json:"totalQuestions"`
	Percentage     float64 `json:"percentage"`
	Timestamp      int64   `json:"timestamp"`
}

// History is the log of completed attempts, oldest first. Entries are kept as
// stored so that a malformed entry never disturbs the others.
type History struct {
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewHistory creates a History. A nil now uses time.Now.
func NewHistory(s *store.Store, logger *zap.Logger, now func() time.Time) *History {
	if now == nil {
		now = time.Now
	}
	return &History{
		store:  s,
		logger: logger,
		now:    now,
	}
}

// Append adds r to the log and returns it as stored. A zero timestamp is
// replaced by the current time, moved past the newest stored entry so that it
// never collides. An earlier entry with the same caller-supplied timestamp is
// replaced.
func (h *History) Append(ctx context.Context, r quizsession.Results) quizsession.Results {
	h.mu.Lock()
	defer h.mu.Unlock()

	type entry struct {
		raw json.RawMessage
		ts  int64
	}
	var (
		entries []entry
		newest  int64
	)
	for _, e := range h.entries(ctx) {
		ts, _ := entryTimestamp(e)
		newest = max(newest, ts)
		entries = append(entries, entry{raw: e, ts: ts})
	}

	if r.Timestamp == 0 {
		r.Timestamp = max(h.now().UnixMilli(), newest+1)
	} else {
		entries = slices.DeleteFunc(entries, func(e entry) bool {
			return e.ts == r.Timestamp
		})
	}

	raw, err := json.Marshal(r)
	if err != nil {
		h.logger.Error("encode results", zap.Error(err))
		return r
	}
	entries = append(entries, entry{raw: raw, ts: r.Timestamp})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ts < entries[j].ts
	})
	if len(entries) > HistoryLimit {
		entries = entries[len(entries)-HistoryLimit:]
	}

	log := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		log[i] = e.raw
	}
	h.store.Set(ctx, store.ResultsKey, log)
	return r
}

// LatestByIdentity returns, per quiz identity, the completed attempt with the
// greatest timestamp. Entries without a course, a readable timestamp or a
// numeric score are ignored.
func (h *History) LatestByIdentity(ctx context.Context) map[string]LastAttempt {
	latest := make(map[string]LastAttempt)

	for _, raw := range h.entries(ctx) {
		if err := quizsession.ValidateResultsEntry(raw); err != nil {
			continue
		}
		ts, ok := entryTimestamp(raw)
		if !ok {
			continue
		}

		var e struct {
			CourseID       string   `json:"courseId"`
			TopicID        any      `json:"topicId"`
			Score          float64  `json:"score"`
			TotalQuestions float64  `json:"totalQuestions"`
			Percentage     *float64 `json:"percentage"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}

		cfg := quizsession.FullQuiz(e.CourseID)
		if topic, ok := e.TopicID.(string); ok {
			cfg = quizsession.TopicQuiz(e.CourseID, topic)
		}
		key, ok := quizsession.ResolveKey(&cfg)
		if !ok {
			continue
		}
		if prev, seen := latest[key]; seen && prev.Timestamp > ts {
			continue
		}

		pct := 0.0
		if e.Percentage != nil {
			pct = *e.Percentage
		} else if e.TotalQuestions > 0 {
			pct = e.Score / e.TotalQuestions * 100
		}
		latest[key] = LastAttempt{
			Score:          int(e.Score),
			TotalQuestions: int(e.TotalQuestions),
			Percentage:     pct,
			Timestamp:      ts,
		}
	}
	return latest
}

// List returns every readable entry, oldest first.
func (h *History) List(ctx context.Context) []quizsession.Results {
	var out []quizsession.Results
	for _, raw := range h.entries(ctx) {
		if err := quizsession.ValidateResultsEntry(raw); err != nil {
			continue
		}
		ts, ok := entryTimestamp(raw)
		if !ok {
			continue
		}

		var e struct {
			quizsession.Results
			Timestamp any `json:"timestamp"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			h.logger.Debug("skipping unreadable history entry", zap.Error(err))
			continue
		}
		e.Results.Timestamp = ts
		out = append(out, e.Results)
	}
	return out
}

// entries reads the raw log. A log that is not a JSON array reads as empty
// and is replaced by the next Append.
func (h *History) entries(ctx context.Context) []json.RawMessage {
	raw, ok := h.store.ReloadRaw(ctx, store.ResultsKey)
	if !ok {
		return nil
	}
	if err := quizsession.ValidateResultsLog(raw); err != nil {
		h.logger.Warn("ignoring malformed results log", zap.Error(err))
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		h.logger.Warn("ignoring malformed results log", zap.Error(err))
		return nil
	}
	return entries
}

// entryTimestamp reads the timestamp of a raw entry in epoch milliseconds.
// Numbers, numeric strings and RFC 3339 strings are accepted.
func entryTimestamp(raw json.RawMessage) (int64, bool) {
	var e struct {
		Timestamp any `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return 0, false
	}
	switch v := e.Timestamp.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int64(f), true
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}
