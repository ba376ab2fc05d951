// simulation/simulation.go
package simulation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/remaimber-it/quizrunner/internal/catalog"
	quizsession "github.com/remaimber-it/quizrunner/internal/domain/quiz_session"
	"github.com/remaimber-it/quizrunner/internal/service"
	"github.com/remaimber-it/quizrunner/internal/worker"
)

type Step struct {
	Action     string             `json:"action"` // answer, check, next
	Index      int                `json:"index"`
	QuestionID string             `json:"questionId"`
	Answer     quizsession.Answer `json:"answer"`
	Status     quizsession.Status `json:"status"`
}

// Report records one scripted attempt.
type Report struct {
	Key     string              `json:"key"`
	Config  quizsession.Config  `json:"config"`
	Resumed bool                `json:"resumed"`
	Empty   bool                `json:"empty"`
	Steps   []Step              `json:"steps"`
	Results quizsession.Results `json:"results"`
}

func (r Report) Summary() string {
	if r.Empty {
		return fmt.Sprintf("%s: no questions", r.Key)
	}
	return fmt.Sprintf("%s: %d/%d (%.0f%%) in %d steps",
		r.Key, r.Results.Score, r.Results.TotalQuestions, r.Results.Percentage, len(r.Steps))
}

// Walkthrough plays the quiz cfg to completion with correct answers. A
// multi-select question is first answered with only part of its key and
// checked, then corrected and checked again.
func Walkthrough(ctx context.Context, sessions *service.SessionService, c catalog.Catalog, cfg quizsession.Config) (Report, error) {
	e, err := sessions.Start(ctx, cfg)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Key:     e.Key(),
		Config:  cfg,
		Resumed: e.Resumed(),
	}
	if e.View().Empty {
		report.Empty = true
		return report, nil
	}

	for e.Prev(ctx) {
	}

	for {
		v := e.View()
		q, ok := c.GetQuestion(cfg.CourseID, v.Question.ID)
		if !ok {
			return report, errors.Errorf("question %s not in catalog", v.Question.ID)
		}
		i := v.CurrentIndex

		answer := func(a quizsession.Answer) error {
			if err := e.RecordAnswer(ctx, i, a); err != nil {
				return errors.Wrapf(err, "answer question %s", q.ID)
			}
			report.Steps = append(report.Steps, Step{
				Action: "answer", Index: i, QuestionID: string(q.ID),
				Answer: a, Status: e.View().Status,
			})
			return nil
		}
		check := func() error {
			status, err := e.Check(ctx, i)
			if err != nil {
				return errors.Wrapf(err, "check question %s", q.ID)
			}
			report.Steps = append(report.Steps, Step{
				Action: "check", Index: i, QuestionID: string(q.ID),
				Answer: e.View().Answer, Status: status,
			})
			return nil
		}

		if q.IsMultiSelect() {
			if err := answer(quizsession.SetOf(q.CorrectAnswers[0])); err != nil {
				return report, err
			}
			if err := check(); err != nil {
				return report, err
			}
			want := quizsession.SetOf(q.CorrectAnswers...)
			if err := answer(want); err != nil {
				return report, err
			}
			if err := check(); err != nil {
				return report, err
			}
			if got := e.View().Answer; !got.Equal(want) {
				return report, errors.Errorf("question %s: selection %v not kept after check", q.ID, got.Keys())
			}
		} else if err := answer(quizsession.Single(q.CorrectAnswers[0])); err != nil {
			return report, err
		}

		if !e.Next(ctx) {
			break
		}
		report.Steps = append(report.Steps, Step{Action: "next", Index: i + 1})
	}

	res, err := e.Finish(ctx)
	if err != nil {
		return report, errors.Wrap(err, "finish")
	}
	report.Results = res
	return report, nil
}

// Configs lists every quiz in the catalog: each course in full and each of
// its topics.
func Configs(c catalog.Catalog) []quizsession.Config {
	var out []quizsession.Config
	for _, crs := range c.ListCourses() {
		out = append(out, quizsession.FullQuiz(crs.ID))
		for _, topic := range c.ListTopics(crs.ID) {
			out = append(out, quizsession.TopicQuiz(crs.ID, topic))
		}
	}
	return out
}

type outcome struct {
	report Report
	err    error
}

// RunAll plays every quiz of the catalog on a pool of workers. Reports are
// sorted by quiz identity.
func RunAll(ctx context.Context, sessions *service.SessionService, c catalog.Catalog, workers int) ([]Report, error) {
	configs := Configs(c)
	pool := worker.NewPool[outcome](workers, len(configs))

	go func() {
		for _, cfg := range configs {
			cfg := cfg
			key, _ := quizsession.ResolveKey(&cfg)
			pool.Submit(key, func() outcome {
				r, err := Walkthrough(ctx, sessions, c, cfg)
				return outcome{report: r, err: err}
			})
		}
		pool.Close()
	}()

	reports := make([]Report, 0, len(configs))
	var failed []string
	for range configs {
		res := <-pool.Results()
		if res.Output.err != nil {
			failed = append(failed, res.JobID+": "+res.Output.err.Error())
			continue
		}
		reports = append(reports, res.Output.report)
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Key < reports[j].Key })
	if len(failed) > 0 {
		sort.Strings(failed)
		return reports, errors.Errorf("walkthrough failed: %s", strings.Join(failed, "; "))
	}
	return reports, nil
}
