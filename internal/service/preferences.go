package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/remaimber-it/quizrunner/internal/catalog"
	"github.com/remaimber-it/quizrunner/internal/store"
)

var ErrUnknownCourse = errors.New("unknown course")

// Preferences remembers the course last picked by the user.
type Preferences struct {
	store   *store.Store
	catalog catalog.Catalog
}

func NewPreferences(s *store.Store, c catalog.Catalog) *Preferences {
	return &Preferences{store: s, catalog: c}
}

// SelectedCourse returns the remembered course, falling back to the first
// catalog course when none is remembered or it has left the catalog.
func (p *Preferences) SelectedCourse(ctx context.Context) string {
	courses := p.catalog.ListCourses()
	selected := store.Get(ctx, p.store, store.SelectedCourseKey, "")
	for _, c := range courses {
		if c.ID == selected {
			return selected
		}
	}
	if len(courses) > 0 {
		return courses[0].ID
	}
	return ""
}

func (p *Preferences) SelectCourse(ctx context.Context, courseID string) error {
	for _, c := range p.catalog.ListCourses() {
		if c.ID == courseID {
			p.store.Set(ctx, store.SelectedCourseKey, courseID)
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownCourse, "course %q", courseID)
}
