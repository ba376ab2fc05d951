package quizsession

import "github.com/remaimber-it/quizrunner/internal/id"

type Kind string

const (
	KindFull  Kind = "full"
	KindTopic Kind = "topic"
)

// Config selects the questions of a quiz: a whole course when TopicID is nil,
// otherwise a single topic of it.
type Config struct {
	CourseID string  `json:"courseId"`
	TopicID  *string `json:"topicId"`
}

func FullQuiz(courseID string) Config {
	return Config{CourseID: courseID}
}

func TopicQuiz(courseID, topicID string) Config {
	return Config{CourseID: courseID, TopicID: &topicID}
}

func (c Config) Kind() Kind {
	if c.TopicID == nil {
		return KindFull
	}
	return KindTopic
}

// ResolveKey returns the storage identity of cfg, or false when cfg is nil or
// has no course.
func ResolveKey(cfg *Config) (string, bool) {
	if cfg == nil {
		return "", false
	}
	key := id.QuizKey(cfg.CourseID, cfg.TopicID)
	return key, key != ""
}
