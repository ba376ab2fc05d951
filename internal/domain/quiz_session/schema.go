package quizsession

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/remaimber-it/quizrunner/internal/domain/course"
)

// ErrInvalidRecord is returned when persisted JSON does not have the shape of
// the record it is read as.
var ErrInvalidRecord = errors.New("invalid persisted record")

var (
	savedStateSchema = mustSchema(`{
		"type": "object",
		"required": ["currentIndex", "userAnswers", "questionIds"],
		"properties": {
			"currentIndex": {"type": "number"},
			"userAnswers": {"type": "array"},
			"questionIds": {"type": "array", "items": {"type": ["string", "number"]}}
		}
	}`)

	savedStateSummarySchema = mustSchema(`{
		"type": "object",
		"required": ["currentIndex", "userAnswers"],
		"properties": {
			"currentIndex": {"type": "number"},
			"userAnswers": {"type": "array"}
		}
	}`)

	resultsLogSchema = mustSchema(`{"type": "array"}`)

	resultsEntrySchema = mustSchema(`{
		"type": "object",
		"required": ["courseId", "score", "totalQuestions", "timestamp"],
		"properties": {
			"courseId": {"type": "string", "minLength": 1},
			"topicId": {"type": ["string", "null"]},
			"score": {"type": "number"},
			"totalQuestions": {"type": "number"},
			"percentage": {"type": ["number", "null"]},
			"timestamp": {"type": ["number", "string"]}
		}
	}`)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("quizsession: invalid schema: " + err.Error())
	}
	return schema
}

func validate(schema *gojsonschema.Schema, raw []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.Wrap(ErrInvalidRecord, err.Error())
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.Wrap(ErrInvalidRecord, strings.Join(msgs, "; "))
	}
	return nil
}

// ValidateSavedState checks the full resumable shape: a numeric index and
// answer and question id lists.
func ValidateSavedState(raw []byte) error {
	return validate(savedStateSchema, raw)
}

// ValidateSavedStateSummary checks only what listing in-progress quizzes
// needs: a numeric index and an answer list.
func ValidateSavedStateSummary(raw []byte) error {
	return validate(savedStateSummarySchema, raw)
}

// ValidateResultsLog checks that the completed-attempt log is a JSON array.
func ValidateResultsLog(raw []byte) error {
	return validate(resultsLogSchema, raw)
}

// ValidateResultsEntry checks the fields needed to attribute a completed
// attempt to a quiz and score it.
func ValidateResultsEntry(raw []byte) error {
	return validate(resultsEntrySchema, raw)
}

type savedStateWire struct {
	CurrentIndex   float64         `json:"currentIndex"`
	UserAnswers    []Answer        `json:"userAnswers"`
	StartTime      any             `json:"startTime"`
	QuestionIDs    json.RawMessage `json:"questionIds"`
	CheckedAnswers any             `json:"checkedAnswers"`
	CourseID       any             `json:"courseId"`
	TopicID        any             `json:"topicId"`
}

// DecodeSavedState decodes a record that already passed one of the saved
// state validators. Optional fields with unexpected types decode to their
// zero value rather than failing.
func DecodeSavedState(raw []byte) (SavedState, error) {
	var w savedStateWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return SavedState{}, errors.Wrap(ErrInvalidRecord, err.Error())
	}

	st := SavedState{
		CurrentIndex: int(math.Trunc(w.CurrentIndex)),
		UserAnswers:  w.UserAnswers,
	}
	if st.UserAnswers == nil {
		st.UserAnswers = []Answer{}
	}

	if ms, ok := w.StartTime.(float64); ok && !math.IsNaN(ms) && !math.IsInf(ms, 0) {
		t := int64(ms)
		st.StartTime = &t
	}

	if len(w.QuestionIDs) > 0 {
		var ids []course.QuestionID
		if err := json.Unmarshal(w.QuestionIDs, &ids); err == nil {
			st.QuestionIDs = ids
		}
	}
	if st.QuestionIDs == nil {
		st.QuestionIDs = []course.QuestionID{}
	}

	list, _ := w.CheckedAnswers.([]any)
	checked := make([]bool, 0, len(list))
	for _, v := range list {
		b, ok := v.(bool)
		if !ok {
			checked = nil
			break
		}
		checked = append(checked, b)
	}
	if w.CheckedAnswers != nil {
		st.CheckedAnswers = checked
	}

	if s, ok := w.CourseID.(string); ok {
		st.CourseID = s
	}
	if s, ok := w.TopicID.(string); ok {
		st.TopicID = &s
	}
	return st, nil
}
