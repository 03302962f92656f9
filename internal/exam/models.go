package exam

import (
	"encoding/json"
	"strings"
	"time"
)

type QuestionType string

const (
	TypeMCQ         QuestionType = "MCQ"
	TypeDescriptive QuestionType = "Descriptive"
)

// ParseQuestionType accepts the spellings clients send for the two kinds.
func ParseQuestionType(s string) (QuestionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mcq", "multiple_choice", "multiple-choice":
		return TypeMCQ, true
	case "descriptive", "subjective", "essay":
		return TypeDescriptive, true
	default:
		return "", false
	}
}

type Exam struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Duration    int       `json:"duration"` // minutes
	CreatedBy   int64     `json:"created_by"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
}

type Question struct {
	ID            int64        `json:"id"`
	ExamID        int64        `json:"exam_id"`
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	Options       Options      `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
}

// Public strips the answer key before a question is sent to a student.
func (q Question) Public() Question {
	q.CorrectAnswer = ""
	return q
}

// NewExam is the authoring payload for an exam and its questions.
type NewExam struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    int           `json:"duration"`
	Questions   []NewQuestion `json:"questions"`
}

type NewQuestion struct {
	Text          string          `json:"text"`
	Type          string          `json:"type"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer string          `json:"correct_answer,omitempty"`
}

// UnmarshalJSON also accepts the long field names used by older clients
// (question_text, question_type, correct).
func (q *NewQuestion) UnmarshalJSON(b []byte) error {
	var raw struct {
		Text          string          `json:"text"`
		QuestionText  string          `json:"question_text"`
		Type          string          `json:"type"`
		QuestionType  string          `json:"question_type"`
		Options       json.RawMessage `json:"options"`
		CorrectAnswer string          `json:"correct_answer"`
		Correct       string          `json:"correct"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	q.Text = firstNonEmpty(raw.Text, raw.QuestionText)
	q.Type = firstNonEmpty(raw.Type, raw.QuestionType)
	q.Options = raw.Options
	q.CorrectAnswer = firstNonEmpty(raw.CorrectAnswer, raw.Correct)
	return nil
}

// UnmarshalJSON accepts examTitle as an alias for title.
func (e *NewExam) UnmarshalJSON(b []byte) error {
	type plain NewExam
	var raw struct {
		plain
		ExamTitle string `json:"examTitle"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = NewExam(raw.plain)
	e.Title = firstNonEmpty(e.Title, raw.ExamTitle)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
