package models

// QuestionType enumerates the input kinds a question can take.
type QuestionType string

const (
	QuestionTypeShortText      QuestionType = "short_text"
	QuestionTypeLongText       QuestionType = "long_text"
	QuestionTypeEmail          QuestionType = "email"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeRating         QuestionType = "rating"
	QuestionTypeNumber         QuestionType = "number"
	QuestionTypeDate           QuestionType = "date"
	QuestionTypeYesNo          QuestionType = "yes_no"
	QuestionTypeDropdown       QuestionType = "dropdown"
	QuestionTypeFileUpload     QuestionType = "file_upload"
	QuestionTypeWelcome        QuestionType = "welcome"
	QuestionTypeThankYou       QuestionType = "thank_you"
)

// DefaultMaxRating is the rating scale upper bound when a rating question
// does not set one.
const DefaultMaxRating = 10

// QuestionTypes lists every valid question type.
var QuestionTypes = []QuestionType{
	QuestionTypeShortText,
	QuestionTypeLongText,
	QuestionTypeEmail,
	QuestionTypeMultipleChoice,
	QuestionTypeRating,
	QuestionTypeNumber,
	QuestionTypeDate,
	QuestionTypeYesNo,
	QuestionTypeDropdown,
	QuestionTypeFileUpload,
	QuestionTypeWelcome,
	QuestionTypeThankYou,
}

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}

	return false
}

// IsChoice reports whether the type carries an options list.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeDropdown
}

// IsStatic reports whether the type is a display-only screen that collects
// no answer.
func (t QuestionType) IsStatic() bool {
	return t == QuestionTypeWelcome || t == QuestionTypeThankYou
}

// IsInput reports whether the type collects an answer from the respondent.
func (t QuestionType) IsInput() bool {
	return t.Valid() && !t.IsStatic()
}

// Question is one prompt definition within a form. Type-conditional fields
// (Options, MaxRating) are kept empty for types they do not apply to;
// Normalize enforces that.
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"                  validate:"required"`
	Title       string       `json:"title"                 validate:"required,min=1"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Placeholder string       `json:"placeholder,omitempty"`
	Options     []string     `json:"options,omitempty"`
	MaxRating   int          `json:"max_rating,omitempty"`
	ButtonText  *string      `json:"button_text,omitempty"`
}

// EffectiveMaxRating returns the rating scale upper bound, applying the
// default for rating questions that left it unset.
func (q *Question) EffectiveMaxRating() int {
	if q.MaxRating > 0 {
		return q.MaxRating
	}

	return DefaultMaxRating
}

// Normalize strips fields that do not apply to the question's type so that
// invalid combinations cannot be stored.
func (q *Question) Normalize() {
	if !q.Type.IsChoice() {
		q.Options = nil
	}

	if q.Type != QuestionTypeRating {
		q.MaxRating = 0
	}

	if q.Type.IsStatic() {
		q.Required = false
		q.Placeholder = ""
	}
}

// Clone returns a deep copy of the question.
func (q *Question) Clone() *Question {
	clone := *q

	if q.Options != nil {
		clone.Options = make([]string, len(q.Options))
		copy(clone.Options, q.Options)
	}

	if q.ButtonText != nil {
		text := *q.ButtonText
		clone.ButtonText = &text
	}

	return &clone
}
