// Package models defines the core domain models for form building and
// response collection.
package models

import "time"

// FormStatus represents the lifecycle state of a form.
type FormStatus string

const (
	FormStatusDraft     FormStatus = "draft"     // Editable, not accepting responses yet
	FormStatusPublished FormStatus = "published" // Live and accepting responses
	FormStatusClosed    FormStatus = "closed"    // No longer accepting responses
)

// Theme selects the color scheme the filling experience renders with.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultFormTitle is used when a form is created without a title.
const DefaultFormTitle = "Untitled Form"

// DefaultPrimaryColor is the accent color new forms start with.
const DefaultPrimaryColor = "#6C5CE7"

// FormSettings is display configuration read by the filling runtime and the
// builder. PrimaryColor is free-form; no color format is enforced.
type FormSettings struct {
	Theme            Theme  `json:"theme"             validate:"omitempty,oneof=light dark"`
	PrimaryColor     string `json:"primary_color"`
	ShowProgressBar  bool   `json:"show_progress_bar"`
	ShuffleQuestions bool   `json:"shuffle_questions"`
}

// DefaultSettings returns the settings assigned to newly created forms.
func DefaultSettings() FormSettings {
	return FormSettings{
		Theme:            ThemeLight,
		PrimaryColor:     DefaultPrimaryColor,
		ShowProgressBar:  true,
		ShuffleQuestions: false,
	}
}

// Form aggregates an ordered question sequence, accumulated responses,
// display settings and lifecycle metadata. A form exclusively owns its
// questions and responses.
type Form struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"                  validate:"required,min=1"`
	Description string       `json:"description,omitempty"`
	Questions   []*Question  `json:"questions"`
	Responses   []*Response  `json:"responses"`
	Settings    FormSettings `json:"settings"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
	CloseAt     *time.Time   `json:"close_at,omitempty"`
	Status      FormStatus   `json:"status"                 validate:"required"`
	Views       int64        `json:"views"`
}

// Question returns the question with the given id, or nil.
func (f *Form) Question(questionID string) *Question {
	for _, q := range f.Questions {
		if q.ID == questionID {
			return q
		}
	}

	return nil
}

// QuestionIndex returns the position of the question with the given id,
// or -1.
func (f *Form) QuestionIndex(questionID string) int {
	for i, q := range f.Questions {
		if q.ID == questionID {
			return i
		}
	}

	return -1
}

// Clone returns a deep copy of the form, its questions and its responses.
func (f *Form) Clone() *Form {
	clone := *f

	if f.Questions != nil {
		clone.Questions = make([]*Question, len(f.Questions))
		for i, q := range f.Questions {
			clone.Questions[i] = q.Clone()
		}
	}

	if f.Responses != nil {
		clone.Responses = make([]*Response, len(f.Responses))
		for i, r := range f.Responses {
			clone.Responses[i] = r.Clone()
		}
	}

	if f.PublishedAt != nil {
		at := *f.PublishedAt
		clone.PublishedAt = &at
	}

	if f.CloseAt != nil {
		at := *f.CloseAt
		clone.CloseAt = &at
	}

	return &clone
}
