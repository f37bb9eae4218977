// Package web provides HTTP request and response types for the form API.
package web

import (
	"time"

	"github.com/eclane/open-typeform/pkg/models"
	"github.com/eclane/open-typeform/pkg/runtime"
)

// CreateFormRequest represents the request body for creating a new form.
// The title is optional; an empty title gets the default placeholder.
type CreateFormRequest struct {
	Title string `json:"title"`
}

// UpdateFormRequest represents the request body for updating an existing form.
// All fields are optional to support partial updates.
type UpdateFormRequest struct {
	Title        *string              `json:"title,omitempty"          validate:"omitempty,min=1"`
	Description  *string              `json:"description,omitempty"`
	Settings     *models.FormSettings `json:"settings,omitempty"`
	CloseAt      *time.Time           `json:"close_at,omitempty"`
	ClearCloseAt bool                 `json:"clear_close_at,omitempty"`
}

// CreateQuestionRequest represents the request body for adding a question.
type CreateQuestionRequest struct {
	Type        string   `json:"type"                  validate:"required"`
	Title       string   `json:"title"                 validate:"required,min=1"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
	MaxRating   int      `json:"max_rating,omitempty"`
	ButtonText  *string  `json:"button_text,omitempty"`
}

// UpdateQuestionRequest represents the request body for updating a question.
// The question's type cannot be changed.
type UpdateQuestionRequest struct {
	Title       *string  `json:"title,omitempty"       validate:"omitempty,min=1"`
	Description *string  `json:"description,omitempty"`
	Required    *bool    `json:"required,omitempty"`
	Placeholder *string  `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
	MaxRating   *int     `json:"max_rating,omitempty"`
	ButtonText  *string  `json:"button_text,omitempty"`
}

// ReorderQuestionsRequest represents the request body for moving a question
// between positions. Out-of-range indices are clamped.
type ReorderQuestionsRequest struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

// CreateResponseRequest represents the request body for a direct response
// submission.
type CreateResponseRequest struct {
	Answers  map[string]any           `json:"answers"            validate:"required"`
	Metadata *models.ResponseMetadata `json:"metadata,omitempty"`
}

// ResponseResult is the body returned for a recorded submission, including
// any advisory validation issues.
type ResponseResult struct {
	Response *models.Response `json:"response"`
	Issues   []string         `json:"issues,omitempty"`
}

// AnswerRequest represents the request body for answering the current
// question of a filling session.
type AnswerRequest struct {
	Value any `json:"value"`
}

// SessionView is the API representation of a filling session's state.
type SessionView struct {
	ID       string           `json:"id"`
	FormID   string           `json:"form_id"`
	Complete bool             `json:"complete"`
	Position int              `json:"position"`
	Total    int              `json:"total"`
	Question *models.Question `json:"question,omitempty"`
	Issues   []string         `json:"issues,omitempty"`
	Response *models.Response `json:"response,omitempty"`
}

// TransformSessionView builds the API view of a session.
func TransformSessionView(session *runtime.Session, issues []string) SessionView {
	position, total := session.Position()

	return SessionView{
		ID:       session.ID,
		FormID:   session.FormID(),
		Complete: session.Complete(),
		Position: position,
		Total:    total,
		Question: session.Current(),
		Issues:   issues,
		Response: session.Response(),
	}
}
