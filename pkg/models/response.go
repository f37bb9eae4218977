package models

import "time"

// ResponseMetadata holds freeform descriptive fields about the respondent's
// environment. Display-only; nothing interprets these values.
type ResponseMetadata struct {
	Browser  string `json:"browser,omitempty"`
	Device   string `json:"device,omitempty"`
	Location string `json:"location,omitempty"`
}

// Response captures one respondent's complete set of answers to a form.
// Responses are created exactly once and never mutated or deleted.
type Response struct {
	ID          string           `json:"id"`
	FormID      string           `json:"form_id"`
	Answers     map[string]any   `json:"answers"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Metadata    ResponseMetadata `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the response.
func (r *Response) Clone() *Response {
	clone := *r

	if r.Answers != nil {
		clone.Answers = make(map[string]any, len(r.Answers))
		for k, v := range r.Answers {
			clone.Answers[k] = v
		}
	}

	return &clone
}
