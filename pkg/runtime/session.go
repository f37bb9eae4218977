// Package runtime implements the form filling experience: one session walks
// a respondent through a form's questions and submits a single response on
// completion.
package runtime

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/eclane/open-typeform/pkg/models"
	"github.com/eclane/open-typeform/pkg/schema"
)

var (
	// ErrSessionComplete is returned when a navigation call is made on a
	// finished session.
	ErrSessionComplete = errors.New("session is complete")
	// ErrSessionInProgress is returned when Restart is called before the
	// session finished.
	ErrSessionInProgress = errors.New("session is still in progress")
	// ErrNoQuestions is returned when a session is started on a form with
	// no questions.
	ErrNoQuestions = errors.New("form has no questions")
)

// ResponseSubmitter records the response a completed session produced.
// *store.Store satisfies it.
type ResponseSubmitter interface {
	AddResponse(ctx context.Context, formID string, answers map[string]any, metadata models.ResponseMetadata) (*models.Response, error)
}

// Session is a single respondent's walk through a form. It is either at a
// question or complete; answering is decoupled from navigation so a
// respondent can move back and forth before submitting.
//
// A Session is not safe for concurrent use.
type Session struct {
	ID string

	form      *models.Form
	submitter ResponseSubmitter
	metadata  models.ResponseMetadata

	order     []int // positions into form.Questions, shuffled if requested
	position  int
	answers   map[string]any
	complete  bool
	submitted bool
	response  *models.Response
}

// NewSession starts a run through the form. When the form's settings request
// shuffling, answerable questions are shuffled while welcome and thank-you
// screens keep their edge positions.
func NewSession(id string, form *models.Form, submitter ResponseSubmitter, metadata models.ResponseMetadata) (*Session, error) {
	if len(form.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	return &Session{
		ID:        id,
		form:      form,
		submitter: submitter,
		metadata:  metadata,
		order:     questionOrder(form),
		answers:   make(map[string]any),
	}, nil
}

// questionOrder lays out the positions a session visits. Static screens are
// pinned: welcome screens stay at the front, thank-you screens at the back.
func questionOrder(form *models.Form) []int {
	front := make([]int, 0, 1)
	middle := make([]int, 0, len(form.Questions))
	back := make([]int, 0, 1)

	for i, question := range form.Questions {
		switch question.Type {
		case models.QuestionTypeWelcome:
			front = append(front, i)
		case models.QuestionTypeThankYou:
			back = append(back, i)
		default:
			middle = append(middle, i)
		}
	}

	if form.Settings.ShuffleQuestions {
		rand.Shuffle(len(middle), func(i, j int) {
			middle[i], middle[j] = middle[j], middle[i]
		})
	}

	order := make([]int, 0, len(form.Questions))
	order = append(order, front...)
	order = append(order, middle...)
	order = append(order, back...)

	return order
}

// FormID returns the id of the form this session walks through.
func (s *Session) FormID() string {
	return s.form.ID
}

// Complete reports whether the session reached the end of the form.
func (s *Session) Complete() bool {
	return s.complete
}

// Position returns the zero-based index of the current question within the
// session's order, and the total number of questions.
func (s *Session) Position() (int, int) {
	return s.position, len(s.order)
}

// Current returns the question the session is at, or nil once complete.
func (s *Session) Current() *models.Question {
	if s.complete {
		return nil
	}

	return s.form.Questions[s.order[s.position]]
}

// Response returns the submitted response, or nil while in progress.
func (s *Session) Response() *models.Response {
	return s.response
}

// Answers returns the answers recorded so far, keyed by question id.
func (s *Session) Answers() map[string]any {
	recorded := make(map[string]any, len(s.answers))
	for id, value := range s.answers {
		recorded[id] = value
	}

	return recorded
}

// Answer records a value for the current question and returns any advisory
// issues. Issues never block: the answer is stored either way and the
// respondent may advance past it.
func (s *Session) Answer(value any) ([]string, error) {
	if s.complete {
		return nil, ErrSessionComplete
	}

	question := s.Current()
	issues := schema.CheckAnswer(*question, value)

	if !question.Type.IsStatic() {
		s.answers[question.ID] = value
	}

	return issues, nil
}

// Advance moves to the next question. Advancing past the last question
// submits the accumulated answers as one response and completes the
// session; when submission fails the session stays at the last question so
// a retry can submit the same answers. A required question left unanswered
// does not hold the session back; the required flag is advisory.
func (s *Session) Advance(ctx context.Context) error {
	if s.complete {
		return ErrSessionComplete
	}

	if s.position < len(s.order)-1 {
		s.position++

		return nil
	}

	if err := s.submit(ctx); err != nil {
		return err
	}

	s.complete = true

	return nil
}

// submit records the session's response exactly once per run.
func (s *Session) submit(ctx context.Context) error {
	if s.submitted {
		return nil
	}

	response, err := s.submitter.AddResponse(ctx, s.form.ID, s.Answers(), s.metadata)
	if err != nil {
		return err
	}

	s.submitted = true
	s.response = response

	return nil
}

// Retreat moves back one question. At the first question it is a no-op.
func (s *Session) Retreat() error {
	if s.complete {
		return ErrSessionComplete
	}

	if s.position > 0 {
		s.position--
	}

	return nil
}

// Restart begins a fresh run through the form. It is only valid once the
// previous run completed; the new run submits its own response.
func (s *Session) Restart() error {
	if !s.complete {
		return ErrSessionInProgress
	}

	s.position = 0
	s.answers = make(map[string]any)
	s.complete = false
	s.submitted = false
	s.response = nil
	s.order = questionOrder(s.form)

	return nil
}
