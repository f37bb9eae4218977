package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/eclane/open-typeform/pkg/eventbus"
	"github.com/eclane/open-typeform/pkg/events"
	"github.com/eclane/open-typeform/pkg/models"
	"github.com/eclane/open-typeform/pkg/otelhelper"
	"github.com/eclane/open-typeform/pkg/persistence"
	"github.com/eclane/open-typeform/pkg/schema"
	"github.com/eclane/open-typeform/pkg/store"
)

var (
	// ErrFormNotFound is returned when a form is not found.
	ErrFormNotFound = persistence.ErrFormNotFound
	// ErrQuestionNotFound is returned when a question is not found.
	ErrQuestionNotFound = persistence.ErrQuestionNotFound
)

// Form is the service wrapping the form store with validation, tracing and
// lifecycle event publishing.
type Form struct {
	store     *store.Store
	publisher eventbus.EventPublisher
	validator *validator.Validate
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewForm creates a new form service. The publisher may be nil, in which
// case no lifecycle events are emitted.
func NewForm(formStore *store.Store, publisher eventbus.EventPublisher, logger *slog.Logger) *Form {
	return &Form{
		store:     formStore,
		publisher: publisher,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		tracer:    otel.Tracer("open_typeform/services"),
		logger:    logger.With("module", "form_service"),
	}
}

// HealthCheck checks the health of the underlying store.
func (f *Form) HealthCheck(ctx context.Context) (string, bool) {
	if f.store == nil {
		return "Form store not initialized", false
	}

	err := f.store.HealthCheck(ctx)
	if err != nil {
		return "Form store is unhealthy: " + err.Error(), false
	}

	return "Form store is healthy", true
}

func (f *Form) publish(ctx context.Context, formID string, event eventbus.Event) {
	if f.publisher == nil {
		return
	}

	err := f.publisher.Publish(ctx, formID, event)
	if err != nil {
		f.logger.WarnContext(ctx, "failed to publish lifecycle event",
			"event_type", event.GetType(), "form_id", formID, "error", err)
	}
}

// ListFormsRequest contains options for listing forms.
type ListFormsRequest struct {
	// Pagination
	Limit  int `validate:"min=0,max=100"`
	Offset int `validate:"min=0"`

	// Filtering
	Status *models.FormStatus

	// Sorting
	SortBy    string
	SortOrder string
}

// ListFormsResponse contains the result of listing forms.
type ListFormsResponse struct {
	Forms       []*models.Form `json:"forms"`
	TotalCount  int64          `json:"total_count"`
	HasNextPage bool           `json:"has_next_page"`
}

// ListForms retrieves forms with filtering, sorting, and pagination.
func (f *Form) ListForms(ctx context.Context, req ListFormsRequest) (*ListFormsResponse, error) {
	if err := f.validateListFormsRequest(&req); err != nil {
		return nil, err
	}

	result, err := f.store.ListForms(ctx, store.ListFormsOptions{
		Status:    req.Status,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	return &ListFormsResponse{
		Forms:       result.Forms,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// validateListFormsRequest validates and sets defaults for the request.
func (f *Form) validateListFormsRequest(req *ListFormsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "title"}

	if !slices.Contains(allowedSorts, req.SortBy) {
		return NewValidationError(
			"validateListFormsRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListFormsRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil {
		allowedStatuses := []models.FormStatus{
			models.FormStatusDraft,
			models.FormStatusPublished,
			models.FormStatusClosed,
		}

		if !slices.Contains(allowedStatuses, *req.Status) {
			return NewValidationError(
				"validateListFormsRequest",
				"INVALID_STATUS",
				fmt.Sprintf("invalid status '%s'", *req.Status),
				ErrInvalidStatus,
			)
		}
	}

	return nil
}

// FetchByID retrieves a form by its ID.
func (f *Form) FetchByID(ctx context.Context, id string) (*models.Form, error) {
	return f.store.GetForm(ctx, id)
}

// Create adds a new form with the given title. An empty title falls back to
// the default placeholder.
func (f *Form) Create(ctx context.Context, title string) (*models.Form, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "form.create",
		attribute.String(otelhelper.FormTitleKey, title))
	defer span.End()

	form, err := f.store.CreateForm(ctx, title)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.FormIDKey, form.ID))

	f.publish(ctx, form.ID, events.FormCreated{
		BaseEvent: events.NewBaseEvent(events.FormCreatedEvent, form.ID),
		Title:     form.Title,
	})

	return form, nil
}

// Update modifies an existing form by its ID.
func (f *Form) Update(ctx context.Context, id string, update store.FormUpdate) (*models.Form, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "form.update",
		attribute.String(otelhelper.FormIDKey, id))
	defer span.End()

	form, err := f.store.UpdateForm(ctx, id, update)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	f.publish(ctx, id, events.FormUpdated{
		BaseEvent: events.NewBaseEvent(events.FormUpdatedEvent, id),
	})

	return form, nil
}

// Delete removes a form by its ID. Deleting an unknown form is a no-op.
func (f *Form) Delete(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "form.delete",
		attribute.String(otelhelper.FormIDKey, id))
	defer span.End()

	err := f.store.DeleteForm(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to delete form: %w", err)
	}

	f.publish(ctx, id, events.FormDeleted{
		BaseEvent: events.NewBaseEvent(events.FormDeletedEvent, id),
	})

	return nil
}

// Duplicate copies an existing form into a fresh draft.
func (f *Form) Duplicate(ctx context.Context, id string) (*models.Form, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "form.duplicate",
		attribute.String(otelhelper.FormIDKey, id))
	defer span.End()

	duplicate, err := f.store.DuplicateForm(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	f.publish(ctx, duplicate.ID, events.FormDuplicated{
		BaseEvent:    events.NewBaseEvent(events.FormDuplicatedEvent, duplicate.ID),
		SourceFormID: id,
	})

	return duplicate, nil
}

// Publish marks a form as published. Publishing a closed form is a conflict.
func (f *Form) Publish(ctx context.Context, id string) (*models.Form, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "form.publish",
		attribute.String(otelhelper.FormIDKey, id))
	defer span.End()

	form, err := f.store.PublishForm(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		if errors.Is(err, store.ErrFormClosed) {
			return nil, NewValidationError("Publish", "FORM_CLOSED",
				"a closed form cannot be published", ErrFormClosedConflict)
		}

		return nil, err
	}

	if form.PublishedAt != nil {
		f.publish(ctx, id, events.FormPublished{
			BaseEvent:   events.NewBaseEvent(events.FormPublishedEvent, id),
			PublishedAt: *form.PublishedAt,
		})
	}

	return form, nil
}

// CloseForm marks a form as closed so it stops accepting responses.
func (f *Form) CloseForm(ctx context.Context, id string) (*models.Form, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "form.close",
		attribute.String(otelhelper.FormIDKey, id))
	defer span.End()

	form, err := f.store.CloseForm(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	f.publish(ctx, id, events.FormClosed{
		BaseEvent: events.NewBaseEvent(events.FormClosedEvent, id),
		Reason:    "manual",
	})

	return form, nil
}

// CloseDueForms closes every published form whose close deadline has passed
// and returns the forms that were closed.
func (f *Form) CloseDueForms(ctx context.Context, now time.Time) ([]*models.Form, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "form.close_due")
	defer span.End()

	closed, err := f.store.CloseDueForms(ctx, now)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	for _, form := range closed {
		f.publish(ctx, form.ID, events.FormClosed{
			BaseEvent: events.NewBaseEvent(events.FormClosedEvent, form.ID),
			Reason:    "deadline",
		})
	}

	span.SetAttributes(attribute.Int("open_typeform.forms.closed", len(closed)))

	return closed, nil
}

// AddQuestion validates and appends a question to a form.
func (f *Form) AddQuestion(ctx context.Context, formID string, question models.Question) (*models.Question, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "question.add",
		attribute.String(otelhelper.FormIDKey, formID),
		attribute.String(otelhelper.QuestionTypeKey, string(question.Type)))
	defer span.End()

	if err := f.validateQuestion(question); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	added, err := f.store.AddQuestion(ctx, formID, question)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	f.publish(ctx, formID, events.QuestionAdded{
		BaseEvent:    events.NewBaseEvent(events.QuestionAddedEvent, formID),
		QuestionID:   added.ID,
		QuestionType: string(added.Type),
	})

	return added, nil
}

func (f *Form) validateQuestion(question models.Question) error {
	if !question.Type.Valid() {
		return NewValidationError("validateQuestion", "INVALID_QUESTION_TYPE",
			fmt.Sprintf("invalid question type '%s'", question.Type), ErrInvalidQuestionType)
	}

	if err := f.validator.Struct(question); err != nil {
		return NewValidationError("validateQuestion", "INVALID_QUESTION",
			err.Error(), ErrInvalidRequest)
	}

	return nil
}

// UpdateQuestion modifies a question in place. The question's type is
// immutable after creation.
func (f *Form) UpdateQuestion(ctx context.Context, formID, questionID string, update store.QuestionUpdate) (*models.Question, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "question.update",
		attribute.String(otelhelper.FormIDKey, formID),
		attribute.String(otelhelper.QuestionIDKey, questionID))
	defer span.End()

	updated, err := f.store.UpdateQuestion(ctx, formID, questionID, update)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	f.publish(ctx, formID, events.QuestionUpdated{
		BaseEvent:  events.NewBaseEvent(events.QuestionUpdatedEvent, formID),
		QuestionID: questionID,
	})

	return updated, nil
}

// DeleteQuestion removes a question from a form.
func (f *Form) DeleteQuestion(ctx context.Context, formID, questionID string) error {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "question.delete",
		attribute.String(otelhelper.FormIDKey, formID),
		attribute.String(otelhelper.QuestionIDKey, questionID))
	defer span.End()

	err := f.store.DeleteQuestion(ctx, formID, questionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	f.publish(ctx, formID, events.QuestionDeleted{
		BaseEvent:  events.NewBaseEvent(events.QuestionDeletedEvent, formID),
		QuestionID: questionID,
	})

	return nil
}

// ReorderQuestions moves a question between positions. Out-of-range indices
// are clamped into the valid range.
func (f *Form) ReorderQuestions(ctx context.Context, formID string, fromIndex, toIndex int) error {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "question.reorder",
		attribute.String(otelhelper.FormIDKey, formID))
	defer span.End()

	err := f.store.ReorderQuestions(ctx, formID, fromIndex, toIndex)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	f.publish(ctx, formID, events.QuestionsReordered{
		BaseEvent: events.NewBaseEvent(events.QuestionsReorderedEvent, formID),
		FromIndex: fromIndex,
		ToIndex:   toIndex,
	})

	return nil
}

// AddResponse records a submission against a form. Answers are checked
// against each question's schema; issues found are advisory and never block
// the submission.
func (f *Form) AddResponse(
	ctx context.Context,
	formID string,
	answers map[string]any,
	metadata models.ResponseMetadata,
) (*models.Response, []string, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "response.add",
		attribute.String(otelhelper.FormIDKey, formID))
	defer span.End()

	if len(answers) == 0 {
		err := NewValidationError("AddResponse", "ANSWERS_REQUIRED",
			"response must contain at least one answer", ErrAnswersRequired)
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	form, err := f.store.GetForm(ctx, formID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	var issues []string

	for _, question := range form.Questions {
		if question.Type.IsStatic() {
			continue
		}

		issues = append(issues, schema.CheckAnswer(*question, answers[question.ID])...)
	}

	response, err := f.store.AddResponse(ctx, formID, answers, metadata)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.ResponseIDKey, response.ID))

	f.publish(ctx, formID, events.ResponseSubmitted{
		BaseEvent:   events.NewBaseEvent(events.ResponseSubmittedEvent, formID),
		ResponseID:  response.ID,
		AnswerCount: len(response.Answers),
	})

	return response, issues, nil
}

// RecordView bumps a form's view counter and returns the new count.
func (f *Form) RecordView(ctx context.Context, formID string) (int64, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "form.view",
		attribute.String(otelhelper.FormIDKey, formID))
	defer span.End()

	views, err := f.store.IncrementViews(ctx, formID)
	if err != nil {
		otelhelper.SetError(span, err)

		return 0, err
	}

	f.publish(ctx, formID, events.FormViewed{
		BaseEvent: events.NewBaseEvent(events.FormViewedEvent, formID),
		Views:     views,
	})

	return views, nil
}
