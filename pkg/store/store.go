// Package store holds the authoritative in-memory form collection and
// mirrors it to a snapshot backend after every mutation.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eclane/open-typeform/pkg/identifier"
	"github.com/eclane/open-typeform/pkg/models"
	"github.com/eclane/open-typeform/pkg/persistence"
)

// Store is the single authoritative collection of all forms. All reads
// return deep copies; callers never observe shared mutable state. Every
// mutating operation rewrites the full snapshot through the configured
// persistence.Snapshotter.
type Store struct {
	mu       sync.RWMutex
	forms    []*models.Form
	snapshot persistence.Snapshotter
	logger   *slog.Logger
	opened   bool
}

// NewStore creates a store backed by the given snapshotter. Call Open before
// using it.
func NewStore(snapshotter persistence.Snapshotter, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		snapshot: snapshotter,
		logger:   logger,
	}
}

// Open loads the persisted snapshot into memory. When no snapshot exists, or
// when the snapshot cannot be decoded, the store seeds the built-in sample
// forms instead of failing.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil
	}

	snapshot, err := s.snapshot.LoadSnapshot(ctx)

	switch {
	case persistence.IsSnapshotCorrupt(err):
		s.logger.WarnContext(ctx, "Persisted snapshot is corrupt, seeding sample forms", "error", err)

		s.forms = models.SampleForms()
	case err != nil:
		return fmt.Errorf("failed to load snapshot: %w", err)
	case snapshot == nil:
		s.logger.InfoContext(ctx, "No persisted snapshot found, seeding sample forms")

		s.forms = models.SampleForms()
	default:
		s.forms = snapshot.Forms
	}

	if s.forms == nil {
		s.forms = []*models.Form{}
	}

	s.opened = true

	return nil
}

// Close flushes the current state and releases the snapshot backend.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		if err := s.persistLocked(ctx); err != nil {
			return err
		}
	}

	return s.snapshot.Close(ctx)
}

// Flush rewrites the snapshot from the current in-memory state.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persistLocked(ctx)
}

// HealthCheck reports whether the snapshot backend is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.snapshot.HealthCheck(ctx)
}

// persistLocked serializes the whole collection. Callers must hold mu.
func (s *Store) persistLocked(ctx context.Context) error {
	forms := make([]*models.Form, len(s.forms))
	for i, form := range s.forms {
		forms[i] = form.Clone()
	}

	err := s.snapshot.SaveSnapshot(ctx, persistence.NewSnapshot(forms))
	if err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}

	return nil
}

// findLocked returns the live form with the given id. Callers must hold mu.
func (s *Store) findLocked(id string) *models.Form {
	for _, form := range s.forms {
		if form.ID == id {
			return form
		}
	}

	return nil
}

// CreateForm constructs a new draft form with empty question and response
// sequences and default settings, appends it to the collection and returns
// it. An empty title falls back to the default placeholder.
func (s *Store) CreateForm(ctx context.Context, title string) (*models.Form, error) {
	if title == "" {
		title = models.DefaultFormTitle
	}

	now := time.Now().UTC()
	form := &models.Form{
		ID:        identifier.New(),
		Title:     title,
		Questions: []*models.Question{},
		Responses: []*models.Response{},
		Settings:  models.DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
		Status:    models.FormStatusDraft,
		Views:     0,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.forms = append(s.forms, form)

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	return form.Clone(), nil
}

// FormUpdate is a partial update merged into a form. Nil fields are left
// untouched. ClearCloseAt removes a previously set close deadline.
type FormUpdate struct {
	Title        *string
	Description  *string
	Settings     *models.FormSettings
	CloseAt      *time.Time
	ClearCloseAt bool
}

// UpdateForm merges the given fields into the form and refreshes UpdatedAt.
func (s *Store) UpdateForm(ctx context.Context, id string, update FormUpdate) (*models.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.findLocked(id)
	if form == nil {
		return nil, persistence.NewFormError("UpdateForm", id, persistence.ErrFormNotFound)
	}

	if update.Title != nil {
		form.Title = *update.Title
	}

	if update.Description != nil {
		form.Description = *update.Description
	}

	if update.Settings != nil {
		form.Settings = *update.Settings
	}

	if update.ClearCloseAt {
		form.CloseAt = nil
	} else if update.CloseAt != nil {
		at := update.CloseAt.UTC()
		form.CloseAt = &at
	}

	form.UpdatedAt = time.Now().UTC()

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	return form.Clone(), nil
}

// DeleteForm removes the form from the collection. Deleting an unknown id is
// a no-op.
func (s *Store) DeleteForm(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, form := range s.forms {
		if form.ID == id {
			s.forms = append(s.forms[:i], s.forms[i+1:]...)

			return s.persistLocked(ctx)
		}
	}

	return nil
}

// DuplicateForm creates a fresh draft copy of the form: same questions and
// settings, new id, empty responses, zero views, cleared publication state.
// Unlike the other not-found no-ops, duplicating an unknown form is an error.
func (s *Store) DuplicateForm(ctx context.Context, id string) (*models.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.findLocked(id)
	if source == nil {
		return nil, persistence.NewFormError("DuplicateForm", id, persistence.ErrFormNotFound)
	}

	now := time.Now().UTC()
	duplicate := source.Clone()
	duplicate.ID = identifier.New()
	duplicate.Title = source.Title + " (Copy)"
	duplicate.Responses = []*models.Response{}
	duplicate.CreatedAt = now
	duplicate.UpdatedAt = now
	duplicate.PublishedAt = nil
	duplicate.CloseAt = nil
	duplicate.Status = models.FormStatusDraft
	duplicate.Views = 0

	s.forms = append(s.forms, duplicate)

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	return duplicate.Clone(), nil
}

// GetForm returns a deep copy of the form with the given id.
func (s *Store) GetForm(_ context.Context, id string) (*models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form := s.findLocked(id)
	if form == nil {
		return nil, persistence.NewFormError("GetForm", id, persistence.ErrFormNotFound)
	}

	return form.Clone(), nil
}

// Forms returns deep copies of every form, in insertion order.
func (s *Store) Forms(_ context.Context) ([]*models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	forms := make([]*models.Form, len(s.forms))
	for i, form := range s.forms {
		forms[i] = form.Clone()
	}

	return forms, nil
}

// ListFormsOptions controls filtering, sorting and pagination for ListForms.
type ListFormsOptions struct {
	Status    *models.FormStatus
	SortBy    string // created_at, updated_at or title
	SortOrder string // asc or desc
	Limit     int
	Offset    int
}

// FormListResult is one page of forms plus pagination metadata.
type FormListResult struct {
	Forms       []*models.Form `json:"forms"`
	TotalCount  int64          `json:"total_count"`
	HasNextPage bool           `json:"has_next_page"`
}

// ListForms returns filtered, sorted, paginated deep copies of the
// collection. Sort fields are checked against an allowlist.
func (s *Store) ListForms(_ context.Context, opts ListFormsOptions) (*FormListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"title":      true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	s.mu.RLock()

	filtered := make([]*models.Form, 0, len(s.forms))

	for _, form := range s.forms {
		if opts.Status != nil && form.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, form.Clone())
	}

	s.mu.RUnlock()

	sortForms(filtered, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filtered))
	startIdx := opts.Offset
	endIdx := opts.Offset + opts.Limit

	if startIdx >= len(filtered) {
		return &FormListResult{
			Forms:       make([]*models.Form, 0),
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}

	return &FormListResult{
		Forms:       filtered[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(filtered),
	}, nil
}

func sortForms(forms []*models.Form, sortBy, sortOrder string) {
	sort.SliceStable(forms, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "updated_at":
			less = forms[i].UpdatedAt.Before(forms[j].UpdatedAt)
		case "title":
			less = forms[i].Title < forms[j].Title
		default:
			less = forms[i].CreatedAt.Before(forms[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}

// AddQuestion assigns a fresh id to the question, normalizes it, appends it
// to the form's question sequence and refreshes UpdatedAt.
func (s *Store) AddQuestion(ctx context.Context, formID string, question models.Question) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.findLocked(formID)
	if form == nil {
		return nil, persistence.NewFormError("AddQuestion", formID, persistence.ErrFormNotFound)
	}

	question.ID = identifier.New()
	question.Normalize()

	form.Questions = append(form.Questions, &question)
	form.UpdatedAt = time.Now().UTC()

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	return question.Clone(), nil
}

// QuestionUpdate is a partial update merged into a question. Nil fields are
// left untouched. The question's type is immutable.
type QuestionUpdate struct {
	Title       *string
	Description *string
	Required    *bool
	Placeholder *string
	Options     []string
	MaxRating   *int
	ButtonText  *string
}

// UpdateQuestion merges the given fields into the question in place and
// refreshes the form's UpdatedAt.
func (s *Store) UpdateQuestion(ctx context.Context, formID, questionID string, update QuestionUpdate) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.findLocked(formID)
	if form == nil {
		return nil, persistence.NewFormError("UpdateQuestion", formID, persistence.ErrFormNotFound)
	}

	question := form.Question(questionID)
	if question == nil {
		return nil, persistence.NewQuestionError("UpdateQuestion", formID, questionID, persistence.ErrQuestionNotFound)
	}

	if update.Title != nil {
		question.Title = *update.Title
	}

	if update.Description != nil {
		question.Description = *update.Description
	}

	if update.Required != nil {
		question.Required = *update.Required
	}

	if update.Placeholder != nil {
		question.Placeholder = *update.Placeholder
	}

	if update.Options != nil {
		question.Options = update.Options
	}

	if update.MaxRating != nil {
		question.MaxRating = *update.MaxRating
	}

	if update.ButtonText != nil {
		question.ButtonText = update.ButtonText
	}

	question.Normalize()
	form.UpdatedAt = time.Now().UTC()

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	return question.Clone(), nil
}

// DeleteQuestion removes the question from the form's sequence and refreshes
// UpdatedAt.
func (s *Store) DeleteQuestion(ctx context.Context, formID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.findLocked(formID)
	if form == nil {
		return persistence.NewFormError("DeleteQuestion", formID, persistence.ErrFormNotFound)
	}

	idx := form.QuestionIndex(questionID)
	if idx < 0 {
		return persistence.NewQuestionError("DeleteQuestion", formID, questionID, persistence.ErrQuestionNotFound)
	}

	form.Questions = append(form.Questions[:idx], form.Questions[idx+1:]...)
	form.UpdatedAt = time.Now().UTC()

	return s.persistLocked(ctx)
}

// ReorderQuestions moves the question at fromIndex to toIndex, preserving
// the relative order of all other questions. Out-of-range indices are
// clamped into range; the sequence is never corrupted. Reordering an empty
// sequence is a no-op.
func (s *Store) ReorderQuestions(ctx context.Context, formID string, fromIndex, toIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.findLocked(formID)
	if form == nil {
		return persistence.NewFormError("ReorderQuestions", formID, persistence.ErrFormNotFound)
	}

	n := len(form.Questions)
	if n == 0 {
		return nil
	}

	fromIndex = clamp(fromIndex, 0, n-1)
	toIndex = clamp(toIndex, 0, n-1)

	if fromIndex != toIndex {
		moved := form.Questions[fromIndex]
		rest := append(form.Questions[:fromIndex], form.Questions[fromIndex+1:]...)

		form.Questions = append(rest[:toIndex], append([]*models.Question{moved}, rest[toIndex:]...)...)
	}

	form.UpdatedAt = time.Now().UTC()

	return s.persistLocked(ctx)
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}

	if v > high {
		return high
	}

	return v
}

// AddResponse assigns an id and submission timestamp to a new response and
// appends it to the form's response sequence. Deliberately does NOT touch
// UpdatedAt: response volume is independent of edit history.
func (s *Store) AddResponse(ctx context.Context, formID string, answers map[string]any, metadata models.ResponseMetadata) (*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.findLocked(formID)
	if form == nil {
		return nil, persistence.NewFormError("AddResponse", formID, persistence.ErrFormNotFound)
	}

	if answers == nil {
		answers = map[string]any{}
	}

	response := &models.Response{
		ID:          identifier.New(),
		FormID:      formID,
		Answers:     answers,
		SubmittedAt: time.Now().UTC(),
		Metadata:    metadata,
	}

	form.Responses = append(form.Responses, response)

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	return response.Clone(), nil
}

// IncrementViews increments the form's view counter by exactly one. Does not
// touch UpdatedAt.
func (s *Store) IncrementViews(ctx context.Context, formID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.findLocked(formID)
	if form == nil {
		return 0, persistence.NewFormError("IncrementViews", formID, persistence.ErrFormNotFound)
	}

	form.Views++

	if err := s.persistLocked(ctx); err != nil {
		return 0, err
	}

	return form.Views, nil
}

// PublishForm transitions a draft form to published, setting PublishedAt the
// first time. Publishing an already-published form is a no-op; publishing a
// closed form is an error.
func (s *Store) PublishForm(ctx context.Context, id string) (*models.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.findLocked(id)
	if form == nil {
		return nil, persistence.NewFormError("PublishForm", id, persistence.ErrFormNotFound)
	}

	if form.Status == models.FormStatusClosed {
		return nil, persistence.NewFormError("PublishForm", id, ErrFormClosed)
	}

	if form.Status == models.FormStatusPublished {
		return form.Clone(), nil
	}

	now := time.Now().UTC()
	form.Status = models.FormStatusPublished
	form.UpdatedAt = now

	if form.PublishedAt == nil {
		form.PublishedAt = &now
	}

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	return form.Clone(), nil
}

// CloseForm transitions a form to closed. PublishedAt is left as-is so the
// publication history survives closing. Closing an already-closed form is a
// no-op.
func (s *Store) CloseForm(ctx context.Context, id string) (*models.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.findLocked(id)
	if form == nil {
		return nil, persistence.NewFormError("CloseForm", id, persistence.ErrFormNotFound)
	}

	if form.Status == models.FormStatusClosed {
		return form.Clone(), nil
	}

	form.Status = models.FormStatusClosed
	form.UpdatedAt = time.Now().UTC()

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	return form.Clone(), nil
}

// CloseDueForms closes every published form whose close deadline has passed
// and returns the affected forms.
func (s *Store) CloseDueForms(ctx context.Context, now time.Time) ([]*models.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var closed []*models.Form

	for _, form := range s.forms {
		if form.Status != models.FormStatusPublished || form.CloseAt == nil {
			continue
		}

		if form.CloseAt.After(now) {
			continue
		}

		form.Status = models.FormStatusClosed
		form.UpdatedAt = time.Now().UTC()
		closed = append(closed, form.Clone())
	}

	if len(closed) == 0 {
		return nil, nil
	}

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	return closed, nil
}
