package services_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclane/open-typeform/pkg/channels/gochannel"
	"github.com/eclane/open-typeform/pkg/eventbus"
	"github.com/eclane/open-typeform/pkg/events"
	"github.com/eclane/open-typeform/pkg/models"
	"github.com/eclane/open-typeform/pkg/persistence/file"
	"github.com/eclane/open-typeform/pkg/services"
	"github.com/eclane/open-typeform/pkg/store"
)

func newTestService(t *testing.T) (*services.Form, *store.Store) {
	t.Helper()

	formStore := store.NewStore(file.NewSnapshotter(t.TempDir()), slog.Default())
	require.NoError(t, formStore.Open(context.Background()))

	t.Cleanup(func() {
		_ = formStore.Close(context.Background())
	})

	return services.NewForm(formStore, nil, slog.Default()), formStore
}

func TestForm_CreateAndFetch(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	form, err := service.Create(ctx, "Onboarding Survey")
	require.NoError(t, err)
	assert.Equal(t, "Onboarding Survey", form.Title)
	assert.Equal(t, models.FormStatusDraft, form.Status)

	fetched, err := service.FetchByID(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, form.ID, fetched.ID)
}

func TestForm_FetchByIDNotFound(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.FetchByID(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrFormNotFound)
}

func TestForm_ListFormsValidation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.ListForms(ctx, services.ListFormsRequest{SortBy: "views"})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
	assert.ErrorIs(t, err, services.ErrInvalidSortField)

	_, err = service.ListForms(ctx, services.ListFormsRequest{SortOrder: "sideways"})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidSortOrder)

	badStatus := models.FormStatus("archived")
	_, err = service.ListForms(ctx, services.ListFormsRequest{Status: &badStatus})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidStatus)
}

func TestForm_ListFormsDefaults(t *testing.T) {
	service, _ := newTestService(t)

	result, err := service.ListForms(context.Background(), services.ListFormsRequest{})
	require.NoError(t, err)
	// The store seeds three sample forms on an empty snapshot.
	assert.Equal(t, int64(3), result.TotalCount)
	assert.False(t, result.HasNextPage)
}

func TestForm_PublishClosedFormConflicts(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	form, err := service.Create(ctx, "Poll")
	require.NoError(t, err)

	_, err = service.Publish(ctx, form.ID)
	require.NoError(t, err)

	_, err = service.CloseForm(ctx, form.ID)
	require.NoError(t, err)

	_, err = service.Publish(ctx, form.ID)
	require.Error(t, err)
	assert.True(t, services.IsConflictError(err))
}

func TestForm_AddQuestionValidation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	form, err := service.Create(ctx, "Poll")
	require.NoError(t, err)

	_, err = service.AddQuestion(ctx, form.ID, models.Question{
		Type:  models.QuestionType("checkbox_grid"),
		Title: "Pick all that apply",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidQuestionType)

	_, err = service.AddQuestion(ctx, form.ID, models.Question{
		Type: models.QuestionTypeShortText,
	})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))

	question, err := service.AddQuestion(ctx, form.ID, models.Question{
		Type:  models.QuestionTypeShortText,
		Title: "What is your name?",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, question.ID)
}

func TestForm_AddResponse(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	form, err := service.Create(ctx, "Poll")
	require.NoError(t, err)

	question, err := service.AddQuestion(ctx, form.ID, models.Question{
		Type:  models.QuestionTypeRating,
		Title: "How did we do?",
	})
	require.NoError(t, err)

	_, _, err = service.AddResponse(ctx, form.ID, map[string]any{}, models.ResponseMetadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrAnswersRequired)

	response, issues, err := service.AddResponse(ctx, form.ID,
		map[string]any{question.ID: 8}, models.ResponseMetadata{Browser: "Firefox"})
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, form.ID, response.FormID)

	// Out-of-scale ratings are recorded but flagged.
	response, issues, err = service.AddResponse(ctx, form.ID,
		map[string]any{question.ID: 42}, models.ResponseMetadata{})
	require.NoError(t, err)
	assert.NotNil(t, response)
	assert.Len(t, issues, 1)
}

func TestForm_RecordView(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	form, err := service.Create(ctx, "Poll")
	require.NoError(t, err)

	views, err := service.RecordView(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), views)

	views, err = service.RecordView(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), views)
}

func TestForm_CloseDueForms(t *testing.T) {
	service, formStore := newTestService(t)
	ctx := context.Background()

	form, err := service.Create(ctx, "Time-boxed Survey")
	require.NoError(t, err)

	_, err = service.Publish(ctx, form.ID)
	require.NoError(t, err)

	deadline := time.Now().UTC().Add(-time.Hour)
	_, err = service.Update(ctx, form.ID, store.FormUpdate{CloseAt: &deadline})
	require.NoError(t, err)

	closed, err := service.CloseDueForms(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, form.ID, closed[0].ID)

	stored, err := formStore.GetForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FormStatusClosed, stored.Status)
}

func TestForm_PublishesLifecycleEvents(t *testing.T) {
	formStore := store.NewStore(file.NewSnapshotter(t.TempDir()), slog.Default())
	require.NoError(t, formStore.Open(context.Background()))

	t.Cleanup(func() {
		_ = formStore.Close(context.Background())
	})

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	defer bus.Close()

	received := make(chan any, 1)
	require.NoError(t, bus.Handle(events.FormCreatedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	service := services.NewForm(formStore, bus, slog.Default())

	form, err := service.Create(ctx, "Event Check")
	require.NoError(t, err)

	select {
	case got := <-received:
		created, ok := got.(*events.FormCreated)
		require.True(t, ok)
		assert.Equal(t, form.ID, created.FormID)
		assert.Equal(t, "Event Check", created.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for form.created event")
	}
}
