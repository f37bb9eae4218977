package services_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclane/open-typeform/pkg/models"
	"github.com/eclane/open-typeform/pkg/persistence/file"
	"github.com/eclane/open-typeform/pkg/services"
	"github.com/eclane/open-typeform/pkg/store"
)

func newAnalyticsFixture(t *testing.T) (*services.Analytics, *services.Form) {
	t.Helper()

	formStore := store.NewStore(file.NewSnapshotter(t.TempDir()), slog.Default())
	require.NoError(t, formStore.Open(context.Background()))

	t.Cleanup(func() {
		_ = formStore.Close(context.Background())
	})

	return services.NewAnalytics(formStore), services.NewForm(formStore, nil, slog.Default())
}

func TestAnalytics_SummarizeEmptyForm(t *testing.T) {
	analytics, formService := newAnalyticsFixture(t)
	ctx := context.Background()

	form, err := formService.Create(ctx, "Quiet Form")
	require.NoError(t, err)

	summary, err := analytics.Summarize(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ResponseCount)
	assert.Zero(t, summary.CompletionRate)
	assert.Empty(t, summary.ResponsesPerDay)
	assert.Empty(t, summary.Questions)
}

func TestAnalytics_SummarizeNotFound(t *testing.T) {
	analytics, _ := newAnalyticsFixture(t)

	_, err := analytics.Summarize(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrFormNotFound)
}

func TestAnalytics_SummarizeAggregates(t *testing.T) {
	analytics, formService := newAnalyticsFixture(t)
	ctx := context.Background()

	form, err := formService.Create(ctx, "Lunch Poll")
	require.NoError(t, err)

	choice, err := formService.AddQuestion(ctx, form.ID, models.Question{
		Type:    models.QuestionTypeMultipleChoice,
		Title:   "Favorite cuisine?",
		Options: []string{"Italian", "Thai", "Mexican"},
	})
	require.NoError(t, err)

	rating, err := formService.AddQuestion(ctx, form.ID, models.Question{
		Type:  models.QuestionTypeRating,
		Title: "Rate the cafeteria",
	})
	require.NoError(t, err)

	yesNo, err := formService.AddQuestion(ctx, form.ID, models.Question{
		Type:  models.QuestionTypeYesNo,
		Title: "Would you come back?",
	})
	require.NoError(t, err)

	submissions := []map[string]any{
		{choice.ID: "Thai", rating.ID: 8, yesNo.ID: true},
		{choice.ID: "Thai", rating.ID: 6, yesNo.ID: false},
		{choice.ID: "Italian", rating.ID: 10},
	}
	for _, answers := range submissions {
		_, _, err = formService.AddResponse(ctx, form.ID, answers, models.ResponseMetadata{})
		require.NoError(t, err)
	}

	for range 4 {
		_, err = formService.RecordView(ctx, form.ID)
		require.NoError(t, err)
	}

	summary, err := analytics.Summarize(ctx, form.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.ResponseCount)
	assert.Equal(t, int64(4), summary.Views)
	assert.InDelta(t, 0.75, summary.CompletionRate, 0.0001)
	require.Len(t, summary.ResponsesPerDay, 1)
	assert.Equal(t, 3, summary.ResponsesPerDay[0].Count)

	require.Len(t, summary.Questions, 3)

	choiceSummary := summary.Questions[0]
	assert.Equal(t, choice.ID, choiceSummary.QuestionID)
	assert.Equal(t, 3, choiceSummary.AnswerCount)
	assert.Equal(t, map[string]int{"Thai": 2, "Italian": 1}, choiceSummary.OptionCounts)

	ratingSummary := summary.Questions[1]
	assert.Equal(t, 3, ratingSummary.AnswerCount)
	require.NotNil(t, ratingSummary.Average)
	assert.InDelta(t, 8.0, *ratingSummary.Average, 0.0001)

	yesNoSummary := summary.Questions[2]
	assert.Equal(t, 2, yesNoSummary.AnswerCount)
	assert.Equal(t, 1, yesNoSummary.YesCount)
	assert.Equal(t, 1, yesNoSummary.NoCount)
}

func TestAnalytics_CompletionRateIsCapped(t *testing.T) {
	analytics, formService := newAnalyticsFixture(t)
	ctx := context.Background()

	form, err := formService.Create(ctx, "Shared Link Form")
	require.NoError(t, err)

	question, err := formService.AddQuestion(ctx, form.ID, models.Question{
		Type:  models.QuestionTypeShortText,
		Title: "Any feedback?",
	})
	require.NoError(t, err)

	_, err = formService.RecordView(ctx, form.ID)
	require.NoError(t, err)

	for range 3 {
		_, _, err = formService.AddResponse(ctx, form.ID,
			map[string]any{question.ID: "great"}, models.ResponseMetadata{})
		require.NoError(t, err)
	}

	summary, err := analytics.Summarize(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, summary.CompletionRate)
}
