package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclane/open-typeform/pkg/models"
	"github.com/eclane/open-typeform/pkg/persistence/file"
	"github.com/eclane/open-typeform/pkg/runtime"
	"github.com/eclane/open-typeform/pkg/services"
	"github.com/eclane/open-typeform/pkg/store"
	"github.com/eclane/open-typeform/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.Form) {
	t.Helper()

	formStore := store.NewStore(file.NewSnapshotter(t.TempDir()), slog.Default())
	require.NoError(t, formStore.Open(context.Background()))

	t.Cleanup(func() {
		_ = formStore.Close(context.Background())
	})

	formService := services.NewForm(formStore, nil, slog.Default())
	analyticsService := services.NewAnalytics(formStore)
	sessionManager := runtime.NewManager(formStore, slog.Default())
	handlers := web.NewAPIHandlers(formService, analyticsService, sessionManager,
		validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	app.Get("/health", handlers.HealthCheck)

	forms := app.Group("/forms")
	forms.Get("/", handlers.GetForms)
	forms.Post("/", handlers.CreateForm)
	forms.Get("/:id", handlers.GetForm)
	forms.Patch("/:id", handlers.UpdateForm)
	forms.Delete("/:id", handlers.DeleteForm)
	forms.Post("/:id/duplicate", handlers.DuplicateForm)
	forms.Post("/:id/publish", handlers.PublishForm)
	forms.Post("/:id/close", handlers.CloseForm)
	forms.Post("/:id/questions", handlers.CreateQuestion)
	forms.Patch("/:id/questions/:questionId", handlers.UpdateQuestion)
	forms.Delete("/:id/questions/:questionId", handlers.DeleteQuestion)
	forms.Post("/:id/questions/reorder", handlers.ReorderQuestions)
	forms.Post("/:id/responses", handlers.CreateResponse)
	forms.Get("/:id/responses", handlers.GetResponses)
	forms.Get("/:id/summary", handlers.GetFormSummary)
	forms.Post("/:id/sessions", handlers.StartSession)

	sessions := app.Group("/sessions")
	sessions.Get("/:sessionId", handlers.GetSession)
	sessions.Post("/:sessionId/answer", handlers.AnswerSession)
	sessions.Post("/:sessionId/advance", handlers.AdvanceSession)
	sessions.Post("/:sessionId/retreat", handlers.RetreatSession)
	sessions.Post("/:sessionId/restart", handlers.RestartSession)
	sessions.Delete("/:sessionId", handlers.EndSession)

	return app, formService
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body []byte

	if payload != nil {
		if str, ok := payload.(string); ok {
			body = []byte(str)
		} else {
			var err error
			body, err = json.Marshal(payload)
			require.NoError(t, err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	return resp, respBody
}

func createTestForm(t *testing.T, app *fiber.App, title string) models.Form {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/forms/", web.CreateFormRequest{Title: title})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var form models.Form
	require.NoError(t, json.Unmarshal(body, &form))

	return form
}

func TestAPIHandlers_CreateForm(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		expectedTitle  string
	}{
		{
			name:           "successful creation",
			requestBody:    web.CreateFormRequest{Title: "Customer Survey"},
			expectedStatus: http.StatusCreated,
			expectedTitle:  "Customer Survey",
		},
		{
			name:           "empty title falls back to placeholder",
			requestBody:    web.CreateFormRequest{},
			expectedStatus: http.StatusCreated,
			expectedTitle:  models.DefaultFormTitle,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)

			resp, body := doJSON(t, app, http.MethodPost, "/forms/", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var form models.Form
				require.NoError(t, json.Unmarshal(body, &form))
				assert.Equal(t, tt.expectedTitle, form.Title)
				assert.Equal(t, models.FormStatusDraft, form.Status)
				assert.NotEmpty(t, form.ID)
			}
		})
	}
}

func TestAPIHandlers_GetFormNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/forms/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_UpdateForm(t *testing.T) {
	app, _ := setupTestApp(t)
	form := createTestForm(t, app, "Original")

	title := "Renamed"
	resp, body := doJSON(t, app, http.MethodPatch, "/forms/"+form.ID, web.UpdateFormRequest{Title: &title})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Form
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, form.Description, updated.Description)

	resp, _ = doJSON(t, app, http.MethodPatch, "/forms/missing", web.UpdateFormRequest{Title: &title})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_DeleteForm(t *testing.T) {
	app, _ := setupTestApp(t)
	form := createTestForm(t, app, "Doomed")

	resp, _ := doJSON(t, app, http.MethodDelete, "/forms/"+form.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/forms/"+form.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Deleting again is still a no-op success.
	resp, _ = doJSON(t, app, http.MethodDelete, "/forms/"+form.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPIHandlers_DuplicateForm(t *testing.T) {
	app, _ := setupTestApp(t)
	form := createTestForm(t, app, "Original")

	resp, body := doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var duplicate models.Form
	require.NoError(t, json.Unmarshal(body, &duplicate))
	assert.Equal(t, "Original (Copy)", duplicate.Title)
	assert.NotEqual(t, form.ID, duplicate.ID)
	assert.Equal(t, models.FormStatusDraft, duplicate.Status)

	resp, _ = doJSON(t, app, http.MethodPost, "/forms/missing/duplicate", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_PublishAndClose(t *testing.T) {
	app, _ := setupTestApp(t)
	form := createTestForm(t, app, "Lifecycle")

	resp, body := doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/publish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var published models.Form
	require.NoError(t, json.Unmarshal(body, &published))
	assert.Equal(t, models.FormStatusPublished, published.Status)
	assert.NotNil(t, published.PublishedAt)

	resp, _ = doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/close", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Publishing a closed form conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/publish", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_QuestionLifecycle(t *testing.T) {
	app, _ := setupTestApp(t)
	form := createTestForm(t, app, "Questions")

	resp, body := doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/questions", web.CreateQuestionRequest{
		Type:    "multiple_choice",
		Title:   "Favorite color?",
		Options: []string{"Red", "Blue"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var question models.Question
	require.NoError(t, json.Unmarshal(body, &question))
	assert.NotEmpty(t, question.ID)
	assert.Equal(t, models.QuestionTypeMultipleChoice, question.Type)

	// Unknown question types are rejected.
	resp, _ = doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/questions", web.CreateQuestionRequest{
		Type:  "matrix",
		Title: "Grid?",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	newTitle := "Preferred color?"
	resp, body = doJSON(t, app, http.MethodPatch, "/forms/"+form.ID+"/questions/"+question.ID,
		web.UpdateQuestionRequest{Title: &newTitle})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Question
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Preferred color?", updated.Title)

	resp, _ = doJSON(t, app, http.MethodPatch, "/forms/"+form.ID+"/questions/missing",
		web.UpdateQuestionRequest{Title: &newTitle})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/forms/"+form.ID+"/questions/"+question.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/forms/"+form.ID+"/questions/"+question.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_ReorderQuestions(t *testing.T) {
	app, _ := setupTestApp(t)
	form := createTestForm(t, app, "Ordered")

	titles := []string{"First", "Second", "Third"}
	for _, title := range titles {
		resp, _ := doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/questions", web.CreateQuestionRequest{
			Type:  "short_text",
			Title: title,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/questions/reorder",
		web.ReorderQuestionsRequest{FromIndex: 0, ToIndex: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reordered models.Form
	require.NoError(t, json.Unmarshal(body, &reordered))
	require.Len(t, reordered.Questions, 3)
	assert.Equal(t, "Second", reordered.Questions[0].Title)
	assert.Equal(t, "Third", reordered.Questions[1].Title)
	assert.Equal(t, "First", reordered.Questions[2].Title)
}

func TestAPIHandlers_CreateResponse(t *testing.T) {
	app, _ := setupTestApp(t)
	form := createTestForm(t, app, "Feedback")

	resp, body := doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/questions", web.CreateQuestionRequest{
		Type:  "rating",
		Title: "Score?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var question models.Question
	require.NoError(t, json.Unmarshal(body, &question))

	resp, body = doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/responses", web.CreateResponseRequest{
		Answers: map[string]any{question.ID: 7},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result web.ResponseResult
	require.NoError(t, json.Unmarshal(body, &result))
	require.NotNil(t, result.Response)
	assert.Empty(t, result.Issues)

	// Out-of-scale answers are recorded but flagged.
	resp, body = doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/responses", web.CreateResponseRequest{
		Answers: map[string]any{question.ID: 99},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Len(t, result.Issues, 1)

	// Empty submissions are rejected.
	resp, _ = doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/responses", web.CreateResponseRequest{
		Answers: map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/forms/"+form.ID+"/responses", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Responses  []models.Response `json:"responses"`
		TotalCount int               `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, 2, listing.TotalCount)
}

func TestAPIHandlers_GetFormSummary(t *testing.T) {
	app, _ := setupTestApp(t)
	form := createTestForm(t, app, "Summary")

	resp, body := doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/questions", web.CreateQuestionRequest{
		Type:  "yes_no",
		Title: "Attending?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var question models.Question
	require.NoError(t, json.Unmarshal(body, &question))

	resp, _ = doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/responses", web.CreateResponseRequest{
		Answers: map[string]any{question.ID: true},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/forms/"+form.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary services.FormSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 1, summary.ResponseCount)
	require.Len(t, summary.Questions, 1)
	assert.Equal(t, 1, summary.Questions[0].YesCount)
}

func TestAPIHandlers_SessionFlow(t *testing.T) {
	app, _ := setupTestApp(t)
	form := createTestForm(t, app, "Guided")

	for _, q := range []web.CreateQuestionRequest{
		{Type: "short_text", Title: "Name?"},
		{Type: "email", Title: "Email?", Required: true},
	} {
		resp, _ := doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/questions", q)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodPost, "/forms/"+form.ID+"/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view web.SessionView
	require.NoError(t, json.Unmarshal(body, &view))
	require.NotEmpty(t, view.ID)
	assert.Equal(t, form.ID, view.FormID)
	assert.Equal(t, 0, view.Position)
	assert.Equal(t, 2, view.Total)
	require.NotNil(t, view.Question)

	// Starting a session counts one view.
	resp, body = doJSON(t, app, http.MethodGet, "/forms/"+form.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var viewed models.Form
	require.NoError(t, json.Unmarshal(body, &viewed))
	assert.Equal(t, int64(1), viewed.Views)

	sessionPath := "/sessions/" + view.ID

	resp, _ = doJSON(t, app, http.MethodPost, sessionPath+"/answer", web.AnswerRequest{Value: "Ada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, sessionPath+"/advance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Skipping the required email only produces an advisory issue.
	resp, body = doJSON(t, app, http.MethodPost, sessionPath+"/answer", web.AnswerRequest{Value: nil})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Len(t, view.Issues, 1)

	resp, body = doJSON(t, app, http.MethodPost, sessionPath+"/advance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.True(t, view.Complete)
	require.NotNil(t, view.Response)

	resp, body = doJSON(t, app, http.MethodGet, "/forms/"+form.ID+"/responses", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, 1, listing.TotalCount)

	resp, _ = doJSON(t, app, http.MethodDelete, sessionPath, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, sessionPath, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetForms(t *testing.T) {
	app, _ := setupTestApp(t)

	// The store seeds three sample forms.
	resp, body := doJSON(t, app, http.MethodGet, "/forms/?status=published", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Forms      []models.Form `json:"forms"`
		TotalCount int64         `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, int64(2), listing.TotalCount)

	resp, _ = doJSON(t, app, http.MethodGet, "/forms/?sort_by=views", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health.Status)
}
