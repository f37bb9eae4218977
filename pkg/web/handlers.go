// Package web provides HTTP handlers and REST API endpoints for form
// building and filling.
package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/eclane/open-typeform/pkg/models"
	"github.com/eclane/open-typeform/pkg/persistence"
	"github.com/eclane/open-typeform/pkg/runtime"
	"github.com/eclane/open-typeform/pkg/services"
	"github.com/eclane/open-typeform/pkg/store"
)

type APIHandlers struct {
	formService      *services.Form
	analyticsService *services.Analytics
	sessions         *runtime.Manager
	validator        *validator.Validate
}

func NewAPIHandlers(
	formService *services.Form,
	analyticsService *services.Analytics,
	sessions *runtime.Manager,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		formService:      formService,
		analyticsService: analyticsService,
		sessions:         sessions,
		validator:        validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	storeCheck, ok := h.formService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Form API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Form API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"store": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetForms(c fiber.Ctx) error {
	req, err := h.parseListFormsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.formService.ListForms(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"forms":         result.Forms,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListFormsRequest parses and validates query parameters for listing forms.
func (h *APIHandlers) parseListFormsRequest(c fiber.Ctx) (*services.ListFormsRequest, error) {
	req := &services.ListFormsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.FormStatus(statusStr)
		req.Status = &status
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetForm(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Form ID is required")
	}

	form, err := h.formService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsFormNotFound(err) {
			return notFound(c, "Form not found")
		}

		return internalError(c, err)
	}

	return c.JSON(form)
}

func (h *APIHandlers) CreateForm(c fiber.Ctx) error {
	var req CreateFormRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.formService.Create(c.Context(), req.Title)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateForm(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Form ID is required")
	}

	var req UpdateFormRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.formService.Update(c.Context(), id, store.FormUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Settings:     req.Settings,
		CloseAt:      req.CloseAt,
		ClearCloseAt: req.ClearCloseAt,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteForm(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Form ID is required")
	}

	err := h.formService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) DuplicateForm(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Form ID is required")
	}

	duplicate, err := h.formService.Duplicate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(duplicate)
}

func (h *APIHandlers) PublishForm(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Form ID is required")
	}

	published, err := h.formService.Publish(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(published)
}

func (h *APIHandlers) CloseForm(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Form ID is required")
	}

	closed, err := h.formService.CloseForm(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(closed)
}

func (h *APIHandlers) CreateQuestion(c fiber.Ctx) error {
	formID := c.Params("id")
	if formID == "" {
		return badRequest(c, "Form ID is required")
	}

	var req CreateQuestionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	question, err := h.formService.AddQuestion(c.Context(), formID, models.Question{
		Type:        models.QuestionType(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Required:    req.Required,
		Placeholder: req.Placeholder,
		Options:     req.Options,
		MaxRating:   req.MaxRating,
		ButtonText:  req.ButtonText,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(question)
}

func (h *APIHandlers) UpdateQuestion(c fiber.Ctx) error {
	formID := c.Params("id")
	questionID := c.Params("questionId")

	if formID == "" || questionID == "" {
		return badRequest(c, "Form ID and question ID are required")
	}

	var req UpdateQuestionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	question, err := h.formService.UpdateQuestion(c.Context(), formID, questionID, store.QuestionUpdate{
		Title:       req.Title,
		Description: req.Description,
		Required:    req.Required,
		Placeholder: req.Placeholder,
		Options:     req.Options,
		MaxRating:   req.MaxRating,
		ButtonText:  req.ButtonText,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(question)
}

func (h *APIHandlers) DeleteQuestion(c fiber.Ctx) error {
	formID := c.Params("id")
	questionID := c.Params("questionId")

	if formID == "" || questionID == "" {
		return badRequest(c, "Form ID and question ID are required")
	}

	err := h.formService.DeleteQuestion(c.Context(), formID, questionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ReorderQuestions(c fiber.Ctx) error {
	formID := c.Params("id")
	if formID == "" {
		return badRequest(c, "Form ID is required")
	}

	var req ReorderQuestionsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err := h.formService.ReorderQuestions(c.Context(), formID, req.FromIndex, req.ToIndex)
	if err != nil {
		return handleServiceError(c, err)
	}

	form, err := h.formService.FetchByID(c.Context(), formID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(form)
}

func (h *APIHandlers) CreateResponse(c fiber.Ctx) error {
	formID := c.Params("id")
	if formID == "" {
		return badRequest(c, "Form ID is required")
	}

	var req CreateResponseRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	metadata := requestMetadata(c)
	if req.Metadata != nil {
		metadata = *req.Metadata
	}

	response, issues, err := h.formService.AddResponse(c.Context(), formID, req.Answers, metadata)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ResponseResult{
		Response: response,
		Issues:   issues,
	})
}

func (h *APIHandlers) GetResponses(c fiber.Ctx) error {
	formID := c.Params("id")
	if formID == "" {
		return badRequest(c, "Form ID is required")
	}

	form, err := h.formService.FetchByID(c.Context(), formID)
	if err != nil {
		if persistence.IsFormNotFound(err) {
			return notFound(c, "Form not found")
		}

		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"responses":   form.Responses,
		"total_count": len(form.Responses),
	})
}

func (h *APIHandlers) GetFormSummary(c fiber.Ctx) error {
	formID := c.Params("id")
	if formID == "" {
		return badRequest(c, "Form ID is required")
	}

	summary, err := h.analyticsService.Summarize(c.Context(), formID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

func (h *APIHandlers) StartSession(c fiber.Ctx) error {
	formID := c.Params("id")
	if formID == "" {
		return badRequest(c, "Form ID is required")
	}

	session, err := h.sessions.StartSession(c.Context(), formID, requestMetadata(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TransformSessionView(session, nil))
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	session := h.sessions.Session(c.Params("sessionId"))
	if session == nil {
		return notFound(c, "Session not found")
	}

	return c.JSON(TransformSessionView(session, nil))
}

func (h *APIHandlers) AnswerSession(c fiber.Ctx) error {
	session := h.sessions.Session(c.Params("sessionId"))
	if session == nil {
		return notFound(c, "Session not found")
	}

	var req AnswerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	issues, err := session.Answer(req.Value)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(TransformSessionView(session, issues))
}

func (h *APIHandlers) AdvanceSession(c fiber.Ctx) error {
	session := h.sessions.Session(c.Params("sessionId"))
	if session == nil {
		return notFound(c, "Session not found")
	}

	if err := session.Advance(c.Context()); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(TransformSessionView(session, nil))
}

func (h *APIHandlers) RetreatSession(c fiber.Ctx) error {
	session := h.sessions.Session(c.Params("sessionId"))
	if session == nil {
		return notFound(c, "Session not found")
	}

	if err := session.Retreat(); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(TransformSessionView(session, nil))
}

func (h *APIHandlers) RestartSession(c fiber.Ctx) error {
	session := h.sessions.Session(c.Params("sessionId"))
	if session == nil {
		return notFound(c, "Session not found")
	}

	if err := session.Restart(); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(TransformSessionView(session, nil))
}

func (h *APIHandlers) EndSession(c fiber.Ctx) error {
	session := h.sessions.Session(c.Params("sessionId"))
	if session == nil {
		return notFound(c, "Session not found")
	}

	h.sessions.EndSession(session.ID)

	return c.SendStatus(fiber.StatusNoContent)
}

// requestMetadata derives response metadata from the request headers.
func requestMetadata(c fiber.Ctx) models.ResponseMetadata {
	userAgent := c.Get(fiber.HeaderUserAgent)

	return models.ResponseMetadata{
		Browser: browserFromUserAgent(userAgent),
		Device:  deviceFromUserAgent(userAgent),
	}
}

func browserFromUserAgent(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Edg/"):
		return "Edge"
	case strings.Contains(userAgent, "Firefox/"):
		return "Firefox"
	case strings.Contains(userAgent, "Chrome/"):
		return "Chrome"
	case strings.Contains(userAgent, "Safari/"):
		return "Safari"
	case userAgent == "":
		return "Unknown"
	default:
		return "Other"
	}
}

func deviceFromUserAgent(userAgent string) string {
	if strings.Contains(userAgent, "Mobile") {
		return "Mobile"
	}

	return "Desktop"
}
