package services

import (
	"context"
	"sort"

	"github.com/eclane/open-typeform/pkg/models"
	"github.com/eclane/open-typeform/pkg/store"
)

// Analytics aggregates response data for a form's summary view.
type Analytics struct {
	store *store.Store
}

// NewAnalytics creates a new analytics service.
func NewAnalytics(formStore *store.Store) *Analytics {
	return &Analytics{store: formStore}
}

// FormSummary is the aggregated view of a form's collected responses.
type FormSummary struct {
	FormID          string            `json:"form_id"`
	Title           string            `json:"title"`
	Status          models.FormStatus `json:"status"`
	Views           int64             `json:"views"`
	ResponseCount   int               `json:"response_count"`
	CompletionRate  float64           `json:"completion_rate"`
	ResponsesPerDay []DailyCount      `json:"responses_per_day"`
	Questions       []QuestionSummary `json:"questions"`
}

// DailyCount is the number of responses submitted on a given day.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD, UTC
	Count int    `json:"count"`
}

// QuestionSummary aggregates the answers collected for one question.
type QuestionSummary struct {
	QuestionID   string              `json:"question_id"`
	Title        string              `json:"title"`
	Type         models.QuestionType `json:"type"`
	AnswerCount  int                 `json:"answer_count"`
	OptionCounts map[string]int      `json:"option_counts,omitempty"`
	Average      *float64            `json:"average,omitempty"`
	YesCount     int                 `json:"yes_count,omitempty"`
	NoCount      int                 `json:"no_count,omitempty"`
}

// Summarize computes the response summary for a form.
func (a *Analytics) Summarize(ctx context.Context, formID string) (*FormSummary, error) {
	form, err := a.store.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	summary := &FormSummary{
		FormID:          form.ID,
		Title:           form.Title,
		Status:          form.Status,
		Views:           form.Views,
		ResponseCount:   len(form.Responses),
		CompletionRate:  completionRate(len(form.Responses), form.Views),
		ResponsesPerDay: responsesPerDay(form.Responses),
		Questions:       make([]QuestionSummary, 0, len(form.Questions)),
	}

	for _, question := range form.Questions {
		if question.Type.IsStatic() {
			continue
		}

		summary.Questions = append(summary.Questions, summarizeQuestion(question, form.Responses))
	}

	return summary, nil
}

// completionRate is responses over views. Views can lag behind responses
// when a snapshot was seeded with historical data, so the rate is capped
// at 1.
func completionRate(responses int, views int64) float64 {
	if views <= 0 {
		return 0
	}

	rate := float64(responses) / float64(views)
	if rate > 1 {
		return 1
	}

	return rate
}

func responsesPerDay(responses []*models.Response) []DailyCount {
	byDay := make(map[string]int)
	for _, response := range responses {
		byDay[response.SubmittedAt.UTC().Format("2006-01-02")]++
	}

	days := make([]DailyCount, 0, len(byDay))
	for date, count := range byDay {
		days = append(days, DailyCount{Date: date, Count: count})
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})

	return days
}

func summarizeQuestion(question *models.Question, responses []*models.Response) QuestionSummary {
	summary := QuestionSummary{
		QuestionID: question.ID,
		Title:      question.Title,
		Type:       question.Type,
	}

	var (
		numericSum   float64
		numericCount int
	)

	if question.Type.IsChoice() {
		summary.OptionCounts = make(map[string]int)
	}

	for _, response := range responses {
		value, answered := response.Answers[question.ID]
		if !answered || value == nil {
			continue
		}

		summary.AnswerCount++

		switch question.Type {
		case models.QuestionTypeMultipleChoice, models.QuestionTypeDropdown:
			if option, ok := value.(string); ok {
				summary.OptionCounts[option]++
			}
		case models.QuestionTypeRating, models.QuestionTypeNumber:
			if number, ok := toFloat(value); ok {
				numericSum += number
				numericCount++
			}
		case models.QuestionTypeYesNo:
			if answer, ok := value.(bool); ok {
				if answer {
					summary.YesCount++
				} else {
					summary.NoCount++
				}
			}
		}
	}

	if numericCount > 0 {
		average := numericSum / float64(numericCount)
		summary.Average = &average
	}

	return summary
}

// toFloat widens the numeric types a JSON decoder or caller may hand us.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
