package models

import "time"

func date(value string) time.Time {
	t, _ := time.Parse(time.RFC3339, value)

	return t
}

func datePtr(value string) *time.Time {
	t := date(value)

	return &t
}

// SampleForms returns the demonstration forms a fresh store is seeded with
// when no persisted snapshot exists.
func SampleForms() []*Form {
	return []*Form{
		{
			ID:          "form_1",
			Title:       "Customer Feedback Survey",
			Description: "Help us improve our service",
			Questions: []*Question{
				{
					ID:          "q1",
					Type:        QuestionTypeShortText,
					Title:       "What's your name?",
					Required:    true,
					Placeholder: "Type your answer here...",
				},
				{
					ID:          "q2",
					Type:        QuestionTypeEmail,
					Title:       "What's your email address?",
					Required:    true,
					Placeholder: "name@example.com",
				},
				{
					ID:        "q3",
					Type:      QuestionTypeRating,
					Title:     "How satisfied are you with our service?",
					Required:  true,
					MaxRating: 10,
				},
				{
					ID:          "q4",
					Type:        QuestionTypeLongText,
					Title:       "Any additional feedback?",
					Placeholder: "Tell us what you think...",
				},
			},
			Responses: []*Response{
				{
					ID:     "r1",
					FormID: "form_1",
					Answers: map[string]any{
						"q1": "John Doe", "q2": "john@example.com", "q3": 9, "q4": "Great service!",
					},
					SubmittedAt: date("2024-01-15T00:00:00Z"),
					Metadata:    ResponseMetadata{Browser: "Chrome", Device: "Desktop"},
				},
				{
					ID:     "r2",
					FormID: "form_1",
					Answers: map[string]any{
						"q1": "Jane Smith", "q2": "jane@example.com", "q3": 8, "q4": "Very good",
					},
					SubmittedAt: date("2024-01-16T00:00:00Z"),
					Metadata:    ResponseMetadata{Browser: "Safari", Device: "Mobile"},
				},
				{
					ID:     "r3",
					FormID: "form_1",
					Answers: map[string]any{
						"q1": "Bob Wilson", "q2": "bob@example.com", "q3": 10, "q4": "",
					},
					SubmittedAt: date("2024-01-17T00:00:00Z"),
					Metadata:    ResponseMetadata{Browser: "Firefox", Device: "Desktop"},
				},
			},
			Settings:    DefaultSettings(),
			CreatedAt:   date("2024-01-10T00:00:00Z"),
			UpdatedAt:   date("2024-01-17T00:00:00Z"),
			PublishedAt: datePtr("2024-01-12T00:00:00Z"),
			Status:      FormStatusPublished,
			Views:       156,
		},
		{
			ID:          "form_2",
			Title:       "Event Registration",
			Description: "Sign up for our upcoming event",
			Questions: []*Question{
				{
					ID:       "q1",
					Type:     QuestionTypeShortText,
					Title:    "Full name",
					Required: true,
				},
				{
					ID:       "q2",
					Type:     QuestionTypeEmail,
					Title:    "Email",
					Required: true,
				},
				{
					ID:       "q3",
					Type:     QuestionTypeMultipleChoice,
					Title:    "Which session interests you most?",
					Options:  []string{"Morning Workshop", "Afternoon Keynote", "Evening Networking"},
					Required: true,
				},
			},
			Responses: []*Response{
				{
					ID:     "r1",
					FormID: "form_2",
					Answers: map[string]any{
						"q1": "Alice Brown", "q2": "alice@example.com", "q3": "Morning Workshop",
					},
					SubmittedAt: date("2024-01-18T00:00:00Z"),
					Metadata:    ResponseMetadata{Browser: "Chrome", Device: "Desktop"},
				},
			},
			Settings: FormSettings{
				Theme:            ThemeLight,
				PrimaryColor:     "#00B894",
				ShowProgressBar:  true,
				ShuffleQuestions: false,
			},
			CreatedAt:   date("2024-01-14T00:00:00Z"),
			UpdatedAt:   date("2024-01-18T00:00:00Z"),
			PublishedAt: datePtr("2024-01-15T00:00:00Z"),
			Status:      FormStatusPublished,
			Views:       89,
		},
		{
			ID:          "form_3",
			Title:       "Product Research",
			Description: "Help us understand your needs",
			Questions:   []*Question{},
			Responses:   []*Response{},
			Settings:    DefaultSettings(),
			CreatedAt:   date("2024-01-19T00:00:00Z"),
			UpdatedAt:   date("2024-01-19T00:00:00Z"),
			Status:      FormStatusDraft,
			Views:       0,
		},
	}
}
