// Package events defines the lifecycle notifications emitted as forms are
// edited, published, filled and viewed.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the single stream all form lifecycle events are published to.
const Topic = "open_typeform.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Form lifecycle events.
	FormCreatedEvent    EventType = "form.created"
	FormUpdatedEvent    EventType = "form.updated"
	FormDeletedEvent    EventType = "form.deleted"
	FormDuplicatedEvent EventType = "form.duplicated"
	FormPublishedEvent  EventType = "form.published"
	FormClosedEvent     EventType = "form.closed"
	FormViewedEvent     EventType = "form.viewed"

	// Question editing events.
	QuestionAddedEvent      EventType = "question.added"
	QuestionUpdatedEvent    EventType = "question.updated"
	QuestionDeletedEvent    EventType = "question.deleted"
	QuestionsReorderedEvent EventType = "question.reordered"

	// Response collection events.
	ResponseSubmittedEvent EventType = "response.submitted"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FormID    string         `json:"form_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a fresh event envelope for the given form.
func NewBaseEvent(eventType EventType, formID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FormID:    formID,
	}
}

type FormCreated struct {
	BaseEvent

	Title string `json:"title"`
}

func (e FormCreated) GetType() EventType {
	return FormCreatedEvent
}

type FormUpdated struct {
	BaseEvent
}

func (e FormUpdated) GetType() EventType {
	return FormUpdatedEvent
}

type FormDeleted struct {
	BaseEvent
}

func (e FormDeleted) GetType() EventType {
	return FormDeletedEvent
}

type FormDuplicated struct {
	BaseEvent

	SourceFormID string `json:"source_form_id"`
}

func (e FormDuplicated) GetType() EventType {
	return FormDuplicatedEvent
}

type FormPublished struct {
	BaseEvent

	PublishedAt time.Time `json:"published_at"`
}

func (e FormPublished) GetType() EventType {
	return FormPublishedEvent
}

type FormClosed struct {
	BaseEvent

	// Reason is "manual" for explicit close calls and "deadline" when the
	// scheduled closer fired.
	Reason string `json:"reason"`
}

func (e FormClosed) GetType() EventType {
	return FormClosedEvent
}

type FormViewed struct {
	BaseEvent

	Views int64 `json:"views"`
}

func (e FormViewed) GetType() EventType {
	return FormViewedEvent
}

type QuestionAdded struct {
	BaseEvent

	QuestionID   string `json:"question_id"`
	QuestionType string `json:"question_type"`
}

func (e QuestionAdded) GetType() EventType {
	return QuestionAddedEvent
}

type QuestionUpdated struct {
	BaseEvent

	QuestionID string `json:"question_id"`
}

func (e QuestionUpdated) GetType() EventType {
	return QuestionUpdatedEvent
}

type QuestionDeleted struct {
	BaseEvent

	QuestionID string `json:"question_id"`
}

func (e QuestionDeleted) GetType() EventType {
	return QuestionDeletedEvent
}

type QuestionsReordered struct {
	BaseEvent

	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

func (e QuestionsReordered) GetType() EventType {
	return QuestionsReorderedEvent
}

type ResponseSubmitted struct {
	BaseEvent

	ResponseID  string `json:"response_id"`
	AnswerCount int    `json:"answer_count"`
}

func (e ResponseSubmitted) GetType() EventType {
	return ResponseSubmittedEvent
}
