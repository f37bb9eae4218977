package eventbus

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/eclane/open-typeform/pkg/events"
)

type WatermillEventBus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	subscriptions map[events.EventType]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(_ context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

// newEvent returns an empty event value for the given type, or nil for
// unknown types.
func newEvent(eventType events.EventType) any {
	switch eventType {
	case events.FormCreatedEvent:
		return &events.FormCreated{}
	case events.FormUpdatedEvent:
		return &events.FormUpdated{}
	case events.FormDeletedEvent:
		return &events.FormDeleted{}
	case events.FormDuplicatedEvent:
		return &events.FormDuplicated{}
	case events.FormPublishedEvent:
		return &events.FormPublished{}
	case events.FormClosedEvent:
		return &events.FormClosed{}
	case events.FormViewedEvent:
		return &events.FormViewed{}
	case events.QuestionAddedEvent:
		return &events.QuestionAdded{}
	case events.QuestionUpdatedEvent:
		return &events.QuestionUpdated{}
	case events.QuestionDeletedEvent:
		return &events.QuestionDeleted{}
	case events.QuestionsReorderedEvent:
		return &events.QuestionsReordered{}
	case events.ResponseSubmittedEvent:
		return &events.ResponseSubmitted{}
	default:
		return nil
	}
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			handler, exists := eb.subscriptions[eventType]
			if !exists {
				msg.Ack()

				continue
			}

			event := newEvent(eventType)
			if event == nil {
				msg.Nack()

				continue
			}

			err := json.Unmarshal(msg.Payload, event)
			if err != nil {
				msg.Nack()

				continue
			}

			err = handler(ctx, event)
			if err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
