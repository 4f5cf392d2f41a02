package hooks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ticketflow/conductor/domain"
)

// EventType names a published ticket event.
type EventType string

const (
	// EventChatMessage fires whenever a ChatMessage is appended to a
	// ticket's history, customer- or agent-originated.
	EventChatMessage EventType = "chat_message"
	// EventQuestionAsked fires whenever display_agent_question records a
	// new QuestionRecord (spec §4.4).
	EventQuestionAsked EventType = "question_asked"
)

// Envelope is the JSON value published to a ticket's Pulse stream.
type Envelope struct {
	Type     EventType              `json:"type"`
	TicketID string                 `json:"ticket_id"`
	Message  *domain.ChatMessage    `json:"message,omitempty"`
	Question *domain.QuestionRecord `json:"question,omitempty"`
}

// Publisher publishes ticket lifecycle events to Pulse. It is the concrete
// implementation the publish_ticket_event activity (Activities.publishEvent)
// calls after the Ticket Conductor applies a ChatMessage or QuestionRecord,
// kept out of the workflows
// package itself so the durable workflow code never depends on Redis
// directly (publishing always happens through an activity).
type Publisher struct {
	client Client
}

// NewPublisher constructs a Publisher backed by client.
func NewPublisher(client Client) *Publisher {
	return &Publisher{client: client}
}

// PublishChatMessage publishes an EventChatMessage for msg.
func (p *Publisher) PublishChatMessage(ctx context.Context, ticketID string, msg domain.ChatMessage) error {
	return p.publish(ctx, ticketID, Envelope{Type: EventChatMessage, TicketID: ticketID, Message: &msg})
}

// PublishQuestionAsked publishes an EventQuestionAsked for record.
func (p *Publisher) PublishQuestionAsked(ctx context.Context, ticketID string, record domain.QuestionRecord) error {
	return p.publish(ctx, ticketID, Envelope{Type: EventQuestionAsked, TicketID: ticketID, Question: &record})
}

func (p *Publisher) publish(ctx context.Context, ticketID string, env Envelope) error {
	stream, err := p.client.Stream(TicketStreamName(ticketID))
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("hooks: marshal envelope: %w", err)
	}
	_, err = stream.Add(ctx, string(env.Type), payload)
	return err
}
