package hooks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ticketflow/conductor/domain"
)

type fakeStream struct {
	added []struct {
		name    string
		payload []byte
	}
}

func (s *fakeStream) Add(_ context.Context, name string, payload []byte) (string, error) {
	s.added = append(s.added, struct {
		name    string
		payload []byte
	}{name, payload})
	return "0-0", nil
}

func (s *fakeStream) NewSink(context.Context, string) (Sink, error) { return nil, nil }

type fakeClient struct {
	streams map[string]*fakeStream
}

func newFakeClient() *fakeClient { return &fakeClient{streams: map[string]*fakeStream{}} }

func (c *fakeClient) Stream(name string) (Stream, error) {
	s, ok := c.streams[name]
	if !ok {
		s = &fakeStream{}
		c.streams[name] = s
	}
	return s, nil
}

func (c *fakeClient) Close(context.Context) error { return nil }

func TestPublisherPublishChatMessage(t *testing.T) {
	client := newFakeClient()
	p := NewPublisher(client)

	msg := domain.ChatMessage{ID: "msg-1", TicketID: "ticket-1", Content: "hello"}
	require.NoError(t, p.PublishChatMessage(context.Background(), "ticket-1", msg))

	stream := client.streams[TicketStreamName("ticket-1")]
	require.Len(t, stream.added, 1)
	require.Equal(t, string(EventChatMessage), stream.added[0].name)

	var env Envelope
	require.NoError(t, json.Unmarshal(stream.added[0].payload, &env))
	require.Equal(t, EventChatMessage, env.Type)
	require.Equal(t, "ticket-1", env.TicketID)
	require.Equal(t, "hello", env.Message.Content)
}

func TestPublisherPublishQuestionAsked(t *testing.T) {
	client := newFakeClient()
	p := NewPublisher(client)

	record := domain.QuestionRecord{QuestionID: "q-1", Question: "what size?"}
	require.NoError(t, p.PublishQuestionAsked(context.Background(), "ticket-2", record))

	stream := client.streams[TicketStreamName("ticket-2")]
	require.Len(t, stream.added, 1)

	var env Envelope
	require.NoError(t, json.Unmarshal(stream.added[0].payload, &env))
	require.Equal(t, EventQuestionAsked, env.Type)
	require.Equal(t, "q-1", env.Question.QuestionID)
}

func TestTicketStreamName(t *testing.T) {
	require.Equal(t, "ticket/abc-123", TicketStreamName("abc-123"))
}
