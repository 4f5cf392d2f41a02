package hooks

import (
	"context"
	"encoding/json"
)

// Subscriber consumes one ticket's Pulse stream and decodes envelopes back
// into domain events, for a UI gateway to forward over SSE/WebSocket.
type Subscriber struct {
	client Client
	group  string
	buffer int
}

// SubscriberOptions configures a Subscriber.
type SubscriberOptions struct {
	// Group names the Pulse consumer group. Defaults to "ticket_conductor_ui".
	Group string
	// Buffer sizes the decoded-event channel. Defaults to 32.
	Buffer int
}

// NewSubscriber constructs a Subscriber backed by client.
func NewSubscriber(client Client, opts SubscriberOptions) *Subscriber {
	group := opts.Group
	if group == "" {
		group = "ticket_conductor_ui"
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 32
	}
	return &Subscriber{client: client, group: group, buffer: buffer}
}

// Subscribe opens a consumer group on ticketID's stream and returns a
// channel of decoded Envelopes plus a cancel function that stops
// consumption and closes the sink. The returned channel is closed once the
// context is canceled, cancel is called, or the sink errors.
func (s *Subscriber) Subscribe(ctx context.Context, ticketID string) (<-chan Envelope, context.CancelFunc, error) {
	stream, err := s.client.Stream(TicketStreamName(ticketID))
	if err != nil {
		return nil, nil, err
	}
	sink, err := stream.NewSink(ctx, s.group)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan Envelope, s.buffer)
	runCtx, cancel := context.WithCancel(ctx)
	cancelFunc := func() {
		cancel()
		sink.Close(context.Background())
	}

	go func() {
		defer close(out)
		raw := sink.Subscribe()
		for {
			select {
			case <-runCtx.Done():
				return
			case evt, ok := <-raw:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal(evt.Payload, &env); err != nil {
					continue
				}
				select {
				case out <- env:
				case <-runCtx.Done():
					return
				}
				_ = sink.Ack(runCtx, evt)
			}
		}
	}()

	return out, cancelFunc, nil
}
