// Package hooks publishes Ticket Conductor lifecycle events — chat messages
// and agent questions — onto goa.design/pulse streams backed by Redis, so a
// UI gateway can subscribe to one ticket's activity without polling getState
// (spec §6 "ticket event stream"). It mirrors the layering the teacher uses
// for its own runtime event streaming: build a Redis client, wrap it in a
// thin Pulse client, hand the publishing side to whatever produces events
// and the subscribing side to whatever consumes them.
package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

type (
	// ClientOptions configures the Pulse client.
	ClientOptions struct {
		// Redis is the Redis connection backing every stream. Required.
		Redis *redis.Client
		// StreamMaxLen bounds the number of entries kept per ticket stream.
		// Zero uses Pulse's own default.
		StreamMaxLen int
	}

	// Client opens Pulse streams by name, creating them on first use.
	Client interface {
		// Stream returns a handle to the named ticket stream.
		Stream(name string) (Stream, error)
		// Close releases client-held resources. The Redis connection itself
		// is owned by the caller, not the client.
		Close(ctx context.Context) error
	}

	// Stream publishes events to, and opens consumer groups against, one
	// ticket's Pulse stream.
	Stream interface {
		// Add publishes one event under name, returning the Redis-assigned
		// entry ID.
		Add(ctx context.Context, name string, payload []byte) (string, error)
		// NewSink opens a consumer group on this stream for a subscriber.
		NewSink(ctx context.Context, name string) (Sink, error)
	}

	// Sink is a consumer group reading from one ticket's stream.
	Sink interface {
		Subscribe() <-chan *streaming.Event
		Ack(ctx context.Context, event *streaming.Event) error
		Close(ctx context.Context)
	}
)

type client struct {
	redis  *redis.Client
	maxLen int
}

// NewClient constructs a Client backed by opts.Redis.
func NewClient(opts ClientOptions) (Client, error) {
	if opts.Redis == nil {
		return nil, errors.New("hooks: redis client is required")
	}
	return &client{redis: opts.Redis, maxLen: opts.StreamMaxLen}, nil
}

func (c *client) Stream(name string) (Stream, error) {
	if name == "" {
		return nil, errors.New("hooks: stream name is required")
	}
	var opts []streamopts.Stream
	if c.maxLen > 0 {
		opts = append(opts, streamopts.WithStreamMaxLen(c.maxLen))
	}
	str, err := streaming.NewStream(name, c.redis, opts...)
	if err != nil {
		return nil, fmt.Errorf("hooks: create stream: %w", err)
	}
	return &streamHandle{stream: str}, nil
}

func (c *client) Close(context.Context) error { return nil }

type streamHandle struct {
	stream *streaming.Stream
}

func (h *streamHandle) Add(ctx context.Context, name string, payload []byte) (string, error) {
	id, err := h.stream.Add(ctx, name, payload)
	if err != nil {
		return "", fmt.Errorf("hooks: publish: %w", err)
	}
	return id, nil
}

func (h *streamHandle) NewSink(ctx context.Context, name string) (Sink, error) {
	sink, err := h.stream.NewSink(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("hooks: open sink: %w", err)
	}
	return sinkAdapter{sink}, nil
}

type sinkAdapter struct {
	*streaming.Sink
}

func (s sinkAdapter) Close(ctx context.Context) { s.Sink.Close(ctx) }

// TicketStreamName derives the Pulse stream name for a ticket's event
// stream (spec §6: one event stream per ticket).
func TicketStreamName(ticketID string) string { return fmt.Sprintf("ticket/%s", ticketID) }
