package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewTicketDefaults(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticket := NewTicket("ticket-1", "cust-1", nil, now)

	require.Equal(t, StatusOpen, ticket.Status)
	require.Equal(t, UrgencyMedium, ticket.UrgencyLevel)
	require.Empty(t, ticket.ChatHistory)
	require.NotNil(t, ticket.PendingQuestions)
	require.Equal(t, now, ticket.CreatedAt)
	require.Equal(t, now, ticket.LastUpdated)
}

func TestTicketLastActivityPrefersLatestChatMessage(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticket := NewTicket("ticket-1", "cust-1", nil, created)
	ticket.ChatHistory = append(ticket.ChatHistory,
		ChatMessage{Timestamp: created.Add(time.Hour)},
		ChatMessage{Timestamp: created.Add(30 * time.Minute)},
	)

	require.Equal(t, created.Add(time.Hour), ticket.LastActivity())
}

func TestTicketLastActivityFallsBackToLastUpdated(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticket := NewTicket("ticket-1", "cust-1", nil, created)

	require.Equal(t, created, ticket.LastActivity())
}

func TestTicketCanTransitionToFromNonTerminal(t *testing.T) {
	ticket := NewTicket("ticket-1", "cust-1", nil, time.Now())

	require.True(t, ticket.CanTransitionTo(StatusInProgress))
	require.True(t, ticket.CanTransitionTo(StatusWaitingForCustomer))
	require.True(t, ticket.CanTransitionTo(StatusEscalatedToHuman))
	require.True(t, ticket.CanTransitionTo(StatusResolved))
	require.True(t, ticket.CanTransitionTo(StatusClosed))
}

func TestTicketCanTransitionToIsTerminalOnceSet(t *testing.T) {
	ticket := NewTicket("ticket-1", "cust-1", nil, time.Now())
	ticket.Status = StatusResolved

	require.False(t, ticket.CanTransitionTo(StatusClosed), "a resolved ticket never moves to the other terminal status")
	require.True(t, ticket.CanTransitionTo(StatusResolved), "re-asserting the same terminal status is idempotent")
	require.False(t, ticket.CanTransitionTo(StatusInProgress), "a terminal ticket never reopens")
	require.False(t, ticket.CanTransitionTo(StatusOpen))
}

func TestTicketStatusTerminal(t *testing.T) {
	require.True(t, StatusResolved.Terminal())
	require.True(t, StatusClosed.Terminal())
	require.False(t, StatusOpen.Terminal())
	require.False(t, StatusEscalatedToHuman.Terminal())
}
