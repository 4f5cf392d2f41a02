package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
	"github.com/ticketflow/conductor/engine/inmem"
	"github.com/ticketflow/conductor/llm"
	"github.com/ticketflow/conductor/tools"
	"github.com/ticketflow/conductor/workflows"
)

type stubLLM struct{}

func (stubLLM) Plan(context.Context, domain.PlanActivityInput) (domain.ExecutionPlan, error) {
	return domain.ExecutionPlan{
		Strategy: domain.StrategySequential,
		Steps:    []domain.ExecutionStep{{StepNumber: 1, AgentType: domain.AgentGeneralSupport}},
	}, nil
}

func (stubLLM) Synthesize(_ context.Context, in domain.SynthesizeActivityInput) (domain.SynthesisResult, error) {
	return domain.SynthesisResult{FinalResponse: "synthesized: " + in.CustomerMessage, Confidence: 0.9}, nil
}

func (stubLLM) Reason(_ context.Context, in domain.SpecialistInput, _ []llm.Tool) (domain.SpecialistOutput, error) {
	return domain.SpecialistOutput{Response: "handled: " + in.CustomerMessage, Confidence: 0.8}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng := inmem.New()
	toolsProvider, err := tools.NewStaticProvider(nil)
	require.NoError(t, err)
	acts := &workflows.Activities{
		LLM:                    stubLLM{},
		Tools:                  toolsProvider,
		Eng:                    eng,
		QuestionTimeoutSeconds: 5,
	}
	require.NoError(t, workflows.Register(context.Background(), eng, acts, engine.ActivityOptions{StartToClose: 10 * time.Second}))
	return NewServer(eng, nil)
}

func TestCreateTicketAndGetTicket(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	body, _ := json.Marshal(map[string]any{
		"ticket_id":       "ticket-http-1",
		"customer_id":     "cust-1",
		"initial_message": "where is my order",
	})
	req := httptest.NewRequest("POST", "/tickets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, 201, rec.Code)

	require.Eventually(t, func() bool {
		getReq := httptest.NewRequest("GET", "/tickets/ticket-http-1", nil)
		getRec := httptest.NewRecorder()
		handler.ServeHTTP(getRec, getReq)
		if getRec.Code != 200 {
			return false
		}
		var ticket domain.Ticket
		require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &ticket))
		return len(ticket.ChatHistory) >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCreateTicketRequiresCustomerID(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	body, _ := json.Marshal(map[string]any{"initial_message": "hello"})
	req := httptest.NewRequest("POST", "/tickets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, 400, rec.Code)
}

func TestGetTicketNotFoundReturns404(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest("GET", "/tickets/does-not-exist", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, 404, rec.Code)
}

func TestPostMessageAndPostStatus(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	create, _ := json.Marshal(map[string]any{
		"ticket_id":       "ticket-http-2",
		"customer_id":     "cust-2",
		"initial_message": "hi there",
	})
	createReq := httptest.NewRequest("POST", "/tickets", bytes.NewReader(create))
	createReq.Header.Set("Content-Type", "application/json")
	createRec := httptest.NewRecorder()
	handler.ServeHTTP(createRec, createReq)
	require.Equal(t, 201, createRec.Code)

	require.Eventually(t, func() bool {
		getReq := httptest.NewRequest("GET", "/tickets/ticket-http-2", nil)
		getRec := httptest.NewRecorder()
		handler.ServeHTTP(getRec, getReq)
		return getRec.Code == 200
	}, 2*time.Second, 10*time.Millisecond)

	msgBody, _ := json.Marshal(map[string]any{"content": "any update?"})
	msgReq := httptest.NewRequest("POST", "/tickets/ticket-http-2/messages", bytes.NewReader(msgBody))
	msgReq.Header.Set("Content-Type", "application/json")
	msgRec := httptest.NewRecorder()
	handler.ServeHTTP(msgRec, msgReq)
	require.Equal(t, 202, msgRec.Code)

	statusBody, _ := json.Marshal(map[string]any{
		"status":  string(domain.StatusResolved),
		"summary": "resolved: reshipped the order",
	})
	statusReq := httptest.NewRequest("POST", "/tickets/ticket-http-2/status", bytes.NewReader(statusBody))
	statusReq.Header.Set("Content-Type", "application/json")
	statusRec := httptest.NewRecorder()
	handler.ServeHTTP(statusRec, statusReq)
	require.Equal(t, 202, statusRec.Code)

	require.Eventually(t, func() bool {
		getReq := httptest.NewRequest("GET", "/tickets/ticket-http-2", nil)
		getRec := httptest.NewRecorder()
		handler.ServeHTTP(getRec, getReq)
		if getRec.Code != 200 {
			return false
		}
		var ticket domain.Ticket
		require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &ticket))
		return ticket.ResolutionSummary == "resolved: reshipped the order"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListTicketsReturnsRunningTicketIDs(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	create, _ := json.Marshal(map[string]any{
		"ticket_id":       "ticket-http-3",
		"customer_id":     "cust-3",
		"initial_message": "hello",
	})
	createReq := httptest.NewRequest("POST", "/tickets", bytes.NewReader(create))
	createReq.Header.Set("Content-Type", "application/json")
	createRec := httptest.NewRecorder()
	handler.ServeHTTP(createRec, createReq)
	require.Equal(t, 201, createRec.Code)

	require.Eventually(t, func() bool {
		listReq := httptest.NewRequest("GET", "/tickets", nil)
		listRec := httptest.NewRecorder()
		handler.ServeHTTP(listRec, listReq)
		if listRec.Code != 200 {
			return false
		}
		var body struct {
			TicketIDs []string `json:"ticket_ids"`
		}
		require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &body))
		for _, id := range body.TicketIDs {
			if id == "ticket-http-3" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}
