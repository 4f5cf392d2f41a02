// Package http exposes the Ticket Conductor's signal/query surface (spec
// §6) to operator/customer UI gateways over HTTP+JSON, translating each
// route into the matching engine.Engine call rather than letting transport
// code touch workflow internals directly.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
	"github.com/ticketflow/conductor/telemetry"
	"github.com/ticketflow/conductor/workflows"
)

// Server wires engine.Engine onto a gin.Engine.
type Server struct {
	eng    engine.Engine
	logger telemetry.Logger
}

// NewServer constructs a Server. logger defaults to a no-op logger if nil.
func NewServer(eng engine.Engine, logger telemetry.Logger) *Server {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Server{eng: eng, logger: logger}
}

// Handler builds the gin.Engine routing table for this server.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.POST("/tickets", s.createTicket)
	r.GET("/tickets", s.listTickets)
	r.POST("/tickets/:id/messages", s.postMessage)
	r.GET("/tickets/:id", s.getTicket)
	r.POST("/tickets/:id/status", s.postStatus)
	r.POST("/questions/:id/answer", s.postQuestionAnswer)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method, "path", c.FullPath(),
			"status", c.Writer.Status(), "duration_ms", time.Since(start).Milliseconds())
	}
}

// createTicketRequest is the body for POST /tickets (spec §6 ticket start
// input: ticket_id is optional — a UUID is generated when omitted).
type createTicketRequest struct {
	TicketID        string         `json:"ticket_id"`
	CustomerID      string         `json:"customer_id" binding:"required"`
	InitialMessage  string         `json:"initial_message" binding:"required"`
	CustomerProfile map[string]any `json:"customer_profile,omitempty"`
}

func (s *Server) createTicket(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TicketID == "" {
		req.TicketID = uuid.NewString()
	}

	_, err := s.eng.StartWorkflow(c.Request.Context(), engine.WorkflowStartRequest{
		ID:       workflows.TicketWorkflowID(req.TicketID),
		Workflow: workflows.WorkflowTicketConductor,
		Input: domain.TicketStartInput{
			TicketID:        req.TicketID,
			CustomerID:      req.CustomerID,
			InitialMessage:  req.InitialMessage,
			CustomerProfile: req.CustomerProfile,
		},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticket_id": req.TicketID})
}

type postMessageRequest struct {
	Content     string             `json:"content" binding:"required"`
	MessageType domain.MessageType `json:"message_type"`
}

func (s *Server) postMessage(c *gin.Context) {
	ticketID := c.Param("id")
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MessageType == "" {
		req.MessageType = domain.MessageCustomer
	}
	msg := domain.ChatMessage{
		TicketID:    ticketID,
		Content:     req.Content,
		MessageType: req.MessageType,
	}
	if err := s.eng.SignalWorkflow(c.Request.Context(), workflows.TicketWorkflowID(ticketID), domain.SignalAddMessage, msg); err != nil {
		writeEngineError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *Server) getTicket(c *gin.Context) {
	ticketID := c.Param("id")
	var ticket domain.Ticket
	if err := s.eng.QueryWorkflow(c.Request.Context(), workflows.TicketWorkflowID(ticketID), domain.QueryGetState, nil, &ticket); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// postStatusRequest is the body for POST /tickets/:id/status. Summary is an
// operator-supplied resolution note or close reason, applied when the
// transition lands on a terminal status (mirrors an admin console's
// resolve/close actions, which always carry a summary alongside the status
// change).
type postStatusRequest struct {
	Status  domain.TicketStatus `json:"status" binding:"required"`
	Summary string              `json:"summary,omitempty"`
}

func (s *Server) postStatus(c *gin.Context) {
	ticketID := c.Param("id")
	var req postStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.eng.SignalWorkflow(c.Request.Context(), workflows.TicketWorkflowID(ticketID), domain.SignalUpdateTicketStatus,
		domain.UpdateTicketStatusSignal{Status: req.Status, Summary: req.Summary}); err != nil {
		writeEngineError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// listTickets reports the ids of currently running Ticket Conductor
// workflows, the same enumeration an admin console's ticket queue view
// needs to build its list before a caller drills into any one ticket via
// GET /tickets/:id.
func (s *Server) listTickets(c *gin.Context) {
	ids, err := s.eng.ListWorkflows(c.Request.Context(), workflows.WorkflowTicketConductor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_ids": ids})
}

type postQuestionAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// postQuestionAnswer lets a UI answer a question directly by its Question
// Workflow id (the id path segment), bypassing the addMessage/awaiting-answer
// routing in the Ticket Conductor — useful for operator tooling that already
// knows which question it is answering.
func (s *Server) postQuestionAnswer(c *gin.Context) {
	questionID := c.Param("id")
	var req postQuestionAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.eng.SignalWorkflow(c.Request.Context(), questionID, domain.SignalReceiveAnswer,
		domain.ReceiveAnswerSignal{Answer: req.Answer}); err != nil {
		writeEngineError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func writeEngineError(c *gin.Context, err error) {
	if errors.Is(err, engine.ErrWorkflowNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
