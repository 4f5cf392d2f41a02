package domain

import (
	"strconv"
	"time"
)

// QuestionStatus is the lifecycle status of a QuestionRecord.
type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionAnswered QuestionStatus = "answered"
	QuestionTimeout  QuestionStatus = "timeout"
)

// ExpectedResponseType hints at how the customer's answer should be
// interpreted; it is advisory only (a Question Workflow never validates
// the answer shape itself, per spec §4.4 — the specialist that asked
// interprets the returned string).
type ExpectedResponseType string

const (
	ResponseText    ExpectedResponseType = "text"
	ResponseNumber  ExpectedResponseType = "number"
	ResponseYesNo   ExpectedResponseType = "yes_no"
	ResponseOrderID ExpectedResponseType = "order_id"
)

// QuestionRecord tracks one clarifying question asked by a specialist via
// the Question Workflow rendezvous (spec §3, §4.4).
type QuestionRecord struct {
	QuestionID           string                `json:"question_id"`
	TicketID             string                `json:"ticket_id"`
	AgentType            AgentType             `json:"agent_type"`
	Question             string                `json:"question"`
	ExpectedResponseType ExpectedResponseType  `json:"expected_response_type,omitempty"`
	TimeoutSeconds       int                   `json:"timeout_seconds"`
	Status               QuestionStatus        `json:"status"`
	Response             string                `json:"response,omitempty"`
	AskedAt              time.Time             `json:"asked_at"`
	RespondedAt          *time.Time            `json:"responded_at,omitempty"`
}

// TimeoutMessage is the literal boundary-behavior string returned by a
// Question Workflow on timeout (spec §8 boundary behaviors), with N
// substituted for the record's configured timeout.
func (q QuestionRecord) TimeoutMessage() string {
	return timeoutMessage(q.TimeoutSeconds)
}

func timeoutMessage(timeoutSeconds int) string {
	return "[TIMEOUT: User did not respond within " + strconv.Itoa(timeoutSeconds) + " seconds]"
}

// TimeoutMessageFor is exported so the Question Workflow (which may only
// have the raw timeout_seconds, not a full QuestionRecord, in scope) can
// build the identical literal string.
func TimeoutMessageFor(timeoutSeconds int) string {
	return timeoutMessage(timeoutSeconds)
}
