package tools

import "context"

// QuestionAsker starts a Question Workflow and blocks until it resolves,
// returning the customer's answer (or the timeout sentinel text — spec §8
// boundary behavior). It is implemented by the workflows package and passed
// into NewAskUserQuestionTool as an explicit capability at specialist
// construction time, never looked up from ambient process state (spec §9
// re-architecture note on the "global mutable workflow context" smell).
type QuestionAsker interface {
	AskUserQuestion(ctx context.Context, ticketID, agentType, question, expectedResponseType string, timeoutSeconds int) (string, error)
}

// AskUserQuestionToolName is the tool name specialists see (spec §4.4:
// "tool ask_user_question(question, expected_type, timeout)").
const AskUserQuestionToolName = "ask_user_question"

// NewAskUserQuestionTool builds the ask_user_question tool bound to one
// ticket/agent pair. Only registered for agent types where
// domain.AgentType.CanAskQuestions is true (spec §4.4: "registered only for
// agents that may need it").
func NewAskUserQuestionTool(asker QuestionAsker, ticketID, agentType string) Spec {
	return Spec{
		Name:        AskUserQuestionToolName,
		Description: "Ask the customer a clarifying question and block until they answer or the timeout elapses.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{"type": "string"},
				"expected_type": map[string]any{
					"type": "string",
					"enum": []string{"text", "number", "yes_no", "order_id"},
				},
				"timeout_seconds": map[string]any{"type": "integer", "minimum": 1},
			},
			"required": []string{"question", "expected_type", "timeout_seconds"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			question, _ := args["question"].(string)
			expectedType, _ := args["expected_type"].(string)
			timeout := 0
			switch v := args["timeout_seconds"].(type) {
			case float64:
				timeout = int(v)
			case int:
				timeout = v
			}
			answer, err := asker.AskUserQuestion(ctx, ticketID, agentType, question, expectedType, timeout)
			if err != nil {
				return nil, err
			}
			return map[string]any{"answer": answer}, nil
		},
	}
}
