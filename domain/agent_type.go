package domain

// AgentType is a tagged enum naming the kind of agent that produced or
// should handle a piece of work. Each value that produces structured output
// has a matching AdditionalInfo implementation in additional_info.go.
type AgentType string

const (
	AgentIntentClassifier    AgentType = "INTENT_CLASSIFIER"
	AgentOrchestrator        AgentType = "ORCHESTRATOR"
	AgentOrderSpecialist     AgentType = "ORDER_SPECIALIST"
	AgentTechnicalSpecialist AgentType = "TECHNICAL_SPECIALIST"
	AgentRefundSpecialist    AgentType = "REFUND_SPECIALIST"
	AgentGeneralSupport      AgentType = "GENERAL_SUPPORT"
	AgentEscalationManager   AgentType = "ESCALATION_MANAGER"
	AgentHumanAgent          AgentType = "HUMAN_AGENT"
	AgentMaleSpecialist      AgentType = "MALE_SPECIALIST"
	AgentFemaleSpecialist    AgentType = "FEMALE_SPECIALIST"
	AgentBilling             AgentType = "BILLING"
	AgentDelivery            AgentType = "DELIVERY"
	AgentAlteration          AgentType = "ALTERATION"
)

// KnownAgentTypes lists every registered agent type, used to validate
// planner output (spec §4.2: "Validates each step's agent_type against the
// registry; unknown types are rewritten to GENERAL_SUPPORT").
var KnownAgentTypes = map[AgentType]bool{
	AgentIntentClassifier:    true,
	AgentOrchestrator:        true,
	AgentOrderSpecialist:     true,
	AgentTechnicalSpecialist: true,
	AgentRefundSpecialist:    true,
	AgentGeneralSupport:      true,
	AgentEscalationManager:   true,
	AgentHumanAgent:          true,
	AgentMaleSpecialist:      true,
	AgentFemaleSpecialist:    true,
	AgentBilling:             true,
	AgentDelivery:            true,
	AgentAlteration:          true,
}

// PlannableAgentTypes lists the agent types the planner may assign to an
// ExecutionStep (spec §4.2 plan input: "the list of available agent
// types"). ORCHESTRATOR, INTENT_CLASSIFIER, ESCALATION_MANAGER, and
// HUMAN_AGENT are roles the system itself occupies, never a planned step.
var PlannableAgentTypes = []AgentType{
	AgentOrderSpecialist,
	AgentTechnicalSpecialist,
	AgentRefundSpecialist,
	AgentGeneralSupport,
	AgentMaleSpecialist,
	AgentFemaleSpecialist,
	AgentBilling,
	AgentDelivery,
	AgentAlteration,
}

// CanAskQuestions reports whether agents of this type may invoke the
// ask_user_question tool. Registered narrowly per spec §4.4 ("the tool is
// registered only for agents that may need it").
func (a AgentType) CanAskQuestions() bool {
	switch a {
	case AgentMaleSpecialist, AgentFemaleSpecialist, AgentOrderSpecialist,
		AgentTechnicalSpecialist, AgentRefundSpecialist, AgentDelivery, AgentAlteration:
		return true
	default:
		return false
	}
}
