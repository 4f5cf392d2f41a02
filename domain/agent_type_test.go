package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanAskQuestionsNarrowlyScoped(t *testing.T) {
	canAsk := []AgentType{
		AgentMaleSpecialist, AgentFemaleSpecialist, AgentOrderSpecialist,
		AgentTechnicalSpecialist, AgentRefundSpecialist, AgentDelivery, AgentAlteration,
	}
	for _, a := range canAsk {
		require.True(t, a.CanAskQuestions(), "%s should be allowed to ask questions", a)
	}

	cannotAsk := []AgentType{
		AgentIntentClassifier, AgentOrchestrator, AgentGeneralSupport,
		AgentEscalationManager, AgentHumanAgent, AgentBilling,
	}
	for _, a := range cannotAsk {
		require.False(t, a.CanAskQuestions(), "%s should not be allowed to ask questions", a)
	}
}

func TestKnownAgentTypesCoversEveryPlannableType(t *testing.T) {
	for _, a := range PlannableAgentTypes {
		require.True(t, KnownAgentTypes[a], "%s must be registered as known", a)
	}
}
