package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecutionPlanNormalizeRewritesUnknownAgentType(t *testing.T) {
	plan := ExecutionPlan{
		Steps: []ExecutionStep{
			{StepNumber: 1, AgentType: AgentType("NOT_A_REAL_AGENT")},
			{StepNumber: 2, AgentType: AgentOrderSpecialist},
		},
	}
	plan.Normalize()

	require.Equal(t, AgentGeneralSupport, plan.Steps[0].AgentType)
	require.Equal(t, AgentOrderSpecialist, plan.Steps[1].AgentType)
}

func TestExecutionPlanNormalizeDerivesContextReferences(t *testing.T) {
	plan := ExecutionPlan{
		Steps: []ExecutionStep{
			{StepNumber: 1, AgentType: AgentOrderSpecialist},
			{StepNumber: 2, AgentType: AgentRefundSpecialist, DependsOn: []int{1}},
			{StepNumber: 3, AgentType: AgentGeneralSupport, DependsOn: []int{1, 2}, ContextReferences: []string{"manual_ref"}},
		},
	}
	plan.Normalize()

	require.Equal(t, []string{"step_1"}, plan.Steps[1].ContextReferences)
	// Explicit ContextReferences are left alone even though DependsOn is set.
	require.Equal(t, []string{"manual_ref"}, plan.Steps[2].ContextReferences)
}

func TestDefaultPlanIsSingleStepGeneralSupport(t *testing.T) {
	plan := DefaultPlan()
	require.Len(t, plan.Steps, 1)
	require.Equal(t, AgentGeneralSupport, plan.Steps[0].AgentType)
	require.Equal(t, StrategySequential, plan.Strategy)
}

func TestExecutionPlanStagesOrdersByDependency(t *testing.T) {
	plan := ExecutionPlan{
		Steps: []ExecutionStep{
			{StepNumber: 1, Priority: 0},
			{StepNumber: 2, Priority: 1, DependsOn: []int{1}},
			{StepNumber: 3, Priority: 0, DependsOn: []int{1}},
		},
	}
	stages, ok := plan.Stages()

	require.True(t, ok)
	require.Equal(t, [][]int{{1}, {3, 2}}, stages)
}

func TestExecutionPlanStagesHandlesCycleBestEffort(t *testing.T) {
	plan := ExecutionPlan{
		Steps: []ExecutionStep{
			{StepNumber: 1, DependsOn: []int{2}},
			{StepNumber: 2, DependsOn: []int{1}},
		},
	}
	stages, ok := plan.Stages()

	require.False(t, ok)
	require.Len(t, stages, 1)
	require.ElementsMatch(t, []int{1, 2}, stages[0])
}

func TestContextKey(t *testing.T) {
	require.Equal(t, "step_3", ContextKey(3))
}
