package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFailedResultForcesEscalation(t *testing.T) {
	result := FailedResult(2, AgentRefundSpecialist, errors.New("tool exploded"))

	require.Equal(t, 2, result.StepNumber)
	require.Equal(t, AgentRefundSpecialist, result.AgentType)
	require.Empty(t, result.Response)
	require.Zero(t, result.Confidence)
	require.True(t, result.RequiresEscalation)
	require.Equal(t, "tool exploded", result.Metadata["error"])
}

func TestWithFullSpecialistOutputInitializesMetadata(t *testing.T) {
	result := AgentExecutionResult{StepNumber: 1}
	info := RefundSpecialistInfo{EligibilityAssessment: "eligible"}

	result = result.WithFullSpecialistOutput(info)

	require.Equal(t, info, result.Metadata["full_specialist_output"])
}

func TestFallbackSynthesisConcatenatesAndEscalates(t *testing.T) {
	results := []AgentExecutionResult{
		{Response: "first part"},
		{Response: "second part"},
	}

	synth := FallbackSynthesis(results)

	require.Equal(t, "first part\n\nsecond part", synth.FinalResponse)
	require.True(t, synth.RequiresEscalation)
	require.Zero(t, synth.Confidence)
}
