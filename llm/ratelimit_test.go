package llm

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ticketflow/conductor/domain"
)

type countingClient struct {
	planCalls int32
}

func (c *countingClient) Plan(context.Context, domain.PlanActivityInput) (domain.ExecutionPlan, error) {
	atomic.AddInt32(&c.planCalls, 1)
	return domain.ExecutionPlan{}, nil
}

func (c *countingClient) Synthesize(context.Context, domain.SynthesizeActivityInput) (domain.SynthesisResult, error) {
	return domain.SynthesisResult{}, nil
}

func (c *countingClient) Reason(context.Context, domain.SpecialistInput, []Tool) (domain.SpecialistOutput, error) {
	return domain.SpecialistOutput{}, nil
}

func TestRateLimitedForwardsToInner(t *testing.T) {
	inner := &countingClient{}
	limited := NewRateLimited(inner, 100, 10)

	_, err := limited.Plan(context.Background(), domain.PlanActivityInput{})
	require.NoError(t, err)
	require.EqualValues(t, 1, inner.planCalls)
}

func TestRateLimitedReturnsErrOnCanceledContext(t *testing.T) {
	inner := &countingClient{}
	// Zero rate with a burst of one: Wait checks the context before taking
	// the single token, so a canceled context surfaces its cancellation
	// error instead of the call going through.
	limited := NewRateLimited(inner, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := limited.Plan(ctx, domain.PlanActivityInput{})
	require.Error(t, err)
	require.Zero(t, inner.planCalls, "inner client must not be called once the limiter wait fails")
}
