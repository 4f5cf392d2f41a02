package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ticketflow/conductor/domain"
)

// RateLimited decorates a Client with a token-bucket limiter shared across
// Plan/Synthesize/Reason calls, since all three LLM backends are subject to
// provider-side rate limits in production.
type RateLimited struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a limiter allowing rps requests per second
// with the given burst.
func NewRateLimited(inner Client, rps float64, burst int) *RateLimited {
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Plan(ctx context.Context, in domain.PlanActivityInput) (domain.ExecutionPlan, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.ExecutionPlan{}, err
	}
	return r.inner.Plan(ctx, in)
}

func (r *RateLimited) Synthesize(ctx context.Context, in domain.SynthesizeActivityInput) (domain.SynthesisResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.SynthesisResult{}, err
	}
	return r.inner.Synthesize(ctx, in)
}

func (r *RateLimited) Reason(ctx context.Context, in domain.SpecialistInput, tools []Tool) (domain.SpecialistOutput, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.SpecialistOutput{}, err
	}
	return r.inner.Reason(ctx, in, tools)
}
