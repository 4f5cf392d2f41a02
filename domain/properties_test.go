package domain

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestTerminalStatusIsMonotoneProperty verifies invariant I2: status never
// transitions out of CLOSED or RESOLVED, including into the other terminal
// status. CanTransitionTo is the sole gate the Ticket Conductor applies to
// an updateTicketStatus signal, so the property is stated directly against
// it.
func TestTerminalStatusIsMonotoneProperty(t *testing.T) {
	statusGen := gen.OneConstOf(
		StatusOpen, StatusWaitingForCustomer, StatusInProgress,
		StatusEscalatedToHuman, StatusResolved, StatusClosed,
	)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a terminal ticket only accepts re-asserting its own status", prop.ForAll(
		func(from, next TicketStatus) bool {
			ticket := &Ticket{Status: from}
			if !from.Terminal() {
				return true // only constrains terminal starting states
			}
			return ticket.CanTransitionTo(next) == (next == from)
		},
		statusGen, statusGen,
	))

	properties.TestingRun(t)
}

// rawStep is the gopter-generated shape fed into Normalize; it mirrors the
// subset of ExecutionStep fields the well-formedness property cares about.
type rawStep struct {
	StepNumber int
	AgentType  AgentType
	DependsOn  []int
}

// TestNormalizeEnforcesWellFormednessProperty verifies invariant I4: after
// Normalize, every step's agent type is known and every dependency is
// mirrored into context_references (spec §4.2/§9).
func TestNormalizeEnforcesWellFormednessProperty(t *testing.T) {
	stepGen := gen.Struct(reflect.TypeOf(rawStep{}), map[string]gopter.Gen{
		"StepNumber": gen.IntRange(1, 8),
		"AgentType": gen.OneConstOf(
			AgentOrchestrator, AgentType("not-a-real-agent-type"), AgentGeneralSupport,
		),
		"DependsOn": gen.SliceOfN(2, gen.IntRange(1, 3)),
	})

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every step has a known agent type and depends_on-derived context_references", prop.ForAll(
		func(steps []rawStep) bool {
			plan := ExecutionPlan{}
			for _, s := range steps {
				plan.Steps = append(plan.Steps, ExecutionStep{
					StepNumber: s.StepNumber,
					AgentType:  s.AgentType,
					DependsOn:  s.DependsOn,
				})
			}
			plan.Normalize()

			for _, s := range plan.Steps {
				if !KnownAgentTypes[s.AgentType] {
					return false
				}
				if len(s.DependsOn) > 0 {
					if len(s.ContextReferences) < len(s.DependsOn) {
						return false
					}
					for _, d := range s.DependsOn {
						found := false
						for _, ref := range s.ContextReferences {
							if ref == ContextKey(d) {
								found = true
								break
							}
						}
						if !found {
							return false
						}
					}
				}
			}
			return true
		},
		gen.SliceOf(stepGen),
	))

	properties.TestingRun(t)
}

// TestStagesCoverEveryStepExactlyOnceProperty verifies invariant I5: every
// step in a plan is executed exactly once across the stages Stages()
// produces, regardless of dependency shape (including cyclic/missing
// dependencies, handled via the best-effort final stage).
func TestStagesCoverEveryStepExactlyOnceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("stages partition the step set exactly once", prop.ForAll(
		func(n int, seed int64) bool {
			if n == 0 {
				return true
			}
			plan := ExecutionPlan{}
			for i := 1; i <= n; i++ {
				depsOn := []int{}
				if i > 1 {
					// Deterministic pseudo-dependency derived from seed, may
					// reference a later step (invalid) to exercise the
					// best-effort fallback path too.
					dep := int(seed%int64(n)) + 1
					if dep != i {
						depsOn = append(depsOn, dep)
					}
				}
				plan.Steps = append(plan.Steps, ExecutionStep{StepNumber: i, DependsOn: depsOn})
			}

			stages, _ := plan.Stages()
			seen := map[int]int{}
			for _, stage := range stages {
				for _, num := range stage {
					seen[num]++
				}
			}
			if len(seen) != n {
				return false
			}
			for _, count := range seen {
				if count != 1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 12), gen.Int64Range(0, 1000),
	))

	properties.TestingRun(t)
}
