package domain

import "fmt"

// PlanStrategy classifies how an ExecutionPlan's steps relate to one
// another.
type PlanStrategy string

const (
	StrategySequential  PlanStrategy = "SEQUENTIAL"
	StrategyParallel    PlanStrategy = "PARALLEL"
	StrategyConditional PlanStrategy = "CONDITIONAL"
	StrategyHybrid      PlanStrategy = "HYBRID"
)

// ExecutionStep is one node in a plan DAG.
type ExecutionStep struct {
	StepNumber        int       `json:"step_number"`
	AgentType         AgentType `json:"agent_type"`
	Reason            string    `json:"reason"`
	DependsOn         []int     `json:"depends_on,omitempty"`
	ContextReferences []string  `json:"context_references,omitempty"`
	Priority          int       `json:"priority"`
}

// ExecutionPlan is the immutable output of the planning phase. A synthesis
// step may yield a new FollowupPlan, which is advisory only (spec §9 open
// question: the source never executes it automatically — see
// workflows/orchestrator.go for the chosen policy).
type ExecutionPlan struct {
	Steps                    []ExecutionStep `json:"steps"`
	Strategy                 PlanStrategy    `json:"strategy"`
	ComplexityLevel          string          `json:"complexity_level,omitempty"`
	EstimatedDurationSeconds int             `json:"estimated_duration_seconds,omitempty"`
	Reasoning                string          `json:"reasoning,omitempty"`
}

// ContextKey returns the execution_context key for step number n, e.g.
// "step_3". Used both to build ContextReferences and to look results up in
// an execution_context map.
func ContextKey(stepNumber int) string {
	return fmt.Sprintf("step_%d", stepNumber)
}

// Normalize enforces plan well-formedness per invariant I4: every known
// agent_type is kept as-is; unknown agent types are rewritten to
// GENERAL_SUPPORT (spec §4.2, never raises); and for every step with
// non-empty DependsOn and empty ContextReferences, ContextReferences is
// auto-filled to {"step_<n>" for n in DependsOn} (spec §9 re-architecture
// point: context_references >= derived(depends_on) enforced at construction).
func (p *ExecutionPlan) Normalize() {
	for i := range p.Steps {
		s := &p.Steps[i]
		if !KnownAgentTypes[s.AgentType] {
			s.AgentType = AgentGeneralSupport
		}
		if len(s.DependsOn) > 0 && len(s.ContextReferences) == 0 {
			refs := make([]string, 0, len(s.DependsOn))
			for _, d := range s.DependsOn {
				refs = append(refs, ContextKey(d))
			}
			s.ContextReferences = refs
		}
	}
}

// DefaultPlan returns the single-step GENERAL_SUPPORT plan used when the
// planner returns an empty step list (spec §8 boundary behavior).
func DefaultPlan() ExecutionPlan {
	return ExecutionPlan{
		Strategy: StrategySequential,
		Steps: []ExecutionStep{{
			StepNumber: 1,
			AgentType:  AgentGeneralSupport,
			Reason:     "fallback: planner returned no steps",
			Priority:   0,
		}},
		Reasoning: "default single-step plan (empty planner output)",
	}
}

// Stages groups the DAG topologically: it returns the list of stages
// (each a slice of step numbers sorted ascending by Priority) computed via
// Kahn's algorithm per spec §4.2. If, after a full pass, some steps remain
// unreachable (cycle or missing dependency), they are appended as one final
// best-effort stage and ok is false so the caller can log a warning —
// execution still proceeds (spec §4.2: "remaining steps are run as a final
// stage (best-effort) and a warning is logged").
func (p ExecutionPlan) Stages() (stages [][]int, ok bool) {
	byNum := make(map[int]ExecutionStep, len(p.Steps))
	// remainingOrder keeps step numbers in a fixed, input-derived order so
	// stage computation never depends on Go's randomized map iteration —
	// required for deterministic workflow replay.
	remainingOrder := make([]int, 0, len(p.Steps))
	remaining := make(map[int]bool, len(p.Steps))
	for _, s := range p.Steps {
		byNum[s.StepNumber] = s
		remaining[s.StepNumber] = true
		remainingOrder = append(remainingOrder, s.StepNumber)
	}
	done := make(map[int]bool, len(p.Steps))
	ok = true
	for len(remaining) > 0 {
		var eligible []int
		for _, n := range remainingOrder {
			if !remaining[n] {
				continue
			}
			s := byNum[n]
			ready := true
			for _, d := range s.DependsOn {
				if !done[d] {
					ready = false
					break
				}
			}
			if ready {
				eligible = append(eligible, n)
			}
		}
		if len(eligible) == 0 {
			// Cycle or missing dependency: dump everything left as a final
			// best-effort stage and stop.
			for _, n := range remainingOrder {
				if remaining[n] {
					eligible = append(eligible, n)
				}
			}
			ok = false
		}
		sortByPriority(eligible, byNum)
		stages = append(stages, eligible)
		for _, n := range eligible {
			done[n] = true
			delete(remaining, n)
		}
	}
	return stages, ok
}

func sortByPriority(nums []int, byNum map[int]ExecutionStep) {
	for i := 1; i < len(nums); i++ {
		for j := i; j > 0; j-- {
			if byNum[nums[j]].Priority < byNum[nums[j-1]].Priority {
				nums[j], nums[j-1] = nums[j-1], nums[j]
			} else {
				break
			}
		}
	}
}
