package planner

import (
	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/interaction"
	"github.com/talgya/idlecore/internal/metrics"
	"github.com/talgya/idlecore/internal/state"
	"github.com/talgya/idlecore/internal/tick"
	"github.com/talgya/idlecore/internal/xrand"
)

// ReplanBoundary is returned by ExecutePlan when the tick engine diverges
// from the plan's expectations materially enough to warrant a new segment
// (design doc Section 4.7).
type ReplanBoundary struct {
	Kind        BoundaryKind
	StepIndex   int
	TicksIntoIt int
	Stop        tick.StopCause
}

// executeChunk is the granularity at which ExecutePlan checks a Wait step's
// WaitFor for early satisfaction.
const executeChunk = 10

// ExecutePlan replays plan against the tick engine, driving each Wait step
// up to its tick budget with early-termination semantics: it checks
// waitFor.IsSatisfied after every chunk and stops as soon as it is, or as
// soon as the tick engine reports a material boundary (design doc Section
// 4.7).
func ExecutePlan(reg *catalog.Registry, s state.GlobalState, plan Plan, seed uint64) (state.GlobalState, *ReplanBoundary) {
	src := xrand.NewSource(seed)
	out := s

	for i, step := range plan.Steps {
		switch step.Kind {
		case StepInteraction:
			applyRand := src.Stream("execute-interaction")
			next, err := interaction.Apply(reg, out, step.Interaction, applyRand)
			if err != nil {
				metrics.Replans.Inc()
				return out, &ReplanBoundary{Kind: BoundaryDeadEnd, StepIndex: i}
			}
			out = next

		case StepWait:
			remaining := step.Ticks
			into := 0
			for remaining > 0 {
				advance := minInt(remaining, executeChunk)
				advanced, result := tick.Advance(reg, out, advance, src)
				out = advanced
				into += result.TicksConsumed
				remaining -= result.TicksConsumed

				if step.WaitFor != nil && step.WaitFor.IsSatisfied(out) {
					break
				}
				switch result.Stop {
				case tick.StopInputsMissing:
					metrics.Replans.Inc()
					return out, &ReplanBoundary{Kind: BoundaryDeadEnd, StepIndex: i, TicksIntoIt: into, Stop: result.Stop}
				case tick.StopInventoryFull:
					metrics.Replans.Inc()
					return out, &ReplanBoundary{Kind: BoundaryInventoryFull, StepIndex: i, TicksIntoIt: into, Stop: result.Stop}
				}
				if result.TicksConsumed == 0 {
					break
				}
			}
		}
	}

	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
