package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/interaction"
	"github.com/talgya/idlecore/internal/state"
	"github.com/talgya/idlecore/internal/waitfor"
)

func TestExecutePlan_RunsInteractionThenWait(t *testing.T) {
	reg := testRegistry(t)
	s := state.New(10)

	plan := Plan{
		Steps: []Step{
			{
				Kind: StepInteraction,
				Interaction: interaction.SwitchActivity{
					ActionID: "woodcutting_normal",
				},
			},
			{
				Kind:    StepWait,
				Ticks:   150,
				WaitFor: waitfor.SkillXp{Skill: catalog.SkillWoodcutting, TargetXP: 100},
			},
		},
	}

	out, boundary := ExecutePlan(reg, s, plan, 7)
	require.Nil(t, boundary)
	require.Greater(t, out.Inventory.CountOf("logs_normal"), 0)
	require.GreaterOrEqual(t, out.SkillStates[catalog.SkillWoodcutting].XP, 100.0)
}

func TestExecutePlan_UnknownActionIsDeadEnd(t *testing.T) {
	reg := testRegistry(t)
	s := state.New(10)

	plan := Plan{
		Steps: []Step{
			{
				Kind:        StepInteraction,
				Interaction: interaction.SwitchActivity{ActionID: "does-not-exist"},
			},
		},
	}

	_, boundary := ExecutePlan(reg, s, plan, 1)
	require.NotNil(t, boundary)
	require.Equal(t, BoundaryDeadEnd, boundary.Kind)
	require.Equal(t, 0, boundary.StepIndex)
}

func TestExecutePlan_StopsEarlyWhenWaitForSatisfied(t *testing.T) {
	reg := testRegistry(t)
	s := state.New(10)

	plan := Plan{
		Steps: []Step{
			{
				Kind:        StepInteraction,
				Interaction: interaction.SwitchActivity{ActionID: "woodcutting_normal"},
			},
			{
				Kind:    StepWait,
				Ticks:   1000,
				WaitFor: waitfor.InventoryAtLeast{ItemID: "logs_normal", Count: 1},
			},
		},
	}

	out, boundary := ExecutePlan(reg, s, plan, 3)
	require.Nil(t, boundary)
	require.Equal(t, 1, out.Inventory.CountOf("logs_normal"))
}
