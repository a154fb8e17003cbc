package catalog

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActionsForSkill_SortedById(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	actions := reg.ActionsForSkill(SkillFishing)
	require.NotEmpty(t, actions)

	ids := make([]string, len(actions))
	for i, a := range actions {
		ids[i] = a.ID()
	}
	require.True(t, sort.StringsAreSorted(ids), "ActionsForSkill must return a deterministic, sorted order: got %v", ids)
	for _, a := range actions {
		require.Equal(t, SkillFishing, a.Skill())
	}
}

func TestUnlockLevelsFor_SortedAscending(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	levels := reg.UnlockLevelsFor(SkillMining)
	require.NotEmpty(t, levels)
	for i := 1; i < len(levels); i++ {
		require.Less(t, levels[i-1], levels[i])
	}
}

func TestItemAndActionLookup_UnknownIdErrors(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	_, err = reg.Item("does-not-exist")
	require.Error(t, err)

	_, err = reg.Action("does-not-exist")
	require.Error(t, err)

	_, err = reg.Purchase("does-not-exist")
	require.Error(t, err)
}

func TestNextBankSlotCost_Monotonic(t *testing.T) {
	prev := 0
	for owned := 0; owned < 30; owned++ {
		cost := NextBankSlotCost(owned)
		require.GreaterOrEqual(t, cost, prev)
		prev = cost
	}
}
