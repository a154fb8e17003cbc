package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/idlecore/internal/catalog"
)

func TestCopy_DoesNotAliasMaps(t *testing.T) {
	s := New(10)
	inv, _ := s.Inventory.Add("logs_normal", 3)
	s.Inventory = inv
	s.SkillStates[catalog.SkillWoodcutting] = SkillState{XP: 10}

	cp := s.Copy()
	cp.SkillStates[catalog.SkillWoodcutting] = SkillState{XP: 999}
	invCp, _ := cp.Inventory.Add("logs_normal", 1)
	cp.Inventory = invCp

	require.Equal(t, 10.0, s.SkillStates[catalog.SkillWoodcutting].XP)
	require.Equal(t, 3, s.Inventory.CountOf("logs_normal"))
}

func TestMergeChanges_CoalescesLevelUpRanges(t *testing.T) {
	a := NewChanges()
	a.LevelUps[catalog.SkillWoodcutting] = LevelUpRange{StartLevel: 1, EndLevel: 3}
	b := NewChanges()
	b.LevelUps[catalog.SkillWoodcutting] = LevelUpRange{StartLevel: 2, EndLevel: 5}

	merged := MergeChanges(a, b)
	got := merged.LevelUps[catalog.SkillWoodcutting]
	require.Equal(t, 1, got.StartLevel)
	require.Equal(t, 5, got.EndLevel)
}

func TestMergeChanges_SumsInventoryAndXPDeltas(t *testing.T) {
	a := NewChanges()
	a.InventoryDelta["logs_normal"] = 3
	a.SkillXPDelta[catalog.SkillWoodcutting] = 25
	b := NewChanges()
	b.InventoryDelta["logs_normal"] = 2
	b.SkillXPDelta[catalog.SkillWoodcutting] = 25

	merged := MergeChanges(a, b)
	require.Equal(t, 5, merged.InventoryDelta["logs_normal"])
	require.Equal(t, 50.0, merged.SkillXPDelta[catalog.SkillWoodcutting])
}

func TestRecipeSelection_DefaultsToFirstRecipe(t *testing.T) {
	action := catalog.SkillAction{
		ActionID: "smelt",
		RecipeList: []catalog.Recipe{
			{ID: "bronze", Inputs: map[string]int{"ore_copper": 2}},
			{ID: "iron", Inputs: map[string]int{"ore_iron": 2}},
		},
	}
	require.Equal(t, "bronze", RecipeSelection(ActionState{}, action))

	chosen := "iron"
	require.Equal(t, "iron", RecipeSelection(ActionState{RecipeSelection: &chosen}, action))
}

func TestActionStateCopy_DoesNotAliasPointers(t *testing.T) {
	mining := &MiningActionState{NodeRemaining: 5}
	as := ActionState{Mining: mining}
	cp := as.Copy()
	cp.Mining.NodeRemaining = 0

	require.Equal(t, 5, as.Mining.NodeRemaining)
}

func TestInventory_AddRemoveTracksSlots(t *testing.T) {
	inv := NewInventory()
	inv, isNew := inv.Add("logs_normal", 3)
	require.True(t, isNew)
	require.Equal(t, 1, inv.SlotsUsed())

	inv, isNew = inv.Add("logs_normal", 2)
	require.False(t, isNew)
	require.Equal(t, 5, inv.CountOf("logs_normal"))

	inv, ok := inv.Remove("logs_normal", 5)
	require.True(t, ok)
	require.Equal(t, 0, inv.SlotsUsed())

	_, ok = inv.Remove("logs_normal", 1)
	require.False(t, ok)
}
