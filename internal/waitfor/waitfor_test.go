package waitfor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/state"
)

func TestSkillXp_IsSatisfied(t *testing.T) {
	w := SkillXp{Skill: catalog.SkillWoodcutting, TargetXP: 100}
	s := state.New(10)

	require.False(t, w.IsSatisfied(s))

	ss := s.SkillStates[catalog.SkillWoodcutting]
	ss.XP = 100
	s.SkillStates[catalog.SkillWoodcutting] = ss
	require.True(t, w.IsSatisfied(s))
	require.Equal(t, w, w.FindSatisfied(s))
}

func TestInputsDepleted_SatisfiedWhenAnyItemZero(t *testing.T) {
	w := InputsDepleted{ActionID: "firemaking_normal", Items: map[string]int{"logs_normal": 1}}
	s := state.New(10)

	require.True(t, w.IsSatisfied(s), "no logs held at all counts as depleted")

	inv, _ := s.Inventory.Add("logs_normal", 5)
	s.Inventory = inv
	require.False(t, w.IsSatisfied(s))

	inv, _ = s.Inventory.Remove("logs_normal", 5)
	s.Inventory = inv
	require.True(t, w.IsSatisfied(s))
}

func TestInputsAvailable_SatisfiedOnlyWhenEveryInputMet(t *testing.T) {
	w := InputsAvailable{
		ActionID: "smithing_bronze_bar",
		Items:    map[string]int{"ore_copper": 2},
	}
	s := state.New(10)
	require.False(t, w.IsSatisfied(s))

	inv, _ := s.Inventory.Add("ore_copper", 1)
	s.Inventory = inv
	require.False(t, w.IsSatisfied(s), "one short of the required count")

	inv, _ = s.Inventory.Add("ore_copper", 1)
	s.Inventory = inv
	require.True(t, w.IsSatisfied(s))
}

func TestSufficientInputs_SatisfiedAtTargetCount(t *testing.T) {
	w := SufficientInputs{ActionID: "firemaking_normal", ItemID: "logs_normal", TargetCount: 10}
	s := state.New(10)
	require.False(t, w.IsSatisfied(s))

	inv, _ := s.Inventory.Add("logs_normal", 9)
	s.Inventory = inv
	require.False(t, w.IsSatisfied(s))

	inv, _ = s.Inventory.Add("logs_normal", 1)
	s.Inventory = inv
	require.True(t, w.IsSatisfied(s))
}

func TestSufficientInputs_NoItemIDIsTriviallySatisfied(t *testing.T) {
	w := SufficientInputs{ActionID: "woodcutting_normal", TargetCount: 5}
	require.True(t, w.IsSatisfied(state.New(10)))
}

func TestInputsDepleted_JSONRoundTrip(t *testing.T) {
	w := InputsDepleted{ActionID: "firemaking_normal", Items: map[string]int{"logs_normal": 1}}
	data, err := MarshalJSON(w)
	require.NoError(t, err)

	parsed, err := UnmarshalJSON(data)
	require.NoError(t, err)

	got, ok := parsed.(InputsDepleted)
	require.True(t, ok)
	require.Equal(t, w.ActionID, got.ActionID)
	require.Equal(t, w.Items, got.Items)
}

func TestSufficientInputs_JSONRoundTrip(t *testing.T) {
	w := SufficientInputs{ActionID: "firemaking_normal", ItemID: "logs_normal", TargetCount: 20}
	data, err := MarshalJSON(w)
	require.NoError(t, err)

	parsed, err := UnmarshalJSON(data)
	require.NoError(t, err)

	got, ok := parsed.(SufficientInputs)
	require.True(t, ok)
	require.Equal(t, w, got)
}

func TestAnyOf_SatisfiedByFirstMatchingChild(t *testing.T) {
	s := state.New(10)
	ss := s.SkillStates[catalog.SkillWoodcutting]
	ss.XP = 200
	s.SkillStates[catalog.SkillWoodcutting] = ss

	any := AnyOf{Children: []WaitFor{
		SkillXp{Skill: catalog.SkillMining, TargetXP: 50},
		SkillXp{Skill: catalog.SkillWoodcutting, TargetXP: 100},
	}}

	require.True(t, any.IsSatisfied(s))
	satisfied := any.FindSatisfied(s)
	require.NotNil(t, satisfied)
	sx, ok := satisfied.(SkillXp)
	require.True(t, ok)
	require.Equal(t, catalog.SkillWoodcutting, sx.Skill)
}
