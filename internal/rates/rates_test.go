package rates

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/state"
)

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	reg, err := catalog.Load()
	require.NoError(t, err)
	return reg
}

func TestTicksForRate_ZeroNeededIsInstant(t *testing.T) {
	require.Equal(t, int64(0), TicksForRate(0, 5))
}

func TestTicksForRate_NonPositiveRateIsUnreachable(t *testing.T) {
	require.Equal(t, int64(InfTicks), TicksForRate(10, 0))
	require.Equal(t, int64(InfTicks), TicksForRate(10, -1))
}

func TestTicksForRate_RoundsUp(t *testing.T) {
	require.Equal(t, int64(4), TicksForRate(10, 3))
	require.Equal(t, int64(5), TicksForRate(10, 2))
}

func TestTicksUntilDeath_ZeroLossIsImmortal(t *testing.T) {
	require.Equal(t, int64(InfTicks), TicksUntilDeath(10, 0))
}

func TestTicksUntilDeath_ScalesWithHp(t *testing.T) {
	require.Equal(t, int64(10), TicksUntilDeath(10, 1))
	require.Equal(t, int64(5), TicksUntilDeath(10, 2))
}

func TestTicksUntilInventoryFull_AlreadyFullIsZero(t *testing.T) {
	require.Equal(t, int64(0), TicksUntilInventoryFull(0, 0.5))
}

func TestTicksUntilInputsDepleted_NoConsumptionIsInfinite(t *testing.T) {
	require.Equal(t, int64(InfTicks), TicksUntilInputsDepleted(100, 0))
}

func TestEstimateRates_WoodcuttingProducesOutputsAndXP(t *testing.T) {
	reg := testRegistry(t)
	action, err := reg.Action("woodcutting_normal")
	require.NoError(t, err)

	s := state.New(10)
	r := EstimateRates(reg, s, action)

	require.Greater(t, r.ItemsPerTick["logs_normal"], 0.0)
	require.Greater(t, r.XPPerTick[catalog.SkillWoodcutting], 0.0)
	require.Equal(t, 0.0, r.HPLossPerTick)
}

func TestEstimateRates_ThievingCarriesHPLossAndSuccessChance(t *testing.T) {
	reg := testRegistry(t)
	action, err := reg.Action("thieving_farmer")
	require.NoError(t, err)

	s := state.New(10)
	r := EstimateRates(reg, s, action)

	require.Greater(t, r.HPLossPerTick, 0.0)
	require.Greater(t, r.XPPerTick[catalog.SkillThieving], 0.0)
}

func TestEstimateRates_CombatCarriesGPAndHPLoss(t *testing.T) {
	reg := testRegistry(t)
	action, err := reg.Action("combat_rat")
	require.NoError(t, err)

	s := state.New(10)
	r := EstimateRates(reg, s, action)

	require.GreaterOrEqual(t, r.DirectGPPerTick, 0.0)
	require.Greater(t, r.HPLossPerTick, 0.0)
}

func TestEffectiveDuration_AppliesPercentModifier(t *testing.T) {
	reg := testRegistry(t)
	action, err := reg.Action("woodcutting_normal")
	require.NoError(t, err)

	base := EffectiveDuration(reg, state.New(10), action)

	withAxe := state.New(10)
	withAxe.Shop.Purchased["woodcutting_axe_bronze"] = 1
	boosted := EffectiveDuration(reg, withAxe, action)

	require.LessOrEqual(t, boosted, base)
}

func TestDeathCycleAdjustedRates_ScalesByDeathFraction(t *testing.T) {
	r := Rates{
		DirectGPPerTick:      10,
		ItemsPerTick:         map[string]float64{"gold": 1},
		ItemsConsumedPerTick: map[string]float64{},
		XPPerTick:            map[catalog.SkillID]float64{catalog.SkillThieving: 2},
		MasteryXPPerTick:     1,
	}

	out := DeathCycleAdjustedRates(r, 100, 50)
	require.InDelta(t, 10*(100.0/150.0), out.DirectGPPerTick, 0.0001)
	require.InDelta(t, 2*(100.0/150.0), out.XPPerTick[catalog.SkillThieving], 0.0001)
}

func TestDeathCycleAdjustedRates_NoDeathIsUnscaled(t *testing.T) {
	r := Rates{DirectGPPerTick: 10}
	out := DeathCycleAdjustedRates(r, 0, 50)
	require.Equal(t, r.DirectGPPerTick, out.DirectGPPerTick)
}
