// Package rates computes expected per-tick flows for an active or candidate
// action, and the derived "ticks until X" predicates the WaitFor algebra and
// planner build on (design doc Section 4.3).
package rates

import (
	"math"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/state"
)

// InfTicks is the sentinel meaning "unreachable at the current rate."
const InfTicks = math.MaxInt64

// Rates is the set of expected per-tick flows for one action.
type Rates struct {
	ActionID       string
	DirectGPPerTick float64
	ItemsPerTick    map[string]float64
	ItemsConsumedPerTick map[string]float64
	XPPerTick       map[catalog.SkillID]float64
	ItemTypesPerTick float64
	HPLossPerTick   float64
	MasteryXPPerTick float64
}

// EffectiveDuration is the mean tick duration adjusted by owned shop
// upgrades' percent modifier for the action's skill.
func EffectiveDuration(reg *catalog.Registry, s state.GlobalState, action catalog.Action) float64 {
	mean := action.Duration().MeanTicks()
	modifier := 0.0
	for id, count := range s.Shop.Purchased {
		if count <= 0 {
			continue
		}
		p, err := reg.Purchase(id)
		if err != nil {
			continue
		}
		if pct, ok := p.PercentModifier[action.Skill()]; ok {
			modifier += pct
		}
	}
	eff := mean * (1 + modifier)
	if eff < 1 {
		eff = 1
	}
	return eff
}

// EstimateRates computes the Rates for action given the current state,
// folding in thieving success-chance adjustment when applicable.
func EstimateRates(reg *catalog.Registry, s state.GlobalState, action catalog.Action) Rates {
	effTicks := EffectiveDuration(reg, s, action)
	doublingChance := 0.0

	r := Rates{
		ActionID:             action.ID(),
		ItemsPerTick:         make(map[string]float64),
		ItemsConsumedPerTick: make(map[string]float64),
		XPPerTick:            make(map[catalog.SkillID]float64),
	}

	successChance := 1.0
	failureChance := 0.0
	stunTicks := 0.0
	if ta, ok := action.(catalog.ThievingAction); ok {
		successChance = thievingSuccessChance(ta)
		failureChance = 1 - successChance
		stunTicks = float64(ta.StunnedDurationTicks)
		effTicks = effTicks + failureChance*stunTicks
		r.HPLossPerTick = failureChance * (1 + float64(ta.MaxHit)) / 2 / effTicks
	}

	for itemID, count := range action.Inputs() {
		r.ItemsConsumedPerTick[itemID] = float64(count) / effTicks * successChance
	}
	for itemID, count := range action.Outputs() {
		r.ItemsPerTick[itemID] += float64(count) * (1 + doublingChance) / effTicks * successChance
	}
	for _, drop := range reg.AllDropsForAction(action, nil) {
		r.ItemsPerTick[drop.ItemID] += drop.ExpectedItems() * (1 + doublingChance) / effTicks * successChance
	}

	xp := action.XP() * successChance
	if xp > 0 {
		r.XPPerTick[action.Skill()] = xp / effTicks
	}

	if ca, ok := action.(catalog.CombatAction); ok {
		r.DirectGPPerTick = ca.MeanGPDrop() / effTicks
		damageTaken := float64(ca.MaxHit) * (1 - ca.DamageReduction)
		r.HPLossPerTick = damageTaken / effTicks
	}

	r.ItemTypesPerTick = float64(len(r.ItemsPerTick)) / effTicks
	r.MasteryXPPerTick = 1.0 / effTicks
	return r
}

func thievingSuccessChance(action catalog.ThievingAction) float64 {
	base := 0.5 - float64(action.Perception)/200.0
	if base < 0.05 {
		base = 0.05
	}
	if base > 0.95 {
		base = 0.95
	}
	return base
}

// DeathCycleAdjustedRates scales flow rates by ticksToDeath / (ticksToDeath
// + restartOverhead) to report the long-run average for hazardous
// activities; hp-loss is preserved raw so death prediction stays accurate.
func DeathCycleAdjustedRates(r Rates, ticksToDeath float64, restartOverhead int) Rates {
	if ticksToDeath <= 0 || ticksToDeath == InfTicks {
		return r
	}
	factor := ticksToDeath / (ticksToDeath + float64(restartOverhead))
	out := r
	out.DirectGPPerTick *= factor
	out.ItemsPerTick = scale(r.ItemsPerTick, factor)
	out.ItemsConsumedPerTick = scale(r.ItemsConsumedPerTick, factor)
	out.XPPerTick = scaleSkill(r.XPPerTick, factor)
	out.MasteryXPPerTick *= factor
	return out
}

func scale(m map[string]float64, factor float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v * factor
	}
	return out
}

func scaleSkill(m map[catalog.SkillID]float64, factor float64) map[catalog.SkillID]float64 {
	out := make(map[catalog.SkillID]float64, len(m))
	for k, v := range m {
		out[k] = v * factor
	}
	return out
}

// TicksForRate returns ceil(needed/rate), or InfTicks if rate is
// non-positive and needed is still outstanding.
func TicksForRate(needed, rate float64) int64 {
	if needed <= 0 {
		return 0
	}
	if rate <= 0 {
		return InfTicks
	}
	return int64(math.Ceil(needed / rate))
}

// TicksUntilDeath estimates ticks until hp reaches 0 at the given hp-loss
// rate.
func TicksUntilDeath(hp int, hpLossPerTick float64) int64 {
	if hpLossPerTick <= 0 {
		return InfTicks
	}
	return TicksForRate(float64(hp), hpLossPerTick)
}

// TicksUntilNextSkillLevel estimates ticks until the next level boundary
// for skill at the given xp-per-tick rate.
func TicksUntilNextSkillLevel(xp XPTable, currentXP, xpPerTick float64) int64 {
	level := xp.LevelForXp(currentXP)
	if level >= xp.MaxLevel() {
		return InfTicks
	}
	needed := xp.StartXpForLevel(level+1) - currentXP
	return TicksForRate(needed, xpPerTick)
}

// XPTable is the minimal interface TicksUntilNextSkillLevel needs;
// catalog.XPTable satisfies it.
type XPTable interface {
	LevelForXp(xp float64) int
	StartXpForLevel(level int) float64
	MaxLevel() int
}

// TicksUntilInventoryFull estimates ticks until every bank slot is used,
// given the rate of new distinct item types introduced per tick.
func TicksUntilInventoryFull(freeSlots int, itemTypesPerTick float64) int64 {
	if freeSlots <= 0 {
		return 0
	}
	return TicksForRate(float64(freeSlots), itemTypesPerTick)
}

// TicksUntilInputsDepleted estimates ticks until an input item's stock
// hits zero at the given consumption rate.
func TicksUntilInputsDepleted(available int, consumedPerTick float64) int64 {
	if consumedPerTick <= 0 {
		return InfTicks
	}
	return TicksForRate(float64(available), consumedPerTick)
}
