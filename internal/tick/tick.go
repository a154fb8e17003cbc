// Package tick implements the deterministic discrete-time simulator: given
// a state, a tick budget, and a seeded PRNG source, it advances progress on
// the active action, resolves completions (input consumption, drop rolls,
// XP/mastery accrual), and handles the thieving and combat hazard loops. See
// design doc Section 4.1.
package tick

import (
	"math/rand/v2"
	"time"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/metrics"
	"github.com/talgya/idlecore/internal/state"
	"github.com/talgya/idlecore/internal/xrand"
)

// TickDuration is the simulated wall-clock span of one tick.
const TickDuration = 100 * time.Millisecond

// TicksFromDuration converts a wall-clock duration into whole ticks,
// rounding down.
func TicksFromDuration(d time.Duration) int {
	return int(d / TickDuration)
}

// StopCause records why an Advance call returned before exhausting its
// tick budget.
type StopCause uint8

const (
	StopNone StopCause = iota
	StopInputsMissing
	StopInventoryFull
	StopNoActiveAction
	// StopDeath is never returned by Advance: player death during a
	// hazardous action is absorbed as an in-place restart (design doc
	// Section 4.6: "Never material: Death (handled by restart)"). The
	// constant is kept so historical Result.Stop values stay meaningful.
	StopDeath
)

// hpRegenTicksPerPoint is how many ticks of real time it takes to regenerate
// one HP. Spec leaves the regen rate open; this mirrors the pace of
// stunned-recovery windows elsewhere in the catalog.
const hpRegenTicksPerPoint = 50

// Result is everything an Advance call reports back to its caller: the
// ticks actually consumed, the accumulated Changes, and why it stopped
// short (if it did).
type Result struct {
	TicksConsumed int
	Changes       state.Changes
	Stop          StopCause
}

// Advance runs up to `ticks` ticks of simulated time against s, using reg
// for catalog lookups and src for all randomness. It never panics or
// returns an error for ordinary resource exhaustion — callers inspect
// Result.Stop to decide whether to replan.
func Advance(reg *catalog.Registry, s state.GlobalState, ticks int, src xrand.Source) (state.GlobalState, Result) {
	out := s.Copy()
	changes := state.NewChanges()
	remaining := ticks

	durStream := src.Stream(xrand.StreamDuration)
	dropStream := src.Stream(xrand.StreamDrops)
	thievingStream := src.Stream(xrand.StreamThieving)
	doublingStream := src.Stream(xrand.StreamDoubling)

	for remaining > 0 {
		if out.ActiveAction == nil {
			return out, Result{TicksConsumed: ticks - remaining, Changes: changes, Stop: StopNoActiveAction}
		}
		action, err := reg.Action(out.ActiveAction.ActionID)
		if err != nil {
			return out, Result{TicksConsumed: ticks - remaining, Changes: changes, Stop: StopNoActiveAction}
		}

		if action.Skill().Consuming() {
			inputs := action.Inputs()
			if recipe := selectedRecipe(out, action); recipe != nil {
				inputs = recipe.Inputs
			}
			for itemID, need := range inputs {
				if !out.Inventory.Has(itemID, need) {
					return out, Result{TicksConsumed: ticks - remaining, Changes: changes, Stop: StopInputsMissing}
				}
			}
		}

		step := minInt(remaining, out.ActiveAction.RemainingTicks)
		if step > 0 {
			out.ActiveAction.RemainingTicks -= step
			remaining -= step
			applyHPRegen(&out, step)
			if out.ActiveAction.RemainingTicks > 0 {
				continue
			}
		}

		var ok bool
		var stop StopCause
		switch a := action.(type) {
		case catalog.ThievingAction:
			ok, stop = resolveThievingAttempt(reg, &out, a, thievingStream, durStream, dropStream, &changes)
		case catalog.CombatAction:
			ok, stop = resolveCombatCycle(&out, a, dropStream, &changes)
		default:
			ok, stop = completeSkillAction(reg, &out, action, dropStream, doublingStream, durStream, &changes)
		}
		if !ok {
			return out, Result{TicksConsumed: ticks - remaining, Changes: changes, Stop: stop}
		}
	}

	return out.WithUpdatedAt(out.UpdatedAt), Result{TicksConsumed: ticks - remaining, Changes: changes, Stop: StopNone}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// applyHPRegen accrues ticksElapsed worth of regeneration into the
// persisted HPRegenProgress accumulator and extracts whole HP points from
// it. Accumulating into persisted state (rather than a volatile per-call
// counter) keeps regen composable across however a caller splits a span of
// ticks into separate Advance calls (design doc Section 8). Stun only
// lengthens RemainingTicks, so it never blocks this path (design doc
// Section 4.1).
func applyHPRegen(s *state.GlobalState, ticksElapsed int) {
	if s.HP >= s.MaxHP {
		s.HPRegenProgress = 0
		return
	}
	s.HPRegenProgress += float64(ticksElapsed) / hpRegenTicksPerPoint
	gained := int(s.HPRegenProgress)
	if gained <= 0 {
		return
	}
	s.HPRegenProgress -= float64(gained)
	s.HP += gained
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
		s.HPRegenProgress = 0
	}
}

// absorbDeath restores the player to full HP after a fatal hit. Death is
// never a material planner boundary (design doc Section 4.6): the tick
// engine restarts the action in place after an overhead instead of
// escalating a StopDeath up to the executor.
func absorbDeath(s *state.GlobalState) {
	s.HP = s.MaxHP
	metrics.Deaths.Inc()
}

// completeSkillAction resolves one completion cycle of a SkillAction (input
// consumption, drops, doubling, XP/mastery, duration reroll). Returns
// ok=false with a StopCause if the completion could not proceed.
func completeSkillAction(reg *catalog.Registry, s *state.GlobalState, action catalog.Action, dropStream, doublingStream, durStream *rand.Rand, changes *state.Changes) (bool, StopCause) {
	recipe := selectedRecipe(*s, action)
	inputs := action.Inputs()
	outputs := action.Outputs()
	if recipe != nil {
		inputs = recipe.Inputs
		outputs = recipe.Outputs
	}

	if action.Skill().Consuming() {
		for itemID, need := range inputs {
			if !s.Inventory.Has(itemID, need) {
				return false, StopInputsMissing
			}
		}
		for itemID, need := range inputs {
			inv, ok := s.Inventory.Remove(itemID, need)
			if !ok {
				return false, StopInputsMissing
			}
			s.Inventory = inv
			changes.InventoryDelta[itemID] -= need
		}
	}

	for itemID, count := range outputs {
		granted := count
		if doublingStream.Float64() < doublingChance(*s, action) {
			granted *= 2
		}
		if !grantItem(s, changes, itemID, granted) {
			return false, StopInventoryFull
		}
	}

	for _, drop := range reg.AllDropsForAction(action, recipe) {
		if !xrand.Chance(dropStream, drop.Rate) {
			continue
		}
		count := xrand.IntRange(dropStream, drop.CountMin, drop.CountMax)
		if !grantItem(s, changes, drop.ItemID, count) {
			return false, StopInventoryFull
		}
		changes.DroppedItems[drop.ItemID] += count
	}

	xp := action.XP()
	if recipe != nil {
		xp = recipe.XP
	}
	applySkillXP(s, changes, action.Skill(), xp)
	applyMasteryXP(s, action)

	dur := action.Duration()
	rolled := dur.MinTicks
	if dur.MaxTicks > dur.MinTicks {
		rolled = xrand.IntRange(durStream, dur.MinTicks, dur.MaxTicks)
	}
	s.ActiveAction.TotalTicks = rolled
	s.ActiveAction.RemainingTicks = rolled
	metrics.ActiveActionCompletions.WithLabelValues(action.Skill().String()).Inc()
	return true, StopNone
}

func selectedRecipe(s state.GlobalState, action catalog.Action) *catalog.Recipe {
	recipes := action.Recipes()
	if len(recipes) == 0 {
		return nil
	}
	id := state.RecipeSelection(s.ActionStates[action.ID()], action)
	for i := range recipes {
		if recipes[i].ID == id {
			return &recipes[i]
		}
	}
	return &recipes[0]
}

func grantItem(s *state.GlobalState, changes *state.Changes, itemID string, count int) bool {
	if count <= 0 {
		return true
	}
	inv, _ := s.Inventory.Add(itemID, count)
	s.Inventory = inv
	changes.InventoryDelta[itemID] += count
	return true
}

// doublingChance is the probability an output stack is doubled on
// completion. The base game ties this to owned shop upgrades; absent any
// owned doubling upgrade it is zero.
func doublingChance(s state.GlobalState, action catalog.Action) float64 {
	return 0
}

func applySkillXP(s *state.GlobalState, changes *state.Changes, skill catalog.SkillID, xp float64) {
	if xp <= 0 || !skill.Trainable() {
		return
	}
	ss := s.SkillStates[skill]
	ss.XP += xp
	s.SkillStates[skill] = ss
	changes.SkillXPDelta[skill] += xp
}

// applyMasteryXP implements the simplified itemPortion-only formula (design
// doc Section 4.1): max(1, floor(itemMasteryLevel * (totalItemsInSkill/10) *
// actionSeconds * 0.5 * (1+bonus))), with itemMasteryLevel taken as 1,
// totalItemsInSkill as the action's output-item count, and no bonus.
func applyMasteryXP(s *state.GlobalState, action catalog.Action) {
	actionSeconds := action.Duration().MeanTicks() * TickDuration.Seconds()
	masteryLevel := 1
	totalItemsInSkill := float64(len(action.Outputs()))
	if totalItemsInSkill <= 0 {
		totalItemsInSkill = 1
	}
	gain := float64(masteryLevel) * (totalItemsInSkill / 10) * actionSeconds * 0.5
	if gain < 1 {
		gain = 1
	}
	as := s.ActionStates[action.ID()]
	as.MasteryXP += float64(int(gain))
	s.ActionStates[action.ID()] = as
}

// resolveThievingAttempt resolves one attempt of a thieving action once its
// RemainingTicks has counted down to zero: success roll against
// successChance, stun + damage on failure, no XP/drops on failure. Success
// falls through to the normal skill completion machinery. A fatal failure
// is absorbed in place — the stun window that follows it doubles as the
// death-cycle restart overhead (design doc Section 4.1).
func resolveThievingAttempt(reg *catalog.Registry, s *state.GlobalState, action catalog.ThievingAction, rollStream, durStream, dropStream *rand.Rand, changes *state.Changes) (bool, StopCause) {
	if xrand.Chance(rollStream, successChance(*s, action)) {
		s.ActiveAction.Stunned = false
		return completeSkillAction(reg, s, action, dropStream, rollStream, durStream, changes)
	}
	damage := xrand.IntRange(rollStream, 1, maxInt(1, action.MaxHit))
	s.HP -= damage
	if s.HP < 0 {
		s.HP = 0
	}
	s.ActiveAction.RemainingTicks = action.StunnedDurationTicks
	s.ActiveAction.TotalTicks = action.StunnedDurationTicks
	s.ActiveAction.Stunned = true
	if s.HP == 0 {
		absorbDeath(s)
	}
	return true, StopNone
}

// successChance is f(stealth, perception): higher target perception lowers
// the odds, clamped to [0.05, 0.95] so no thieving target is ever a
// certainty or a guaranteed failure.
func successChance(s state.GlobalState, action catalog.ThievingAction) float64 {
	base := 0.5 - float64(action.Perception)/200.0
	if base < 0.05 {
		base = 0.05
	}
	if base > 0.95 {
		base = 0.95
	}
	return base
}

// resolveCombatCycle resolves one attack-speed cycle once RemainingTicks
// has counted down to zero: on monster death, grant gp and drops and queue
// a respawn window; on player death, absorb it in place via an automatic
// restart after action.RestartOverhead rather than surfacing StopDeath
// (design doc Section 4.1, Section 4.6). RespawnRemaining folds into the
// same RemainingTicks-driven countdown the caller already clamps against.
func resolveCombatCycle(s *state.GlobalState, action catalog.CombatAction, dropStream *rand.Rand, changes *state.Changes) (bool, StopCause) {
	cs := s.ActionStates[action.ID()]
	if cs.Combat == nil {
		cs.Combat = &state.CombatActionState{MonsterHP: action.MonsterHP}
	}

	if cs.Combat.RespawnRemaining > 0 {
		cs.Combat.RespawnRemaining = 0
		s.ActionStates[action.ID()] = cs
		s.ActiveAction.TotalTicks = action.AttackSpeedTicks
		s.ActiveAction.RemainingTicks = action.AttackSpeedTicks
		return true, StopNone
	}

	cs.Combat.MonsterHP -= action.MaxHit
	damageTaken := maxInt(0, int(float64(action.MaxHit)*(1-action.DamageReduction)))
	s.HP -= damageTaken
	if s.HP < 0 {
		s.HP = 0
	}

	if cs.Combat.MonsterHP <= 0 {
		s.GP += xrand.IntRange(dropStream, action.GPDropMin, action.GPDropMax)
		for _, drop := range action.DropTable {
			if !xrand.Chance(dropStream, drop.Rate) {
				continue
			}
			count := xrand.IntRange(dropStream, drop.CountMin, drop.CountMax)
			if grantItem(s, changes, drop.ItemID, count) {
				changes.DroppedItems[drop.ItemID] += count
			}
		}
		cs.Combat.MonsterHP = action.MonsterHP
		cs.Combat.RespawnRemaining = action.RespawnTicks
	}
	s.ActionStates[action.ID()] = cs

	nextTicks := action.AttackSpeedTicks
	if cs.Combat.RespawnRemaining > 0 {
		nextTicks = cs.Combat.RespawnRemaining
	}
	if s.HP == 0 {
		absorbDeath(s)
		nextTicks = maxInt(nextTicks, action.RestartOverhead)
	}

	s.ActiveAction.TotalTicks = nextTicks
	s.ActiveAction.RemainingTicks = nextTicks
	return true, StopNone
}
