// Package waitfor implements the sealed family of stop conditions the
// planner attaches to wait edges: each variant reports whether it is
// satisfied in a snapshot, which child satisfied it (for disjunction), a
// monotone progress scalar for stuck-detection, and a conservative
// estimated-ticks-to-satisfaction (design doc Section 4.4).
package waitfor

import (
	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/rates"
	"github.com/talgya/idlecore/internal/state"
)

// Kind discriminates the WaitFor tagged union.
type Kind uint8

const (
	KindGoal Kind = iota
	KindSkillXp
	KindMasteryXp
	KindEffectiveCredits
	KindInventoryThreshold
	KindInventoryFull
	KindInventoryAtLeast
	KindInventoryDelta
	KindInputsDepleted
	KindInputsAvailable
	KindSufficientInputs
	KindAnyOf
)

// WaitFor is the sealed family of stop conditions.
type WaitFor interface {
	Kind() Kind
	IsSatisfied(s state.GlobalState) bool
	FindSatisfied(s state.GlobalState) WaitFor
	Progress(s state.GlobalState) float64
	EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64
}

// freeSlots returns the bank capacity not currently occupied by a distinct
// item type.
func freeSlots(s state.GlobalState) int {
	return s.Shop.BankSlots - s.Inventory.SlotsUsed()
}

// ticksToInventoryFull caps every inventory-tracking variant's estimate at
// the horizon where the bank would fill regardless of the specific item
// being watched (design doc Section 4.4).
func ticksToInventoryFull(s state.GlobalState, r rates.Rates) int64 {
	return rates.TicksUntilInventoryFull(freeSlots(s), r.ItemTypesPerTick)
}

func capAtInventoryFull(estimate int64, s state.GlobalState, r rates.Rates) int64 {
	cap := ticksToInventoryFull(s, r)
	if cap < estimate {
		return cap
	}
	return estimate
}

// Goal is the terminal condition: satisfied exactly when Inner is.
type Goal struct {
	Inner WaitFor
}

func (Goal) Kind() Kind { return KindGoal }
func (g Goal) IsSatisfied(s state.GlobalState) bool { return g.Inner.IsSatisfied(s) }
func (g Goal) FindSatisfied(s state.GlobalState) WaitFor {
	if g.Inner.IsSatisfied(s) {
		return g
	}
	return nil
}
func (g Goal) Progress(s state.GlobalState) float64 { return g.Inner.Progress(s) }
func (g Goal) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	return g.Inner.EstimateTicks(reg, s, r)
}

// SkillXp waits until a skill accumulates at least TargetXP.
type SkillXp struct {
	Skill    catalog.SkillID
	TargetXP float64
	Reason   string
}

func (SkillXp) Kind() Kind { return KindSkillXp }
func (w SkillXp) IsSatisfied(s state.GlobalState) bool {
	return s.SkillStates[w.Skill].XP >= w.TargetXP
}
func (w SkillXp) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (w SkillXp) Progress(s state.GlobalState) float64 { return s.SkillStates[w.Skill].XP }
func (w SkillXp) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	if w.IsSatisfied(s) {
		return 0
	}
	needed := w.TargetXP - s.SkillStates[w.Skill].XP
	rate := r.XPPerTick[w.Skill]
	return rates.TicksForRate(needed, rate)
}

// MasteryXp waits until an action's mastery XP reaches TargetXP.
type MasteryXp struct {
	ActionID string
	TargetXP float64
}

func (MasteryXp) Kind() Kind { return KindMasteryXp }
func (w MasteryXp) IsSatisfied(s state.GlobalState) bool {
	return s.ActionStates[w.ActionID].MasteryXP >= w.TargetXP
}
func (w MasteryXp) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (w MasteryXp) Progress(s state.GlobalState) float64 {
	return s.ActionStates[w.ActionID].MasteryXP
}
func (w MasteryXp) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	if w.IsSatisfied(s) {
		return 0
	}
	needed := w.TargetXP - s.ActionStates[w.ActionID].MasteryXP
	return rates.TicksForRate(needed, r.MasteryXPPerTick)
}

// EffectiveCredits waits until gp plus the sell value of everything the
// given policy would keep (i.e. sellsFor of kept stacks) reaches Target.
// ItemSellValues is resolved from the registry once at construction time
// (the planner holds reg when it builds this wait), same rationale as
// InputsDepleted: IsSatisfied never needs registry access, matching the
// WaitFor interface.
type EffectiveCredits struct {
	Target         int
	KeepPolicy     func(itemID string) bool
	ItemSellValues map[string]int
	Reason         string
}

func (EffectiveCredits) Kind() Kind { return KindEffectiveCredits }

// Value computes effectiveCredits(state, policy) = gp + sum of keepable
// stacks' sell value.
func (w EffectiveCredits) Value(s state.GlobalState) int {
	total := s.GP
	for _, itemID := range s.Inventory.Order {
		if w.KeepPolicy != nil && !w.KeepPolicy(itemID) {
			continue
		}
		total += s.Inventory.CountOf(itemID) * w.ItemSellValues[itemID]
	}
	return total
}
func (w EffectiveCredits) IsSatisfied(s state.GlobalState) bool {
	return w.Value(s) >= w.Target
}
func (w EffectiveCredits) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (w EffectiveCredits) Progress(s state.GlobalState) float64 { return float64(s.GP) }

// EstimateTicks filters out rare drops whose 1/flowRate exceeds 1000 ticks
// to prevent over-optimistic income predictions driven by rarities never
// actually produced in the horizon (design doc Section 4.4).
func (w EffectiveCredits) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	if w.IsSatisfied(s) {
		return 0
	}
	gpRate := r.DirectGPPerTick
	for itemID, perTick := range r.ItemsPerTick {
		if perTick <= 0 {
			continue
		}
		if 1/perTick > 1000 {
			continue
		}
		gpRate += perTick * float64(w.ItemSellValues[itemID])
	}
	needed := float64(w.Target - w.Value(s))
	return rates.TicksForRate(needed, gpRate)
}

// InventoryThreshold is satisfied once used slots / total slots >= Fraction.
type InventoryThreshold struct {
	Fraction float64
}

func (InventoryThreshold) Kind() Kind { return KindInventoryThreshold }
func (w InventoryThreshold) usedFraction(s state.GlobalState) float64 {
	if s.Shop.BankSlots <= 0 {
		return 1
	}
	return float64(s.Inventory.SlotsUsed()) / float64(s.Shop.BankSlots)
}
func (w InventoryThreshold) IsSatisfied(s state.GlobalState) bool {
	return w.usedFraction(s) >= w.Fraction
}
func (w InventoryThreshold) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (w InventoryThreshold) Progress(s state.GlobalState) float64 { return w.usedFraction(s) }
func (w InventoryThreshold) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	if w.IsSatisfied(s) {
		return 0
	}
	targetSlots := int(w.Fraction * float64(s.Shop.BankSlots))
	needed := targetSlots - s.Inventory.SlotsUsed()
	return rates.TicksForRate(float64(needed), r.ItemTypesPerTick)
}

// InventoryFull is satisfied once there are no free bank slots. While the
// bank still has room, EstimateTicks returns the ticks until the free slots
// fill at the current new-item-type rate (InfTicks if that rate is zero).
type InventoryFull struct{}

func (InventoryFull) Kind() Kind { return KindInventoryFull }
func (InventoryFull) IsSatisfied(s state.GlobalState) bool { return freeSlots(s) <= 0 }
func (w InventoryFull) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (InventoryFull) Progress(s state.GlobalState) float64 { return float64(s.Inventory.SlotsUsed()) }
func (w InventoryFull) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	if w.IsSatisfied(s) {
		return 0
	}
	return ticksToInventoryFull(s, r)
}

// InventoryAtLeast waits until an item's count reaches Count.
type InventoryAtLeast struct {
	ItemID string
	Count  int
}

func (InventoryAtLeast) Kind() Kind { return KindInventoryAtLeast }
func (w InventoryAtLeast) IsSatisfied(s state.GlobalState) bool {
	return s.Inventory.CountOf(w.ItemID) >= w.Count
}
func (w InventoryAtLeast) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (w InventoryAtLeast) Progress(s state.GlobalState) float64 {
	return float64(s.Inventory.CountOf(w.ItemID))
}
func (w InventoryAtLeast) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	if w.IsSatisfied(s) {
		return 0
	}
	needed := w.Count - s.Inventory.CountOf(w.ItemID)
	netRate := r.ItemsPerTick[w.ItemID] - r.ItemsConsumedPerTick[w.ItemID]
	est := rates.TicksForRate(float64(needed), netRate)
	return capAtInventoryFull(est, s, r)
}

// InventoryDelta waits until an item's count has changed by at least Delta
// relative to StartCount.
type InventoryDelta struct {
	ItemID     string
	Delta      int
	StartCount int
}

func (InventoryDelta) Kind() Kind { return KindInventoryDelta }
func (w InventoryDelta) IsSatisfied(s state.GlobalState) bool {
	diff := s.Inventory.CountOf(w.ItemID) - w.StartCount
	if w.Delta >= 0 {
		return diff >= w.Delta
	}
	return diff <= w.Delta
}
func (w InventoryDelta) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (w InventoryDelta) Progress(s state.GlobalState) float64 {
	return float64(s.Inventory.CountOf(w.ItemID) - w.StartCount)
}
func (w InventoryDelta) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	if w.IsSatisfied(s) {
		return 0
	}
	target := InventoryAtLeast{ItemID: w.ItemID, Count: w.StartCount + w.Delta}
	return target.EstimateTicks(reg, s, r)
}

// InputsDepleted is satisfied once any of the active action's required
// inputs reaches zero in inventory. Items is resolved from the registry once
// at construction time (the planner knows reg when it builds this wait) so
// IsSatisfied never needs registry access, matching the WaitFor interface.
type InputsDepleted struct {
	ActionID string
	Items    map[string]int
}

func (InputsDepleted) Kind() Kind { return KindInputsDepleted }
func (w InputsDepleted) IsSatisfied(s state.GlobalState) bool {
	for itemID := range w.Items {
		if s.Inventory.CountOf(itemID) == 0 {
			return true
		}
	}
	return false
}
func (w InputsDepleted) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (w InputsDepleted) Progress(s state.GlobalState) float64 { return 0 }
func (w InputsDepleted) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	var worst int64 = 0
	for itemID, need := range w.Items {
		have := s.Inventory.CountOf(itemID)
		consumedRate := r.ItemsConsumedPerTick[itemID]
		est := rates.TicksUntilInputsDepleted(have-need+1, consumedRate)
		if est > worst {
			worst = est
		}
	}
	return worst
}

// InputsAvailable is satisfied once every required input in Items is present
// in sufficient quantity to start ActionID again. Items is resolved once at
// construction time, same rationale as InputsDepleted.
type InputsAvailable struct {
	ActionID string
	Items    map[string]int
}

func (InputsAvailable) Kind() Kind { return KindInputsAvailable }
func (w InputsAvailable) IsSatisfied(s state.GlobalState) bool {
	for itemID, need := range w.Items {
		if s.Inventory.CountOf(itemID) < need {
			return false
		}
	}
	return true
}
func (w InputsAvailable) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (w InputsAvailable) Progress(s state.GlobalState) float64 { return 0 }
func (w InputsAvailable) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	var worst int64 = 0
	for itemID, need := range w.Items {
		have := s.Inventory.CountOf(itemID)
		if have >= need {
			continue
		}
		netRate := r.ItemsPerTick[itemID] - r.ItemsConsumedPerTick[itemID]
		est := rates.TicksForRate(float64(need-have), netRate)
		if est > worst {
			worst = est
		}
	}
	return capAtInventoryFull(worst, s, r)
}

// SufficientInputs waits until ItemID has at least TargetCount units
// available. ItemID is resolved from ActionID's inputs once at construction
// time, same rationale as InputsDepleted.
type SufficientInputs struct {
	ActionID    string
	ItemID      string
	TargetCount int
}

func (SufficientInputs) Kind() Kind { return KindSufficientInputs }
func (w SufficientInputs) IsSatisfied(s state.GlobalState) bool {
	if w.ItemID == "" {
		return true
	}
	return s.Inventory.CountOf(w.ItemID) >= w.TargetCount
}
func (w SufficientInputs) FindSatisfied(s state.GlobalState) WaitFor {
	if w.IsSatisfied(s) {
		return w
	}
	return nil
}
func (w SufficientInputs) Progress(s state.GlobalState) float64 { return 0 }
func (w SufficientInputs) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	if w.ItemID == "" {
		return 0
	}
	target := InventoryAtLeast{ItemID: w.ItemID, Count: w.TargetCount}
	return target.EstimateTicks(reg, s, r)
}

// AnyOf is satisfied when any child is; its estimate is the minimum child
// estimate and its satisfying child is the first one satisfied in list
// order (design doc Section 4.4).
type AnyOf struct {
	Children []WaitFor
}

func (AnyOf) Kind() Kind { return KindAnyOf }
func (w AnyOf) IsSatisfied(s state.GlobalState) bool {
	for _, c := range w.Children {
		if c.IsSatisfied(s) {
			return true
		}
	}
	return false
}
func (w AnyOf) FindSatisfied(s state.GlobalState) WaitFor {
	for _, c := range w.Children {
		if c.IsSatisfied(s) {
			return c
		}
	}
	return nil
}
func (w AnyOf) Progress(s state.GlobalState) float64 {
	best := 0.0
	for i, c := range w.Children {
		p := c.Progress(s)
		if i == 0 || p > best {
			best = p
		}
	}
	return best
}
func (w AnyOf) EstimateTicks(reg *catalog.Registry, s state.GlobalState, r rates.Rates) int64 {
	var min int64 = rates.InfTicks
	for _, c := range w.Children {
		est := c.EstimateTicks(reg, s, r)
		if est < min {
			min = est
		}
	}
	return min
}
