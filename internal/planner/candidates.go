// Package planner implements the candidate enumerator, the best-first
// segment search, and the plan executor (design doc Sections 4.5-4.7).
package planner

import (
	"golang.org/x/exp/slices"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/state"
)

// Goal is a terminal predicate over state with a set of relevant skills.
type Goal interface {
	IsSatisfied(s state.GlobalState) bool
	RelevantSkills() []catalog.SkillID
}

// SkillLevelGoal is satisfied once a skill reaches TargetLevel.
type SkillLevelGoal struct {
	XP          catalog.XPTable
	Skill       catalog.SkillID
	TargetLevel int
}

func (g SkillLevelGoal) IsSatisfied(s state.GlobalState) bool {
	return g.XP.LevelForXp(s.SkillStates[g.Skill].XP) >= g.TargetLevel
}
func (g SkillLevelGoal) RelevantSkills() []catalog.SkillID { return []catalog.SkillID{g.Skill} }

// WatchSet is the set of events that define segment boundaries (design doc
// Section 4.5).
type WatchSet struct {
	UpgradePurchaseIDs   []string
	UnlockLevels         map[catalog.SkillID][]int
	WatchedSkills        []catalog.SkillID
	ConsumingActivityIDs []string
}

// Candidates is the planner's menu of 0-tick options at a decision point.
type Candidates struct {
	SwitchTo       []string
	BuyUpgrades    []string
	ShouldEmitSell bool
	Watch          WatchSet
}

// EnumerateCandidates computes the watch set and the competitive subset of
// buyable upgrades for state+goal. buyUpgrades is a competitive subset of
// watch.UpgradePurchaseIDs: upgrades only in watch inform wait-time and
// never emit a buy interaction (design doc Section 4.5).
func EnumerateCandidates(reg *catalog.Registry, s state.GlobalState, goal Goal) Candidates {
	relevant := goal.RelevantSkills()
	relevantSet := make(map[catalog.SkillID]bool, len(relevant))
	for _, sk := range relevant {
		relevantSet[sk] = true
	}

	watchedSkills := append([]catalog.SkillID{}, relevant...)
	for sk := range consumingPrereqSkills(reg, relevantSet) {
		if !relevantSet[sk] {
			watchedSkills = append(watchedSkills, sk)
			relevantSet[sk] = true
		}
	}
	// Map iteration above has no stable order; sort so the watch set (and
	// the bucketKey/dominance pruning it feeds) is a deterministic
	// function of state+goal, not of Go's randomized map order.
	slices.Sort(watchedSkills)

	var upgradeIDs []string
	for id, p := range reg.Shop {
		if p.IsBankSlot {
			upgradeIDs = append(upgradeIDs, id)
			continue
		}
		for sk := range p.PercentModifier {
			if relevantSet[sk] {
				upgradeIDs = append(upgradeIDs, id)
				break
			}
		}
	}
	slices.Sort(upgradeIDs)

	unlockLevels := make(map[catalog.SkillID][]int, len(watchedSkills))
	for _, sk := range watchedSkills {
		unlockLevels[sk] = reg.UnlockLevelsFor(sk)
	}

	var consumingIDs []string
	for _, sk := range watchedSkills {
		if !sk.Consuming() {
			continue
		}
		level := reg.XP.LevelForXp(s.SkillStates[sk].XP)
		for _, a := range reg.ActionsForSkill(sk) {
			if a.UnlockLevel() <= level {
				consumingIDs = append(consumingIDs, a.ID())
			}
		}
	}

	watch := WatchSet{
		UpgradePurchaseIDs:   upgradeIDs,
		UnlockLevels:         unlockLevels,
		WatchedSkills:        watchedSkills,
		ConsumingActivityIDs: consumingIDs,
	}

	var buyUpgrades []string
	for _, id := range upgradeIDs {
		p, err := reg.Purchase(id)
		if err != nil {
			continue
		}
		owned := s.Shop.Purchased[id]
		cost := p.Cost(owned)
		if p.IsBankSlot {
			cost = catalog.NextBankSlotCost(s.Shop.BankSlots)
		}
		if s.GP >= cost && purchaseUnlocked(reg, s, p) {
			buyUpgrades = append(buyUpgrades, id)
		}
	}

	return Candidates{
		BuyUpgrades: buyUpgrades,
		Watch:       watch,
	}
}

func purchaseUnlocked(reg *catalog.Registry, s state.GlobalState, p catalog.ShopPurchase) bool {
	for sk, lvl := range p.RequiresLevel {
		if reg.XP.LevelForXp(s.SkillStates[sk].XP) < lvl {
			return false
		}
	}
	for _, req := range p.RequiresPurchase {
		if s.Shop.Purchased[req] == 0 {
			return false
		}
	}
	return true
}

// consumingPrereqSkills finds producer skills feeding any relevant
// consuming skill's inputs, so the watch set also covers the upstream
// gathering loop (e.g. Firemaking watches Woodcutting).
func consumingPrereqSkills(reg *catalog.Registry, relevant map[catalog.SkillID]bool) map[catalog.SkillID]bool {
	out := make(map[catalog.SkillID]bool)
	neededItems := make(map[string]bool)
	for sk := range relevant {
		if !sk.Consuming() {
			continue
		}
		for _, a := range reg.ActionsForSkill(sk) {
			for itemID := range a.Inputs() {
				neededItems[itemID] = true
			}
			for _, r := range a.Recipes() {
				for itemID := range r.Inputs {
					neededItems[itemID] = true
				}
			}
		}
	}
	for _, a := range reg.Actions {
		for itemID := range a.Outputs() {
			if neededItems[itemID] {
				out[a.Skill()] = true
			}
		}
	}
	return out
}
