package catalog

import (
	"golang.org/x/exp/slices"

	"github.com/talgya/idlecore/internal/idleerr"
)

// Registry is the complete set of static, read-only game data: looked up
// by stable id, loaded once at process start, and shared across every
// GlobalState snapshot (design doc Section 9: "registries as static
// tables").
type Registry struct {
	Items      map[string]Item
	Actions    map[string]Action
	Shop       map[string]ShopPurchase
	GlobalDrops []Drop
	SkillDrops  map[SkillID][]Drop
	XP          XPTable
	MasteryXP   XPTable
}

// Item looks up an item by id, returning UnknownId if absent.
func (r *Registry) Item(id string) (Item, error) {
	it, ok := r.Items[id]
	if !ok {
		return Item{}, idleerr.New(idleerr.KindUnknownId, "unknown item id: "+id)
	}
	return it, nil
}

// Action looks up an action by id, returning UnknownId if absent.
func (r *Registry) Action(id string) (Action, error) {
	a, ok := r.Actions[id]
	if !ok {
		return nil, idleerr.New(idleerr.KindUnknownId, "unknown action id: "+id)
	}
	return a, nil
}

// Purchase looks up a shop purchase by id, returning UnknownId if absent.
func (r *Registry) Purchase(id string) (ShopPurchase, error) {
	p, ok := r.Shop[id]
	if !ok {
		return ShopPurchase{}, idleerr.New(idleerr.KindUnknownId, "unknown purchase id: "+id)
	}
	return p, nil
}

// AllDropsForAction concatenates action-specific drops, then this skill's
// drops, then global drops — the fixed concatenation order the tick engine
// applies completions in (design doc Section 5: "Ordering guarantees").
func (r *Registry) AllDropsForAction(action Action, recipe *Recipe) []Drop {
	var drops []Drop
	if ca, ok := action.(CombatAction); ok {
		drops = append(drops, ca.DropTable...)
	}
	drops = append(drops, r.SkillDrops[action.Skill()]...)
	drops = append(drops, r.GlobalDrops...)
	return drops
}

// UnlockLevelsFor returns the sorted set of distinct unlock levels at which
// any catalog action for the given skill becomes available. Computed once
// and cached by callers (the candidate enumerator).
func (r *Registry) UnlockLevelsFor(skill SkillID) []int {
	seen := make(map[int]bool)
	var levels []int
	for _, a := range r.Actions {
		if a.Skill() != skill {
			continue
		}
		if !seen[a.UnlockLevel()] {
			seen[a.UnlockLevel()] = true
			levels = append(levels, a.UnlockLevel())
		}
	}
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levels[j-1] > levels[j]; j-- {
			levels[j-1], levels[j] = levels[j], levels[j-1]
		}
	}
	return levels
}

// ActionsForSkill returns every catalog action belonging to the given skill,
// sorted by id. r.Actions is a map; without this sort, callers that pick a
// best action via max-reduction (the planner's intendedAction)
// would depend on Go's randomized map iteration order instead of state+goal.
func (r *Registry) ActionsForSkill(skill SkillID) []Action {
	var out []Action
	for _, a := range r.Actions {
		if a.Skill() == skill {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b Action) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		default:
			return 0
		}
	})
	return out
}
