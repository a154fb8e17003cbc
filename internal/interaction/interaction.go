// Package interaction implements the three 0-tick state mutators the
// planner and executor emit between wait edges: SwitchActivity,
// BuyShopItem, and SellItems. Each is a pure, transactional function —
// either the whole mutation applies or the state is returned unchanged
// alongside an error (design doc Section 4.2).
package interaction

import (
	"math/rand/v2"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/idleerr"
	"github.com/talgya/idlecore/internal/state"
)

// Kind discriminates the Interaction tagged union.
type Kind uint8

const (
	KindSwitchActivity Kind = iota
	KindBuyShopItem
	KindSellItems
)

// Interaction is the sealed family of 0-tick mutations.
type Interaction interface {
	Kind() Kind
}

// SwitchActivity clears the active action (if the player is not stunned)
// and starts ActionID.
type SwitchActivity struct {
	ActionID string
}

func (SwitchActivity) Kind() Kind { return KindSwitchActivity }

// BuyShopItem purchases one unit of PurchaseID.
type BuyShopItem struct {
	PurchaseID string
}

func (BuyShopItem) Kind() Kind { return KindBuyShopItem }

// SellItems liquidates inventory per Policy.
type SellItems struct {
	Policy SellPolicy
}

func (SellItems) Kind() Kind { return KindSellItems }

// SellPolicyKind discriminates the SellPolicy tagged union.
type SellPolicyKind uint8

const (
	SellPolicyAll SellPolicyKind = iota
	SellPolicyExcept
)

// SellPolicy is the sealed family describing which stacks a SellItems
// interaction keeps.
type SellPolicy interface {
	Kind() SellPolicyKind
}

// SellAll sells every stack in the inventory.
type SellAll struct{}

func (SellAll) Kind() SellPolicyKind { return SellPolicyAll }

// SellExcept sells every stack not in Keep.
type SellExcept struct {
	Keep map[string]bool
}

func (SellExcept) Kind() SellPolicyKind { return SellPolicyExcept }

// Apply runs i against s, returning a new state or a transactional error
// (s is returned unchanged on failure).
func Apply(reg *catalog.Registry, s state.GlobalState, i Interaction, src *rand.Rand) (state.GlobalState, error) {
	switch v := i.(type) {
	case SwitchActivity:
		return applySwitchActivity(reg, s, v, src)
	case BuyShopItem:
		return applyBuyShopItem(reg, s, v)
	case SellItems:
		return applySellItems(reg, s, v)
	default:
		return s, idleerr.New(idleerr.KindUnknownId, "unknown interaction kind")
	}
}

func applySwitchActivity(reg *catalog.Registry, s state.GlobalState, v SwitchActivity, src *rand.Rand) (state.GlobalState, error) {
	if s.ActiveAction != nil && s.ActiveAction.Stunned {
		return s, idleerr.New(idleerr.KindStunned, "cannot switch activity while stunned")
	}
	action, err := reg.Action(v.ActionID)
	if err != nil {
		return s, err
	}
	if action.Skill().Consuming() {
		inputs := action.Inputs()
		if recipe := defaultRecipe(s, action); recipe != nil {
			inputs = recipe.Inputs
		}
		for itemID, need := range inputs {
			if !s.Inventory.Has(itemID, need) {
				return s, idleerr.New(idleerr.KindInputsMissing, "insufficient inputs to start "+v.ActionID)
			}
		}
	}
	out := s.Copy()
	dur := action.Duration()
	rolled := dur.MinTicks
	if dur.MaxTicks > dur.MinTicks {
		rolled = dur.MinTicks + src.IntN(dur.MaxTicks-dur.MinTicks+1)
	}
	out.ActiveAction = &state.ActiveAction{ActionID: v.ActionID, RemainingTicks: rolled, TotalTicks: rolled}
	return out, nil
}

func defaultRecipe(s state.GlobalState, action catalog.Action) *catalog.Recipe {
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

func applyBuyShopItem(reg *catalog.Registry, s state.GlobalState, v BuyShopItem) (state.GlobalState, error) {
	purchase, err := reg.Purchase(v.PurchaseID)
	if err != nil {
		return s, err
	}
	owned := s.Shop.Purchased[v.PurchaseID]
	if purchase.BuyLimit > 0 && owned >= purchase.BuyLimit {
		return s, idleerr.New(idleerr.KindBuyLimitExceeded, "buy limit reached for "+v.PurchaseID)
	}
	for skill, level := range purchase.RequiresLevel {
		if reg.XP.LevelForXp(s.SkillStates[skill].XP) < level {
			return s, idleerr.New(idleerr.KindRequirementsUnmet, "level requirement unmet for "+v.PurchaseID)
		}
	}
	for _, req := range purchase.RequiresPurchase {
		if s.Shop.Purchased[req] == 0 {
			return s, idleerr.New(idleerr.KindRequirementsUnmet, "missing prerequisite purchase "+req)
		}
	}

	cost := purchase.Cost(owned)
	if purchase.IsBankSlot {
		cost = catalog.NextBankSlotCost(s.Shop.BankSlots)
	}
	if s.GP < cost {
		return s, idleerr.New(idleerr.KindInsufficientGp, "insufficient gp for "+v.PurchaseID)
	}

	out := s.Copy()
	out.GP -= cost
	out.Shop.Purchased[v.PurchaseID] = owned + 1
	if purchase.IsBankSlot {
		out.Shop.BankSlots++
	}
	return out, nil
}

func applySellItems(reg *catalog.Registry, s state.GlobalState, v SellItems) (state.GlobalState, error) {
	out := s.Copy()
	ids := make([]string, len(out.Inventory.Order))
	copy(ids, out.Inventory.Order)
	for _, itemID := range ids {
		if keeps(v.Policy, itemID) {
			continue
		}
		count := out.Inventory.CountOf(itemID)
		item, err := reg.Item(itemID)
		if err != nil {
			return s, err
		}
		inv, ok := out.Inventory.Remove(itemID, count)
		if !ok {
			return s, idleerr.New(idleerr.KindRequirementsUnmet, "sell accounting mismatch for "+itemID)
		}
		out.Inventory = inv
		out.GP += count * item.SellValue
	}
	return out, nil
}

func keeps(policy SellPolicy, itemID string) bool {
	switch p := policy.(type) {
	case SellAll:
		return false
	case SellExcept:
		return p.Keep[itemID]
	default:
		return false
	}
}

// SellPolicySpecKind discriminates the stable, state-independent SellPolicy
// descriptor family.
type SellPolicySpecKind uint8

const (
	SpecSellAll SellPolicySpecKind = iota
	SpecReserveConsumingInputs
)

// SellPolicySpec is a stable description that instantiates to a concrete
// SellPolicy given a state and registry (design doc Section 4.2).
type SellPolicySpec interface {
	Kind() SellPolicySpecKind
	Instantiate(reg *catalog.Registry, s state.GlobalState) SellPolicy
}

// SellAllSpec instantiates to SellAll unconditionally.
type SellAllSpec struct{}

func (SellAllSpec) Kind() SellPolicySpecKind { return SpecSellAll }
func (SellAllSpec) Instantiate(*catalog.Registry, state.GlobalState) SellPolicy {
	return SellAll{}
}

// ReserveConsumingInputsSpec instantiates to SellExcept with the keep set
// built from every unlocked consuming action's input item ids.
type ReserveConsumingInputsSpec struct{}

func (ReserveConsumingInputsSpec) Kind() SellPolicySpecKind { return SpecReserveConsumingInputs }

func (ReserveConsumingInputsSpec) Instantiate(reg *catalog.Registry, s state.GlobalState) SellPolicy {
	keep := make(map[string]bool)
	for _, action := range reg.Actions {
		if !action.Skill().Consuming() {
			continue
		}
		if action.UnlockLevel() > reg.XP.LevelForXp(s.SkillStates[action.Skill()].XP) {
			continue
		}
		for itemID := range action.Inputs() {
			keep[itemID] = true
		}
		for _, recipe := range action.Recipes() {
			for itemID := range recipe.Inputs {
				keep[itemID] = true
			}
		}
	}
	return SellExcept{Keep: keep}
}
