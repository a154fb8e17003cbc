package state

import (
	"time"

	"github.com/talgya/idlecore/internal/catalog"
)

// SkillState is the per-skill progress snapshot. Level is derived from XP
// via the catalog's XP table, never stored directly.
type SkillState struct {
	XP        float64
	MasteryXP float64
}

// CombatActionState holds the extra per-action bookkeeping combat actions
// need: remaining monster HP and respawn countdown.
type CombatActionState struct {
	MonsterHP       int
	RespawnRemaining int
}

// MiningActionState tracks node depletion for mining-style actions.
type MiningActionState struct {
	NodeRemaining int
	NodeDepleted  bool
}

// ActionState is the per-action progress snapshot: mastery XP plus
// variant-specific sub-state.
type ActionState struct {
	MasteryXP        float64
	RecipeSelection  *string
	Combat           *CombatActionState
	Mining           *MiningActionState
}

// Copy returns a deep copy so mutators never alias the receiver's pointers.
func (a ActionState) Copy() ActionState {
	out := a
	if a.RecipeSelection != nil {
		v := *a.RecipeSelection
		out.RecipeSelection = &v
	}
	if a.Combat != nil {
		c := *a.Combat
		out.Combat = &c
	}
	if a.Mining != nil {
		m := *a.Mining
		out.Mining = &m
	}
	return out
}

// RecipeSelection is the pure function the spec asks for (design doc
// Section 9 Open Questions): the selected recipe id for an action, or the
// catalog's default (first recipe in declaration order) if unset.
func RecipeSelection(as ActionState, action catalog.Action) string {
	if as.RecipeSelection != nil {
		return *as.RecipeSelection
	}
	recipes := action.Recipes()
	if len(recipes) == 0 {
		return ""
	}
	return recipes[0].ID
}

// ShopState tracks owned shop purchases and the current bank-slot count.
type ShopState struct {
	Purchased map[string]int
	BankSlots int
}

func (s ShopState) Copy() ShopState {
	purchased := make(map[string]int, len(s.Purchased))
	for k, v := range s.Purchased {
		purchased[k] = v
	}
	return ShopState{Purchased: purchased, BankSlots: s.BankSlots}
}

// ActiveAction is the action currently in progress, if any. Stunned marks a
// failed thieving attempt's cooldown: SwitchActivity refuses to clear the
// active action while it is set.
type ActiveAction struct {
	ActionID       string
	RemainingTicks int
	TotalTicks     int
	Stunned        bool
}

// ProgressTicks is how many ticks of the current cycle have elapsed.
func (a ActiveAction) ProgressTicks() int {
	return a.TotalTicks - a.RemainingTicks
}

// LevelUpRange records the level a skill started and ended a window at,
// coalesced to the earliest start and latest end when merged.
type LevelUpRange struct {
	StartLevel int
	EndLevel   int
}

// Changes is the envelope of everything that happened during a span of
// ticks: inventory deltas, skill XP deltas, dropped items, and level-ups.
type Changes struct {
	InventoryDelta map[string]int
	SkillXPDelta   map[catalog.SkillID]float64
	DroppedItems   map[string]int
	LevelUps       map[catalog.SkillID]LevelUpRange
}

// NewChanges returns an empty, ready-to-use Changes value.
func NewChanges() Changes {
	return Changes{
		InventoryDelta: make(map[string]int),
		SkillXPDelta:   make(map[catalog.SkillID]float64),
		DroppedItems:   make(map[string]int),
		LevelUps:       make(map[catalog.SkillID]LevelUpRange),
	}
}

// MergeChanges unions two Changes envelopes: deltas add, dropped-item
// counts add, and level-up windows coalesce to the earliest start and
// latest end per skill (design doc Section 3).
func MergeChanges(a, b Changes) Changes {
	out := NewChanges()
	for k, v := range a.InventoryDelta {
		out.InventoryDelta[k] += v
	}
	for k, v := range b.InventoryDelta {
		out.InventoryDelta[k] += v
	}
	for k, v := range a.SkillXPDelta {
		out.SkillXPDelta[k] += v
	}
	for k, v := range b.SkillXPDelta {
		out.SkillXPDelta[k] += v
	}
	for k, v := range a.DroppedItems {
		out.DroppedItems[k] += v
	}
	for k, v := range b.DroppedItems {
		out.DroppedItems[k] += v
	}
	for k, v := range a.LevelUps {
		out.LevelUps[k] = v
	}
	for k, v := range b.LevelUps {
		if existing, ok := out.LevelUps[k]; ok {
			start := existing.StartLevel
			if v.StartLevel < start {
				start = v.StartLevel
			}
			end := existing.EndLevel
			if v.EndLevel > end {
				end = v.EndLevel
			}
			out.LevelUps[k] = LevelUpRange{StartLevel: start, EndLevel: end}
		} else {
			out.LevelUps[k] = v
		}
	}
	return out
}

// TimeAway summarizes everything that happened while the host app was
// suspended: the window, the skill that was active (if any), and the
// accumulated Changes.
type TimeAway struct {
	Start       time.Time
	End         time.Time
	ActiveSkill *catalog.SkillID
	Changes     Changes
}

// GlobalState is the complete, immutable-by-convention snapshot the engine
// advances. Every mutator returns a new GlobalState rather than mutating in
// place. The tick and interaction mutators leave UpdatedAt unchanged; the
// API server stamps it with WithUpdatedAt after each advance or interaction.
type GlobalState struct {
	Inventory    Inventory
	ActiveAction *ActiveAction
	SkillStates  map[catalog.SkillID]SkillState
	ActionStates map[string]ActionState
	UpdatedAt    time.Time
	GP           int
	HP           int
	MaxHP        int
	Shop         ShopState
	TimeAway     *TimeAway
	// HPRegenProgress is a persisted fractional HP-regen accumulator: ticks
	// contribute partial HP to it regardless of how a caller splits a span
	// across Advance calls, so regen stays composable (design doc Section 8).
	HPRegenProgress float64
}

// New returns an empty GlobalState appropriate for a brand-new save.
func New(maxHP int) GlobalState {
	return GlobalState{
		Inventory:    NewInventory(),
		SkillStates:  make(map[catalog.SkillID]SkillState),
		ActionStates: make(map[string]ActionState),
		GP:           0,
		HP:           maxHP,
		MaxHP:        maxHP,
		Shop:         ShopState{Purchased: make(map[string]int)},
	}
}

// Copy returns a deep copy so mutators never alias the receiver's maps or
// pointers.
func (s GlobalState) Copy() GlobalState {
	out := s
	out.Inventory = s.Inventory.Copy()
	out.SkillStates = make(map[catalog.SkillID]SkillState, len(s.SkillStates))
	for k, v := range s.SkillStates {
		out.SkillStates[k] = v
	}
	out.ActionStates = make(map[string]ActionState, len(s.ActionStates))
	for k, v := range s.ActionStates {
		out.ActionStates[k] = v.Copy()
	}
	out.Shop = s.Shop.Copy()
	if s.ActiveAction != nil {
		aa := *s.ActiveAction
		out.ActiveAction = &aa
	}
	if s.TimeAway != nil {
		ta := *s.TimeAway
		out.TimeAway = &ta
	}
	return out
}

// Level returns the current level for a trainable skill per the catalog's
// XP table.
func Level(xp catalog.XPTable, s GlobalState, skill catalog.SkillID) int {
	return xp.LevelForXp(s.SkillStates[skill].XP)
}

// WithUpdatedAt returns a copy stamped with the given timestamp.
func (s GlobalState) WithUpdatedAt(t time.Time) GlobalState {
	out := s.Copy()
	out.UpdatedAt = t
	return out
}
