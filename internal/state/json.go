package state

import (
	"encoding/json"
	"time"

	"github.com/talgya/idlecore/internal/catalog"
)

type inventoryWire struct {
	Counts       map[string]int `json:"counts"`
	OrderedItems []string       `json:"orderedItems"`
}

type activeActionWire struct {
	Name           string `json:"name"`
	RemainingTicks int    `json:"remainingTicks"`
	TotalTicks     int    `json:"totalTicks"`
	Stunned        bool   `json:"stunned,omitempty"`
}

type skillStateWire struct {
	XP        float64 `json:"xp"`
	MasteryXP float64 `json:"masteryXp"`
}

type combatStateWire struct {
	MonsterHP        int `json:"monsterHp"`
	RespawnRemaining int `json:"respawnRemaining"`
}

type miningStateWire struct {
	NodeRemaining int  `json:"nodeRemaining"`
	NodeDepleted  bool `json:"nodeDepleted"`
}

type actionStateWire struct {
	MasteryXP       float64          `json:"masteryXp"`
	RecipeSelection *string          `json:"recipeSelection,omitempty"`
	Combat          *combatStateWire `json:"combat,omitempty"`
	Mining          *miningStateWire `json:"mining,omitempty"`
}

type shopWire struct {
	BankSlots int            `json:"bankSlots"`
	Purchased map[string]int `json:"purchased,omitempty"`
}

type levelUpWire struct {
	StartLevel int `json:"startLevel"`
	EndLevel   int `json:"endLevel"`
}

type changesWire struct {
	InventoryChanges map[string]int         `json:"inventoryChanges"`
	SkillXPChanges   map[string]float64      `json:"skillXpChanges"`
	DroppedItems     map[string]int          `json:"droppedItems,omitempty"`
	SkillLevelChanges map[string]levelUpWire `json:"skillLevelChanges,omitempty"`
}

type timeAwayWire struct {
	StartTime   int64       `json:"startTime"`
	EndTime     int64       `json:"endTime"`
	ActiveSkill *string     `json:"activeSkill"`
	Changes     changesWire `json:"changes"`
}

type globalStateWire struct {
	UpdatedAt    time.Time                  `json:"updatedAt"`
	Inventory    inventoryWire              `json:"inventory"`
	ActiveAction *activeActionWire          `json:"activeAction"`
	SkillStates  map[string]skillStateWire  `json:"skillStates"`
	ActionStates map[string]actionStateWire `json:"actionStates"`
	GP           int                        `json:"gp"`
	Shop         shopWire                   `json:"shop"`
	PlayerHP     int                        `json:"playerHp"`
	TimeAway     *timeAwayWire              `json:"timeAway,omitempty"`
	HPRegenProgress float64                 `json:"hpRegenProgress,omitempty"`
}

// MarshalJSON renders c per the documented Changes wire shape
// (inventoryChanges, skillXpChanges, droppedItems, skillLevelChanges).
func (c Changes) MarshalJSON() ([]byte, error) {
	return json.Marshal(toChangesWire(c))
}

func toChangesWire(c Changes) changesWire {
	skillXP := make(map[string]float64, len(c.SkillXPDelta))
	for k, v := range c.SkillXPDelta {
		skillXP[k.String()] = v
	}
	var levels map[string]levelUpWire
	if len(c.LevelUps) > 0 {
		levels = make(map[string]levelUpWire, len(c.LevelUps))
		for k, v := range c.LevelUps {
			levels[k.String()] = levelUpWire{StartLevel: v.StartLevel, EndLevel: v.EndLevel}
		}
	}
	return changesWire{
		InventoryChanges:  c.InventoryDelta,
		SkillXPChanges:    skillXP,
		DroppedItems:      c.DroppedItems,
		SkillLevelChanges: levels,
	}
}

func fromChangesWire(w changesWire, lookup func(string) (catalog.SkillID, bool)) Changes {
	out := NewChanges()
	for k, v := range w.InventoryChanges {
		out.InventoryDelta[k] = v
	}
	for k, v := range w.SkillXPChanges {
		if sk, ok := lookup(k); ok {
			out.SkillXPDelta[sk] = v
		}
	}
	for k, v := range w.DroppedItems {
		out.DroppedItems[k] = v
	}
	for k, v := range w.SkillLevelChanges {
		if sk, ok := lookup(k); ok {
			out.LevelUps[sk] = LevelUpRange{StartLevel: v.StartLevel, EndLevel: v.EndLevel}
		}
	}
	return out
}

// MarshalJSON renders s per the documented wire format: updatedAt,
// inventory{counts,orderedItems}, activeAction, skillStates, actionStates,
// gp, shop{bankSlots,purchased}, playerHp, timeAway.
func (s GlobalState) MarshalJSON() ([]byte, error) {
	w := globalStateWire{
		UpdatedAt: s.UpdatedAt,
		Inventory: inventoryWire{Counts: s.Inventory.Counts, OrderedItems: s.Inventory.Order},
		GP:        s.GP,
		Shop:      shopWire{BankSlots: s.Shop.BankSlots, Purchased: s.Shop.Purchased},
		PlayerHP:  s.HP,
		HPRegenProgress: s.HPRegenProgress,
	}
	if s.ActiveAction != nil {
		w.ActiveAction = &activeActionWire{
			Name:           s.ActiveAction.ActionID,
			RemainingTicks: s.ActiveAction.RemainingTicks,
			TotalTicks:     s.ActiveAction.TotalTicks,
			Stunned:        s.ActiveAction.Stunned,
		}
	}
	w.SkillStates = make(map[string]skillStateWire, len(s.SkillStates))
	for sk, ss := range s.SkillStates {
		w.SkillStates[sk.String()] = skillStateWire{XP: ss.XP, MasteryXP: ss.MasteryXP}
	}
	w.ActionStates = make(map[string]actionStateWire, len(s.ActionStates))
	for id, as := range s.ActionStates {
		aw := actionStateWire{MasteryXP: as.MasteryXP, RecipeSelection: as.RecipeSelection}
		if as.Combat != nil {
			aw.Combat = &combatStateWire{MonsterHP: as.Combat.MonsterHP, RespawnRemaining: as.Combat.RespawnRemaining}
		}
		if as.Mining != nil {
			aw.Mining = &miningStateWire{NodeRemaining: as.Mining.NodeRemaining, NodeDepleted: as.Mining.NodeDepleted}
		}
		w.ActionStates[id] = aw
	}
	if s.TimeAway != nil {
		var activeSkill *string
		if s.TimeAway.ActiveSkill != nil {
			n := s.TimeAway.ActiveSkill.String()
			activeSkill = &n
		}
		w.TimeAway = &timeAwayWire{
			StartTime:   s.TimeAway.Start.UnixMilli(),
			EndTime:     s.TimeAway.End.UnixMilli(),
			ActiveSkill: activeSkill,
			Changes:     toChangesWire(s.TimeAway.Changes),
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the documented wire format. skillByName resolves a
// skill's display name back to its SkillID; unknown keys are ignored and
// missing optional fields default as documented.
func (s *GlobalState) UnmarshalJSON(data []byte, skillByName func(string) (catalog.SkillID, bool)) error {
	var w globalStateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = New(s.MaxHP)
	s.UpdatedAt = w.UpdatedAt
	if w.Inventory.Counts != nil {
		s.Inventory.Counts = w.Inventory.Counts
	}
	s.Inventory.Order = w.Inventory.OrderedItems
	s.GP = w.GP
	s.HP = w.PlayerHP
	s.HPRegenProgress = w.HPRegenProgress
	s.Shop.BankSlots = w.Shop.BankSlots
	if w.Shop.Purchased != nil {
		s.Shop.Purchased = w.Shop.Purchased
	}
	if w.ActiveAction != nil {
		s.ActiveAction = &ActiveAction{
			ActionID:       w.ActiveAction.Name,
			RemainingTicks: w.ActiveAction.RemainingTicks,
			TotalTicks:     w.ActiveAction.TotalTicks,
			Stunned:        w.ActiveAction.Stunned,
		}
	}
	for name, ss := range w.SkillStates {
		if sk, ok := skillByName(name); ok {
			s.SkillStates[sk] = SkillState{XP: ss.XP, MasteryXP: ss.MasteryXP}
		}
	}
	for id, as := range w.ActionStates {
		out := ActionState{MasteryXP: as.MasteryXP, RecipeSelection: as.RecipeSelection}
		if as.Combat != nil {
			out.Combat = &CombatActionState{MonsterHP: as.Combat.MonsterHP, RespawnRemaining: as.Combat.RespawnRemaining}
		}
		if as.Mining != nil {
			out.Mining = &MiningActionState{NodeRemaining: as.Mining.NodeRemaining, NodeDepleted: as.Mining.NodeDepleted}
		}
		s.ActionStates[id] = out
	}
	if w.TimeAway != nil {
		var activeSkill *catalog.SkillID
		if w.TimeAway.ActiveSkill != nil {
			if sk, ok := skillByName(*w.TimeAway.ActiveSkill); ok {
				activeSkill = &sk
			}
		}
		s.TimeAway = &TimeAway{
			Start:       time.UnixMilli(w.TimeAway.StartTime),
			End:         time.UnixMilli(w.TimeAway.EndTime),
			ActiveSkill: activeSkill,
			Changes:     fromChangesWire(w.TimeAway.Changes, skillByName),
		}
	}
	return nil
}
