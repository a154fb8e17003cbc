package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed data/*.json
var embedded embed.FS

const maxLevel = 99

type durationWire struct {
	MinTicks int `json:"minTicks"`
	MaxTicks int `json:"maxTicks"`
}

func (d durationWire) spec() DurationSpec {
	return DurationSpec{MinTicks: d.MinTicks, MaxTicks: d.MaxTicks}
}

type actionWire struct {
	Kind        string         `json:"kind"`
	ID          string         `json:"id"`
	Skill       string         `json:"skill"`
	UnlockLevel int            `json:"unlockLevel"`
	Duration    durationWire   `json:"duration"`
	XP          float64        `json:"xp"`
	Inputs      map[string]int `json:"inputs"`
	Outputs     map[string]int `json:"outputs"`
	Recipes     []Recipe       `json:"recipes"`
	Passive     bool           `json:"passive"`

	// thieving
	Perception           int `json:"perception"`
	MaxGold              int `json:"maxGold"`
	StunnedDurationTicks int `json:"stunnedDurationTicks"`

	// combat / thieving share maxHit
	MaxHit int `json:"maxHit"`

	// combat
	AttackSpeedTicks int     `json:"attackSpeedTicks"`
	DamageReduction  float64 `json:"damageReduction"`
	MonsterHP        int     `json:"monsterHp"`
	RespawnTicks     int     `json:"respawnTicks"`
	GPDropMin        int     `json:"gpDropMin"`
	GPDropMax        int     `json:"gpDropMax"`
	Drops            []Drop  `json:"drops"`
	RestartOverhead  int     `json:"restartOverheadTicks"`
}

type shopWire struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	BuyLimit         int                `json:"buyLimit"`
	RequiresLevel    map[string]int     `json:"requiresLevel"`
	RequiresPurchase []string           `json:"requiresPurchase"`
	PercentModifier  map[string]float64 `json:"percentModifier"`
	IsBankSlot       bool               `json:"isBankSlot"`
	CostType         string             `json:"costType"` // "bankSlot" | "flat"
	FlatCost         int                `json:"flatCost"`
}

// Load builds a Registry from the embedded catalog JSON (items.json,
// actions.json, shop.json). Called once at process start; the returned
// Registry is never mutated afterward (design doc Section 9: "registries
// as static tables").
func Load() (*Registry, error) {
	items, err := loadItems()
	if err != nil {
		return nil, fmt.Errorf("catalog: load items: %w", err)
	}
	actions, err := loadActions()
	if err != nil {
		return nil, fmt.Errorf("catalog: load actions: %w", err)
	}
	shop, err := loadShop()
	if err != nil {
		return nil, fmt.Errorf("catalog: load shop: %w", err)
	}
	return &Registry{
		Items:     items,
		Actions:   actions,
		Shop:      shop,
		XP:        DefaultXPTable(maxLevel),
		MasteryXP: DefaultXPTable(maxLevel),
	}, nil
}

func loadItems() (map[string]Item, error) {
	raw, err := embedded.ReadFile("data/items.json")
	if err != nil {
		return nil, err
	}
	var list []Item
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	out := make(map[string]Item, len(list))
	for _, it := range list {
		out[it.ID] = it
	}
	return out, nil
}

func loadActions() (map[string]Action, error) {
	raw, err := embedded.ReadFile("data/actions.json")
	if err != nil {
		return nil, err
	}
	var list []actionWire
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	out := make(map[string]Action, len(list))
	for _, w := range list {
		skill, ok := SkillByName(w.Skill)
		if !ok {
			return nil, fmt.Errorf("catalog: action %q: unknown skill %q", w.ID, w.Skill)
		}
		base := SkillAction{
			ActionID:    w.ID,
			SkillType:   skill,
			Unlock:      w.UnlockLevel,
			Dur:         w.Duration.spec(),
			XPReward:    w.XP,
			InputItems:  w.Inputs,
			OutputItems: w.Outputs,
			RecipeList:  w.Recipes,
			IsPassive:   w.Passive,
		}
		switch w.Kind {
		case "skill":
			out[w.ID] = base
		case "thieving":
			out[w.ID] = ThievingAction{
				SkillAction:          base,
				Perception:           w.Perception,
				MaxGold:              w.MaxGold,
				MaxHit:               w.MaxHit,
				StunnedDurationTicks: w.StunnedDurationTicks,
			}
		case "combat":
			out[w.ID] = CombatAction{
				ActionID:         w.ID,
				SkillType:        skill,
				Unlock:           w.UnlockLevel,
				AttackSpeedTicks: w.AttackSpeedTicks,
				MaxHit:           w.MaxHit,
				DamageReduction:  w.DamageReduction,
				MonsterHP:        w.MonsterHP,
				RespawnTicks:     w.RespawnTicks,
				GPDropMin:        w.GPDropMin,
				GPDropMax:        w.GPDropMax,
				DropTable:        w.Drops,
				RestartOverhead:  w.RestartOverhead,
			}
		default:
			return nil, fmt.Errorf("catalog: action %q: unknown kind %q", w.ID, w.Kind)
		}
	}
	return out, nil
}

func loadShop() (map[string]ShopPurchase, error) {
	raw, err := embedded.ReadFile("data/shop.json")
	if err != nil {
		return nil, err
	}
	var list []shopWire
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	out := make(map[string]ShopPurchase, len(list))
	for _, w := range list {
		reqLevel := make(map[SkillID]int, len(w.RequiresLevel))
		for name, lvl := range w.RequiresLevel {
			sk, ok := SkillByName(name)
			if !ok {
				return nil, fmt.Errorf("catalog: purchase %q: unknown skill %q", w.ID, name)
			}
			reqLevel[sk] = lvl
		}
		pct := make(map[SkillID]float64, len(w.PercentModifier))
		for name, v := range w.PercentModifier {
			sk, ok := SkillByName(name)
			if !ok {
				return nil, fmt.Errorf("catalog: purchase %q: unknown skill %q", w.ID, name)
			}
			pct[sk] = v
		}

		var costFn func(owned int) int
		switch w.CostType {
		case "bankSlot":
			costFn = NextBankSlotCost
		case "flat":
			flat := w.FlatCost
			costFn = func(owned int) int { return flat }
		default:
			return nil, fmt.Errorf("catalog: purchase %q: unknown cost type %q", w.ID, w.CostType)
		}

		out[w.ID] = ShopPurchase{
			ID:               w.ID,
			Name:             w.Name,
			CostFn:           costFn,
			BuyLimit:         w.BuyLimit,
			RequiresLevel:    reqLevel,
			RequiresPurchase: w.RequiresPurchase,
			PercentModifier:  pct,
			IsBankSlot:       w.IsBankSlot,
		}
	}
	return out, nil
}
