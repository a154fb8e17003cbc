package waitfor

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/idlecore/internal/catalog"
)

type wire struct {
	Type        string          `json:"type"`
	Skill       string          `json:"skill,omitempty"`
	ActionID    string          `json:"actionId,omitempty"`
	TargetXP    float64         `json:"targetXp,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Target      int             `json:"target,omitempty"`
	Fraction    float64         `json:"fraction,omitempty"`
	ItemID      string          `json:"itemId,omitempty"`
	Count       int             `json:"count,omitempty"`
	Delta       int             `json:"delta,omitempty"`
	StartCount  int             `json:"startCount,omitempty"`
	TargetCount int             `json:"targetCount,omitempty"`
	Inner       json.RawMessage `json:"inner,omitempty"`
	Children    []json.RawMessage `json:"children,omitempty"`
	Items       map[string]int  `json:"items,omitempty"`
}

// MarshalJSON renders the tagged-object wire format documented for
// WaitFor (design doc Section 6): type ∈ {WaitForGoal, WaitForSkillXp, ...}.
func MarshalJSON(w WaitFor) ([]byte, error) {
	switch v := w.(type) {
	case Goal:
		inner, err := MarshalJSON(v.Inner)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wire{Type: "WaitForGoal", Inner: inner})
	case SkillXp:
		return json.Marshal(wire{Type: "WaitForSkillXp", Skill: v.Skill.String(), TargetXP: v.TargetXP, Reason: v.Reason})
	case MasteryXp:
		return json.Marshal(wire{Type: "WaitForMasteryXp", ActionID: v.ActionID, TargetXP: v.TargetXP})
	case EffectiveCredits:
		return json.Marshal(wire{Type: "WaitForEffectiveCredits", Target: v.Target, Reason: v.Reason, Items: v.ItemSellValues})
	case InventoryThreshold:
		return json.Marshal(wire{Type: "WaitForInventoryThreshold", Fraction: v.Fraction})
	case InventoryFull:
		return json.Marshal(wire{Type: "WaitForInventoryFull"})
	case InventoryAtLeast:
		return json.Marshal(wire{Type: "WaitForInventoryAtLeast", ItemID: v.ItemID, Count: v.Count})
	case InventoryDelta:
		return json.Marshal(wire{Type: "WaitForInventoryDelta", ItemID: v.ItemID, Delta: v.Delta, StartCount: v.StartCount})
	case InputsDepleted:
		return json.Marshal(wire{Type: "WaitForInputsDepleted", ActionID: v.ActionID, Items: v.Items})
	case InputsAvailable:
		return json.Marshal(wire{Type: "WaitForInputsAvailable", ActionID: v.ActionID, Items: v.Items})
	case SufficientInputs:
		return json.Marshal(wire{Type: "WaitForSufficientInputs", ActionID: v.ActionID, ItemID: v.ItemID, TargetCount: v.TargetCount})
	case AnyOf:
		children := make([]json.RawMessage, 0, len(v.Children))
		for _, c := range v.Children {
			raw, err := MarshalJSON(c)
			if err != nil {
				return nil, err
			}
			children = append(children, raw)
		}
		return json.Marshal(wire{Type: "WaitForAnyOf", Children: children})
	default:
		return nil, fmt.Errorf("waitfor: unknown kind %T", w)
	}
}

// UnmarshalJSON parses the tagged-object wire format back into a WaitFor.
// EffectiveCredits round-trips its resolved ItemSellValues but not its
// KeepPolicy closure — callers must re-attach one via reg/sellPolicySpec
// after parsing, since a function value cannot be serialized.
func UnmarshalJSON(data []byte) (WaitFor, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "WaitForGoal":
		inner, err := UnmarshalJSON(w.Inner)
		if err != nil {
			return nil, err
		}
		return Goal{Inner: inner}, nil
	case "WaitForSkillXp":
		sk, ok := catalog.SkillByName(w.Skill)
		if !ok {
			return nil, fmt.Errorf("waitfor: unknown skill %q", w.Skill)
		}
		return SkillXp{Skill: sk, TargetXP: w.TargetXP, Reason: w.Reason}, nil
	case "WaitForMasteryXp":
		return MasteryXp{ActionID: w.ActionID, TargetXP: w.TargetXP}, nil
	case "WaitForEffectiveCredits":
		return EffectiveCredits{Target: w.Target, Reason: w.Reason, ItemSellValues: w.Items}, nil
	case "WaitForInventoryThreshold":
		return InventoryThreshold{Fraction: w.Fraction}, nil
	case "WaitForInventoryFull":
		return InventoryFull{}, nil
	case "WaitForInventoryAtLeast":
		return InventoryAtLeast{ItemID: w.ItemID, Count: w.Count}, nil
	case "WaitForInventoryDelta":
		return InventoryDelta{ItemID: w.ItemID, Delta: w.Delta, StartCount: w.StartCount}, nil
	case "WaitForInputsDepleted":
		return InputsDepleted{ActionID: w.ActionID, Items: w.Items}, nil
	case "WaitForInputsAvailable":
		return InputsAvailable{ActionID: w.ActionID, Items: w.Items}, nil
	case "WaitForSufficientInputs":
		return SufficientInputs{ActionID: w.ActionID, ItemID: w.ItemID, TargetCount: w.TargetCount}, nil
	case "WaitForAnyOf":
		children := make([]WaitFor, 0, len(w.Children))
		for _, raw := range w.Children {
			c, err := UnmarshalJSON(raw)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return AnyOf{Children: children}, nil
	default:
		return nil, fmt.Errorf("waitfor: unknown type %q", w.Type)
	}
}
