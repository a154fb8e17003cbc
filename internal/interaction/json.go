package interaction

import (
	"encoding/json"
	"fmt"
)

type interactionWire struct {
	Type       string `json:"type"`
	ActionID   string `json:"actionId,omitempty"`
	PurchaseID string `json:"purchaseId,omitempty"`
	Policy     json.RawMessage `json:"policy,omitempty"`
}

// MarshalJSON renders the tagged-object wire format documented for
// Interaction: SwitchActivity{actionId}, BuyShopItem{purchaseId},
// SellItems{policy}.
func MarshalJSON(i Interaction) ([]byte, error) {
	switch v := i.(type) {
	case SwitchActivity:
		return json.Marshal(interactionWire{Type: "SwitchActivity", ActionID: v.ActionID})
	case BuyShopItem:
		return json.Marshal(interactionWire{Type: "BuyShopItem", PurchaseID: v.PurchaseID})
	case SellItems:
		policy, err := marshalSellPolicy(v.Policy)
		if err != nil {
			return nil, err
		}
		return json.Marshal(interactionWire{Type: "SellItems", Policy: policy})
	default:
		return nil, fmt.Errorf("interaction: unknown kind %T", i)
	}
}

// UnmarshalJSON parses the tagged-object wire format back into an
// Interaction.
func UnmarshalJSON(data []byte) (Interaction, error) {
	var w interactionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "SwitchActivity":
		return SwitchActivity{ActionID: w.ActionID}, nil
	case "BuyShopItem":
		return BuyShopItem{PurchaseID: w.PurchaseID}, nil
	case "SellItems":
		policy, err := unmarshalSellPolicy(w.Policy)
		if err != nil {
			return nil, err
		}
		return SellItems{Policy: policy}, nil
	default:
		return nil, fmt.Errorf("interaction: unknown type %q", w.Type)
	}
}

type sellPolicyWire struct {
	Type      string   `json:"type"`
	KeepItems []string `json:"keepItems,omitempty"`
}

func marshalSellPolicy(p SellPolicy) (json.RawMessage, error) {
	switch v := p.(type) {
	case SellAll:
		return json.Marshal(sellPolicyWire{Type: "SellAllPolicy"})
	case SellExcept:
		keep := make([]string, 0, len(v.Keep))
		for id := range v.Keep {
			keep = append(keep, id)
		}
		return json.Marshal(sellPolicyWire{Type: "SellExceptPolicy", KeepItems: keep})
	default:
		return nil, fmt.Errorf("interaction: unknown sell policy %T", p)
	}
}

func unmarshalSellPolicy(data json.RawMessage) (SellPolicy, error) {
	var w sellPolicyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "SellAllPolicy":
		return SellAll{}, nil
	case "SellExceptPolicy":
		keep := make(map[string]bool, len(w.KeepItems))
		for _, id := range w.KeepItems {
			keep[id] = true
		}
		return SellExcept{Keep: keep}, nil
	default:
		return nil, fmt.Errorf("interaction: unknown sell policy type %q", w.Type)
	}
}
