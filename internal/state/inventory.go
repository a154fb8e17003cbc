// Package state provides the immutable core snapshot the engine advances:
// inventory, skill/action states, the active action, gp, hp, shop, and
// time-away bookkeeping. Every mutator takes a GlobalState by value and
// returns a new value — there is no shared mutable state (design doc
// Section 9: "arena-free, value-first state").
package state

// Inventory is an ordered multiset of items: Counts maps item id to
// quantity, and Order records insertion order of distinct ids so that
// "slots used" (design doc Section 3) is well-defined and stable across
// equivalent states built in different orders.
type Inventory struct {
	Counts map[string]int
	Order  []string
}

// NewInventory returns an empty inventory ready for use.
func NewInventory() Inventory {
	return Inventory{Counts: make(map[string]int)}
}

// Copy returns a deep copy so mutators never alias the receiver's maps.
func (inv Inventory) Copy() Inventory {
	counts := make(map[string]int, len(inv.Counts))
	for k, v := range inv.Counts {
		counts[k] = v
	}
	order := make([]string, len(inv.Order))
	copy(order, inv.Order)
	return Inventory{Counts: counts, Order: order}
}

// CountOf returns the quantity of itemID held (0 if absent).
func (inv Inventory) CountOf(itemID string) int {
	return inv.Counts[itemID]
}

// SlotsUsed is the number of distinct item ids held.
func (inv Inventory) SlotsUsed() int {
	return len(inv.Order)
}

// Has reports whether at least `count` units of itemID are held.
func (inv Inventory) Has(itemID string, count int) bool {
	return inv.Counts[itemID] >= count
}

// Add returns a new inventory with delta units of itemID added. delta may
// be negative; Remove is preferred for clarity when removing. isNewType
// reports whether this introduced a previously-unheld item id (used by
// callers to enforce capacity before committing).
func (inv Inventory) Add(itemID string, delta int) (out Inventory, isNewType bool) {
	out = inv.Copy()
	existing, had := out.Counts[itemID]
	newCount := existing + delta
	if newCount <= 0 {
		if had {
			delete(out.Counts, itemID)
			out.Order = removeFromOrder(out.Order, itemID)
		}
		return out, false
	}
	out.Counts[itemID] = newCount
	if !had {
		out.Order = append(out.Order, itemID)
		return out, true
	}
	return out, false
}

// WouldAddNewType reports whether adding itemID (not currently held) would
// introduce a new distinct id, without mutating the inventory.
func (inv Inventory) WouldAddNewType(itemID string) bool {
	_, had := inv.Counts[itemID]
	return !had
}

// Remove returns a new inventory with count units of itemID removed. Fails
// (ok=false) if fewer than count units are held.
func (inv Inventory) Remove(itemID string, count int) (out Inventory, ok bool) {
	if inv.Counts[itemID] < count {
		return inv, false
	}
	out, _ = inv.Add(itemID, -count)
	return out, true
}

func removeFromOrder(order []string, itemID string) []string {
	for i, id := range order {
		if id == itemID {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
