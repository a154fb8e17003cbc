package catalog

import "math"

// XPTable maps level (1-indexed) to the cumulative XP required to reach it.
// XPTable[0] is the XP required for level 1 (always 0). Maximum level is
// len(XPTable).
type XPTable []float64

// DefaultXPTable builds the standard level-1..99 curve used across all
// trainable skills, following the classic idle-game XP curve: level L
// requires floor(sum_{i=1}^{L-1} floor(i + 300*2^(i/7)) / 4) cumulative XP.
func DefaultXPTable(maxLevel int) XPTable {
	table := make(XPTable, maxLevel)
	acc := 0.0
	for level := 1; level <= maxLevel; level++ {
		table[level-1] = float64(int(acc))
		i := float64(level)
		acc += math.Floor(i+300*math.Pow(2, i/7)) / 4
	}
	return table
}

// LevelForXp returns the greatest level L such that xpTable[L-1] <= xp,
// clamped to [1, len(xpTable)].
func (t XPTable) LevelForXp(xp float64) int {
	level := 1
	for i, required := range t {
		if xp >= required {
			level = i + 1
		} else {
			break
		}
	}
	return level
}

// StartXpForLevel returns the cumulative XP required to reach level L.
func (t XPTable) StartXpForLevel(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > len(t) {
		level = len(t)
	}
	return t[level-1]
}

// MaxLevel is the highest level representable by this table.
func (t XPTable) MaxLevel() int { return len(t) }

// Progress returns how far into the current level xp sits, in [0, 1]; it
// returns 1 at the maximum level.
func (t XPTable) Progress(xp float64) float64 {
	level := t.LevelForXp(xp)
	start := t.StartXpForLevel(level)
	if level >= len(t) {
		return 1
	}
	end := t.StartXpForLevel(level + 1)
	if end <= start {
		return 1
	}
	p := (xp - start) / (end - start)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}
