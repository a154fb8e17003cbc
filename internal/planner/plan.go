package planner

import (
	"container/heap"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/idlecore/internal/catalog"
	"github.com/talgya/idlecore/internal/interaction"
	"github.com/talgya/idlecore/internal/metrics"
	"github.com/talgya/idlecore/internal/rates"
	"github.com/talgya/idlecore/internal/state"
	"github.com/talgya/idlecore/internal/tick"
	"github.com/talgya/idlecore/internal/waitfor"
	"github.com/talgya/idlecore/internal/xrand"
)

// StepKind discriminates the Plan step tagged union.
type StepKind uint8

const (
	StepInteraction StepKind = iota
	StepWait
)

// Step is one element of a Plan: either an instantaneous Interaction or a
// bounded Wait.
type Step struct {
	Kind        StepKind
	Interaction interaction.Interaction
	Ticks       int
	WaitFor     waitfor.WaitFor
}

// Plan is the sequence of steps the segment search emits.
type Plan struct {
	ID    uuid.UUID
	Steps []Step
}

// BoundaryKind enumerates why a segment stopped.
type BoundaryKind uint8

const (
	BoundaryGoalReached BoundaryKind = iota
	BoundaryInventoryFull
	BoundaryInventoryPressure
	BoundaryPlannedSegmentStop
	BoundaryUpgradeAffordableEarly
	BoundaryUnlockObserved
	BoundaryDeadEnd
	BoundaryHorizonCap
	BoundaryBudgetExceeded
)

// Material reports whether this boundary kind always halts the segment
// (design doc Section 4.6's materiality filter). Conditional kinds
// (UpgradeAffordableEarly, UnlockObserved) are only material when the
// triggering id is in the caller's watch set; callers check that
// separately before treating the boundary as material.
func (b BoundaryKind) Material() bool {
	switch b {
	case BoundaryGoalReached, BoundaryInventoryFull, BoundaryInventoryPressure,
		BoundaryPlannedSegmentStop, BoundaryDeadEnd, BoundaryHorizonCap, BoundaryBudgetExceeded:
		return true
	default:
		return false
	}
}

// Boundary reports why PlanSegment stopped and with what residual state.
type Boundary struct {
	Kind  BoundaryKind
	Ticks int64
}

// SegmentConfig enumerates the stop conditions and policy a segment search
// honors (design doc Section 4.6).
type SegmentConfig struct {
	StopAtUpgradeAffordable    bool
	StopAtUnlockBoundary       bool
	StopAtInputsDepleted       bool
	StopAtInventoryPressure    bool
	InventoryPressureThreshold float64
	MaxSegmentTicks            int64
	SellPolicySpec             interaction.SellPolicySpec
	NodeBudget                 int
	WallTimeBudget             time.Duration
}

// DefaultSegmentConfig matches the documented defaults: inventory pressure
// threshold 0.9, reserve-consuming-inputs sell policy, no horizon cap.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		StopAtUpgradeAffordable:    true,
		StopAtUnlockBoundary:       true,
		StopAtInputsDepleted:       true,
		StopAtInventoryPressure:    true,
		InventoryPressureThreshold: 0.9,
		SellPolicySpec:             interaction.ReserveConsumingInputsSpec{},
		NodeBudget:                 20000,
		WallTimeBudget:             2 * time.Second,
	}
}

// SegmentContext is computed once at segment entry: the goal, config, and
// the sell policy/watch set derived from it (design doc Section 4.6).
type SegmentContext struct {
	Goal       Goal
	Config     SegmentConfig
	SellPolicy interaction.SellPolicy
	Watch      WatchSet
}

// NewSegmentContext builds a SegmentContext for s and goal.
func NewSegmentContext(reg *catalog.Registry, s state.GlobalState, goal Goal, cfg SegmentConfig) SegmentContext {
	cand := EnumerateCandidates(reg, s, goal)
	return SegmentContext{
		Goal:       goal,
		Config:     cfg,
		SellPolicy: cfg.SellPolicySpec.Instantiate(reg, s),
		Watch:      cand.Watch,
	}
}

// node is one frontier entry in the best-first search.
type node struct {
	state        state.GlobalState
	elapsedTicks int64
	interactions int
	plan         []Step
}

func (n *node) clone() *node {
	cp := *n
	cp.state = n.state.Copy()
	cp.plan = append([]Step{}, n.plan...)
	return &cp
}

type frontier []*node

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].elapsedTicks != f[j].elapsedTicks {
		return f[i].elapsedTicks < f[j].elapsedTicks
	}
	return f[i].interactions < f[j].interactions
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(*node)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// bucketKey canonicalises a state into coarse buckets for dominance
// pruning: skill level per watched skill, an inventory-fullness bucket, and
// the active action kind (design doc Section 4.6).
func bucketKey(reg *catalog.Registry, s state.GlobalState, watched []catalog.SkillID) string {
	key := ""
	for _, sk := range watched {
		key += fmt.Sprintf("%d:%d|", sk, reg.XP.LevelForXp(s.SkillStates[sk].XP))
	}
	bucket := 0
	if s.Shop.BankSlots > 0 {
		bucket = int(10 * float64(s.Inventory.SlotsUsed()) / float64(s.Shop.BankSlots))
	}
	key += fmt.Sprintf("inv:%d|", bucket)
	if s.ActiveAction != nil {
		key += "active:" + s.ActiveAction.ActionID
	} else {
		key += "active:none"
	}
	return key
}

// dominates reports whether a has reached at least as far as b on every
// watched axis while spending no more ticks (design doc Section 4.6).
func dominates(reg *catalog.Registry, a, b *node, watched []catalog.SkillID) bool {
	if a.elapsedTicks > b.elapsedTicks {
		return false
	}
	if a.state.GP < b.state.GP {
		return false
	}
	for _, sk := range watched {
		if a.state.SkillStates[sk].XP < b.state.SkillStates[sk].XP {
			return false
		}
	}
	for itemID, count := range b.state.Inventory.Counts {
		if a.state.Inventory.CountOf(itemID) < count {
			return false
		}
	}
	return true
}

// PlanSegment runs the best-first search described in design doc Section
// 4.6, emitting a Plan of interactions and wait edges until the goal is
// reached or a material boundary halts the segment. seed drives both the
// exploratory tick advances used for expected-value accounting and the
// Plan's id.
func PlanSegment(reg *catalog.Registry, start state.GlobalState, ctx SegmentContext, seed uint64) (Plan, Boundary) {
	src := xrand.NewSource(seed)
	startNode := &node{state: start, elapsedTicks: 0}
	fr := &frontier{startNode}
	heap.Init(fr)

	best := make(map[string]*node)
	expanded := 0
	deadline := time.Now().Add(ctx.Config.WallTimeBudget)

	for fr.Len() > 0 {
		expanded++
		metrics.PlannerNodesExpanded.Inc()
		if ctx.Config.NodeBudget > 0 && expanded > ctx.Config.NodeBudget {
			top := heap.Pop(fr).(*node)
			return Plan{ID: newPlanID(seed), Steps: top.plan}, Boundary{Kind: BoundaryBudgetExceeded, Ticks: top.elapsedTicks}
		}
		if ctx.Config.WallTimeBudget > 0 && time.Now().After(deadline) {
			top := heap.Pop(fr).(*node)
			return Plan{ID: newPlanID(seed), Steps: top.plan}, Boundary{Kind: BoundaryBudgetExceeded, Ticks: top.elapsedTicks}
		}

		cur := heap.Pop(fr).(*node)

		if ctx.Goal.IsSatisfied(cur.state) {
			return Plan{ID: newPlanID(seed), Steps: cur.plan}, Boundary{Kind: BoundaryGoalReached, Ticks: cur.elapsedTicks}
		}
		if ctx.Config.MaxSegmentTicks > 0 && cur.elapsedTicks >= ctx.Config.MaxSegmentTicks {
			return Plan{ID: newPlanID(seed), Steps: cur.plan}, Boundary{Kind: BoundaryHorizonCap, Ticks: cur.elapsedTicks}
		}

		key := bucketKey(reg, cur.state, ctx.Watch.WatchedSkills)
		if prior, ok := best[key]; ok && dominates(reg, prior, cur, ctx.Watch.WatchedSkills) {
			continue
		}
		best[key] = cur

		children, boundary, ok := expand(reg, cur, ctx, src)
		if !ok {
			return Plan{ID: newPlanID(seed), Steps: cur.plan}, boundary
		}
		for _, c := range children {
			heap.Push(fr, c)
		}
	}

	return Plan{ID: newPlanID(seed), Steps: startNode.plan}, Boundary{Kind: BoundaryDeadEnd, Ticks: rates.InfTicks}
}

func newPlanID(seed uint64) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("plan-%d", seed)))
}

// intendedAction picks the unlocked action with the maximum XP/tick for the
// goal's pressing subgoal skill.
func intendedAction(reg *catalog.Registry, s state.GlobalState, goal Goal) (catalog.Action, bool) {
	var chosen catalog.Action
	bestXPPerTick := -1.0
	for _, sk := range goal.RelevantSkills() {
		level := reg.XP.LevelForXp(s.SkillStates[sk].XP)
		for _, a := range reg.ActionsForSkill(sk) {
			if a.UnlockLevel() > level {
				continue
			}
			r := rates.EstimateRates(reg, s, a)
			perTick := r.XPPerTick[sk]
			if perTick > bestXPPerTick {
				bestXPPerTick = perTick
				chosen = a
			}
		}
	}
	return chosen, chosen != nil
}

// expand generates the child nodes reachable from cur: the wait edge to
// the next decision delta, plus any competitive buy-upgrade or
// switch-activity interactions available now (design doc Section 4.6).
func expand(reg *catalog.Registry, cur *node, ctx SegmentContext, src xrand.Source) ([]*node, Boundary, bool) {
	cand := EnumerateCandidates(reg, cur.state, ctx.Goal)

	var action catalog.Action
	haveAction := cur.state.ActiveAction != nil
	if haveAction {
		a, err := reg.Action(cur.state.ActiveAction.ActionID)
		if err != nil {
			haveAction = false
		} else {
			action = a
		}
	}
	if !haveAction {
		a, ok := intendedAction(reg, cur.state, ctx.Goal)
		if !ok {
			return nil, Boundary{Kind: BoundaryDeadEnd, Ticks: rates.InfTicks}, false
		}
		action = a

		child := cur.clone()
		step := interaction.SwitchActivity{ActionID: action.ID()}
		out, err := interaction.Apply(reg, child.state, step, planningRand(src, cur))
		if err != nil {
			return nil, Boundary{Kind: BoundaryDeadEnd, Ticks: rates.InfTicks}, false
		}
		child.state = out
		child.plan = append(child.plan, Step{Kind: StepInteraction, Interaction: step})
		child.interactions++
		return []*node{child}, Boundary{}, true
	}

	r := rates.EstimateRates(reg, cur.state, action)
	delta, deltaWait := nextDecisionDelta(reg, cur.state, ctx, action, r, cand)
	if delta <= 0 || delta == rates.InfTicks {
		return nil, Boundary{Kind: BoundaryDeadEnd, Ticks: rates.InfTicks}, false
	}

	var children []*node

	for _, upgradeID := range cand.BuyUpgrades {
		child := cur.clone()
		step := interaction.BuyShopItem{PurchaseID: upgradeID}
		out, err := interaction.Apply(reg, child.state, step, nil)
		if err != nil {
			continue
		}
		child.state = out
		child.plan = append(child.plan, Step{Kind: StepInteraction, Interaction: step})
		child.interactions++
		children = append(children, child)
	}

	waitChild := cur.clone()
	ticks := int(delta)
	advanced, result := tick.Advance(reg, waitChild.state, ticks, src)
	waitChild.state = advanced
	waitChild.elapsedTicks += int64(result.TicksConsumed)
	waitChild.plan = append(waitChild.plan, Step{Kind: StepWait, Ticks: ticks, WaitFor: deltaWait})
	children = append(children, waitChild)

	return children, Boundary{}, true
}

// planningRand derives a throwaway generator for the 0-tick interactions
// the search applies while exploring; it never touches the tick engine's
// own sub-streams so exploration never perturbs execution-time rolls.
func planningRand(src xrand.Source, n *node) *rand.Rand {
	return src.Stream(fmt.Sprintf("plan-explore-%d-%d", n.elapsedTicks, n.interactions))
}

// nextDecisionDelta collects candidate deltas and returns the minimum >= 1
// tick among them, plus the WaitFor describing it (design doc Section
// 4.6 step 1).
func nextDecisionDelta(reg *catalog.Registry, s state.GlobalState, ctx SegmentContext, action catalog.Action, r rates.Rates, cand Candidates) (int64, waitfor.WaitFor) {
	var options []waitfor.WaitFor

	for _, sk := range ctx.Goal.RelevantSkills() {
		if r.XPPerTick[sk] > 0 {
			level := reg.XP.LevelForXp(s.SkillStates[sk].XP)
			if level < reg.XP.MaxLevel() {
				options = append(options, waitfor.SkillXp{Skill: sk, TargetXP: reg.XP.StartXpForLevel(level + 1)})
			}
		}
	}

	for _, id := range ctx.Watch.UpgradePurchaseIDs {
		p, err := reg.Purchase(id)
		if err != nil {
			continue
		}
		cost := p.Cost(s.Shop.Purchased[id])
		if p.IsBankSlot {
			cost = catalog.NextBankSlotCost(s.Shop.BankSlots)
		}
		options = append(options, waitfor.EffectiveCredits{Target: cost, KeepPolicy: keepFunc(ctx.SellPolicy), ItemSellValues: itemSellValues(reg)})
	}

	options = append(options, waitfor.InventoryFull{})

	if action.Skill().Consuming() {
		options = append(options, waitfor.InputsDepleted{ActionID: action.ID(), Items: action.Inputs()})
	}

	best := waitfor.AnyOf{Children: options}
	ticks := best.EstimateTicks(reg, s, r)
	if ticks < 1 {
		ticks = 1
	}
	return ticks, best
}

// itemSellValues snapshots every item's sell value once, so EffectiveCredits
// can evaluate IsSatisfied without a registry in scope.
func itemSellValues(reg *catalog.Registry) map[string]int {
	values := make(map[string]int, len(reg.Items))
	for id, item := range reg.Items {
		values[id] = item.SellValue
	}
	return values
}

func keepFunc(p interaction.SellPolicy) func(string) bool {
	switch v := p.(type) {
	case interaction.SellAll:
		return func(string) bool { return false }
	case interaction.SellExcept:
		return func(id string) bool { return v.Keep[id] }
	default:
		return func(string) bool { return false }
	}
}
