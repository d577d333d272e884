package graphite

// KernMode names kerning within one word vs. across whitespace, per
// spec.md §4.10. collisionKern applies the same rule in both modes.
type KernMode uint8

const (
	KernInWord KernMode = iota
	KernCrossSpace
)

// Pass is one shaping stage: an FSM over a glyph→column lookup, a rule
// table, an optional pass-level constraint program, and (for
// collision-enabled passes) the Collider's iteration parameters.
// Grounded on original_source/inc/Pass.h's field list.
type Pass struct {
	classes *classMap

	startStates  []int // indexed by [maxPreCtxt - precontext]
	transitions  []int // numTransition * numColumns
	numColumns   int
	numStates    int
	successStart int
	states       []ruleEntry // rule candidates per state ≥ successStart

	rules []Rule

	passConstraint *Code

	reverseDirection bool
	maxLoop          int

	collisionLoops int
	kernMode       KernMode
	collThreshold  uint8
	isCollision    bool
}

// runGraphite executes this pass's substitution/positioning and (if
// applicable) collision work against the whole segment, per spec.md
// §4.5's pseudocode.
func (p *Pass) runGraphite(seg *Segment, ctx *ShapingContext, reverse bool) error {
	buf := seg.buf
	if buf.first == nil {
		return nil
	}
	if p.passConstraint != nil {
		fv := seg.features
		m := newMachine(ctx, seg, seg.face, fv, p.classes)
		ctx.reset(buf.first, 0)
		for s := buf.first; s != nil; s = s.next {
			ctx.pushSlot(s)
		}
		v, status := m.Run(p.passConstraint)
		if status != StatusFinished || v == 0 {
			return nil
		}
	}

	if reverse {
		buf.reverseSlots()
	}

	if len(p.rules) > 0 {
		if err := p.runRules(seg, ctx); err != nil {
			return err
		}
	}

	if p.isCollision {
		if !seg.positioned {
			seg.advance = positionSlots(buf, buf.first, buf.last, seg.isRTL(), true, seg.scale)
			seg.positioned = true
		}
		if p.collisionLoops > 0 {
			collisionShift(seg, p.collisionLoops)
		}
		if p.kernMode == KernCrossSpace || p.collisionLoops > 0 {
			collisionKern(seg, p.kernMode)
		}
		collisionFinish(seg)
	}
	return nil
}

func (p *Pass) runRules(seg *Segment, ctx *ShapingContext) error {
	buf := seg.buf
	slot := buf.first
	highwater := slot.next
	loopBudget := p.maxLoop
	if loopBudget <= 0 {
		loopBudget = 1
	}
	budget := loopBudget

	for slot != nil {
		next, err := p.findAndApplyRule(seg, ctx, slot)
		if err != nil {
			return err
		}

		passedHighwater := highwater == nil || slotAfter(next, highwater)
		budget--
		if passedHighwater || ctx.highpassed || budget == 0 {
			if budget == 0 {
				next = highwater
			}
			budget = loopBudget
			if next != nil {
				highwater = next.next
			}
		}
		slot = next
	}
	return nil
}

// slotAfter reports whether a occurs at or after b in buffer order,
// scanning forward from b (bounded, since the window this is used over
// is small relative to the segment).
func slotAfter(a, b *Slot) bool {
	if a == nil {
		return true
	}
	for s := b; s != nil; s = s.next {
		if s == a {
			return true
		}
	}
	return false
}

// findAndApplyRule implements spec.md §4.5's findAndApplyRule: run the FSM
// to accumulate candidates, try each in sort-descending order until one's
// constraint passes, run its action, and advance the cursor.
func (p *Pass) findAndApplyRule(seg *Segment, ctx *ShapingContext, slot *Slot) (*Slot, error) {
	maxPreCtxt := p.maxPreContext()
	start := ctx.reset(slot, maxPreCtxt)

	candidates := p.runFSM(ctx, start)
	if len(candidates) == 0 {
		if slot.next == nil {
			return nil, nil
		}
		return slot.next, nil
	}

	for _, rule := range candidates {
		fv := seg.features
		cm := newMachine(ctx, seg, seg.face, fv, p.classes)
		if rule.Constraint != nil {
			v, status := cm.Run(rule.Constraint)
			if status != StatusFinished || v == 0 {
				continue
			}
		}

		am := newMachine(ctx, seg, seg.face, fv, p.classes)
		am.cursor = 0
		adv, status := am.Run(rule.Action)
		if status != StatusFinished {
			continue
		}

		ctx.collectGarbage(seg.buf, slot)

		cursor := slot
		if adv >= 0 {
			for i := int32(0); i < adv && cursor != nil; i++ {
				cursor = cursor.next
			}
		} else {
			for i := int32(0); i > adv && cursor != nil; i-- {
				if cursor.prev != nil {
					cursor = cursor.prev
				}
			}
		}
		if cursor == nil {
			return nil, nil
		}
		return cursor, nil
	}

	if slot.next == nil {
		return nil, nil
	}
	return slot.next, nil
}

func (p *Pass) maxPreContext() int {
	return len(p.startStates) - 1
}

// runFSM executes spec.md §4.5.1's FSM traversal starting at start (the
// earliest pre-context slot ctx.reset backed up to, or the anchor itself
// when there is no pre-context), merging each visited success-state's
// rule list into the candidate set (capped at MaxRules). Every visited
// slot is pushed into ctx's input map and has its glyph class looked up
// and run through a real transition, the pre-context glyphs included —
// grounded on original_source's Pass::runFSM, which walks its iterator
// from the same reset-backed-up position rather than starting at the
// anchor.
func (p *Pass) runFSM(ctx *ShapingContext, start *Slot) []*Rule {
	if len(p.startStates) == 0 {
		return nil
	}
	maxPreCtxt := p.maxPreContext()
	idx := maxPreCtxt - ctx.precontext
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.startStates) {
		idx = len(p.startStates) - 1
	}
	state := p.startStates[idx]

	var candidates []*Rule
	freeSlots := 64 // MAX_SLOTS window per spec.md §5
	s := start

	for {
		ctx.pushSlot(s)
		col := p.classes.column(s.GID)
		freeSlots--
		if col == 0xFFFF || freeSlots <= 0 || state*p.numColumns+int(col) >= len(p.transitions) {
			break
		}
		state = p.transitions[state*p.numColumns+int(col)]
		if state >= p.successStart && state-p.successStart < len(p.states) {
			candidates = mergeRules(candidates, p.states[state-p.successStart].rules)
		}
		if s.next == nil || state == 0 {
			break
		}
		s = s.next
	}
	return candidates
}
