package graphite

import "testing"

// buildPrecontextPass wires a two-state FSM requiring exactly one
// pre-context glyph of class A (gid 10) before an anchor of class C
// (gid 30): state 0 --A--> state 1 --C--> success. Anything else
// preceding the anchor must fail to match, since runFSM must run real
// column transitions over the pre-context glyph, not just count it.
func buildPrecontextPass(rule *Rule) *Pass {
	return &Pass{
		classes: &classMap{linear: [][]GID{{10}, {20}, {30}}},
		startStates: []int{0, 1},
		transitions: []int{
			1, 0, 0, // state 0: col0(A) -> state 1
			0, 0, 10, // state 1: col2(C) -> state 10 (success)
		},
		numColumns:   3,
		numStates:    2,
		successStart: 10,
		states:       []ruleEntry{{rules: []*Rule{rule}}},
	}
}

func TestRunFSMConsultsPreContextGlyphIdentity(t *testing.T) {
	rule := &Rule{PreContext: 1, Sort: 2, loadOrder: 0}
	p := buildPrecontextPass(rule)

	t.Run("wrong preceding glyph does not match", func(t *testing.T) {
		buf := newSlotBuffer(0, 2)
		buf.append(GID(99), 0) // not in any class
		anchor := buf.append(GID(30), 1)

		ctx := newShapingContext(&Segment{buf: buf}, 100)
		start := ctx.reset(anchor, p.maxPreContext())
		candidates := p.runFSM(ctx, start)
		if len(candidates) != 0 {
			t.Fatalf("got %d candidates, want 0: an unrelated preceding glyph must not satisfy the pre-context", len(candidates))
		}
	})

	t.Run("matching preceding glyph class matches", func(t *testing.T) {
		buf := newSlotBuffer(0, 2)
		buf.append(GID(10), 0) // class A, satisfies pre-context
		anchor := buf.append(GID(30), 1)

		ctx := newShapingContext(&Segment{buf: buf}, 100)
		start := ctx.reset(anchor, p.maxPreContext())
		candidates := p.runFSM(ctx, start)
		if len(candidates) != 1 || candidates[0] != rule {
			t.Fatalf("got %v, want exactly [rule]", candidates)
		}
		// the pre-context slot itself must have been pushed into the map.
		if ctx.precontext != 1 || ctx.at(0) != buf.first {
			t.Fatalf("pre-context slot was not pushed into the map: precontext=%d at(0)=%v", ctx.precontext, ctx.at(0))
		}
	})
}

func TestFindAndApplyRuleDoesNotDuplicatePushes(t *testing.T) {
	// A rule whose action just returns true (cursor advance 1); the
	// window pushed during matching must contain each slot exactly once.
	action := buildCode(false, instr{op: opRetTrue})
	rule := &Rule{PreContext: 0, Sort: 1, Action: action}

	p := &Pass{
		classes:      &classMap{linear: [][]GID{{30}, {31}}},
		startStates:  []int{0},
		transitions:  []int{1, 0, 0, 10}, // state0: col0->1, col1->0 ; state1: col0->0, col1->10
		numColumns:   2,
		numStates:    2,
		successStart: 10,
		states:       []ruleEntry{{rules: []*Rule{rule}}},
	}

	buf := newSlotBuffer(0, 2)
	a := buf.append(GID(30), 0)
	buf.append(GID(31), 1)

	seg := &Segment{buf: buf, face: &Face{glyphs: &GlyphCache{numGlyphs: 64, cache: map[GID]*GlyphFace{}}}, features: &FeatureVal{}}
	ctx := newShapingContext(seg, 100)

	_, err := p.findAndApplyRule(seg, ctx, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ctx.win) != 2 {
		t.Fatalf("ctx.win has %d entries, want 2 (no duplicate pushes): %v", len(ctx.win), ctx.win)
	}
}
