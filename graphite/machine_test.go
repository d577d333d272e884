package graphite

import "testing"

// buildCode assembles a raw instruction stream directly, bypassing
// loadCode's verification, so tests can exercise the Machine in
// isolation from the loader.
func buildCode(isConstr bool, instrs ...instr) *Code {
	return &Code{instrs: instrs, isConstr: isConstr, status: LoadOK}
}

func ctxWithSlots(gids ...GID) (*ShapingContext, *Segment) {
	buf := newSlotBuffer(0, len(gids))
	for i, g := range gids {
		buf.append(g, i)
	}
	seg := &Segment{buf: buf, face: &Face{glyphs: &GlyphCache{numGlyphs: 256, cache: map[GID]*GlyphFace{}}}}
	ctx := newShapingContext(seg, 100)
	ctx.reset(buf.first, 0)
	for s := buf.first; s != nil; s = s.next {
		ctx.pushSlot(s)
	}
	return ctx, seg
}

func TestMachinePushAddReturn(t *testing.T) {
	ctx, seg := ctxWithSlots(1)
	code := buildCode(true,
		instr{op: opPushByte, operand: []byte{3}},
		instr{op: opPushByte, operand: []byte{4}},
		instr{op: opAdd},
		instr{op: opPopRet},
	)
	m := newMachine(ctx, seg, seg.face, &FeatureVal{}, nil)
	ret, status := m.Run(code)
	if status != StatusFinished {
		t.Fatalf("status = %v, want StatusFinished", status)
	}
	if ret != 7 {
		t.Fatalf("ret = %d, want 7", ret)
	}
}

func TestMachineStackUnderflow(t *testing.T) {
	ctx, seg := ctxWithSlots(1)
	code := buildCode(true,
		instr{op: opAdd}, // pops from an empty stack
		instr{op: opPopRet},
	)
	m := newMachine(ctx, seg, seg.face, &FeatureVal{}, nil)
	_, status := m.Run(code)
	if status != StatusStackUnderflow {
		t.Fatalf("status = %v, want StatusStackUnderflow", status)
	}
}

func TestMachineStackOverflow(t *testing.T) {
	ctx, seg := ctxWithSlots(1)
	var instrs []instr
	for i := 0; i < stackCapacity+1; i++ {
		instrs = append(instrs, instr{op: opPushByte, operand: []byte{1}})
	}
	instrs = append(instrs, instr{op: opPopRet})
	code := buildCode(true, instrs...)
	m := newMachine(ctx, seg, seg.face, &FeatureVal{}, nil)
	_, status := m.Run(code)
	if status != StatusStackOverflow {
		t.Fatalf("status = %v, want StatusStackOverflow", status)
	}
}

func TestMachineDiedEarlyWithoutReturn(t *testing.T) {
	ctx, seg := ctxWithSlots(1)
	code := buildCode(true, instr{op: opPushByte, operand: []byte{1}})
	m := newMachine(ctx, seg, seg.face, &FeatureVal{}, nil)
	_, status := m.Run(code)
	if status != StatusDiedEarly {
		t.Fatalf("status = %v, want StatusDiedEarly", status)
	}
}

func TestMachineStackNotEmptyAtReturn(t *testing.T) {
	ctx, seg := ctxWithSlots(1)
	code := buildCode(true,
		instr{op: opPushByte, operand: []byte{1}},
		instr{op: opPushByte, operand: []byte{2}},
		instr{op: opRetTrue}, // leaves the earlier two pushes stranded
	)
	m := newMachine(ctx, seg, seg.face, &FeatureVal{}, nil)
	_, status := m.Run(code)
	if status != StatusStackNotEmpty {
		t.Fatalf("status = %v, want StatusStackNotEmpty", status)
	}
}

func TestMachineDivByZeroDiesEarly(t *testing.T) {
	ctx, seg := ctxWithSlots(1)
	code := buildCode(true,
		instr{op: opPushByte, operand: []byte{1}},
		instr{op: opPushByte, operand: []byte{0}},
		instr{op: opDiv},
		instr{op: opPopRet},
	)
	m := newMachine(ctx, seg, seg.face, &FeatureVal{}, nil)
	_, status := m.Run(code)
	if status != StatusDiedEarly {
		t.Fatalf("status = %v, want StatusDiedEarly", status)
	}
}

func TestMachinePutGlyphMutatesSlot(t *testing.T) {
	ctx, seg := ctxWithSlots(5)
	code := buildCode(false,
		instr{op: opPushShortU, operand: []byte{0, 9}},
		instr{op: opPutGlyph},
		instr{op: opRetTrue},
	)
	m := newMachine(ctx, seg, seg.face, &FeatureVal{}, nil)
	_, status := m.Run(code)
	if status != StatusFinished {
		t.Fatalf("status = %v, want StatusFinished", status)
	}
	if seg.buf.first.GID != 9 {
		t.Fatalf("GID = %d, want 9", seg.buf.first.GID)
	}
}

func TestMachineCondPicksBranch(t *testing.T) {
	ctx, seg := ctxWithSlots(1)
	code := buildCode(true,
		instr{op: opPushByte, operand: []byte{1}}, // test
		instr{op: opPushByte, operand: []byte{11}}, // tval
		instr{op: opPushByte, operand: []byte{22}}, // fval
		instr{op: opCond},
		instr{op: opPopRet},
	)
	m := newMachine(ctx, seg, seg.face, &FeatureVal{}, nil)
	ret, status := m.Run(code)
	if status != StatusFinished || ret != 11 {
		t.Fatalf("ret = %d, status = %v, want 11/Finished", ret, status)
	}
}
