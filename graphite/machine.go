package graphite

// Status is the Machine's exit condition, per spec.md §4.9.
type Status uint8

const (
	StatusFinished Status = iota
	StatusStackUnderflow
	StatusStackOverflow
	StatusStackNotEmpty
	StatusSlotOffsetOutOfBounds
	StatusDiedEarly
)

const (
	stackCapacity = 1024
	stackGuard    = 2
)

// Machine is the stack-based interpreter that evaluates one constraint or
// action program against a slot window. Only a single, call-threaded
// implementation is built: spec.md §9 names the direct/call-threading
// split as a performance trick, not a semantic difference.
type Machine struct {
	stack    [stackCapacity + 2*stackGuard]int32
	sp       int // index of the next free slot, within the guarded region
	status   Status
	ctx      *ShapingContext
	seg      *Segment
	cursor   int // logical slot offset, relative to precontext
	face     *Face
	featVal  *FeatureVal
	classes  *classMap // active pass's Silf class map, for put_subs
	outSlots []*Slot   // slots emitted by copy_next, appended to the output stream
}

func newMachine(ctx *ShapingContext, seg *Segment, face *Face, fv *FeatureVal, classes *classMap) *Machine {
	m := &Machine{ctx: ctx, seg: seg, face: face, featVal: fv, classes: classes}
	m.sp = stackGuard
	return m
}

func (m *Machine) push(v int32) {
	if m.sp >= stackCapacity+stackGuard {
		m.status = StatusStackOverflow
		return
	}
	m.stack[m.sp] = v
	m.sp++
}

func (m *Machine) pop() int32 {
	if m.sp <= stackGuard {
		m.status = StatusStackUnderflow
		return 0
	}
	m.sp--
	return m.stack[m.sp]
}

func (m *Machine) ok() bool { return m.status == StatusFinished }

// Run executes code against the machine's current window, returning the
// single value left on the stack (the rule's constraint truth value, or
// the action's cursor advance) and the exit status.
func (m *Machine) Run(code *Code) (int32, Status) {
	m.status = StatusFinished
	m.sp = stackGuard
	var ret int32
	returned := false

	for i := 0; i < len(code.instrs); i++ {
		in := code.instrs[i]
		if m.status != StatusFinished {
			break
		}
		switch in.op {
		case opNop:
			// no-op
		case opCntxtItem:
			// skip the inner block (operand[1] bytes) unless the offset
			// names the current cursor
			if m.cursor != int(int8(in.operand[0])) {
				for skip := int(in.operand[1]); skip > 0 && i+1 < len(code.instrs); {
					i++
					skip -= 1 + len(code.instrs[i].operand)
				}
			}
		case opPushByte:
			m.push(int32(int8(in.operand[0])))
		case opPushByteU:
			m.push(int32(in.operand[0]))
		case opPushShort:
			m.push(int32(int16(u16be(in.operand))))
		case opPushShortU:
			m.push(int32(u16be(in.operand)))
		case opPushLong:
			m.push(int32(u32be(in.operand)))
		case opPopRet:
			ret, returned = m.pop(), true
		case opRetZero:
			ret, returned = 0, true
		case opRetTrue:
			ret, returned = 1, true

		case opAdd:
			b, a := m.pop(), m.pop()
			m.push(a + b)
		case opSub:
			b, a := m.pop(), m.pop()
			m.push(a - b)
		case opMul:
			b, a := m.pop(), m.pop()
			m.push(a * b)
		case opDiv:
			b, a := m.pop(), m.pop()
			if b == 0 || (a == -1<<31 && b == -1) {
				m.status = StatusDiedEarly
				break
			}
			m.push(a / b)
		case opMin:
			b, a := m.pop(), m.pop()
			if a < b {
				m.push(a)
			} else {
				m.push(b)
			}
		case opMax:
			b, a := m.pop(), m.pop()
			if a > b {
				m.push(a)
			} else {
				m.push(b)
			}
		case opNeg:
			m.push(-m.pop())
		case opTrunc8:
			m.push(int32(int8(m.pop())))
		case opTrunc16:
			m.push(int32(int16(m.pop())))

		case opAnd:
			b, a := m.pop(), m.pop()
			m.push(boolToInt(a != 0 && b != 0))
		case opOr:
			b, a := m.pop(), m.pop()
			m.push(boolToInt(a != 0 || b != 0))
		case opNot:
			m.push(boolToInt(m.pop() == 0))
		case opEqual:
			b, a := m.pop(), m.pop()
			m.push(boolToInt(a == b))
		case opNotEq:
			b, a := m.pop(), m.pop()
			m.push(boolToInt(a != b))
		case opLess:
			b, a := m.pop(), m.pop()
			m.push(boolToInt(a < b))
		case opLessEq:
			b, a := m.pop(), m.pop()
			m.push(boolToInt(a <= b))
		case opGtr:
			b, a := m.pop(), m.pop()
			m.push(boolToInt(a > b))
		case opGtrEq:
			b, a := m.pop(), m.pop()
			m.push(boolToInt(a >= b))
		case opBitAnd:
			b, a := m.pop(), m.pop()
			m.push(a & b)
		case opBitOr:
			b, a := m.pop(), m.pop()
			m.push(a | b)
		case opBitNot:
			m.push(^m.pop())
		case opBitSet:
			bit := in.operand[0]
			v, a := m.pop(), m.pop()
			if v != 0 {
				m.push(a | (1 << bit))
			} else {
				m.push(a &^ (1 << bit))
			}

		case opCond:
			fval, tval, test := m.pop(), m.pop(), m.pop()
			if test != 0 {
				m.push(tval)
			} else {
				m.push(fval)
			}

		case opNext:
			m.cursor++
		case opNextN:
			m.cursor += int(int8(in.operand[0]))
		case opCopyNext:
			s := m.ctx.slotAtCursor(m.cursor)
			if s == nil {
				m.status = StatusSlotOffsetOutOfBounds
				break
			}
			cp := m.seg.buf.allocSlot()
			*cp = *s
			cp.kind = SlotCopy
			m.outSlots = append(m.outSlots, cp)
			m.cursor++

		case opPutGlyph:
			s := m.ctx.slotAtCursor(m.cursor)
			if s == nil {
				m.status = StatusSlotOffsetOutOfBounds
				break
			}
			s.GID = GID(m.pop())
		case opPutSubs:
			s := m.ctx.slotAtCursor(m.cursor)
			srcOffset, col, offset := int8(in.operand[0]), in.operand[1], in.operand[2]
			src := m.ctx.slotAtCursor(m.cursor + int(srcOffset))
			if s == nil || src == nil {
				m.status = StatusSlotOffsetOutOfBounds
				break
			}
			if m.classes != nil {
				base := int(m.classes.column(src.GID))
				if gid, ok := m.classes.glyphAt(int(col), base+int(offset)); ok {
					s.GID = gid
				}
			}
		case opInsert:
			s := m.ctx.slotAtCursor(m.cursor)
			if s == nil {
				m.status = StatusSlotOffsetOutOfBounds
				break
			}
			m.seg.buf.insertAfter(s, 0)
		case opDelete:
			s := m.ctx.slotAtCursor(m.cursor)
			if s == nil {
				m.status = StatusSlotOffsetOutOfBounds
				break
			}
			m.seg.buf.remove(s)
		case opAssoc:
			n := int(in.operand[0])
			s := m.ctx.slotAtCursor(m.cursor)
			if s == nil {
				m.status = StatusSlotOffsetOutOfBounds
				break
			}
			if src := m.ctx.slotAtCursor(m.cursor + n); src != nil {
				s.before, s.after = src.before, src.after
			}

		case opAttrSet, opAttrAdd, opAttrSub:
			code := AttrCode(in.operand[0])
			v := m.pop()
			s := m.ctx.slotAtCursor(m.cursor)
			if s == nil {
				m.status = StatusSlotOffsetOutOfBounds
				break
			}
			applyAttr(s, code, v, in.op)
		case opIAttrSet, opIAttrAdd, opIAttrSub:
			idx, sub := in.operand[0], in.operand[1]
			v := m.pop()
			s := m.ctx.slotAtCursor(m.cursor)
			if s == nil {
				m.status = StatusSlotOffsetOutOfBounds
				break
			}
			applyIAttr(s, idx, sub, v, in.op)

		case opPushSlotAttr:
			code, offset := AttrCode(in.operand[0]), int8(in.operand[1])
			s := m.ctx.slotAtCursor(m.cursor + int(offset))
			m.push(readAttr(s, code))
		case opPushGlyphAttr:
			idx, offset := in.operand[0], int8(in.operand[1])
			s := m.ctx.slotAtCursor(m.cursor + int(offset))
			if s == nil {
				m.push(0)
				break
			}
			m.push(int32(m.face.glyphs.GlyphSafe(s.GID).Attr(uint16(idx))))
		case opPushGlyphMetric:
			metric, offset, _ := in.operand[0], int8(in.operand[1]), in.operand[2]
			s := m.ctx.slotAtCursor(m.cursor + int(offset))
			if s == nil {
				m.push(0)
				break
			}
			m.push(int32(m.face.glyphs.GlyphSafe(s.GID).Metric(GlyphMetric(metric))))
		case opPushFeat:
			idx := in.operand[0]
			if int(idx) < len(m.face.features.refs) {
				m.push(int32(m.featVal.Get(&m.face.features.refs[idx])))
			} else {
				m.push(0)
			}
		case opPushAttToGlyphAttr:
			glyphAttr, offset := in.operand[0], int8(in.operand[1])
			s := m.ctx.slotAtCursor(m.cursor + int(offset))
			if s == nil {
				m.push(0)
				break
			}
			if att := s.parent; att != nil {
				s = att
			}
			m.push(int32(m.face.glyphs.GlyphSafe(s.GID).Attr(uint16(glyphAttr))))
		case opPushAttToGlyphMetric:
			metric, offset, _ := in.operand[0], int8(in.operand[1]), in.operand[2]
			s := m.ctx.slotAtCursor(m.cursor + int(offset))
			if s == nil {
				m.push(0)
				break
			}
			if att := s.parent; att != nil {
				s = att
			}
			m.push(int32(m.face.glyphs.GlyphSafe(s.GID).Metric(GlyphMetric(metric))))
		case opPushISlotAttr:
			_, offset, idx := in.operand[0], int8(in.operand[1]), in.operand[2]
			s := m.ctx.slotAtCursor(m.cursor + int(offset))
			if s == nil {
				m.push(0)
				break
			}
			m.push(int32(s.Attr(int(idx))))
		case opPushIGlyphAttr:
			m.push(0) // not implemented upstream either (Machine.h's own push_iglyph_attr is dead code)
		case opPushVersion:
			m.push(int32(engineVersion))
		case opPushProcState:
			m.push(int32(m.seg.dir))

		case opSetFeat:
			idx := in.operand[0]
			v := m.pop()
			if int(idx) < len(m.face.features.refs) {
				m.featVal.Set(&m.face.features.refs[idx], uint32(v))
			}
		}
	}

	if m.status != StatusFinished {
		return 0, m.status
	}
	if !returned {
		return 0, StatusDiedEarly
	}
	if m.sp != stackGuard {
		return 0, StatusStackNotEmpty
	}
	return ret, StatusFinished
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func u16be(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func u32be(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

const engineVersion = 5

func readAttr(s *Slot, code AttrCode) int32 {
	if s == nil {
		return 0
	}
	switch code {
	case AttrShiftX:
		return int32(s.Shift.X)
	case AttrShiftY:
		return int32(s.Shift.Y)
	case AttrAdvX:
		return int32(s.Advance.X)
	case AttrAdvY:
		return int32(s.Advance.Y)
	case AttrBreak:
		return 0
	case AttrAttLevel:
		return int32(s.AttLevel)
	case AttrBidiLevel:
		return int32(s.BidiLevel)
	case AttrBidiClass:
		return int32(s.BidiCls)
	}
	return 0
}

func applyAttr(s *Slot, code AttrCode, v int32, op Opcode) {
	set := func(cur float32) float32 {
		switch op {
		case opAttrAdd:
			return cur + float32(v)
		case opAttrSub:
			return cur - float32(v)
		default:
			return float32(v)
		}
	}
	switch code {
	case AttrShiftX:
		s.Shift.X = set(s.Shift.X)
	case AttrShiftY:
		s.Shift.Y = set(s.Shift.Y)
	case AttrAdvX:
		s.Advance.X = set(s.Advance.X)
	case AttrAdvY:
		s.Advance.Y = set(s.Advance.Y)
	case AttrAttLevel:
		s.AttLevel = int8(set(float32(s.AttLevel)))
	case AttrBidiLevel:
		s.BidiLevel = int8(set(float32(s.BidiLevel)))
	}
}

func applyIAttr(s *Slot, idx, sub uint8, v int32, op Opcode) {
	cur := s.Attr(int(idx))
	var next int16
	switch op {
	case opIAttrAdd:
		next = cur + int16(v)
	case opIAttrSub:
		next = cur - int16(v)
	default:
		next = int16(v)
	}
	s.SetAttr(int(idx), next)
	_ = sub
}
