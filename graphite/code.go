package graphite

import "fmt"

// Opcode identifies one instruction of the constraint/action bytecode.
// The numeric encoding matches original_source/inc/Machine.h's opcode
// enum order; only the contract (operand shape, constraint-safety) is
// normative per spec.md §9 ("the opcode table, stack discipline, and
// status codes are the normative surface").
type Opcode uint8

const (
	opNop Opcode = iota

	// stack
	opPushByte
	opPushByteU
	opPushShort
	opPushShortU
	opPushLong
	opPopRet
	opRetZero
	opRetTrue

	// arithmetic
	opAdd
	opSub
	opMul
	opDiv
	opMin
	opMax
	opNeg
	opTrunc8
	opTrunc16

	// logical / comparison
	opAnd
	opOr
	opNot
	opEqual
	opNotEq
	opLess
	opLessEq
	opGtr
	opGtrEq
	opBitAnd
	opBitOr
	opBitNot
	opBitSet

	// control
	opCond
	opCntxtItem

	// slot navigation
	opNext
	opNextN
	opCopyNext

	// slot mutation
	opPutGlyph
	opPutSubs
	opInsert
	opDelete
	opAssoc

	// attributes (write)
	opAttrSet
	opAttrAdd
	opAttrSub
	opIAttrSet
	opIAttrAdd
	opIAttrSub

	// attributes (read)
	opPushSlotAttr
	opPushGlyphAttr
	opPushGlyphMetric
	opPushFeat
	opPushAttToGlyphAttr
	opPushAttToGlyphMetric
	opPushIGlyphAttr
	opPushISlotAttr
	opPushVersion
	opPushProcState

	// features
	opSetFeat

	opMaxOpcode
)

// opInfo describes one opcode's shape: its operand byte count, whether it
// may appear in a constraint program, and whether executing it advances
// the logical slot cursor the loader tracks (used to bound cntxt_item and
// slot navigation to [-preContext, sort)).
type opInfo struct {
	name           string
	operandBytes   int // -1 means variable, handled specially by the loader
	constraintSafe bool
	cursorDelta    int
}

var opTable = [opMaxOpcode]opInfo{
	opNop:                  {"nop", 0, true, 0},
	opPushByte:             {"push_byte", 1, true, 0},
	opPushByteU:            {"push_byte_u", 1, true, 0},
	opPushShort:            {"push_short", 2, true, 0},
	opPushShortU:           {"push_short_u", 2, true, 0},
	opPushLong:             {"push_long", 4, true, 0},
	opPopRet:               {"pop_ret", 0, true, 0},
	opRetZero:              {"ret_zero", 0, true, 0},
	opRetTrue:              {"ret_true", 0, true, 0},
	opAdd:                  {"add", 0, true, 0},
	opSub:                  {"sub", 0, true, 0},
	opMul:                  {"mul", 0, true, 0},
	opDiv:                  {"div", 0, true, 0},
	opMin:                  {"min", 0, true, 0},
	opMax:                  {"max", 0, true, 0},
	opNeg:                  {"neg", 0, true, 0},
	opTrunc8:               {"trunc_8", 0, true, 0},
	opTrunc16:              {"trunc_16", 0, true, 0},
	opAnd:                  {"and", 0, true, 0},
	opOr:                   {"or", 0, true, 0},
	opNot:                  {"not", 0, true, 0},
	opEqual:                {"equal", 0, true, 0},
	opNotEq:                {"not_eq", 0, true, 0},
	opLess:                 {"less", 0, true, 0},
	opLessEq:               {"less_eq", 0, true, 0},
	opGtr:                  {"gtr", 0, true, 0},
	opGtrEq:                {"gtr_eq", 0, true, 0},
	opBitAnd:               {"band", 0, true, 0},
	opBitOr:                {"bor", 0, true, 0},
	opBitNot:               {"bnot", 0, true, 0},
	opBitSet:               {"bit_set", 1, true, 0},
	opCond:                 {"cond", 0, true, 0},
	opCntxtItem:            {"cntxt_item", 2, true, 0},
	opNext:                 {"next", 0, true, 1},
	opNextN:                {"next_n", 1, true, 0},
	opCopyNext:             {"copy_next", 0, false, 1},
	opPutGlyph:             {"put_glyph", 0, false, 0},
	opPutSubs:              {"put_subs", 3, false, 0},
	opInsert:               {"insert", 0, false, 0},
	opDelete:               {"delete", 0, false, 0},
	opAssoc:                {"assoc", 1, false, 0},
	opAttrSet:              {"attr_set", 1, false, 0},
	opAttrAdd:              {"attr_add", 1, false, 0},
	opAttrSub:              {"attr_sub", 1, false, 0},
	opIAttrSet:             {"iattr_set", 2, false, 0},
	opIAttrAdd:             {"iattr_add", 2, false, 0},
	opIAttrSub:             {"iattr_sub", 2, false, 0},
	opPushSlotAttr:         {"push_slot_attr", 2, true, 0},
	opPushGlyphAttr:        {"push_glyph_attr", 2, true, 0},
	opPushGlyphMetric:      {"push_glyph_metric", 3, true, 0},
	opPushFeat:             {"push_feat", 1, true, 0},
	opPushAttToGlyphAttr:   {"push_att_to_glyph_attr", 2, true, 0},
	opPushAttToGlyphMetric: {"push_att_to_glyph_metric", 3, true, 0},
	opPushIGlyphAttr:       {"push_iglyph_attr", 3, true, 0},
	opPushISlotAttr:        {"push_islot_attr", 3, true, 0},
	opPushVersion:          {"push_version", 0, true, 0},
	opPushProcState:        {"push_proc_state", 1, true, 0},
	opSetFeat:              {"set_feat", 1, false, 0},
}

// LoadStatus is the result of loading one bytecode program.
type LoadStatus uint8

const (
	LoadOK LoadStatus = iota
	LoadAllocFailed
	LoadInvalidOpcode
	LoadUnimplementedOpcode
	LoadJumpPastEnd
	LoadArgumentsExhausted
	LoadMissingReturn
)

// Code is a loaded, verified constraint or action bytecode program: a flat
// instruction stream (opcode, operand-slice) pairs plus whether it ever
// reached a return. Two threading strategies are a performance trick per
// spec.md §9; this implementation executes the instruction slice directly
// with a single call-threaded Machine (§4.4's direct-threaded variant is
// not built).
type Code struct {
	instrs     []instr
	isConstr   bool
	status     LoadStatus
	maxCursor  int
	minCursor  int
}

type instr struct {
	op      Opcode
	operand []byte
}

// loadCode walks buf as a constraint or action program, verifying every
// opcode is known, appropriate for isConstraint, and that its operands
// don't run past the end of the program.
func loadCode(buf []byte, isConstraint bool, preContext, sort int) (*Code, error) {
	c := &Code{isConstr: isConstraint}
	pos := 0
	cursor := 0
	sawReturn := false

	for pos < len(buf) {
		op := Opcode(buf[pos])
		if op >= opMaxOpcode {
			c.status = LoadInvalidOpcode
			return c, errTable("Code", ErrUnknownOpcode, pos)
		}
		info := opTable[op]
		if isConstraint && !info.constraintSafe {
			c.status = LoadInvalidOpcode
			return c, errTable("Code", ErrOpcodeKindMismatch, pos)
		}
		pos++

		n := info.operandBytes
		if op == opCntxtItem {
			// cntxt_item operand: [offset byte][inner-block length byte].
			// The inner block is skipped entirely when offset doesn't
			// match the cursor; per spec.md §9's open-question
			// resolution we verify the inner block's own net stack
			// effect is zero, not merely that its length operand fits.
			if pos+2 > len(buf) {
				c.status = LoadArgumentsExhausted
				return c, errTable("Code", ErrArgumentUnderflow, pos)
			}
			blockLen := int(buf[pos+1])
			innerStart := pos + 2
			innerEnd := innerStart + blockLen
			if innerEnd > len(buf) {
				c.status = LoadJumpPastEnd
				return c, errTable("Code", ErrJumpPastEnd, pos)
			}
			if delta, err := netStackEffect(buf[innerStart:innerEnd]); err != nil || delta != 0 {
				c.status = LoadJumpPastEnd
				return c, errTable("Code", ErrJumpPastEnd, pos)
			}
		}
		if n < 0 {
			n = 0
		}
		if pos+n > len(buf) {
			c.status = LoadArgumentsExhausted
			return c, errTable("Code", ErrArgumentUnderflow, pos)
		}
		operand := buf[pos : pos+n]
		pos += n

		cursor += info.cursorDelta
		if cursor < -preContext || cursor >= sort {
			return c, errTable("Code", ErrPrecontextOutOfRange, pos)
		}
		if cursor > c.maxCursor {
			c.maxCursor = cursor
		}
		if cursor < c.minCursor {
			c.minCursor = cursor
		}

		c.instrs = append(c.instrs, instr{op: op, operand: operand})
		if op == opPopRet || op == opRetZero || op == opRetTrue {
			sawReturn = true
		}
	}

	if !sawReturn && len(c.instrs) > 0 {
		c.status = LoadMissingReturn
		return c, errTable("Code", ErrDiedEarly, pos)
	}
	c.status = LoadOK
	return c, nil
}

// netStackEffect computes the net number of values a straight-line
// bytecode block leaves on the stack, used only to verify cntxt_item's
// skipped block is balanced. A nested cntxt_item or a variable-length
// opcode inside the block makes it rejected; other opcodes are accepted.
func netStackEffect(buf []byte) (int, error) {
	depth := 0
	pos := 0
	for pos < len(buf) {
		op := Opcode(buf[pos])
		if op >= opMaxOpcode {
			return 0, fmt.Errorf("unknown opcode in cntxt_item block")
		}
		info := opTable[op]
		pos++
		n := info.operandBytes
		if n < 0 || op == opCntxtItem {
			return 0, fmt.Errorf("nested variable-length opcode in cntxt_item block")
		}
		pos += n
		depth += stackDelta(op)
	}
	return depth, nil
}

// stackDelta is the net stack-height change of one opcode, used by
// netStackEffect's balance check.
func stackDelta(op Opcode) int {
	switch op {
	case opPushByte, opPushByteU, opPushShort, opPushShortU, opPushLong,
		opPushSlotAttr, opPushGlyphAttr, opPushGlyphMetric, opPushFeat,
		opPushAttToGlyphAttr, opPushAttToGlyphMetric, opPushIGlyphAttr,
		opPushISlotAttr, opPushVersion, opPushProcState:
		return 1
	case opAdd, opSub, opMul, opDiv, opMin, opMax, opAnd, opOr,
		opEqual, opNotEq, opLess, opLessEq, opGtr, opGtrEq,
		opBitAnd, opBitOr:
		return -1
	case opNeg, opNot, opTrunc8, opTrunc16, opBitNot:
		return 0
	case opCond:
		return -2
	case opPopRet, opRetZero, opRetTrue:
		return 0
	default:
		return 0
	}
}
