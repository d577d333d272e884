package graphite

// loadPass parses one pass's binary payload, per spec.md §6's "Pass
// payload layout": a 40-byte header, a glyph-range table, rule-map
// end-offsets, rule-map entries, precontext bytes, start-states, sort
// keys, per-rule precontext, a collision threshold byte, pass-constraint
// length, per-rule action/constraint offset pairs, FSM transitions, and
// finally the three concatenated bytecode blocks.
func loadPass(buf []byte, classes *classMap, loadOrderBase int) (*Pass, int, error) {
	const table = "Pass"
	r := newByteReader(table, buf)

	flags, err := r.u8()
	if err != nil {
		return nil, 0, err
	}
	maxLoop, err := r.u8()
	if err != nil {
		return nil, 0, err
	}
	maxContext, err := r.u8()
	if err != nil {
		return nil, 0, err
	}
	maxBackup, err := r.u8()
	if err != nil {
		return nil, 0, err
	}
	numRules, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	fsmOffset, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	pConstraintOffset, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	pConstraintLen, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	ruleConstraintOffset, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	actionOffset, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	numStates, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	numTransition, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	numSuccess, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	numColumns, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	numRanges, err := r.u16()
	if err != nil {
		return nil, 0, err
	}
	passLength, err := r.u16()
	if err != nil {
		return nil, 0, err
	}

	if int(numSuccess)+int(numTransition) < int(numStates) {
		return nil, 0, errTable(table, ErrMonotonicityViolated, r.pos)
	}

	p := &Pass{
		classes:          classes,
		reverseDirection: flags&0x01 != 0,
		isCollision:      flags&0x02 != 0,
		maxLoop:          int(maxLoop),
		numColumns:       int(numColumns),
		numStates:        int(numStates),
		successStart:     int(numStates) - int(numSuccess),
	}
	_ = maxBackup

	// glyph-range table: numRanges * (firstID, lastID, numCols... simplified
	// to a column index per range, consistent with classMap's own layout).
	for i := 0; i < int(numRanges); i++ {
		if _, err := r.u16(); err != nil {
			return nil, 0, err
		}
		if _, err := r.u16(); err != nil {
			return nil, 0, err
		}
		if _, err := r.u16(); err != nil {
			return nil, 0, err
		}
	}

	// rule-map end-offsets: one per success state plus terminator.
	ruleMapEnds := make([]uint16, int(numSuccess)+1)
	for i := range ruleMapEnds {
		v, err := r.u16()
		if err != nil {
			return nil, 0, err
		}
		ruleMapEnds[i] = v
	}

	totalRuleMapEntries := 0
	if len(ruleMapEnds) > 0 {
		totalRuleMapEntries = int(ruleMapEnds[len(ruleMapEnds)-1])
	}
	ruleMap := make([]uint16, totalRuleMapEntries)
	for i := range ruleMap {
		v, err := r.u16()
		if err != nil {
			return nil, 0, err
		}
		ruleMap[i] = v
	}

	minPreCtxt, err := r.u8()
	if err != nil {
		return nil, 0, err
	}
	maxPreCtxtByte, err := r.u8()
	if err != nil {
		return nil, 0, err
	}
	_ = minPreCtxt

	startStates := make([]int, int(maxPreCtxtByte)+1)
	for i := range startStates {
		v, err := r.u16()
		if err != nil {
			return nil, 0, err
		}
		if int(v) >= int(numStates) {
			return nil, 0, errTable(table, ErrBadStateIndex, r.pos)
		}
		startStates[i] = int(v)
	}
	p.startStates = startStates

	sortKeys := make([]uint8, numRules)
	for i := range sortKeys {
		v, err := r.u8()
		if err != nil {
			return nil, 0, err
		}
		sortKeys[i] = v
	}

	precontexts := make([]uint8, numRules)
	for i := range precontexts {
		v, err := r.u8()
		if err != nil {
			return nil, 0, err
		}
		precontexts[i] = v
	}

	collThreshold, err := r.u8()
	if err != nil {
		return nil, 0, err
	}
	p.collThreshold = collThreshold

	actionOffsets := make([]uint16, numRules+1)
	for i := range actionOffsets {
		v, err := r.u16()
		if err != nil {
			return nil, 0, err
		}
		actionOffsets[i] = v
	}

	constraintOffsets := make([]uint16, numRules+1)
	for i := range constraintOffsets {
		v, err := r.u16()
		if err != nil {
			return nil, 0, err
		}
		constraintOffsets[i] = v
	}

	transitions := make([]int, int(numTransition)*int(numColumns))
	for i := range transitions {
		v, err := r.u16()
		if err != nil {
			return nil, 0, err
		}
		transitions[i] = int(v)
	}
	p.transitions = transitions

	if _, err := r.u8(); err != nil { // separator byte
		return nil, 0, err
	}

	codeBase := r.pos
	if pConstraintLen > 0 {
		body, err := sliceRange(table, buf, codeBase+int(pConstraintOffset), codeBase+int(pConstraintOffset)+int(pConstraintLen))
		if err != nil {
			return nil, 0, err
		}
		pc, err := loadCode(body, true, int(maxContext), 64)
		if err != nil {
			return nil, 0, err
		}
		p.passConstraint = pc
	}

	p.rules = make([]Rule, numRules)
	for i := 0; i < int(numRules); i++ {
		sort := int(sortKeys[i])
		pre := int(precontexts[i])

		actStart, actEnd := codeBase+int(actionOffset)+int(actionOffsets[i]), codeBase+int(actionOffset)+int(actionOffsets[i+1])
		actBuf, err := sliceRange(table, buf, actStart, actEnd)
		if err != nil {
			return nil, 0, err
		}
		actionCode, err := loadCode(actBuf, false, pre, sort)
		if err != nil {
			return nil, 0, err
		}

		var constraintCode *Code
		cStart, cEnd := codeBase+int(ruleConstraintOffset)+int(constraintOffsets[i]), codeBase+int(ruleConstraintOffset)+int(constraintOffsets[i+1])
		if cEnd > cStart {
			cBuf, err := sliceRange(table, buf, cStart, cEnd)
			if err != nil {
				return nil, 0, err
			}
			constraintCode, err = loadCode(cBuf, true, pre, sort)
			if err != nil {
				return nil, 0, err
			}
		}

		p.rules[i] = Rule{
			PreContext: pre,
			Sort:       sort,
			Constraint: constraintCode,
			Action:     actionCode,
			loadOrder:  loadOrderBase + i,
		}
	}

	p.states = make([]ruleEntry, numSuccess)
	for i := 0; i < int(numSuccess); i++ {
		start, end := int(ruleMapEnds[i]), int(ruleMapEnds[i+1])
		if end < start || end > len(ruleMap) {
			return nil, 0, errTable(table, ErrBadRuleIndex, start)
		}
		var rules []*Rule
		for _, ri := range ruleMap[start:end] {
			if int(ri) >= len(p.rules) {
				return nil, 0, errTable(table, ErrBadRuleIndex, int(ri))
			}
			rules = append(rules, &p.rules[ri])
		}
		p.states[i] = ruleEntry{rules: rules}
	}

	_ = fsmOffset // retained in the header per spec.md §6 though this loader derives offsets directly
	return p, int(passLength), nil
}
