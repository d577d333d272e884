package graphite

// loadSilf parses one Silf sub-table: version, boundary indices, flags,
// attribute indices, justification table, ligature gid, pass offsets,
// pseudo-glyph map, class map, then each pass's payload in turn. Field
// order follows spec.md §6's "Silf header layout".
func loadSilf(buf []byte) (*Silf, error) {
	const table = "Silf"
	r := newByteReader(table, buf)

	version, err := r.u16()
	if err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // minor version / compilerVersion low word
		return nil, err
	}
	if _, err := r.u32(); err != nil { // compiler version
		return nil, err
	}
	if _, err := r.u16(); err != nil { // max glyph id
		return nil, err
	}
	if _, err := r.i16(); err != nil { // extra ascent
		return nil, err
	}
	if _, err := r.i16(); err != nil { // extra descent
		return nil, err
	}
	numPasses, err := r.u8()
	if err != nil {
		return nil, err
	}
	sPass, err := r.u8()
	if err != nil {
		return nil, err
	}
	pPass, err := r.u8()
	if err != nil {
		return nil, err
	}
	jPass, err := r.u8()
	if err != nil {
		return nil, err
	}
	bPass, err := r.u8()
	if err != nil {
		return nil, err
	}
	flags, err := r.u8()
	if err != nil {
		return nil, err
	}
	if _, err := r.u8(); err != nil { // max pre/post context packed byte
		return nil, err
	}

	attrIdx := make([]uint16, 9)
	for i := range attrIdx {
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		attrIdx[i] = v
	}

	numJusts, err := r.u8()
	if err != nil {
		return nil, err
	}
	justLevels := make([]justLevelInfo, numJusts)
	for i := range justLevels {
		stretch, err := r.u16()
		if err != nil {
			return nil, err
		}
		shrink, err := r.u16()
		if err != nil {
			return nil, err
		}
		step, err := r.u16()
		if err != nil {
			return nil, err
		}
		weight, err := r.u16()
		if err != nil {
			return nil, err
		}
		justLevels[i] = justLevelInfo{int(stretch), int(shrink), int(step), int(weight)}
	}

	ligGID, err := r.u16()
	if err != nil {
		return nil, err
	}

	passOffsets := make([]uint32, int(numPasses)+1)
	for i := range passOffsets {
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		passOffsets[i] = v
	}

	pseudoMap, err := readPseudoMap(r)
	if err != nil {
		return nil, err
	}

	classMapOffset := r.pos
	classes, err := readClassMap(buf, classMapOffset, version)
	if err != nil {
		return nil, err
	}

	s := &Silf{
		sPass: int(sPass), pPass: int(pPass), jPass: int(jPass),
		bPass:      int(bPass),
		endLineGID: GID(ligGID),
		direction:  directionFromFlags(flags),
		pseudoMap:  pseudoMap,
		classes:    classes,
		justLevels: justLevels,

		attrBreak:     int(attrIdx[0]),
		attrBidiClass: int(attrIdx[1]),
		attrMirror:    int(attrIdx[2]),
		attrPassBits:  int(attrIdx[3]),
		attrLig:       int(attrIdx[4]),
		attrUser:      int(attrIdx[5]),
		attrMaxComp:   int(attrIdx[6]),
		attrCollision: int(attrIdx[7]),
	}
	if s.bPass == 0 {
		s.bPass = noBidiPass
	}

	base := classMapOffset
	s.passes = make([]Pass, numPasses)
	loadOrder := 0
	for i := 0; i < int(numPasses); i++ {
		start, end := base+int(passOffsets[i]), base+int(passOffsets[i+1])
		body, err := sliceRange(table, buf, start, end)
		if err != nil {
			return nil, err
		}
		pass, consumed, err := loadPass(body, classes, loadOrder)
		if err != nil {
			return nil, err
		}
		s.passes[i] = *pass
		loadOrder += len(pass.rules)
		_ = consumed
	}

	return s, nil
}

func directionFromFlags(flags uint8) Direction {
	switch flags & 0x03 {
	case 1:
		return DirRTL
	case 2:
		return DirNone
	default:
		return DirLTR
	}
}

func readPseudoMap(r *byteReader) (map[rune]GID, error) {
	n, err := r.u16()
	if err != nil {
		return nil, err
	}
	m := make(map[rune]GID, n)
	for i := 0; i < int(n); i++ {
		ch, err := r.u32()
		if err != nil {
			return nil, err
		}
		gid, err := r.u16()
		if err != nil {
			return nil, err
		}
		m[rune(ch)] = GID(gid)
	}
	return m, nil
}
