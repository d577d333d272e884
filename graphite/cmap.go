package graphite

import "encoding/binary"

// cmapTable is a minimal Unicode cmap reader: only what Segment's
// character-to-glyph mapping needs, grounded on the teacher's
// fonts/truetype cmap subtable walk, trimmed to formats 4 and 12 (the two
// that cover BMP and supplementary-plane text respectively).
type cmapTable struct {
	seg4  []segment4
	groups []cmapGroup // format 12
}

type segment4 struct {
	startCode, endCode uint16
	idDelta            int16
	idRangeOffset      uint16
	idRangeOffsetPos   int // absolute byte offset of this entry's idRangeOffset field
	buf                []byte
}

type cmapGroup struct {
	startChar, endChar uint32
	startGID           uint32
}

func parseCmap(buf []byte) (*cmapTable, error) {
	const table = "cmap"
	r := newByteReader(table, buf)
	if _, err := r.u16(); err != nil { // version
		return nil, err
	}
	numTables, err := r.u16()
	if err != nil {
		return nil, err
	}

	type encRecord struct {
		platformID, encodingID uint16
		offset                 uint32
	}
	recs := make([]encRecord, numTables)
	for i := range recs {
		pid, err := r.u16()
		if err != nil {
			return nil, err
		}
		eid, err := r.u16()
		if err != nil {
			return nil, err
		}
		off, err := r.u32()
		if err != nil {
			return nil, err
		}
		recs[i] = encRecord{pid, eid, off}
	}

	// Prefer a (3,10) or (0,*) format-12 subtable, else a (3,1) or (0,*)
	// format-4 subtable — the two common full/BMP Unicode encodings.
	var best *encRecord
	bestScore := -1
	for i := range recs {
		score := 0
		switch {
		case recs[i].platformID == 3 && recs[i].encodingID == 10:
			score = 4
		case recs[i].platformID == 0:
			score = 3
		case recs[i].platformID == 3 && recs[i].encodingID == 1:
			score = 2
		default:
			score = 0
		}
		if score > bestScore {
			bestScore = score
			best = &recs[i]
		}
	}
	if best == nil {
		return &cmapTable{}, nil
	}

	if int(best.offset)+2 > len(buf) {
		return nil, errTable(table, ErrOffsetOutOfRange, int(best.offset))
	}
	format := binary.BigEndian.Uint16(buf[best.offset:])
	switch format {
	case 4:
		return parseCmapFormat4(buf, int(best.offset))
	case 12:
		return parseCmapFormat12(buf, int(best.offset))
	default:
		return &cmapTable{}, nil
	}
}

func parseCmapFormat4(buf []byte, offset int) (*cmapTable, error) {
	const table = "cmap"
	r := newByteReader(table, buf)
	if err := r.seek(offset); err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // format
		return nil, err
	}
	if _, err := r.u16(); err != nil { // length
		return nil, err
	}
	if _, err := r.u16(); err != nil { // language
		return nil, err
	}
	segX2, err := r.u16()
	if err != nil {
		return nil, err
	}
	segCount := int(segX2 / 2)
	if _, err := r.u16(); err != nil { // searchRange
		return nil, err
	}
	if _, err := r.u16(); err != nil { // entrySelector
		return nil, err
	}
	if _, err := r.u16(); err != nil { // rangeShift
		return nil, err
	}

	endCodes := make([]uint16, segCount)
	for i := range endCodes {
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		endCodes[i] = v
	}
	if _, err := r.u16(); err != nil { // reservedPad
		return nil, err
	}
	startCodes := make([]uint16, segCount)
	for i := range startCodes {
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		startCodes[i] = v
	}
	idDeltas := make([]int16, segCount)
	for i := range idDeltas {
		v, err := r.i16()
		if err != nil {
			return nil, err
		}
		idDeltas[i] = v
	}
	segs := make([]segment4, segCount)
	for i := range segs {
		pos := r.pos
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		segs[i] = segment4{
			startCode: startCodes[i], endCode: endCodes[i], idDelta: idDeltas[i],
			idRangeOffset: v, idRangeOffsetPos: pos, buf: buf,
		}
	}
	return &cmapTable{seg4: segs}, nil
}

func parseCmapFormat12(buf []byte, offset int) (*cmapTable, error) {
	const table = "cmap"
	r := newByteReader(table, buf)
	if err := r.seek(offset); err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // format
		return nil, err
	}
	if _, err := r.u16(); err != nil { // reserved
		return nil, err
	}
	if _, err := r.u32(); err != nil { // length
		return nil, err
	}
	if _, err := r.u32(); err != nil { // language
		return nil, err
	}
	numGroups, err := r.u32()
	if err != nil {
		return nil, err
	}
	groups := make([]cmapGroup, numGroups)
	for i := range groups {
		start, err := r.u32()
		if err != nil {
			return nil, err
		}
		end, err := r.u32()
		if err != nil {
			return nil, err
		}
		startGID, err := r.u32()
		if err != nil {
			return nil, err
		}
		groups[i] = cmapGroup{start, end, startGID}
	}
	return &cmapTable{groups: groups}, nil
}

// Lookup maps a Unicode scalar value to a glyph id, or 0 (".notdef") if the
// cmap declares none.
func (c *cmapTable) Lookup(r rune) GID {
	if c == nil {
		return 0
	}
	cp := uint32(r)
	for _, g := range c.groups {
		if cp >= g.startChar && cp <= g.endChar {
			return GID(g.startGID + (cp - g.startChar))
		}
	}
	if cp > 0xFFFF {
		return 0
	}
	code := uint16(cp)
	for _, s := range c.seg4 {
		if code < s.startCode || code > s.endCode {
			continue
		}
		if s.idRangeOffset == 0 {
			return GID(uint16(int32(code) + int32(s.idDelta)))
		}
		glyphIndexAddr := s.idRangeOffsetPos + int(s.idRangeOffset) + 2*int(code-s.startCode)
		if glyphIndexAddr+2 > len(s.buf) {
			return 0
		}
		gid := binary.BigEndian.Uint16(s.buf[glyphIndexAddr:])
		if gid == 0 {
			return 0
		}
		return GID(uint16(int32(gid) + int32(s.idDelta)))
	}
	return 0
}
