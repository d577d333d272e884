package graphite

import "sort"

// classMap is Silf's glyph → FSM-column lookup. The first nLinear classes
// are stored as raw, positional glyph-id lists (index into the class IS
// the column); the remaining classes are binary-searchable (gid, class)
// range tables. Both are grounded on the same binary-search technique as
// fonts/truetype/table_common.go's classFormat1/classFormat2, adapted to
// Graphite's own class-map header (numIDs/searchRange/entrySelector/
// rangeShift, not an OpenType ClassDef table).
type classMap struct {
	linear   [][]GID // linear[col] = glyphs in that class, positional
	ranges   []classRange
	numClass int
}

type classRange struct {
	firstID, lastID GID
	classIndex      int // column this range's glyphs belong to, via (gid-firstID)+base
}

// column returns the FSM column for gid, or 0xFFFF if gid isn't covered
// by any class — spec.md §4.5.1's "columns[gid] == 0xFFFF" sentinel.
func (c *classMap) column(gid GID) uint16 {
	for col, glyphs := range c.linear {
		idx := sort.Search(len(glyphs), func(i int) bool { return glyphs[i] >= gid })
		if idx < len(glyphs) && glyphs[idx] == gid {
			return uint16(col)
		}
	}
	n := len(c.ranges)
	idx := sort.Search(n, func(i int) bool { return gid <= c.ranges[i].lastID })
	if idx < n {
		r := c.ranges[idx]
		if gid >= r.firstID && gid <= r.lastID {
			return uint16(r.classIndex + int(gid-r.firstID))
		}
	}
	return 0xFFFF
}

// glyphAt returns the glyph at the given offset within column col, used by
// put_subs's class-column substitution lookup (reverse direction: column
// → glyph at a given offset within the class).
func (c *classMap) glyphAt(col, offset int) (GID, bool) {
	if col < len(c.linear) {
		glyphs := c.linear[col]
		if offset < 0 || offset >= len(glyphs) {
			return 0, false
		}
		return glyphs[offset], true
	}
	for _, r := range c.ranges {
		base := r.classIndex
		width := int(r.lastID-r.firstID) + 1
		if col >= base && col < base+width {
			return r.firstID + GID(col-base), true
		}
	}
	return 0, false
}

// readClassMap parses the class map at offsetOfClassMap; version selects
// whether class-map sub-offsets are 16-bit (v<4) or 32-bit (v>=4), per
// spec.md §6.
func readClassMap(buf []byte, offsetOfClassMap int, version uint16) (*classMap, error) {
	const table = "Silf.classmap"
	r := newByteReader(table, buf)
	if err := r.seek(offsetOfClassMap); err != nil {
		return nil, err
	}

	numClass, err := r.u16()
	if err != nil {
		return nil, err
	}
	numLinear, err := r.u16()
	if err != nil {
		return nil, err
	}

	wide := version >= 4
	offsets := make([]uint32, int(numClass)+1)
	for i := range offsets {
		if wide {
			v, err := r.u32()
			if err != nil {
				return nil, err
			}
			offsets[i] = v
		} else {
			v, err := r.u16()
			if err != nil {
				return nil, err
			}
			offsets[i] = uint32(v)
		}
	}

	cm := &classMap{numClass: int(numClass)}
	base := r.pos

	for i := 0; i < int(numLinear); i++ {
		start, end := int(offsets[i]), int(offsets[i+1])
		seg, err := sliceRange(table, buf, base+start, base+end)
		if err != nil {
			return nil, err
		}
		n := len(seg) / 2
		glyphs := make([]GID, n)
		sr := newByteReader(table, seg)
		for j := 0; j < n; j++ {
			v, err := sr.u16()
			if err != nil {
				return nil, err
			}
			glyphs[j] = GID(v)
		}
		cm.linear = append(cm.linear, glyphs)
	}

	for i := int(numLinear); i < int(numClass); i++ {
		start, end := int(offsets[i]), int(offsets[i+1])
		seg, err := sliceRange(table, buf, base+start, base+end)
		if err != nil {
			return nil, err
		}
		sr := newByteReader(table, seg)
		numIDs, err := sr.u16()
		if err != nil {
			return nil, err
		}
		if _, err := sr.u16(); err != nil { // searchRange
			return nil, err
		}
		if _, err := sr.u16(); err != nil { // entrySelector
			return nil, err
		}
		if _, err := sr.u16(); err != nil { // rangeShift
			return nil, err
		}
		for j := 0; j < int(numIDs); j++ {
			firstID, err := sr.u16()
			if err != nil {
				return nil, err
			}
			lastID, err := sr.u16()
			if err != nil {
				return nil, err
			}
			classIdx, err := sr.u16()
			if err != nil {
				return nil, err
			}
			if GID(lastID) < GID(firstID) {
				return nil, errTable(table, ErrBadClassRange, base+start)
			}
			cm.ranges = append(cm.ranges, classRange{
				firstID: GID(firstID), lastID: GID(lastID), classIndex: int(classIdx),
			})
		}
	}
	sort.Slice(cm.ranges, func(i, j int) bool { return cm.ranges[i].firstID < cm.ranges[j].firstID })

	return cm, nil
}
