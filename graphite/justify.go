package graphite

import "unicode"

// JustifyFlags selects optional behavior of Justify, per spec.md §4.11's
// "width, flags, first, last" signature.
type JustifyFlags uint8

const (
	// JustifyRunPasses additionally runs the font's declared
	// justification→positioning pass range after distributing width.
	JustifyRunPasses JustifyFlags = 1 << iota
)

// justLevelData is one level's per-slot stretch/shrink/step/weight, either
// read from a glyph attribute the font declares (real Silf justLevels) or
// from the synthesized fallback level (spec.md §4.11 point 2).
type justLevelData struct {
	stretch, shrink, step, weight int32
}

// Justify implements spec.md §4.11's entry point: distribute (width -
// naturalAdvance) across [first,last]'s stretchable slots, from the
// font's highest justification level down to level 0, and return the
// resulting advance.
func (seg *Segment) Justify(width float32, flags JustifyFlags, first, last *Slot) float32 {
	if first == nil {
		first = seg.buf.first
	}
	if last == nil {
		last = seg.buf.last
	}
	if first == nil {
		return 0
	}

	levels := seg.silf.justLevels
	fallback := len(levels) == 0
	numLevels := len(levels)
	if fallback {
		numLevels = 1
	}

	hasWhitespace := false
	for s := first; s != nil; s = s.next {
		ci := seg.CharInfoAt(s.original)
		if ci != nil && unicode.IsSpace(ci.Char) {
			hasWhitespace = true
		}
		if s == last {
			break
		}
	}

	for level := numLevels - 1; level >= 0; level-- {
		natural := seg.levelWidth(first, last, level)
		diff := width - natural
		if diff == 0 {
			continue
		}

		type contrib struct {
			slot *Slot
			data justLevelData
		}
		var stretchables []contrib
		var totalWeight int32

		for s := first; s != nil; s = s.next {
			d := seg.slotJustData(s, level, levels, fallback, hasWhitespace)
			if (diff > 0 && d.stretch > 0) || (diff < 0 && d.shrink > 0) {
				stretchables = append(stretchables, contrib{s, d})
				totalWeight += d.weight
			}
			if s == last {
				break
			}
		}
		if totalWeight == 0 || len(stretchables) == 0 {
			continue
		}

		var errAccum float32
		for _, c := range stretchables {
			pref := diff*float32(c.data.weight)/float32(totalWeight) + errAccum
			limit := float32(c.data.stretch)
			if diff < 0 {
				limit = float32(c.data.shrink)
			}
			if limit > 0 && absF(pref) > limit {
				if pref > 0 {
					pref = limit
				} else {
					pref = -limit
				}
			}
			if c.data.step > 1 {
				steps := float32(int32(pref/float32(c.data.step)+0.5)) * float32(c.data.step)
				errAccum += pref - steps
				pref = steps
			} else {
				errAccum = 0
			}

			if level == 0 {
				c.slot.Advance.X += pref
			} else {
				just := c.slot.justAt(level)
				just[0] += int16(pref)
			}
		}
	}

	seg.advance = positionSlots(seg.buf, seg.buf.first, seg.buf.last, seg.isRTL(), true, seg.scale)

	if flags&JustifyRunPasses != 0 && seg.silf.jPass > 0 && seg.silf.pPass >= 0 {
		ctx := newShapingContext(seg, 4*seg.NCharInfo()+100)
		seg.silf.runGraphite(seg, ctx, seg.silf.jPass, seg.silf.pPass+1, false)
	}

	return seg.advance.X
}

func (seg *Segment) levelWidth(first, last *Slot, level int) float32 {
	var w float32
	for s := first; s != nil; s = s.next {
		w += s.Advance.X
		if s == last {
			break
		}
	}
	return w
}

// slotJustData resolves s's stretch/shrink/step/weight at level, either
// from the font's declared glyph-attribute indices or from the implicit
// fallback level spec.md §4.11 describes.
func (seg *Segment) slotJustData(s *Slot, level int, levels []justLevelInfo, fallback, hasWhitespace bool) justLevelData {
	if fallback {
		ci := seg.CharInfoAt(s.original)
		isSpace := ci != nil && unicode.IsSpace(ci.Char)
		switch {
		case isSpace:
			return justLevelData{stretch: 1 << 20, shrink: 1, step: 1, weight: 1}
		case !hasWhitespace:
			return justLevelData{stretch: 1 << 20, shrink: 1, step: 1, weight: 1}
		default:
			return justLevelData{weight: 1}
		}
	}

	info := levels[level]
	g := seg.face.glyphs.GlyphSafe(s.GID)
	return justLevelData{
		stretch: int32(g.Attr(uint16(info.attrStretch))),
		shrink:  int32(g.Attr(uint16(info.attrShrink))),
		step:    int32(g.Attr(uint16(info.attrStep))),
		weight:  int32(g.Attr(uint16(info.attrWeight))),
	}
}
