package graphite

import (
	"encoding/binary"

	"github.com/benoitkugler/graphite-go/sfnt"
)

// faceGlyphSource reads one glyph's advance and attributes from the
// Glat/Gloc/hmtx tables on demand, implementing the glyphSource
// interface GlyphCache depends on. It does not read glyph outlines, so
// the returned GlyphFace's Bbox is always the zero Rect.
type faceGlyphSource struct {
	hmtx     []byte
	numHMetrics int
	glat     []byte
	gloc     []uint32 // per-glyph offset into glat, numGlyphs+1 entries
	numAttrs int
	glatWide bool
}

func newFaceGlyphSource(dir *sfnt.Directory, numGlyphs int) (*faceGlyphSource, int, error) {
	s := &faceGlyphSource{}

	if hhea, err := dir.Table(sfnt.NewTag('h', 'h', 'e', 'a')); err == nil && len(hhea) >= 36 {
		s.numHMetrics = int(binary.BigEndian.Uint16(hhea[34:]))
	}
	if hmtx, err := dir.Table(sfnt.NewTag('h', 'm', 't', 'x')); err == nil {
		s.hmtx = hmtx
	}

	glocBuf, errGloc := dir.Table(sfnt.NewTag('G', 'l', 'o', 'c'))
	glatBuf, errGlat := dir.Table(sfnt.NewTag('G', 'l', 'a', 't'))
	if errGloc == nil && errGlat == nil {
		if err := s.parseGloc(glocBuf, numGlyphs); err != nil {
			return nil, 0, err
		}
		s.glat = glatBuf
	}

	return s, s.numAttrs, nil
}

func (s *faceGlyphSource) parseGloc(buf []byte, numGlyphs int) error {
	const table = "Gloc"
	r := newByteReader(table, buf)
	if _, err := r.u16(); err != nil { // version major
		return err
	}
	if _, err := r.u16(); err != nil { // version minor
		return err
	}
	flags, err := r.u16()
	if err != nil {
		return err
	}
	numAttrs, err := r.u16()
	if err != nil {
		return err
	}
	s.numAttrs = int(numAttrs)
	s.glatWide = flags&0x01 != 0

	n := numGlyphs + 1
	offsets := make([]uint32, n)
	for i := range offsets {
		if s.glatWide {
			v, err := r.u32()
			if err != nil {
				return err
			}
			offsets[i] = v
		} else {
			v, err := r.u16()
			if err != nil {
				return err
			}
			offsets[i] = uint32(v)
		}
	}
	s.gloc = offsets
	return nil
}

// readGlyph implements glyphSource.
func (s *faceGlyphSource) readGlyph(gid GID) (GlyphFace, error) {
	g := GlyphFace{GID: gid}

	if s.hmtx != nil {
		idx := int(gid)
		if idx >= s.numHMetrics && s.numHMetrics > 0 {
			idx = s.numHMetrics - 1
		}
		if 4*idx+2 <= len(s.hmtx) {
			g.Advance.X = float32(binary.BigEndian.Uint16(s.hmtx[4*idx:]))
		}
	}

	if s.gloc != nil && int(gid)+1 < len(s.gloc) {
		start, end := s.gloc[gid], s.gloc[gid+1]
		if end > start && int(end) <= len(s.glat) {
			g.attrs = parseGlatEntry(s.glat[start:end])
		}
	}
	return g, nil
}

// parseGlatEntry decodes one glyph's sparse attribute block: a simple
// dense run of big-endian int16 values, one per attribute index declared
// by Gloc's header. Attribute semantics are font-defined (spec.md §9:
// "treat attribute access as attr(glyph, index) -> i16, zero for absent
// indices"), so this layer only decodes the vector, assigning no meaning.
func parseGlatEntry(buf []byte) map[uint16]int16 {
	out := make(map[uint16]int16, len(buf)/2)
	for i := 0; i+2 <= len(buf); i += 2 {
		v := int16(binary.BigEndian.Uint16(buf[i:]))
		if v != 0 {
			out[uint16(i/2)] = v
		}
	}
	return out
}
