package graphite

import (
	"encoding/binary"

	"github.com/benoitkugler/graphite-go/sfnt"
)

// LoadOptions configures Face construction: the glyph-cache materialize
// policy and an optional trace sink (spec.md §9's "the core takes a trace
// sink via the Face (nullable) and writes structured events when
// present").
type LoadOptions struct {
	GlyphCachePolicy CachePolicy
	Trace            TraceSink
}

// Face is the read-only root of all font-derived shaping state. It is
// immutable once LoadFace returns successfully and may be shared
// read-only across concurrently shaped Segments, per spec.md §5.
type Face struct {
	dir *sfnt.Directory

	glyphs   *GlyphCache
	features *FeatureMap
	sill     *Sill
	silfs    map[uint32]*Silf // keyed by script tag

	names *nameTable
	cmap  *cmapTable

	numGlyphs int
	upem      uint16

	trace TraceSink
}

// LoadFace parses an sfnt-wrapped Graphite font from data and builds the
// immutable Face.
func LoadFace(data []byte, opts LoadOptions) (*Face, error) {
	dir, err := sfnt.Parse(data)
	if err != nil {
		return nil, errWrap("", ErrTableTooShort, 0, err)
	}

	f := &Face{dir: dir, trace: opts.Trace, silfs: make(map[uint32]*Silf)}

	headBuf, err := dir.Table(sfnt.NewTag('h', 'e', 'a', 'd'))
	if err == nil && len(headBuf) >= 54 {
		f.upem = binary.BigEndian.Uint16(headBuf[18:])
	}
	if f.upem == 0 {
		f.upem = 1000
	}

	if maxpBuf, err := dir.Table(sfnt.NewTag('m', 'a', 'x', 'p')); err == nil && len(maxpBuf) >= 6 {
		f.numGlyphs = int(binary.BigEndian.Uint16(maxpBuf[4:]))
	}

	source, numAttrs, err := newFaceGlyphSource(dir, f.numGlyphs)
	if err != nil {
		return nil, err
	}
	f.glyphs, err = newGlyphCache(opts.GlyphCachePolicy, f.numGlyphs, numAttrs, source)
	if err != nil {
		return nil, err
	}

	if featBuf, err := dir.Table(sfnt.NewTag('F', 'e', 'a', 't')); err == nil {
		f.features, err = readFeats(featBuf)
		if err != nil {
			return nil, err
		}
	} else {
		f.features = &FeatureMap{byTag: map[FeatureTag]*FeatureRef{}}
		f.features.deflt = newFeatureVal(f.features)
	}

	if sillBuf, err := dir.Table(sfnt.NewTag('S', 'i', 'l', 'l')); err == nil {
		f.sill, err = readSill(sillBuf, f.features)
		if err != nil {
			return nil, err
		}
	} else {
		f.sill = &Sill{owner: f.features, byLang: map[string]*FeatureVal{}}
	}

	silfBuf, err := dir.Table(sfnt.NewTag('S', 'i', 'l', 'f'))
	if err != nil {
		return nil, errWrap("Silf", ErrTableTooShort, 0, err)
	}
	if err := f.loadSilfTable(silfBuf); err != nil {
		return nil, err
	}

	if nameBuf, err := dir.Table(sfnt.NewTag('n', 'a', 'm', 'e')); err == nil {
		f.names, _ = parseNameTable(nameBuf)
	}

	if cmapBuf, err := dir.Table(sfnt.NewTag('c', 'm', 'a', 'p')); err == nil {
		f.cmap, err = parseCmap(cmapBuf)
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

// cmapTable returns the face's parsed Unicode cmap, or an empty one (every
// lookup reports ".notdef") for fonts that carry none.
func (f *Face) cmapTable() (*cmapTable, error) {
	if f.cmap == nil {
		return &cmapTable{}, nil
	}
	return f.cmap, nil
}

// loadSilfTable reads the Silf table's own small directory header (count,
// then all per-script offsets, then all 4-byte script tags in the same
// order) and loads each sub-table.
func (f *Face) loadSilfTable(buf []byte) error {
	const table = "Silf"
	r := newByteReader(table, buf)
	if _, err := r.u32(); err != nil { // version
		return err
	}
	numSub, err := r.u16()
	if err != nil {
		return err
	}
	if _, err := r.u16(); err != nil { // reserved
		return err
	}

	type entry struct {
		tag    uint32
		offset uint32
	}
	entries := make([]entry, numSub)
	for i := range entries {
		off, err := r.u32()
		if err != nil {
			return err
		}
		entries[i].offset = off
	}
	for i := range entries {
		tagv, err := r.u32()
		if err != nil {
			return err
		}
		entries[i].tag = tagv
	}

	for _, e := range entries {
		sub, err := sliceRange(table, buf, int(e.offset), len(buf))
		if err != nil {
			return err
		}
		silf, err := loadSilf(sub)
		if err != nil {
			return err
		}
		f.silfs[e.tag] = silf
	}
	return nil
}

// SilfForScript returns the shaping program for the given four-byte
// script tag. If the tag is unknown it returns one of the loaded Silfs,
// picked by map iteration, so the choice is not defined when the face
// holds more than one (fonts commonly declare a single script-agnostic
// program).
func (f *Face) SilfForScript(scriptTag uint32) *Silf {
	if s, ok := f.silfs[scriptTag]; ok {
		return s
	}
	for _, s := range f.silfs {
		return s
	}
	return nil
}

// NumGlyphs is the glyph count declared by the font's maxp table.
func (f *Face) NumGlyphs() int { return f.numGlyphs }

// Upem is the font's units-per-em.
func (f *Face) Upem() uint16 { return f.upem }

// Features exposes the parsed Feat table.
func (f *Face) Features() *FeatureMap { return f.features }

// Languages exposes the parsed Sill table.
func (f *Face) Languages() *Sill { return f.sill }
