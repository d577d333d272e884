package graphite

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Position is a 2D design-unit coordinate, used for origins, advances,
// shifts and attachment offsets alike throughout the engine.
type Position struct {
	X, Y float32
}

func (p Position) Add(q Position) Position { return Position{p.X + q.X, p.Y + q.Y} }
func (p Position) Sub(q Position) Position { return Position{p.X - q.X, p.Y - q.Y} }
func (p Position) Scale(s float32) Position { return Position{p.X * s, p.Y * s} }

// Rect is an axis-aligned box in design units, bottom-left/top-right.
type Rect struct {
	Bl, Tr Position
}

func (r Rect) Width() float32  { return r.Tr.X - r.Bl.X }
func (r Rect) Height() float32 { return r.Tr.Y - r.Bl.Y }

// GlyphMetric identifies one of the small set of named per-glyph metrics
// the original exposes beyond bbox/advance (ascent, descent, side
// bearings), read from Glat/hmtx-derived data.
type GlyphMetric uint8

const (
	MetricAscent GlyphMetric = iota
	MetricDescent
	MetricLeftSideBearing
	MetricRightSideBearing
	MetricAdvanceWidth
)

// GlyphFace is one glyph's read-only shaping-relevant data: its bounding
// box, advance, and a sparse vector of attribute values keyed by a
// font-defined attribute index (pseudo-glyph and user attributes have no
// fixed semantics; callers interpret them via Silf's attribute indices).
type GlyphFace struct {
	GID     GID
	Bbox    Rect
	Advance Position
	attrs   map[uint16]int16
}

// Attr returns the attribute at index idx, or zero if the font does not
// define it for this glyph — spec.md's "sparse means attribute IDs absent
// from the font are reported as zero without storage".
func (g *GlyphFace) Attr(idx uint16) int16 {
	if g == nil {
		return 0
	}
	return g.attrs[idx]
}

func (g *GlyphFace) Metric(m GlyphMetric) float32 {
	if g == nil {
		return 0
	}
	switch m {
	case MetricAscent:
		return g.Bbox.Tr.Y
	case MetricDescent:
		return g.Bbox.Bl.Y
	case MetricLeftSideBearing:
		return g.Bbox.Bl.X
	case MetricRightSideBearing:
		return g.Advance.X - g.Bbox.Tr.X
	case MetricAdvanceWidth:
		return g.Advance.X
	}
	return 0
}

// GID identifies a glyph within a face. It is an opaque index, not a
// Unicode code point.
type GID uint16

const gidInvalid GID = 0xFFFF

// CachePolicy selects when GlyphCache materializes glyph data.
type CachePolicy uint8

const (
	// CachePreload materializes every glyph at Face load time.
	CachePreload CachePolicy = iota
	// CacheDemand materializes a glyph on its first lookup, then caches it.
	CacheDemand
)

// GlyphCache is a lazy or eager table-backed lookup of per-glyph bbox,
// advance and sparse attributes. A glyph id outside [0, numGlyphs) is
// always reported as the invalid sentinel rather than failing the caller.
type GlyphCache struct {
	policy    CachePolicy
	numGlyphs int
	numAttrs  int
	source    glyphSource // reads one glyph on demand
	cache     map[GID]*GlyphFace
	sentinel  GlyphFace
}

// glyphSource is satisfied by Face's internal Glat/Gloc/hmtx decoder; it
// is kept as an interface so GlyphCache has no direct table-format
// knowledge, matching how GlyphCache is specified as a pure cache layer.
type glyphSource interface {
	readGlyph(gid GID) (GlyphFace, error)
}

func newGlyphCache(policy CachePolicy, numGlyphs, numAttrs int, source glyphSource) (*GlyphCache, error) {
	c := &GlyphCache{
		policy:    policy,
		numGlyphs: numGlyphs,
		numAttrs:  numAttrs,
		source:    source,
		cache:     make(map[GID]*GlyphFace),
	}
	if policy == CachePreload {
		for gid := 0; gid < numGlyphs; gid++ {
			g, err := source.readGlyph(GID(gid))
			if err != nil {
				return nil, err
			}
			gg := g
			c.cache[GID(gid)] = &gg
		}
	}
	return c, nil
}

// NumAttrs is the fixed, font-wide attribute vector width, derived from
// the Glat table header at load time.
func (c *GlyphCache) NumAttrs() int { return c.numAttrs }

// Glyph returns the glyph face for gid, or nil if gid is out of range, or
// if gid is valid but the font provides no data for it and loading failed
// softly.
func (c *GlyphCache) Glyph(gid GID) *GlyphFace {
	if int(gid) < 0 || int(gid) >= c.numGlyphs {
		return nil
	}
	if g, ok := c.cache[gid]; ok {
		return g
	}
	if c.policy == CachePreload {
		return nil
	}
	g, err := c.source.readGlyph(gid)
	if err != nil {
		return nil
	}
	c.cache[gid] = &g
	return &g
}

// GlyphSafe is Glyph but never returns nil: out-of-range or missing glyphs
// yield the zero-valued sentinel face, per spec.md's glyphSafe contract.
func (c *GlyphCache) GlyphSafe(gid GID) *GlyphFace {
	if g := c.Glyph(gid); g != nil {
		return g
	}
	return &c.sentinel
}

// loadedGIDs returns the glyph ids currently resident in the cache, sorted
// ascending. Used only for diagnostics (trace sink dumps).
func (c *GlyphCache) loadedGIDs() []GID {
	keys := maps.Keys(c.cache)
	slices.Sort(keys)
	return keys
}
