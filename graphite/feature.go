package graphite

import (
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/text/language"

	graphitelang "github.com/benoitkugler/graphite-go/language"
)

// FeatureTag is a four-byte feature identifier, e.g. 'kdot'.
type FeatureTag uint32

// FeatureSetting is one entry of a feature's enumerated settings list
// (value, UI name id), present for features that expose discrete named
// choices rather than a bare numeric range.
type FeatureSetting struct {
	Value  int16
	NameID uint16
}

// FeatureRef describes one feature: its tag, UI name, the packing of its
// value within a FeatureVal, and its maximum value.
type FeatureRef struct {
	Tag      FeatureTag
	NameID   uint16
	Default  uint32
	Max      uint32
	bitWidth uint8
	bitOffs  uint16 // offset, in bits, into the packed FeatureVal
	Settings []FeatureSetting
	owner    *FeatureMap
}

func bitsNeeded(maxVal uint32) uint8 {
	var n uint8
	for maxVal > 0 {
		n++
		maxVal >>= 1
	}
	if n == 0 {
		n = 1
	}
	return n
}

// FeatureVal is a packed vector of 32-bit chunks, one bit range per
// feature known to the owning FeatureMap.
type FeatureVal struct {
	owner *FeatureMap
	words []uint32
	lang  FeatureTag // language tag injected as feature #1, spec.md §3
}

func newFeatureVal(owner *FeatureMap) *FeatureVal {
	return &FeatureVal{owner: owner, words: make([]uint32, owner.numWords())}
}

// Clone returns an independent copy sharing the same owning FeatureMap.
func (v *FeatureVal) Clone() *FeatureVal {
	cp := &FeatureVal{owner: v.owner, lang: v.lang}
	cp.words = append([]uint32(nil), v.words...)
	return cp
}

func (v *FeatureVal) get(ref *FeatureRef) uint32 {
	word := ref.bitOffs / 32
	shift := ref.bitOffs % 32
	mask := uint32(1)<<ref.bitWidth - 1
	return (v.words[word] >> shift) & mask
}

// Set applies a value to a feature: clears the bit range, ORs in the
// clamped value. Fails silently (a documented no-op) if ref belongs to a
// different FeatureMap than v, per spec.md §4.3.
func (v *FeatureVal) Set(ref *FeatureRef, value uint32) {
	if ref.owner != v.owner {
		return
	}
	if value > ref.Max {
		value = ref.Max
	}
	word := ref.bitOffs / 32
	shift := ref.bitOffs % 32
	mask := uint32(1)<<ref.bitWidth - 1
	v.words[word] &^= mask << shift
	v.words[word] |= (value & mask) << shift
}

// Get returns the current value of ref within v, or 0 if ref belongs to a
// different FeatureMap.
func (v *FeatureVal) Get(ref *FeatureRef) uint32 {
	if ref.owner != v.owner {
		return 0
	}
	return v.get(ref)
}

// FeatureMap is the parsed Feat table: a sorted tag-indexed catalogue of
// features plus the default packed FeatureVal.
type FeatureMap struct {
	refs    []FeatureRef
	byTag   map[FeatureTag]*FeatureRef
	totBits int
	deflt   *FeatureVal
}

func (m *FeatureMap) numWords() int { return (m.totBits + 31) / 32 }

// NumFeats is the number of distinct features the font declares.
func (m *FeatureMap) NumFeats() int { return len(m.refs) }

// FindFeatureRef looks up a feature by tag.
func (m *FeatureMap) FindFeatureRef(tag FeatureTag) (*FeatureRef, bool) {
	r, ok := m.byTag[tag]
	return r, ok
}

// FeatureRefAt returns the i'th feature in declaration order.
func (m *FeatureMap) FeatureRefAt(i int) *FeatureRef { return &m.refs[i] }

// Default returns a fresh copy of the default feature vector.
func (m *FeatureMap) Default() *FeatureVal { return m.deflt.Clone() }

// Tags returns every feature tag, sorted ascending; grounded on
// golang.org/x/exp/maps's Keys()+sort idiom as used by
// seehuhn-go-pdf's coverage.Table.Glyphs().
func (m *FeatureMap) Tags() []FeatureTag {
	tags := maps.Keys(m.byTag)
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// readFeats parses a Feat table (v1 16-bit label or v2 32-bit label,
// spec.md §6) into a FeatureMap with a populated default FeatureVal.
func readFeats(buf []byte) (*FeatureMap, error) {
	const table = "Feat"
	r := newByteReader(table, buf)

	major, err := r.u16()
	if err != nil {
		return nil, err
	}
	_, err = r.u16() // minor
	if err != nil {
		return nil, err
	}
	numFeats, err := r.u16()
	if err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // reserved
		return nil, err
	}
	if _, err := r.u32(); err != nil { // reserved
		return nil, err
	}

	isV2 := major >= 2

	m := &FeatureMap{byTag: make(map[FeatureTag]*FeatureRef, numFeats)}
	m.refs = make([]FeatureRef, numFeats)

	bitOffs := uint16(0)
	for i := 0; i < int(numFeats); i++ {
		var tagv uint32
		if isV2 {
			tagv, err = r.u32()
		} else {
			var v uint16
			v, err = r.u16()
			tagv = uint32(v)
		}
		if err != nil {
			return nil, err
		}
		numSettings, err := r.u16()
		if err != nil {
			return nil, err
		}
		if isV2 {
			if _, err := r.u16(); err != nil { // reserved
				return nil, err
			}
		}
		settingsOffset, err := r.u32()
		if err != nil {
			return nil, err
		}
		flags, err := r.u16()
		if err != nil {
			return nil, err
		}
		_ = flags
		nameID, err := r.u16()
		if err != nil {
			return nil, err
		}

		ref := &m.refs[i]
		ref.Tag = FeatureTag(tagv)
		ref.NameID = nameID
		ref.owner = m

		if numSettings > 0 {
			settings, maxVal, deflt, err := readFeatureSettings(buf, settingsOffset, numSettings)
			if err != nil {
				return nil, err
			}
			ref.Settings = settings
			ref.Max = maxVal
			ref.Default = deflt
		} else {
			ref.Max = 1
			ref.Default = 0
		}

		ref.bitWidth = bitsNeeded(ref.Max)
		ref.bitOffs = bitOffs
		bitOffs += uint16(ref.bitWidth)

		m.byTag[ref.Tag] = ref
	}
	m.totBits = int(bitOffs)

	m.deflt = newFeatureVal(m)
	for i := range m.refs {
		m.deflt.Set(&m.refs[i], m.refs[i].Default)
	}
	return m, nil
}

func readFeatureSettings(buf []byte, offset uint32, n uint16) ([]FeatureSetting, uint32, uint32, error) {
	r := newByteReader("Feat", buf)
	if err := r.seek(int(offset)); err != nil {
		return nil, 0, 0, err
	}
	out := make([]FeatureSetting, n)
	var maxVal uint32
	for i := range out {
		v, err := r.i16()
		if err != nil {
			return nil, 0, 0, err
		}
		nameID, err := r.u16()
		if err != nil {
			return nil, 0, 0, err
		}
		out[i] = FeatureSetting{Value: v, NameID: nameID}
		if uint32(v) > maxVal {
			maxVal = uint32(v)
		}
	}
	var deflt uint32
	if len(out) > 0 {
		deflt = uint32(out[0].Value)
	}
	return out, maxVal, deflt, nil
}

// Sill maps a language id to a FeatureVal, falling back to the
// FeatureMap's default vector for unknown languages.
type Sill struct {
	owner     *FeatureMap
	byLang    map[string]*FeatureVal
	langIndex *FeatureRef // synthetic feature #1 slot the lang tag is injected into
}

// readSill parses a Sill table: per-language overrides, each fully
// populated inheriting from the default vector.
func readSill(buf []byte, fm *FeatureMap) (*Sill, error) {
	const table = "Sill"
	r := newByteReader(table, buf)

	if _, err := r.u16(); err != nil { // version major
		return nil, err
	}
	if _, err := r.u16(); err != nil { // version minor
		return nil, err
	}
	numLangs, err := r.u16()
	if err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // reserved
		return nil, err
	}

	s := &Sill{owner: fm, byLang: make(map[string]*FeatureVal, numLangs)}

	for i := 0; i < int(numLangs); i++ {
		langTag, err := r.bytes(4)
		if err != nil {
			return nil, err
		}
		numSettings, err := r.u16()
		if err != nil {
			return nil, err
		}
		if _, err := r.u16(); err != nil { // reserved
			return nil, err
		}
		settingsOffset, err := r.u32()
		if err != nil {
			return nil, err
		}

		fv := fm.Default()
		fv.lang = FeatureTag(langTag[0])<<24 | FeatureTag(langTag[1])<<16 | FeatureTag(langTag[2])<<8 | FeatureTag(langTag[3])

		sr := newByteReader(table, buf)
		if err := sr.seek(int(settingsOffset)); err != nil {
			return nil, err
		}
		for j := 0; j < int(numSettings); j++ {
			featIdx, err := sr.u16()
			if err != nil {
				return nil, err
			}
			value, err := sr.i16()
			if err != nil {
				return nil, err
			}
			if int(featIdx) < len(fm.refs) {
				fv.Set(&fm.refs[featIdx], uint32(value))
			}
		}

		key := canonicalLangKey(string(langTag))
		s.byLang[key] = fv
	}
	return s, nil
}

// canonicalLangKey normalizes a language query key. BCP-47 conformant
// tags go through golang.org/x/text/language; legacy Graphite fonts may
// instead carry 4-byte OpenType-style language codes which are not valid
// BCP-47, so those fall back to the teacher's own canonicalizer.
func canonicalLangKey(raw string) string {
	if tag, err := language.Parse(raw); err == nil {
		return tag.String()
	}
	return string(graphitelang.NewLanguage(raw))
}

// CloneFeatures returns a fresh FeatureVal: a copy of langId's override
// set if Sill declares one, else a copy of the FeatureMap's default.
func (s *Sill) CloneFeatures(langID string) *FeatureVal {
	key := canonicalLangKey(langID)
	if fv, ok := s.byLang[key]; ok {
		return fv.Clone()
	}
	return s.owner.Default()
}
