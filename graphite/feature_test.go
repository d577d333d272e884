package graphite

import "testing"

func TestBitsNeeded(t *testing.T) {
	cases := []struct {
		max  uint32
		want uint8
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 2}, {4, 3}, {255, 8}, {256, 9},
	}
	for _, c := range cases {
		if got := bitsNeeded(c.max); got != c.want {
			t.Errorf("bitsNeeded(%d) = %d, want %d", c.max, got, c.want)
		}
	}
}

func newTestFeatureMap() *FeatureMap {
	m := &FeatureMap{byTag: map[FeatureTag]*FeatureRef{}}
	m.refs = make([]FeatureRef, 2)

	m.refs[0] = FeatureRef{Tag: FeatureTag('a'), Max: 1, owner: m, bitWidth: 1, bitOffs: 0}
	m.refs[1] = FeatureRef{Tag: FeatureTag('b'), Max: 7, owner: m, bitWidth: 3, bitOffs: 1}
	m.byTag[m.refs[0].Tag] = &m.refs[0]
	m.byTag[m.refs[1].Tag] = &m.refs[1]
	m.totBits = 4

	m.deflt = newFeatureVal(m)
	return m
}

func TestFeatureValSetGet(t *testing.T) {
	m := newTestFeatureMap()
	fv := m.Default()

	fv.Set(&m.refs[1], 5)
	if got := fv.Get(&m.refs[1]); got != 5 {
		t.Fatalf("Get after Set(5) = %d, want 5", got)
	}
	if got := fv.Get(&m.refs[0]); got != 0 {
		t.Fatalf("unrelated feature changed: Get(refs[0]) = %d, want 0", got)
	}

	// values are clamped to Max.
	fv.Set(&m.refs[1], 100)
	if got := fv.Get(&m.refs[1]); got != 7 {
		t.Fatalf("Get after Set(100) = %d, want clamped 7", got)
	}
}

func TestFeatureValCloneIsIndependent(t *testing.T) {
	m := newTestFeatureMap()
	fv := m.Default()
	fv.Set(&m.refs[0], 1)

	clone := fv.Clone()
	clone.Set(&m.refs[0], 0)

	if got := fv.Get(&m.refs[0]); got != 1 {
		t.Fatalf("original mutated through clone: Get = %d, want 1", got)
	}
}

func TestFeatureValSetWrongOwnerIsNoop(t *testing.T) {
	m1 := newTestFeatureMap()
	m2 := newTestFeatureMap()
	fv := m1.Default()

	fv.Set(&m2.refs[0], 1)
	if got := fv.Get(&m2.refs[0]); got != 0 {
		t.Fatalf("cross-owner Set/Get should be a no-op, got %d", got)
	}
}

func TestFeatureMapTagsSorted(t *testing.T) {
	m := newTestFeatureMap()
	tags := m.Tags()
	if len(tags) != 2 || tags[0] != FeatureTag('a') || tags[1] != FeatureTag('b') {
		t.Fatalf("Tags() = %v, want sorted [a, b]", tags)
	}
}

func TestCanonicalLangKeyBCP47(t *testing.T) {
	// a BCP-47-valid tag goes through x/text/language.
	if got := canonicalLangKey("en-US"); got != "en-US" {
		t.Fatalf("canonicalLangKey(en-US) = %q, want %q", got, "en-US")
	}
}
