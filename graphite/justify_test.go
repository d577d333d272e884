package graphite

import "testing"

// TestJustifyExpandDistributesByWeight mirrors the scenario named directly
// in spec.md §8: three slots with natural advances [25,50,25] (weights
// 1:2:1) and natural total 100, justified to width 140, must land on
// (35,70,35) within one step unit and a total advance of exactly 140.
func TestJustifyExpandDistributesByWeight(t *testing.T) {
	const attrStretch, attrShrink, attrStep, attrWeight = 0, 1, 2, 3
	cache := &GlyphCache{numGlyphs: 20, cache: map[GID]*GlyphFace{}}
	weights := []int16{1, 2, 1}
	gids := []GID{10, 11, 12}
	for i, g := range gids {
		cache.cache[g] = &GlyphFace{GID: g, attrs: map[uint16]int16{
			attrStretch: 1000, attrShrink: 1000, attrStep: 1, attrWeight: weights[i],
		}}
	}

	face := &Face{glyphs: cache}
	seg := &Segment{
		face:     face,
		silf:     &Silf{justLevels: []justLevelInfo{{attrStretch: attrStretch, attrShrink: attrShrink, attrStep: attrStep, attrWeight: attrWeight}}},
		charinfo: make([]CharInfo, 3),
	}
	seg.buf = newSlotBuffer(0, 3)

	advances := []float32{25, 50, 25}
	for i, g := range gids {
		s := seg.buf.append(g, i)
		s.Advance.X = advances[i]
	}

	adv := seg.Justify(140, 0, nil, nil)
	if adv != 140 {
		t.Fatalf("final advance = %v, want 140", adv)
	}

	want := []float32{35, 70, 35}
	i := 0
	for s := seg.buf.first; s != nil; s = s.next {
		if absF(s.Advance.X-want[i]) > 1 {
			t.Fatalf("slot %d advance = %v, want ~%v", i, s.Advance.X, want[i])
		}
		i++
	}
}

func TestJustifyNoWidthChangeIsNoop(t *testing.T) {
	face := &Face{glyphs: &GlyphCache{numGlyphs: 1, cache: map[GID]*GlyphFace{}}}
	seg := &Segment{face: face, silf: &Silf{}, charinfo: make([]CharInfo, 1)}
	seg.buf = newSlotBuffer(0, 1)
	s := seg.buf.append(GID(1), 0)
	s.Advance.X = 10

	adv := seg.Justify(10, 0, nil, nil)
	if adv != 10 {
		t.Fatalf("advance = %v, want unchanged 10", adv)
	}
}
