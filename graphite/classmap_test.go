package graphite

import "testing"

func TestClassMapLinearColumn(t *testing.T) {
	cm := &classMap{
		linear:   [][]GID{{10, 20, 30}, {5, 15}},
		numClass: 2,
	}
	if got := cm.column(20); got != 0 {
		t.Fatalf("column(20) = %d, want 0", got)
	}
	if got := cm.column(15); got != 1 {
		t.Fatalf("column(15) = %d, want 1", got)
	}
	if got := cm.column(99); got != 0xFFFF {
		t.Fatalf("column(99) = %d, want 0xFFFF sentinel", got)
	}
}

func TestClassMapRangeColumn(t *testing.T) {
	cm := &classMap{
		ranges: []classRange{
			{firstID: 100, lastID: 110, classIndex: 4},
			{firstID: 200, lastID: 205, classIndex: 16},
		},
	}
	if got := cm.column(103); got != 4+3 {
		t.Fatalf("column(103) = %d, want %d", got, 4+3)
	}
	if got := cm.column(205); got != 16+5 {
		t.Fatalf("column(205) = %d, want %d", got, 16+5)
	}
	if got := cm.column(150); got != 0xFFFF {
		t.Fatalf("column(150) = %d, want 0xFFFF sentinel", got)
	}
}

func TestClassMapGlyphAtRoundTrip(t *testing.T) {
	cm := &classMap{
		linear: [][]GID{{7, 8, 9}},
		ranges: []classRange{{firstID: 50, lastID: 52, classIndex: 1}},
	}
	if g, ok := cm.glyphAt(0, 1); !ok || g != 8 {
		t.Fatalf("glyphAt(0,1) = (%d,%v), want (8,true)", g, ok)
	}
	if g, ok := cm.glyphAt(2, 1); !ok || g != 51 {
		t.Fatalf("glyphAt(2,1) = (%d,%v), want (51,true)", g, ok)
	}
	if _, ok := cm.glyphAt(0, 5); ok {
		t.Fatal("glyphAt(0,5) should be out of range")
	}
}
