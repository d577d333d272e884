package graphite

import "testing"

func TestCmapFormat4Lookup(t *testing.T) {
	// one segment covering 'A'-'Z' (0x41-0x5A) mapped to gid = code+1,
	// plus the mandatory terminating 0xFFFF segment.
	c := &cmapTable{
		seg4: []segment4{
			{startCode: 0x41, endCode: 0x5A, idDelta: 1, idRangeOffset: 0},
			{startCode: 0xFFFF, endCode: 0xFFFF, idDelta: 1, idRangeOffset: 0},
		},
	}
	if got := c.Lookup('A'); got != 0x42 {
		t.Fatalf("Lookup('A') = %d, want 0x42", got)
	}
	if got := c.Lookup('Z'); got != 0x5B {
		t.Fatalf("Lookup('Z') = %d, want 0x5B", got)
	}
	if got := c.Lookup('a'); got != 0 {
		t.Fatalf("Lookup('a') = %d, want 0 (not covered)", got)
	}
}

func TestCmapFormat12Lookup(t *testing.T) {
	c := &cmapTable{
		groups: []cmapGroup{
			{startChar: 0x10000, endChar: 0x1000F, startGID: 500},
		},
	}
	if got := c.Lookup(0x10000); got != 500 {
		t.Fatalf("Lookup(0x10000) = %d, want 500", got)
	}
	if got := c.Lookup(0x10005); got != 505 {
		t.Fatalf("Lookup(0x10005) = %d, want 505", got)
	}
	if got := c.Lookup(0x20000); got != 0 {
		t.Fatalf("Lookup(0x20000) = %d, want 0 (not covered)", got)
	}
}

func TestCmapNilIsEmpty(t *testing.T) {
	var c *cmapTable
	if got := c.Lookup('A'); got != 0 {
		t.Fatalf("Lookup on nil cmapTable = %d, want 0", got)
	}
}
