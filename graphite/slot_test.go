package graphite

import "testing"

func TestSlotBufferAppendAndOrder(t *testing.T) {
	buf := newSlotBuffer(0, 3)
	a := buf.append(GID(1), 0)
	b := buf.append(GID(2), 1)
	c := buf.append(GID(3), 2)

	if buf.first != a || buf.last != c {
		t.Fatalf("first/last not set correctly")
	}
	if a.next != b || b.next != c || b.prev != a || c.prev != b {
		t.Fatalf("linked list not wired correctly")
	}
	if buf.count != 3 {
		t.Fatalf("count = %d, want 3", buf.count)
	}
}

func TestSlotBufferInsertAfter(t *testing.T) {
	buf := newSlotBuffer(0, 2)
	a := buf.append(GID(1), 0)
	c := buf.append(GID(3), 1)

	b := buf.insertAfter(a, GID(2))
	if a.next != b || b.next != c || c.prev != b || b.prev != a {
		t.Fatalf("insertAfter did not wire the list correctly")
	}
	if buf.count != 3 {
		t.Fatalf("count = %d, want 3", buf.count)
	}

	// insert at the tail updates buf.last.
	d := buf.insertAfter(c, GID(4))
	if buf.last != d {
		t.Fatalf("insertAfter at tail did not update buf.last")
	}
}

func TestSlotBufferRemoveTransfersClusterHead(t *testing.T) {
	buf := newSlotBuffer(0, 2)
	a := buf.append(GID(1), 0)
	b := buf.append(GID(2), 1)
	b.Flags &^= FlagClusterHead // simulate b being a non-head attached slot

	buf.remove(a)
	if !a.isDeleted() {
		t.Fatal("removed slot not marked deleted")
	}
	if b.Flags&FlagClusterHead == 0 {
		t.Fatal("cluster-head flag did not transfer to the next slot")
	}
}

func TestAddChildRemoveChild(t *testing.T) {
	buf := newSlotBuffer(0, 2)
	base := buf.append(GID(1), 0)
	mark := buf.append(GID(2), 1)

	base.addChild(mark)
	if mark.parent != base || base.child != mark {
		t.Fatal("addChild did not wire parent/child")
	}
	if base.Flags&FlagHasChildren == 0 {
		t.Fatal("FlagHasChildren not set on parent")
	}

	base.removeChild(mark)
	if mark.parent != nil || base.child != nil {
		t.Fatal("removeChild did not unwire parent/child")
	}
	if base.Flags&FlagHasChildren != 0 {
		t.Fatal("FlagHasChildren should clear once last child is removed")
	}
	if mark.Flags&FlagClusterHead == 0 {
		t.Fatal("detached child should become its own cluster head")
	}
}

func TestFindRoot(t *testing.T) {
	buf := newSlotBuffer(0, 3)
	base := buf.append(GID(1), 0)
	mid := buf.append(GID(2), 1)
	leaf := buf.append(GID(3), 2)

	base.addChild(mid)
	mid.addChild(leaf)

	if got := findRoot(leaf); got != base {
		t.Fatalf("findRoot(leaf) = %v, want base", got)
	}
}

func TestReverseSlotsIsInvolution(t *testing.T) {
	buf := newSlotBuffer(0, 4)
	gids := []GID{1, 2, 3, 4}
	for i, g := range gids {
		buf.append(g, i)
	}

	buf.reverseSlots()
	var got []GID
	for s := buf.first; s != nil; s = s.next {
		got = append(got, s.GID)
	}
	want := []GID{4, 3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("after one reverse: got %v, want %v", got, want)
		}
	}

	buf.reverseSlots()
	got = got[:0]
	for s := buf.first; s != nil; s = s.next {
		got = append(got, s.GID)
	}
	for i := range gids {
		if got[i] != gids[i] {
			t.Fatalf("after two reverses: got %v, want original %v", got, gids)
		}
	}
}

func TestJustAtGrowsLazily(t *testing.T) {
	s := newSlot(0)
	lvl2 := s.justAt(2)
	if len(lvl2) != numJustParams {
		t.Fatalf("justAt(2) length = %d, want %d", len(lvl2), numJustParams)
	}
	lvl2[0] = 42
	if got := s.justAt(2)[0]; got != 42 {
		t.Fatalf("justAt(2)[0] after write = %d, want 42", got)
	}
}
