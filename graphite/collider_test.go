package graphite

import "testing"

func colliderTestSegment(bbox Rect) (*Segment, *Slot, *Slot) {
	cache := &GlyphCache{numGlyphs: 3, cache: map[GID]*GlyphFace{
		1: {GID: 1, Bbox: bbox},
		2: {GID: 2, Bbox: bbox},
	}}
	buf := newSlotBuffer(0, 2)
	a := buf.append(GID(1), 0)
	b := buf.append(GID(2), 1)
	seg := &Segment{face: &Face{glyphs: cache}, buf: buf}
	return seg, a, b
}

func TestShiftColliderNoOverlapResolvesZero(t *testing.T) {
	seg, a, b := colliderTestSegment(Rect{Bl: Position{-5, -5}, Tr: Position{5, 5}})
	a.Origin = Position{0, 0}
	b.Origin = Position{100, 0} // far enough apart that bboxes never touch

	c := newShiftCollider(a)
	c.mergeSlot(seg, b)
	shift := c.resolve()
	if shift.X != 0 || shift.Y != 0 {
		t.Fatalf("shift = %v, want zero for non-overlapping glyphs", shift)
	}
}

func TestShiftColliderOverlapProducesNonZeroShift(t *testing.T) {
	seg, a, b := colliderTestSegment(Rect{Bl: Position{-5, -5}, Tr: Position{5, 5}})
	a.Origin = Position{0, 0}
	b.Origin = Position{2, 0} // bboxes overlap by 8 units on X, 10 on Y

	c := newShiftCollider(a)
	c.mergeSlot(seg, b)
	shift := c.resolve()
	if shift.X == 0 && shift.Y == 0 {
		t.Fatal("expected a non-zero shift for overlapping glyphs")
	}
}

func TestShiftColliderIgnoresSelfAndDeleted(t *testing.T) {
	seg, a, b := colliderTestSegment(Rect{Bl: Position{-5, -5}, Tr: Position{5, 5}})
	a.Origin, b.Origin = Position{0, 0}, Position{0, 0}
	b.Flags |= FlagDeleted

	c := newShiftCollider(a)
	c.mergeSlot(seg, a) // self
	c.mergeSlot(seg, b) // deleted
	shift := c.resolve()
	if shift.X != 0 || shift.Y != 0 {
		t.Fatalf("shift = %v, want zero: self and deleted slots must not contribute", shift)
	}
}

func TestCollisionFinishFoldsShiftAndRepositions(t *testing.T) {
	seg, a, b := colliderTestSegment(Rect{Bl: Position{0, 0}, Tr: Position{10, 10}})
	a.Advance.X, b.Advance.X = 10, 10
	a.collision().currShift = Position{X: 3}
	b.collision().currShift = Position{X: -2}

	collisionFinish(seg)

	if a.Shift.X != 3 {
		t.Fatalf("a.Shift.X = %v, want 3", a.Shift.X)
	}
	if b.Shift.X != -2 {
		t.Fatalf("b.Shift.X = %v, want -2", b.Shift.X)
	}
	if a.coll.currShift != (Position{}) {
		t.Fatal("currShift should be cleared after collisionFinish")
	}
}

func TestCollisionKernEnforcesMinimumGap(t *testing.T) {
	seg, a, b := colliderTestSegment(Rect{Bl: Position{0, 0}, Tr: Position{10, 10}})
	a.Origin.X = 0
	b.Origin.X = -5 // overlapping with a, violating the minimum gap
	b.collision().flags = collKern | collFix

	collisionKern(seg, KernInWord)
	if b.coll.currShift.X <= 0 {
		t.Fatalf("expected collisionKern to push b forward, got shift.X = %v", b.coll.currShift.X)
	}
}
