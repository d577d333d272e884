package graphite

import "testing"

func TestPositionSlotsLTRAccumulatesAdvance(t *testing.T) {
	buf := newSlotBuffer(0, 3)
	a := buf.append(GID(1), 0)
	b := buf.append(GID(2), 1)
	c := buf.append(GID(3), 2)
	a.Advance.X, b.Advance.X, c.Advance.X = 10, 20, 30

	adv := positionSlots(buf, buf.first, buf.last, false, true, 0)
	if adv.X != 60 {
		t.Fatalf("total advance = %v, want 60", adv.X)
	}
	if a.Origin.X != 0 {
		t.Fatalf("a.Origin.X = %v, want 0", a.Origin.X)
	}
	if b.Origin.X != 10 {
		t.Fatalf("b.Origin.X = %v, want 10", b.Origin.X)
	}
	if c.Origin.X != 30 {
		t.Fatalf("c.Origin.X = %v, want 30", c.Origin.X)
	}
}

func TestPositionSlotsRTLReversesLayout(t *testing.T) {
	buf := newSlotBuffer(0, 2)
	a := buf.append(GID(1), 0)
	b := buf.append(GID(2), 1)
	a.Advance.X, b.Advance.X = 10, 20

	adv := positionSlots(buf, buf.first, buf.last, true, true, 0)
	if adv.X != 30 {
		t.Fatalf("total advance = %v, want 30", adv.X)
	}
	// in RTL, the visually-first cluster (b) is laid out at the origin.
	if b.Origin.X != 0 {
		t.Fatalf("b.Origin.X = %v, want 0", b.Origin.X)
	}
	if a.Origin.X != 20 {
		t.Fatalf("a.Origin.X = %v, want 20", a.Origin.X)
	}
}

func TestPositionSlotsAppliesScale(t *testing.T) {
	buf := newSlotBuffer(0, 1)
	a := buf.append(GID(1), 0)
	a.Advance.X = 10

	adv := positionSlots(buf, buf.first, buf.last, false, true, 2)
	if adv.X != 20 {
		t.Fatalf("scaled advance = %v, want 20", adv.X)
	}
}
