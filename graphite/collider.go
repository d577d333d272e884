package graphite

// shiftVectors are the 8 candidate displacement directions a
// ShiftCollider evaluates, per spec.md §4.10.
var shiftVectors = [8]Position{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// shiftCollider accumulates, per candidate neighbor, the forbidden
// interval along each of the 8 shift vectors for one slot, then resolves
// the minimal-weighted-displacement shift.
type shiftCollider struct {
	target *Slot
	origin Position
	ranges [8]collRange
}

func newShiftCollider(target *Slot) *shiftCollider {
	c := &shiftCollider{target: target, origin: target.Origin}
	for i := range c.ranges {
		c.ranges[i] = collRange{lo: -1e9, hi: 1e9}
	}
	return c
}

// mergeSlot intersects candidate's bbox (already positioned) against
// target's permissible region along each shift vector, narrowing the
// forbidden interval. This is the simplified, axis-aligned form of
// spec.md §4.10's mergeSlot: it treats the target and candidate bboxes as
// static rectangles and records the overlap extent along each vector.
func (c *shiftCollider) mergeSlot(seg *Segment, candidate *Slot) {
	if candidate == c.target || candidate.isDeleted() {
		return
	}
	tb := seg.glyphBBox(c.target)
	cb := seg.glyphBBox(candidate)

	overlapX := minF(tb.Tr.X, cb.Tr.X) - maxF(tb.Bl.X, cb.Bl.X)
	overlapY := minF(tb.Tr.Y, cb.Tr.Y) - maxF(tb.Bl.Y, cb.Bl.Y)
	if overlapX <= 0 || overlapY <= 0 {
		return
	}

	for i, v := range shiftVectors {
		// Along a vector pointing away from the candidate, the needed
		// displacement is proportional to the overlap on that axis.
		needed := overlapX*absF(v.X) + overlapY*absF(v.Y)
		if needed < c.ranges[i].hi {
			c.ranges[i].hi = needed
		}
	}
}

// resolve picks the shift vector minimizing weighted displacement,
// breaking ties toward smaller magnitude, per spec.md §4.10.
func (c *shiftCollider) resolve() Position {
	best := Position{}
	bestCost := float32(1e18)
	for i, v := range shiftVectors {
		dist := c.ranges[i].hi
		if dist <= 0 || dist >= 1e9 {
			// still at the initial sentinel: no candidate ever overlapped
			// along this vector, so it imposes no real displacement need.
			continue
		}
		weight := float32(1)
		if v.X != 0 && v.Y != 0 {
			weight = 1.41421356 // diagonal moves cost more
		}
		cost := dist * weight
		if cost < bestCost-1e-6 || (cost < bestCost+1e-6 && dist < absF(best.X)+absF(best.Y)) {
			bestCost = cost
			best = v.Scale(dist)
		}
	}
	return best
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
func absF(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

// collisionShift runs the Phase 1/2a/2b sequence of spec.md §4.10 over
// the whole segment: compute each COLL_FIX slot's shift against its
// already-positioned neighbors, then iterate backward/forward refining
// up to numRuns-1 additional times.
func collisionShift(seg *Segment, numRuns int) {
	phase1(seg)
	for run := 1; run < numRuns; run++ {
		phase2a(seg)
		phase2b(seg)
	}
}

func phase1(seg *Segment) {
	for s := seg.buf.first; s != nil; s = s.next {
		if s.coll == nil || s.coll.flags&collFix == 0 || s.coll.flags&collKern != 0 {
			continue
		}
		shiftOneSlot(seg, s)
	}
}

func phase2a(seg *Segment) {
	slots := collectSlotsReverse(seg)
	for _, s := range slots {
		if s.coll == nil || s.coll.flags&(collFix|collTempLock) != collFix {
			continue
		}
		shiftOneSlot(seg, s)
		s.coll.flags |= collTempLock
	}
}

func phase2b(seg *Segment) {
	for s := seg.buf.first; s != nil; s = s.next {
		if s.coll == nil {
			continue
		}
		if s.coll.flags&collFix == 0 || s.coll.flags&(collKern|collTempLock) != 0 {
			continue
		}
		shiftOneSlot(seg, s)
	}
}

func shiftOneSlot(seg *Segment, s *Slot) {
	c := newShiftCollider(s)
	for n := seg.buf.first; n != nil; n = n.next {
		if n == s {
			continue
		}
		c.mergeSlot(seg, n)
	}
	shift := c.resolve()
	s.collision().currShift = shift
}

func collectSlotsReverse(seg *Segment) []*Slot {
	var out []*Slot
	for s := seg.buf.first; s != nil; s = s.next {
		out = append(out, s)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// collisionKern implements spec.md §4.10's phase 3: for each slot with
// both COLL_KERN and COLL_FIX, push the cluster head right so that its
// origin is not left of the previous cluster head's origin. Only the
// previous cluster head is compared, not the slot's own cluster, and
// KernInWord and KernCrossSpace apply the same zero minimum gap.
func collisionKern(seg *Segment, mode KernMode) {
	var prevClusterEnd *Slot
	for s := seg.buf.first; s != nil; s = s.next {
		if s.Flags&FlagClusterHead == 0 {
			continue
		}
		if s.coll != nil && s.coll.flags&(collKern|collFix) == (collKern|collFix) {
			if prevClusterEnd != nil {
				gap := s.Origin.X - prevClusterEnd.Origin.X
				minGap := float32(0)
				if mode == KernInWord {
					minGap = 0
				}
				if gap < minGap {
					s.collision().currShift.X += minGap - gap
				}
			}
		}
		prevClusterEnd = s
	}
}

// collisionFinish folds every slot's accumulated shift into its shift
// field (visible to positionSlots), clearing the collision scratch shift,
// per spec.md §4.10.
func collisionFinish(seg *Segment) {
	for s := seg.buf.first; s != nil; s = s.next {
		if s.coll == nil {
			continue
		}
		s.Shift = s.Shift.Add(s.coll.currShift)
		s.coll.currShift = Position{}
	}
	seg.advance = positionSlots(seg.buf, seg.buf.first, seg.buf.last, seg.isRTL(), true, seg.scale)
}
