package graphite

// ShapingContext is per-shape scratch state: the rule input window, the
// high-water mark guarding against non-progressing loops, and a
// decrementing per-shape work budget — spec.md §3/§4.8.
type ShapingContext struct {
	segment *Segment
	dir     int

	win        []*Slot // the rule input map: pre-context slots followed by the matched window
	precontext int     // number of pushed slots that are pre-context, not part of the match

	highwater  *Slot
	highpassed bool

	maxSize int // decrements once per rule apply; exhaustion aborts the shape
}

func newShapingContext(seg *Segment, maxSize int) *ShapingContext {
	return &ShapingContext{segment: seg, maxSize: maxSize}
}

// reset walks back from slot up to maxPreContext times to find the
// earliest pre-context slot, clears the input map, and returns that
// backed-up slot — spec.md §4.8. It does not itself push anything into
// the map: the FSM walk that follows must run real column/transition
// lookups over every slot from the returned start through the match
// window, the pre-context glyphs included, not just their count.
func (c *ShapingContext) reset(slot *Slot, maxPreContext int) *Slot {
	c.win = c.win[:0]
	s := slot
	n := 0
	for n < maxPreContext && s.prev != nil {
		s = s.prev
		n++
	}
	c.precontext = n
	return s
}

// pushSlot appends slot to the input map.
func (c *ShapingContext) pushSlot(slot *Slot) {
	c.win = append(c.win, slot)
}

// context returns the logical "current slot" cursor: pushes so far minus
// the pre-context length.
func (c *ShapingContext) context() int {
	return len(c.win) - c.precontext
}

// at returns the slot at map offset i (0 == precontext start), or nil if
// out of range — used by slot-navigation opcodes to bounds-check.
func (c *ShapingContext) at(i int) *Slot {
	if i < 0 || i >= len(c.win) {
		return nil
	}
	return c.win[i]
}

// slotAtCursor returns the slot the VM's current logical cursor refers
// to: precontext + cursorOffset.
func (c *ShapingContext) slotAtCursor(cursorOffset int) *Slot {
	return c.at(c.precontext + cursorOffset)
}

// collectGarbage sweeps the input map from the end backward, freeing
// every slot that is a SlotCopy, is marked deleted, and is not the
// current cursor slot — spec.md §4.8.
func (c *ShapingContext) collectGarbage(buf *SlotBuffer, cursor *Slot) {
	for i := len(c.win) - 1; i >= 0; i-- {
		s := c.win[i]
		if s == cursor {
			continue
		}
		if s.kind == SlotCopy && s.isDeleted() {
			buf.releaseSlot(s)
		}
	}
}

// spendBudget decrements the per-shape rule budget, reporting whether it
// is now exhausted.
func (c *ShapingContext) spendBudget() bool {
	if c.maxSize <= 0 {
		return true
	}
	c.maxSize--
	return c.maxSize <= 0
}
