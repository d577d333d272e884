package graphite

// positionSlots implements spec.md §4.7's two-pass placement algorithm:
// first every cluster resolves its internal metrics, then clusters are
// laid out left-to-right (or reversed for RTL) accumulating the total
// advance. scale 0 means "no scaling" (font.scale == 1).
func positionSlots(buf *SlotBuffer, first, last *Slot, isRTL, isFinal bool, scale float32) Position {
	if first == nil {
		return Position{}
	}
	if last == nil {
		last = buf.last
	}

	// Pass 1: reset origins, absorb cluster member positions into each
	// base's scratch LSB/RSB.
	for s := first; s != nil; s = s.next {
		s.Origin = Position{}
		s.clusterLSB, s.clusterRSB = 0, 0
		if s == last {
			break
		}
	}
	for s := first; s != nil; s = s.next {
		updateClusterMetrics(s)
		if s == last {
			break
		}
	}

	clusters := collectClusters(first, last)
	if isRTL {
		for i, j := 0, len(clusters)-1; i < j; i, j = i+1, j-1 {
			clusters[i], clusters[j] = clusters[j], clusters[i]
		}
	}

	var advance Position
	for _, base := range clusters {
		shift := base.Shift
		offsetX := advance.X - base.clusterLSB
		if base.coll != nil {
			offsetX += base.coll.currShift.X
		}
		if isRTL {
			offsetX -= shift.X
		} else {
			offsetX += shift.X
		}
		base.Origin = Position{X: offsetX, Y: advance.Y + shift.Y}

		for s := base.next; s != nil && s != clusterEnd(base, last); s = s.next {
			if findRoot(s) != base {
				continue
			}
			parentOrigin := resolveOrigin(s)
			s.Origin = parentOrigin
		}

		width := base.clusterRSB - base.clusterLSB
		if width < 0 {
			width = 0
		}
		advance.X += width
	}

	if scale != 0 && scale != 1 {
		for s := first; s != nil; s = s.next {
			s.Origin = s.Origin.Scale(scale)
			if s == last {
				break
			}
		}
		advance = advance.Scale(scale)
	}

	if isFinal && advance.X < 0 {
		advance.X = 0
	}
	return advance
}

// resolveOrigin computes an attached slot's absolute origin as its
// parent's origin plus its own attach-with+shift offset.
func resolveOrigin(s *Slot) Position {
	if s.parent == nil {
		return s.Origin
	}
	return resolveOrigin(s.parent).Add(s.Attach).Sub(s.With).Add(s.Shift)
}

// collectClusters returns the base slot of every cluster in [first,last]
// in buffer order.
func collectClusters(first, last *Slot) []*Slot {
	var out []*Slot
	for s := first; s != nil; s = s.next {
		if s.Flags&FlagClusterHead != 0 {
			out = append(out, s)
		}
		if s == last {
			break
		}
	}
	return out
}

// clusterEnd returns the slot one past the end of base's cluster (the
// next cluster head, or nil), bounded by last.
func clusterEnd(base, last *Slot) *Slot {
	for s := base.next; s != nil; s = s.next {
		if s.Flags&FlagClusterHead != 0 {
			return s
		}
		if s == last {
			return s.next
		}
	}
	return nil
}
