package graphite

// SlotKind distinguishes a slot created during normal shaping from one
// produced as a speculative copy during rule application. Replaces the
// C++ original's bare "copied" bit with a typed distinction, per spec.md
// §9's suggested re-architecture.
type SlotKind uint8

const (
	SlotLive SlotKind = iota
	SlotCopy
)

// SlotFlags packs the small set of boolean slot states spec.md §3 names.
type SlotFlags uint16

const (
	FlagDeleted SlotFlags = 1 << iota
	FlagInserted
	FlagPositioned
	FlagClusterHead
	FlagLast
	FlagHasChildren
)

// AttrCode names a fixed slot attribute accessible to attr_set/attr_add
// and push_slot_attr, mirroring the teacher's logging.go acShiftX-style
// constants.
type AttrCode uint8

const (
	AttrShiftX AttrCode = iota
	AttrShiftY
	AttrAdvX
	AttrAdvY
	AttrBreak
	AttrAttLevel
	AttrBidiLevel
	AttrBidiClass
	AttrCollFlags
)

// Slot is the mutable unit of shaping: one glyph record, input and output
// of every pass. Unlike the C++ original's signed offset into a
// relocating buffer, parent/child/sibling links here are ordinary
// pointers between individually heap-allocated nodes — safe because
// insertion and deletion never relocate an existing Slot, only relink the
// list topology (spec.md §9's suggested redesign, grounded on
// whereswaldon-textlayout/graphite/segment.go's slot{next,prev *slot}).
type Slot struct {
	kind SlotKind

	GID     GID // post-substitution glyph id
	RealGID GID // mapped through the pseudo table for rendering

	Origin  Position
	Shift   Position
	Advance Position
	Attach  Position
	With    Position

	before, after int // character-info indices this slot represents
	original      int // original character-info index at construction

	parent   *Slot
	child    *Slot // first child, if has_children
	sibling  *Slot // next child of the same parent
	next     *Slot
	prev     *Slot

	Flags     SlotFlags
	AttLevel  int8
	BidiLevel int8
	BidiCls   int8

	attrs     []int16 // sparse user attributes, dense storage keyed by index
	justify   []int16 // num_just_levels * 5 values, heap-allocated on demand

	clusterLSB, clusterRSB float32 // scratch used by positionSlots

	coll *collisionInfo // allocated lazily, only segments with a collision pass touch this
}

// collision returns s's collision scratch state, allocating it on first
// use — spec.md §3's "optional SlotCollision[], allocated only when at
// least one collision-using pass exists".
func (s *Slot) collision() *collisionInfo {
	if s.coll == nil {
		s.coll = &collisionInfo{}
	}
	return s.coll
}

const numJustParams = 5

func newSlot(numAttrs int) *Slot {
	return &Slot{attrs: make([]int16, numAttrs)}
}

func (s *Slot) isBase() bool   { return s.parent == nil }
func (s *Slot) isDeleted() bool { return s.Flags&FlagDeleted != 0 }

// Attr reads a sparse user attribute, zero if idx is out of the font's
// declared attribute width.
func (s *Slot) Attr(idx int) int16 {
	if idx < 0 || idx >= len(s.attrs) {
		return 0
	}
	return s.attrs[idx]
}

func (s *Slot) SetAttr(idx int, v int16) {
	if idx < 0 || idx >= len(s.attrs) {
		return
	}
	s.attrs[idx] = v
}

// justAt returns the level'th set of justification parameters, growing
// the heap-allocated justify vector on first use — inline-vs-heap
// switching per spec.md §4.7 is modeled here simply as "always heap, grown
// lazily", since Go slices already amortize growth the way the spec
// describes for the heap path; there is no fixed-inline fast path to
// preserve in a GC'd language.
func (s *Slot) justAt(level int) []int16 {
	need := (level + 1) * numJustParams
	if len(s.justify) < need {
		grown := make([]int16, need)
		copy(grown, s.justify)
		s.justify = grown
	}
	return s.justify[level*numJustParams : level*numJustParams+numJustParams]
}

// addChild attaches child to s, clearing FlagClusterHead on every slot
// strictly between child and parent so cluster iteration treats the
// whole attachment run as one cluster, per spec.md §4.7.
func (s *Slot) addChild(child *Slot) {
	if child.parent == s {
		return
	}
	child.parent = s
	child.sibling = s.child
	s.child = child
	s.Flags |= FlagHasChildren

	if slotAfter(s, child) {
		for between := child.next; between != nil && between != s; between = between.next {
			between.Flags &^= FlagClusterHead
		}
	} else {
		for between := s.next; between != nil && between != child; between = between.next {
			between.Flags &^= FlagClusterHead
		}
	}
}

// removeChild detaches child from its parent, restoring FlagClusterHead
// on the first remaining intermediate slot whose base is still the
// detached child, and clearing the parent's FlagHasChildren if no
// children remain.
func (s *Slot) removeChild(child *Slot) {
	if child.parent != s {
		return
	}
	if s.child == child {
		s.child = child.sibling
	} else {
		for c := s.child; c != nil; c = c.sibling {
			if c.sibling == child {
				c.sibling = child.sibling
				break
			}
		}
	}
	child.parent = nil
	child.sibling = nil
	if s.child == nil {
		s.Flags &^= FlagHasChildren
	}

	child.Flags |= FlagClusterHead
}

// findRoot walks parent links to the base of s's cluster, grounded on
// whereswaldon-textlayout/graphite/segment.go's findRoot.
func findRoot(s *Slot) *Slot {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

// updateClusterMetrics recursively resolves s's position (spec.md §4.7's
// "cluster metric update"): a base sits at the origin; an attached slot's
// position is its parent's resolved position plus attach-with+shift.
func updateClusterMetrics(s *Slot) Position {
	var pos Position
	if s.parent != nil {
		parentPos := updateClusterMetrics(s.parent)
		pos = parentPos.Add(s.Attach).Sub(s.With).Add(s.Shift)
	}
	if s.Advance.X >= 0.5 || s.parent == nil {
		base := findRoot(s)
		if pos.X < base.clusterLSB || base.clusterLSB == 0 && pos.X < 0 {
			base.clusterLSB = pos.X
		}
		right := pos.X + s.Advance.X
		if right > base.clusterRSB {
			base.clusterRSB = right
		}
	}
	return pos
}

// SlotBuffer is an ordered, doubly-linked sequence of slots. The list is
// nil-terminated: last.next is nil and no sentinel slot is kept.
type SlotBuffer struct {
	first, last *Slot
	free        *Slot // free list for deleted/recycled slots
	numAttrs    int
	growthLimit int
	count       int
}

func newSlotBuffer(numAttrs, initialGlyphs int) *SlotBuffer {
	const maxSegGrowthFactor = 64
	limit := initialGlyphs * maxSegGrowthFactor
	if limit < maxSegGrowthFactor {
		limit = maxSegGrowthFactor
	}
	return &SlotBuffer{numAttrs: numAttrs, growthLimit: limit}
}

// allocSlot returns a slot from the free list if one is available, else a
// freshly zero-initialized node — spec.md §4.7's "every newly allocated
// slot is zero-initialized in both its scalar fields and its attribute
// vector".
func (b *SlotBuffer) allocSlot() *Slot {
	if b.free != nil {
		s := b.free
		b.free = s.next
		*s = Slot{attrs: make([]int16, b.numAttrs)}
		return s
	}
	return newSlot(b.numAttrs)
}

func (b *SlotBuffer) releaseSlot(s *Slot) {
	s.next = b.free
	b.free = s
}

// append adds a new live slot to the end of the buffer.
func (b *SlotBuffer) append(gid GID, charIdx int) *Slot {
	s := b.allocSlot()
	s.GID, s.RealGID = gid, gid
	s.before, s.after, s.original = charIdx, charIdx, charIdx
	s.Flags = FlagClusterHead
	if b.last == nil {
		b.first = s
	} else {
		b.last.next = s
		s.prev = b.last
	}
	b.last = s
	b.count++
	return s
}

// insertAfter inserts a freshly allocated slot immediately after at,
// returning it. Used by the insert opcode.
func (b *SlotBuffer) insertAfter(at *Slot, gid GID) *Slot {
	s := b.allocSlot()
	s.GID, s.RealGID = gid, gid
	s.Flags = FlagInserted | FlagClusterHead
	s.next = at.next
	s.prev = at
	if at.next != nil {
		at.next.prev = s
	} else {
		b.last = s
	}
	at.next = s
	b.count++
	return s
}

// remove marks s deleted and detaches it from the attachment graph,
// transferring FlagClusterHead to the next surviving cluster member when
// s was a cluster head, per spec.md §3's SlotBuffer invariant.
func (b *SlotBuffer) remove(s *Slot) {
	s.Flags |= FlagDeleted
	if s.parent != nil {
		s.parent.removeChild(s)
	}
	if s.Flags&FlagClusterHead != 0 && s.next != nil {
		s.next.Flags |= FlagClusterHead
	}
}

// reverseSlots reverses the visual order of the whole buffer in place,
// preserving mark-after-base ordering for attached diacritics — grounded
// directly on whereswaldon-textlayout/graphite/segment.go's reverseSlots.
// Running it twice yields the original sequence (spec.md §8).
func (b *SlotBuffer) reverseSlots() {
	if b.first == nil || b.first == b.last {
		return
	}

	var clusters [][]*Slot
	var cur []*Slot
	for s := b.first; s != nil; s = s.next {
		if s.Flags&FlagClusterHead != 0 && len(cur) > 0 {
			clusters = append(clusters, cur)
			cur = nil
		}
		cur = append(cur, s)
	}
	if len(cur) > 0 {
		clusters = append(clusters, cur)
	}

	for i, j := 0, len(clusters)-1; i < j; i, j = i+1, j-1 {
		clusters[i], clusters[j] = clusters[j], clusters[i]
	}

	var prev *Slot
	for _, cl := range clusters {
		for _, s := range cl {
			s.prev = prev
			if prev != nil {
				prev.next = s
			} else {
				b.first = s
			}
			prev = s
		}
	}
	if prev != nil {
		prev.next = nil
	}
	b.last = prev
}

// collisionInfo is the per-slot scratch state the Collider reads and
// writes; allocated only when at least one collision-using pass exists
// (spec.md §3's Segment.SlotCollision[], modeled here as a field on Slot
// directly since our Slot is already individually heap-allocated rather
// than index-addressed).
type collisionInfo struct {
	target, origin Position
	currShift      Position
	ranges         [8]collRange
	flags          collFlags
}

type collRange struct{ lo, hi float32 }

type collFlags uint16

const (
	collFix collFlags = 1 << iota
	collKern
	collFixFlag
	collTempLock
)
