package graphite

// Direction is the reading direction a Silf program was authored for.
type Direction uint8

const (
	DirLTR Direction = iota
	DirRTL
	DirNone
)

const noBidiPass = 0xFF

// Silf is one script's shaping program: an ordered list of passes plus
// per-face metadata locating the substitution/positioning/justification/
// bidi pass boundaries, grounded on original_source/inc/Silf.h.
type Silf struct {
	passes []Pass

	sPass, pPass, jPass int // first substitution/positioning/justification pass
	bPass               int // bidi pass index, or noBidiPass

	endLineGID GID
	direction  Direction

	pseudoMap map[rune]GID
	classes   *classMap

	attrBreak, attrBidiClass, attrMirror, attrPassBits, attrCollision int
	attrLig, attrUser, attrMaxComp                                    int

	justLevels []justLevelInfo
}

type justLevelInfo struct {
	attrStretch, attrShrink, attrStep, attrWeight int
}

// runGraphite runs passes [firstPass, lastPass) in order against seg,
// inserting the bidi handling step once when doBidi requests it and this
// Silf declares a bidi pass, per spec.md §4.6.
func (s *Silf) runGraphite(seg *Segment, ctx *ShapingContext, firstPass, lastPass int, doBidi bool) error {
	bidiDone := false
	i := firstPass
	for i < lastPass && i < len(s.passes) {
		if doBidi && s.bPass != noBidiPass && i == s.bPass && !bidiDone {
			if seg.currDir() != s.direction {
				seg.buf.reverseSlots()
				seg.toggleDir()
			}
			if seg.isRTL() {
				seg.applyMirroring(s.attrMirror)
			}
			bidiDone = true
			continue // restart at the same logical pass, per spec.md §4.6
		}

		pass := &s.passes[i]
		if seg.passBits&(1<<uint(i)) != 0 && !pass.isCollision {
			i++
			continue
		}

		if err := pass.runGraphite(seg, ctx, pass.reverseDirection); err != nil {
			return err
		}
		if seg.buf.count > seg.buf.growthLimit {
			return errTable("Silf", ErrSegmentGrowthExceeded, i)
		}
		i++
	}
	return nil
}
