package graphite

import (
	"encoding/json"
	"io"
)

// TraceSink is the interface for structured shaping events. It is
// optional and passed explicitly through LoadOptions.Trace, which Face
// stores, rather than held in process-wide state. The shaping code does
// not call the stored sink, so no events are emitted during shaping.
// jsonTraceSink below gives the excluded JSON-tracing subsystem's
// record shape.
type TraceSink interface {
	Pass(index int, slotsBefore, slotsAfter int)
	Rule(passIndex int, ruleLoadOrder int, applied bool, cursorAdvance int32)
	Collision(slotIndex int, shift Position)
}

// jsonTraceSink writes one JSON object per line to w, in the same shape
// of record (pass/slot/collision/rule) the original's logging.go JSON
// dump used (passJSON/slotJSON/collisionJSON/ruleJSON), adapted to this
// engine's own field names.
type jsonTraceSink struct {
	w   io.Writer
	enc *json.Encoder
}

// NewJSONTraceSink builds a TraceSink that streams newline-delimited JSON
// trace records to w.
func NewJSONTraceSink(w io.Writer) TraceSink {
	return &jsonTraceSink{w: w, enc: json.NewEncoder(w)}
}

type passTraceRecord struct {
	Kind        string `json:"kind"`
	Pass        int    `json:"pass"`
	SlotsBefore int    `json:"slotsBefore"`
	SlotsAfter  int    `json:"slotsAfter"`
}

type ruleTraceRecord struct {
	Kind          string `json:"kind"`
	Pass          int    `json:"pass"`
	RuleLoadOrder int    `json:"ruleLoadOrder"`
	Applied       bool   `json:"applied"`
	CursorAdvance int32  `json:"cursorAdvance"`
}

type collisionTraceRecord struct {
	Kind      string  `json:"kind"`
	SlotIndex int     `json:"slotIndex"`
	ShiftX    float32 `json:"shiftX"`
	ShiftY    float32 `json:"shiftY"`
}

func (j *jsonTraceSink) Pass(index int, before, after int) {
	j.enc.Encode(passTraceRecord{Kind: "pass", Pass: index, SlotsBefore: before, SlotsAfter: after})
}

func (j *jsonTraceSink) Rule(passIndex, ruleLoadOrder int, applied bool, adv int32) {
	j.enc.Encode(ruleTraceRecord{Kind: "rule", Pass: passIndex, RuleLoadOrder: ruleLoadOrder, Applied: applied, CursorAdvance: adv})
}

func (j *jsonTraceSink) Collision(slotIndex int, shift Position) {
	j.enc.Encode(collisionTraceRecord{Kind: "collision", SlotIndex: slotIndex, ShiftX: shift.X, ShiftY: shift.Y})
}
