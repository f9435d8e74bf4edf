package dsl

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Traceback accumulates one line per trace call (spec.md §4.6). It is
// scoped to a single run rather than the whole process (a Go-idiomatic
// narrowing of the original "process-scoped traceback buffer" now that
// the buffer lives on an explicit RunContext-adjacent value instead of
// a global).
type Traceback struct {
	RunID ulid.ULID
	lines []string
}

// NewTraceback starts a new, empty buffer tagged with a fresh run
// identifier that names this run in its Dump. The identifier is not
// linked to any scenario LoadResult.LoadID.
func NewTraceback() *Traceback {
	return &Traceback{RunID: ulid.Make()}
}

// Trace appends a formatted line to the buffer.
func (t *Traceback) Trace(format string, args ...interface{}) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

// Lines returns the accumulated lines.
func (t *Traceback) Lines() []string {
	return t.lines
}

// Clear empties the buffer.
func (t *Traceback) Clear() {
	t.lines = nil
}

// Dump is the structured failure report (spec.md §4.6): the
// traceback buffer, followed by ordered dumps of IN, TMP, ACK, OUT and
// the schema registry.
type Dump struct {
	RunID   string   `json:"run_id" msgpack:"run_id"`
	Trace   []string `json:"trace" msgpack:"trace"`
	IN      string   `json:"in" msgpack:"in"`
	TMP     string   `json:"tmp" msgpack:"tmp"`
	ACK     string   `json:"ack" msgpack:"ack"`
	OUT     string   `json:"out" msgpack:"out"`
	Schemas []string `json:"schemas" msgpack:"schemas"`
}

// BuildDump renders rc's compartments with spew.Sdump, the same
// library the retrieval pack's own test/debug tooling favors for
// structured dumps of nested Go values.
func BuildDump(tb *Traceback, rc *RunContext) *Dump {
	return &Dump{
		RunID:   tb.RunID.String(),
		Trace:   append([]string(nil), tb.Lines()...),
		IN:      spew.Sdump(rc.in),
		TMP:     spew.Sdump(rc.tmp),
		ACK:     spew.Sdump(rc.ack),
		OUT:     spew.Sdump(rc.out),
		Schemas: rc.schemas.Names(),
	}
}

// Text renders the dump the way spec.md §4.6 describes stderr output:
// the trace buffer followed by the ordered compartment dumps.
func (d *Dump) Text() string {
	out := "traceback:\n"
	for _, l := range d.Trace {
		out += "  " + l + "\n"
	}
	out += "IN:\n" + d.IN
	out += "TMP:\n" + d.TMP
	out += "ACK:\n" + d.ACK
	out += "OUT:\n" + d.OUT
	return out
}

// MsgPack renders the same Dump in the compact binary format some
// machine consumers prefer over the JSON-formatted debug dump
// (spec.md §4.6, "a separate JSON-formatted debug dump is also
// available for machine consumers").
func (d *Dump) MsgPack() ([]byte, error) {
	return msgpack.Marshal(d)
}
