package dsl

// RunContext holds the four memory compartments plus the schema
// registry handle for one script run (spec.md §3, §9 — "re-architect
// as an explicit RunContext value threaded through the executor and
// handlers; the compartment-access discipline becomes a type-level
// capability per phase rather than convention").
//
// Handlers receive *RunContext itself and narrow it to the view of
// their phase (GivenView, WhenView, ThenView) by calling Given(),
// When() or Then(). Each view exposes only the compartments of its
// phase, but nothing in the types stops a handler from calling the
// view of another phase (or RunContext.OUT): which view a handler uses
// is a convention of the handler code, not checked by the compiler.
type RunContext struct {
	in     *Map
	inKeys *Map
	tmp    *tmpCompartment
	ack    *Map
	out    *Map

	schemas *SchemaRegistry

	whoami string
}

// tmpCompartment is TMP (spec.md §3): scratch space written by
// pick/pickin/validate and consumed by ack/ackmy. It is overwritten on
// each pick* call and cleared implicitly by use.
type tmpCompartment struct {
	data   Value
	schema string
	root   string
	valid  Value
	hasRoot bool
}

func newRunContext(schemas *SchemaRegistry) *RunContext {
	return &RunContext{
		in:      NewMap(),
		inKeys:  NewMap(),
		tmp:     &tmpCompartment{},
		ack:     NewMap(),
		out:     NewMap(),
		schemas: schemas,
	}
}

// resetStep replaces IN and IN.KEYS with the given decoded inputs
// (spec.md §4.5 step 1-2). The executor passes values freshly decoded
// from the run's immutable inputs before each AST step.
func (rc *RunContext) resetStep(data, keys Value) {
	rc.in = toMapCompartment(data)
	rc.inKeys = toMapCompartment(keys)
}

// toMapCompartment implements the flattening rule for DATA (spec.md
// §4.5 step 1 and §6 S6): a plain array of mappings is flattened one
// level by merging its members into IN, later keys winning; anything
// else (a mapping, or nothing) is assigned directly.
func toMapCompartment(v Value) *Map {
	switch t := v.(type) {
	case *Map:
		return t
	case Seq:
		merged := NewMap()
		for _, item := range t {
			if m, is := item.(*Map); is {
				for _, k := range m.Keys() {
					val, _ := m.Get(k)
					merged.Set(k, val)
				}
			}
		}
		return merged
	case nil:
		return NewMap()
	default:
		return NewMap()
	}
}

// GivenView is the capability a Given handler and the Given built-ins
// receive: read access to IN/IN.KEYS, read-write access to TMP, and
// write access to ACK (spec.md §3 compartment table).
type GivenView struct {
	rc *RunContext
}

func (g GivenView) IN() *Map     { return g.rc.in }
func (g GivenView) INKeys() *Map { return g.rc.inKeys }

func (g GivenView) TMPData() Value        { return g.rc.tmp.data }
func (g GivenView) TMPSchema() string     { return g.rc.tmp.schema }
func (g GivenView) TMPRoot() (string, bool) { return g.rc.tmp.root, g.rc.tmp.hasRoot }
func (g GivenView) TMPValid() Value       { return g.rc.tmp.valid }

func (g GivenView) SetTMP(data Value, schema string) {
	g.rc.tmp.data = data
	g.rc.tmp.schema = schema
	g.rc.tmp.root = ""
	g.rc.tmp.hasRoot = false
	g.rc.tmp.valid = nil
}

func (g GivenView) SetTMPRoot(root string) {
	g.rc.tmp.root = root
	g.rc.tmp.hasRoot = true
}

func (g GivenView) SetTMPValid(v Value) {
	g.rc.tmp.valid = v
}

func (g GivenView) ClearTMPValid() {
	g.rc.tmp.valid = nil
}

func (g GivenView) Schemas() *SchemaRegistry { return g.rc.schemas }

func (g GivenView) Whoami() (string, bool) {
	if g.rc.whoami == "" {
		return "", false
	}
	return g.rc.whoami, true
}

func (g GivenView) SetWhoami(name string) error {
	if g.rc.whoami != "" {
		return IdentityError("identity already set to " + g.rc.whoami)
	}
	g.rc.whoami = name
	return nil
}

func (g GivenView) ACK() *Map { return g.rc.ack }

// WhenView is the capability a When handler receives: read-write
// access to ACK, no access to IN/TMP/OUT.
type WhenView struct {
	rc *RunContext
}

func (w WhenView) ACK() *Map { return w.rc.ack }
func (w WhenView) Whoami() (string, bool) {
	if w.rc.whoami == "" {
		return "", false
	}
	return w.rc.whoami, true
}

// ThenView is the capability a Then handler receives: read access to
// ACK, write access to OUT.
type ThenView struct {
	rc *RunContext
}

func (t ThenView) ACK() *Map { return t.rc.ack }
func (t ThenView) OUT() *Map { return t.rc.out }
func (t ThenView) Whoami() (string, bool) {
	if t.rc.whoami == "" {
		return "", false
	}
	return t.rc.whoami, true
}

// Given narrows rc to a GivenView.
func (rc *RunContext) Given() GivenView { return GivenView{rc: rc} }

// When narrows rc to a WhenView.
func (rc *RunContext) When() WhenView { return WhenView{rc: rc} }

// Then narrows rc to a ThenView.
func (rc *RunContext) Then() ThenView { return ThenView{rc: rc} }

// OUT exposes the OUT compartment for the final encoder (spec.md §4.5
// post-run).
func (rc *RunContext) OUT() *Map { return rc.out }
