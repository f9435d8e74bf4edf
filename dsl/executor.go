package dsl

import "sort"

// Result is what a successful Run produces.
type Result struct {
	OUT   *Map
	Dump  *Dump
	Steps int
}

// Run is the Executor (C8). It iterates script.AST in id order,
// resetting IN/IN.KEYS before each step (spec.md §4.5), invoking each
// bound handler, and aborting with a full diagnostic dump on the
// first failure.
//
// dataJSON/keysJSON are the script's two immutable inputs (spec.md
// §6); their shape is checked once, and they are decoded afresh before
// every step so that no step's mutation of IN can leak into the next
// one (spec.md §8 property 4).
func Run(ctx *Ctx, script *Script, dataJSON, keysJSON string, schemas *SchemaRegistry) (*Result, error) {
	data, err := DecodeValue(dataJSON)
	if err != nil {
		return nil, err
	}
	if err := checkBoundaryShape(data); err != nil {
		return nil, err
	}

	keys, err := DecodeValue(keysJSON)
	if err != nil {
		return nil, err
	}
	if err := checkKeysShape(keys); err != nil {
		return nil, err
	}

	nodes := make(AST, len(script.AST))
	copy(nodes, script.AST)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	rc := newRunContext(schemas)
	tb := NewTraceback()

	for _, node := range nodes {
		stepData, err := DecodeValue(dataJSON)
		if err != nil {
			return nil, err
		}
		stepKeys, err := DecodeValue(keysJSON)
		if err != nil {
			return nil, err
		}
		rc.resetStep(stepData, stepKeys)

		tb.Trace("step %d: %s", node.ID, node.Source)
		ctx.Indf("step %d (%s)", node.ID, node.Phase)

		if err := invoke(ctx, node, rc); err != nil {
			if _, broken := IsBroken(err); broken {
				tb.Trace("FAILED (internal fault): %v", err)
			} else {
				tb.Trace("FAILED: %v", err)
			}
			dump := BuildDump(tb, rc)
			ctx.Errorf("%s", dump.Text())
			return nil, err
		}
	}

	dump := BuildDump(tb, rc)
	return &Result{OUT: rc.out, Dump: dump, Steps: len(nodes)}, nil
}

// invoke calls node.Handler, guarding against unchecked runtime
// faults (a panicking handler is reported as a Broken error rather
// than crashing the whole process) — the Go analogue of spec.md §4.5
// step 4's "guarded against unchecked faults".
func invoke(ctx *Ctx, node *Node, rc *RunContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Brokenf("handler for step %d panicked: %v", node.ID, r)
		}
	}()
	return node.Handler(ctx, rc, node.Args)
}
