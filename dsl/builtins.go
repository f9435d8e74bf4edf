package dsl

import "fmt"

// RegisterBuiltins installs the memory-movement primitives every
// scenario depends on (spec.md §4.4, C10): Iam, pick, pickin,
// validate, ack, ackmy, draft, out, outmy, convert. They are
// registered like any other scenario pattern, just always present.
func RegisterBuiltins(reg *Registries) {
	reg.GivenFunc("i am ''", givenIam)
	reg.GivenFunc("my identity is ''", givenIam)
	reg.GivenFunc("i am known", givenIam)

	reg.GivenFunc("i have a ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenPick(ctx, rc, args[0])
	})
	reg.GivenFunc("i have ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenPick(ctx, rc, args[0])
	})
	reg.GivenFunc("'' inside ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenPickin(ctx, rc, args[1], args[0])
	})
	reg.GivenFunc("i have a '' inside ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenPickin(ctx, rc, args[1], args[0])
	})
	reg.GivenFunc("i have a '' as object ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenPickObj(ctx, rc, args[0], args[1])
	})

	reg.GivenFunc("i validate the data with ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenValidate(ctx, rc, "", args[0])
	})
	reg.GivenFunc("i validate the '' data with ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenValidate(ctx, rc, args[0], args[1])
	})

	reg.GivenFunc("i ack the data", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenAck(ctx, rc, "data")
	})
	reg.GivenFunc("i ack the '' data", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenAck(ctx, rc, args[0])
	})
	reg.GivenFunc("i ack my ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenAckmy(ctx, rc, args[0])
	})
	reg.GivenFunc("i ack my '' as object ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenAckmyObj(ctx, rc, args[0], args[1])
	})
	reg.GivenFunc("i draft the string ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenDraft(ctx, rc, args[0])
	})

	reg.ThenFunc("print the ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return thenOut(ctx, rc, args[0], false)
	})
	reg.ThenFunc("print ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return thenOut(ctx, rc, args[0], false)
	})
	reg.ThenFunc("print my ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return thenOut(ctx, rc, args[0], true)
	})

	reg.GivenFunc("i convert '' to ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		return givenConvert(ctx, rc, args[0], args[1])
	})
}

// givenIam implements Iam(name) (spec.md §4.4): sets ACK.whoami if
// unset; called without an argument ("i am known") it asserts that
// identity is already set.
func givenIam(ctx *Ctx, rc *RunContext, args []string) error {
	g := rc.Given()
	if len(args) == 0 {
		if _, have := g.Whoami(); !have {
			return IdentityError("identity not set")
		}
		return nil
	}
	name := args[0]
	if err := g.SetWhoami(name); err != nil {
		return err
	}
	ctx.Indf("identity set to %s", name)
	return nil
}

// oneDeepLookup implements spec.md §4.4's pick() search rule: return
// container[what] if present, else scan one level of nested mappings
// (in insertion order) and return the first child[what] found.
func oneDeepLookup(container *Map, what string) (Value, bool) {
	if v, ok := container.Get(what); ok {
		return v, true
	}
	for _, key := range container.Keys() {
		child, ok := container.Get(key)
		if !ok {
			continue
		}
		if childMap, is := child.(*Map); is {
			if v, ok := childMap.Get(what); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// givenPick implements pick(what) without an inline object: searches
// IN.KEYS then IN with the one-deep lookup rule.
func givenPick(ctx *Ctx, rc *RunContext, what string) error {
	g := rc.Given()
	if v, ok := oneDeepLookup(g.INKeys(), what); ok {
		g.SetTMP(v, what)
		ctx.Inddf("picked %s from IN.KEYS", what)
		return nil
	}
	if v, ok := oneDeepLookup(g.IN(), what); ok {
		g.SetTMP(v, what)
		ctx.Inddf("picked %s from IN", what)
		return nil
	}
	return NotFound(what)
}

// givenPickObj implements pick(what, obj)'s inline-object mode
// (spec.md §4.4): obj names a value already resolvable directly off
// IN.KEYS or IN (not one-deep, since obj already names the object
// itself rather than a key nested inside one), and binds
// TMP <- {data: obj, schema: what, root: none} directly, skipping the
// one-deep search givenPick uses for the no-obj path.
func givenPickObj(ctx *Ctx, rc *RunContext, what, objName string) error {
	g := rc.Given()
	obj, ok := g.INKeys().Get(objName)
	if !ok {
		obj, ok = g.IN().Get(objName)
	}
	if !ok {
		return NotFound(objName)
	}
	g.SetTMP(obj, what)
	ctx.Inddf("picked %s as object, schema %s", objName, what)
	return nil
}

// givenPickin implements pickin(section, what): resolves section by
// one-deep lookup over IN.KEYS then IN, then resolves what by
// one-deep lookup inside the resolved section.
func givenPickin(ctx *Ctx, rc *RunContext, section, what string) error {
	g := rc.Given()

	resolveSection := func(container *Map) (*Map, bool) {
		v, ok := oneDeepLookup(container, section)
		if !ok {
			return nil, false
		}
		m, is := v.(*Map)
		return m, is
	}

	sectionMap, ok := resolveSection(g.INKeys())
	if !ok {
		sectionMap, ok = resolveSection(g.IN())
	}
	if !ok {
		return NotFound(section)
	}

	v, ok := oneDeepLookup(sectionMap, what)
	if !ok {
		return NotFound(what)
	}

	g.SetTMP(v, what)
	g.SetTMPRoot(section)
	ctx.Inddf("picked %s inside %s", what, section)
	return nil
}

// givenValidate implements validate(name, schema?): schema = schema
// or TMP.schema or name; looks it up and applies it to TMP.data,
// storing the result in TMP.valid.
func givenValidate(ctx *Ctx, rc *RunContext, schemaName, name string) error {
	g := rc.Given()

	effective := schemaName
	if effective == "" {
		effective = g.TMPSchema()
	}
	if effective == "" {
		effective = name
	}

	schema, ok := g.Schemas().Lookup(effective)
	if !ok {
		return SchemaNotFound(effective)
	}

	canon, err := schema.Validate(g.TMPData())
	if err != nil {
		return SchemaFailed(effective, err)
	}

	g.SetTMPValid(canon)
	ctx.Inddf("validated %s against schema %s", name, effective)
	return nil
}

// givenAck implements ack(name): moves TMP.valid into ACK[name].
//
// Per spec.md §9's open question, the mapping branch is resolved
// here with a deterministic policy: ack into an existing non-array
// mapping is rejected with TypeError rather than silently merged,
// since there is no well-defined key to merge under.
func givenAck(ctx *Ctx, rc *RunContext, name string) error {
	g := rc.Given()
	valid := g.TMPValid()
	if valid == nil {
		return TypeError("ack: TMP.valid is not populated; call validate first")
	}

	ack := g.ACK()
	existing, have := ack.Get(name)
	if !have {
		ack.Set(name, valid)
		g.ClearTMPValid()
		return nil
	}

	switch e := existing.(type) {
	case Seq:
		ack.Set(name, append(e, valid))
	case *Map:
		return TypeError(fmt.Sprintf("ack: %q already holds a mapping; refusing an ambiguous merge", name))
	default:
		// Promote a scalar to a singleton array, then append.
		ack.Set(name, Seq{existing, valid})
	}
	g.ClearTMPValid()
	ctx.Inddf("acked %s", name)
	return nil
}

// givenAckmy implements ackmy(name)'s no-object mode: writes
// TMP.valid into ACK[whoami][name]; requires identity to already be
// set.
//
// Per spec.md §9's open question, calling ackmy without an inline
// value clears TMP[name]'s consumed value (the "tmp[name] = nil"
// reference in the source, read as referring to TMP despite the
// lowercase typo) rather than leaving stale data in TMP.
func givenAckmy(ctx *Ctx, rc *RunContext, name string) error {
	g := rc.Given()
	who, have := g.Whoami()
	if !have {
		return IdentityError("ackmy requires identity to be set")
	}

	valid := g.TMPValid()
	if valid == nil {
		return TypeError("ackmy: TMP.valid is not populated; call validate first")
	}

	ack := g.ACK()
	mine, ok := ack.Get(who)
	myMap, isMap := mine.(*Map)
	if !ok || !isMap {
		myMap = NewMap()
		ack.Set(who, myMap)
	}
	myMap.Set(name, valid)
	g.ClearTMPValid()
	ctx.Inddf("ackmy %s.%s", who, name)
	return nil
}

// givenAckmyObj implements ackmy(name, object)'s inline-object mode
// (spec.md §4.4): objName names a value resolvable directly off
// IN.KEYS or IN, written straight into ACK[whoami][name] without
// going through TMP.valid/validate at all, mirroring givenPickObj's
// bypass of the one-deep lookup for an already-named object.
func givenAckmyObj(ctx *Ctx, rc *RunContext, name, objName string) error {
	g := rc.Given()
	who, have := g.Whoami()
	if !have {
		return IdentityError("ackmy requires identity to be set")
	}

	obj, ok := g.INKeys().Get(objName)
	if !ok {
		obj, ok = g.IN().Get(objName)
	}
	if !ok {
		return NotFound(objName)
	}

	ack := g.ACK()
	mine, ok := ack.Get(who)
	myMap, isMap := mine.(*Map)
	if !ok || !isMap {
		myMap = NewMap()
		ack.Set(who, myMap)
	}
	myMap.Set(name, obj)
	ctx.Inddf("ackmy %s.%s (inline object)", who, name)
	return nil
}

// givenDraft implements draft(s): appends the string to ACK.draft,
// created on first call.
func givenDraft(ctx *Ctx, rc *RunContext, s string) error {
	g := rc.Given()
	ack := g.ACK()
	existing, have := ack.Get("draft")
	if !have {
		ack.Set("draft", Seq{s})
		return nil
	}
	seq, is := existing.(Seq)
	if !is {
		return TypeError("ack.draft is not a sequence")
	}
	ack.Set("draft", append(seq, s))
	return nil
}

// thenOut implements out(name) and outmy(name): moves from ACK into
// OUT. out(name) lands at OUT[name]; outmy(name) nests the value
// under the caller's identity, OUT[whoami][name], matching spec.md
// S1's expectation that "Then print my 'keyring'" for Alice produces
// a key path of Alice.keyring rather than a bare keyring.
func thenOut(ctx *Ctx, rc *RunContext, name string, mine bool) error {
	t := rc.Then()

	if !mine {
		v, ok := t.ACK().Get(name)
		if !ok {
			return NotFound(name)
		}
		t.OUT().Set(name, v)
		ctx.Inddf("out %s", name)
		return nil
	}

	who, have := t.Whoami()
	if !have {
		return IdentityError("outmy requires identity to be set")
	}
	myVal, ok := t.ACK().Get(who)
	myMap, isMap := myVal.(*Map)
	if !ok || !isMap {
		return NotFound(who)
	}
	v, ok := myMap.Get(name)
	if !ok {
		return NotFound(name)
	}

	outMine, ok := t.OUT().Get(who)
	outMineMap, isMap := outMine.(*Map)
	if !ok || !isMap {
		outMineMap = NewMap()
		t.OUT().Set(who, outMineMap)
	}
	outMineMap.Set(name, v)
	ctx.Inddf("outmy %s.%s", who, name)
	return nil
}

// converters holds the named functions convert(object, format)
// dispatches to (spec.md §4.4). "string" is always registered,
// routing to octet-to-string.
var converters = map[string]func(Value) (Value, error){
	"string": func(v Value) (Value, error) {
		switch t := v.(type) {
		case Octet:
			return string(t), nil
		case string:
			return t, nil
		default:
			return nil, TypeError(fmt.Sprintf("cannot convert %T to string", v))
		}
	},
}

// RegisterConverter adds (or replaces) a named converter, letting a
// scenario plugin extend convert() beyond the built-in "string" route.
func RegisterConverter(name string, fn func(Value) (Value, error)) {
	converters[name] = fn
}

// givenConvert implements convert(object, format).
func givenConvert(ctx *Ctx, rc *RunContext, object, format string) error {
	g := rc.Given()
	v, ok := oneDeepLookup(g.INKeys(), object)
	if !ok {
		v, ok = oneDeepLookup(g.IN(), object)
	}
	if !ok {
		return NotFound(object)
	}

	fn, ok := converters[format]
	if !ok {
		return TypeError(fmt.Sprintf("no converter registered for format %q", format))
	}

	out, err := fn(v)
	if err != nil {
		return err
	}
	g.SetTMP(out, format)
	ctx.Inddf("converted %s to %s", object, format)
	return nil
}
