package dsl

import (
	"strings"
)

// MinScriptLength is the minimum legal script length in bytes
// (spec.md §6): shorter scripts are rejected as too short to parse.
const MinScriptLength = 9

var prefixKeywords = []string{"rule", "scenario", "given", "when", "then", "and"}

// Script is the result of parsing: the bound AST plus the phase it
// finished in.
type Script struct {
	AST        AST
	FinalPhase Phase
}

// Parse runs the Line Parser / Matcher (C6) over source, consulting
// machine (C5) for phase legality and loader (C4) to load scenario
// plugins as they're declared. It returns the fully bound AST; per
// spec.md §8 property 2 (parse/run separation), no Handler in the
// returned AST has been invoked yet.
func Parse(ctx *Ctx, source string, reg *Registries, schemas *SchemaRegistry, scenarios *ScenarioRegistry) (*Script, error) {
	if len(source) < MinScriptLength {
		return nil, InvalidStatement("script shorter than minimum length")
	}

	var (
		machine = NewMachine()
		ast     AST
		counter int
	)

	for _, rawLine := range strings.Split(source, "\n") {
		line := strings.TrimSpace(rawLine)

		// Step 1: trim and classify.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Step 2: prefix extraction.
		prefix, rest, ok := extractPrefix(line)
		if !ok {
			return nil, InvalidStatement(rawLine)
		}

		// Step 3: phase transition.
		if err := machine.Advance(prefix); err != nil {
			return nil, err
		}

		// Step 4: scenario side-effect.
		if prefix == "scenario" {
			args := extractQuotedArgs(line)
			if len(args) == 0 {
				return nil, InvalidStatement(rawLine)
			}
			if _, err := scenarios.Load(ctx.Child(), args[0], reg, schemas); err != nil {
				return nil, err
			}
			continue
		}

		phase := machine.Current()
		registry := reg.For(phase)
		if registry == nil {
			// feature/rule/scenario never carry a step pattern
			// of their own beyond the transition itself.
			continue
		}

		// Step 5: pattern normalization (on `rest`, the line with
		// its leading keyword already removed, so normalizePattern's
		// own prefix-stripping only takes effect for a leading word
		// such as "that" in "Given that I ...").
		candidate := normalizePattern(rest)

		// Step 6: argument extraction, from the original line.
		args := extractQuotedArgs(line)

		// Step 7: pattern lookup.
		handler, found := registry.Lookup(candidate)
		if !found {
			return nil, UnknownStep(rawLine)
		}

		// Step 8: AST append.
		counter++
		ast = append(ast, &Node{
			ID:      counter,
			Source:  rawLine,
			Args:    args,
			Handler: handler,
			Phase:   phase,
		})
		ctx.Inddf("bound step %d: %s -> %s", counter, candidate, rawLine)
	}

	if !machine.Current().IsTerminal() {
		return nil, InvalidStatement("script ended outside a terminal phase")
	}

	return &Script{AST: ast, FinalPhase: machine.Current()}, nil
}

// extractPrefix implements spec.md §4.2 step 2: the leading keyword
// (case-insensitive) is removed; an unrecognized leading word is an
// InvalidStatement.
func extractPrefix(line string) (prefix string, rest string, ok bool) {
	idx := strings.IndexAny(line, " \t")
	var word string
	if idx < 0 {
		word = line
		rest = ""
	} else {
		word = line[:idx]
		rest = strings.TrimSpace(line[idx+1:])
	}
	lower := strings.ToLower(word)
	for _, kw := range prefixKeywords {
		if lower == kw {
			return kw, rest, true
		}
	}
	return "", "", false
}
