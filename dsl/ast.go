package dsl

// Node is one bound AST entry (spec.md §3): a parsed, pattern-matched
// line ready for execution.
type Node struct {
	ID      int
	Source  string
	Args    []string
	Handler Handler
	Phase   Phase
}

// AST is the ordered sequence of bound Nodes produced by parsing and
// consumed by execution (spec.md §3, §8 property 2 and 3).
type AST []*Node
