package dsl

import "strings"

// sentinel replaces every quoted literal in a normalized pattern
// (spec.md §3).
const sentinel = "''"

// normalizePattern implements spec.md §4.2 step 5: on a copy of the
// line, replace every quoted substring '…' with '', lowercase, then
// strip a leading "when |then |given |and |that " (first occurrence
// only, in that priority).
func normalizePattern(line string) string {
	s := strings.ToLower(replaceQuoted(line, sentinel))

	for _, lead := range []string{"when ", "then ", "given ", "and ", "that "} {
		if strings.HasPrefix(s, lead) {
			return s[len(lead):]
		}
	}
	return s
}

// replaceQuoted replaces every 'quoted substring' in s with
// replacement, leaving everything else untouched.
func replaceQuoted(s, replacement string) string {
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' {
			if !inQuote {
				b.WriteString(replacement)
			}
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// extractQuotedArgs implements spec.md §4.2 step 6: collect quoted
// substrings from the original line in source order, replacing
// interior spaces with underscores.
func extractQuotedArgs(line string) []string {
	var args []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\'' {
			if inQuote {
				args = append(args, cur.String())
				cur.Reset()
			}
			inQuote = !inQuote
			continue
		}
		if inQuote {
			if c == ' ' {
				cur.WriteByte('_')
			} else {
				cur.WriteByte(c)
			}
		}
	}
	return args
}

// arity returns the number of '' sentinels in a normalized pattern.
func arity(pattern string) int {
	return strings.Count(pattern, sentinel)
}
