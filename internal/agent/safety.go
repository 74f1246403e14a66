package agent

import (
	"fmt"
	"strings"
	"unicode"
)

// SafeStatement is a statement that passed the safety gate. Only values of
// this type ever reach the executor.
type SafeStatement string

// mutating verbs rejected as standalone tokens, top level, any casing.
var mutatingVerbs = map[string]bool{
	"INSERT":   true,
	"UPDATE":   true,
	"DELETE":   true,
	"DROP":     true,
	"ALTER":    true,
	"TRUNCATE": true,
	"CREATE":   true,
	"GRANT":    true,
	"REVOKE":   true,
}

// Validate is the hard boundary in front of the executor: single read-only
// statement or rejection. No role bypasses it.
func Validate(candidate string) (SafeStatement, error) {
	stripped := stripComments(candidate)
	trimmed := strings.TrimSpace(stripped)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty statement", ErrUnsafeStatement)
	}

	// A single trailing separator is tolerated; anything after the first
	// complete statement is not.
	if i := strings.Index(trimmed, ";"); i >= 0 {
		if rest := strings.TrimSpace(trimmed[i+1:]); rest != "" {
			return "", fmt.Errorf("%w: multiple statements", ErrUnsafeStatement)
		}
		trimmed = strings.TrimSpace(trimmed[:i])
		if trimmed == "" {
			return "", fmt.Errorf("%w: empty statement", ErrUnsafeStatement)
		}
	}

	tokens := tokenize(trimmed)
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: empty statement", ErrUnsafeStatement)
	}

	head := strings.ToUpper(tokens[0])
	if head != "SELECT" && head != "WITH" {
		return "", fmt.Errorf("%w: only SELECT statements are allowed", ErrUnsafeStatement)
	}

	for _, tok := range tokens {
		if mutatingVerbs[strings.ToUpper(tok)] {
			return "", fmt.Errorf("%w: mutating keyword %q", ErrUnsafeStatement, strings.ToUpper(tok))
		}
	}

	return SafeStatement(trimmed), nil
}

// stripComments removes -- line comments and /* */ block comments so a verb
// hidden in a comment can't skew tokenization either way.
func stripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "--") {
			if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
				i += j + 1
				b.WriteByte(' ')
				continue
			}
			break
		}
		if strings.HasPrefix(s[i:], "/*") {
			if j := strings.Index(s[i:], "*/"); j >= 0 {
				i += j + 2
				b.WriteByte(' ')
				continue
			}
			break
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// tokenize splits on anything that can't be part of an identifier, so
// substrings inside identifiers (created_at, drop_rate) never match a verb.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
