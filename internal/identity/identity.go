// File path: internal/identity/identity.go

// Package identity canonicalizes client display names into matching keys.
// The key is the join column for every fuzzy match between the roster and
// billing datasets: two display names refer to the same client iff their
// normalized keys are equal.
//
// Normalization is intentionally aggressive and purely lexical. There is no
// edit-distance or phonetic tolerance, so legal-suffix variations of the same
// company ("Acme Pvt Ltd" vs "Acme Private Limited") normalize to different
// keys and will not join. Callers that need those to match must fix the data,
// not this function.
package identity

import "strings"

// Normalize lowercases the input and strips everything that is not an ASCII
// letter or digit. It is a pure, total function: empty input yields the empty
// key.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}
