package core

import "strings"

// NormalizeName reduces an identifier to its canonical comparable form:
// lowercase, with every run of non-alphanumeric characters collapsed to a
// single underscore and leading/trailing underscores trimmed. The naming
// rule compares form id and table name through this transform.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// TableNameForID derives the default table name for a form id. The
// transform is deterministic so repeated parses of the same input agree.
func TableNameForID(id string) string {
	return NormalizeName(id)
}
