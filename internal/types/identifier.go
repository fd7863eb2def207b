package types

import "regexp"

// identifierPattern accepts plain and dot-qualified SQL identifiers such as
// "age" or "users.age".
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// IsIdentifier reports whether s can be written into a query as a column
// or table name without quoting.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}
