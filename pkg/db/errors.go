package db

import "strings"

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. When constraintName is provided it must also reference that
// constraint, so callers can tell apart colliding SKUs from colliding scan
// codes. Postgres reports the constraint name directly; sqlite (used by the
// test suite) reports the offending table.column pair instead, so the helper
// also accepts messages whose column reference is embedded in the constraint
// name.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	unique := strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if constraintName == "" {
		return true
	}
	if strings.Contains(msg, constraintName) {
		return true
	}

	const sqlitePrefix = "UNIQUE constraint failed: "
	idx := strings.Index(msg, sqlitePrefix)
	if idx < 0 {
		return false
	}
	ref := msg[idx+len(sqlitePrefix):]
	if end := strings.IndexAny(ref, " ;("); end >= 0 {
		ref = ref[:end]
	}
	want := squash(constraintName)
	for _, column := range strings.Split(ref, ",") {
		if got := squash(column); got != "" && strings.Contains(want, got) {
			return true
		}
	}
	return false
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
