package session

import "strings"

// Equal reports whether two execution results are structurally equal.
// Rows are compared as an order-sensitive sequence of row-mappings:
// [{a:1},{a:2}] does not equal [{a:2},{a:1}]. Within a row, values are
// matched by column name, so SELECT column order does not matter but
// aliases do. Text results compare after a trailing-newline trim.
func Equal(expected, actual *Result) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}

	if expected.IsText() || actual.IsText() {
		return trimTrailingNewlines(expected.Text) == trimTrailingNewlines(actual.Text)
	}

	if len(expected.Rows) != len(actual.Rows) {
		return false
	}
	if !sameColumns(expected.Columns, actual.Columns) {
		return false
	}

	actualIdx := columnIndex(actual.Columns)
	for i, erow := range expected.Rows {
		arow := actual.Rows[i]
		for j, col := range expected.Columns {
			if !valueEqual(erow[j], arow[actualIdx[col]]) {
				return false
			}
		}
	}
	return true
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, c := range a {
		seen[c]++
	}
	for _, c := range b {
		seen[c]--
		if seen[c] < 0 {
			return false
		}
	}
	return true
}

func columnIndex(cols []string) map[string]int {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return idx
}

// valueEqual compares two scalar values. SQLite hands back int64, float64,
// string, []byte or nil depending on column affinity; numeric values are
// unified before comparison so SUM() returning 5 matches 5.0.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ab, ok := a.([]byte); ok {
		a = string(ab)
	}
	if bb, ok := b.([]byte); ok {
		b = string(bb)
	}

	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf
	}

	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func trimTrailingNewlines(s string) string {
	return strings.TrimRight(s, "\r\n")
}
