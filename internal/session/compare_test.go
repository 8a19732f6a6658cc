package session

import "testing"

func rows(cols []string, vals ...[]any) *Result {
	return &Result{Columns: cols, Rows: vals}
}

func TestEqual_MatchingCounts(t *testing.T) {
	expected := rows([]string{"count"}, []any{int64(5)})
	actual := rows([]string{"count"}, []any{int64(5)})

	if !Equal(expected, actual) {
		t.Error("[{count: 5}] should equal [{count: 5}]")
	}

	actual = rows([]string{"count"}, []any{int64(6)})
	if Equal(expected, actual) {
		t.Error("[{count: 5}] should not equal [{count: 6}]")
	}
}

func TestEqual_OrderSensitive(t *testing.T) {
	a := rows([]string{"a"}, []any{int64(1)}, []any{int64(2)})
	b := rows([]string{"a"}, []any{int64(2)}, []any{int64(1)})

	if Equal(a, b) {
		t.Error("[{a:1},{a:2}] must not equal [{a:2},{a:1}]")
	}
}

func TestEqual_ColumnOrderInsensitive(t *testing.T) {
	a := rows([]string{"x", "y"}, []any{int64(1), "one"})
	b := rows([]string{"y", "x"}, []any{"one", int64(1)})

	if !Equal(a, b) {
		t.Error("same row-mappings with different column order should match")
	}
}

func TestEqual_ColumnNamesMatter(t *testing.T) {
	a := rows([]string{"total"}, []any{int64(5)})
	b := rows([]string{"sum"}, []any{int64(5)})

	if Equal(a, b) {
		t.Error("different column aliases should not match")
	}
}

func TestEqual_NumericUnification(t *testing.T) {
	// SUM() over integers may come back as int64 or float64 depending on
	// the query; 5 and 5.0 are the same value.
	a := rows([]string{"total"}, []any{int64(5)})
	b := rows([]string{"total"}, []any{float64(5)})

	if !Equal(a, b) {
		t.Error("5 and 5.0 should compare equal")
	}

	c := rows([]string{"total"}, []any{float64(5.5)})
	if Equal(a, c) {
		t.Error("5 and 5.5 should not compare equal")
	}
}

func TestEqual_ByteSliceAsString(t *testing.T) {
	a := rows([]string{"name"}, []any{[]byte("alice")})
	b := rows([]string{"name"}, []any{"alice"})

	if !Equal(a, b) {
		t.Error("[]byte and string with same content should match")
	}
}

func TestEqual_RowCountMismatch(t *testing.T) {
	a := rows([]string{"a"}, []any{int64(1)})
	b := rows([]string{"a"}, []any{int64(1)}, []any{int64(1)})

	if Equal(a, b) {
		t.Error("different row counts should not match")
	}
}

func TestEqual_TextTrailingNewline(t *testing.T) {
	a := &Result{Text: "0.38\n"}
	b := &Result{Text: "0.38"}

	if !Equal(a, b) {
		t.Error("text results should match modulo trailing newline")
	}

	c := &Result{Text: "0.39"}
	if Equal(a, c) {
		t.Error("different text should not match")
	}
}

func TestEqual_NilResults(t *testing.T) {
	if !Equal(nil, nil) {
		t.Error("nil should equal nil")
	}
	if Equal(nil, &Result{}) || Equal(&Result{}, nil) {
		t.Error("nil should not equal a non-nil result")
	}
}

func TestEqual_Nulls(t *testing.T) {
	a := rows([]string{"v"}, []any{nil})
	b := rows([]string{"v"}, []any{nil})

	if !Equal(a, b) {
		t.Error("NULL should equal NULL")
	}

	c := rows([]string{"v"}, []any{int64(0)})
	if Equal(a, c) {
		t.Error("NULL should not equal 0")
	}
}
