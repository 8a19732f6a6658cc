package sqlenv

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name  string
		batch string
		want  []string
	}{
		{
			"two statements",
			"CREATE TABLE a (id INT); CREATE TABLE b (id INT);",
			[]string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"},
		},
		{
			"semicolon inside literal",
			"INSERT INTO t VALUES ('a;b'); INSERT INTO t VALUES ('c');",
			[]string{"INSERT INTO t VALUES ('a;b')", "INSERT INTO t VALUES ('c')"},
		},
		{
			"double quoted identifier",
			`SELECT "weird;name" FROM t;`,
			[]string{`SELECT "weird;name" FROM t`},
		},
		{
			"trailing statement without semicolon",
			"SELECT 1; SELECT 2",
			[]string{"SELECT 1", "SELECT 2"},
		},
		{
			"empty and whitespace",
			" ;  ; ",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitStatements(tt.batch)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitStatements(%q) = %v, want %v", tt.batch, got, tt.want)
			}
		})
	}
}

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	env, err := New(context.Background())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { env.Close() })
	return env.(*Env)
}

func TestLoadSchemaAndRun(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.LoadSchema(ctx, "CREATE TABLE users (id INT, name TEXT);"); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}
	if errs := env.LoadData(ctx, "INSERT INTO users VALUES (1, 'alice'); INSERT INTO users VALUES (2, 'bob');"); len(errs) != 0 {
		t.Fatalf("LoadData errors: %v", errs)
	}

	res, err := env.Run(ctx, "SELECT id, name FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !reflect.DeepEqual(res.Columns, []string{"id", "name"}) {
		t.Errorf("Columns = %v", res.Columns)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}
	if res.Rows[0][1] != "alice" || res.Rows[1][1] != "bob" {
		t.Errorf("Rows = %v", res.Rows)
	}
}

func TestLoadSchema_FailsFast(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.LoadSchema(ctx, "CREATE TABLE ok (id INT); CREATE BROKEN NONSENSE; CREATE TABLE never (id INT);")
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %v, want SchemaError", err)
	}

	// The statement after the failure never ran.
	if _, err := env.Run(ctx, "SELECT * FROM never"); err == nil {
		t.Error("table after the failed statement exists")
	}
}

func TestLoadData_ToleratesBadStatements(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.LoadSchema(ctx, "CREATE TABLE x (id INT)"); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}

	errs := env.LoadData(ctx, "INSERT INTO x VALUES (1); INSERT INTO nope VALUES (2); INSERT INTO x VALUES (3);")
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}

	// The valid inserts around the bad one still applied.
	res, err := env.Run(ctx, "SELECT COUNT(*) AS n FROM x")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Rows[0][0] != int64(2) {
		t.Errorf("count = %v, want 2", res.Rows[0][0])
	}
}

func TestRun_QueryError(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.Run(context.Background(), "SELECT * FROM missing"); err == nil {
		t.Error("query against a missing table succeeded")
	}
}

func TestFreshInstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := newTestEnv(t)
	b := newTestEnv(t)

	if err := a.LoadSchema(ctx, "CREATE TABLE only_in_a (id INT)"); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}
	if _, err := b.Run(ctx, "SELECT * FROM only_in_a"); err == nil {
		t.Error("table from one instance is visible in another")
	}
}
