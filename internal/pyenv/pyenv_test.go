package pyenv

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
	env, err := New(context.Background())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { env.Close() })
	return env.(*Env)
}

func TestRun_CapturesStdout(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.Run(context.Background(), "print(2 + 3)")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.IsText() {
		t.Fatal("result is not text output")
	}
	if strings.TrimSpace(res.Text) != "5" {
		t.Errorf("Text = %q, want 5", res.Text)
	}
}

func TestRun_PreludeAppliesToEveryRun(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.LoadSchema(ctx, "x = 41"); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}

	res, err := env.Run(ctx, "print(x + 1)")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.TrimSpace(res.Text) != "42" {
		t.Errorf("Text = %q, want 42", res.Text)
	}
}

func TestRun_NoStateBetweenRuns(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.Run(ctx, "leaked = 1"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	// Each run is a fresh interpreter; variables must not carry over.
	if _, err := env.Run(ctx, "print(leaked)"); err == nil {
		t.Error("variable from a previous run is still visible")
	}
}

func TestRun_RuntimeError(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Run(context.Background(), "raise ValueError('boom')")
	if err == nil {
		t.Fatal("raising script succeeded")
	}
	if !strings.Contains(err.Error(), "ValueError") {
		t.Errorf("error %q does not carry the traceback tail", err)
	}
}

func TestLoadSchema_FailingSetupIsFatal(t *testing.T) {
	env := newTestEnv(t)

	if err := env.LoadSchema(context.Background(), "import does_not_exist_anywhere"); err == nil {
		t.Error("failing setup was accepted")
	}
}

func TestNew_UnknownInterpreter(t *testing.T) {
	if _, err := NewWithInterpreter(context.Background(), "definitely-not-a-python"); err == nil {
		t.Error("unknown interpreter was accepted")
	}
}
