package shellrunner

import (
	"context"
	"testing"
	"time"

	"github.com/deploypilot/node-agent/internal/logging"
)

func TestRunSuccess(t *testing.T) {
	r := New(logging.Discard())
	res := r.Run(context.Background(), "echo", []string{"hello"}, 5*time.Second)
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Stdout != "hello" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello")
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := New(logging.Discard())
	res := r.Run(context.Background(), "sh", []string{"-c", "exit 7"}, 5*time.Second)
	if res.Success {
		t.Fatal("expected failure for non-zero exit")
	}
	if res.Error == "" {
		t.Error("expected an error message")
	}
}

func TestRunTimeout(t *testing.T) {
	r := New(logging.Discard())
	start := time.Now()
	res := r.Run(context.Background(), "sleep", []string{"5"}, 200*time.Millisecond)
	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("Run took too long to return after timeout: %v", time.Since(start))
	}
}

func TestSpawnStreamsLines(t *testing.T) {
	r := New(logging.Discard())
	var lines []string
	code, err := r.Spawn(context.Background(), "sh", []string{"-c", "echo one; echo two"}, 5*time.Second, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %v", lines)
	}
}

func TestSpawnExitCode(t *testing.T) {
	r := New(logging.Discard())
	code, err := r.Spawn(context.Background(), "sh", []string{"-c", "exit 3"}, 5*time.Second, func(string) {})
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestRunEnvPassesExtraVars(t *testing.T) {
	r := New(logging.Discard())
	res := r.RunEnv(context.Background(), "sh", []string{"-c", "echo $BACKUP_SECRET"}, map[string]string{"BACKUP_SECRET": "hunter2"}, 5*time.Second)
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Stdout != "hunter2" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hunter2")
	}
}

func TestRunEnvInheritsParentEnviron(t *testing.T) {
	t.Setenv("SHELLRUNNER_PARENT_VAR", "inherited")
	r := New(logging.Discard())
	res := r.RunEnv(context.Background(), "sh", []string{"-c", "echo $SHELLRUNNER_PARENT_VAR"}, map[string]string{"OTHER": "x"}, 5*time.Second)
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Stdout != "inherited" {
		t.Errorf("Stdout = %q, want parent environment to be inherited", res.Stdout)
	}
}

func TestCapBufferTruncates(t *testing.T) {
	var buf capBuffer
	small := make([]byte, 1024)
	for i := range small {
		small[i] = 'a'
	}
	for i := 0; i < (MaxCapturedOutput/1024)+2; i++ {
		_, _ = buf.Write(small)
	}
	if !buf.truncated {
		t.Error("expected buffer to be marked truncated")
	}
	if got := buf.String(); len(got) > MaxCapturedOutput+64 {
		t.Errorf("captured output not bounded: %d bytes", len(got))
	}
}
