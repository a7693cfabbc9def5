package execx

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_CapturesOutput(t *testing.T) {
	requireSh(t)
	res, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "out" || strings.TrimSpace(res.Stderr) != "err" || res.ExitCode != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExecRunner_ExitCode(t *testing.T) {
	requireSh(t)
	res, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatalf("expected error")
	}
	if res.ExitCode != 3 || strings.TrimSpace(res.Stderr) != "boom" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), "definitely-not-a-real-binary-12345")
	if err == nil || res.ExitCode != -1 {
		t.Fatalf("expected start failure, got %+v %v", res, err)
	}
}

func TestRunnerFunc(t *testing.T) {
	var got []string
	r := RunnerFunc(func(_ context.Context, name string, args ...string) (Result, error) {
		got = append([]string{name}, args...)
		return Result{Stdout: "ok"}, nil
	})
	res, err := r.Run(context.Background(), "ffmpeg", "-y")
	if err != nil || res.Stdout != "ok" || strings.Join(got, " ") != "ffmpeg -y" {
		t.Fatalf("unexpected %+v %v %v", res, err, got)
	}
}
