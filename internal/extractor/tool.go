package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrToolUnavailable indicates the yt-dlp binary could not be started
	ErrToolUnavailable = errors.New("extraction tool unavailable")
	// ErrTimeout indicates an attempt exceeded its time budget and was killed
	ErrTimeout = errors.New("attempt timed out")
)

// Result is the captured outcome of one tool invocation
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// ExitError is returned when the tool exits with a non-zero status
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("exit status %d: %s", e.Code, msg)
}

// Tool runs the external extraction tool once
type Tool interface {
	Run(ctx context.Context, args []string, timeout time.Duration) (*Result, error)
}

// YtdlpTool runs the yt-dlp binary as a subprocess
type YtdlpTool struct {
	BinaryPath string
	// KillGrace is how long a timed-out process group gets between SIGTERM
	// and SIGKILL
	KillGrace time.Duration
}

// NewYtdlpTool creates a new yt-dlp tool
func NewYtdlpTool(binaryPath string, killGrace time.Duration) *YtdlpTool {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	if killGrace <= 0 {
		killGrace = 5 * time.Second
	}
	return &YtdlpTool{
		BinaryPath: binaryPath,
		KillGrace:  killGrace,
	}
}

// Run executes yt-dlp with args. The process runs in its own process group;
// when the timeout expires or ctx is cancelled the whole group (yt-dlp and
// any ffmpeg it spawned) is terminated before Run returns.
func (t *YtdlpTool) Run(ctx context.Context, args []string, timeout time.Duration) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.Command(t.BinaryPath, args...)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// Ensure process gets its own process group
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		t.terminate(cmd.Process.Pid, done)
		res := &Result{
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
			ExitCode: -1,
			Duration: time.Since(start),
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return res, ctx.Err()
	}

	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, &ExitError{Code: res.ExitCode, Stderr: stderr.String()}
		}
		return res, fmt.Errorf("failed to wait for %s: %w", t.BinaryPath, waitErr)
	}
	return res, nil
}

// terminate stops the process group and waits until the process is reaped
func (t *YtdlpTool) terminate(pid int, done <-chan error) {
	// Try graceful shutdown with SIGTERM
	_ = unix.Kill(-pid, unix.SIGTERM)

	select {
	case <-done:
		return
	case <-time.After(t.KillGrace):
	}

	// Force kill after grace period
	_ = unix.Kill(-pid, unix.SIGKILL)
	<-done
}

// CheckBinary verifies that the yt-dlp binary exists and is executable
func (t *YtdlpTool) CheckBinary() error {
	cmd := exec.Command(t.BinaryPath, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp not found or not executable: %w", err)
	}
	return nil
}

// Version returns the trimmed output of yt-dlp --version
func (t *YtdlpTool) Version(ctx context.Context) (string, error) {
	res, err := t.Run(ctx, []string{"--version"}, 10*time.Second)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}
