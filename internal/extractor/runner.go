package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zerodice0/youtube-download-gateway/internal/apperr"
)

// ErrEmptyLadder is returned when Run is given no strategies
var ErrEmptyLadder = errors.New("no strategies to run")

// RunOptions controls a single ladder run
type RunOptions struct {
	// Timeout is the budget for each attempt, not for the whole ladder
	Timeout time.Duration
	// Prefix is placed before every strategy's arguments
	Prefix []string
	// Accept, when set, must approve a zero-exit result; a rejection counts
	// as a failed attempt.
	Accept func(*Result) error
}

// Outcome describes the attempt that succeeded
type Outcome struct {
	Strategy Strategy
	Attempt  int
	Result   *Result
}

// AttemptError captures one strategy failure
type AttemptError struct {
	Strategy string
	Err      error
}

// ExhaustedError is returned when every strategy in a ladder failed
type ExhaustedError struct {
	Attempts []AttemptError
	// Diagnostic is the bounded stderr excerpt of the last attempt
	Diagnostic string
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all strategies failed"
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("all %d strategies failed, last (%s): %v", len(e.Attempts), last.Strategy, last.Err)
}

// Unwrap exposes the last attempt's error
func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// ToolMissing reports whether every attempt failed because yt-dlp could
// not be started
func (e *ExhaustedError) ToolMissing() bool {
	if len(e.Attempts) == 0 {
		return false
	}
	for _, a := range e.Attempts {
		if !errors.Is(a.Err, ErrToolUnavailable) {
			return false
		}
	}
	return true
}

// Runner walks a ladder, one attempt at a time
type Runner struct {
	tool Tool
	log  *zap.SugaredLogger
}

// NewRunner creates a new strategy runner
func NewRunner(tool Tool, log *zap.SugaredLogger) *Runner {
	return &Runner{tool: tool, log: log}
}

// Run tries each strategy in order with input appended as the final
// argument and returns the first success. Attempts never overlap: each one
// finishes (or is killed) before the next starts. When all fail the returned
// *ExhaustedError carries the last failure. A cancelled ctx stops the ladder.
func (r *Runner) Run(ctx context.Context, ladder Ladder, input string, opts RunOptions) (*Outcome, error) {
	if len(ladder) == 0 {
		return nil, ErrEmptyLadder
	}

	exhausted := &ExhaustedError{}
	for i, strategy := range ladder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		args := join(opts.Prefix, strategy.Args, []string{input})
		r.log.Debugf("[Runner] attempt %d/%d (%s): %s", i+1, len(ladder), strategy.Name, strings.Join(args, " "))

		res, err := r.tool.Run(ctx, args, opts.Timeout)
		if err == nil && opts.Accept != nil {
			err = opts.Accept(res)
		}
		if err == nil {
			r.log.Infof("[Runner] strategy %s succeeded on attempt %d/%d (%v)", strategy.Name, i+1, len(ladder), res.Duration.Round(time.Millisecond))
			return &Outcome{Strategy: strategy, Attempt: i + 1, Result: res}, nil
		}

		// Parent cancellation is not a strategy failure
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ErrTimeout) {
			return nil, ctxErr
		}

		r.log.Warnf("[Runner] strategy %s failed (%d/%d): %v", strategy.Name, i+1, len(ladder), firstLine(err.Error()))
		exhausted.Attempts = append(exhausted.Attempts, AttemptError{Strategy: strategy.Name, Err: err})
		exhausted.Diagnostic = diagnostic(res, err)
	}

	return nil, exhausted
}

// diagnostic prefers the tool's stderr over the Go error text
func diagnostic(res *Result, err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && strings.TrimSpace(exitErr.Stderr) != "" {
		return apperr.Truncate(strings.TrimSpace(exitErr.Stderr))
	}
	msg := err.Error()
	if errors.Is(err, ErrTimeout) && res != nil {
		if s := strings.TrimSpace(string(res.Stderr)); s != "" {
			msg += ": " + s
		}
	}
	return apperr.Truncate(msg)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// AppError maps a ladder error onto the caller-facing taxonomy. failed is
// the kind reported when the ladder is exhausted.
func AppError(err error, failed apperr.Kind) error {
	if err == nil {
		return nil
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		if exhausted.ToolMissing() {
			return apperr.Wrap(apperr.ToolUnavailable, err, exhausted.Diagnostic)
		}
		return apperr.Wrap(failed, err, exhausted.Diagnostic)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.Timeout, err, "request deadline exceeded")
	case errors.Is(err, context.Canceled):
		return apperr.Wrap(failed, err, "request cancelled")
	}
	return apperr.Wrap(apperr.Internal, err, err.Error())
}
