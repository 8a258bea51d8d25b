package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketdesk/feedsync/internal/config"
	"github.com/marketdesk/feedsync/internal/model"
)

// Output is the captured output of one crawler invocation.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Invoker runs the external crawler command. One OS process per call, no
// pooling, no retries. The underlying remote browser session is a single
// stateful resource, so callers must serialize invocations against it.
type Invoker struct {
	cfg config.CrawlerConfig
}

// NewInvoker creates an Invoker from explicit configuration.
func NewInvoker(cfg config.CrawlerConfig) *Invoker {
	return &Invoker{cfg: cfg}
}

// Invoke runs the crawler script for the given kind against productURL and
// returns its captured output. Failures at the process boundary come back
// as *InfraError; the payload itself is not inspected here.
func (iv *Invoker) Invoke(ctx context.Context, kind model.SourceKind, productURL string, pages int) (*Output, error) {
	script := iv.cfg.QnAScript
	timeout := time.Duration(iv.cfg.QnATimeoutSecs) * time.Second
	if kind == model.SourceKindReview {
		script = iv.cfg.ReviewScript
		timeout = time.Duration(iv.cfg.ReviewTimeoutSecs) * time.Second
	}

	args := []string{filepath.Join(iv.cfg.ScriptDir, script), productURL}
	if kind == model.SourceKindReview && pages > 0 {
		args = append(args, "--pages", strconv.Itoa(pages))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, iv.cfg.RuntimePath, args...)
	cmd.Dir = iv.cfg.WorkDir
	cmd.Env = iv.buildEnv()
	// Don't wait on inherited pipes after the kill signal; the browser
	// runtime is known to leave grandchildren holding stderr open.
	cmd.WaitDelay = 5 * time.Second

	budget := newOutputBudget(iv.cfg.MaxOutputBytes)
	stdout := budget.writer()
	stderr := budget.writer()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	out := &Output{Stdout: stdout.bytes(), Stderr: stderr.bytes()}

	if diag := iv.filterStderr(out.Stderr); diag != "" {
		zap.L().Debug("crawler stderr",
			zap.String("kind", string(kind)),
			zap.String("stderr", diag),
		)
	}

	switch {
	case budget.exceeded():
		return nil, &InfraError{
			Reason: ReasonOutputTooLarge,
			Err:    fmt.Errorf("combined output exceeded %d bytes", iv.cfg.MaxOutputBytes),
		}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, &InfraError{
			Reason: ReasonTimeout,
			Err:    fmt.Errorf("crawler did not finish within %s", timeout),
		}
	case runErr != nil:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, &InfraError{
				Reason: ReasonExit,
				Hint:   remediationHint(out.Stderr),
				Stderr: iv.filterStderr(out.Stderr),
				Err:    fmt.Errorf("crawler exited with code %d", exitErr.ExitCode()),
			}
		}
		return nil, &InfraError{Reason: ReasonSpawn, Err: runErr}
	}

	zap.L().Info("crawler finished",
		zap.String("kind", string(kind)),
		zap.Duration("elapsed", elapsed),
		zap.Int("stdout_bytes", len(out.Stdout)),
	)
	return out, nil
}

// buildEnv layers the configured extra variables over the parent
// environment and always forces UTF-8 text IO on the child.
func (iv *Invoker) buildEnv() []string {
	env := os.Environ()
	for k, v := range iv.cfg.Env {
		env = append(env, k+"="+v)
	}
	env = append(env, "PYTHONIOENCODING=utf-8")
	return env
}

// filterStderr drops lines carrying the known benign diagnostic marker
// (browser devtools banners) so they never reach user-facing error text.
func (iv *Invoker) filterStderr(stderr []byte) string {
	marker := iv.cfg.BenignStderrMarker
	if marker == "" {
		return strings.TrimSpace(string(stderr))
	}
	var kept []string
	for _, line := range strings.Split(string(stderr), "\n") {
		if strings.TrimSpace(line) == "" || strings.Contains(line, marker) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// remediationHint maps known stderr signatures to operator guidance.
func remediationHint(stderr []byte) string {
	s := string(stderr)
	if strings.Contains(s, "9222") || strings.Contains(s, "Chrome") {
		return "start the remote browser session first"
	}
	return ""
}

// outputBudget caps the combined number of bytes buffered across the
// writers it hands out. Writes past the cap are discarded and the budget
// is marked exceeded; the child keeps a non-blocking sink either way.
type outputBudget struct {
	mu        sync.Mutex
	remaining int
	over      bool
}

func newOutputBudget(limit int) *outputBudget {
	return &outputBudget{remaining: limit}
}

func (b *outputBudget) writer() *boundedBuffer {
	return &boundedBuffer{budget: b}
}

func (b *outputBudget) exceeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.over
}

func (b *outputBudget) take(n int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.remaining {
		b.over = true
		n = b.remaining
	}
	b.remaining -= n
	return n
}

type boundedBuffer struct {
	budget *outputBudget
	mu     sync.Mutex
	buf    []byte
}

func (w *boundedBuffer) Write(p []byte) (int, error) {
	keep := w.budget.take(len(p))
	if keep > 0 {
		w.mu.Lock()
		w.buf = append(w.buf, p[:keep]...)
		w.mu.Unlock()
	}
	// Report the full length so the child never sees a broken pipe.
	return len(p), nil
}

func (w *boundedBuffer) bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf
}
