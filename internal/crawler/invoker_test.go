package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketdesk/feedsync/internal/config"
	"github.com/marketdesk/feedsync/internal/model"
)

// shInvoker runs /bin/sh -c so tests can exercise real process behavior;
// the "product URL" argument becomes the shell script body.
func shInvoker(overrides func(*config.CrawlerConfig)) *Invoker {
	cfg := config.CrawlerConfig{
		RuntimePath:        "/bin/sh",
		QnAScript:          "-c",
		ReviewScript:       "-c",
		QnATimeoutSecs:     10,
		ReviewTimeoutSecs:  10,
		MaxOutputBytes:     1 << 20,
		BenignStderrMarker: "DevTools",
	}
	if overrides != nil {
		overrides(&cfg)
	}
	return NewInvoker(cfg)
}

func TestInvoker_Success(t *testing.T) {
	iv := shInvoker(nil)

	out, err := iv.Invoke(context.Background(), model.SourceKindQnA,
		`echo '{"success":true,"items":[]}'`, 0)
	require.NoError(t, err)
	assert.Contains(t, string(out.Stdout), `"success":true`)
}

func TestInvoker_ReviewPagesFlag(t *testing.T) {
	iv := shInvoker(nil)

	// With /bin/sh -c the extra flag lands in $0/$1.
	out, err := iv.Invoke(context.Background(), model.SourceKindReview,
		`echo "args: $0 $1" >&2; echo '{"success":true,"reviews":[]}'`, 2)
	require.NoError(t, err)
	assert.Contains(t, string(out.Stderr), "args: --pages 2")
}

func TestInvoker_ExitFailure(t *testing.T) {
	iv := shInvoker(nil)

	_, err := iv.Invoke(context.Background(), model.SourceKindQnA, `exit 3`, 0)
	var infra *InfraError
	require.ErrorAs(t, err, &infra)
	assert.Equal(t, ReasonExit, infra.Reason)
	assert.Contains(t, infra.Error(), "code 3")
}

func TestInvoker_ExitFailure_BrowserHint(t *testing.T) {
	iv := shInvoker(nil)

	_, err := iv.Invoke(context.Background(), model.SourceKindQnA,
		`echo "cannot connect to Chrome on port 9222" >&2; exit 1`, 0)
	var infra *InfraError
	require.ErrorAs(t, err, &infra)
	assert.Equal(t, ReasonExit, infra.Reason)
	assert.Equal(t, "start the remote browser session first", infra.Hint)
	assert.Contains(t, infra.Stderr, "9222")
}

func TestInvoker_Timeout(t *testing.T) {
	iv := shInvoker(func(cfg *config.CrawlerConfig) {
		cfg.QnATimeoutSecs = 1
	})

	start := time.Now()
	_, err := iv.Invoke(context.Background(), model.SourceKindQnA, `sleep 30`, 0)
	var infra *InfraError
	require.ErrorAs(t, err, &infra)
	assert.Equal(t, ReasonTimeout, infra.Reason)
	assert.Less(t, time.Since(start), 15*time.Second)
}

func TestInvoker_OutputTooLarge(t *testing.T) {
	iv := shInvoker(func(cfg *config.CrawlerConfig) {
		cfg.MaxOutputBytes = 64
	})

	_, err := iv.Invoke(context.Background(), model.SourceKindQnA,
		`head -c 4096 /dev/zero | tr '\0' 'a'`, 0)
	var infra *InfraError
	require.ErrorAs(t, err, &infra)
	assert.Equal(t, ReasonOutputTooLarge, infra.Reason)
}

func TestInvoker_SpawnFailure(t *testing.T) {
	iv := shInvoker(func(cfg *config.CrawlerConfig) {
		cfg.RuntimePath = "/nonexistent/runtime"
	})

	_, err := iv.Invoke(context.Background(), model.SourceKindQnA, `true`, 0)
	var infra *InfraError
	require.ErrorAs(t, err, &infra)
	assert.Equal(t, ReasonSpawn, infra.Reason)
}

func TestInvoker_FilterStderr(t *testing.T) {
	iv := shInvoker(nil)

	filtered := iv.filterStderr([]byte("DevTools listening on ws://127.0.0.1:9222\nreal problem\n"))
	assert.Equal(t, "real problem", filtered)

	filtered = iv.filterStderr([]byte("DevTools listening on ws://127.0.0.1:9222\n"))
	assert.Empty(t, filtered)
}

func TestInvoker_BuildEnvForcesUTF8(t *testing.T) {
	iv := shInvoker(func(cfg *config.CrawlerConfig) {
		cfg.Env = map[string]string{"CRAWLER_PROFILE": "headless"}
	})

	env := iv.buildEnv()
	assert.Contains(t, env, "PYTHONIOENCODING=utf-8")
	assert.Contains(t, env, "CRAWLER_PROFILE=headless")
}

func TestOutputBudget_SharedAcrossWriters(t *testing.T) {
	budget := newOutputBudget(10)
	a := budget.writer()
	b := budget.writer()

	n, err := a.Write([]byte("123456"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.False(t, budget.exceeded())

	// The second writer draws from the same budget and overflows it.
	n, err = b.Write([]byte("7890ab"))
	require.NoError(t, err)
	assert.Equal(t, 6, n) // full length reported, overflow discarded
	assert.True(t, budget.exceeded())
	assert.Equal(t, "7890", string(b.bytes()))
}
