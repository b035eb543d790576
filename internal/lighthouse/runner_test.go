package lighthouse

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

// fakeExec records invocations and writes a canned report file when told to.
type fakeExec struct {
	calls       []fakeCall
	failCount   int
	reportJSON  string
	sawDeadline bool
}

type fakeCall struct {
	name string
	args []string
	env  []string
}

func (f *fakeExec) Run(ctx context.Context, name string, args []string, extraEnv []string) ([]byte, error) {
	if _, ok := ctx.Deadline(); ok {
		f.sawDeadline = true
	}
	f.calls = append(f.calls, fakeCall{name: name, args: args, env: extraEnv})
	if len(f.calls) <= f.failCount {
		return []byte("boom"), errors.New("exit status 1")
	}
	if f.reportJSON != "" {
		path := reportPathFromArgs(args)
		if path == "" {
			return nil, errors.New("no output path in args")
		}
		if err := os.WriteFile(path, []byte(f.reportJSON), 0o600); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func reportPathFromArgs(args []string) string {
	for _, a := range args {
		if strings.HasPrefix(a, "--output-path=") {
			return strings.TrimPrefix(a, "--output-path=")
		}
	}
	return ""
}

func newTestRunner(exec commandRunner) *Runner {
	r := NewRunner(Config{
		Binary:      "lighthouse",
		Timeout:     5 * time.Second,
		ChromeFlags: "--headless --no-sandbox",
		ChromePath:  "/usr/bin/chromium",
	}, zap.NewNop())
	r.exec = exec
	return r
}

func TestAuditPrimarySucceeds(t *testing.T) {
	fake := &fakeExec{reportJSON: sampleReport}
	runner := newTestRunner(fake)

	report, err := runner.Audit(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, float64(92), report.Scores["performance"])

	require.Len(t, fake.calls, 1)
	call := fake.calls[0]
	require.Equal(t, "lighthouse", call.name)
	require.Equal(t, "https://example.com", call.args[0])
	require.Contains(t, call.args, "--output=json")
	require.Contains(t, call.args, "--only-categories=performance,accessibility,best-practices,seo")
	require.Contains(t, call.args, "--chrome-flags=--headless --no-sandbox")
	require.Contains(t, call.args, "--quiet")
	require.Contains(t, call.env, "CHROME_PATH=/usr/bin/chromium")
	require.True(t, fake.sawDeadline)
}

func TestAuditFallbackAfterPrimaryFailure(t *testing.T) {
	fake := &fakeExec{failCount: 1, reportJSON: sampleReport}
	runner := newTestRunner(fake)

	report, err := runner.Audit(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, report)

	require.Len(t, fake.calls, 2)
	require.Equal(t, "lighthouse", fake.calls[0].name)
	require.Equal(t, "npx", fake.calls[1].name)
	require.Equal(t, []string{"--yes", "lighthouse"}, fake.calls[1].args[:2])
}

func TestAuditGivesUpAfterFallbackFailure(t *testing.T) {
	fake := &fakeExec{failCount: 2}
	runner := newTestRunner(fake)

	_, err := runner.Audit(context.Background(), "https://example.com")
	require.Error(t, err)
	require.Len(t, fake.calls, 2)
}

func TestAuditReportFileMissing(t *testing.T) {
	// Subprocess "succeeds" but never writes the report file.
	fake := &fakeExec{}
	runner := newTestRunner(fake)

	_, err := runner.Audit(context.Background(), "https://example.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "read lighthouse report")
}

func TestAuditRemovesReportFile(t *testing.T) {
	fake := &fakeExec{reportJSON: sampleReport}
	runner := newTestRunner(fake)

	_, err := runner.Audit(context.Background(), "https://example.com")
	require.NoError(t, err)

	path := reportPathFromArgs(fake.calls[0].args)
	require.NotEmpty(t, path)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
