// Package lighthouse runs the Lighthouse CLI as a subprocess and reshapes
// its JSON report.
package lighthouse

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/metrics"
)

// Config controls how the Lighthouse CLI is invoked.
type Config struct {
	Binary      string
	Timeout     time.Duration
	ChromeFlags string
	ChromePath  string
	Categories  []string
}

// DefaultCategories are audited when the config does not narrow them.
var DefaultCategories = []string{"performance", "accessibility", "best-practices", "seo"}

// commandRunner abstracts subprocess execution so tests can fake the CLI.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string, extraEnv []string) ([]byte, error)
}

type execRunner struct{}

// Run executes the command and returns its combined output. The extraEnv
// entries are appended to the inherited environment.
func (execRunner) Run(ctx context.Context, name string, args []string, extraEnv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// Runner audits URLs with the Lighthouse CLI.
type Runner struct {
	cfg    Config
	exec   commandRunner
	logger *zap.Logger
}

// NewRunner builds a Runner around the configured CLI binary.
func NewRunner(cfg Config, logger *zap.Logger) *Runner {
	if cfg.Binary == "" {
		cfg.Binary = "lighthouse"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, exec: execRunner{}, logger: logger}
}

// Audit runs Lighthouse against the URL and returns the reshaped report.
// The JSON report is written to a temporary file which is removed before
// Audit returns, success or failure. If the primary invocation fails, one
// fallback variant (via npx) is attempted before giving up.
func (r *Runner) Audit(ctx context.Context, url string) (*Report, error) {
	reportPath := filepath.Join(os.TempDir(), fmt.Sprintf("lighthouse-%s.json", uuid.NewString()))
	defer os.Remove(reportPath)

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	args := r.buildArgs(url, reportPath)
	if _, err := r.exec.Run(runCtx, r.cfg.Binary, args, r.extraEnv()); err != nil {
		r.logger.Warn("lighthouse primary invocation failed, trying fallback",
			zap.String("url", url), zap.Error(err))
		metrics.ObserveLighthouseFallback()

		fallbackCtx, fallbackCancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer fallbackCancel()
		fallbackArgs := append([]string{"--yes", "lighthouse"}, args...)
		if _, fbErr := r.exec.Run(fallbackCtx, "npx", fallbackArgs, r.extraEnv()); fbErr != nil {
			return nil, fmt.Errorf("lighthouse audit failed: %w", fbErr)
		}
	}

	raw, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("read lighthouse report: %w", err)
	}

	report, err := ParseReport(raw)
	if err != nil {
		return nil, fmt.Errorf("parse lighthouse report: %w", err)
	}
	return report, nil
}

func (r *Runner) buildArgs(url, reportPath string) []string {
	chromeFlags := r.cfg.ChromeFlags
	if chromeFlags == "" {
		chromeFlags = "--headless --no-sandbox"
	}
	return []string{
		url,
		"--output=json",
		"--output-path=" + reportPath,
		"--only-categories=" + strings.Join(r.cfg.Categories, ","),
		"--chrome-flags=" + chromeFlags,
		"--quiet",
	}
}

func (r *Runner) extraEnv() []string {
	if r.cfg.ChromePath == "" {
		return nil
	}
	return []string{"CHROME_PATH=" + r.cfg.ChromePath}
}
