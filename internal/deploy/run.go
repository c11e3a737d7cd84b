// Package deploy implements the install/uninstall side of the tool:
// host detection, .env handling, client config rendering, docker and
// network setup, and teardown. These are sequential shell steps with no
// reconciliation logic; the sync engine lives in internal/geodata.
package deploy

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/winspan/xraysync/pkg/logger"
)

// Runner 执行系统命令, 支持 dry-run (只打印不执行)
type Runner struct {
	DryRun bool
	log    *logger.Logger

	// execFn 用于测试注入
	execFn func(ctx context.Context, name string, args ...string) (string, error)
}

func NewRunner(dryRun bool, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Default("deploy")
	}
	return &Runner{DryRun: dryRun, log: log, execFn: runExec}
}

func runExec(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return strings.TrimSpace(stdout.String()),
			fmt.Errorf("%s %s: %v: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Run echoes and executes a command, returning trimmed stdout.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.log.Info("+ %s %s", name, strings.Join(args, " "))
	if r.DryRun {
		return "", nil
	}
	return r.execFn(ctx, name, args...)
}

// RunBestEffort runs a command whose failure should not stop the
// install; errors are logged and swallowed.
func (r *Runner) RunBestEffort(ctx context.Context, name string, args ...string) string {
	out, err := r.Run(ctx, name, args...)
	if err != nil {
		r.log.Warn("%v", err)
	}
	return out
}

// Probe runs a command without dry-run short-circuiting; detection steps
// need real output even during a dry run.
func (r *Runner) Probe(ctx context.Context, name string, args ...string) (string, error) {
	return r.execFn(ctx, name, args...)
}
