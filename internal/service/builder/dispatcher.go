package builder

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/avgplus/avg-release/internal/domain/release"
	"github.com/avgplus/avg-release/internal/logger"
)

// waitDelay bounds how long a killed build may keep its output pipes open.
const waitDelay = 5 * time.Second

// Options configures a Dispatcher.
type Options struct {
	// Command is the shell command template; {platform} and {output} are substituted.
	Command string
	// WorkDir is the directory builds run in.
	WorkDir string
	// Timeout bounds each build; zero means no limit.
	Timeout time.Duration
}

// Dispatcher starts build processes.
type Dispatcher struct {
	opts Options
}

// NewDispatcher creates a dispatcher for the given command template.
func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{opts: opts}
}

// Dispatch starts one build per target. All builds run concurrently; the
// returned tasks complete independently of each other.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []release.BuildTarget) map[release.Platform]*Task {
	tasks := make(map[release.Platform]*Task, len(targets))

	for _, target := range targets {
		task := newTask(target)
		tasks[target.Platform] = task

		buildCtx := logger.WithKV(logger.WithName(ctx, "build"), "platform", string(target.Platform))
		logger.InfoKV(buildCtx, "Starting build", "command", d.commandLine(target), "output", target.OutputDirectory)

		go d.run(buildCtx, task)
	}

	return tasks
}

// run executes the build and resolves the task when the process exits.
func (d *Dispatcher) run(ctx context.Context, task *Task) {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	stdout := logger.LineWriter(ctx, zapcore.InfoLevel)
	stderr := logger.LineWriter(ctx, zapcore.WarnLevel)

	cmd := shellCommand(ctx, d.commandLine(task.target))
	cmd.Dir = d.opts.WorkDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	started := time.Now()
	err := cmd.Run()

	_ = stdout.Close()
	_ = stderr.Close()

	result := release.BuildResult{
		Target:    task.target,
		ExitCode:  exitCode(err),
		Succeeded: err == nil,
		Duration:  time.Since(started),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The exit code tells the whole story.
			err = nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}

		task.resolve(result, &release.BuildFailedError{
			Platform: task.target.Platform,
			ExitCode: result.ExitCode,
			Err:      err,
		})
		logger.ErrorKV(ctx, "Build failed", "exit_code", result.ExitCode, "duration", result.Duration)

		return
	}

	task.resolve(result, nil)
	logger.InfoKV(ctx, "Build finished", "duration", result.Duration)
}

// commandLine renders the command template for a target.
func (d *Dispatcher) commandLine(target release.BuildTarget) string {
	return strings.NewReplacer(
		"{platform}", string(target.Platform),
		"{output}", target.OutputDirectory,
	).Replace(d.opts.Command)
}

// shellCommand runs a command line through the platform shell.
func shellCommand(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd.exe", "/C", line)
	}

	return exec.CommandContext(ctx, "sh", "-c", line)
}

// exitCode extracts the process exit code, -1 when the process did not exit normally.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}
