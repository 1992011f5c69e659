package supervise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"mvdan.cc/sh/v3/shell"

	bserrors "launchkit/internal/errors"
	"launchkit/internal/resolve"
)

// Supervisor runs the resolved command as the instance's main process. It
// installs termination-signal handlers strictly before the child is spawned,
// forwards SIGTERM to the child on receipt, waits for the child to exit, and
// propagates the child's exit code as its own. There is never more than one
// child and a crashed child is never restarted.
type Supervisor struct {
	sigCh chan os.Signal
	// notify is false when the signal channel is injected by a test.
	notify bool
}

// New creates a Supervisor wired to the process's real signal delivery.
func New() *Supervisor {
	return &Supervisor{
		sigCh:  make(chan os.Signal, 2),
		notify: true,
	}
}

// NewWithSignals creates a Supervisor that reads termination requests from
// the given channel instead of registering OS signal handlers.
func NewWithSignals(ch chan os.Signal) *Supervisor {
	return &Supervisor{sigCh: ch}
}

// Run spawns the command and blocks until it exits. The returned int is the
// exit status the bootstrap must terminate with: the child's own code on a
// normal exit, zero after a relayed termination signal. A non-nil error
// means the command never ran.
func (s *Supervisor) Run(ctx context.Context, cmd *resolve.Command, workDir string) (int, error) {
	fields, err := shell.Fields(cmd.Line, os.Getenv)
	if err != nil {
		return 1, bserrors.NewSupervisorError(
			"Start command could not be split into arguments",
			fmt.Sprintf("command %q failed to parse", cmd.Line),
			"Check the quoting in START_COMMAND",
			err,
		)
	}
	if len(fields) == 0 {
		return 1, bserrors.NewSupervisorError(
			"Start command is empty after expansion",
			fmt.Sprintf("command %q expanded to nothing", cmd.Line),
			"Set START_COMMAND to a non-empty command",
			nil,
		)
	}

	child := exec.CommandContext(ctx, fields[0], fields[1:]...)
	child.Dir = workDir
	child.Env = append(os.Environ(), cmd.Env...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	// Handlers must be live before the child exists so a termination request
	// arriving during spawn is never dropped.
	if s.notify {
		signal.Notify(s.sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(s.sigCh)
	}

	slog.Info("Starting workload", "command", cmd.Line, "workDir", workDir, "origin", cmd.Origin)

	if err := child.Start(); err != nil {
		return 1, bserrors.NewSupervisorError(
			"Failed to start the workload process",
			fmt.Sprintf("spawning %q failed", fields[0]),
			"Verify the command exists on PATH inside the image",
			err,
		)
	}

	done := make(chan error, 1)
	go func() { done <- child.Wait() }()

	select {
	case sig := <-s.sigCh:
		slog.Info("Termination signal received, forwarding to workload", "signal", sig.String())
		if err := child.Process.Signal(syscall.SIGTERM); err != nil {
			slog.Warn("Failed to forward termination signal", "error", err)
		}
		// The supervisor exits only after the child has fully exited; no
		// orphaned child survives the container.
		<-done
		slog.Info("Workload exited after termination signal")
		return 0, nil

	case err := <-done:
		return exitStatus(err)
	}
}

// exitStatus maps the child's Wait result onto the container exit code. The
// workload's own failure code is propagated verbatim, never masked.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		slog.Warn("Workload exited with non-zero status", "code", code)
		return code, nil
	}

	return 1, bserrors.NewSupervisorError(
		"Lost track of the workload process",
		"waiting on the child process failed",
		"",
		err,
	)
}
