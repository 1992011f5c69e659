package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"launchkit/internal/ui"
)

// ErrorHandler is the single sink for operator-facing failures: structured
// JSON into a log file, a formatted message onto the console.
type ErrorHandler struct {
	logger  *slog.Logger
	console *ui.Console
}

func NewErrorHandler() (*ErrorHandler, error) {
	logFile, err := createLogFile()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &ErrorHandler{
		logger:  logger,
		console: ui.NewConsole(),
	}, nil
}

// logDir resolves where bootstrap logs go. Inside the instance container the
// workspace is the only volume guaranteed writable, so logs default there;
// LAUNCHKIT_LOG_DIR overrides for local runs.
func logDir() string {
	if custom := os.Getenv("LAUNCHKIT_LOG_DIR"); custom != "" {
		return custom
	}

	workspace := os.Getenv("WORKSPACE_DIR")
	if workspace == "" {
		workspace = "/workspace"
	}
	return filepath.Join(workspace, ".launchkit", "logs")
}

// rotateLogFile rotates log files when the size limit is exceeded.
func rotateLogFile(logPath string) error {
	const maxFiles = 5

	for i := maxFiles - 1; i > 0; i-- {
		oldPath := fmt.Sprintf("%s.%d", logPath, i)
		newPath := fmt.Sprintf("%s.%d", logPath, i+1)

		if i == maxFiles-1 {
			if _, err := os.Stat(oldPath); err == nil {
				if err := os.Remove(oldPath); err != nil {
					slog.Warn("Failed to remove old log file", "path", oldPath, "error", err)
				}
			}
			continue
		}

		if _, err := os.Stat(oldPath); err == nil {
			if err := os.Rename(oldPath, newPath); err != nil {
				slog.Warn("Failed to rotate log file", "old", oldPath, "new", newPath, "error", err)
			}
		}
	}

	if _, err := os.Stat(logPath); err == nil {
		return os.Rename(logPath, logPath+".1")
	}

	return nil
}

func checkLogRotation(logPath string) error {
	const maxSizeBytes = 10 * 1024 * 1024

	info, err := os.Stat(logPath)
	if err != nil {
		return nil
	}

	if info.Size() >= maxSizeBytes {
		return rotateLogFile(logPath)
	}

	return nil
}

func createLogFile() (*os.File, error) {
	dir := logDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		// Last resort: the current directory. A bootstrap that cannot log
		// should still try to start the workload.
		dir = "."
	}

	logPath := filepath.Join(dir, "launchkit.log")

	if err := checkLogRotation(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to rotate log file: %v\n", err)
	}

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var bootErr *BootstrapError
	if errors.As(err, &bootErr) {
		h.handleBootstrapError(bootErr)
	} else {
		h.handleGenericError(err)
	}
}

func (h *ErrorHandler) handleBootstrapError(err *BootstrapError) {
	h.logStructuredError(err)

	message := h.console.FormatErrorMessage(err.Context, err.Cause, err.Suggestion)
	h.console.PrintError(message)
}

func (h *ErrorHandler) handleGenericError(err error) {
	h.logger.Error("Unhandled error occurred",
		"error", err.Error(),
		"type", "generic",
	)

	h.console.PrintError(err.Error())
}

func (h *ErrorHandler) logStructuredError(err *BootstrapError) {
	logAttrs := []slog.Attr{
		slog.String("error", err.OriginalErr.Error()),
		slog.String("type", getErrorTypeName(err.Type)),
		slog.String("context", err.Context),
	}

	if err.Cause != "" {
		logAttrs = append(logAttrs, slog.String("cause", err.Cause))
	}

	if err.Suggestion != "" {
		logAttrs = append(logAttrs, slog.String("suggestion", err.Suggestion))
	}

	h.logger.LogAttrs(context.TODO(), slog.LevelError, "Bootstrap error occurred", logAttrs...)
}

func getErrorTypeName(errType error) string {
	switch errType {
	case ErrConfigInvalid:
		return "config_invalid"
	case ErrSourceUnavailable:
		return "source_unavailable"
	case ErrProvisionFailed:
		return "provision_failed"
	case ErrCommandUnresolved:
		return "command_unresolved"
	case ErrSupervisorFailed:
		return "supervisor_failed"
	case ErrNetworkFailed:
		return "network_failed"
	case ErrFileSystemFailed:
		return "filesystem_failed"
	default:
		return "unknown"
	}
}
