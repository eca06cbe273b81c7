package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/felixgeelhaar/timelens/internal/infrastructure/config"
	"github.com/felixgeelhaar/timelens/pkg/application"
	"github.com/felixgeelhaar/timelens/pkg/client"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

var errNoFullDataset = errors.New("full dataset is only available for CLM analyses")

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		e := NewCLIError(fmt.Sprintf("server answered HTTP %d", statusErr.Code),
			"Check that the analysis exists on the server and retry", err)
		e.ExitCode = 2
		return e
	}

	switch {
	case errors.Is(err, report.ErrMalformedResponse):
		e := NewCLIError("server returned an unusable dataset",
			"Make sure the server reports project_counts for the analysis", err)
		e.ExitCode = 2
		return e
	case errors.Is(err, report.ErrFetchFailed):
		e := NewCLIError("could not reach the analysis server",
			fmt.Sprintf("Check --server or %s and retry", config.EnvServer), err)
		e.ExitCode = 2
		return e
	case errors.Is(err, report.ErrTransitionInFlight):
		return NewCLIError("a mode switch is already running", "Wait for it to finish, then retry", err)
	case errors.Is(err, report.ErrInvalidMode):
		return NewCLIError("unknown mode",
			fmt.Sprintf("Use --mode %s or --mode %s", report.ModeFiltered, report.ModeFull), err)
	case errors.Is(err, report.ErrInvalidDataset):
		return NewCLIError("analysis data is invalid", "Re-run the analysis to regenerate the data file", err)
	case errors.Is(err, report.ErrMissingTarget):
		return NewCLIError("nowhere to draw charts", "Set --output-dir or output_dir in the config file", err)
	case errors.Is(err, errNoFullDataset):
		return NewCLIError("full dataset not available", "This analysis was not built from CLM data; use --mode filtered", err)
	case errors.Is(err, application.ErrNoLink):
		return NewCLIError("no issue link for this entry", "Pick a single project, not the Other group", err)
	case errors.Is(err, application.ErrRefreshInFlight):
		return NewCLIError("dashboard refresh already running", "Wait for it to finish, then retry", err)
	}

	return err
}

// PrintError writes the mapped error and its hint and returns the exit code.
func PrintError(w io.Writer, err error) int {
	red := color.New(color.FgRed, color.Bold)
	faint := color.New(color.Faint)

	mapped := MapError(err)
	var cliErr *CLIError
	if errors.As(mapped, &cliErr) {
		_, _ = red.Fprintf(w, "Error: %s\n", cliErr.Error())
		if cliErr.Hint != "" {
			_, _ = faint.Fprintf(w, "Hint: %s\n", cliErr.Hint)
		}
		return cliErr.ExitCode
	}
	_, _ = red.Fprintf(w, "Error: %v\n", mapped)
	return 1
}
