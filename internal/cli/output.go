package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/registry"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // registry rejected or unreachable
	ExitCommandError = 2 // bad input or missing configuration
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for anything that is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// commandError classifies a service error into an exit code.
func commandError(op string, err error) error {
	if _, ok := domain.AsValidationError(err); ok {
		return WrapExitError(ExitCommandError, op, err)
	}
	if errors.Is(err, domain.ErrConfigurationRequired) {
		return WrapExitError(ExitCommandError, op, err)
	}
	if rErr, ok := registry.AsError(err); ok && rErr.Hint != "" {
		return WrapExitError(ExitFailure, op+" (hint: "+rErr.Hint+")", err)
	}
	return WrapExitError(ExitFailure, op, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Print writes data as indented JSON, or hands the writer to text.
func (f *OutputFormatter) Print(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return text(f.Writer)
}

func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func writeScores(w io.Writer, scores []domain.ScoreEntry) error {
	if len(scores) == 0 {
		_, err := fmt.Fprintln(w, "no scores")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tSCORE\tLEVEL\tDATE\t")
	for i, e := range scores {
		user := e.User
		if e.IsMe {
			user += " (you)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t\n", i+1, user, e.Score, e.Level, e.Date)
	}
	return tw.Flush()
}

func writeStatus(w io.Writer, s domain.DailyStatus) {
	fmt.Fprintf(w, "challenge:  %s\n", s.ChallengeKey)
	fmt.Fprintf(w, "attempts:   %d used, %d left of %d\n", s.AttemptsUsed, s.AttemptsLeft, s.MaxAttempts)
	fmt.Fprintf(w, "phase:      %s\n", s.State.Phase)
	if s.AttemptToken != "" {
		fmt.Fprintf(w, "token:      %s\n", s.AttemptToken)
	}
}
