package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Exit codes returned by productbuilder.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitNotFound   = 4
	ExitConfig     = 7
	ExitDatabase   = 8
	ExitInternal   = 10
	ExitBuild      = 11
	ExitRuntimeErr = 12
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: ExitUsage,
	CategoryLookup:     ExitNotFound,
	CategoryConfig:     ExitConfig,
	CategoryDatabase:   ExitDatabase,
	CategoryStaging:    ExitBuild,
	CategoryIO:         ExitBuild,
	CategoryRuntime:    ExitRuntimeErr,
	CategoryStructural: ExitInternal,
	CategoryInternal:   ExitInternal,
}

// contextHints are the context keys shown next to a short error message.
var contextHints = []string{"product", "path", "section"}

// CLIErrorAdapter turns command errors into a message on stderr and an exit
// code. Errors joined with errors.Join are reported one per line.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter returns an adapter writing to stderr and exiting the process.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor returns the exit code for err. For joined errors the first
// classified failure decides.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, e := range flatten(err) {
		if classified, ok := AsClassified(e); ok {
			if code, ok := exitCodes[classified.Category()]; ok {
				return code
			}
		}
	}
	return ExitFailure
}

// FormatError renders err for the terminal.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	parts := flatten(err)
	lines := make([]string, 0, len(parts))
	for _, e := range parts {
		lines = append(lines, a.formatOne(e))
	}
	return strings.Join(lines, "\n")
}

func (a *CLIErrorAdapter) formatOne(err error) string {
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return classified.Error()
	}

	var msg string
	switch classified.Category() {
	case CategoryConfig, CategoryValidation, CategoryLookup:
		msg = classified.Message()
	case CategoryStructural, CategoryInternal:
		return "Internal error occurred (use -v for details)"
	default:
		msg = fmt.Sprintf("%s: %s", classified.Category(), classified.Message())
	}

	var hints []string
	for _, key := range contextHints {
		if v, ok := classified.Context().GetString(key); ok && v != "" {
			hints = append(hints, key+"="+v)
		}
	}
	if len(hints) > 0 {
		msg += " (" + strings.Join(hints, " ") + ")"
	}
	return msg
}

// HandleError reports err and exits. A nil err does nothing.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	for _, e := range flatten(err) {
		if a.shouldLog(e) {
			a.logError(e)
		}
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.IsFatal()
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	for k, v := range classified.Context() {
		attrs = append(attrs, slog.Any(k, v))
	}
	if cause := classified.Cause(); cause != nil {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	level := slog.LevelError
	switch classified.Severity() {
	case SeverityInfo:
		level = slog.LevelInfo
	case SeverityWarning:
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
}

// flatten expands errors.Join trees into their leaves.
func flatten(err error) []error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		if e != nil {
			out = append(out, flatten(e)...)
		}
	}
	return out
}
