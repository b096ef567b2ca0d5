package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrUnknownIndexType    = errors.New("unknown index type")
	ErrUnknownAlgorithm    = errors.New("unknown query algorithm")
	ErrUnknownStemmer      = errors.New("unknown stemmer")
	ErrMissingScoreBounds  = errors.New("score-bound data required")
	ErrScoreBoundsMismatch = errors.New("score-bound data does not match scorer")
	ErrCorruptFile         = errors.New("corrupt data file")
	ErrDocumentMapShort    = errors.New("document map shorter than index")
)

// Process exit codes reported by the command-line tools.
const (
	ExitOK     = 0
	ExitSetup  = 1
	ExitConfig = 2
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// Config wraps sentinel as a configuration error.
func Config(sentinel error, format string, args ...any) *AppError {
	return Newf(sentinel, ExitConfig, format, args...)
}

// ExitCode maps err to the process exit code the tools terminate with.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnknownIndexType),
		errors.Is(err, ErrUnknownAlgorithm),
		errors.Is(err, ErrUnknownStemmer),
		errors.Is(err, ErrMissingScoreBounds):
		return ExitConfig
	default:
		return ExitSetup
	}
}

// IsConfig reports whether err is a configuration error rather than a setup
// failure.
func IsConfig(err error) bool {
	return ExitCode(err) == ExitConfig
}
