package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies shell and plugin failures
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInvalidHandle
	ErrCodeHost
	ErrCodePermission
	ErrCodeNotFound
	ErrCodeValidation
	ErrCodeStartup
	ErrCodeUnknownCommand
	ErrCodeInternal
)

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeInvalidHandle:
		return "INVALID_HANDLE"
	case ErrCodeHost:
		return "HOST"
	case ErrCodePermission:
		return "PERMISSION"
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeValidation:
		return "VALIDATION"
	case ErrCodeStartup:
		return "STARTUP"
	case ErrCodeUnknownCommand:
		return "UNKNOWN_COMMAND"
	case ErrCodeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Sentinel errors shared across the shell and its plugins
var (
	ErrInvalidHandle  = errors.New("window handle does not refer to a live window")
	ErrUnknownCommand = errors.New("unknown command")
	ErrOutOfScope     = errors.New("path is outside the allowed scope")
)

// ShellError is a classified failure raised by a command, a plugin or the bootstrap
type ShellError struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *ShellError) Error() string {
	if e == nil {
		return "shell error"
	}

	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	if e.Code != ErrCodeUnknown {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code.String()))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	contextStr := ""
	if len(parts) > 0 {
		contextStr = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	if e.Err != nil {
		return e.Err.Error() + contextStr
	}
	return "shell error" + contextStr
}

func (e *ShellError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements error matching for errors.Is
func (e *ShellError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ShellError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// GetCode returns the error code as a string (for logging interface compatibility)
func (e *ShellError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context (for logging interface compatibility)
func (e *ShellError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for logging interface compatibility)
func (e *ShellError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext adds context information to the error by mutating the receiver.
// Not safe once the error has been handed to another goroutine.
func (e *ShellError) WithContext(key, value string) *ShellError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New creates a new shell error
func New(op string, err error, code ErrorCode) *ShellError {
	return &ShellError{
		Op:        op,
		Err:       err,
		Code:      code,
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewWithContext creates a new shell error with a copy of the given context
func NewWithContext(op string, err error, code ErrorCode, context map[string]string) *ShellError {
	shellErr := New(op, err, code)
	if context != nil {
		shellErr.Context = make(map[string]string, len(context))
		for k, v := range context {
			shellErr.Context[k] = v
		}
	}
	return shellErr
}

func hasCode(err error, code ErrorCode) bool {
	var shellErr *ShellError
	if errors.As(err, &shellErr) {
		return shellErr.Code == code
	}
	return false
}

// IsInvalidHandle checks if the error came from a dead or forged window handle
func IsInvalidHandle(err error) bool {
	return hasCode(err, ErrCodeInvalidHandle) || errors.Is(err, ErrInvalidHandle)
}

// IsHost checks if the host runtime rejected the request
func IsHost(err error) bool {
	return hasCode(err, ErrCodeHost)
}

// IsPermission checks if the error is a scope/permission error
func IsPermission(err error) bool {
	return hasCode(err, ErrCodePermission) || errors.Is(err, ErrOutOfScope)
}

// IsNotFound checks if the error is a "not found" error
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsStartup checks if the error aborted the bootstrap
func IsStartup(err error) bool {
	return hasCode(err, ErrCodeStartup)
}

// IsUnknownCommand checks if a dispatch named an unregistered command
func IsUnknownCommand(err error) bool {
	return hasCode(err, ErrCodeUnknownCommand) || errors.Is(err, ErrUnknownCommand)
}

// IsInternal checks if the error is an internal/API misuse error
func IsInternal(err error) bool {
	return hasCode(err, ErrCodeInternal)
}

// Classify maps a plain error onto a code, defaulting to ErrCodeUnknown
func Classify(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	var shellErr *ShellError
	if errors.As(err, &shellErr) {
		return shellErr.Code
	}

	switch {
	case errors.Is(err, ErrInvalidHandle):
		return ErrCodeInvalidHandle
	case errors.Is(err, ErrOutOfScope):
		return ErrCodePermission
	case errors.Is(err, ErrUnknownCommand):
		return ErrCodeUnknownCommand
	case errors.Is(err, fs.ErrPermission):
		return ErrCodePermission
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "access is denied"):
		return ErrCodePermission
	case strings.Contains(msg, "no such file"), strings.Contains(msg, "cannot find"):
		return ErrCodeNotFound
	default:
		return ErrCodeUnknown
	}
}
