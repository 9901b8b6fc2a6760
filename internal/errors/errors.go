package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrorType represents the category of a check failure
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeArchive
	ErrorTypeBundle
	ErrorTypeDecode
	ErrorTypeInternal
)

// String returns the string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeArchive:
		return "ARCHIVE"
	case ErrorTypeBundle:
		return "BUNDLE"
	case ErrorTypeDecode:
		return "DECODE"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Error codes
const (
	CodeEmptyUpload      = "EMPTY_UPLOAD"
	CodeFileMissing      = "FILE_MISSING"
	CodeInvalidForm      = "INVALID_FORM"
	CodeNotAnArchive     = "NOT_AN_ARCHIVE"
	CodeExtractionFailed = "EXTRACTION_FAILED"
	CodePayloadNotFound  = "PAYLOAD_NOT_FOUND"
	CodeBundleNotFound   = "BUNDLE_NOT_FOUND"
	CodeMetadataNotFound = "METADATA_NOT_FOUND"
	CodeDecodeFailed     = "DECODE_FAILED"
	CodeIOFailure        = "IO_FAILURE"
	CodeCatalogInvalid   = "CATALOG_INVALID"
	CodeCanceled         = "CANCELED"
	CodeUnknown          = "UNKNOWN"
)

// Sentinels usable as errors.Is targets; matching compares Type and Code.
var (
	ErrEmptyUpload      = &CheckError{Type: ErrorTypeValidation, Code: CodeEmptyUpload}
	ErrFileMissing      = &CheckError{Type: ErrorTypeValidation, Code: CodeFileMissing}
	ErrNotAnArchive     = &CheckError{Type: ErrorTypeArchive, Code: CodeNotAnArchive}
	ErrExtractionFailed = &CheckError{Type: ErrorTypeArchive, Code: CodeExtractionFailed}
	ErrPayloadNotFound  = &CheckError{Type: ErrorTypeBundle, Code: CodePayloadNotFound}
	ErrBundleNotFound   = &CheckError{Type: ErrorTypeBundle, Code: CodeBundleNotFound}
	ErrMetadataNotFound = &CheckError{Type: ErrorTypeBundle, Code: CodeMetadataNotFound}
	ErrDecodeFailed     = &CheckError{Type: ErrorTypeDecode, Code: CodeDecodeFailed}
	ErrIOFailure        = &CheckError{Type: ErrorTypeInternal, Code: CodeIOFailure}
)

// CheckError represents an error with a category, a stable code and user-facing suggestions
type CheckError struct {
	Type        ErrorType         `json:"type"`
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Cause       error             `json:"-"`
	Context     map[string]string `json:"context,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Error implements the error interface
func (e *CheckError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *CheckError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *CheckError) Is(target error) bool {
	if t, ok := target.(*CheckError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error
func (e *CheckError) WithContext(key, value string) *CheckError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *CheckError) WithSuggestion(suggestion string) *CheckError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// Status maps the error category to an HTTP-style status code
func (e *CheckError) Status() int {
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeArchive, ErrorTypeBundle, ErrorTypeDecode:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Degradable reports whether a review can continue without the package contents.
// Archive, bundle and decode failures are the caller's problem, not ours.
func (e *CheckError) Degradable() bool {
	switch e.Type {
	case ErrorTypeArchive, ErrorTypeBundle, ErrorTypeDecode:
		return true
	}
	return false
}

// FormatDetailed returns a detailed error message with context and suggestions
func (e *CheckError) FormatDetailed() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("❌ %s Error [%s]: %s\n", e.Type.String(), e.Code, e.Message))

	if len(e.Context) > 0 {
		builder.WriteString("\n📋 Context:\n")
		keys := make([]string, 0, len(e.Context))
		for key := range e.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			builder.WriteString(fmt.Sprintf("   %s: %s\n", key, e.Context[key]))
		}
	}

	if e.Cause != nil {
		builder.WriteString(fmt.Sprintf("\n🔍 Underlying cause: %v\n", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		builder.WriteString("\n💡 Suggestions:\n")
		for _, suggestion := range e.Suggestions {
			builder.WriteString(fmt.Sprintf("   • %s\n", suggestion))
		}
	}

	return builder.String()
}

// defaultSuggestions are attached to every new error of a type
var defaultSuggestions = map[ErrorType][]string{
	ErrorTypeValidation: {
		"Check the uploaded file and form fields and try again",
	},
	ErrorTypeArchive: {
		"Verify the file is a complete .ipa exported from Xcode",
		"Check if the file was truncated during upload",
	},
	ErrorTypeBundle: {
		"An .ipa must contain Payload/<Name>.app/Info.plist",
		"Re-export the archive with Product > Archive in Xcode",
	},
	ErrorTypeDecode: {
		"Verify Info.plist is a valid XML or binary property list",
		"Run 'plutil -lint Info.plist' to locate the problem",
	},
	ErrorTypeInternal: {
		"Check disk space and permissions of the temporary directory",
		"Try the operation again",
	},
}

// NewError creates a new CheckError
func NewError(errorType ErrorType, code, message string) *CheckError {
	return &CheckError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		Context:     make(map[string]string),
		Suggestions: append([]string(nil), defaultSuggestions[errorType]...),
	}
}

// WrapError wraps an existing error with CheckError
func WrapError(err error, errorType ErrorType, code, message string) *CheckError {
	e := NewError(errorType, code, message)
	e.Cause = err
	return e
}

// As returns the CheckError in err's chain, if any
func As(err error) (*CheckError, bool) {
	var checkErr *CheckError
	if stderrors.As(err, &checkErr) {
		return checkErr, true
	}
	return nil, false
}

// From converts any error into a CheckError. Context cancellation maps to INTERNAL/CANCELED
// and foreign errors to INTERNAL/UNKNOWN.
func From(err error) *CheckError {
	if err == nil {
		return nil
	}
	if checkErr, ok := As(err); ok {
		return checkErr
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, ErrorTypeInternal, CodeCanceled, "operation canceled")
	}
	return WrapError(err, ErrorTypeInternal, CodeUnknown, "internal error")
}

// IsDegradable reports whether err is a package-content failure
func IsDegradable(err error) bool {
	checkErr, ok := As(err)
	return ok && checkErr.Degradable()
}

// Common error constructors

// NewValidationError creates an input validation error
func NewValidationError(code, message string) *CheckError {
	return NewError(ErrorTypeValidation, code, message)
}

// NewArchiveError creates an archive error
func NewArchiveError(code, message string) *CheckError {
	return NewError(ErrorTypeArchive, code, message)
}

// NewBundleError creates a bundle layout error
func NewBundleError(code, message string) *CheckError {
	return NewError(ErrorTypeBundle, code, message)
}

// NewDecodeError creates a metadata decode error
func NewDecodeError(code, message string) *CheckError {
	return NewError(ErrorTypeDecode, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(code, message string) *CheckError {
	return NewError(ErrorTypeInternal, code, message)
}

// ErrorHandler records and logs errors; safe for concurrent use
type ErrorHandler struct {
	logger Logger
	mu     sync.Mutex
	stats  *ErrorStats
}

// Logger interface for error logging
type Logger interface {
	Error(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ErrorStats tracks error statistics
type ErrorStats struct {
	TotalErrors   int            `json:"total_errors"`
	ErrorsByType  map[string]int `json:"errors_by_type"`
	ErrorsByCode  map[string]int `json:"errors_by_code"`
	LastError     *CheckError    `json:"last_error,omitempty"`
	LastErrorTime time.Time      `json:"last_error_time"`
}

func newErrorStats() *ErrorStats {
	return &ErrorStats{
		ErrorsByType: make(map[string]int),
		ErrorsByCode: make(map[string]int),
	}
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
		stats:  newErrorStats(),
	}
}

// Handle logs err and adds it to the statistics. Client failures are logged as warnings.
func (eh *ErrorHandler) Handle(err error) *CheckError {
	if err == nil {
		return nil
	}

	checkErr := From(err)

	eh.mu.Lock()
	eh.stats.TotalErrors++
	eh.stats.ErrorsByType[checkErr.Type.String()]++
	eh.stats.ErrorsByCode[checkErr.Code]++
	eh.stats.LastError = checkErr
	eh.stats.LastErrorTime = time.Now()
	eh.mu.Unlock()

	if eh.logger != nil {
		if checkErr.Status() < http.StatusInternalServerError {
			eh.logger.Warn("Check failed: %s [%s] %s", checkErr.Type.String(), checkErr.Code, checkErr.Error())
		} else {
			eh.logger.Error("Check failed: %s [%s] %s", checkErr.Type.String(), checkErr.Code, checkErr.Error())
		}
		for key, value := range checkErr.Context {
			eh.logger.Debug("Error context: %s = %s", key, value)
		}
	}

	return checkErr
}

// GetStats returns a snapshot of the error statistics
func (eh *ErrorHandler) GetStats() ErrorStats {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	snapshot := *eh.stats
	snapshot.ErrorsByType = make(map[string]int, len(eh.stats.ErrorsByType))
	for k, v := range eh.stats.ErrorsByType {
		snapshot.ErrorsByType[k] = v
	}
	snapshot.ErrorsByCode = make(map[string]int, len(eh.stats.ErrorsByCode))
	for k, v := range eh.stats.ErrorsByCode {
		snapshot.ErrorsByCode[k] = v
	}
	return snapshot
}

// Reset resets error statistics
func (eh *ErrorHandler) Reset() {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	eh.stats = newErrorStats()
}
