// Package errors defines the typed error taxonomy for the reconciliation
// service.
//
// Row-level problems (uncertain reasons, validation flags) are recorded as
// data on the row and never travel through this package. Errors here cover
// the operations that can genuinely fail: file access, spreadsheet parsing,
// configuration, storage, external sync, and the import/rollback lifecycle.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that produced them.
type Category string

const (
	CategoryFile      Category = "file"
	CategoryParse     Category = "parse"
	CategoryConfig    Category = "configuration"
	CategoryStorage   Category = "storage"
	CategorySync      Category = "sync"
	CategoryLifecycle Category = "lifecycle"
	CategoryInternal  Category = "internal"
)

// Code identifies a specific failure within a category.
type Code string

const (
	// File errors
	CodeFileNotFound    Code = "file_not_found"
	CodeFileUnreadable  Code = "file_unreadable"
	CodeUnsupportedType Code = "unsupported_file_type"

	// Parse errors
	CodeEmptySheet    Code = "empty_sheet"
	CodeMissingHeader Code = "missing_header"
	CodeInvalidData   Code = "invalid_data"

	// Configuration errors
	CodeInvalidConfig Code = "invalid_config"
	CodeMissingConfig Code = "missing_config"

	// Storage errors
	CodeNotFound      Code = "not_found"
	CodeTxFailed      Code = "transaction_failed"
	CodeStoreConflict Code = "store_conflict"

	// Sync errors
	CodeSyncFailed  Code = "sync_failed"
	CodeSyncTimeout Code = "sync_timeout"

	// Lifecycle errors
	CodeBatchNotReady   Code = "batch_not_ready"
	CodeNothingToImport Code = "nothing_to_import"
	CodeImportFailed    Code = "import_failed"
	CodeRollbackFailed  Code = "rollback_failed"
	CodeRowImmutable    Code = "row_immutable"

	// Internal errors
	CodeUnexpected Code = "unexpected_error"
)

// ServiceError is the error type returned by all service operations.
type ServiceError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context carries structured detail about the failure.
type Context map[string]interface{}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// ExitCode maps the error category to a CLI exit code.
func (e *ServiceError) ExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse:
		return 3
	case CategoryConfig:
		return 4
	case CategoryStorage, CategorySync:
		return 5
	case CategoryLifecycle:
		return 6
	default:
		return 1
	}
}

// WithContext attaches a key-value pair to the error.
func (e *ServiceError) WithContext(key string, value interface{}) *ServiceError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a remediation hint to the error.
func (e *ServiceError) WithSuggestion(suggestion string) *ServiceError {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a ServiceError with a captured stack trace.
func New(category Category, code Code, message string) *ServiceError {
	return &ServiceError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with service error context. Returns nil when
// err is nil.
func Wrap(err error, category Category, code Code, message string) *ServiceError {
	if err == nil {
		return nil
	}

	se := &ServiceError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    err,
	}
	if st, ok := errors.WithStack(err).(stackTracer); ok {
		se.StackTrace = st.StackTrace()
	}
	return se
}

// FileError creates a file access error for the given path.
func FileError(code Code, path string, err error) *ServiceError {
	var message, suggestion string
	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check that the upload path is correct"
	case CodeFileUnreadable:
		message = fmt.Sprintf("cannot read file: %s", path)
		suggestion = "check file permissions"
	case CodeUnsupportedType:
		message = fmt.Sprintf("unsupported spreadsheet type: %s", path)
		suggestion = "upload a .csv or .xlsx file"
	default:
		message = fmt.Sprintf("file error: %s", path)
	}

	result := wrapOrNew(err, CategoryFile, code, message)
	return result.WithSuggestion(suggestion).WithContext("file_path", path)
}

// ParseError creates a spreadsheet parsing error.
func ParseError(code Code, file string, detail string, err error) *ServiceError {
	message := fmt.Sprintf("parse error in %s: %s", file, detail)
	result := wrapOrNew(err, CategoryParse, code, message)
	return result.WithContext("file", file)
}

// ConfigError creates a configuration error for the given setting.
func ConfigError(code Code, setting string, err error) *ServiceError {
	var message string
	switch code {
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
	default:
		message = fmt.Sprintf("invalid configuration: %s", setting)
	}

	result := wrapOrNew(err, CategoryConfig, code, message)
	return result.WithContext("setting", setting)
}

// StorageError creates a persistence error for the given entity.
func StorageError(code Code, entity string, err error) *ServiceError {
	var message string
	switch code {
	case CodeNotFound:
		message = fmt.Sprintf("%s not found", entity)
	case CodeTxFailed:
		message = fmt.Sprintf("transaction failed while writing %s", entity)
	default:
		message = fmt.Sprintf("storage error on %s", entity)
	}

	result := wrapOrNew(err, CategoryStorage, code, message)
	return result.WithContext("entity", entity)
}

// SyncError creates an external results sync error.
func SyncError(code Code, leagueKey string, err error) *ServiceError {
	message := fmt.Sprintf("external results sync failed for league %s", leagueKey)
	result := wrapOrNew(err, CategorySync, code, message)
	return result.
		WithSuggestion("the row is marked uncertain and can be re-validated once the provider recovers").
		WithContext("league_key", leagueKey)
}

// LifecycleError creates an import/correction/rollback error.
func LifecycleError(code Code, batchID string, err error) *ServiceError {
	var message string
	switch code {
	case CodeBatchNotReady:
		message = fmt.Sprintf("batch %s is not ready for this operation", batchID)
	case CodeNothingToImport:
		message = fmt.Sprintf("batch %s has no importable rows", batchID)
	case CodeImportFailed:
		message = fmt.Sprintf("import failed for batch %s; no records were created", batchID)
	case CodeRollbackFailed:
		message = fmt.Sprintf("rollback failed for batch %s; imported records were left in place", batchID)
	case CodeRowImmutable:
		message = fmt.Sprintf("row in batch %s is imported and cannot be modified", batchID)
	default:
		message = fmt.Sprintf("lifecycle error on batch %s", batchID)
	}

	result := wrapOrNew(err, CategoryLifecycle, code, message)
	return result.WithContext("batch_id", batchID)
}

// Internal creates an unexpected internal error.
func Internal(operation string, err error) *ServiceError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	result := wrapOrNew(err, CategoryInternal, CodeUnexpected, message)
	return result.WithContext("operation", operation)
}

func wrapOrNew(err error, category Category, code Code, message string) *ServiceError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// Is reports whether err is a ServiceError with the given code.
func Is(err error, code Code) bool {
	se, ok := As(err)
	return ok && se.Code == code
}

// As extracts a ServiceError from an error chain.
func As(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Summary aggregates multiple row-level errors for reporting.
type Summary struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category"`
	Errors     []*ServiceError  `json:"errors"`
}

// NewSummary builds a Summary from a list of errors.
func NewSummary(errs []*ServiceError) *Summary {
	s := &Summary{
		Total:      len(errs),
		ByCategory: make(map[Category]int),
		Errors:     errs,
	}
	for _, e := range errs {
		s.ByCategory[e.Category]++
	}
	return s
}

// Error returns a one-line description of the summary.
func (s *Summary) Error() string {
	if s.Total == 0 {
		return "no errors"
	}
	if s.Total == 1 {
		return s.Errors[0].Error()
	}

	parts := make([]string, 0, len(s.ByCategory))
	for category, count := range s.ByCategory {
		parts = append(parts, fmt.Sprintf("%s: %d", category, count))
	}
	return fmt.Sprintf("%d errors occurred (%s)", s.Total, strings.Join(parts, ", "))
}
