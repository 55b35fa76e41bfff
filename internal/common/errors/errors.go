// Package errors provides standardized error handling for the sync pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseUpsertFailed     ErrorCode = "DATABASE_UPSERT_FAILED"

	ErrCodeSourceFileUnreadable ErrorCode = "SOURCE_FILE_UNREADABLE"
	ErrCodeSourceFileMalformed  ErrorCode = "SOURCE_FILE_MALFORMED"
	ErrCodeRecordInvalid        ErrorCode = "RECORD_INVALID"

	ErrCodeLedgerClaimFailed  ErrorCode = "LEDGER_CLAIM_FAILED"
	ErrCodeLedgerCommitFailed ErrorCode = "LEDGER_COMMIT_FAILED"

	ErrCodeCandidateLookupFailed ErrorCode = "CANDIDATE_LOOKUP_FAILED"
	ErrCodeUnknownThreshold      ErrorCode = "UNKNOWN_THRESHOLD"
	ErrCodeMatchTimeout          ErrorCode = "MATCH_TIMEOUT"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeIndexWriteFailed              ErrorCode = "INDEX_WRITE_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeDownloadFailed         ErrorCode = "DOWNLOAD_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseUpsertFailedError creates a retryable upsert error.
func NewDatabaseUpsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseUpsertFailed,
		Message:   "Establishment upsert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceFileUnreadableError creates a retryable file read error.
func NewSourceFileUnreadableError(fileName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceFileUnreadable,
		Message:   "Source file could not be read",
		Details:   fmt.Sprintf("file: %s, error: %s", fileName, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceFileMalformedError creates a non-retryable parse error.
func NewSourceFileMalformedError(fileName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceFileMalformed,
		Message:   "Source file is not a valid FHRS export",
		Details:   fmt.Sprintf("file: %s, error: %s", fileName, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordInvalidError creates a non-retryable record validation error.
func NewRecordInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordInvalid,
		Message:   "Establishment record failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerClaimFailedError creates a retryable ledger claim error.
func NewLedgerClaimFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerClaimFailed,
		Message:   "Processed-files ledger claim failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerCommitFailedError creates a retryable ledger commit error.
func NewLedgerCommitFailedError(fileName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerCommitFailed,
		Message:   "Processed-files ledger commit failed",
		Details:   fmt.Sprintf("file: %s, error: %s", fileName, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateLookupFailedError creates a retryable candidate lookup error.
func NewCandidateLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateLookupFailed,
		Message:   "Postcode candidate lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownThresholdError creates a non-retryable configuration error.
func NewUnknownThresholdError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownThreshold,
		Message:   "Unknown strictness threshold",
		Details:   fmt.Sprintf("threshold: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchTimeoutError creates a retryable match timeout error.
func NewMatchTimeoutError(placeID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchTimeout,
		Message:   "Fuzzy match timed out",
		Details:   fmt.Sprintf("placeId: %s", placeID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexWriteFailedError creates a retryable index write error.
func NewIndexWriteFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexWriteFailed,
		Message:   "Elasticsearch index write failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDownloadFailedError creates a retryable download error.
func NewDownloadFailedError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDownloadFailed,
		Message:   "Authority export download failed",
		Details:   fmt.Sprintf("url: %s, error: %s", url, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseUpsertFailed,
		ErrCodeLedgerClaimFailed,
		ErrCodeLedgerCommitFailed,
		ErrCodeCandidateLookupFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeIndexWriteFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeDownloadFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeMatchTimeout,
		ErrCodeSourceFileUnreadable:
		return 2 // Partial retry for timeouts and transient IO

	default:
		return 0 // Validation and configuration errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "LEDGER"):
		return "LEDGER"
	case strings.Contains(codeStr, "FILE") || strings.Contains(codeStr, "RECORD"):
		return "INGEST"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "CANDIDATE") || strings.Contains(codeStr, "MATCH") || strings.Contains(codeStr, "THRESHOLD"):
		return "MATCH"
	case strings.Contains(codeStr, "DOWNLOAD"):
		return "DOWNLOAD"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
