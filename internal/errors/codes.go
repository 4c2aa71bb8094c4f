// Package errors provides structured error handling for the dictionary service.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (search index files)
//   - 3XX: Broker and network errors
//   - 4XX: Validation and decoding errors
//   - 5XX: Internal and engine errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates search index storage errors.
	CategoryStorage Category = "STORAGE"
	// CategoryNetwork indicates broker and network errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation and decoding errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates engine and unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigMissing = "ERR_101_CONFIG_MISSING"
	ErrCodeConfigInvalid = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeIndexLocked  = "ERR_202_INDEX_LOCKED"
	ErrCodeCorruptIndex = "ERR_205_CORRUPT_INDEX"

	// Network errors (300-399)
	ErrCodeBrokerUnavailable = "ERR_301_BROKER_UNAVAILABLE"
	ErrCodeCommitFailed      = "ERR_302_COMMIT_FAILED"

	// Validation errors (400-499)
	ErrCodeDecodeFailed = "ERR_401_DECODE_FAILED"
	ErrCodeInvalidInput = "ERR_402_INVALID_INPUT"
	ErrCodeUnknownKind  = "ERR_403_UNKNOWN_KIND"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeEngineFailed = "ERR_502_ENGINE_FAILED"
	ErrCodeQueryFailed  = "ERR_503_QUERY_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_MISSING")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeConfigInvalid:
		return SeverityFatal
	case ErrCodeConfigMissing:
		return SeverityInfo
	}

	// Retryable errors get warning severity
	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Engine failures are retryable because the consumer withholds the commit and
// the record is redelivered.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeBrokerUnavailable, ErrCodeCommitFailed, ErrCodeEngineFailed, ErrCodeIndexLocked:
		return true
	default:
		return false
	}
}
