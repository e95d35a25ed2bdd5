// Package errors provides the structured error taxonomy shared by every
// memory-engine component: Store, Writer, Indexer, Retriever, and the tool
// surface that renders them to callers.
package errors

// Category classifies an error for logging and for the verb-boundary
// rendering rules in the tool surface.
type Category string

const (
	CategoryConfig    Category = "CONFIG"
	CategoryStorage   Category = "STORAGE"
	CategoryEmbedding Category = "EMBEDDING"
	CategoryQuality   Category = "QUALITY"
	CategoryPrivacy   Category = "PRIVACY"
	CategoryNotFound  Category = "NOT_FOUND"
	CategoryCancelled Category = "CANCELLED"
	CategoryInternal  Category = "INTERNAL"
)

// Severity mirrors how serious a failure is for the process hosting it.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Error codes, one family per taxonomy entry in the error handling design.
const (
	CodeConfigInvalid = "ERR_CONFIG_INVALID"
	CodeConfigMissing = "ERR_CONFIG_MISSING"

	CodeStorageIO     = "ERR_STORAGE_IO"
	CodeStorageSchema = "ERR_STORAGE_SCHEMA"
	CodeStorageFTSync = "ERR_STORAGE_FTS_SYNC"

	CodeEmbeddingUnavailable = "ERR_EMBEDDING_UNAVAILABLE"
	CodeEmbeddingTimeout     = "ERR_EMBEDDING_TIMEOUT"
	CodeDimensionMismatch    = "ERR_EMBEDDING_DIMENSION_MISMATCH"

	CodeQualityRejected = "ERR_QUALITY_REJECTED"
	CodePrivacyRejected = "ERR_PRIVACY_REJECTED"

	CodeNotFound = "ERR_NOT_FOUND"

	CodeCancelled = "ERR_CANCELLED"

	CodeInternal = "ERR_INTERNAL"
)

func categoryFromCode(code string) Category {
	switch code {
	case CodeConfigInvalid, CodeConfigMissing:
		return CategoryConfig
	case CodeStorageIO, CodeStorageSchema, CodeStorageFTSync:
		return CategoryStorage
	case CodeEmbeddingUnavailable, CodeEmbeddingTimeout, CodeDimensionMismatch:
		return CategoryEmbedding
	case CodeQualityRejected:
		return CategoryQuality
	case CodePrivacyRejected:
		return CategoryPrivacy
	case CodeNotFound:
		return CategoryNotFound
	case CodeCancelled:
		return CategoryCancelled
	default:
		return CategoryInternal
	}
}

func severityFromCode(code string) Severity {
	switch code {
	case CodeStorageSchema, CodeStorageFTSync:
		return SeverityFatal
	case CodeEmbeddingTimeout, CodeEmbeddingUnavailable:
		return SeverityWarning
	case CodeCancelled:
		return SeverityInfo
	default:
		return SeverityError
	}
}

func isRetryableCode(code string) bool {
	switch code {
	case CodeEmbeddingTimeout, CodeEmbeddingUnavailable, CodeStorageIO:
		return true
	default:
		return false
	}
}
