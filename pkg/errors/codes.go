package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeUnknown            ErrorCode = "COMMON_099"

	CodeOK ErrorCode = "OK"
)

// Analysis module error codes.
const (
	ErrCodeAnalysisNotFound      ErrorCode = "ANL_001"
	ErrCodeAnalysisStoreFailed   ErrorCode = "ANL_002"
	ErrCodeInsufficientContent   ErrorCode = "ANL_003"
	ErrCodeInvalidContentType    ErrorCode = "ANL_004"
	ErrCodeEvictionFailed        ErrorCode = "ANL_005"
	ErrCodeStaleMarkFailed       ErrorCode = "ANL_006"
	ErrCodeSnapshotArchiveFailed ErrorCode = "ANL_007"
)

// Clause library error codes.
const (
	ErrCodeClauseNotFound     ErrorCode = "CLS_001"
	ErrCodeClauseUpsertFailed ErrorCode = "CLS_002"
	ErrCodeClauseInvalid      ErrorCode = "CLS_003"
)

// Preference module error codes.
const (
	ErrCodePreferencesNotFound ErrorCode = "PRF_001"
	ErrCodePreferencesInvalid  ErrorCode = "PRF_002"
	ErrCodeUnknownFlag         ErrorCode = "PRF_003"
)

// Personalization module error codes.
const (
	ErrCodeResultNotFound      ErrorCode = "PRS_001"
	ErrCodePersonalizeFailed   ErrorCode = "PRS_002"
	ErrCodeDecisionInvalid     ErrorCode = "PRS_003"
	ErrCodeAlertPublishFailed  ErrorCode = "PRS_004"
	ErrCodeResultRecordFailed  ErrorCode = "PRS_005"
)

// Site module error codes.
const (
	ErrCodeSiteNotFound ErrorCode = "SIT_001"
	ErrCodeSiteInvalid  ErrorCode = "SIT_002"
)

// AI provider error codes.
const (
	ErrCodeProviderTimeout     ErrorCode = "AI_001"
	ErrCodeProviderError       ErrorCode = "AI_002"
	ErrCodeProviderValidation  ErrorCode = "AI_003"
	ErrCodeProviderUnavailable ErrorCode = "AI_004"
)

// Scheduler error codes.
const (
	ErrCodeSchedulerBusy     ErrorCode = "SCH_001"
	ErrCodeSchedulerStopped  ErrorCode = "SCH_002"
	ErrCodeBatchItemTimeout  ErrorCode = "SCH_003"
	ErrCodeLockNotAcquired   ErrorCode = "SCH_004"
)

// errorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var errorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeUnknown:            http.StatusInternalServerError,

	ErrCodeAnalysisNotFound:      http.StatusNotFound,
	ErrCodeAnalysisStoreFailed:   http.StatusInternalServerError,
	ErrCodeInsufficientContent:   http.StatusUnprocessableEntity,
	ErrCodeInvalidContentType:    http.StatusBadRequest,
	ErrCodeEvictionFailed:        http.StatusInternalServerError,
	ErrCodeStaleMarkFailed:       http.StatusInternalServerError,
	ErrCodeSnapshotArchiveFailed: http.StatusInternalServerError,

	ErrCodeClauseNotFound:     http.StatusNotFound,
	ErrCodeClauseUpsertFailed: http.StatusInternalServerError,
	ErrCodeClauseInvalid:      http.StatusBadRequest,

	ErrCodePreferencesNotFound: http.StatusNotFound,
	ErrCodePreferencesInvalid:  http.StatusUnprocessableEntity,
	ErrCodeUnknownFlag:         http.StatusBadRequest,

	ErrCodeResultNotFound:     http.StatusNotFound,
	ErrCodePersonalizeFailed:  http.StatusInternalServerError,
	ErrCodeDecisionInvalid:    http.StatusBadRequest,
	ErrCodeAlertPublishFailed: http.StatusInternalServerError,
	ErrCodeResultRecordFailed: http.StatusInternalServerError,

	ErrCodeSiteNotFound: http.StatusNotFound,
	ErrCodeSiteInvalid:  http.StatusBadRequest,

	ErrCodeProviderTimeout:     http.StatusGatewayTimeout,
	ErrCodeProviderError:       http.StatusBadGateway,
	ErrCodeProviderValidation:  http.StatusBadGateway,
	ErrCodeProviderUnavailable: http.StatusServiceUnavailable,

	ErrCodeSchedulerBusy:    http.StatusConflict,
	ErrCodeSchedulerStopped: http.StatusServiceUnavailable,
	ErrCodeBatchItemTimeout: http.StatusGatewayTimeout,
	ErrCodeLockNotAcquired:  http.StatusConflict,
}

// errorCodeMessage maps ErrorCodes to default messages.
var errorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeUnknown:            "unknown error",

	ErrCodeAnalysisNotFound:      "cached analysis not found",
	ErrCodeAnalysisStoreFailed:   "failed to store analysis",
	ErrCodeInsufficientContent:   "content not suitable for analysis",
	ErrCodeInvalidContentType:    "invalid content type",
	ErrCodeEvictionFailed:        "cache eviction failed",
	ErrCodeStaleMarkFailed:       "failed to mark analyses stale",
	ErrCodeSnapshotArchiveFailed: "failed to archive document snapshot",

	ErrCodeClauseNotFound:     "clause not found",
	ErrCodeClauseUpsertFailed: "clause upsert failed",
	ErrCodeClauseInvalid:      "invalid clause",

	ErrCodePreferencesNotFound: "preference set not found",
	ErrCodePreferencesInvalid:  "invalid preference set",
	ErrCodeUnknownFlag:         "unknown preference flag",

	ErrCodeResultNotFound:     "personalized result not found",
	ErrCodePersonalizeFailed:  "personalization failed",
	ErrCodeDecisionInvalid:    "invalid user decision",
	ErrCodeAlertPublishFailed: "failed to publish alert",
	ErrCodeResultRecordFailed: "failed to record personalized result",

	ErrCodeSiteNotFound: "site not found",
	ErrCodeSiteInvalid:  "invalid site",

	ErrCodeProviderTimeout:     "AI provider timed out",
	ErrCodeProviderError:       "AI provider error",
	ErrCodeProviderValidation:  "AI provider response failed validation",
	ErrCodeProviderUnavailable: "AI provider unavailable",

	ErrCodeSchedulerBusy:    "batch scheduler already running",
	ErrCodeSchedulerStopped: "batch scheduler stopped",
	ErrCodeBatchItemTimeout: "batch item timed out",
	ErrCodeLockNotAcquired:  "scheduler lock not acquired",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := errorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError reports whether the ErrorCode maps to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether the ErrorCode maps to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}
