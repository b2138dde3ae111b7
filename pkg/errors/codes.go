package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeMessagingError     ErrorCode = "COMMON_014"
	ErrCodeCancelled          ErrorCode = "COMMON_017"
)

// Aliases
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// Molecule Module Error Codes
const (
	ErrCodeMoleculeInvalidSMILES  ErrorCode = "MOL_001"
	ErrCodeMoleculeParsingFailed  ErrorCode = "MOL_006"
	ErrCodeMoleculeEncodingFailed ErrorCode = "MOL_011"
	ErrCodeBondPatternUnsupported ErrorCode = "MOL_016"
	ErrCodeAtomIndexOutOfRange    ErrorCode = "MOL_017"
)

// Fragmentation Module Error Codes
const (
	ErrCodeFragmentationFailed ErrorCode = "FRAG_001"
	ErrCodeFactoryClosed       ErrorCode = "FRAG_002"
	ErrCodeIllegalArgument     ErrorCode = "FRAG_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeCancelled:          http.StatusRequestTimeout,

	ErrCodeMoleculeInvalidSMILES:  http.StatusBadRequest,
	ErrCodeMoleculeParsingFailed:  http.StatusUnprocessableEntity,
	ErrCodeMoleculeEncodingFailed: http.StatusInternalServerError,
	ErrCodeBondPatternUnsupported: http.StatusBadRequest,
	ErrCodeAtomIndexOutOfRange:    http.StatusBadRequest,

	ErrCodeFragmentationFailed: http.StatusUnprocessableEntity,
	ErrCodeFactoryClosed:       http.StatusConflict,
	ErrCodeIllegalArgument:     http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessagingError:     "messaging error",
	ErrCodeCancelled:          "operation cancelled",

	ErrCodeMoleculeInvalidSMILES:  "invalid SMILES format",
	ErrCodeMoleculeParsingFailed:  "failed to parse molecule",
	ErrCodeMoleculeEncodingFailed: "failed to encode molecule",
	ErrCodeBondPatternUnsupported: "unsupported bond pattern",
	ErrCodeAtomIndexOutOfRange:    "atom index out of range",

	ErrCodeFragmentationFailed: "fragmentation failed",
	ErrCodeFactoryClosed:       "fragmentation factory is closed",
	ErrCodeIllegalArgument:     "illegal argument",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
