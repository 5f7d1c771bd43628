package dto

import (
	"net/http"

	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUnavailable is used when the store cannot be reached
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for request binding errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for entity validation failures
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Catalog error codes
const (
	// ErrCodeNotFound is used when a product, category, group or import session is missing
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeDuplicateBarcode is used when another product holds the barcode
	ErrCodeDuplicateBarcode = "ERR_DUPLICATE_BARCODE"
	// ErrCodeDuplicateCategory is used when the category name is taken
	ErrCodeDuplicateCategory = "ERR_DUPLICATE_CATEGORY"
	// ErrCodeDefaultGroupProtected is used when deleting the default group
	ErrCodeDefaultGroupProtected = "ERR_DEFAULT_GROUP_PROTECTED"
	// ErrCodeSentinelCategoryProtected is used when deleting the fallback category
	ErrCodeSentinelCategoryProtected = "ERR_SENTINEL_CATEGORY_PROTECTED"
	// ErrCodeInsufficientStock is used when a stock adjustment would go negative
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
)

// Import error codes
const (
	// ErrCodeInvalidState is used when an import step runs out of order
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeNoImportableRows is used when every row of a file was skipped
	ErrCodeNoImportableRows = "ERR_NO_IMPORTABLE_ROWS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Catalog errors
	ErrCodeNotFound:                  http.StatusNotFound,
	ErrCodeDuplicateBarcode:          http.StatusConflict,
	ErrCodeDuplicateCategory:         http.StatusConflict,
	ErrCodeDefaultGroupProtected:     http.StatusUnprocessableEntity,
	ErrCodeSentinelCategoryProtected: http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:         http.StatusUnprocessableEntity,

	// Import errors
	ErrCodeInvalidState:     http.StatusConflict,
	ErrCodeNoImportableRows: http.StatusUnprocessableEntity,

	// Import file errors, coded by csvimport.CodeFor
	csvimport.ErrCodeImportInvalidFile:     http.StatusBadRequest,
	csvimport.ErrCodeImportEmptyFile:       http.StatusBadRequest,
	csvimport.ErrCodeImportInvalidEncoding: http.StatusBadRequest,
	csvimport.ErrCodeImportMissingHeader:   http.StatusBadRequest,
	csvimport.ErrCodeImportMalformedRow:    http.StatusBadRequest,
	csvimport.ErrCodeImportFileTooLarge:    http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                   ErrCodeNotFound,
	"INVALID_INPUT":               ErrCodeInvalidInput,
	"DUPLICATE_BARCODE":           ErrCodeDuplicateBarcode,
	"DUPLICATE_CATEGORY":          ErrCodeDuplicateCategory,
	"DEFAULT_GROUP_PROTECTED":     ErrCodeDefaultGroupProtected,
	"SENTINEL_CATEGORY_PROTECTED": ErrCodeSentinelCategoryProtected,
	"INSUFFICIENT_STOCK":          ErrCodeInsufficientStock,
	"INVALID_STATE":               ErrCodeInvalidState,
	"NO_IMPORTABLE_ROWS":          ErrCodeNoImportableRows,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
