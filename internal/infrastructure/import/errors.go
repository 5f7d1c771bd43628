package csvimport

import (
	"errors"
	"fmt"
)

// Import error codes
const (
	// File level
	ErrCodeImportInvalidFile     = "ERR_IMPORT_INVALID_FILE"
	ErrCodeImportEmptyFile       = "ERR_IMPORT_EMPTY_FILE"
	ErrCodeImportFileTooLarge    = "ERR_IMPORT_FILE_TOO_LARGE"
	ErrCodeImportInvalidEncoding = "ERR_IMPORT_INVALID_ENCODING"
	ErrCodeImportMissingHeader   = "ERR_IMPORT_MISSING_HEADER"
	ErrCodeImportMalformedRow    = "ERR_IMPORT_MALFORMED_ROW"

	// Row level
	ErrCodeImportUnmappedField   = "ERR_IMPORT_UNMAPPED_FIELD"
	ErrCodeImportRequiredField   = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidBarcode  = "ERR_IMPORT_INVALID_BARCODE"
	ErrCodeImportDuplicateInFile = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeImportDuplicateInDB   = "ERR_IMPORT_DUPLICATE_IN_DB"
	ErrCodeImportWriteFailed     = "ERR_IMPORT_WRITE_FAILED"
)

// Common import errors
var (
	ErrEmptyFile           = errors.New("import file is empty")
	ErrInvalidEncoding     = errors.New("import file is not valid UTF-8")
	ErrMissingHeader       = errors.New("import file missing header row")
	ErrMalformedRow        = errors.New("malformed row")
	ErrNoDataRows          = errors.New("import file contains no data rows")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrTooManyRows         = errors.New("file exceeds maximum allowed row count")
	ErrInvalidWorkbook     = errors.New("invalid spreadsheet workbook")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// CodeFor maps a file-level error to its import error code
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrNoDataRows):
		return ErrCodeImportEmptyFile
	case errors.Is(err, ErrInvalidEncoding):
		return ErrCodeImportInvalidEncoding
	case errors.Is(err, ErrMissingHeader):
		return ErrCodeImportMissingHeader
	case errors.Is(err, ErrMalformedRow):
		return ErrCodeImportMalformedRow
	case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrTooManyRows):
		return ErrCodeImportFileTooLarge
	default:
		return ErrCodeImportInvalidFile
	}
}

// RowError reports why one data row was skipped. Row is the 1-based line in
// the file, header included.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d (%s): %s", e.Row, e.Column, e.Message)
}

// NewRowError builds a RowError without an offending value
func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

// NewRowErrorWithValue builds a RowError that echoes the rejected cell
func NewRowErrorWithValue(row int, column, code, message, value string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message, Value: value}
}

// ErrorCollection keeps the first limit row errors in order. Errors past the
// limit are still counted, overall and per code.
type ErrorCollection struct {
	kept   []RowError
	limit  int
	total  int
	byCode map[string]int
}

// NewErrorCollection keeps up to limit errors; zero or less means 100
func NewErrorCollection(limit int) *ErrorCollection {
	if limit <= 0 {
		limit = 100
	}
	return &ErrorCollection{
		kept:   []RowError{},
		limit:  limit,
		byCode: map[string]int{},
	}
}

// Add records err
func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	ec.byCode[err.Code]++
	if len(ec.kept) < ec.limit {
		ec.kept = append(ec.kept, err)
	}
}

// AddDuplicateError records a barcode seen earlier in the file, or already
// stored in the catalog when inDB is set
func (ec *ErrorCollection) AddDuplicateError(row int, column, value string, inDB bool) {
	if inDB {
		ec.Add(NewRowErrorWithValue(row, column, ErrCodeImportDuplicateInDB,
			fmt.Sprintf("barcode %q is already in the catalog", value), value))
		return
	}
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeImportDuplicateInFile,
		fmt.Sprintf("barcode %q appears earlier in the file", value), value))
}

// Errors returns the kept errors in the order they were added
func (ec *ErrorCollection) Errors() []RowError { return ec.kept }

// TotalCount includes errors dropped by the limit
func (ec *ErrorCollection) TotalCount() int { return ec.total }

// IsTruncated reports whether any error was dropped
func (ec *ErrorCollection) IsTruncated() bool { return ec.total > len(ec.kept) }

// ByCode counts every added error by code, dropped ones included
func (ec *ErrorCollection) ByCode() map[string]int {
	out := make(map[string]int, len(ec.byCode))
	for code, n := range ec.byCode {
		out[code] = n
	}
	return out
}
