package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped and re-created errors compare equal
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes used across the catalog
const (
	CodeNotFound                  = "NOT_FOUND"
	CodeInvalidInput              = "INVALID_INPUT"
	CodeDuplicateBarcode          = "DUPLICATE_BARCODE"
	CodeDuplicateCategory         = "DUPLICATE_CATEGORY"
	CodeDefaultGroupProtected     = "DEFAULT_GROUP_PROTECTED"
	CodeSentinelCategoryProtected = "SENTINEL_CATEGORY_PROTECTED"
	CodeInsufficientStock         = "INSUFFICIENT_STOCK"
	CodeInvalidState              = "INVALID_STATE"
	CodeNoImportableRows          = "NO_IMPORTABLE_ROWS"
)

// Common domain errors
var (
	ErrNotFound                  = NewDomainError(CodeNotFound, "Kayıt bulunamadı")
	ErrInvalidInput              = NewDomainError(CodeInvalidInput, "Geçersiz veri")
	ErrDuplicateBarcode          = NewDomainError(CodeDuplicateBarcode, "bu barkoda sahip ürün zaten mevcut")
	ErrDuplicateCategory         = NewDomainError(CodeDuplicateCategory, "bu isimde bir kategori zaten mevcut")
	ErrDefaultGroupProtected     = NewDomainError(CodeDefaultGroupProtected, "varsayılan grup silinemez")
	ErrSentinelCategoryProtected = NewDomainError(CodeSentinelCategoryProtected, "varsayılan kategori silinemez")
	ErrInsufficientStock         = NewDomainError(CodeInsufficientStock, "yetersiz stok")
	ErrInvalidState              = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrNoImportableRows          = NewDomainError(CodeNoImportableRows, "no products were importable")
)

// IsNotFound reports whether err carries the NOT_FOUND code
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
