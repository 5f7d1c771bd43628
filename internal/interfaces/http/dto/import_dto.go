package dto

import (
	importapp "github.com/kasapos/backend/internal/application/import"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
)

// ImportUploadForm is the multipart upload that opens an import session
type ImportUploadForm struct {
	// FileType overrides detection from the file extension
	FileType string `form:"file_type" binding:"omitempty,oneof=csv xlsx CSV XLSX"`
}

// ImportMappingRequest confirms which column feeds each product field.
// Keys are name, barcode, purchasePrice, salePrice, vatRate, stock, category, imageUrl.
type ImportMappingRequest struct {
	Mapping              map[string]string `json:"mapping" binding:"required"`
	SalePriceIncludesVat bool              `json:"sale_price_includes_vat"`
}

// ImportCommitRequest writes a processed import to the catalog
type ImportCommitRequest struct {
	AllowPartial bool `json:"allow_partial"`
}

// ImportRowsResponse is every raw data row of an uploaded file
type ImportRowsResponse struct {
	SessionID string             `json:"session_id"`
	Rows      []csvimport.RawRow `json:"rows"`
	Total     int                `json:"total"`
}

// ImportStatusResponse is the session state with the last processing result, if any
type ImportStatusResponse struct {
	Session csvimport.SessionSnapshot `json:"session"`
	Result  *importapp.ImportResult   `json:"result,omitempty"`
}

// ImportFailureResponse is the body of a 422 for a file where no row was importable.
// Result carries the per-row reasons.
type ImportFailureResponse struct {
	Success bool                    `json:"success"`
	Error   *ErrorInfo              `json:"error"`
	Result  *importapp.ImportResult `json:"result"`
}

// ImportHistoryQuery limits the import history list
type ImportHistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}
