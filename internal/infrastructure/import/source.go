package csvimport

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType identifies the container format of an import file
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// ParseFileType accepts "csv" or "xlsx" in any case
func ParseFileType(s string) (FileType, error) {
	switch FileType(strings.ToLower(strings.TrimSpace(s))) {
	case FileTypeCSV:
		return FileTypeCSV, nil
	case FileTypeXLSX:
		return FileTypeXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, s)
}

// DetectFileType derives the type from a file name's extension
func DetectFileType(fileName string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return FileTypeCSV, nil
	case ".xlsx", ".xlsm":
		return FileTypeXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, fileName)
}

// Table is the header row plus data rows of an import file
type Table struct {
	Headers []string `json:"headers"`
	Rows    []*Row   `json:"rows"`
}

// RawRows returns the row data without line numbers
func (t *Table) RawRows() []RawRow {
	out := make([]RawRow, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Data
	}
	return out
}

// ReadTable extracts headers and up to limit non-blank rows (limit <= 0 reads all)
func ReadTable(fileType FileType, data []byte, limit int) (*Table, error) {
	switch fileType {
	case FileTypeCSV:
		parser, err := ParseFromBytes(data)
		if err != nil {
			return nil, err
		}
		if err := parser.ParseHeader(); err != nil {
			return nil, err
		}
		rows, err := parser.ReadAllRows(limit)
		if err != nil {
			return nil, err
		}
		return &Table{Headers: parser.Headers(), Rows: rows}, nil
	case FileTypeXLSX:
		reader, err := NewXLSXReader(data)
		if err != nil {
			return nil, err
		}
		return &Table{Headers: reader.Headers(), Rows: reader.ReadAllRows(limit)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, fileType)
}
