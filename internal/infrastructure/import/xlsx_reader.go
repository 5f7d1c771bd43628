package csvimport

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads the first worksheet of a workbook: header in row 1, data from row 2
type XLSXReader struct {
	headers []string
	rows    [][]string
	next    int
}

// NewXLSXReader opens a workbook from memory and loads its first worksheet
func NewXLSXReader(data []byte) (*XLSXReader, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrInvalidWorkbook
	}
	// raw values keep numbers free of display formatting such as thousands separators
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	headers := normalizeHeaders(rows[0])
	if len(headers) == 0 {
		return nil, ErrMissingHeader
	}
	return &XLSXReader{headers: headers, rows: rows[1:]}, nil
}

// Headers returns the header row
func (x *XLSXReader) Headers() []string {
	return x.headers
}

// ReadAllRows returns the non-blank data rows; limit > 0 stops after that many
func (x *XLSXReader) ReadAllRows(limit int) []*Row {
	var out []*Row
	for ; x.next < len(x.rows); x.next++ {
		if limit > 0 && len(out) >= limit {
			break
		}
		// row 1 is the header, data lines start at 2
		row := newRow(x.next+2, x.headers, x.rows[x.next], true)
		if row.IsEmpty() {
			continue
		}
		out = append(out, row)
	}
	return out
}
