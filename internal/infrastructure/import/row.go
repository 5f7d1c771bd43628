package csvimport

import "strings"

// RawRow maps a source column header to the cell's raw text
type RawRow map[string]string

// Row is one data row with the source line it came from
type Row struct {
	LineNumber int    `json:"line"`
	Data       RawRow `json:"data"`
}

func newRow(line int, headers, record []string, trim bool) *Row {
	row := &Row{LineNumber: line, Data: make(RawRow, len(headers))}
	for i, header := range headers {
		value := ""
		if i < len(record) {
			value = record[i]
			if trim {
				value = strings.TrimSpace(value)
			}
		}
		row.Data[header] = value
	}
	return row
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}
