package csvimport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name    string
		want    FileType
		wantErr bool
	}{
		{"urunler.csv", FileTypeCSV, false},
		{"URUNLER.CSV", FileTypeCSV, false},
		{"liste.xlsx", FileTypeXLSX, false},
		{"eski.xls", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFileType(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFileType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFileType(t *testing.T) {
	got, err := ParseFileType(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FileTypeXLSX, got)

	_, err = ParseFileType("ods")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestReadTableCSV(t *testing.T) {
	data := []byte("Ürün Adı;Barkod;Satış Fiyatı\nÇay;869001;2.065,42\nŞeker;869002;45\n")

	table, err := ReadTable(FileTypeCSV, data, 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"Ürün Adı", "Barkod", "Satış Fiyatı"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "2.065,42", table.Rows[0].Get("Satış Fiyatı"))
	assert.Equal(t, RawRow{"Ürün Adı": "Şeker", "Barkod": "869002", "Satış Fiyatı": "45"}, table.RawRows()[1])
}

func TestReadTableXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Ürün Adı", "Barkod", "Stok"},
		{"Çay", "869001", 12},
		{nil, nil, nil},
		{"Şeker", "869002", 3.5},
	})

	t.Run("All rows", func(t *testing.T) {
		table, err := ReadTable(FileTypeXLSX, data, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{"Ürün Adı", "Barkod", "Stok"}, table.Headers)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "12", table.Rows[0].Get("Stok"))
		assert.Equal(t, 2, table.Rows[0].LineNumber)
		assert.Equal(t, "Şeker", table.Rows[1].Get("Ürün Adı"))
		assert.Equal(t, 4, table.Rows[1].LineNumber)
	})

	t.Run("Preview limit", func(t *testing.T) {
		table, err := ReadTable(FileTypeXLSX, data, 1)

		require.NoError(t, err)
		assert.Len(t, table.Rows, 1)
	})
}

func TestReadTableErrors(t *testing.T) {
	_, err := ReadTable(FileTypeXLSX, []byte("not a zip"), 0)
	assert.ErrorIs(t, err, ErrInvalidWorkbook)

	_, err = ReadTable(FileTypeXLSX, nil, 0)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = ReadTable(FileTypeCSV, []byte(""), 0)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = ReadTable(FileType("ods"), []byte("x"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}
