package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("Valid UTF-8 CSV", func(t *testing.T) {
		csv := "Ürün Adı,Barkod,Stok\nÇay,8690001,10"
		parser, err := NewCSVParser(strings.NewReader(csv))

		require.NoError(t, err)
		require.NotNil(t, parser)
		assert.Equal(t, ',', parser.Delimiter())
	})

	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		csv := "\xEF\xBB\xBFname,barcode\nÇay,1"
		parser, err := NewCSVParser(strings.NewReader(csv))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		assert.Equal(t, "name", parser.Headers()[0])
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""))

		assert.Nil(t, parser)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Whitespace only file returns error", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader(" \n\n "))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Invalid encoding", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("name\n\xff\xfe\xfd"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("Fixed delimiter", func(t *testing.T) {
		csv := "name|barcode\nÇay|1"
		parser, err := NewCSVParser(strings.NewReader(csv), WithDelimiter('|'))

		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"name", "barcode"}, parser.Headers())
	})
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "Ürün;Fiyat;Stok\nÇay;2.065,42;1", ';'},
		{"tab", "a\tb\tc\n1\t2\t3", '\t'},
		{"quoted commas ignored", "\"a,b\";\"c,d\";e\n", ';'},
		{"single column defaults to comma", "name\nÇay", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffDelimiter([]byte(tt.sample)))
		})
	}
}

func TestParseHeader(t *testing.T) {
	t.Run("Header with spaces trimmed", func(t *testing.T) {
		csv := "  code  ,  name  ,  price  \n001,Widget,10.00"
		parser, _ := NewCSVParser(strings.NewReader(csv))

		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"code", "name", "price"}, parser.Headers())
	})

	t.Run("Blank and repeated headers are named", func(t *testing.T) {
		csv := "Fiyat,,Fiyat\n1,2,3"
		parser, _ := NewCSVParser(strings.NewReader(csv))

		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"Fiyat", "Sütun 2", "Fiyat (2)"}, parser.Headers())

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "3", row.Get("Fiyat (2)"))
	})
}

func TestReadRow(t *testing.T) {
	t.Run("Read single row", func(t *testing.T) {
		csv := "code;name;price\n001;Widget;2.065,42"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		require.NoError(t, parser.ParseHeader())

		row, err := parser.ReadRow()

		require.NoError(t, err)
		assert.Equal(t, 2, row.LineNumber)
		assert.Equal(t, "001", row.Get("code"))
		assert.Equal(t, "2.065,42", row.Get("price"))
	})

	t.Run("Row with missing columns", func(t *testing.T) {
		csv := "code,name,price\n001"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		require.NoError(t, parser.ParseHeader())

		row, err := parser.ReadRow()

		require.NoError(t, err)
		assert.Equal(t, "001", row.Get("code"))
		assert.Equal(t, "", row.Get("price"))
	})

	t.Run("EOF after last row", func(t *testing.T) {
		csv := "code\n1"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		require.NoError(t, parser.ParseHeader())

		_, err := parser.ReadRow()
		require.NoError(t, err)
		_, err = parser.ReadRow()
		assert.Equal(t, io.EOF, err)
	})
}

func TestParserOptions(t *testing.T) {
	t.Run("Strict quotes reject a bare quote", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("name,barcode\n12\" Pizza,1"), WithLazyQuotes(false))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		_, err = parser.ReadRow()
		assert.ErrorIs(t, err, ErrMalformedRow)
	})

	t.Run("Lazy quotes keep a bare quote", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("name,barcode\n12\" Pizza,1"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, `12" Pizza`, row.Get("name"))
	})

	t.Run("Current row counts the header", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("name,barcode\nÇay,1\nSu,2"), WithTrimSpace(false))
		require.NoError(t, err)
		assert.Zero(t, parser.CurrentRow())
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, 1, parser.CurrentRow())

		_, err = parser.ReadAllRows(0)
		require.NoError(t, err)
		assert.Equal(t, 3, parser.CurrentRow())
	})
}

func TestReadAllRows(t *testing.T) {
	csv := "name,barcode\nÇay,1\n,\nŞeker,2\nSu,3\n"

	t.Run("Skips blank rows", func(t *testing.T) {
		parser, _ := ParseFromBytes([]byte(csv))
		require.NoError(t, parser.ParseHeader())

		rows, err := parser.ReadAllRows(0)

		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Şeker", rows[1].Get("name"))
		assert.Equal(t, 4, rows[1].LineNumber)
	})

	t.Run("Limit", func(t *testing.T) {
		parser, _ := ParseFromBytes([]byte(csv))
		require.NoError(t, parser.ParseHeader())

		rows, err := parser.ReadAllRows(2)

		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}
