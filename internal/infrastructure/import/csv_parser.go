package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// candidateDelimiters are tried, in order, when the delimiter is not fixed
var candidateDelimiters = []rune{',', ';', '\t'}

// CSVParser reads a UTF-8 CSV file with a header row
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	trimSpace  bool
	headers    []string
	currentRow int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter fixes the field delimiter instead of sniffing it
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// WithTrimSpace enables trimming of leading/trailing spaces from fields
func WithTrimSpace(trim bool) ParserOption {
	return func(p *CSVParser) {
		p.trimSpace = trim
	}
}

// NewCSVParser creates a parser, stripping a UTF-8 BOM and sniffing the delimiter
// from the header line unless one was given.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		lazyQuotes: true,
		trimSpace:  true,
	}
	for _, opt := range opts {
		opt(parser)
	}

	parser.bufReader = bufio.NewReaderSize(r, 64*1024)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	content, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		_, _ = parser.bufReader.Discard(3)
	}

	sample, err := peekSample(parser.bufReader)
	if err != nil {
		return nil, err
	}
	if parser.delimiter == 0 {
		parser.delimiter = sniffDelimiter(sample)
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = parser.lazyQuotes
	parser.reader.TrimLeadingSpace = parser.trimSpace
	parser.reader.FieldsPerRecord = -1

	return parser, nil
}

// peekSample returns the leading bytes, rejecting empty or non UTF-8 input
func peekSample(r *bufio.Reader) ([]byte, error) {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyFile
	}
	valid := content
	if len(content) == checkSize {
		// a multi-byte rune may be cut at the sample boundary
		for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(valid); i++ {
			valid = valid[:len(valid)-1]
		}
	}
	if !utf8.Valid(valid) {
		return nil, ErrInvalidEncoding
	}
	return content, nil
}

// sniffDelimiter picks the candidate occurring most often on the first line, outside quotes
func sniffDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}
	best := candidateDelimiters[0]
	for _, d := range candidateDelimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// Delimiter returns the delimiter in use
func (p *CSVParser) Delimiter() rune {
	return p.delimiter
}

// ParseHeader reads the header row. Blank header cells are named by
// position and repeated names get a numeric suffix so every column stays addressable.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	p.headers = normalizeHeaders(record)
	if len(p.headers) == 0 {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// ReadRow reads the next data row
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, p.currentRow, err)
	}
	return newRow(p.currentRow, p.headers, record, p.trimSpace), nil
}

// ReadAllRows reads every remaining row, skipping blank ones.
// limit > 0 stops after that many data rows.
func (p *CSVParser) ReadAllRows(limit int) ([]*Row, error) {
	var rows []*Row
	for limit <= 0 || len(rows) < limit {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CurrentRow returns the current line number (1-indexed, header included)
func (p *CSVParser) CurrentRow() int {
	return p.currentRow
}

// ParseFromBytes creates a parser from a byte slice
func ParseFromBytes(data []byte, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data), opts...)
}

func normalizeHeaders(record []string) []string {
	headers := make([]string, len(record))
	seen := make(map[string]int, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Sütun %d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		headers[i] = h
	}
	return headers
}
