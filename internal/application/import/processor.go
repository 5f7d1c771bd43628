package importapp

import (
	"context"
	"fmt"

	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
)

// ResultSummary counts the rows of one processing run
type ResultSummary struct {
	Total           int                  `json:"total"`
	Success         int                  `json:"success"`
	Skipped         int                  `json:"skipped"`
	Warned          int                  `json:"warned"`
	Errors          []csvimport.RowError `json:"errors"`
	TotalErrors     int                  `json:"total_errors"`
	ErrorsTruncated bool                 `json:"errors_truncated,omitempty"`
	ErrorCodes      map[string]int       `json:"error_codes,omitempty"`
}

// ProcessOutput is the RESULT payload: every importable row plus the summary
type ProcessOutput struct {
	Products []NormalizedRow `json:"products"`
	Summary  ResultSummary   `json:"summary"`
}

// Limits bound what a worker reads from one file
type Limits struct {
	PreviewRows int
	MaxRows     int
	MaxErrors   int
}

// handleRequest runs one request to completion, emitting progress and a final message.
// It touches no store and is the single implementation behind both the
// background worker and the synchronous fallback.
func handleRequest(ctx context.Context, req Request, limits Limits, emit func(Response)) {
	switch req.Kind {
	case RequestReadHeaders:
		table, err := csvimport.ReadTable(req.FileType, req.File, limits.PreviewRows)
		if err != nil {
			emit(errorResponse(err))
			return
		}
		emit(Response{Kind: ResponseHeaders, Headers: table.Headers, PreviewRows: table.RawRows()})

	case RequestReadAll:
		table, err := readAll(req, limits)
		if err != nil {
			emit(errorResponse(err))
			return
		}
		emit(Response{Kind: ResponseAllRows, Headers: table.Headers, Rows: table.RawRows()})

	case RequestProcessAll:
		emit(Response{Kind: ResponseProgress, Progress: &Progress{Stage: StageReading}})
		table, err := readAll(req, limits)
		if err != nil {
			emit(errorResponse(err))
			return
		}
		out, canceled := processRows(ctx, table.Rows, NewRowNormalizer(req.Mapping, req.Options), limits.MaxErrors, emit)
		if canceled {
			emit(Response{Kind: ResponseCanceled})
			return
		}
		emit(Response{Kind: ResponseResult, Result: out})

	case RequestCancel:
		emit(Response{Kind: ResponseCanceled})

	default:
		emit(errorResponse(fmt.Errorf("unknown import request %q", req.Kind)))
	}
}

func readAll(req Request, limits Limits) (*csvimport.Table, error) {
	table, err := csvimport.ReadTable(req.FileType, req.File, 0)
	if err != nil {
		return nil, err
	}
	if limits.MaxRows > 0 && len(table.Rows) > limits.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", csvimport.ErrTooManyRows, len(table.Rows), limits.MaxRows)
	}
	return table, nil
}

// processRows normalizes rows in order, checking ctx between rows.
// canceled is true when ctx ended before the last row.
func processRows(ctx context.Context, rows []*csvimport.Row, n *RowNormalizer, maxErrors int, emit func(Response)) (out *ProcessOutput, canceled bool) {
	errs := csvimport.NewErrorCollection(maxErrors)
	out = &ProcessOutput{Products: make([]NormalizedRow, 0, len(rows))}
	out.Summary.Total = len(rows)

	for i, row := range rows {
		if ctx.Err() != nil {
			return nil, true
		}
		result := n.Normalize(row.LineNumber, row.Data)
		if rowErr, failed := result.RowError(); failed {
			out.Summary.Skipped++
			errs.Add(rowErr)
		} else {
			out.Summary.Success++
			if result.Warning != "" {
				out.Summary.Warned++
			}
			out.Products = append(out.Products, result)
		}
		p := newProgress(StageNormalizing, i+1, len(rows))
		emit(Response{Kind: ResponseProgress, Progress: &p})
	}

	out.Summary.Errors = errs.Errors()
	out.Summary.TotalErrors = errs.TotalCount()
	out.Summary.ErrorsTruncated = errs.IsTruncated()
	out.Summary.ErrorCodes = errs.ByCode()
	return out, false
}
