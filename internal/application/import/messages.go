package importapp

import (
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
)

// RequestKind names a message sent to an import worker
type RequestKind string

const (
	RequestReadHeaders RequestKind = "READ_HEADERS"
	RequestReadAll     RequestKind = "READ_ALL"
	RequestProcessAll  RequestKind = "PROCESS_ALL"
	RequestCancel      RequestKind = "CANCEL"
)

// ResponseKind names a message sent back by an import worker
type ResponseKind string

const (
	ResponseHeaders  ResponseKind = "HEADERS"
	ResponseAllRows  ResponseKind = "ALL_ROWS"
	ResponseProgress ResponseKind = "PROGRESS"
	ResponseResult   ResponseKind = "RESULT"
	ResponseCanceled ResponseKind = "CANCELED"
	ResponseError    ResponseKind = "ERROR"
)

// Request is one unit of work for a worker
type Request struct {
	Kind     RequestKind        `json:"type"`
	FileType csvimport.FileType `json:"file_type,omitempty"`
	File     []byte             `json:"-"`
	Mapping  ColumnMapping      `json:"mapping,omitempty"`
	Options  NormalizeOptions   `json:"options"`
}

// Stage names the phase a progress message belongs to
type Stage string

const (
	StageReading     Stage = "reading"
	StageNormalizing Stage = "normalizing"
	StageClassifying Stage = "classifying"
)

// Progress reports row processing advancement
type Progress struct {
	Stage   Stage   `json:"stage"`
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

func newProgress(stage Stage, current, total int) Progress {
	p := Progress{Stage: stage, Current: current, Total: total}
	if total > 0 {
		p.Percent = float64(current) * 100 / float64(total)
	}
	return p
}

// Response is one message from a worker. Only the fields of its Kind are set.
type Response struct {
	Kind        ResponseKind       `json:"type"`
	Headers     []string           `json:"headers,omitempty"`
	PreviewRows []csvimport.RawRow `json:"preview_rows,omitempty"`
	Rows        []csvimport.RawRow `json:"rows,omitempty"`
	Progress    *Progress          `json:"progress,omitempty"`
	Result      *ProcessOutput     `json:"result,omitempty"`
	Message     string             `json:"message,omitempty"`

	err     error
	crashed bool
}

// Err returns the error carried by an ERROR response
func (r Response) Err() error {
	return r.err
}

func errorResponse(err error) Response {
	return Response{Kind: ResponseError, Message: err.Error(), err: err}
}
