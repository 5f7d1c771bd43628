package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	importapp "github.com/kasapos/backend/internal/application/import"
	"github.com/kasapos/backend/internal/domain/bulk"
	"github.com/kasapos/backend/internal/domain/shared"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
	"github.com/kasapos/backend/internal/interfaces/http/middleware"
)

// ImportService opens and tracks import sessions
type ImportService interface {
	Open(ctx context.Context, fileName string, data []byte) (*importapp.Coordinator, *importapp.HeaderPreview, error)
	OpenTyped(ctx context.Context, fileName string, fileType csvimport.FileType, data []byte) (*importapp.Coordinator, *importapp.HeaderPreview, error)
	Get(id uuid.UUID) (*importapp.Coordinator, error)
	Discard(id uuid.UUID)
	History(ctx context.Context, limit int) ([]bulk.ImportHistory, error)
}

// ImportHandler handles the bulk product import endpoints
type ImportHandler struct {
	BaseHandler
	svc ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(svc ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// Upload godoc
// @Summary      Upload a product file
// @Description  Opens an import session, returning the header row, a short preview and a suggested column mapping
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV or XLSX file"
// @Param        file_type formData string false "csv or xlsx; detected from the file name when omitted"
// @Success      201 {object} dto.Response{data=importapp.HeaderPreview}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /imports [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	var form dto.ImportUploadForm
	if err := c.ShouldBind(&form); err != nil {
		h.BindingError(c, err)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.BindingError(c, fmt.Errorf("file: %w", err))
		return
	}
	f, err := header.Open()
	if err != nil {
		h.HandleError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.HandleError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	preview, err := h.open(c.Request.Context(), header.Filename, form.FileType, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, preview)
}

func (h *ImportHandler) open(ctx context.Context, fileName, fileType string, data []byte) (*importapp.HeaderPreview, error) {
	if fileType == "" {
		_, preview, err := h.svc.Open(ctx, fileName, data)
		return preview, err
	}
	ft, err := csvimport.ParseFileType(fileType)
	if err != nil {
		return nil, err
	}
	_, preview, err := h.svc.OpenTyped(ctx, fileName, ft, data)
	return preview, err
}

// Status godoc
// @Summary      Get import session status
// @Tags         imports
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.Response{data=dto.ImportStatusResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /imports/{id} [get]
func (h *ImportHandler) Status(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.Success(c, dto.ImportStatusResponse{Session: session.Snapshot(), Result: session.Result()})
}

// Rows godoc
// @Summary      Read every data row of the uploaded file
// @Tags         imports
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.Response{data=dto.ImportRowsResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /imports/{id}/rows [get]
func (h *ImportHandler) Rows(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	rows, err := session.ReadAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if rows == nil {
		rows = []csvimport.RawRow{}
	}
	h.Success(c, dto.ImportRowsResponse{SessionID: session.ID().String(), Rows: rows, Total: len(rows)})
}

// ConfirmMapping godoc
// @Summary      Confirm the column mapping
// @Description  Every required product field must be mapped to a column of the file
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body dto.ImportMappingRequest true "Mapping"
// @Success      200 {object} dto.Response{data=csvimport.SessionSnapshot}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /imports/{id}/mapping [post]
func (h *ImportHandler) ConfirmMapping(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.ImportMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	mapping := make(importapp.ColumnMapping, len(req.Mapping))
	for field, column := range req.Mapping {
		mapping[importapp.SystemField(field)] = column
	}
	opts := importapp.NormalizeOptions{SalePriceIncludesVat: req.SalePriceIncludesVat}
	if err := session.ConfirmMapping(mapping, opts); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session.Snapshot())
}

// Process godoc
// @Summary      Process every row of the file
// @Description  Normalizes and classifies the rows without writing to the catalog.
// @Description  With Accept: text/event-stream, progress, result and error are sent as events.
// @Tags         imports
// @Produce      json
// @Produce      text/event-stream
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.Response{data=importapp.ImportResult}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.ImportFailureResponse
// @Router       /imports/{id}/process [post]
func (h *ImportHandler) Process(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		h.processStream(c, session)
		return
	}

	result, err := session.ProcessAll(c.Request.Context(), nil)
	if err != nil {
		if errors.Is(err, shared.ErrNoImportableRows) && result != nil {
			status, code, message := h.describeError(c, err)
			c.JSON(status, dto.ImportFailureResponse{
				Error:  &dto.ErrorInfo{Code: code, Message: message, RequestID: middleware.GetRequestID(c)},
				Result: result,
			})
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// processStream runs ProcessAll on the request goroutine; progress callbacks
// arrive on the same goroutine, so they write to the response directly.
func (h *ImportHandler) processStream(c *gin.Context, session *importapp.Coordinator) {
	setSSEHeaders(c)
	c.Status(http.StatusOK)

	var last importapp.Progress
	sent := false
	result, err := session.ProcessAll(c.Request.Context(), func(p importapp.Progress) {
		if sent && p.Stage == last.Stage && int(p.Percent) == int(last.Percent) && p.Current != p.Total {
			return
		}
		last, sent = p, true
		if msg, err := newSSEMessage("progress", "", p); err == nil {
			writeSSE(c, msg)
		}
	})

	if err != nil {
		status, code, message := h.describeError(c, err)
		payload := gin.H{"status": status, "code": code, "message": message}
		if result != nil {
			payload["result"] = result
		}
		if msg, merr := newSSEMessage("error", "", payload); merr == nil {
			writeSSE(c, msg)
		}
		return
	}
	if msg, err := newSSEMessage("result", session.ID().String(), result); err == nil {
		writeSSE(c, msg)
	}
}

// Cancel godoc
// @Summary      Cancel an import
// @Description  Stops processing between rows; nothing is written to the catalog
// @Tags         imports
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      202 {object} dto.Response{data=csvimport.SessionSnapshot}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /imports/{id}/cancel [post]
func (h *ImportHandler) Cancel(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Cancel()
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(session.Snapshot()))
}

// Commit godoc
// @Summary      Write a processed import to the catalog
// @Description  Missing categories are created first. Rows rejected by the catalog are reported, not fatal.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body dto.ImportCommitRequest false "Options"
// @Success      200 {object} dto.Response{data=importapp.CommitReport}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /imports/{id}/commit [post]
func (h *ImportHandler) Commit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.ImportCommitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return
		}
	}
	report, err := session.Commit(c.Request.Context(), req.AllowPartial)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Discard godoc
// @Summary      Close an import session
// @Tags         imports
// @Param        id path string true "Session ID"
// @Success      204
// @Router       /imports/{id} [delete]
func (h *ImportHandler) Discard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import session ID")
		return
	}
	h.svc.Discard(id)
	h.NoContent(c)
}

// session resolves the :id parameter, writing the error response when it fails
func (h *ImportHandler) session(c *gin.Context) (*importapp.Coordinator, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import session ID")
		return nil, false
	}
	session, err := h.svc.Get(id)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return session, true
}

// History godoc
// @Summary      List finished imports
// @Description  Committed, failed and canceled imports, newest first
// @Tags         imports
// @Produce      json
// @Param        limit query int false "Maximum entries (default 50)"
// @Success      200 {object} dto.Response{data=[]bulk.ImportHistory}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /imports/history [get]
func (h *ImportHandler) History(c *gin.Context) {
	var query dto.ImportHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}
	entries, err := h.svc.History(c.Request.Context(), query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, entries, len(entries))
}

// RegisterRoutes registers the import routes
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/imports")
	imports.POST("", h.Upload)
	imports.GET("/history", h.History)
	imports.GET("/:id", h.Status)
	imports.DELETE("/:id", h.Discard)
	imports.GET("/:id/rows", h.Rows)
	imports.POST("/:id/mapping", h.ConfirmMapping)
	imports.POST("/:id/process", h.Process)
	imports.POST("/:id/cancel", h.Cancel)
	imports.POST("/:id/commit", h.Commit)
}
