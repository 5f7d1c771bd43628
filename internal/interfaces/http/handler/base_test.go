package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kasapos/backend/internal/domain/shared"
	"github.com/kasapos/backend/internal/infrastructure/config"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"github.com/kasapos/backend/internal/infrastructure/persistence"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
	"github.com/kasapos/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// routeRegistrar is implemented by every handler
type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

func newTestStore(t *testing.T, opts ...persistence.StoreOption) *persistence.CatalogStore {
	t.Helper()
	store, err := persistence.OpenCatalogStore(context.Background(),
		&config.DatabaseConfig{Path: ":memory:", AutoMigrate: true, LogLevel: "silent"}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestRouter(handlers ...routeRegistrar) *gin.Engine {
	middleware.SetupValidator()
	router := gin.New()
	router.Use(middleware.RequestID())
	api := router.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return router
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the envelope of a successful response into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out), string(raw.Data))
	}
	return raw.Response
}

// decodeError returns the error object of a failed response
func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "not found",
			err:        shared.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
			wantMsg:    "Kayıt bulunamadı",
		},
		{
			name:       "wrapped duplicate barcode",
			err:        fmt.Errorf("add product: %w", shared.ErrDuplicateBarcode),
			wantStatus: http.StatusConflict,
			wantCode:   dto.ErrCodeDuplicateBarcode,
			wantMsg:    "bu barkoda sahip ürün zaten mevcut",
		},
		{
			name:       "insufficient stock",
			err:        shared.ErrInsufficientStock,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeInsufficientStock,
		},
		{
			name:       "import file too large",
			err:        csvimport.ErrFileTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   csvimport.ErrCodeImportFileTooLarge,
		},
		{
			name:       "empty import file",
			err:        fmt.Errorf("read headers: %w", csvimport.ErrEmptyFile),
			wantStatus: http.StatusBadRequest,
			wantCode:   csvimport.ErrCodeImportEmptyFile,
		},
		{
			name:       "unknown error hides its message",
			err:        errors.New("disk I/O error"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
			wantMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			router := gin.New()
			router.Use(middleware.RequestID())
			router.GET("/", func(c *gin.Context) {
				h.HandleError(c, tt.err)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDKey, "req-err")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			errInfo := decodeError(t, w)
			assert.Equal(t, tt.wantCode, errInfo.Code)
			assert.Equal(t, "req-err", errInfo.RequestID)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errInfo.Message)
			}
		})
	}
}

func TestBaseHandler_BindingErrorTooLarge(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.Use(middleware.BodyLimit(16))
	router.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			h.BindingError(c, err)
			return
		}
		h.Success(c, body)
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"a very long product name"}`))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, decodeError(t, w).Code)
}

func TestParseID(t *testing.T) {
	tests := []struct {
		param  string
		wantID int64
		wantOK bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Params = gin.Params{{Key: "id", Value: tt.param}}

			id, ok := parseID(c, "id")

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
