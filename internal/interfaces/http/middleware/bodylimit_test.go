package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func bodyLimitRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.Use(BodyLimit(limit))
	router.POST("/imports", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusBadRequest, "body too large")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		limit         int64
		body          string
		contentLength int64
		wantStatus    int
	}{
		{"within limit", 1024, "small body", 10, http.StatusOK},
		{"declared length over limit", 100, strings.Repeat("x", 200), 200, http.StatusRequestEntityTooLarge},
		{"streamed body over limit", 50, strings.Repeat("x", 100), -1, http.StatusBadRequest},
		{"zero disables the limit", 0, strings.Repeat("x", 4096), 4096, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()

			bodyLimitRouter(tt.limit).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusRequestEntityTooLarge {
				assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
			}
		})
	}
}
