package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasapos/backend/internal/infrastructure/persistence"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
)

// StoreHealth reports the catalog store's reachability and index mode
type StoreHealth interface {
	Ping(ctx context.Context) error
	Capabilities() persistence.IndexCapabilities
	Degradations() []persistence.Degradation
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	store     StoreHealth
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, store StoreHealth) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		store:     store,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"kasapos"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// HealthResponse describes the catalog store
type HealthResponse struct {
	Status       string                        `json:"status" example:"ok"`
	Degraded     bool                          `json:"degraded"`
	Indexes      persistence.IndexCapabilities `json:"indexes"`
	Missing      []string                      `json:"missing_indexes"`
	Degradations []persistence.Degradation     `json:"degradations"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Health godoc
// @Summary      Check the catalog store
// @Description  Reports whether lookups use indexes or fall back to table scans
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /system/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Catalog store unavailable")
		return
	}

	caps := h.store.Capabilities()
	resp := HealthResponse{
		Status:       "ok",
		Degraded:     caps.Degraded(),
		Indexes:      caps,
		Missing:      caps.Missing(),
		Degradations: h.store.Degradations(),
	}
	if resp.Degraded {
		resp.Status = "degraded"
	}
	if resp.Missing == nil {
		resp.Missing = []string{}
	}
	if resp.Degradations == nil {
		resp.Degradations = []persistence.Degradation{}
	}
	h.Success(c, resp)
}

// RegisterRoutes registers the system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	system.GET("/info", h.GetSystemInfo)
	system.GET("/health", h.Health)
}
