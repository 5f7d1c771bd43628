package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/infrastructure/persistence"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// sseMessageBufferSize lets messages queue without blocking the publishing writer
const sseMessageBufferSize = 100

// StockSubscriber is the subscription side of the catalog store
type StockSubscriber interface {
	OnStockChange(fn persistence.StockChangeFunc) *persistence.Subscription
	OffStockChange(sub *persistence.Subscription)
}

type sseClient struct {
	id   string
	ch   chan SSEMessage
	done chan struct{}
}

// StockStreamHandler pushes committed stock changes to connected UI windows over SSE
type StockStreamHandler struct {
	BaseHandler
	store      StockSubscriber
	logger     *zap.Logger
	clients    sync.Map // map[string]*sseClient
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	maxClients int

	startMu sync.Mutex
	sub     *persistence.Subscription
}

// StockStreamOption configures a StockStreamHandler
type StockStreamOption func(*StockStreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) StockStreamOption {
	return func(h *StockStreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) StockStreamOption {
	return func(h *StockStreamHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithStreamMaxClients caps concurrent connections; 0 means no cap
func WithStreamMaxClients(n int) StockStreamOption {
	return func(h *StockStreamHandler) {
		h.maxClients = n
	}
}

// NewStockStreamHandler creates the stream handler; call Start before serving
func NewStockStreamHandler(store StockSubscriber, opts ...StockStreamOption) *StockStreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &StockStreamHandler{
		store:      store,
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  15 * time.Second,
		maxClients: 64,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start subscribes to the store and begins heartbeats
func (h *StockStreamHandler) Start() error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.sub != nil {
		return errors.New("stock stream already started")
	}
	h.sub = h.store.OnStockChange(h.handleStockChange)
	go h.sendHeartbeats()
	h.logger.Info("Stock stream started")
	return nil
}

// Stop unsubscribes and disconnects every client
func (h *StockStreamHandler) Stop() {
	h.startMu.Lock()
	sub := h.sub
	h.sub = nil
	h.startMu.Unlock()

	h.cancel()
	if sub != nil {
		h.store.OffStockChange(sub)
	}
	h.logger.Info("Stock stream stopped")
}

// handleStockChange runs on the writer goroutine, so it never blocks on a client
func (h *StockStreamHandler) handleStockChange(_ context.Context, evt *catalog.StockChangedEvent) {
	msg, err := newSSEMessage("stock_changed", evt.EventID().String(), evt)
	if err != nil {
		h.logger.Error("Failed to marshal stock event", zap.Error(err))
		return
	}
	h.broadcast(msg)
}

func (h *StockStreamHandler) broadcast(msg SSEMessage) {
	h.clients.Range(func(_, value any) bool {
		client := value.(*sseClient)
		select {
		case <-client.done:
		case client.ch <- msg:
		default:
			h.logger.Warn("Stream client too slow, dropping message",
				zap.String("client_id", client.id),
				zap.String("event", msg.Event))
		}
		return true
	})
}

func (h *StockStreamHandler) sendHeartbeats() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
		}
	}
}

// Stream godoc
// @Summary      Subscribe to stock changes
// @Description  Server-Sent Events stream with one stock_changed event per committed adjustment
// @Tags         products
// @Produce      text/event-stream
// @Success      200 {string} string "SSE stream"
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stream/stock [get]
func (h *StockStreamHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.ClientCount() >= h.maxClients {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Maximum number of stream connections reached")
		return
	}

	setSSEHeaders(c)

	client := &sseClient{
		id:   uuid.NewString(),
		ch:   make(chan SSEMessage, sseMessageBufferSize),
		done: make(chan struct{}),
	}
	h.clients.Store(client.id, client)
	defer func() {
		close(client.done)
		h.clients.Delete(client.id)
	}()

	h.logger.Debug("Stream client connected", zap.String("client_id", client.id))

	writeSSE(c, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":%q,"timestamp":%d}`, client.id, time.Now().Unix()),
	})

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Debug("Stream client disconnected", zap.String("client_id", client.id))
			return
		case <-h.ctx.Done():
			return
		case msg := <-client.ch:
			writeSSE(c, msg)
		}
	}
}

// ClientCount returns the number of connected stream clients
func (h *StockStreamHandler) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// RegisterRoutes registers the stream route
func (h *StockStreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stream/stock", h.Stream)
}
