package handler

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

// SSEMessage represents a message to be sent to SSE clients
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// newSSEMessage marshals payload as the data line of an event
func newSSEMessage(event, id string, payload any) (SSEMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return SSEMessage{}, fmt.Errorf("marshal %s event: %w", event, err)
	}
	return SSEMessage{Event: event, ID: id, Data: string(data)}, nil
}

func setSSEHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
}

// writeSSE writes one event and flushes it to the client
func writeSSE(c *gin.Context, msg SSEMessage) {
	sendEvent(c.Writer, msg)
	c.Writer.Flush()
}

func sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}
