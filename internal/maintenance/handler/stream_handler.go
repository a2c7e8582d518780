package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/shared/sse"
)

// StreamHandler live domain events over server-sent events
type StreamHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

func NewStreamHandler(hub *sse.Hub) *StreamHandler {
	return &StreamHandler{hub: hub, heartbeat: 30 * time.Second}
}

// Stream GET /api/v1/events/stream
func (h *StreamHandler) Stream(c *gin.Context) {
	userID := actor(c).UserID
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())

	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Events: make(chan sse.Event, 64),
	}
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
