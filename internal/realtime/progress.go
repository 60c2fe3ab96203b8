// Package realtime streams live monitoring progress over WebSocket.
package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/career-mentor/backend/internal/monitor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// progressFrame is one message on the feed.
type progressFrame struct {
	SessionID string              `json:"session_id"`
	Status    string              `json:"status"`
	Log       monitor.LogSnapshot `json:"session_log"`
	Error     string              `json:"error,omitempty"`
}

// Feed serves live run snapshots until the run reaches a terminal state.
type Feed struct {
	svc      *monitor.Service
	interval time.Duration
	log      *zap.Logger
}

// NewFeed returns a feed polling the monitor service once per interval.
func NewFeed(svc *monitor.Service, interval time.Duration, logger *zap.Logger) *Feed {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{svc: svc, interval: interval, log: logger}
}

// ServeWS handles GET /ws/monitor/:id: upgrades the connection and pushes
// one snapshot per interval, closing after the terminal snapshot.
func (f *Feed) ServeWS(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := f.svc.Status(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no monitoring run for session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain client frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		status, err := f.svc.Status(sessionID)
		if err != nil {
			return
		}
		frame := progressFrame{
			SessionID: sessionID,
			Status:    string(status.State),
			Log:       status.Log,
		}
		if status.Err != nil {
			frame.Error = status.Err.Error()
		}
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
		if status.State == monitor.StateCompleted || status.State == monitor.StateFailed {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}
