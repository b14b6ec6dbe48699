package handlers

import (
	"context"
	"net/http"
	"time"

	"depo-backend/internal/activity"
	"depo-backend/internal/logger"
	"depo-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const liveWriteWait = 10 * time.Second

// LiveSnapshot is one frame of the admin live feed.
type LiveSnapshot struct {
	Sessions []*models.ActiveSession `json:"sessions"`
	Stats    *models.LoginStats      `json:"stats"`
	At       time.Time               `json:"at"`
}

// LiveHandler pushes active sessions and login stats to admin dashboards over
// a websocket. Each connection owns its ticker; it stops when the client goes
// away or the server shuts down.
type LiveHandler struct {
	Tracker  *activity.Tracker
	Interval time.Duration
	log      *logrus.Entry
}

func NewLiveHandler(tracker *activity.Tracker, interval time.Duration) *LiveHandler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &LiveHandler{Tracker: tracker, Interval: interval, log: logger.WithComponent("LiveFeed")}
}

func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The feed is one way; reading only detects the close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	h.stream(ctx, conn)
}

func (h *LiveHandler) stream(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for {
		if err := h.push(ctx, conn); err != nil {
			h.log.WithError(err).Debug("live feed closed")
			return
		}
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(liveWriteWait))
			return
		case <-ticker.C:
		}
	}
}

func (h *LiveHandler) push(ctx context.Context, conn *websocket.Conn) error {
	snap, err := h.Snapshot(ctx)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteJSON(snap)
}

func (h *LiveHandler) Snapshot(ctx context.Context) (*LiveSnapshot, error) {
	sessions, stats, err := h.Tracker.Overview(ctx)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []*models.ActiveSession{}
	}
	return &LiveSnapshot{Sessions: sessions, Stats: stats, At: h.Tracker.Now()}, nil
}
