package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/maestro/internal/store"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type streamMessage struct {
	Type string `json:"type"`
	Listing
	Error string `json:"error,omitempty"`
}

func (a *API) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{CheckOrigin: a.checkOrigin}
}

// checkOrigin accepts requests without an Origin header (non-browser clients), any origin
// when none is configured, and otherwise only the configured origin.
func (a *API) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || a.origin == "" || a.origin == "*" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Scheme+"://"+u.Host == a.origin
}

// handleStream pushes a snapshot of the caller's playlists on connect and after every change.
// Only the newest pending snapshot is kept for a slow reader.
func (a *API) handleStream(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())

	conn, err := a.upgrader().Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	latest := make(chan streamMessage, 1)
	unsubscribe, err := a.store.Subscribe(ctx, session, func(snap store.Snapshot) {
		msg := streamMessage{Type: "snapshot", Listing: newListing(snap.Playlists)}
		if snap.Err != nil {
			msg = streamMessage{Type: "error", Listing: newListing(nil), Error: "Failed to load your mixtapes."}
		}
		select {
		case <-latest:
		default:
		}
		latest <- msg
	})
	if err != nil {
		a.logger.Error("subscribe failed", "user", session.UserID, "error", err)
		return
	}
	defer unsubscribe()

	go a.readPump(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	a.logger.Debug("stream opened", "user", session.UserID)
	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("stream closed", "user", session.UserID)
			return
		case msg := <-latest:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and cancels the stream once the client goes away.
func (a *API) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
