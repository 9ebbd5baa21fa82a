package main

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The UI is served from the same host; other origins get no stream.
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	},
}

// eventsHandler streams session events to the UI over a WebSocket. Each
// connection gets its own subscription; because the notifier delivers
// synchronously on the game goroutine, events are handed off through a
// buffered channel and the slowest reader is dropped rather than allowed to
// stall the game.
func (app *App) eventsHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logWarn("WebSocket upgrade failed: %v", err)
		return
	}

	send := make(chan Event, wsSendBuffer)
	subID := app.Events.Subscribe(func(e Event) {
		select {
		case send <- e:
		default:
			logWarn("Dropping event %s for a slow websocket subscriber", e.Kind)
		}
	})

	logInfo("WebSocket subscriber connected: %s", c.ClientIP())

	// Reader goroutine: we never expect client messages, but reading is
	// required to notice the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		app.Events.Unsubscribe(subID)
		conn.Close()
		logInfo("WebSocket subscriber disconnected: %s", c.ClientIP())
	}()

	for {
		select {
		case e := <-send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
