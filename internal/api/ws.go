package api

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/unveil/mediaquiz/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 16
)

// watcher is one websocket connection following a session.
type watcher struct {
	send chan domain.SessionSnapshot
	once sync.Once
}

func (w *watcher) close() {
	w.once.Do(func() { close(w.send) })
}

// hub fans session snapshots out to the websocket watchers of each session.
type hub struct {
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]map[*watcher]struct{}
}

func newHub(origins []string) *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				o := r.Header.Get("Origin")
				return len(origins) == 0 || o == "" || slices.Contains(origins, o)
			},
		},
		sessions: make(map[string]map[*watcher]struct{}),
	}
}

func (h *hub) add(sessionID string) *watcher {
	w := &watcher{send: make(chan domain.SessionSnapshot, sendBufferSize)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*watcher]struct{})
	}
	h.sessions[sessionID][w] = struct{}{}
	return w
}

func (h *hub) remove(sessionID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ws, ok := h.sessions[sessionID]; ok {
		delete(ws, w)
		if len(ws) == 0 {
			delete(h.sessions, sessionID)
		}
	}
	w.close()
}

// broadcast never blocks. A watcher with a full buffer misses the snapshot and
// catches up with the next one.
func (h *hub) broadcast(snap domain.SessionSnapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for w := range h.sessions[snap.SessionID] {
		select {
		case w.send <- snap:
		default:
			slog.Warn("api: websocket watcher is slow, snapshot dropped",
				"session_id", snap.SessionID,
				"version", snap.Version,
			)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ws := range h.sessions {
		for w := range ws {
			w.close()
		}
		delete(h.sessions, id)
	}
}

// watchSession streams the snapshots of a session over a websocket, oldest first.
// The event bus delivers asynchronously, so snapshots older than one already
// sent are skipped.
func (a *API) watchSession(c *gin.Context) {
	id := c.Param("id")
	s, err := a.quiz.Get(id)
	if err != nil {
		renderError(c, err)
		return
	}

	conn, err := a.hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "api: websocket upgrade failed", "session_id", id, "error", err)
		return
	}

	w := a.hub.add(id)
	defer a.hub.remove(id, w)

	go readPump(conn, func() { a.hub.remove(id, w) })
	writePump(conn, s.Snapshot(), w.send)
}

// readPump discards client messages and keeps the read deadline fresh.
// It calls done once the connection is gone.
func readPump(conn *websocket.Conn, done func()) {
	defer done()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, first domain.SessionSnapshot, send <-chan domain.SessionSnapshot) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	write := func(snap domain.SessionSnapshot) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(snap)
	}

	if err := write(first); err != nil {
		return
	}
	last := first.Version

	for {
		select {
		case snap, ok := <-send:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if snap.Version <= last {
				continue
			}
			if err := write(snap); err != nil {
				return
			}
			last = snap.Version

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
