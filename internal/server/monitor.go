package server

import (
	"context"
	"encoding/json"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Monitor is a read-only observation surface: it serves the embedded
// status page and streams one JSON event per bridge cycle to connected
// WebSocket clients. Nothing it does feeds back into the query path.
type Monitor struct {
	addr  string
	webFS fs.FS

	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex

	upgrader websocket.Upgrader
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Event is one bridge cycle observation pushed to monitor clients. Dir is
// "query", "reply", or "timeout"; Stamp is unix milliseconds.
type Event struct {
	Dir   string `json:"dir"`
	Data  string `json:"data"`
	Stamp int64  `json:"stamp"`
}

// NewMonitor creates a monitor serving the given embedded web assets.
func NewMonitor(addr string, webFS fs.FS) *Monitor {
	return &Monitor{
		addr:    addr,
		webFS:   webFS,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves the monitor HTTP endpoint until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(m.webFS)))
	mux.HandleFunc("/ws", m.handleWS)

	srv := &http.Server{Addr: m.addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Printf("[monitor] listening on %s", m.addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[monitor] upgrade error: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	m.clientsMu.Lock()
	m.clients[client] = struct{}{}
	total := len(m.clients)
	m.clientsMu.Unlock()

	log.Printf("[monitor] client connected (%d total)", total)

	// Writer goroutine
	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader goroutine (keep-alive; drops the client on error)
	go func() {
		defer func() {
			m.clientsMu.Lock()
			delete(m.clients, client)
			remaining := len(m.clients)
			m.clientsMu.Unlock()
			close(client.send)
			log.Printf("[monitor] client disconnected (%d total)", remaining)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// Publish broadcasts an event to all connected clients. Slow clients are
// skipped rather than blocking the gateway loop. Safe on a nil monitor.
func (m *Monitor) Publish(ev Event) {
	if m == nil {
		return
	}
	ev.Stamp = time.Now().UnixMilli()
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()

	for client := range m.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}
