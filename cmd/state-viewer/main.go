// Command state-viewer serves a reconstructed game state over HTTP:
// the summary page at /, and live snapshot pushes over a websocket at
// /ws whenever the tracked snapshot file is rewritten.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AnotherSava/bga-tracker/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local viewer, any origin is fine
	},
}

// WSMessage is the envelope for websocket pushes.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client is one connected websocket viewer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients and fans out snapshot updates.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu       sync.RWMutex
	snapshot []byte // last pushed snapshot message
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.mu.RLock()
			if h.snapshot != nil {
				client.send <- h.snapshot
			}
			h.mu.RUnlock()
			log.Printf("Client registered: %s", client.conn.RemoteAddr())

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client unregistered: %s", client.conn.RemoteAddr())
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			h.snapshot = message
			h.mu.Unlock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// watchSnapshot polls the snapshot file and broadcasts it on change.
func (h *Hub) watchSnapshot(path string, interval time.Duration) {
	var lastMod time.Time
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.ModTime().After(lastMod) {
			continue
		}
		lastMod = info.ModTime()

		data, err := os.ReadFile(path)
		if err != nil || !json.Valid(data) {
			// Partial write; retry on the next tick.
			continue
		}
		message, err := json.Marshal(WSMessage{Type: "game_state", Data: data})
		if err != nil {
			log.Printf("Error marshaling snapshot message: %v", err)
			continue
		}
		h.broadcast <- message
		log.Printf("Snapshot updated: %s", path)
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	hub.register <- client

	go client.writePump()
	go client.readPump(hub)
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	addr := flag.String("addr", "", "listen address (overrides configuration)")
	tableDir := flag.String("table-dir", ".", "table data directory (game_state.json, summary.html)")
	interval := flag.Duration("poll", time.Second, "snapshot poll interval")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *addr == "" {
		*addr = cfg.Viewer.Address
	}

	statePath := filepath.Join(*tableDir, "game_state.json")
	summaryPath := filepath.Join(*tableDir, "summary.html")

	hub := newHub()
	go hub.run()
	go hub.watchSnapshot(statePath, *interval)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, summaryPath)
	})
	http.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, statePath)
	})
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r)
	})

	log.Printf("State viewer starting on %s (table dir %s)", *addr, *tableDir)

	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
