package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

const (
	// sendBufferSize bounds per-client backlog. Clients that fall this far
	// behind are dropped rather than allowed to stall the hub.
	sendBufferSize = 64

	writeWait = 10 * time.Second

	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Event is the envelope every websocket message uses.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const EventTypeScanUpdate = "scan_update"

// ScanUpdate is the payload published after every scan status transition.
type ScanUpdate struct {
	ID           scanDomain.ScanID `json:"id"`
	Status       scanDomain.Status `json:"status"`
	Tool         scanDomain.Tool   `json:"tool"`
	Provider     string            `json:"provider"`
	Target       string            `json:"target,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	StartedAt    *time.Time        `json:"startedAt,omitempty"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
	Message      string            `json:"message,omitempty"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

type userMessage struct {
	userID string
	data   []byte
}

// Hub fans events out to the websocket connections of individual users.
// Every connection only ever sees events addressed to its own user.
type Hub struct {
	clients map[string]map[*client]struct{}

	register   chan *client
	unregister chan *client
	messages   chan userMessage

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		messages:   make(chan userMessage, 256),
		stopChan:   make(chan struct{}),
	}
}

func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return
	}
	h.running = true

	h.wg.Add(1)
	go h.run()
}

func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.stopChan)
	h.wg.Wait()
}

func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case c := <-h.register:
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*client]struct{})
			}
			h.clients[c.userID][c] = struct{}{}
			logger.Debug("websocket client registered for user %s", c.userID)

		case c := <-h.unregister:
			h.dropClient(c)

		case msg := <-h.messages:
			for c := range h.clients[msg.userID] {
				select {
				case c.send <- msg.data:
				default:
					// Slow client, cut it loose.
					logger.Warn("dropping slow websocket client for user %s", c.userID)
					h.dropClient(c)
				}
			}

		case <-h.stopChan:
			for _, userClients := range h.clients {
				for c := range userClients {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*client]struct{})
			return
		}
	}
}

func (h *Hub) dropClient(c *client) {
	userClients, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := userClients[c]; !ok {
		return
	}
	delete(userClients, c)
	if len(userClients) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// PublishScanUpdate sends a scan's current state to all of the owning
// user's connections. Publishing never blocks scan processing: if the hub
// backlog is full the event is dropped.
func (h *Hub) PublishScanUpdate(userID string, scan *scanDomain.Scan, message string) {
	update := ScanUpdate{
		ID:           scan.ID,
		Status:       scan.Status,
		Tool:         scan.Tool,
		Provider:     string(scan.Provider),
		Target:       scan.Target,
		ErrorMessage: scan.ErrorMessage,
		StartedAt:    scan.StartedAt,
		CompletedAt:  scan.CompletedAt,
		Message:      message,
	}

	data, err := json.Marshal(Event{Type: EventTypeScanUpdate, Payload: update})
	if err != nil {
		logger.Error("failed to marshal scan update for scan %d: %v", scan.ID, err)
		return
	}

	select {
	case h.messages <- userMessage{userID: userID, data: data}:
	case <-h.stopChan:
	default:
		logger.Warn("event hub backlog full, dropping scan update for scan %d", scan.ID)
	}
}

// Subscribe attaches a websocket connection to the user's event stream and
// blocks until the connection closes.
func (h *Hub) Subscribe(userID string, conn *websocket.Conn) {
	c := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- c:
	case <-h.stopChan:
		return
	}

	go c.writePump()
	c.readPump()

	select {
	case h.unregister <- c:
	case <-h.stopChan:
	}
}

// writePump pushes hub messages and periodic pings to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages and returns when the peer goes away.
func (c *client) readPump() {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
