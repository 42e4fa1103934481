package relay

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
	"github.com/ushuari/voice/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Observers only send control messages.
	maxMessageSize = 4 * 1024

	sendBuffer = 64
)

// ErrHubClosed is returned when an observer connects after the hub stopped.
var ErrHubClosed = errors.New("relay hub closed")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub fans room messages out to websocket observers of that room. It
// implements repositories.RoomPublisher so it can mirror the data channel.
type Hub struct {
	// Observers per room.
	rooms map[string]map[*Observer]struct{}

	register   chan *Observer
	unregister chan *Observer
	done       chan struct{}

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new relay hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Observer]struct{}),
		register:   make(chan *Observer),
		unregister: make(chan *Observer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns observer membership until ctx is cancelled. All observer send
// channels are closed on exit.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for room, observers := range h.rooms {
				for o := range observers {
					close(o.send)
					metrics.RelayObservers.Dec()
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			h.logger.Info("Relay hub stopped")
			return

		case o := <-h.register:
			h.mu.Lock()
			observers, ok := h.rooms[o.room]
			if !ok {
				observers = make(map[*Observer]struct{})
				h.rooms[o.room] = observers
			}
			observers[o] = struct{}{}
			h.mu.Unlock()
			metrics.RelayObservers.Inc()
			h.logger.Info("Observer registered", zap.String("room", o.room), zap.String("observer", o.id))

		case o := <-h.unregister:
			h.mu.Lock()
			if observers, ok := h.rooms[o.room]; ok {
				if _, ok := observers[o]; ok {
					delete(observers, o)
					close(o.send)
					metrics.RelayObservers.Dec()
				}
				if len(observers) == 0 {
					delete(h.rooms, o.room)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Observer unregistered", zap.String("room", o.room), zap.String("observer", o.id))
		}
	}
}

// Observers returns the number of observers subscribed to room.
func (h *Hub) Observers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publish implements repositories.RoomPublisher. Observers whose buffer is
// full are disconnected rather than allowed to stall the room.
func (h *Hub) Publish(ctx context.Context, room string, payload []byte, reliability repositories.Reliability) error {
	var slow []*Observer

	h.mu.RLock()
	for o := range h.rooms[room] {
		select {
		case o.send <- Frame{Type: websocket.TextMessage, Payload: payload}:
		default:
			slow = append(slow, o)
		}
	}
	h.mu.RUnlock()

	for _, o := range slow {
		h.logger.Warn("Dropping slow observer",
			zap.String("room", room),
			zap.String("observer", o.id),
			zap.Stringer("reliability", reliability))
		go h.remove(o)
	}
	return nil
}

func (h *Hub) add(o *Observer) error {
	select {
	case h.register <- o:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

func (h *Hub) remove(o *Observer) {
	select {
	case h.unregister <- o:
	case <-h.done:
	}
}

// Frame is one outbound websocket message.
type Frame struct {
	// Type is websocket.TextMessage or websocket.BinaryMessage.
	Type    int
	Payload []byte
}

// Observer is a middleman between one websocket connection and the hub.
type Observer struct {
	hub  *Hub
	conn *websocket.Conn
	room string
	id   string

	// Buffered channel of outbound messages. Closed by the hub only.
	send chan Frame

	logger *zap.Logger
}

// HandleObserver upgrades the request and subscribes the connection to room.
func HandleObserver(hub *Hub, c echo.Context, room string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	o := &Observer{
		hub:    hub,
		conn:   conn,
		room:   room,
		id:     uuid.NewString(),
		send:   make(chan Frame, sendBuffer),
		logger: logger,
	}

	// The subscription notice is queued before registration so it is always
	// the first frame the observer sees.
	o.send <- NewSubscribed(room).Frame()

	if err := hub.add(o); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay closed"),
			time.Now().Add(writeWait))
		conn.Close()
		return err
	}

	go o.writePump()
	go o.readPump()

	return nil
}

// readPump handles control messages until the connection closes.
func (o *Observer) readPump() {
	defer func() {
		o.hub.remove(o)
		o.conn.Close()
	}()

	o.conn.SetReadLimit(maxMessageSize)
	o.conn.SetReadDeadline(time.Now().Add(pongWait))
	o.conn.SetPongHandler(func(string) error {
		o.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := o.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				o.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		if messageType != websocket.TextMessage {
			o.logger.Warn("Received unknown message type", zap.Int("type", messageType))
			continue
		}
		o.processMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (o *Observer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		o.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-o.send:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				o.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := o.conn.WriteMessage(frame.Type, frame.Payload); err != nil {
				o.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (o *Observer) processMessage(message []byte) {
	msg, err := ParseControl(message)
	if err != nil {
		o.logger.Warn("Invalid control message", zap.String("room", o.room), zap.Error(err))
		o.reply(NewError("invalid_message", err.Error()))
		return
	}

	switch msg.Type {
	case ControlPing:
		o.reply(NewPong(msg.Data))
	default:
		o.reply(NewError("unsupported_message", string(msg.Type)))
	}
}

// reply queues a control frame. A send racing the hub's close is dropped.
func (o *Observer) reply(msg ControlMessage) {
	defer func() { recover() }()
	select {
	case o.send <- msg.Frame():
	default:
	}
}
