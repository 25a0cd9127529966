package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"building_automation/internal/logger"
	"building_automation/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

// bridgeMessage is the envelope on the device bridge channel, both directions.
// Inbound: {type:"status"} device transitions and {type:"lock"} lock updates.
// Outbound: {type:"command"} switch commands from the rule executor.
type bridgeMessage struct {
	Type     string `json:"type"`
	DeviceID string `json:"device_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Locked   *bool  `json:"locked,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Error    string `json:"error,omitempty"`
}

const (
	msgTypeStatus  = "status"
	msgTypeLock    = "lock"
	msgTypeCommand = "command"
	msgTypeError   = "error"
)

// ErrNoBridge is returned when a switch command has no connected bridge to go to.
var ErrNoBridge = errors.New("no device bridge connected")

// bridgeConn serializes writes to one websocket connection.
type bridgeConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (b *bridgeConn) writeJSON(v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return b.conn.WriteJSON(v)
}

func (b *bridgeConn) ping() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return b.conn.WriteMessage(websocket.PingMessage, nil)
}

// BridgeHub tracks connected hardware bridges and broadcasts switch commands
// to them. It is the executor's CommandSink in production.
type BridgeHub struct {
	mu    sync.Mutex
	conns map[*bridgeConn]struct{}
	log   *logger.Logger
}

func NewBridgeHub(log *logger.Logger) *BridgeHub {
	return &BridgeHub{
		conns: make(map[*bridgeConn]struct{}),
		log:   log,
	}
}

// Switch broadcasts a switch command to every connected bridge. With no bridge
// connected the command is dropped with ErrNoBridge; the executor will fire
// again at the next matching minute.
func (hub *BridgeHub) Switch(_ context.Context, deviceID string, status models.DeviceStatus) error {
	msg := bridgeMessage{Type: msgTypeCommand, DeviceID: deviceID, Status: string(status)}

	hub.mu.Lock()
	conns := make([]*bridgeConn, 0, len(hub.conns))
	for c := range hub.conns {
		conns = append(conns, c)
	}
	hub.mu.Unlock()

	if len(conns) == 0 {
		return ErrNoBridge
	}
	for _, c := range conns {
		if err := c.writeJSON(msg); err != nil && hub.log != nil {
			hub.log.Errorw("bridge_command_write_failed", "err", err, "device_id", deviceID)
		}
	}
	return nil
}

func (hub *BridgeHub) add(c *bridgeConn) {
	hub.mu.Lock()
	hub.conns[c] = struct{}{}
	hub.mu.Unlock()
}

func (hub *BridgeHub) remove(c *bridgeConn) {
	hub.mu.Lock()
	delete(hub.conns, c)
	hub.mu.Unlock()
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	bc := &bridgeConn{conn: conn}
	h.hub.add(bc)
	defer func() {
		h.hub.remove(bc)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine ingests bridge messages and detects disconnects.
	done := make(chan struct{})
	go h.readBridge(c.Request.Context(), bc, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			if err := bc.ping(); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		}
	}
}

// readBridge drains inbound messages: device ON/OFF transitions feed the usage
// event log, lock updates mirror the building-wide lock flag.
func (h *Handler) readBridge(ctx context.Context, bc *bridgeConn, done chan<- struct{}) {
	defer close(done)
	for {
		_, raw, err := bc.conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		var msg bridgeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = bc.writeJSON(bridgeMessage{Type: msgTypeError, Error: "invalid message: " + err.Error()})
			continue
		}
		h.handleBridgeMessage(ctx, bc, msg)
	}
}

func (h *Handler) handleBridgeMessage(ctx context.Context, bc *bridgeConn, msg bridgeMessage) {
	switch msg.Type {
	case msgTypeStatus:
		if _, err := h.services.UsageLog.Record(ctx, msg.DeviceID, models.DeviceStatus(msg.Status)); err != nil {
			if h.log != nil {
				h.log.Errorw("bridge_status_record_failed", "err", err, "device_id", msg.DeviceID)
			}
			_ = bc.writeJSON(bridgeMessage{Type: msgTypeError, DeviceID: msg.DeviceID, Error: err.Error()})
		}
	case msgTypeLock:
		if msg.Locked == nil {
			_ = bc.writeJSON(bridgeMessage{Type: msgTypeError, DeviceID: msg.DeviceID, Error: "lock message requires 'locked'"})
			return
		}
		if err := h.services.DeviceLocks.SetLock(ctx, msg.DeviceID, *msg.Locked, msg.Mode); err != nil {
			if h.log != nil {
				h.log.Errorw("bridge_lock_update_failed", "err", err, "device_id", msg.DeviceID)
			}
			_ = bc.writeJSON(bridgeMessage{Type: msgTypeError, DeviceID: msg.DeviceID, Error: err.Error()})
		}
	default:
		_ = bc.writeJSON(bridgeMessage{Type: msgTypeError, Error: "unknown message type: " + msg.Type})
	}
}
