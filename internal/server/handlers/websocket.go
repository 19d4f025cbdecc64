// internal/server/handlers/websocket.go

package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 1024, // clients never send payloads
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// streamClient bridges NATS event topics to one WebSocket connection.
type streamClient struct {
	conn      *websocket.Conn
	send      chan []byte
	natsSubs  []*nats.Subscription
	logger    *zap.Logger
	closeOnce sync.Once
}

// AlertStreamHandler upgrades the connection and forwards alert and
// snapshot events published on NATS to the client as JSON messages.
func AlertStreamHandler(natsConn *nats.Conn, topics []string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if natsConn == nil {
			respondWithError(w, http.StatusServiceUnavailable, "Event stream is not available")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("Failed to upgrade to WebSocket", zap.Error(err))
			return
		}

		client := &streamClient{
			conn:   conn,
			send:   make(chan []byte, 256),
			logger: logger,
		}

		go client.writePump()
		go client.readPump()

		if err := client.subscribe(natsConn, topics); err != nil {
			logger.Warn("Failed to subscribe to event topics", zap.Error(err))
			client.close()
			return
		}

		logger.Info("New alert stream connection", zap.String("remote", r.RemoteAddr))
	}
}

// subscribe attaches the client to each event topic.
func (c *streamClient) subscribe(natsConn *nats.Conn, topics []string) error {
	for _, topic := range topics {
		sub, err := natsConn.Subscribe(topic, func(msg *nats.Msg) {
			select {
			case c.send <- msg.Data:
			default:
				// Slow consumer; drop rather than block the NATS callback.
			}
		})
		if err != nil {
			return err
		}
		c.natsSubs = append(c.natsSubs, sub)
	}
	return nil
}

// readPump drains the connection so pongs and close frames are handled.
func (c *streamClient) readPump() {
	config := DefaultWebSocketConfig()

	defer c.close()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("WebSocket read error", zap.Error(err))
			}
			break
		}
	}
}

// writePump pumps events to the WebSocket connection.
func (c *streamClient) writePump() {
	config := DefaultWebSocketConfig()
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued events to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close tears down the NATS subscriptions and the connection.
func (c *streamClient) close() {
	c.closeOnce.Do(func() {
		for _, sub := range c.natsSubs {
			sub.Unsubscribe()
		}
		c.conn.Close()
		close(c.send)
	})
}
