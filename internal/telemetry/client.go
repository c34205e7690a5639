package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/okieraised/fatigue-agent/internal/common"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/log"
	"github.com/pkg/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

type MessageHandler func(msg common.TelemetryMessage)

type Client struct {
	ID      uuid.UUID
	Conn    *websocket.Conn
	send    chan common.TelemetryMessage
	onMsgFn MessageHandler
	hub     *Hub
	writeMu sync.Mutex
	closed  chan struct{}
}

// NewClient creates a new websocket client attached to the hub.
func NewClient(id uuid.UUID, conn *websocket.Conn, hub *Hub) *Client {

	c := &Client{
		ID:     id,
		Conn:   conn,
		send:   make(chan common.TelemetryMessage, 16),
		hub:    hub,
		closed: make(chan struct{}),
	}

	go c.pingLoop()

	return c
}

func (c *Client) SetMessageHandler(fn MessageHandler) {
	c.onMsgFn = fn
}

func (c *Client) Send(msg common.TelemetryMessage) {
	select {
	case c.send <- msg:
	default:
		log.Default().Info(fmt.Sprintf("client %s's send buffer is full, dropping message", c.ID))
	}
}

// Read pumps inbound messages. Telemetry viewers are listen-mostly; inbound
// messages are validated and handed to the handler when one is set,
// otherwise ignored.
func (c *Client) Read() {
	defer func() {
		c.hub.unregister <- c
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	err := c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	if err != nil {
		wErr := errors.Wrap(err, "failed to set read deadline")
		log.Default().Info(wErr.Error())
	}
	c.Conn.SetPongHandler(func(string) error {
		err = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		if err != nil {
			wErr := errors.Wrap(err, "failed to set read deadline")
			log.Default().Info(wErr.Error())
		}
		return nil
	})

	for {
		var msg common.TelemetryMessage
		err = c.Conn.ReadJSON(&msg)
		if err != nil {
			wErr := errors.Wrap(err, "failed to read message")
			log.Default().Info(wErr.Error())
			break
		}

		if vErr := msg.Validate(); vErr != nil {
			log.Default().Debug(fmt.Sprintf("Discarding invalid inbound message from client [%s]: %v", c.ID, vErr))
			continue
		}

		if c.onMsgFn != nil {
			c.onMsgFn(msg)
		}
	}
}

func (c *Client) Write() {

	for {
		select {
		case message, ok := <-c.send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Default().Info(errors.Wrap(err, "failed to set write deadline").Error())
			}

			if !ok {
				// Channel closed -> send close frame
				if err := c.safeWrite(websocket.CloseMessage, []byte{}); err != nil {
					log.Default().Info(errors.Wrap(err, "failed to send close message").Error())
				}
				return
			}

			if err := c.WriteJSON(message); err != nil {
				log.Default().Info(errors.Wrap(err, "failed to send message").Error())
				return
			}
		}
	}
}

func (c *Client) safeWrite(msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(msgType, data)
}

func (c *Client) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteJSON(v)
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case <-ticker.C:
			if err := c.safeWrite(websocket.PingMessage, nil); err != nil {
				log.Default().Error(errors.Wrap(err, fmt.Sprintf("client [%s] ping error", c.ID.String())).Error())
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *Client) Close() {
	select {
	case <-c.closed:
		return
	default:
		close(c.closed)
		close(c.send)
		_ = c.Conn.Close()
	}
}
