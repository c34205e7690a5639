package telemetry

import (
	"context"
	"fmt"

	"github.com/okieraised/fatigue-agent/internal/common"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/log"
)

// Hub fans telemetry messages out to every connected websocket client.
// Registration, removal and broadcast all go through the hub goroutine, so
// the clients map needs no lock.
type Hub struct {
	clients    map[*Client]bool             // Registered clients.
	broadcast  chan common.TelemetryMessage // Outbound messages for the clients.
	register   chan *Client                 // Register requests from the clients.
	unregister chan *Client                 // Unregistered clients.
}

func (h *Hub) GetBroadcast() chan common.TelemetryMessage {
	return h.broadcast
}

func (h *Hub) GetRegister() chan *Client {
	return h.register
}

func (h *Hub) GetUnregister() chan *Client {
	return h.unregister
}

var telemetryHub *Hub

func GetHubInstance() *Hub {
	if telemetryHub == nil {
		panic("telemetry hub is not initialized")
	}
	return telemetryHub
}

func NewHub() *Hub {
	telemetryHub = &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan common.TelemetryMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	return telemetryHub
}

// Publish queues a message for broadcast without ever blocking the caller.
// When the broadcast buffer is full the message is dropped; live telemetry
// is best-effort and the pipeline must never stall on a slow viewer.
func (h *Hub) Publish(msg common.TelemetryMessage) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

func (h *Hub) Run(ctx context.Context) {
	log.Default().Info("Starting to listen for new telemetry clients and messages")
	go func() {
		for {
			select {
			case client := <-h.register:
				h.RegisterNewClient(client)
			case client := <-h.unregister:
				h.RemoveClient(client)
			case message := <-h.broadcast:
				h.HandleMessage(message)
			case <-ctx.Done():
				log.Default().Info("Shutting down telemetry websocket hub")
				return
			}
		}
	}()
}

func (h *Hub) RegisterNewClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		log.Default().Debug(fmt.Sprintf("Registering new client with id [%s]", client.ID.String()))
		h.clients[client] = true
	} else {
		log.Default().Debug(fmt.Sprintf("Client with id [%s] already registered", client.ID.String()))
	}
	log.Default().Debug(fmt.Sprintf("There are [%d] clients connected", len(h.clients)))
}

func (h *Hub) RemoveClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		log.Default().Debug(fmt.Sprintf("Client with id [%s] disconnected", client.ID.String()))
	}
}

func (h *Hub) HandleMessage(message common.TelemetryMessage) {
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}
