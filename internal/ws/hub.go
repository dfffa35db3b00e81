package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Topics clients can subscribe to. Each topic carries change events for one
// entity type, replacing dashboard polling.
const (
	TopicOrders   = "orders"
	TopicStock    = "stock"
	TopicTables   = "tables"
	TopicBills    = "bills"
	TopicProducts = "products"
)

// AllTopics is the default subscription for clients that don't narrow it.
var AllTopics = []string{TopicOrders, TopicStock, TopicTables, TopicBills, TopicProducts}

// ValidTopic reports whether name is a known topic.
func ValidTopic(name string) bool {
	for _, t := range AllTopics {
		if t == name {
			return true
		}
	}
	return false
}

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// topicEvent is an internal struct for routing events to one topic's subscribers
type topicEvent struct {
	Topic string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by topic
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *topicEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			for _, topic := range client.topics {
				if h.rooms[topic] == nil {
					h.rooms[topic] = make(map[*Client]bool)
				}
				h.rooms[topic][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.dropClient(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Topic]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			// Send to all subscribers of this topic
			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					h.dropClient(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// dropClient removes the client from every topic room it subscribed to and
// closes its send channel exactly once. Caller must hold h.mu.
func (h *Hub) dropClient(client *Client) {
	dropped := false
	for _, topic := range client.topics {
		clients, ok := h.rooms[topic]
		if !ok {
			continue
		}
		if _, exists := clients[client]; exists {
			delete(clients, client)
			dropped = true
			// Clean up empty rooms
			if len(clients) == 0 {
				delete(h.rooms, topic)
			}
		}
	}
	if dropped {
		close(client.send)
	}
}

// Broadcast sends an event to all clients subscribed to a topic
// This is the public API for handlers to broadcast events
func (h *Hub) Broadcast(topic string, event Event) {
	h.broadcast <- &topicEvent{
		Topic: topic,
		Event: event,
	}
}

// Notify marshals payload and broadcasts it on the topic. Marshal failures
// are logged and dropped; a bad event never blocks the request path.
func (h *Hub) Notify(topic, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	h.Broadcast(topic, Event{Type: eventType, Payload: data})
}
