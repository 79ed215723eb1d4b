package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"market-sim/src/models"
	"market-sim/src/utils"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. The clients map is also read by the
// health endpoint, so every access goes through stateMutex.
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			latest := s.latestState
			s.stateMutex.Unlock()

			// Send initial state on connect. The send channel is buffered
			// and the client is brand new, so this never blocks the Hub.
			if latest != nil {
				client.send <- latest
			}

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case message := <-s.broadcast:
			// Update state and broadcast
			s.stateMutex.Lock()
			s.latestState = message

			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to keep the Hub from
					// blocking behind a dead consumer
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.stateMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a snapshot for every connected client.
func (s *APIServer) Broadcast(data *models.MLatestData) {
	data.Type = "UPDATE"
	s.broadcast <- data
}

// -----------------------------------------------------------------------------

// UpdateLatest replaces the cached snapshot without broadcasting.
func (s *APIServer) UpdateLatest(data *models.MLatestData) {
	s.stateMutex.Lock()
	s.latestState = data
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------

// PublishLatest reads the current market through the store, attaches active
// news and the recent history window, and broadcasts the snapshot.
func (s *APIServer) PublishLatest() {
	state, err := s.Store.GetMarketState("")
	if err != nil {
		s.Logger.Error("Failed to load state for broadcast: %v", err)
		return
	}

	news, err := s.Store.ActiveNews()
	if err != nil {
		s.Logger.Error("Failed to load news for broadcast: %v", err)
		return
	}

	var history map[string][]models.MPricePoint
	if s.History != nil {
		history = s.History.Recent(utils.HistoryWindowPoints)
	}

	s.Broadcast(&models.MLatestData{
		State:     state,
		News:      news,
		History:   history,
		Timestamp: time.Now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MLatestData, 256),
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	s.stateMutex.RLock()
	response := s.filteredResponse(cmd.Symbols)
	s.stateMutex.RUnlock()

	select {
	case client.send <- response:
	default:
		// Client buffer full; the Hub loop prunes slow consumers on the
		// next broadcast.
	}
}

// -----------------------------------------------------------------------------
// Response Filtering
// -----------------------------------------------------------------------------

// filteredResponse narrows the cached snapshot to the requested symbols.
// Caller holds stateMutex.
func (s *APIServer) filteredResponse(symbols []string) *models.MLatestData {
	if len(symbols) == 0 {
		return s.latestState
	}

	wanted := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		wanted[sym] = struct{}{}
	}

	response := &models.MLatestData{
		Type:      "INITIAL",
		News:      s.latestState.News,
		Timestamp: s.latestState.Timestamp,
	}

	if s.latestState.State != nil {
		filtered := *s.latestState.State
		filtered.Prices = make(map[string]models.MStock)
		for sym, stock := range s.latestState.State.Prices {
			if _, ok := wanted[sym]; ok {
				filtered.Prices[sym] = stock
			}
		}
		response.State = &filtered
	}

	response.History = make(map[string][]models.MPricePoint)
	for sym, points := range s.latestState.History {
		if _, ok := wanted[sym]; ok {
			response.History[sym] = points
		}
	}

	return response
}
