package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"market-sim/src/interfaces"
	"market-sim/src/logger"
	"market-sim/src/models"
)

// -----------------------------------------------------------------------------

// APIServer is wired into main through the exchanger interface.
var _ interfaces.IDataExchanger = (*APIServer)(nil)

// -----------------------------------------------------------------------------

func newTestServer() *APIServer {
	cfg := &models.MConfig{
		Name:     "test",
		Host:     "127.0.0.1",
		Port:     8080,
		LogLevel: "ERROR",
	}
	return NewAPIServer(cfg, nil, nil, nil, nil, logger.NewLogger("ERROR", "test"))
}

// -----------------------------------------------------------------------------

// TestHealthDuringClientChurn hammers the health endpoint while the Hub loop
// registers and unregisters clients. Run with -race: the clients map is shared
// between the Hub goroutine and request handlers and must stay behind the
// mutex.
func TestHealthDuringClientChurn(t *testing.T) {
	s := newTestServer()
	go s.handleWebsockets()

	const iterations = 300

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			client := &Client{hub: s, send: make(chan *models.MLatestData, 4)}
			s.register <- client
			s.unregister <- client
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			s.engine.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("health returned %d", w.Code)
				return
			}
		}
	}()

	wg.Wait()
}

// -----------------------------------------------------------------------------

// TestBroadcastDuringClientChurn drives the broadcast path of the Hub loop
// alongside registrations, again for the race detector.
func TestBroadcastDuringClientChurn(t *testing.T) {
	s := newTestServer()
	go s.handleWebsockets()

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			client := &Client{hub: s, send: make(chan *models.MLatestData, 4)}
			s.register <- client
			s.unregister <- client
		}
	}()

	for i := 0; i < 100; i++ {
		s.Broadcast(&models.MLatestData{Timestamp: int64(i)})
	}

	wg.Wait()
}
