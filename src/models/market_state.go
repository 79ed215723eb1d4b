package models

// Session status values shared by MMarketState and MSession.
const (
	SessionIdle   = "idle"
	SessionActive = "active"
	SessionPaused = "paused"
	SessionEnded  = "ended"

	// Set on the session record when the liveness monitor deactivates it.
	SessionLostController = "lost_controller"
)

// -----------------------------------------------------------------------------

// MMarketState is the singleton state of one market session. The tick engine
// is its only writer while the session is active.
type MMarketState struct {
	Prices        map[string]MStock `json:"prices"`
	Time          int64             `json:"time"`        // unix ms of last tick
	SessionStatus string            `json:"session_status"`
	ControllerID  string            `json:"controller_id"`
	LastUpdate    int64             `json:"last_update"` // unix ms
	Note          string            `json:"note,omitempty"`
}
