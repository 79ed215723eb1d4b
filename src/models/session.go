package models

// MSession is the controller-ownership record. At most one session is active
// at a time; its controller holds exclusive write access to the market state
// for as long as its heartbeat stays fresh.
type MSession struct {
	ID            string `json:"id"`
	ControllerID  string `json:"controller_id"`
	Active        bool   `json:"active"`
	Status        string `json:"status"` // idle | active | paused | ended | lost_controller
	StartTime     int64  `json:"start_time"`     // unix ms
	LastHeartbeat int64  `json:"last_heartbeat"` // unix ms
}
