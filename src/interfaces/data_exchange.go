package interfaces

import "market-sim/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defines the interface for sharing state with external
// listeners (server/push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a snapshot to all connected listeners.
	Broadcast(payload *models.MLatestData)

	// -----------------------------------------------------------------------------
	// UpdateLatest replaces the cached snapshot without broadcasting.
	UpdateLatest(payload *models.MLatestData)

	// -----------------------------------------------------------------------------
	// PublishLatest assembles a fresh snapshot from the store and broadcasts it.
	PublishLatest()

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
