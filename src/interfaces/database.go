package interfaces

import "market-sim/src/models"

// -----------------------------------------------------------------------------
// IMarketStore defines the contract for the durable store behind the engine.
// -----------------------------------------------------------------------------

type IMarketStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------
	// Sessions

	// ActiveSession returns the single active session, or nil if none.
	ActiveSession() (*models.MSession, error)

	// SaveSession upserts a session record.
	SaveSession(sess models.MSession) error

	// StaleSessions returns active sessions whose last heartbeat is older
	// than the cutoff (unix ms).
	StaleSessions(cutoff int64) ([]models.MSession, error)

	// -----------------------------------------------------------------------------
	// Market state

	// GetMarketState returns the state owned by a controller, or nil. An
	// empty controllerID returns the current state regardless of owner.
	GetMarketState(controllerID string) (*models.MMarketState, error)

	// SaveMarketState replaces the full state in a single transaction so
	// readers never observe a partially updated price map.
	SaveMarketState(st models.MMarketState) error

	// -----------------------------------------------------------------------------
	// News

	// ActiveNews returns non-archived items with decay > 0, most recent first.
	ActiveNews() ([]models.MNewsItem, error)

	// InsertNews stores a freshly injected item (decay = 1).
	InsertNews(item models.MNewsItem) error

	// UpdateNewsDecay writes a recomputed decay factor and archive flag.
	UpdateNewsDecay(id string, decay float64, archived bool) error

	// ArchiveAllNews pins every item to decay 0 (session reset).
	ArchiveAllNews() error

	// AllNews returns every item, most recent first, for export.
	AllNews() ([]models.MNewsItem, error)

	// -----------------------------------------------------------------------------
	// Price history

	// AppendPriceHistory inserts a batch of history rows.
	AppendPriceHistory(points []models.MPricePoint) error

	// DeletePriceHistoryBefore removes rows older than the cutoff (unix ms).
	DeletePriceHistoryBefore(cutoff int64) (int64, error)

	// -----------------------------------------------------------------------------
	// Trades

	// InsertTrade stores a submitted trade (write-once).
	InsertTrade(trade models.MTrade) error

	// Trades returns non-archived trades, oldest first, for export.
	Trades() ([]models.MTrade, error)

	// ArchiveTradesBefore soft-deletes trades older than the cutoff (unix ms).
	ArchiveTradesBefore(cutoff int64) (int64, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
