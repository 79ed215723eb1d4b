package session

import (
	"time"

	"github.com/google/uuid"

	"market-sim/src/helpers"
	"market-sim/src/interfaces"
	"market-sim/src/logger"
	"market-sim/src/models"
	"market-sim/src/utils"
)

// Note written on the market state when the liveness monitor freezes it.
const lostControllerNote = "controller disconnected - market frozen"

// -----------------------------------------------------------------------------

// Manager owns the session lifecycle: a single controller claims the market,
// drives it through idle/active/paused, and must heartbeat to keep ownership.
type Manager struct {
	Store       interfaces.IMarketStore
	Logger      *logger.Logger
	History     *utils.HistoryCache
	Baselines   map[string]float64
	StalenessMs int64

	Now func() time.Time
}

// -----------------------------------------------------------------------------

func NewManager(store interfaces.IMarketStore, history *utils.HistoryCache, baselines map[string]float64, stalenessSeconds int, l *logger.Logger) *Manager {
	return &Manager{
		Store:       store,
		Logger:      l,
		History:     history,
		Baselines:   baselines,
		StalenessMs: int64(stalenessSeconds) * 1000,
		Now:         time.Now,
	}
}

// -----------------------------------------------------------------------------

// Claim creates a new session owned by userID. Fails while another controller
// holds an active session; a session abandoned by the liveness monitor is no
// longer active, so its market is claimable.
func (m *Manager) Claim(userID string) (*models.MSession, error) {
	if userID == "" {
		return nil, helpers.NewValidationError("controller id is required")
	}

	existing, err := m.Store.ActiveSession()
	if err != nil {
		return nil, helpers.NewStoreError("failed to look up active session", err)
	}
	if existing != nil {
		if existing.ControllerID != userID {
			return nil, helpers.NewValidationError("session already controlled by %s", existing.ControllerID)
		}
		// Same controller reclaiming: end the previous session so a single
		// active record remains.
		existing.Active = false
		existing.Status = models.SessionEnded
		if err := m.Store.SaveSession(*existing); err != nil {
			return nil, helpers.NewStoreError("failed to end previous session", err)
		}
	}

	nowMs := m.Now().UnixMilli()

	sess := models.MSession{
		ID:            uuid.New().String(),
		ControllerID:  userID,
		Active:        true,
		Status:        models.SessionIdle,
		StartTime:     nowMs,
		LastHeartbeat: nowMs,
	}
	if err := m.Store.SaveSession(sess); err != nil {
		return nil, helpers.NewStoreError("failed to save session", err)
	}

	if err := m.Store.SaveMarketState(m.baselineState(userID, models.SessionIdle, nowMs)); err != nil {
		return nil, helpers.NewStoreError("failed to save baseline market state", err)
	}
	m.clearHistory()

	m.Logger.Info("Session %s claimed by controller %s", sess.ID, userID)
	return &sess, nil
}

// -----------------------------------------------------------------------------

// Start moves the market to active. Only the controller may start, and only
// from idle or paused; starting from idle re-baselines prices.
func (m *Manager) Start(userID string) (*models.MMarketState, error) {
	sess, state, err := m.ownedState(userID)
	if err != nil {
		return nil, err
	}

	switch state.SessionStatus {
	case models.SessionIdle:
		nowMs := m.Now().UnixMilli()
		fresh := m.baselineState(userID, models.SessionActive, nowMs)
		if err := m.Store.SaveMarketState(fresh); err != nil {
			return nil, helpers.NewStoreError("failed to save market state", err)
		}
		m.Logger.Info("Market started by controller %s", userID)
		return &fresh, m.touchSession(sess, models.SessionActive)

	case models.SessionPaused:
		state.SessionStatus = models.SessionActive
		state.Note = ""
		state.LastUpdate = m.Now().UnixMilli()
		if err := m.Store.SaveMarketState(*state); err != nil {
			return nil, helpers.NewStoreError("failed to save market state", err)
		}
		m.Logger.Info("Market resumed by controller %s", userID)
		return state, m.touchSession(sess, models.SessionActive)
	}

	return nil, helpers.NewValidationError("cannot start market from status %q", state.SessionStatus)
}

// -----------------------------------------------------------------------------

// Pause freezes an active market in place. Prices, news decay and session
// ownership are untouched.
func (m *Manager) Pause(userID string) (*models.MMarketState, error) {
	sess, state, err := m.ownedState(userID)
	if err != nil {
		return nil, err
	}
	if state.SessionStatus != models.SessionActive {
		return nil, helpers.NewValidationError("cannot pause market from status %q", state.SessionStatus)
	}

	state.SessionStatus = models.SessionPaused
	state.LastUpdate = m.Now().UnixMilli()
	if err := m.Store.SaveMarketState(*state); err != nil {
		return nil, helpers.NewStoreError("failed to save market state", err)
	}

	m.Logger.Info("Market paused by controller %s", userID)
	return state, m.touchSession(sess, models.SessionPaused)
}

// -----------------------------------------------------------------------------

// Reset returns the market to baseline: prices re-seeded, all news archived,
// trades archived, the chart history cleared, the session ended and ownership
// released.
func (m *Manager) Reset(userID string) (*models.MMarketState, error) {
	sess, _, err := m.ownedState(userID)
	if err != nil {
		return nil, err
	}

	nowMs := m.Now().UnixMilli()

	if err := m.Store.ArchiveAllNews(); err != nil {
		return nil, helpers.NewStoreError("failed to archive news", err)
	}
	if _, err := m.Store.ArchiveTradesBefore(nowMs + 1); err != nil {
		return nil, helpers.NewStoreError("failed to archive trades", err)
	}

	fresh := m.baselineState("", models.SessionIdle, nowMs)
	if err := m.Store.SaveMarketState(fresh); err != nil {
		return nil, helpers.NewStoreError("failed to save market state", err)
	}
	m.clearHistory()

	sess.Active = false
	sess.Status = models.SessionEnded
	if err := m.Store.SaveSession(*sess); err != nil {
		return nil, helpers.NewStoreError("failed to save session", err)
	}

	m.Logger.Info("Market reset by controller %s, session %s ended", userID, sess.ID)
	return &fresh, nil
}

// -----------------------------------------------------------------------------

// Heartbeat refreshes the controller's liveness timestamp.
func (m *Manager) Heartbeat(userID string) error {
	sess, err := m.Store.ActiveSession()
	if err != nil {
		return helpers.NewStoreError("failed to look up active session", err)
	}
	if sess == nil || sess.ControllerID != userID {
		return helpers.NewValidationError("no active session for this controller")
	}

	sess.LastHeartbeat = m.Now().UnixMilli()
	if err := m.Store.SaveSession(*sess); err != nil {
		return helpers.NewStoreError("failed to save session", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// SweepStale freezes markets whose controller stopped heartbeating. The state
// is paused with a note rather than ended, so a returning operator can
// inspect or reclaim it. Returns the number of sessions deactivated.
func (m *Manager) SweepStale() int {
	cutoff := m.Now().UnixMilli() - m.StalenessMs

	stale, err := m.Store.StaleSessions(cutoff)
	if err != nil {
		m.Logger.Error("Liveness sweep failed: %v", err)
		return 0
	}

	swept := 0
	for _, sess := range stale {
		state, err := m.Store.GetMarketState(sess.ControllerID)
		if err != nil {
			m.Logger.Error("Liveness sweep: failed to load state for %s: %v", sess.ControllerID, err)
			continue
		}
		if state != nil {
			state.SessionStatus = models.SessionPaused
			state.Note = lostControllerNote
			state.LastUpdate = m.Now().UnixMilli()
			if err := m.Store.SaveMarketState(*state); err != nil {
				m.Logger.Error("Liveness sweep: failed to freeze state for %s: %v", sess.ControllerID, err)
				continue
			}
		}

		sess.Active = false
		sess.Status = models.SessionLostController
		if err := m.Store.SaveSession(sess); err != nil {
			m.Logger.Error("Liveness sweep: failed to deactivate session %s: %v", sess.ID, err)
			continue
		}

		m.Logger.Warning("Controller %s lost (no heartbeat), market frozen", sess.ControllerID)
		swept++
	}

	return swept
}

// -----------------------------------------------------------------------------

// clearHistory drops the in-memory chart window whenever prices are
// re-baselined, so broadcasts never blend a previous run into the fresh one.
func (m *Manager) clearHistory() {
	if m.History != nil {
		m.History.Reset()
	}
}

// -----------------------------------------------------------------------------

// ownedState loads the active session and its market state, verifying that
// userID is the controller.
func (m *Manager) ownedState(userID string) (*models.MSession, *models.MMarketState, error) {
	sess, err := m.Store.ActiveSession()
	if err != nil {
		return nil, nil, helpers.NewStoreError("failed to look up active session", err)
	}
	if sess == nil {
		return nil, nil, helpers.NewValidationError("no active session")
	}
	if sess.ControllerID != userID {
		return nil, nil, helpers.NewValidationError("not the session controller")
	}

	state, err := m.Store.GetMarketState(sess.ControllerID)
	if err != nil {
		return nil, nil, helpers.NewStoreError("failed to load market state", err)
	}
	if state == nil {
		return nil, nil, helpers.NewValidationError("no market state for this session")
	}

	return sess, state, nil
}

// -----------------------------------------------------------------------------

func (m *Manager) touchSession(sess *models.MSession, status string) error {
	sess.Status = status
	sess.LastHeartbeat = m.Now().UnixMilli()
	if err := m.Store.SaveSession(*sess); err != nil {
		return helpers.NewStoreError("failed to save session", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// baselineState builds a fresh market state with baseline prices and full
// optics.
func (m *Manager) baselineState(controllerID, status string, nowMs int64) models.MMarketState {
	prices := make(map[string]models.MStock, len(m.Baselines))
	for symbol, price := range m.Baselines {
		prices[symbol] = models.MStock{
			Symbol:        symbol,
			Price:         price,
			Change:        0,
			ChangePercent: 0,
			Sentiment:     0,
			Optics:        1.0,
		}
	}
	return models.MMarketState{
		Prices:        prices,
		Time:          nowMs,
		SessionStatus: status,
		ControllerID:  controllerID,
		LastUpdate:    nowMs,
	}
}
