package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim/src/logger"
	"market-sim/src/models"
	"market-sim/src/utils"
)

// -----------------------------------------------------------------------------
// In-memory store
// -----------------------------------------------------------------------------

type memStore struct {
	sessions map[string]models.MSession
	state    *models.MMarketState
	news     []models.MNewsItem
	trades   []models.MTrade
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]models.MSession)}
}

func (m *memStore) Initialize() error { return nil }

func (m *memStore) ActiveSession() (*models.MSession, error) {
	for _, sess := range m.sessions {
		if sess.Active {
			cp := sess
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveSession(sess models.MSession) error {
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memStore) StaleSessions(cutoff int64) ([]models.MSession, error) {
	var stale []models.MSession
	for _, sess := range m.sessions {
		if sess.Active && sess.LastHeartbeat < cutoff {
			stale = append(stale, sess)
		}
	}
	return stale, nil
}

func (m *memStore) GetMarketState(controllerID string) (*models.MMarketState, error) {
	if m.state == nil {
		return nil, nil
	}
	if controllerID != "" && m.state.ControllerID != controllerID {
		return nil, nil
	}
	cp := *m.state
	return &cp, nil
}

func (m *memStore) SaveMarketState(st models.MMarketState) error {
	m.state = &st
	return nil
}

func (m *memStore) ActiveNews() ([]models.MNewsItem, error) { return nil, nil }
func (m *memStore) InsertNews(item models.MNewsItem) error {
	m.news = append(m.news, item)
	return nil
}
func (m *memStore) UpdateNewsDecay(string, float64, bool) error { return nil }

func (m *memStore) ArchiveAllNews() error {
	for i := range m.news {
		m.news[i].Archived = true
		m.news[i].Decay = 0
	}
	return nil
}

func (m *memStore) AllNews() ([]models.MNewsItem, error) { return m.news, nil }

func (m *memStore) AppendPriceHistory([]models.MPricePoint) error  { return nil }
func (m *memStore) DeletePriceHistoryBefore(int64) (int64, error)  { return 0, nil }

func (m *memStore) InsertTrade(trade models.MTrade) error {
	m.trades = append(m.trades, trade)
	return nil
}

func (m *memStore) Trades() ([]models.MTrade, error) { return m.trades, nil }

func (m *memStore) ArchiveTradesBefore(cutoff int64) (int64, error) {
	var n int64
	for i := range m.trades {
		if !m.trades[i].Archived && m.trades[i].Timestamp < cutoff {
			m.trades[i].Archived = true
			n++
		}
	}
	return n, nil
}

func (m *memStore) Close() error { return nil }

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

var testBaselines = map[string]float64{"TECH": 100, "ENERGY": 80, "FINANCE": 120}

func newTestManager(store *memStore) *Manager {
	history := utils.NewHistoryCache(utils.HistoryWindowPoints)
	m := NewManager(store, history, testBaselines, 300, logger.NewLogger("ERROR", "test"))
	m.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return m
}

// seedHistory puts chart points in the in-memory cache as a running tick
// engine would.
func seedHistory(m *Manager) {
	m.History.Add(models.MPricePoint{Symbol: "TECH", Timestamp: 1699999998000, Price: 101})
	m.History.Add(models.MPricePoint{Symbol: "TECH", Timestamp: 1699999999000, Price: 102})
	m.History.Add(models.MPricePoint{Symbol: "ENERGY", Timestamp: 1699999999000, Price: 81})
}

func historyPoints(m *Manager) int {
	total := 0
	for _, points := range m.History.Recent(utils.HistoryWindowPoints) {
		total += len(points)
	}
	return total
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestClaimCreatesIdleBaseline(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	sess, err := m.Claim("alice")
	require.NoError(t, err)
	require.NotNil(t, sess)

	assert.Equal(t, "alice", sess.ControllerID)
	assert.True(t, sess.Active)
	assert.Equal(t, models.SessionIdle, sess.Status)

	require.NotNil(t, store.state)
	assert.Equal(t, models.SessionIdle, store.state.SessionStatus)
	assert.Equal(t, "alice", store.state.ControllerID)
	assert.Len(t, store.state.Prices, 3)
	assert.Equal(t, 100.0, store.state.Prices["TECH"].Price)
	assert.Equal(t, 1.0, store.state.Prices["TECH"].Optics)
}

func TestClaimExclusive(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	_, err := m.Claim("alice")
	require.NoError(t, err)

	_, err = m.Claim("bob")
	assert.Error(t, err, "second controller must not steal an active session")
}

func TestClaimSameControllerEndsPrevious(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	first, err := m.Claim("alice")
	require.NoError(t, err)

	second, err := m.Claim("alice")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	active, err := store.ActiveSession()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, models.SessionEnded, store.sessions[first.ID].Status)
}

func TestClaimRejectsEmptyController(t *testing.T) {
	m := newTestManager(newMemStore())
	_, err := m.Claim("")
	assert.Error(t, err)
}

func TestStartFromIdleRebaselines(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	_, err := m.Claim("alice")
	require.NoError(t, err)

	// Drift the stored price to prove the start re-baselines.
	store.state.Prices["TECH"] = models.MStock{Symbol: "TECH", Price: 250, Optics: 0.2}

	state, err := m.Start("alice")
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, state.SessionStatus)
	assert.Equal(t, 100.0, state.Prices["TECH"].Price)
	assert.Equal(t, 1.0, state.Prices["TECH"].Optics)
}

func TestResumeFromPauseKeepsPrices(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	_, err := m.Claim("alice")
	require.NoError(t, err)
	_, err = m.Start("alice")
	require.NoError(t, err)

	// Simulate some drift, then pause.
	store.state.Prices["TECH"] = models.MStock{Symbol: "TECH", Price: 117.5, Optics: 0.8}
	_, err = m.Pause("alice")
	require.NoError(t, err)
	assert.Equal(t, models.SessionPaused, store.state.SessionStatus)

	state, err := m.Start("alice")
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, state.SessionStatus)
	assert.Equal(t, 117.5, state.Prices["TECH"].Price, "resume must keep paused prices")
}

func TestPauseRequiresActiveMarket(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	_, err := m.Claim("alice")
	require.NoError(t, err)

	_, err = m.Pause("alice")
	assert.Error(t, err, "cannot pause an idle market")
}

func TestTransitionsRequireController(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	_, err := m.Claim("alice")
	require.NoError(t, err)

	_, err = m.Start("bob")
	assert.Error(t, err)
	_, err = m.Pause("bob")
	assert.Error(t, err)
	_, err = m.Reset("bob")
	assert.Error(t, err)
	assert.Error(t, m.Heartbeat("bob"))
}

func TestResetArchivesAndReleases(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	sess, err := m.Claim("alice")
	require.NoError(t, err)
	_, err = m.Start("alice")
	require.NoError(t, err)

	store.news = []models.MNewsItem{{ID: "n1", Decay: 0.8}}
	store.trades = []models.MTrade{{ID: "t1", Timestamp: 1699999999000}}

	state, err := m.Reset("alice")
	require.NoError(t, err)

	assert.Equal(t, models.SessionIdle, state.SessionStatus)
	assert.Empty(t, state.ControllerID, "reset releases ownership")
	assert.Equal(t, 100.0, state.Prices["TECH"].Price)

	assert.True(t, store.news[0].Archived)
	assert.True(t, store.trades[0].Archived)

	ended := store.sessions[sess.ID]
	assert.False(t, ended.Active)
	assert.Equal(t, models.SessionEnded, ended.Status)
}

func TestResetClearsChartHistory(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	_, err := m.Claim("alice")
	require.NoError(t, err)
	_, err = m.Start("alice")
	require.NoError(t, err)

	seedHistory(m)
	require.NotZero(t, historyPoints(m))

	_, err = m.Reset("alice")
	require.NoError(t, err)

	assert.Zero(t, historyPoints(m), "broadcasts after reset must not carry the previous run's chart")
}

func TestClaimClearsChartHistory(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	_, err := m.Claim("alice")
	require.NoError(t, err)
	_, err = m.Start("alice")
	require.NoError(t, err)
	seedHistory(m)

	// Abandon the session, then let a new controller take over.
	m.Now = func() time.Time { return time.UnixMilli(1700000000000 + 301*1000) }
	require.Equal(t, 1, m.SweepStale())

	_, err = m.Claim("bob")
	require.NoError(t, err)

	assert.Zero(t, historyPoints(m), "a fresh claim starts with an empty chart")
}

func TestHeartbeatRefreshesLiveness(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	sess, err := m.Claim("alice")
	require.NoError(t, err)

	m.Now = func() time.Time { return time.UnixMilli(1700000060000) }
	require.NoError(t, m.Heartbeat("alice"))

	assert.Equal(t, int64(1700000060000), store.sessions[sess.ID].LastHeartbeat)
}

func TestSweepStaleFreezesMarket(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	sess, err := m.Claim("alice")
	require.NoError(t, err)
	_, err = m.Start("alice")
	require.NoError(t, err)

	// Jump past the staleness window without a heartbeat.
	m.Now = func() time.Time { return time.UnixMilli(1700000000000 + 301*1000) }

	swept := m.SweepStale()
	assert.Equal(t, 1, swept)

	assert.Equal(t, models.SessionPaused, store.state.SessionStatus)
	assert.NotEmpty(t, store.state.Note)

	lost := store.sessions[sess.ID]
	assert.False(t, lost.Active)
	assert.Equal(t, models.SessionLostController, lost.Status)

	// The abandoned market is claimable again.
	_, err = m.Claim("bob")
	assert.NoError(t, err)
}

func TestSweepStaleSparesFreshSessions(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	_, err := m.Claim("alice")
	require.NoError(t, err)
	_, err = m.Start("alice")
	require.NoError(t, err)

	m.Now = func() time.Time { return time.UnixMilli(1700000000000 + 60*1000) }

	assert.Equal(t, 0, m.SweepStale())
	assert.Equal(t, models.SessionActive, store.state.SessionStatus)
}
