package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim/src/logger"
	"market-sim/src/models"
)

// -----------------------------------------------------------------------------

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	cfg := &models.MConfig{
		Storage: models.MStorageConfig{
			DBType: "sqlite",
			DBPath: filepath.Join(t.TempDir(), "test.db"),
		},
	}

	store, err := NewSQLiteStore(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })

	return store
}

// -----------------------------------------------------------------------------

func TestInitializeIdempotent(t *testing.T) {
	store := newTestStore(t)
	// A restart re-runs the schema against existing tables.
	require.NoError(t, store.Initialize())
}

// -----------------------------------------------------------------------------

func TestSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)

	sess, err := store.ActiveSession()
	require.NoError(t, err)
	assert.Nil(t, sess)

	saved := models.MSession{
		ID: "s1", ControllerID: "alice", Active: true,
		Status: models.SessionIdle, StartTime: 1000, LastHeartbeat: 1000,
	}
	require.NoError(t, store.SaveSession(saved))

	sess, err = store.ActiveSession()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, saved, *sess)

	// Upsert: deactivating hides it from ActiveSession.
	saved.Active = false
	saved.Status = models.SessionEnded
	require.NoError(t, store.SaveSession(saved))

	sess, err = store.ActiveSession()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestStaleSessions(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveSession(models.MSession{
		ID: "fresh", ControllerID: "a", Active: true, Status: models.SessionActive, LastHeartbeat: 5000,
	}))
	require.NoError(t, store.SaveSession(models.MSession{
		ID: "stale", ControllerID: "b", Active: true, Status: models.SessionActive, LastHeartbeat: 1000,
	}))
	require.NoError(t, store.SaveSession(models.MSession{
		ID: "inactive", ControllerID: "c", Active: false, Status: models.SessionEnded, LastHeartbeat: 500,
	}))

	stale, err := store.StaleSessions(3000)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "stale", stale[0].ID)
}

// -----------------------------------------------------------------------------

func TestMarketStateRoundTrip(t *testing.T) {
	store := newTestStore(t)

	state, err := store.GetMarketState("")
	require.NoError(t, err)
	assert.Nil(t, state)

	saved := models.MMarketState{
		Prices: map[string]models.MStock{
			"TECH":   {Symbol: "TECH", Price: 101.5, Change: 1.5, ChangePercent: 1.5, Sentiment: 0.2, Optics: 0.95},
			"ENERGY": {Symbol: "ENERGY", Price: 79, Change: -1, ChangePercent: -1.25, Sentiment: -0.1, Optics: 0.9},
		},
		Time:          2000,
		SessionStatus: models.SessionActive,
		ControllerID:  "alice",
		LastUpdate:    2000,
	}
	require.NoError(t, store.SaveMarketState(saved))

	state, err = store.GetMarketState("alice")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, saved, *state)

	// Wrong controller sees nothing; the anonymous read sees the state.
	state, err = store.GetMarketState("bob")
	require.NoError(t, err)
	assert.Nil(t, state)

	state, err = store.GetMarketState("")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "alice", state.ControllerID)

	// A replacement state fully supersedes the stock rows.
	saved.Prices = map[string]models.MStock{
		"TECH": {Symbol: "TECH", Price: 99, Optics: 1},
	}
	require.NoError(t, store.SaveMarketState(saved))

	state, err = store.GetMarketState("alice")
	require.NoError(t, err)
	assert.Len(t, state.Prices, 1)
}

// -----------------------------------------------------------------------------

func TestNewsLifecycle(t *testing.T) {
	store := newTestStore(t)

	item := models.MNewsItem{
		ID: "n1", Headline: "Tech rally", Description: "d", Source: "breaking",
		Sentiment: 0.8, Optics: 1, Target: "TECH", Timestamp: 1000, Decay: 1,
	}
	require.NoError(t, store.InsertNews(item))
	require.NoError(t, store.InsertNews(models.MNewsItem{
		ID: "n2", Headline: "Old noise", Target: models.NewsTargetMarket, Timestamp: 500, Decay: 1,
	}))

	active, err := store.ActiveNews()
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "n1", active[0].ID, "most recent first")
	assert.Equal(t, item, active[0])

	// Decayed below the floor: archived, invisible to ActiveNews, kept in
	// AllNews.
	require.NoError(t, store.UpdateNewsDecay("n2", 0, true))

	active, err = store.ActiveNews()
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := store.AllNews()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.ArchiveAllNews())
	active, err = store.ActiveNews()
	require.NoError(t, err)
	assert.Empty(t, active)
}

// -----------------------------------------------------------------------------

func TestPriceHistoryRetention(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AppendPriceHistory([]models.MPricePoint{
		{Symbol: "TECH", Timestamp: 1000, Price: 100, Sentiment: 0},
		{Symbol: "TECH", Timestamp: 2000, Price: 101, Sentiment: 0.1},
		{Symbol: "ENERGY", Timestamp: 1000, Price: 80, Sentiment: 0},
	}))

	deleted, err := store.DeletePriceHistoryBefore(1500)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = store.DeletePriceHistoryBefore(1500)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

// -----------------------------------------------------------------------------

func TestTradeLifecycle(t *testing.T) {
	store := newTestStore(t)

	trade := models.MTrade{
		ID: "t1", UserID: "alice", Symbol: "TECH", Quantity: 10, Price: 100,
		Type: models.TradeBuy, Timestamp: 1000, Sentiment: 0.2,
		NewsContext: []string{"n1", "n2"},
	}
	require.NoError(t, store.InsertTrade(trade))
	require.NoError(t, store.InsertTrade(models.MTrade{
		ID: "t2", UserID: "bob", Symbol: "ENERGY", Quantity: 5, Price: 80,
		Type: models.TradeSell, Timestamp: 2000,
	}))

	trades, err := store.Trades()
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t1", trades[0].ID, "oldest first")
	assert.Equal(t, []string{"n1", "n2"}, trades[0].NewsContext)
	assert.Empty(t, trades[1].NewsContext)

	archived, err := store.ArchiveTradesBefore(1500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), archived)

	trades, err = store.Trades()
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "t2", trades[0].ID)
}
