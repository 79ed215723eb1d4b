package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"market-sim/src/logger"
	"market-sim/src/models"
)

// -----------------------------------------------------------------------------

type SQLiteStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteStore, error) {
	return &SQLiteStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables is idempotent: sessions, trades and news must survive process
// restarts so an experiment is never lost to a crash.
func (d *SQLiteStore) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			controller_id TEXT,
			active INTEGER,
			status TEXT,
			start_time INTEGER,
			last_heartbeat INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS market_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			controller_id TEXT,
			time INTEGER,
			session_status TEXT,
			last_update INTEGER,
			note TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS market_stocks (
			symbol TEXT PRIMARY KEY,
			price REAL,
			change REAL,
			change_percent REAL,
			sentiment REAL,
			optics REAL
		);`,
		`CREATE TABLE IF NOT EXISTS news (
			id TEXT PRIMARY KEY,
			headline TEXT,
			description TEXT,
			source TEXT,
			sentiment REAL,
			optics REAL,
			target TEXT,
			timestamp INTEGER,
			decay REAL,
			archived INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS price_history (
			symbol TEXT,
			timestamp INTEGER,
			price REAL,
			sentiment REAL,
			PRIMARY KEY (symbol, timestamp)
		);`,
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			symbol TEXT,
			quantity REAL,
			price REAL,
			type TEXT,
			timestamp INTEGER,
			sentiment REAL,
			news_context TEXT,
			archived INTEGER
		);`,
	}

	for _, query := range queries {
		if _, err := d.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------
// Sessions
// -----------------------------------------------------------------------------

func (d *SQLiteStore) ActiveSession() (*models.MSession, error) {
	row := d.DB.QueryRow(`
		SELECT id, controller_id, active, status, start_time, last_heartbeat
		FROM sessions WHERE active = 1
		ORDER BY start_time DESC LIMIT 1
	`)

	var sess models.MSession
	err := row.Scan(&sess.ID, &sess.ControllerID, &sess.Active, &sess.Status, &sess.StartTime, &sess.LastHeartbeat)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) SaveSession(sess models.MSession) error {
	_, err := d.DB.Exec(`
		INSERT INTO sessions (id, controller_id, active, status, start_time, last_heartbeat)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			controller_id = excluded.controller_id,
			active = excluded.active,
			status = excluded.status,
			start_time = excluded.start_time,
			last_heartbeat = excluded.last_heartbeat
	`, sess.ID, sess.ControllerID, sess.Active, sess.Status, sess.StartTime, sess.LastHeartbeat)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) StaleSessions(cutoff int64) ([]models.MSession, error) {
	rows, err := d.DB.Query(`
		SELECT id, controller_id, active, status, start_time, last_heartbeat
		FROM sessions WHERE active = 1 AND last_heartbeat < ?
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.MSession
	for rows.Next() {
		var sess models.MSession
		if err := rows.Scan(&sess.ID, &sess.ControllerID, &sess.Active, &sess.Status, &sess.StartTime, &sess.LastHeartbeat); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// -----------------------------------------------------------------------------
// Market state
// -----------------------------------------------------------------------------

func (d *SQLiteStore) GetMarketState(controllerID string) (*models.MMarketState, error) {
	row := d.DB.QueryRow(`
		SELECT controller_id, time, session_status, last_update, note
		FROM market_state WHERE id = 1
	`)

	var st models.MMarketState
	err := row.Scan(&st.ControllerID, &st.Time, &st.SessionStatus, &st.LastUpdate, &st.Note)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if controllerID != "" && st.ControllerID != controllerID {
		return nil, nil
	}

	rows, err := d.DB.Query(`SELECT symbol, price, change, change_percent, sentiment, optics FROM market_stocks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	st.Prices = make(map[string]models.MStock)
	for rows.Next() {
		var stock models.MStock
		if err := rows.Scan(&stock.Symbol, &stock.Price, &stock.Change, &stock.ChangePercent, &stock.Sentiment, &stock.Optics); err != nil {
			return nil, err
		}
		st.Prices[stock.Symbol] = stock
	}
	return &st, rows.Err()
}

// -----------------------------------------------------------------------------

// SaveMarketState replaces the singleton state and stock rows in one
// transaction so readers never see half a tick.
func (d *SQLiteStore) SaveMarketState(st models.MMarketState) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO market_state (id, controller_id, time, session_status, last_update, note)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			controller_id = excluded.controller_id,
			time = excluded.time,
			session_status = excluded.session_status,
			last_update = excluded.last_update,
			note = excluded.note
	`, st.ControllerID, st.Time, st.SessionStatus, st.LastUpdate, st.Note)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM market_stocks`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO market_stocks (symbol, price, change, change_percent, sentiment, optics)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, stock := range st.Prices {
		if _, err := stmt.Exec(stock.Symbol, stock.Price, stock.Change, stock.ChangePercent, stock.Sentiment, stock.Optics); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------
// News
// -----------------------------------------------------------------------------

func (d *SQLiteStore) ActiveNews() ([]models.MNewsItem, error) {
	return d.queryNews(`
		SELECT id, headline, description, source, sentiment, optics, target, timestamp, decay, archived
		FROM news WHERE archived = 0 AND decay > 0
		ORDER BY timestamp DESC
	`)
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) AllNews() ([]models.MNewsItem, error) {
	return d.queryNews(`
		SELECT id, headline, description, source, sentiment, optics, target, timestamp, decay, archived
		FROM news ORDER BY timestamp DESC
	`)
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) queryNews(query string) ([]models.MNewsItem, error) {
	rows, err := d.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MNewsItem
	for rows.Next() {
		var item models.MNewsItem
		if err := rows.Scan(&item.ID, &item.Headline, &item.Description, &item.Source,
			&item.Sentiment, &item.Optics, &item.Target, &item.Timestamp, &item.Decay, &item.Archived); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) InsertNews(item models.MNewsItem) error {
	_, err := d.DB.Exec(`
		INSERT INTO news (id, headline, description, source, sentiment, optics, target, timestamp, decay, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Headline, item.Description, item.Source, item.Sentiment, item.Optics,
		item.Target, item.Timestamp, item.Decay, item.Archived)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) UpdateNewsDecay(id string, decay float64, archived bool) error {
	_, err := d.DB.Exec(`UPDATE news SET decay = ?, archived = ? WHERE id = ?`, decay, archived, id)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) ArchiveAllNews() error {
	_, err := d.DB.Exec(`UPDATE news SET decay = 0, archived = 1 WHERE archived = 0`)
	return err
}

// -----------------------------------------------------------------------------
// Price history
// -----------------------------------------------------------------------------

func (d *SQLiteStore) AppendPriceHistory(points []models.MPricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO price_history (symbol, timestamp, price, sentiment)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(p.Symbol, p.Timestamp, p.Price, p.Sentiment); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) DeletePriceHistoryBefore(cutoff int64) (int64, error) {
	res, err := d.DB.Exec(`DELETE FROM price_history WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// -----------------------------------------------------------------------------
// Trades
// -----------------------------------------------------------------------------

func (d *SQLiteStore) InsertTrade(trade models.MTrade) error {
	newsContext, err := json.Marshal(trade.NewsContext)
	if err != nil {
		return err
	}

	_, err = d.DB.Exec(`
		INSERT INTO trades (id, user_id, symbol, quantity, price, type, timestamp, sentiment, news_context, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.ID, trade.UserID, trade.Symbol, trade.Quantity, trade.Price, trade.Type,
		trade.Timestamp, trade.Sentiment, string(newsContext), trade.Archived)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Trades() ([]models.MTrade, error) {
	rows, err := d.DB.Query(`
		SELECT id, user_id, symbol, quantity, price, type, timestamp, sentiment, news_context, archived
		FROM trades WHERE archived = 0
		ORDER BY timestamp ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []models.MTrade
	for rows.Next() {
		var trade models.MTrade
		var newsContext string
		if err := rows.Scan(&trade.ID, &trade.UserID, &trade.Symbol, &trade.Quantity, &trade.Price,
			&trade.Type, &trade.Timestamp, &trade.Sentiment, &newsContext, &trade.Archived); err != nil {
			return nil, err
		}
		if newsContext != "" && newsContext != "null" {
			if err := json.Unmarshal([]byte(newsContext), &trade.NewsContext); err != nil {
				d.Logger.Warning("Malformed news context on trade %s: %v", trade.ID, err)
			}
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) ArchiveTradesBefore(cutoff int64) (int64, error) {
	res, err := d.DB.Exec(`UPDATE trades SET archived = 1 WHERE archived = 0 AND timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
