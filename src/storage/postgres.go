package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"

	"market-sim/src/logger"
	"market-sim/src/models"
)

// -----------------------------------------------------------------------------

type PostgresStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	// Derive the schema name from the executable so several simulators can
	// share one database.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresStore{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) table(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
}

// -----------------------------------------------------------------------------

// createTables is idempotent so sessions, trades and news survive restarts.
func (d *PostgresStore) createTables() error {
	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			controller_id TEXT,
			active BOOLEAN,
			status TEXT,
			start_time BIGINT,
			last_heartbeat BIGINT
		);`, d.table("sessions")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			controller_id TEXT,
			time BIGINT,
			session_status TEXT,
			last_update BIGINT,
			note TEXT
		);`, d.table("market_state")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol TEXT PRIMARY KEY,
			price DOUBLE PRECISION,
			change DOUBLE PRECISION,
			change_percent DOUBLE PRECISION,
			sentiment DOUBLE PRECISION,
			optics DOUBLE PRECISION
		);`, d.table("market_stocks")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			headline TEXT,
			description TEXT,
			source TEXT,
			sentiment DOUBLE PRECISION,
			optics DOUBLE PRECISION,
			target TEXT,
			timestamp BIGINT,
			decay DOUBLE PRECISION,
			archived BOOLEAN
		);`, d.table("news")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol TEXT,
			timestamp BIGINT,
			price DOUBLE PRECISION,
			sentiment DOUBLE PRECISION,
			PRIMARY KEY (symbol, timestamp)
		);`, d.table("price_history")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			symbol TEXT,
			quantity DOUBLE PRECISION,
			price DOUBLE PRECISION,
			type TEXT,
			timestamp BIGINT,
			sentiment DOUBLE PRECISION,
			news_context TEXT,
			archived BOOLEAN
		);`, d.table("trades")),
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

func (d *PostgresStore) ActiveSession() (*models.MSession, error) {
	row := d.DB.QueryRow(fmt.Sprintf(`
		SELECT id, controller_id, active, status, start_time, last_heartbeat
		FROM %s WHERE active = TRUE
		ORDER BY start_time DESC LIMIT 1
	`, d.table("sessions")))

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

func (d *PostgresStore) SaveSession(sess models.MSession) error {
	_, err := d.DB.Exec(fmt.Sprintf(`
		INSERT INTO %s (id, controller_id, active, status, start_time, last_heartbeat)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			controller_id = excluded.controller_id,
			active = excluded.active,
			status = excluded.status,
			start_time = excluded.start_time,
			last_heartbeat = excluded.last_heartbeat
	`, d.table("sessions")), sess.ID, sess.ControllerID, sess.Active, sess.Status, sess.StartTime, sess.LastHeartbeat)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) StaleSessions(cutoff int64) ([]models.MSession, error) {
	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT id, controller_id, active, status, start_time, last_heartbeat
		FROM %s WHERE active = TRUE AND last_heartbeat < $1
	`, d.table("sessions")), cutoff)
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

func (d *PostgresStore) GetMarketState(controllerID string) (*models.MMarketState, error) {
	row := d.DB.QueryRow(fmt.Sprintf(`
		SELECT controller_id, time, session_status, last_update, note
		FROM %s WHERE id = 1
	`, d.table("market_state")))

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

	rows, err := d.DB.Query(fmt.Sprintf(
		`SELECT symbol, price, change, change_percent, sentiment, optics FROM %s`, d.table("market_stocks")))
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

func (d *PostgresStore) SaveMarketState(st models.MMarketState) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(fmt.Sprintf(`
		INSERT INTO %s (id, controller_id, time, session_status, last_update, note)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			controller_id = excluded.controller_id,
			time = excluded.time,
			session_status = excluded.session_status,
			last_update = excluded.last_update,
			note = excluded.note
	`, d.table("market_state")), st.ControllerID, st.Time, st.SessionStatus, st.LastUpdate, st.Note)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, d.table("market_stocks"))); err != nil {
		return err
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO %s (symbol, price, change, change_percent, sentiment, optics)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.table("market_stocks")))
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

func (d *PostgresStore) ActiveNews() ([]models.MNewsItem, error) {
	return d.queryNews(fmt.Sprintf(`
		SELECT id, headline, description, source, sentiment, optics, target, timestamp, decay, archived
		FROM %s WHERE archived = FALSE AND decay > 0
		ORDER BY timestamp DESC
	`, d.table("news")))
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) AllNews() ([]models.MNewsItem, error) {
	return d.queryNews(fmt.Sprintf(`
		SELECT id, headline, description, source, sentiment, optics, target, timestamp, decay, archived
		FROM %s ORDER BY timestamp DESC
	`, d.table("news")))
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) queryNews(query string) ([]models.MNewsItem, error) {
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

func (d *PostgresStore) InsertNews(item models.MNewsItem) error {
	_, err := d.DB.Exec(fmt.Sprintf(`
		INSERT INTO %s (id, headline, description, source, sentiment, optics, target, timestamp, decay, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, d.table("news")), item.ID, item.Headline, item.Description, item.Source, item.Sentiment,
		item.Optics, item.Target, item.Timestamp, item.Decay, item.Archived)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) UpdateNewsDecay(id string, decay float64, archived bool) error {
	_, err := d.DB.Exec(fmt.Sprintf(
		`UPDATE %s SET decay = $1, archived = $2 WHERE id = $3`, d.table("news")), decay, archived, id)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) ArchiveAllNews() error {
	_, err := d.DB.Exec(fmt.Sprintf(
		`UPDATE %s SET decay = 0, archived = TRUE WHERE archived = FALSE`, d.table("news")))
	return err
}

// -----------------------------------------------------------------------------
// Price history
// -----------------------------------------------------------------------------

func (d *PostgresStore) AppendPriceHistory(points []models.MPricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO %s (symbol, timestamp, price, sentiment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, timestamp) DO UPDATE SET
			price = excluded.price,
			sentiment = excluded.sentiment
	`, d.table("price_history")))
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

func (d *PostgresStore) DeletePriceHistoryBefore(cutoff int64) (int64, error) {
	res, err := d.DB.Exec(fmt.Sprintf(
		`DELETE FROM %s WHERE timestamp < $1`, d.table("price_history")), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// -----------------------------------------------------------------------------
// Trades
// -----------------------------------------------------------------------------

func (d *PostgresStore) InsertTrade(trade models.MTrade) error {
	newsContext, err := json.Marshal(trade.NewsContext)
	if err != nil {
		return err
	}

	_, err = d.DB.Exec(fmt.Sprintf(`
		INSERT INTO %s (id, user_id, symbol, quantity, price, type, timestamp, sentiment, news_context, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, d.table("trades")), trade.ID, trade.UserID, trade.Symbol, trade.Quantity, trade.Price,
		trade.Type, trade.Timestamp, trade.Sentiment, string(newsContext), trade.Archived)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Trades() ([]models.MTrade, error) {
	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT id, user_id, symbol, quantity, price, type, timestamp, sentiment, news_context, archived
		FROM %s WHERE archived = FALSE
		ORDER BY timestamp ASC
	`, d.table("trades")))
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

func (d *PostgresStore) ArchiveTradesBefore(cutoff int64) (int64, error) {
	res, err := d.DB.Exec(fmt.Sprintf(
		`UPDATE %s SET archived = TRUE WHERE archived = FALSE AND timestamp < $1`, d.table("trades")), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
