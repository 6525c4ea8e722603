package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"SignalSentinel/internal/model"
)

// DefaultRecentLimit caps RecentSignals when the caller passes a non-positive limit.
const DefaultRecentLimit = 50

// SQLiteRecorder persists signals and rejections to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
// ":memory:" is accepted for tests.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps an in-memory database shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("component", "recorder").Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			market          TEXT,
			timeframe       TEXT,
			direction       TEXT NOT NULL,
			confidence      INTEGER,
			entry_price     REAL,
			stop_loss       REAL,
			take_profit     REAL,
			risk_reward     REAL,
			atr             REAL,
			broken_level    REAL,
			confirmations   TEXT,
			session_quality TEXT,
			analysis        TEXT,
			degraded        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS rejections (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			timeframe TEXT,
			direction TEXT,
			score     INTEGER,
			reason    TEXT,
			tags      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rejections_ts ON rejections(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func joinTags(tags []model.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func splitTags(s string) []model.Tag {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]model.Tag, len(parts))
	for i, p := range parts {
		tags[i] = model.Tag(p)
	}
	return tags
}

func (r *SQLiteRecorder) RecordSignal(sig *model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	degraded := 0
	if sig.Degraded {
		degraded = 1
	}
	_, err := r.db.Exec(`INSERT INTO signals
		(id, timestamp, symbol, market, timeframe, direction, confidence,
		 entry_price, stop_loss, take_profit, risk_reward, atr, broken_level,
		 confirmations, session_quality, analysis, degraded)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sig.ID, sig.Timestamp.UnixNano(), sig.Symbol, string(sig.Market), sig.Timeframe,
		string(sig.Direction), sig.Confidence,
		sig.EntryPrice, sig.StopLoss, sig.TakeProfit, sig.RiskReward, sig.ATR, sig.BrokenLevel,
		joinTags(sig.Confirmations), sig.SessionQuality, sig.AnalysisText, degraded,
	)
	return err
}

func (r *SQLiteRecorder) RecordRejection(rej *Rejection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rej.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO rejections
		(timestamp, symbol, timeframe, direction, score, reason, tags)
		VALUES (?,?,?,?,?,?,?)`,
		ts.UnixNano(), rej.Symbol, rej.Timeframe, string(rej.Direction),
		rej.Score, rej.Reason, joinTags(rej.Tags),
	)
	return err
}

func (r *SQLiteRecorder) RecentSignals(symbol string, limit int) ([]model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := r.db.Query(`SELECT
		id, timestamp, symbol, market, timeframe, direction, confidence,
		entry_price, stop_loss, take_profit, risk_reward, atr, broken_level,
		confirmations, session_quality, analysis, degraded
		FROM signals
		WHERE (? = '' OR symbol = ?)
		ORDER BY timestamp DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var (
			sig       model.Signal
			ts        int64
			market    string
			direction string
			tags      string
			degraded  int
		)
		if err := rows.Scan(&sig.ID, &ts, &sig.Symbol, &market, &sig.Timeframe, &direction,
			&sig.Confidence, &sig.EntryPrice, &sig.StopLoss, &sig.TakeProfit, &sig.RiskReward,
			&sig.ATR, &sig.BrokenLevel, &tags, &sig.SessionQuality, &sig.AnalysisText, &degraded); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Timestamp = time.Unix(0, ts).UTC()
		sig.Market = model.MarketKind(market)
		sig.Direction = model.Direction(direction)
		sig.Confirmations = splitTags(tags)
		sig.Degraded = degraded != 0
		out = append(out, sig)
	}
	return out, rows.Err()
}

// RejectionCount returns the number of recorded rejections for a symbol.
func (r *SQLiteRecorder) RejectionCount(symbol string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM rejections WHERE symbol = ?`, symbol).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Str("component", "recorder").Msg("closing sqlite recorder")
	return r.db.Close()
}
