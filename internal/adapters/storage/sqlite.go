package storage

// sqlite.go: journal de sesión, solo escritura desde el engine.
//
// Tablas:
//   - `sessions`: una fila por sesión (UUID), creada en el primer ciclo.
//   - `cycles`: una fila por ciclo con mercado, señales, quote y riesgo.
//   - `order_events`: transiciones de órdenes (placed, gone, expired...).
//   - Prune automático al arrancar: sesiones con más de 30 días.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/ritmm/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    started_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS cycles (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id     TEXT     NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    tick           INTEGER  NOT NULL,
    at             DATETIME NOT NULL,
    bid            REAL     NOT NULL DEFAULT 0,
    ask            REAL     NOT NULL DEFAULT 0,
    mid            REAL     NOT NULL DEFAULT 0,
    position       INTEGER  NOT NULL DEFAULT 0,
    position_vwap  REAL     NOT NULL DEFAULT 0,
    realized       REAL     NOT NULL DEFAULT 0,
    unrealized     REAL     NOT NULL DEFAULT 0,
    vol            REAL     NOT NULL DEFAULT 0,
    trend          REAL     NOT NULL DEFAULT 0,
    trend_conf     REAL     NOT NULL DEFAULT 0,
    local_trend    REAL     NOT NULL DEFAULT 0,
    local_conf     REAL     NOT NULL DEFAULT 0,
    quoted         INTEGER  NOT NULL DEFAULT 0,
    quote_bid      REAL     NOT NULL DEFAULT 0,
    quote_ask      REAL     NOT NULL DEFAULT 0,
    vol_spread     REAL     NOT NULL DEFAULT 0,
    trend_factor   REAL     NOT NULL DEFAULT 1,
    inv_factor     REAL     NOT NULL DEFAULT 0,
    book_imbalance REAL     NOT NULL DEFAULT 0,
    time_factor    REAL     NOT NULL DEFAULT 0,
    risk_state     TEXT     NOT NULL,
    risk_reason    TEXT     NOT NULL DEFAULT '',
    holding        INTEGER  NOT NULL DEFAULT 0,
    resting_bids   INTEGER  NOT NULL DEFAULT 0,
    resting_asks   INTEGER  NOT NULL DEFAULT 0,
    placed         INTEGER  NOT NULL DEFAULT 0,
    failed         INTEGER  NOT NULL DEFAULT 0,
    gone           INTEGER  NOT NULL DEFAULT 0,
    expired        INTEGER  NOT NULL DEFAULT 0,
    warnings       TEXT     NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS order_events (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT     NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    tick       INTEGER  NOT NULL,
    order_id   INTEGER  NOT NULL DEFAULT 0,
    side       TEXT     NOT NULL,
    type       TEXT     NOT NULL,
    price      REAL     NOT NULL DEFAULT 0,
    quantity   INTEGER  NOT NULL,
    kind       TEXT     NOT NULL,
    detail     TEXT     NOT NULL DEFAULT '',
    at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_cycles_session   ON cycles(session_id, tick);
CREATE INDEX IF NOT EXISTS idx_events_session   ON order_events(session_id, kind);
`

const retentionSessions = 30 * 24 * time.Hour // sesiones: 30 días

// ErrNoSessions se devuelve cuando el journal está vacío.
var ErrNoSessions = errors.New("no sessions in journal")

// SQLiteJournal implementa ports.Journal usando SQLite (pure Go, sin CGo).
type SQLiteJournal struct {
	db    *sql.DB
	known map[string]bool // sesiones ya insertadas
	mu    sync.Mutex
}

// NewSQLiteJournal abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia sesiones antiguas.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{db: db, known: make(map[string]bool)}
	j.pruneOld(context.Background())
	return j, nil
}

// SaveCycle persiste el reporte de un ciclo. La sesión se crea en la primera llamada.
func (j *SQLiteJournal) SaveCycle(ctx context.Context, r domain.CycleReport) error {
	if err := j.ensureSession(ctx, r.SessionID, r.At); err != nil {
		return fmt.Errorf("storage.SaveCycle: %w", err)
	}

	quoted := 0
	if r.Quoted {
		quoted = 1
	}
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO cycles
			(session_id, tick, at, bid, ask, mid, position, position_vwap, realized, unrealized,
			 vol, trend, trend_conf, local_trend, local_conf,
			 quoted, quote_bid, quote_ask, vol_spread, trend_factor, inv_factor,
			 book_imbalance, time_factor, risk_state, risk_reason, holding,
			 resting_bids, resting_asks, placed, failed, gone, expired, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Tick, r.At.UTC(),
		r.Market.Bid, r.Market.Ask, r.Market.Mid, r.Market.Position, r.Market.PositionVWAP,
		r.Market.Realized, r.Market.Unrealized,
		r.Signals.Vol.Vol, r.Signals.GlobalTrend.MeanReturn, r.Signals.GlobalTrend.Confidence,
		r.Signals.LocalTrend.MeanReturn, r.Signals.LocalTrend.Confidence,
		quoted, r.Quote.Bid, r.Quote.Ask, r.Quote.VolSpread, r.Quote.TrendFactor, r.Quote.InventoryFactor,
		r.Book.Imbalance, r.Tape.TimeFactor, r.RiskState, r.RiskReason, r.HoldingTicks,
		r.RestingBids, r.RestingAsks, r.OrdersPlaced, r.OrdersFailed, r.OrdersGone, r.OrdersExpired,
		strings.Join(r.Warnings, "; "),
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert tick %d: %w", r.Tick, err)
	}
	return nil
}

// SaveOrderEvents persiste los eventos de órdenes en una transacción.
func (j *SQLiteJournal) SaveOrderEvents(ctx context.Context, events []domain.OrderEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := j.ensureSession(ctx, events[0].SessionID, events[0].At); err != nil {
		return fmt.Errorf("storage.SaveOrderEvents: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveOrderEvents: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_events (session_id, tick, order_id, side, type, price, quantity, kind, detail, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveOrderEvents: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			ev.SessionID, ev.Tick, ev.OrderID, string(ev.Side), string(ev.Type),
			ev.Price, ev.Quantity, string(ev.Kind), ev.Detail, ev.At.UTC(),
		); err != nil {
			return fmt.Errorf("storage.SaveOrderEvents: insert order %d: %w", ev.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveOrderEvents: commit: %w", err)
	}
	return nil
}

// LatestSummary resume la sesión más reciente.
func (j *SQLiteJournal) LatestSummary(ctx context.Context) (domain.SessionSummary, error) {
	var id string
	err := j.db.QueryRowContext(ctx,
		`SELECT id FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionSummary{}, ErrNoSessions
	}
	if err != nil {
		return domain.SessionSummary{}, fmt.Errorf("storage.LatestSummary: %w", err)
	}
	return j.Summary(ctx, id)
}

// Summary agrega ciclos y eventos de una sesión.
func (j *SQLiteJournal) Summary(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	s := domain.SessionSummary{SessionID: sessionID}

	var started string
	if err := j.db.QueryRowContext(ctx,
		`SELECT started_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&started); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, fmt.Errorf("storage.Summary: session %q: %w", sessionID, ErrNoSessions)
		}
		return s, fmt.Errorf("storage.Summary: session: %w", err)
	}
	s.StartedAt = parseTime(started)

	if err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MIN(tick), 0), COALESCE(MAX(tick), 0),
		       COALESCE(MAX(ABS(position)), 0),
		       COALESCE(SUM(placed), 0), COALESCE(SUM(failed), 0),
		       COALESCE(SUM(gone), 0), COALESCE(SUM(expired), 0)
		FROM cycles WHERE session_id = ?`, sessionID,
	).Scan(&s.Cycles, &s.FirstTick, &s.LastTick, &s.MaxAbsPos,
		&s.OrdersPlaced, &s.OrdersFailed, &s.OrdersGone, &s.Expired); err != nil {
		return s, fmt.Errorf("storage.Summary: cycles: %w", err)
	}

	if s.Cycles > 0 {
		if err := j.db.QueryRowContext(ctx, `
			SELECT position, realized FROM cycles
			WHERE session_id = ? ORDER BY tick DESC, id DESC LIMIT 1`, sessionID,
		).Scan(&s.FinalPos, &s.Realized); err != nil {
			return s, fmt.Errorf("storage.Summary: last cycle: %w", err)
		}
	}

	if err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_events WHERE session_id = ? AND kind = ?`,
		sessionID, string(domain.EventLiquidate),
	).Scan(&s.Liquidations); err != nil {
		return s, fmt.Errorf("storage.Summary: events: %w", err)
	}
	return s, nil
}

// RecentSessions devuelve los resúmenes de las últimas n sesiones, la más reciente primero.
func (j *SQLiteJournal) RecentSessions(ctx context.Context, n int) ([]domain.SessionSummary, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentSessions: query: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage.RecentSessions: scan: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.RecentSessions: %w", err)
	}

	out := make([]domain.SessionSummary, 0, len(ids))
	for _, id := range ids {
		s, err := j.Summary(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Close cierra la conexión a la base de datos.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// --- helpers internos ---

// ensureSession inserta la sesión la primera vez que se ve.
func (j *SQLiteJournal) ensureSession(ctx context.Context, id string, at time.Time) error {
	if id == "" {
		return errors.New("empty session id")
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.known[id] {
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, started_at) VALUES (?, ?)`, id, at.UTC(),
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	j.known[id] = true
	return nil
}

// pruneOld elimina sesiones antiguas; cycles y order_events caen por cascade.
func (j *SQLiteJournal) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionSessions)
	j.db.ExecContext(ctx, `DELETE FROM sessions WHERE started_at < ?`, cutoff)
}

// parseTime acepta los formatos en que modernc/sqlite devuelve DATETIME.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999 -0700 MST", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
