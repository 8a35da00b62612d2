package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantmind-br/pkgkit/internal/core"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a transaction id is unknown
var ErrNotFound = errors.New("transaction not found")

// Transaction statuses
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// OpInstall is the only operation recorded today
const OpInstall = "install"

// DB represents the database with separate read/write pools
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// New creates a new database instance with separate read/write pools
func New(ctx context.Context, dbPath string) (*DB, error) {
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(10)
	read.SetMaxIdleConns(5)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	db := &DB{
		write: write,
		read:  read,
		path:  dbPath,
	}

	if err := db.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Path returns the database file
func (db *DB) Path() string {
	return db.path
}

// Close closes both database connections
func (db *DB) Close() error {
	writeErr := db.write.Close()
	readErr := db.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// Ping checks that the database answers queries
func (db *DB) Ping(ctx context.Context) error {
	var n int
	if err := db.read.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&n); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (db *DB) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS transactions (
    transaction_id TEXT PRIMARY KEY,
    operation TEXT NOT NULL,
    backend TEXT,
    package_ids TEXT NOT NULL,
    status TEXT NOT NULL,
    error TEXT,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_transactions_started ON transactions(started_at);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);

CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    description TEXT
);

INSERT OR IGNORE INTO schema_migrations (version, description) VALUES (1, 'transactions table');
	`

	_, err := db.write.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Transaction is one recorded backend transaction
type Transaction struct {
	ID         string    `json:"id" yaml:"id"`
	Operation  string    `json:"operation" yaml:"operation"`
	Backend    string    `json:"backend" yaml:"backend"`
	PackageIDs []string  `json:"package_ids" yaml:"package_ids"`
	Status     string    `json:"status" yaml:"status"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
}

// NewTransaction starts a pending transaction for pkgs
func NewTransaction(op, backend string, pkgs []core.Package) *Transaction {
	return &Transaction{
		ID:         uuid.NewString(),
		Operation:  op,
		Backend:    backend,
		PackageIDs: core.IDs(pkgs),
		Status:     StatusPending,
		StartedAt:  time.Now().UTC(),
	}
}

// Finish marks the transaction succeeded, or failed with err
func (t *Transaction) Finish(err error) {
	t.FinishedAt = time.Now().UTC()
	if err != nil {
		t.Status = StatusFailed
		t.Error = err.Error()
		return
	}
	t.Status = StatusSucceeded
	t.Error = ""
}

// Names returns the package names of the recorded ids
func (t *Transaction) Names() []string {
	names := make([]string, 0, len(t.PackageIDs))
	for _, id := range t.PackageIDs {
		segments, err := core.ParsePackageID(id)
		if err != nil {
			names = append(names, id)
			continue
		}
		names = append(names, segments[core.IDName])
	}
	return names
}

const selectColumns = `transaction_id, operation, backend, package_ids, status, error, started_at, finished_at`

// Create creates a new transaction record
func (db *DB) Create(ctx context.Context, tx *Transaction) error {
	idsJSON, err := json.Marshal(tx.PackageIDs)
	if err != nil {
		return fmt.Errorf("marshal package ids: %w", err)
	}

	query := `
INSERT INTO transactions (` + selectColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.write.ExecContext(ctx, query,
		tx.ID,
		tx.Operation,
		tx.Backend,
		string(idsJSON),
		tx.Status,
		tx.Error,
		tx.StartedAt,
		nullTime(tx.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// Update stores the status, error and finish time of tx
func (db *DB) Update(ctx context.Context, tx *Transaction) error {
	query := `
UPDATE transactions SET status = ?, error = ?, finished_at = ?
WHERE transaction_id = ?
	`

	result, err := db.write.ExecContext(ctx, query, tx.Status, tx.Error, nullTime(tx.FinishedAt), tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, tx.ID)
	}

	return nil
}

// Get retrieves a transaction record by ID
func (db *DB) Get(ctx context.Context, id string) (*Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE transaction_id = ?`

	tx, err := scanTransaction(db.read.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return tx, nil
}

// List retrieves transaction records, newest first. limit <= 0 means all.
func (db *DB) List(ctx context.Context, limit int) ([]Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return txs, nil
}

// Delete removes a transaction record
func (db *DB) Delete(ctx context.Context, id string) error {
	query := "DELETE FROM transactions WHERE transaction_id = ?"

	result, err := db.write.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*Transaction, error) {
	var tx Transaction
	var backend, errText sql.NullString
	var idsJSON string
	var finished sql.NullTime

	err := row.Scan(
		&tx.ID,
		&tx.Operation,
		&backend,
		&idsJSON,
		&tx.Status,
		&errText,
		&tx.StartedAt,
		&finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	tx.Backend = backend.String
	tx.Error = errText.String
	if finished.Valid {
		tx.FinishedAt = finished.Time
	}

	if err := json.Unmarshal([]byte(idsJSON), &tx.PackageIDs); err != nil {
		return nil, fmt.Errorf("unmarshal package ids: %w", err)
	}
	if tx.PackageIDs == nil {
		tx.PackageIDs = []string{}
	}

	return &tx, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
