package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSchemeChanged is returned when a budget was previously synced with a
// different identity scheme.
var ErrSchemeChanged = errors.New("identity scheme changed")

// RunStatus represents the outcome of a budget sync.
type RunStatus string

const (
	RunStatusOK     RunStatus = "ok"
	RunStatusFailed RunStatus = "failed"
	RunStatusDryRun RunStatus = "dry_run"
)

// Run represents one budget sync within a pass.
type Run struct {
	RunID          string
	BudgetName     string
	BudgetID       string
	IdentityScheme string
	StartedAt      time.Time
	FinishedAt     time.Time
	Inserted       int
	Patched        int
	Flagged        int
	Skipped        int
	Status         RunStatus
	Error          string
}

// ImportRecord represents a transaction written to the ledger.
type ImportRecord struct {
	ImportID        string
	AccountID       string
	TransactionDate string
	Amount          int64
}

// SyncHistory manages sync history operations.
type SyncHistory struct {
	conn *Connection
}

// NewSyncHistory creates a new SyncHistory instance.
func NewSyncHistory(conn *Connection) *SyncHistory {
	return &SyncHistory{conn: conn}
}

// RecordRun records a budget sync.
// If the run already exists (same run_id + budget_name), it updates it.
func (s *SyncHistory) RecordRun(run Run) error {
	query := `
		INSERT INTO sync_runs (run_id, budget_name, budget_id, identity_scheme, started_at, finished_at,
			inserted, patched, flagged, skipped, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, budget_name) DO UPDATE SET
			budget_id = excluded.budget_id,
			finished_at = excluded.finished_at,
			inserted = excluded.inserted,
			patched = excluded.patched,
			flagged = excluded.flagged,
			skipped = excluded.skipped,
			status = excluded.status,
			error = excluded.error
	`

	_, err := s.conn.Exec(query,
		run.RunID,
		run.BudgetName,
		run.BudgetID,
		run.IdentityScheme,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Inserted,
		run.Patched,
		run.Flagged,
		run.Skipped,
		string(run.Status),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// RecordImports records imported transactions in a single transaction.
// Import ids already recorded for the budget are left untouched.
func (s *SyncHistory) RecordImports(budgetID, runID string, records []ImportRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.conn.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO imported_transactions (budget_id, import_id, account_id, transaction_date, amount, run_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(budget_id, import_id) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare import statement: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.Exec(budgetID, r.ImportID, r.AccountID, r.TransactionDate, r.Amount, runID); err != nil {
				return fmt.Errorf("failed to record import %s: %w", r.ImportID, err)
			}
		}
		return nil
	})
}

// IsImported checks if an import id has been written to a budget.
func (s *SyncHistory) IsImported(budgetID, importID string) (bool, error) {
	query := `
		SELECT COUNT(*) FROM imported_transactions
		WHERE budget_id = ? AND import_id = ?
	`

	var count int
	if err := s.conn.QueryRow(query, budgetID, importID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check if imported: %w", err)
	}

	return count > 0, nil
}

// GetImportedIDs retrieves all import ids recorded for a budget.
func (s *SyncHistory) GetImportedIDs(budgetID string) ([]string, error) {
	rows, err := s.conn.Query(`SELECT import_id FROM imported_transactions WHERE budget_id = ? ORDER BY id`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get imported IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan import ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// GetRecentRuns retrieves the most recent runs, newest first.
func (s *SyncHistory) GetRecentRuns(limit int) ([]Run, error) {
	query := `
		SELECT run_id, budget_name, budget_id, identity_scheme, started_at, finished_at,
			inserted, patched, flagged, skipped, status, error
		FROM sync_runs
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished, status string

		if err := rows.Scan(
			&run.RunID,
			&run.BudgetName,
			&run.BudgetID,
			&run.IdentityScheme,
			&started,
			&finished,
			&run.Inserted,
			&run.Patched,
			&run.Flagged,
			&run.Skipped,
			&status,
			&run.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.Status = RunStatus(status)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Stats represents sync statistics.
type Stats struct {
	TotalRuns     int
	FailedRuns    int
	TotalImported int
	TotalPatched  int
	TotalFlagged  int
	LastSync      sql.NullString
}

// GetStats retrieves sync statistics.
func (s *SyncHistory) GetStats() (*Stats, error) {
	var stats Stats

	err := s.conn.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'ok' THEN patched ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'ok' THEN flagged ELSE 0 END), 0)
		FROM sync_runs
	`).Scan(&stats.TotalRuns, &stats.FailedRuns, &stats.TotalPatched, &stats.TotalFlagged)
	if err != nil {
		return nil, fmt.Errorf("failed to get run counts: %w", err)
	}

	err = s.conn.QueryRow(`SELECT COUNT(*) FROM imported_transactions`).Scan(&stats.TotalImported)
	if err != nil {
		return nil, fmt.Errorf("failed to get import count: %w", err)
	}

	err = s.conn.QueryRow(`SELECT MAX(finished_at) FROM sync_runs WHERE status = 'ok'`).Scan(&stats.LastSync)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last sync time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (s *SyncHistory) GetMetadata(key string) (string, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM sync_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (s *SyncHistory) SetMetadata(key, value string) error {
	query := `
		INSERT INTO sync_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.conn.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}

// CheckScheme records the identity scheme used for a budget. A call naming a
// different scheme than the stored one saves the new scheme and returns
// ErrSchemeChanged, so the change is reported once.
func (s *SyncHistory) CheckScheme(budgetID, scheme string) error {
	key := "identity_scheme:" + budgetID

	current, err := s.GetMetadata(key)
	if err != nil {
		return err
	}
	if current == "" {
		return s.SetMetadata(key, scheme)
	}
	if current != scheme {
		if err := s.SetMetadata(key, scheme); err != nil {
			return err
		}
		return fmt.Errorf("%w: budget %s was synced with %s, now %s", ErrSchemeChanged, budgetID, current, scheme)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
