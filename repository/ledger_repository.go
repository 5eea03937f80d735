package repository

import (
	"context"
	"fmt"

	"fintrack/database"
	"fintrack/domain/entities"
	"fintrack/domain/interfaces"
)

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q Queryable
}

// NewLedgerRepository creates a ledger repository on the connection pool
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

func newLedgerRepository(tx Queryable) interfaces.LedgerRepository {
	return &LedgerRepository{q: tx}
}

// AppendEntry writes a new ledger entry and returns its ID.
// A second entry for the same schedule and date violates ledger_entries_schedule_date_unique.
func (r *LedgerRepository) AppendEntry(ctx context.Context, entry *entities.LedgerEntry) (int64, error) {
	query := `
		INSERT INTO ledger_entries (
			account_id, destination_account_id, payee_id, category_id,
			kind, amount, entry_date, notes, schedule_id
		) VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.AccountID,
		entry.DestinationAccountID,
		entry.PayeeID,
		entry.CategoryID,
		string(entry.Kind),
		entry.Amount.String(),
		entities.DateOf(entry.EntryDate),
		entry.Notes,
		entry.ScheduleID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to append ledger entry for account %d: %w", entry.AccountID, err)
	}

	return entry.ID, nil
}

// ListBySchedule returns the entries materialized from a schedule in date order
func (r *LedgerRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, account_id, destination_account_id, payee_id, category_id,
		       kind, amount::text, entry_date, notes, schedule_id, created_at
		FROM ledger_entries
		WHERE schedule_id = $1
		ORDER BY entry_date, id
	`

	rows, err := r.q.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for schedule %d: %w", scheduleID, err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		var e entities.LedgerEntry
		var kind, amount string
		if err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.DestinationAccountID,
			&e.PayeeID,
			&e.CategoryID,
			&kind,
			&amount,
			&e.EntryDate,
			&e.Notes,
			&e.ScheduleID,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Kind = entities.TransactionKind(kind)
		if e.Amount, err = parseNumeric("amount", amount); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
