package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/database"
	"fintrack/domain"
	"fintrack/domain/entities"
	"fintrack/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const scheduleColumns = `
	id,
	account_id,
	destination_account_id,
	payee_id,
	category_id,
	kind,
	amount::text,
	notes,
	frequency,
	interval_count,
	day_of_week,
	day_of_month,
	start_date,
	next_occurrence,
	end_date,
	execution_limit,
	executions_done,
	active,
	auto_execute,
	created_at,
	updated_at`

// ScheduleRepository implements the ScheduleRepository interface
type ScheduleRepository struct {
	q Queryable
}

// NewScheduleRepository creates a schedule repository on the connection pool
func NewScheduleRepository(db *database.DB) *ScheduleRepository {
	return &ScheduleRepository{q: db.Pool}
}

// newScheduleRepository creates a schedule repository bound to a transaction
func newScheduleRepository(tx Queryable) interfaces.ScheduleRepository {
	return &ScheduleRepository{q: tx}
}

// Create inserts a new schedule
func (r *ScheduleRepository) Create(ctx context.Context, schedule *entities.RecurrenceSchedule) error {
	query := `
		INSERT INTO recurring_schedules (
			account_id, destination_account_id, payee_id, category_id, kind, amount, notes,
			frequency, interval_count, day_of_week, day_of_month,
			start_date, next_occurrence, end_date,
			execution_limit, executions_done, active, auto_execute
		) VALUES (
			$1, $2, $3, $4, $5, $6::text::numeric, $7,
			$8, $9, $10, $11,
			$12, $13, $14,
			$15, $16, $17, $18
		)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		schedule.AccountID,
		schedule.DestinationAccountID,
		schedule.PayeeID,
		schedule.CategoryID,
		string(schedule.Kind),
		schedule.Amount.String(),
		schedule.Notes,
		string(schedule.Frequency),
		schedule.Interval,
		schedule.DayOfWeek,
		schedule.DayOfMonth,
		schedule.StartDate,
		schedule.NextOccurrence,
		schedule.EndDate,
		schedule.ExecutionLimit,
		schedule.ExecutionsDone,
		schedule.Active,
		schedule.AutoExecute,
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create schedule for account %d: %w", schedule.AccountID, err)
	}

	return nil
}

// GetByID retrieves a schedule by ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*entities.RecurrenceSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM recurring_schedules WHERE id = $1`

	schedule, err := scanSchedule(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule %d: %w", id, err)
	}

	return schedule, nil
}

// GetForUpdate retrieves a schedule and holds its row lock until the transaction ends
func (r *ScheduleRepository) GetForUpdate(ctx context.Context, id int64) (*entities.RecurrenceSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM recurring_schedules WHERE id = $1 FOR UPDATE`

	schedule, err := scanSchedule(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock schedule %d: %w", id, err)
	}

	return schedule, nil
}

// Save persists every mutable field of a schedule
func (r *ScheduleRepository) Save(ctx context.Context, schedule *entities.RecurrenceSchedule) error {
	query := `
		UPDATE recurring_schedules SET
			account_id = $2,
			destination_account_id = $3,
			payee_id = $4,
			category_id = $5,
			kind = $6,
			amount = $7::text::numeric,
			notes = $8,
			frequency = $9,
			interval_count = $10,
			day_of_week = $11,
			day_of_month = $12,
			start_date = $13,
			next_occurrence = $14,
			end_date = $15,
			execution_limit = $16,
			executions_done = $17,
			active = $18,
			auto_execute = $19,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		schedule.ID,
		schedule.AccountID,
		schedule.DestinationAccountID,
		schedule.PayeeID,
		schedule.CategoryID,
		string(schedule.Kind),
		schedule.Amount.String(),
		schedule.Notes,
		string(schedule.Frequency),
		schedule.Interval,
		schedule.DayOfWeek,
		schedule.DayOfMonth,
		schedule.StartDate,
		schedule.NextOccurrence,
		schedule.EndDate,
		schedule.ExecutionLimit,
		schedule.ExecutionsDone,
		schedule.Active,
		schedule.AutoExecute,
	).Scan(&schedule.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Resource: "schedule", ID: schedule.ID}
	}
	if err != nil {
		return fmt.Errorf("failed to save schedule %d: %w", schedule.ID, err)
	}

	return nil
}

// Delete removes a schedule
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM recurring_schedules WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete schedule %d: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}

// List returns schedules matching the filter
func (r *ScheduleRepository) List(ctx context.Context, filter interfaces.ScheduleFilter) ([]*entities.RecurrenceSchedule, error) {
	var conditions []string
	var args []any

	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		conditions = append(conditions, fmt.Sprintf("(account_id = $%d OR destination_account_id = $%d)", len(args), len(args)))
	}

	query := `SELECT ` + scheduleColumns + ` FROM recurring_schedules`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY next_occurrence, id`

	return r.querySchedules(ctx, "list schedules", query, args...)
}

// ListDue returns active auto-executing schedules due on or before asOf
func (r *ScheduleRepository) ListDue(ctx context.Context, asOf time.Time) ([]*entities.RecurrenceSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM recurring_schedules
		WHERE active AND auto_execute AND next_occurrence <= $1
		ORDER BY next_occurrence, id
	`
	return r.querySchedules(ctx, "list due schedules", query, entities.DateOf(asOf))
}

// ListActiveForAccount returns active schedules with the account as source or destination
func (r *ScheduleRepository) ListActiveForAccount(ctx context.Context, accountID int64) ([]*entities.RecurrenceSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM recurring_schedules
		WHERE active AND (account_id = $1 OR destination_account_id = $1)
		ORDER BY next_occurrence, id
	`
	return r.querySchedules(ctx, fmt.Sprintf("list schedules for account %d", accountID), query, accountID)
}

func (r *ScheduleRepository) querySchedules(ctx context.Context, op, query string, args ...any) ([]*entities.RecurrenceSchedule, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var schedules []*entities.RecurrenceSchedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}

	return schedules, nil
}

func scanSchedule(row pgx.Row) (*entities.RecurrenceSchedule, error) {
	var s entities.RecurrenceSchedule
	var kind, frequency, amount string

	err := row.Scan(
		&s.ID,
		&s.AccountID,
		&s.DestinationAccountID,
		&s.PayeeID,
		&s.CategoryID,
		&kind,
		&amount,
		&s.Notes,
		&frequency,
		&s.Interval,
		&s.DayOfWeek,
		&s.DayOfMonth,
		&s.StartDate,
		&s.NextOccurrence,
		&s.EndDate,
		&s.ExecutionLimit,
		&s.ExecutionsDone,
		&s.Active,
		&s.AutoExecute,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Kind = entities.TransactionKind(kind)
	s.Frequency = entities.Frequency(frequency)
	s.Amount, err = parseNumeric("amount", amount)
	if err != nil {
		return nil, err
	}

	return &s, nil
}
