package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/database"
	"fintrack/domain/entities"
	"fintrack/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// balanceExpr is the balance of account alias a as of $1: opening balance, plus deposits,
// minus withdrawals and outgoing transfers, plus incoming transfers.
const balanceExpr = `
	(a.opening_balance
		+ COALESCE((
			SELECT SUM(CASE WHEN e.kind = 'deposit' THEN e.amount ELSE -e.amount END)
			FROM ledger_entries e
			WHERE e.account_id = a.id AND e.entry_date <= $1
		), 0)
		+ COALESCE((
			SELECT SUM(e.amount)
			FROM ledger_entries e
			WHERE e.kind = 'transfer' AND e.destination_account_id = a.id AND e.entry_date <= $1
		), 0)
	)::text`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates an account repository on the connection pool
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

func newAccountRepository(tx Queryable) interfaces.AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	query := `
		SELECT id, name, category, opening_balance::text, created_at
		FROM accounts
		WHERE id = $1
	`

	var account entities.Account
	var category, opening string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&category,
		&opening,
		&account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}

	account.Category = entities.AccountCategory(category)
	if account.OpeningBalance, err = parseNumeric("opening_balance", opening); err != nil {
		return nil, err
	}

	return &account, nil
}

// GetBalance returns the account balance including every entry dated on or before asOf.
// An unknown account has a zero balance.
func (r *AccountRepository) GetBalance(ctx context.Context, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	query := `SELECT ` + balanceExpr + ` FROM accounts a WHERE a.id = $2`

	var balance string
	err := r.q.QueryRow(ctx, query, entities.DateOf(asOf), accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance for account %d: %w", accountID, err)
	}

	return parseNumeric("balance", balance)
}

// ListBalances returns the balance of every account as of a date
func (r *AccountRepository) ListBalances(ctx context.Context, asOf time.Time) ([]*entities.AccountBalance, error) {
	query := `SELECT a.id, a.category, ` + balanceExpr + ` FROM accounts a ORDER BY a.id`

	rows, err := r.q.Query(ctx, query, entities.DateOf(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to list account balances: %w", err)
	}
	defer rows.Close()

	var balances []*entities.AccountBalance
	for rows.Next() {
		var b entities.AccountBalance
		var category, balance string
		if err := rows.Scan(&b.AccountID, &category, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan account balance: %w", err)
		}
		b.Category = entities.AccountCategory(category)
		if b.Balance, err = parseNumeric("balance", balance); err != nil {
			return nil, err
		}
		balances = append(balances, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account balances: %w", err)
	}

	return balances, nil
}
