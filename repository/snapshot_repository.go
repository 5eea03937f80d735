package repository

import (
	"context"
	"fmt"

	"fintrack/database"
	"fintrack/domain/entities"
	"fintrack/domain/interfaces"
)

// SnapshotRepository implements the SnapshotRepository interface
type SnapshotRepository struct {
	q Queryable
}

// NewSnapshotRepository creates a snapshot repository on the connection pool
func NewSnapshotRepository(db *database.DB) *SnapshotRepository {
	return &SnapshotRepository{q: db.Pool}
}

func newSnapshotRepository(tx Queryable) interfaces.SnapshotRepository {
	return &SnapshotRepository{q: tx}
}

// Upsert stores the snapshot for its capture date, replacing any earlier capture that day
func (r *SnapshotRepository) Upsert(ctx context.Context, snapshot *entities.NetWorthSnapshot) error {
	query := `
		INSERT INTO net_worth_snapshots (captured_on, liquid, assets, investments, net_worth)
		VALUES ($1, $2::text::numeric, $3::text::numeric, $4::text::numeric, $5::text::numeric)
		ON CONFLICT (captured_on) DO UPDATE SET
			liquid = EXCLUDED.liquid,
			assets = EXCLUDED.assets,
			investments = EXCLUDED.investments,
			net_worth = EXCLUDED.net_worth,
			created_at = NOW()
		RETURNING id, created_at
	`

	snapshot.CapturedOn = entities.DateOf(snapshot.CapturedOn)
	err := r.q.QueryRow(ctx, query,
		snapshot.CapturedOn,
		snapshot.Liquid.String(),
		snapshot.Assets.String(),
		snapshot.Investments.String(),
		snapshot.NetWorth.String(),
	).Scan(&snapshot.ID, &snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert net worth snapshot for %s: %w", entities.FormatDate(snapshot.CapturedOn), err)
	}

	return nil
}

// ListRecent returns the latest limit snapshots, oldest first
func (r *SnapshotRepository) ListRecent(ctx context.Context, limit int) ([]*entities.NetWorthSnapshot, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, captured_on, liquid::text, assets::text, investments::text, net_worth::text, created_at
		FROM (
			SELECT * FROM net_worth_snapshots
			ORDER BY captured_on DESC
			LIMIT $1
		) recent
		ORDER BY captured_on ASC
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*entities.NetWorthSnapshot
	for rows.Next() {
		var s entities.NetWorthSnapshot
		var liquid, assets, investments, netWorth string
		if err := rows.Scan(&s.ID, &s.CapturedOn, &liquid, &assets, &investments, &netWorth, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if s.Liquid, err = parseNumeric("liquid", liquid); err != nil {
			return nil, err
		}
		if s.Assets, err = parseNumeric("assets", assets); err != nil {
			return nil, err
		}
		if s.Investments, err = parseNumeric("investments", investments); err != nil {
			return nil, err
		}
		if s.NetWorth, err = parseNumeric("net_worth", netWorth); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return snapshots, nil
}
