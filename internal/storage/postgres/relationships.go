package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fdg312/lifeos/internal/storage"
	"github.com/google/uuid"
)

const (
	sqlRelationshipStatus = `
		SELECT user_id, commitment_id::text, name, category, frequency, target_count, notes,
		       period_start::text, period_end::text, days_remaining, completed_count,
		       planned_for, status
		FROM v_relationship_status
		WHERE user_id = $1`

	sqlCommitmentExists = `
		SELECT EXISTS (
			SELECT 1 FROM relationship_commitments WHERE id = $1 AND user_id = $2
		)`

	sqlDeactivatePlans = `
		UPDATE relationship_plans
		SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND commitment_id = $2 AND is_active`

	sqlInsertPlan = `
		INSERT INTO relationship_plans (user_id, commitment_id, planned_for, notes, is_active)
		VALUES ($1, $2, $3, $4, TRUE)`

	sqlInsertEvent = `
		INSERT INTO relationship_events (user_id, commitment_id, occurred_at, notes)
		VALUES ($1, $2, $3, $4)`
)

func (p *PostgresStorage) ListRelationshipStatus(ctx context.Context, userID string) ([]storage.RelationshipStatusRow, error) {
	rows, err := p.pool.Query(ctx, sqlRelationshipStatus, userID)
	if err != nil {
		return nil, fmt.Errorf("v_relationship_status: %w", err)
	}
	defer rows.Close()

	out := []storage.RelationshipStatusRow{}
	for rows.Next() {
		var r storage.RelationshipStatusRow
		if err := rows.Scan(
			&r.UserID,
			&r.CommitmentID,
			&r.Name,
			&r.Category,
			&r.Frequency,
			&r.TargetCount,
			&r.Notes,
			&r.PeriodStart,
			&r.PeriodEnd,
			&r.DaysRemaining,
			&r.CompletedCount,
			&r.PlannedFor,
			&r.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan relationship status: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func (p *PostgresStorage) CommitmentExists(ctx context.Context, userID, commitmentID string) (bool, error) {
	id, err := uuid.Parse(commitmentID)
	if err != nil {
		return false, nil
	}

	var exists bool
	if err := p.pool.QueryRow(ctx, sqlCommitmentExists, id, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("relationship_commitments: %w", err)
	}
	return exists, nil
}

func (p *PostgresStorage) DeactivateActivePlans(ctx context.Context, userID, commitmentID string) (int, error) {
	id, err := uuid.Parse(commitmentID)
	if err != nil {
		return 0, ErrNotFound
	}

	tag, err := p.pool.Exec(ctx, sqlDeactivatePlans, userID, id)
	if err != nil {
		return 0, fmt.Errorf("relationship_plans: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (p *PostgresStorage) InsertPlan(ctx context.Context, userID, commitmentID string, plannedFor time.Time, notes *string) error {
	id, err := uuid.Parse(commitmentID)
	if err != nil {
		return ErrNotFound
	}

	if _, err := p.pool.Exec(ctx, sqlInsertPlan, userID, id, plannedFor, notes); err != nil {
		return fmt.Errorf("relationship_plans: %w", err)
	}
	return nil
}

func (p *PostgresStorage) InsertEvent(ctx context.Context, userID, commitmentID string, occurredAt time.Time, notes *string) error {
	id, err := uuid.Parse(commitmentID)
	if err != nil {
		return ErrNotFound
	}

	if _, err := p.pool.Exec(ctx, sqlInsertEvent, userID, id, occurredAt, notes); err != nil {
		return fmt.Errorf("relationship_events: %w", err)
	}
	return nil
}
