package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"github.com/google/uuid"
)

// SaveAssignment saves or updates a board assignment
func (p *PostgresClient) SaveAssignment(ctx context.Context, board types.BoardAssignment) (uuid.UUID, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	portsJSON, err := json.Marshal(board.Ports)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal ports: %w", err)
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO board_assignments (name, iop, variant, ports, enabled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name)
		DO UPDATE SET
			iop = EXCLUDED.iop,
			variant = EXCLUDED.variant,
			ports = EXCLUDED.ports,
			enabled = EXCLUDED.enabled,
			updated_at = NOW()
		RETURNING id
	`, board.Name, board.IOP, board.Variant, portsJSON, true).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// LoadAllAssignments loads all enabled board assignments
func (p *PostgresClient) LoadAllAssignments(ctx context.Context) ([]types.BoardAssignment, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT name, iop, variant, ports
		FROM board_assignments
		WHERE enabled = true
		ORDER BY created_at, name
	`)

	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	boards := make([]types.BoardAssignment, 0)

	for rows.Next() {
		var board types.BoardAssignment
		var portsJSON []byte

		if err := rows.Scan(&board.Name, &board.IOP, &board.Variant, &portsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}

		if err := json.Unmarshal(portsJSON, &board.Ports); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ports of %s: %w", board.Name, err)
		}

		boards = append(boards, board)
	}

	return boards, rows.Err()
}

// DeleteAssignment removes a board assignment from database
func (p *PostgresClient) DeleteAssignment(ctx context.Context, name string) error {
	result, err := p.pool.Exec(ctx, `
		DELETE FROM board_assignments
		WHERE name = $1
	`, name)

	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}
