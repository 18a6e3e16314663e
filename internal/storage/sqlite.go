package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps assignments in a single SQLite file for deployments
// without a database server.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection, otherwise every :memory: connection gets its own database
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS board_assignments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		iop TEXT NOT NULL,
		variant TEXT NOT NULL,
		ports JSON NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) SaveAssignment(ctx context.Context, board types.BoardAssignment) (uuid.UUID, error) {
	portsJSON, err := json.Marshal(board.Ports)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal ports: %w", err)
	}

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO board_assignments (id, name, iop, variant, ports, enabled)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT (name)
		DO UPDATE SET
			iop = excluded.iop,
			variant = excluded.variant,
			ports = excluded.ports,
			enabled = excluded.enabled,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, uuid.NewString(), board.Name, board.IOP, board.Variant, string(portsJSON)).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert assignment: %w", err)
	}

	return uuid.Parse(id)
}

func (s *SQLiteStore) LoadAllAssignments(ctx context.Context) ([]types.BoardAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, iop, variant, ports
		FROM board_assignments
		WHERE enabled = 1
		ORDER BY rowid
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

func (s *SQLiteStore) DeleteAssignment(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM board_assignments WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}
