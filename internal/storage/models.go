package storage

import (
	"context"
	"errors"

	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("assignment not found")

// AssignmentStore persists board assignments so attached adapters survive a
// restart. Assignments are keyed by board name.
type AssignmentStore interface {
	SaveAssignment(ctx context.Context, board types.BoardAssignment) (uuid.UUID, error)
	LoadAllAssignments(ctx context.Context) ([]types.BoardAssignment, error)
	DeleteAssignment(ctx context.Context, name string) error
	Close()
}
