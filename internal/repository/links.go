package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"franchise-onboarding/internal/common/database"
)

// LinkStore persists person-unit associations.
type LinkStore struct {
	db *sql.DB
}

func NewLinkStore(db *sql.DB) *LinkStore {
	return &LinkStore{db: db}
}

func (s *LinkStore) Exists(ctx context.Context, franchiseeID, unitID string) (bool, error) {
	var exists bool
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM franchisee_units
			WHERE franchisee_id = $1 AND unit_id = $2
		)`, franchiseeID, unitID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check link: %w", err)
	}
	return exists, nil
}

// Ensure creates the link when absent and reports whether it did. The unique
// constraint on the pair settles concurrent callers.
func (s *LinkStore) Ensure(ctx context.Context, franchiseeID, unitID string) (bool, error) {
	exists, err := s.Exists(ctx, franchiseeID, unitID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO franchisee_units (id, franchisee_id, unit_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (franchisee_id, unit_id) DO NOTHING`,
		uuid.New().String(), franchiseeID, unitID)
	if err != nil {
		return false, fmt.Errorf("insert link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert link: %w", err)
	}
	return n == 1, nil
}
