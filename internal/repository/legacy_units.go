package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"franchise-onboarding/internal/common/database"
	"franchise-onboarding/internal/models"
)

// LegacyUnitStore reads the catalog of valid group codes.
type LegacyUnitStore struct {
	db *sql.DB
}

func NewLegacyUnitStore(db *sql.DB) *LegacyUnitStore {
	return &LegacyUnitStore{db: db}
}

func (s *LegacyUnitStore) Exists(ctx context.Context, groupCode int) (bool, error) {
	var exists bool
	err := database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM legacy_units WHERE group_code = $1)`, groupCode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check legacy unit: %w", err)
	}
	return exists, nil
}

// Search matches a code prefix or a case-insensitive name substring.
func (s *LegacyUnitStore) Search(ctx context.Context, query string, limit int) ([]models.LegacyUnit, error) {
	query = strings.TrimSpace(query)
	pattern := escapeLike(strings.ToLower(query))

	rows, err := database.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT group_code, group_name, city, uf
		FROM legacy_units
		WHERE group_code::text LIKE $1 || '%' OR lower(group_name) LIKE '%' || $1 || '%'
		ORDER BY group_code
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search legacy units: %w", err)
	}
	defer rows.Close()

	results := make([]models.LegacyUnit, 0, limit)
	for rows.Next() {
		var (
			u        models.LegacyUnit
			city, uf sql.NullString
		)
		if err := rows.Scan(&u.GroupCode, &u.GroupName, &city, &uf); err != nil {
			return nil, fmt.Errorf("scan legacy unit: %w", err)
		}
		u.City = str(city)
		u.UF = str(uf)
		results = append(results, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legacy units: %w", err)
	}
	return results, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
