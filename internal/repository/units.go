package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"franchise-onboarding/internal/common/database"
	"franchise-onboarding/internal/models"
)

var unitColumns = []string{
	"group_code", "group_name", "registry_id", "fantasy_name",
	"store_model", "store_phase", "store_imp_phase",
	"email", "phone", "instagram_profile",
	"street", "number", "complement", "neighborhood", "city", "state", "uf", "postal_code",
	"operation_mon", "operation_tue", "operation_wed", "operation_thu",
	"operation_fri", "operation_sat", "operation_sun", "operation_hol",
	"has_parking", "parking_spots", "has_partner_parking", "partner_parking_address",
	"purchases_active", "sales_active", "is_active",
}

var upsertUnitSQL = upsertSQL("units", "group_code", unitColumns)

// UnitStore persists units keyed by group code.
type UnitStore struct {
	db *sql.DB
}

func NewUnitStore(db *sql.DB) *UnitStore {
	return &UnitStore{db: db}
}

// FindByGroupCode returns ErrNotFound when no unit has the code.
func (s *UnitStore) FindByGroupCode(ctx context.Context, groupCode int) (*models.Unit, error) {
	return s.findOne(ctx, `WHERE group_code = $1`, groupCode)
}

// FindByID returns ErrNotFound when the id is unknown.
func (s *UnitStore) FindByID(ctx context.Context, id string) (*models.Unit, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, `WHERE id = $1`, id)
}

func (s *UnitStore) findOne(ctx context.Context, where string, arg any) (*models.Unit, error) {
	var (
		u                   models.Unit
		registryID, fantasy sql.NullString
		storePhase          sql.NullString
	)
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, group_code, group_name, registry_id, fantasy_name, store_phase, is_active
		FROM units `+where, arg).Scan(
		&u.ID, &u.GroupCode, &u.GroupName, &registryID, &fantasy, &storePhase, &u.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query unit: %w", err)
	}
	u.RegistryID = str(registryID)
	u.FantasyName = str(fantasy)
	u.StorePhase = str(storePhase)
	return &u, nil
}

// Upsert inserts the unit or updates the row with the same group code. It
// returns the row id and whether a new row was created.
func (s *UnitStore) Upsert(ctx context.Context, u models.Unit) (string, bool, error) {
	args := append([]any{uuid.New().String()}, unitValues(u)...)

	var (
		id       string
		inserted bool
	)
	if err := database.Conn(ctx, s.db).QueryRowContext(ctx, upsertUnitSQL, args...).Scan(&id, &inserted); err != nil {
		return "", false, fmt.Errorf("upsert unit: %w", err)
	}
	return id, inserted, nil
}

func unitValues(u models.Unit) []any {
	return []any{
		u.GroupCode, u.GroupName, nullable(u.RegistryID), nullable(u.FantasyName),
		nullable(u.StoreModel), nullable(u.StorePhase), nullable(u.StoreImpPhase),
		nullable(u.Email), nullable(u.Phone), nullable(u.InstagramProfile),
		nullable(u.Address.Street), nullable(u.Address.Number), nullable(u.Address.Complement),
		nullable(u.Address.Neighborhood), nullable(u.Address.City), nullable(u.Address.State),
		nullable(u.Address.UF), nullable(u.Address.PostalCode),
		nullable(u.Hours.Mon), nullable(u.Hours.Tue), nullable(u.Hours.Wed), nullable(u.Hours.Thu),
		nullable(u.Hours.Fri), nullable(u.Hours.Sat), nullable(u.Hours.Sun), nullable(u.Hours.Hol),
		u.HasParking, u.ParkingSpots, u.HasPartnerParking, nullable(u.PartnerParkingAddress),
		u.PurchasesActive, u.SalesActive, u.IsActive,
	}
}
