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

var franchiseeColumns = []string{
	"tax_id", "full_name", "birth_date", "email", "phone", "nationality", "owner_type",
	"education", "previous_profession", "previous_salary_range", "was_entrepreneur",
	"availability", "discovery_source", "was_referred", "referrer_name", "referrer_unit_code",
	"has_other_activities", "other_activities_description", "receives_prolabore", "prolabore_value",
	"profile_image", "instagram",
	"street", "number", "complement", "neighborhood", "city", "state", "uf", "postal_code",
	"system_term_accepted", "confidentiality_term_accepted", "lgpd_term_accepted",
	"is_in_contract", "is_active_system",
}

var upsertFranchiseeSQL = upsertSQL("franchisees", "tax_id", franchiseeColumns)

// FranchiseeStore persists persons keyed by tax id.
type FranchiseeStore struct {
	db *sql.DB
}

func NewFranchiseeStore(db *sql.DB) *FranchiseeStore {
	return &FranchiseeStore{db: db}
}

// FindByTaxID returns ErrNotFound when no person has the tax id.
func (s *FranchiseeStore) FindByTaxID(ctx context.Context, taxID string) (*models.Franchisee, error) {
	return s.findOne(ctx, `WHERE tax_id = $1`, taxID)
}

// FindByID returns ErrNotFound when the id is unknown.
func (s *FranchiseeStore) FindByID(ctx context.Context, id string) (*models.Franchisee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, `WHERE id = $1`, id)
}

func (s *FranchiseeStore) findOne(ctx context.Context, where string, arg any) (*models.Franchisee, error) {
	var (
		f                models.Franchisee
		birthDate, email sql.NullString
		phone, instagram sql.NullString
		city, uf, postal sql.NullString
	)
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, tax_id, full_name, birth_date, email, phone, instagram,
		       city, uf, postal_code, is_active_system
		FROM franchisees `+where, arg).Scan(
		&f.ID, &f.TaxID, &f.FullName, &birthDate, &email, &phone, &instagram,
		&city, &uf, &postal, &f.IsActiveSystem,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query franchisee: %w", err)
	}
	f.BirthDate = str(birthDate)
	f.Email = str(email)
	f.Phone = str(phone)
	f.Instagram = str(instagram)
	f.Address.City = str(city)
	f.Address.UF = str(uf)
	f.Address.PostalCode = str(postal)
	return &f, nil
}

// Upsert inserts the person or updates the row with the same tax id. It
// returns the row id and whether a new row was created.
func (s *FranchiseeStore) Upsert(ctx context.Context, f models.Franchisee) (string, bool, error) {
	args := append([]any{uuid.New().String()}, franchiseeValues(f)...)

	var (
		id       string
		inserted bool
	)
	if err := database.Conn(ctx, s.db).QueryRowContext(ctx, upsertFranchiseeSQL, args...).Scan(&id, &inserted); err != nil {
		return "", false, fmt.Errorf("upsert franchisee: %w", err)
	}
	return id, inserted, nil
}

func franchiseeValues(f models.Franchisee) []any {
	return []any{
		f.TaxID, f.FullName, nullable(f.BirthDate), nullable(f.Email), nullable(f.Phone),
		nullable(f.Nationality), nullable(f.OwnerType),
		nullable(f.Education), nullable(f.PreviousProfession), nullable(f.PreviousSalaryRange), f.WasEntrepreneur,
		nullable(f.Availability), nullable(f.DiscoverySource), f.WasReferred, nullable(f.ReferrerName), nullable(f.ReferrerUnitCode),
		f.HasOtherActivities, nullable(f.OtherActivitiesDescription), f.ReceivesProlabore, f.ProlaboreValue,
		nullable(f.ProfileImage), nullable(f.Instagram),
		nullable(f.Address.Street), nullable(f.Address.Number), nullable(f.Address.Complement),
		nullable(f.Address.Neighborhood), nullable(f.Address.City), nullable(f.Address.State),
		nullable(f.Address.UF), nullable(f.Address.PostalCode),
		f.SystemTermAccepted, f.ConfidentialityTermAccepted, f.LGPDTermAccepted,
		f.IsInContract, f.IsActiveSystem,
	}
}
