package postgres

import (
	"context"
	"database/sql"

	"deedapi/internal/model"
	"deedapi/internal/repository"
)

// CooperativePostgres is a PostgreSQL implementation of repository.CooperativeRepository.
type CooperativePostgres struct {
	db *sql.DB
}

// NewCooperativePostgres creates a new CooperativePostgres repository.
func NewCooperativePostgres(db *sql.DB) *CooperativePostgres {
	return &CooperativePostgres{db: db}
}

var _ repository.CooperativeRepository = (*CooperativePostgres)(nil)

const cooperativeColumns = `id, name, organisation_number, address, postal_code, city,
	administrator_name, administrator_person_number, administrator_email,
	accounting_firm_name, accounting_firm_email, created_by, created_at`

func scanCooperative(row interface{ Scan(...any) error }) (*model.HousingCooperative, error) {
	var c model.HousingCooperative
	var firmName, firmEmail sql.NullString
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.OrganisationNumber,
		&c.Address,
		&c.PostalCode,
		&c.City,
		&c.AdministratorName,
		&c.AdministratorPersonNumber,
		&c.AdministratorEmail,
		&firmName,
		&firmEmail,
		&c.CreatedBy,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.AccountingFirmName = firmName.String
	c.AccountingFirmEmail = firmEmail.String
	return &c, nil
}

// Create inserts a new housing cooperative row and returns the stored record.
func (r *CooperativePostgres) Create(ctx context.Context, coop *model.HousingCooperative) (*model.HousingCooperative, error) {
	q := `
		INSERT INTO housing_cooperatives (id, name, organisation_number, address, postal_code, city,
			administrator_name, administrator_person_number, administrator_email, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + cooperativeColumns
	row := r.db.QueryRowContext(ctx, q,
		coop.ID,
		coop.Name,
		coop.OrganisationNumber,
		coop.Address,
		coop.PostalCode,
		coop.City,
		coop.AdministratorName,
		coop.AdministratorPersonNumber,
		coop.AdministratorEmail,
		coop.CreatedBy,
		coop.CreatedAt,
	)
	return scanCooperative(row)
}

// FindByID fetches a single cooperative by its ID.
func (r *CooperativePostgres) FindByID(ctx context.Context, id string) (*model.HousingCooperative, error) {
	q := `SELECT ` + cooperativeColumns + ` FROM housing_cooperatives WHERE id = $1`
	return scanCooperative(r.db.QueryRowContext(ctx, q, id))
}

// UpdateAdministrator overwrites the cooperative's administrator contact fields.
func (r *CooperativePostgres) UpdateAdministrator(ctx context.Context, id, name, personNumber, email string) error {
	const q = `
		UPDATE housing_cooperatives
		SET administrator_name = $2, administrator_person_number = $3, administrator_email = $4
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, id, name, personNumber, email)
	return err
}

// UpdateAccountingFirm overwrites the cooperative's accounting-firm fields.
func (r *CooperativePostgres) UpdateAccountingFirm(ctx context.Context, id, firmName, firmEmail string) error {
	const q = `
		UPDATE housing_cooperatives
		SET accounting_firm_name = $2, accounting_firm_email = $3
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, id, firmName, firmEmail)
	return err
}
