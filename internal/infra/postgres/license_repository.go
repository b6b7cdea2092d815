package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

const licenseColumns = `id, holder, tier, issued_at, expires_at, project_limit, features, revoked, revoked_at`

// LicenseRepository implements license.Repository using PostgreSQL.
// Rows are never deleted; revocation flips a flag.
type LicenseRepository struct {
	db *sql.DB
}

// NewLicenseRepository creates a new PostgreSQL license repository.
func NewLicenseRepository(db *sql.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

// Create persists a newly issued license.
func (r *LicenseRepository) Create(ctx context.Context, lic *license.License) error {
	query := `
		INSERT INTO licenses (
			id, holder, tier, issued_at, expires_at, project_limit, features, revoked, revoked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var revokedAt sql.NullTime
	if lic.Revoked() {
		revokedAt = sql.NullTime{Time: lic.RevokedAt(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		lic.ID().String(),
		lic.Holder(),
		lic.Tier().String(),
		lic.IssuedAt(),
		lic.ExpiresAt(),
		lic.ProjectLimit(),
		featuresToArray(lic.Features()),
		lic.Revoked(),
		revokedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return storeErr("license.create", err)
	}

	return nil
}

// GetByID retrieves a license by its ID.
func (r *LicenseRepository) GetByID(ctx context.Context, id shared.ID) (*license.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id.String())
	return r.scanLicense(row)
}

// GetByHolder retrieves the most recently issued license for a holder.
func (r *LicenseRepository) GetByHolder(ctx context.Context, holder string) (*license.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses
		WHERE holder = $1
		ORDER BY issued_at DESC
		LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, holder)
	return r.scanLicense(row)
}

// Update persists field changes of an existing license.
func (r *LicenseRepository) Update(ctx context.Context, lic *license.License) error {
	query := `
		UPDATE licenses SET
			expires_at = $2,
			project_limit = $3,
			features = $4,
			revoked = $5,
			revoked_at = $6
		WHERE id = $1`

	var revokedAt sql.NullTime
	if lic.Revoked() {
		revokedAt = sql.NullTime{Time: lic.RevokedAt(), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		lic.ID().String(),
		lic.ExpiresAt(),
		lic.ProjectLimit(),
		featuresToArray(lic.Features()),
		lic.Revoked(),
		revokedAt,
	)
	if err != nil {
		return storeErr("license.update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("license.update", err)
	}
	if rowsAffected == 0 {
		return license.ErrNotFound
	}

	return nil
}

// Revoke marks a license revoked. Revoking an already revoked license is a
// no-op that preserves the original revocation time.
func (r *LicenseRepository) Revoke(ctx context.Context, id shared.ID) error {
	query := `
		UPDATE licenses
		SET revoked = TRUE, revoked_at = NOW()
		WHERE id = $1 AND revoked = FALSE`

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return storeErr("license.revoke", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("license.revoke", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Zero rows means either already revoked (fine) or missing.
	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM licenses WHERE id = $1)`, id.String()).Scan(&exists)
	if err != nil {
		return storeErr("license.revoke", err)
	}
	if !exists {
		return license.ErrNotFound
	}
	return nil
}

// List returns all licenses ordered by issuance time descending.
func (r *LicenseRepository) List(ctx context.Context) ([]*license.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses ORDER BY issued_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("license.list", err)
	}
	defer rows.Close()

	var licenses []*license.License
	for rows.Next() {
		lic, err := r.scanLicenseFromRows(rows)
		if err != nil {
			return nil, err
		}
		licenses = append(licenses, lic)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("license.list", err)
	}

	return licenses, nil
}

// scanLicense scans a single row into a License.
func (r *LicenseRepository) scanLicense(row *sql.Row) (*license.License, error) {
	var fields licenseScanFields
	err := row.Scan(
		&fields.id,
		&fields.holder,
		&fields.tier,
		&fields.issuedAt,
		&fields.expiresAt,
		&fields.projectLimit,
		&fields.features,
		&fields.revoked,
		&fields.revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, license.ErrNotFound
		}
		return nil, storeErr("license.get", err)
	}

	return r.reconstructLicense(fields), nil
}

// scanLicenseFromRows scans a row from Rows into a License.
func (r *LicenseRepository) scanLicenseFromRows(rows *sql.Rows) (*license.License, error) {
	var fields licenseScanFields
	err := rows.Scan(
		&fields.id,
		&fields.holder,
		&fields.tier,
		&fields.issuedAt,
		&fields.expiresAt,
		&fields.projectLimit,
		&fields.features,
		&fields.revoked,
		&fields.revokedAt,
	)
	if err != nil {
		return nil, storeErr("license.scan", err)
	}

	return r.reconstructLicense(fields), nil
}

// reconstructLicense creates a License from scanned fields.
func (r *LicenseRepository) reconstructLicense(f licenseScanFields) *license.License {
	return license.Reconstitute(
		shared.IDFromUUID(f.id),
		f.holder,
		plan.Tier(f.tier),
		f.issuedAt,
		f.expiresAt,
		f.projectLimit,
		featuresFromArray(f.features),
		f.revoked,
		nullTimeValue(f.revokedAt),
	)
}

// licenseScanFields holds scanned fields from database.
type licenseScanFields struct {
	id           uuid.UUID
	holder       string
	tier         string
	issuedAt     time.Time
	expiresAt    time.Time
	projectLimit int
	features     pq.StringArray
	revoked      bool
	revokedAt    sql.NullTime
}
