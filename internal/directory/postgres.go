package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

const userColumns = `id, tenant_id, full_name, email, role, status, permissions, permission_levels, created_at, updated_at`

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Filter(ctx context.Context, f Filter) ([]models.TenantUser, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM tenant_users WHERE tenant_id = $1`
	args := []interface{}{f.TenantID}
	argIdx := 2

	if f.Role != "" {
		query += fmt.Sprintf(" AND role = $%d", argIdx)
		args = append(args, f.Role)
		argIdx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}
	query += " ORDER BY created_at, id"

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("filter staff", err)
	}
	defer rows.Close()

	users := make([]models.TenantUser, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify("scan staff", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("filter staff", err)
	}
	return users, nil
}

func (p *Postgres) Get(ctx context.Context, tenantID, id uuid.UUID) (models.TenantUser, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM tenant_users WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	)
	u, err := scanUser(row)
	if err != nil {
		return models.TenantUser{}, classify("get staff", err)
	}
	return u, nil
}

func (p *Postgres) Create(ctx context.Context, u models.TenantUser) (models.TenantUser, error) {
	if err := validateRecord(u); err != nil {
		return models.TenantUser{}, err
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	perms, levels, err := encodePermissions(u)
	if err != nil {
		return models.TenantUser{}, err
	}

	row := p.db.QueryRow(ctx,
		`INSERT INTO tenant_users (id, tenant_id, full_name, email, role, status, permissions, permission_levels)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userColumns,
		u.ID, u.TenantID, u.FullName, u.Email, u.Role, u.Status, perms, levels,
	)
	created, err := scanUser(row)
	if err != nil {
		return models.TenantUser{}, classify("create staff", err)
	}
	return created, nil
}

func (p *Postgres) Update(ctx context.Context, u models.TenantUser) (models.TenantUser, error) {
	if err := validateRecord(u); err != nil {
		return models.TenantUser{}, err
	}

	perms, levels, err := encodePermissions(u)
	if err != nil {
		return models.TenantUser{}, err
	}

	row := p.db.QueryRow(ctx,
		`UPDATE tenant_users
		 SET full_name = $3, email = $4, role = $5, status = $6,
		     permissions = $7, permission_levels = $8, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING `+userColumns,
		u.ID, u.TenantID, u.FullName, u.Email, u.Role, u.Status, perms, levels,
	)
	updated, err := scanUser(row)
	if err != nil {
		return models.TenantUser{}, classify("update staff", err)
	}
	return updated, nil
}

func (p *Postgres) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, "DELETE FROM tenant_users WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return classify("delete staff", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.TenantUser, error) {
	var u models.TenantUser
	var permsJSON, levelsJSON []byte
	err := row.Scan(&u.ID, &u.TenantID, &u.FullName, &u.Email, &u.Role, &u.Status,
		&permsJSON, &levelsJSON, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.TenantUser{}, err
	}

	if err := json.Unmarshal(permsJSON, &u.Permissions); err != nil {
		return models.TenantUser{}, fmt.Errorf("decode permissions of %s: %w", u.ID, err)
	}
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	if len(levelsJSON) > 0 {
		if err := json.Unmarshal(levelsJSON, &u.PermissionLevels); err != nil {
			return models.TenantUser{}, fmt.Errorf("decode permission levels of %s: %w", u.ID, err)
		}
	}
	return u, nil
}

// encodePermissions renders the stored shape: a flat JSON array of ids, and
// the optional level map (SQL NULL when absent).
func encodePermissions(u models.TenantUser) ([]byte, []byte, error) {
	ids := u.Permissions
	if ids == nil {
		ids = []string{}
	}
	perms, err := json.Marshal(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("encode permissions: %w", err)
	}
	if u.PermissionLevels == nil {
		return perms, nil, nil
	}
	levels, err := json.Marshal(u.PermissionLevels)
	if err != nil {
		return nil, nil, fmt.Errorf("encode permission levels: %w", err)
	}
	return perms, levels, nil
}

func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &ValidationError{Field: "email", Message: "email already in use"}
		case "23502", "23514", "22P02":
			return &ValidationError{Field: pgErr.ColumnName, Message: pgErr.Message}
		case "40001", "40P01", "53300", "57P01":
			return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
