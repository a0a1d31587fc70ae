// Package postgres implements the admin and product repos on PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/storefront"
	"github.com/sagarc03/storefront/database/internal"
)

const uniqueViolation = "23505"

func pgxIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// wrapErr maps driver errors onto the storefront sentinels.
func wrapErr(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, storefront.ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, storefront.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// nullTime lets the database default a zero timestamp to NOW().
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type adminRepo struct {
	pool      *pgxpool.Pool
	tableName string
}

const adminColumns = `id, name, email, password_hash, role, is_active, picture, last_login_at, created_at, updated_at`

func scanAdmin(row pgx.Row) (storefront.Admin, error) {
	var a storefront.Admin
	var role string

	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.IsActive, &a.Picture, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return storefront.Admin{}, err
	}
	a.Role = storefront.Role(role)
	return a, nil
}

func (r *adminRepo) Create(ctx context.Context, a storefront.Admin) (storefront.Admin, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, password_hash, role, is_active, picture, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()), COALESCE($10, NOW()))
		RETURNING %s
	`, r.tableName, adminColumns)

	created, err := scanAdmin(r.pool.QueryRow(ctx, query,
		a.ID, a.Name, strings.ToLower(a.Email), a.PasswordHash, string(a.Role), a.IsActive, a.Picture,
		a.LastLoginAt, nullTime(a.CreatedAt), nullTime(a.UpdatedAt),
	))
	if err != nil {
		return storefront.Admin{}, wrapErr("create admin", err)
	}
	return created, nil
}

func (r *adminRepo) FindByID(ctx context.Context, id uuid.UUID) (storefront.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, adminColumns, r.tableName)

	a, err := scanAdmin(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return storefront.Admin{}, wrapErr("find admin", err)
	}
	return a, nil
}

func (r *adminRepo) FindByEmail(ctx context.Context, email string) (storefront.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1`, adminColumns, r.tableName)

	a, err := scanAdmin(r.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return storefront.Admin{}, wrapErr("find admin by email", err)
	}
	return a, nil
}

func (r *adminRepo) Update(ctx context.Context, a storefront.Admin) (storefront.Admin, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, email = $3, password_hash = $4, role = $5, is_active = $6, picture = $7,
			last_login_at = $8, updated_at = COALESCE($9, NOW())
		WHERE id = $1
		RETURNING %s
	`, r.tableName, adminColumns)

	updated, err := scanAdmin(r.pool.QueryRow(ctx, query,
		a.ID, a.Name, strings.ToLower(a.Email), a.PasswordHash, string(a.Role), a.IsActive, a.Picture,
		a.LastLoginAt, nullTime(a.UpdatedAt),
	))
	if err != nil {
		return storefront.Admin{}, wrapErr("update admin", err)
	}
	return updated, nil
}

func (r *adminRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, r.tableName, "delete admin", id)
}

func (r *adminRepo) List(ctx context.Context, q storefront.AdminQuery) (storefront.Page[storefront.Admin], error) {
	q.Pagination = q.Pagination.Normalize()
	filter := internal.AdminFilter(internal.Postgres, q)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, r.tableName, filter.WhereClause())
	if err := r.pool.QueryRow(ctx, countQuery, filter.Args()...).Scan(&total); err != nil {
		return storefront.Page[storefront.Admin]{}, fmt.Errorf("list admins: count: %w", err)
	}

	page, args := filter.Page(q.Pagination)
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY created_at DESC, id ASC %s`, adminColumns, r.tableName, filter.WhereClause(), page)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return storefront.Page[storefront.Admin]{}, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	items := make([]storefront.Admin, 0, q.Limit)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return storefront.Page[storefront.Admin]{}, fmt.Errorf("list admins: scan: %w", err)
		}
		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		return storefront.Page[storefront.Admin]{}, fmt.Errorf("list admins: rows: %w", err)
	}

	return storefront.NewPage(items, total, q.Pagination), nil
}

type productRepo struct {
	pool      *pgxpool.Pool
	tableName string
}

const productColumns = `id, name, description, price, category, brand, sizes, colors, stock, status, featured,
	main_image, additional_images, created_by, created_at, updated_at`

func scanProduct(row pgx.Row) (storefront.Product, error) {
	var p storefront.Product
	var status string

	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Brand, &p.Sizes, &p.Colors,
		&p.Stock, &status, &p.Featured, &p.MainImage, &p.AdditionalImages, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return storefront.Product{}, err
	}
	p.Status = storefront.ProductStatus(status)
	p.Sizes = nonNil(p.Sizes)
	p.Colors = nonNil(p.Colors)
	p.AdditionalImages = nonNil(p.AdditionalImages)
	return p, nil
}

func (r *productRepo) Create(ctx context.Context, p storefront.Product) (storefront.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, price, category, brand, sizes, colors, stock, status, featured,
			main_image, additional_images, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, COALESCE($15, NOW()), COALESCE($16, NOW()))
		RETURNING %s
	`, r.tableName, productColumns)

	created, err := scanProduct(r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Brand, nonNil(p.Sizes), nonNil(p.Colors),
		p.Stock, string(p.Status), p.Featured, p.MainImage, nonNil(p.AdditionalImages), p.CreatedBy,
		nullTime(p.CreatedAt), nullTime(p.UpdatedAt),
	))
	if err != nil {
		return storefront.Product{}, wrapErr("create product", err)
	}
	return created, nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (storefront.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, productColumns, r.tableName)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return storefront.Product{}, wrapErr("find product", err)
	}
	return p, nil
}

func (r *productRepo) Update(ctx context.Context, p storefront.Product) (storefront.Product, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, description = $3, price = $4, category = $5, brand = $6, sizes = $7, colors = $8,
			stock = $9, status = $10, featured = $11, main_image = $12, additional_images = $13,
			updated_at = COALESCE($14, NOW())
		WHERE id = $1
		RETURNING %s
	`, r.tableName, productColumns)

	updated, err := scanProduct(r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Brand, nonNil(p.Sizes), nonNil(p.Colors),
		p.Stock, string(p.Status), p.Featured, p.MainImage, nonNil(p.AdditionalImages), nullTime(p.UpdatedAt),
	))
	if err != nil {
		return storefront.Product{}, wrapErr("update product", err)
	}
	return updated, nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, r.tableName, "delete product", id)
}

func (r *productRepo) List(ctx context.Context, q storefront.ProductQuery) (storefront.Page[storefront.Product], error) {
	q.Pagination = q.Pagination.Normalize()

	order, err := internal.ProductOrder(q)
	if err != nil {
		return storefront.Page[storefront.Product]{}, fmt.Errorf("list products: %w", err)
	}

	filter := internal.ProductFilter(internal.Postgres, q)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, r.tableName, filter.WhereClause())
	if err := r.pool.QueryRow(ctx, countQuery, filter.Args()...).Scan(&total); err != nil {
		return storefront.Page[storefront.Product]{}, fmt.Errorf("list products: count: %w", err)
	}

	page, args := filter.Page(q.Pagination)
	query := fmt.Sprintf(`SELECT %s FROM %s %s %s %s`, productColumns, r.tableName, filter.WhereClause(), order, page)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return storefront.Page[storefront.Product]{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]storefront.Product, 0, q.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return storefront.Page[storefront.Product]{}, fmt.Errorf("list products: scan: %w", err)
		}
		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		return storefront.Page[storefront.Product]{}, fmt.Errorf("list products: rows: %w", err)
	}

	return storefront.NewPage(items, total, q.Pagination), nil
}

func (r *productRepo) ListImages(ctx context.Context) ([]storefront.AssetDescriptor, error) {
	query := fmt.Sprintf(`SELECT main_image, additional_images FROM %s`, r.tableName)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := []storefront.AssetDescriptor{}
	for rows.Next() {
		var p storefront.Product
		if err := rows.Scan(&p.MainImage, &p.AdditionalImages); err != nil {
			return nil, fmt.Errorf("list images: scan: %w", err)
		}
		images = append(images, p.Images()...)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list images: rows: %w", err)
	}

	return images, nil
}

func deleteByID(ctx context.Context, pool *pgxpool.Pool, tableName, op string, id uuid.UUID) error {
	result, err := pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tableName), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storefront.ErrNotFound)
	}

	return nil
}
