// Package sqlite implements the admin and product repos using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sagarc03/storefront"
	"github.com/sagarc03/storefront/database/internal"
)

// timeFormat is fixed width so that text timestamps sort chronologically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func isUniqueViolation(err error) bool {
	var se *sqlitedriver.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		strings.Contains(se.Error(), "UNIQUE constraint failed")
}

func count(ctx context.Context, db *sql.DB, query string, args []any) (int, error) {
	var total int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

type adminRepo struct {
	db        *sql.DB
	tableName string
}

const adminColumns = `id, name, email, password_hash, role, is_active, picture, last_login_at, created_at, updated_at`

func scanAdmin(row rowScanner) (storefront.Admin, error) {
	var a storefront.Admin
	var idStr, role, picture, createdAt, updatedAt string
	var lastLoginAt sql.NullString

	err := row.Scan(&idStr, &a.Name, &a.Email, &a.PasswordHash, &role, &a.IsActive, &picture, &lastLoginAt, &createdAt, &updatedAt)
	if err != nil {
		return storefront.Admin{}, err
	}

	a.ID, err = uuid.Parse(idStr)
	if err != nil {
		return storefront.Admin{}, fmt.Errorf("parse uuid: %w", err)
	}
	a.Role = storefront.Role(role)

	if err := json.Unmarshal([]byte(picture), &a.Picture); err != nil {
		return storefront.Admin{}, fmt.Errorf("decode picture: %w", err)
	}

	if lastLoginAt.Valid {
		t, err := parseTime(lastLoginAt.String)
		if err != nil {
			return storefront.Admin{}, fmt.Errorf("parse last_login_at: %w", err)
		}
		a.LastLoginAt = &t
	}

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return storefront.Admin{}, fmt.Errorf("parse created_at: %w", err)
	}

	a.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return storefront.Admin{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return a, nil
}

func (r *adminRepo) get(ctx context.Context, op, column string, value any) (storefront.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`, adminColumns, quoteIdentifier(r.tableName), column) //nolint:gosec // G201: table name is validated

	a, err := scanAdmin(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storefront.Admin{}, fmt.Errorf("%s: %w", op, storefront.ErrNotFound)
		}
		return storefront.Admin{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func (r *adminRepo) Create(ctx context.Context, a storefront.Admin) (storefront.Admin, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	picture, err := json.Marshal(a.Picture)
	if err != nil {
		return storefront.Admin{}, fmt.Errorf("create admin: encode picture: %w", err)
	}

	var lastLoginAt sql.NullString
	if a.LastLoginAt != nil {
		lastLoginAt = sql.NullString{String: formatTime(*a.LastLoginAt), Valid: true}
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName), adminColumns)

	_, err = r.db.ExecContext(ctx, query,
		a.ID.String(), a.Name, strings.ToLower(a.Email), a.PasswordHash, string(a.Role), a.IsActive,
		string(picture), lastLoginAt, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storefront.Admin{}, fmt.Errorf("create admin: %w", storefront.ErrConflict)
		}
		return storefront.Admin{}, fmt.Errorf("create admin: %w", err)
	}

	return r.get(ctx, "create admin", "id", a.ID.String())
}

func (r *adminRepo) FindByID(ctx context.Context, id uuid.UUID) (storefront.Admin, error) {
	return r.get(ctx, "find admin", "id", id.String())
}

func (r *adminRepo) FindByEmail(ctx context.Context, email string) (storefront.Admin, error) {
	return r.get(ctx, "find admin by email", "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *adminRepo) Update(ctx context.Context, a storefront.Admin) (storefront.Admin, error) {
	picture, err := json.Marshal(a.Picture)
	if err != nil {
		return storefront.Admin{}, fmt.Errorf("update admin: encode picture: %w", err)
	}

	var lastLoginAt sql.NullString
	if a.LastLoginAt != nil {
		lastLoginAt = sql.NullString{String: formatTime(*a.LastLoginAt), Valid: true}
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET name = ?, email = ?, password_hash = ?, role = ?, is_active = ?, picture = ?, last_login_at = ?, updated_at = ?
		WHERE id = ?`, quoteIdentifier(r.tableName))

	result, err := r.db.ExecContext(ctx, query,
		a.Name, strings.ToLower(a.Email), a.PasswordHash, string(a.Role), a.IsActive,
		string(picture), lastLoginAt, formatTime(a.UpdatedAt), a.ID.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storefront.Admin{}, fmt.Errorf("update admin: %w", storefront.ErrConflict)
		}
		return storefront.Admin{}, fmt.Errorf("update admin: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storefront.Admin{}, fmt.Errorf("update admin: %w", err)
	}
	if rows == 0 {
		return storefront.Admin{}, fmt.Errorf("update admin: %w", storefront.ErrNotFound)
	}

	return r.get(ctx, "update admin", "id", a.ID.String())
}

func (r *adminRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated
	return deleteByID(ctx, r.db, query, "delete admin", id)
}

func (r *adminRepo) List(ctx context.Context, q storefront.AdminQuery) (storefront.Page[storefront.Admin], error) {
	q.Pagination = q.Pagination.Normalize()
	filter := internal.AdminFilter(internal.SQLite, q)
	table := quoteIdentifier(r.tableName)

	total, err := count(ctx, r.db, fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, table, filter.WhereClause()), filter.Args())
	if err != nil {
		return storefront.Page[storefront.Admin]{}, fmt.Errorf("list admins: count: %w", err)
	}

	page, args := filter.Page(q.Pagination)
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY created_at DESC, id ASC %s`, adminColumns, table, filter.WhereClause(), page) //nolint:gosec // G201: built from validated parts

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return storefront.Page[storefront.Admin]{}, fmt.Errorf("list admins: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	db        *sql.DB
	tableName string
}

const productColumns = `id, name, description, price, category, brand, sizes, colors, stock, status, featured,
	main_image, additional_images, created_by, created_at, updated_at`

func scanProduct(row rowScanner) (storefront.Product, error) {
	var p storefront.Product
	var idStr, createdBy, status, sizes, colors, mainImage, additional, createdAt, updatedAt string

	err := row.Scan(&idStr, &p.Name, &p.Description, &p.Price, &p.Category, &p.Brand, &sizes, &colors,
		&p.Stock, &status, &p.Featured, &mainImage, &additional, &createdBy, &createdAt, &updatedAt)
	if err != nil {
		return storefront.Product{}, err
	}

	if p.ID, err = uuid.Parse(idStr); err != nil {
		return storefront.Product{}, fmt.Errorf("parse uuid: %w", err)
	}
	if p.CreatedBy, err = uuid.Parse(createdBy); err != nil {
		return storefront.Product{}, fmt.Errorf("parse created_by: %w", err)
	}
	p.Status = storefront.ProductStatus(status)

	for _, field := range []struct {
		name string
		raw  string
		dest any
	}{
		{"sizes", sizes, &p.Sizes},
		{"colors", colors, &p.Colors},
		{"main_image", mainImage, &p.MainImage},
		{"additional_images", additional, &p.AdditionalImages},
	} {
		if err := json.Unmarshal([]byte(field.raw), field.dest); err != nil {
			return storefront.Product{}, fmt.Errorf("decode %s: %w", field.name, err)
		}
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return storefront.Product{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return storefront.Product{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return p, nil
}

// productValues encodes the JSON columns of p.
type productValues struct {
	sizes, colors, mainImage, additional string
}

func encodeProduct(p storefront.Product) (productValues, error) {
	var v productValues
	for _, field := range []struct {
		dest *string
		src  any
	}{
		{&v.sizes, nonNil(p.Sizes)},
		{&v.colors, nonNil(p.Colors)},
		{&v.mainImage, p.MainImage},
		{&v.additional, nonNil(p.AdditionalImages)},
	} {
		b, err := json.Marshal(field.src)
		if err != nil {
			return productValues{}, err
		}
		*field.dest = string(b)
	}
	return v, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (r *productRepo) get(ctx context.Context, op string, id uuid.UUID) (storefront.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, productColumns, quoteIdentifier(r.tableName)) //nolint:gosec // G201: table name is validated

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storefront.Product{}, fmt.Errorf("%s: %w", op, storefront.ErrNotFound)
		}
		return storefront.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (r *productRepo) Create(ctx context.Context, p storefront.Product) (storefront.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	v, err := encodeProduct(p)
	if err != nil {
		return storefront.Product{}, fmt.Errorf("create product: encode: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName), productColumns)

	_, err = r.db.ExecContext(ctx, query,
		p.ID.String(), p.Name, p.Description, p.Price, p.Category, p.Brand, v.sizes, v.colors,
		p.Stock, string(p.Status), p.Featured, v.mainImage, v.additional, p.CreatedBy.String(),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storefront.Product{}, fmt.Errorf("create product: %w", storefront.ErrConflict)
		}
		return storefront.Product{}, fmt.Errorf("create product: %w", err)
	}

	return r.get(ctx, "create product", p.ID)
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (storefront.Product, error) {
	return r.get(ctx, "find product", id)
}

func (r *productRepo) Update(ctx context.Context, p storefront.Product) (storefront.Product, error) {
	v, err := encodeProduct(p)
	if err != nil {
		return storefront.Product{}, fmt.Errorf("update product: encode: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET name = ?, description = ?, price = ?, category = ?, brand = ?, sizes = ?, colors = ?, stock = ?,
			status = ?, featured = ?, main_image = ?, additional_images = ?, updated_at = ?
		WHERE id = ?`, quoteIdentifier(r.tableName))

	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Description, p.Price, p.Category, p.Brand, v.sizes, v.colors, p.Stock,
		string(p.Status), p.Featured, v.mainImage, v.additional, formatTime(p.UpdatedAt), p.ID.String(),
	)
	if err != nil {
		return storefront.Product{}, fmt.Errorf("update product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storefront.Product{}, fmt.Errorf("update product: %w", err)
	}
	if rows == 0 {
		return storefront.Product{}, fmt.Errorf("update product: %w", storefront.ErrNotFound)
	}

	return r.get(ctx, "update product", p.ID)
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated
	return deleteByID(ctx, r.db, query, "delete product", id)
}

func (r *productRepo) List(ctx context.Context, q storefront.ProductQuery) (storefront.Page[storefront.Product], error) {
	q.Pagination = q.Pagination.Normalize()

	order, err := internal.ProductOrder(q)
	if err != nil {
		return storefront.Page[storefront.Product]{}, fmt.Errorf("list products: %w", err)
	}

	filter := internal.ProductFilter(internal.SQLite, q)
	table := quoteIdentifier(r.tableName)

	total, err := count(ctx, r.db, fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, table, filter.WhereClause()), filter.Args())
	if err != nil {
		return storefront.Page[storefront.Product]{}, fmt.Errorf("list products: count: %w", err)
	}

	page, args := filter.Page(q.Pagination)
	query := fmt.Sprintf(`SELECT %s FROM %s %s %s %s`, productColumns, table, filter.WhereClause(), order, page) //nolint:gosec // G201: built from validated parts

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return storefront.Page[storefront.Product]{}, fmt.Errorf("list products: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	query := fmt.Sprintf(`SELECT main_image, additional_images FROM %s`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	images := []storefront.AssetDescriptor{}
	for rows.Next() {
		var mainRaw, additionalRaw string
		if err := rows.Scan(&mainRaw, &additionalRaw); err != nil {
			return nil, fmt.Errorf("list images: scan: %w", err)
		}

		var p storefront.Product
		if err := json.Unmarshal([]byte(mainRaw), &p.MainImage); err != nil {
			return nil, fmt.Errorf("list images: decode main_image: %w", err)
		}
		if err := json.Unmarshal([]byte(additionalRaw), &p.AdditionalImages); err != nil {
			return nil, fmt.Errorf("list images: decode additional_images: %w", err)
		}
		images = append(images, p.Images()...)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list images: rows: %w", err)
	}

	return images, nil
}

func deleteByID(ctx context.Context, db *sql.DB, query, op string, id uuid.UUID) error {
	result, err := db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, storefront.ErrNotFound)
	}

	return nil
}
