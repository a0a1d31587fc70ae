package storefront

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend names a storage destination for uploaded assets.
type Backend string

const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
)

func (b Backend) IsValid() bool {
	switch b {
	case BackendRemote, BackendLocal:
		return true
	default:
		return false
	}
}

// AssetDescriptor describes one stored file. Storage is the routing key for
// every later delete and always names the backend that accepted the bytes.
type AssetDescriptor struct {
	PublicID  string  `json:"public_id"`
	URL       string  `json:"url"`
	Storage   Backend `json:"storage"`
	LocalPath string  `json:"local_path,omitempty"`
}

// IsZero reports whether d refers to no stored file.
func (d AssetDescriptor) IsZero() bool {
	return d.PublicID == ""
}

// UploadFile is one file of a multipart request. Open may be called more than
// once so that a batch can be replayed against a second backend.
type UploadFile struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadSpec declares which multipart fields a request accepts and the limits
// that apply to them.
type UploadSpec struct {
	MainField       string
	AdditionalField string
	MaxAdditional   int
	MaxFileSize     int64
}

const (
	PictureMaxFileSize  = 5 << 20
	ProductMaxFileSize  = 10 << 20
	MaxAdditionalImages = 8
)

// AdminPictureUpload accepts a single "picture" file of at most 5MB.
func AdminPictureUpload() UploadSpec {
	return UploadSpec{MainField: "picture", MaxFileSize: PictureMaxFileSize}
}

// ProductImagesUpload accepts one "mainImage" and up to eight
// "additionalImages" of at most 10MB each.
func ProductImagesUpload() UploadSpec {
	return UploadSpec{
		MainField:       "mainImage",
		AdditionalField: "additionalImages",
		MaxAdditional:   MaxAdditionalImages,
		MaxFileSize:     ProductMaxFileSize,
	}
}

// NamingContext carries what an AssetStore needs to build a legible key:
// the namespace (directory or key prefix) and a seed such as a product name.
type NamingContext struct {
	Namespace string
	Seed      string
}

// PicturesNamespace holds admin profile pictures.
const PicturesNamespace = "pictures"

// ProductNamespace returns the namespace for product images of a category.
func ProductNamespace(category string) string {
	if strings.TrimSpace(category) == "" {
		return "products/uncategorized"
	}
	return "products/" + SanitizeSeed(category)
}

// UploadBatch is the transient result of one AcceptUpload call.
type UploadBatch struct {
	Main       *AssetDescriptor
	Additional []AssetDescriptor
}

// Descriptors returns every descriptor of the batch, main first.
func (b UploadBatch) Descriptors() []AssetDescriptor {
	out := make([]AssetDescriptor, 0, len(b.Additional)+1)
	if b.Main != nil {
		out = append(out, *b.Main)
	}
	return append(out, b.Additional...)
}

func (b UploadBatch) Empty() bool {
	return b.Main == nil && len(b.Additional) == 0
}

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Admin struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Role         Role            `json:"role"`
	IsActive     bool            `json:"isActive"`
	Picture      AssetDescriptor `json:"picture"`
	LastLoginAt  *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type ProductStatus string

const (
	StatusActive   ProductStatus = "active"
	StatusInactive ProductStatus = "inactive"
	StatusDraft    ProductStatus = "draft"
)

func (s ProductStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDraft:
		return true
	default:
		return false
	}
}

func ParseProductStatus(s string) (ProductStatus, error) {
	status := ProductStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid product status: %s (valid: active, inactive, draft): %w", s, ErrInvalidInput)
	}
	return status, nil
}

type Product struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Price            float64           `json:"price"`
	Category         string            `json:"category"`
	Brand            string            `json:"brand,omitempty"`
	Sizes            []string          `json:"sizes"`
	Colors           []string          `json:"colors"`
	Stock            int               `json:"stock"`
	Status           ProductStatus     `json:"status"`
	Featured         bool              `json:"featured"`
	MainImage        AssetDescriptor   `json:"mainImage"`
	AdditionalImages []AssetDescriptor `json:"additionalImages"`
	CreatedBy        uuid.UUID         `json:"createdBy"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Images returns every descriptor the product owns.
func (p Product) Images() []AssetDescriptor {
	out := make([]AssetDescriptor, 0, len(p.AdditionalImages)+1)
	if !p.MainImage.IsZero() {
		out = append(out, p.MainImage)
	}
	for _, d := range p.AdditionalImages {
		if !d.IsZero() {
			out = append(out, d)
		}
	}
	return out
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Pagination is a 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize applies defaults and clamps the limit.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPage builds a Page from a normalized request and the total row count.
func NewPage[T any](items []T, total int, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

type AdminQuery struct {
	Search string
	Pagination
}

// ProductSortFields lists the columns products can be ordered by.
var ProductSortFields = []string{"created_at", "price", "name", "stock"}

type ProductQuery struct {
	Category  string
	Status    ProductStatus
	Featured  *bool
	Search    string
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string
	SortOrder string
	Pagination
}

// Normalize fills defaults and rejects unknown sort fields, orders and statuses.
func (q ProductQuery) Normalize() (ProductQuery, error) {
	q.Pagination = q.Pagination.Normalize()

	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	valid := false
	for _, f := range ProductSortFields {
		if q.SortBy == f {
			valid = true
			break
		}
	}
	if !valid {
		return ProductQuery{}, fmt.Errorf("product query: %w: unknown sort field %q", ErrInvalidInput, q.SortBy)
	}

	switch q.SortOrder {
	case "":
		q.SortOrder = "desc"
	case "asc", "desc":
	default:
		return ProductQuery{}, fmt.Errorf("product query: %w: sort order must be asc or desc", ErrInvalidInput)
	}

	if q.Status != "" && !q.Status.IsValid() {
		return ProductQuery{}, fmt.Errorf("product query: %w: unknown status %q", ErrInvalidInput, q.Status)
	}

	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return ProductQuery{}, fmt.Errorf("product query: %w: minPrice greater than maxPrice", ErrInvalidInput)
	}

	return q, nil
}

// Tables holds configurable table names for entity storage.
type Tables struct {
	Admins   string `mapstructure:"admins" yaml:"admins"`
	Products string `mapstructure:"products" yaml:"products"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Admins == "" || t.Products == "" {
		return errors.New("validate tables: table names cannot be empty")
	}

	for _, name := range []string{t.Admins, t.Products} {
		if !IsValidTableName(name) {
			return fmt.Errorf("validate tables: invalid table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
		}
	}

	if t.Admins == t.Products {
		return errors.New("validate tables: admins and products must use different tables")
	}

	return nil
}
