package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProductInput struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Description string        `json:"description" validate:"max=5000"`
	Price       float64       `json:"price" validate:"gte=0"`
	Category    string        `json:"category" validate:"required,max=100"`
	Brand       string        `json:"brand" validate:"max=100"`
	Sizes       []string      `json:"sizes" validate:"max=30,dive,required,max=20"`
	Colors      []string      `json:"colors" validate:"max=30,dive,required,max=50"`
	Stock       int           `json:"stock" validate:"gte=0"`
	Status      ProductStatus `json:"status" validate:"omitempty,oneof=active inactive draft"`
	Featured    bool          `json:"featured"`
}

// ProductPatch carries the fields of a partial update. Nil fields are kept.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Brand       *string
	Sizes       []string
	Colors      []string
	Stock       *int
	Status      *ProductStatus
	Featured    *bool
}

func (p ProductPatch) apply(dst *Product) {
	if p.Name != nil {
		dst.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Category != nil {
		dst.Category = strings.TrimSpace(*p.Category)
	}
	if p.Brand != nil {
		dst.Brand = *p.Brand
	}
	if p.Sizes != nil {
		dst.Sizes = p.Sizes
	}
	if p.Colors != nil {
		dst.Colors = p.Colors
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.Featured != nil {
		dst.Featured = *p.Featured
	}
}

func inputOf(p Product) ProductInput {
	return ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Brand:       p.Brand,
		Sizes:       p.Sizes,
		Colors:      p.Colors,
		Stock:       p.Stock,
		Status:      p.Status,
		Featured:    p.Featured,
	}
}

// ProductService manages the catalog and the images products own.
type ProductService struct {
	repo      ProductRepo
	uploader  Uploader
	discarder Discarder
	images    UploadSpec
	now       func() time.Time
}

// ProductServiceConfig holds configuration options for ProductService.
type ProductServiceConfig struct {
	ImageMaxSize  int64 // Per-file ceiling (default: 10MB)
	MaxAdditional int   // Additional images per request (default: 8)
}

func NewProductService(repo ProductRepo, uploader Uploader, discarder Discarder, cfg ProductServiceConfig) (*ProductService, error) {
	if repo == nil || uploader == nil || discarder == nil {
		return nil, errors.New("new product service: all dependencies are required")
	}

	spec := ProductImagesUpload()
	if cfg.ImageMaxSize > 0 {
		spec.MaxFileSize = cfg.ImageMaxSize
	}
	if cfg.MaxAdditional > 0 {
		spec.MaxAdditional = cfg.MaxAdditional
	}

	return &ProductService{
		repo:      repo,
		uploader:  uploader,
		discarder: discarder,
		images:    spec,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create stores the images of the request and then the product. If the
// product cannot be stored the uploaded images are discarded.
func (s *ProductService) Create(ctx context.Context, createdBy uuid.UUID, in ProductInput, files []UploadFile) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Status == "" {
		in.Status = StatusActive
	}
	if err := validateStruct("create product", in); err != nil {
		return Product{}, err
	}

	batch, err := s.uploader.AcceptUpload(ctx, files, s.images, s.naming(in.Category, in.Name))
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}

	now := s.now()
	p := Product{
		ID:               uuid.New(),
		Name:             in.Name,
		Description:      in.Description,
		Price:            in.Price,
		Category:         in.Category,
		Brand:            in.Brand,
		Sizes:            nonNil(in.Sizes),
		Colors:           nonNil(in.Colors),
		Stock:            in.Stock,
		Status:           in.Status,
		Featured:         in.Featured,
		AdditionalImages: nonNil(batch.Additional),
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if batch.Main != nil {
		p.MainImage = *batch.Main
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		s.discarder.DiscardBatch(ctx, batch)
		return Product{}, fmt.Errorf("create product: %w", err)
	}

	return created, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, q ProductQuery) (Page[Product], error) {
	q, err := q.Normalize()
	if err != nil {
		return Page[Product]{}, fmt.Errorf("list products: %w", err)
	}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		return Page[Product]{}, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

// Update applies patch and any newly uploaded images. A new main image
// replaces the old one; new additional images replace the whole set. Replaced
// descriptors are discarded after the product is stored, and new uploads are
// discarded if it is not.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, patch ProductPatch, files []UploadFile) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	patch.apply(&p)
	if err := validateStruct("update product", inputOf(p)); err != nil {
		return Product{}, err
	}

	batch, err := s.uploader.AcceptUpload(ctx, files, s.images, s.naming(p.Category, p.Name))
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	var stale []AssetDescriptor
	if batch.Main != nil {
		if !p.MainImage.IsZero() {
			stale = append(stale, p.MainImage)
		}
		p.MainImage = *batch.Main
	}
	if len(batch.Additional) > 0 {
		stale = append(stale, p.AdditionalImages...)
		p.AdditionalImages = batch.Additional
	}
	p.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		s.discarder.DiscardBatch(ctx, batch)
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	if len(stale) > 0 {
		s.discarder.DiscardDescriptors(ctx, stale)
	}

	return updated, nil
}

// Delete removes the product and then discards every image it owned.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.discarder.DiscardDescriptors(ctx, p.Images())
	return nil
}

func (s *ProductService) UpdateStatus(ctx context.Context, id uuid.UUID, status ProductStatus) (Product, error) {
	if !status.IsValid() {
		return Product{}, fmt.Errorf("update status: %w: unknown status %q", ErrInvalidInput, status)
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("update status: %w", err)
	}

	p.Status = status
	p.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("update status: %w", err)
	}
	return updated, nil
}

func (s *ProductService) UpdateStock(ctx context.Context, id uuid.UUID, stock int) (Product, error) {
	if stock < 0 {
		return Product{}, fmt.Errorf("update stock: %w: stock cannot be negative", ErrInvalidInput)
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("update stock: %w", err)
	}

	p.Stock = stock
	p.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("update stock: %w", err)
	}
	return updated, nil
}

func (s *ProductService) naming(category, name string) NamingContext {
	return NamingContext{Namespace: ProductNamespace(category), Seed: name}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
