package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/mobigear/backend-parts/internal/common"
	"github.com/mobigear/backend-parts/internal/pricing"
	"github.com/mobigear/backend-parts/internal/store"
)

// Fallback labels used when a discount line references a deleted or
// unknown taxonomy document.
const (
	UnknownCategoryLabel = "Unknown Category"
	UnknownBrandLabel    = "Unknown Brand"
)

const (
	categoriesCacheKey = "catalog:categories"
	brandsCacheKey     = "catalog:brands"
)

// Service orchestrates catalog reads, admin writes, and caching.
type Service struct {
	products   store.Products
	categories store.Categories
	brands     store.Brands
	series     store.SeriesRepo
	models     store.Models
	cache      *Cache
	validate   *validator.Validate
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Products   store.Products
	Categories store.Categories
	Brands     store.Brands
	Series     store.SeriesRepo
	Models     store.Models
	Cache      *Cache
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		products:   cfg.Products,
		categories: cfg.Categories,
		brands:     cfg.Brands,
		series:     cfg.Series,
		models:     cfg.Models,
		cache:      cfg.Cache,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Category represents the public category payload.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Brand represents the public brand payload.
type Brand struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Series represents the public series payload.
type Series struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BrandID string `json:"brandId"`
}

// Model represents the public phone model payload.
type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SeriesID string `json:"seriesId"`
}

// ProductItem is one product in list and detail responses. Variations
// carry their own price pair for variable products.
type ProductItem struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	CategoryID  string              `json:"categoryId"`
	BrandID     string              `json:"brandId,omitempty"`
	SeriesID    string              `json:"seriesId,omitempty"`
	ModelID     string              `json:"modelId,omitempty"`
	Price       float64             `json:"price"`
	SalePrice   *float64            `json:"salePrice,omitempty"`
	Variable    bool                `json:"variable"`
	Variations  []pricing.Variation `json:"variations,omitempty"`
	Images      []string            `json:"images,omitempty"`
}

func productItem(id string, p store.Product) ProductItem {
	return ProductItem{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		BrandID:     p.BrandID,
		SeriesID:    p.SeriesID,
		ModelID:     p.ModelID,
		Price:       p.Price,
		SalePrice:   p.SalePrice,
		Variable:    p.Variable,
		Variations:  p.Variations,
		Images:      p.Images,
	}
}

// ListCategories returns all categories, served from cache when warm.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var cached []Category
	if ok, err := s.cache.GetJSON(ctx, categoriesCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	docs, err := s.categories.Query(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, Category{ID: d.ID, Name: d.Data.Name, Image: d.Data.Image})
	}
	_ = s.cache.SetJSON(ctx, categoriesCacheKey, out)
	return out, nil
}

// ListBrands returns all brands, served from cache when warm.
func (s *Service) ListBrands(ctx context.Context) ([]Brand, error) {
	var cached []Brand
	if ok, err := s.cache.GetJSON(ctx, brandsCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	docs, err := s.brands.Query(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	out := make([]Brand, 0, len(docs))
	for _, d := range docs {
		out = append(out, Brand{ID: d.ID, Name: d.Data.Name, Image: d.Data.Image})
	}
	_ = s.cache.SetJSON(ctx, brandsCacheKey, out)
	return out, nil
}

// ListSeries returns every series document.
func (s *Service) ListSeries(ctx context.Context) ([]Series, error) {
	docs, err := s.series.Query(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	out := make([]Series, 0, len(docs))
	for _, d := range docs {
		out = append(out, Series{ID: d.ID, Name: d.Data.Name, BrandID: d.Data.BrandID})
	}
	return out, nil
}

// ListModels returns every phone model document.
func (s *Service) ListModels(ctx context.Context) ([]Model, error) {
	docs, err := s.models.Query(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out := make([]Model, 0, len(docs))
	for _, d := range docs {
		out = append(out, Model{ID: d.ID, Name: d.Data.Name, SeriesID: d.Data.SeriesID})
	}
	return out, nil
}

// ListProducts returns products, optionally filtered to one category.
func (s *Service) ListProducts(ctx context.Context, categoryID string, limit int) ([]ProductItem, error) {
	var (
		docs []store.Doc[store.Product]
		err  error
	)
	if categoryID != "" {
		docs, err = s.products.ListByCategory(ctx, categoryID, limit)
	} else {
		docs, err = s.products.Query(ctx, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]ProductItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, productItem(d.ID, d.Data))
	}
	return out, nil
}

// GetProduct returns one product by id.
func (s *Service) GetProduct(ctx context.Context, id string) (ProductItem, error) {
	doc, err := s.products.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ProductItem{}, common.NotFound("product not found")
	}
	if err != nil {
		return ProductItem{}, fmt.Errorf("get product: %w", err)
	}
	return productItem(doc.ID, doc.Data), nil
}

// Snapshot loads the product and freezes its pricing view for a cart line.
func (s *Service) Snapshot(ctx context.Context, productID string) (pricing.ProductSnapshot, error) {
	doc, err := s.products.Get(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return pricing.ProductSnapshot{}, common.NotFound("product not found")
	}
	if err != nil {
		return pricing.ProductSnapshot{}, fmt.Errorf("get product: %w", err)
	}
	return doc.Data.Snapshot(doc.ID), nil
}

// CategoryNamer preloads the category name index and returns a lookup
// closure for discount line labelling. Unknown ids resolve to a stable
// fallback label rather than an error.
func (s *Service) CategoryNamer(ctx context.Context) (func(string) string, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return func(id string) string {
		if name, ok := names[id]; ok && name != "" {
			return name
		}
		return UnknownCategoryLabel
	}, nil
}

// BrandNamer mirrors CategoryNamer for brand ids.
func (s *Service) BrandNamer(ctx context.Context) (func(string) string, error) {
	brands, err := s.ListBrands(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(brands))
	for _, b := range brands {
		names[b.ID] = b.Name
	}
	return func(id string) string {
		if name, ok := names[id]; ok && name != "" {
			return name
		}
		return UnknownBrandLabel
	}, nil
}

// ProductInput is the admin payload for creating or updating a product.
type ProductInput struct {
	Name        string              `json:"name" validate:"required,min=2"`
	Description string              `json:"description"`
	CategoryID  string              `json:"categoryId" validate:"required"`
	BrandID     string              `json:"brandId"`
	SeriesID    string              `json:"seriesId"`
	ModelID     string              `json:"modelId"`
	Price       float64             `json:"price" validate:"gte=0"`
	SalePrice   *float64            `json:"salePrice" validate:"omitempty,gte=0"`
	Variable    bool                `json:"variable"`
	Variations  []pricing.Variation `json:"variations" validate:"omitempty,dive"`
	Images      []string            `json:"images"`
}

func (in ProductInput) document(existing *store.Product) store.Product {
	now := time.Now().UTC()
	p := store.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		CategoryID:  in.CategoryID,
		BrandID:     in.BrandID,
		SeriesID:    in.SeriesID,
		ModelID:     in.ModelID,
		Price:       in.Price,
		SalePrice:   in.SalePrice,
		Variable:    in.Variable,
		Variations:  in.Variations,
		Images:      in.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing != nil {
		p.CreatedAt = existing.CreatedAt
	}
	return p
}

// CreateProduct validates the payload and stores a new product document.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (ProductItem, error) {
	if err := s.validate.Struct(in); err != nil {
		return ProductItem{}, common.BadRequest("invalid product payload")
	}
	doc := in.document(nil)
	id, err := s.products.Create(ctx, doc)
	if err != nil {
		return ProductItem{}, fmt.Errorf("create product: %w", err)
	}
	return productItem(id, doc), nil
}

// UpdateProduct validates the payload and replaces the product document.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (ProductItem, error) {
	if err := s.validate.Struct(in); err != nil {
		return ProductItem{}, common.BadRequest("invalid product payload")
	}
	existing, err := s.products.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ProductItem{}, common.NotFound("product not found")
	}
	if err != nil {
		return ProductItem{}, fmt.Errorf("get product: %w", err)
	}
	doc := in.document(&existing.Data)
	if err := s.products.Set(ctx, id, doc); err != nil {
		return ProductItem{}, fmt.Errorf("update product: %w", err)
	}
	return productItem(id, doc), nil
}

// DeleteProduct removes the product document.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFound("product not found")
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// TaxonomyInput is the admin payload for categories and brands.
type TaxonomyInput struct {
	Name  string `json:"name" validate:"required,min=2"`
	Image string `json:"image"`
}

// CreateCategory stores a new category and drops the cached list.
func (s *Service) CreateCategory(ctx context.Context, in TaxonomyInput) (Category, error) {
	if err := s.validate.Struct(in); err != nil {
		return Category{}, common.BadRequest("invalid category payload")
	}
	id, err := s.categories.Create(ctx, store.Category{Name: strings.TrimSpace(in.Name), Image: in.Image})
	if err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	s.cache.Invalidate(ctx, categoriesCacheKey)
	return Category{ID: id, Name: strings.TrimSpace(in.Name), Image: in.Image}, nil
}

// CreateBrand stores a new brand and drops the cached list.
func (s *Service) CreateBrand(ctx context.Context, in TaxonomyInput) (Brand, error) {
	if err := s.validate.Struct(in); err != nil {
		return Brand{}, common.BadRequest("invalid brand payload")
	}
	id, err := s.brands.Create(ctx, store.Brand{Name: strings.TrimSpace(in.Name), Image: in.Image})
	if err != nil {
		return Brand{}, fmt.Errorf("create brand: %w", err)
	}
	s.cache.Invalidate(ctx, brandsCacheKey)
	return Brand{ID: id, Name: strings.TrimSpace(in.Name), Image: in.Image}, nil
}
