package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/mobigear/backend-parts/internal/pricing"
)

const (
	productsCollection   = "products"
	categoriesCollection = "categories"
	brandsCollection     = "brands"
	seriesCollection     = "series"
	modelsCollection     = "models"
)

// Product is a catalog document. Variable products price through their
// variation list; simple products through price/salePrice.
type Product struct {
	Name        string              `firestore:"name"`
	Description string              `firestore:"description,omitempty"`
	CategoryID  string              `firestore:"categoryId"`
	BrandID     string              `firestore:"brandId,omitempty"`
	SeriesID    string              `firestore:"seriesId,omitempty"`
	ModelID     string              `firestore:"modelId,omitempty"`
	Price       float64             `firestore:"price"`
	SalePrice   *float64            `firestore:"salePrice,omitempty"`
	Variable    bool                `firestore:"variable"`
	Variations  []pricing.Variation `firestore:"variations,omitempty"`
	Images      []string            `firestore:"images,omitempty"`
	Status      string              `firestore:"status,omitempty"`
	CreatedAt   time.Time           `firestore:"createdAt"`
	UpdatedAt   time.Time           `firestore:"updatedAt"`
}

// Snapshot produces the denormalized pricing view captured at add-to-cart.
func (p Product) Snapshot(productID string) pricing.ProductSnapshot {
	return pricing.ProductSnapshot{
		ProductID:  productID,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		BrandID:    p.BrandID,
		Variable:   p.Variable,
		Price:      p.Price,
		SalePrice:  p.SalePrice,
		Variations: p.Variations,
	}
}

// Category is a catalog taxonomy document.
type Category struct {
	Name  string `firestore:"name"`
	Image string `firestore:"image,omitempty"`
}

// Brand is a catalog taxonomy document.
type Brand struct {
	Name  string `firestore:"name"`
	Image string `firestore:"image,omitempty"`
}

// Series groups phone models under a brand.
type Series struct {
	Name    string `firestore:"name"`
	BrandID string `firestore:"brandId"`
}

// Model is one phone model within a series.
type Model struct {
	Name     string `firestore:"name"`
	SeriesID string `firestore:"seriesId"`
}

// Products exposes catalog product access.
type Products struct{ *Repo[Product] }

// NewProducts binds the products repository.
func NewProducts(c *Client) Products {
	return Products{NewRepo[Product](c, productsCollection)}
}

// ListByCategory returns products filtered to one category.
func (p Products) ListByCategory(ctx context.Context, categoryID string, limit int) ([]Doc[Product], error) {
	return p.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("categoryId", "==", categoryID)
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
}

// Categories exposes category taxonomy access.
type Categories struct{ *Repo[Category] }

// NewCategories binds the categories repository.
func NewCategories(c *Client) Categories {
	return Categories{NewRepo[Category](c, categoriesCollection)}
}

// Brands exposes brand taxonomy access.
type Brands struct{ *Repo[Brand] }

// NewBrands binds the brands repository.
func NewBrands(c *Client) Brands {
	return Brands{NewRepo[Brand](c, brandsCollection)}
}

// SeriesRepo exposes series taxonomy access.
type SeriesRepo struct{ *Repo[Series] }

// NewSeries binds the series repository.
func NewSeries(c *Client) SeriesRepo {
	return SeriesRepo{NewRepo[Series](c, seriesCollection)}
}

// Models exposes model taxonomy access.
type Models struct{ *Repo[Model] }

// NewModels binds the models repository.
func NewModels(c *Client) Models {
	return Models{NewRepo[Model](c, modelsCollection)}
}
