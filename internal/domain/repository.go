package domain

import (
	"context"
	"io"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ProductRepository persists catalog products
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, id int64) error
	// FirstOrCreateProduct returns the product with the exact name, creating it when missing.
	FirstOrCreateProduct(ctx context.Context, name, imagePath string) (*Product, error)
}

// TemplateRepository persists reusable themes
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, template *Template) error
	GetTemplate(ctx context.Context, id int64) (*Template, error)
	ListTemplates(ctx context.Context) ([]Template, error)
	UpdateTemplate(ctx context.Context, template *Template) error
	DeleteTemplate(ctx context.Context, id int64) error
}

// CampaignRepository persists campaigns together with their items
type CampaignRepository interface {
	// CreateCampaign inserts the campaign and its items atomically and fills in their ids.
	CreateCampaign(ctx context.Context, campaign *Campaign) error
	// GetCampaign returns the campaign with items ordered by sort order and products joined.
	GetCampaign(ctx context.Context, id int64) (*Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	DeleteCampaign(ctx context.Context, id int64) error
}

// FlyerRenderer turns a campaign into one image per chunk of items
type FlyerRenderer interface {
	RenderBatch(ctx context.Context, campaign *Campaign) ([]string, error)
	// RemoveBatch deletes the flyer files a previous RenderBatch wrote for the campaign.
	RemoveBatch(ctx context.Context, campaign *Campaign) error
}

// FileStorage stores files and returns the path they are served from
type FileStorage interface {
	Save(ctx context.Context, dir, name string, r io.Reader) (string, error)
	// Open reads back a file by the path Save returned.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes dir/name. A missing file is not an error.
	Delete(ctx context.Context, dir, name string) error
}
