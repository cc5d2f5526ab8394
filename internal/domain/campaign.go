package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultThemeColor is applied when neither the request nor a template provides a color
const DefaultThemeColor = "#0f4c18"

// Theme controls the look of a rendered flyer
type Theme struct {
	ColorHex       string `json:"theme_color_hex"`
	HeroPath       string `json:"theme_hero_path,omitempty"`
	BackgroundPath string `json:"theme_bg_path,omitempty"`
}

// Product is a catalog entry, identified by its unique name
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ImagePath string    `json:"image_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Template is a reusable theme
type Template struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Theme     Theme     `json:"theme"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Campaign is a persisted set of priced items with a theme
type Campaign struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	ValidityText string         `json:"validity_text"`
	Theme        Theme          `json:"theme"`
	Items        []CampaignItem `json:"items"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CampaignItem is one priced product inside a campaign
type CampaignItem struct {
	ID           int64           `json:"id"`
	CampaignID   int64           `json:"campaign_id"`
	ProductID    int64           `json:"product_id"`
	Product      *Product        `json:"product,omitempty"`
	VariantLabel string          `json:"variant_label"`
	Price        decimal.Decimal `json:"price"`
	SortOrder    int             `json:"sort_order"`
}

// CampaignItemInput is an edited item submitted from the review step
type CampaignItemInput struct {
	Name         string           `json:"name" binding:"required"`
	VariantLabel string           `json:"variant_label"`
	Price        *decimal.Decimal `json:"price" binding:"required"`
	ImagePath    string           `json:"image_path,omitempty"`
}

// CreateCampaignRequest materializes a reviewed draft into a campaign
type CreateCampaignRequest struct {
	DraftID       string              `json:"draft_id,omitempty"`
	TemplateID    *int64              `json:"template_id,omitempty"`
	Name          string              `json:"name" binding:"required"`
	ValidityText  string              `json:"validity_text" binding:"required"`
	ThemeColorHex string              `json:"theme_color_hex,omitempty"`
	ThemeHeroPath string              `json:"theme_hero_path,omitempty"`
	ThemeBgPath   string              `json:"theme_bg_path,omitempty"`
	Items         []CampaignItemInput `json:"items" binding:"required,min=1,dive"`
}

// CampaignResult is returned after a campaign is stored and rendered
type CampaignResult struct {
	Campaign *Campaign `json:"campaign"`
	Images   []string  `json:"images"`
}

// ProductInput creates or updates a product
type ProductInput struct {
	Name      string `json:"name" binding:"required"`
	ImagePath string `json:"image_path,omitempty"`
}

// TemplateInput creates or updates a template
type TemplateInput struct {
	Name          string `json:"name" binding:"required"`
	ThemeColorHex string `json:"theme_color_hex,omitempty"`
	ThemeHeroPath string `json:"theme_hero_path,omitempty"`
	ThemeBgPath   string `json:"theme_bg_path,omitempty"`
}
