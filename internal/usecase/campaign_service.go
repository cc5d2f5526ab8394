package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/flyerkit/backend/internal/domain"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// DefaultDraftTTL is how long a parsed draft waits for review
const DefaultDraftTTL = 2 * time.Hour

// CampaignServiceConfig holds configuration for the campaign service
type CampaignServiceConfig struct {
	DraftTTL           time.Duration
	MaxMatchDistance   int
	EnableDebugLogging bool
}

// CampaignService drives the paste -> review -> store -> render flow
type CampaignService struct {
	parser    *OfferParser
	matcher   *ProductMatcher
	cache     domain.CacheRepository
	products  domain.ProductRepository
	templates domain.TemplateRepository
	campaigns domain.CampaignRepository
	renderer  domain.FlyerRenderer
	draftTTL  time.Duration
}

// NewCampaignService creates a new campaign service with dependencies
func NewCampaignService(
	cache domain.CacheRepository,
	products domain.ProductRepository,
	templates domain.TemplateRepository,
	campaigns domain.CampaignRepository,
	renderer domain.FlyerRenderer,
	config CampaignServiceConfig,
) *CampaignService {
	draftTTL := config.DraftTTL
	if draftTTL == 0 {
		draftTTL = DefaultDraftTTL
	}

	return &CampaignService{
		parser:    NewOfferParser(config.EnableDebugLogging),
		matcher:   NewProductMatcher(config.MaxMatchDistance, config.EnableDebugLogging),
		cache:     cache,
		products:  products,
		templates: templates,
		campaigns: campaigns,
		renderer:  renderer,
		draftTTL:  draftTTL,
	}
}

// Parse runs the offer parser without staging anything
func (s *CampaignService) Parse(text string) domain.ParseResult {
	return s.parser.Parse(text)
}

// ParseDraft parses text, attaches product suggestions and stages the result for review
func (s *CampaignService) ParseDraft(ctx context.Context, text string) (*domain.Draft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidRequest)
	}

	result := s.parser.Parse(text)

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products for matching: %w", err)
	}

	draft := &domain.Draft{
		ID:           uuid.NewString(),
		Header:       result.Header,
		Items:        make([]domain.DraftItem, 0, len(result.Items)),
		NameHint:     result.NameHint(),
		ValidityHint: result.ValidityHint(),
		CreatedAt:    time.Now().UTC(),
	}
	for _, item := range result.Items {
		draft.Items = append(draft.Items, domain.DraftItem{
			ParsedItem:     item,
			MatchedProduct: s.matcher.Suggest(item.SuggestedName, products),
		})
	}

	if err := s.cache.Set(ctx, draftKey(draft.ID), draft, s.draftTTL); err != nil {
		return nil, fmt.Errorf("failed to stage draft: %w", err)
	}

	log.Printf("[DRAFT] Staged %s: %d header lines, %d items", draft.ID, len(draft.Header), len(draft.Items))
	return draft, nil
}

// GetDraft returns a staged draft
func (s *CampaignService) GetDraft(ctx context.Context, id string) (*domain.Draft, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrDraftNotFound
	}

	value, err := s.cache.Get(ctx, draftKey(id))
	if err != nil {
		return nil, domain.ErrDraftNotFound
	}

	var draft domain.Draft
	if err := decodeCached(value, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &draft, nil
}

// CreateCampaign stores a reviewed campaign and renders its flyers.
// When rendering fails the stored campaign is still returned along with the error.
func (s *CampaignService) CreateCampaign(ctx context.Context, req *domain.CreateCampaignRequest) (*domain.CampaignResult, error) {
	campaign, err := s.buildCampaign(ctx, req)
	if err != nil {
		return nil, err
	}

	for i := range campaign.Items {
		item := &campaign.Items[i]
		product, err := s.products.FirstOrCreateProduct(ctx, item.Product.Name, item.Product.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve product %q: %w", item.Product.Name, err)
		}
		item.ProductID = product.ID
		item.Product = product
	}

	if err := s.campaigns.CreateCampaign(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to store campaign: %w", err)
	}
	log.Printf("[CAMPAIGN] Created %d %q with %d items", campaign.ID, campaign.Name, len(campaign.Items))

	if req.DraftID != "" {
		if err := s.cache.Delete(ctx, draftKey(req.DraftID)); err != nil {
			log.Printf("[CAMPAIGN] Failed to discard draft %s: %v", req.DraftID, err)
		}
	}

	return s.render(ctx, campaign)
}

// buildCampaign validates the request and resolves the theme
func (s *CampaignService) buildCampaign(ctx context.Context, req *domain.CreateCampaignRequest) (*domain.Campaign, error) {
	if req == nil {
		return nil, domain.ErrInvalidRequest
	}

	name, err := requireText(req.Name, "name")
	if err != nil {
		return nil, err
	}
	validity, err := requireText(req.ValidityText, "validity_text")
	if err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", domain.ErrInvalidRequest)
	}
	if err := validateThemeColor(req.ThemeColorHex); err != nil {
		return nil, err
	}

	theme := domain.Theme{
		ColorHex:       req.ThemeColorHex,
		HeroPath:       req.ThemeHeroPath,
		BackgroundPath: req.ThemeBgPath,
	}
	if req.TemplateID != nil {
		template, err := s.templates.GetTemplate(ctx, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		theme = mergeTheme(theme, template.Theme)
	}
	if theme.ColorHex == "" {
		theme.ColorHex = domain.DefaultThemeColor
	}

	campaign := &domain.Campaign{
		Name:         name,
		ValidityText: validity,
		Theme:        theme,
		Items:        make([]domain.CampaignItem, 0, len(req.Items)),
	}
	for i, in := range req.Items {
		itemName, err := requireText(in.Name, fmt.Sprintf("items[%d].name", i))
		if err != nil {
			return nil, err
		}
		if in.Price == nil || in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: items[%d].price must be a non-negative number", domain.ErrInvalidRequest, i)
		}
		campaign.Items = append(campaign.Items, domain.CampaignItem{
			Product:      &domain.Product{Name: itemName, ImagePath: in.ImagePath},
			VariantLabel: strings.TrimSpace(in.VariantLabel),
			Price:        *in.Price,
			SortOrder:    i,
		})
	}

	return campaign, nil
}

// mergeTheme fills fields the request left empty from the template
func mergeTheme(requested, template domain.Theme) domain.Theme {
	if requested.ColorHex == "" {
		requested.ColorHex = template.ColorHex
	}
	if requested.HeroPath == "" {
		requested.HeroPath = template.HeroPath
	}
	if requested.BackgroundPath == "" {
		requested.BackgroundPath = template.BackgroundPath
	}
	return requested
}

// RenderCampaign regenerates the flyers of a stored campaign
func (s *CampaignService) RenderCampaign(ctx context.Context, id int64) (*domain.CampaignResult, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, campaign)
}

func (s *CampaignService) render(ctx context.Context, campaign *domain.Campaign) (*domain.CampaignResult, error) {
	result := &domain.CampaignResult{Campaign: campaign, Images: []string{}}

	images, err := s.renderer.RenderBatch(ctx, campaign)
	if err != nil {
		log.Printf("[CAMPAIGN] Rendering campaign %d failed: %v", campaign.ID, err)
		return result, err
	}
	result.Images = images
	return result, nil
}

// GetCampaign returns a campaign with its items
func (s *CampaignService) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	return s.campaigns.GetCampaign(ctx, id)
}

// ListCampaigns returns all campaigns, newest first
func (s *CampaignService) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return s.campaigns.ListCampaigns(ctx)
}

// DeleteCampaign removes a campaign, its items and its rendered flyers.
// Leftover flyer files are logged rather than failing the delete.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int64) error {
	campaign, err := s.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if err := s.campaigns.DeleteCampaign(ctx, id); err != nil {
		return err
	}

	if err := s.renderer.RemoveBatch(ctx, campaign); err != nil {
		log.Printf("[CAMPAIGN] Failed to remove flyers of campaign %d: %v", id, err)
	}
	return nil
}

// DuplicateCampaign copies a campaign and its items into a new campaign
func (s *CampaignService) DuplicateCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	original, err := s.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	duplicate := &domain.Campaign{
		Name:         original.Name + " (cópia)",
		ValidityText: original.ValidityText,
		Theme:        original.Theme,
		Items:        make([]domain.CampaignItem, 0, len(original.Items)),
	}
	for _, item := range original.Items {
		duplicate.Items = append(duplicate.Items, domain.CampaignItem{
			ProductID:    item.ProductID,
			Product:      item.Product,
			VariantLabel: item.VariantLabel,
			Price:        item.Price,
			SortOrder:    item.SortOrder,
		})
	}

	if err := s.campaigns.CreateCampaign(ctx, duplicate); err != nil {
		return nil, fmt.Errorf("failed to duplicate campaign %d: %w", id, err)
	}
	log.Printf("[CAMPAIGN] Duplicated %d into %d", id, duplicate.ID)
	return duplicate, nil
}

// itemCSVRow is one exported campaign item
type itemCSVRow struct {
	SortOrder int    `csv:"sort_order"`
	Product   string `csv:"product"`
	Variant   string `csv:"variant"`
	Price     string `csv:"price"`
}

// ExportItemsCSV writes the campaign's items as CSV in display order
func (s *CampaignService) ExportItemsCSV(ctx context.Context, id int64, w io.Writer) error {
	campaign, err := s.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return err
	}

	rows := make([]*itemCSVRow, 0, len(campaign.Items))
	for _, item := range campaign.Items {
		row := &itemCSVRow{
			SortOrder: item.SortOrder,
			Variant:   item.VariantLabel,
			Price:     item.Price.StringFixed(2),
		}
		if item.Product != nil {
			row.Product = item.Product.Name
		}
		rows = append(rows, row)
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func draftKey(id string) string {
	return "draft:" + id
}

// decodeCached converts a cached value (raw JSON or a decoded structure) into dest
func decodeCached(value interface{}, dest interface{}) error {
	raw, ok := value.(json.RawMessage)
	if !ok {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		raw = encoded
	}
	return json.Unmarshal(raw, dest)
}
