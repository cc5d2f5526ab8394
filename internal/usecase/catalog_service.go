package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/flyerkit/backend/internal/domain"
)

// CatalogService manages products and templates
type CatalogService struct {
	products  domain.ProductRepository
	templates domain.TemplateRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(products domain.ProductRepository, templates domain.TemplateRepository) *CatalogService {
	return &CatalogService{
		products:  products,
		templates: templates,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, input *domain.ProductInput) (*domain.Product, error) {
	name, err := requireText(input.Name, "name")
	if err != nil {
		return nil, err
	}

	product := &domain.Product{Name: name, ImagePath: strings.TrimSpace(input.ImagePath)}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	log.Printf("[CATALOG] Created product %d %q", product.ID, product.Name)
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetProduct(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx)
}

// UpdateProduct replaces the name and image of an existing product
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, input *domain.ProductInput) (*domain.Product, error) {
	name, err := requireText(input.Name, "name")
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = name
	product.ImagePath = strings.TrimSpace(input.ImagePath)

	if err := s.products.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct fails with ErrInvalidRequest while a campaign still references the product
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return s.products.DeleteProduct(ctx, id)
}

func (s *CatalogService) CreateTemplate(ctx context.Context, input *domain.TemplateInput) (*domain.Template, error) {
	template, err := templateFromInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.templates.CreateTemplate(ctx, template); err != nil {
		return nil, err
	}
	log.Printf("[CATALOG] Created template %d %q", template.ID, template.Name)
	return template, nil
}

func (s *CatalogService) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	return s.templates.GetTemplate(ctx, id)
}

func (s *CatalogService) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	return s.templates.ListTemplates(ctx)
}

func (s *CatalogService) UpdateTemplate(ctx context.Context, id int64, input *domain.TemplateInput) (*domain.Template, error) {
	updated, err := templateFromInput(input)
	if err != nil {
		return nil, err
	}

	template, err := s.templates.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	template.Name = updated.Name
	template.Theme = updated.Theme

	if err := s.templates.UpdateTemplate(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *CatalogService) DeleteTemplate(ctx context.Context, id int64) error {
	return s.templates.DeleteTemplate(ctx, id)
}

func templateFromInput(input *domain.TemplateInput) (*domain.Template, error) {
	name, err := requireText(input.Name, "name")
	if err != nil {
		return nil, err
	}
	if err := validateThemeColor(input.ThemeColorHex); err != nil {
		return nil, err
	}

	color := input.ThemeColorHex
	if color == "" {
		color = domain.DefaultThemeColor
	}
	return &domain.Template{
		Name: name,
		Theme: domain.Theme{
			ColorHex:       color,
			HeroPath:       strings.TrimSpace(input.ThemeHeroPath),
			BackgroundPath: strings.TrimSpace(input.ThemeBgPath),
		},
	}, nil
}
