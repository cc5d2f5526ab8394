package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flyerkit/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data     map[string]interface{}
	ttls     map[string]time.Duration
	setError error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// MockStore is an in-memory implementation of the product, template and campaign repositories
type MockStore struct {
	mu        sync.Mutex
	nextID    int64
	products  map[int64]domain.Product
	templates map[int64]domain.Template
	campaigns map[int64]domain.Campaign
	listError error
}

func NewMockStore() *MockStore {
	return &MockStore{
		products:  make(map[int64]domain.Product),
		templates: make(map[int64]domain.Template),
		campaigns: make(map[int64]domain.Campaign),
	}
}

func (m *MockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MockStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Name == product.Name {
			return domain.ErrDuplicateProduct
		}
	}
	product.ID = m.id()
	m.products[product.ID] = *product
	return nil
}

func (m *MockStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *MockStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	products := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (m *MockStore) UpdateProduct(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	for id, p := range m.products {
		if id != product.ID && p.Name == product.Name {
			return domain.ErrDuplicateProduct
		}
	}
	m.products[product.ID] = *product
	return nil
}

func (m *MockStore) DeleteProduct(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MockStore) FirstOrCreateProduct(ctx context.Context, name, imagePath string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.products {
		if p.Name == name {
			if imagePath != "" {
				p.ImagePath = imagePath
				m.products[id] = p
			}
			return &p, nil
		}
	}
	p := domain.Product{ID: m.id(), Name: name, ImagePath: imagePath}
	m.products[p.ID] = p
	return &p, nil
}

func (m *MockStore) CreateTemplate(ctx context.Context, template *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	template.ID = m.id()
	m.templates[template.ID] = *template
	return nil
}

func (m *MockStore) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return &t, nil
}

func (m *MockStore) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	templates := make([]domain.Template, 0, len(m.templates))
	for _, t := range m.templates {
		templates = append(templates, t)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates, nil
}

func (m *MockStore) UpdateTemplate(ctx context.Context, template *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[template.ID]; !ok {
		return domain.ErrTemplateNotFound
	}
	m.templates[template.ID] = *template
	return nil
}

func (m *MockStore) DeleteTemplate(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return domain.ErrTemplateNotFound
	}
	delete(m.templates, id)
	return nil
}

func (m *MockStore) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	campaign.ID = m.id()
	for i := range campaign.Items {
		campaign.Items[i].ID = m.id()
		campaign.Items[i].CampaignID = campaign.ID
	}
	stored := *campaign
	stored.Items = append([]domain.CampaignItem(nil), campaign.Items...)
	m.campaigns[campaign.ID] = stored
	return nil
}

func (m *MockStore) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, domain.ErrCampaignNotFound
	}
	c.Items = append([]domain.CampaignItem(nil), c.Items...)
	return &c, nil
}

func (m *MockStore) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	campaigns := make([]domain.Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		c.Items = nil
		campaigns = append(campaigns, c)
	}
	sort.Slice(campaigns, func(i, j int) bool { return campaigns[i].ID > campaigns[j].ID })
	return campaigns, nil
}

func (m *MockStore) DeleteCampaign(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return domain.ErrCampaignNotFound
	}
	delete(m.campaigns, id)
	return nil
}

// MockRenderer records rendered and removed campaigns and returns one image per campaign
type MockRenderer struct {
	rendered  []int64
	removed   []int64
	err       error
	removeErr error
}

func (m *MockRenderer) RemoveBatch(ctx context.Context, campaign *domain.Campaign) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, campaign.ID)
	return nil
}

func (m *MockRenderer) RenderBatch(ctx context.Context, campaign *domain.Campaign) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.rendered = append(m.rendered, campaign.ID)
	return []string{"/storage/generated/flyer.png"}, nil
}
