package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/flyerkit/backend/internal/domain"
)

// OutputDir is the storage directory generated flyers are written to
const OutputDir = "generated"

// Config holds flyer rendering settings
type Config struct {
	ChunkSize      int
	Width          int
	Height         int
	Scale          float64
	Currency       string
	AssetBaseURL   string
	MaxConcurrency int
}

// Viewport describes the browser window used for rasterization
type Viewport struct {
	Width  int
	Height int
	Scale  float64
}

// Rasterizer converts an HTML document into PNG bytes
type Rasterizer interface {
	Rasterize(ctx context.Context, html []byte, viewport Viewport) ([]byte, error)
}

// Renderer produces one flyer image per chunk of campaign items
type Renderer struct {
	rasterizer Rasterizer
	storage    domain.FileStorage
	cfg        Config
	sem        chan struct{}
	locks      *keyedMutex
}

// NewRenderer creates a renderer. Zero config values take the story-format defaults.
func NewRenderer(rasterizer Rasterizer, storage domain.FileStorage, cfg Config) *Renderer {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4
	}
	if cfg.Width <= 0 {
		cfg.Width = 1080
	}
	if cfg.Height <= 0 {
		cfg.Height = 1920
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	if cfg.Currency == "" {
		cfg.Currency = "BRL"
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 2
	}

	return &Renderer{
		rasterizer: rasterizer,
		storage:    storage,
		cfg:        cfg,
		sem:        make(chan struct{}, cfg.MaxConcurrency),
		locks:      newKeyedMutex(),
	}
}

// FlyerFileName is the deterministic output name for a campaign chunk
func FlyerFileName(campaignID int64, chunkIndex int) string {
	return fmt.Sprintf("campaign_%d_batch_%d.png", campaignID, chunkIndex)
}

// ChunkItems splits items into consecutive groups of at most size elements
func ChunkItems(items []domain.CampaignItem, size int) [][]domain.CampaignItem {
	if size <= 0 {
		size = 1
	}
	chunks := make([][]domain.CampaignItem, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// RenderBatch renders every chunk of the campaign's items and returns the stored paths in
// chunk order. Renders of the same campaign are serialized so their files never interleave.
func (r *Renderer) RenderBatch(ctx context.Context, campaign *domain.Campaign) ([]string, error) {
	if campaign == nil {
		return nil, domain.ErrInvalidRequest
	}

	unlock := r.locks.Lock(campaign.ID)
	defer unlock()

	chunks := ChunkItems(campaign.Items, r.cfg.ChunkSize)
	paths := make([]string, 0, len(chunks))
	assets := r.newAssetResolver(ctx)

	for i, chunk := range chunks {
		html, err := renderHTML(campaign, chunk, r.cfg, assets)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
		}

		image, err := r.rasterize(ctx, html)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", domain.ErrRenderFailed, i, err)
		}

		path, err := r.storage.Save(ctx, OutputDir, FlyerFileName(campaign.ID, i), bytes.NewReader(image))
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", domain.ErrRenderFailed, i, err)
		}
		paths = append(paths, path)
	}

	log.Printf("[RENDER] Campaign %d: %d items -> %d flyers", campaign.ID, len(campaign.Items), len(paths))
	return paths, nil
}

// RemoveBatch deletes the flyers RenderBatch writes for the campaign's items.
// Files are located with the current chunk size.
func (r *Renderer) RemoveBatch(ctx context.Context, campaign *domain.Campaign) error {
	if campaign == nil {
		return domain.ErrInvalidRequest
	}

	unlock := r.locks.Lock(campaign.ID)
	defer unlock()

	count := len(ChunkItems(campaign.Items, r.cfg.ChunkSize))
	var errs []error
	for i := 0; i < count; i++ {
		if err := r.storage.Delete(ctx, OutputDir, FlyerFileName(campaign.ID, i)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	log.Printf("[RENDER] Campaign %d: removed %d flyers", campaign.ID, count)
	return nil
}

// rasterize bounds the number of browser processes running at once
func (r *Renderer) rasterize(ctx context.Context, html []byte) ([]byte, error) {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-r.sem }()

	return r.rasterizer.Rasterize(ctx, html, Viewport{
		Width:  r.cfg.Width,
		Height: r.cfg.Height,
		Scale:  r.cfg.Scale,
	})
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refMutex)}
}

func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
