package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flyerkit/backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRasterizer struct {
	mu        sync.Mutex
	documents []string
	viewports []Viewport
	err       error
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, html []byte, viewport Viewport) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.documents = append(f.documents, string(html))
	f.viewports = append(f.viewports, viewport)
	return []byte("PNG" + fmt.Sprint(len(f.documents))), nil
}

type memoryStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: make(map[string][]byte)}
}

func (m *memoryStorage) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dir + "/" + name
	m.files[key] = data
	return "/storage/" + key, nil
}

func (m *memoryStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[strings.TrimPrefix(path, "/storage/")]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", domain.ErrStorageFailure, path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStorage) Delete(ctx context.Context, dir, name string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, dir+"/"+name)
	return nil
}

func testCampaign(id int64, n int) *domain.Campaign {
	items := make([]domain.CampaignItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, domain.CampaignItem{
			ProductID: int64(i + 1),
			Product:   &domain.Product{ID: int64(i + 1), Name: fmt.Sprintf("Produto %d", i)},
			Price:     decimal.RequireFromString("9.99"),
			SortOrder: i,
		})
	}
	return &domain.Campaign{
		ID:           id,
		Name:         "Ofertas",
		ValidityText: "Válida até domingo",
		Theme:        domain.Theme{ColorHex: "#0f4c18"},
		Items:        items,
	}
}

func TestChunkItems(t *testing.T) {
	tests := []struct {
		name  string
		count int
		size  int
		want  []int
	}{
		{"empty", 0, 4, []int{}},
		{"exact multiple", 8, 4, []int{4, 4}},
		{"remainder", 9, 4, []int{4, 4, 1}},
		{"fewer than size", 3, 4, []int{3}},
		{"invalid size falls back to one", 2, 0, []int{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkItems(testCampaign(1, tt.count).Items, tt.size)
			sizes := make([]int, 0, len(chunks))
			for _, c := range chunks {
				sizes = append(sizes, len(c))
			}
			assert.Equal(t, tt.want, sizes)
		})
	}
}

func TestFlyerFileName(t *testing.T) {
	assert.Equal(t, "campaign_12_batch_0.png", FlyerFileName(12, 0))
	assert.Equal(t, "campaign_12_batch_3.png", FlyerFileName(12, 3))
}

func TestFormatPrice(t *testing.T) {
	got := FormatPrice(decimal.RequireFromString("9.99"), "BRL")
	assert.True(t, strings.HasPrefix(got, "R$"), "got %q", got)
	assert.Contains(t, got, "9,99")

	assert.Contains(t, FormatPrice(decimal.RequireFromString("12.5"), "USD"), "12.50")
	assert.Equal(t, FormatPrice(decimal.RequireFromString("1.2"), "BRL"), FormatPrice(decimal.RequireFromString("1.2"), "NOPE"))
}

func TestRenderBatch(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	storage := newMemoryStorage()
	renderer := NewRenderer(rasterizer, storage, Config{})

	paths, err := renderer.RenderBatch(context.Background(), testCampaign(7, 9))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/storage/generated/campaign_7_batch_0.png",
		"/storage/generated/campaign_7_batch_1.png",
		"/storage/generated/campaign_7_batch_2.png",
	}, paths)
	assert.Equal(t, []byte("PNG3"), storage.files["generated/campaign_7_batch_2.png"])

	require.Len(t, rasterizer.documents, 3)
	assert.Equal(t, Viewport{Width: 1080, Height: 1920, Scale: 2}, rasterizer.viewports[0])

	first := rasterizer.documents[0]
	assert.Contains(t, first, "Produto 0")
	assert.Contains(t, first, "Produto 3")
	assert.NotContains(t, first, "Produto 4")
	assert.Contains(t, first, "9,99")
	assert.Contains(t, first, "#0f4c18")
	assert.Contains(t, first, "Válida até domingo")
	assert.Contains(t, rasterizer.documents[2], "Produto 8")
}

func TestRenderBatch_EmptyCampaign(t *testing.T) {
	renderer := NewRenderer(&fakeRasterizer{}, newMemoryStorage(), Config{})

	paths, err := renderer.RenderBatch(context.Background(), testCampaign(1, 0))
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = renderer.RenderBatch(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRenderBatch_Failures(t *testing.T) {
	t.Run("rasterizer error", func(t *testing.T) {
		renderer := NewRenderer(&fakeRasterizer{err: errors.New("boom")}, newMemoryStorage(), Config{})
		_, err := renderer.RenderBatch(context.Background(), testCampaign(1, 2))
		assert.ErrorIs(t, err, domain.ErrRenderFailed)
	})

	t.Run("storage error", func(t *testing.T) {
		storage := newMemoryStorage()
		storage.err = domain.ErrStorageFailure
		renderer := NewRenderer(&fakeRasterizer{}, storage, Config{})
		_, err := renderer.RenderBatch(context.Background(), testCampaign(1, 2))
		assert.ErrorIs(t, err, domain.ErrRenderFailed)
	})

	t.Run("cancelled context while waiting for a slot", func(t *testing.T) {
		renderer := NewRenderer(&fakeRasterizer{}, newMemoryStorage(), Config{MaxConcurrency: 1})
		renderer.sem <- struct{}{}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := renderer.RenderBatch(ctx, testCampaign(1, 1))
		assert.ErrorIs(t, err, domain.ErrRenderFailed)
	})
}

func TestRenderBatch_HTMLEscaping(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	renderer := NewRenderer(rasterizer, newMemoryStorage(), Config{})

	campaign := testCampaign(3, 1)
	campaign.Items[0].Product.Name = `<script>alert("x")</script>`
	_, err := renderer.RenderBatch(context.Background(), campaign)
	require.NoError(t, err)

	require.Len(t, rasterizer.documents, 1)
	assert.NotContains(t, rasterizer.documents[0], "<script>")
	assert.Contains(t, rasterizer.documents[0], "&lt;script&gt;")
}

func TestRenderBatch_InlinesStoredImages(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	storage := newMemoryStorage()
	storage.files["products/coca.png"] = []byte("coca-bytes")
	storage.files["themes/hero.jpg"] = []byte("hero-bytes")
	renderer := NewRenderer(rasterizer, storage, Config{})

	campaign := testCampaign(5, 2)
	campaign.Items[0].Product.ImagePath = "/storage/products/coca.png"
	campaign.Items[1].Product.ImagePath = "https://storage.googleapis.com/flyers/products/arroz.png"
	campaign.Theme.HeroPath = "/storage/themes/hero.jpg"
	campaign.Theme.BackgroundPath = "/storage/themes/missing.png"

	_, err := renderer.RenderBatch(context.Background(), campaign)
	require.NoError(t, err)
	require.Len(t, rasterizer.documents, 1)
	doc := rasterizer.documents[0]

	coca := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("coca-bytes"))
	hero := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("hero-bytes"))
	assert.Contains(t, doc, `<img src="`+coca+`"`)
	assert.Contains(t, doc, `<img class="hero" src="`+hero+`"`)
	assert.Contains(t, doc, `src="https://storage.googleapis.com/flyers/products/arroz.png"`)
	assert.NotContains(t, doc, "/storage/products/coca.png")
	assert.NotContains(t, doc, `class="background"`)
	assert.NotContains(t, doc, "ZgotmplZ")
	assert.NotContains(t, doc, "<base")
}

func TestRenderBatch_AssetFallbacks(t *testing.T) {
	t.Run("unreadable path resolves against base url", func(t *testing.T) {
		rasterizer := &fakeRasterizer{}
		renderer := NewRenderer(rasterizer, newMemoryStorage(), Config{AssetBaseURL: "https://painel.example.com/"})

		campaign := testCampaign(6, 1)
		campaign.Items[0].Product.ImagePath = "/storage/products/elsewhere.png"
		_, err := renderer.RenderBatch(context.Background(), campaign)
		require.NoError(t, err)

		doc := rasterizer.documents[0]
		assert.Contains(t, doc, `<base href="https://painel.example.com/">`)
		assert.Contains(t, doc, `<img src="/storage/products/elsewhere.png"`)
	})

	t.Run("unsafe scheme is dropped", func(t *testing.T) {
		rasterizer := &fakeRasterizer{}
		renderer := NewRenderer(rasterizer, newMemoryStorage(), Config{AssetBaseURL: "https://painel.example.com/"})

		campaign := testCampaign(6, 1)
		campaign.Items[0].Product.ImagePath = "javascript:alert(1)"
		_, err := renderer.RenderBatch(context.Background(), campaign)
		require.NoError(t, err)
		assert.NotContains(t, rasterizer.documents[0], "javascript:")
	})

	t.Run("non-image content is skipped", func(t *testing.T) {
		rasterizer := &fakeRasterizer{}
		storage := newMemoryStorage()
		storage.files["products/notes.txt"] = []byte("plain text")
		renderer := NewRenderer(rasterizer, storage, Config{})

		campaign := testCampaign(6, 1)
		campaign.Items[0].Product.ImagePath = "/storage/products/notes.txt"
		_, err := renderer.RenderBatch(context.Background(), campaign)
		require.NoError(t, err)
		assert.NotContains(t, rasterizer.documents[0], "<img")
	})
}

func TestDataURI(t *testing.T) {
	pngHeader := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	got, err := dataURI("/storage/products/no-extension", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngHeader), got)

	got, err = dataURI("/storage/products/foto.WEBP", []byte("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/webp;base64,"), got)

	_, err = dataURI("/storage/products/page.html", []byte("<html></html>"))
	assert.Error(t, err)
}

func TestRemoveBatch(t *testing.T) {
	storage := newMemoryStorage()
	renderer := NewRenderer(&fakeRasterizer{}, storage, Config{ChunkSize: 2})
	campaign := testCampaign(8, 5)

	_, err := renderer.RenderBatch(context.Background(), campaign)
	require.NoError(t, err)
	storage.files["generated/campaign_9_batch_0.png"] = []byte("other")
	require.Len(t, storage.files, 4)

	require.NoError(t, renderer.RemoveBatch(context.Background(), campaign))
	assert.Equal(t, map[string][]byte{"generated/campaign_9_batch_0.png": []byte("other")}, storage.files)
	assert.Empty(t, renderer.locks.locks)

	t.Run("is idempotent", func(t *testing.T) {
		assert.NoError(t, renderer.RemoveBatch(context.Background(), campaign))
	})

	t.Run("reports storage errors", func(t *testing.T) {
		storage.err = domain.ErrStorageFailure
		assert.ErrorIs(t, renderer.RemoveBatch(context.Background(), campaign), domain.ErrStorageFailure)
	})

	t.Run("rejects nil campaign", func(t *testing.T) {
		assert.ErrorIs(t, renderer.RemoveBatch(context.Background(), nil), domain.ErrInvalidRequest)
	})
}

func TestRenderBatch_ConcurrentSameCampaign(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	renderer := NewRenderer(rasterizer, newMemoryStorage(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := renderer.RenderBatch(context.Background(), testCampaign(42, 5))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, rasterizer.documents, 10)
	assert.Empty(t, renderer.locks.locks)
}

func TestChromeRasterizer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the browser binary")
	}

	dir := t.TempDir()
	fakeChrome := filepath.Join(dir, "chrome")
	script := "#!/bin/sh\nfor arg in \"$@\"; do case \"$arg\" in --screenshot=*) printf 'PNGDATA' > \"${arg#--screenshot=}\";; esac; done\n"
	require.NoError(t, os.WriteFile(fakeChrome, []byte(script), 0755))

	t.Run("returns screenshot bytes", func(t *testing.T) {
		r := NewChromeRasterizer(fakeChrome, 5*time.Second)
		image, err := r.Rasterize(context.Background(), []byte("<html></html>"), Viewport{Width: 1080, Height: 1920, Scale: 2})
		require.NoError(t, err)
		assert.Equal(t, []byte("PNGDATA"), image)
	})

	t.Run("reports a failing binary", func(t *testing.T) {
		failing := filepath.Join(dir, "failing")
		require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\necho crashed >&2\nexit 3\n"), 0755))

		r := NewChromeRasterizer(failing, 5*time.Second)
		_, err := r.Rasterize(context.Background(), []byte("<html></html>"), Viewport{Width: 10, Height: 10, Scale: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "crashed")
	})
}

func TestChromeArgs(t *testing.T) {
	args := chromeArgs("/tmp/x/flyer.html", "/tmp/x/flyer.png", Viewport{Width: 1080, Height: 1920, Scale: 2})
	assert.Contains(t, args, "--window-size=1080,1920")
	assert.Contains(t, args, "--force-device-scale-factor=2")
	assert.Contains(t, args, "--screenshot=/tmp/x/flyer.png")
	assert.Equal(t, "file:///tmp/x/flyer.html", args[len(args)-1])
}
