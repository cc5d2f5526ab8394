package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// MaxAssetSize caps how much of a stored image gets inlined into a flyer
const MaxAssetSize = 10 << 20

// assetResolver maps a stored image path to a URL the browser can load from a file:// page
type assetResolver func(path string) template.URL

// newAssetResolver inlines stored files as data URIs and passes absolute http(s) URLs through.
// Each path is read at most once per resolver.
func (r *Renderer) newAssetResolver(ctx context.Context) assetResolver {
	resolved := make(map[string]template.URL)
	return func(p string) template.URL {
		if p == "" {
			return ""
		}
		if u, ok := resolved[p]; ok {
			return u
		}
		u := r.resolveAsset(ctx, p)
		resolved[p] = u
		return u
	}
}

func (r *Renderer) resolveAsset(ctx context.Context, p string) template.URL {
	u, err := url.Parse(p)
	if err != nil {
		log.Printf("[RENDER] Skipping image %q: %v", p, err)
		return ""
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return template.URL(u.String())
	}

	uri, err := r.inlineAsset(ctx, p)
	if err == nil {
		return template.URL(uri)
	}
	// Relative paths still resolve against <base> when one is configured
	if r.cfg.AssetBaseURL != "" && u.Scheme == "" {
		return template.URL(u.String())
	}
	log.Printf("[RENDER] Skipping image %q: %v", p, err)
	return ""
}

func (r *Renderer) inlineAsset(ctx context.Context, p string) (string, error) {
	rc, err := r.storage.Open(ctx, p)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxAssetSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxAssetSize {
		return "", fmt.Errorf("image larger than %d bytes", MaxAssetSize)
	}
	return dataURI(p, data)
}

// dataURI encodes an image as a base64 data URI, typed by extension or by sniffing
func dataURI(p string, data []byte) (string, error) {
	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(p)))
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported content type %s", contentType)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
