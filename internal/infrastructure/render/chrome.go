package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// ChromeRasterizer screenshots HTML with a headless Chrome/Chromium binary
type ChromeRasterizer struct {
	binary  string
	timeout time.Duration
}

// NewChromeRasterizer creates a rasterizer for the given browser binary
func NewChromeRasterizer(binary string, timeout time.Duration) *ChromeRasterizer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChromeRasterizer{binary: binary, timeout: timeout}
}

// Rasterize writes html to a private temp directory and screenshots it
func (c *ChromeRasterizer) Rasterize(ctx context.Context, html []byte, viewport Viewport) ([]byte, error) {
	workDir, err := os.MkdirTemp("", "flyer-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	htmlPath := filepath.Join(workDir, "flyer.html")
	if err := os.WriteFile(htmlPath, html, 0600); err != nil {
		return nil, fmt.Errorf("failed to write flyer html: %w", err)
	}
	outPath := filepath.Join(workDir, "flyer.png")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, chromeArgs(htmlPath, outPath, viewport)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("chrome failed: %w: %s", err, truncate(stderr.String(), 512))
	}

	image, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("chrome produced no screenshot: %w", err)
	}
	return image, nil
}

func chromeArgs(htmlPath, outPath string, viewport Viewport) []string {
	return []string{
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--hide-scrollbars",
		"--virtual-time-budget=10000",
		fmt.Sprintf("--window-size=%d,%d", viewport.Width, viewport.Height),
		"--force-device-scale-factor=" + strconv.FormatFloat(viewport.Scale, 'f', -1, 64),
		"--screenshot=" + outPath,
		"file://" + htmlPath,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
