package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	previewSuffix  = ".thumb.webp"
	previewQuality = 80
	// Larger sources are not decoded for previews.
	maxPreviewSourceBytes = 20 << 20
)

// ErrNotPreviewable is returned for payloads that are not decodable raster images.
var ErrNotPreviewable = errors.New("media is not previewable")

// PreviewGenerator renders WebP thumbnails next to stored images.
type PreviewGenerator struct {
	store *MediaStore
	maxPx int
}

// NewPreviewGenerator returns a generator bounded to maxPx on the longest edge.
func NewPreviewGenerator(store *MediaStore, maxPx int) *PreviewGenerator {
	if maxPx <= 0 {
		maxPx = 320
	}
	return &PreviewGenerator{store: store, maxPx: maxPx}
}

// Generate decodes the stored file and writes "<name>.thumb.webp", returning its URL.
func (g *PreviewGenerator) Generate(ctx context.Context, file *StoredFile) (string, error) {
	if !isPreviewableMIME(file.MimeType) || file.Size > maxPreviewSourceBytes {
		return "", ErrNotPreviewable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := g.store.Open(file.Name)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	src, _, err := image.Decode(io.LimitReader(f, maxPreviewSourceBytes))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", file.Name, err)
	}

	data, err := encodeWebP(resizeToFit(src, g.maxPx, g.maxPx), previewQuality)
	if err != nil {
		return "", fmt.Errorf("encode preview for %s: %w", file.Name, err)
	}

	return g.store.WriteFile(PreviewName(file.Name), data)
}

// PreviewName returns the thumbnail name for a stored file.
func PreviewName(name string) string {
	return name + previewSuffix
}

func isPreviewableMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
