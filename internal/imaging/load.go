// Package imaging loads images from any supported locator and produces the
// canonical form the rest of the pipeline works with: an opaque NRGBA image
// with EXIF orientation already applied.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
	"github.com/yungbote/hairsim-backend/internal/simerr"
)

// ObjectStore is the slice of the bucket client the loader needs: raw reads
// of arbitrary objects, because gs:// locators name their own bucket.
type ObjectStore interface {
	ReadObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

type Loader struct {
	log        *logger.Logger
	objects    ObjectStore
	remover    BackgroundRemover
	httpClient *http.Client
}

func NewLoader(log *logger.Logger, objects ObjectStore, remover BackgroundRemover) *Loader {
	return &Loader{
		log:        log.With("component", "ImageLoader"),
		objects:    objects,
		remover:    remover,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Load fetches the image behind locator, decodes it, applies EXIF
// orientation and flattens it to an opaque canonical image. When
// removeBackground is set, the matting capability runs and its masked
// output is composited onto a white canvas of the original size. Any fetch
// or decode failure surfaces as *simerr.ImageLoadError; there is no retry
// at this layer.
func (l *Loader) Load(ctx context.Context, locator string, removeBackground bool) (image.Image, error) {
	raw, err := l.fetch(ctx, locator)
	if err != nil {
		return nil, &simerr.ImageLoadError{Locator: locator, Err: err}
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &simerr.ImageLoadError{Locator: locator, Err: fmt.Errorf("decode: %w", err)}
	}
	l.log.Debug("Image decoded", "locator", locator, "format", format, "bounds", img.Bounds().String())

	img = applyOrientation(img, raw)

	if removeBackground {
		if l.remover == nil {
			return nil, &simerr.ImageLoadError{Locator: locator, Err: fmt.Errorf("background removal requested but no remover configured")}
		}
		removed, err := l.remover.Remove(ctx, img)
		if err != nil {
			return nil, &simerr.ImageLoadError{Locator: locator, Err: err}
		}
		img = removed
	}

	return compositeOnWhite(img), nil
}

// Locator dispatch is purely by prefix: gs:// object storage, http(s)://
// URL, anything else a filesystem path.
func (l *Loader) fetch(ctx context.Context, locator string) ([]byte, error) {
	switch {
	case strings.HasPrefix(locator, "gs://"):
		return l.fetchObject(ctx, locator)
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return l.fetchURL(ctx, locator)
	default:
		return os.ReadFile(locator)
	}
}

func (l *Loader) fetchObject(ctx context.Context, locator string) ([]byte, error) {
	if l.objects == nil {
		return nil, fmt.Errorf("no object store configured for %q", locator)
	}
	rest := strings.TrimPrefix(locator, "gs://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("malformed object locator %q", locator)
	}
	rc, err := l.objects.ReadObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (l *Loader) fetchURL(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
