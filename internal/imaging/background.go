package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// BackgroundRemover is the external matting capability. Implementations
// return an image whose alpha channel masks out the background; the loader
// owns flattening that onto an opaque canvas.
type BackgroundRemover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// compositeOnWhite alpha-blends img onto an opaque white canvas sized to
// its bounds, leaving no residual transparency.
func compositeOnWhite(img image.Image) *image.NRGBA {
	b := img.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)
	return canvas
}

type HTTPRemoverError struct {
	StatusCode int
	Body       string
}

func (e *HTTPRemoverError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("matting service error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("matting service error: status=%d body=%s", e.StatusCode, e.Body)
}

// HTTPRemover calls an out-of-process matting service: PNG in, PNG with an
// alpha mask out.
type HTTPRemover struct {
	baseURL    string
	path       string
	timeout    time.Duration
	httpClient *http.Client
}

func NewHTTPRemover(baseURL string, timeout time.Duration) (*HTTPRemover, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("matting: base url required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
	return &HTTPRemover{
		baseURL:    baseURL,
		path:       "/v1/remove-background",
		timeout:    timeout,
		httpClient: &http.Client{Transport: tr},
	}, nil
}

// NewHTTPRemoverWithClient is intended for tests; it avoids network access by
// using a custom RoundTripper.
func NewHTTPRemoverWithClient(baseURL string, timeout time.Duration, httpClient *http.Client) (*HTTPRemover, error) {
	r, err := NewHTTPRemover(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		r.httpClient = httpClient
	}
	return r, nil
}

func (r *HTTPRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("matting: encode input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+r.path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "image/png")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matting: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &HTTPRemoverError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	out, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("matting: decode output: %w", err)
	}
	return out, nil
}
