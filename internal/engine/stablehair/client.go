// Package stablehair is the HTTP client for the out-of-process hair-transfer
// model server. The server holds the model weights on the accelerator; this
// client is cheap to construct, but the server's own startup is not, which
// is why construction is deferred behind the session factory.
package stablehair

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/hairsim-backend/internal/engine"
)

const defaultTransferPath = "/v1/hair-transfer"

type Config struct {
	BaseURL      string
	TransferPath string
	APIKey       string
	// DialTimeout covers connection establishment only; call deadlines come
	// from the caller's context (the session applies the per-call timeout).
	DialTimeout time.Duration
}

type Client struct {
	baseURL      string
	transferPath string
	apiKey       string
	httpClient   *http.Client
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("stablehair: base url required")
	}
	path := strings.TrimSpace(cfg.TransferPath)
	if path == "" {
		path = defaultTransferPath
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &Client{
		baseURL:      baseURL,
		transferPath: path,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		httpClient:   &http.Client{Transport: tr},
	}, nil
}

// NewWithHTTPClient is intended for tests; it avoids network access by using
// a custom RoundTripper.
func NewWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

type transferRequest struct {
	Source                      string  `json:"source_image"`
	Reference                   string  `json:"reference_image"`
	Seed                        int64   `json:"seed"`
	Steps                       int     `json:"steps"`
	GuidanceScale               float64 `json:"guidance_scale"`
	Scale                       float64 `json:"scale"`
	ControlNetConditioningScale float64 `json:"controlnet_conditioning_scale"`
	ConverterScale              float64 `json:"converter_scale"`
}

type transferResponse struct {
	Bald   string `json:"bald_image"`
	Result string `json:"result_image"`
}

func (c *Client) Transfer(ctx context.Context, source, reference image.Image, params engine.Params) (image.Image, image.Image, error) {
	srcB64, err := encodePNGBase64(source)
	if err != nil {
		return nil, nil, fmt.Errorf("stablehair: encode source: %w", err)
	}
	refB64, err := encodePNGBase64(reference)
	if err != nil {
		return nil, nil, fmt.Errorf("stablehair: encode reference: %w", err)
	}

	body, err := json.Marshal(transferRequest{
		Source:                      srcB64,
		Reference:                   refB64,
		Seed:                        params.Seed,
		Steps:                       params.Steps,
		GuidanceScale:               params.GuidanceScale,
		Scale:                       params.Scale,
		ControlNetConditioningScale: params.ControlNetConditioningScale,
		ConverterScale:              params.ConverterScale,
	})
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.transferPath, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil, fmt.Errorf("stablehair: decode response: %w", err)
	}

	bald, err := decodePNGBase64(out.Bald)
	if err != nil {
		return nil, nil, fmt.Errorf("stablehair: decode bald image: %w", err)
	}
	result, err := decodePNGBase64(out.Result)
	if err != nil {
		return nil, nil, fmt.Errorf("stablehair: decode result image: %w", err)
	}
	return bald, result, nil
}

// Close drops pooled connections; the model server's lifecycle is its own.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func encodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decodePNGBase64(s string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(raw))
}
