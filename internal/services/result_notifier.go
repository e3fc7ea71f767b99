package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yungbote/hairsim-backend/internal/domain"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
	"github.com/yungbote/hairsim-backend/internal/simerr"
)

const resultNotifyPath = "/run-recommendation/"

// ResultNotifier tells the main API that a run finished. Delivery is best
// effort: the orchestrator logs a failure and moves on, because the result
// rows are already persisted and the main API can always re-read them.
type ResultNotifier interface {
	NotifyResult(ctx context.Context, agg domain.ResultAggregate) error
}

type resultNotifier struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewResultNotifier(log *logger.Logger) (ResultNotifier, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("MAIN_API_URL")), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing env var MAIN_API_URL")
	}
	return &resultNotifier{
		log:        log.With("service", "ResultNotifier"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// NewResultNotifierWithClient is intended for tests.
func NewResultNotifierWithClient(log *logger.Logger, baseURL string, httpClient *http.Client) ResultNotifier {
	return &resultNotifier{
		log:        log.With("service", "ResultNotifier"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// notifyPayload is the wire shape the main API has consumed since the first
// deployment: the recommendation list rides nested under "result".
type notifyPayload struct {
	UserID    int64        `json:"user_id"`
	RequestID int64        `json:"request_id"`
	Result    notifyResult `json:"result"`
}

type notifyResult struct {
	Recommendations []domain.AggregateItem `json:"recommendations"`
}

func (n *resultNotifier) NotifyResult(ctx context.Context, agg domain.ResultAggregate) error {
	items := agg.Results
	if items == nil {
		items = []domain.AggregateItem{}
	}
	body, err := json.Marshal(notifyPayload{
		UserID:    agg.UserID,
		RequestID: agg.RequestID,
		Result:    notifyResult{Recommendations: items},
	})
	if err != nil {
		return &simerr.NotifyError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+resultNotifyPath, bytes.NewReader(body))
	if err != nil {
		return &simerr.NotifyError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &simerr.NotifyError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &simerr.NotifyError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))}
	}
	return nil
}
