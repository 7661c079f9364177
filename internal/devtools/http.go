package devtools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mooot/league/internal/domain/types"
	"github.com/mooot/league/pkg/logger"
)

// Submission outcomes.
const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// HTTPClient talks to the league API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client for baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Health checks GET /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned %d", status)
	}
	return nil
}

// Stats fetches GET /stats.
func (c *HTTPClient) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if _, err := c.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ranking fetches the all-time ranking of chatID.
func (c *HTTPClient) Ranking(ctx context.Context, chatID int64) ([]types.Entry, error) {
	var out struct {
		Entries []types.Entry `json:"entries"`
	}
	path := "/chats/" + strconv.FormatInt(chatID, 10) + "/ranking?period=all"
	status, err := c.do(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("ranking returned %d", status)
	}
	return out.Entries, nil
}

// SubmitPlay posts one play and classifies the outcome.
func (c *HTTPClient) SubmitPlay(ctx context.Context, chatID int64, req PlayRequest) string {
	path := "/chats/" + strconv.FormatInt(chatID, 10) + "/plays"
	status, err := c.do(ctx, http.MethodPost, path, req, nil)
	switch {
	case err != nil:
		return resultFailed
	case status == http.StatusAccepted:
		return resultAccepted
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return resultRejected
	default:
		return resultFailed
	}
}

// submitPlays posts plays concurrently with cfg.Workers submitters.
func submitPlays(ctx context.Context, cfg *Config, client *HTTPClient, plays []Generated, stats *Stats) {
	log := logger.Get().Named("devtools")
	log.Info(ctx, "submitting plays", logger.Int("plays", len(plays)), logger.Int("workers", cfg.Workers))

	var accepted, rejected, failed, submitted atomic.Int64
	jobs := make(chan PlayRequest, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				submitted.Add(1)
				switch client.SubmitPlay(ctx, cfg.ChatID, req) {
				case resultAccepted:
					accepted.Add(1)
				case resultRejected:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range plays {
			select {
			case <-ctx.Done():
				return
			case jobs <- p.Request:
			}
		}
	}()
	wg.Wait()

	stats.PlaysSubmitted = int(submitted.Load())
	stats.PlaysAccepted = int(accepted.Load())
	stats.PlaysRejected = int(rejected.Load())
	stats.PlaysFailed = int(failed.Load())
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.PlaysAccepted),
		logger.Int("rejected", stats.PlaysRejected),
		logger.Int("failed", stats.PlaysFailed),
	)
}
