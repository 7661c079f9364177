package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mooot/league/pkg/logger"
	"github.com/mooot/league/pkg/metrics"
)

const (
	defaultBaseURL    = "https://api.telegram.org"
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 2
	defaultRetryDelay = 500 * time.Millisecond
)

// APIError is an error reported by the Bot API.
type APIError struct {
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

func (e *APIError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

type sendMessageBody struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// TelegramOption configures a TelegramSender.
type TelegramOption func(*TelegramSender)

// WithBaseURL points the sender at another Bot API host.
func WithBaseURL(url string) TelegramOption {
	return func(s *TelegramSender) {
		if url != "" {
			s.baseURL = url
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) TelegramOption {
	return func(s *TelegramSender) {
		if c != nil {
			s.client = c
		}
	}
}

// WithRetries sets how many times a retryable failure is retried and the
// base delay between attempts.
func WithRetries(n int, delay time.Duration) TelegramOption {
	return func(s *TelegramSender) {
		if n >= 0 {
			s.retries = n
		}
		if delay >= 0 {
			s.retryDelay = delay
		}
	}
}

// TelegramSender posts messages through the Bot API sendMessage method.
type TelegramSender struct {
	token      string
	baseURL    string
	client     *http.Client
	retries    int
	retryDelay time.Duration
	logger     logger.Logger
}

// NewTelegramSender creates a sender for the bot identified by token.
func NewTelegramSender(token string, opts ...TelegramOption) (*TelegramSender, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	s := &TelegramSender{
		token:      token,
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: defaultTimeout},
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		logger:     logger.Get().Named("telegram"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send delivers msg, retrying rate limits and server errors.
func (s *TelegramSender) Send(ctx context.Context, chatID int64, msg Message) error {
	body := sendMessageBody{ChatID: chatID, Text: msg.Text, ParseMode: msg.ParseMode}

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay * time.Duration(1<<uint(attempt-1))
			var apiErr *APIError
			if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > 0 {
				delay = time.Duration(apiErr.RetryAfter) * time.Second
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrDeliveryFailed, ctx.Err())
			case <-time.After(delay):
			}
		}

		lastErr = s.call(ctx, "sendMessage", body)
		if lastErr == nil {
			metrics.RecordNotification(metrics.ResultSent)
			return nil
		}
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && !apiErr.retryable() {
			break
		}
		s.logger.Warn(ctx, "sendMessage failed", logger.Int64("chat_id", chatID), logger.Int("attempt", attempt+1), logger.Error(lastErr))
	}
	metrics.RecordNotification(metrics.ResultFailed)
	return fmt.Errorf("%w: chat %d: %v", ErrDeliveryFailed, chatID, lastErr)
}

func (s *TelegramSender) call(ctx context.Context, method string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", s.baseURL, s.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if !apiResp.OK {
		apiErr := &APIError{Code: apiResp.ErrorCode, Description: apiResp.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if apiResp.Parameters != nil {
			apiErr.RetryAfter = apiResp.Parameters.RetryAfter
		}
		return apiErr
	}
	return nil
}
