package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/framestock/internal/config"
)

var (
	ErrConfigInvalid   = errors.New("payment intent config invalid")
	ErrRequestFailed   = errors.New("payment intent request failed")
	ErrResponseInvalid = errors.New("payment intent response invalid")
)

const (
	defaultTimeout      = 10 * time.Second
	maxResponseBodySize = 1 << 20
)

// Client 远端支付意图接口客户端，失败不重试
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient 创建支付意图客户端
func NewClient(cfg *config.CheckoutConfig) *Client {
	timeout := defaultTimeout
	endpoint := ""
	if cfg != nil {
		endpoint = strings.TrimSpace(cfg.PaymentIntentURL)
		if cfg.TimeoutMS > 0 {
			timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
		}
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint 返回请求地址
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CreatePaymentIntent 创建支付意图并返回 clientSecret
func (c *Client) CreatePaymentIntent(ctx context.Context, payload PaymentIntentRequest) (string, error) {
	if c == nil || c.endpoint == "" {
		return "", fmt.Errorf("%w: payment_intent_url is required", ErrConfigInvalid)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request failed", ErrRequestFailed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return "", fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}

	var parsed PaymentIntentResponse
	decodeErr := json.Unmarshal(respBody, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && strings.TrimSpace(parsed.Error) != "" {
			return "", fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(parsed.Error))
		}
		return "", fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	secret := strings.TrimSpace(parsed.ClientSecret)
	if secret == "" {
		return "", fmt.Errorf("%w: clientSecret is empty", ErrResponseInvalid)
	}
	return secret, nil
}
