package analysis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/TxGate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/resilience"
)

// ErrTimeout marks a backend call that exceeded the client-side bound.
var ErrTimeout = errors.New("analysis request timed out")

// DefaultTimeout is the client-side bound on a single analysis call.
const DefaultTimeout = 60 * time.Second

// Client talks to the analysis backend.
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
	logger  *logging.Logger
}

// NewClient creates a backend client. A zero timeout means DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration, logger *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	rc := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("User-Agent", "TxGate/1.0").
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	breaker := resilience.New("analysis-backend", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{resty: rc, breaker: breaker, logger: logger}
}

// Analyze posts a transaction for risk analysis.
func (c *Client) Analyze(ctx context.Context, req Request) (*Result, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var result Result
		resp, err := c.resty.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&result).
			Post("/v1/tx/analyze")
		if err != nil {
			if isTimeout(err) {
				return nil, fmt.Errorf("%w after %s", ErrTimeout, c.resty.GetClient().Timeout)
			}
			return nil, fmt.Errorf("analysis request failed: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("analysis backend returned %s", resp.Status())
		}
		return &result, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*Result), nil
}

// Health checks the backend.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&health).
		Get("/healthz")
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("analysis backend returned %s", resp.Status())
	}
	return &health, nil
}

// Chains lists the chains the backend supports.
func (c *Client) Chains(ctx context.Context) ([]Chain, error) {
	var chains []Chain
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&chains).
		Get("/v1/chains")
	if err != nil {
		return nil, fmt.Errorf("chain list failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("analysis backend returned %s", resp.Status())
	}
	return chains, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
