package challenge

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/tracing"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/jonboulle/clockwork"
)

// remoteIndex is the JSON document served at the remote catalog URL
type remoteIndex struct {
	Challenges []manifest `json:"challenges"`
}

// RemoteConfig configures a RemoteSource
type RemoteConfig struct {
	URL          string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// BreakerTimeout is how long the index stays skipped after three
	// consecutive failed fetches
	BreakerTimeout time.Duration
	Clock          clockwork.Clock
}

// RemoteSource fetches a JSON challenge index over HTTP. Transient
// failures are retried; repeated failures open a circuit breaker.
type RemoteSource struct {
	url     string
	client  *resty.Client
	breaker *resilience.Breaker
}

// NewRemoteSource creates a remote source for cfg.URL
func NewRemoteSource(cfg RemoteConfig) *RemoteSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = 500 * time.Millisecond
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = 5 * time.Second
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil // Disable logging

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Playground-Catalog/1.0")

	breaker := resilience.New("challenge-index", resilience.Settings{
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		Clock: cfg.Clock,
	})

	return &RemoteSource{url: cfg.URL, client: client, breaker: breaker}
}

// URL returns the index location
func (r *RemoteSource) URL() string {
	return r.url
}

// Breaker exposes the circuit breaker state for health reporting
func (r *RemoteSource) Breaker() *resilience.Breaker {
	return r.breaker
}

// Fetch downloads and decodes the index. File references are not
// supported remotely; only inline starter text is used.
func (r *RemoteSource) Fetch(ctx context.Context) ([]Challenge, error) {
	resp, err := resilience.Execute(r.breaker, func() (*resty.Response, error) {
		req := r.client.R().SetContext(ctx)
		tracing.Inject(ctx, req.Header)
		resp, err := req.Get(r.url)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, fmt.Errorf("unexpected status %d", resp.StatusCode())
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenge index: %w", err)
	}

	var index remoteIndex
	if err := sonic.Unmarshal(resp.Body(), &index); err != nil {
		return nil, fmt.Errorf("failed to decode challenge index: %w", err)
	}

	out := make([]Challenge, 0, len(index.Challenges))
	for _, m := range index.Challenges {
		ch, err := m.challenge("", r.url)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}
