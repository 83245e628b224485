package notification

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/openbracket/arena/internal/platform/resilience"
	"github.com/openbracket/arena/internal/usecase"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type WebhookConfig struct {
	URL            string
	AuthToken      string
	Timeout        time.Duration
	Workers        int
	MaxAttempts    int
	RetryBackoff   time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookDispatcher delivers lifecycle events to a configured HTTP endpoint.
// Publish only enqueues; delivery runs on a worker pool with retries, so the
// caller's transaction outcome never depends on the receiving side.
type WebhookDispatcher struct {
	client         *fasthttp.Client
	url            string
	authToken      string
	timeout        time.Duration
	maxAttempts    int
	retryBackoff   time.Duration
	logger         *slog.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool

	pool     *ants.Pool
	inFlight sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewWebhookDispatcher(cfg WebhookConfig, logger *slog.Logger) (*WebhookDispatcher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, crerr.New("webhook url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 4
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = 500 * time.Millisecond
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, crerr.Wrap(err, "create webhook worker pool")
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &WebhookDispatcher{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		url:            strings.TrimSpace(cfg.URL),
		authToken:      strings.TrimSpace(cfg.AuthToken),
		timeout:        timeout,
		maxAttempts:    maxAttempts,
		retryBackoff:   retryBackoff,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		pool:           pool,
	}, nil
}

// Publish hands the event to the worker pool and returns immediately. A
// saturated pool drops the event with a log line rather than blocking the
// request path.
func (d *WebhookDispatcher) Publish(ctx context.Context, event usecase.Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.WarnContext(ctx, "webhook dispatcher closed, dropping event", "event_type", event.Type)
		return
	}
	d.inFlight.Add(1)
	d.mu.Unlock()

	err := d.pool.Submit(func() {
		defer d.inFlight.Done()
		d.deliver(event)
	})
	if err != nil {
		d.inFlight.Done()
		d.logger.WarnContext(ctx, "webhook queue saturated, dropping event", "event_type", event.Type, "error", err)
	}
}

// Close drains in-flight deliveries and releases the pool.
func (d *WebhookDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.inFlight.Wait()
	d.pool.Release()
}

func (d *WebhookDispatcher) deliver(event usecase.Event) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(event); err != nil {
		d.logger.Error("marshal webhook event", "event_type", event.Type, "error", err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(d.retryBackoff * time.Duration(attempt-1))
		}

		if d.circuitEnabled {
			if err := d.breaker.Allow(); err != nil {
				lastErr = err
				continue
			}
		}

		err := d.send(buf.B)
		if err == nil {
			if d.circuitEnabled {
				d.breaker.RecordSuccess()
			}
			d.logger.Debug("webhook event delivered", "event_type", event.Type, "attempt", attempt)
			return
		}

		lastErr = err
		if d.circuitEnabled {
			d.breaker.RecordFailure()
		}
		if !crerr.Is(err, errWebhookTransient) {
			break
		}
	}

	d.logger.Error("webhook event delivery failed",
		"event_type", event.Type,
		"attempts", d.maxAttempts,
		"error", lastErr,
	)
}

func (d *WebhookDispatcher) send(body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if d.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.authToken)
	}
	req.SetBody(body)

	if err := d.client.DoTimeout(req, resp, d.timeout); err != nil {
		return crerr.WithSecondaryError(errWebhookTransient, err)
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500 || status == fasthttp.StatusTooManyRequests:
		return crerr.Wrapf(errWebhookTransient, "webhook responded %d", status)
	default:
		return crerr.Newf("webhook rejected event with status %d", status)
	}
}
