package notion

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"storygraph-backend/internal/config"
	"storygraph-backend/pkg/errors"
	"storygraph-backend/pkg/observability"
)

const (
	// MaxPageSize is the upstream's hard cap on query and property pages.
	MaxPageSize = 100

	maxResponseBytes  = 10 * 1024 * 1024
	maxRetryAfterWait = 30 * time.Second
)

// errServerStatus feeds 5xx responses into the circuit breaker's failure
// count without losing the response for error mapping.
var errServerStatus = stderrors.New("upstream returned a server error")

// Gateway is the upstream surface the pipeline consumes. Client implements
// it against the live workspace API; tests substitute fakes.
type Gateway interface {
	QueryDatabase(ctx context.Context, databaseID string, opts QueryOptions) (*QueryResult, error)
	RetrievePage(ctx context.Context, pageID string) (*Page, error)
	RetrievePropertyPage(ctx context.Context, pageID, propertyID, cursor string) (*PropertyPage, error)
	UpdatePage(ctx context.Context, pageID string, properties Properties) (*Page, error)
	CreatePage(ctx context.Context, databaseID string, properties Properties) (*Page, error)
	ArchivePage(ctx context.Context, pageID string) (*Page, error)
}

// Client is the only component that knows a concrete HTTP client exists.
// Every outbound call consumes one reservoir token and the single in-flight
// slot, so the upstream never sees concurrent traffic from this process.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	version    string

	limiter  *ReservoirLimiter
	inflight *semaphore.Weighted
	breaker  *gobreaker.CircuitBreaker

	maxRetries int
	logger     *zap.Logger
	metrics    *observability.Collector
	tracer     trace.Tracer
}

var _ Gateway = (*Client)(nil)

// NewClient creates a gateway client from configuration. The limiter is
// injected so tests and the DI container control the rate discipline.
func NewClient(cfg *config.Config, limiter *ReservoirLimiter, metrics *observability.Collector, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewDisabledLimiter()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notion",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout},
		baseURL:    cfg.NotionBaseURL,
		token:      cfg.NotionAPIKey,
		version:    cfg.NotionVersion,
		limiter:    limiter,
		inflight:   semaphore.NewWeighted(1),
		breaker:    breaker,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
		metrics:    metrics,
		tracer:     noop.NewTracerProvider().Tracer("notion"),
	}
}

// WithHTTPClient returns the client with a custom HTTP client, for tests.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// WithBaseURL returns the client pointed at a different API root, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithTracer installs a real tracer in place of the default no-op.
func (c *Client) WithTracer(tracer trace.Tracer) *Client {
	if tracer != nil {
		c.tracer = tracer
	}
	return c
}

// QueryDatabase runs one page of a database query. The filter blob is
// passed through verbatim.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, opts QueryOptions) (*QueryResult, error) {
	if opts.PageSize <= 0 || opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}
	payload := queryRequest{
		StartCursor: opts.StartCursor,
		PageSize:    opts.PageSize,
		Filter:      opts.Filter,
	}

	body, err := c.doRequest(ctx, "query_database", http.MethodPost, "/databases/"+url.PathEscape(databaseID)+"/query", payload)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewInternalError("failed to parse database query response").WithCause(err)
	}

	result := &QueryResult{Pages: resp.Results, HasMore: resp.HasMore}
	if resp.NextCursor != nil {
		result.NextCursor = *resp.NextCursor
	}
	return result, nil
}

// RetrievePage fetches a single page by id.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	body, err := c.doRequest(ctx, "retrieve_page", http.MethodGet, "/pages/"+url.PathEscape(pageID), nil)
	if err != nil {
		return nil, err
	}
	return parsePage(body)
}

// RetrievePropertyPage fetches one page of property items, used to complete
// relations the upstream truncated. propertyID is the opaque property id
// from the page's bag, not the human-readable name.
func (c *Client) RetrievePropertyPage(ctx context.Context, pageID, propertyID, cursor string) (*PropertyPage, error) {
	path := "/pages/" + url.PathEscape(pageID) + "/properties/" + url.PathEscape(propertyID)
	params := url.Values{"page_size": []string{strconv.Itoa(MaxPageSize)}}
	if cursor != "" {
		params.Set("start_cursor", cursor)
	}

	body, err := c.doRequest(ctx, "retrieve_property", http.MethodGet, path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp propertyItemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewInternalError("failed to parse property response").WithCause(err)
	}

	page := &PropertyPage{Results: resp.Results, HasMore: resp.HasMore}
	if resp.NextCursor != nil {
		page.NextCursor = *resp.NextCursor
	}
	if resp.Object != "list" && resp.Relation != nil {
		page.Results = []PropertyItem{{Type: TypeRelation, Relation: resp.Relation}}
		page.HasMore = false
	}
	return page, nil
}

// UpdatePage patches a page's properties and returns the updated page. The
// response may contain only the properties that were sent; the merger
// upstack reconciles that against the previous state.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties Properties) (*Page, error) {
	payload := updatePageRequest{Properties: properties}
	body, err := c.doRequest(ctx, "update_page", http.MethodPatch, "/pages/"+url.PathEscape(pageID), payload)
	if err != nil {
		return nil, err
	}
	return parsePage(body)
}

// CreatePage inserts a new page into a database.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties Properties) (*Page, error) {
	payload := createPageRequest{
		Parent:     Parent{Type: "database_id", DatabaseID: databaseID},
		Properties: properties,
	}
	body, err := c.doRequest(ctx, "create_page", http.MethodPost, "/pages", payload)
	if err != nil {
		return nil, err
	}
	return parsePage(body)
}

// ArchivePage marks a page archived. Archived pages disappear from query
// results; the upstream never hard-deletes.
func (c *Client) ArchivePage(ctx context.Context, pageID string) (*Page, error) {
	archived := true
	payload := updatePageRequest{Archived: &archived}
	body, err := c.doRequest(ctx, "archive_page", http.MethodPatch, "/pages/"+url.PathEscape(pageID), payload)
	if err != nil {
		return nil, err
	}
	return parsePage(body)
}

func parsePage(body []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errors.NewInternalError("failed to parse page response").WithCause(err)
	}
	return &page, nil
}

// attemptResult carries one HTTP exchange's outcome out of the breaker.
type attemptResult struct {
	status int
	header http.Header
	body   []byte
}

// doRequest performs one logical upstream call: token, in-flight slot,
// HTTP exchange, retries with exponential backoff for transient failures.
// Permanent 4xx surface immediately with the upstream's status and code.
func (c *Client) doRequest(ctx context.Context, operation, method, path string, payload interface{}) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.NewInternalError("failed to marshal request body").WithCause(err)
		}
		reqBody = b
	}

	ctx, span := c.tracer.Start(ctx, "notion."+operation, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("notion.operation", operation),
	))
	defer span.End()

	var out []byte
	attempts := 0
	op := func() error {
		attempts++
		if attempts > 1 {
			c.metrics.ObserveGatewayRetry(operation)
			c.logger.Debug("retrying upstream call",
				zap.String("operation", operation),
				zap.Int("attempt", attempts),
			)
		}
		body, err := c.attempt(ctx, operation, method, path, reqBody)
		if err != nil {
			return err
		}
		out = body
		return nil
	}

	schedule := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(op, schedule); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

// attempt runs a single HTTP exchange and classifies the outcome: nil for
// success, backoff.Permanent for errors another attempt cannot fix, a plain
// error for everything worth retrying.
func (c *Client) attempt(ctx context.Context, operation, method, path string, reqBody []byte) ([]byte, error) {
	tokenStart := time.Now()
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, backoff.Permanent(errors.NewTimeoutError(operation).WithCause(err))
	}
	c.metrics.ObserveTokenWait(time.Since(tokenStart))

	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return nil, backoff.Permanent(errors.NewTimeoutError(operation).WithCause(err))
	}

	start := time.Now()
	result, cbErr := c.breaker.Execute(func() (interface{}, error) {
		var body io.Reader
		if reqBody != nil {
			body = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, backoff.Permanent(errors.NewInternalError("failed to create request").WithCause(err))
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", c.version)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.NewNetworkError(fmt.Sprintf("upstream %s failed", operation), err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, errors.NewNetworkError("failed to read upstream response", err)
		}

		res := &attemptResult{status: resp.StatusCode, header: resp.Header, body: data}
		if res.status >= http.StatusInternalServerError {
			return res, errServerStatus
		}
		return res, nil
	})
	c.inflight.Release(1)
	duration := time.Since(start)

	if result == nil {
		c.metrics.ObserveGatewayRequest(operation, 0, duration)
		switch {
		case stderrors.Is(cbErr, gobreaker.ErrOpenState), stderrors.Is(cbErr, gobreaker.ErrTooManyRequests):
			return nil, backoff.Permanent(errors.NewUnavailableError("notion"))
		case ctx.Err() != nil:
			return nil, backoff.Permanent(errors.NewTimeoutError(operation).WithCause(ctx.Err()))
		default:
			// Transport-level failure: retryable.
			return nil, cbErr
		}
	}

	res := result.(*attemptResult)
	c.metrics.ObserveGatewayRequest(operation, res.status, duration)

	if res.status >= 200 && res.status < 300 {
		return res.body, nil
	}

	retryAfter := parseRetryAfter(res.header)
	appErr := mapAPIError(res.status, res.body, retryAfter)
	if !isRetryable(res.status) {
		return nil, backoff.Permanent(appErr)
	}

	if res.status == http.StatusTooManyRequests && retryAfter > 0 {
		// Honor the upstream's requested wait before the schedule's own
		// delay; otherwise the next attempt would burn straight into the
		// same window.
		wait := retryAfter
		if wait > maxRetryAfterWait {
			wait = maxRetryAfterWait
		}
		c.logger.Warn("upstream rate limited, honoring Retry-After",
			zap.String("operation", operation),
			zap.Duration("retryAfter", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, backoff.Permanent(errors.NewTimeoutError(operation).WithCause(ctx.Err()))
		case <-timer.C:
		}
	}
	return nil, appErr
}

// newBackOff returns the retry schedule: randomized exponential waits
// starting around half a second, growing past the upstream's one-second
// refill window by the second retry.
func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	return b
}
