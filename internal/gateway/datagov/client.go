package datagov

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mandi/internal/config"
	"mandi/internal/logger"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Client wraps the data.gov.in resource API interactions required by the
// fetch pipeline.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	key         string
	resourceID  string
	batchSize   int
	maxRetries  int
	limiter     *rate.Limiter
	backoffBase time.Duration
}

// RawRecord is one record exactly as the API reports it: all fields are
// strings and nothing has been checked yet. The validator owns coercion.
type RawRecord struct {
	State       string
	District    string
	Market      string
	Commodity   string
	Variety     string
	MinPrice    string
	MaxPrice    string
	ModalPrice  string
	ArrivalDate string
}

// NewClient constructs an API client from configuration.
func NewClient(cfg config.APIConfig) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("api.base_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing api.base_url failed: %w", err)
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("api key cannot be empty")
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     parsed,
		httpClient:  &http.Client{Timeout: timeout},
		key:         strings.TrimSpace(cfg.Key),
		resourceID:  strings.TrimSpace(cfg.ResourceID),
		batchSize:   cfg.BatchSize,
		maxRetries:  cfg.MaxRetries,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		backoffBase: time.Second,
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetBackoffBase sets the retry backoff unit for testing.
func (c *Client) SetBackoffBase(d time.Duration) {
	c.backoffBase = d
}

// BatchSize reports the configured page size.
func (c *Client) BatchSize() int {
	return c.batchSize
}

// FetchAll pages through the resource starting at offset 0 and returns every
// record. Paging stops when a batch comes back shorter than requested. Any
// batch failing after retries aborts the whole fetch.
func (c *Client) FetchAll(ctx context.Context) ([]RawRecord, error) {
	var all []RawRecord
	for offset := 0; ; offset += c.batchSize {
		batch, err := c.FetchBatch(ctx, offset, c.batchSize)
		if err != nil {
			return nil, fmt.Errorf("fetching batch at offset %d failed: %w", offset, err)
		}
		all = append(all, batch...)
		logger.Infof("fetched %d records at offset %d (total %d)", len(batch), offset, len(all))
		if len(batch) < c.batchSize {
			logger.Infof("pagination complete after %d records", len(all))
			return all, nil
		}
	}
}

// FetchBatch requests a single page. Transient failures (timeouts, connection
// errors, 5xx, 429) are retried with exponential backoff up to the configured
// ceiling; any other 4xx fails immediately.
func (c *Client) FetchBatch(ctx context.Context, offset, limit int) ([]RawRecord, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoffBase << (attempt - 1)
			logger.Warnf("retrying batch at offset %d in %s (attempt %d/%d): %v",
				offset, wait, attempt+1, c.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		batch, err := c.fetchOnce(ctx, offset, limit)
		if err == nil {
			return batch, nil
		}
		var reqErr *requestError
		if errors.As(err, &reqErr) && !reqErr.transient {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("batch failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, offset, limit int) ([]RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	endpoint := c.resolveEndpoint(offset, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request failed: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &requestError{transient: true, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		reqErr := &requestError{
			transient: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			err:       fmt.Errorf("api returned %s: %s", resp.Status, strings.TrimSpace(string(data))),
		}
		return nil, reqErr
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &requestError{transient: true, err: fmt.Errorf("reading response failed: %w", err)}
	}
	return parseEnvelope(body)
}

func (c *Client) resolveEndpoint(offset, limit int) string {
	base := *c.baseURL
	base.Path = strings.TrimSuffix(base.Path, "/") + "/resource/" + c.resourceID
	q := url.Values{}
	q.Set("api-key", c.key)
	q.Set("format", "json")
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	base.RawQuery = q.Encode()
	return base.String()
}

// requestError carries whether a failed request is worth retrying.
type requestError struct {
	transient bool
	err       error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func parseEnvelope(body []byte) ([]RawRecord, error) {
	if err := validateEnvelope(body); err != nil {
		return nil, fmt.Errorf("unexpected api response shape: %w", err)
	}
	records := gjson.GetBytes(body, "records")
	if !records.Exists() {
		return nil, nil
	}
	var out []RawRecord
	records.ForEach(func(_, rec gjson.Result) bool {
		out = append(out, RawRecord{
			State:       rec.Get("state").String(),
			District:    rec.Get("district").String(),
			Market:      rec.Get("market").String(),
			Commodity:   rec.Get("commodity").String(),
			Variety:     rec.Get("variety").String(),
			MinPrice:    rec.Get("min_price").String(),
			MaxPrice:    rec.Get("max_price").String(),
			ModalPrice:  rec.Get("modal_price").String(),
			ArrivalDate: rec.Get("arrival_date").String(),
		})
		return true
	})
	return out, nil
}
