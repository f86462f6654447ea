package arlington

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/meterwise/hotspot/infra/logger"
)

// Row is one raw transaction record as returned by the API.
type Row map[string]any

// Client pages through the Arlington parking transactions OData endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	maxRetries int
	log        logger.Logger
	// sleep is replaced in tests to avoid waiting out backoffs.
	sleep func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithPageSize overrides the OData $top value.
func WithPageSize(n int) Option {
	return func(cl *Client) { cl.pageSize = n }
}

// WithMaxRetries overrides the retry budget for server errors.
func WithMaxRetries(n int) Option {
	return func(cl *Client) { cl.maxRetries = n }
}

// NewClient creates a client for the given endpoint.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		pageSize:   100000,
		maxRetries: 5,
		log:        logger.New("arlington"),
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRange streams batches of transactions with startDtm in
// [startISO, endISO) to the handler, in startDtm order. Pagination stops on
// an empty or short page.
func (c *Client) FetchRange(ctx context.Context, startISO, endISO string, handler func([]Row) error) error {
	skip := 0
	total := 0
	for {
		batch, err := c.fetchPage(ctx, startISO, endISO, skip)
		if err != nil {
			return err
		}
		total += len(batch)
		c.log.Infof("fetched batch skip=%d size=%d total=%d", skip, len(batch), total)

		if len(batch) == 0 {
			break
		}
		if err := handler(batch); err != nil {
			return err
		}
		if len(batch) < c.pageSize {
			break
		}
		skip += c.pageSize
	}
	c.log.Infof("finished download %s -> %s, total rows=%d", startISO, endISO, total)
	return nil
}

// fetchPage issues one paged request, retrying server errors with a linear
// backoff.
func (c *Client) fetchPage(ctx context.Context, startISO, endISO string, skip int) ([]Row, error) {
	params := url.Values{}
	params.Set("$top", strconv.Itoa(c.pageSize))
	params.Set("$skip", strconv.Itoa(skip))
	params.Set("$orderby", "startDtm")
	params.Set("$filter", fmt.Sprintf("startDtm ge %s and startDtm lt %s", startISO, endISO))
	reqURL := c.baseURL + "?" + params.Encode()

	var lastStatus int
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			lastStatus = resp.StatusCode
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			wait := 2 * time.Duration(attempt+1) * time.Second
			c.log.Warnf("server error %d, retrying in %s", resp.StatusCode, wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			c.sleep(wait)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("arlington: unexpected status %d for skip=%d", resp.StatusCode, skip)
		}
		var batch []Row
		err = json.NewDecoder(resp.Body).Decode(&batch)
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("arlington: decode page skip=%d: %w", skip, err)
		}
		return batch, nil
	}
	return nil, fmt.Errorf("arlington: giving up after %d attempts, last status %d", c.maxRetries, lastStatus)
}
