// Package catalog talks to the remote service: it resolves user numbers and lists their items.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hotsoonripper/internal/consts"
	"hotsoonripper/internal/errs"
	"hotsoonripper/internal/observability"
	"hotsoonripper/pkg/textutil"
	"hotsoonripper/pkg/urls"

	"golang.org/x/time/rate"
)

const (
	callSearch = "search"
	callList   = "list"

	maxBodySize = 8 << 20
)

// Options are fixed for the lifetime of a Client.
type Options struct {
	SearchURL     string
	ListURL       string
	MaxPages      int
	RateLimit     float64 // calls per second, zero disables limiting
	SearchHeaders http.Header
	ListHeaders   http.Header
}

// Client resolves targets and lists their items. It is safe for concurrent use.
type Client struct {
	log     *slog.Logger
	client  *http.Client
	limiter *rate.Limiter
	metrics *observability.Metrics
	opts    Options
}

// New creates a Client. A nil client gets a plain http.Client with a 30s deadline.
func New(log *slog.Logger, client *http.Client, metrics *observability.Metrics, opts Options) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	if opts.MaxPages <= 0 {
		opts.MaxPages = consts.DefaultMaxPages
	}

	if opts.SearchHeaders == nil {
		opts.SearchHeaders = DefaultSearchHeaders()
	}

	if opts.ListHeaders == nil {
		opts.ListHeaders = DefaultListHeaders()
	}

	opts.SearchHeaders = opts.SearchHeaders.Clone()
	opts.ListHeaders = opts.ListHeaders.Clone()

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		log:     log.With(slog.String("package", "catalog")),
		client:  client,
		limiter: limiter,
		metrics: metrics,
		opts:    opts,
	}
}

// Resolve maps a user number to the numeric user id used by the listing endpoint.
func (c *Client) Resolve(ctx context.Context, token string) (string, error) {
	endpoint, err := urls.WithQuery(c.opts.SearchURL, searchParams(token))
	if err != nil {
		return "", fmt.Errorf("build search url: %w", err)
	}

	var resp searchResponse
	if err := c.getJSON(ctx, callSearch, endpoint, c.opts.SearchHeaders, &resp); err != nil {
		return "", fmt.Errorf("search %s: %w", token, err)
	}

	if resp.StatusCode == nil || *resp.StatusCode != 0 || len(resp.Data) == 0 {
		return "", fmt.Errorf("search %s: %w", token, errs.ErrUserNotFound)
	}

	user := resp.Data[0].User
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("search %s: %w", token, errs.ErrUserNotFound)
	}

	c.log.DebugContext(ctx, "resolved", slog.String("target", token), slog.String("user_id", string(user.ID)))

	return string(user.ID), nil
}

// ListItems walks the user's catalog page by page and returns every item id in order.
// On error the ids collected from earlier pages are returned along with it.
func (c *Client) ListItems(ctx context.Context, userID string) ([]string, error) {
	var (
		items   []string
		offset  int
		maxTime string
	)

	for page := 1; ; page++ {
		if page > c.opts.MaxPages {
			return items, fmt.Errorf("list %s: %w (%d)", userID, errs.ErrTooManyPages, c.opts.MaxPages)
		}

		ids, hasMore, next, err := c.listPage(ctx, userID, offset, maxTime)
		items = append(items, ids...)

		if err != nil {
			return items, fmt.Errorf("list %s page %d: %w", userID, page, err)
		}

		c.log.DebugContext(ctx, "listed page",
			slog.String("user_id", userID),
			slog.Int("page", page),
			slog.Int("items", len(ids)),
			slog.Bool("has_more", hasMore))

		if !hasMore {
			return items, nil
		}

		offset += consts.PageSize
		maxTime = next
	}
}

// listPage fetches one page. ids found before a malformed entry are returned with the error.
func (c *Client) listPage(ctx context.Context, userID string, offset int, maxTime string) (ids []string, hasMore bool, next string, err error) {
	endpoint, err := urls.WithQuery(c.opts.ListURL, listParams(userID, offset, maxTime))
	if err != nil {
		return nil, false, "", fmt.Errorf("build list url: %w", err)
	}

	var resp listResponse
	if err := c.getJSON(ctx, callList, endpoint, c.opts.ListHeaders, &resp); err != nil {
		return nil, false, "", err
	}

	if resp.Data != nil {
		for i, item := range resp.Data.Items {
			if item.Video == nil || !item.Video.URI.Present {
				return ids, false, "", fmt.Errorf("item %d has no video uri: %w", offset+i, errs.ErrMalformedResponse)
			}

			// a null uri is kept as an empty id; the fetcher treats it as a no-op
			ids = append(ids, string(item.Video.URI.Value))
		}
	}

	if resp.Extra == nil {
		return ids, false, "", fmt.Errorf("missing extra: %w", errs.ErrMalformedResponse)
	}

	next = string(resp.Extra.MaxTime)
	if next == "0" {
		next = ""
	}

	return ids, resp.Extra.HasMore, next, nil
}

// getJSON performs a rate-limited GET and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, call, endpoint string, headers http.Header, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header = headers.Clone()

	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordCatalogRequest(call, "error")

		return fmt.Errorf("%s request: %w", call, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordCatalogRequest(call, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d from %s", errs.ErrUnexpectedStatus, resp.StatusCode, redact(endpoint))
	}

	body, err := textutil.ReadAll(resp.Body, maxBodySize)
	if err != nil {
		if errors.Is(err, textutil.ErrInvalidUTF8) {
			return fmt.Errorf("cannot decode response data from %s: %w", redact(endpoint), errors.Join(errs.ErrMalformedResponse, err))
		}

		if errors.Is(err, textutil.ErrTooLarge) {
			return fmt.Errorf("%s response from %s: %w", call, redact(endpoint), errors.Join(errs.ErrMalformedResponse, err))
		}

		return fmt.Errorf("read body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s response: %w", call, errors.Join(errs.ErrMalformedResponse, err))
	}

	return nil
}

// redact drops the query so device identifiers stay out of error messages.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}

	u.RawQuery = ""

	return u.String()
}
