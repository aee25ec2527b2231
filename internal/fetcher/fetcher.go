// Package fetcher downloads one media item to disk with bounded retries.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"hotsoonripper/internal/consts"
	"hotsoonripper/internal/entity"
	"hotsoonripper/internal/errs"
	"hotsoonripper/internal/observability"
	"hotsoonripper/pkg/urls"

	"github.com/dustin/go-humanize"
)

// Store is the part of storage.Store the fetcher writes through.
type Store interface {
	MediaPath(folder, id string) (string, error)
	Exists(path string) bool
	CreatePartial(dst string) (*os.File, error)
	Commit(tmp *os.File, dst string) error
	Remove(path string) error
}

// ProxyTracker reports the outcome of a request to the proxy that carried it.
type ProxyTracker interface {
	Track(ctx context.Context) (context.Context, func(error))
}

// Options are fixed for the lifetime of a Fetcher.
type Options struct {
	PlaybackURL string
	Retries     int
	Timeout     time.Duration // connect, response header and idle-read bound of one attempt
	ChunkSize   int
	Headers     http.Header
	Proxies     ProxyTracker // optional
}

// Result describes what happened to one item. Err is set for OutcomeFailed and OutcomeDenied.
type Result struct {
	Item     entity.WorkItem
	Path     string
	Outcome  string
	Attempts int
	Bytes    int64
	Err      error
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (r Result) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", r.Item.ID),
		slog.String("path", r.Path),
		slog.String("outcome", r.Outcome),
		slog.Int("attempts", r.Attempts),
		slog.Int64("bytes", r.Bytes),
	}
	if r.Err != nil {
		attrs = append(attrs, slog.String("error", r.Err.Error()))
	}

	return slog.GroupValue(attrs...)
}

// Fetcher downloads items. It holds no per-item state and is safe for concurrent use.
type Fetcher struct {
	log     *slog.Logger
	client  *http.Client
	store   Store
	metrics *observability.Metrics
	opts    Options
}

// DefaultHeaders returns the static headers sent with media requests.
func DefaultHeaders() http.Header {
	return http.Header{
		"User-Agent": {"Mozilla/5.0 (iPhone; CPU iPhone OS 11_0 like Mac OS X) AppleWebKit/604.1.38 (KHTML, like Gecko) Version/11.0 Mobile/15A372 Safari/604.1"},
	}
}

// NewClient builds an http.Client whose dial, TLS handshake and response header waits are bounded by timeout.
// There is no overall deadline: large payloads are bounded by the idle read timeout instead.
// A nil proxy keeps the environment proxy settings.
func NewClient(timeout time.Duration, proxy func(*http.Request) (*url.URL, error)) *http.Client {
	base, _ := http.DefaultTransport.(*http.Transport)

	var tr *http.Transport
	if base != nil {
		tr = base.Clone()
	} else {
		tr = &http.Transport{Proxy: http.ProxyFromEnvironment}
	}

	tr.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	tr.TLSHandshakeTimeout = timeout
	tr.ResponseHeaderTimeout = timeout

	if proxy != nil {
		tr.Proxy = proxy
	}

	return &http.Client{Transport: tr}
}

// New creates a Fetcher. A nil client gets NewClient(opts.Timeout, nil).
func New(log *slog.Logger, client *http.Client, store Store, metrics *observability.Metrics, opts Options) *Fetcher {
	if opts.Retries <= 0 {
		opts.Retries = consts.DefaultRetries
	}

	if opts.Timeout <= 0 {
		opts.Timeout = consts.DefaultFetchTimeout
	}

	if opts.ChunkSize <= 0 {
		opts.ChunkSize = consts.DefaultChunkSize
	}

	if opts.Headers == nil {
		opts.Headers = DefaultHeaders()
	}

	opts.Headers = opts.Headers.Clone()

	if client == nil {
		client = NewClient(opts.Timeout, nil)
	}

	return &Fetcher{
		log:     log.With(slog.String("package", "fetcher")),
		client:  client,
		store:   store,
		metrics: metrics,
		opts:    opts,
	}
}

// Download fetches item into its folder unless the file is already there.
// It never panics on remote or filesystem failures; they are reported in the Result.
func (f *Fetcher) Download(ctx context.Context, item entity.WorkItem) Result {
	res := Result{Item: item}

	if item.ID == "" {
		res.Outcome = consts.OutcomeNoop

		return res
	}

	dst, err := f.store.MediaPath(item.Folder, item.ID)
	if err != nil {
		res.Outcome = consts.OutcomeFailed
		res.Err = err

		return res
	}

	res.Path = dst

	if f.store.Exists(dst) {
		res.Outcome = consts.OutcomeSkipped

		return res
	}

	endpoint, err := f.playbackURL(item.ID)
	if err != nil {
		res.Outcome = consts.OutcomeFailed
		res.Err = err

		return res
	}

	log := f.log.With(slog.String("id", item.ID), slog.String("url", endpoint))
	log.InfoContext(ctx, "downloading", slog.String("file", dst))

	var lastErr error

	for attempt := 1; attempt <= f.opts.Retries; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()

			break
		}

		res.Attempts = attempt

		n, err := f.attempt(ctx, attempt, endpoint, dst)
		f.metrics.RecordAttempt(classifyAttemptError(err))

		if err == nil {
			res.Outcome = consts.OutcomeDownloaded
			res.Bytes = n

			log.InfoContext(ctx, "downloaded",
				slog.String("file", dst),
				slog.String("size", humanize.Bytes(uint64(n))),
				slog.Int("attempts", attempt))

			return res
		}

		lastErr = err

		var ae *AttemptError
		if errors.As(err, &ae) && ae.Terminal() {
			log.WarnContext(ctx, "access denied", slog.Int("attempt", attempt))

			res.Outcome = consts.OutcomeDenied
			res.Err = fmt.Errorf("retrieve %s from %s: %w", item.ID, endpoint, err)

			return res
		}

		log.DebugContext(ctx, "attempt failed", slog.Any("error", err))
	}

	if err := f.store.Remove(dst); err != nil {
		log.WarnContext(ctx, "remove incomplete file", slog.Any("error", err))
	}

	res.Outcome = consts.OutcomeFailed
	res.Err = fmt.Errorf("retrieve %s from %s: %w", item.ID, endpoint, errors.Join(errs.ErrRetriesExhausted, lastErr))

	log.ErrorContext(ctx, "failed to retrieve", slog.Int("attempts", res.Attempts), slog.Any("error", lastErr))

	return res
}

// attempt performs one GET and streams the body into a temp file that is renamed onto dst on success.
// Transport failures while connecting or reading the body are reported to the proxy that carried them.
func (f *Fetcher) attempt(ctx context.Context, attempt int, endpoint, dst string) (_ int64, err error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return 0, &AttemptError{Attempt: attempt, Kind: KindTransport, Err: err}
	}

	req.Header = f.opts.Headers.Clone()

	if f.opts.Proxies != nil {
		trackCtx, report := f.opts.Proxies.Track(attemptCtx)
		req = req.WithContext(trackCtx)

		defer func() {
			var ae *AttemptError

			switch {
			case ctx.Err() != nil:
				// the caller gave up; says nothing about the proxy
			case errors.As(err, &ae) && ae.Kind == KindTransport:
				report(err)
			default:
				report(nil)
			}
		}()
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, &AttemptError{Attempt: attempt, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return 0, &AttemptError{Attempt: attempt, Kind: KindStatus, StatusCode: resp.StatusCode, Err: errs.ErrAccessDenied}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &AttemptError{Attempt: attempt, Kind: KindStatus, StatusCode: resp.StatusCode, Err: errs.ErrUnexpectedStatus}
	}

	tmp, err := f.store.CreatePartial(dst)
	if err != nil {
		return 0, &AttemptError{Attempt: attempt, Kind: KindWrite, Err: err}
	}

	body := newIdleReader(resp.Body, f.opts.Timeout, cancel)
	defer body.Stop()

	n, serr := f.stream(tmp, body)
	if serr != nil {
		_ = tmp.Close()
		_ = f.store.Remove(tmp.Name())

		if body.TimedOut() {
			serr.Err = fmt.Errorf("read idle for %s: %w", f.opts.Timeout, serr.Err)
		}

		serr.Attempt = attempt

		return 0, serr
	}

	if err := f.store.Commit(tmp, dst); err != nil {
		_ = f.store.Remove(tmp.Name())

		return 0, &AttemptError{Attempt: attempt, Kind: KindWrite, Err: err}
	}

	return n, nil
}

// stream copies r into w in ChunkSize pieces, keeping read and write failures apart.
func (f *Fetcher) stream(w io.Writer, r io.Reader) (int64, *AttemptError) {
	buf := make([]byte, f.opts.ChunkSize)

	var written int64

	for {
		nr, rerr := r.Read(buf)
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			written += int64(nw)

			if werr != nil {
				return written, &AttemptError{Kind: KindWrite, Err: werr}
			}

			if nw != nr {
				return written, &AttemptError{Kind: KindWrite, Err: io.ErrShortWrite}
			}
		}

		if rerr == io.EOF {
			return written, nil
		}

		if rerr != nil {
			return written, &AttemptError{Kind: KindTransport, Err: rerr}
		}
	}
}

func (f *Fetcher) playbackURL(id string) (string, error) {
	return urls.WithQuery(f.opts.PlaybackURL, url.Values{
		"video_id": {id},
		"line":     {consts.PlaybackLine},
		"app_id":   {consts.PlaybackAppID},
		"vquality": {consts.PlaybackVQuality},
		"quality":  {consts.PlaybackQuality},
	})
}
