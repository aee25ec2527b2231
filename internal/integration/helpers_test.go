//go:build integration
// +build integration

package integration_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hotsoonripper/internal/catalog"
	"hotsoonripper/internal/config"
	"hotsoonripper/internal/consts"
	"hotsoonripper/internal/fetcher"
	"hotsoonripper/internal/observability"
	"hotsoonripper/internal/scheduler"
	"hotsoonripper/internal/storage"
)

// remote fakes the search, listing and playback endpoints of the service.
type remote struct {
	srv *httptest.Server

	mu     sync.Mutex
	users  map[string]int64    // search token -> user id
	items  map[string][]string // user id -> item ids
	denied map[string]bool
	flaky  map[string]int // item id -> remaining failures

	playback atomic.Int32
	listing  atomic.Int32
}

func newRemote(t *testing.T) *remote {
	t.Helper()

	r := &remote{
		users:  make(map[string]int64),
		items:  make(map[string][]string),
		denied: make(map[string]bool),
		flaky:  make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/hotsoon/search/", r.search)
	mux.HandleFunc("/share/load_videos/", r.list)
	mux.HandleFunc("/hotsoon/item/video/_playback/", r.media)

	r.srv = httptest.NewServer(mux)
	t.Cleanup(r.srv.Close)

	return r
}

func (r *remote) addUser(token string, id int64, items int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	uid := strconv.FormatInt(id, 10)
	ids := make([]string, items)

	for i := range ids {
		ids[i] = fmt.Sprintf("v%s%03d", uid, i)
	}

	r.users[token] = id
	r.items[uid] = ids

	return ids
}

func (r *remote) search(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	id, ok := r.users[req.URL.Query().Get("q")]
	r.mu.Unlock()

	data := []any{}
	if ok {
		data = append(data, map[string]any{"user": map[string]any{"id": id}})
	}

	writeJSON(w, map[string]any{"status_code": 0, "data": data})
}

func (r *remote) list(w http.ResponseWriter, req *http.Request) {
	r.listing.Add(1)

	q := req.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))

	r.mu.Lock()
	all := r.items[q.Get("user_id")]
	r.mu.Unlock()

	end := min(offset+consts.PageSize, len(all))
	if offset > end {
		offset = end
	}

	items := make([]any, 0, end-offset)
	for _, id := range all[offset:end] {
		// an empty id is served as a null uri
		var uri any
		if id != "" {
			uri = id
		}

		items = append(items, map[string]any{"video": map[string]any{"uri": uri}})
	}

	writeJSON(w, map[string]any{
		"data":  map[string]any{"items": items},
		"extra": map[string]any{"has_more": end < len(all), "max_time": 1700000000000 - offset},
	})
}

func (r *remote) media(w http.ResponseWriter, req *http.Request) {
	r.playback.Add(1)

	id := req.URL.Query().Get("video_id")

	r.mu.Lock()
	denied := r.denied[id]
	failing := r.flaky[id] > 0
	if failing {
		r.flaky[id]--
	}
	r.mu.Unlock()

	switch {
	case denied:
		w.WriteHeader(http.StatusForbidden)
	case failing:
		w.WriteHeader(http.StatusBadGateway)
	default:
		_, _ = io.WriteString(w, "media-"+id)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type pipeline struct {
	cfg       *config.Config
	metrics   *observability.Metrics
	scheduler *scheduler.Scheduler
}

func newPipeline(t *testing.T, r *remote, downloads string) *pipeline {
	t.Helper()

	cfg := config.Default()
	cfg.Dir.Downloads = downloads
	cfg.Job.Workers = 4
	cfg.Fetch.Timeout = 2 * time.Second
	cfg.API.SearchURL = r.srv.URL + "/hotsoon/search/"
	cfg.API.ListURL = r.srv.URL + "/share/load_videos/"
	cfg.API.PlaybackURL = r.srv.URL + "/hotsoon/item/video/_playback/"

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := observability.New()
	store := storage.New(log, cfg.Dir.Downloads)

	f := fetcher.New(log, r.srv.Client(), store, m, fetcher.Options{
		PlaybackURL: cfg.API.PlaybackURL,
		Retries:     cfg.Fetch.Retries,
		Timeout:     cfg.Fetch.Timeout,
		ChunkSize:   cfg.Fetch.ChunkSize,
	})

	c := catalog.New(log, r.srv.Client(), m, catalog.Options{
		SearchURL: cfg.API.SearchURL,
		ListURL:   cfg.API.ListURL,
		MaxPages:  cfg.API.MaxPages,
	})

	s := scheduler.New(log, cfg, f, c, c, store, m)
	t.Cleanup(s.Shutdown)

	return &pipeline{cfg: cfg, metrics: m, scheduler: s}
}
