package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hotsoonripper/internal/consts"
	"hotsoonripper/internal/entity"
	"hotsoonripper/internal/fetcher"
	"hotsoonripper/pkg/calc"
)

// tally counts the outcomes of one target's items as workers report them.
type tally struct {
	log   *slog.Logger
	start time.Time
	total int

	mu         sync.Mutex
	done       int
	downloaded int
	skipped    int
	failed     int
	bytes      int64
	lastPct    int
}

func newTally(log *slog.Logger, total int) *tally {
	return &tally{log: log, start: time.Now(), total: total}
}

func (t *tally) add(ctx context.Context, res fetcher.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done++

	switch res.Outcome {
	case consts.OutcomeDownloaded:
		t.downloaded++
		t.bytes += res.Bytes
	case consts.OutcomeSkipped, consts.OutcomeNoop:
		t.skipped++
	default:
		t.failed++
	}

	// log at most once per 10%
	pct := calc.Progress(t.done, t.total)
	if pct/10 == t.lastPct/10 && t.done != t.total {
		return
	}

	t.lastPct = pct

	t.log.InfoContext(ctx, "progress",
		slog.Int("done", t.done),
		slog.Int("total", t.total),
		slog.Int("percent", pct),
		slog.Duration("eta", calc.ETA(t.done, t.total, time.Since(t.start)).Round(time.Second)))
}

func (t *tally) fill(r *entity.TargetReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r.Downloaded = t.downloaded
	r.Skipped = t.skipped
	r.Failed = t.failed
	r.Bytes = t.bytes
}
