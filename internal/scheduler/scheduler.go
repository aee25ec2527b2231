// Package scheduler runs the worker pool and drives targets through resolve, list, download and drain.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"hotsoonripper/internal/config"
	"hotsoonripper/internal/consts"
	"hotsoonripper/internal/entity"
	"hotsoonripper/internal/errs"
	"hotsoonripper/internal/fetcher"
	"hotsoonripper/internal/observability"
	"hotsoonripper/internal/queue"
	"hotsoonripper/pkg/gen"
)

// Downloader handles one work item. It must report failures in the Result instead of panicking.
type Downloader interface {
	Download(ctx context.Context, item entity.WorkItem) fetcher.Result
}

// Resolver maps a target token to a user id.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// Lister returns the item ids of a user. Ids collected before a failure are returned with the error.
type Lister interface {
	ListItems(ctx context.Context, userID string) ([]string, error)
}

// Storage prepares user folders.
type Storage interface {
	UserDir(userID string) (string, error)
	Lock(folder string) (unlock func() error, err error)
	CleanupPartials(ctx context.Context, folder string) (int, error)
}

type task struct {
	item  entity.WorkItem
	tally *tally
}

// Scheduler owns a fixed pool of workers sharing one unbounded queue.
type Scheduler struct {
	log      *slog.Logger
	workers  int
	runID    string
	dl       Downloader
	resolver Resolver
	lister   Lister
	store    Storage
	metrics  *observability.Metrics
	queue    *queue.Queue[task]

	mu        sync.Mutex
	cancel    context.CancelFunc
	current   string
	history   []entity.TargetReport
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a Scheduler. Workers are not started until Start.
func New(
	log *slog.Logger,
	cfg *config.Config,
	dl Downloader,
	resolver Resolver,
	lister Lister,
	store Storage,
	metrics *observability.Metrics,
) *Scheduler {
	workers := cfg.Job.Workers
	if workers <= 0 {
		workers = consts.DefaultWorkers
	}

	runID := gen.RunID()

	return &Scheduler{
		log:      log.With(slog.String("package", "scheduler"), slog.String("run_id", runID)),
		workers:  workers,
		runID:    runID,
		dl:       dl,
		resolver: resolver,
		lister:   lister,
		store:    store,
		metrics:  metrics,
		queue:    queue.New[task](),
	}
}

// RunID identifies this process run in logs.
func (s *Scheduler) RunID() string {
	return s.runID
}

// Snapshot returns the reports of finished targets and the target in progress.
func (s *Scheduler) Snapshot() entity.RunSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return entity.RunSnapshot{
		RunID:   s.runID,
		Current: s.current,
		Queued:  s.queue.Len(),
		Pending: s.queue.Pending(),
		Reports: slices.Clone(s.history),
	}
}

func (s *Scheduler) record(report entity.TargetReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = ""
	s.history = append(s.history, report)
}

func (s *Scheduler) setCurrent(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = token
}

// Start spawns the workers once. They live until ctx is done or Shutdown is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		workerCtx, cancel := context.WithCancel(ctx)

		s.mu.Lock()
		s.cancel = cancel
		s.mu.Unlock()

		for i := range s.workers {
			s.wg.Add(1)

			go s.worker(workerCtx, i)
		}

		s.log.DebugContext(ctx, "workers started", slog.Int("workers", s.workers))
	})
}

// Shutdown stops the workers and waits for them. Items still queued are dropped.
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}

		s.queue.Close()
		s.wg.Wait()
	})
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	log := s.log.With(slog.Int("worker_id", workerID))

	for {
		t, err := s.queue.Get(ctx)
		if err != nil {
			if !errors.Is(err, errs.ErrQueueClosed) && !errors.Is(err, context.Canceled) {
				log.WarnContext(ctx, "worker stopped", slog.Any("error", err))
			}

			return
		}

		s.metrics.RecordDequeued()
		s.handle(ctx, log, t)
		s.queue.Done()
	}
}

// handle runs one item. A panic is turned into a failed result so the queue still drains.
func (s *Scheduler) handle(ctx context.Context, log *slog.Logger, t task) {
	observe := s.metrics.ItemTimer()
	res := fetcher.Result{Item: t.item, Outcome: consts.OutcomeFailed}

	defer func() {
		if r := recover(); r != nil {
			res = fetcher.Result{Item: t.item, Outcome: consts.OutcomeFailed, Err: fmt.Errorf("panic: %v", r)}
			log.ErrorContext(ctx, "item panicked", slog.Any("item", t.item), slog.Any("panic", r))
		}

		observe()
		s.metrics.RecordItem(res.Outcome, res.Bytes)
		t.tally.add(ctx, res)
	}()

	res = s.dl.Download(ctx, t.item)
}

// Run processes plain targets one after another. Challenge tokens are reported but never processed.
func (s *Scheduler) Run(ctx context.Context, tokens []string) []entity.TargetReport {
	s.Start(ctx)

	plain, challenges := entity.ParseTargets(tokens)
	reports := make([]entity.TargetReport, 0, len(plain)+len(challenges))

	for _, c := range challenges {
		s.log.InfoContext(ctx, "challenge token ignored", slog.String("token", c))
		s.metrics.RecordTarget(consts.TargetChallenge)

		report := entity.TargetReport{Target: consts.ChallengePrefix + c, Status: consts.TargetChallenge}
		s.record(report)
		reports = append(reports, report)
	}

	for _, token := range plain {
		if ctx.Err() != nil {
			break
		}

		reports = append(reports, s.ProcessTarget(ctx, token))
	}

	return reports
}

// ProcessTarget resolves token, enqueues every item of the user and blocks until the queue drains.
func (s *Scheduler) ProcessTarget(ctx context.Context, token string) (report entity.TargetReport) {
	s.Start(ctx)

	start := time.Now()
	report = entity.TargetReport{Target: token}
	log := s.log.With(slog.String("target", token))

	s.setCurrent(token)

	defer func() {
		report.Duration = time.Since(start)
		s.record(report)
		s.metrics.RecordTarget(report.Status)
		log.DebugContext(ctx, "target report", slog.Any("report", report))
	}()

	fail := func(status string, err error) entity.TargetReport {
		report.Status = status
		report.Error = err.Error()

		return report
	}

	userID, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			log.WarnContext(ctx, "number does not exist")

			return fail(consts.TargetNotFound, err)
		}

		log.ErrorContext(ctx, "resolve target", slog.Any("error", err))

		return fail(consts.TargetError, err)
	}

	report.UserID = userID
	log = log.With(slog.String("user_id", userID))

	folder, err := s.store.UserDir(userID)
	if err != nil {
		log.ErrorContext(ctx, "prepare folder", slog.Any("error", err))

		return fail(consts.TargetError, err)
	}

	unlock, err := s.store.Lock(folder)
	if err != nil {
		log.ErrorContext(ctx, "lock folder", slog.String("folder", folder), slog.Any("error", err))

		return fail(consts.TargetError, err)
	}

	defer func() {
		if err := unlock(); err != nil {
			log.WarnContext(ctx, "unlock folder", slog.Any("error", err))
		}
	}()

	if n, err := s.store.CleanupPartials(ctx, folder); err != nil {
		log.WarnContext(ctx, "cleanup partial files", slog.Any("error", err))
	} else if n > 0 {
		log.InfoContext(ctx, "removed partial files", slog.Int("count", n))
	}

	ids, listErr := s.lister.ListItems(ctx, userID)
	if listErr != nil {
		log.ErrorContext(ctx, "list items", slog.Int("collected", len(ids)), slog.Any("error", listErr))

		if len(ids) == 0 {
			return fail(consts.TargetError, listErr)
		}
	}

	if len(ids) == 0 {
		log.InfoContext(ctx, "no items for number")

		return fail(consts.TargetEmpty, errs.ErrEmptyCatalog)
	}

	report.Total = len(ids)
	log.InfoContext(ctx, "catalog listed", slog.Int("items", len(ids)))

	t := newTally(log, len(ids))
	tasks := make([]task, 0, len(ids))

	for _, id := range ids {
		tasks = append(tasks, task{item: entity.WorkItem{ID: id, Folder: folder}, tally: t})
	}

	if err := s.queue.Put(tasks...); err != nil {
		return fail(consts.TargetError, fmt.Errorf("enqueue items: %w", err))
	}

	s.metrics.RecordEnqueued(len(tasks))

	if err := s.queue.Join(ctx); err != nil {
		t.fill(&report)

		return fail(consts.TargetError, fmt.Errorf("wait for items: %w", err))
	}

	t.fill(&report)

	if listErr != nil {
		report.Status = consts.TargetPartial
		report.Error = listErr.Error()
	} else {
		report.Status = consts.TargetFinished
	}

	log.InfoContext(ctx, "finished downloading all items",
		slog.Int("downloaded", report.Downloaded),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))

	return report
}
