//go:build integration
// +build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hotsoonripper/internal/consts"
	"hotsoonripper/internal/errs"

	"github.com/gofrs/flock"
)

func TestPipelineDownloadsCatalog(t *testing.T) {
	r := newRemote(t)
	ids := r.addUser("111", 9001, 45)
	r.denied[ids[7]] = true
	r.flaky[ids[30]] = 2

	downloads := t.TempDir()
	p := newPipeline(t, r, downloads)

	reports := p.scheduler.Run(t.Context(), []string{"111", "#challenge", "missing"})
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}

	byTarget := make(map[string]string)
	for _, rep := range reports {
		byTarget[rep.Target] = rep.Status
	}

	if byTarget["#challenge"] != consts.TargetChallenge || byTarget["missing"] != consts.TargetNotFound {
		t.Errorf("unexpected statuses: %v", byTarget)
	}

	got := reports[1]
	if got.Target != "111" {
		t.Fatalf("unexpected report order: %+v", reports)
	}

	if got.Status != consts.TargetFinished || got.UserID != "9001" {
		t.Fatalf("unexpected report: %+v", got)
	}

	if got.Total != 45 || got.Downloaded != 44 || got.Failed != 1 {
		t.Errorf("unexpected counts: %+v", got)
	}

	if calls := r.listing.Load(); calls != 3 {
		t.Errorf("expected 3 listing calls, got %d", calls)
	}

	folder := filepath.Join(downloads, "9001")

	for i, id := range ids {
		data, err := os.ReadFile(filepath.Join(folder, id+consts.MediaExt))
		if i == 7 {
			if !os.IsNotExist(err) {
				t.Errorf("denied item must not exist: %v", err)
			}

			continue
		}

		if err != nil || string(data) != "media-"+id {
			t.Errorf("item %s: %q, %v", id, data, err)
		}
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		t.Fatalf("read folder: %v", err)
	}

	for _, e := range entries {
		if strings.Contains(e.Name(), consts.PartialSuffix) {
			t.Errorf("partial file left behind: %s", e.Name())
		}
	}
}

func TestPipelineSecondRunSkipsExisting(t *testing.T) {
	r := newRemote(t)
	ids := r.addUser("222", 42, 10)
	r.denied[ids[0]] = true

	downloads := t.TempDir()

	first := newPipeline(t, r, downloads).scheduler.Run(t.Context(), []string{"222"})
	if first[0].Downloaded != 9 {
		t.Fatalf("first run: %+v", first[0])
	}

	before := r.playback.Load()

	second := newPipeline(t, r, downloads).scheduler.Run(t.Context(), []string{"222"})
	if second[0].Skipped != 9 || second[0].Downloaded != 0 || second[0].Failed != 1 {
		t.Errorf("second run: %+v", second[0])
	}

	// only the denied item goes back to the network, and only once
	if got := r.playback.Load() - before; got != 1 {
		t.Errorf("second run made %d playback calls, want 1", got)
	}
}

func TestPipelineLockedFolder(t *testing.T) {
	r := newRemote(t)
	r.addUser("333", 7, 3)

	downloads := t.TempDir()
	folder := filepath.Join(downloads, "7")

	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	lock := flock.New(filepath.Join(folder, consts.LockFilename))
	if ok, err := lock.TryLock(); !ok || err != nil {
		t.Fatalf("take lock: %v %v", ok, err)
	}
	defer lock.Unlock()

	reports := newPipeline(t, r, downloads).scheduler.Run(t.Context(), []string{"333"})

	if reports[0].Status != consts.TargetError || !strings.Contains(reports[0].Error, errs.ErrFolderLocked.Error()) {
		t.Errorf("expected locked folder error, got %+v", reports[0])
	}

	if r.playback.Load() != 0 {
		t.Errorf("no item may be fetched while the folder is locked")
	}
}

func TestPipelineRemovesStalePartials(t *testing.T) {
	r := newRemote(t)
	ids := r.addUser("444", 8, 2)

	downloads := t.TempDir()
	folder := filepath.Join(downloads, "8")

	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	stale := filepath.Join(folder, "."+ids[0]+consts.MediaExt+consts.PartialSuffix+"123")
	if err := os.WriteFile(stale, []byte("half"), 0o644); err != nil {
		t.Fatalf("write stale partial: %v", err)
	}

	reports := newPipeline(t, r, downloads).scheduler.Run(t.Context(), []string{"444"})
	if reports[0].Downloaded != 2 {
		t.Fatalf("unexpected report: %+v", reports[0])
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale partial still present: %v", err)
	}
}

func TestPipelineNullURIIsSkipped(t *testing.T) {
	r := newRemote(t)
	ids := r.addUser("555", 5, 4)
	ids[1] = ""

	downloads := t.TempDir()

	reports := newPipeline(t, r, downloads).scheduler.Run(t.Context(), []string{"555"})

	got := reports[0]
	if got.Status != consts.TargetFinished || got.Total != 4 {
		t.Fatalf("unexpected report: %+v", got)
	}

	if got.Downloaded != 3 || got.Skipped != 1 || got.Failed != 0 {
		t.Errorf("unexpected counts: %+v", got)
	}

	if calls := r.playback.Load(); calls != 3 {
		t.Errorf("expected 3 playback calls, got %d", calls)
	}

	entries, err := os.ReadDir(filepath.Join(downloads, "5"))
	if err != nil {
		t.Fatalf("read folder: %v", err)
	}

	for _, e := range entries {
		if e.Name() == consts.MediaExt {
			t.Errorf("file without id written: %s", e.Name())
		}
	}
}
