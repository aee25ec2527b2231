package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hotsoonripper/internal/consts"
)

// CleanupPartials removes temp files a killed run left behind in folder.
// It runs before a folder is reused and returns the number of files removed.
func (s *Store) CleanupPartials(ctx context.Context, folder string) (int, error) {
	log := s.log.With(slog.String("action", "cleanup_partials"), slog.String("folder", folder))

	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, fmt.Errorf("read dir: %w", err)
	}

	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !isPartial(entry.Name()) {
			continue
		}

		path := filepath.Join(folder, entry.Name())

		if err := s.Remove(path); err != nil {
			log.WarnContext(ctx, "failed to delete partial file", slog.String("filename", path), slog.Any("error", err))

			continue
		}

		removed++

		log.DebugContext(ctx, "deleted partial file", slog.String("filename", path))
	}

	if removed > 0 {
		log.InfoContext(ctx, "removed partial files", slog.Int("count", removed))
	}

	return removed, nil
}

func isPartial(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, consts.MediaExt+consts.PartialSuffix)
}
