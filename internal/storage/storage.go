// Package storage owns the on-disk layout: download/<userID>/<itemID>.mp4.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hotsoonripper/internal/consts"
	"hotsoonripper/internal/errs"

	"github.com/gofrs/flock"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store creates user folders and moves finished downloads into place.
type Store struct {
	log  *slog.Logger
	root string
}

// New returns a Store rooted at root. The directory is created lazily.
func New(log *slog.Logger, root string) *Store {
	return &Store{
		log:  log.With(slog.String("package", "storage")),
		root: root,
	}
}

// Root returns the downloads root.
func (s *Store) Root() string {
	return s.root
}

// UserDir ensures <root>/<userID> exists and returns it.
func (s *Store) UserDir(userID string) (string, error) {
	if err := validName(userID); err != nil {
		return "", fmt.Errorf("user id %q: %w", userID, err)
	}

	dir := filepath.Join(s.root, userID)

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create user dir: %w", err)
	}

	return dir, nil
}

// MediaPath returns the destination file of item id inside folder.
func (s *Store) MediaPath(folder, id string) (string, error) {
	if err := validName(id); err != nil {
		return "", fmt.Errorf("item id %q: %w", id, err)
	}

	return filepath.Join(folder, id+consts.MediaExt), nil
}

// Exists reports whether path is an existing regular file.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// CreatePartial opens a hidden temp file next to dst. Commit or Remove must follow.
func (s *Store) CreatePartial(dst string) (*os.File, error) {
	dir, name := filepath.Split(dst)

	f, err := os.CreateTemp(dir, "."+name+consts.PartialSuffix+"*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return f, nil
}

// Commit flushes and closes tmp and renames it onto dst.
func (s *Store) Commit(tmp *os.File, dst string) error {
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("chmod: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("sync: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// Remove deletes path. A missing file is not an error.
func (s *Store) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// Lock takes the advisory lock of folder so only one process writes into it.
func (s *Store) Lock(folder string) (unlock func() error, err error) {
	lock := flock.New(filepath.Join(folder, consts.LockFilename))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("%s: %w", folder, errs.ErrFolderLocked)
	}

	return lock.Unlock, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return errs.ErrInvalidPath
	}

	return nil
}
