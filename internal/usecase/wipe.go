package usecase

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// WipeStore removes the store file and, if that leaves it empty, its
// directory. This is the only path that ever deletes records. Unless backups
// are disabled, a gzip archive of the store is written next to it first so a
// mistaken wipe stays recoverable.
func WipeStore(storePath string, backup bool, logger *slog.Logger) error {
	if _, err := os.Stat(storePath); errors.Is(err, fs.ErrNotExist) {
		logger.Info("no store to wipe", "path", storePath)
		return nil
	} else if err != nil {
		return fmt.Errorf("inspect store: %w", err)
	}

	if backup {
		archive, err := backupStore(storePath)
		if err != nil {
			return fmt.Errorf("backup store before wipe: %w", err)
		}
		logger.Info("archived store before wipe", "backup", archive)
	}

	if err := os.Remove(storePath); err != nil {
		return fmt.Errorf("remove store: %w", err)
	}
	logger.Info("removed store", "path", storePath)

	// Remove the directory only when empty; os.Remove refuses otherwise.
	dir := filepath.Dir(storePath)
	if err := os.Remove(dir); err != nil {
		logger.Debug("store directory kept", "path", dir, "reason", err)
	} else {
		logger.Info("removed store directory", "path", dir)
	}
	return nil
}

func backupStore(storePath string) (string, error) {
	archive := fmt.Sprintf("%s.%s.gz", storePath, time.Now().UTC().Format("20060102T150405Z"))

	src, err := os.Open(storePath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.OpenFile(archive, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}

	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		return "", err
	}
	return archive, dst.Close()
}
