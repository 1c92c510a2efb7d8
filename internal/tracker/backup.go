package tracker

import (
	"chatpulse/internal/providers"
	"chatpulse/internal/structures"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupManager copies data files aside before they are overwritten and
// prunes copies that have fallen out of the retention window.
type BackupManager struct {
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewBackupManager(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *BackupManager {
	return &BackupManager{
		conf:    conf,
		logger:  logger,
		metrics: metrics,
	}
}

// Backup copies filePath into the backup directory under a name carrying
// the original file name and the current epoch millis. A missing source
// is not an error: there is nothing to keep yet.
func (bm *BackupManager) Backup(filePath string) error {
	src, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(bm.conf.Persistence.BackupDir, 0o755); err != nil {
		return err
	}

	name := fmt.Sprintf("%s.bak.%d", filepath.Base(filePath), time.Now().UnixMilli())
	dst, err := os.Create(filepath.Join(bm.conf.Persistence.BackupDir, name))
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	bm.metrics.IncBackupsCreated()
	bm.logger.Debugf(providers.TypePersist, "Backed up %s as %s", filePath, name)
	return nil
}

// Sweep removes backups whose modification time is older than the
// retention window and reports how many were removed. Per-file errors
// are logged and skipped so one stuck file cannot block the rest.
func (bm *BackupManager) Sweep() int {
	entries, err := os.ReadDir(bm.conf.Persistence.BackupDir)
	if err != nil {
		if !os.IsNotExist(err) {
			bm.logger.Errorf(providers.TypePersist, "Cannot list backup dir: %s", err)
		}
		return 0
	}

	cutoff := time.Now().Add(-bm.conf.Persistence.BackupRetention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			bm.logger.Warnf(providers.TypePersist, "Cannot stat backup %s: %s", entry.Name(), err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(bm.conf.Persistence.BackupDir, entry.Name())); err != nil {
			bm.logger.Warnf(providers.TypePersist, "Cannot remove backup %s: %s", entry.Name(), err)
			continue
		}
		removed++
		bm.metrics.IncBackupsSwept()
	}

	if removed > 0 {
		bm.logger.Infof(providers.TypePersist, "Swept %d expired backups", removed)
	}
	return removed
}
