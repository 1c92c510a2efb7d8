package tracker

import (
	"chatpulse/internal/providers"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
)

// Flusher state names, reported by State().
const (
	StateClean    = "CLEAN"
	StateDirty    = "DIRTY"
	StateFlushing = "FLUSHING"
)

// Flusher drives one dataset through the persistence cycle: read,
// validate, merge, backup, atomic write. One instance exists per
// dataset. Any I/O failure leaves the dataset dirty so the next timer
// tick retries; corruption on disk is substituted with an empty
// default and never blocks the cycle.
type Flusher struct {
	dataset     DatasetInterface
	fileManager *FileManager
	backup      *BackupManager
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	flushing    atomic.Bool
}

func NewFlusher(dataset DatasetInterface, fileManager *FileManager, backup *BackupManager, logger providers.Logger, metrics providers.MetricsProviderInterface) *Flusher {
	return &Flusher{
		dataset:     dataset,
		fileManager: fileManager,
		backup:      backup,
		logger:      logger,
		metrics:     metrics,
	}
}

// State reports the engine's current phase.
func (f *Flusher) State() string {
	if f.flushing.Load() {
		return StateFlushing
	}
	if f.dataset.Dirty() {
		return StateDirty
	}
	return StateClean
}

// Flush runs one persistence cycle. A clean dataset is a no-op. The
// merge-and-swap happens inside the Buffer's critical section, so
// events arriving during the disk write mutate the new baseline and
// re-mark the dataset dirty for the next tick.
func (f *Flusher) Flush() error {
	if !f.dataset.Dirty() {
		return nil
	}
	if !f.flushing.CompareAndSwap(false, true) {
		// A cycle is already in flight; its tail mutations are covered
		// by the dirty flag.
		return nil
	}
	defer f.flushing.Store(false)

	start := time.Now()
	name := f.dataset.Name()

	diskTree, err := f.readDiskTree()
	if err != nil {
		f.metrics.IncFlushErrors(name)
		f.logger.Errorf(providers.TypePersist, "Cannot read %s dataset from disk: %s", name, err)
		return err
	}

	merged, err := f.dataset.Reconcile(diskTree)
	if err != nil {
		f.dataset.MarkDirty()
		f.metrics.IncFlushErrors(name)
		f.logger.Errorf(providers.TypePersist, "Cannot reconcile %s dataset: %s", name, err)
		return err
	}

	if err := f.backup.Backup(f.dataset.Path()); err != nil {
		f.dataset.MarkDirty()
		f.metrics.IncFlushErrors(name)
		f.logger.Errorf(providers.TypePersist, "Backup of %s failed, write postponed: %s", f.dataset.Path(), err)
		return err
	}

	if err := f.fileManager.WriteFileAtomic(f.dataset.Path(), merged); err != nil {
		f.dataset.MarkDirty()
		f.metrics.IncFlushErrors(name)
		f.logger.Errorf(providers.TypePersist, "Cannot write %s dataset: %s", name, err)
		return err
	}

	f.metrics.ObserveFlushDuration(name, time.Since(start))
	f.logger.Infof(providers.TypePersist, "Flushed %s dataset to %s", name, f.dataset.Path())
	return nil
}

// readDiskTree loads and parses the current on-disk file. A missing
// file, corrupt JSON or a wrong shape yields the empty default; only a
// real read failure is returned as an error.
func (f *Flusher) readDiskTree() (map[string]any, error) {
	data, err := f.fileManager.ReadFile(f.dataset.Path())
	if err != nil {
		return nil, err
	}
	if data == nil {
		return f.dataset.EmptyTree(), nil
	}

	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		f.logger.Warnf(providers.TypePersist, "Corrupt %s dataset on disk, substituting empty default: %s", f.dataset.Name(), err)
		return f.dataset.EmptyTree(), nil
	}
	if err := f.dataset.Validate(tree); err != nil {
		f.logger.Warnf(providers.TypePersist, "Invalid %s dataset on disk, substituting empty default: %s", f.dataset.Name(), err)
		return f.dataset.EmptyTree(), nil
	}
	return tree, nil
}
