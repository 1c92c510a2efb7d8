package tracker

import (
	"chatpulse/internal/providers"
	"chatpulse/internal/structures"
	"chatpulse/internal/tracker/interfaces"
	"sync"

	"github.com/roylee0704/gron"
)

// Scheduler owns the two recurring jobs: the flush tick covering both
// datasets and the independent backup sweep. opsMu serializes timer
// flushes with the final Persist, so a termination signal waits out an
// in-flight flush instead of racing it.
type Scheduler struct {
	config *structures.Config
	logger providers.Logger
	buffer *Buffer
	groups *Flusher
	users  *Flusher
	backup *BackupManager
	cron   *gron.Cron
	opsMu  sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Persistence.FlushInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()
		s.flushAll()
	})

	s.cron.AddFunc(gron.Every(s.config.Persistence.SweepInterval), func() {
		s.backup.Sweep()
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Restore warms both datasets from disk at boot.
func (s *Scheduler) Restore() error {
	groups := s.buffer.LoadGroupData()
	users := s.buffer.LoadUserData()
	s.logger.Infof(providers.TypePersist, "Restored %d groups and %d users from disk", groups, users)
	return nil
}

// Persist runs the final synchronous flush of both datasets on shutdown.
func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypePersist, "Final flush before shutdown...")
	groupErr := s.groups.Flush()
	userErr := s.users.Flush()
	if groupErr != nil {
		return groupErr
	}
	return userErr
}

// DatasetStates reports the persistence state of each dataset.
func (s *Scheduler) DatasetStates() map[string]string {
	return map[string]string{
		DatasetGroups: s.groups.State(),
		DatasetUsers:  s.users.State(),
	}
}

// flushAll logs nothing itself: each Flusher reports its own outcome.
func (s *Scheduler) flushAll() {
	_ = s.groups.Flush()
	_ = s.users.Flush()
}

func NewScheduler(config *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, buffer *Buffer, fileManager *FileManager, backup *BackupManager) interfaces.SchedulerInterface {
	return &Scheduler{
		config: config,
		logger: logger,
		buffer: buffer,
		groups: NewFlusher(NewGroupDataset(buffer), fileManager, backup, logger, metrics),
		users:  NewFlusher(NewUserDataset(buffer), fileManager, backup, logger, metrics),
		backup: backup,
	}
}
