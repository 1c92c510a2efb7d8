package tracker

import (
	"chatpulse/internal/models"
	"chatpulse/internal/providers"
	"chatpulse/internal/structures"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
)

const (
	GroupDataFile = "groupData.json"
	UserDataFile  = "userData.json"
)

// Buffer owns the two live datasets. Every mutation and every
// merge-and-swap runs under one mutex, so a flush can never observe a
// half-updated record and no event can land inside a merge pass.
// The dirty flags track divergence from the last successful disk write.
type Buffer struct {
	mu     sync.Mutex
	groups map[string]*models.GroupRecord
	users  map[string]*models.UserRecord

	groupsLoaded bool
	usersLoaded  bool

	groupsDirty atomic.Bool
	usersDirty  atomic.Bool

	fileManager *FileManager
	logger      providers.Logger
	conf        *structures.Config
}

func NewBuffer(conf *structures.Config, logger providers.Logger, fileManager *FileManager) *Buffer {
	return &Buffer{
		groups:      make(map[string]*models.GroupRecord),
		users:       make(map[string]*models.UserRecord),
		fileManager: fileManager,
		logger:      logger,
		conf:        conf,
	}
}

func (b *Buffer) GroupDataPath() string {
	return filepath.Join(b.conf.Persistence.DataDir, GroupDataFile)
}

func (b *Buffer) UserDataPath() string {
	return filepath.Join(b.conf.Persistence.DataDir, UserDataFile)
}

// ensureGroupsLoaded reads groupData.json once; afterwards the dataset
// lives in memory for the process lifetime. An unreadable file starts
// the dataset empty; the flush step re-reads the disk and merges, so
// whatever is still readable there survives. Caller must hold b.mu.
func (b *Buffer) ensureGroupsLoaded() {
	if b.groupsLoaded {
		return
	}
	b.groupsLoaded = true

	data, err := b.fileManager.ReadFile(b.GroupDataPath())
	if err != nil {
		b.logger.Errorf(providers.TypePersist, "Cannot read group dataset, starting empty: %s", err)
		return
	}
	if data == nil {
		return
	}

	var groups map[string]*models.GroupRecord
	if err := json.Unmarshal(data, &groups); err != nil {
		b.logger.Warnf(providers.TypePersist, "Group dataset on disk is unreadable, starting empty: %s", err)
		return
	}
	b.groups = normalizeGroups(groups)
}

// ensureUsersLoaded is the user-dataset counterpart of ensureGroupsLoaded.
// Caller must hold b.mu.
func (b *Buffer) ensureUsersLoaded() {
	if b.usersLoaded {
		return
	}
	b.usersLoaded = true

	data, err := b.fileManager.ReadFile(b.UserDataPath())
	if err != nil {
		b.logger.Errorf(providers.TypePersist, "Cannot read user dataset, starting empty: %s", err)
		return
	}
	if data == nil {
		return
	}

	var envelope models.UserData
	if err := json.Unmarshal(data, &envelope); err != nil {
		b.logger.Warnf(providers.TypePersist, "User dataset on disk is unreadable, starting empty: %s", err)
		return
	}
	b.users = normalizeUsers(envelope.Users)
}

// LoadGroupData eagerly loads the group dataset and reports its size.
func (b *Buffer) LoadGroupData() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureGroupsLoaded()
	return len(b.groups)
}

// LoadUserData eagerly loads the user dataset and reports its size.
func (b *Buffer) LoadUserData() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureUsersLoaded()
	return len(b.users)
}

// TrackGroupMessage folds one inbound event into the group dataset,
// refreshing the group's structural fields from meta, and marks the
// dataset dirty.
func (b *Buffer) TrackGroupMessage(evt *models.MessageEvent, meta *models.GroupMetadata) {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureGroupsLoaded()

	rec, ok := b.groups[evt.RemoteJID]
	if !ok {
		rec = models.NewGroupRecord(evt.RemoteJID)
		b.groups[evt.RemoteJID] = rec
	}
	rec.ApplyMetadata(meta, now)
	rec.TrackMessage(evt, now)
	b.groupsDirty.Store(true)
}

// TrackUserMessage folds one inbound event into the user dataset and
// marks it dirty. Users are keyed by the event's sender key, so
// group-scoped and direct-chat identities stay separate.
func (b *Buffer) TrackUserMessage(evt *models.MessageEvent) {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureUsersLoaded()

	key := evt.SenderKey()
	rec, ok := b.users[key]
	if !ok {
		rec = models.NewUserRecord(now)
		b.users[key] = rec
	}
	rec.TrackMessage(evt, now)
	b.usersDirty.Store(true)
}

// SaveGroupData replaces the in-memory group dataset and marks it dirty.
// Nothing is written to disk until the next flush.
func (b *Buffer) SaveGroupData(groups map[string]*models.GroupRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.groups = normalizeGroups(groups)
	b.groupsLoaded = true
	b.groupsDirty.Store(true)
}

// SaveUserData replaces the in-memory user dataset and marks it dirty.
func (b *Buffer) SaveUserData(users map[string]*models.UserRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = normalizeUsers(users)
	b.usersLoaded = true
	b.usersDirty.Store(true)
}

// GroupData returns a copy of the group dataset index. Records are
// shared, not copied.
func (b *Buffer) GroupData() map[string]*models.GroupRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureGroupsLoaded()

	copyMap := make(map[string]*models.GroupRecord, len(b.groups))
	for k, v := range b.groups {
		copyMap[k] = v
	}
	return copyMap
}

// UserData returns a copy of the user dataset index.
func (b *Buffer) UserData() map[string]*models.UserRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureUsersLoaded()

	copyMap := make(map[string]*models.UserRecord, len(b.users))
	for k, v := range b.users {
		copyMap[k] = v
	}
	return copyMap
}

func (b *Buffer) GroupCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.groups)
}

func (b *Buffer) UserCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.users)
}

func (b *Buffer) GroupsDirty() bool { return b.groupsDirty.Load() }
func (b *Buffer) UsersDirty() bool  { return b.usersDirty.Load() }

func (b *Buffer) MarkGroupsDirty() { b.groupsDirty.Store(true) }
func (b *Buffer) MarkUsersDirty()  { b.usersDirty.Store(true) }

// GroupsJSON serializes the whole group dataset under the lock.
func (b *Buffer) GroupsJSON() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureGroupsLoaded()
	return json.Marshal(b.groups)
}

// GroupJSON serializes one group. historyLimit > 0 caps the growth
// samples returned to the newest ones.
func (b *Buffer) GroupJSON(id string, historyLimit int) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureGroupsLoaded()

	rec, ok := b.groups[id]
	if !ok {
		return nil, false, nil
	}
	if historyLimit > 0 && len(rec.GrowthHistory) > historyLimit {
		trimmed := *rec
		trimmed.GrowthHistory = rec.GrowthHistory[len(rec.GrowthHistory)-historyLimit:]
		data, err := json.Marshal(&trimmed)
		return data, true, err
	}
	data, err := json.Marshal(rec)
	return data, true, err
}

// UsersJSON serializes the user dataset in its on-disk envelope shape.
func (b *Buffer) UsersJSON() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureUsersLoaded()
	return json.Marshal(models.UserData{Users: b.users})
}

func (b *Buffer) UserJSON(id string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureUsersLoaded()

	rec, ok := b.users[id]
	if !ok {
		return nil, false, nil
	}
	data, err := json.Marshal(rec)
	return data, true, err
}

// SnapshotJSON serializes both datasets for export.
func (b *Buffer) SnapshotJSON() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureGroupsLoaded()
	b.ensureUsersLoaded()

	snapshot := struct {
		ExportedAt time.Time                      `json:"exportedAt"`
		Groups     map[string]*models.GroupRecord `json:"groups"`
		Users      map[string]*models.UserRecord  `json:"users"`
	}{time.Now(), b.groups, b.users}
	return json.Marshal(snapshot)
}

// ReconcileGroups merges the live group dataset over the given on-disk
// tree, swaps the merged result in as the new baseline and clears the
// dirty flag. Events landing after this call re-mark the dataset dirty
// and ride the next flush. Returns the merged dataset ready to write.
func (b *Buffer) ReconcileGroups(diskTree map[string]any) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureGroupsLoaded()

	memory, err := toTree(b.groups)
	if err != nil {
		return nil, err
	}
	merged, err := json.Marshal(models.Merge(diskTree, memory))
	if err != nil {
		return nil, err
	}

	var groups map[string]*models.GroupRecord
	if err := json.Unmarshal(merged, &groups); err != nil {
		return nil, err
	}
	b.groups = normalizeGroups(groups)
	b.groupsDirty.Store(false)
	return merged, nil
}

// ReconcileUsers is the user-dataset counterpart of ReconcileGroups.
func (b *Buffer) ReconcileUsers(diskTree map[string]any) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureUsersLoaded()

	memory, err := toTree(models.UserData{Users: b.users})
	if err != nil {
		return nil, err
	}
	merged, err := json.Marshal(models.Merge(diskTree, memory))
	if err != nil {
		return nil, err
	}

	var envelope models.UserData
	if err := json.Unmarshal(merged, &envelope); err != nil {
		return nil, err
	}
	b.users = normalizeUsers(envelope.Users)
	b.usersDirty.Store(false)
	return merged, nil
}

// toTree round-trips a typed dataset into the untyped tree the merge
// operates on.
func toTree(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func normalizeGroups(groups map[string]*models.GroupRecord) map[string]*models.GroupRecord {
	if groups == nil {
		return make(map[string]*models.GroupRecord)
	}
	for id, rec := range groups {
		if rec == nil {
			delete(groups, id)
			continue
		}
		if rec.Participants == nil {
			rec.Participants = make(map[string]*models.ParticipantRecord)
		}
	}
	return groups
}

func normalizeUsers(users map[string]*models.UserRecord) map[string]*models.UserRecord {
	if users == nil {
		return make(map[string]*models.UserRecord)
	}
	for id, rec := range users {
		if rec == nil {
			delete(users, id)
		}
	}
	return users
}
