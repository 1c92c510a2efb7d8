package tracker

import (
	"chatpulse/internal/models"
	"chatpulse/internal/structures"
	"chatpulse/internal/testutil"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferConfig(dataDir string) *structures.Config {
	return &structures.Config{
		Persistence: structures.PersistenceConfig{
			DataDir:         dataDir,
			BackupDir:       filepath.Join(dataDir, "backups"),
			FlushInterval:   1 * time.Second,
			BackupRetention: 300 * time.Second,
			SweepInterval:   60 * time.Second,
		},
	}
}

func newTestBuffer(t *testing.T) (*Buffer, *testutil.MockLogger) {
	logger := &testutil.MockLogger{}
	return NewBuffer(bufferConfig(t.TempDir()), logger, NewFileManager()), logger
}

func groupEvt(sender string) *models.MessageEvent {
	return &models.MessageEvent{
		RemoteJID:   "12036304111@g.us",
		Participant: sender,
		PushName:    "Sender",
		Type:        "text",
	}
}

func directEvt(jid string) *models.MessageEvent {
	return &models.MessageEvent{RemoteJID: jid, PushName: "Sender", Type: "text"}
}

func TestBuffer_TrackGroupMessage_CreatesRecord(t *testing.T) {
	b, _ := newTestBuffer(t)

	b.TrackGroupMessage(groupEvt("alice@s.whatsapp.net"), &models.GroupMetadata{Subject: "Hikes", Size: 5})

	groups := b.GroupData()
	rec, ok := groups["12036304111@g.us"]
	require.True(t, ok)
	assert.Equal(t, "Hikes", rec.Name)
	assert.Equal(t, 5, rec.Size)
	assert.Equal(t, 1, rec.Participants["alice@s.whatsapp.net"].Occurrences)
	assert.True(t, b.GroupsDirty())
}

func TestBuffer_TrackUserMessage_SenderKeyed(t *testing.T) {
	b, _ := newTestBuffer(t)

	// Group message attributed to the participant, direct to the remote id.
	b.TrackUserMessage(groupEvt("alice@s.whatsapp.net"))
	b.TrackUserMessage(directEvt("alice@s.whatsapp.net"))
	b.TrackUserMessage(directEvt("bob@s.whatsapp.net"))

	users := b.UserData()
	require.Len(t, users, 2)
	assert.Equal(t, 2, users["alice@s.whatsapp.net"].TotalMessages)
	assert.Equal(t, 1, users["alice@s.whatsapp.net"].TotalMessagesInGroup)
	assert.Equal(t, 1, users["alice@s.whatsapp.net"].TotalMessagesOutsideGroup)
	assert.Equal(t, 1, users["bob@s.whatsapp.net"].TotalMessages)
	assert.True(t, b.UsersDirty())
}

func TestBuffer_LoadGroupData_ReadsDisk(t *testing.T) {
	dir := t.TempDir()
	groups := map[string]*models.GroupRecord{
		"12036304111@g.us": {ID: "12036304111@g.us", Name: "Hikes", Size: 9},
	}
	data, _ := json.Marshal(groups)
	require.NoError(t, os.WriteFile(filepath.Join(dir, GroupDataFile), data, 0644))

	b := NewBuffer(bufferConfig(dir), &testutil.MockLogger{}, NewFileManager())

	assert.Equal(t, 1, b.LoadGroupData())
	rec := b.GroupData()["12036304111@g.us"]
	require.NotNil(t, rec)
	assert.Equal(t, "Hikes", rec.Name)
	assert.NotNil(t, rec.Participants)
	assert.False(t, b.GroupsDirty())
}

func TestBuffer_LoadUserData_ReadsEnvelope(t *testing.T) {
	dir := t.TempDir()
	envelope := models.UserData{
		Users: map[string]*models.UserRecord{
			"alice@s.whatsapp.net": {PushName: "Alice", TotalMessages: 3},
		},
	}
	data, _ := json.Marshal(envelope)
	require.NoError(t, os.WriteFile(filepath.Join(dir, UserDataFile), data, 0644))

	b := NewBuffer(bufferConfig(dir), &testutil.MockLogger{}, NewFileManager())

	assert.Equal(t, 1, b.LoadUserData())
	assert.Equal(t, 3, b.UserData()["alice@s.whatsapp.net"].TotalMessages)
}

func TestBuffer_LoadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, GroupDataFile)
	data, _ := json.Marshal(map[string]*models.GroupRecord{"a@g.us": {ID: "a@g.us"}})
	require.NoError(t, os.WriteFile(path, data, 0644))

	b := NewBuffer(bufferConfig(dir), &testutil.MockLogger{}, NewFileManager())
	require.Equal(t, 1, b.LoadGroupData())

	// Replacing the file afterwards must not change the live dataset.
	data2, _ := json.Marshal(map[string]*models.GroupRecord{
		"a@g.us": {ID: "a@g.us"}, "b@g.us": {ID: "b@g.us"},
	})
	require.NoError(t, os.WriteFile(path, data2, 0644))

	assert.Equal(t, 1, b.LoadGroupData())
	assert.Len(t, b.GroupData(), 1)
}

func TestBuffer_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, GroupDataFile), []byte("{broken"), 0644))

	logger := &testutil.MockLogger{}
	b := NewBuffer(bufferConfig(dir), logger, NewFileManager())

	assert.Equal(t, 0, b.LoadGroupData())
	assert.NotEmpty(t, logger.EntriesByLevel("warn"))
}

func TestBuffer_SaveGroupData_ReplacesAndMarksDirty(t *testing.T) {
	b, _ := newTestBuffer(t)
	b.TrackGroupMessage(groupEvt("alice@s.whatsapp.net"), nil)

	b.SaveGroupData(map[string]*models.GroupRecord{
		"99999@g.us": {ID: "99999@g.us"},
	})

	groups := b.GroupData()
	require.Len(t, groups, 1)
	_, ok := groups["99999@g.us"]
	assert.True(t, ok)
	assert.True(t, b.GroupsDirty())
}

func TestBuffer_ReconcileGroups_ClearsDirty(t *testing.T) {
	b, _ := newTestBuffer(t)
	b.TrackGroupMessage(groupEvt("alice@s.whatsapp.net"), nil)
	require.True(t, b.GroupsDirty())

	merged, err := b.ReconcileGroups(map[string]any{})
	require.NoError(t, err)

	assert.False(t, b.GroupsDirty())

	var tree map[string]*models.GroupRecord
	require.NoError(t, json.Unmarshal(merged, &tree))
	assert.Contains(t, tree, "12036304111@g.us")
}

func TestBuffer_ReconcileGroups_KeepsDiskOnlyRecords(t *testing.T) {
	b, _ := newTestBuffer(t)
	b.TrackGroupMessage(groupEvt("alice@s.whatsapp.net"), nil)

	diskTree := map[string]any{
		"55555@g.us": map[string]any{"id": "55555@g.us", "name": "Disk Only"},
	}
	merged, err := b.ReconcileGroups(diskTree)
	require.NoError(t, err)

	var tree map[string]*models.GroupRecord
	require.NoError(t, json.Unmarshal(merged, &tree))
	assert.Contains(t, tree, "12036304111@g.us")
	assert.Contains(t, tree, "55555@g.us")

	// The merged result becomes the new in-memory baseline.
	groups := b.GroupData()
	assert.Contains(t, groups, "55555@g.us")
	assert.Equal(t, "Disk Only", groups["55555@g.us"].Name)
}

func TestBuffer_ReconcileGroups_MemoryWins(t *testing.T) {
	b, _ := newTestBuffer(t)
	b.TrackGroupMessage(groupEvt("alice@s.whatsapp.net"), &models.GroupMetadata{Subject: "Fresh", Size: 7})

	diskTree := map[string]any{
		"12036304111@g.us": map[string]any{"id": "12036304111@g.us", "name": "Stale", "size": float64(3)},
	}
	_, err := b.ReconcileGroups(diskTree)
	require.NoError(t, err)

	rec := b.GroupData()["12036304111@g.us"]
	assert.Equal(t, "Fresh", rec.Name)
	assert.Equal(t, 7, rec.Size)
}

func TestBuffer_ReconcileUsers_EnvelopeShape(t *testing.T) {
	b, _ := newTestBuffer(t)
	b.TrackUserMessage(directEvt("alice@s.whatsapp.net"))

	merged, err := b.ReconcileUsers(map[string]any{"users": map[string]any{}})
	require.NoError(t, err)

	var envelope models.UserData
	require.NoError(t, json.Unmarshal(merged, &envelope))
	assert.Contains(t, envelope.Users, "alice@s.whatsapp.net")
	assert.False(t, b.UsersDirty())
}

func TestBuffer_MutationAfterReconcileMarksDirty(t *testing.T) {
	b, _ := newTestBuffer(t)
	b.TrackUserMessage(directEvt("alice@s.whatsapp.net"))

	_, err := b.ReconcileUsers(map[string]any{"users": map[string]any{}})
	require.NoError(t, err)
	require.False(t, b.UsersDirty())

	b.TrackUserMessage(directEvt("bob@s.whatsapp.net"))
	assert.True(t, b.UsersDirty())
}

func TestBuffer_GroupJSON_NotFound(t *testing.T) {
	b, _ := newTestBuffer(t)

	data, found, err := b.GroupJSON("nope@g.us", 0)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestBuffer_GroupJSON_HistoryLimit(t *testing.T) {
	b, _ := newTestBuffer(t)
	rec := models.NewGroupRecord("12036304111@g.us")
	for i := 1; i <= 5; i++ {
		rec.GrowthHistory = append(rec.GrowthHistory, models.GrowthSample{Size: i, Timestamp: time.Now()})
	}
	b.SaveGroupData(map[string]*models.GroupRecord{rec.ID: rec})

	data, found, err := b.GroupJSON(rec.ID, 2)
	require.NoError(t, err)
	require.True(t, found)

	var out models.GroupRecord
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.GrowthHistory, 2)
	assert.Equal(t, 4, out.GrowthHistory[0].Size)
	assert.Equal(t, 5, out.GrowthHistory[1].Size)

	// Trimming is per-response; the stored record keeps all samples.
	assert.Len(t, b.GroupData()[rec.ID].GrowthHistory, 5)
}

func TestBuffer_UsersJSON_EnvelopeShape(t *testing.T) {
	b, _ := newTestBuffer(t)
	b.TrackUserMessage(directEvt("alice@s.whatsapp.net"))

	data, err := b.UsersJSON()
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(data, &envelope))
	_, ok := envelope["users"].(map[string]any)
	assert.True(t, ok)
}

func TestBuffer_UserJSON(t *testing.T) {
	b, _ := newTestBuffer(t)
	b.TrackUserMessage(directEvt("alice@s.whatsapp.net"))

	data, found, err := b.UserJSON("alice@s.whatsapp.net")
	require.NoError(t, err)
	require.True(t, found)

	var rec models.UserRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, 1, rec.TotalMessages)

	_, found, err = b.UserJSON("nobody@s.whatsapp.net")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBuffer_SnapshotJSON_BothDatasets(t *testing.T) {
	b, _ := newTestBuffer(t)
	b.TrackGroupMessage(groupEvt("alice@s.whatsapp.net"), nil)
	b.TrackUserMessage(directEvt("bob@s.whatsapp.net"))

	data, err := b.SnapshotJSON()
	require.NoError(t, err)

	var snapshot struct {
		ExportedAt time.Time                      `json:"exportedAt"`
		Groups     map[string]*models.GroupRecord `json:"groups"`
		Users      map[string]*models.UserRecord  `json:"users"`
	}
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.False(t, snapshot.ExportedAt.IsZero())
	assert.Contains(t, snapshot.Groups, "12036304111@g.us")
	assert.Contains(t, snapshot.Users, "bob@s.whatsapp.net")
}

func TestBuffer_ConcurrentTracking(t *testing.T) {
	b, _ := newTestBuffer(t)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.TrackGroupMessage(groupEvt("alice@s.whatsapp.net"), &models.GroupMetadata{Size: 5})
			b.TrackUserMessage(directEvt("bob@s.whatsapp.net"))
		}()
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.GroupsJSON()
			_, _ = b.ReconcileUsers(map[string]any{"users": map[string]any{}})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, b.GroupData()["12036304111@g.us"].Participants["alice@s.whatsapp.net"].Occurrences)
	assert.Equal(t, 100, b.UserData()["bob@s.whatsapp.net"].TotalMessages)
}
