package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupEvent(sender, pushName, msgType string) *MessageEvent {
	return &MessageEvent{
		RemoteJID:   "12036304111@g.us",
		Participant: sender,
		PushName:    pushName,
		Type:        msgType,
	}
}

func TestGroupRecord_TrackMessage_NewParticipant(t *testing.T) {
	g := NewGroupRecord("12036304111@g.us")
	now := time.Now()

	g.TrackMessage(groupEvent("alice@s.whatsapp.net", "Alice", "text"), now)

	p, ok := g.Participants["alice@s.whatsapp.net"]
	require.True(t, ok)
	assert.Equal(t, "Alice", p.PushName)
	assert.Equal(t, 1, p.Occurrences)
	require.Len(t, p.Timestamps, 1)
	assert.Equal(t, now, p.Timestamps[0])
	require.NotNil(t, p.MessageTypes["text"])
	assert.Equal(t, 1, p.MessageTypes["text"].Count)
}

func TestGroupRecord_TrackMessage_ExactlyOneIncrementPerEvent(t *testing.T) {
	g := NewGroupRecord("12036304111@g.us")

	for i := 0; i < 25; i++ {
		g.TrackMessage(groupEvent("alice@s.whatsapp.net", "Alice", "text"), time.Now())
	}

	p := g.Participants["alice@s.whatsapp.net"]
	assert.Equal(t, 25, p.Occurrences)
	assert.Len(t, p.Timestamps, 25)
	assert.Equal(t, 25, p.MessageTypes["text"].Count)
	assert.Len(t, p.MessageTypes["text"].Dates, 25)
}

func TestGroupRecord_TrackMessage_PushNameLastWriteWins(t *testing.T) {
	g := NewGroupRecord("12036304111@g.us")

	g.TrackMessage(groupEvent("alice@s.whatsapp.net", "Alice", "text"), time.Now())
	g.TrackMessage(groupEvent("alice@s.whatsapp.net", "Alice B.", "text"), time.Now())
	g.TrackMessage(groupEvent("alice@s.whatsapp.net", "", "text"), time.Now())

	// Even an empty name replaces the previous one.
	assert.Equal(t, "", g.Participants["alice@s.whatsapp.net"].PushName)
}

func TestGroupRecord_TrackMessage_TimestampsNonDecreasing(t *testing.T) {
	g := NewGroupRecord("12036304111@g.us")

	for i := 0; i < 10; i++ {
		g.TrackMessage(groupEvent("alice@s.whatsapp.net", "Alice", "text"), time.Now())
	}

	stamps := g.Participants["alice@s.whatsapp.net"].Timestamps
	for i := 1; i < len(stamps); i++ {
		assert.False(t, stamps[i].Before(stamps[i-1]))
	}
}

func TestGroupRecord_TrackMessage_TypeCounters(t *testing.T) {
	g := NewGroupRecord("12036304111@g.us")
	now := time.Now()

	g.TrackMessage(groupEvent("alice@s.whatsapp.net", "Alice", "text"), now)
	g.TrackMessage(groupEvent("alice@s.whatsapp.net", "Alice", "text"), now)
	g.TrackMessage(groupEvent("alice@s.whatsapp.net", "Alice", "image"), now)

	p := g.Participants["alice@s.whatsapp.net"]
	assert.Equal(t, 2, p.MessageTypes["text"].Count)
	assert.Equal(t, 1, p.MessageTypes["image"].Count)
}

func TestGroupRecord_TrackMessage_NilParticipantsMap(t *testing.T) {
	// Records unmarshalled from disk can arrive with a nil map.
	g := &GroupRecord{ID: "12036304111@g.us"}

	g.TrackMessage(groupEvent("alice@s.whatsapp.net", "Alice", "text"), time.Now())

	assert.Len(t, g.Participants, 1)
}

func TestGroupRecord_ApplyMetadata_SetsFields(t *testing.T) {
	g := NewGroupRecord("12036304111@g.us")
	meta := &GroupMetadata{
		ID:       "12036304111@g.us",
		Subject:  "Weekend Hikes",
		Owner:    "bob@s.whatsapp.net",
		Creation: 1600000000,
		Desc:     "trails and dates",
		Announce: true,
		Restrict: false,
		Size:     17,
	}

	g.ApplyMetadata(meta, time.Now())

	assert.Equal(t, "Weekend Hikes", g.Name)
	assert.Equal(t, "bob@s.whatsapp.net", g.Owner)
	assert.Equal(t, int64(1600000000), g.Creation)
	assert.Equal(t, "trails and dates", g.Desc)
	assert.True(t, g.Announce)
	assert.False(t, g.Restrict)
	assert.Equal(t, 17, g.Size)
}

func TestGroupRecord_ApplyMetadata_GrowthOnlyOnSizeChange(t *testing.T) {
	g := NewGroupRecord("12036304111@g.us")
	now := time.Now()

	g.ApplyMetadata(&GroupMetadata{Size: 10}, now)
	g.ApplyMetadata(&GroupMetadata{Size: 10}, now.Add(time.Minute))
	g.ApplyMetadata(&GroupMetadata{Size: 12}, now.Add(2*time.Minute))
	g.ApplyMetadata(&GroupMetadata{Size: 12}, now.Add(3*time.Minute))
	g.ApplyMetadata(&GroupMetadata{Size: 11}, now.Add(4*time.Minute))

	require.Len(t, g.GrowthHistory, 3)
	assert.Equal(t, 10, g.GrowthHistory[0].Size)
	assert.Equal(t, 12, g.GrowthHistory[1].Size)
	assert.Equal(t, 11, g.GrowthHistory[2].Size)

	// No two consecutive samples share a size.
	for i := 1; i < len(g.GrowthHistory); i++ {
		assert.NotEqual(t, g.GrowthHistory[i-1].Size, g.GrowthHistory[i].Size)
	}
}

func TestGroupRecord_ApplyMetadata_Nil(t *testing.T) {
	g := NewGroupRecord("12036304111@g.us")
	g.ApplyMetadata(nil, time.Now()) // should not panic
	assert.Empty(t, g.GrowthHistory)
}

func TestGroupRecord_ApplyMetadata_SizeFallsBackToParticipants(t *testing.T) {
	g := NewGroupRecord("12036304111@g.us")
	meta := &GroupMetadata{
		Participants: []GroupParticipant{
			{ID: "a@s.whatsapp.net"},
			{ID: "b@s.whatsapp.net"},
			{ID: "c@s.whatsapp.net", IsAdmin: true},
		},
	}

	g.ApplyMetadata(meta, time.Now())

	assert.Equal(t, 3, g.Size)
	require.Len(t, g.GrowthHistory, 1)
	assert.Equal(t, 3, g.GrowthHistory[0].Size)
}
