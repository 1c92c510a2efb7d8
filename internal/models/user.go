package models

import "time"

type UserRecord struct {
	PushName                  string               `json:"pushName"`
	TotalMessages             int                  `json:"totalMessages"`
	TotalMessagesInGroup      int                  `json:"totalMessagesInGroup"`
	TotalMessagesOutsideGroup int                  `json:"totalMessagesOutsideGroup"`
	FirstSeen                 time.Time            `json:"firstSeen"`
	LastSeen                  time.Time            `json:"lastSeen"`
	Timestamps                []time.Time          `json:"timestamps"`
	MessageTypes              map[string]*TypeStat `json:"messageTypes"`
}

// UserData is the envelope persisted to userData.json.
type UserData struct {
	Users map[string]*UserRecord `json:"users"`
}

func NewUserRecord(now time.Time) *UserRecord {
	return &UserRecord{
		FirstSeen:    now,
		MessageTypes: make(map[string]*TypeStat),
	}
}

// TrackMessage applies exactly one inbound event to the user's counters.
// pushName and lastSeen are last-write-wins; firstSeen is set once and
// kept (records loaded from older files may miss it).
func (u *UserRecord) TrackMessage(evt *MessageEvent, now time.Time) {
	u.PushName = evt.PushName
	u.LastSeen = now
	if u.FirstSeen.IsZero() {
		u.FirstSeen = now
	}
	u.TotalMessages++
	if evt.IsGroup() {
		u.TotalMessagesInGroup++
	} else {
		u.TotalMessagesOutsideGroup++
	}
	u.Timestamps = append(u.Timestamps, now)
	u.MessageTypes = bumpMessageType(u.MessageTypes, evt.Type, now)
}
