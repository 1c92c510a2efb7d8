package models

import "time"

type TypeStat struct {
	Count int         `json:"count"`
	Dates []time.Time `json:"dates"`
}

type GrowthSample struct {
	Size      int       `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

type ParticipantRecord struct {
	PushName     string               `json:"pushName"`
	Occurrences  int                  `json:"occurrences"`
	Timestamps   []time.Time          `json:"timestamps"`
	MessageTypes map[string]*TypeStat `json:"messageTypes"`
}

type GroupRecord struct {
	ID            string                        `json:"id"`
	Name          string                        `json:"name"`
	Size          int                           `json:"size"`
	Owner         string                        `json:"owner"`
	Creation      int64                         `json:"creation"`
	Desc          string                        `json:"desc"`
	Announce      bool                          `json:"announce"`
	Restrict      bool                          `json:"restrict"`
	Participants  map[string]*ParticipantRecord `json:"participants"`
	GrowthHistory []GrowthSample                `json:"growthHistory"`
}

func NewGroupRecord(id string) *GroupRecord {
	return &GroupRecord{
		ID:           id,
		Participants: make(map[string]*ParticipantRecord),
	}
}

// ApplyMetadata refreshes the structural fields from a metadata fetch and
// appends a growth sample when the member count changed since the last one.
func (g *GroupRecord) ApplyMetadata(meta *GroupMetadata, now time.Time) {
	if meta == nil {
		return
	}
	g.Name = meta.Subject
	g.Owner = meta.Owner
	g.Creation = meta.Creation
	g.Desc = meta.Desc
	g.Announce = meta.Announce
	g.Restrict = meta.Restrict

	size := meta.MemberCount()
	g.Size = size
	if n := len(g.GrowthHistory); n == 0 || g.GrowthHistory[n-1].Size != size {
		g.GrowthHistory = append(g.GrowthHistory, GrowthSample{Size: size, Timestamp: now})
	}
}

// TrackMessage applies exactly one inbound event to the sender's
// participant record, creating the record on first sight.
func (g *GroupRecord) TrackMessage(evt *MessageEvent, now time.Time) {
	if g.Participants == nil {
		g.Participants = make(map[string]*ParticipantRecord)
	}
	key := evt.SenderKey()
	p, ok := g.Participants[key]
	if !ok {
		p = &ParticipantRecord{MessageTypes: make(map[string]*TypeStat)}
		g.Participants[key] = p
	}
	p.PushName = evt.PushName
	p.Occurrences++
	p.Timestamps = append(p.Timestamps, now)
	p.MessageTypes = bumpMessageType(p.MessageTypes, evt.Type, now)
}

func bumpMessageType(types map[string]*TypeStat, tag string, now time.Time) map[string]*TypeStat {
	if types == nil {
		types = make(map[string]*TypeStat)
	}
	ts, ok := types[tag]
	if !ok {
		ts = &TypeStat{}
		types[tag] = ts
	}
	ts.Count++
	ts.Dates = append(ts.Dates, now)
	return types
}
