package models

type GroupParticipant struct {
	ID           string `json:"id"`
	IsAdmin      bool   `json:"isAdmin"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// GroupMetadata is the shape returned by the transport's metadata lookup.
type GroupMetadata struct {
	ID           string             `json:"id"`
	Subject      string             `json:"subject"`
	Owner        string             `json:"owner"`
	Creation     int64              `json:"creation"`
	Desc         string             `json:"desc"`
	Announce     bool               `json:"announce"`
	Restrict     bool               `json:"restrict"`
	Size         int                `json:"size"`
	Participants []GroupParticipant `json:"participants"`
}

// MemberCount prefers the reported size and falls back to counting the
// participant list when the transport omits it.
func (m *GroupMetadata) MemberCount() int {
	if m.Size > 0 {
		return m.Size
	}
	return len(m.Participants)
}
