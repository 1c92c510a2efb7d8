package models

import "strings"

// GroupSuffix marks group-chat JIDs on the transport.
const GroupSuffix = "@g.us"

type MessageEvent struct {
	RemoteJID   string `json:"remoteJid"`
	Participant string `json:"participant"`
	PushName    string `json:"pushName"`
	Type        string `json:"type"`
}

// IsGroup reports whether the event originated in a group chat.
func (e *MessageEvent) IsGroup() bool {
	return strings.HasSuffix(e.RemoteJID, GroupSuffix)
}

// SenderKey returns the identifier the event is attributed to: the
// group-scoped participant id in group chats, the remote id otherwise.
// Group-scoped and global ids are distinct keyspaces and are never
// reconciled against each other.
func (e *MessageEvent) SenderKey() string {
	if e.IsGroup() && e.Participant != "" {
		return e.Participant
	}
	return e.RemoteJID
}
