package session

import (
	"sync"

	"github.com/tapejam/tapejam/protocol"
)

// PresenceStore reconciles userInfo and userPresence events into a
// stable self-plus-others view for rendering. It is a pure reducer
// over inbound events with no timers and no diffing. Every snapshot
// replaces the previous roster wholesale; snapshots are small and
// bounded by the connect and disconnect rate.
type PresenceStore struct {
	mu      sync.RWMutex
	self    protocol.UserInfo
	hasSelf bool
	roster  []protocol.UserInfo
}

// NewPresenceStore constructs an empty store.
func NewPresenceStore() *PresenceStore {
	return &PresenceStore{}
}

// Bind subscribes the store to a client's identity and presence
// events. Call before Connect so no snapshot is missed.
func (s *PresenceStore) Bind(c *Client) {
	c.OnUserInfo(s.ApplyUserInfo)
	c.OnUserPresence(s.ApplyPresence)
}

// ApplyUserInfo records this connection's own identity.
func (s *PresenceStore) ApplyUserInfo(info protocol.UserInfo) {
	s.mu.Lock()
	s.self = info
	s.hasSelf = true
	s.mu.Unlock()
}

// ApplyPresence replaces the roster with a fresh snapshot.
func (s *PresenceStore) ApplyPresence(roster []protocol.UserInfo) {
	s.mu.Lock()
	s.roster = append([]protocol.UserInfo(nil), roster...)
	s.mu.Unlock()
}

// Self returns this connection's identity, ok=false before userInfo
// arrived.
func (s *PresenceStore) Self() (protocol.UserInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.self, s.hasSelf
}

// Others returns every roster entry except self.
func (s *PresenceStore) Others() []protocol.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	others := make([]protocol.UserInfo, 0, len(s.roster))
	for _, user := range s.roster {
		if s.hasSelf && user.ID == s.self.ID {
			continue
		}
		others = append(others, user)
	}
	return others
}
