package signaling

import "sync"

// RoomRegistry maps a channel id to the set of connection ids currently
// joined to it. It is safe for concurrent use. Rooms are created on first
// join and removed when their last member leaves, so membership is always
// rebuilt from zero on process restart.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Add records connId as a member of channelId. It reports whether the
// connection was newly added and whether the room was created by this call.
// Empty ids are rejected so the registry never holds a blank entry.
func (rr *RoomRegistry) Add(channelId, connId string) (added, created bool) {
	if channelId == "" || connId == "" {
		return false, false
	}

	rr.mu.Lock()
	defer rr.mu.Unlock()

	members, ok := rr.rooms[channelId]
	if !ok {
		members = make(map[string]struct{})
		rr.rooms[channelId] = members
		created = true
	}

	if _, ok := members[connId]; ok {
		return false, created
	}

	members[connId] = struct{}{}
	return true, created
}

// Remove deletes connId from channelId's member set. It is a no-op if the
// connection is not a member. It reports whether the connection was removed
// and whether the room became empty and was dropped.
func (rr *RoomRegistry) Remove(channelId, connId string) (removed, emptied bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return rr.removeLocked(channelId, connId)
}

func (rr *RoomRegistry) removeLocked(channelId, connId string) (removed, emptied bool) {
	members, ok := rr.rooms[channelId]
	if !ok {
		return false, false
	}

	if _, ok := members[connId]; !ok {
		return false, false
	}

	delete(members, connId)
	if len(members) == 0 {
		delete(rr.rooms, channelId)
		emptied = true
	}

	return true, emptied
}

// RemoveEverywhere deletes connId from every room it is a member of and
// returns the ids of those rooms. Used on disconnect.
func (rr *RoomRegistry) RemoveEverywhere(connId string) []string {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	var channels []string
	for channelId, members := range rr.rooms {
		if _, ok := members[connId]; ok {
			rr.removeLocked(channelId, connId)
			channels = append(channels, channelId)
		}
	}

	return channels
}

// MembersOf returns a snapshot of channelId's member set. Later mutations
// do not affect an already-returned slice.
func (rr *RoomRegistry) MembersOf(channelId string) []string {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	members := rr.rooms[channelId]
	if len(members) == 0 {
		return nil
	}

	snapshot := make([]string, 0, len(members))
	for connId := range members {
		snapshot = append(snapshot, connId)
	}

	return snapshot
}

// NumRooms returns the number of non-empty rooms.
func (rr *RoomRegistry) NumRooms() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return len(rr.rooms)
}
