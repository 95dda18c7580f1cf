package model

import "time"

// Agent statuses.
const (
	AgentActive  = "active"
	AgentBlocked = "blocked"
)

// OnlineWindow is the rolling window after the last heartbeat during
// which an agent is displayed as online. Best-effort only.
const OnlineWindow = 2 * time.Minute

// Agent represents a row in the `agents` table: a check-in staff
// account owned by an organizer, authenticated with an access code
// through a narrower session than account holders.
//
// Fields:
//  ID             – primary key identifier.
//  OrganizerID    – organizer the agent works for.
//  Name           – display name shown in the back-office.
//  AccessCodeHash – bcrypt hash of the access code; the plain code is
//                   shown once at creation time.
//  Status         – active | blocked.
//  AllEvents      – blanket access to every event of the organizer.
//  EventIDs       – explicit allow-list, loaded from agent_events.
//  ScanCount      – number of check-ins performed.
//  LastActiveAt   – last heartbeat, nil before the first ping.
//  CreatedAt      – creation timestamp.
type Agent struct {
	ID             uint64     // agents.id
	OrganizerID    uint64     // agents.organizer_id
	Name           string     // agents.name
	AccessCodeHash string     // agents.access_code_hash
	Status         string     // agents.status
	AllEvents      bool       // agents.all_events
	EventIDs       []uint64   // agent_events.event_id rows
	ScanCount      int64      // agents.scan_count
	LastActiveAt   *time.Time // agents.last_active_at (nullable)
	CreatedAt      time.Time  // agents.created_at
}

// CanCheckIn reports whether the agent may mutate check-in state for a
// booking of the given event, owned by eventOwnerID. Blocked agents
// are always refused, and no scope ever reaches past the agent's own
// organizer: all_events is blanket access to that organizer's events,
// not to the platform.
func (a Agent) CanCheckIn(eventID, eventOwnerID uint64) bool {
	if a.Status != AgentActive {
		return false
	}
	if eventOwnerID != a.OrganizerID {
		return false
	}
	if a.AllEvents {
		return true
	}
	for _, id := range a.EventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

// IsOnline reports whether the agent's last heartbeat falls within the
// online window. Display purposes only, not a correctness guarantee.
func (a Agent) IsOnline(now time.Time) bool {
	if a.LastActiveAt == nil {
		return false
	}
	return now.UTC().Sub(a.LastActiveAt.UTC()) <= OnlineWindow
}
