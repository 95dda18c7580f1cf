package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgent_CanCheckIn(t *testing.T) {
	blanket := Agent{OrganizerID: 1, Status: AgentActive, AllEvents: true}
	assert.True(t, blanket.CanCheckIn(1, 1))
	assert.True(t, blanket.CanCheckIn(999, 1))

	scoped := Agent{OrganizerID: 1, Status: AgentActive, EventIDs: []uint64{4, 7}}
	assert.True(t, scoped.CanCheckIn(4, 1))
	assert.True(t, scoped.CanCheckIn(7, 1))
	assert.False(t, scoped.CanCheckIn(5, 1))

	// Blocking wins over any scope.
	blocked := Agent{OrganizerID: 1, Status: AgentBlocked, AllEvents: true}
	assert.False(t, blocked.CanCheckIn(1, 1))
}

func TestAgent_CanCheckIn_StopsAtOrganizerBoundary(t *testing.T) {
	// Blanket access covers the agent's organizer only; an event owned
	// by anyone else is out of scope no matter how the agent is scoped.
	blanket := Agent{OrganizerID: 1, Status: AgentActive, AllEvents: true}
	assert.False(t, blanket.CanCheckIn(99, 2))

	scoped := Agent{OrganizerID: 1, Status: AgentActive, EventIDs: []uint64{99}}
	assert.False(t, scoped.CanCheckIn(99, 2))
}

func TestAgent_IsOnline(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	assert.False(t, Agent{}.IsOnline(now))

	recent := now.Add(-time.Minute)
	assert.True(t, Agent{LastActiveAt: &recent}.IsOnline(now))

	edge := now.Add(-OnlineWindow)
	assert.True(t, Agent{LastActiveAt: &edge}.IsOnline(now))

	stale := now.Add(-OnlineWindow - time.Second)
	assert.False(t, Agent{LastActiveAt: &stale}.IsOnline(now))
}
