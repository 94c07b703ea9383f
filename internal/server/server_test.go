package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/collablink/collab-server/internal/broker"
	"github.com/collablink/collab-server/internal/database"
	"github.com/collablink/collab-server/internal/stats"
	"github.com/collablink/collab-server/internal/testutil"
	"github.com/collablink/collab-server/internal/types"
)

func TestNewChatServer(t *testing.T) {
	db := &database.MockRepository{}
	su := &stats.MockStatsUpdater{}

	su.On("RegisterMetric", "NumActiveSessions").Once()
	su.On("RegisterMetric", "NumMessagesSaved").Once()
	su.On("RegisterMetric", "NumEventsDropped").Once()

	cs, err := NewChatServer(testutil.TestLogger(t), db, broker.NewMemoryBroker(), su)
	assert.NoError(t, err, "expected chat server to be created")
	assert.NotNil(t, cs.presence, "expected presence tracker to be initialized")
	assert.NotNil(t, cs.sessions, "expected session map to be initialized")
	assert.Equal(t, db, cs.db, "expected repository to be set")

	su.AssertExpectations(t)
}

func TestAddRemoveSession(t *testing.T) {
	db := &database.MockRepository{}
	su := &stats.MockStatsUpdater{}
	cs := newTestChatServer(t, db, su)

	su.On("Incr", "NumActiveSessions").Once()
	su.On("Decr", "NumActiveSessions").Once()

	s := &Session{}
	cs.addSession(s)
	assert.Len(t, cs.sessionList(), 1, "expected session to be tracked")

	cs.removeSession(s)
	assert.Empty(t, cs.sessionList(), "expected session to be removed")

	// removing an unknown session is a no-op
	cs.removeSession(s)

	su.AssertExpectations(t)
}

func TestPublishEvent(t *testing.T) {
	db := &database.MockRepository{}
	su := &stats.MockStatsUpdater{}
	cs := newTestChatServer(t, db, su)

	sub, err := cs.broker.Subscribe(context.Background(), RoomName(1, 2))
	assert.NoError(t, err, "expected subscription to succeed")
	defer sub.Close()

	err = cs.PublishEvent(context.Background(), RoomName(1, 2), MessageDeletedEvent(7))
	assert.NoError(t, err, "expected publish to succeed")

	payload := <-sub.C()
	var ev ServerEvent
	assert.NoError(t, json.Unmarshal(payload, &ev), "expected payload to parse")
	assert.Equal(t, TypeMessageDeleted, ev.Type, "expected the published event type")
	assert.Equal(t, 7, ev.Id, "expected the published message id")
}

func TestShutdownClosesSessions(t *testing.T) {
	db := &database.MockRepository{}
	su := &stats.MockStatsUpdater{}
	cs := newTestChatServer(t, db, su)

	db.On("SetUserOnline", mock.Anything, mock.AnythingOfType("time.Time")).Return(nil)
	db.On("SetUserOffline", mock.Anything).Return(nil)
	su.On("Incr", "NumActiveSessions")
	su.On("Decr", "NumActiveSessions")

	joinTestSession(t, cs, types.User{Id: 1, Username: "alice"}, types.User{Id: 2, Username: "bob"})
	joinTestSession(t, cs, types.User{Id: 2, Username: "bob"}, types.User{Id: 1, Username: "alice"})
	assert.Len(t, cs.sessionList(), 2, "expected both sessions to be tracked")

	err := cs.Shutdown(context.Background())
	assert.NoError(t, err, "expected shutdown to succeed")
	assert.Empty(t, cs.sessionList(), "expected all sessions to be closed")

	db.AssertNumberOfCalls(t, "SetUserOffline", 2)
}
