package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/collablink/collab-server/internal/database"
	"github.com/collablink/collab-server/internal/testutil"
)

func TestPresenceSetOnline(t *testing.T) {
	db := &database.MockRepository{}
	p := NewPresenceTracker(db, testutil.TestLogger(t))

	db.On("SetUserOnline", 5, mock.AnythingOfType("time.Time")).Return(nil).Once()

	p.SetOnline(5)

	db.AssertExpectations(t)
}

func TestPresenceSetOffline(t *testing.T) {
	db := &database.MockRepository{}
	p := NewPresenceTracker(db, testutil.TestLogger(t))

	db.On("SetUserOffline", 5).Return(nil).Once()

	p.SetOffline(5)

	db.AssertExpectations(t)
	db.AssertNotCalled(t, "SetUserOnline", mock.Anything, mock.Anything)
}

func TestPresenceIgnoresInvalidUserId(t *testing.T) {
	db := &database.MockRepository{}
	p := NewPresenceTracker(db, testutil.TestLogger(t))

	p.SetOnline(0)
	p.SetOnline(-1)
	p.SetOffline(0)

	db.AssertNotCalled(t, "SetUserOnline", mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "SetUserOffline", mock.Anything)
}

func TestPresenceSurvivesStoreFailure(t *testing.T) {
	db := &database.MockRepository{}
	p := NewPresenceTracker(db, testutil.TestLogger(t))

	db.On("SetUserOnline", 5, mock.AnythingOfType("time.Time")).Return(fmt.Errorf("db down")).Once()
	db.On("SetUserOffline", 5).Return(fmt.Errorf("db down")).Once()

	assert.NotPanics(t, func() {
		p.SetOnline(5)
		p.SetOffline(5)
	}, "expected store failures to be logged, not fatal")

	db.AssertExpectations(t)
}
