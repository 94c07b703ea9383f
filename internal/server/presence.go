package server

import (
	"log"

	"github.com/collablink/collab-server/internal/database"
)

// PresenceTracker owns the online flag and last-seen stamp on accounts.
// Both are mutated only as a side effect of session lifecycle events,
// never by client messages.
type PresenceTracker struct {
	db  database.Repository
	log *log.Logger
}

func NewPresenceTracker(db database.Repository, logger *log.Logger) *PresenceTracker {
	return &PresenceTracker{db: db, log: logger}
}

func (p *PresenceTracker) SetOnline(userId int) {
	if userId <= 0 {
		return
	}

	if err := p.db.SetUserOnline(userId, Now()); err != nil {
		p.log.Printf("set user %d online: %v", userId, err)
	}
}

// SetOffline flips the flag only; last_seen keeps its last online stamp.
func (p *PresenceTracker) SetOffline(userId int) {
	if userId <= 0 {
		return
	}

	if err := p.db.SetUserOffline(userId); err != nil {
		p.log.Printf("set user %d offline: %v", userId, err)
	}
}
