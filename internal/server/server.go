package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/collablink/collab-server/internal/broker"
	"github.com/collablink/collab-server/internal/database"
	"github.com/collablink/collab-server/internal/stats"
	"github.com/collablink/collab-server/internal/types"
)

// ChatServer tracks live sessions and owns the collaborators they share:
// the message store, the broadcast broker and the presence tracker. Rooms
// have no server-side state beyond their broker channel.
type ChatServer struct {
	log          *log.Logger
	db           database.Repository
	broker       broker.Broker
	presence     *PresenceTracker
	stats        stats.StatsProvider
	sessions     map[*Session]struct{}
	sessionsLock sync.Mutex
}

func NewChatServer(logger *log.Logger, db database.Repository, b broker.Broker, su stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:      logger,
		db:       db,
		broker:   b,
		presence: NewPresenceTracker(db, logger),
		stats:    su,
		sessions: make(map[*Session]struct{}),
	}

	su.RegisterMetric("NumActiveSessions")
	su.RegisterMetric("NumMessagesSaved")
	su.RegisterMetric("NumEventsDropped")

	return cs, nil
}

// HandleConnection wires an upgraded, authenticated connection into a
// running session.
func (cs *ChatServer) HandleConnection(ctx context.Context, user, peer types.User, conn *websocket.Conn) error {
	sess := NewSession(user, peer, conn, cs, cs.log)
	if err := sess.Join(ctx); err != nil {
		return err
	}

	sess.Run()
	return nil
}

// PublishEvent broadcasts an event to a room on behalf of a caller outside
// any session, such as the REST edit/delete fallbacks.
func (cs *ChatServer) PublishEvent(ctx context.Context, roomName string, ev *ServerEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return cs.broker.Publish(ctx, roomName, data)
}

func (cs *ChatServer) addSession(s *Session) {
	cs.sessionsLock.Lock()
	defer cs.sessionsLock.Unlock()
	cs.sessions[s] = struct{}{}
	cs.stats.Incr("NumActiveSessions")
}

func (cs *ChatServer) removeSession(s *Session) {
	cs.sessionsLock.Lock()
	defer cs.sessionsLock.Unlock()

	if _, ok := cs.sessions[s]; !ok {
		return
	}
	delete(cs.sessions, s)
	cs.stats.Decr("NumActiveSessions")
}

func (cs *ChatServer) sessionList() []*Session {
	cs.sessionsLock.Lock()
	defer cs.sessionsLock.Unlock()

	list := make([]*Session, 0, len(cs.sessions))
	for s := range cs.sessions {
		list = append(list, s)
	}
	return list
}

// Shutdown closes every live session. Session cleanup is idempotent, so a
// session racing its own disconnect is harmless.
func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("closing active sessions")

	for _, s := range cs.sessionList() {
		s.Close()

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
