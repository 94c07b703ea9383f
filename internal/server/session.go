package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/collablink/collab-server/internal/broker"
	"github.com/collablink/collab-server/internal/database"
	"github.com/collablink/collab-server/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024

	// inbound events per second, with burst headroom
	eventRate  = 10
	eventBurst = 20
)

// Session is the per-connection actor for one side of a pair conversation.
// It is created after the handshake has been authenticated and destroyed on
// disconnect; it holds no state that survives the connection.
type Session struct {
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	user       types.User
	peer       types.User
	roomName   string
	sub        broker.Subscription
	send       chan *ServerEvent
	limiter    *rate.Limiter
	joined     bool
	stop       chan struct{}
	closeOnce  sync.Once
}

func NewSession(user, peer types.User, conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Session {
	return &Session{
		conn:       conn,
		chatServer: cs,
		log:        l,
		user:       user,
		peer:       peer,
		roomName:   RoomName(user.Id, peer.Id),
		send:       make(chan *ServerEvent, 256),
		limiter:    rate.NewLimiter(rate.Limit(eventRate), eventBurst),
		stop:       make(chan struct{}),
	}
}

// Join subscribes the session to its room, marks the user online and
// announces presence. Event relay is only accepted after a successful join.
func (s *Session) Join(ctx context.Context) error {
	sub, err := s.chatServer.broker.Subscribe(ctx, s.roomName)
	if err != nil {
		return err
	}

	s.sub = sub
	s.joined = true
	s.chatServer.addSession(s)
	s.chatServer.presence.SetOnline(s.user.Id)
	s.publish(UserStatusEvent(true, s.user.Id))

	return nil
}

// Run starts the session's pumps. It returns once the pumps are launched;
// cleanup happens when the read pump exits.
func (s *Session) Run() {
	go s.writePump()
	go s.relayPump()
	go s.readPump()
}

func (s *Session) readPump() {
	defer func() {
		s.conn.Close()
		s.cleanup()
		s.log.Printf("session %q/%s: read exiting", s.roomName, s.user.Username)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error { s.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.log.Printf("ws: read: %v", err)
			}
			break
		}

		if !s.limiter.Allow() {
			s.log.Printf("rate limit exceeded for %q, dropping event", s.user.Username)
			continue
		}

		var ev ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.log.Println("error parsing event:", err)
			s.queueEvent(ErrorEvent("invalid message format", 0))
			continue
		}

		s.handleEvent(&ev)
	}
}

// handleEvent dispatches one inbound event. Failures never terminate the
// session; the event is dropped and subsequent events are served.
func (s *Session) handleEvent(ev *ClientEvent) {
	switch ev.Kind() {
	case KindMessage:
		s.handleMessage(ev)
	case KindTypingStart:
		s.publish(TypingEvent(TypeTypingStart, s.user))
	case KindTypingStop:
		s.publish(TypingEvent(TypeTypingStop, s.user))
	case KindEditMessage:
		s.handleEdit(ev)
	case KindDeleteMessage:
		s.handleDelete(ev)
	case KindUnknown:
		// ignore
	}
}

func (s *Session) handleMessage(ev *ClientEvent) {
	body := strings.TrimSpace(ev.Message)
	if body == "" {
		return
	}

	msg, err := s.chatServer.db.CreateMessage(database.CreateMessageParams{
		SenderId:   s.user.Id,
		ReceiverId: s.peer.Id,
		Body:       body,
	})
	if err != nil {
		s.log.Println("error saving message:", err)
		s.queueEvent(ErrorEvent("failed to send message", 0))
		return
	}

	s.chatServer.stats.Incr("NumMessagesSaved")

	// persistence happens-before broadcast: receivers of new_message can
	// always find the row via history
	s.publish(NewMessageEvent(msg.Id, s.user, s.peer, body, msg.CreatedAt))
}

func (s *Session) handleEdit(ev *ClientEvent) {
	body := strings.TrimSpace(ev.Message)
	if ev.MessageId == 0 || body == "" {
		return
	}

	msg, err := s.chatServer.db.GetMessageByIdAndSender(ev.MessageId, s.user.Id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.queueEvent(ErrorEvent("message not found", ev.MessageId))
		} else {
			s.log.Println("error looking up message:", err)
			s.queueEvent(ErrorEvent("failed to edit message", ev.MessageId))
		}
		return
	}

	editedAt := Now()
	if err := s.chatServer.db.UpdateMessageBody(msg.Id, body, editedAt); err != nil {
		s.log.Println("error updating message:", err)
		s.queueEvent(ErrorEvent("failed to edit message", ev.MessageId))
		return
	}

	s.publish(MessageEditedEvent(msg.Id, body, editedAt))
}

func (s *Session) handleDelete(ev *ClientEvent) {
	if ev.MessageId == 0 {
		return
	}

	msg, err := s.chatServer.db.GetMessageByIdAndSender(ev.MessageId, s.user.Id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.queueEvent(ErrorEvent("message not found", ev.MessageId))
		} else {
			s.log.Println("error looking up message:", err)
			s.queueEvent(ErrorEvent("failed to delete message", ev.MessageId))
		}
		return
	}

	if err := s.chatServer.db.MarkMessageDeleted(msg.Id); err != nil {
		s.log.Println("error deleting message:", err)
		s.queueEvent(ErrorEvent("failed to delete message", ev.MessageId))
		return
	}

	s.publish(MessageDeletedEvent(msg.Id))
}

// publish broadcasts an event to the room through the broker.
func (s *Session) publish(ev *ServerEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Println("failed to serialize event:", err)
		return
	}

	if err := s.chatServer.broker.Publish(context.Background(), s.roomName, data); err != nil {
		s.log.Printf("publish to %q: %v", s.roomName, err)
	}
}

// relayPump forwards room broadcasts to this connection, suppressing
// self-echo where the event kind calls for it.
func (s *Session) relayPump() {
	for payload := range s.sub.C() {
		s.deliver(payload)
	}
}

func (s *Session) deliver(payload []byte) {
	var ev ServerEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		s.log.Println("error parsing broadcast event:", err)
		return
	}

	if ev.SkipFor(s.user.Id) {
		return
	}

	s.queueEvent(&ev)
}

func (s *Session) queueEvent(ev *ServerEvent) bool {
	select {
	case s.send <- ev:
	default:
		s.log.Println("failed to queue event, channel is full")
		s.chatServer.stats.Incr("NumEventsDropped")
		return false
	}

	return true
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		s.log.Println("write exiting")
	}()

	for {
		select {
		case ev, ok := <-s.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(ev)
			if err != nil {
				s.log.Println("failed to serialize event:", err)
				continue
			}

			if !s.writeMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-s.stop:
			return
		case <-ticker.C:
			if !s.writeMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (s *Session) writeMessage(msgType int, msg []byte) bool {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := s.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			s.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

// cleanup runs the disconnect path exactly once no matter how many times
// the session is torn down: presence offline, offline broadcast if the room
// was actually joined, unsubscribe, stop the write pump.
func (s *Session) cleanup() {
	s.closeOnce.Do(func() {
		s.chatServer.removeSession(s)

		if s.joined {
			s.chatServer.presence.SetOffline(s.user.Id)
			s.publish(UserStatusEvent(false, s.user.Id))
			s.sub.Close()
		}

		close(s.stop)
	})
}

// Close tears the session down from outside the read pump, e.g. on server
// shutdown.
func (s *Session) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
	s.cleanup()
}
