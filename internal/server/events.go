package server

import (
	"time"

	"github.com/collablink/collab-server/internal/types"
)

// EventKind is the closed set of inbound event types. String dispatch from
// the wire is funneled through ParseEventKind once, everything after that
// switches on the enum.
type EventKind int

const (
	KindMessage EventKind = iota
	KindTypingStart
	KindTypingStop
	KindEditMessage
	KindDeleteMessage
	KindUnknown
)

func ParseEventKind(s string) EventKind {
	switch s {
	case "", "message":
		// an absent type means a plain chat message
		return KindMessage
	case "typing_start":
		return KindTypingStart
	case "typing_stop":
		return KindTypingStop
	case "edit_message":
		return KindEditMessage
	case "delete_message":
		return KindDeleteMessage
	default:
		return KindUnknown
	}
}

// ClientEvent is the inbound frame envelope.
type ClientEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	MessageId int    `json:"message_id"`
}

func (e *ClientEvent) Kind() EventKind {
	return ParseEventKind(e.Type)
}

const (
	TypeNewMessage     = "new_message"
	TypeTypingStart    = "typing_start"
	TypeTypingStop     = "typing_stop"
	TypeMessageEdited  = "message_edited"
	TypeMessageDeleted = "message_deleted"
	TypeUserOnline     = "user_online"
	TypeUserOffline    = "user_offline"
	TypeError          = "error"
)

// ServerEvent is the outbound frame envelope, also used as the broker
// payload for room broadcasts.
type ServerEvent struct {
	Type             string     `json:"type"`
	Id               int        `json:"id,omitempty"`
	SenderId         int        `json:"sender_id,omitempty"`
	SenderUsername   string     `json:"sender_username,omitempty"`
	ReceiverId       int        `json:"receiver_id,omitempty"`
	ReceiverUsername string     `json:"receiver_username,omitempty"`
	Message          string     `json:"message,omitempty"`
	EditedAt         *time.Time `json:"edited_at,omitempty"`
	UserId           int        `json:"user_id,omitempty"`
	MessageId        int        `json:"message_id,omitempty"`
	Error            string     `json:"error,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
}

// SkipFor reports whether delivery of a broadcast event should be
// suppressed for the given user. New messages and typing indicators are
// not echoed back to their sender; edits, deletes and status changes go to
// both participants.
func (e *ServerEvent) SkipFor(userId int) bool {
	switch e.Type {
	case TypeNewMessage, TypeTypingStart, TypeTypingStop:
		return e.SenderId == userId
	default:
		return false
	}
}

func NewMessageEvent(id int, sender, receiver types.User, body string, ts time.Time) *ServerEvent {
	return &ServerEvent{
		Type:             TypeNewMessage,
		Id:               id,
		SenderId:         sender.Id,
		SenderUsername:   sender.Username,
		ReceiverId:       receiver.Id,
		ReceiverUsername: receiver.Username,
		Message:          body,
		Timestamp:        ts,
	}
}

func TypingEvent(eventType string, sender types.User) *ServerEvent {
	return &ServerEvent{
		Type:           eventType,
		SenderId:       sender.Id,
		SenderUsername: sender.Username,
		Timestamp:      Now(),
	}
}

func MessageEditedEvent(id int, body string, editedAt time.Time) *ServerEvent {
	return &ServerEvent{
		Type:      TypeMessageEdited,
		Id:        id,
		Message:   body,
		EditedAt:  &editedAt,
		Timestamp: Now(),
	}
}

func MessageDeletedEvent(id int) *ServerEvent {
	return &ServerEvent{
		Type:      TypeMessageDeleted,
		Id:        id,
		Timestamp: Now(),
	}
}

func UserStatusEvent(online bool, userId int) *ServerEvent {
	eventType := TypeUserOffline
	if online {
		eventType = TypeUserOnline
	}
	return &ServerEvent{
		Type:      eventType,
		UserId:    userId,
		Timestamp: Now(),
	}
}

func ErrorEvent(message string, messageId int) *ServerEvent {
	return &ServerEvent{
		Type:      TypeError,
		Error:     message,
		MessageId: messageId,
		Timestamp: Now(),
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
