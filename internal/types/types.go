package types

import (
	"time"
)

const (
	RoleCreator = "creator"
	RoleBrand   = "brand"
)

type User struct {
	Id           int        `json:"id"`
	Username     string     `json:"username"`
	EmailAddress string     `json:"email_address,omitempty"`
	Role         string     `json:"role,omitempty"`
	Password     string     `json:"-"`
	IsOnline     bool       `json:"is_online"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at,omitempty"`
}

// ChatMessage is the client-facing projection of a stored message. Self is
// computed against the requesting user, so the same row serializes
// differently for each participant.
type ChatMessage struct {
	Id               int        `json:"id"`
	SenderId         int        `json:"sender_id"`
	SenderUsername   string     `json:"sender_username"`
	ReceiverId       int        `json:"receiver_id"`
	ReceiverUsername string     `json:"receiver_username"`
	Message          string     `json:"message"`
	Self             bool       `json:"self"`
	EditedAt         *time.Time `json:"edited_at,omitempty"`
	IsDeleted        bool       `json:"is_deleted"`
	IsSystem         bool       `json:"is_system"`
	Timestamp        time.Time  `json:"timestamp"`
}

const (
	ApplicationPending  = "pending"
	ApplicationHired    = "hired"
	ApplicationRejected = "rejected"
)

type Project struct {
	Id             int       `json:"id"`
	BrandId        int       `json:"brand_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	SkillsRequired string    `json:"skills_required"`
	Budget         float64   `json:"budget"`
	Deadline       time.Time `json:"deadline"`
	CreatedAt      time.Time `json:"created_at"`
}

type Application struct {
	Id        int       `json:"id"`
	ProjectId int       `json:"project_id"`
	CreatorId int       `json:"creator_id"`
	Pitch     string    `json:"pitch"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	Id          int       `json:"id"`
	RecipientId int       `json:"recipient_id"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
