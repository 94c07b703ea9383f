package database

import (
	"database/sql"
	"time"
)

type User struct {
	Id           int
	Username     string
	EmailAddress string
	Role         string
	PasswordHash string
	IsOnline     bool
	LastSeen     sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is a stored chat message. SenderId is nullable: deleting an
// account keeps its messages and reattributes them to "no sender".
type Message struct {
	Id               int
	SenderId         sql.NullInt64
	SenderUsername   sql.NullString
	ReceiverId       int
	ReceiverUsername string
	Body             string
	IsDeleted        bool
	IsSystem         bool
	EditedAt         sql.NullTime
	CreatedAt        time.Time
}

type Project struct {
	Id             int
	BrandId        int
	Title          string
	Description    string
	SkillsRequired string
	Budget         float64
	Deadline       time.Time
	CreatedAt      time.Time
}

type Application struct {
	Id        int
	ProjectId int
	CreatorId int
	Pitch     string
	Status    string
	CreatedAt time.Time
}

type Notification struct {
	Id          int
	RecipientId int
	Message     string
	IsRead      bool
	CreatedAt   time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	Role         string
	PasswordHash string
}

type CreateMessageParams struct {
	SenderId   int
	ReceiverId int
	Body       string
	IsSystem   bool
}

type CreateProjectParams struct {
	BrandId        int
	Title          string
	Description    string
	SkillsRequired string
	Budget         float64
	Deadline       time.Time
}

type CreateApplicationParams struct {
	ProjectId int
	CreatorId int
	Pitch     string
}
