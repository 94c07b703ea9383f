package database

import "time"

type Repository interface {
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	ListAccounts(excludeId int) ([]User, error)

	SetUserOnline(accountId int, lastSeen time.Time) error
	SetUserOffline(accountId int) error

	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessageByIdAndSender(messageId, senderId int) (Message, error)
	UpdateMessageBody(messageId int, body string, editedAt time.Time) error
	MarkMessageDeleted(messageId int) error
	ListMessagesBetween(userA, userB int) ([]Message, error)

	CreateProject(params CreateProjectParams) (Project, error)
	GetProjectById(projectId int) (Project, error)
	ListProjects() ([]Project, error)
	CreateApplication(params CreateApplicationParams) (Application, error)
	GetApplicationById(applicationId int) (Application, error)
	UpdateApplicationStatus(applicationId int, status string) error
	CreateNotification(recipientId int, message string) (Notification, error)
	ListNotifications(recipientId int) ([]Notification, error)
}
