package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) ListAccounts(excludeId int) ([]User, error) {
	args := m.Called(excludeId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) SetUserOnline(accountId int, lastSeen time.Time) error {
	args := m.Called(accountId, lastSeen)
	return args.Error(0)
}
func (m *MockRepository) SetUserOffline(accountId int) error {
	args := m.Called(accountId)
	return args.Error(0)
}
func (m *MockRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) GetMessageByIdAndSender(messageId, senderId int) (Message, error) {
	args := m.Called(messageId, senderId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) UpdateMessageBody(messageId int, body string, editedAt time.Time) error {
	args := m.Called(messageId, body, editedAt)
	return args.Error(0)
}
func (m *MockRepository) MarkMessageDeleted(messageId int) error {
	args := m.Called(messageId)
	return args.Error(0)
}
func (m *MockRepository) ListMessagesBetween(userA, userB int) ([]Message, error) {
	args := m.Called(userA, userB)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) CreateProject(params CreateProjectParams) (Project, error) {
	args := m.Called(params)
	return args.Get(0).(Project), args.Error(1)
}
func (m *MockRepository) GetProjectById(projectId int) (Project, error) {
	args := m.Called(projectId)
	return args.Get(0).(Project), args.Error(1)
}
func (m *MockRepository) ListProjects() ([]Project, error) {
	args := m.Called()
	return args.Get(0).([]Project), args.Error(1)
}
func (m *MockRepository) CreateApplication(params CreateApplicationParams) (Application, error) {
	args := m.Called(params)
	return args.Get(0).(Application), args.Error(1)
}
func (m *MockRepository) GetApplicationById(applicationId int) (Application, error) {
	args := m.Called(applicationId)
	return args.Get(0).(Application), args.Error(1)
}
func (m *MockRepository) UpdateApplicationStatus(applicationId int, status string) error {
	args := m.Called(applicationId, status)
	return args.Error(0)
}
func (m *MockRepository) CreateNotification(recipientId int, message string) (Notification, error) {
	args := m.Called(recipientId, message)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockRepository) ListNotifications(recipientId int) ([]Notification, error) {
	args := m.Called(recipientId)
	return args.Get(0).([]Notification), args.Error(1)
}
