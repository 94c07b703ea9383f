package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/collablink/collab-server/internal/database"
	"github.com/collablink/collab-server/internal/server"
	"github.com/collablink/collab-server/internal/types"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

type EditMessageRequest struct {
	Message string `json:"message"`
}

type CreateProjectRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	SkillsRequired string  `json:"skills_required"`
	Budget         float64 `json:"budget"`
	Deadline       string  `json:"deadline"`
}

type CreateApplicationRequest struct {
	Pitch string `json:"pitch"`
}

func (s *CollabApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func userFromDb(u database.User) types.User {
	user := types.User{
		Id:           u.Id,
		Username:     u.Username,
		EmailAddress: u.EmailAddress,
		Role:         u.Role,
		IsOnline:     u.IsOnline,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.LastSeen.Valid {
		lastSeen := u.LastSeen.Time
		user.LastSeen = &lastSeen
	}
	return user
}

func messageFromDb(msg database.Message, requesterId int) types.ChatMessage {
	m := types.ChatMessage{
		Id:               msg.Id,
		ReceiverId:       msg.ReceiverId,
		ReceiverUsername: msg.ReceiverUsername,
		Message:          msg.Body,
		IsDeleted:        msg.IsDeleted,
		IsSystem:         msg.IsSystem,
		Timestamp:        msg.CreatedAt,
	}
	if msg.SenderId.Valid {
		m.SenderId = int(msg.SenderId.Int64)
		m.Self = m.SenderId == requesterId
	}
	if msg.SenderUsername.Valid {
		m.SenderUsername = msg.SenderUsername.String
	}
	if msg.EditedAt.Valid {
		editedAt := msg.EditedAt.Time
		m.EditedAt = &editedAt
	}
	return m
}

func (s *CollabApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Role == "" {
		req.Role = types.RoleCreator
	}
	if req.Role != types.RoleCreator && req.Role != types.RoleBrand {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newUser, err := s.db.CreateAccount(database.CreateAccountParams{
		Username:     req.Username,
		EmailAddress: req.Email,
		Role:         req.Role,
		PasswordHash: pwdHash,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, userFromDb(newUser))
}

func (s *CollabApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user := userFromDb(dbUser)

	// the token goes in the body: the websocket handshake needs it as a
	// query parameter, so a cookie would not serve
	token, err := s.createJwtForSession(user, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

func (s *CollabApp) listChatUsers(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUsers, err := s.db.ListAccounts(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	users := make([]types.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, userFromDb(u))
	}

	s.writeJson(w, http.StatusOK, users)
}

func (s *CollabApp) chatHistory(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	peerId, err := strconv.Atoi(r.PathValue("user_id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetAccountById(peerId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMessages, err := s.db.ListMessagesBetween(userId, peerId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages := make([]types.ChatMessage, 0, len(dbMessages))
	for _, msg := range dbMessages {
		messages = append(messages, messageFromDb(msg, userId))
	}

	s.writeJson(w, http.StatusOK, messages)
}

// lookupOwnMessage fetches a message enforcing the ownership rule. Unlike
// the socket path, the REST fallbacks surface not-found-or-not-owned as an
// explicit 404.
func (s *CollabApp) lookupOwnMessage(w http.ResponseWriter, r *http.Request) (database.Message, bool) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return database.Message{}, false
	}

	messageId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return database.Message{}, false
	}

	msg, err := s.db.GetMessageByIdAndSender(messageId, userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return database.Message{}, false
	}

	return msg, true
}

func (s *CollabApp) editMessage(w http.ResponseWriter, r *http.Request) {
	var req EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	body := strings.TrimSpace(req.Message)
	if body == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, ok := s.lookupOwnMessage(w, r)
	if !ok {
		return
	}

	editedAt := server.Now()
	if err := s.db.UpdateMessageBody(msg.Id, body, editedAt); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	roomName := server.RoomName(int(msg.SenderId.Int64), msg.ReceiverId)
	if err := s.cs.PublishEvent(r.Context(), roomName, server.MessageEditedEvent(msg.Id, body, editedAt)); err != nil {
		s.log.Printf("broadcast edit for message %d: %v", msg.Id, err)
	}

	msg.Body = body
	msg.EditedAt = sql.NullTime{Time: editedAt, Valid: true}
	s.writeJson(w, http.StatusOK, messageFromDb(msg, int(msg.SenderId.Int64)))
}

func (s *CollabApp) deleteMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.lookupOwnMessage(w, r)
	if !ok {
		return
	}

	if err := s.db.MarkMessageDeleted(msg.Id); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	roomName := server.RoomName(int(msg.SenderId.Int64), msg.ReceiverId)
	if err := s.cs.PublishEvent(r.Context(), roomName, server.MessageDeletedEvent(msg.Id)); err != nil {
		s.log.Printf("broadcast delete for message %d: %v", msg.Id, err)
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *CollabApp) createProject(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" || req.Description == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	deadline, err := time.Parse("2006-01-02", req.Deadline)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	project, err := s.db.CreateProject(database.CreateProjectParams{
		BrandId:        userId,
		Title:          req.Title,
		Description:    req.Description,
		SkillsRequired: req.SkillsRequired,
		Budget:         req.Budget,
		Deadline:       deadline,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, projectFromDb(project))
}

func projectFromDb(p database.Project) types.Project {
	return types.Project{
		Id:             p.Id,
		BrandId:        p.BrandId,
		Title:          p.Title,
		Description:    p.Description,
		SkillsRequired: p.SkillsRequired,
		Budget:         p.Budget,
		Deadline:       p.Deadline,
		CreatedAt:      p.CreatedAt,
	}
}

func applicationFromDb(a database.Application) types.Application {
	return types.Application{
		Id:        a.Id,
		ProjectId: a.ProjectId,
		CreatorId: a.CreatorId,
		Pitch:     a.Pitch,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}

func (s *CollabApp) listProjects(w http.ResponseWriter, r *http.Request) {
	dbProjects, err := s.db.ListProjects()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	projects := make([]types.Project, 0, len(dbProjects))
	for _, p := range dbProjects {
		projects = append(projects, projectFromDb(p))
	}

	s.writeJson(w, http.StatusOK, projects)
}

func (s *CollabApp) getProject(w http.ResponseWriter, r *http.Request) {
	projectId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	project, err := s.db.GetProjectById(projectId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, projectFromDb(project))
}

func (s *CollabApp) createApplication(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	projectId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetProjectById(projectId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	app, err := s.db.CreateApplication(database.CreateApplicationParams{
		ProjectId: projectId,
		CreatorId: userId,
		Pitch:     req.Pitch,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, applicationFromDb(app))
}

// resolveApplication transitions an application to hired/rejected and drops
// a notification row for the creator.
func (s *CollabApp) resolveApplication(w http.ResponseWriter, r *http.Request, status string) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	applicationId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	app, err := s.db.GetApplicationById(applicationId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	project, err := s.db.GetProjectById(app.ProjectId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// only the project's brand decides the outcome
	if project.BrandId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.UpdateApplicationStatus(app.Id, status); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var notice string
	if status == types.ApplicationHired {
		notice = fmt.Sprintf("Congratulations, you've been hired for %q.", project.Title)
	} else {
		notice = fmt.Sprintf("Sorry, you were not selected for %q.", project.Title)
	}

	if _, err := s.db.CreateNotification(app.CreatorId, notice); err != nil {
		s.log.Printf("create notification for user %d: %v", app.CreatorId, err)
	}

	app.Status = status
	s.writeJson(w, http.StatusOK, applicationFromDb(app))
}

func (s *CollabApp) hireApplication(w http.ResponseWriter, r *http.Request) {
	s.resolveApplication(w, r, types.ApplicationHired)
}

func (s *CollabApp) rejectApplication(w http.ResponseWriter, r *http.Request) {
	s.resolveApplication(w, r, types.ApplicationRejected)
}

func (s *CollabApp) listNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbNotifications, err := s.db.ListNotifications(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notifications := make([]types.Notification, 0, len(dbNotifications))
	for _, n := range dbNotifications {
		notifications = append(notifications, types.Notification{
			Id:          n.Id,
			RecipientId: n.RecipientId,
			Message:     n.Message,
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, notifications)
}

// serveChatWs is the websocket handshake for a pair conversation. The peer
// is addressed by path, the token travels as a query parameter since the
// handshake cannot carry custom headers. Unauthenticated or badly addressed
// connections are rejected before the upgrade and never reach a room.
func (s *CollabApp) serveChatWs(w http.ResponseWriter, r *http.Request) {
	user := s.authenticateHandshake(r)
	if user.Id == 0 {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	peerId, err := strconv.Atoi(r.PathValue("user_id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbPeer, err := s.db.GetAccountById(peerId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	peer := types.User{
		Id:       dbPeer.Id,
		Username: dbPeer.Username,
		Role:     dbPeer.Role,
	}

	// the request context dies once the handler returns on a hijacked
	// connection; the session outlives it
	if err := s.cs.HandleConnection(context.Background(), user, peer, conn); err != nil {
		s.log.Println("error starting session:", err)
		conn.Close()
	}
}
