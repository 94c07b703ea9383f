package database

import (
	"database/sql"
	"time"
)

func (db *PgRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, role, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING id, username, email, role, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.Role,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, role, is_online, last_seen FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.IsOnline,
		&u.LastSeen,
	)

	return u, err
}

func (db *PgRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, role, password_hash FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.PasswordHash,
	)

	return u, err
}

func (db *PgRepository) ListAccounts(excludeId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, role, is_online, last_seen FROM accounts "+
			"WHERE id != $1 ORDER BY username",
		excludeId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Username, &u.Role, &u.IsOnline, &u.LastSeen); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// SetUserOnline stamps last_seen in addition to flipping the flag. The
// offline transition leaves last_seen at its last online stamp.
func (db *PgRepository) SetUserOnline(accountId int, lastSeen time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET is_online = TRUE, last_seen = $2, updated_at = $3 WHERE id = $1",
		accountId,
		lastSeen,
		time.Now().UTC(),
	)
	return err
}

func (db *PgRepository) SetUserOffline(accountId int) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET is_online = FALSE, updated_at = $2 WHERE id = $1",
		accountId,
		time.Now().UTC(),
	)
	return err
}

func (db *PgRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	// a zero sender means a platform-synthesized message with no owner
	senderId := sql.NullInt64{Int64: int64(params.SenderId), Valid: params.SenderId != 0}

	res := db.conn.QueryRow(
		"INSERT INTO chat_messages (sender_id, receiver_id, body, is_system, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at",
		senderId,
		params.ReceiverId,
		params.Body,
		params.IsSystem,
		time.Now().UTC(),
	)

	msg := Message{
		SenderId:   senderId,
		ReceiverId: params.ReceiverId,
		Body:       params.Body,
		IsSystem:   params.IsSystem,
	}
	err := res.Scan(&msg.Id, &msg.CreatedAt)

	return msg, err
}

func (db *PgRepository) GetMessageByIdAndSender(messageId, senderId int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT id, sender_id, receiver_id, body, is_deleted, is_system, edited_at, created_at "+
			"FROM chat_messages WHERE id = $1 AND sender_id = $2 LIMIT 1",
		messageId,
		senderId,
	)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.SenderId,
		&msg.ReceiverId,
		&msg.Body,
		&msg.IsDeleted,
		&msg.IsSystem,
		&msg.EditedAt,
		&msg.CreatedAt,
	)

	return msg, err
}

func (db *PgRepository) UpdateMessageBody(messageId int, body string, editedAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE chat_messages SET body = $2, edited_at = $3 WHERE id = $1",
		messageId,
		body,
		editedAt,
	)
	return err
}

// MarkMessageDeleted sets the tombstone flag. The body is retained for
// history and audit, clients hide it.
func (db *PgRepository) MarkMessageDeleted(messageId int) error {
	_, err := db.conn.Exec(
		"UPDATE chat_messages SET is_deleted = TRUE WHERE id = $1",
		messageId,
	)
	return err
}

func (db *PgRepository) ListMessagesBetween(userA, userB int) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT m.id, m.sender_id, s.username, m.receiver_id, r.username, "+
			"m.body, m.is_deleted, m.is_system, m.edited_at, m.created_at "+
			"FROM chat_messages m "+
			"LEFT JOIN accounts s ON m.sender_id = s.id "+
			"JOIN accounts r ON m.receiver_id = r.id "+
			"WHERE (m.sender_id = $1 AND m.receiver_id = $2) "+
			"OR (m.sender_id = $2 AND m.receiver_id = $1) "+
			"ORDER BY m.created_at ASC",
		userA,
		userB,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		err := rows.Scan(
			&msg.Id,
			&msg.SenderId,
			&msg.SenderUsername,
			&msg.ReceiverId,
			&msg.ReceiverUsername,
			&msg.Body,
			&msg.IsDeleted,
			&msg.IsSystem,
			&msg.EditedAt,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgRepository) CreateProject(params CreateProjectParams) (Project, error) {
	res := db.conn.QueryRow(
		"INSERT INTO projects (brand_id, title, description, skills_required, budget, deadline, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at",
		params.BrandId,
		params.Title,
		params.Description,
		params.SkillsRequired,
		params.Budget,
		params.Deadline,
		time.Now().UTC(),
	)

	project := Project{
		BrandId:        params.BrandId,
		Title:          params.Title,
		Description:    params.Description,
		SkillsRequired: params.SkillsRequired,
		Budget:         params.Budget,
		Deadline:       params.Deadline,
	}
	err := res.Scan(&project.Id, &project.CreatedAt)

	return project, err
}

func (db *PgRepository) GetProjectById(projectId int) (Project, error) {
	row := db.conn.QueryRow(
		"SELECT id, brand_id, title, description, skills_required, budget, deadline, created_at "+
			"FROM projects WHERE id = $1 LIMIT 1",
		projectId,
	)

	var p Project
	err := row.Scan(
		&p.Id,
		&p.BrandId,
		&p.Title,
		&p.Description,
		&p.SkillsRequired,
		&p.Budget,
		&p.Deadline,
		&p.CreatedAt,
	)

	return p, err
}

func (db *PgRepository) ListProjects() ([]Project, error) {
	rows, err := db.conn.Query(
		"SELECT id, brand_id, title, description, skills_required, budget, deadline, created_at " +
			"FROM projects ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		err := rows.Scan(
			&p.Id,
			&p.BrandId,
			&p.Title,
			&p.Description,
			&p.SkillsRequired,
			&p.Budget,
			&p.Deadline,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

func (db *PgRepository) CreateApplication(params CreateApplicationParams) (Application, error) {
	res := db.conn.QueryRow(
		"INSERT INTO applications (project_id, creator_id, pitch, status, created_at) "+
			"VALUES ($1, $2, $3, 'pending', $4) RETURNING id, status, created_at",
		params.ProjectId,
		params.CreatorId,
		params.Pitch,
		time.Now().UTC(),
	)

	app := Application{
		ProjectId: params.ProjectId,
		CreatorId: params.CreatorId,
		Pitch:     params.Pitch,
	}
	err := res.Scan(&app.Id, &app.Status, &app.CreatedAt)

	return app, err
}

func (db *PgRepository) GetApplicationById(applicationId int) (Application, error) {
	row := db.conn.QueryRow(
		"SELECT id, project_id, creator_id, pitch, status, created_at "+
			"FROM applications WHERE id = $1 LIMIT 1",
		applicationId,
	)

	var app Application
	err := row.Scan(
		&app.Id,
		&app.ProjectId,
		&app.CreatorId,
		&app.Pitch,
		&app.Status,
		&app.CreatedAt,
	)

	return app, err
}

func (db *PgRepository) UpdateApplicationStatus(applicationId int, status string) error {
	_, err := db.conn.Exec(
		"UPDATE applications SET status = $2 WHERE id = $1",
		applicationId,
		status,
	)
	return err
}

func (db *PgRepository) CreateNotification(recipientId int, message string) (Notification, error) {
	res := db.conn.QueryRow(
		"INSERT INTO notifications (recipient_id, message, created_at) "+
			"VALUES ($1, $2, $3) RETURNING id, created_at",
		recipientId,
		message,
		time.Now().UTC(),
	)

	n := Notification{
		RecipientId: recipientId,
		Message:     message,
	}
	err := res.Scan(&n.Id, &n.CreatedAt)

	return n, err
}

func (db *PgRepository) ListNotifications(recipientId int) ([]Notification, error) {
	rows, err := db.conn.Query(
		"SELECT id, recipient_id, message, is_read, created_at "+
			"FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC",
		recipientId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.Id, &n.RecipientId, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}
