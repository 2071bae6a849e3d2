package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/parlorchat/parlor/server/domain"
	"github.com/parlorchat/parlor/server/usecase"
)

// Repository persists participants and chat messages in sqlite. Insertion
// order is carried by rowid, which backs the join-order presence listing and
// the message tie-break. Concurrency control lives above this layer; see
// usecase.Repository.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) usecase.Repository {
	return &Repository{db: db}
}

// Setup creates the two relations if they do not exist. No migrations.
func Setup(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS participants (
			session_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			message TEXT NOT NULL,
			date_created DATETIME NOT NULL,
			user_name TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) GetParticipant(connectionID string) (domain.Participant, error) {
	query := "SELECT session_id, name, created_at FROM participants WHERE session_id = ?"
	var id, name string
	var createdAt time.Time
	if err := r.db.QueryRow(query, connectionID).Scan(&id, &name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Participant{}, domain.ErrNotFound
		}
		return domain.Participant{}, fmt.Errorf("error querying participant %s: %w", connectionID, err)
	}
	return domain.NewParticipant(id, name, createdAt), nil
}

// GetParticipantByName is a case-sensitive exact match among connected
// participants.
func (r *Repository) GetParticipantByName(name string) (domain.Participant, error) {
	query := "SELECT session_id, name, created_at FROM participants WHERE name = ? ORDER BY rowid LIMIT 1"
	var id, found string
	var createdAt time.Time
	if err := r.db.QueryRow(query, name).Scan(&id, &found, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Participant{}, domain.ErrNotFound
		}
		return domain.Participant{}, fmt.Errorf("error querying participant by name '%s': %w", name, err)
	}
	// sqlite TEXT comparison on '=' is case-sensitive already; the guard
	// matters only if the column ever gains a NOCASE collation.
	if found != name {
		return domain.Participant{}, domain.ErrNotFound
	}
	return domain.NewParticipant(id, found, createdAt), nil
}

func (r *Repository) CreateParticipant(p domain.Participant) error {
	query := "INSERT INTO participants (session_id, name, created_at) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, p.ConnectionID, p.Name, p.JoinedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert participant '%s': %w", p.ConnectionID, err)
	}
	return nil
}

// DeleteParticipant is a no-op, not an error, when the row is absent; a
// disconnect may race with a join that never succeeded.
func (r *Repository) DeleteParticipant(connectionID string) error {
	query := "DELETE FROM participants WHERE session_id = ?"
	if _, err := r.db.Exec(query, connectionID); err != nil {
		return fmt.Errorf("failed to delete participant %s: %w", connectionID, err)
	}
	return nil
}

func (r *Repository) ListParticipants() ([]domain.Participant, error) {
	query := "SELECT session_id, name, created_at FROM participants ORDER BY rowid"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := []domain.Participant{}
	for rows.Next() {
		var id, name string
		var createdAt time.Time
		if err := rows.Scan(&id, &name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, domain.NewParticipant(id, name, createdAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over participants: %w", err)
	}
	return participants, nil
}

func (r *Repository) CreateMessage(m domain.ChatMessage) error {
	query := "INSERT INTO chat_messages (id, message, date_created, user_name) VALUES (?, ?, ?, ?)"
	if _, err := r.db.Exec(query, m.ID, m.Body, m.CreatedAt, m.AuthorName); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert message '%s': %w", m.ID, err)
	}
	return nil
}

func (r *Repository) ListMessages() ([]domain.ChatMessage, error) {
	query := "SELECT id, message, date_created, user_name FROM chat_messages ORDER BY date_created, rowid"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		var id, body, userName string
		var createdAt time.Time
		if err := rows.Scan(&id, &body, &createdAt, &userName); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, domain.ChatMessage{
			ID:         id,
			AuthorName: userName,
			Body:       body,
			CreatedAt:  createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over messages: %w", err)
	}
	return messages, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
