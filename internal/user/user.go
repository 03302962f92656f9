// Package user stores accounts for the identity collaborator.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

func (r Role) Valid() bool { return r == RoleStudent || r == RoleTeacher }

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)

type Store struct {
	db *db.DB
}

func NewStore(d *db.DB) *Store { return &Store{db: d} }

// Create hashes the password and inserts the user. A taken username is a conflict.
func (s *Store) Create(ctx context.Context, username, password string, role Role) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, fmt.Errorf("username and password required: %w", apperr.ErrValidation)
	}
	if !role.Valid() {
		return User{}, fmt.Errorf("role must be student or teacher: %w", apperr.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	id, err := s.db.InsertID(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		username, string(hash), string(role), now.Unix())
	if err != nil {
		if s.db.Dialect().IsUniqueViolation(err) {
			return User{}, fmt.Errorf("username %q taken: %w", username, apperr.ErrConflict)
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return User{ID: id, Username: username, Role: role, PasswordHash: string(hash), CreatedAt: db.UnixTime(now.Unix())}, nil
}

// Authenticate checks a password. When role is non-empty the account must have it.
func (s *Store) Authenticate(ctx context.Context, username, password string, role Role) (User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if role != "" && u.Role != role {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.scanOne(s.db.QueryRow(ctx,
		`SELECT id, username, role, password_hash, created_at FROM users WHERE username = ?`,
		strings.TrimSpace(username)))
}

func (s *Store) Get(ctx context.Context, id int64) (User, error) {
	return s.scanOne(s.db.QueryRow(ctx,
		`SELECT id, username, role, password_hash, created_at FROM users WHERE id = ?`, id))
}

// Count returns the number of users with the given role, or all users when role is empty.
func (s *Store) Count(ctx context.Context, role Role) (int, error) {
	var n int
	var err error
	if role == "" {
		err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	} else {
		err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, string(role)).Scan(&n)
	}
	return n, err
}

func (s *Store) scanOne(row *sql.Row) (User, error) {
	var u User
	var role string
	var created int64
	if err := row.Scan(&u.ID, &u.Username, &role, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return User{}, err
	}
	u.Role = Role(role)
	u.CreatedAt = db.UnixTime(created)
	return u, nil
}
