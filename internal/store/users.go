package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"nestlist/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, email, passwordHash, name string) (model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		`insert into users(email, password_hash, name) values($1, $2, $3)
		 returning id, email, name, created_at`, email, passwordHash, name)
	return u, err
}

func (s *Store) userCredsByEmail(ctx context.Context, email string) (model.User, string, error) {
	var row struct {
		model.User
		PasswordHash string `db:"password_hash"`
	}
	err := s.db.GetContext(ctx, &row,
		`select id, email, name, created_at, password_hash from users where lower(email)=lower($1)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, "", ErrNotFound
	}
	return row.User, row.PasswordHash, err
}

// Authenticate verifies the password and returns the user if it matches.
func (s *Store) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, hash, err := s.userCredsByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (string, time.Time, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	expires := time.Now().Add(ttl)
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(user_id, token, expires_at) values($1, $2, $3)`, userID, token, expires)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (s *Store) UserBySession(ctx context.Context, token string) (model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		`select u.id, u.email, u.name, u.created_at
		 from sessions s join users u on u.id = s.user_id
		 where s.token = $1 and s.expires_at > now()`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `delete from sessions where token = $1`, token)
	return err
}
