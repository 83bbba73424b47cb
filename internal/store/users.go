package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory/m/domain"
	"inventory/m/internal/database"
)

const userColumns = `id, username, email, full_name, hashed_password, is_active, created_at`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	if isNoRows(err) {
		return u, domain.NotFoundf("Usuario '%s' no encontrado", username)
	}
	if err != nil {
		return u, fmt.Errorf("get user %q: %w", username, err)
	}
	return u, nil
}

func (q *Queries) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return q.exists(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username)
}

func (q *Queries) EmailTaken(ctx context.Context, email string) (bool, error) {
	return q.exists(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, strings.ToLower(email))
}

func (q *Queries) CreateUser(ctx context.Context, username, email string, fullName *string, hashedPassword string) (domain.User, error) {
	now := time.Now().UTC()
	email = strings.ToLower(email)
	id, err := q.db.InsertID(ctx, q.ext, `INSERT INTO users (username, email, full_name, hashed_password, is_active, created_at)
                VALUES (?, ?, ?, ?, ?, ?)`, username, email, fullName, hashedPassword, true, now)
	if database.IsUniqueViolation(err) {
		return domain.User{}, domain.Duplicatef("El usuario '%s' o el email '%s' ya existe", username, email)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return domain.User{ID: id, Username: username, Email: email, FullName: fullName, HashedPassword: hashedPassword, IsActive: true, CreatedAt: now}, nil
}

func (q *Queries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var n int
	if err := q.get(ctx, &n, query, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}
