package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gigbook/internal/models"
)

// UpsertUser inserts the user or refreshes name and role from the latest identity claims.
func (db *DB) UpsertUser(ctx context.Context, identity *models.Identity) (*models.User, error) {
	query := `INSERT INTO users (email, name, role, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT(email) DO UPDATE SET
                name = excluded.name,
                role = excluded.role,
                updated_at = excluded.updated_at`
	now := time.Now().UTC()
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if _, err := db.q.ExecContext(ctx, query, email, identity.Name, identity.Role, now, now); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return db.GetUserByEmail(ctx, email)
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, email, name, role, created_at, updated_at FROM users WHERE id = ?`
	return scanUser(db.q.QueryRowContext(ctx, query, id))
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, role, created_at, updated_at FROM users WHERE email = ?`
	return scanUser(db.q.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

// SetUserRole overrides a user's role until the next login refreshes it from claims.
func (db *DB) SetUserRole(ctx context.Context, email, role string) error {
	query := `UPDATE users SET role = ?, updated_at = ? WHERE email = ?`
	result, err := db.q.ExecContext(ctx, query, role, time.Now().UTC(), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}
