package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gigbook/internal/domain"
	"gigbook/internal/models"
)

const artistColumns = `id, user_id, name, slug, city, genres, rate, bio, image_url, created_at, updated_at`

// CreateArtist inserts the artist using artist.Slug as the base slug and stores the
// slug that was actually assigned.
func (db *DB) CreateArtist(ctx context.Context, artist *models.Artist) error {
	genres, err := encodeGenres(artist.Genres)
	if err != nil {
		return err
	}

	query := `INSERT INTO artists (user_id, name, slug, city, genres, rate, bio, image_url, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	id, assigned, err := db.insertWithSlug(ctx, "artists.slug", artist.Slug, func(candidate string) (sql.Result, error) {
		return db.q.ExecContext(ctx, query,
			artist.UserID,
			artist.Name,
			candidate,
			artist.City,
			genres,
			artist.Rate,
			artist.Bio,
			artist.ImageURL,
			now,
			now,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to create artist: %w", err)
	}

	artist.ID = id
	artist.Slug = assigned
	artist.CreatedAt = now
	artist.UpdatedAt = now
	return nil
}

// UpdateArtist rewrites the editable profile fields. The slug is never touched.
func (db *DB) UpdateArtist(ctx context.Context, artist *models.Artist) error {
	genres, err := encodeGenres(artist.Genres)
	if err != nil {
		return err
	}

	query := `UPDATE artists SET name = ?, city = ?, genres = ?, rate = ?, bio = ?, image_url = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now().UTC()
	result, err := db.q.ExecContext(ctx, query,
		artist.Name, artist.City, genres, artist.Rate, artist.Bio, artist.ImageURL, now, artist.ID)
	if err != nil {
		return fmt.Errorf("failed to update artist: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	artist.UpdatedAt = now
	return nil
}

func (db *DB) GetArtist(ctx context.Context, id int64) (*models.Artist, error) {
	return scanArtist(db.q.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ?`, id))
}

func (db *DB) GetArtistBySlug(ctx context.Context, slug string) (*models.Artist, error) {
	return scanArtist(db.q.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE slug = ?`, slug))
}

func (db *DB) GetArtistByUserID(ctx context.Context, userID int64) (*models.Artist, error) {
	return scanArtist(db.q.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE user_id = ?`, userID))
}

func (db *DB) ListArtists(ctx context.Context, filter domain.ProfileFilter) ([]*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists`
	var (
		conds []string
		args  []any
	)
	if filter.City != "" {
		conds = append(conds, "city = ? COLLATE NOCASE")
		args = append(args, filter.City)
	}
	if filter.Genre != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(artists.genres) WHERE lower(json_each.value) = lower(?))")
		args = append(args, filter.Genre)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"
	query, args = paginate(query, args, filter)

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	defer rows.Close()

	var artists []*models.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

func scanArtist(row scanner) (*models.Artist, error) {
	var (
		a      models.Artist
		genres string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Slug, &a.City, &genres, &a.Rate, &a.Bio, &a.ImageURL,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}
	if err := json.Unmarshal([]byte(genres), &a.Genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres of artist %d: %w", a.ID, err)
	}
	return &a, nil
}

func encodeGenres(genres []string) (string, error) {
	if genres == nil {
		genres = []string{}
	}
	b, err := json.Marshal(genres)
	if err != nil {
		return "", fmt.Errorf("failed to encode genres: %w", err)
	}
	return string(b), nil
}

const defaultPageSize = 50

func paginate(query string, args []any, filter domain.ProfileFilter) (string, []any) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return query + " LIMIT ? OFFSET ?", append(args, limit, offset)
}
