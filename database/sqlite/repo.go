// Package sqlite implements the siack repositories on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dakgu/siack"
	"github.com/google/uuid"
)

// timeLayout is a fixed-width RFC 3339 layout. Stored timestamps compare
// correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// isUniqueViolation reports a UNIQUE or PRIMARY KEY constraint failure.
// The driver only exposes these through the error message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FileRepo implements siack.FileRepo.
type FileRepo struct {
	db        *sql.DB
	tableName string
}

func NewFileRepo(db *sql.DB, tables siack.Tables) (*FileRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new file repo: %w", err)
	}

	return &FileRepo{db: db, tableName: quoteIdentifier(tables.Files)}, nil
}

func (r *FileRepo) Create(ctx context.Context, rec siack.FileRecord) (siack.FileRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, owner_id, original_name, stored_name, path, category, extension, size, content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID.String(), rec.OwnerID.String(), rec.OriginalName, rec.StoredName, rec.Path,
		rec.Category, rec.Extension, rec.Size, rec.ContentType,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return siack.FileRecord{}, fmt.Errorf("create file: %w", siack.ErrConflict)
		}
		return siack.FileRecord{}, fmt.Errorf("create file: %w", err)
	}

	return rec, nil
}

const fileColumns = `id, owner_id, original_name, stored_name, path, category, extension, size, content_type, created_at, updated_at`

func (r *FileRepo) Get(ctx context.Context, id uuid.UUID) (siack.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE id = ?`, fileColumns, r.tableName)

	rec, err := scanFile(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return siack.FileRecord{}, siack.ErrNotFound
		}
		return siack.FileRecord{}, fmt.Errorf("get file: %w", err)
	}

	return rec, nil
}

func (r *FileRepo) List(ctx context.Context, q siack.ListQuery) (siack.ListResult, error) {
	cursor, err := siack.DecodeCursor(q.Cursor)
	if err != nil {
		return siack.ListResult{}, fmt.Errorf("list files: %w", err)
	}

	limit := siack.ClampLimit(q.Limit)

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s FROM %s
			WHERE owner_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, fileColumns, r.tableName)
		args = []any{q.OwnerID.String(), limit + 1}
	} else {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s FROM %s
			WHERE owner_id = ? AND (created_at, id) < (?, ?)
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, fileColumns, r.tableName)
		args = []any{q.OwnerID.String(), formatTime(cursor.CreatedAt), cursor.ID.String(), limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return siack.ListResult{}, fmt.Errorf("list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]siack.FileRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanFile(rows)
		if scanErr != nil {
			return siack.ListResult{}, fmt.Errorf("list files: %w", scanErr)
		}
		items = append(items, rec)
	}

	if err := rows.Err(); err != nil {
		return siack.ListResult{}, fmt.Errorf("list files: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		last := items[limit-1]
		nextCursor = siack.EncodeCursor(last.CreatedAt, last.ID)
		items = items[:limit]
	}

	return siack.ListResult{Items: items, NextCursor: nextCursor}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (siack.FileRecord, error) {
	var rec siack.FileRecord
	var id, ownerID, createdAt, updatedAt string

	err := row.Scan(&id, &ownerID, &rec.OriginalName, &rec.StoredName, &rec.Path,
		&rec.Category, &rec.Extension, &rec.Size, &rec.ContentType, &createdAt, &updatedAt)
	if err != nil {
		return siack.FileRecord{}, err
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return siack.FileRecord{}, fmt.Errorf("parse id: %w", err)
	}
	if rec.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return siack.FileRecord{}, fmt.Errorf("parse owner_id: %w", err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return siack.FileRecord{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return siack.FileRecord{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return rec, nil
}

// UserRepo implements siack.UserRepo. Authorities are stored comma-joined.
type UserRepo struct {
	db        *sql.DB
	tableName string
}

func NewUserRepo(db *sql.DB, tables siack.Tables) (*UserRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &UserRepo{db: db, tableName: quoteIdentifier(tables.Users)}, nil
}

func (r *UserRepo) Create(ctx context.Context, u siack.User) (siack.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, username, password_hash, email, nickname, authorities, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName)

	_, err := r.db.ExecContext(ctx, query,
		u.ID.String(), u.Username, u.PasswordHash, u.Email, u.Nickname,
		strings.Join(u.Authorities, ","), formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return siack.User{}, fmt.Errorf("create user %s: %w", u.Username, siack.ErrConflict)
		}
		return siack.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (siack.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (siack.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) GetByNickname(ctx context.Context, nickname string) (siack.User, error) {
	return r.getBy(ctx, "nickname", nickname)
}

func (r *UserRepo) UpdateNickname(ctx context.Context, username, nickname string) (siack.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s SET nickname = ?, updated_at = ? WHERE username = ?`, r.tableName)

	res, err := r.db.ExecContext(ctx, query, nickname, formatTime(time.Now().UTC()), username)
	if err != nil {
		if isUniqueViolation(err) {
			return siack.User{}, fmt.Errorf("update nickname of %s: %w", username, siack.ErrConflict)
		}
		return siack.User{}, fmt.Errorf("update nickname: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return siack.User{}, fmt.Errorf("update nickname: %w", err)
	}
	if n == 0 {
		return siack.User{}, siack.ErrNotFound
	}

	return r.getBy(ctx, "username", username)
}

// getBy looks a user up by a unique column. column is never user input.
func (r *UserRepo) getBy(ctx context.Context, column, value string) (siack.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table and column names are constants
		`SELECT id, username, password_hash, email, nickname, authorities, created_at, updated_at
		FROM %s WHERE %s = ?`, r.tableName, column)

	var u siack.User
	var id, authorities, createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&id, &u.Username, &u.PasswordHash, &u.Email, &u.Nickname, &authorities, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return siack.User{}, siack.ErrNotFound
		}
		return siack.User{}, fmt.Errorf("get user: %w", err)
	}

	if u.ID, err = uuid.Parse(id); err != nil {
		return siack.User{}, fmt.Errorf("get user: parse id: %w", err)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return siack.User{}, fmt.Errorf("get user: parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return siack.User{}, fmt.Errorf("get user: parse updated_at: %w", err)
	}
	if authorities != "" {
		u.Authorities = strings.Split(authorities, ",")
	}

	return u, nil
}
