// Package postgres implements the siack repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dakgu/siack"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

func pgxIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// FileRepo implements siack.FileRepo.
type FileRepo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewFileRepo(pool *pgxpool.Pool, tables siack.Tables) (*FileRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new file repo: %w", err)
	}

	return &FileRepo{pool: pool, tableName: pgxIdentifier(tables.Files)}, nil
}

const fileColumns = `id, owner_id, original_name, stored_name, path, category, extension, size, content_type, created_at, updated_at`

func (r *FileRepo) Create(ctx context.Context, rec siack.FileRecord) (siack.FileRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, original_name, stored_name, path, category, extension, size, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()))
		RETURNING %s
	`, r.tableName, fileColumns)

	var createdAt *time.Time
	if !rec.CreatedAt.IsZero() {
		createdAt = &rec.CreatedAt
	}

	out, err := scanFile(r.pool.QueryRow(ctx, query,
		rec.ID, rec.OwnerID, rec.OriginalName, rec.StoredName, rec.Path,
		rec.Category, rec.Extension, rec.Size, rec.ContentType, createdAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return siack.FileRecord{}, fmt.Errorf("create file: %w", siack.ErrConflict)
		}
		return siack.FileRecord{}, fmt.Errorf("create file: %w", err)
	}

	return out, nil
}

func (r *FileRepo) Get(ctx context.Context, id uuid.UUID) (siack.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fileColumns, r.tableName)

	rec, err := scanFile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, fileColumns, r.tableName)
		args = []any{q.OwnerID, limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`, fileColumns, r.tableName)
		args = []any{q.OwnerID, cursor.CreatedAt, cursor.ID, limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return siack.ListResult{}, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	items := make([]siack.FileRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanFile(rows)
		if scanErr != nil {
			return siack.ListResult{}, fmt.Errorf("list files: scan: %w", scanErr)
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

func scanFile(row pgx.Row) (siack.FileRecord, error) {
	var rec siack.FileRecord
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.OriginalName, &rec.StoredName, &rec.Path,
		&rec.Category, &rec.Extension, &rec.Size, &rec.ContentType, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return siack.FileRecord{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

// UserRepo implements siack.UserRepo.
type UserRepo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewUserRepo(pool *pgxpool.Pool, tables siack.Tables) (*UserRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &UserRepo{pool: pool, tableName: pgxIdentifier(tables.Users)}, nil
}

const userColumns = `id, username, password_hash, email, nickname, authorities, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, u siack.User) (siack.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	authorities := u.Authorities
	if authorities == nil {
		authorities = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, username, password_hash, email, nickname, authorities)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, r.tableName, userColumns)

	out, err := scanUser(r.pool.QueryRow(ctx, query, u.ID, u.Username, u.PasswordHash, u.Email, u.Nickname, authorities))
	if err != nil {
		if isUniqueViolation(err) {
			return siack.User{}, fmt.Errorf("create user %s: %w", u.Username, siack.ErrConflict)
		}
		return siack.User{}, fmt.Errorf("create user: %w", err)
	}

	return out, nil
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
	query := fmt.Sprintf(`
		UPDATE %s SET nickname = $1, updated_at = NOW()
		WHERE username = $2
		RETURNING %s
	`, r.tableName, userColumns)

	u, err := scanUser(r.pool.QueryRow(ctx, query, nickname, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return siack.User{}, siack.ErrNotFound
		}
		if isUniqueViolation(err) {
			return siack.User{}, fmt.Errorf("update nickname of %s: %w", username, siack.ErrConflict)
		}
		return siack.User{}, fmt.Errorf("update nickname: %w", err)
	}

	return u, nil
}

// getBy looks a user up by a unique column. column is never user input.
func (r *UserRepo) getBy(ctx context.Context, column, value string) (siack.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, userColumns, r.tableName, column)

	u, err := scanUser(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return siack.User{}, siack.ErrNotFound
		}
		return siack.User{}, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

func scanUser(row pgx.Row) (siack.User, error) {
	var u siack.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Nickname, &u.Authorities, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return siack.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
