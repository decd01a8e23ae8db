package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/regdesk/portalserver/types"
)

const uniqueViolation = "23505"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password, is_admin, profile_picture, declaration, details, created_at`

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	var details []byte
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.IsAdmin,
		&user.ProfilePicture,
		&user.Declaration,
		&details,
		&user.CreatedAt,
	)
	if err != nil {
		return types.User{}, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &user.Details); err != nil {
			return types.User{}, err
		}
	}
	return user, nil
}

// List returns all users. The dashboards render the full collection;
// there is no pagination in this surface.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Create inserts the user and assigns id and created_at. A collision
// on the email unique index is reported as ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.CreatedAt = time.Now()
	if user.Details == nil {
		user.Details = map[string]string{}
	}
	details, err := json.Marshal(user.Details)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (email, password, is_admin, profile_picture, declaration, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.Password,
		user.IsAdmin,
		user.ProfilePicture,
		user.Declaration,
		details,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateByID merges the given form fields into the record. Known
// columns are updated in place; any other key lands in the details
// document. created_at is never touched. An absent id is a no-op.
func (r *UserRepository) UpdateByID(ctx context.Context, id int, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	extra := map[string]string{}

	for key, value := range fields {
		switch key {
		case "email", "password", "profile_picture":
			args = append(args, value)
			sets = append(sets, fmt.Sprintf("%s = $%d", key, len(args)))
		case "is_admin", "declaration":
			args = append(args, value == "true")
			sets = append(sets, fmt.Sprintf("%s = $%d", key, len(args)))
		default:
			extra[key] = value
		}
	}

	if len(extra) > 0 {
		details, err := json.Marshal(extra)
		if err != nil {
			return err
		}
		args = append(args, details)
		sets = append(sets, fmt.Sprintf("details = details || $%d::jsonb", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Delete removes the record. Deleting an absent id succeeds.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
