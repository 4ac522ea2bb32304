package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dsatrack/internal/common"
	"dsatrack/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	UpdateProfile(ctx context.Context, id, fullName string, leetcodeUsername, gfgUsername *string) error
	UpdateProfilePhoto(ctx context.Context, id, photoURL string) error
	Delete(ctx context.Context, id string) error

	StoreRefreshToken(ctx context.Context, token *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, userID, token string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, username, hashed_password, role, full_name, leetcode_username, geeksforgeeks_username, profile_photo, created_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, hashed_password, role, full_name, leetcode_username, geeksforgeeks_username)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.HashedPassword, user.Role, user.FullName, user.LeetCodeUsername, user.GFGUsername)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *pgUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.HashedPassword, &user.Role, &user.FullName,
		&user.LeetCodeUsername, &user.GFGUsername, &user.ProfilePhoto, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.findOne: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY username ASC`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.ListByRole query: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.HashedPassword, &u.Role, &u.FullName,
			&u.LeetCodeUsername, &u.GFGUsername, &u.ProfilePhoto, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgUserRepository.ListByRole scan: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.ListByRole rows.Err: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) UpdateProfile(ctx context.Context, id, fullName string, leetcodeUsername, gfgUsername *string) error {
	query := `UPDATE users SET full_name = $1, leetcode_username = $2, geeksforgeeks_username = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, fullName, leetcodeUsername, gfgUsername, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateProfile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) UpdateProfilePhoto(ctx context.Context, id, photoURL string) error {
	query := `UPDATE users SET profile_photo = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, photoURL, id); err != nil {
		return fmt.Errorf("pgUserRepository.UpdateProfilePhoto: %w", err)
	}
	return nil
}

// Delete removes the user and everything hanging off them. Progress,
// tokens and bookmarks go first to satisfy foreign keys.
func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete begin: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM user_progress WHERE user_id = $1`,
		`DELETE FROM user_tokens WHERE user_id = $1`,
		`DELETE FROM user_bookmarks WHERE user_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("pgUserRepository.Delete cascade: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return tx.Commit()
}

func (r *pgUserRepository) StoreRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	query := `INSERT INTO user_tokens (user_id, refresh_token, expires_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (user_id) DO UPDATE SET refresh_token = EXCLUDED.refresh_token, expires_at = EXCLUDED.expires_at`
	if _, err := r.db.ExecContext(ctx, query, token.UserID, token.Token, token.ExpiresAt); err != nil {
		return fmt.Errorf("pgUserRepository.StoreRefreshToken: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindRefreshToken(ctx context.Context, userID, token string) (*model.RefreshToken, error) {
	query := `SELECT user_id, refresh_token, expires_at FROM user_tokens WHERE user_id = $1 AND refresh_token = $2`
	rt := &model.RefreshToken{}
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&rt.UserID, &rt.Token, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindRefreshToken: %w", err)
	}
	rt.ExpiresAt = expiresAt
	return rt, nil
}

func (r *pgUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE refresh_token = $1`, token); err != nil {
		return fmt.Errorf("pgUserRepository.DeleteRefreshToken: %w", err)
	}
	return nil
}
