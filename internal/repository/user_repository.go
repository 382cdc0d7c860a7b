package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/pkg/models"
	"inkwell/pkg/utils"
)

// UserRepository handles user data persistence
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error)
	Delete(ctx context.Context, id string) error

	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, role, display_name, bio, avatar_url, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	var role string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.DisplayName,
		&user.Bio,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.UserRole(role)
	return user, nil
}

// Create inserts a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = utils.GenerateID()
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, role, display_name, bio, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.DisplayName,
		user.Bio,
		user.AvatarURL,
	).Scan(&user.CreatedAt)
	if err != nil {
		err = mapDBError(err, "create_user", models.ErrUserNotFound)
		if errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("create_user: %w", models.ErrUsernameExists)
		}
		return err
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapDBError(err, "get_user_by_id", models.ErrUserNotFound)
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, mapDBError(err, "get_user_by_username", models.ErrUserNotFound)
	}
	return user, nil
}

// UsernameExists checks if a username is already taken
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, mapDBError(err, "check_username_exists", models.ErrUserNotFound)
	}
	return exists, nil
}

// UpdateRole changes a user's role
func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return mapDBError(err, "update_user_role", models.ErrUserNotFound)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update_user_role: %w", models.ErrUserNotFound)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of req
func (r *userRepository) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE($2, display_name),
			bio = COALESCE($3, bio),
			avatar_url = COALESCE($4, avatar_url)
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(r.pool.QueryRow(ctx, query, id, req.DisplayName, req.Bio, req.AvatarURL))
	if err != nil {
		return nil, mapDBError(err, "update_user_profile", models.ErrUserNotFound)
	}
	return user, nil
}

// Delete removes a user and, by cascade, their posts, comments and likes
func (r *userRepository) Delete(ctx context.Context, id string) error {
	var deletedID string
	err := r.pool.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING id`, id).Scan(&deletedID)
	if err != nil {
		return mapDBError(err, "delete_user", models.ErrUserNotFound)
	}
	return nil
}

// WithTransaction executes a function within a database transaction
func (r *userRepository) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return withTransaction(ctx, r.pool, fn)
}
