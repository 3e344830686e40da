package postgres

import (
	"context"
	"database/sql"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/repository"
)

type userRepo struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (id, username, role, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.Role, user.PasswordHash, user.CreatedAt)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, username, role, password_hash, created_at, last_login_at FROM users WHERE id = $1`
	user := &entity.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username, &user.Role, &user.PasswordHash, &user.CreatedAt, &user.LastLoginAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `SELECT id, username, role, password_hash, created_at, last_login_at FROM users WHERE username = $1`
	user := &entity.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.Role, &user.PasswordHash, &user.CreatedAt, &user.LastLoginAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return err
}
