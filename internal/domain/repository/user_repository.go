package repository

import (
	"context"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
)

// UserRepository gère les comptes autorité (statuts, modération).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}
