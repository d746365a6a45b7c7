package repository

import (
	"context"

	"lockerbox-backend/internal/models"
)

// UserStore define a interface para operações de usuário no DB
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

// Store é uma interface agregada para todas as operações de store
// Facilita a injeção de dependência
type Store interface {
	UserStore
}
