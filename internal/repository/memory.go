package repository

import (
	"context"
	"sort"
	"sync"

	"lockerbox-backend/internal/common"
	"lockerbox-backend/internal/models"
)

// InMemoryStore é uma implementação em-memória da interface Store.
// Usada nos testes e em desenvolvimento sem banco de dados.
type InMemoryStore struct {
	mu              sync.RWMutex
	nextID          int64
	usersByID       map[int64]*models.User
	usersByUsername map[string]*models.User
}

// NewInMemoryStore cria uma nova instância do store em memória
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nextID:          1,
		usersByID:       make(map[int64]*models.User),
		usersByUsername: make(map[string]*models.User),
	}
}

func (s *InMemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return common.ErrDuplicateUsername
	}

	user.ID = s.nextID
	s.nextID++

	s.usersByID[user.ID] = user
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *InMemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, common.ErrUserNotFound
	}
	return user, nil
}

func (s *InMemoryStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByID[id]
	if !exists {
		return nil, common.ErrUserNotFound
	}
	return user, nil
}

func (s *InMemoryStore) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Mesma ordenação do PostgresStore (por username)
	users := make([]*models.User, 0, len(s.usersByID))
	for _, user := range s.usersByID {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}
