package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lockerbox-backend/internal/common"
	"lockerbox-backend/internal/models"
	"lockerbox-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// Regras de cadastro
const (
	MinUsernameLen = 4
	MinPasswordLen = 6
)

// AccountService lida com a lógica de negócios de contas de usuário
type AccountService struct {
	store repository.UserStore
}

// NewAccountService cria um novo serviço de contas
func NewAccountService(store repository.UserStore) *AccountService {
	return &AccountService{store: store}
}

// Register cria um novo usuário. A senha nunca é armazenada em texto plano.
// A unicidade de username é responsabilidade do store (constraint UNIQUE),
// que devolve ErrDuplicateUsername em caso de corrida entre dois cadastros.
func (s *AccountService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLen || len(password) < MinPasswordLen {
		return nil, common.ErrInvalidInput
	}

	// O diretório do usuário é nomeado pela forma sanitizada do username.
	// Dois usernames distintos que sanitizam para o mesmo nome compartilhariam
	// um diretório — rejeitamos o segundo no cadastro.
	dirName := SanitizeName(username)
	if dirName == "" {
		return nil, common.ErrInvalidInput
	}
	existing, err := s.store.GetAllUsers(ctx)
	if err != nil {
		log.Printf("Erro ao listar usuários para checagem de colisão: %v", err)
		return nil, fmt.Errorf("erro interno ao validar nome de usuário")
	}
	for _, u := range existing {
		if u.Username != username && SanitizeName(u.Username) == dirName {
			return nil, common.ErrInvalidInput
		}
	}

	// Gerar hash da senha (bcrypt: salted e lento por construção)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Erro ao gerar hash bcrypt: %v", err)
		return nil, fmt.Errorf("erro interno ao processar senha")
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, common.ErrDuplicateUsername
		}
		log.Printf("Erro ao salvar usuário no store: %v", err)
		return nil, fmt.Errorf("erro interno ao salvar usuário")
	}

	return user, nil
}

// Authenticate verifica as credenciais e retorna o usuário correspondente.
// "Usuário inexistente" e "senha errada" produzem exatamente o mesmo erro,
// para não permitir enumeração de usuários.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		log.Printf("Erro ao buscar usuário no store: %v", err)
		return nil, fmt.Errorf("erro interno ao autenticar")
	}

	// bcrypt compara em tempo constante
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByID busca um usuário pelo ID
func (s *AccountService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, common.ErrUserNotFound
	}
	return user, nil
}
