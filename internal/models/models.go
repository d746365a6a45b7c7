package models

import (
	"time"

	"github.com/google/uuid"
)

// User representa um usuário registrado no sistema
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Nunca expor em JSON
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity é o principal autenticado de uma requisição.
// Resolvida a partir da sessão no início da requisição; somente leitura depois disso.
type Identity struct {
	UserID   int64
	Username string
}

// Session é o registro efêmero de uma sessão ativa, mantido apenas no lado
// do servidor. Criada no login, destruída no logout ou por expiração.
type Session struct {
	ID        uuid.UUID
	UserID    int64
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Identity retorna a identidade associada à sessão
func (s *Session) Identity() Identity {
	return Identity{UserID: s.UserID, Username: s.Username}
}

// FileInfo representa os metadados de um arquivo no cofre de um usuário
// (somente o que o próprio filesystem fornece)
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}
