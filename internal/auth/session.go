package auth

import (
	"fmt"
	"sync"
	"time"

	"lockerbox-backend/internal/common"
	"lockerbox-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionManager lida com a lógica de sessões: emite o cookie assinado (JWT
// cuja claim 'sid' aponta para o registro de sessão no servidor) e mantém o
// registro das sessões ativas. Como o registro vive no servidor, o logout
// invalida o cookie imediatamente, mesmo antes do 'exp'.
type SessionManager struct {
	jwtSecret []byte
	ttl       time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
}

// NewSessionManager cria um novo gerenciador de sessões
func NewSessionManager(secret string, ttl time.Duration) (*SessionManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("segredo de sessão não pode ser vazio")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("TTL de sessão deve ser positivo")
	}
	return &SessionManager{
		jwtSecret: []byte(secret),
		ttl:       ttl,
		sessions:  make(map[uuid.UUID]*models.Session),
	}, nil
}

// Create registra uma nova sessão para o usuário e retorna o token assinado
// que vai no cookie
func (m *SessionManager) Create(user *models.User) (string, error) {
	now := time.Now()
	sess := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	claims := jwt.MapClaims{
		"sid": sess.ID.String(),
		"sub": fmt.Sprintf("%d", user.ID),
		"iat": now.Unix(),
		"exp": sess.ExpiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("falha ao assinar token de sessão: %w", err)
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	return signed, nil
}

// Validate verifica o token do cookie e retorna a sessão viva correspondente.
// Token inválido, sessão destruída ou expirada resultam em ErrUnauthenticated.
func (m *SessionManager) Validate(tokenString string) (*models.Session, error) {
	sid, err := m.parseSessionID(tokenString)
	if err != nil {
		return nil, common.ErrUnauthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sid]
	if !ok {
		return nil, common.ErrUnauthenticated
	}
	if time.Now().After(sess.ExpiresAt) {
		// Poda preguiçosa: sessões expiradas somem no primeiro lookup
		delete(m.sessions, sid)
		return nil, common.ErrUnauthenticated
	}
	return sess, nil
}

// Destroy remove a sessão do registro (logout)
func (m *SessionManager) Destroy(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// parseSessionID valida a assinatura do token e extrai a claim 'sid'
func (m *SessionManager) parseSessionID(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Verifica o método de assinatura
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("falha ao parsear token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("token inválido")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("não foi possível ler claims do token")
	}

	raw, ok := claims["sid"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("claim 'sid' ausente no token")
	}

	sid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("'sid' do token não é um UUID válido: %w", err)
	}
	return sid, nil
}
