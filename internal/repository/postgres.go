package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lockerbox-backend/internal/common"
	"lockerbox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore é a implementação da interface Store para o PostgreSQL
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore cria uma nova instância do PostgresStore e pool de conexões
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("não foi possível criar pool de conexão: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("não foi possível pingar o banco de dados: %w", err)
	}

	log.Println("Pool de conexão com PostgreSQL estabelecido.")
	return &PostgresStore{db: pool}, nil
}

// Close fecha o pool de conexões
func (s *PostgresStore) Close() {
	s.db.Close()
}

// RunMigrations executa o script SQL de migração
func (s *PostgresStore) RunMigrations(ctx context.Context, migrationSQL string) error {
	_, err := s.db.Exec(ctx, migrationSQL)
	if err != nil {
		return fmt.Errorf("falha ao executar migração: %w", err)
	}
	return nil
}

// CreateUser insere um novo usuário. A unicidade de username é garantida pela
// constraint UNIQUE da tabela, nunca por check-then-insert — inserções
// simultâneas do mesmo nome resultam em ErrDuplicateUsername, não em
// corrupção de estado.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	sql := `
        INSERT INTO users (username, password_hash, created_at)
        VALUES ($1, $2, $3)
        RETURNING id`

	err := s.db.QueryRow(ctx, sql,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID)

	if err != nil {
		// Verifica se é um erro de violação de constraint (usuário duplicado)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // 23505 = unique_violation
			return common.ErrDuplicateUsername
		}
		return fmt.Errorf("falha ao criar usuário: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	sql := `
        SELECT id, username, password_hash, created_at
        FROM users
        WHERE username = $1`

	user := &models.User{}
	err := s.db.QueryRow(ctx, sql, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("falha ao buscar usuário por nome: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	sql := `
        SELECT id, username, password_hash, created_at
        FROM users
        WHERE id = $1`

	user := &models.User{}
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("falha ao buscar usuário por ID: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	sql := `
        SELECT id, username, password_hash, created_at
        FROM users
        ORDER BY username`

	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar todos os usuários: %w", err)
	}
	defer rows.Close()

	// Inicializa como slice vazio, não nil, para consistência
	users := []*models.User{}

	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("falha ao escanear linha de usuário: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os usuários: %w", err)
	}

	return users, nil
}
