// Package common define os erros sentinela compartilhados entre as camadas
// de serviço, repositório e API. Os handlers usam errors.Is para mapear cada
// falha em uma mensagem e um redirect.
package common

import "errors"

var (
	// ErrInvalidInput indica campos de cadastro fora das regras
	// (usuário < 4 caracteres, senha < 6, ou nome de armazenamento inválido)
	ErrInvalidInput = errors.New("dados de cadastro inválidos")

	// ErrDuplicateUsername indica violação da unicidade de username
	ErrDuplicateUsername = errors.New("nome de usuário já existe")

	// ErrInvalidCredentials cobre tanto "usuário inexistente" quanto "senha
	// errada" — nunca distinguir os dois para o chamador
	ErrInvalidCredentials = errors.New("credenciais inválidas")

	// ErrUserNotFound é interno à camada de repositório; os serviços o
	// traduzem antes de expor qualquer coisa ao cliente
	ErrUserNotFound = errors.New("usuário não encontrado")

	// ErrUnauthenticated indica requisição sem sessão válida em rota protegida
	ErrUnauthenticated = errors.New("sessão ausente ou expirada")

	// Falhas de validação de upload
	ErrNoFileProvided      = errors.New("nenhum arquivo na requisição")
	ErrEmptyFilename       = errors.New("nome de arquivo vazio")
	ErrDisallowedExtension = errors.New("extensão de arquivo não permitida")
	ErrTooLarge            = errors.New("arquivo excede o tamanho máximo")

	// ErrFileNotFound indica download de arquivo inexistente no cofre do usuário
	ErrFileNotFound = errors.New("arquivo não encontrado")
)
