package service

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"lockerbox-backend/internal/common"
	"lockerbox-backend/internal/models"
)

// MaxUploadSize é o teto global de upload (16 MiB), válido para a plataforma
// inteira — não há limite por usuário além dele
const MaxUploadSize = 16 << 20

// allowedExtensions é a lista fixa de extensões de upload permitidas
// (comparação case-insensitive)
var allowedExtensions = map[string]bool{
	"txt": true, "pdf": true, "png": true, "jpg": true, "jpeg": true,
	"gif": true, "zip": true, "docx": true, "xlsx": true, "csv": true,
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeName reduz um nome fornecido pelo cliente a uma forma segura para
// o filesystem: remove componentes de diretório, espaços nas pontas e
// caracteres fora de [A-Za-z0-9_.-]. Retorna "" quando não sobra nada útil.
// Dois nomes distintos podem sanitizar para o mesmo resultado; para arquivos
// isso vira last-write-wins, para usernames o cadastro rejeita a colisão.
func SanitizeName(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "\\", "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}
	raw = strings.ReplaceAll(raw, " ", "_")
	raw = unsafeNameChars.ReplaceAllString(raw, "")
	// Sem prefixo de ponto: elimina "." / ".." e arquivos ocultos
	raw = strings.TrimLeft(raw, ".")
	return raw
}

// LockerStorage abstrai o armazenamento de arquivos por diretório de usuário.
// A implementação padrão grava em disco; um object store poderia substituí-la
// sem tocar nos handlers nem no AccountService.
type LockerStorage interface {
	// List retorna os arquivos do diretório (criando-o se necessário)
	List(dir string) ([]models.FileInfo, error)
	// Save grava o conteúdo sob o nome dado, sobrescrevendo se já existir.
	// Conteúdo acima de limit bytes resulta em ErrTooLarge sem arquivo parcial.
	Save(dir, name string, content io.Reader, limit int64) (int64, error)
	// Open abre o arquivo para leitura; ErrFileNotFound se não existir
	Open(dir, name string) (io.ReadSeekCloser, *models.FileInfo, error)
}

// DiskLocker implementa LockerStorage sobre um diretório raiz local
// (uploads/<usuário-sanitizado>/<arquivo-sanitizado>)
type DiskLocker struct {
	root string
}

// NewDiskLocker cria o locker em disco, garantindo que a raiz exista
func NewDiskLocker(root string) (*DiskLocker, error) {
	if err := os.MkdirAll(root, 0o770); err != nil {
		return nil, fmt.Errorf("falha ao criar diretório de uploads %s: %w", root, err)
	}
	return &DiskLocker{root: root}, nil
}

// Root retorna o diretório raiz do locker
func (d *DiskLocker) Root() string {
	return d.root
}

// ensureDir cria o diretório do usuário de forma preguiçosa (primeiro acesso)
func (d *DiskLocker) ensureDir(dir string) (string, error) {
	full := filepath.Join(d.root, dir)
	if err := os.MkdirAll(full, 0o770); err != nil {
		return "", fmt.Errorf("falha ao criar diretório do usuário: %w", err)
	}
	return full, nil
}

func (d *DiskLocker) List(dir string) ([]models.FileInfo, error) {
	full, err := d.ensureDir(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar diretório do usuário: %w", err)
	}

	files := []models.FileInfo{}
	for _, entry := range entries {
		// Ignora subdiretórios e temporários de upload em andamento
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.FileInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (d *DiskLocker) Save(dir, name string, content io.Reader, limit int64) (int64, error) {
	full, err := d.ensureDir(dir)
	if err != nil {
		return 0, err
	}

	// Grava em um temporário no mesmo diretório e renomeia no final:
	// uploads abortados ou acima do limite nunca deixam arquivo parcial,
	// e a sobrescrita de um nome existente é atômica (last-write-wins)
	tmp, err := os.CreateTemp(full, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("falha ao criar arquivo temporário: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, io.LimitReader(content, limit+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("falha ao gravar conteúdo: %w", err)
	}
	if written > limit {
		os.Remove(tmpName)
		return 0, common.ErrTooLarge
	}

	target := filepath.Join(full, name)
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("falha ao mover arquivo para destino: %w", err)
	}
	return written, nil
}

func (d *DiskLocker) Open(dir, name string) (io.ReadSeekCloser, *models.FileInfo, error) {
	full, err := d.ensureDir(dir)
	if err != nil {
		return nil, nil, err
	}

	target := filepath.Join(full, name)
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, common.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("falha ao abrir arquivo: %w", err)
	}

	stat, err := f.Stat()
	if err != nil || !stat.Mode().IsRegular() {
		f.Close()
		return nil, nil, common.ErrFileNotFound
	}

	info := &models.FileInfo{Name: name, Size: stat.Size(), ModTime: stat.ModTime()}
	return f, info, nil
}

// LockerService lida com a lógica de negócios da área de arquivos por
// usuário: sanitização, allow-list de extensões, teto de tamanho e o
// particionamento por identidade. Toda operação é escopada à identidade
// da sessão corrente — um arquivo de um usuário nunca é visível pela
// sessão de outro.
type LockerService struct {
	storage LockerStorage
}

// NewLockerService cria um novo serviço de locker
func NewLockerService(storage LockerStorage) *LockerService {
	return &LockerService{storage: storage}
}

// dirFor resolve o diretório de armazenamento da identidade
func (s *LockerService) dirFor(identity models.Identity) (string, error) {
	dir := SanitizeName(identity.Username)
	if dir == "" {
		// Não deve acontecer: o cadastro rejeita usernames que sanitizam vazio
		return "", fmt.Errorf("identidade sem nome de armazenamento válido")
	}
	return dir, nil
}

// ListFiles retorna os arquivos do usuário em ordem lexicográfica.
// Usuário novo (diretório ainda inexistente) recebe lista vazia.
func (s *LockerService) ListFiles(identity models.Identity) ([]models.FileInfo, error) {
	dir, err := s.dirFor(identity)
	if err != nil {
		return nil, err
	}
	return s.storage.List(dir)
}

// SaveFile valida e grava um upload no diretório da identidade.
// declaredSize é o tamanho anunciado pelo cliente (<= 0 quando desconhecido);
// o teto real é imposto durante o streaming, nunca confiando só no anúncio.
func (s *LockerService) SaveFile(identity models.Identity, rawName string, content io.Reader, declaredSize int64) (string, error) {
	dir, err := s.dirFor(identity)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(rawName) == "" {
		return "", common.ErrEmptyFilename
	}

	name := SanitizeName(rawName)
	if name == "" {
		return "", common.ErrEmptyFilename
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" || !allowedExtensions[ext] {
		return "", common.ErrDisallowedExtension
	}

	if declaredSize > MaxUploadSize {
		return "", common.ErrTooLarge
	}

	written, err := s.storage.Save(dir, name, content, MaxUploadSize)
	if err != nil {
		if errors.Is(err, common.ErrTooLarge) {
			return "", common.ErrTooLarge
		}
		log.Printf("Erro ao gravar upload de %s: %v", identity.Username, err)
		return "", fmt.Errorf("erro interno ao gravar arquivo")
	}

	log.Printf("Upload gravado: usuário=%s arquivo=%s bytes=%d", identity.Username, name, written)
	return name, nil
}

// FetchFile abre um arquivo do próprio diretório da identidade para leitura.
// O nome passa pela mesma sanitização do SaveFile — um nome com segmentos de
// path-traversal nunca alcança nada fora do diretório do usuário.
func (s *LockerService) FetchFile(identity models.Identity, rawName string) (io.ReadSeekCloser, *models.FileInfo, error) {
	dir, err := s.dirFor(identity)
	if err != nil {
		return nil, nil, err
	}

	name := SanitizeName(rawName)
	if name == "" {
		return nil, nil, common.ErrFileNotFound
	}

	return s.storage.Open(dir, name)
}
