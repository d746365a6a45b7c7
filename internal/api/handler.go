package api

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"lockerbox-backend/internal/auth"
	"lockerbox-backend/internal/common"
	"lockerbox-backend/internal/models"
	"lockerbox-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler gerencia as dependências para os handlers HTTP
type Handler struct {
	accounts       *service.AccountService
	locker         *service.LockerService
	sessions       *auth.SessionManager
	validate       *validator.Validate
	tmpl           *template.Template
	sessionTTL     time.Duration
	frontendOrigin string
}

// NewHandler cria uma nova instância do Handler
func NewHandler(
	accounts *service.AccountService,
	locker *service.LockerService,
	sessions *auth.SessionManager,
	sessionTTL time.Duration,
	frontendOrigin string,
) *Handler {
	return &Handler{
		accounts:       accounts,
		locker:         locker,
		sessions:       sessions,
		validate:       validator.New(),
		tmpl:           template.Must(template.ParseFS(templateFS, "templates/*.html")),
		sessionTTL:     sessionTTL,
		frontendOrigin: frontendOrigin,
	}
}

// === Funções Auxiliares ===

type pageData struct {
	Username string
	Files    []models.FileInfo
	Flash    *flashMessage
}

func (h *Handler) renderPage(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Erro ao renderizar template %s: %v", name, err)
		http.Error(w, "erro interno", http.StatusInternalServerError)
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// === Handlers Públicos ===

// handleIndex (GET /) — manda para o dashboard se houver sessão, senão para o login
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.sessions.Validate(cookie.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleRegisterPage (GET /register)
func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, "register.html", pageData{Flash: popFlash(w, r)})
}

// handleRegister (POST /register)
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setFlash(w, flashError, "Formulário inválido.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	req := struct {
		Username string `validate:"required,min=4"`
		Password string `validate:"required,min=6"`
	}{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}

	if err := h.validate.Struct(req); err != nil {
		setFlash(w, flashError, "Usuário deve ter no mínimo 4 caracteres e senha no mínimo 6.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	_, err := h.accounts.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		setFlash(w, flashSuccess, "Cadastro realizado! Faça login.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, common.ErrDuplicateUsername):
		setFlash(w, flashError, "Nome de usuário já existe.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	case errors.Is(err, common.ErrInvalidInput):
		setFlash(w, flashError, "Nome de usuário indisponível ou inválido.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	default:
		log.Printf("Erro inesperado no cadastro: %v", err)
		setFlash(w, flashError, "Erro interno. Tente novamente.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	}
}

// handleLoginPage (GET /login)
func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, "login.html", pageData{Flash: popFlash(w, r)})
}

// handleLogin (POST /login)
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setFlash(w, flashError, "Formulário inválido.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	req := struct {
		Username string `validate:"required"`
		Password string `validate:"required"`
	}{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}

	if err := h.validate.Struct(req); err != nil {
		setFlash(w, flashError, "Informe usuário e senha.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// Mesma resposta para usuário inexistente e senha errada
		setFlash(w, flashError, "Credenciais inválidas.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	token, err := h.sessions.Create(user)
	if err != nil {
		log.Printf("Erro ao criar sessão: %v", err)
		setFlash(w, flashError, "Erro interno. Tente novamente.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, token)
	setFlash(w, flashSuccess, "Login realizado.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// === Handlers Protegidos ===

// handleLogout (POST /logout)
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := sessionFromContext(r.Context()); ok {
		h.sessions.Destroy(sess.ID)
	}
	h.clearSessionCookie(w)
	setFlash(w, flashSuccess, "Você saiu.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleDashboard (GET /dashboard) — lista os arquivos do usuário da sessão
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.redirectToLogin(w, r)
		return
	}

	files, err := h.locker.ListFiles(sess.Identity())
	if err != nil {
		log.Printf("Erro ao listar arquivos de %s: %v", sess.Username, err)
		http.Error(w, "erro interno", http.StatusInternalServerError)
		return
	}

	h.renderPage(w, "dashboard.html", pageData{
		Username: sess.Username,
		Files:    files,
		Flash:    popFlash(w, r),
	})
}

// handleUpload (POST /dashboard) — recebe um arquivo multipart
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.redirectToLogin(w, r)
		return
	}

	// Teto global imposto antes de qualquer parsing: uma requisição acima do
	// limite é cortada durante o streaming, sem bufferizar o corpo inteiro
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || r.ContentLength > service.MaxUploadSize {
			setFlash(w, flashError, "Arquivo muito grande. O tamanho máximo é 16 MB.")
		} else {
			setFlash(w, flashError, "Nenhum arquivo na requisição.")
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	defer file.Close()

	name, err := h.locker.SaveFile(sess.Identity(), header.Filename, file, header.Size)
	switch {
	case err == nil:
		setFlash(w, flashSuccess, "Upload concluído: "+name)
	case errors.Is(err, common.ErrEmptyFilename):
		setFlash(w, flashError, "Você não selecionou um arquivo.")
	case errors.Is(err, common.ErrDisallowedExtension):
		setFlash(w, flashError, "Extensão de arquivo não permitida.")
	case errors.Is(err, common.ErrTooLarge):
		setFlash(w, flashError, "Arquivo muito grande. O tamanho máximo é 16 MB.")
	default:
		log.Printf("Erro inesperado no upload de %s: %v", sess.Username, err)
		setFlash(w, flashError, "Erro interno ao gravar o arquivo.")
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleDownload (GET /download/{filename}) — só enxerga o diretório do
// usuário da sessão; qualquer tentativa de path traversal cai em NotFound
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.redirectToLogin(w, r)
		return
	}

	rawName := chi.URLParam(r, "filename")

	f, info, err := h.locker.FetchFile(sess.Identity(), rawName)
	if err != nil {
		if errors.Is(err, common.ErrFileNotFound) {
			setFlash(w, flashError, "Arquivo não encontrado.")
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		log.Printf("Erro inesperado no download de %s: %v", sess.Username, err)
		http.Error(w, "erro interno", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	http.ServeContent(w, r, info.Name, info.ModTime, f)
}
