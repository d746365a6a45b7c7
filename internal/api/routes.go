package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes configura e retorna o roteador Chi
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middlewares globais
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	// Permite que o frontend de desenvolvimento (outra porta) converse com o
	// backend usando o cookie de sessão
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.frontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // Tempo de cache da preflight
	}))

	// Rotas públicas
	r.Get("/", h.handleIndex)
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)

	// Rotas protegidas (exigem sessão válida)
	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)

		r.Post("/logout", h.handleLogout)
		r.Get("/dashboard", h.handleDashboard)
		r.Post("/dashboard", h.handleUpload)
		r.Get("/download/{filename}", h.handleDownload)
	})

	return r
}
