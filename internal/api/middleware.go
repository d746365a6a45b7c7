package api

import (
	"context"
	"net/http"

	"lockerbox-backend/internal/models"
)

// contextKey é um tipo privado para evitar colisões de chaves no contexto
type contextKey string

const sessionContextKey = contextKey("session")

// sessionCookieName é o cookie que carrega o token de sessão assinado
const sessionCookieName = "lockerbox_session"

// RequireSession é um middleware para rotas protegidas: sem sessão válida,
// a requisição é redirecionada para a página de login
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.redirectToLogin(w, r)
			return
		}

		sess, err := h.sessions.Validate(cookie.Value)
		if err != nil {
			// Cookie morto (sessão destruída ou expirada) — limpa e manda logar
			h.clearSessionCookie(w)
			h.redirectToLogin(w, r)
			return
		}

		// O usuário da sessão ainda precisa existir no store
		if _, err := h.accounts.GetUserByID(r.Context(), sess.UserID); err != nil {
			h.sessions.Destroy(sess.ID)
			h.clearSessionCookie(w)
			h.redirectToLogin(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromContext recupera a sessão injetada pelo RequireSession
func sessionFromContext(ctx context.Context) (*models.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*models.Session)
	return sess, ok && sess != nil
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	setFlash(w, flashError, "Faça login para continuar.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
