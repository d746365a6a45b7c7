package api

import (
	"net/http"
	"net/url"
	"strings"
)

// Mensagens flash sobrevivem a exatamente um redirect, via cookie de curta
// duração consumido na renderização seguinte
const flashCookieName = "lockerbox_flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

type flashMessage struct {
	Kind string
	Text string
}

func setFlash(w http.ResponseWriter, kind, text string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(kind + "|" + text),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash lê e apaga a mensagem flash pendente, se houver
func popFlash(w http.ResponseWriter, r *http.Request) *flashMessage {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	// Apaga o cookie: flash é de consumo único
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}

	kind, text, found := strings.Cut(raw, "|")
	if !found || text == "" {
		return nil
	}
	return &flashMessage{Kind: kind, Text: text}
}
