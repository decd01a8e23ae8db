package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/regdesk/portalserver/internal/services"
	"github.com/regdesk/portalserver/internal/session"
	"github.com/regdesk/portalserver/internal/store"
)

// AuthHandler serves the two login flows and logout.
type AuthHandler struct {
	users    *services.UserService
	verifier services.CredentialVerifier
	sessions session.Store
	renderer Renderer
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, verifier services.CredentialVerifier, sessions session.Store, renderer Renderer) *AuthHandler {
	return &AuthHandler{
		users:    users,
		verifier: verifier,
		sessions: sessions,
		renderer: renderer,
	}
}

// Root serves the login portal, or sends authenticated clients to
// their dashboard.
func (h *AuthHandler) Root(w http.ResponseWriter, r *http.Request) {
	state := sessionFromContext(r.Context())
	if state.Session.Authenticated {
		redirect(w, r, "/user")
		return
	}
	h.render(w, ViewLogin, nil)
}

// AdminLoginPage serves the admin login form, or sends authenticated
// clients to the admin dashboard.
func (h *AuthHandler) AdminLoginPage(w http.ResponseWriter, r *http.Request) {
	state := sessionFromContext(r.Context())
	if state.Session.Authenticated {
		redirect(w, r, "/admin")
		return
	}
	h.render(w, ViewAdminLogin, nil)
}

// Login handles the regular login flow. On success the session is
// marked authenticated and the client is routed by the account's
// admin flag; the session admin flag is left untouched.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email, password, err := parseCredentials(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Invalid login request")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeText(w, http.StatusOK, "User not found")
			return
		}
		writeText(w, http.StatusInternalServerError, "Error logging in")
		return
	}
	if !h.verifier.Verify(user.Password, password) {
		writeText(w, http.StatusOK, "Incorrect password")
		return
	}

	state := sessionFromContext(r.Context())
	state.Session.Authenticated = true
	h.sessions.Put(state.ID, state.Session)

	if user.IsAdmin {
		redirect(w, r, "/admin")
	} else {
		redirect(w, r, "/user")
	}
}

// AdminLogin handles the admin login flow. It additionally copies the
// account's admin flag into the session, and bounces non-admin
// accounts back to the admin login page.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	email, password, err := parseCredentials(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Invalid login request")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeText(w, http.StatusOK, "User not found")
			return
		}
		writeText(w, http.StatusInternalServerError, "Error logging in")
		return
	}
	if !h.verifier.Verify(user.Password, password) {
		writeText(w, http.StatusOK, "Incorrect password")
		return
	}

	state := sessionFromContext(r.Context())
	state.Session.Authenticated = true
	state.Session.IsAdmin = user.IsAdmin
	h.sessions.Put(state.ID, state.Session)

	if user.IsAdmin {
		redirect(w, r, "/admin")
	} else {
		redirect(w, r, "/adminlogin")
	}
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	state := sessionFromContext(r.Context())
	if err := h.sessions.Destroy(state.ID); err != nil {
		log.Printf("logout: destroy session: %v", err)
		writeText(w, http.StatusInternalServerError, "Error destroying session")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(w, r, "/")
}

func (h *AuthHandler) render(w http.ResponseWriter, name string, data any) {
	if err := h.renderer.Render(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		writeText(w, http.StatusInternalServerError, "Error rendering page")
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// parseCredentials reads email/password from a form or JSON body.
func parseCredentials(r *http.Request) (string, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", "", err
		}
		return req.Email, req.Password, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", "", err
	}
	return r.PostFormValue("email"), r.PostFormValue("password"), nil
}
