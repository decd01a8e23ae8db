package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/regdesk/portalserver/internal/session"
)

type contextKey string

const contextSessionKey contextKey = "session"

// sessionState is the resolved session and its id, as placed in the
// request context by WithSession.
type sessionState struct {
	ID      string
	Session session.Session
}

// WithSession resolves the session named by the request cookie,
// creating one when the cookie is missing, forged, or expired, and
// re-issues the cookie whenever the id changes.
func WithSession(store session.Store, codec *session.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cookie, err := r.Cookie(session.CookieName); err == nil {
				// An undecodable cookie resolves to a fresh session.
				id, _ = codec.Decode(cookie.Value)
			}

			sess, resolvedID := store.Resolve(id)
			if resolvedID != id {
				value, err := codec.Encode(resolvedID)
				if err != nil {
					log.Printf("session: encode cookie: %v", err)
					writeText(w, http.StatusInternalServerError, "Error resolving session")
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieName,
					Value:    value,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), contextSessionKey, sessionState{
				ID:      resolvedID,
				Session: sess,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) sessionState {
	if state, ok := ctx.Value(contextSessionKey).(sessionState); ok {
		return state
	}
	return sessionState{}
}

// RequireAuth redirects unauthenticated requests to the login portal.
// It never mutates session state.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := sessionFromContext(r.Context())
		if !state.Session.Authenticated {
			redirect(w, r, "/")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin redirects requests that are not authenticated admin
// sessions to the admin login page.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := sessionFromContext(r.Context())
		if !state.Session.Authenticated || !state.Session.IsAdmin {
			redirect(w, r, "/adminlogin")
			return
		}
		next.ServeHTTP(w, r)
	})
}
