// Package auth abstracts user authentication behind a Provider so the
// handlers never talk to a specific identity backend.
package auth

import (
	"net/http"

	"github.com/rmacedo/quill/internal/model"
	"github.com/rs/zerolog"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

type Provider interface {
	// WithSession wraps a handler so downstream code can resolve the
	// signed-in user from the request.
	WithSession() func(http.Handler) http.Handler

	// UserIDFromSession returns the signed-in user's id, or an error when
	// the request carries no valid session.
	UserIDFromSession(r *http.Request) (model.UserID, error)

	// HandleWebhookUser processes user lifecycle events pushed by the
	// identity backend.
	HandleWebhookUser(w http.ResponseWriter, r *http.Request)
}
