package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rmacedo/quill/internal/config"
	"github.com/rmacedo/quill/internal/db"
	"github.com/rmacedo/quill/internal/model"
	"github.com/rmacedo/quill/internal/routes"
)

// MinCookieSecretLength is the minimum secret size accepted for signing
// session cookies and access tokens.
const MinCookieSecretLength = 32

const sessionUserKey = "user_id"

// CookieProvider is a self-contained Provider for deployments without an
// external identity backend. Users sign in with an access token derived
// from the server secret; sessions are kept in a signed cookie.
type CookieProvider struct {
	db     db.DB
	store  *sessions.CookieStore
	secret []byte
}

func NewCookieProvider(secret string, db db.DB) (*CookieProvider, error) {
	if len(secret) < MinCookieSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinCookieSecretLength)
	}

	return &CookieProvider{
		db:     db,
		store:  sessions.NewCookieStore([]byte(secret)),
		secret: []byte(secret),
	}, nil
}

// Token derives the access token for a user id. The adduser tool calls this
// with the same secret so the token it prints matches what login expects.
func Token(secret string, userID model.UserID) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *CookieProvider) WithSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := c.store.Get(r, config.CookieSession)
			if err == nil {
				if id, ok := session.Values[sessionUserKey].(string); ok && id != "" {
					r = r.WithContext(ContextWithUserID(r.Context(), model.UserID(id)))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c *CookieProvider) UserIDFromSession(r *http.Request) (model.UserID, error) {
	if id, ok := UserIDFromContext(r.Context()); ok {
		return id, nil
	}

	session, err := c.store.Get(r, config.CookieSession)
	if err != nil {
		return "", err
	}
	id, ok := session.Values[sessionUserKey].(string)
	if !ok || id == "" {
		return "", errors.New("no user in session")
	}
	return model.UserID(id), nil
}

// HandleWebhookUser is not supported: users are managed locally with the
// adduser tool.
func (c *CookieProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

// HandleLogin verifies the submitted user id and token and opens a session.
func (c *CookieProvider) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	userID := model.UserID(r.PostFormValue("user"))
	token := r.PostFormValue("token")

	if userID == "" || !hmac.Equal([]byte(token), []byte(Token(string(c.secret), userID))) {
		authLogger.Warn().Str("user", string(userID)).Msg("Login rejected")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if !c.userExists(r, userID) {
		authLogger.Warn().Str("user", string(userID)).Msg("Login for unknown user")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	session, _ := c.store.Get(r, config.CookieSession)
	session.Values[sessionUserKey] = string(userID)
	if err := session.Save(r, w); err != nil {
		authLogger.Error().Err(err).Msg("Error saving session")
		http.Error(w, "Error saving session", http.StatusInternalServerError)
		return
	}

	authLogger.Info().Str("user", string(userID)).Msg("User signed in")
	http.Redirect(w, r, routes.RootPath, http.StatusSeeOther)
}

// HandleLogout drops the session.
func (c *CookieProvider) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := c.store.Get(r, config.CookieSession)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		authLogger.Error().Err(err).Msg("Error clearing session")
	}
	http.Redirect(w, r, routes.RootPath, http.StatusSeeOther)
}

func (c *CookieProvider) userExists(r *http.Request, userID model.UserID) bool {
	rows, err := c.db.Query(r.Context(), `SELECT id FROM users WHERE id = ?`, userID)
	if err != nil {
		authLogger.Error().Err(err).Msg("Error querying user")
		return false
	}
	defer rows.Close()
	return rows.Next()
}
