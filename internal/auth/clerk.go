package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/rmacedo/quill/internal/db"
	"github.com/rmacedo/quill/internal/model"
)

// ClerkProvider delegates session verification to Clerk and mirrors user
// lifecycle events into the local users table via webhooks.
type ClerkProvider struct {
	db db.DB

	cookieExtractor clerkhttp.AuthorizationOption
}

func NewClerkProvider(clerkKey string, db db.DB) *ClerkProvider {
	clerk.SetKey(clerkKey)

	return &ClerkProvider{
		db: db,
		cookieExtractor: clerkhttp.AuthorizationJWTExtractor(func(r *http.Request) string {
			cookie, err := r.Cookie("__session")
			if err != nil || cookie == nil {
				return ""
			}
			return cookie.Value
		}),
	}
}

func (c *ClerkProvider) WithSession() func(http.Handler) http.Handler {
	return clerkhttp.WithHeaderAuthorization(c.cookieExtractor)
}

func (c *ClerkProvider) UserIDFromSession(r *http.Request) (model.UserID, error) {
	claims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok {
		return "", errors.New("no session claims in context")
	}

	usr, err := clerkuser.Get(r.Context(), claims.Subject)
	if err != nil {
		return "", err
	}

	return model.UserID(usr.ID), nil
}

func (c *ClerkProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	type EventPayload struct {
		Data struct {
			clerk.User
		} `json:"data"`

		Type string `json:"type"`
	}

	var payload EventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		authLogger.Error().Err(err).Msg("Error decoding user webhook payload")
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	usr := payload.Data.User

	switch payload.Type {
	case "user.created":
		_, err := c.db.Exec(r.Context(),
			`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`,
			usr.ID, displayName(&usr), primaryEmail(&usr))
		if err != nil {
			authLogger.Error().Err(err).Str("user", usr.ID).Msg("Error inserting user")
			http.Error(w, "Error saving user", http.StatusInternalServerError)
			return
		}

		authLogger.Info().Str("user", usr.ID).Msg("User created")
		w.WriteHeader(http.StatusCreated)
	case "user.updated":
		_, err := c.db.Exec(r.Context(),
			`UPDATE users SET name = ?, email = ? WHERE id = ?`,
			displayName(&usr), primaryEmail(&usr), usr.ID)
		if err != nil {
			authLogger.Error().Err(err).Str("user", usr.ID).Msg("Error updating user")
			http.Error(w, "Error updating user", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	case "user.deleted":
		_, err := c.db.Exec(r.Context(), `DELETE FROM users WHERE id = ?`, usr.ID)
		if err != nil {
			authLogger.Error().Err(err).Str("user", usr.ID).Msg("Error deleting user")
			http.Error(w, "Error deleting user", http.StatusInternalServerError)
			return
		}

		authLogger.Info().Str("user", usr.ID).Msg("User deleted")
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Invalid event type", http.StatusBadRequest)
	}
}

func displayName(usr *clerk.User) string {
	var parts []string
	if usr.FirstName != nil && *usr.FirstName != "" {
		parts = append(parts, *usr.FirstName)
	}
	if usr.LastName != nil && *usr.LastName != "" {
		parts = append(parts, *usr.LastName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if usr.Username != nil {
		return *usr.Username
	}
	return usr.ID
}

func primaryEmail(usr *clerk.User) string {
	if len(usr.EmailAddresses) == 0 {
		return ""
	}
	return usr.EmailAddresses[0].EmailAddress
}
