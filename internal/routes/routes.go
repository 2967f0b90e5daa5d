// Package routes defines the application's URL space. The mutation service
// uses these to name the views it invalidates; main uses them to register
// handlers.
package routes

const (
	RootPath    = "/"
	ProfilePath = "/profile"

	PostPrefix = "/post/"

	NewPost  = "/new/post"
	EditPost = "/edit/post/"

	CreatePostAPI = "/api/posts"
	PostAPI       = "/api/posts/{id}"

	SSEPath = "/sse"

	WebhookUser = "/webhook/user"

	AuthLogin  = "/auth/login"
	AuthLogout = "/auth/logout"

	RobotsPath = "/robots.txt"
)

// Post returns the public detail path for a slug.
func Post(slug string) string {
	return PostPrefix + slug
}
