package main

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/rmacedo/quill/internal/archive"
	"github.com/rmacedo/quill/internal/auth"
	"github.com/rmacedo/quill/internal/cache"
	"github.com/rmacedo/quill/internal/config"
	"github.com/rmacedo/quill/internal/db"
	"github.com/rmacedo/quill/internal/logger"
	"github.com/rmacedo/quill/internal/model"
	"github.com/rmacedo/quill/internal/posts"
	"github.com/rmacedo/quill/internal/render"
	"github.com/rmacedo/quill/internal/repository"
	"github.com/rmacedo/quill/internal/routes"
	"github.com/rmacedo/quill/internal/sse"
	"github.com/rmacedo/quill/internal/util"
	"github.com/rmacedo/quill/internal/util/compression"
)

//go:embed static/* templates/*
var content embed.FS

var l zerolog.Logger

var database db.DB
var postReader repository.PostReader
var postService *posts.Service
var authProvider auth.Provider

var clients = sse.NewClients()

// viewInvalidator drops the cached view for a path and tells watching
// browsers to refresh.
type viewInvalidator struct {
	clients *sse.Clients
}

func (v *viewInvalidator) Invalidate(path string) {
	cache.InvalidateView(path)
	go v.clients.Broadcast(path, "refresh")
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	l = logger.New(config.AppConfig.Logging.Level)
	setLoggers(l)

	database = newDatabase()
	if err := database.InitDB(); err != nil {
		l.Fatal().Err(err).Msg("Error initializing database")
	}
	defer database.Close()

	compressor := compression.ForName(config.AppConfig.Content.Compression)
	repo := repository.NewDBPostRepository(database, compressor)
	postReader = repo

	postService = posts.NewService(repo, &viewInvalidator{clients: clients}, newArchiver())

	authProvider = newAuthProvider()

	mux := newMux()

	securedMux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == routes.RobotsPath {
			mux.ServeHTTP(w, r)
		} else {
			secureHeaders(mux.ServeHTTP)(w, r)
		}
	})

	handler := authProvider.WithSession()(cacheIt(securedMux))

	addr := config.AppConfig.Server.Host + ":" + config.AppConfig.Server.Port
	l.Info().Str("addr", addr).Msg("Server listening")
	l.Fatal().Err(http.ListenAndServe(addr, handler)).Msg("Server stopped")
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l)
	db.SetLogger(l)
	repository.SetLogger(l)
	posts.SetLogger(l)
	auth.SetLogger(l)
	render.SetLogger(l)
	archive.SetLogger(l)
}

func newDatabase() db.DB {
	switch config.AppConfig.Database.Driver {
	case "postgres":
		url := os.Getenv("DATABASE_URL")
		if url == "" {
			url = config.AppConfig.Database.URL
		}
		return db.NewPostgres(url)
	default:
		return db.NewSQLite(config.AppConfig.Database.Path)
	}
}

func newArchiver() posts.Archiver {
	cfg := config.AppConfig.Archive
	switch cfg.Backend {
	case "fs":
		a, err := archive.NewFSArchiver(cfg.Path)
		if err != nil {
			l.Fatal().Err(err).Msg("Error initializing archive directory")
		}
		return a
	case "s3":
		a, err := archive.NewS3Archiver(
			os.Getenv("S3_ACCESS_KEY_ID"),
			os.Getenv("S3_ACCESS_KEY_SECRET"),
			cfg.Endpoint,
			cfg.Bucket,
		)
		if err != nil {
			l.Fatal().Err(err).Msg("Error initializing S3 archiver")
		}
		return a
	default:
		return nil
	}
}

func newAuthProvider() auth.Provider {
	switch config.AppConfig.Auth.Provider {
	case "cookie":
		provider, err := auth.NewCookieProvider(os.Getenv("SESSION_SECRET"), database)
		if err != nil {
			l.Fatal().Err(err).Msg("Error initializing cookie auth")
		}
		return provider
	default:
		return auth.NewClerkProvider(os.Getenv("CLERK_API"), database)
	}
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc(routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.Write([]byte("User-agent: *\nDisallow:"))
	})

	static, _ := fs.Sub(content, config.StaticLocalDir)
	mux.Handle(config.StaticUrlPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(static))))

	mux.HandleFunc("GET "+routes.RootPath+"{$}", serveIndex)
	mux.HandleFunc("GET "+routes.PostPrefix+"{slug}", servePost)
	mux.HandleFunc("GET "+routes.ProfilePath, serveProfile)
	mux.HandleFunc("GET "+routes.NewPost, serveNewPost)
	mux.HandleFunc("GET "+routes.EditPost+"{id}", serveEditPost)

	mux.HandleFunc("POST "+routes.CreatePostAPI, handleCreatePost)
	mux.HandleFunc("PUT "+routes.PostAPI, handleUpdatePost)
	mux.HandleFunc("DELETE "+routes.PostAPI, handleDeletePost)

	mux.HandleFunc(routes.SSEPath, eventsHandler)
	mux.HandleFunc(routes.WebhookUser, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		authProvider.HandleWebhookUser(w, r)
	})

	if provider, ok := authProvider.(*auth.CookieProvider); ok {
		auth.RegisterCookieAuthRoutes(mux, provider, &content)
	}

	return mux
}

// sessionUserID resolves the signed-in user, empty for anonymous requests.
func sessionUserID(r *http.Request) model.UserID {
	userID, err := authProvider.UserIDFromSession(r)
	if err != nil {
		return ""
	}
	return userID
}

func renderPage(w http.ResponseWriter, r *http.Request, page string, data any) {
	tmpl, err := template.ParseFS(content,
		config.TemplatesLocalDir+"/"+config.TemplateLayout,
		config.TemplatesLocalDir+"/"+page,
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	if err := tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		l.Error().Err(err).Str("page", page).Msg("Error rendering page")
	}
}

// renderPageCached serves anonymous requests from the view cache. Signed-in
// views carry per-user chrome and are always rendered fresh.
func renderPageCached(w http.ResponseWriter, r *http.Request, userID model.UserID, page string, data any) {
	if userID != "" {
		renderPage(w, r, page, data)
		return
	}

	path := r.URL.Path
	if html, ok := cache.GetView(path); ok {
		w.Header().Set(config.HCType, config.CTypeHTML)
		w.Header().Set(config.HETag, util.ContentHash(html))
		w.Write(html)
		return
	}

	tmpl, err := template.ParseFS(content,
		config.TemplatesLocalDir+"/"+config.TemplateLayout,
		config.TemplatesLocalDir+"/"+page,
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, config.TemplateLayout, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cache.SetView(path, buf.Bytes())
	w.Header().Set(config.HCType, config.CTypeHTML)
	w.Header().Set(config.HETag, util.ContentHash(buf.Bytes()))
	w.Write(buf.Bytes())
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	userID := sessionUserID(r)

	postList, err := postReader.List(r.Context())
	if err != nil {
		l.Error().Err(err).Msg("Error listing posts")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if max := config.AppConfig.Content.PostsPerPage; len(postList) > max {
		postList = postList[:max]
	}

	data := struct {
		*model.PageData
		PostsPath string
		Posts     []model.Post
	}{
		PageData:  model.NewPageData(r, userID),
		PostsPath: config.PostsUrlPath,
		Posts:     postList,
	}

	renderPageCached(w, r, userID, config.TemplateIndex, data)
}

func servePost(w http.ResponseWriter, r *http.Request) {
	userID := sessionUserID(r)

	slug := r.PathValue("slug")
	post, err := postReader.GetBySlugWithAuthor(r.Context(), slug)
	if err != nil {
		l.Error().Err(err).Str("slug", slug).Msg("Error loading post")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	htmlContent := render.RenderMarkdownCached(
		[]byte(post.Content),
		util.ContentHashString(post.Content),
		config.AppConfig.Content.SyntaxStyle,
	)
	post.HTML = template.HTML(htmlContent)

	data := struct {
		*model.PageData
		Post    *model.Post
		IsOwner bool
	}{
		PageData: model.NewPageData(r, userID),
		Post:     post,
		IsOwner:  userID != "" && userID == post.AuthorID,
	}

	renderPageCached(w, r, userID, config.TemplatePost, data)
}

func serveProfile(w http.ResponseWriter, r *http.Request) {
	userID := sessionUserID(r)
	if userID == "" {
		http.Redirect(w, r, routes.AuthLogin, http.StatusSeeOther)
		return
	}

	postList, err := postReader.ListByAuthor(r.Context(), userID)
	if err != nil {
		l.Error().Err(err).Msg("Error listing posts")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := struct {
		*model.PageData
		PostsPath string
		Posts     []model.Post
	}{
		PageData:  model.NewPageData(r, userID),
		PostsPath: config.PostsUrlPath,
		Posts:     postList,
	}

	renderPage(w, r, config.TemplateProfile, data)
}

func serveNewPost(w http.ResponseWriter, r *http.Request) {
	userID := sessionUserID(r)
	if userID == "" {
		http.Redirect(w, r, routes.AuthLogin, http.StatusSeeOther)
		return
	}

	data := struct {
		*model.PageData
		Post   *model.Post
		Action string
		Method string
	}{
		PageData: model.NewPageData(r, userID),
		Post:     &model.Post{},
		Action:   routes.CreatePostAPI,
		Method:   http.MethodPost,
	}

	renderPage(w, r, config.TemplateEditor, data)
}

func serveEditPost(w http.ResponseWriter, r *http.Request) {
	userID := sessionUserID(r)
	if userID == "" {
		http.Redirect(w, r, routes.AuthLogin, http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := postService.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}
	if post.AuthorID != userID {
		http.Redirect(w, r, routes.Post(post.Slug), http.StatusSeeOther)
		return
	}

	data := struct {
		*model.PageData
		Post   *model.Post
		Action string
		Method string
	}{
		PageData: model.NewPageData(r, userID),
		Post:     post,
		Action:   "/api/posts/" + strconv.FormatInt(post.ID, 10),
		Method:   http.MethodPut,
	}

	renderPage(w, r, config.TemplateEditor, data)
}

func writeResult(w http.ResponseWriter, res posts.Result) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		l.Error().Err(err).Msg("Error encoding result")
	}
}

func postInput(r *http.Request) posts.Input {
	return posts.Input{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Content:     r.FormValue("content"),
	}
}

func handleCreatePost(w http.ResponseWriter, r *http.Request) {
	res := postService.Create(r.Context(), sessionUserID(r), postInput(r))
	writeResult(w, res)
}

func handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeResult(w, posts.Result{Success: false, Message: "Post not found"})
		return
	}

	res := postService.Update(r.Context(), sessionUserID(r), id, postInput(r))
	writeResult(w, res)
}

func handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeResult(w, posts.Result{Success: false, Message: "Post not found"})
		return
	}

	res := postService.Delete(r.Context(), sessionUserID(r), id)
	writeResult(w, res)
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("view")
	if path == "" {
		http.Error(w, "View parameter required", http.StatusBadRequest)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	client := sse.NewClient(path)
	clients.Add(client)
	l.Debug().Str("view", path).Msg("SSE client connected")

	defer func() {
		clients.Delete(client)
		l.Debug().Str("view", path).Msg("SSE client disconnected")
	}()

	notify := r.Context().Done()
	for {
		select {
		case msg := <-client.Msg:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

func cacheIt(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie")
		h.ServeHTTP(w, r)
	})
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		h(w, r)
	}
}
