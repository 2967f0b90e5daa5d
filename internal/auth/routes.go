package auth

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/rmacedo/quill/internal/config"
	"github.com/rmacedo/quill/internal/model"
	"github.com/rmacedo/quill/internal/routes"
)

// RegisterCookieAuthRoutes registers the login page and the session endpoints
// for the cookie provider. Clerk deployments handle login on Clerk's side and
// skip this.
func RegisterCookieAuthRoutes(mux *http.ServeMux, provider *CookieProvider, fs *embed.FS) {
	tmpl, err := template.ParseFS(
		fs,
		config.TemplatesLocalDir+"/"+config.TemplateLayout,
		config.TemplatesLocalDir+"/"+config.TemplateLogin,
	)
	if err != nil {
		authLogger.Fatal().Err(err).Msg("Error loading login template")
		return
	}

	mux.HandleFunc("GET "+routes.AuthLogin, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, config.CTypeHTML)
		if err := tmpl.ExecuteTemplate(w, config.TemplateLayout, model.NewPageData(r, "")); err != nil {
			authLogger.Error().Err(err).Msg("Error rendering login page")
		}
	})
	mux.HandleFunc("POST "+routes.AuthLogin, provider.HandleLogin)
	mux.HandleFunc(routes.AuthLogout, provider.HandleLogout)
}
