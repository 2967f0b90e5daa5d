package model

import (
	"net/http"

	"github.com/rmacedo/quill/internal/config"
)

type PageData struct {
	SiteName string
	Tagline  string

	PageURL string

	// UserID of the signed-in viewer, empty when anonymous.
	UserID UserID
}

func NewPageData(r *http.Request, userID UserID) *PageData {
	return &PageData{
		SiteName: config.AppConfig.Site.Name,
		Tagline:  config.AppConfig.Site.Tagline,
		PageURL:  r.URL.Path,
		UserID:   userID,
	}
}

func (pd *PageData) SignedIn() bool {
	return pd.UserID != ""
}
