// Package views resolves view identifiers to HTML documents on disk. It is a
// thin collaborator; page content is not part of the application logic.
package views

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mwdev22/webpanel/internal/config"
	log "github.com/sirupsen/logrus"
)

const contentTypeHTML = "text/html; charset=utf-8"

// Renderer serves view files from a configured directory.
type Renderer struct {
	cfg config.ViewConfig
}

// NewRenderer constructs a Renderer.
func NewRenderer(cfg config.ViewConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render writes the view identified by directory with the given status. A
// missing view degrades to a minimal placeholder so responses stay well
// formed.
func (r *Renderer) Render(c *gin.Context, directory string, status int) {
	data, errRead := os.ReadFile(r.resolve(directory))
	if errRead != nil {
		log.WithError(errRead).Warnf("views: cannot read view %q", directory)
		c.Data(status, contentTypeHTML, []byte("<!doctype html><title>webpanel</title>"))
		return
	}
	c.Data(status, contentTypeHTML, data)
}

// RenderNotFound renders the not-found error view.
func (r *Renderer) RenderNotFound(c *gin.Context) {
	r.Render(c, r.cfg.NotFound, http.StatusNotFound)
}

// RenderUnauthorized renders the unauthorized error view.
func (r *Renderer) RenderUnauthorized(c *gin.Context) {
	r.Render(c, r.cfg.Unauthorized, http.StatusForbidden)
}

// RenderServerError renders the generic failure view.
func (r *Renderer) RenderServerError(c *gin.Context) {
	r.Render(c, r.cfg.ServerError, http.StatusInternalServerError)
}

// resolve maps a view identifier onto the view directory, refusing to
// escape it.
func (r *Renderer) resolve(directory string) string {
	cleaned := filepath.Clean("/" + strings.TrimPrefix(directory, "/"))
	return filepath.Join(r.cfg.Directory, cleaned)
}
