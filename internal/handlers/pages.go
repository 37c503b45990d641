package handlers

import "github.com/mwdev22/webpanel/internal/router"

// renderPage renders the matched page route's view. All page routes share it;
// the view is fixed on the route itself.
func renderPage(r *router.Request) (router.Result, error) {
	return router.ViewResult{Directory: r.Route.Directory}, nil
}
