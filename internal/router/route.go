package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mwdev22/webpanel/internal/auth"
	"github.com/mwdev22/webpanel/internal/models"
	"github.com/mwdev22/webpanel/internal/ratelimit"
)

// Kind tags the two route variants the dispatcher distinguishes.
type Kind int

const (
	// KindPage routes render HTML views and redirect on auth failures.
	KindPage Kind = iota
	// KindAPI routes answer with JSON or plain-text status bodies.
	KindAPI
)

// QueryParam declares one expected query-string parameter.
type QueryParam struct {
	Name     string
	Required bool
	// Numeric requires the value to parse as an integer when present.
	Numeric bool
}

// Request carries per-request state into a handler. Session and User are set
// only when the presented cookie resolved to a currently valid session.
type Request struct {
	C       *gin.Context
	Route   *Route
	Session *models.Session
	User    *models.User
	// Body holds the raw request body when the route declares one. It has
	// already passed schema validation.
	Body []byte
}

// SetCookie writes a session cookie spec onto the response.
func (r *Request) SetCookie(spec *auth.CookieSpec) {
	if spec == nil {
		return
	}
	cookie := &http.Cookie{
		Name:     spec.Name,
		Value:    spec.Value,
		Path:     spec.Path,
		Expires:  spec.Expires,
		HttpOnly: spec.HTTPOnly,
	}
	if spec.SameSiteStrict {
		cookie.SameSite = http.SameSiteStrictMode
	}
	http.SetCookie(r.C.Writer, cookie)
}

// HandlerFunc executes a matched route. Returning a *ValidationError maps to
// a 400 with the message exposed; any other error is answered generically.
type HandlerFunc func(r *Request) (Result, error)

// Route is an immutable descriptor registered at startup.
type Route struct {
	Path string
	Kind Kind

	// Methods allowed on API routes. Page routes are always GET-only.
	Methods []string

	RequiresLogin bool
	RequiredRoles []models.Role
	// Blocked is a kill-switch; the route answers 403 regardless of the
	// caller's auth state.
	Blocked bool

	Query []QueryParam
	// Body requires a JSON object request body.
	Body bool

	// Directory identifies the view rendered by a page route.
	Directory string
	// RedirectIfAuthorized bounces already-authenticated visitors of a
	// page route before validation and execution.
	RedirectIfAuthorized string

	// RateLimit applies to API routes only.
	RateLimit *ratelimit.Policy

	Handler HandlerFunc
}

// Authorized reports whether the account satisfies the route's role policy.
// An empty role requirement always passes.
func (rt *Route) Authorized(user *models.User) bool {
	if len(rt.RequiredRoles) == 0 {
		return true
	}
	if user == nil {
		return false
	}
	roles := models.ParseRoles(user.Roles)
	for _, required := range rt.RequiredRoles {
		if models.HasRole(roles, required) {
			return true
		}
	}
	return false
}

// AllowsMethod reports whether the route accepts the HTTP method.
func (rt *Route) AllowsMethod(method string) bool {
	if rt.Kind == KindPage {
		return method == http.MethodGet
	}
	for _, allowed := range rt.Methods {
		if allowed == method {
			return true
		}
	}
	return false
}

// Registry is the static route table, built once at startup and passed to
// the dispatcher. Lookup is by exact path.
type Registry struct {
	byPath  map[string]*Route
	ordered []*Route
}

// NewRegistry builds a Registry, rejecting duplicate paths.
func NewRegistry(routes ...*Route) (*Registry, error) {
	reg := &Registry{byPath: make(map[string]*Route, len(routes))}
	for _, route := range routes {
		if route == nil || route.Path == "" {
			return nil, fmt.Errorf("router: route without path")
		}
		if _, exists := reg.byPath[route.Path]; exists {
			return nil, fmt.Errorf("router: duplicate route path %q", route.Path)
		}
		reg.byPath[route.Path] = route
		reg.ordered = append(reg.ordered, route)
	}
	return reg, nil
}

// Lookup returns the route owning the exact path, or nil.
func (reg *Registry) Lookup(path string) *Route {
	return reg.byPath[path]
}

// Routes returns the registered routes in registration order.
func (reg *Registry) Routes() []*Route {
	return reg.ordered
}
