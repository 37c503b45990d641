package router

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mwdev22/webpanel/internal/auth"
	"github.com/mwdev22/webpanel/internal/config"
	"github.com/mwdev22/webpanel/internal/models"
	"github.com/mwdev22/webpanel/internal/ratelimit"
	"github.com/mwdev22/webpanel/internal/views"
	log "github.com/sirupsen/logrus"
)

// redirAfterParam carries the originally requested path through the login
// redirect so the user lands where they intended.
const redirAfterParam = "redir_after"

// defaultThrottleMessage answers throttled requests when the route's policy
// does not override it.
const defaultThrottleMessage = "Too Many Requests"

// Dispatcher matches requests against the route registry and walks each one
// through the gate sequence: match, block, rate, auth, validate, execute.
// Later gates assume earlier ones passed; the order is fixed.
type Dispatcher struct {
	registry   *Registry
	auth       *auth.Manager
	limiter    *ratelimit.Manager
	renderer   *views.Renderer
	routerCfg  config.RouterConfig
	cookieName string
	timeout    time.Duration
}

// NewDispatcher constructs a Dispatcher over an immutable registry.
func NewDispatcher(
	registry *Registry,
	authMgr *auth.Manager,
	limiter *ratelimit.Manager,
	renderer *views.Renderer,
	routerCfg config.RouterConfig,
	sessionCfg config.SessionConfig,
	timeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		auth:       authMgr,
		limiter:    limiter,
		renderer:   renderer,
		routerCfg:  routerCfg,
		cookieName: sessionCfg.CookieName,
		timeout:    timeout,
	}
}

// Handle is the single gin entry point for every dynamic route.
func (d *Dispatcher) Handle(c *gin.Context) {
	if d.timeout > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d.timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
	}

	requestPath := c.Request.URL.Path
	route := d.registry.Lookup(requestPath)
	if route == nil {
		if strings.HasPrefix(requestPath, d.routerCfg.APIPrefix) {
			c.String(http.StatusNotFound, "Not Found: %s", requestPath)
			return
		}
		d.renderer.RenderNotFound(c)
		return
	}

	session, user := d.resolveSession(c)

	// Block and role gates run before login is considered; a blocked route
	// answers 403 regardless of auth state.
	if route.Blocked || !route.Authorized(user) {
		if route.Kind == KindPage {
			d.renderer.RenderUnauthorized(c)
			return
		}
		c.Status(http.StatusForbidden)
		return
	}
	if !route.AllowsMethod(c.Request.Method) {
		c.Status(http.StatusMethodNotAllowed)
		return
	}

	key := ratelimit.Key(route.Path, c.ClientIP())
	if route.Kind == KindAPI && route.RateLimit != nil {
		if seconds := d.limiter.CheckTimeout(c.Request.Context(), key, *route.RateLimit); seconds > 0 {
			log.Warnf("rate limit triggered at [%s]", route.Path)
			message := route.RateLimit.Message
			if message == "" {
				message = defaultThrottleMessage
			}
			c.String(http.StatusTooManyRequests, message)
			return
		}
	}

	if route.RequiresLogin && session == nil {
		if route.Kind == KindAPI {
			c.String(http.StatusUnauthorized, "Session expired or invalid.")
			return
		}
		d.redirectToLogin(c, requestPath)
		return
	}

	if route.Kind == KindPage && session != nil && route.RedirectIfAuthorized != "" {
		c.Redirect(http.StatusFound, route.RedirectIfAuthorized)
		return
	}

	body, ok := validateInput(c, route)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid data submitted.")
		return
	}

	request := &Request{C: c, Route: route, Session: session, User: user, Body: body}
	result, errExec := d.execute(request)
	if errExec != nil {
		d.respondError(c, route, errExec)
		return
	}

	// Only successful executions count against the rate budget.
	if route.Kind == KindAPI && route.RateLimit != nil {
		d.limiter.CheckRate(c.Request.Context(), key, *route.RateLimit)
	}
	d.respond(c, result)
}

// resolveSession turns the session cookie into a currently valid session and
// its owning account. Invalid, expired, and unknown tokens all resolve to
// no session.
func (d *Dispatcher) resolveSession(c *gin.Context) (*models.Session, *models.User) {
	token, errCookie := c.Cookie(d.cookieName)
	if errCookie != nil || token == "" {
		return nil, nil
	}
	session := d.auth.SessionByToken(c.Request.Context(), token)
	if session == nil || !session.IsValid(d.auth.Now()) {
		return nil, nil
	}
	return session, session.User
}

// execute runs the route handler, converting panics into errors so the
// dispatcher's error mapping stays uniform.
func (d *Dispatcher) execute(request *Request) (result Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panic: %v", recovered)
		}
	}()
	return request.Route.Handler(request)
}

// respond maps a handler result onto the HTTP response.
func (d *Dispatcher) respond(c *gin.Context, result Result) {
	switch res := result.(type) {
	case NoContentResult:
		c.Status(http.StatusNoContent)
	case JSONResult:
		c.JSON(res.StatusCode(), res.Payload)
	case ViewResult:
		d.renderer.Render(c, res.Directory, http.StatusOK)
	case RedirectResult:
		c.Redirect(http.StatusFound, res.Location)
	case ErrorResult:
		c.String(res.Status, res.Message)
	default:
		c.Status(http.StatusNoContent)
	}
}

// respondError maps a handler failure onto the HTTP response. Validation
// failures surface their message; everything else is logged in full and
// answered generically.
func (d *Dispatcher) respondError(c *gin.Context, route *Route, errExec error) {
	if validationErr, ok := AsValidation(errExec); ok {
		c.String(http.StatusBadRequest, validationErr.Message)
		return
	}
	log.WithError(errExec).Errorf("unhandled failure in route [%s]", route.Path)
	if route.Kind == KindAPI {
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	d.renderer.RenderServerError(c)
}

// redirectToLogin bounces an unauthenticated page request to the default
// route, preserving the requested path without its query string.
func (d *Dispatcher) redirectToLogin(c *gin.Context, requestPath string) {
	target := d.routerCfg.DefaultRoute
	query := url.Values{}
	query.Set(redirAfterParam, requestPath)
	c.Redirect(http.StatusFound, target+"?"+query.Encode())
}
