package middleware

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/auth"
)

type Access int

const (
	Authenticated Access = iota
	Public
)

// AccessTable records, per method and route pattern, whether a route may be
// called anonymously. Routes missing from the table require a caller.
type AccessTable struct {
	mu     sync.RWMutex
	routes map[string]Access
}

func NewAccessTable() *AccessTable {
	return &AccessTable{routes: make(map[string]Access)}
}

func (t *AccessTable) Declare(method, pattern string, a Access) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[method+" "+pattern] = a
}

func (t *AccessTable) Lookup(method, pattern string) (Access, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.routes[method+" "+pattern]
	return a, ok
}

func (t *AccessTable) IsPublic(method, pattern string) bool {
	if pattern == "" {
		return false
	}
	a, ok := t.Lookup(method, pattern)
	return ok && a == Public
}

// Registrar registers routes on a group and declares their access level in
// the same call, so a route cannot exist without a declaration.
type Registrar struct {
	group *gin.RouterGroup
	table *AccessTable
}

func NewRegistrar(group *gin.RouterGroup, table *AccessTable) *Registrar {
	return &Registrar{group: group, table: table}
}

func (r *Registrar) Public(method, relativePath string, handlers ...gin.HandlerFunc) {
	r.handle(Public, method, relativePath, handlers)
}

func (r *Registrar) Authenticated(method, relativePath string, handlers ...gin.HandlerFunc) {
	r.handle(Authenticated, method, relativePath, handlers)
}

func (r *Registrar) handle(a Access, method, relativePath string, handlers []gin.HandlerFunc) {
	r.group.Handle(method, relativePath, handlers...)
	r.table.Declare(method, joinPaths(r.group.BasePath(), relativePath), a)
}

func joinPaths(base, rel string) string {
	if rel == "" {
		return base
	}
	joined := path.Join(base, rel)
	if strings.HasSuffix(rel, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}

type TokenValidator interface {
	Validate(raw string) (auth.Identity, error)
}

// Gate admits public routes and preflight requests as they are. Every other
// request must carry a valid bearer token; its identity is put into the
// request context for the handlers.
func Gate(tokens TokenValidator, table *AccessTable, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || table.IsPublic(c.Request.Method, c.FullPath()) {
			c.Next()
			return
		}

		raw, err := BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var id auth.Identity
			id, err = tokens.Validate(raw)
			if err == nil {
				c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
				c.Next()
				return
			}
			err = apperr.InvalidCredential(err)
		}

		log.Info("request rejected",
			zap.String("kind", string(apperr.From(err).Kind)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		abort(c, err)
	}
}

var errMalformedHeader = errors.New("malformed authorization header")

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperr.MissingCredential()
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", apperr.InvalidCredential(errMalformedHeader)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.InvalidCredential(errMalformedHeader)
	}
	return token, nil
}

func abort(c *gin.Context, err error) {
	status, body := apperr.ToResponse(err)
	c.AbortWithStatusJSON(status, body)
}
