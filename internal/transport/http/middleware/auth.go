package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"lostfound/internal/core/errs"
	"lostfound/internal/domain"
	"lostfound/internal/service"
	resp "lostfound/internal/transport/http/response"
)

const keyCaller = "caller"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type OwnershipChecker interface {
	Check(ctx context.Context, kind service.ResourceKind, id string, caller *domain.User) error
}

// Gate holds the authentication and authorization middleware.
type Gate struct {
	auth   Authenticator
	owners OwnershipChecker
	r      resp.Renderer
}

func NewGate(a Authenticator, o OwnershipChecker, r resp.Renderer) *Gate {
	return &Gate{auth: a, owners: o, r: r}
}

// Caller is the authenticated user, or nil.
func Caller(c *gin.Context) *domain.User {
	if v, ok := c.Get(keyCaller); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Protect requires a bearer token for an active account.
func (g *Gate) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			g.r.Abort(c, errs.Unauthorized("Not authorized, no token"))
			return
		}
		u, err := g.auth.Authenticate(c.Request.Context(), tok)
		if err != nil {
			g.r.Abort(c, err)
			return
		}
		c.Set(keyCaller, u)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and
// otherwise lets the request through anonymously.
func (g *Gate) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := bearer(c); tok != "" {
			if u, err := g.auth.Authenticate(c.Request.Context(), tok); err == nil {
				c.Set(keyCaller, u)
			}
		}
		c.Next()
	}
}

// Authorize must run after Protect.
func (g *Gate) Authorize(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := Caller(c)
		if u == nil {
			g.r.Abort(c, errs.Unauthorized("Not authorized"))
			return
		}
		if !slices.Contains(roles, u.Role) {
			g.r.Abort(c, errs.Forbidden("User role "+string(u.Role)+" is not authorized to access this route"))
			return
		}
		c.Next()
	}
}

// CheckOwnership must run after Protect. The resource id is read from the
// :id path parameter.
func (g *Gate) CheckOwnership(kind service.ResourceKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.owners.Check(c.Request.Context(), kind, c.Param("id"), Caller(c)); err != nil {
			g.r.Abort(c, err)
			return
		}
		c.Next()
	}
}
