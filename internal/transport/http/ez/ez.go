// Package ez registers typed actions on gin route groups: bind the input,
// call the handler, render the envelope.
package ez

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lostfound/internal/core/errs"
	resp "lostfound/internal/transport/http/response"
	"lostfound/internal/transport/http/validate"
)

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	// BindNone leaves parsing to the handler (path params, multipart).
	BindNone Binder = "none"
)

type EZ struct {
	g *gin.RouterGroup
	r resp.Renderer
}

func New(g *gin.RouterGroup, r resp.Renderer) EZ { return EZ{g: g, r: r} }

// Group nests a route group that shares the renderer.
func (e EZ) Group(path string, mw ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, mw...), r: e.r}
}

func (e EZ) Renderer() resp.Renderer { return e.r }

// Action is one endpoint. I is the bound input, O the data payload.
type Action[I any, O any] struct {
	Method string
	Path   string
	Binder Binder
	// Status defaults to 200.
	Status  int
	Message string
	// Middleware runs before binding, after the group's own.
	Middleware []gin.HandlerFunc
	Handler    func(c *gin.Context, in *I) (O, error)
}

// Empty is the input of actions that bind nothing.
type Empty struct{}

func Register[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			e.r.Error(c, err)
			return
		}
		out, err := a.Handler(c, &in)
		if err != nil {
			e.r.Error(c, Translate(err))
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		e.r.Success(c, status, a.Message, out)
	}
	handlers := append(append([]gin.HandlerFunc{}, a.Middleware...), h)

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodPatch:
		e.g.PATCH(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	default:
		e.g.POST(a.Path, handlers...)
	}
}

func bind(c *gin.Context, b Binder, in any) error {
	var err error
	switch b {
	case BindJSON:
		err = c.ShouldBindJSON(in)
	case BindQuery:
		err = c.ShouldBindQuery(in)
	default:
		return nil
	}
	return BindError(err)
}

// BindError turns gin binding failures into typed errors.
func BindError(err error) error {
	if err == nil {
		return nil
	}
	if fields, ok := validate.Fields(err); ok {
		return errs.Validation(fields)
	}
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return errs.BadRequest("Request body is required")
	case errors.As(err, &syn):
		return errs.BadRequest("Invalid JSON in request body")
	case errors.As(err, &typ):
		return errs.Validation(map[string]string{typ.Field: "Invalid value"})
	}
	return Translate(err)
}

// Translate maps transport level failures that are not already typed.
func Translate(err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	var mb *http.MaxBytesError
	switch {
	case errors.As(err, &mb):
		return &errs.Error{Code: http.StatusRequestEntityTooLarge, Msg: "Request entity too large", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &errs.Error{Code: http.StatusGatewayTimeout, Msg: "Request timeout", Err: err}
	}
	if fields, ok := validate.Fields(err); ok {
		return errs.Validation(fields)
	}
	return err
}
