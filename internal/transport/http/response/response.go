// Package response renders the JSON envelope shared by every endpoint.
package response

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lostfound/internal/core/errs"
)

type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Fields     map[string]string `json:"fields,omitempty"`
	Stack      string            `json:"stack,omitempty"`
	Details    string            `json:"details,omitempty"`
}

func OK(msg string, data any) Envelope {
	return Envelope{Success: true, Message: msg, Data: data}
}

func Fail(code int, msg string) Envelope {
	return Envelope{Error: &ErrorBody{Message: messageFor(code, msg), StatusCode: code}}
}

// Renderer writes envelopes. Outside production, failures carry the raw
// error and a stack trace; in production 5xx messages are replaced.
type Renderer struct {
	Production bool
	Log        *zap.Logger
}

func (r Renderer) Success(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, OK(msg, data))
}

// Envelope builds the failure body for err without writing it.
func (r Renderer) Envelope(err error) (int, Envelope) {
	e := errs.As(err)
	body := &ErrorBody{
		Message:    messageFor(e.Code, e.Msg),
		StatusCode: e.Code,
		Fields:     e.Fields,
	}
	if r.Production {
		if e.Code >= 500 {
			body.Message = defaultMsg[500]
		}
	} else {
		if e.Err != nil {
			body.Details = e.Err.Error()
		}
		if e.Code >= 500 {
			body.Stack = string(debug.Stack())
		}
	}
	return e.Code, Envelope{Error: body}
}

func (r Renderer) Error(c *gin.Context, err error) {
	code, env := r.Envelope(err)
	if code >= 500 && r.Log != nil {
		r.Log.Error("request failed",
			zap.String("rid", c.GetString("rid")),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", code),
			zap.Error(err),
		)
	}
	c.JSON(code, env)
}

// Abort writes the failure and stops the handler chain.
func (r Renderer) Abort(c *gin.Context, err error) {
	r.Error(c, err)
	c.Abort()
}
