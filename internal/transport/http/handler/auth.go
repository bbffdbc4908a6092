package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lostfound/internal/service"
	"lostfound/internal/transport/http/ez"
	mdw "lostfound/internal/transport/http/middleware"
)

type Auth struct {
	svc  *service.AuthService
	gate *mdw.Gate
	// strict is the tighter per-IP limiter for credential endpoints.
	strict gin.HandlerFunc
}

func NewAuth(svc *service.AuthService, gate *mdw.Gate, strict gin.HandlerFunc) *Auth {
	return &Auth{svc: svc, gate: gate, strict: strict}
}

func (h *Auth) Priority() int { return 10 }

func (h *Auth) Mount(api ez.EZ) {
	g := api.Group("/auth")
	limited := []gin.HandlerFunc{h.strict}

	ez.Register(g, ez.Action[service.RegisterInput, *service.Session]{
		Method: http.MethodPost, Path: "/register", Binder: ez.BindJSON, Middleware: limited,
		Status: http.StatusCreated, Message: "User registered successfully",
		Handler: func(c *gin.Context, in *service.RegisterInput) (*service.Session, error) {
			return h.svc.Register(c.Request.Context(), *in)
		},
	})
	ez.Register(g, ez.Action[service.LoginInput, *service.Session]{
		Method: http.MethodPost, Path: "/login", Binder: ez.BindJSON, Middleware: limited,
		Message: "Login successful",
		Handler: func(c *gin.Context, in *service.LoginInput) (*service.Session, error) {
			return h.svc.Login(c.Request.Context(), *in)
		},
	})
	ez.Register(g, ez.Action[ez.Empty, any]{
		Method: http.MethodGet, Path: "/verify-email/:token", Binder: ez.BindNone,
		Message: "Email verified successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (any, error) {
			return nil, h.svc.VerifyEmail(c.Request.Context(), c.Param("token"))
		},
	})
	ez.Register(g, ez.Action[service.EmailInput, any]{
		Method: http.MethodPost, Path: "/forgot-password", Binder: ez.BindJSON, Middleware: limited,
		Message: "Password reset email sent",
		Handler: func(c *gin.Context, in *service.EmailInput) (any, error) {
			return nil, h.svc.ForgotPassword(c.Request.Context(), *in)
		},
	})
	ez.Register(g, ez.Action[service.ResetPasswordInput, any]{
		Method: http.MethodPost, Path: "/reset-password/:token", Binder: ez.BindJSON,
		Message: "Password reset successful",
		Handler: func(c *gin.Context, in *service.ResetPasswordInput) (any, error) {
			return nil, h.svc.ResetPassword(c.Request.Context(), c.Param("token"), *in)
		},
	})

	me := g.Group("", h.gate.Protect())
	ez.Register(me, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodGet, Path: "/me", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return gin.H{"user": mdw.Caller(c)}, nil
		},
	})
	ez.Register(me, ez.Action[service.ProfileInput, gin.H]{
		Method: http.MethodPut, Path: "/me", Binder: ez.BindJSON,
		Message: "Profile updated successfully",
		Handler: func(c *gin.Context, in *service.ProfileInput) (gin.H, error) {
			u, err := h.svc.UpdateProfile(c.Request.Context(), mdw.Caller(c), *in)
			return gin.H{"user": u}, err
		},
	})
	ez.Register(me, ez.Action[service.ChangePasswordInput, any]{
		Method: http.MethodPut, Path: "/change-password", Binder: ez.BindJSON,
		Message: "Password changed successfully",
		Handler: func(c *gin.Context, in *service.ChangePasswordInput) (any, error) {
			return nil, h.svc.ChangePassword(c.Request.Context(), mdw.Caller(c), *in)
		},
	})
	// Tokens are stateless; logout only tells the client to drop its copy.
	ez.Register(me, ez.Action[ez.Empty, any]{
		Method: http.MethodPost, Path: "/logout", Binder: ez.BindNone,
		Message: "Logged out successfully",
		Handler: func(*gin.Context, *ez.Empty) (any, error) { return nil, nil },
	})
	ez.Register(me, ez.Action[ez.Empty, *service.Session]{
		Method: http.MethodPost, Path: "/refresh", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *ez.Empty) (*service.Session, error) {
			return h.svc.Refresh(c.Request.Context(), mdw.Caller(c))
		},
	})
	ez.Register(me, ez.Action[ez.Empty, any]{
		Method: http.MethodPost, Path: "/resend-verification", Binder: ez.BindNone,
		Message: "Verification email sent",
		Handler: func(c *gin.Context, _ *ez.Empty) (any, error) {
			return nil, h.svc.ResendVerification(c.Request.Context(), mdw.Caller(c))
		},
	})
	ez.Register(me, ez.Action[ez.Empty, any]{
		Method: http.MethodDelete, Path: "/me", Binder: ez.BindNone,
		Message: "Account deactivated successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (any, error) {
			return nil, h.svc.DeleteAccount(c.Request.Context(), mdw.Caller(c))
		},
	})
}
