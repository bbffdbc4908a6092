package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lostfound/internal/core/config"
	"lostfound/internal/core/errs"
	"lostfound/internal/service"
	"lostfound/internal/transport/http/ez"
	"lostfound/internal/transport/http/handler"
	mdw "lostfound/internal/transport/http/middleware"
	resp "lostfound/internal/transport/http/response"
	"lostfound/internal/transport/http/validate"
)

// Services are the application services the API exposes.
type Services struct {
	Auth          *service.AuthService
	Ownership     *service.Ownership
	Pets          *service.PetService
	Reports       *service.ReportService
	Notifications *service.NotificationService
	Admin         *service.AdminService
}

// multipartMemory is how much of a multipart body gin keeps in memory
// before spilling files to disk.
const multipartMemory = 32 << 20

func NewAPIEngine(c *config.Config, l *zap.Logger, db handler.Pinger, s Services) *gin.Engine {
	validate.Register()
	if c.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = multipartMemory

	render := resp.Renderer{Production: c.App.IsProduction(), Log: l}
	h := c.App.HTTP

	r.Use(
		mdw.Recovery(l),
		mdw.RequestID(),
		mdw.SecurityHeaders(),
		cors.New(corsConfig(c.CORS)),
		mdw.Metrics(),
		mdw.AccessLog(l),
		mdw.RateLimitPerIP(rate.Limit(c.RateLimit.RPS), c.RateLimit.Burst),
		mdw.ConcurrencyLimit(int64(max(1, h.MaxConcurrent))),
		mdw.MaxBodyBytes(int64(max(1, h.MaxBodyMB))<<20),
		mdw.Timeout(time.Duration(max(1, h.RequestTimeoutSec))*time.Second),
	)

	r.GET("/health", handler.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		render.Error(c, errs.NotFound("Not found - "+c.Request.URL.Path))
	})
	r.NoMethod(func(c *gin.Context) {
		render.Error(c, &errs.Error{Code: http.StatusMethodNotAllowed, Msg: "Method " + c.Request.Method + " not allowed"})
	})

	gate := mdw.NewGate(s.Auth, s.Ownership, render)
	strict := mdw.RateLimitPerIP(rate.Limit(c.RateLimit.AuthRPS), c.RateLimit.AuthBurst)

	var reg Registry
	reg.Add(
		handler.NewAuth(s.Auth, gate, strict),
		handler.NewPets(s.Pets, gate),
		handler.NewReports(s.Reports, gate),
		handler.NewNotifications(s.Notifications, gate),
		handler.NewAdmin(s.Admin, gate),
	)
	reg.MountAll(ez.New(r.Group("/api"), render))
	return r
}

func corsConfig(c config.CORS) cors.Config {
	cc := cors.DefaultConfig()
	cc.AllowCredentials = true
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", mdw.HeaderRequestID)
	cc.ExposeHeaders = []string{mdw.HeaderRequestID, "Retry-After"}
	if len(c.AllowOrigins) == 0 || (len(c.AllowOrigins) == 1 && c.AllowOrigins[0] == "*") {
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
		return cc
	}
	cc.AllowOrigins = c.AllowOrigins
	return cc
}
