package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"lostfound/internal/domain"
	"lostfound/internal/service"
	"lostfound/internal/transport/http/ez"
	mdw "lostfound/internal/transport/http/middleware"
)

type Reports struct {
	svc  *service.ReportService
	gate *mdw.Gate
}

func NewReports(svc *service.ReportService, gate *mdw.Gate) *Reports {
	return &Reports{svc: svc, gate: gate}
}

func (h *Reports) Priority() int { return 30 }

type reportLister func(ctx context.Context, caller *domain.User, q service.ReportQuery) (*service.ReportPage, error)

func (h *Reports) Mount(api ez.EZ) {
	g := api.Group("/reports", h.gate.Protect())

	ez.Register(g, ez.Action[service.CreateReportInput, gin.H]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON,
		Status: http.StatusCreated, Message: "Report submitted successfully",
		Handler: func(c *gin.Context, in *service.CreateReportInput) (gin.H, error) {
			return reportData(h.svc.Create(c.Request.Context(), mdw.Caller(c), *in))
		},
	})
	for path, list := range map[string]reportLister{
		"":               h.svc.ListMine,
		"/about-me":      h.svc.AboutMe,
		"/about-my-pets": h.svc.AboutMyPets,
	} {
		ez.Register(g, ez.Action[service.ReportQuery, *service.ReportPage]{
			Method: http.MethodGet, Path: path, Binder: ez.BindQuery,
			Handler: func(c *gin.Context, q *service.ReportQuery) (*service.ReportPage, error) {
				return list(c.Request.Context(), mdw.Caller(c), *q)
			},
		})
	}
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return reportData(h.svc.Get(c.Request.Context(), mdw.Caller(c), c.Param("id")))
		},
	})
	ez.Register(g, ez.Action[service.UpdateReportInput, gin.H]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON,
		Message: "Report updated successfully",
		Handler: func(c *gin.Context, in *service.UpdateReportInput) (gin.H, error) {
			return reportData(h.svc.UpdateOwn(c.Request.Context(), mdw.Caller(c), c.Param("id"), *in))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, any]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone,
		Message: "Report deleted successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (any, error) {
			return nil, h.svc.DeleteOwn(c.Request.Context(), mdw.Caller(c), c.Param("id"))
		},
	})
}

func reportData(r *domain.Report, err error) (gin.H, error) {
	if err != nil {
		return nil, err
	}
	return gin.H{"report": r}, nil
}
