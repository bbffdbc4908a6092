package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lostfound/internal/domain"
	"lostfound/internal/service"
	"lostfound/internal/transport/http/ez"
	mdw "lostfound/internal/transport/http/middleware"
)

type Admin struct {
	svc  *service.AdminService
	gate *mdw.Gate
}

func NewAdmin(svc *service.AdminService, gate *mdw.Gate) *Admin {
	return &Admin{svc: svc, gate: gate}
}

func (h *Admin) Priority() int { return 90 }

func (h *Admin) Mount(api ez.EZ) {
	g := api.Group("/admin", h.gate.Protect(), h.gate.Authorize(domain.RoleAdmin))

	ez.Register(g, ez.Action[ez.Empty, *service.Dashboard]{
		Method: http.MethodGet, Path: "/dashboard", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *ez.Empty) (*service.Dashboard, error) {
			return h.svc.Dashboard(c.Request.Context())
		},
	})
	h.users(g.Group("/users"))
	h.pets(g.Group("/pets"))
	h.reports(g.Group("/reports"))
}

func (h *Admin) users(g ez.EZ) {
	ez.Register(g, ez.Action[service.UserQuery, *service.UserPage]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, q *service.UserQuery) (*service.UserPage, error) {
			return h.svc.ListUsers(c.Request.Context(), *q)
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			d, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"user": d.User, "pets": d.Pets}, nil
		},
	})
	ez.Register(g, ez.Action[service.AdminUserInput, gin.H]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON,
		Message: "User updated successfully",
		Handler: func(c *gin.Context, in *service.AdminUserInput) (gin.H, error) {
			u, err := h.svc.UpdateUser(c.Request.Context(), mdw.Caller(c), c.Param("id"), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})
	ez.Register(g, ez.Action[ez.Empty, any]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone,
		Message: "User deactivated successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (any, error) {
			return nil, h.svc.DeleteUser(c.Request.Context(), mdw.Caller(c), c.Param("id"))
		},
	})
}

func (h *Admin) pets(g ez.EZ) {
	ez.Register(g, ez.Action[service.AdminPetQuery, *service.PetPage]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, q *service.AdminPetQuery) (*service.PetPage, error) {
			return h.svc.ListPets(c.Request.Context(), *q)
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return petData(h.svc.GetPet(c.Request.Context(), c.Param("id")))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindNone,
		Message: "Pet updated successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			in, files, err := readPetRequest(c)
			if err != nil {
				return nil, err
			}
			return petData(h.svc.UpdatePet(c.Request.Context(), mdw.Caller(c), c.Param("id"), in, files))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodPatch, Path: "/:id/approve", Binder: ez.BindNone,
		Message: "Pet post approved successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return petData(h.svc.ApprovePet(c.Request.Context(), mdw.Caller(c), c.Param("id")))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, any]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone,
		Message: "Pet deleted successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (any, error) {
			return nil, h.svc.DeletePet(c.Request.Context(), mdw.Caller(c), c.Param("id"))
		},
	})
}

func (h *Admin) reports(g ez.EZ) {
	ez.Register(g, ez.Action[service.ReportQuery, *service.ReportPage]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, q *service.ReportQuery) (*service.ReportPage, error) {
			return h.svc.ListReports(c.Request.Context(), *q)
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return reportData(h.svc.GetReport(c.Request.Context(), c.Param("id")))
		},
	})
	ez.Register(g, ez.Action[service.AdminReportInput, gin.H]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON,
		Message: "Report updated successfully",
		Handler: func(c *gin.Context, in *service.AdminReportInput) (gin.H, error) {
			return reportData(h.svc.UpdateReport(c.Request.Context(), mdw.Caller(c), c.Param("id"), *in))
		},
	})
}
