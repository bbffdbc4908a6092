package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lostfound/internal/domain"
	"lostfound/internal/service"
	"lostfound/internal/transport/http/ez"
	mdw "lostfound/internal/transport/http/middleware"
)

type Pets struct {
	svc  *service.PetService
	gate *mdw.Gate
}

func NewPets(svc *service.PetService, gate *mdw.Gate) *Pets {
	return &Pets{svc: svc, gate: gate}
}

func (h *Pets) Priority() int { return 20 }

func (h *Pets) Mount(api ez.EZ) {
	g := api.Group("/pets")
	optional := []gin.HandlerFunc{h.gate.OptionalAuth()}
	owner := []gin.HandlerFunc{h.gate.Protect(), h.gate.CheckOwnership(service.ResourcePet)}

	ez.Register(g, ez.Action[service.PetQuery, *service.PetPage]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery, Middleware: optional,
		Handler: func(c *gin.Context, q *service.PetQuery) (*service.PetPage, error) {
			return h.svc.List(c.Request.Context(), mdw.Caller(c), *q)
		},
	})
	ez.Register(g, ez.Action[service.PetQuery, *service.PetPage]{
		Method: http.MethodGet, Path: "/search/nearby", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, q *service.PetQuery) (*service.PetPage, error) {
			return h.svc.Nearby(c.Request.Context(), *q)
		},
	})
	ez.Register(g, ez.Action[service.PetQuery, *service.PetPage]{
		Method: http.MethodGet, Path: "/my-pets", Binder: ez.BindQuery,
		Middleware: []gin.HandlerFunc{h.gate.Protect()},
		Handler: func(c *gin.Context, q *service.PetQuery) (*service.PetPage, error) {
			return h.svc.MyPets(c.Request.Context(), mdw.Caller(c), *q)
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone, Middleware: optional,
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return petData(h.svc.Get(c.Request.Context(), c.Param("id")))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodPost, Path: "", Binder: ez.BindNone,
		Middleware: []gin.HandlerFunc{h.gate.Protect()},
		Status:     http.StatusCreated, Message: "Pet post created successfully. Waiting for admin approval.",
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			in, files, err := readPetRequest(c)
			if err != nil {
				return nil, err
			}
			return petData(h.svc.Create(c.Request.Context(), mdw.Caller(c), in, files))
		},
	})
	ez.Register(g, ez.Action[service.ContactInput, any]{
		Method: http.MethodPost, Path: "/:id/contact", Binder: ez.BindJSON, Middleware: optional,
		Message: "Contact request sent successfully",
		Handler: func(c *gin.Context, in *service.ContactInput) (any, error) {
			return nil, h.svc.Contact(c.Request.Context(), mdw.Caller(c), c.Param("id"), *in)
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindNone, Middleware: owner,
		Message: "Pet post updated successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			in, files, err := readPetRequest(c)
			if err != nil {
				return nil, err
			}
			return petData(h.svc.Update(c.Request.Context(), mdw.Caller(c), c.Param("id"), in, files))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, any]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Middleware: owner,
		Message: "Pet post deleted successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (any, error) {
			return nil, h.svc.Delete(c.Request.Context(), mdw.Caller(c), c.Param("id"))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodPatch, Path: "/:id/reunite", Binder: ez.BindNone, Middleware: owner,
		Message: "Pet marked as reunited",
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return petData(h.svc.Reunite(c.Request.Context(), mdw.Caller(c), c.Param("id")))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodPatch, Path: "/:id/approve", Binder: ez.BindNone,
		Middleware: []gin.HandlerFunc{h.gate.Protect(), h.gate.Authorize(domain.RoleAdmin)},
		Message:    "Pet post approved successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return petData(h.svc.Approve(c.Request.Context(), mdw.Caller(c), c.Param("id")))
		},
	})
}

func petData(p *domain.Pet, err error) (gin.H, error) {
	if err != nil {
		return nil, err
	}
	return gin.H{"pet": p}, nil
}
