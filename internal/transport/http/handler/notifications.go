package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lostfound/internal/domain"
	"lostfound/internal/service"
	"lostfound/internal/transport/http/ez"
	mdw "lostfound/internal/transport/http/middleware"
)

type Notifications struct {
	svc  *service.NotificationService
	gate *mdw.Gate
}

func NewNotifications(svc *service.NotificationService, gate *mdw.Gate) *Notifications {
	return &Notifications{svc: svc, gate: gate}
}

func (h *Notifications) Priority() int { return 40 }

func (h *Notifications) Mount(api ez.EZ) {
	g := api.Group("/notifications", h.gate.Protect())

	ez.Register(g, ez.Action[service.NotificationQuery, *service.NotificationPage]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, q *service.NotificationQuery) (*service.NotificationPage, error) {
			return h.svc.List(c.Request.Context(), mdw.Caller(c), *q)
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodGet, Path: "/unread-count", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			n, err := h.svc.UnreadCount(c.Request.Context(), mdw.Caller(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"count": n}, nil
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodPatch, Path: "/mark-all-read", Binder: ez.BindNone,
		Message: "All notifications marked as read",
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			n, err := h.svc.MarkAllRead(c.Request.Context(), mdw.Caller(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"modifiedCount": n}, nil
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodPatch, Path: "/:id/read", Binder: ez.BindNone,
		Message: "Notification marked as read",
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return notificationData(h.svc.MarkRead(c.Request.Context(), mdw.Caller(c), c.Param("id")))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *ez.Empty) (gin.H, error) {
			return notificationData(h.svc.Get(c.Request.Context(), mdw.Caller(c), c.Param("id")))
		},
	})
	ez.Register(g, ez.Action[ez.Empty, any]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone,
		Message: "Notification deleted successfully",
		Handler: func(c *gin.Context, _ *ez.Empty) (any, error) {
			return nil, h.svc.Delete(c.Request.Context(), mdw.Caller(c), c.Param("id"))
		},
	})
}

func notificationData(n *domain.Notification, err error) (gin.H, error) {
	if err != nil {
		return nil, err
	}
	return gin.H{"notification": n}, nil
}
