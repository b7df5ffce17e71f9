// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trafficdesk/internal/http/handlers"
	"trafficdesk/internal/http/middleware"
	"trafficdesk/internal/infra"
	"trafficdesk/internal/modules/fieldstatus"
	"trafficdesk/internal/modules/job"
	"trafficdesk/internal/modules/notify"
	"trafficdesk/internal/modules/status"
)

func NewRouter(
	jobService *job.Service,
	fieldService *fieldstatus.Service,
	notifyStore *notify.Store,
	verifier infra.TokenVerifier,
	log *zap.Logger,
) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(verifier))

	jobHandler := handlers.NewJobHandler(jobService)
	api.POST("/jobs", jobHandler.Create)
	api.GET("/jobs/:id", jobHandler.Get)
	api.PATCH("/jobs/:id", jobHandler.UpdateDetails)
	api.POST("/jobs/:id/status", jobHandler.SetStatus)
	api.POST("/jobs/:id/assign", jobHandler.Assign)
	api.POST("/jobs/:id/reassign", jobHandler.Reassign)
	api.POST("/jobs/:id/collection/collected", jobHandler.MarkCollectionCollected)
	api.POST("/jobs/:id/lock", jobHandler.Lock)
	api.POST("/jobs/:id/unlock", jobHandler.Unlock)

	fieldHandler := handlers.NewFieldHandler(fieldService)
	api.POST("/driver/jobs/:id/status", fieldHandler.UpdateStatus(status.RoleDriver))
	api.POST("/driver/jobs/:id/no-show", fieldHandler.SubmitNoShow(status.RoleDriver))
	api.POST("/rep/jobs/:id/status", fieldHandler.UpdateStatus(status.RoleRep))
	api.POST("/rep/jobs/:id/no-show", fieldHandler.SubmitNoShow(status.RoleRep))
	api.POST("/supplier/jobs/:id/status", fieldHandler.UpdateSupplierStatus)

	notificationHandler := handlers.NewNotificationHandler(notifyStore)
	api.GET("/notifications", notificationHandler.List)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)

	return r
}
