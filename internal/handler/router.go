package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/rumahtahfidz/pesantren-api/internal/middleware"
	"github.com/rumahtahfidz/pesantren-api/internal/models"
	"github.com/rumahtahfidz/pesantren-api/internal/repository"
	"github.com/rumahtahfidz/pesantren-api/internal/service"
)

// Handlers groups every HTTP handler for route registration.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Santri        *SantriHandler
	Halaqah       *HalaqahHandler
	Hafalan       *HafalanHandler
	Audio         *AudioHandler
	Notifications *NotificationHandler
	Donations     *DonationHandler
	Gateways      *GatewayHandler
	Behavior      *BehaviorHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes wires all endpoints under the API prefix. Role
// restrictions mirror the dashboard: admins manage master data, musyrif
// work their own halaqah, wali read what concerns their children.
func RegisterRoutes(r *gin.Engine, prefix string, authSvc *service.AuthService, auditRepo *repository.UserRepository, h Handlers) {
	authed := middleware.JWT(authSvc)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleMusyrif)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(auditRepo, action, resource)
	}

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", authed, h.Auth.Logout)
		auth.POST("/change-password", authed, h.Auth.ChangePassword)
		auth.GET("/me", authed, h.Auth.Me)
	}

	users := api.Group("/users", authed)
	{
		users.GET("", adminOnly, h.Users.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), h.Users.Get)
		users.POST("", adminOnly, audit("CREATE", "users"), h.Users.Create)
		users.PUT("/:id", adminOnly, audit("UPDATE", "users"), h.Users.Update)
		users.DELETE("/:id", adminOnly, audit("DELETE", "users"), h.Users.Delete)
	}

	santri := api.Group("/santri", authed)
	{
		santri.GET("", h.Santri.List)
		santri.GET("/:id", h.Santri.Get)
		santri.POST("", adminOnly, audit("CREATE", "santri"), h.Santri.Create)
		santri.PUT("/:id", adminOnly, audit("UPDATE", "santri"), h.Santri.Update)
		santri.DELETE("/:id", adminOnly, audit("DELETE", "santri"), h.Santri.Delete)
	}

	halaqah := api.Group("/halaqah", authed)
	{
		halaqah.GET("", h.Halaqah.List)
		halaqah.GET("/:id", h.Halaqah.Get)
		halaqah.POST("", adminOnly, audit("CREATE", "halaqah"), h.Halaqah.Create)
		halaqah.PUT("/:id", adminOnly, audit("UPDATE", "halaqah"), h.Halaqah.Update)
		halaqah.DELETE("/:id", adminOnly, audit("DELETE", "halaqah"), h.Halaqah.Delete)
	}

	hafalan := api.Group("/hafalan", authed)
	{
		hafalan.GET("", h.Hafalan.List)
		hafalan.GET("/:id", h.Hafalan.Get)
		hafalan.POST("", staff, h.Hafalan.Submit)
		hafalan.POST("/:id/review", staff, h.Hafalan.Review)
		hafalan.PUT("/:id/audio", staff, h.Hafalan.UploadAudio)
		hafalan.GET("/:id/audio-url", h.Hafalan.AudioURL)
		hafalan.GET("/progress/:santriId", h.Hafalan.Progress)
	}

	// Signed token downloads need no session.
	api.GET("/audio/:token", h.Audio.Download)

	notifications := api.Group("/notifications", authed)
	{
		notifications.GET("", h.Notifications.List)
		notifications.GET("/stats", h.Notifications.Stats)
		notifications.POST("", adminOnly, h.Notifications.Create)
		notifications.POST("/from-template", adminOnly, h.Notifications.CreateFromTemplate)
		notifications.POST("/:id/read", h.Notifications.MarkAsRead)
		notifications.POST("/read-all", h.Notifications.MarkAllAsRead)
		notifications.DELETE("/:id", adminOnly, h.Notifications.Delete)
		notifications.GET("/templates", h.Notifications.Templates)
		notifications.POST("/templates", adminOnly, h.Notifications.CreateTemplate)
	}

	donations := api.Group("/donations")
	{
		// The donation form and the gateway callback are public; the
		// form still records the donor account when a session exists.
		donations.POST("", middleware.OptionalJWT(authSvc), h.Donations.Create)
		donations.POST("/webhook", h.Donations.Webhook)

		donations.GET("", authed, adminOnly, h.Donations.List)
		donations.GET("/summary", authed, adminOnly, h.Donations.Summary)
		donations.GET("/export", authed, adminOnly, h.Donations.Export)
		donations.GET("/:id", authed, adminOnly, h.Donations.Get)
		donations.POST("/:id/confirm", authed, adminOnly, h.Donations.Confirm)
		donations.POST("/:id/cancel", authed, adminOnly, h.Donations.Cancel)
	}

	gateways := api.Group("/payment-gateways", authed, adminOnly)
	{
		gateways.GET("", h.Gateways.List)
		gateways.GET("/:id", h.Gateways.Get)
		gateways.POST("", audit("CREATE", "payment_gateways"), h.Gateways.Create)
		gateways.PUT("/:id", audit("UPDATE", "payment_gateways"), h.Gateways.Update)
		gateways.PATCH("/:id/active", audit("UPDATE", "payment_gateways"), h.Gateways.SetActive)
	}

	behavior := api.Group("/behavior", authed)
	{
		behavior.GET("", h.Behavior.List)
		behavior.GET("/summary/:santriId", h.Behavior.Summary)
		behavior.POST("", staff, h.Behavior.Create)
		behavior.PUT("/:id", staff, h.Behavior.Update)
		behavior.DELETE("/:id", staff, h.Behavior.Delete)
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	api.GET("/metrics/snapshot", authed, adminOnly, h.Metrics.Snapshot)
}
