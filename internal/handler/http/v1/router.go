package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршруты жизненного цикла инцидентов
	incidents := api.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/:id", h.getIncident)
		incidents.POST("/:id/assignments", h.assignResponder)
		incidents.DELETE("/:id/assignments/:responderId", h.releaseResponder)
		incidents.POST("/:id/progress", h.markInProgress)
		incidents.POST("/:id/resolve", h.resolveIncident)
		incidents.POST("/:id/escalate", h.escalateIncident)
		incidents.POST("/:id/cancel", h.cancelIncident)
		incidents.POST("/:id/reclassify", h.reclassifyIncident)
	}

	// Маршруты in-app уведомлений вызывающего
	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.listNotifications)
		notifications.POST("/:id/read", h.markNotificationRead)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
