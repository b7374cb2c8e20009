package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/emergency_dispatch_system/internal/assignment"
	"github.com/shenikar/emergency_dispatch_system/internal/config"
	"github.com/shenikar/emergency_dispatch_system/internal/lifecycle"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/service"
	"github.com/sirupsen/logrus"
)

// NotificationReader - доступ на чтение к in-app уведомлениям вызывающего
type NotificationReader interface {
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
}

type Handler struct {
	incidentService service.IncidentService
	notifications   NotificationReader
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(incidentService service.IncidentService, notifications NotificationReader, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidentService: incidentService,
		notifications:   notifications,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// @Summary Report a new incident
// @Description Register a new incident. The caller becomes the incident reporter. Requires API key and actor identity.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param incident body CreateIncidentRequest true "Incident report"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToIncidentModel(input)
	if err := h.incidentService.CreateIncident(c.Request.Context(), actorFrom(c), model); err != nil {
		log.WithError(err).Error("Failed to create incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(model))
}

// @Summary Get a list of incidents
// @Description Get a paginated list of incidents. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(20)
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	incidents, err := h.incidentService.ListIncidents(c.Request.Context(), page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident with its assignments. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from service")
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Assign a responder to an incident
// @Description Assign a responder; the tier is decided by the assignment policy. Requires API key.
// @Tags Assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param assignment body AssignResponderRequest true "Responder assignment request"
// @Success 201 {object} AssignmentResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Assignment rejected by policy"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/assignments [post]
func (h *Handler) assignResponder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "assignResponder").WithField("id", id)

	var input AssignResponderRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	responderID, err := uuid.Parse(input.ResponderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid responder ID"})
		return
	}

	record, err := h.incidentService.AssignResponder(c.Request.Context(), actorFrom(c), id, responderID)
	if err != nil {
		h.respondServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToAssignmentResponse(record))
}

// @Summary Release a responder from an incident
// @Description Deactivate the responder's assignment and return them to the available pool. Requires API key.
// @Tags Assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param responderId path string true "Responder ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/assignments/{responderId} [delete]
func (h *Handler) releaseResponder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	responderID, err := uuid.Parse(c.Param("responderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid responder ID"})
		return
	}
	log := h.logger.WithField("method", "releaseResponder").WithField("id", id)

	if err := h.incidentService.ReleaseResponder(c.Request.Context(), actorFrom(c), id, responderID); err != nil {
		h.respondServiceError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Mark an incident as in progress
// @Description Move a reported incident to InProgress. Requires API key.
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /incidents/{id}/progress [post]
func (h *Handler) markInProgress(c *gin.Context) {
	h.transition(c, "markInProgress", h.incidentService.MarkInProgress)
}

// @Summary Resolve an incident
// @Description Move an in-progress incident to Resolved and release all assigned responders. Requires API key.
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /incidents/{id}/resolve [post]
func (h *Handler) resolveIncident(c *gin.Context) {
	h.transition(c, "resolveIncident", h.incidentService.Resolve)
}

// @Summary Escalate an incident
// @Description Move an in-progress incident to Escalated for broader attention. Requires API key.
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /incidents/{id}/escalate [post]
func (h *Handler) escalateIncident(c *gin.Context) {
	h.transition(c, "escalateIncident", h.incidentService.Escalate)
}

// @Summary Cancel an incident
// @Description Cancel an incident. Allowed to admins and to the incident's reporter. Requires API key.
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /incidents/{id}/cancel [post]
func (h *Handler) cancelIncident(c *gin.Context) {
	h.transition(c, "cancelIncident", h.incidentService.Cancel)
}

// @Summary Request incident reclassification
// @Description Re-run classification for an incident stuck in Pending after a classifier failure. Admin only. Requires API key.
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 202 "Accepted"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Incident is not pending"
// @Router /incidents/{id}/reclassify [post]
func (h *Handler) reclassifyIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "reclassifyIncident").WithField("id", id)

	if err := h.incidentService.Reclassify(c.Request.Context(), actorFrom(c), id); err != nil {
		h.respondServiceError(c, log, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// @Summary List caller notifications
// @Description Get in-app notifications of the calling actor, newest first. Requires API key.
// @Tags Notifications
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "Maximum number of notifications" default(50)
// @Success 200 {array} NotificationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /notifications [get]
func (h *Handler) listNotifications(c *gin.Context) {
	log := h.logger.WithField("method", "listNotifications")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.notifications.ListByRecipient(c.Request.Context(), actorFrom(c).ID, limit)
	if err != nil {
		log.WithError(err).Error("Failed to list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelsToNotificationResponses(notifications))
}

// @Summary Mark a notification as read
// @Description Mark one of the caller's notifications as read. Requires API key.
// @Tags Notifications
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Notification ID"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid notification ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{id}/read [post]
func (h *Handler) markNotificationRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}
	log := h.logger.WithField("method", "markNotificationRead").WithField("id", id)

	if err := h.notifications.MarkRead(c.Request.Context(), actorFrom(c).ID, id); err != nil {
		log.WithError(err).Warn("Failed to mark notification as read")
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusOK)
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type transitionFunc func(ctx context.Context, actor models.Actor, id uuid.UUID) error

// transition - общий путь обработки статусных операций
func (h *Handler) transition(c *gin.Context, method string, fn transitionFunc) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", method).WithField("id", id)

	if err := fn(c.Request.Context(), actorFrom(c), id); err != nil {
		h.respondServiceError(c, log, err)
		return
	}
	c.Status(http.StatusOK)
}

// respondServiceError переводит ошибки сервиса в HTTP-статусы
func (h *Handler) respondServiceError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		log.WithError(err).Warn("Operation forbidden for actor")
		c.JSON(http.StatusForbidden, gin.H{"error": "operation is not allowed for this actor"})
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, service.ErrStatusConflict),
		errors.Is(err, assignment.ErrIncidentClosed),
		errors.Is(err, assignment.ErrAlreadyAssigned),
		errors.Is(err, assignment.ErrResponderUnavailable):
		log.WithError(err).Warn("Operation rejected")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("Service operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
