// Package notification - fan-out доменных событий в уведомления получателям.
// Каждая доставка выполняется независимо: отказ одного канала или получателя
// логируется и не прерывает остальную рассылку.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_dispatch_system/internal/eventbus"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/sirupsen/logrus"
)

// InAppStore сохраняет in-app уведомление получателя
type InAppStore interface {
	Push(ctx context.Context, notification *models.Notification) error
}

// RecipientDirectory - часть справочника, нужная для построения списка получателей
type RecipientDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UsersByRole(ctx context.Context, role models.UserRole) ([]*models.User, error)
	GetResponder(ctx context.Context, id uuid.UUID) (*models.Responder, error)
	AgenciesSupporting(ctx context.Context, t models.IncidentType) ([]*models.Agency, error)
	RespondersOfAgencies(ctx context.Context, agencyIDs []uuid.UUID) ([]*models.Responder, error)
}

// delivery - одно запланированное уведомление: in-app всегда, email при
// известном адресе
type delivery struct {
	recipientID uuid.UUID
	email       string
	title       string
	body        string
}

// FanoutEngine - подписчик шины, превращающий события диспетчеризации в
// детерминированный набор доставок
type FanoutEngine struct {
	store     InAppStore
	email     EmailPublisher
	directory RecipientDirectory
	logger    *logrus.Logger
}

func NewFanoutEngine(store InAppStore, email EmailPublisher, directory RecipientDirectory, logger *logrus.Logger) *FanoutEngine {
	return &FanoutEngine{
		store:     store,
		email:     email,
		directory: directory,
		logger:    logger,
	}
}

// Register подписывает движок на события шины
func (f *FanoutEngine) Register(bus *eventbus.Bus) {
	bus.Subscribe(models.EventManualReview, f.HandleManualReviewEvent)
	bus.Subscribe(models.EventRespondersMatched, f.HandleRespondersMatchedEvent)
	bus.Subscribe(models.EventStatusChanged, f.HandleStatusChangedEvent)
}

// HandleManualReviewEvent уведомляет ревьюеров (полная диагностика) и
// репортера (человекочитаемое сообщение)
func (f *FanoutEngine) HandleManualReviewEvent(ctx context.Context, event eventbus.Event) {
	review, ok := event.(models.ManualReviewEvent)
	if !ok {
		return
	}
	incident := review.Incident
	log := f.logMethod("HandleManualReviewEvent", incident.ID)

	deliveries := f.reviewerDeliveries(ctx, log, incident,
		fmt.Sprintf("Incident %s requires manual review", incident.RefCode),
		fmt.Sprintf("Incident %s needs operator attention. Reason: %s. %s", incident.RefCode, review.Reason, review.Detail),
	)

	var reporterBody string
	if review.Reason == models.ReasonLowConfidence || review.Reason == models.ReasonNoMedia {
		reporterBody = fmt.Sprintf("Your incident %s could not be verified automatically and was routed to an operator for review.", incident.RefCode)
	} else {
		reporterBody = fmt.Sprintf("Your incident %s is pending manual assignment.", incident.RefCode)
	}
	deliveries = append(deliveries, f.reporterDelivery(ctx, log, incident,
		fmt.Sprintf("Incident %s update", incident.RefCode), reporterBody)...)

	f.dispatch(ctx, log, incident.ID, deliveries)
}

// HandleRespondersMatchedEvent уведомляет админов подобранных агентств и
// респондентов из шорт-листа. Агентский email берется из контактного адреса
// агентства, если он задан.
func (f *FanoutEngine) HandleRespondersMatchedEvent(ctx context.Context, event eventbus.Event) {
	matched, ok := event.(models.RespondersMatchedEvent)
	if !ok {
		return
	}
	incident := matched.Incident
	log := f.logMethod("HandleRespondersMatchedEvent", incident.ID)

	var deliveries []delivery
	for _, agency := range matched.Agencies {
		admin, err := f.directory.GetUser(ctx, agency.AdminUserID)
		if err != nil {
			log.WithError(err).WithField("agency_id", agency.ID).Error("Failed to load agency admin")
			continue
		}
		email := agency.ContactEmail
		if email == "" {
			email = admin.Email
		}
		deliveries = append(deliveries, delivery{
			recipientID: admin.ID,
			email:       email,
			title:       fmt.Sprintf("Incident %s matched to your agency", incident.RefCode),
			body:        fmt.Sprintf("Incident %s (%s) was matched to %s. Responders have been shortlisted.", incident.RefCode, incident.Type, agency.Name),
		})
	}

	deliveries = append(deliveries, f.responderDeliveries(ctx, log, matched.Responders,
		fmt.Sprintf("You are shortlisted for incident %s", incident.RefCode),
		fmt.Sprintf("Incident %s (%s) occurred near your location. You may be assigned shortly.", incident.RefCode, incident.Type),
	)...)

	f.dispatch(ctx, log, incident.ID, deliveries)
}

// HandleStatusChangedEvent рассылает уведомления по таблице статусных переходов
func (f *FanoutEngine) HandleStatusChangedEvent(ctx context.Context, event eventbus.Event) {
	changed, ok := event.(models.StatusChangedEvent)
	if !ok {
		return
	}
	incident := changed.Incident
	log := f.logMethod("HandleStatusChangedEvent", incident.ID).WithField("new_status", changed.New)

	var deliveries []delivery
	switch changed.New {
	case models.StatusInProgress:
		deliveries = append(deliveries, f.reporterDelivery(ctx, log, incident,
			fmt.Sprintf("Incident %s in progress", incident.RefCode),
			fmt.Sprintf("Responders are working on your incident %s.", incident.RefCode))...)
		deliveries = append(deliveries, f.assignedDeliveries(ctx, log, incident,
			fmt.Sprintf("Incident %s in progress", incident.RefCode),
			fmt.Sprintf("Incident %s you are assigned to is now in progress.", incident.RefCode))...)

	case models.StatusEscalated:
		// Самый широкий fan-out в системе
		deliveries = append(deliveries, f.reporterDelivery(ctx, log, incident,
			fmt.Sprintf("Incident %s escalated", incident.RefCode),
			fmt.Sprintf("Your incident %s has been escalated for broader attention.", incident.RefCode))...)
		deliveries = append(deliveries, f.reviewerDeliveries(ctx, log, incident,
			fmt.Sprintf("Incident %s escalated", incident.RefCode),
			fmt.Sprintf("Incident %s (%s) has been escalated and needs coordination.", incident.RefCode, incident.Type))...)
		deliveries = append(deliveries, f.agencyWideDeliveries(ctx, log, incident)...)

	case models.StatusResolved:
		deliveries = append(deliveries, f.reporterDelivery(ctx, log, incident,
			fmt.Sprintf("Incident %s resolved", incident.RefCode),
			fmt.Sprintf("Your incident %s has been resolved.", incident.RefCode))...)
		deliveries = append(deliveries, f.assignedDeliveries(ctx, log, incident,
			fmt.Sprintf("Incident %s resolved", incident.RefCode),
			fmt.Sprintf("Incident %s has been resolved. You are released from the assignment.", incident.RefCode))...)

	case models.StatusCancelled:
		deliveries = append(deliveries, f.reporterDelivery(ctx, log, incident,
			fmt.Sprintf("Incident %s cancelled", incident.RefCode),
			fmt.Sprintf("Your incident %s has been cancelled.", incident.RefCode))...)
		deliveries = append(deliveries, f.assignedDeliveries(ctx, log, incident,
			fmt.Sprintf("Incident %s cancelled", incident.RefCode),
			fmt.Sprintf("Incident %s has been cancelled. You are released from the assignment.", incident.RefCode))...)

	default:
		// Остальные переходы покрыты событиями анализа и подбора
		return
	}

	f.dispatch(ctx, log, incident.ID, deliveries)
}

// reporterDelivery строит доставку репортеру инцидента
func (f *FanoutEngine) reporterDelivery(ctx context.Context, log *logrus.Entry, incident *models.Incident, title, body string) []delivery {
	reporter, err := f.directory.GetUser(ctx, incident.ReporterID)
	if err != nil {
		log.WithError(err).Error("Failed to load incident reporter")
		return nil
	}
	return []delivery{{
		recipientID: reporter.ID,
		email:       reporter.Email,
		title:       title,
		body:        body,
	}}
}

// reviewerDeliveries строит доставки всем пользователям с ролью ревьюера
func (f *FanoutEngine) reviewerDeliveries(ctx context.Context, log *logrus.Entry, incident *models.Incident, title, body string) []delivery {
	reviewers, err := f.directory.UsersByRole(ctx, models.RoleReviewer)
	if err != nil {
		log.WithError(err).Error("Failed to load reviewers")
		return nil
	}
	deliveries := make([]delivery, 0, len(reviewers))
	for _, reviewer := range reviewers {
		deliveries = append(deliveries, delivery{
			recipientID: reviewer.ID,
			email:       reviewer.Email,
			title:       title,
			body:        body,
		})
	}
	return deliveries
}

// assignedDeliveries строит доставки всем респондентам с активным назначением
// на инцидент (по снапшоту события)
func (f *FanoutEngine) assignedDeliveries(ctx context.Context, log *logrus.Entry, incident *models.Incident, title, body string) []delivery {
	var deliveries []delivery
	for _, a := range incident.Assignments {
		if !a.Active {
			continue
		}
		responder, err := f.directory.GetResponder(ctx, a.ResponderID)
		if err != nil {
			log.WithError(err).WithField("responder_id", a.ResponderID).Error("Failed to load assigned responder")
			continue
		}
		deliveries = append(deliveries, f.responderDeliveries(ctx, log, []*models.Responder{responder}, title, body)...)
	}
	return deliveries
}

// responderDeliveries строит доставки пользователям указанных респондентов
func (f *FanoutEngine) responderDeliveries(ctx context.Context, log *logrus.Entry, responders []*models.Responder, title, body string) []delivery {
	var deliveries []delivery
	for _, responder := range responders {
		user, err := f.directory.GetUser(ctx, responder.UserID)
		if err != nil {
			log.WithError(err).WithField("responder_id", responder.ID).Error("Failed to load responder user")
			continue
		}
		deliveries = append(deliveries, delivery{
			recipientID: user.ID,
			email:       user.Email,
			title:       title,
			body:        body,
		})
	}
	return deliveries
}

// agencyWideDeliveries строит доставки админам и всем респондентам агентств,
// поддерживающих тип инцидента
func (f *FanoutEngine) agencyWideDeliveries(ctx context.Context, log *logrus.Entry, incident *models.Incident) []delivery {
	agencies, err := f.directory.AgenciesSupporting(ctx, incident.Type)
	if err != nil {
		log.WithError(err).Error("Failed to load agencies for escalation fan-out")
		return nil
	}

	var deliveries []delivery
	agencyIDs := make([]uuid.UUID, 0, len(agencies))
	for _, agency := range agencies {
		agencyIDs = append(agencyIDs, agency.ID)
		admin, err := f.directory.GetUser(ctx, agency.AdminUserID)
		if err != nil {
			log.WithError(err).WithField("agency_id", agency.ID).Error("Failed to load agency admin")
			continue
		}
		email := agency.ContactEmail
		if email == "" {
			email = admin.Email
		}
		deliveries = append(deliveries, delivery{
			recipientID: admin.ID,
			email:       email,
			title:       fmt.Sprintf("Incident %s escalated", incident.RefCode),
			body:        fmt.Sprintf("Incident %s (%s) has been escalated. Your agency may need to respond.", incident.RefCode, incident.Type),
		})
	}
	if len(agencyIDs) == 0 {
		return deliveries
	}

	responders, err := f.directory.RespondersOfAgencies(ctx, agencyIDs)
	if err != nil {
		log.WithError(err).Error("Failed to load agency responders for escalation fan-out")
		return deliveries
	}
	deliveries = append(deliveries, f.responderDeliveries(ctx, log, responders,
		fmt.Sprintf("Incident %s escalated", incident.RefCode),
		fmt.Sprintf("Incident %s (%s) has been escalated. Stand by for assignment.", incident.RefCode, incident.Type),
	)...)
	return deliveries
}

// dispatch выполняет доставки независимо: in-app всегда, email при известном
// адресе; отказ одного получателя не останавливает остальных
func (f *FanoutEngine) dispatch(ctx context.Context, log *logrus.Entry, incidentID uuid.UUID, deliveries []delivery) {
	for _, d := range deliveries {
		targetID := incidentID
		if err := f.store.Push(ctx, &models.Notification{
			ID:          uuid.New(),
			RecipientID: d.recipientID,
			Title:       d.title,
			Body:        d.body,
			TargetID:    &targetID,
			TargetType:  "incident",
		}); err != nil {
			log.WithError(err).WithField("recipient_id", d.recipientID).Error("Failed to store in-app notification")
		}

		if d.email == "" {
			continue
		}
		if err := f.email.Publish(ctx, EmailMessage{
			To:        []string{d.email},
			Subject:   d.title,
			Body:      d.body,
			Timestamp: time.Now(),
		}); err != nil {
			log.WithError(err).WithField("recipient_id", d.recipientID).Error("Failed to enqueue email notification")
		}
	}
	log.WithField("deliveries", len(deliveries)).Info("Fan-out batch dispatched")
}

func (f *FanoutEngine) logMethod(method string, incidentID uuid.UUID) *logrus.Entry {
	return f.logger.WithFields(logrus.Fields{
		"service":     "notification",
		"method":      method,
		"incident_id": incidentID,
	})
}
