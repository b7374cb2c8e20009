// Package dispatch - координатор автоматической диспетчеризации: реагирует на
// события инцидентов, запускает классификацию и геокодирование, подбирает
// агентства и ближайших респондентов.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_dispatch_system/internal/eventbus"
	"github.com/shenikar/emergency_dispatch_system/internal/geomatch"
	"github.com/shenikar/emergency_dispatch_system/internal/lifecycle"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/service"
	"github.com/sirupsen/logrus"
)

// Classifier - контракт внешнего сервиса классификации медиа
type Classifier interface {
	Analyze(ctx context.Context, mediaRef string) (models.ClassificationResult, error)
}

// Geocoder - контракт внешнего сервиса обратного геокодирования
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*models.Address, error)
}

// IncidentClassifier - часть сервиса инцидентов, нужная координатору
type IncidentClassifier interface {
	ApplyClassification(ctx context.Context, incidentID uuid.UUID, result models.ClassificationResult) error
}

// AddressWriter сохраняет разрешенный адрес инцидента
type AddressWriter interface {
	SetAddress(ctx context.Context, id uuid.UUID, address *models.Address) error
}

// AgencyDirectory - часть справочника, нужная для подбора респондентов
type AgencyDirectory interface {
	AgenciesSupporting(ctx context.Context, t models.IncidentType) ([]*models.Agency, error)
	RespondersOfAgencies(ctx context.Context, agencyIDs []uuid.UUID) ([]*models.Responder, error)
}

// Coordinator - подписчик шины, продвигающий инцидент по конвейеру
// диспетчеризации: создан -> классифицирован -> подобраны респонденты
type Coordinator struct {
	classifier Classifier
	geocoder   Geocoder
	incidents  IncidentClassifier
	addresses  AddressWriter
	directory  AgencyDirectory
	publisher  service.EventPublisher
	logger     *logrus.Logger

	wg sync.WaitGroup
}

func NewCoordinator(classifier Classifier, geocoder Geocoder, incidents IncidentClassifier, addresses AddressWriter, directory AgencyDirectory, publisher service.EventPublisher, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		classifier: classifier,
		geocoder:   geocoder,
		incidents:  incidents,
		addresses:  addresses,
		directory:  directory,
		publisher:  publisher,
		logger:     logger,
	}
}

// Register подписывает координатор на события шины
func (c *Coordinator) Register(bus *eventbus.Bus) {
	bus.Subscribe(models.EventIncidentCreated, c.handleCreated)
	bus.Subscribe(models.EventIncidentAnalyzed, c.handleAnalyzed)
}

// handleCreated запускает геокодирование и классификацию нового инцидента.
// Геокодирование - независимый побочный шаг: его отказ не блокирует конвейер.
func (c *Coordinator) handleCreated(ctx context.Context, event eventbus.Event) {
	created, ok := event.(models.IncidentCreatedEvent)
	if !ok {
		return
	}
	incident := created.Incident
	log := c.logger.WithFields(logrus.Fields{
		"service":     "dispatch",
		"method":      "handleCreated",
		"incident_id": incident.ID,
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.resolveAddress(ctx, incident)
	}()

	mediaRef := incident.PrimaryMediaRef()
	if mediaRef == "" {
		log.Warn("Incident has no media, routing to manual review")
		c.publisher.Publish(models.ManualReviewEvent{
			Incident: incident,
			Reason:   models.ReasonNoMedia,
			At:       time.Now(),
		})
		return
	}

	result, err := c.classifier.Analyze(ctx, mediaRef)
	if err != nil {
		// Инцидент остается Pending; оператор может запросить повторную классификацию
		log.WithError(err).Error("Classifier call failed, incident left pending")
		return
	}

	if err := c.incidents.ApplyClassification(ctx, incident.ID, result); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) || errors.Is(err, service.ErrStatusConflict) {
			// Классификация уже применена конкурентно или инцидент отменен
			log.WithError(err).Info("Classification result discarded")
			return
		}
		log.WithError(err).Error("Failed to apply classification")
	}
}

// Wait блокирует до завершения фоновых геокодирований. Вызывается при
// останове после закрытия шины, чтобы не оборвать запись адреса на полпути.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// resolveAddress обогащает инцидент человекочитаемым адресом
func (c *Coordinator) resolveAddress(ctx context.Context, incident *models.Incident) {
	log := c.logger.WithFields(logrus.Fields{
		"service":     "dispatch",
		"method":      "resolveAddress",
		"incident_id": incident.ID,
	})

	address, err := c.geocoder.ReverseGeocode(ctx, incident.Latitude, incident.Longitude)
	if err != nil {
		log.WithError(err).Warn("Reverse geocoding failed, incident kept without address")
		return
	}
	if address == nil {
		log.Debug("No address resolved for incident coordinates")
		return
	}
	if err := c.addresses.SetAddress(ctx, incident.ID, address); err != nil {
		log.WithError(err).Error("Failed to store resolved address")
	}
}

// handleAnalyzed подбирает агентства и ближайших респондентов для валидного
// инцидента; любой тупик конвейера превращается в запрос ручной проверки
func (c *Coordinator) handleAnalyzed(ctx context.Context, event eventbus.Event) {
	analyzed, ok := event.(models.IncidentAnalyzedEvent)
	if !ok {
		return
	}
	incident := analyzed.Incident
	log := c.logger.WithFields(logrus.Fields{
		"service":       "dispatch",
		"method":        "handleAnalyzed",
		"incident_id":   incident.ID,
		"incident_type": incident.Type,
	})

	if !analyzed.IsValid {
		c.publisher.Publish(models.ManualReviewEvent{
			Incident: incident,
			Reason:   models.ReasonLowConfidence,
			Detail:   fmt.Sprintf("classifier confidence %.2f below threshold %.2f", analyzed.Result.Confidence, models.MinConfidence),
			At:       time.Now(),
		})
		return
	}

	agencies, err := c.directory.AgenciesSupporting(ctx, incident.Type)
	if err != nil {
		log.WithError(err).Error("Failed to look up agencies")
		return
	}
	if len(agencies) == 0 {
		log.Warn("No agency supports incident type, routing to manual review")
		c.publisher.Publish(models.ManualReviewEvent{
			Incident: incident,
			Reason:   models.ReasonNoAgency,
			Detail:   fmt.Sprintf("no agency supports incident type %q", incident.Type),
			At:       time.Now(),
		})
		return
	}

	agencyIDs := make([]uuid.UUID, 0, len(agencies))
	for _, agency := range agencies {
		agencyIDs = append(agencyIDs, agency.ID)
	}

	responders, err := c.directory.RespondersOfAgencies(ctx, agencyIDs)
	if err != nil {
		log.WithError(err).Error("Failed to look up agency responders")
		return
	}

	candidates := make([]*models.Responder, 0, len(responders))
	for _, responder := range responders {
		if responder.Availability == models.AvailabilityAvailable {
			candidates = append(candidates, responder)
		}
	}
	if len(candidates) == 0 {
		log.Warn("No available responders in matched agencies, routing to manual review")
		c.publisher.Publish(models.ManualReviewEvent{
			Incident: incident,
			Reason:   models.ReasonNoResponder,
			At:       time.Now(),
		})
		return
	}

	origin := models.Coordinates{Latitude: incident.Latitude, Longitude: incident.Longitude}
	matches := geomatch.Nearest(candidates, origin, geomatch.DefaultLimit)
	if len(matches) == 0 {
		log.Warn("No responder has known coordinates, routing to manual review")
		c.publisher.Publish(models.ManualReviewEvent{
			Incident: incident,
			Reason:   models.ReasonNoGeoResponder,
			At:       time.Now(),
		})
		return
	}

	shortlist := make([]*models.Responder, 0, len(matches))
	for _, match := range matches {
		shortlist = append(shortlist, match.Responder)
	}

	log.WithFields(logrus.Fields{
		"agencies":   len(agencies),
		"responders": len(shortlist),
	}).Info("Responders matched for incident")
	c.publisher.Publish(models.RespondersMatchedEvent{
		Incident:   incident,
		Agencies:   agencies,
		Responders: shortlist,
		At:         time.Now(),
	})
}
