package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_dispatch_system/internal/assignment"
	"github.com/shenikar/emergency_dispatch_system/internal/eventbus"
	"github.com/shenikar/emergency_dispatch_system/internal/lifecycle"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/sirupsen/logrus"
)

// Ошибки уровня сервиса. Проверяются через errors.Is.
var (
	// ErrForbidden - вызывающему не хватает прав на операцию
	ErrForbidden = errors.New("actor is not allowed to perform this operation")
	// ErrStatusConflict - конкурентный переход выиграл гонку за статус инцидента
	ErrStatusConflict = errors.New("incident status changed concurrently")
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error)
	// CommitTransition фиксирует снапшот инцидента при условии, что статус в бд
	// все еще expected; при проигранной гонке возвращает ErrStatusConflict
	CommitTransition(ctx context.Context, incident *models.Incident, expected models.IncidentStatus) error
	SetAddress(ctx context.Context, id uuid.UUID, address *models.Address) error

	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// AssignmentRepository определяет контракт для записей назначений
type AssignmentRepository interface {
	Create(ctx context.Context, a *models.Assignment) error
	// Deactivate деактивирует (не удаляет) назначение пары инцидент-респондент
	Deactivate(ctx context.Context, incidentID, responderID uuid.UUID) error
	// DeactivateAll деактивирует все активные назначения инцидента и
	// возвращает идентификаторы освобожденных респондентов
	DeactivateAll(ctx context.Context, incidentID uuid.UUID) ([]uuid.UUID, error)
}

// ResponderDirectory определяет контракт справочника респондентов и агентств
type ResponderDirectory interface {
	GetResponder(ctx context.Context, id uuid.UUID) (*models.Responder, error)
	// ClaimResponder атомарно переводит респондента available -> on_duty.
	// false означает, что кандидат уже недоступен (проиграна гонка назначения).
	ClaimResponder(ctx context.Context, id uuid.UUID) (bool, error)
	// ReleaseResponders возвращает респондентов в available
	ReleaseResponders(ctx context.Context, ids []uuid.UUID) error
	AgenciesSupporting(ctx context.Context, t models.IncidentType) ([]*models.Agency, error)
	RespondersOfAgencies(ctx context.Context, agencyIDs []uuid.UUID) ([]*models.Responder, error)
	UsersByRole(ctx context.Context, role models.UserRole) ([]*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// EventPublisher - контракт публикации доменных событий в шину
type EventPublisher interface {
	Publish(event eventbus.Event)
}

// IncidentService определяет контракт бизнес-логики диспетчеризации инцидентов
type IncidentService interface {
	CreateIncident(ctx context.Context, actor models.Actor, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error)

	ApplyClassification(ctx context.Context, incidentID uuid.UUID, result models.ClassificationResult) error
	AssignResponder(ctx context.Context, actor models.Actor, incidentID, responderID uuid.UUID) (*models.Assignment, error)
	ReleaseResponder(ctx context.Context, actor models.Actor, incidentID, responderID uuid.UUID) error

	MarkInProgress(ctx context.Context, actor models.Actor, id uuid.UUID) error
	Resolve(ctx context.Context, actor models.Actor, id uuid.UUID) error
	Escalate(ctx context.Context, actor models.Actor, id uuid.UUID) error
	Cancel(ctx context.Context, actor models.Actor, id uuid.UUID) error

	Reclassify(ctx context.Context, actor models.Actor, id uuid.UUID) error
}

type incidentService struct {
	repo        IncidentRepository
	assignments AssignmentRepository
	directory   ResponderDirectory
	publisher   EventPublisher
	logger      *logrus.Logger
}

func NewIncidentService(repo IncidentRepository, assignments AssignmentRepository, directory ResponderDirectory, publisher EventPublisher, logger *logrus.Logger) IncidentService {
	return &incidentService{
		repo:        repo,
		assignments: assignments,
		directory:   directory,
		publisher:   publisher,
		logger:      logger,
	}
}

const refCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRefCode формирует читаемый код инцидента вида INC-YYYYMMDD-XXXXXX
func GenerateRefCode(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate ref code suffix: %w", err)
	}
	for i, b := range suffix {
		suffix[i] = refCodeAlphabet[int(b)%len(refCodeAlphabet)]
	}
	return fmt.Sprintf("INC-%s-%s", now.Format("20060102"), suffix), nil
}

// CreateIncident регистрирует инцидент от имени репортера и публикует
// событие создания, запускающее классификацию и геокодирование
func (s *incidentService) CreateIncident(ctx context.Context, actor models.Actor, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"actor":   actor.ID,
	})
	log.Info("Attempting to create a new incident")

	now := time.Now()
	refCode, err := GenerateRefCode(now)
	if err != nil {
		return fmt.Errorf("service: could not generate ref code: %w", err)
	}

	incident.RefCode = refCode
	incident.Status = models.StatusPending
	incident.Type = models.TypeUnknown
	incident.ReporterID = actor.ID
	if incident.OccurredAt.IsZero() {
		incident.OccurredAt = now
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	s.publisher.Publish(models.IncidentCreatedEvent{Incident: incident, At: now})

	log.WithFields(logrus.Fields{
		"incident_id": incident.ID,
		"ref_code":    incident.RefCode,
	}).Info("Incident created successfully")
	return nil
}

// GetIncident получает инцидент по ID, сначала из кеша
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident cache")
	}
	if cached != nil {
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to get incident from repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to write incident cache")
	}
	return incident, nil
}

// ListIncidents возвращает список инцидентов с пагинацией
func (s *incidentService) ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "incident",
		"method":    "ListIncidents",
		"page":      page,
		"page_size": pageSize,
	})

	incidents, err := s.repo.ListIncidents(ctx, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}
	return incidents, nil
}

// ApplyClassification применяет результат классификатора ровно один раз:
// переход фиксируется при условии, что инцидент все еще Pending
func (s *incidentService) ApplyClassification(ctx context.Context, incidentID uuid.UUID, result models.ClassificationResult) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "ApplyClassification",
		"incident_id": incidentID,
	})

	incident, err := s.repo.GetByID(ctx, incidentID)
	if err != nil {
		return fmt.Errorf("service: could not load incident for classification: %w", err)
	}

	updated, event, isValid, err := lifecycle.ApplyClassification(incident, result, time.Now())
	if err != nil {
		log.WithError(err).Warn("Classification rejected by lifecycle")
		return err
	}

	if err := s.commit(ctx, updated, event.Previous); err != nil {
		return err
	}

	s.publisher.Publish(*event)
	s.publisher.Publish(models.IncidentAnalyzedEvent{
		Incident: updated,
		Result:   result,
		IsValid:  isValid,
		At:       event.At,
	})

	log.WithFields(logrus.Fields{
		"is_valid":   isValid,
		"new_status": updated.Status,
	}).Info("Classification applied")
	return nil
}

// AssignResponder назначает респондента на инцидент согласно политике.
// Правило доступности перепроверяется атомарным захватом (available -> on_duty)
// непосредственно перед фиксацией: из двух конкурентных назначений одного
// респондента ровно одно получает отказ "no longer available".
func (s *incidentService) AssignResponder(ctx context.Context, actor models.Actor, incidentID, responderID uuid.UUID) (*models.Assignment, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "incident",
		"method":       "AssignResponder",
		"incident_id":  incidentID,
		"responder_id": responderID,
	})

	if actor.Role != models.RoleAdmin && actor.Role != models.RoleResponder {
		return nil, ErrForbidden
	}

	incident, err := s.repo.GetByID(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("service: could not load incident for assignment: %w", err)
	}
	responder, err := s.directory.GetResponder(ctx, responderID)
	if err != nil {
		return nil, fmt.Errorf("service: could not load responder: %w", err)
	}

	tier, err := assignment.Decide(
		incident.Status,
		incident.ActiveAssignmentCount(),
		incident.HasActiveAssignment(responderID),
		responder.Availability,
	)
	if err != nil {
		log.WithError(err).Warn("Assignment rejected by policy")
		return nil, err
	}

	// Захват респондента - условная запись, а не проверка в памяти
	claimed, err := s.directory.ClaimResponder(ctx, responderID)
	if err != nil {
		return nil, fmt.Errorf("service: could not claim responder: %w", err)
	}
	if !claimed {
		log.Warn("Responder no longer available")
		return nil, assignment.ErrResponderUnavailable
	}

	record := &models.Assignment{
		ID:          uuid.New(),
		IncidentID:  incidentID,
		ResponderID: responderID,
		Tier:        tier,
		Active:      true,
	}
	if err := s.assignments.Create(ctx, record); err != nil {
		// Компенсация захвата, чтобы не оставить респондента занятым без назначения
		if relErr := s.directory.ReleaseResponders(ctx, []uuid.UUID{responderID}); relErr != nil {
			log.WithError(relErr).Error("Failed to release responder after assignment failure")
		}
		return nil, fmt.Errorf("service: could not create assignment: %w", err)
	}

	// Первый (Primary) респондент переводит инцидент в Reported
	if tier == models.TierPrimary {
		updated, event, err := lifecycle.AssignFirstResponder(incident, time.Now())
		if err != nil {
			s.rollbackAssignment(ctx, log, record)
			return nil, err
		}
		if event != nil {
			if err := s.commit(ctx, updated, event.Previous); err != nil {
				s.rollbackAssignment(ctx, log, record)
				return nil, err
			}
			s.publisher.Publish(*event)
		}
	}

	if err := s.repo.InvalidateIncidentCache(ctx, incidentID); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.WithField("tier", tier).Info("Responder assigned")
	return record, nil
}

// rollbackAssignment компенсирует уже зафиксированные захват респондента и
// запись назначения, когда статусный переход не состоялся: без этого
// респондент остался бы on_duty с активным назначением на инцидент, который
// так и не перешел в Reported
func (s *incidentService) rollbackAssignment(ctx context.Context, log *logrus.Entry, record *models.Assignment) {
	if err := s.assignments.Deactivate(ctx, record.IncidentID, record.ResponderID); err != nil {
		log.WithError(err).Error("Failed to deactivate assignment during rollback")
	}
	if err := s.directory.ReleaseResponders(ctx, []uuid.UUID{record.ResponderID}); err != nil {
		log.WithError(err).Error("Failed to release responder during rollback")
	}
}

// ReleaseResponder снимает респондента с инцидента: назначение деактивируется
// (не удаляется), доступность возвращается в available
func (s *incidentService) ReleaseResponder(ctx context.Context, actor models.Actor, incidentID, responderID uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "incident",
		"method":       "ReleaseResponder",
		"incident_id":  incidentID,
		"responder_id": responderID,
	})

	if actor.Role != models.RoleAdmin && actor.Role != models.RoleResponder {
		return ErrForbidden
	}

	if err := s.assignments.Deactivate(ctx, incidentID, responderID); err != nil {
		log.WithError(err).Error("Failed to deactivate assignment")
		return fmt.Errorf("service: could not deactivate assignment: %w", err)
	}
	if err := s.directory.ReleaseResponders(ctx, []uuid.UUID{responderID}); err != nil {
		log.WithError(err).Error("Failed to release responder")
		return fmt.Errorf("service: could not release responder: %w", err)
	}
	if err := s.repo.InvalidateIncidentCache(ctx, incidentID); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Responder released")
	return nil
}

// MarkInProgress переводит инцидент Reported -> InProgress
func (s *incidentService) MarkInProgress(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleResponder {
		return ErrForbidden
	}
	return s.applyTransition(ctx, "MarkInProgress", id, lifecycle.MarkInProgress, false)
}

// Resolve переводит инцидент InProgress -> Resolved и освобождает всех
// назначенных респондентов
func (s *incidentService) Resolve(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleResponder {
		return ErrForbidden
	}
	return s.applyTransition(ctx, "Resolve", id, lifecycle.Resolve, true)
}

// Escalate переводит инцидент InProgress -> Escalated
func (s *incidentService) Escalate(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleResponder {
		return ErrForbidden
	}
	return s.applyTransition(ctx, "Escalate", id, lifecycle.Escalate, false)
}

// Cancel отменяет инцидент. Доступно админу и репортеру собственного инцидента.
func (s *incidentService) Cancel(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service: could not load incident: %w", err)
	}
	if actor.Role != models.RoleAdmin && actor.ID != incident.ReporterID {
		return ErrForbidden
	}
	return s.applyTransition(ctx, "Cancel", id, lifecycle.Cancel, true)
}

// Reclassify повторно публикует событие создания для инцидента, застрявшего
// в Pending после отказа классификатора. Только для админа.
func (s *incidentService) Reclassify(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "Reclassify",
		"incident_id": id,
	})

	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service: could not load incident: %w", err)
	}
	if incident.Status != models.StatusPending {
		return fmt.Errorf("%w: cannot reclassify from status %q", lifecycle.ErrInvalidTransition, incident.Status)
	}

	s.publisher.Publish(models.IncidentCreatedEvent{Incident: incident, At: time.Now()})
	log.Info("Reclassification requested")
	return nil
}

type transitionFunc func(*models.Incident, time.Time) (*models.Incident, *models.StatusChangedEvent, error)

// applyTransition - общий путь фиксации перехода: загрузка снапшота, чистая
// функция перехода, условная запись, публикация события. При releaseAll
// дополнительно освобождаются все активные респонденты инцидента.
func (s *incidentService) applyTransition(ctx context.Context, method string, id uuid.UUID, fn transitionFunc, releaseAll bool) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      method,
		"incident_id": id,
	})

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service: could not load incident: %w", err)
	}

	updated, event, err := fn(incident, time.Now())
	if err != nil {
		log.WithError(err).Warn("Transition rejected by lifecycle")
		return err
	}
	if event == nil {
		// no-op переход (например повторная отмена)
		return nil
	}

	if err := s.commit(ctx, updated, event.Previous); err != nil {
		return err
	}

	if releaseAll {
		released, err := s.assignments.DeactivateAll(ctx, id)
		if err != nil {
			log.WithError(err).Error("Failed to deactivate assignments on terminal transition")
		} else if len(released) > 0 {
			if err := s.directory.ReleaseResponders(ctx, released); err != nil {
				log.WithError(err).Error("Failed to release responders on terminal transition")
			}
		}
	}

	s.publisher.Publish(*event)
	log.WithFields(logrus.Fields{
		"previous": event.Previous,
		"new":      event.New,
	}).Info("Incident transitioned")
	return nil
}

// commit фиксирует снапшот через условную запись и сбрасывает кеш
func (s *incidentService) commit(ctx context.Context, updated *models.Incident, expected models.IncidentStatus) error {
	if err := s.repo.CommitTransition(ctx, updated, expected); err != nil {
		return fmt.Errorf("service: could not commit transition: %w", err)
	}
	if err := s.repo.InvalidateIncidentCache(ctx, updated.ID); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate incident cache")
	}
	return nil
}
