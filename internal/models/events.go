package models

import (
	"time"

	"github.com/google/uuid"
)

// Виды доменных событий. Используются шиной для маршрутизации по подписчикам.
const (
	EventIncidentCreated   = "incident.created"
	EventIncidentAnalyzed  = "incident.analyzed"
	EventStatusChanged     = "incident.status_changed"
	EventRespondersMatched = "dispatch.responders_matched"
	EventManualReview      = "dispatch.manual_review"
)

// IncidentCreatedEvent публикуется после сохранения нового инцидента
type IncidentCreatedEvent struct {
	Incident *Incident `json:"incident"`
	At       time.Time `json:"at"`
}

func (e IncidentCreatedEvent) EventKind() string          { return EventIncidentCreated }
func (e IncidentCreatedEvent) EventIncidentID() uuid.UUID { return e.Incident.ID }

// IncidentAnalyzedEvent публикуется после применения результата классификации
type IncidentAnalyzedEvent struct {
	Incident *Incident            `json:"incident"`
	Result   ClassificationResult `json:"result"`
	IsValid  bool                 `json:"is_valid"`
	At       time.Time            `json:"at"`
}

func (e IncidentAnalyzedEvent) EventKind() string          { return EventIncidentAnalyzed }
func (e IncidentAnalyzedEvent) EventIncidentID() uuid.UUID { return e.Incident.ID }

// StatusChangedEvent публикуется на каждом успешном переходе жизненного цикла.
// Incident - снапшот после перехода; после создания событие не мутируется.
type StatusChangedEvent struct {
	Incident *Incident      `json:"incident"`
	Previous IncidentStatus `json:"previous"`
	New      IncidentStatus `json:"new"`
	At       time.Time      `json:"at"`
}

func (e StatusChangedEvent) EventKind() string          { return EventStatusChanged }
func (e StatusChangedEvent) EventIncidentID() uuid.UUID { return e.Incident.ID }

// RespondersMatchedEvent публикуется координатором, когда найдены
// подходящие агентства и ближайшие респонденты
type RespondersMatchedEvent struct {
	Incident   *Incident    `json:"incident"`
	Agencies   []*Agency    `json:"agencies"`
	Responders []*Responder `json:"responders"`
	At         time.Time    `json:"at"`
}

func (e RespondersMatchedEvent) EventKind() string          { return EventRespondersMatched }
func (e RespondersMatchedEvent) EventIncidentID() uuid.UUID { return e.Incident.ID }

// ReviewReason - причина эскалации в ручную проверку
type ReviewReason string

const (
	ReasonLowConfidence  ReviewReason = "low_confidence"
	ReasonNoMedia        ReviewReason = "no_media"
	ReasonNoAgency       ReviewReason = "no_agency"
	ReasonNoResponder    ReviewReason = "no_responder"
	ReasonNoGeoResponder ReviewReason = "no_geo_responder"
)

// ManualReviewEvent публикуется, когда автоматическая диспетчеризация
// не может продолжаться и инцидент требует внимания оператора
type ManualReviewEvent struct {
	Incident *Incident    `json:"incident"`
	Reason   ReviewReason `json:"reason"`
	Detail   string       `json:"detail,omitempty"`
	At       time.Time    `json:"at"`
}

func (e ManualReviewEvent) EventKind() string          { return EventManualReview }
func (e ManualReviewEvent) EventIncidentID() uuid.UUID { return e.Incident.ID }
