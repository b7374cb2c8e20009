// Package assignment содержит политику назначения респондентов на инциденты:
// порядок правил отказа и детерминированное определение роли (tier).
package assignment

import (
	"errors"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
)

// Причины отказа политики. Возвращаются вызывающему как есть, без
// обобщенной ошибки, и проверяются через errors.Is.
var (
	ErrIncidentClosed       = errors.New("assignment rejected: incident is resolved or cancelled")
	ErrAlreadyAssigned      = errors.New("assignment rejected: responder already has an active assignment on this incident")
	ErrResponderUnavailable = errors.New("assignment rejected: responder is not available")
)

// Границы ярусов - фиксированные константы, не настраиваются по типу инцидента
const (
	primaryMaxActive = 0
	supportMaxActive = 3
)

// TierFor возвращает роль для очередного респондента по количеству уже
// активных назначений на инциденте: 0 -> Primary, 1..3 -> Support, >3 -> Backup.
func TierFor(activeCount int) models.AssignmentTier {
	switch {
	case activeCount <= primaryMaxActive:
		return models.TierPrimary
	case activeCount <= supportMaxActive:
		return models.TierSupport
	default:
		return models.TierBackup
	}
}

// Decide проверяет допустимость назначения кандидата и возвращает роль.
// Правила применяются по порядку, срабатывает первое совпавшее.
func Decide(status models.IncidentStatus, activeCount int, alreadyAssigned bool, availability models.Availability) (models.AssignmentTier, error) {
	if status == models.StatusResolved || status == models.StatusCancelled {
		return "", ErrIncidentClosed
	}
	if alreadyAssigned {
		return "", ErrAlreadyAssigned
	}
	if availability != models.AvailabilityAvailable {
		return "", ErrResponderUnavailable
	}
	return TierFor(activeCount), nil
}
