// Package lifecycle владеет графом переходов жизненного цикла инцидента.
// Все функции чистые: принимают снапшот инцидента и возвращают новый снапшот
// вместе с порожденным событием перехода, не мутируя вход. Фиксацию нового
// состояния и публикацию событий выполняет вызывающий слой.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
)

// ErrInvalidTransition возвращается при попытке недопустимого перехода.
// Проверяется через errors.Is.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

func invalidTransition(from models.IncidentStatus, op string) error {
	return fmt.Errorf("%w: cannot %s from status %q", ErrInvalidTransition, op, from)
}

// clone делает копию снапшота инцидента вместе со слайсом назначений
func clone(inc *models.Incident) *models.Incident {
	out := *inc
	if inc.Assignments != nil {
		out.Assignments = make([]*models.Assignment, len(inc.Assignments))
		copy(out.Assignments, inc.Assignments)
	}
	if inc.MediaRefs != nil {
		out.MediaRefs = append([]string(nil), inc.MediaRefs...)
	}
	if inc.Confidence != nil {
		c := *inc.Confidence
		out.Confidence = &c
	}
	return &out
}

// transition переводит копию инцидента в новый статус и формирует событие
func transition(inc *models.Incident, to models.IncidentStatus, now time.Time) (*models.Incident, *models.StatusChangedEvent) {
	updated := clone(inc)
	previous := updated.Status
	updated.Status = to
	updated.UpdatedAt = now
	return updated, &models.StatusChangedEvent{
		Incident: updated,
		Previous: previous,
		New:      to,
		At:       now,
	}
}

// ApplyClassification применяет результат классификатора. Допустимо только из
// Pending. Неизвестный тип или уверенность ниже порога уводят инцидент в
// Invalid; иначе инцидент становится Analyzed. Тип выставляется только если он
// все еще Unknown: однажды определенный тип неизменяем.
func ApplyClassification(inc *models.Incident, result models.ClassificationResult, now time.Time) (*models.Incident, *models.StatusChangedEvent, bool, error) {
	if inc.Status != models.StatusPending {
		return nil, nil, false, invalidTransition(inc.Status, "apply classification")
	}

	target := models.StatusAnalyzed
	isValid := result.IsConclusive()
	if !isValid {
		target = models.StatusInvalid
	}

	updated, event := transition(inc, target, now)
	updated.Title = result.Title
	confidence := result.Confidence
	updated.Confidence = &confidence
	if isValid && updated.Type == models.TypeUnknown {
		updated.Type = result.Type
	}
	return updated, event, isValid, nil
}

// AssignFirstResponder переводит инцидент в Reported при первом прикреплении
// респондента. Если инцидент уже прошел Pending/Analyzed, но не завершен -
// no-op без события.
func AssignFirstResponder(inc *models.Incident, now time.Time) (*models.Incident, *models.StatusChangedEvent, error) {
	switch inc.Status {
	case models.StatusPending, models.StatusAnalyzed:
		updated, event := transition(inc, models.StatusReported, now)
		return updated, event, nil
	case models.StatusReported, models.StatusInProgress, models.StatusEscalated:
		return clone(inc), nil, nil
	default:
		return nil, nil, invalidTransition(inc.Status, "assign responder")
	}
}

// MarkInProgress требует текущий статус Reported
func MarkInProgress(inc *models.Incident, now time.Time) (*models.Incident, *models.StatusChangedEvent, error) {
	if inc.Status != models.StatusReported {
		return nil, nil, invalidTransition(inc.Status, "mark in progress")
	}
	updated, event := transition(inc, models.StatusInProgress, now)
	return updated, event, nil
}

// Resolve требует текущий статус InProgress
func Resolve(inc *models.Incident, now time.Time) (*models.Incident, *models.StatusChangedEvent, error) {
	if inc.Status != models.StatusInProgress {
		return nil, nil, invalidTransition(inc.Status, "resolve")
	}
	updated, event := transition(inc, models.StatusResolved, now)
	return updated, event, nil
}

// Escalate требует текущий статус InProgress. Возврата из Escalated в
// InProgress или Resolved граф не предусматривает, выход - только Cancel.
func Escalate(inc *models.Incident, now time.Time) (*models.Incident, *models.StatusChangedEvent, error) {
	if inc.Status != models.StatusInProgress {
		return nil, nil, invalidTransition(inc.Status, "escalate")
	}
	updated, event := transition(inc, models.StatusEscalated, now)
	return updated, event, nil
}

// Cancel отклоняется только из Resolved. Повторная отмена уже отмененного
// инцидента - no-op без события.
func Cancel(inc *models.Incident, now time.Time) (*models.Incident, *models.StatusChangedEvent, error) {
	switch inc.Status {
	case models.StatusResolved:
		return nil, nil, invalidTransition(inc.Status, "cancel")
	case models.StatusCancelled:
		return clone(inc), nil, nil
	default:
		updated, event := transition(inc, models.StatusCancelled, now)
		return updated, event, nil
	}
}
