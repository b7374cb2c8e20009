package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingIncident() *models.Incident {
	return &models.Incident{
		ID:         uuid.New(),
		RefCode:    "INC-20260829-ABC123",
		Type:       models.TypeUnknown,
		Status:     models.StatusPending,
		ReporterID: uuid.New(),
	}
}

func TestApplyClassification_Conclusive(t *testing.T) {
	// Подготовка
	inc := newPendingIncident()
	now := time.Now()
	result := models.ClassificationResult{
		Title:      "Пожар в жилом доме",
		Type:       models.TypeFire,
		Confidence: 0.92,
	}

	// Действие
	updated, event, isValid, err := ApplyClassification(inc, result, now)

	// Проверки
	require.NoError(t, err)
	assert.True(t, isValid)
	assert.Equal(t, models.StatusAnalyzed, updated.Status)
	assert.Equal(t, models.TypeFire, updated.Type)
	assert.Equal(t, result.Title, updated.Title)
	require.NotNil(t, updated.Confidence)
	assert.InDelta(t, 0.92, *updated.Confidence, 1e-9)
	require.NotNil(t, event)
	assert.Equal(t, models.StatusPending, event.Previous)
	assert.Equal(t, models.StatusAnalyzed, event.New)

	// Вход не мутирован
	assert.Equal(t, models.StatusPending, inc.Status)
	assert.Equal(t, models.TypeUnknown, inc.Type)
}

func TestApplyClassification_LowConfidenceEscape(t *testing.T) {
	// Уверенность ниже порога уводит в Invalid независимо от типа
	inc := newPendingIncident()

	updated, event, isValid, err := ApplyClassification(inc, models.ClassificationResult{
		Type:       models.TypeFire,
		Confidence: 0.4,
	}, time.Now())

	require.NoError(t, err)
	assert.False(t, isValid)
	assert.Equal(t, models.StatusInvalid, updated.Status)
	// Тип не выставляется для неубедительного результата
	assert.Equal(t, models.TypeUnknown, updated.Type)
	require.NotNil(t, event)
	assert.Equal(t, models.StatusInvalid, event.New)
}

func TestApplyClassification_UnknownTypeEscape(t *testing.T) {
	inc := newPendingIncident()

	updated, _, isValid, err := ApplyClassification(inc, models.ClassificationResult{
		Type:       models.TypeUnknown,
		Confidence: 0.99,
	}, time.Now())

	require.NoError(t, err)
	assert.False(t, isValid)
	assert.Equal(t, models.StatusInvalid, updated.Status)
}

func TestApplyClassification_TypeImmutable(t *testing.T) {
	// Однажды выставленный тип не перезаписывается
	inc := newPendingIncident()
	inc.Type = models.TypeFlood

	updated, _, _, err := ApplyClassification(inc, models.ClassificationResult{
		Type:       models.TypeFire,
		Confidence: 0.95,
	}, time.Now())

	require.NoError(t, err)
	assert.Equal(t, models.TypeFlood, updated.Type)
}

func TestApplyClassification_OnlyFromPending(t *testing.T) {
	inc := newPendingIncident()
	inc.Status = models.StatusAnalyzed

	_, _, _, err := ApplyClassification(inc, models.ClassificationResult{
		Type:       models.TypeFire,
		Confidence: 0.9,
	}, time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAssignFirstResponder(t *testing.T) {
	now := time.Now()

	t.Run("from pending", func(t *testing.T) {
		inc := newPendingIncident()
		updated, event, err := AssignFirstResponder(inc, now)
		require.NoError(t, err)
		assert.Equal(t, models.StatusReported, updated.Status)
		require.NotNil(t, event)
	})

	t.Run("from analyzed", func(t *testing.T) {
		inc := newPendingIncident()
		inc.Status = models.StatusAnalyzed
		updated, event, err := AssignFirstResponder(inc, now)
		require.NoError(t, err)
		assert.Equal(t, models.StatusReported, updated.Status)
		require.NotNil(t, event)
	})

	t.Run("noop beyond reported", func(t *testing.T) {
		inc := newPendingIncident()
		inc.Status = models.StatusInProgress
		updated, event, err := AssignFirstResponder(inc, now)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, updated.Status)
		assert.Nil(t, event)
	})

	t.Run("rejected from terminal", func(t *testing.T) {
		inc := newPendingIncident()
		inc.Status = models.StatusResolved
		_, _, err := AssignFirstResponder(inc, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestMonotonicLifecycle(t *testing.T) {
	// Полный прямой путь: Pending -> Analyzed -> Reported -> InProgress -> Resolved
	now := time.Now()
	inc := newPendingIncident()

	inc, _, _, err := ApplyClassification(inc, models.ClassificationResult{
		Type:       models.TypeMedical,
		Confidence: 0.85,
	}, now)
	require.NoError(t, err)

	inc, _, err = AssignFirstResponder(inc, now)
	require.NoError(t, err)

	inc, _, err = MarkInProgress(inc, now)
	require.NoError(t, err)

	inc, _, err = Resolve(inc, now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, inc.Status)

	// Назад дороги нет
	_, _, err = MarkInProgress(inc, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkInProgress_RequiresReported(t *testing.T) {
	inc := newPendingIncident()
	_, _, err := MarkInProgress(inc, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResolve_RequiresInProgress(t *testing.T) {
	inc := newPendingIncident()
	inc.Status = models.StatusReported
	_, _, err := Resolve(inc, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEscalate_RequiresInProgress(t *testing.T) {
	inc := newPendingIncident()
	inc.Status = models.StatusReported
	_, _, err := Escalate(inc, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	inc.Status = models.StatusInProgress
	updated, event, err := Escalate(inc, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.StatusEscalated, updated.Status)
	require.NotNil(t, event)
}

func TestEscalated_NoDirectResolve(t *testing.T) {
	inc := newPendingIncident()
	inc.Status = models.StatusEscalated
	_, _, err := Resolve(inc, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	now := time.Now()

	t.Run("after escalate", func(t *testing.T) {
		inc := newPendingIncident()
		inc.Status = models.StatusEscalated
		updated, event, err := Cancel(inc, now)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, updated.Status)
		require.NotNil(t, event)
	})

	t.Run("rejected from resolved", func(t *testing.T) {
		inc := newPendingIncident()
		inc.Status = models.StatusResolved
		_, _, err := Cancel(inc, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("idempotent when already cancelled", func(t *testing.T) {
		inc := newPendingIncident()
		inc.Status = models.StatusCancelled
		updated, event, err := Cancel(inc, now)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, updated.Status)
		assert.Nil(t, event)
	})
}
