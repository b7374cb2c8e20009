package service

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_dispatch_system/internal/assignment"
	"github.com/shenikar/emergency_dispatch_system/internal/eventbus"
	"github.com/shenikar/emergency_dispatch_system/internal/lifecycle"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestIncidentService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestIncidentService(t *testing.T) (*incidentService, *mocks.MockIncidentRepository, *mocks.MockAssignmentRepository, *mocks.MockResponderDirectory, *mocks.MockEventPublisher) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockIncidentRepository(ctrl)
	assignMock := mocks.NewMockAssignmentRepository(ctrl)
	dirMock := mocks.NewMockResponderDirectory(ctrl)
	pubMock := mocks.NewMockEventPublisher(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	svc := NewIncidentService(repoMock, assignMock, dirMock, pubMock, logger)
	return svc.(*incidentService), repoMock, assignMock, dirMock, pubMock
}

func adminActor() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleAdmin}
}

func TestGenerateRefCode_Format(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	code, err := GenerateRefCode(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^INC-20260829-[A-Z0-9]{6}$`), code)
}

func TestCreateIncident_Success(t *testing.T) {
	// Подготовка
	svc, repoMock, _, _, pubMock := newTestIncidentService(t)
	ctx := context.Background()
	reporter := models.Actor{ID: uuid.New(), Role: models.RoleReporter}
	incident := &models.Incident{
		Latitude:  6.5244,
		Longitude: 3.3792,
		MediaRefs: []string{"media/photo.jpg"},
	}

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, inc *models.Incident) error {
			// Симулируем, что БД присвоила ID
			inc.ID = uuid.New()
			return nil
		}).Times(1)

	var published eventbus.Event
	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event eventbus.Event) { published = event }).
		Times(1)

	// Действие
	err := svc.CreateIncident(ctx, reporter, incident)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, incident.Status)
	assert.Equal(t, models.TypeUnknown, incident.Type)
	assert.Equal(t, reporter.ID, incident.ReporterID)
	assert.Regexp(t, `^INC-\d{8}-[A-Z0-9]{6}$`, incident.RefCode)
	require.IsType(t, models.IncidentCreatedEvent{}, published)
}

func TestApplyClassification_Valid(t *testing.T) {
	// Подготовка
	svc, repoMock, _, _, pubMock := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	pending := &models.Incident{
		ID:     incidentID,
		Type:   models.TypeUnknown,
		Status: models.StatusPending,
	}
	result := models.ClassificationResult{
		Title:      "Warehouse fire",
		Type:       models.TypeFire,
		Confidence: 0.88,
	}

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(pending, nil).Times(1)
	repoMock.EXPECT().
		CommitTransition(ctx, gomock.Any(), models.StatusPending).
		DoAndReturn(func(ctx context.Context, inc *models.Incident, expected models.IncidentStatus) error {
			assert.Equal(t, models.StatusAnalyzed, inc.Status)
			assert.Equal(t, models.TypeFire, inc.Type)
			return nil
		}).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).Times(1)

	// Сначала событие перехода, затем событие анализа
	var events []eventbus.Event
	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event eventbus.Event) { events = append(events, event) }).
		Times(2)

	// Действие
	err := svc.ApplyClassification(ctx, incidentID, result)

	// Проверки
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.IsType(t, models.StatusChangedEvent{}, events[0])
	analyzed, ok := events[1].(models.IncidentAnalyzedEvent)
	require.True(t, ok)
	assert.True(t, analyzed.IsValid)
}

func TestApplyClassification_LowConfidence(t *testing.T) {
	svc, repoMock, _, _, pubMock := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	pending := &models.Incident{ID: incidentID, Type: models.TypeUnknown, Status: models.StatusPending}

	repoMock.EXPECT().GetByID(ctx, incidentID).Return(pending, nil).Times(1)
	repoMock.EXPECT().
		CommitTransition(ctx, gomock.Any(), models.StatusPending).
		DoAndReturn(func(ctx context.Context, inc *models.Incident, expected models.IncidentStatus) error {
			assert.Equal(t, models.StatusInvalid, inc.Status)
			return nil
		}).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).Times(1)

	var events []eventbus.Event
	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event eventbus.Event) { events = append(events, event) }).
		Times(2)

	err := svc.ApplyClassification(ctx, incidentID, models.ClassificationResult{
		Type:       models.TypeFire,
		Confidence: 0.4,
	})

	require.NoError(t, err)
	analyzed := events[1].(models.IncidentAnalyzedEvent)
	assert.False(t, analyzed.IsValid)
}

func TestApplyClassification_RejectedWhenNotPending(t *testing.T) {
	svc, repoMock, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	repoMock.EXPECT().GetByID(ctx, incidentID).
		Return(&models.Incident{ID: incidentID, Status: models.StatusAnalyzed}, nil).
		Times(1)

	err := svc.ApplyClassification(ctx, incidentID, models.ClassificationResult{
		Type:       models.TypeFire,
		Confidence: 0.9,
	})

	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestAssignResponder_PrimaryAdvancesToReported(t *testing.T) {
	// Подготовка
	svc, repoMock, assignMock, dirMock, pubMock := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	responderID := uuid.New()
	analyzed := &models.Incident{ID: incidentID, Status: models.StatusAnalyzed, Type: models.TypeFire}

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(analyzed, nil).Times(1)
	dirMock.EXPECT().GetResponder(ctx, responderID).
		Return(&models.Responder{ID: responderID, Availability: models.AvailabilityAvailable}, nil).
		Times(1)
	dirMock.EXPECT().ClaimResponder(ctx, responderID).Return(true, nil).Times(1)
	assignMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, a *models.Assignment) error {
			assert.Equal(t, models.TierPrimary, a.Tier)
			assert.True(t, a.Active)
			return nil
		}).Times(1)
	repoMock.EXPECT().CommitTransition(ctx, gomock.Any(), models.StatusAnalyzed).Return(nil).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).AnyTimes()

	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event eventbus.Event) {
			changed, ok := event.(models.StatusChangedEvent)
			require.True(t, ok)
			assert.Equal(t, models.StatusReported, changed.New)
		}).Times(1)

	// Действие
	record, err := svc.AssignResponder(ctx, adminActor(), incidentID, responderID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.TierPrimary, record.Tier)
}

func TestAssignResponder_SupportTierDoesNotTransition(t *testing.T) {
	svc, repoMock, assignMock, dirMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	responderID := uuid.New()
	reported := &models.Incident{
		ID:     incidentID,
		Status: models.StatusReported,
		Assignments: []*models.Assignment{
			{ResponderID: uuid.New(), Active: true},
		},
	}

	repoMock.EXPECT().GetByID(ctx, incidentID).Return(reported, nil).Times(1)
	dirMock.EXPECT().GetResponder(ctx, responderID).
		Return(&models.Responder{ID: responderID, Availability: models.AvailabilityAvailable}, nil).
		Times(1)
	dirMock.EXPECT().ClaimResponder(ctx, responderID).Return(true, nil).Times(1)
	assignMock.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).Times(1)
	// Никаких CommitTransition и Publish: статус не меняется

	record, err := svc.AssignResponder(ctx, adminActor(), incidentID, responderID)

	require.NoError(t, err)
	assert.Equal(t, models.TierSupport, record.Tier)
}

func TestAssignResponder_RollsBackWhenTransitionRejected(t *testing.T) {
	// Primary-назначение на терминальный Invalid проходит политику (она
	// отклоняет только Resolved/Cancelled), но статусный переход отклоняется.
	// Захват респондента и запись назначения должны быть откатаны, чтобы не
	// оставить респондента on_duty на инциденте, который не перешел в Reported.
	svc, repoMock, assignMock, dirMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	responderID := uuid.New()

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, incidentID).
		Return(&models.Incident{ID: incidentID, Status: models.StatusInvalid}, nil).Times(1)
	dirMock.EXPECT().GetResponder(ctx, responderID).
		Return(&models.Responder{ID: responderID, Availability: models.AvailabilityAvailable}, nil).Times(1)
	dirMock.EXPECT().ClaimResponder(ctx, responderID).Return(true, nil).Times(1)
	assignMock.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)

	// Компенсация: назначение деактивируется, респондент возвращается в пул
	assignMock.EXPECT().Deactivate(ctx, incidentID, responderID).Return(nil).Times(1)
	dirMock.EXPECT().ReleaseResponders(ctx, []uuid.UUID{responderID}).Return(nil).Times(1)
	// Никаких CommitTransition и Publish: переход не состоялся

	// Действие
	_, err := svc.AssignResponder(ctx, adminActor(), incidentID, responderID)

	// Проверки
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestAssignResponder_PolicyRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable responder", func(t *testing.T) {
		svc, repoMock, _, dirMock, _ := newTestIncidentService(t)
		incidentID := uuid.New()
		responderID := uuid.New()

		repoMock.EXPECT().GetByID(ctx, incidentID).
			Return(&models.Incident{ID: incidentID, Status: models.StatusReported}, nil).Times(1)
		dirMock.EXPECT().GetResponder(ctx, responderID).
			Return(&models.Responder{ID: responderID, Availability: models.AvailabilityOnDuty}, nil).Times(1)

		_, err := svc.AssignResponder(ctx, adminActor(), incidentID, responderID)
		assert.ErrorIs(t, err, assignment.ErrResponderUnavailable)
	})

	t.Run("already assigned", func(t *testing.T) {
		svc, repoMock, _, dirMock, _ := newTestIncidentService(t)
		incidentID := uuid.New()
		responderID := uuid.New()

		repoMock.EXPECT().GetByID(ctx, incidentID).
			Return(&models.Incident{
				ID:     incidentID,
				Status: models.StatusReported,
				Assignments: []*models.Assignment{
					{ResponderID: responderID, Active: true},
				},
			}, nil).Times(1)
		dirMock.EXPECT().GetResponder(ctx, responderID).
			Return(&models.Responder{ID: responderID, Availability: models.AvailabilityAvailable}, nil).Times(1)

		_, err := svc.AssignResponder(ctx, adminActor(), incidentID, responderID)
		assert.ErrorIs(t, err, assignment.ErrAlreadyAssigned)
	})

	t.Run("closed incident", func(t *testing.T) {
		svc, repoMock, _, dirMock, _ := newTestIncidentService(t)
		incidentID := uuid.New()
		responderID := uuid.New()

		repoMock.EXPECT().GetByID(ctx, incidentID).
			Return(&models.Incident{ID: incidentID, Status: models.StatusResolved}, nil).Times(1)
		dirMock.EXPECT().GetResponder(ctx, responderID).
			Return(&models.Responder{ID: responderID, Availability: models.AvailabilityAvailable}, nil).Times(1)

		_, err := svc.AssignResponder(ctx, adminActor(), incidentID, responderID)
		assert.ErrorIs(t, err, assignment.ErrIncidentClosed)
	})

	t.Run("forbidden for reporter", func(t *testing.T) {
		svc, _, _, _, _ := newTestIncidentService(t)
		_, err := svc.AssignResponder(ctx, models.Actor{ID: uuid.New(), Role: models.RoleReporter}, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestAssignResponder_ConcurrentRace(t *testing.T) {
	// Два конкурентных назначения одного доступного респондента:
	// ровно одно успешно, второе получает отказ политики
	svc, repoMock, assignMock, dirMock, pubMock := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	responderID := uuid.New()

	repoMock.EXPECT().GetByID(ctx, incidentID).
		DoAndReturn(func(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
			return &models.Incident{ID: incidentID, Status: models.StatusAnalyzed}, nil
		}).Times(2)
	dirMock.EXPECT().GetResponder(ctx, responderID).
		Return(&models.Responder{ID: responderID, Availability: models.AvailabilityAvailable}, nil).
		Times(2)

	// Условная запись: захват удается ровно один раз
	var claimed atomic.Bool
	dirMock.EXPECT().ClaimResponder(ctx, responderID).
		DoAndReturn(func(ctx context.Context, id uuid.UUID) (bool, error) {
			return claimed.CompareAndSwap(false, true), nil
		}).Times(2)

	assignMock.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)
	repoMock.EXPECT().CommitTransition(ctx, gomock.Any(), models.StatusAnalyzed).Return(nil).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).AnyTimes()
	pubMock.EXPECT().Publish(gomock.Any()).Times(1)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AssignResponder(ctx, adminActor(), incidentID, responderID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, assignment.ErrResponderUnavailable)
			rejections++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)
}

func TestResolve_ReleasesAssignedResponders(t *testing.T) {
	// Подготовка
	svc, repoMock, assignMock, dirMock, pubMock := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	responderA := uuid.New()
	responderB := uuid.New()
	inProgress := &models.Incident{
		ID:     incidentID,
		Status: models.StatusInProgress,
		Assignments: []*models.Assignment{
			{ResponderID: responderA, Active: true},
			{ResponderID: responderB, Active: true},
		},
	}

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(inProgress, nil).Times(1)
	repoMock.EXPECT().CommitTransition(ctx, gomock.Any(), models.StatusInProgress).Return(nil).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).Times(1)
	assignMock.EXPECT().DeactivateAll(ctx, incidentID).
		Return([]uuid.UUID{responderA, responderB}, nil).Times(1)
	dirMock.EXPECT().ReleaseResponders(ctx, []uuid.UUID{responderA, responderB}).Return(nil).Times(1)
	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event eventbus.Event) {
			changed := event.(models.StatusChangedEvent)
			assert.Equal(t, models.StatusResolved, changed.New)
		}).Times(1)

	// Действие
	err := svc.Resolve(ctx, adminActor(), incidentID)

	// Проверки
	require.NoError(t, err)
}

func TestCancel_Authorization(t *testing.T) {
	ctx := context.Background()
	reporterID := uuid.New()

	t.Run("reporter can cancel own incident", func(t *testing.T) {
		svc, repoMock, assignMock, _, pubMock := newTestIncidentService(t)
		incidentID := uuid.New()
		inc := &models.Incident{ID: incidentID, Status: models.StatusPending, ReporterID: reporterID}

		repoMock.EXPECT().GetByID(ctx, incidentID).Return(inc, nil).Times(2)
		repoMock.EXPECT().CommitTransition(ctx, gomock.Any(), models.StatusPending).Return(nil).Times(1)
		repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).Times(1)
		assignMock.EXPECT().DeactivateAll(ctx, incidentID).Return(nil, nil).Times(1)
		pubMock.EXPECT().Publish(gomock.Any()).Times(1)

		err := svc.Cancel(ctx, models.Actor{ID: reporterID, Role: models.RoleReporter}, incidentID)
		require.NoError(t, err)
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		svc, repoMock, _, _, _ := newTestIncidentService(t)
		incidentID := uuid.New()
		inc := &models.Incident{ID: incidentID, Status: models.StatusPending, ReporterID: reporterID}

		repoMock.EXPECT().GetByID(ctx, incidentID).Return(inc, nil).Times(1)

		err := svc.Cancel(ctx, models.Actor{ID: uuid.New(), Role: models.RoleReporter}, incidentID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestCancel_AfterEscalate(t *testing.T) {
	svc, repoMock, assignMock, dirMock, pubMock := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	responderID := uuid.New()
	escalated := &models.Incident{
		ID:     incidentID,
		Status: models.StatusEscalated,
		Assignments: []*models.Assignment{
			{ResponderID: responderID, Active: true},
		},
	}

	repoMock.EXPECT().GetByID(ctx, incidentID).Return(escalated, nil).Times(2)
	repoMock.EXPECT().CommitTransition(ctx, gomock.Any(), models.StatusEscalated).Return(nil).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).Times(1)
	assignMock.EXPECT().DeactivateAll(ctx, incidentID).Return([]uuid.UUID{responderID}, nil).Times(1)
	dirMock.EXPECT().ReleaseResponders(ctx, []uuid.UUID{responderID}).Return(nil).Times(1)
	pubMock.EXPECT().Publish(gomock.Any()).Times(1)

	err := svc.Cancel(ctx, adminActor(), incidentID)
	require.NoError(t, err)
}

func TestCancel_RejectedFromResolved(t *testing.T) {
	svc, repoMock, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	repoMock.EXPECT().GetByID(ctx, incidentID).
		Return(&models.Incident{ID: incidentID, Status: models.StatusResolved}, nil).Times(2)

	err := svc.Cancel(ctx, adminActor(), incidentID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestGetIncident_CacheFlow(t *testing.T) {
	svc, repoMock, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	expected := &models.Incident{ID: incidentID, RefCode: "INC-20260829-AAAAAA"}

	// Промах кеша, попадание в БД, запись в кеш
	repoMock.EXPECT().GetIncidentFromCache(ctx, incidentID).Return(nil, nil).Times(1)
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(expected, nil).Times(1)
	repoMock.EXPECT().SetIncidentCache(ctx, expected).Return(nil).Times(1)

	incident, err := svc.GetIncident(ctx, incidentID)
	require.NoError(t, err)
	assert.Equal(t, expected, incident)
}

func TestReclassify(t *testing.T) {
	ctx := context.Background()

	t.Run("admin only", func(t *testing.T) {
		svc, _, _, _, _ := newTestIncidentService(t)
		err := svc.Reclassify(ctx, models.Actor{ID: uuid.New(), Role: models.RoleReporter}, uuid.New())
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("republishes created event for pending incident", func(t *testing.T) {
		svc, repoMock, _, _, pubMock := newTestIncidentService(t)
		incidentID := uuid.New()
		pending := &models.Incident{ID: incidentID, Status: models.StatusPending}

		repoMock.EXPECT().GetByID(ctx, incidentID).Return(pending, nil).Times(1)
		pubMock.EXPECT().
			Publish(gomock.Any()).
			Do(func(event eventbus.Event) {
				require.IsType(t, models.IncidentCreatedEvent{}, event)
			}).Times(1)

		err := svc.Reclassify(ctx, adminActor(), incidentID)
		require.NoError(t, err)
	})

	t.Run("rejected when not pending", func(t *testing.T) {
		svc, repoMock, _, _, _ := newTestIncidentService(t)
		incidentID := uuid.New()

		repoMock.EXPECT().GetByID(ctx, incidentID).
			Return(&models.Incident{ID: incidentID, Status: models.StatusAnalyzed}, nil).Times(1)

		err := svc.Reclassify(ctx, adminActor(), incidentID)
		assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	})
}

func TestListIncidents_NormalizesPagination(t *testing.T) {
	svc, repoMock, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	expected := []*models.Incident{{ID: uuid.New()}}

	repoMock.EXPECT().ListIncidents(ctx, 1, 20).Return(expected, nil).Times(1)

	incidents, err := svc.ListIncidents(ctx, -5, 1000)
	require.NoError(t, err)
	assert.Equal(t, expected, incidents)
}

func TestCreateIncident_RepositoryError(t *testing.T) {
	svc, repoMock, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()

	repoMock.EXPECT().Create(ctx, gomock.Any()).Return(fmt.Errorf("db down")).Times(1)

	err := svc.CreateIncident(ctx, models.Actor{ID: uuid.New(), Role: models.RoleReporter}, &models.Incident{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "could not create incident")
}
