package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_dispatch_system/internal/dispatch/mocks"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	servicemocks "github.com/shenikar/emergency_dispatch_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestCoordinator - вспомогательная функция для создания координатора с моками
func newTestCoordinator(t *testing.T) (*Coordinator, *mocks.MockClassifier, *mocks.MockGeocoder, *mocks.MockIncidentClassifier, *mocks.MockAddressWriter, *mocks.MockAgencyDirectory, *servicemocks.MockEventPublisher) {
	ctrl := gomock.NewController(t)
	classifierMock := mocks.NewMockClassifier(ctrl)
	geocoderMock := mocks.NewMockGeocoder(ctrl)
	incidentsMock := mocks.NewMockIncidentClassifier(ctrl)
	addressesMock := mocks.NewMockAddressWriter(ctrl)
	directoryMock := mocks.NewMockAgencyDirectory(ctrl)
	pubMock := servicemocks.NewMockEventPublisher(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	coordinator := NewCoordinator(classifierMock, geocoderMock, incidentsMock, addressesMock, directoryMock, pubMock, logger)
	return coordinator, classifierMock, geocoderMock, incidentsMock, addressesMock, directoryMock, pubMock
}

// expectGeocodeNoop разрешает фоновое геокодирование и возвращает канал,
// сигнализирующий о его завершении: горутина должна закончиться до конца теста
func expectGeocodeNoop(geocoderMock *mocks.MockGeocoder) chan struct{} {
	done := make(chan struct{})
	geocoderMock.EXPECT().
		ReverseGeocode(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, lat, lon float64) (*models.Address, error) {
			close(done)
			return nil, nil
		}).Times(1)
	return done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background geocoding did not finish")
	}
}

func TestCoordinator_HandleCreated_AppliesClassification(t *testing.T) {
	// Подготовка
	coordinator, classifierMock, geocoderMock, incidentsMock, _, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{
		ID:        uuid.New(),
		Status:    models.StatusPending,
		MediaRefs: []string{"media/fire.jpg"},
	}
	result := models.ClassificationResult{Type: models.TypeFire, Confidence: 0.92}

	// Ожидания
	geocodeDone := expectGeocodeNoop(geocoderMock)
	classifierMock.EXPECT().Analyze(gomock.Any(), "media/fire.jpg").Return(result, nil).Times(1)
	incidentsMock.EXPECT().ApplyClassification(gomock.Any(), incident.ID, result).Return(nil).Times(1)

	// Действие
	coordinator.handleCreated(ctx, models.IncidentCreatedEvent{Incident: incident, At: time.Now()})

	// Проверки
	waitDone(t, geocodeDone)
}

func TestCoordinator_HandleCreated_NoMedia(t *testing.T) {
	coordinator, _, geocoderMock, _, _, _, pubMock := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{ID: uuid.New(), Status: models.StatusPending}

	geocodeDone := expectGeocodeNoop(geocoderMock)
	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event any) {
			review, ok := event.(models.ManualReviewEvent)
			require.True(t, ok)
			assert.Equal(t, models.ReasonNoMedia, review.Reason)
		}).Times(1)

	coordinator.handleCreated(ctx, models.IncidentCreatedEvent{Incident: incident, At: time.Now()})
	waitDone(t, geocodeDone)
}

func TestCoordinator_HandleCreated_ClassifierFailureLeavesPending(t *testing.T) {
	coordinator, classifierMock, geocoderMock, _, _, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{
		ID:        uuid.New(),
		Status:    models.StatusPending,
		MediaRefs: []string{"media/x.jpg"},
	}

	geocodeDone := expectGeocodeNoop(geocoderMock)
	classifierMock.EXPECT().
		Analyze(gomock.Any(), "media/x.jpg").
		Return(models.ClassificationResult{}, fmt.Errorf("upstream timeout")).Times(1)
	// Никаких ApplyClassification и Publish: инцидент остается Pending

	coordinator.handleCreated(ctx, models.IncidentCreatedEvent{Incident: incident, At: time.Now()})
	waitDone(t, geocodeDone)
}

func TestCoordinator_ResolveAddress_StoresResolvedAddress(t *testing.T) {
	coordinator, _, geocoderMock, _, addressesMock, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{ID: uuid.New(), Latitude: 6.5244, Longitude: 3.3792}
	address := &models.Address{City: "Lagos", LGA: "Ikeja", Country: "Nigeria"}

	geocoderMock.EXPECT().ReverseGeocode(gomock.Any(), 6.5244, 3.3792).Return(address, nil).Times(1)
	addressesMock.EXPECT().SetAddress(gomock.Any(), incident.ID, address).Return(nil).Times(1)

	coordinator.resolveAddress(ctx, incident)
}

func TestCoordinator_WaitDrainsBackgroundGeocoding(t *testing.T) {
	// Подготовка: Wait должен вернуться только после того, как фоновая
	// горутина геокодирования записала адрес
	coordinator, _, geocoderMock, _, addressesMock, _, pubMock := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{ID: uuid.New(), Status: models.StatusPending, Latitude: 6.5244, Longitude: 3.3792}
	address := &models.Address{City: "Lagos"}

	// Ожидания: медленный геокодер, запись адреса фиксируется флагом
	var stored atomic.Bool
	geocoderMock.EXPECT().
		ReverseGeocode(gomock.Any(), 6.5244, 3.3792).
		DoAndReturn(func(ctx context.Context, lat, lon float64) (*models.Address, error) {
			time.Sleep(50 * time.Millisecond)
			return address, nil
		}).Times(1)
	addressesMock.EXPECT().
		SetAddress(gomock.Any(), incident.ID, address).
		DoAndReturn(func(ctx context.Context, id uuid.UUID, a *models.Address) error {
			stored.Store(true)
			return nil
		}).Times(1)
	// Нет медиа: инцидент уходит на ручную проверку
	pubMock.EXPECT().Publish(gomock.Any()).Times(1)

	// Действие
	coordinator.handleCreated(ctx, models.IncidentCreatedEvent{Incident: incident, At: time.Now()})
	coordinator.Wait()

	// Проверки
	assert.True(t, stored.Load(), "address write must complete before Wait returns")
}

func TestCoordinator_HandleAnalyzed_LowConfidence(t *testing.T) {
	coordinator, _, _, _, _, _, pubMock := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{ID: uuid.New(), Status: models.StatusInvalid}

	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event any) {
			review, ok := event.(models.ManualReviewEvent)
			require.True(t, ok)
			assert.Equal(t, models.ReasonLowConfidence, review.Reason)
			assert.Contains(t, review.Detail, "confidence")
		}).Times(1)

	coordinator.handleAnalyzed(ctx, models.IncidentAnalyzedEvent{
		Incident: incident,
		Result:   models.ClassificationResult{Type: models.TypeFire, Confidence: 0.3},
		IsValid:  false,
		At:       time.Now(),
	})
}

func TestCoordinator_HandleAnalyzed_NoAgency(t *testing.T) {
	coordinator, _, _, _, _, directoryMock, pubMock := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{ID: uuid.New(), Type: models.TypeFlood, Status: models.StatusAnalyzed}

	directoryMock.EXPECT().AgenciesSupporting(gomock.Any(), models.TypeFlood).Return(nil, nil).Times(1)
	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event any) {
			review := event.(models.ManualReviewEvent)
			assert.Equal(t, models.ReasonNoAgency, review.Reason)
		}).Times(1)

	coordinator.handleAnalyzed(ctx, models.IncidentAnalyzedEvent{Incident: incident, IsValid: true, At: time.Now()})
}

func TestCoordinator_HandleAnalyzed_NoAvailableResponder(t *testing.T) {
	coordinator, _, _, _, _, directoryMock, pubMock := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{ID: uuid.New(), Type: models.TypeFire, Status: models.StatusAnalyzed}
	agency := &models.Agency{ID: uuid.New(), Name: "Fire Service"}

	directoryMock.EXPECT().AgenciesSupporting(gomock.Any(), models.TypeFire).
		Return([]*models.Agency{agency}, nil).Times(1)
	directoryMock.EXPECT().RespondersOfAgencies(gomock.Any(), []uuid.UUID{agency.ID}).
		Return([]*models.Responder{
			{ID: uuid.New(), Availability: models.AvailabilityOnDuty},
			{ID: uuid.New(), Availability: models.AvailabilityOffDuty},
		}, nil).Times(1)
	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event any) {
			review := event.(models.ManualReviewEvent)
			assert.Equal(t, models.ReasonNoResponder, review.Reason)
		}).Times(1)

	coordinator.handleAnalyzed(ctx, models.IncidentAnalyzedEvent{Incident: incident, IsValid: true, At: time.Now()})
}

func TestCoordinator_HandleAnalyzed_NoGeoResponder(t *testing.T) {
	// Доступные респонденты есть, но ни у одного нет координат
	coordinator, _, _, _, _, directoryMock, pubMock := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{ID: uuid.New(), Type: models.TypeFire, Status: models.StatusAnalyzed}
	agency := &models.Agency{ID: uuid.New()}

	directoryMock.EXPECT().AgenciesSupporting(gomock.Any(), models.TypeFire).
		Return([]*models.Agency{agency}, nil).Times(1)
	directoryMock.EXPECT().RespondersOfAgencies(gomock.Any(), []uuid.UUID{agency.ID}).
		Return([]*models.Responder{
			{ID: uuid.New(), Availability: models.AvailabilityAvailable, Location: nil},
		}, nil).Times(1)
	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event any) {
			review := event.(models.ManualReviewEvent)
			assert.Equal(t, models.ReasonNoGeoResponder, review.Reason)
		}).Times(1)

	coordinator.handleAnalyzed(ctx, models.IncidentAnalyzedEvent{Incident: incident, IsValid: true, At: time.Now()})
}

func TestCoordinator_HandleAnalyzed_MatchesNearestResponders(t *testing.T) {
	// Подготовка: четыре доступных кандидата, в шорт-лист попадают три ближайших
	coordinator, _, _, _, _, directoryMock, pubMock := newTestCoordinator(t)
	ctx := context.Background()
	incident := &models.Incident{
		ID:     uuid.New(),
		Type:   models.TypeFire,
		Status: models.StatusAnalyzed,
	}
	agency := &models.Agency{ID: uuid.New(), Name: "Fire Service"}

	responderAt := func(lat float64) *models.Responder {
		return &models.Responder{
			ID:           uuid.New(),
			AgencyID:     agency.ID,
			Availability: models.AvailabilityAvailable,
			Location:     &models.Coordinates{Latitude: lat, Longitude: 0},
		}
	}
	near := responderAt(0.01)
	mid := responderAt(0.05)
	far := responderAt(0.10)
	farthest := responderAt(0.50)
	busy := &models.Responder{ID: uuid.New(), AgencyID: agency.ID, Availability: models.AvailabilityOnDuty}

	directoryMock.EXPECT().AgenciesSupporting(gomock.Any(), models.TypeFire).
		Return([]*models.Agency{agency}, nil).Times(1)
	directoryMock.EXPECT().RespondersOfAgencies(gomock.Any(), []uuid.UUID{agency.ID}).
		Return([]*models.Responder{farthest, busy, mid, near, far}, nil).Times(1)

	pubMock.EXPECT().
		Publish(gomock.Any()).
		Do(func(event any) {
			matched, ok := event.(models.RespondersMatchedEvent)
			require.True(t, ok)
			assert.Equal(t, []*models.Agency{agency}, matched.Agencies)
			require.Len(t, matched.Responders, 3)
			assert.Equal(t, near.ID, matched.Responders[0].ID)
			assert.Equal(t, mid.ID, matched.Responders[1].ID)
			assert.Equal(t, far.ID, matched.Responders[2].ID)
		}).Times(1)

	coordinator.handleAnalyzed(ctx, models.IncidentAnalyzedEvent{Incident: incident, IsValid: true, At: time.Now()})
}
