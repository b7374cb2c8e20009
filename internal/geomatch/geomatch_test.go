package geomatch

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// latOffsetForKm возвращает смещение по широте в градусах, соответствующее
// дистанции km строго на север от origin
func latOffsetForKm(km float64) float64 {
	return km / earthRadiusKm * 180.0 / math.Pi
}

func responderAtKm(km float64) *models.Responder {
	return &models.Responder{
		ID: uuid.New(),
		Location: &models.Coordinates{
			Latitude:  latOffsetForKm(km),
			Longitude: 0,
		},
		Availability: models.AvailabilityAvailable,
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Москва -> Санкт-Петербург, около 634 км
	moscow := models.Coordinates{Latitude: 55.7558, Longitude: 37.6173}
	spb := models.Coordinates{Latitude: 59.9311, Longitude: 30.3609}

	d := Haversine(moscow, spb)
	assert.InDelta(t, 634.0, d, 5.0)
}

func TestNearest_StableOrderOnTies(t *testing.T) {
	// Подготовка: дистанции [5, 1, 1, 10], третий введен после второго
	origin := models.Coordinates{}
	r5 := responderAtKm(5)
	r1a := responderAtKm(1)
	r1b := responderAtKm(1)
	r10 := responderAtKm(10)

	// Действие
	matches := Nearest([]*models.Responder{r5, r1a, r1b, r10}, origin, 2)

	// Проверки: пара на 1 км в исходном относительном порядке
	require.Len(t, matches, 2)
	assert.Equal(t, r1a.ID, matches[0].Responder.ID)
	assert.Equal(t, r1b.ID, matches[1].Responder.ID)
	assert.InDelta(t, 1.0, matches[0].DistanceKm, 1e-6)
	assert.InDelta(t, 1.0, matches[1].DistanceKm, 1e-6)
}

func TestNearest_SkipsCandidatesWithoutCoordinates(t *testing.T) {
	origin := models.Coordinates{}
	noCoords := &models.Responder{ID: uuid.New()}
	r2 := responderAtKm(2)

	matches := Nearest([]*models.Responder{noCoords, r2}, origin, 0)

	require.Len(t, matches, 1)
	assert.Equal(t, r2.ID, matches[0].Responder.ID)
}

func TestNearest_EmptyInputIsNormalOutcome(t *testing.T) {
	matches := Nearest(nil, models.Coordinates{}, 3)
	assert.Empty(t, matches)

	// Все кандидаты без координат - тоже штатный пустой результат
	matches = Nearest([]*models.Responder{{ID: uuid.New()}}, models.Coordinates{}, 3)
	assert.Empty(t, matches)
}

func TestNearest_DefaultLimit(t *testing.T) {
	origin := models.Coordinates{}
	candidates := []*models.Responder{
		responderAtKm(1), responderAtKm(2), responderAtKm(3), responderAtKm(4), responderAtKm(5),
	}

	matches := Nearest(candidates, origin, 0)

	require.Len(t, matches, DefaultLimit)
	assert.InDelta(t, 1.0, matches[0].DistanceKm, 1e-6)
	assert.InDelta(t, 3.0, matches[2].DistanceKm, 1e-6)
}
