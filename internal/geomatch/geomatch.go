// Package geomatch ранжирует респондентов по удаленности от точки инцидента
package geomatch

import (
	"math"
	"sort"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
)

// DefaultLimit - размер шорт-листа по умолчанию
const DefaultLimit = 3

// earthRadiusKm - радиус Земли в километрах
const earthRadiusKm = 6371.0

// Match - респондент с вычисленной дистанцией до инцидента
type Match struct {
	Responder  *models.Responder `json:"responder"`
	DistanceKm float64           `json:"distance_km"`
}

// Haversine вычисляет дистанцию большого круга между двумя точками в километрах
func Haversine(a, b models.Coordinates) float64 {
	dLat := (b.Latitude - a.Latitude) * (math.Pi / 180.0)
	dLon := (b.Longitude - a.Longitude) * (math.Pi / 180.0)
	latA := a.Latitude * (math.Pi / 180.0)
	latB := b.Latitude * (math.Pi / 180.0)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(latA)*math.Cos(latB)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Nearest возвращает не более limit респондентов, отсортированных по
// возрастанию дистанции до origin. Кандидаты без координат пропускаются.
// Равные дистанции сохраняют исходный порядок (стабильная сортировка).
// Пустой результат - штатный исход, не ошибка: вызывающий трактует его
// как повод для эскалации.
func Nearest(candidates []*models.Responder, origin models.Coordinates, limit int) []Match {
	if limit <= 0 {
		limit = DefaultLimit
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || c.Location == nil {
			continue
		}
		matches = append(matches, Match{
			Responder:  c,
			DistanceKm: Haversine(origin, *c.Location),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
