package models

import (
	"time"

	"github.com/google/uuid"
)

// Availability - текущая доступность респондента
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityOnDuty      Availability = "on_duty"
	AvailabilityUnreachable Availability = "unreachable"
	AvailabilityOffDuty     Availability = "off_duty"
)

// Coordinates - пара широта/долгота
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Responder - полевой агент агентства (read-модель для подбора)
type Responder struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	AgencyID     uuid.UUID    `json:"agency_id"`
	Availability Availability `json:"availability"`
	Location     *Coordinates `json:"location,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Agency - агентство, обслуживающее определенные типы инцидентов
type Agency struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	SupportedTypes []IncidentType `json:"supported_types"`
	ContactEmail   string         `json:"contact_email,omitempty"`
	AdminUserID    uuid.UUID      `json:"admin_user_id"`
}

// UserRole - роль пользователя платформы
type UserRole string

const (
	RoleReporter  UserRole = "reporter"
	RoleResponder UserRole = "responder"
	RoleReviewer  UserRole = "reviewer"
	RoleAdmin     UserRole = "admin"
)

// User - пользователь платформы (репортер, респондент, ревьюер, админ)
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Role  UserRole  `json:"role"`
}

// Actor - явная идентичность вызывающего для проверок авторизации.
// Передается в каждую точку входа оркестрации вместо неявного контекста.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role UserRole  `json:"role"`
}
