package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/service"
)

// DirectoryRepository - справочник пользователей, агентств и респондентов
type DirectoryRepository struct {
	db *pgxpool.Pool
}

func NewDirectoryRepository(db *pgxpool.Pool) service.ResponderDirectory {
	return &DirectoryRepository{
		db: db,
	}
}

// GetResponder возвращает респондента по его UUID
func (r *DirectoryRepository) GetResponder(ctx context.Context, id uuid.UUID) (*models.Responder, error) {
	responder := &models.Responder{}
	var lat, lon *float64
	query := `
		SELECT id, user_id, agency_id, availability, latitude, longitude, updated_at
		FROM responders
		WHERE id = $1;
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&responder.ID,
		&responder.UserID,
		&responder.AgencyID,
		&responder.Availability,
		&lat,
		&lon,
		&responder.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("responder with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get responder by id: %w", err)
	}
	responder.Location = coordinates(lat, lon)
	return responder, nil
}

// ClaimResponder атомарно переводит респондента available -> on_duty.
// Ноль обновленных строк означает, что респондент уже занят или снят с
// дежурства: гонка назначения проиграна.
func (r *DirectoryRepository) ClaimResponder(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE responders SET
			availability = 'on_duty',
			updated_at = NOW()
		WHERE id = $1 AND availability = 'available';
	`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim responder: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// ReleaseResponders возвращает респондентов из on_duty в available
func (r *DirectoryRepository) ReleaseResponders(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE responders SET
			availability = 'available',
			updated_at = NOW()
		WHERE id = ANY($1) AND availability = 'on_duty';
	`
	if _, err := r.db.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to release responders: %w", err)
	}
	return nil
}

// AgenciesSupporting возвращает агентства, поддерживающие тип инцидента
func (r *DirectoryRepository) AgenciesSupporting(ctx context.Context, t models.IncidentType) ([]*models.Agency, error) {
	query := `
		SELECT id, name, supported_types, contact_email, admin_user_id
		FROM agencies
		WHERE $1 = ANY(supported_types)
		ORDER BY name;
	`
	rows, err := r.db.Query(ctx, query, t)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies supporting type: %w", err)
	}
	defer rows.Close()

	agencies := make([]*models.Agency, 0)
	for rows.Next() {
		agency := &models.Agency{}
		var supported []string
		err := rows.Scan(&agency.ID, &agency.Name, &supported, &agency.ContactEmail, &agency.AdminUserID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agency row: %w", err)
		}
		agency.SupportedTypes = make([]models.IncidentType, 0, len(supported))
		for _, s := range supported {
			agency.SupportedTypes = append(agency.SupportedTypes, models.IncidentType(s))
		}
		agencies = append(agencies, agency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error agencies iteration: %w", err)
	}
	return agencies, nil
}

// RespondersOfAgencies возвращает всех респондентов указанных агентств
func (r *DirectoryRepository) RespondersOfAgencies(ctx context.Context, agencyIDs []uuid.UUID) ([]*models.Responder, error) {
	if len(agencyIDs) == 0 {
		return []*models.Responder{}, nil
	}
	query := `
		SELECT id, user_id, agency_id, availability, latitude, longitude, updated_at
		FROM responders
		WHERE agency_id = ANY($1)
		ORDER BY created_at;
	`
	rows, err := r.db.Query(ctx, query, agencyIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list responders of agencies: %w", err)
	}
	defer rows.Close()

	responders := make([]*models.Responder, 0)
	for rows.Next() {
		responder := &models.Responder{}
		var lat, lon *float64
		err := rows.Scan(
			&responder.ID,
			&responder.UserID,
			&responder.AgencyID,
			&responder.Availability,
			&lat,
			&lon,
			&responder.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan responder row: %w", err)
		}
		responder.Location = coordinates(lat, lon)
		responders = append(responders, responder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error responders iteration: %w", err)
	}
	return responders, nil
}

// UsersByRole возвращает всех пользователей с указанной ролью
func (r *DirectoryRepository) UsersByRole(ctx context.Context, role models.UserRole) ([]*models.User, error) {
	query := `
		SELECT id, name, email, role
		FROM users
		WHERE role = $1
		ORDER BY created_at;
	`
	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error users iteration: %w", err)
	}
	return users, nil
}

// GetUser возвращает пользователя по его UUID
func (r *DirectoryRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, name, email, role
		FROM users
		WHERE id = $1;
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// coordinates собирает координаты из пары nullable колонок
func coordinates(lat, lon *float64) *models.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &models.Coordinates{Latitude: *lat, Longitude: *lon}
}
