package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/service"
)

type AssignmentRepository struct {
	db *pgxpool.Pool
}

func NewAssignmentRepository(db *pgxpool.Pool) service.AssignmentRepository {
	return &AssignmentRepository{
		db: db,
	}
}

// Create создает запись о назначении респондента на инцидент. Частичный
// уникальный индекс по активным назначениям защищает от дублей на уровне бд.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	query := `
		INSERT INTO assignments (id, incident_id, responder_id, tier, active)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		a.ID,
		a.IncidentID,
		a.ResponderID,
		a.Tier,
		a.Active,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// Deactivate деактивирует (не удаляет) активное назначение пары
// инцидент-респондент
func (r *AssignmentRepository) Deactivate(ctx context.Context, incidentID, responderID uuid.UUID) error {
	query := `
		UPDATE assignments SET
			active = FALSE,
			updated_at = NOW()
		WHERE incident_id = $1 AND responder_id = $2 AND active;
	`
	cmdTag, err := r.db.Exec(ctx, query, incidentID, responderID)
	if err != nil {
		return fmt.Errorf("failed to deactivate assignment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("active assignment of responder %s on incident %s not found", responderID, incidentID)
	}
	return nil
}

// DeactivateAll деактивирует все активные назначения инцидента и возвращает
// идентификаторы освобожденных респондентов
func (r *AssignmentRepository) DeactivateAll(ctx context.Context, incidentID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		UPDATE assignments SET
			active = FALSE,
			updated_at = NOW()
		WHERE incident_id = $1 AND active
		RETURNING responder_id;
	`
	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate incident assignments: %w", err)
	}
	defer rows.Close()

	released := make([]uuid.UUID, 0)
	for rows.Next() {
		var responderID uuid.UUID
		if err := rows.Scan(&responderID); err != nil {
			return nil, fmt.Errorf("failed to scan released responder id: %w", err)
		}
		released = append(released, responderID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error released responders iteration: %w", err)
	}
	return released, nil
}
