package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/shenikar/emergency_dispatch_system/internal/service"
)

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	address, err := marshalAddress(incident.Address)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO incidents (ref_code, title, type, status, confidence, latitude, longitude, address, media_refs, reporter_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id, created_at, updated_at;
	`
	err = r.db.QueryRow(ctx, query,
		incident.RefCode,
		incident.Title,
		incident.Type,
		incident.Status,
		incident.Confidence,
		incident.Latitude,
		incident.Longitude,
		address,
		incident.MediaRefs,
		incident.ReporterID,
		incident.OccurredAt,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID вместе с назначениями
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	incident := &models.Incident{}
	var address []byte
	query := `
		SELECT
			id,
			ref_code,
			title,
			type,
			status,
			confidence,
			latitude,
			longitude,
			address,
			media_refs,
			reporter_id,
			occurred_at,
			created_at,
			updated_at
		FROM incidents
		WHERE id = $1 AND deleted_at IS NULL;
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.RefCode,
		&incident.Title,
		&incident.Type,
		&incident.Status,
		&incident.Confidence,
		&incident.Latitude,
		&incident.Longitude,
		&address,
		&incident.MediaRefs,
		&incident.ReporterID,
		&incident.OccurredAt,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}

	if incident.Address, err = unmarshalAddress(address); err != nil {
		return nil, err
	}
	if incident.Assignments, err = r.listAssignments(ctx, id); err != nil {
		return nil, err
	}
	return incident, nil
}

// listAssignments возвращает все назначения инцидента в порядке создания
func (r *IncidentRepository) listAssignments(ctx context.Context, incidentID uuid.UUID) ([]*models.Assignment, error) {
	query := `
		SELECT id, incident_id, responder_id, tier, active, created_at, updated_at
		FROM assignments
		WHERE incident_id = $1
		ORDER BY created_at;
	`
	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]*models.Assignment, 0)
	for rows.Next() {
		a := &models.Assignment{}
		err := rows.Scan(&a.ID, &a.IncidentID, &a.ResponderID, &a.Tier, &a.Active, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error assignments iteration: %w", err)
	}
	return assignments, nil
}

// ListIncidents возвращает список инцидентов с пагинацией
func (r *IncidentRepository) ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error) {
	// рассчитываем смещение
	offset := (page - 1) * pageSize

	query := `
		SELECT
			id,
			ref_code,
			title,
			type,
			status,
			confidence,
			latitude,
			longitude,
			address,
			media_refs,
			reporter_id,
			occurred_at,
			created_at,
			updated_at
		FROM incidents
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.db.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident := &models.Incident{}
		var address []byte
		err := rows.Scan(
			&incident.ID,
			&incident.RefCode,
			&incident.Title,
			&incident.Type,
			&incident.Status,
			&incident.Confidence,
			&incident.Latitude,
			&incident.Longitude,
			&address,
			&incident.MediaRefs,
			&incident.ReporterID,
			&incident.OccurredAt,
			&incident.CreatedAt,
			&incident.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		if incident.Address, err = unmarshalAddress(address); err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// CommitTransition фиксирует снапшот инцидента условной записью: обновление
// проходит только если статус в бд все еще equal expected. Ноль обновленных
// строк означает проигранную гонку за переход.
func (r *IncidentRepository) CommitTransition(ctx context.Context, incident *models.Incident, expected models.IncidentStatus) error {
	query := `
		UPDATE incidents SET
			title = $1,
			type = $2,
			status = $3,
			confidence = $4,
			updated_at = NOW()
		WHERE id = $5 AND status = $6 AND deleted_at IS NULL;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		incident.Title,
		incident.Type,
		incident.Status,
		incident.Confidence,
		incident.ID,
		expected,
	)
	if err != nil {
		return fmt.Errorf("failed to commit incident transition: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return service.ErrStatusConflict
	}
	return nil
}

// SetAddress сохраняет разрешенный адрес инцидента
func (r *IncidentRepository) SetAddress(ctx context.Context, id uuid.UUID, addr *models.Address) error {
	address, err := marshalAddress(addr)
	if err != nil {
		return err
	}

	query := `
		UPDATE incidents SET
			address = $1,
			updated_at = NOW()
		WHERE id = $2;
	`
	cmdTag, err := r.db.Exec(ctx, query, address, id)
	if err != nil {
		return fmt.Errorf("failed to set incident address: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s not found for address update", id)
	}
	return nil
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	key := fmt.Sprintf("incident:%s", id.String())
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	key := fmt.Sprintf("incident:%s", incident.ID.String())
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	// Устанавливаем срок жизни кэша, например, 5 минут
	if err := r.redisClient.Set(ctx, key, val, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("incident:%s", id.String())
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}

func marshalAddress(address *models.Address) ([]byte, error) {
	if address == nil {
		return nil, nil
	}
	val, err := json.Marshal(address)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal incident address: %w", err)
	}
	return val, nil
}

func unmarshalAddress(val []byte) (*models.Address, error) {
	if len(val) == 0 {
		return nil, nil
	}
	address := &models.Address{}
	if err := json.Unmarshal(val, address); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident address: %w", err)
	}
	return address, nil
}
