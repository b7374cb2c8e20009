package v1

import "github.com/shenikar/emergency_dispatch_system/internal/models"

// DTOToIncidentModel преобразует DTO регистрации в доменную модель
func DTOToIncidentModel(dto CreateIncidentRequest) *models.Incident {
	incident := &models.Incident{
		Title:     dto.Title,
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
		MediaRefs: dto.MediaRefs,
	}
	if dto.OccurredAt != nil {
		incident.OccurredAt = *dto.OccurredAt
	}
	return incident
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	resp := &IncidentResponse{
		ID:         model.ID,
		RefCode:    model.RefCode,
		Title:      model.Title,
		Type:       string(model.Type),
		Status:     string(model.Status),
		Confidence: model.Confidence,
		Latitude:   model.Latitude,
		Longitude:  model.Longitude,
		MediaRefs:  model.MediaRefs,
		ReporterID: model.ReporterID,
		OccurredAt: model.OccurredAt,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
	if model.Address != nil {
		resp.Address = &AddressResponse{
			Street:     model.Address.Street,
			City:       model.Address.City,
			State:      model.Address.State,
			LGA:        model.Address.LGA,
			Country:    model.Address.Country,
			PostalCode: model.Address.PostalCode,
		}
	}
	for _, a := range model.Assignments {
		resp.Assignments = append(resp.Assignments, ModelToAssignmentResponse(a))
	}
	return resp
}

// ModelToAssignmentResponse преобразует назначение в DTO для ответа
func ModelToAssignmentResponse(model *models.Assignment) *AssignmentResponse {
	return &AssignmentResponse{
		ID:          model.ID,
		ResponderID: model.ResponderID,
		Tier:        string(model.Tier),
		Active:      model.Active,
		CreatedAt:   model.CreatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelsToNotificationResponses преобразует слайс уведомлений в слайс DTO
func ModelsToNotificationResponses(models []*models.Notification) []*NotificationResponse {
	responses := make([]*NotificationResponse, len(models))
	for i, model := range models {
		responses[i] = &NotificationResponse{
			ID:         model.ID,
			Title:      model.Title,
			Body:       model.Body,
			TargetID:   model.TargetID,
			TargetType: model.TargetType,
			ReadAt:     model.ReadAt,
			CreatedAt:  model.CreatedAt,
		}
	}
	return responses
}
