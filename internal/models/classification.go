package models

// MinConfidence - порог уверенности классификатора, ниже которого
// инцидент уходит в ручную проверку
const MinConfidence = 0.7

// ClassificationResult - результат работы внешнего ИИ-классификатора.
// Потребляется ровно один раз на инцидент.
type ClassificationResult struct {
	Title             string       `json:"title"`
	Type              IncidentType `json:"incident_type"`
	Confidence        float64      `json:"confidence"`
	Evidence          string       `json:"evidence,omitempty"`
	RecommendedAction string       `json:"recommended_action,omitempty"`
}

// IsConclusive сообщает, достаточно ли результата для автоматической диспетчеризации
func (r ClassificationResult) IsConclusive() bool {
	return r.Type != TypeUnknown && r.Confidence >= MinConfidence
}
