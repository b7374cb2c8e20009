// Package external_apis содержит HTTP-клиенты внешних сервисов:
// ИИ-классификатора медиа и обратного геокодера
package external_apis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/sirupsen/logrus"
)

// ClassifierClient - клиент сервиса ИИ-классификации медиафайлов
type ClassifierClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClassifierClient создает клиент классификатора
func NewClassifierClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *ClassifierClient {
	return &ClassifierClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type analyzeRequest struct {
	MediaRef string `json:"media_ref"`
}

// Analyze отправляет медиафайл на классификацию и возвращает результат.
// Уверенность - число в [0,1]; тип - одно из фиксированных значений,
// включая unknown.
func (c *ClassifierClient) Analyze(ctx context.Context, mediaRef string) (models.ClassificationResult, error) {
	log := c.logger.WithFields(logrus.Fields{
		"client":    "classifier",
		"media_ref": mediaRef,
	})

	var result models.ClassificationResult

	body, err := json.Marshal(analyzeRequest{MediaRef: mediaRef})
	if err != nil {
		return result, fmt.Errorf("classifier: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("classifier: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("Classifier request failed")
		return result, fmt.Errorf("classifier: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status_code", resp.StatusCode).Error("Classifier returned unexpected status")
		return result, fmt.Errorf("classifier: unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("classifier: failed to decode response: %w", err)
	}
	if result.Type == "" {
		result.Type = models.TypeUnknown
	}

	log.WithFields(logrus.Fields{
		"incident_type": result.Type,
		"confidence":    result.Confidence,
	}).Info("Classification result received")
	return result, nil
}
