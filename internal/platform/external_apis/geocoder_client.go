package external_apis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/sirupsen/logrus"
)

// GeocoderClient - клиент сервиса обратного геокодирования
type GeocoderClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewGeocoderClient создает клиент геокодера
func NewGeocoderClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *GeocoderClient {
	return &GeocoderClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ReverseGeocode возвращает адрес для пары координат.
// (nil, nil) - штатный исход "адрес не разрешен": 404 от сервиса или
// пустой ответ не являются ошибкой.
func (c *GeocoderClient) ReverseGeocode(ctx context.Context, lat, lon float64) (*models.Address, error) {
	log := c.logger.WithFields(logrus.Fields{
		"client": "geocoder",
		"lat":    lat,
		"lon":    lon,
	})

	apiURL, err := url.Parse(c.baseURL + "/v1/reverse")
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to parse URL: %w", err)
	}
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	apiURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("Geocoder request failed")
		return nil, fmt.Errorf("geocoder: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		log.Debug("No address resolved for coordinates")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		log.WithField("status_code", resp.StatusCode).Error("Geocoder returned unexpected status")
		return nil, fmt.Errorf("geocoder: unexpected status code: %d", resp.StatusCode)
	}

	address := &models.Address{}
	if err := json.NewDecoder(resp.Body).Decode(address); err != nil {
		return nil, fmt.Errorf("geocoder: failed to decode response: %w", err)
	}
	if (models.Address{}) == *address {
		return nil, nil
	}
	return address, nil
}
