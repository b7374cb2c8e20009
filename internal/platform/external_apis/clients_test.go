package external_apis

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shenikar/emergency_dispatch_system/internal/dispatch"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Клиенты должны удовлетворять контрактам координатора диспетчеризации
var (
	_ dispatch.Classifier = (*ClassifierClient)(nil)
	_ dispatch.Geocoder   = (*GeocoderClient)(nil)
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

func TestClassifierClient_Analyze(t *testing.T) {
	// Подготовка: поддельный сервис классификации
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/analyze", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("X-API-Key"))

		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "media/abc.jpg", req.MediaRef)

		json.NewEncoder(w).Encode(models.ClassificationResult{
			Title:      "Building fire",
			Type:       models.TypeFire,
			Confidence: 0.91,
			Evidence:   "visible flames and smoke",
		})
	}))
	defer server.Close()

	client := NewClassifierClient(server.URL, "secret-key", 5*time.Second, testLogger())

	// Действие
	result, err := client.Analyze(context.Background(), "media/abc.jpg")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.TypeFire, result.Type)
	assert.InDelta(t, 0.91, result.Confidence, 1e-9)
	assert.Equal(t, "Building fire", result.Title)
}

func TestClassifierClient_EmptyTypeFallsBackToUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"?","confidence":0.2}`))
	}))
	defer server.Close()

	client := NewClassifierClient(server.URL, "", 5*time.Second, testLogger())
	result, err := client.Analyze(context.Background(), "media/x")

	require.NoError(t, err)
	assert.Equal(t, models.TypeUnknown, result.Type)
	assert.False(t, result.IsConclusive())
}

func TestClassifierClient_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClassifierClient(server.URL, "", 5*time.Second, testLogger())
	_, err := client.Analyze(context.Background(), "media/x")

	require.Error(t, err)
	assert.ErrorContains(t, err, "unexpected status code")
}

func TestGeocoderClient_ReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/reverse", r.URL.Path)
		assert.Equal(t, "6.5244", r.URL.Query().Get("lat"))
		assert.Equal(t, "3.3792", r.URL.Query().Get("lon"))
		json.NewEncoder(w).Encode(models.Address{
			City:    "Lagos",
			LGA:     "Ikeja",
			Country: "Nigeria",
		})
	}))
	defer server.Close()

	client := NewGeocoderClient(server.URL, 5*time.Second, testLogger())
	address, err := client.ReverseGeocode(context.Background(), 6.5244, 3.3792)

	require.NoError(t, err)
	require.NotNil(t, address)
	assert.Equal(t, "Lagos", address.City)
	assert.Equal(t, "Ikeja", address.LGA)
}

func TestGeocoderClient_NoAddressIsNotAnError(t *testing.T) {
	t.Run("404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewGeocoderClient(server.URL, 5*time.Second, testLogger())
		address, err := client.ReverseGeocode(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Nil(t, address)
	})

	t.Run("empty body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewGeocoderClient(server.URL, 5*time.Second, testLogger())
		address, err := client.ReverseGeocode(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Nil(t, address)
	})
}
