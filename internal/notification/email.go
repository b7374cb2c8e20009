package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/emergency_dispatch_system/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	emailQueueKey = "email_outbox"
)

// EmailMessage - письмо, поставленное в исходящую очередь
type EmailMessage struct {
	To        []string  `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// EmailPublisher - интерфейс для постановки писем в очередь
type EmailPublisher interface {
	Publish(ctx context.Context, message EmailMessage) error
}

// RedisEmailPublisher - реализация EmailPublisher, использующая Redis
type RedisEmailPublisher struct {
	redisClient *redis.Client
}

// NewRedisEmailPublisher создает новый RedisEmailPublisher
func NewRedisEmailPublisher(client *redis.Client) *RedisEmailPublisher {
	return &RedisEmailPublisher{
		redisClient: client,
	}
}

// Publish публикует письмо в очередь Redis
func (p *RedisEmailPublisher) Publish(ctx context.Context, message EmailMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal email message: %w", err)
	}

	// Используем LPUSH для добавления письма в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, emailQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish email message to Redis: %w", err)
	}
	return nil
}

// MailerWorker - воркер, доставляющий письма из очереди во внешний mailer
type MailerWorker struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	cfg         *config.Config
	httpClient  *http.Client
}

// NewMailerWorker создает новый MailerWorker
func NewMailerWorker(redisClient *redis.Client, logger *logrus.Logger, cfg *config.Config) *MailerWorker {
	return &MailerWorker{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
		httpClient: &http.Client{
			Timeout: cfg.MailerTimeout,
		},
	}
}

// Start запускает горутину для обработки исходящей очереди писем
func (w *MailerWorker) Start(ctx context.Context) {
	w.logger.Info("Starting mailer worker...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping mailer worker.")
				return
			default:
				// BRPop - блокирующее извлечение из правой части списка (очереди)
				// 0 означает бесконечное ожидание
				result, err := w.redisClient.BRPop(ctx, 0, emailQueueKey).Result()
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue // Контекст отменен, но не ошибка Redis
					}
					w.logger.WithError(err).Error("Failed to pop email message from Redis")
					time.Sleep(w.cfg.MailerTimeout) // Ждем перед повторной попыткой
					continue
				}

				// result[0] - ключ, result[1] - значение
				payload := result[1]
				var message EmailMessage
				if err := json.Unmarshal([]byte(payload), &message); err != nil {
					w.logger.WithError(err).Error("Failed to unmarshal email message from Redis")
					continue
				}

				w.processMessage(ctx, message, payload)
			}
		}
	}()
}

func (w *MailerWorker) processMessage(ctx context.Context, message EmailMessage, rawPayload string) {
	log := w.logger.WithField("recipients", len(message.To)).WithField("subject", message.Subject)
	log.Debug("Processing email message...")

	if w.cfg.MailerURL == "" {
		log.Warn("Mailer URL is not configured. Skipping email delivery.")
		return
	}

	maxRetries := w.cfg.MailerMaxRetries
	baseDelay := w.cfg.MailerBaseDelay

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, "POST", w.cfg.MailerURL, bytes.NewBufferString(rawPayload))
		if err != nil {
			log.WithError(err).Errorf("Failed to create mailer request. Retries left: %d", maxRetries-1-i)
			continue
		}

		req.Header.Set("Content-Type", "application/json")

		// Добавляем HMAC подпись, если MAILER_SECRET задан
		if w.cfg.MailerSecret != "" {
			signature := generateHMACSHA256(rawPayload, w.cfg.MailerSecret)
			req.Header.Set("X-Mailer-Signature", signature)
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			log.WithError(err).Warnf("Failed to send email message. Retrying in %v. Retries left: %d", baseDelay, maxRetries-1-i)
			time.Sleep(baseDelay)
			baseDelay *= 2 // Экспоненциальная задержка
			continue
		}

		// Закрываем тело в каждой итерации, а не при выходе из функции
		statusCode := resp.StatusCode
		resp.Body.Close()

		if statusCode >= 200 && statusCode < 300 {
			log.Info("Email message delivered successfully.")
			return
		}
		log.Warnf("Email delivery failed with status code %d. Retrying in %v. Retries left: %d", statusCode, baseDelay, maxRetries-1-i)
		time.Sleep(baseDelay)
		baseDelay *= 2 // Экспоненциальная задержка
	}

	log.Errorf("Failed to deliver email message after %d retries.", maxRetries)
}

// generateHMACSHA256 генерирует HMAC-SHA256 подпись для данных
func generateHMACSHA256(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
