// Package eventbus - внутрипроцессная шина доменных событий.
// События одного инцидента попадают в одну и ту же партицию и доставляются
// подписчикам строго в порядке публикации; разные инциденты обрабатываются
// параллельно независимыми партициями. Publish не блокирует публикующую
// операцию: очередь партиции не ограничена, а доставка идет в фоне.
package eventbus

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultPartitions - число партиций по умолчанию
const DefaultPartitions = 8

// Event - доменное событие, маршрутизируемое шиной
type Event interface {
	EventKind() string
	EventIncidentID() uuid.UUID
}

// HandlerFunc - подписчик на события определенного вида
type HandlerFunc func(ctx context.Context, event Event)

type partition struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

func newPartition() *partition {
	p := &partition{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Bus - партиционированная шина событий
type Bus struct {
	logger     *logrus.Logger
	partitions []*partition

	mu       sync.RWMutex
	handlers map[string][]HandlerFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New создает шину с указанным числом партиций
func New(logger *logrus.Logger, partitions int) *Bus {
	if partitions <= 0 {
		partitions = DefaultPartitions
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		logger:     logger,
		partitions: make([]*partition, partitions),
		handlers:   make(map[string][]HandlerFunc),
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := range b.partitions {
		b.partitions[i] = newPartition()
	}
	return b
}

// Subscribe регистрирует подписчика на вид события. Подписчики одного вида
// вызываются в порядке регистрации.
func (b *Bus) Subscribe(kind string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
}

// Start запускает горутины партиций
func (b *Bus) Start() {
	for _, p := range b.partitions {
		b.wg.Add(1)
		go b.run(p)
	}
	b.logger.WithField("partitions", len(b.partitions)).Info("Event bus started")
}

// Publish ставит событие в очередь партиции его инцидента.
// После Close публикация невозможна: событие отбрасывается с ошибкой в логе.
func (b *Bus) Publish(event Event) {
	p := b.partitionFor(event.EventIncidentID())

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		b.logger.WithFields(logrus.Fields{
			"event_kind":  event.EventKind(),
			"incident_id": event.EventIncidentID(),
		}).Error("Event bus is closed, event dropped")
		return
	}
	p.queue = append(p.queue, event)
	p.cond.Signal()
}

// Close запрещает новые публикации, дожидается доставки всех уже
// поставленных в очередь событий и останавливает партиции
func (b *Bus) Close() {
	for _, p := range b.partitions {
		p.mu.Lock()
		p.closed = true
		p.cond.Signal()
		p.mu.Unlock()
	}
	b.wg.Wait()
	b.cancel()
	b.logger.Info("Event bus stopped")
}

func (b *Bus) partitionFor(incidentID uuid.UUID) *partition {
	h := fnv.New32a()
	h.Write(incidentID[:])
	return b.partitions[int(h.Sum32())%len(b.partitions)]
}

func (b *Bus) run(p *partition) {
	defer b.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closed {
			p.mu.Unlock()
			return
		}
		event := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		b.deliver(event)
	}
}

func (b *Bus) deliver(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.EventKind()]
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeHandle(handler, event)
	}
}

// safeHandle изолирует панику подписчика: отказ одного обработчика не должен
// останавливать партицию и доставку остальным подписчикам
func (b *Bus) safeHandle(handler HandlerFunc, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(logrus.Fields{
				"event_kind":  event.EventKind(),
				"incident_id": event.EventIncidentID(),
				"panic":       r,
			}).Error("Event handler panicked")
		}
	}()
	handler(b.ctx, event)
}
