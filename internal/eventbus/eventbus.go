package eventbus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Типы событий генератора
const (
	EventChunkFinalized = "ChunkFinalized"
	EventChunkDegraded  = "ChunkDegraded"
	EventRouteFailed    = "RouteFailed"
)

// Приоритеты. События ниже PriorityHigh отбрасываются при заполненном буфере.
const (
	PriorityLow    = 1
	PriorityNormal = 3
	PriorityHigh   = 5
)

// ErrBusClosed публикация в закрытую шину
var ErrBusClosed = errors.New("шина событий закрыта")

// Envelope описывает универсальный контейнер события.
type Envelope struct {
	ID            string            // UUID события
	Timestamp     time.Time         // Время создания события (UTC)
	Source        string            // Имя компонента-источника
	EventType     string            // Тип события (ChunkFinalized, RouteFailed…)
	Version       int               // Схема полезной нагрузки
	CorrelationID string            // Для связывания цепочек
	Priority      int               // 0=Low … 9=Critical (для backpressure)
	Payload       []byte            // Сжатые данные чанка или пусто
	Metadata      map[string]string // Координаты и прочие поля для фильтрации
}

// NewEnvelope создаёт событие с новым UUID и текущим временем
func NewEnvelope(eventType, source string, payload []byte) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Priority:  PriorityNormal,
		Payload:   payload,
		Metadata:  make(map[string]string),
	}
}

// MetaChunk ключ метаданных с координатами чанка "x,y"
const MetaChunk = "chunk"

// Filter отбирает события для подписчика, пустое поле пропускает всё
type Filter struct {
	Types   []string
	Sources []string
	Chunks  []string // значения Metadata[MetaChunk]
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus абстракция шины событий
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close()
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu          sync.RWMutex // подписчики
	subscribers map[int]subscriber
	nextID      int

	statsMu sync.Mutex
	stats   Stats

	closeMu sync.RWMutex // Publish держит на чтение, Close на запись
	closed  bool
	buffer  chan *Envelope
	done    chan struct{}
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory Bus с указанным буфером.
func NewMemoryBus(capacity int) EventBus {
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, capacity),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.closeMu.RLock()
	defer mb.closeMu.RUnlock()
	if mb.closed {
		return ErrBusClosed
	}

	select {
	case mb.buffer <- ev:
		mb.count(func(s *Stats) { s.Published++ })
		return nil
	default:
	}

	// Буфер заполнен — отбрасываем низкий приоритет
	if ev.Priority < PriorityHigh {
		mb.count(func(s *Stats) { s.Dropped++ })
		return nil
	}
	// Для высокого приоритета ждём места или отмены контекста
	select {
	case mb.buffer <- ev:
		mb.count(func(s *Stats) { s.Published++ })
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (mb *memoryBus) count(f func(*Stats)) {
	mb.statsMu.Lock()
	f(&mb.stats)
	mb.statsMu.Unlock()
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.closeMu.RLock()
	closed := mb.closed
	mb.closeMu.RUnlock()
	if closed {
		return nil, ErrBusClosed
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()
	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}

	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.statsMu.Lock()
	s := mb.stats
	mb.statsMu.Unlock()
	s.InFlight = len(mb.buffer)
	return s
}

// Close прекращает приём событий и дожидается рассылки уже принятых
func (mb *memoryBus) Close() {
	mb.closeMu.Lock()
	if mb.closed {
		mb.closeMu.Unlock()
		return
	}
	mb.closed = true
	close(mb.buffer)
	mb.closeMu.Unlock()
	<-mb.done
}

// dispatchLoop рассылает события подписчикам по порядку публикации
func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for ev := range mb.buffer {
		mb.mu.RLock()
		subs := make([]subscriber, 0, len(mb.subscribers))
		for _, sub := range mb.subscribers {
			subs = append(subs, sub)
		}
		mb.mu.RUnlock()

		for _, sub := range subs {
			if !matchFilter(ev, sub.filter) {
				continue
			}
			select {
			case <-sub.ctx.Done():
				continue
			default:
			}
			sub.handler(sub.ctx, ev)
			mb.count(func(s *Stats) { s.Consumed++ })
		}
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources) && match(ev.Metadata[MetaChunk], f.Chunks)
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
