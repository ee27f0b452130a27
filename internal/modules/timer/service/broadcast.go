package service

import (
	"sync"

	"pomoguard/internal/modules/timer/domain"
	"pomoguard/internal/platform/id"
)

// Broadcaster fans state updates out to subscribers without blocking the
// engine. A subscriber whose buffer is full misses that update.
type Broadcaster struct {
	mu   sync.Mutex
	ids  id.Generator
	subs map[string]chan domain.View
}

func NewBroadcaster(ids id.Generator) *Broadcaster {
	if ids == nil {
		ids = id.UUID{}
	}
	return &Broadcaster{ids: ids, subs: map[string]chan domain.View{}}
}

func (b *Broadcaster) Subscribe(buffer int) (<-chan domain.View, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan domain.View, buffer)
	key := b.ids.New()
	b.mu.Lock()
	b.subs[key] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if cur, ok := b.subs[key]; ok && cur == ch {
				delete(b.subs, key)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

// Publish returns how many subscribers missed the update.
func (b *Broadcaster) Publish(view domain.View) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := 0
	for _, ch := range b.subs {
		select {
		case ch <- view:
		default:
			dropped++
		}
	}
	return dropped
}

func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, ch := range b.subs {
		delete(b.subs, key)
		close(ch)
	}
}
