package app

import (
	"sync"

	"line-quiz-bot/internal/domain"
)

// CompletionFeed fans completion records out to staff subscribers (the
// websocket feed). Slow subscribers drop their oldest pending event rather
// than blocking the dispatcher.
type CompletionFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.CompletionRecord]struct{}
}

func NewCompletionFeed() *CompletionFeed {
	return &CompletionFeed{subscribers: make(map[chan domain.CompletionRecord]struct{})}
}

// Subscribe returns a channel of completion events. The caller must invoke
// the returned cancel function to avoid leaks.
func (f *CompletionFeed) Subscribe() (<-chan domain.CompletionRecord, func()) {
	ch := make(chan domain.CompletionRecord, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a record to every subscriber.
func (f *CompletionFeed) Publish(rec domain.CompletionRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- rec:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- rec
		}
	}
}
