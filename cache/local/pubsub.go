package local

import (
	"context"
	"sync"
)

// PubSubMessage is an in-process pub/sub message.
type PubSubMessage struct {
	Channel string
	Payload string
}

// PubSub is an in-process fan-out pub/sub implementation.
type PubSub struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[string]map[int]chan *PubSubMessage // channel → subscriber id → chan
	bufSize int
}

// NewPubSub creates a PubSub with the given per-subscriber buffer size.
func NewPubSub(bufSize int) *PubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &PubSub{
		subs:    make(map[string]map[int]chan *PubSubMessage),
		bufSize: bufSize,
	}
}

// Publish sends a message to all subscribers of the given channel.
// Slow subscribers with full buffers miss the message rather than block
// the publisher.
func (ps *PubSub) Publish(_ context.Context, channel, message string) error {
	msg := &PubSubMessage{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, ch := range ps.subs[channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe returns a message channel covering all given channels and a
// cancel function that unsubscribes and closes it.
func (ps *PubSub) Subscribe(_ context.Context, channels ...string) (<-chan *PubSubMessage, func(), error) {
	ch := make(chan *PubSubMessage, ps.bufSize)

	ps.mu.Lock()
	id := ps.nextID
	ps.nextID++
	for _, c := range channels {
		m, ok := ps.subs[c]
		if !ok {
			m = make(map[int]chan *PubSubMessage)
			ps.subs[c] = m
		}
		m[id] = ch
	}
	ps.mu.Unlock()

	cancel := func() {
		ps.mu.Lock()
		for _, c := range channels {
			if m, ok := ps.subs[c]; ok {
				delete(m, id)
				if len(m) == 0 {
					delete(ps.subs, c)
				}
			}
		}
		ps.mu.Unlock()
		close(ch)
	}

	return ch, cancel, nil
}
