package relay

import (
	"sync"

	"page_capture/domain/entities"
)

// mailbox is an unbounded, ordered queue in front of a subscriber channel.
// push never blocks, so a slow panel cannot stall the page.
type mailbox struct {
	mu     sync.Mutex
	queue  []entities.Message
	signal chan struct{}
	done   chan struct{}
	out    chan entities.Message
	once   sync.Once
	pumped chan struct{}
}

func newMailbox() *mailbox {
	mb := &mailbox{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan entities.Message),
		pumped: make(chan struct{}),
	}
	go mb.pump()
	return mb
}

func (mb *mailbox) push(msg entities.Message) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, msg)
	mb.mu.Unlock()

	select {
	case mb.signal <- struct{}{}:
	default:
	}
}

func (mb *mailbox) pump() {
	defer close(mb.pumped)
	defer close(mb.out)
	for {
		select {
		case <-mb.done:
			return
		case <-mb.signal:
		}
		for {
			mb.mu.Lock()
			if len(mb.queue) == 0 {
				mb.mu.Unlock()
				break
			}
			msg := mb.queue[0]
			mb.queue = mb.queue[1:]
			mb.mu.Unlock()

			select {
			case mb.out <- msg:
			case <-mb.done:
				return
			}
		}
	}
}

// close stops the pump and waits for it; out is closed afterwards.
func (mb *mailbox) close() {
	mb.once.Do(func() { close(mb.done) })
	<-mb.pumped
}
