package bot

import (
	"context"
	"sync"
	"time"

	"github.com/ritzzi23/clawfin/internal/chat"
)

// dispatcher feeds each conversation's messages to the handler one at a
// time, while different conversations run in parallel. A conversation's
// worker exits after sitting idle.
type dispatcher struct {
	handler chat.Handler
	idle    time.Duration
	ctx     context.Context

	mu     sync.Mutex
	queues map[string]*queue
	wg     sync.WaitGroup
}

type queue struct {
	ch      chan chat.Message
	pending int // guarded by dispatcher.mu
}

func newDispatcher(h chat.Handler, idle time.Duration) *dispatcher {
	return &dispatcher{
		handler: h,
		idle:    idle,
		ctx:     context.Background(),
		queues:  make(map[string]*queue),
	}
}

func (d *dispatcher) dispatch(msg chat.Message) {
	d.mu.Lock()
	q, ok := d.queues[msg.ConversationID]
	if !ok {
		q = &queue{ch: make(chan chat.Message, 64)}
		d.queues[msg.ConversationID] = q
		d.wg.Add(1)
		go d.work(msg.ConversationID, q)
	}
	q.pending++
	d.mu.Unlock()

	select {
	case q.ch <- msg:
	case <-d.ctx.Done():
	}
}

func (d *dispatcher) work(id string, q *queue) {
	defer d.wg.Done()
	for {
		select {
		case msg := <-q.ch:
			d.handler.HandleMessage(d.ctx, msg)
			d.mu.Lock()
			q.pending--
			d.mu.Unlock()
		case <-time.After(d.idle):
			d.mu.Lock()
			if q.pending == 0 {
				delete(d.queues, id)
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *dispatcher) wait() {
	d.wg.Wait()
}
