package events

import "sync"

// Sequencer hands out increasing tickets and runs work in ticket order.
// Owners take a ticket while holding their own state lock and run the
// delivery after releasing it, so deliveries follow the order of the state
// changes that produced them. The zero value is ready to use.
type Sequencer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	issued uint64
	done   uint64
}

// Next reserves the next ticket. Tickets start at 1.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Run blocks until every earlier ticket has run, then calls fn. fn must not
// take a ticket and Run it on the same goroutine.
func (s *Sequencer) Run(ticket uint64, fn func()) {
	s.mu.Lock()
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
	for s.done+1 != ticket {
		s.cond.Wait()
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.done = ticket
		s.cond.Broadcast()
		s.mu.Unlock()
	}()
	fn()
}
