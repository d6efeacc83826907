package kernel

import (
	"errors"
	"sync"
)

var ErrInvalidPeriod = errors.New("timer period must be at least one tick")

// Timer is a periodic software timer counted in hardware ticks. The first
// expiry happens one full period after Start.
type Timer struct {
	svc    *TimerService
	name   string
	period uint32
	fire   func()

	count    uint32
	running  bool
	expiries uint64
}

func (t *Timer) Name() string { return t.name }

// TimerService drives every software timer from one hardware tick source.
type TimerService struct {
	mu     sync.Mutex
	timers []*Timer
	now    uint64

	deadlines map[uint64]deadline
	nextID    uint64
}

// deadline is a one-shot callback bound to an absolute tick.
type deadline struct {
	at   uint64
	fire func()
}

func NewTimerService() *TimerService {
	return &TimerService{}
}

// NewTimer registers a stopped periodic timer. fire runs on the tick path and
// must not block.
func (s *TimerService) NewTimer(name string, period uint32, fire func()) (*Timer, error) {
	if period == 0 {
		return nil, ErrInvalidPeriod
	}
	t := &Timer{svc: s, name: name, period: period, fire: fire}
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
	return t, nil
}

// Start arms the timer. Starting a running timer is a no-op.
func (t *Timer) Start() {
	if t == nil {
		return
	}
	t.svc.mu.Lock()
	t.running = true
	t.svc.mu.Unlock()
}

// Stop disarms the timer and discards the partial period.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.svc.mu.Lock()
	t.running = false
	t.count = 0
	t.svc.mu.Unlock()
}

// At runs fire once when tick at is processed, before the periodic timers of
// that tick expire. If tick at has already been processed, fire runs before
// At returns. cancel drops a deadline that has not fired yet.
func (s *TimerService) At(at uint64, fire func()) (cancel func()) {
	s.mu.Lock()
	if at <= s.now {
		s.mu.Unlock()
		fire()
		return func() {}
	}
	if s.deadlines == nil {
		s.deadlines = make(map[uint64]deadline)
	}
	s.nextID++
	id := s.nextID
	s.deadlines[id] = deadline{at: at, fire: fire}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.deadlines, id)
		s.mu.Unlock()
	}
}

// Timers returns the registered timer names in registration order.
func (s *TimerService) Timers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.timers))
	for _, t := range s.timers {
		names = append(names, t.name)
	}
	return names
}

// Now returns the number of hardware ticks processed.
func (s *TimerService) Now() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Expiries returns how many times the named timer expired.
func (s *TimerService) Expiries(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		if t.name == name {
			return t.expiries
		}
	}
	return 0
}

// Tick processes one hardware tick.
func (s *TimerService) Tick() {
	s.mu.Lock()
	s.now++
	fired := s.advance()
	s.mu.Unlock()

	for _, fn := range fired {
		fn()
	}
}

// TickTo processes ticks up to and including seq. Ticks dropped by the
// source are caught up one by one so no release is lost.
func (s *TimerService) TickTo(seq uint64) {
	for {
		s.mu.Lock()
		if s.now >= seq {
			s.mu.Unlock()
			return
		}
		s.now++
		fired := s.advance()
		s.mu.Unlock()

		for _, fn := range fired {
			fn()
		}
	}
}

func (s *TimerService) advance() []func() {
	var fired []func()
	for id, d := range s.deadlines {
		if d.at <= s.now {
			fired = append(fired, d.fire)
			delete(s.deadlines, id)
		}
	}
	for _, t := range s.timers {
		if !t.running {
			continue
		}
		t.count++
		if t.count < t.period {
			continue
		}
		t.count = 0
		t.expiries++
		if t.fire != nil {
			fired = append(fired, t.fire)
		}
	}
	return fired
}
