// Package logger drains the kernel log queue to the log sinks. It runs
// outside the real-time task set so slow sinks never delay a task.
package logger

import (
	"context"

	"cruise/cruiseos/kernel"
	"cruise/hal"
)

type Service struct {
	queue *kernel.Queue[string]
	sinks []hal.Logger
}

func New(queue *kernel.Queue[string], sinks ...hal.Logger) *Service {
	s := &Service{queue: queue}
	for _, l := range sinks {
		if l != nil {
			s.sinks = append(s.sinks, l)
		}
	}
	return s
}

// Run writes queued lines until ctx is done, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	for {
		line, err := s.queue.Recv(ctx)
		if err != nil {
			s.Drain()
			return nil
		}
		s.write(line)
	}
}

// Drain writes every queued line without blocking.
func (s *Service) Drain() {
	for {
		line, ok := s.queue.TryRecv()
		if !ok {
			return
		}
		s.write(line)
	}
}

func (s *Service) write(line string) {
	for _, l := range s.sinks {
		l.WriteLineString(line)
	}
}
