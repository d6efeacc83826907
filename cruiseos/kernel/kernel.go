package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	maxTasks     = 16
	logQueueSlot = 64
)

var (
	// ErrNoTickSource is returned by Start when no hardware tick stream is available.
	ErrNoTickSource = errors.New("no system clock available")
	ErrStarted      = errors.New("kernel already started")
	ErrTooManyTasks = errors.New("task table full")
	ErrInvalidTask  = errors.New("invalid task")
)

type TaskID uint8

// Priority is a static task priority. Lower values are more urgent.
type Priority uint8

// Task is one periodic unit of execution.
//
// Step runs one iteration of the task loop. It may suspend only at
// Context.WaitRelease or at a blocking receive.
type Task interface {
	Step(*Context)
}

// Spec describes a task registered with AddTask.
type Spec struct {
	Name     string
	Priority Priority
	// Period in hardware ticks. Zero means no software timer releases the task.
	Period uint32
	Task   Task
}

// Metrics receives kernel-level measurements. Implementations must be safe for
// concurrent use.
type Metrics interface {
	TaskReleased(task string)
	TaskStep(task string, d time.Duration)
}

type Config struct {
	Metrics Metrics
	// Now overrides the clock used by Context.Busy.
	Now func() time.Time
	// LogSlots bounds the log queue (default 64).
	LogSlots int
}

type taskState struct {
	id       TaskID
	name     string
	priority Priority
	task     Task
	release  *Release
	timer    *Timer

	// grant is signalled by the processor when this task becomes the owner.
	grant chan struct{}
	seq   uint64
}

// Kernel owns the task table, the software timers, and the processor model.
type Kernel struct {
	mu      sync.Mutex
	tasks   []*taskState
	started bool

	cpu    processor
	timers *TimerService
	log    *Queue[string]

	metrics Metrics
	now     func() time.Time

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New creates a kernel instance.
func New(cfg Config) *Kernel {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.LogSlots <= 0 {
		cfg.LogSlots = logQueueSlot
	}
	return &Kernel{
		timers:  NewTimerService(),
		log:     NewQueue[string](cfg.LogSlots),
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}
}

// Timers returns the software timer service driven by the hardware tick.
func (k *Kernel) Timers() *TimerService { return k.timers }

// LogQueue returns the queue tasks post log lines to.
func (k *Kernel) LogQueue() *Queue[string] { return k.log }

// Logf posts a best-effort log line. It never blocks.
func (k *Kernel) Logf(format string, args ...any) {
	if k == nil {
		return
	}
	k.log.TrySend(fmt.Sprintf(format, args...))
}

// AddTask registers a task and, for periodic tasks, the software timer that
// releases it. Tasks can only be added before Start.
func (k *Kernel) AddTask(spec Spec) (TaskID, error) {
	if spec.Task == nil || spec.Name == "" {
		return 0, ErrInvalidTask
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.started {
		return 0, ErrStarted
	}
	if len(k.tasks) >= maxTasks {
		return 0, ErrTooManyTasks
	}

	st := &taskState{
		id:       TaskID(len(k.tasks)),
		name:     spec.Name,
		priority: spec.Priority,
		task:     spec.Task,
		grant:    make(chan struct{}, 1),
	}
	if spec.Period > 0 {
		st.release = NewRelease()
		tmr, err := k.timers.NewTimer(spec.Name, spec.Period, st.release.Signal)
		if err != nil {
			return 0, fmt.Errorf("task %s: %w", spec.Name, err)
		}
		st.timer = tmr
	}
	k.tasks = append(k.tasks, st)
	return st.id, nil
}

// Start binds the tick stream, starts every software timer and launches the
// task set. It returns ErrNoTickSource if ticks is nil; in that case no task
// is started.
func (k *Kernel) Start(ctx context.Context, ticks <-chan uint64) error {
	if ticks == nil {
		return ErrNoTickSource
	}

	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return ErrStarted
	}
	k.started = true
	tasks := append([]*taskState(nil), k.tasks...)
	k.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	k.group = g
	k.cancel = cancel

	for _, st := range tasks {
		if st.timer != nil {
			st.timer.Start()
		}
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case seq, ok := <-ticks:
				if !ok {
					return nil
				}
				k.timers.TickTo(seq)
			}
		}
	})

	for _, st := range tasks {
		st := st
		g.Go(func() error { return k.run(gctx, st) })
	}
	return nil
}

// Stop disarms the software timers, cancels the task set and waits for every
// task to return.
func (k *Kernel) Stop() error {
	k.mu.Lock()
	for _, st := range k.tasks {
		st.timer.Stop()
	}
	k.mu.Unlock()

	if k.cancel != nil {
		k.cancel()
	}
	return k.Wait()
}

// Wait blocks until the task set has exited.
func (k *Kernel) Wait() error {
	if k.group == nil {
		return nil
	}
	return k.group.Wait()
}

// Tasks returns the registered task names in registration order.
func (k *Kernel) Tasks() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	names := make([]string, 0, len(k.tasks))
	for _, st := range k.tasks {
		names = append(names, st.name)
	}
	return names
}

// ReleaseStats is the release bookkeeping of one periodic task.
type ReleaseStats struct {
	Task      string
	Pending   uint32
	Signalled uint64
}

// Releases returns the release bookkeeping of every periodic task.
func (k *Kernel) Releases() []ReleaseStats {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]ReleaseStats, 0, len(k.tasks))
	for _, st := range k.tasks {
		if st.release == nil {
			continue
		}
		out = append(out, ReleaseStats{Task: st.name, Pending: st.release.Pending(), Signalled: st.release.Total()})
	}
	return out
}

func (k *Kernel) run(ctx context.Context, st *taskState) (err error) {
	c := &Context{k: k, st: st, ctx: ctx}

	defer func() {
		if r := recover(); r != nil {
			triggerPanic(PanicInfo{TaskID: st.id, Task: st.name, Value: r})
			err = fmt.Errorf("task %s: panic: %v", st.name, r)
		}
		k.cpu.release(st)
	}()

	if err := k.cpu.acquire(ctx, st); err != nil {
		return nil
	}
	for ctx.Err() == nil {
		start := k.now()
		st.task.Step(c)
		if k.metrics != nil {
			k.metrics.TaskStep(st.name, k.now().Sub(start))
		}
	}
	return nil
}
