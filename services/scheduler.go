// services/scheduler.go - Background scheduler
//
// A process-wide coordinator constructed once at startup with an injected
// store handle. Each task fires on its own interval; a tick that arrives
// while the same task is still running is skipped, not queued. Task
// failures are logged and contained, sibling tasks keep running.
package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Task names, also the manual-trigger keys on the admin surface.
const (
	TaskQuestExpiration = "quest_expiration"
	TaskEventGeneration = "event_generation"
	TaskNotifications   = "notifications"
)

// SchedulerConfig carries per-task intervals. Zero values fall back to
// defaults.
type SchedulerConfig struct {
	QuestExpirationEvery time.Duration
	EventGenerationEvery time.Duration
	NotificationsEvery   time.Duration
}

func (c *SchedulerConfig) applyDefaults() {
	if c.QuestExpirationEvery <= 0 {
		c.QuestExpirationEvery = time.Minute
	}
	if c.EventGenerationEvery <= 0 {
		c.EventGenerationEvery = 10 * time.Minute
	}
	if c.NotificationsEvery <= 0 {
		c.NotificationsEvery = 30 * time.Second
	}
}

// TaskStatus is one task's view in Status().
type TaskStatus struct {
	Running   bool       `json:"running"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Runs      int64      `json:"runs"`
	Skipped   int64      `json:"skipped"`
	Interval  string     `json:"interval"`
}

type task struct {
	name     string
	interval time.Duration
	run      func(context.Context) error

	running atomic.Bool
	skipped atomic.Int64

	mu        sync.Mutex
	lastRun   time.Time
	lastError string
	runs      int64
}

type Scheduler struct {
	queue  *NotificationQueue
	events *EventGenerator
	quests *QuestExpirer

	tasks []*task

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewScheduler wires the scheduler to its collaborators. It does not start
// anything; call Start explicitly.
func NewScheduler(queue *NotificationQueue, quests *QuestExpirer, events *EventGenerator, cfg SchedulerConfig) *Scheduler {
	cfg.applyDefaults()
	s := &Scheduler{queue: queue, quests: quests, events: events}
	s.tasks = []*task{
		{name: TaskQuestExpiration, interval: cfg.QuestExpirationEvery, run: s.runQuestExpiration},
		{name: TaskEventGeneration, interval: cfg.EventGenerationEvery, run: s.runEventGeneration},
		{name: TaskNotifications, interval: cfg.NotificationsEvery, run: s.runNotifications},
	}
	return s
}

// Start fires one timer loop per task. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = true

	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	log.Printf("scheduler started with %d tasks", len(s.tasks))
}

// Stop disables future timer firings and waits for in-flight task runs to
// finish. It does not abort in-progress work.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	log.Println("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t *task) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, t)
		}
	}
}

// fire runs one guarded invocation of a task. The overlap policy: if the
// previous run of the same task is still executing, this invocation is
// skipped.
func (s *Scheduler) fire(ctx context.Context, t *task) error {
	if !t.running.CompareAndSwap(false, true) {
		t.skipped.Add(1)
		log.Printf("scheduler: %s still running, tick skipped", t.name)
		return nil
	}
	defer t.running.Store(false)

	err := s.safeRun(ctx, t)

	t.mu.Lock()
	t.lastRun = time.Now().UTC()
	t.runs++
	if err != nil {
		t.lastError = err.Error()
	} else {
		t.lastError = ""
	}
	t.mu.Unlock()

	if err != nil {
		log.Printf("scheduler: %s failed: %v", t.name, err)
	}
	return err
}

// safeRun contains panics so a broken task never halts the scheduler or
// its siblings; a panic surfaces as the run's error.
func (s *Scheduler) safeRun(ctx context.Context, t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduler: %s panicked: %v", t.name, r)
			err = fmt.Errorf("%s panicked: %v", t.name, r)
		}
	}()
	return t.run(ctx)
}

// Status reports running/idle per task with last-run timestamps.
func (s *Scheduler) Status() map[string]TaskStatus {
	out := make(map[string]TaskStatus, len(s.tasks))
	for _, t := range s.tasks {
		t.mu.Lock()
		status := TaskStatus{
			Running:   t.running.Load(),
			LastError: t.lastError,
			Runs:      t.runs,
			Skipped:   t.skipped.Load(),
			Interval:  t.interval.String(),
		}
		if !t.lastRun.IsZero() {
			lr := t.lastRun
			status.LastRun = &lr
		}
		t.mu.Unlock()
		out[t.name] = status
	}
	return out
}

// Running reports whether the timer loops are active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Trigger invokes one task by name, bypassing the timer. Used by the admin
// manual-trigger surface for operational recovery. Manual runs go through
// the same overlap guard and containment as timer ticks and show up in
// Status().
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	for _, t := range s.tasks {
		if t.name == name {
			return s.fire(ctx, t)
		}
	}
	return ErrNotFound
}

func (s *Scheduler) runQuestExpiration(ctx context.Context) error {
	n, err := s.quests.ExpireDue(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("scheduler: expired %d quests", n)
	}
	return nil
}

func (s *Scheduler) runEventGeneration(ctx context.Context) error {
	n, err := s.events.GenerateDue(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("scheduler: generated %d random events", n)
	}
	return nil
}

func (s *Scheduler) runNotifications(ctx context.Context) error {
	sent, err := s.queue.ProcessDelayed()
	if err != nil {
		return err
	}
	reminded, err := s.queue.CheckReminders()
	if err != nil {
		return err
	}
	expired, err := s.queue.CleanupExpired()
	if err != nil {
		return err
	}
	if sent > 0 || reminded > 0 || expired > 0 {
		log.Printf("scheduler: notifications sent=%d reminded=%d expired=%d", sent, reminded, expired)
	}
	return nil
}
