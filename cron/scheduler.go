package cron

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"glowbook/utils"

	"go.uber.org/zap"
)

// TaskFunc runs one pass of a periodic task and reports how many items it handled.
type TaskFunc func(ctx context.Context) (int, error)

// Task is one independently ticking job.
type Task struct {
	Name     string
	Interval time.Duration
	Run      TaskFunc
}

type taskState struct {
	Task
	running atomic.Bool
}

// Scheduler runs each task on its own ticker. A tick that fires while the previous pass is
// still running is skipped for that task only.
type Scheduler struct {
	tasks  []*taskState
	locker utils.Locker
	logger *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewScheduler(locker utils.Locker, logger *zap.Logger, tasks ...Task) *Scheduler {
	if locker == nil {
		locker = utils.NoopLocker{}
	}
	s := &Scheduler{locker: locker, logger: logger}
	for _, t := range tasks {
		s.tasks = append(s.tasks, &taskState{Task: t})
	}
	return s
}

// Start launches one goroutine per task.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	for _, t := range s.tasks {
		if t.Interval <= 0 {
			return fmt.Errorf("task %s: interval must be positive", t.Name)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
		s.logger.Info("Periodic task started", zap.String("task", t.Name), zap.Duration("interval", t.Interval))
	}
	return nil
}

// Stop cancels in-flight passes and waits for every loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Periodic tasks stopped")
}

func (s *Scheduler) loop(ctx context.Context, t *taskState) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.running.CompareAndSwap(false, true) {
				s.logger.Debug("Skipping tick, previous pass still running", zap.String("task", t.Name))
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer t.running.Store(false)
				s.RunOnce(ctx, t.Task)
			}()
		}
	}
}

// RunOnce runs a single pass of the task under the distributed lock.
// Losing the lock is not an error: another replica is running the same pass.
func (s *Scheduler) RunOnce(ctx context.Context, t Task) {
	release, ok, err := s.locker.TryLock(ctx, t.Name, t.Interval)
	if err != nil {
		// The guarded writes keep a duplicate pass harmless, so run without the lock.
		s.logger.Warn("Task lock unavailable, running unlocked", zap.String("task", t.Name), zap.Error(err))
		release, ok = func() {}, true
	}
	if !ok {
		return
	}
	defer release()

	start := time.Now()
	n, err := t.Run(ctx)
	if err != nil {
		s.logger.Error("Periodic task failed", zap.String("task", t.Name), zap.Int("handled", n), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Debug("Periodic task pass", zap.String("task", t.Name), zap.Int("handled", n), zap.Duration("took", time.Since(start)))
	}
}
