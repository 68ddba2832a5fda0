package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper removes expired sessions and reports how many went.
type Sweeper interface {
	Sweep() int
}

// Scheduler runs the session sweep on a cron schedule.
type Scheduler struct {
	sweeper    Sweeper
	logger     *zap.Logger
	schedule   string
	cron       *cron.Cron
	entryID    cron.EntryID
	running    bool
	mu         sync.Mutex
	lastRun    time.Time
	lastSwept  int
	totalSwept int
}

func NewScheduler(sweeper Sweeper, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		logger:   logger,
		schedule: schedule,
		cron:     cron.New(),
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	id, err := s.cron.AddFunc(s.schedule, s.runSweep)
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.entryID = id
	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(id).Next))
	return nil
}

func (s *Scheduler) runSweep() {
	startTime := time.Now()
	swept := s.sweeper.Sweep()

	s.mu.Lock()
	s.lastRun = startTime
	s.lastSwept = swept
	s.totalSwept += swept
	s.mu.Unlock()

	s.logger.Debug("Session sweep completed",
		zap.Int("swept", swept),
		zap.Duration("duration", time.Since(startTime)))
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// ForceRun sweeps immediately, outside the schedule.
func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering session sweep")
	s.runSweep()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":     s.running,
		"schedule":    s.schedule,
		"last_run":    s.lastRun,
		"last_swept":  s.lastSwept,
		"total_swept": s.totalSwept,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}
