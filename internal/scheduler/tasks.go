package scheduler

import (
	"context"
	"fmt"
	"time"

	"wellness-bot/internal/database"
	"wellness-bot/internal/metrics"
	"wellness-bot/internal/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Sweep periodic job; returns how many items it handled
type Sweep func(ctx context.Context) (int, error)

// Locker cross-instance lease; nil means a single instance
type Locker interface {
	Acquire(ctx context.Context, name string) (bool, error)
	Release(ctx context.Context, name string) error
}

// Scheduler periodic task scheduler
type Scheduler struct {
	cron    *cron.Cron
	db      *gorm.DB
	limiter *utils.RateLimiter
	lease   Locker
	sweeps  map[string]Sweep

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates the scheduler; a sweep never overlaps with itself
func NewScheduler(db *gorm.DB, limiter *utils.RateLimiter, lease Locker) *Scheduler {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		db:      db,
		limiter: limiter,
		lease:   lease,
		sweeps:  make(map[string]Sweep),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddSweep registers a named sweep on a cron spec such as "@every 1m"
func (s *Scheduler) AddSweep(name, spec string, sweep Sweep) error {
	if _, exists := s.sweeps[name]; exists {
		return fmt.Errorf("sweep %s already registered", name)
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunSweep(name) }); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	s.sweeps[name] = sweep
	return nil
}

// Start registers the maintenance tasks and starts the cron loop
func (s *Scheduler) Start() error {
	if s.limiter != nil {
		if _, err := s.cron.AddFunc("*/5 * * * *", s.cleanupLimiters); err != nil {
			return err
		}
	}
	if s.db != nil {
		if _, err := s.cron.AddFunc("*/5 * * * *", s.checkDatabaseHealth); err != nil {
			return err
		}
	}

	s.cron.Start()
	logrus.WithField("tasks", len(s.cron.Entries())).Info("⏰ scheduler started")
	return nil
}

// Stop stops scheduling new ticks and waits for running sweeps to finish;
// their context is cancelled only afterwards
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	logrus.Info("⏹️  scheduler stopped")
}

// RunSweep runs one sweep now; also called from cron
func (s *Scheduler) RunSweep(name string) {
	sweep, ok := s.sweeps[name]
	if !ok {
		logrus.WithField("sweep", name).Warn("⚠️ unknown sweep")
		return
	}

	if s.lease != nil {
		acquired, err := s.lease.Acquire(s.ctx, name)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"sweep": name,
				"error": err.Error(),
			}).Error("❌ failed to acquire sweep lease")
			metrics.SweepRuns.WithLabelValues(name, "error").Inc()
			return
		}
		if !acquired {
			logrus.WithField("sweep", name).Debug("sweep is running on another instance")
			metrics.SweepRuns.WithLabelValues(name, "skipped").Inc()
			return
		}
		defer func() {
			if err := s.lease.Release(context.Background(), name); err != nil {
				logrus.WithFields(logrus.Fields{
					"sweep": name,
					"error": err.Error(),
				}).Warn("⚠️ failed to release sweep lease")
			}
		}()
	}

	start := time.Now()
	n, err := sweep(s.ctx)
	metrics.SweepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SweepRuns.WithLabelValues(name, "error").Inc()
		logrus.WithFields(logrus.Fields{
			"sweep":   name,
			"handled": n,
			"error":   err.Error(),
		}).Error("❌ sweep failed")
		return
	}

	metrics.SweepRuns.WithLabelValues(name, "ok").Inc()
	entry := logrus.WithFields(logrus.Fields{
		"sweep":    name,
		"handled":  n,
		"duration": time.Since(start).String(),
	})
	if n > 0 {
		entry.Info("✅ sweep finished")
	} else {
		entry.Debug("sweep finished, nothing to do")
	}
}

func (s *Scheduler) cleanupLimiters() {
	removed := s.limiter.CleanupOldLimiters(30 * time.Minute)
	logrus.WithField("removed", removed).Debug("🧹 old rate limiters cleaned up")
}

func (s *Scheduler) checkDatabaseHealth() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	if err := database.PingWithRetry(ctx, s.db, 3); err != nil {
		logrus.WithField("error", err.Error()).Error("❌ database health check failed")
		return
	}
	logrus.WithField("pool", database.Stats(s.db)).Debug("✅ database connection healthy")
}
