package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/services/pipeline"
)

// Service triggers scheduled batch generation runs on a cron schedule.
type Service struct {
	orchestrator *pipeline.Orchestrator
	config       *common.SchedulerConfig
	logger       arbor.ILogger
	cron         *cron.Cron
	mu           sync.Mutex
	running      bool
}

// NewService creates a new scheduler service
func NewService(orchestrator *pipeline.Orchestrator, config *common.SchedulerConfig, logger arbor.ILogger) *Service {
	return &Service{
		orchestrator: orchestrator,
		config:       config,
		logger:       logger,
	}
}

// Start registers the batch job and starts the cron loop. No-op when the
// scheduler is disabled in config.
func (s *Service) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduler disabled")
		return nil
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 */6 * * *"
	}

	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = 3
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		s.runBatch(ctx, batchSize)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", schedule, err)
	}

	c.Start()
	s.cron = c

	s.logger.Info().
		Str("schedule", schedule).
		Int("batch_size", batchSize).
		Msg("Scheduler started")

	return nil
}

// runBatch executes one scheduled batch, skipping if the previous one is
// still in flight.
func (s *Service) runBatch(ctx context.Context, batchSize int) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous scheduled batch still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info().Int("batch_size", batchSize).Msg("Scheduled batch starting")

	result := s.orchestrator.GenerateBatch(ctx, batchSize)

	s.logger.Info().
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Scheduled batch finished")
}

// Stop halts the cron loop, waiting for any running job to finish.
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}
