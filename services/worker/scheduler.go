package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"sjsage522/cardmonitor/helpers"
)

// Scanner runs one scan
type Scanner interface {
	RunScan(ctx context.Context) Summary
}

// Scheduler triggers scans on a cron schedule such as "@every 1h"
type Scheduler struct {
	cron    *cron.Cron
	scanner Scanner
	spec    string
	logger  helpers.LoggerInterface

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler for scanner
func NewScheduler(scanner Scanner, spec string, logger helpers.LoggerInterface) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		scanner: scanner,
		spec:    spec,
		logger:  logger,
	}
}

// Start registers the scan job and starts the scheduler. One scan runs
// immediately so results do not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runScan(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid scan schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.LogInfo("Scheduler started with schedule %s", s.spec)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runScan(ctx)
	}()

	return nil
}

// Stop stops the scheduler and waits for a running scan to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.LogInfo("Scheduler stopped")
}

// runScan runs a scan unless one is already in progress
func (s *Scheduler) runScan(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.LogInfo("Previous scan still running, skipping this tick")
		return false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return false
	}
	s.scanner.RunScan(ctx)
	return true
}
