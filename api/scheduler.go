/*
scheduler.go - Automated monthly accrual scheduler

PURPOSE:
  Periodically checks whether the accrual batch has run for the current
  month and triggers it when it has not. The first run of January also
  applies the year-end carry-forward inside the batch.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Tracks the last month processed; a month is run at most once per
    process. The batch itself is idempotent per employee only through
    the persisted balances, so the in-process guard carries the
    scheduling responsibility.
  - Manual runs through the admin endpoint are independent of this
    guard; operators own that path.

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewAccrualScheduler(svc)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunAccrual endpoint (manual trigger)
  - leave/service.go: RunAccrual batch
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/leave-ledger/leave"
)

// AccrualScheduler triggers the monthly accrual batch.
type AccrualScheduler struct {
	Service       *leave.Service
	CheckInterval time.Duration
	Enabled       bool

	ticker    *time.Ticker
	stop      chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	lastMonth string // "2006-01" of the last batch run
}

// NewAccrualScheduler creates a new scheduler.
func NewAccrualScheduler(svc *leave.Service) *AccrualScheduler {
	return &AccrualScheduler{
		Service:       svc,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (as *AccrualScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)

	go as.run()

	log.Printf("[Scheduler] Started with check interval: %v", as.CheckInterval)
}

// Stop stops the scheduler. Safe to call more than once and without a
// prior Start. The mutex is released before waiting: the run goroutine
// takes it in checkAndProcess, so waiting under it would deadlock.
func (as *AccrualScheduler) Stop() {
	as.mu.Lock()
	ticker := as.ticker
	as.ticker = nil
	as.mu.Unlock()

	if ticker == nil {
		return
	}

	ticker.Stop()
	close(as.stop)
	as.wg.Wait()
	log.Println("[Scheduler] Stopped")
}

func (as *AccrualScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start
	as.checkAndProcess()

	for {
		select {
		case <-as.ticker.C:
			as.checkAndProcess()
		case <-as.stop:
			return
		}
	}
}

func (as *AccrualScheduler) checkAndProcess() {
	now := time.Now()
	month := now.Format("2006-01")

	as.mu.Lock()
	done := as.lastMonth == month
	as.mu.Unlock()
	if done {
		return
	}

	log.Printf("[Scheduler] Running accrual batch for %s", month)
	summary, err := as.Service.RunAccrual(context.Background(), now)
	if err != nil {
		log.Printf("[Scheduler] Accrual batch for %s failed: %v", month, err)
		return
	}

	as.mu.Lock()
	as.lastMonth = month
	as.mu.Unlock()

	log.Printf("[Scheduler] Accrual batch for %s completed: processed=%d skipped=%d failures=%d",
		month, summary.EmployeesProcessed, summary.EmployeesSkipped, len(summary.Failures))
}

// RunNow triggers an immediate check (for testing/admin).
func (as *AccrualScheduler) RunNow() {
	as.checkAndProcess()
}
