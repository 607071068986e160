package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/airdropindexer/evmscan/log"
)

var loopLogger = log.NewModuleLogger(log.Scheduler)

// Runnable is one pipeline stage: NetworkScanner, BlockScanner, TxScanner,
// SourceScanner, DateScanner, or TokenScanner all satisfy this by their
// Run(ctx) method.
type Runnable interface {
	Run(ctx context.Context)
}

// Loop repeatedly calls a Runnable's Run method on a fixed interval until
// stopped, grounded on
// datasync/chaindatafetcher/chaindata_fetcher.go's Start/Stop goroutine
// lifecycle (stopCh close + WaitGroup drain, reproduced per stage instead
// of per chain-data-fetcher-wide handler pool since each stage now owns an
// independent schedule).
type Loop struct {
	name     string
	runnable Runnable
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewLoop(name string, runnable Runnable, interval time.Duration) *Loop {
	return &Loop{
		name:     name,
		runnable: runnable,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the loop's goroutine. It is safe to call at most once.
func (l *Loop) Start(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		loopLogger.Info("scanner loop started", "name", l.name, "interval", l.interval)
		for {
			l.runnable.Run(ctx)
			select {
			case <-l.stopCh:
				loopLogger.Info("scanner loop stopped", "name", l.name)
				return
			case <-ctx.Done():
				loopLogger.Info("scanner loop stopped by context cancellation", "name", l.name)
				return
			case <-time.After(l.interval):
			}
		}
	}()
}

// Stop signals the loop to exit and blocks until its goroutine returns.
func (l *Loop) Stop() {
	close(l.stopCh)
	l.wg.Wait()
}

// Scheduler owns every stage's Loop and starts/stops them together, the
// multi-handler analogue of ChainDataFetcher.Start/Stop.
type Scheduler struct {
	loops []*Loop
}

func NewScheduler(loops ...*Loop) *Scheduler {
	return &Scheduler{loops: loops}
}

func (s *Scheduler) Start(ctx context.Context) {
	for _, l := range s.loops {
		l.Start(ctx)
	}
}

func (s *Scheduler) Stop() {
	for _, l := range s.loops {
		l.Stop()
	}
}
