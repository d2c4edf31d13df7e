// Package worker is the background consumer for the job queue. It claims
// pending records, performs the deferred game-state work, and stamps each
// record with a terminal result exactly once.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/krumpled/krumd/internal/core"
	"github.com/krumpled/krumd/internal/jobs"
)

var (
	jobsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "krumd_worker_jobs_processed_total",
		Help: "The total number of jobs brought to a terminal state",
	})
	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "krumd_worker_jobs_failed_total",
		Help: "The total number of jobs that reached the failed state",
	})
	queueLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "krumd_worker_queue_seconds",
		Help:    "Time jobs spend between enqueue and claim",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})
)

// Server polls the job store for pending records and fans the work out over a
// bounded pool.
type Server struct {
	Config  *core.Config
	Logger  *logrus.Logger
	Store   *jobs.Store
	Records *gorm.DB

	pool *workerpool.WorkerPool
}

// Start launches the polling loop on its own goroutine and adds it to the
// WaitGroup. Context cancellation drains the pool before returning.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup) {
	s.pool = workerpool.New(s.Config.Worker.PoolSize)
	interval := time.Duration(s.Config.Worker.PollIntervalMs) * time.Millisecond

	wg.Add(1)
	go s.run(ctx, wg, interval)
}

func (s *Server) run(ctx context.Context, wg *sync.WaitGroup, interval time.Duration) {
	defer wg.Done()

	s.Logger.Infof("[WORKER] polling for pending jobs every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Logger.Infof("[WORKER] shutting down (draining pool)")
			s.pool.StopWait()
			s.Logger.Infof("[WORKER] exited")
			return
		case <-ticker.C:
			s.drainPending()
		}
	}
}

// drainPending claims every record currently available and submits each to
// the pool. Claiming stops at the first empty poll.
func (s *Server) drainPending() {
	for {
		record, err := s.Store.ClaimNext()
		if err != nil {
			s.Logger.Errorf("unable to claim pending job: %s", err)
			return
		}
		if record == nil {
			return
		}

		queueLatency.Observe(time.Since(record.CreatedAt).Seconds())
		claimed := record
		s.pool.Submit(func() { s.process(claimed) })
	}
}

// process performs the work for one claimed record and stamps its terminal
// state. A failure to record the outcome is logged; the record stays claimed
// and is surfaced by operational tooling rather than retried here.
func (s *Server) process(record *jobs.Record) {
	s.Logger.Debugf("processing %s job '%s'", record.Kind, record.ID)

	result, err := s.perform(record)
	if err != nil {
		jobsFailed.Inc()
		s.Logger.Errorf("%s job '%s' failed: %s", record.Kind, record.ID, err)
		if err := s.Store.Fail(record.ID, err); err != nil {
			s.Logger.Errorf("unable to mark job '%s' failed: %s", record.ID, err)
		}
		return
	}

	if err := s.Store.Complete(record.ID, result); err != nil {
		s.Logger.Errorf("unable to mark job '%s' completed: %s", record.ID, err)
		return
	}
	jobsProcessed.Inc()
}

func (s *Server) perform(record *jobs.Record) (interface{}, error) {
	switch record.Kind {
	case jobs.KindCreateLobby:
		return s.createLobby(record)
	case jobs.KindCreateGame:
		return s.createGame(record)
	case jobs.KindCheckRoundFulfillment:
		return s.checkRoundFulfillment(record)
	case jobs.KindCheckRoundCompletion:
		return s.checkRoundCompletion(record)
	case jobs.KindCleanupLobbyMembership:
		return s.cleanupLobbyMembership(record)
	default:
		return nil, fmt.Errorf("unknown job kind '%s'", record.Kind)
	}
}
