package db

import (
	"context"
	"sync"
	"time"

	"github.com/meridian-data/lanewatch/internal/monitoring"
	"github.com/meridian-data/lanewatch/internal/timeutil"
)

// DecisionWorker batches decision writes off the pipeline's hot path. The
// run loop never blocks the producer: Enqueue drops (and counts) decisions
// when the queue is full.
type DecisionWorker struct {
	DB            *DB
	FlushInterval time.Duration
	BatchSize     int
	Clock         timeutil.Clock

	queue chan DecisionRecord
	stop  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	dropped int64
}

// NewDecisionWorker creates a worker flushing at the given interval or batch
// size, whichever is hit first.
func NewDecisionWorker(db *DB, flushInterval time.Duration, batchSize int) *DecisionWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &DecisionWorker{
		DB:            db,
		FlushInterval: flushInterval,
		BatchSize:     batchSize,
		Clock:         timeutil.RealClock{},
		queue:         make(chan DecisionRecord, 4*batchSize),
		stop:          make(chan struct{}),
	}
}

// Start runs the flush loop in a goroutine.
func (w *DecisionWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop flushes any pending decisions and stops the worker.
func (w *DecisionWorker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

// Enqueue hands a decision to the worker. Returns false if the queue was
// full and the decision was dropped.
func (w *DecisionWorker) Enqueue(rec DecisionRecord) bool {
	select {
	case w.queue <- rec:
		return true
	default:
		w.mu.Lock()
		w.dropped++
		w.mu.Unlock()
		return false
	}
}

// Dropped returns the number of decisions discarded because the queue was
// full.
func (w *DecisionWorker) Dropped() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

func (w *DecisionWorker) run() {
	defer w.wg.Done()

	ticker := w.Clock.NewTicker(w.FlushInterval)
	defer ticker.Stop()

	batch := make([]DecisionRecord, 0, w.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.DB.RecordDecisions(context.Background(), batch); err != nil {
			monitoring.Logf("decision worker flush failed (%d records): %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-w.queue:
			batch = append(batch, rec)
			if len(batch) >= w.BatchSize {
				flush()
			}
		case <-ticker.C():
			flush()
		case <-w.stop:
			// Drain whatever the producer managed to enqueue before Stop.
			for {
				select {
				case rec := <-w.queue:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}
