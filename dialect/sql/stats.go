package sql

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of row-returning statements.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalBatches is the total number of batches run.
	TotalBatches atomic.Int64
	// TotalDuration is the total time spent executing statements.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of statements exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalBatches:  s.TotalBatches.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalBatches.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalBatches  int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d batches=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalBatches, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// StatsExecutor wraps an Executor with statistics collection and slow
// statement logging.
type StatsExecutor struct {
	Executor
	stats         *QueryStats
	log           *zap.Logger
	slowThreshold time.Duration
	mu            sync.RWMutex
}

// StatsOption configures the StatsExecutor.
type StatsOption func(*StatsExecutor)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsExecutor) {
		s.slowThreshold = d
	}
}

// WithLogger sets the logger receiving slow statements and failures.
func WithLogger(l *zap.Logger) StatsOption {
	return func(s *StatsExecutor) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStatsExecutor wraps ex with statistics collection.
//
// Example:
//
//	drv, _ := sql.Open(dsn)
//	ex := sql.NewStatsExecutor(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithLogger(logger),
//	)
//	services := models.NewServices(ex)
//
//	// Later, check statistics:
//	fmt.Println(ex.QueryStats().Stats())
func NewStatsExecutor(ex Executor, opts ...StatsOption) *StatsExecutor {
	s := &StatsExecutor{
		Executor:      ex,
		stats:         &QueryStats{},
		log:           zap.NewNop(),
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (s *StatsExecutor) QueryStats() *QueryStats {
	return s.stats
}

// SlowThreshold returns the current slow statement threshold.
func (s *StatsExecutor) SlowThreshold() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (s *StatsExecutor) SetSlowThreshold(threshold time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slowThreshold = threshold
}

// Get executes a query and records statistics.
func (s *StatsExecutor) Get(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()
	err := s.Executor.Get(ctx, dest, query, args...)
	s.record(query, start, ignoreNoRows(err), true)
	return err
}

// Select executes a query and records statistics.
func (s *StatsExecutor) Select(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()
	err := s.Executor.Select(ctx, dest, query, args...)
	s.record(query, start, err, true)
	return err
}

// Exec executes a statement and records statistics.
func (s *StatsExecutor) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	start := time.Now()
	res, err := s.Executor.Exec(ctx, query, args...)
	s.record(query, start, err, false)
	return res, err
}

// Batch runs a batch, recording statistics for every statement read.
func (s *StatsExecutor) Batch(ctx context.Context, stmts []Statement, read func(BatchReader) error) error {
	s.stats.TotalBatches.Add(1)
	return s.Executor.Batch(ctx, stmts, func(r BatchReader) error {
		return read(&statsReader{BatchReader: r, s: s, stmts: stmts})
	})
}

func (s *StatsExecutor) record(query string, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		s.stats.TotalQueries.Add(1)
	} else {
		s.stats.TotalExecs.Add(1)
	}
	s.stats.TotalDuration.Add(int64(duration))

	if err != nil {
		s.stats.Errors.Add(1)
		s.log.Debug("statement failed", zap.String("query", query), zap.Error(err))
	}
	if duration > s.SlowThreshold() {
		s.stats.SlowQueries.Add(1)
		s.log.Warn("slow statement detected", zap.Duration("duration", duration), zap.String("query", query))
	}
}

// statsReader records every statement a batch reads.
type statsReader struct {
	BatchReader
	s     *StatsExecutor
	stmts []Statement
	next  int
}

func (r *statsReader) query() string {
	if r.next >= len(r.stmts) {
		return ""
	}
	q := r.stmts[r.next].Query
	r.next++
	return q
}

// One implements BatchReader.
func (r *statsReader) One(dest any) error {
	start, query := time.Now(), r.query()
	err := r.BatchReader.One(dest)
	r.s.record(query, start, ignoreNoRows(err), true)
	return err
}

// Many implements BatchReader.
func (r *statsReader) Many(dest any) error {
	start, query := time.Now(), r.query()
	err := r.BatchReader.Many(dest)
	r.s.record(query, start, err, true)
	return err
}

// ignoreNoRows does not count a missing row as a failure.
func ignoreNoRows(err error) error {
	if IsNoRows(err) {
		return nil
	}
	return err
}

var _ Executor = (*StatsExecutor)(nil)
