package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/graphclone/dialect"
)

// StatsSnapshot is a point-in-time copy of the statistics of a StatsDriver.
type StatsSnapshot struct {
	Queries  int64         // SELECT-like statements
	Execs    int64         // INSERT, UPDATE and DDL statements
	Errors   int64         // failed statements
	Slow     int64         // statements slower than the threshold
	Duration time.Duration // total statement time

	Commits   int64 // committed transactions
	Rollbacks int64 // rolled back transactions
	// LargestTx is the statement count of the biggest finished transaction.
	// A clone runs in a single transaction, so this is the write volume of
	// the largest clone.
	LargestTx int64
}

// Statements returns the number of statements run.
func (s StatsSnapshot) Statements() int64 { return s.Queries + s.Execs }

// Avg returns the mean statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	if n := s.Statements(); n > 0 {
		return s.Duration / time.Duration(n)
	}
	return 0
}

// String formats the snapshot on one line.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d errors=%d slow=%d total=%s avg=%s commits=%d rollbacks=%d largest_tx=%d",
		s.Queries, s.Execs, s.Errors, s.Slow, s.Duration, s.Avg(), s.Commits, s.Rollbacks, s.LargestTx)
}

// SlowQueryHook is called for every statement slower than the threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver counts the statements and transactions run through a Driver.
type StatsDriver struct {
	dialect.Driver
	threshold time.Duration
	onSlow    SlowQueryHook

	mu   sync.Mutex
	snap StatsSnapshot
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement is slow.
// Defaults to 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowQueryHook sets the function called for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.onSlow = hook
	}
}

// WithSlowQueryLog reports slow statements to logger at warn level.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, d time.Duration) {
		logger.WarnContext(ctx, "slow statement", "duration", d, "sql", query, "args", args)
	})
}

// NewStatsDriver wraps drv.
//
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(slog.Default()))
//	root, err := clone.New(g, sqlstore.New(stats, g)).Clone(ctx, "Root", 1, nil)
//	fmt.Println(stats.Stats())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, threshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns a snapshot of the statistics.
func (d *StatsDriver) Stats() StatsSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

// Reset clears the statistics.
func (d *StatsDriver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap = StatsSnapshot{}
}

// Query implements dialect.Driver.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, true, query, args, func() error { return d.Driver.Query(ctx, query, args, v) })
}

// Exec implements dialect.Driver.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, false, query, args, func() error { return d.Driver.Exec(ctx, query, args, v) })
}

// observe runs one statement and accounts for it.
func (d *StatsDriver) observe(ctx context.Context, query bool, stmt string, args any, run func() error) error {
	start := time.Now()
	err := run()
	elapsed := time.Since(start)
	slow := elapsed > d.threshold

	d.mu.Lock()
	if query {
		d.snap.Queries++
	} else {
		d.snap.Execs++
	}
	d.snap.Duration += elapsed
	if err != nil {
		d.snap.Errors++
	}
	if slow {
		d.snap.Slow++
	}
	d.mu.Unlock()

	if slow && d.onSlow != nil {
		list, _ := args.([]any)
		d.onSlow(ctx, stmt, list, elapsed)
	}
	return err
}

// finish accounts for a transaction that ran n statements.
func (d *StatsDriver) finish(committed bool, n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if committed {
		d.snap.Commits++
	} else {
		d.snap.Rollbacks++
	}
	d.snap.LargestTx = max(d.snap.LargestTx, n)
}

// Tx implements dialect.Driver.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx reports its statements to the StatsDriver that started it.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
	n      int64
}

// Query implements dialect.Tx.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	tx.n++
	return tx.driver.observe(ctx, true, query, args, func() error { return tx.Tx.Query(ctx, query, args, v) })
}

// Exec implements dialect.Tx.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.n++
	return tx.driver.observe(ctx, false, query, args, func() error { return tx.Tx.Exec(ctx, query, args, v) })
}

// Statements returns the number of statements run in the transaction.
func (tx *StatsTx) Statements() int64 { return tx.n }

// Commit implements dialect.Tx.
func (tx *StatsTx) Commit() error {
	err := tx.Tx.Commit()
	tx.driver.finish(err == nil, tx.n)
	return err
}

// Rollback implements dialect.Tx.
func (tx *StatsTx) Rollback() error {
	err := tx.Tx.Rollback()
	tx.driver.finish(false, tx.n)
	return err
}

// DebugDriver logs every statement at debug level. Statements run inside
// a transaction carry a "tx" attribute numbering the transactions of the
// driver.
type DebugDriver struct {
	dialect.Driver
	logger *slog.Logger
	txs    atomic.Int64
}

// NewDebugDriver wraps drv. A nil logger logs to slog.Default().
//
//	store := sqlstore.New(sql.NewDebugDriver(drv, logger), g)
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, logger: logger}
}

// Query implements dialect.Driver.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "query", "sql", query, "args", args)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec implements dialect.Driver.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "exec", "sql", query, "args", args)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx implements dialect.Driver.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	logger := d.logger.With("tx", d.txs.Add(1))
	logger.DebugContext(ctx, "begin")
	return &DebugTx{Tx: tx, logger: logger, ctx: ctx}, nil
}

// DebugTx logs the statements of one transaction.
type DebugTx struct {
	dialect.Tx
	logger *slog.Logger
	ctx    context.Context // of the Tx call, for the commit and rollback logs
	n      int
}

// Query implements dialect.Tx.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.n++
	tx.logger.DebugContext(ctx, "query", "sql", query, "args", args)
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec implements dialect.Tx.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.n++
	tx.logger.DebugContext(ctx, "exec", "sql", query, "args", args)
	return tx.Tx.Exec(ctx, query, args, v)
}

// Commit implements dialect.Tx.
func (tx *DebugTx) Commit() error {
	tx.logger.DebugContext(tx.ctx, "commit", "statements", tx.n)
	return tx.Tx.Commit()
}

// Rollback implements dialect.Tx.
func (tx *DebugTx) Rollback() error {
	tx.logger.DebugContext(tx.ctx, "rollback", "statements", tx.n)
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
