package clone

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/syssam/graphclone"
	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/storage"
)

// Cloner copies records together with the relations selected by a Config.
// It holds no per-operation state and is safe for concurrent use; each
// Clone call owns a fresh IdentityMap.
type Cloner struct {
	graph   *graph.Graph
	store   storage.Store
	logger  *slog.Logger
	hooks   map[string][]Hook
	policy  Policy
	metrics *Metrics
}

// Option configures the Cloner.
type Option func(*Cloner)

// WithLogger sets the logger. Clones, skips and patches are logged at
// debug level, unknown configuration keys at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cloner) {
		c.logger = l
	}
}

// WithHooks adds hooks run before a clone record of the named type is
// created. An empty type name applies the hooks to every type.
func WithHooks(typ string, hooks ...Hook) Option {
	return func(c *Cloner) {
		c.hooks[typ] = append(c.hooks[typ], hooks...)
	}
}

// WithPolicy sets the policy evaluated before every write.
func WithPolicy(p Policy) Option {
	return func(c *Cloner) {
		c.policy = p
	}
}

// WithMetrics sets the collectors updated by the Cloner.
func WithMetrics(m *Metrics) Option {
	return func(c *Cloner) {
		c.metrics = m
	}
}

// New returns a Cloner for the types of g persisting to store. When the
// store implements storage.Transactor, every clone runs in its own
// transaction.
func New(g *graph.Graph, store storage.Store, opts ...Option) *Cloner {
	c := &Cloner{
		graph:  g,
		store:  store,
		logger: slog.Default(),
		hooks:  make(map[string][]Hook),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone copies the record of the named type with the given id and the
// relations selected by cfg, and returns the new root record.
//
// cfg may be a Config or any nested mapping accepted by ParseConfig. A nil
// cfg selects the type's clone defaults; values that are not mappings
// select nothing but the root. Either the whole selected subgraph is
// persisted or, on error, none of it is.
func (c *Cloner) Clone(ctx context.Context, typ string, id any, cfg any) (*storage.Record, error) {
	t, ok := c.graph.Type(typ)
	if !ok {
		return nil, graphclone.NewNotFoundErrorWithID("type", typ)
	}
	return c.run(ctx, t, cfg, func(ctx context.Context, s storage.Store) (*storage.Record, error) {
		return s.Get(ctx, t, id)
	})
}

// CloneRecord is like Clone for an already loaded record.
func (c *Cloner) CloneRecord(ctx context.Context, original *storage.Record, cfg any) (*storage.Record, error) {
	t, ok := c.graph.Type(original.Type)
	if !ok {
		return nil, graphclone.NewNotFoundErrorWithID("type", original.Type)
	}
	return c.run(ctx, t, cfg, func(context.Context, storage.Store) (*storage.Record, error) {
		return original, nil
	})
}

func (c *Cloner) run(ctx context.Context, t *graph.Type, cfg any, load func(context.Context, storage.Store) (*storage.Record, error)) (root *storage.Record, err error) {
	var (
		start = time.Now()
		op    = c.operation(c.store)
	)
	defer func() { c.metrics.observe(t.Name, start, op.tally, err) }()
	config := c.resolve(t, cfg)
	tr, ok := c.store.(storage.Transactor)
	if !ok {
		return op.cloneRoot(ctx, t, load, config)
	}
	tx, err := tr.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("clone: starting a transaction: %w", err)
	}
	op.store = tx
	if root, err = op.cloneRoot(ctx, t, load, config); err != nil {
		return nil, rollback(tx, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("clone: committing transaction: %w", err)
	}
	c.logger.DebugContext(ctx, "clone committed", "type", t.Name, "clone_id", root.ID, "records", op.records())
	return root, nil
}

// resolve returns the configuration of a clone of t: the caller's, else
// the type defaults, else empty.
func (c *Cloner) resolve(t *graph.Type, cfg any) Config {
	switch v := cfg.(type) {
	case nil:
	case Config:
		if v != nil {
			return v
		}
	default:
		return ParseConfig(cfg)
	}
	return ParseConfig(t.CloneDefaults)
}

// rollback rolls back tx and reports a rollback failure along with err.
func rollback(tx storage.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		return fmt.Errorf("%w: %w", err, &graphclone.RollbackError{Err: rerr})
	}
	return err
}
