// Package store is the local, schema-versioned record store: four logical
// tables of JSON documents in a SQLite file, migrated at open time.
//
// A Store is Ready once Open returns. Every mutating call is committed
// before it returns.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/dbx"
	"github.com/dmitrijs2005/famlink/internal/logging"
	"github.com/dmitrijs2005/famlink/internal/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Phase is a point of the store lifecycle:
// Unopened -> Opening -> Migrating(v)... -> Ready.
type Phase string

const (
	PhaseUnopened  Phase = "unopened"
	PhaseOpening   Phase = "opening"
	PhaseMigrating Phase = "migrating"
	PhaseReady     Phase = "ready"
	PhaseFailed    Phase = "failed"
)

// State is the current phase; Version is the step being applied while
// migrating and the schema version once ready.
type State struct {
	Phase   Phase
	Version int64
}

func (s State) String() string {
	if s.Phase == PhaseMigrating || s.Phase == PhaseReady {
		return fmt.Sprintf("%s(%d)", s.Phase, s.Version)
	}
	return string(s.Phase)
}

type lifecycle struct {
	mu    sync.RWMutex
	state State
	hook  func(State)
}

func (l *lifecycle) set(st State) {
	l.mu.Lock()
	l.state = st
	hook := l.hook
	l.mu.Unlock()
	if hook != nil {
		hook(st)
	}
}

func (l *lifecycle) get() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Store owns all persisted state. Use Open to obtain one.
type Store struct {
	db       *sql.DB
	q        dbx.DBTX
	inTx     bool
	log      logging.Logger
	now      func() time.Time
	pipeline *migrations.Pipeline
	life     *lifecycle
}

// Option configures Open.
type Option func(*Store)

// WithLogger sets the logger used for lifecycle and migration messages.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock replaces time.Now, used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPipeline replaces the default schema history.
func WithPipeline(p *migrations.Pipeline) Option {
	return func(s *Store) { s.pipeline = p }
}

// WithStateHook registers fn to be called on every lifecycle transition.
func WithStateHook(fn func(State)) Option {
	return func(s *Store) { s.life.hook = fn }
}

// Open opens (creating if needed) the SQLite database at dsn and migrates it
// to the latest schema version. A migration failure is fatal: the database
// is closed and the returned error matches common.ErrMigration.
//
// Parameters:
//   - ctx: bounds opening the database and running the migrations.
//   - dsn: a file path or modernc sqlite DSN; ":memory:" works for tests.
//   - opts: optional clock, logger, schema history and lifecycle hook.
//
// Returns:
//   - *Store: a ready store in the Ready state.
//   - error: non-nil if the database cannot be opened; matches
//     common.ErrMigration when the schema is newer than this build or a
//     migration step fails.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	s := &Store{
		log:      logging.Discard(),
		now:      time.Now,
		pipeline: migrations.Default(),
		life:     &lifecycle{state: State{Phase: PhaseUnopened}},
	}
	for _, o := range opts {
		o(s)
	}

	s.life.set(State{Phase: PhaseOpening})

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		s.life.set(State{Phase: PhaseFailed})
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: SQLite has a single writer and :memory: databases
	// live only as long as their connection
	db.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = FULL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			s.life.set(State{Phase: PhaseFailed})
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	s.db = db
	s.q = db

	version, err := s.migrate(ctx)
	if err != nil {
		_ = db.Close()
		s.life.set(State{Phase: PhaseFailed})
		s.log.Error(ctx, "store migration failed", "dsn", dsn, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrMigration, err)
	}

	s.life.set(State{Phase: PhaseReady, Version: version})
	s.log.Info(ctx, "store ready", "dsn", dsn, "version", version)
	return s, nil
}

func (s *Store) migrate(ctx context.Context) (int64, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, nil,
		goose.WithGoMigrations(s.pipeline.GooseMigrations()...),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return 0, fmt.Errorf("migration provider: %w", err)
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	for _, step := range s.pipeline.Steps() {
		if step.Version <= current {
			continue
		}
		s.life.set(State{Phase: PhaseMigrating, Version: step.Version})
		s.log.Info(ctx, "applying migration", "version", step.Version, "name", step.Name)

		res, err := provider.UpByOne(ctx)
		if err != nil {
			return 0, fmt.Errorf("version %d (%s): %w", step.Version, step.Name, err)
		}
		if res != nil {
			s.log.Debug(ctx, "migration applied", "version", step.Version, "took", res.Duration)
		}
		current = step.Version
	}

	if current > s.pipeline.Latest() {
		return 0, fmt.Errorf("database schema version %d is newer than supported %d", current, s.pipeline.Latest())
	}
	return current, nil
}

// State reports the lifecycle phase.
func (s *Store) State() State {
	return s.life.get()
}

// Close releases the database.
func (s *Store) Close() error {
	if s.inTx {
		return errors.New("close called inside a transaction")
	}
	return s.db.Close()
}

// WithTx runs fn against a Store bound to a single transaction. Everything fn
// writes is committed together, or nothing is if fn fails. Nested calls
// reuse the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, q dbx.DBTX) error {
		tx := &Store{
			db:       s.db,
			q:        q,
			inTx:     true,
			log:      s.log,
			now:      s.now,
			pipeline: s.pipeline,
			life:     s.life,
		}
		return fn(ctx, tx)
	})
}

// Pipeline returns the schema history this store was migrated with.
func (s *Store) Pipeline() *migrations.Pipeline {
	return s.pipeline
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}
