package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/famlink/internal/backup"
	"github.com/dmitrijs2005/famlink/internal/cache"
	"github.com/dmitrijs2005/famlink/internal/config"
	"github.com/dmitrijs2005/famlink/internal/logging"
	"github.com/dmitrijs2005/famlink/internal/netx"
	"github.com/dmitrijs2005/famlink/internal/relay"
	"github.com/dmitrijs2005/famlink/internal/seed"
	"github.com/dmitrijs2005/famlink/internal/services"
	"github.com/dmitrijs2005/famlink/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App holds every service the REPL commands call.
type App struct {
	config     *config.Config
	log        logging.Logger
	store      *store.Store
	cache      *cache.Cache
	translator *services.Translator
	profiles   services.ProfileService
	categories services.CategoryService
	backups    *backup.Service
	seeder     *seed.Seeder
	registry   *prometheus.Registry

	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode
}

// NewApp opens the store at c.DBPath and builds the services on top of it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	return newApp(ctx, c, log, os.Stdin, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	st, err := store.Open(ctx, c.DBPath, store.WithLogger(log))
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DBPath, "error", err)
		return nil, err
	}

	reg := prometheus.NewRegistry()
	tc := cache.New(st, cache.WithLogger(log))
	rc := relay.New(c.RelayBaseURL, c.RequestTimeout, relay.WithPaths(c.TranslatePath, c.UsagePath))
	tr := services.NewTranslator(st, tc, rc,
		services.WithTranslatorLogger(log),
		services.WithMetrics(services.NewMetrics(reg)),
		services.WithOffline(c.Offline),
	)
	if err := tr.Initialize(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	var locales fs.FS
	if c.LocalesDir != "" {
		locales = os.DirFS(c.LocalesDir)
	}

	mode := ModeOnline
	if c.Offline {
		mode = ModeOffline
	}

	return &App{
		config:     c,
		log:        log,
		store:      st,
		cache:      tc,
		translator: tr,
		profiles:   services.NewProfileService(st),
		categories: services.NewCategoryService(st),
		backups:    backup.NewService(st, log),
		seeder:     seed.New(st, locales, log),
		registry:   reg,
		reader:     bufio.NewReader(in),
		out:        out,
		mode:       mode,
	}, nil
}

// Run onboards a new user if needed, starts the connectivity watcher and
// serves the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.printf("Welcome to famlink (type 'help' for commands)\n")

	if !a.isOnboarded(ctx) {
		if err := a.Onboard(ctx, nil); err != nil {
			return err
		}
	}

	if !a.config.Offline && a.config.OnlineCheckInterval > 0 {
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.StartOnlineStatusWatcher(wctx, a.config.OnlineCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == mode {
		return
	}
	a.mode = mode
	a.translator.SetOffline(mode == ModeOffline)
	a.log.Info(ctx, "connectivity changed", "mode", string(mode))
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) getStatus() string {
	s, err := a.store.GetUserSettings(context.Background())
	status := string(a.currentMode())
	if err == nil && s.UserName != "" {
		status = s.UserName + " " + status
	}
	return fmt.Sprintf("(%s)", status)
}

// StartOnlineStatusWatcher pings the relay every interval and switches the
// translator offline while it cannot be reached.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	if err := netx.Ping(ctx, a.config.RelayBaseURL, 3*time.Second); err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}
