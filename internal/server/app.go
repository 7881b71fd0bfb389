// Package server initializes and runs the accounts service: it builds the
// account engine, serves it over HTTP and gRPC, and shuts both down
// gracefully on SIGINT/SIGTERM.
package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/vitae/internal/logging"
	"github.com/dmitrijs2005/vitae/internal/server/config"
	"github.com/dmitrijs2005/vitae/internal/server/rest"

	gs "github.com/dmitrijs2005/vitae/internal/server/grpc"
)

const drainTimeout = 30 * time.Second

// runner is a server that blocks until ctx is cancelled.
type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config     *config.Config
	logger     logging.Logger
	components *Components
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.IsDevelopment()).With("service", "vitae")

	components, err := Build(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return &App{config: c, logger: logger, components: components}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) servers() []runner {
	accounts := app.components.Accounts

	handler := rest.NewRouter(accounts, rest.RouterConfig{
		TrustedOrigins: app.config.TrustedOrigins,
		LoginRateLimit: app.config.LoginRateLimit,
	}, app.logger)

	return []runner{
		rest.NewHTTPServer(app.config.EndpointAddrHTTP, handler, app.logger),
		gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, accounts),
	}
}

// Run serves until a signal arrives or a server fails, then waits for
// background activation work and closes the store.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	runAll(ctx, cancelFunc, app.logger, app.servers())

	app.shutdown()
}

// runAll runs every server; the first failure stops the others.
func runAll(ctx context.Context, cancelFunc context.CancelFunc, logger logging.Logger, servers []runner) {
	var wg sync.WaitGroup

	for _, s := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Run(ctx); err != nil {
				logger.Error(ctx, err.Error())
				cancelFunc()
			}
		}()
	}

	wg.Wait()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := app.components.Accounts.Wait(ctx); err != nil {
		app.logger.Warn(ctx, "background tasks still running at shutdown", "error", err)
	}
	if err := app.components.Close(); err != nil {
		app.logger.Error(ctx, "close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
