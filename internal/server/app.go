// Package server wires the reference backend: Postgres storage, the gRPC
// API, and the realtime change feed.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/server/config"
	"github.com/dmitrijs2005/taskmark/internal/server/realtime"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskmark/internal/server/services"
	"github.com/jmoiron/sqlx"

	gs "github.com/dmitrijs2005/taskmark/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sqlx.DB
	userService *services.UserService
	dataService *services.DataService
	hub         *realtime.Hub
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogJSON, os.Stdout)

	db, err := sqlx.ConnectContext(ctx, "pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		userService: services.NewUserService(db, m, c, logger),
		dataService: services.NewDataService(db, m, logger),
		hub:         realtime.NewHub(logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// run starts fn on the group and cancels everything if it fails.
func (app *App) run(ctx context.Context, wg *sync.WaitGroup, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := fn(ctx); err != nil {
			app.logger.Error(ctx, name+" failed", "error", err)
			cancelFunc()
		}
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.dataService)
	listener := realtime.NewListener(app.config.DatabaseDSN, app.hub, app.logger)
	rtServer := realtime.NewServer(app.config.EndpointAddrHTTP, app.hub, app.userService, app.logger)

	var wg sync.WaitGroup
	app.run(ctx, &wg, cancelFunc, "grpc server", grpcServer.Run)
	app.run(ctx, &wg, cancelFunc, "realtime listener", listener.Run)
	app.run(ctx, &wg, cancelFunc, "realtime server", rtServer.Run)
	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
