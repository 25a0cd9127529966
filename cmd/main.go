package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"building_automation/internal/handlers"
	"building_automation/internal/logger"
	"building_automation/internal/repository"
	"building_automation/internal/repository/db"
	"building_automation/internal/server"
	"building_automation/internal/service"

	"github.com/spf13/viper"
)

const defaultExecutorTick = 30 * time.Second

func main() {
	// load config.yml before the logger so log.level applies
	cfgErr := loadConfig()

	log := logger.Get(viper.GetString("log.level"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	database, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies: the websocket hub is both the HTTP-layer bridge
	// channel and the executor's command sink
	repos := repository.NewRepository(database)
	hub := handlers.NewBridgeHub(log)
	services := service.NewService(repos, hub, log)
	apiHandler := handlers.NewHandler(services, hub, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the rule executor
	go services.Executor.Run(ctx, executorTick())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "automation.db")
		dbPath = "automation.db"
	}
	return db.InitDB(dbPath)
}

// executorTick reads the executor tick from config, with a sane default.
func executorTick() time.Duration {
	if tick := viper.GetDuration("executor.tick"); tick > 0 {
		return tick
	}
	return defaultExecutorTick
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the executor
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
