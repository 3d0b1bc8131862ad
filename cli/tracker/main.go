package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/daniil11ru/fleettrack/cli/tracker/api"
	connectorimpl "github.com/daniil11ru/fleettrack/cli/tracker/connector/implementation"
	"github.com/daniil11ru/fleettrack/cli/tracker/config"
	"github.com/daniil11ru/fleettrack/cli/tracker/domain"
	"github.com/daniil11ru/fleettrack/cli/tracker/repository"
	"github.com/daniil11ru/fleettrack/cli/tracker/source/pg"
	"github.com/daniil11ru/fleettrack/cli/tracker/storage"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "", "path to the config file")
	flag.Parse()

	settings, err := getConfig(configFilePath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		return
	}

	configureLogging(settings)

	if err := applyMigrations(settings); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
		return
	}

	dbConnector := &connectorimpl.Connector{}
	if err := dbConnector.Connect(settings.Store); err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
		return
	}
	defer dbConnector.Close()

	fleetSource := &pg.FleetSource{}
	fleetSource.Initialize(dbConnector)
	fleetRepository := repository.NewFleet(fleetSource)

	events, err := loadPublishers(settings)
	if err != nil {
		log.Fatalf("Failed to load event publishers: %v", err)
		return
	}
	if events != nil {
		defer events.Close()
	}

	// A typed nil inside the interface would defeat the nil checks downstream.
	var publisher domain.EventPublisher
	if events != nil {
		publisher = events
	}

	sweep := domain.MaintenanceSweep{
		Repository:     fleetRepository,
		Events:         publisher,
		DueSoonKm:      settings.DueSoonKm,
		DueSoonDays:    settings.DueSoonDays,
		CronExpression: settings.MaintenanceCron,
	}
	if err := sweep.Initialize(); err != nil {
		log.Fatalf("Failed to start the maintenance sweep: %v", err)
		return
	}
	defer sweep.Shutdown()

	classifier := domain.NewStatusClassifier(settings.GetOfflineAfter(), settings.SpeedMovingKmh)
	ingest := domain.NewIngestSample(fleetRepository, publisher, classifier, settings.DeviationThresholdM)
	deliveries := &domain.DeliveryOutcome{Repository: fleetRepository, Events: publisher}

	handler := api.NewHandler(fleetRepository, classifier, ingest, deliveries)
	controller := api.NewController(handler)

	log.Infof("Starting the fleet API on %s", settings.GetListenAddress())
	if err := controller.Run(settings.GetListenAddress()); err != nil {
		log.Fatal(err)
	}
}

func getConfig(configFilePath string) (config.Settings, error) {
	var c config.Settings

	if configFilePath == "" {
		return c, fmt.Errorf("config path is not set")
	}

	c, err := config.New(configFilePath)
	if err != nil {
		return c, fmt.Errorf("failed to parse config: %v", err)
	}

	return c, nil
}

func configureLogging(settings config.Settings) {
	log.SetLevel(settings.GetLogLevel())

	consoleFmt := &log.TextFormatter{ForceColors: true, FullTimestamp: false}
	log.SetFormatter(consoleFmt)
	log.SetOutput(os.Stdout)

	if settings.LogFilePath != "" {
		logDir := filepath.Dir(settings.LogFilePath)
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				log.Fatalf("Failed to create the log directory: %v", err)
			}
		}

		lumberjackLogger := &lumberjack.Logger{
			Filename:   settings.LogFilePath,
			MaxSize:    100,
			MaxBackups: 366,
			MaxAge:     settings.LogMaxAgeDays,
			Compress:   true,
		}

		fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
		hook := lfshook.NewHook(lfshook.WriterMap{
			log.PanicLevel: lumberjackLogger,
			log.FatalLevel: lumberjackLogger,
			log.ErrorLevel: lumberjackLogger,
			log.WarnLevel:  lumberjackLogger,
			log.InfoLevel:  lumberjackLogger,
			log.DebugLevel: lumberjackLogger,
			log.TraceLevel: lumberjackLogger,
		}, fileFmt)

		log.AddHook(hook)
	}
}

// loadPublishers builds the async change-event fan-out. Returns nil when no
// publishers are configured: event publishing is optional.
func loadPublishers(settings config.Settings) (*storage.AsyncRepository, error) {
	if len(settings.Publishers) == 0 {
		log.Info("No event publishers configured, change events will not be emitted")
		return nil, nil
	}

	repo := storage.NewRepository()
	if err := repo.LoadPublishers(settings.Publishers); err != nil {
		return nil, err
	}

	return storage.NewAsyncRepository(repo, 1024, 0), nil
}

func applyMigrations(settings config.Settings) error {
	databaseUrl := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		settings.Store["user"], settings.Store["password"], settings.Store["host"], settings.Store["port"], settings.Store["database"], settings.Store["sslmode"])

	m, err := migrate.New(
		settings.MigrationsPath,
		databaseUrl,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Info("No new migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %v", err)
	}

	log.Info("Migrations applied")
	return nil
}
