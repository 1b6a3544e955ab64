package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/nsiqueira/sfmcli/database"
	"github.com/nsiqueira/sfmcli/environment"
	"github.com/nsiqueira/sfmcli/handler"
	"github.com/nsiqueira/sfmcli/helper"
	"github.com/nsiqueira/sfmcli/metrics"
	"github.com/nsiqueira/sfmcli/populate"
	"github.com/nsiqueira/sfmcli/upload"

	"github.com/labstack/echo/v4"
	"github.com/peterbourgon/ff/v3"
	qh "github.com/siherrmann/queuer/helper"
	qmodel "github.com/siherrmann/queuer/model"
)

// Options holds the server configuration, settable via flags or SFMCLI_*
// environment variables.
type Options struct {
	Port               string
	EnvironmentsFile   string
	DefaultEnvironment string
	MaxConcurrency     int
}

func main() {
	var opts Options
	fs := flag.NewFlagSet("sfmcli", flag.ExitOnError)
	fs.StringVar(&opts.Port, "port", "3000", "Port to listen on")
	fs.StringVar(&opts.EnvironmentsFile, "environments-file", "environments.yaml", "Path to the environment registry YAML file")
	fs.StringVar(&opts.DefaultEnvironment, "default-environment", "", "Environment served by the legacy catalog listing")
	fs.IntVar(&opts.MaxConcurrency, "max-concurrency", 4, "Max. number of concurrently running copy jobs")

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("SFMCLI")); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		os.Exit(1)
	}

	SyncServer(opts)
}

// SyncServer initializes the sync handler, sets up routes, and starts the Echo server.
func SyncServer(opts Options) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sh, err := InitSyncHandler(ctx, cancel, opts)
	if err != nil {
		log.Fatalf("Failed to initialize sync handler: %v", err)
	}

	e := echo.New()
	SetupRoutes(e, sh)

	e.Logger.Fatal(e.Start(":" + opts.Port))

	<-ctx.Done()
	slog.Info("Shutting down sync server")
}

// InitSyncHandler creates and configures the sync handler: queuer, storage
// filesystem, database handlers, populator and task registration.
func InitSyncHandler(ctx context.Context, cancel context.CancelFunc, opts Options) (*handler.SyncHandler, error) {
	// Create queuer instance
	helper.InitQueuer(opts.MaxConcurrency)

	// Create filesystem from environment variables
	filesystem, err := upload.CreateFilesystemFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem: %w", err)
	}

	// Logger
	loggerOpts := qh.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(qh.NewPrettyHandler(os.Stdout, loggerOpts))

	// Initialize tracking database handlers on the queuer's connection
	db := &qh.Database{
		Name:     "sfmcli",
		Logger:   logger,
		Instance: helper.Queuer.DB,
	}
	dataExtensionDB, err := database.NewDataExtensionDBHandler(db, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create data extension database handler: %w", err)
	}
	pageDB, err := database.NewPageDBHandler(db, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create page database handler: %w", err)
	}

	environments := environment.NewStore(opts.EnvironmentsFile, logger)
	manager := metrics.NewManager("sfmcli")
	populator := populate.NewPopulator(dataExtensionDB, pageDB, logger, manager)

	sh := handler.NewSyncHandler(environments, dataExtensionDB, pageDB, filesystem, populator, manager, logger, opts.DefaultEnvironment)

	// Register the queuer tasks backing the populate, clean and report runs
	helper.Queuer.AddTaskWithName(sh.CopyPageTask, handler.TaskCopyPage)
	helper.Queuer.AddTaskWithName(sh.ClearDataExtensionTask, handler.TaskClearDataExtension)
	helper.Queuer.AddTaskWithName(sh.ExportReportTask, handler.TaskExportReport)

	// Start the queuer with master settings
	masterSettings := &qmodel.MasterSettings{
		MasterLockTimeout:     time.Minute * 1,
		MasterPollInterval:    time.Second * 10,
		WorkerStaleThreshold:  time.Minute * 5,
		WorkerDeleteThreshold: time.Minute * 100,
		JobStaleThreshold:     time.Minute * 10,
		JobDeleteThreshold:    time.Minute * 100,
	}
	helper.Queuer.Start(ctx, cancel, masterSettings)

	return sh, nil
}
