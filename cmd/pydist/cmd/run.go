package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pydist/pydist/pkg/api"
	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/db"
	"github.com/pydist/pydist/pkg/logging"
	"github.com/spf13/cobra"
)

const gracefulShutdownTimeout = 30 * time.Second

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the package index server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := logging.Default()
		ctx := cmd.Context()

		dbParams := cfg.GetDatabaseParams()
		database := db.BuildDatabaseConnection(ctx, dbParams)
		defer database.Close()

		migrator := db.NewDatabaseMigrator(dbParams)
		if err := migrator.Migrate(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to migrate")
		}

		adapter, err := cfg.BuildBlockAdapter()
		if err != nil {
			logger.WithError(err).Fatal("Failed to create block adapter")
		}

		authService := auth.NewDBAuthService(database)
		controller := api.NewController(database, adapter, authService, cfg.GetUploadAllowOverwrite())
		server := &http.Server{
			Addr:              cfg.GetListenAddress(),
			ReadHeaderTimeout: time.Minute,
			Handler:           api.NewHandler(controller),
		}

		go func() {
			logger.WithFields(logging.Fields{
				"listen_address": server.Addr,
				"blockstore":     adapter.BlockstoreType(),
			}).Info("Starting server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Fatal("Failed to listen")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shut down server cleanly")
		}
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(runCmd)
}
