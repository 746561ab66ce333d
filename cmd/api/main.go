package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"excentrica/internal/api"
	"excentrica/internal/auth"
	"excentrica/internal/config"
	"excentrica/internal/database"
	"excentrica/internal/logger"
	"excentrica/internal/repository"
	"excentrica/internal/seed"
	"excentrica/internal/validation"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env необязателен
	_ = godotenv.Load()

	rootCmd := cobra.Command{
		Use:   "excentrica",
		Short: "Event registration and sorteo service",
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		seedCommand(),
		validateCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func serveCommand() *cobra.Command {
	var seedDemo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			log := logger.Get()

			server, err := api.NewServer(cfg)
			if err != nil {
				return err
			}

			if seedDemo {
				if _, err := seed.NewGenerator(server.Repositories()).Generate(cmd.Context(), seed.Options{
					Events: 5, Sorteos: 2, ParticipantsPerSorteo: 10,
				}); err != nil {
					server.Cleanup()
					return err
				}
			}

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				log.Info("Starting server", "port", cfg.Port, "store", cfg.StoreDriver)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("Failed to start server", "error", err)
				}
			}()

			// Ждем сигнал для graceful shutdown
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Server forced to shutdown", "error", err)
			}

			if err := server.Cleanup(); err != nil {
				log.Error("Error during cleanup", "error", err)
			}

			log.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&seedDemo, "seed", false, "populate the store with demo events and sorteos on start")
	return cmd
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			db, err := database.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(); err != nil {
				return err
			}
			logger.Get().Info("Migrations applied", "count", len(database.Migrations))
			return nil
		},
	}
}

func seedCommand() *cobra.Command {
	var opts seed.Options

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo events, sorteos and participants into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			db, err := database.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(); err != nil {
				return err
			}

			summary, err := seed.NewGenerator(repository.NewRepositories(db)).Generate(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Printf("events=%v sorteos=%v\n", summary.EventIDs, summary.SorteoIDs)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Events, "events", 5, "number of approved events")
	cmd.Flags().IntVar(&opts.Sorteos, "sorteos", 2, "number of active sorteos")
	cmd.Flags().IntVar(&opts.ParticipantsPerSorteo, "participants", 10, "participants per sorteo")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show what would be generated without making changes")
	return cmd
}

func validateCommand() *cobra.Command {
	var (
		baseURL string
		target  validation.Target
		userID  int64
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run a smoke check against a running API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			validator, err := validation.NewSmokeValidator(baseURL, auth.NewAuthenticator(cfg.Auth), userID)
			if err != nil {
				return err
			}
			if err := validator.ValidateAll(cmd.Context(), target); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			logger.Get().Info("Validation passed")
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the API")
	cmd.Flags().Int64Var(&target.EventID, "event", 1, "approved event used for registration checks")
	cmd.Flags().Int64Var(&target.SorteoID, "sorteo", 0, "active sorteo to draw, 0 skips the sorteo checks")
	cmd.Flags().Int64Var(&userID, "user", 9001, "user id for the registration token")
	return cmd
}
