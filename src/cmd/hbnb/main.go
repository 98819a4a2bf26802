package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hbnb/src/adapters/console"
	api "hbnb/src/adapters/http"
	"hbnb/src/adapters/kafka/consumers"
	"hbnb/src/config"
	"hbnb/src/domain"
	"hbnb/src/infra/kafka"
	"hbnb/src/services/seed"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var (
	storageFlag string
	fileFlag    string

	seedOptions = seed.DefaultOptions()

	eventsGroup string
	eventsClass string

	servePort int
)

// rootCmd abre o console sobre o storage configurado
var rootCmd = &cobra.Command{
	Use:   "hbnb",
	Short: "HBNB object storage console",
	Long: `Line-oriented console over the HBNB object storage.

The engine is chosen by HBNB_TYPE_STORAGE (or --storage): "db" uses PostgreSQL,
anything else uses the JSON file at HBNB_FILE_PATH (or --file).`,
	SilenceUsage: true,
	RunE:         runConsole,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the storage with fake states, cities, users, places and reviews",
	RunE:  runSeed,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow the model change events published after each save",
	RunE:  runEvents,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only JSON API over the storage",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", `storage engine: "db" or "file" (default from HBNB_TYPE_STORAGE)`)
	rootCmd.PersistentFlags().StringVar(&fileFlag, "file", "", "JSON file used by the file engine (default from HBNB_FILE_PATH)")

	seedCmd.Flags().IntVar(&seedOptions.States, "states", seedOptions.States, "number of states")
	seedCmd.Flags().IntVar(&seedOptions.CitiesPerState, "cities-per-state", seedOptions.CitiesPerState, "cities per state")
	seedCmd.Flags().IntVar(&seedOptions.Users, "users", seedOptions.Users, "number of users")
	seedCmd.Flags().IntVar(&seedOptions.Amenities, "amenities", seedOptions.Amenities, "number of amenities")
	seedCmd.Flags().IntVar(&seedOptions.PlacesPerCity, "places-per-city", seedOptions.PlacesPerCity, "places per city")
	seedCmd.Flags().IntVar(&seedOptions.ReviewsPerPlace, "reviews-per-place", seedOptions.ReviewsPerPlace, "reviews per place")
	seedCmd.Flags().IntVar(&seedOptions.AmenitiesPerPlace, "amenities-per-place", seedOptions.AmenitiesPerPlace, "maximum amenities linked to each place")

	eventsCmd.Flags().StringVar(&eventsGroup, "group", "hbnb-events-tail", "kafka consumer group")
	eventsCmd.Flags().StringVar(&eventsClass, "class", "", "only show events of this class")

	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from HBNB_API_PORT)")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig aplica as flags por cima do ambiente.
func loadConfig() config.Config {
	cfg := config.Load()
	if storageFlag != "" {
		cfg.StorageType = config.StorageFile
		if storageFlag == config.StorageDB {
			cfg.StorageType = config.StorageDB
		}
	}
	if fileFlag != "" {
		cfg.FilePath = fileFlag
	}
	return cfg
}

// withStorage sobe o app, entrega o storage carregado para fn e derruba o app no final.
func withStorage(ctx context.Context, fn func(ctx context.Context, logger *slog.Logger, store domain.Storage) error) error {
	var (
		store  domain.Storage
		logger *slog.Logger
	)

	app := newApp(loadConfig(), &store, &logger)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			logger.Error("Failed to stop", "error", err)
		}
	}()

	return fn(ctx, logger, store)
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withStorage(ctx, func(ctx context.Context, logger *slog.Logger, store domain.Storage) error {
		c := console.NewConsole(logger, store, cmd.OutOrStdout())
		c.Interactive = isTerminal(os.Stdin)
		return c.Run(ctx, cmd.InOrStdin())
	})
}

func runSeed(cmd *cobra.Command, args []string) error {
	return withStorage(cmd.Context(), func(ctx context.Context, logger *slog.Logger, store domain.Storage) error {
		counts, err := seed.NewSeeder(logger, store).Run(ctx, seedOptions)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, class := range []string{"State", "City", "User", "Amenity", "Place", "Review"} {
			fmt.Fprintf(out, "%s: %d\n", class, counts[class])
		}
		return nil
	})
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if !cfg.EventsEnabled() {
		return fmt.Errorf("KAFKA_BROKERS is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logger *slog.Logger
	app := fx.New(
		fx.Supply(cfg),
		fx.NopLogger,
		fx.Provide(newLogger),
		fx.Populate(&logger),
	)
	if err := app.Err(); err != nil {
		return err
	}

	client, err := kafka.NewKafkaClient(logger, cfg.KafkaBrokers, eventsGroup, 0)
	if err != nil {
		return err
	}
	defer client.Close()

	consumer := consumers.NewModelEventsConsumer(logger, cmd.OutOrStdout(), eventsClass)
	return consumer.Start(ctx, client, cfg.KafkaModelEventsTopic)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withStorage(ctx, func(ctx context.Context, logger *slog.Logger, store domain.Storage) error {
		port := servePort
		if port == 0 {
			port = loadConfig().APIPort
		}

		srv := api.NewServer(logger, port, store)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
