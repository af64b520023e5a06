package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/msomdec/associates/internal/config"
	"github.com/msomdec/associates/internal/connection"
	"github.com/msomdec/associates/internal/domain"
	"github.com/msomdec/associates/internal/store"
)

func main() {
	configPath := flag.String("config", envOrDefault("ASSOCIATES_CONFIG", "db.properties"), "database properties file")
	flag.Parse()

	level := new(slog.LevelVar)
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	path := *configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Warn("properties file not found, using environment only", "path", path)
		path = ""
	}

	load := func() (*config.Config, error) {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("%w: log_level: %w", domain.ErrConfiguration, err)
		}
		return cfg, nil
	}

	holder := connection.New(load, store.Open)
	defer holder.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, holder); err != nil {
		slog.Error("demo failed", "error", err)
		holder.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, holder *connection.Holder[domain.Database]) error {
	db, err := holder.Get(ctx)
	if err != nil {
		return err
	}
	repo := db.Associates()

	associates := []domain.Associate{
		{ID: 1, FirstName: "Tiffany", LastName: "Obi", Age: 25},
		{ID: 2, FirstName: "Kyle", LastName: "Plummer", Age: 36},
		{ID: 3, FirstName: "Cody", LastName: "Gonsowski", Age: 22},
		{ID: 4, FirstName: "Stefan", LastName: "Riley", Age: 29},
		{ID: 5, FirstName: "Shabana", LastName: "Mehr", Age: 35},
		{ID: 6, FirstName: "Ahmad", LastName: "Rawashdeh", Age: 38},
	}

	slog.Info("creating associates", "count", len(associates))
	for _, a := range associates {
		if _, err := repo.Create(ctx, a); err != nil {
			return fmt.Errorf("create associate %d: %w", a.ID, err)
		}
	}

	tiffany, kyle := associates[0], associates[1]
	tiffany.LastName = "Chestnut"
	kyle.FirstName = "Sir Kyle"
	slog.Info("updating associates", "ids", []int64{tiffany.ID, kyle.ID})
	for _, a := range []domain.Associate{tiffany, kyle} {
		if _, err := repo.Update(ctx, a); err != nil {
			return fmt.Errorf("update associate %d: %w", a.ID, err)
		}
	}

	found, err := repo.Read(ctx, 4)
	if err != nil {
		return fmt.Errorf("read associate 4: %w", err)
	}
	fmt.Printf("Associate with ID 4: %s, %s\n", found.LastName, found.FirstName)

	slog.Info("deleting associates", "ids", []int64{1, 5})
	for _, id := range []int64{1, 5} {
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete associate %d: %w", id, err)
		}
	}
	slog.Info("done")
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
