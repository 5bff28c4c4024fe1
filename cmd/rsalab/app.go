package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/udisondev/rsalab/internal/attack"
	"github.com/udisondev/rsalab/internal/config"
	"github.com/udisondev/rsalab/internal/crypto"
	"github.com/udisondev/rsalab/internal/db"
	"github.com/udisondev/rsalab/internal/freq"
	"github.com/udisondev/rsalab/internal/lab"
)

var errDatabaseDisabled = errors.New("database is disabled in config")

// app is the state shared by every subcommand once the config is loaded.
type app struct {
	configPath string
	verbose    bool

	cfg      config.Lab
	log      *slog.Logger
	svc      *lab.Service
	database *db.DB
	history  *db.HistoryRepository
}

func (a *app) resolveConfigPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	if p := os.Getenv("RSALAB_CONFIG"); p != "" {
		return p
	}
	return ConfigPath
}

// setup loads config, installs the logger and builds the lab service.
func (a *app) setup(ctx context.Context, logOut io.Writer) error {
	cfgPath := a.resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.log)
	a.log.Debug("config loaded", "path", cfgPath, "prime_size", cfg.PrimeSize, "database", cfg.Database.Enabled)

	table := freq.English()
	if cfg.FrequencyTable != "" {
		table, err = freq.LoadTable(cfg.FrequencyTable)
		if err != nil {
			return fmt.Errorf("loading frequency table: %w", err)
		}
		a.log.Debug("frequency table loaded", "path", cfg.FrequencyTable, "letters", len(table))
	}

	opts := []lab.Option{
		lab.WithLogger(a.log),
		lab.WithExponents(cfg.Exponents),
		lab.WithTable(table),
		lab.WithWorkers(cfg.Decoder.Workers),
		lab.WithDecoderOptions(
			attack.WithDomain(attack.Domain{Min: cfg.Decoder.DomainMin, Max: cfg.Decoder.DomainMax}),
			attack.WithFallbackWeight(cfg.Decoder.FallbackWeight),
		),
	}

	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		a.database = database
		a.log.Debug("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			a.close()
			return fmt.Errorf("running migrations: %w", err)
		}
		a.history = db.NewHistoryRepository(database.Pool())
		opts = append(opts, lab.WithHistory(a.history))
	}

	a.svc = lab.NewService(opts...)
	return nil
}

func (a *app) close() {
	if a.database != nil {
		a.database.Close()
		a.database = nil
	}
}

// primeSize returns the --size flag value, or the configured size if unset.
func (a *app) primeSize(flag string) (crypto.PrimeSize, error) {
	if flag == "" {
		flag = a.cfg.PrimeSize
	}
	return crypto.ParsePrimeSize(flag)
}

// keys generates the curated key material for the requested size.
func (a *app) keys(ctx context.Context, sizeFlag string) (*crypto.KeyMaterial, error) {
	size, err := a.primeSize(sizeFlag)
	if err != nil {
		return nil, err
	}
	return a.svc.GenerateKeys(ctx, size)
}
