// Command migrate управляет схемой базы вне основного сервиса:
//
//	migrate up
//	migrate down [N]
//	migrate force N
//	migrate version
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/exam-api/internal/config"
	"github.com/yourusername/exam-api/internal/logging"
	"github.com/yourusername/exam-api/pkg/database"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config/config.yaml"), "path to config file")
	migrationsPath := flag.String("path", envOr("MIGRATIONS_PATH", "migrations"), "migrations directory")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] up | down [N] | force N | version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	dbCfg, err := config.LoadDatabase(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load database config")
	}

	db, err := sql.Open("postgres", dbCfg.PostgresURL())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}

	m, err := database.NewMigrator(db, *migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}

	if err := run(m, flag.Args()); err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("Migration command failed")
	}
}

// migrator: подмножество *migrate.Migrate, которое использует команда
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
}

func run(m migrator, args []string) error {
	switch args[0] {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		if len(args) < 2 {
			return ignoreNoChange(m.Down())
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("down expects a positive step count, got %q", args[1])
		}
		return ignoreNoChange(m.Steps(-n))
	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := m.Force(version); err != nil {
			return err
		}
		log.Info().Int("version", version).Msg("Version forced, dirty flag cleared")
		return nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrateV4.ErrNilVersion) {
			log.Info().Msg("No migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current schema version")
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrateV4.ErrNoChange) {
		log.Info().Msg("No change")
		return nil
	}
	if err == nil {
		log.Info().Msg("Done")
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
