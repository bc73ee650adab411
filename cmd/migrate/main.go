package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/logger"
)

// command applies one schema operation to the exam and wellbeing tables.
type command struct {
	args int
	help string
	run  func(m *migrate.Migrate, n int) (string, error)
}

var commands = map[string]command{
	"up": {help: "apply every pending migration", run: func(m *migrate.Migrate, _ int) (string, error) {
		return "schema is current", ignoreNoChange(m.Up())
	}},
	"down": {help: "revert every migration (requires -confirm)", run: func(m *migrate.Migrate, _ int) (string, error) {
		return "schema reverted", ignoreNoChange(m.Down())
	}},
	"steps": {args: 1, help: "apply n migrations, or revert them when n is negative", run: func(m *migrate.Migrate, n int) (string, error) {
		return fmt.Sprintf("moved %d step(s)", n), ignoreNoChange(m.Steps(n))
	}},
	"version": {help: "print the applied version", run: func(m *migrate.Migrate, _ int) (string, error) {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return "no migration applied", nil
		}
		return fmt.Sprintf("version %d (dirty=%t)", v, dirty), err
	}},
	"force": {args: 1, help: "mark version v as applied without running it", run: func(m *migrate.Migrate, v int) (string, error) {
		return fmt.Sprintf("forced version %d", v), m.Force(v)
	}},
}

func main() {
	dir := flag.String("path", "migrations", "directory holding the *.up.sql and *.down.sql files")
	confirm := flag.Bool("confirm", false, "allow down to drop session answers and mood history")
	flag.Usage = usage
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "migrate").Logger()

	name := flag.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage()
		os.Exit(2)
	}
	if name == "down" && !*confirm {
		log.Fatal().Msg("Refusing to revert the whole schema without -confirm")
	}

	n := 0
	if cmd.args > 0 {
		raw := flag.Arg(1)
		v, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatal().Str("command", name).Str("arg", raw).Msg("Expected an integer argument")
		}
		n = v
	}

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dir).Msg("Failed to open migrations")
	}
	defer closeMigrator(m, log)

	msg, err := cmd.run(m, n)
	if err != nil {
		log.Error().Err(err).Str("command", name).Msg("Migration failed")
		closeMigrator(m, log)
		os.Exit(1)
	}
	log.Info().Str("command", name).Msg(msg)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate, log zerolog.Logger) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		log.Warn().Err(err).Msg("Failed to close migrator")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [flags] <command> [arg]")
	for _, name := range []string{"up", "down", "steps", "version", "force"} {
		arg := ""
		if commands[name].args > 0 {
			arg = " <n>"
		}
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", name+arg, commands[name].help)
	}
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}
