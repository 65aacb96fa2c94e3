package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/fcescuela/clubhouse/internal/pkg/database"
	"github.com/fcescuela/clubhouse/internal/pkg/env"
)

const usage = `Usage: migrate <command>

  up        apply all pending migrations
  down      roll back the last migration
  goto N    migrate to version N
  force N   mark version N as applied and clear the dirty flag
  status    print the current version`

// Migrator is the subset of *migrate.Migrate the commands drive.
type Migrator interface {
	Up() error
	Steps(n int) error
	Migrate(version uint) error
	Force(version int) error
	Version() (uint, bool, error)
}

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	log.Printf("[Migrate] Target %s:%s/%s",
		env.GetEnv("DB_HOST", "127.0.0.1"), env.GetEnv("DB_PORT", "3306"), env.GetEnv("DB_NAME", ""))

	m, err := migrate.New(env.GetEnv("MIGRATIONS_PATH", "file://migrations"), "mysql://"+migrateDSN())
	if err != nil {
		log.Fatalf("[Migrate] Init failed: %v", err)
	}
	msg, err := run(m, os.Args[1:])
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		log.Printf("[Migrate] Close: %v, %v", sourceErr, dbErr)
	}
	if err != nil {
		log.Fatalf("[Migrate] %v", err)
	}
	log.Printf("[Migrate] %s", msg)
}

// migrateDSN is the application DSN with multi statement support, which the
// mysql driver needs to run a whole .sql file at once.
func migrateDSN() string {
	return database.DSNFromEnv() + "&multiStatements=true"
}

func run(m Migrator, args []string) (string, error) {
	switch args[0] {
	case "up":
		return noChange(m.Up(), "applied pending migrations", "already up to date")
	case "down":
		return noChange(m.Steps(-1), "rolled back one migration", "nothing to roll back")
	case "goto":
		v, err := versionArg(args)
		if err != nil {
			return "", err
		}
		return noChange(m.Migrate(uint(v)), fmt.Sprintf("now at version %d", v), fmt.Sprintf("already at version %d", v))
	case "force":
		v, err := versionArg(args)
		if err != nil {
			return "", err
		}
		if err := m.Force(v); err != nil {
			return "", fmt.Errorf("force %d: %w", v, err)
		}
		return fmt.Sprintf("forced version %d", v), nil
	case "status":
		v, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			return "no migrations applied", nil
		case err != nil:
			return "", fmt.Errorf("read version: %w", err)
		case dirty:
			return fmt.Sprintf("version %d (dirty)", v), nil
		}
		return fmt.Sprintf("version %d", v), nil
	}
	return "", fmt.Errorf("unknown command %q\n%s", args[0], usage)
}

func noChange(err error, done, unchanged string) (string, error) {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		return unchanged, nil
	case err != nil:
		return "", err
	}
	return done, nil
}

func versionArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s needs a version number", args[0])
	}
	v, err := strconv.Atoi(args[1])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version %q", args[1])
	}
	return v, nil
}
