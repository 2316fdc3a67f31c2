// Command migrate applies the bot's schema migrations to a SQLite database.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"airdrop_bot/migrations"
)

var commands = map[string]func(*sql.DB, string, ...goose.OptionsFunc) error{
	"up":      goose.Up,
	"up-one":  goose.UpByOne,
	"down":    goose.Down,
	"status":  goose.Status,
	"version": goose.Version,
	"reset":   goose.Reset,
}

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/bot.db"), "path to sqlite database")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	if err := run(*dbPath, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, cmd string) error {
	apply, ok := commands[cmd]
	if !ok {
		return fmt.Errorf("unknown command %q", cmd)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := apply(db, "."); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

func usage() {
	fmt.Fprint(os.Stderr, `migrate manages the airdrop bot's database schema.

Usage:

  migrate [-db path] <command>

The database path defaults to $DATABASE_PATH, then ./data/bot.db.

Commands:

  up       apply all pending migrations
  up-one   apply the next pending migration
  down     roll back the most recent migration
  status   print the state of each known migration
  version  print the current schema version
  reset    roll back everything
`)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
