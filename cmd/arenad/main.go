// Command arenad serves the battle engine's HTTP API (spec §6).
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/stormhaven/arena/internal/api"
	"github.com/stormhaven/arena/internal/catalog"
	"github.com/stormhaven/arena/internal/catalog/seed"
	"github.com/stormhaven/arena/internal/lobby"
	"github.com/stormhaven/arena/internal/persistence"
	"github.com/stormhaven/arena/internal/session"
)

type options struct {
	DBPath string `long:"db-path" env:"ARENA_DB_PATH" default:"arena.db" description:"SQLite database path"`
	Addr   string `long:"addr" env:"ARENA_ADDR" default:":8080" description:"HTTP listen address"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "arenad"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := run(opts, log); err != nil {
		log.Fatal().Err(err).Msg("arenad exited")
	}
}

func run(opts options, log zerolog.Logger) error {
	db, err := persistence.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	if err := seed.Load(ctx, db.Conn()); err != nil {
		return err
	}

	cat := catalog.New(db.Conn())
	if err := cat.Refresh(ctx); err != nil {
		return err
	}

	lob := lobby.New(db, cat)
	gateway := persistence.NewGateway(db, cat)
	reg := session.New(gateway)

	srv := api.NewServer(lob, reg, gateway, cat, log)

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", opts.Addr).Str("db_path", opts.DBPath).Msg("arenad listening")
	return httpServer.ListenAndServe()
}
