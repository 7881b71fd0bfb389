package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/vitae/internal/admin"
	"github.com/dmitrijs2005/vitae/internal/logging"
	"github.com/dmitrijs2005/vitae/internal/server"
	"github.com/dmitrijs2005/vitae/internal/server/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		return 2
	}

	logger := logging.New(os.Stderr, cfg.IsDevelopment()).With("service", "vitae-admin")

	components, err := server.Build(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	defer components.Close()

	app := admin.NewApp(components.Accounts, os.Stdin, os.Stdout)
	if err := app.Run(ctx, admin.CommandArgs(os.Args[1:])); err != nil {
		log.Printf("%v", err)
		if errors.Is(err, admin.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}
