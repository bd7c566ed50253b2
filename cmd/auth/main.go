package main

import (
	"context"
	"fmt"
	"os"

	"github.com/routeledger/backend/internal/common/bootstrap"
	"github.com/routeledger/backend/internal/common/config"
	srv "github.com/routeledger/backend/internal/common/server"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth service: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	log := app.Log

	go app.Cleaner.Start(ctx)

	server := srv.NewServer(app.Config.HTTPPort, app.Handler)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("auth service: stopping background workers")
			cancel()
			return nil
		},
	}

	if err := srv.Run(ctx, server, log, "auth", shutdownHooks...); err != nil {
		log.Errorf("%v", err)
		cancel()
		app.Close()
		os.Exit(1)
	}
}
