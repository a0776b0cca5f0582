package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/paperdesk/paperdesk/config"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/server"
)

func main() {
	app := &cli.App{
		Name:  "paperdesk",
		Usage: "document intake and deadline tracking service",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "run the API server, mailbox poller and background jobs",
				Action: func(c *cli.Context) error {
					cfg, appLogger := mustInit()
					return server.NewServer(cfg, appLogger).Start(context.Background())
				},
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations and exit",
				Action: func(c *cli.Context) error {
					cfg, appLogger := mustInit()
					return server.RunMigrations(cfg, appLogger)
				},
			},
		},
		DefaultCommand: "server",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func mustInit() (*config.Config, logger.Logger) {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()
	return cfg, appLogger
}
