package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/triage-queue-sync/internal/client"
	"github.com/MKhiriev/triage-queue-sync/internal/config"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/models"
)

const role = "triage-queue-client"

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	fmt.Print(buildInfo)

	cfg, err := config.GetClientConfig(os.Args[1:])
	if err != nil {
		bootstrap := logger.NewLogger(role)
		bootstrap.Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewClientLogger(role, cfg.App.LogFile)
	log.Info().
		Str("version", buildInfo.BuildVersion()).
		Str("commit", buildInfo.BuildCommit()).
		Str("server", cfg.Adapter.HTTPAddress).
		Msg("starting triage queue client")

	app, err := client.NewApp(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = app.Run(ctx); err != nil {
		log.Error().Err(err).Msg("client run error")
		stop()
		os.Exit(1)
	}
}
