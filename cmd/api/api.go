package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"signalrouter/src/app"
	"signalrouter/src/database"
	"signalrouter/src/server"
)

type API struct{}

// Start serves the settings API until SIGINT or SIGTERM.
func (a *API) Start() error {
	config := GetConfig()
	log := logrus.WithField("app", config.AppName)

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		log.WithError(err).Error("Failed to connect to main database")
		return err
	}

	services, err := app.New(database.MainDB, app.Options{
		Registerer: prometheus.DefaultRegisterer,
		Log:        log,
	})
	if err != nil {
		log.WithError(err).Error("Failed to build services")
		return err
	}

	cfg := server.GetConfig()
	server.StartServer(cfg, server.NewRouter(cfg, services.API().Routes(), prometheus.DefaultGatherer))
	return nil
}
