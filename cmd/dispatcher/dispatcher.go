package dispatcher

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"signalrouter/src/app"
	"signalrouter/src/database"
	"signalrouter/src/executors"
	"signalrouter/src/repository"
	"signalrouter/src/server"
)

type Dispatcher struct {
	Log *logrus.Entry
}

// Start polls trading signals and dispatches them until interrupted.
func (d *Dispatcher) Start() error {
	config := GetConfig()
	execCfg := executors.GetConfig()
	log := d.Log
	if log == nil {
		log = logrus.WithField("cmd", "dispatch")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		log.WithError(err).Error("Failed to connect to main database")
		return err
	}

	// Initialize read-only database
	if err := database.InitReadOnlyDB(); err != nil {
		log.WithError(err).Error("Failed to connect to read-only database")
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

	var sink executors.OrderSink
	if execCfg.OrderSinkURL != "" {
		sink = executors.NewHTTPOrderSink(execCfg.OrderSinkURL, execCfg.OrderSinkTimeout, execCfg.OrderSinkRetries, log)
		log.WithField("url", execCfg.OrderSinkURL).Info("Dispatching plans to order service")
	} else {
		log.Warn("ORDER_SINK_URL not set, plans are only logged")
	}

	if config.MetricsPort != "" {
		srv := &http.Server{
			Addr:    ":" + config.MetricsPort,
			Handler: server.NewRouter(&server.Config{}, nil, prometheus.DefaultGatherer),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	signals := repository.NewTradingSignalRepository()
	if err := services.Dispatcher(signals, sink, execCfg, log).Run(ctx); err != nil {
		log.WithError(err).Error("Dispatcher stopped with error")
		return err
	}

	return nil
}
