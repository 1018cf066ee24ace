package run

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/jiaming2012/mp-fx-covid19/src/dbutils"
	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/eventproducers/studyapi"
	"github.com/jiaming2012/mp-fx-covid19/src/eventpubsub"
	"github.com/jiaming2012/mp-fx-covid19/src/eventservices"
)

type RunArgs struct {
	Config      *eventmodels.StudyConfigYAML
	Port        string
	DatabaseURL string
}

func logCompleted(ev eventpubsub.BootstrapCompleted) {
	log.WithField("run_id", ev.RunID).Infof("bootstrap of %d replications took %v", ev.Replications, ev.Elapsed)
}

func Run(args RunArgs) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventpubsub.Init()
	if err := eventpubsub.Subscribe(eventpubsub.BootstrapCompletedEvent, logCompleted); err != nil {
		return fmt.Errorf("Run: failed to subscribe: %w", err)
	}

	inputs, err := eventservices.LoadStudyInputs(ctx, args.Config)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	var db *gorm.DB
	if args.DatabaseURL != "" {
		if db, err = dbutils.InitPostgresWithUrl(args.DatabaseURL); err != nil {
			return fmt.Errorf("Run: %w", err)
		}
		log.Info("storing bootstrap runs in postgres")
	}

	handler, err := studyapi.NewHandler(args.Config, inputs, db)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	router := mux.NewRouter()
	studyapi.SetupHandler(router, handler)

	srv := &http.Server{
		Handler: otelhttp.NewHandler(router, "/"),
		Addr:    fmt.Sprintf(":%s", args.Port),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("listening on :%s", args.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("Run: failed to start server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("Run: failed to shut down server: %w", err)
	}

	eventpubsub.WaitAsync()
	log.Info("Main: gracefully stopped!")

	return nil
}
