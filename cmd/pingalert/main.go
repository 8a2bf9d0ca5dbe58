package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/agebe/pingalert/internal/api"
	"github.com/agebe/pingalert/internal/check"
	"github.com/agebe/pingalert/internal/config"
	"github.com/agebe/pingalert/internal/db"
	"github.com/agebe/pingalert/internal/health"
	"github.com/agebe/pingalert/internal/logging"
	"github.com/agebe/pingalert/internal/notify"
	"github.com/agebe/pingalert/internal/scheduler"
	"github.com/agebe/pingalert/internal/service"
	"github.com/agebe/pingalert/internal/store"
	"github.com/agebe/pingalert/internal/ui"
)

const version = "0.1.0"

func main() {
	cfg, opts, err := parseConfig(os.Args[1:], os.LookupEnv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("configuracion invalida: %v", err)
	}
	if opts.showVersion {
		fmt.Printf("pingalert %s\n", version)
		return
	}

	logger, err := logging.Setup(logging.Options{Syslog: cfg.Syslog, Verbose: cfg.Verbose})
	if err != nil {
		log.Fatalf("no se pudo inicializar logs: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	logger.Infof("pingalert finalizado")
}

func run(cfg config.Config, logger logging.Logger) error {
	logger.Infof("pingalert %s", version)
	logger.Infof("%s", cfg.Summary())

	pingPath, err := check.LookupPing()
	if err != nil {
		return err
	}
	for _, p := range []string{cfg.NotifyExec, cfg.WarnExec} {
		if p == "" {
			continue
		}
		if _, err := exec.LookPath(p); err != nil {
			return fmt.Errorf("ejecutable %q no disponible: %w", p, err)
		}
	}
	warnStartup(cfg, logger)

	ctx, _, stop := signalContext(context.Background(), logger)
	defer stop()

	st := store.New(cfg.Targets)
	sinks := []notify.Sink{notify.NewRecorderSink(st)}

	var journal service.EventJournal
	if cfg.DBPath != "" {
		sqlDB, err := db.OpenSQLite(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := sqlDB.Close(); err != nil {
				logger.Warningf("error cerrando base de datos: %v", err)
			}
		}()
		repo, err := db.NewEventRepository(sqlDB)
		if err != nil {
			return err
		}
		journal = repo
		sinks = append(sinks, notify.NewJournalSink(repo))
	}

	if cfg.RedisURL != "" {
		rs, err := notify.NewRedisSink(ctx, cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			return err
		}
		defer rs.Close()
		sinks = append(sinks, rs)
	}

	if cfg.SMSEnabled() {
		sinks = append(sinks, notify.NewSMSSink(cfg.SMSAPIToken, cfg.SMSPrefix, cfg.DefaultGroup, logger))
	}
	if cfg.NotifyExec != "" {
		sinks = append(sinks, notify.NewExecSink(cfg.NotifyExec, notify.ExecNotify, cfg.DefaultGroup, cfg.ExecFailFast, logger))
	}
	if cfg.WarnExec != "" {
		sinks = append(sinks, notify.NewExecSink(cfg.WarnExec, notify.ExecWarn, cfg.DefaultGroup, cfg.ExecFailFast, logger))
	}
	dispatcher := notify.NewDispatcher(logger, sinks...)
	logger.Debugf("canales activos: %v", dispatcher.Sinks())

	sched := scheduler.New(scheduler.Options{
		Targets:    cfg.Targets,
		Interval:   cfg.IntervalDuration(),
		Prober:     check.NewRunner(pingPath, cfg.Timeout),
		Machine:    health.NewMachine(cfg.MaxFail),
		Dispatcher: dispatcher,
		Status:     st,
		Logger:     logger,
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var server *http.Server
	serverErr := make(chan error, 1)
	if cfg.Addr != "" {
		svc := service.NewStatusService(st, journal)
		server, err = newHTTPServer(cfg.Addr, svc)
		if err != nil {
			return err
		}
		go func() {
			logger.Infof("servidor escuchando en %s", cfg.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("servidor HTTP fallo: %w", err)
				cancelRun()
			}
		}()
	}

	runErr := sched.Run(runCtx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warningf("error cerrando servidor: %v", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	select {
	case err := <-serverErr:
		return err
	default:
	}
	logger.Infof("recibida señal, terminando")
	return nil
}

func warnStartup(cfg config.Config, logger logging.Logger) {
	if !cfg.SMSEnabled() {
		logger.Warningf("sin token de notifyre, SMS deshabilitado")
	}
	if len(cfg.Targets) == 0 {
		logger.Warningf("no hay targets configurados")
	}
	if cfg.SMSEnabled() {
		for _, t := range cfg.Targets {
			if t.EffectiveGroup(cfg.DefaultGroup) == "" {
				logger.Warningf("target '%s' sin grupo de notificacion, no se enviaran SMS", t.DisplayURL)
			}
		}
	}
}

func newHTTPServer(addr string, svc *service.StatusService) (*http.Server, error) {
	apiServer := api.New(svc)
	frontend, err := ui.New(svc)
	if err != nil {
		return nil, fmt.Errorf("no se pudo inicializar frontend: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer.Handler())
	mux.Handle("/healthz", apiServer.Handler())
	mux.Handle("/", frontend)

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}, nil
}
