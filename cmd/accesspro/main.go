package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Lupicald/Accesspro/internal/attend/profile"
	"github.com/Lupicald/Accesspro/internal/attend/service"
	sqlitestore "github.com/Lupicald/Accesspro/internal/attend/store/sqlite"
	"github.com/Lupicald/Accesspro/internal/attend/types"
	"github.com/Lupicald/Accesspro/internal/config"
	"github.com/Lupicald/Accesspro/internal/db"
	"github.com/Lupicald/Accesspro/internal/device"
	"github.com/Lupicald/Accesspro/internal/httpapi"
	"github.com/Lupicald/Accesspro/internal/metrics"
	"github.com/Lupicald/Accesspro/internal/replica"
)

func main() {
	cfgPath := flag.String("config", "config.yml", "path to YAML config")
	flag.Parse()

	logger := log.New(os.Stdout, "accesspro ", log.LstdFlags|log.LUTC)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if cfg.Device.AgentURL == "" {
		logger.Fatalf("config: device.agent_url is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local durable store
	conn, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	writer := db.NewWorker(conn)
	defer writer.Close()
	eventStore := sqlitestore.NewEventStore(conn, writer)

	// Profiles and persisted person state
	profiles := profile.NewStore(cfg.ProfilesPath, cfg.StatePath, logger)
	states := service.NewStateStore(profiles.LoadStates(), profiles.SaveStates, logger)
	states.SyncProfiles(profiles.LoadProfiles())

	// Default schedule; malformed fields fall back, never fatal.
	sched, schedErrs := cfg.Schedule.Resolve()
	for _, e := range schedErrs {
		logger.Printf("config: %v (using default)", e)
	}
	resolver := service.NewScheduleResolver(sched)

	// Dedup ledger rebuilt from the local store. An unreadable store
	// starts the ledger empty: re-ingestion risk is accepted rather
	// than blocking startup.
	ledger := service.NewLedger()
	if keys, err := eventStore.LoadKeys(ctx); err != nil {
		logger.Printf("durability: ledger recovery failed, starting empty: %v", err)
	} else {
		ledger.BulkLoad(keys)
		logger.Printf("ledger loaded: %d committed keys", ledger.Len())
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	notify := service.NewLogNotifier(logger)

	// Remote replica, optional. Unreachable at startup means degraded
	// mode; the next commit is the retry.
	var rep service.Replica
	if cfg.Replica.URL != "" {
		sheet := replica.NewSheetClient(cfg.Replica.URL, cfg.Replica.Sheet, cfg.Replica.Token, cfg.Replica.Timeout)
		if err := sheet.EnsureSheet(ctx, types.EventColumns); err != nil {
			logger.Printf("connectivity: replica unavailable, running degraded: %v", err)
			notify.OnConnectivity(service.SubsystemReplica, false)
		} else {
			notify.OnConnectivity(service.SubsystemReplica, true)
		}
		rep = sheet
	} else {
		logger.Printf("no replica configured, local store only")
	}

	dual := service.NewDualWriter(eventStore, rep, notify, logger, m)

	terminal := device.NewAgentClient(cfg.Device.AgentURL, cfg.Device.Timeout)
	poller := service.NewPoller(service.PollerConfig{
		Branch:   cfg.Branch,
		Interval: cfg.PollInterval,
		Backoff:  cfg.Backoff,
	}, service.PollerDeps{
		Terminal: terminal,
		Profiles: profiles,
		Ledger:   ledger,
		Resolver: resolver,
		States:   states,
		Writer:   dual,
		Notify:   notify,
		Logger:   logger,
		Metrics:  m,
	})

	monitor := service.NewOverstayMonitor(states, service.MonitorConfig{
		Threshold: cfg.Overstay.Threshold,
		Interval:  cfg.Overstay.SweepInterval,
	}, notify, logger, m)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  logger,
		Addr:    cfg.HTTPAddr,
		States:  states,
		Events:  eventStore,
		Metrics: promhttp.Handler(),
	})

	monitor.Start(ctx)

	pollerDone := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(pollerDone)
	}()

	go func() {
		logger.Printf("status api listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	monitor.Stop()

	// The poller may be mid-cycle committing a batch; wait for it
	// before the deferred worker and db closes run.
	<-pollerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
