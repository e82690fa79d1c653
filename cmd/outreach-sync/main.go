package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"outreach-sync/internal/config"
	"outreach-sync/internal/crm"
	"outreach-sync/internal/httpapi"
	"outreach-sync/internal/lock"
	"outreach-sync/internal/poll"
	"outreach-sync/internal/ratelimit"
	"outreach-sync/internal/scheduler"
	"outreach-sync/internal/secrets"
	"outreach-sync/internal/sheets"
	"outreach-sync/internal/store"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("[config] .env ignored: %v", err)
	}

	// Data dir: env if provided, else the working directory.
	dataDir := os.Getenv("OUTREACH_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if err := res.Err(); err != nil {
		log.Fatal(err)
	}

	if _, err := secrets.ImportToken(cfg); err != nil {
		log.Printf("[secrets] warning: %v", err)
	}

	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		log.Fatal(err)
	}
	inst, err := lock.Acquire(cfg.App.DataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = inst.Release() }()
	log.Printf("[lock] holding %s", inst.Path())

	var ledger *store.DB
	if cfg.Ledger.Enabled {
		dbPath := filepath.Join(cfg.App.DataDir, "outreach-sync.db")
		ledger, err = store.Open(dbPath)
		if err != nil {
			log.Fatalf("ledger open failed (%s): %v", dbPath, err)
		}
		defer ledger.Close()
		logLastRun(ledger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, ledger); err != nil {
		log.Printf("exit: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, ledger *store.DB) error {
	sheetsLimiter := ratelimit.NewHostLimiter(cfg.Sheets.RequestsPerSecond, cfg.Sheets.Burst)
	crmLimiter := ratelimit.NewHostLimiter(cfg.CRM.RequestsPerSecond, cfg.CRM.Burst)

	opener := sheets.NewOpener(sheets.Config{
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		SheetName:       cfg.Sheets.SheetName,
		CredentialsFile: cfg.Sheets.CredentialsFile,
		Endpoint:        cfg.Sheets.Endpoint,
	}, sheetsLimiter)

	// The token is looked up each cycle until found, so it can be added while running.
	hub := crm.New(crm.Config{
		Endpoint:    cfg.CRM.Endpoint,
		Timeout:     cfg.CRMTimeout(),
		TokenSource: func() (string, error) { return secrets.CRMToken(cfg) },
	}, crmLimiter)

	var opts []poll.Option
	if ledger != nil {
		opts = append(opts, poll.WithRecorder(ledger))
	}
	syncer := poll.NewSyncer(poll.SheetsOpener(opener), hub, cfg.Interval(), opts...)

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}
	log.Printf("outreach-sync listening on http://%s (sheet=%s)", ln.Addr(), cfg.Sheets.SheetName)

	srv := &http.Server{
		Handler:           httpapi.NewHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		syncer.Run(gctx)
		return nil
	})

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if ledger != nil && cfg.Ledger.RetentionDays > 0 {
		retention := time.Duration(cfg.Ledger.RetentionDays) * 24 * time.Hour
		g.Go(func() error {
			scheduler.Every(gctx, 24*time.Hour, "prune", func(ctx context.Context) error {
				n, err := ledger.PruneRuns(ctx, time.Now().Add(-retention))
				if err == nil && n > 0 {
					log.Printf("[store] pruned runs=%d", n)
				}
				return err
			})
			return nil
		})
	}

	err = g.Wait()
	if last, ok := syncer.Last(); ok {
		log.Printf("[sync] last run=%s at=%s marked=%d failed=%d",
			last.ID, last.StartedAt.Format(time.RFC3339), last.Marked(), last.Failed())
	}
	return err
}

func logLastRun(ledger *store.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	runs, err := ledger.ListRuns(ctx, 1)
	if err != nil {
		log.Printf("[store] last run lookup: %v", err)
		return
	}
	if len(runs) == 0 {
		log.Printf("[store] no previous runs")
		return
	}
	r := runs[0]
	log.Printf("[store] previous run=%s at=%s marked=%d failed=%d err=%q",
		r.ID, r.StartedAt.Format(time.RFC3339), r.Marked, r.Failed, r.Error)
}
