package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/Spok95/packing-station/internal/auth"
	"github.com/Spok95/packing-station/internal/cache"
	"github.com/Spok95/packing-station/internal/config"
	"github.com/Spok95/packing-station/internal/domain/fulfillment"
	"github.com/Spok95/packing-station/internal/importer"
	"github.com/Spok95/packing-station/internal/infra/db"
	httpx "github.com/Spok95/packing-station/internal/infra/http"
	"github.com/Spok95/packing-station/internal/infra/logger"
	"github.com/Spok95/packing-station/internal/infra/metrics"
	"github.com/Spok95/packing-station/internal/infra/notify"
	"github.com/Spok95/packing-station/internal/label"
	"github.com/Spok95/packing-station/internal/report"
	"github.com/Spok95/packing-station/internal/station"
	"github.com/Spok95/packing-station/migrations"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	goose.SetBaseFS(migrations.FS)
	return goose.Up(sqlDB, ".")
}

func main() {
	configPath := pflag.StringP("config", "c", "config/example.yaml", "path to config file")
	memory := pflag.Bool("memory", false, "keep data in memory, no database")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// stdout занят оператором, лог — в файл или stderr.
	var logOut io.Writer = os.Stderr
	if cfg.App.LogFile != "" {
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			panic(err)
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}
	log := logger.New(cfg.App.Env, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store fulfillment.Store
		check httpx.HealthCheck
	)
	if *memory {
		store = fulfillment.NewMemStore()
		log.Info("using in-memory store")
	} else {
		if err := runMigrations(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			return
		}
		log.Info("migrations applied")

		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("db connect failed", "err", err)
			return
		}
		defer pool.Close()
		log.Info("db connected")
		store = fulfillment.NewRepo(pool)
		check = pool.Ping
	}

	verifier, err := auth.New(cfg.Station.ReopenPasswordHash, cfg.Station.ReopenPassword)
	if err != nil {
		log.Error("reopen credential", "err", err)
		return
	}
	engine := fulfillment.NewEngine(store, verifier)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if created, err := label.EnsureTemplate(cfg.Station.TemplatePath); err != nil {
		log.Error("label template", "err", err)
		return
	} else if created {
		log.Info("default label template written", "path", cfg.Station.TemplatePath)
	}
	renderer := label.NewChromeRenderer(label.ChromeConfig{
		TemplatePath: cfg.Station.TemplatePath,
		OutputDir:    cfg.Station.OutputDir,
		NoSandbox:    cfg.Station.ChromeNoSandbox,
		Log:          log.With("component", "label"),
	})
	defer renderer.Close()

	var presenter station.Presenter = console{w: os.Stdout}
	if cfg.Telegram.Token != "" && cfg.Telegram.AdminChatID != 0 {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed, notifications disabled", "err", err)
		} else {
			tg := notify.NewTelegram(presenter, api, cfg.Telegram.AdminChatID, log.With("component", "notify"))
			defer tg.Close()
			presenter = tg
		}
	}

	st, err := station.New(station.Deps{
		Store:     store,
		Engine:    engine,
		Presenter: presenter,
		Cache:     cache.New(m),
		Renderer:  renderer,
		Target:    label.Target{Printer: cfg.Station.Printer, SaveOnly: cfg.Station.NoPrint},
		Printing:  true,
		Importer:  importer.New(engine, log.With("component", "import")),
		Reports:   report.NewWriter(cfg.Station.OutputDir).WithPDF(renderer),
		Metrics:   m,
		Log:       log.With("component", "station"),
	})
	if err != nil {
		log.Error("station init failed", "err", err)
		return
	}

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		gatherer = reg
	}
	srv := httpx.New(cfg.HTTP.Addr, gatherer, check)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	fmt.Println(help)
	go readInput(os.Stdin, os.Stdout, st, stop, log)
	_ = st.LoadOrders()

	_ = st.Run(ctx)
	st.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

// readInput строки со сканера (клавиатурный режим) и команды оператора.
// Конец ввода завершает станцию.
func readInput(r io.Reader, w io.Writer, c controller, stop context.CancelFunc, log *slog.Logger) {
	defer stop()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		err := dispatch(c, sc.Text())
		switch {
		case err == nil:
		case errors.Is(err, station.ErrStopped):
			return
		case errors.Is(err, errUsage):
			_, _ = fmt.Fprintln(w, err)
			_, _ = fmt.Fprintln(w, help)
		default:
			_, _ = fmt.Fprintln(w, "!", err)
		}
	}
	if err := sc.Err(); err != nil {
		log.Error("read input", "err", err)
	}
}
