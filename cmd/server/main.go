package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/email"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/fallback"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/formvalidation"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/httpcall"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/hubspot"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/jira"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/pipedrive"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/search"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/slotset"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/zendesk"
	"github.com/gyaneshwarpardhi/actionserver/internal/api"
	"github.com/gyaneshwarpardhi/actionserver/internal/audit"
	"github.com/gyaneshwarpardhi/actionserver/internal/config"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/engine"
	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to server YAML config (defaults apply when empty)")
	envFile := flag.String("env", ".env", "Optional .env file with ACTIONSERVER_* overrides")
	addr := flag.String("addr", "", "HTTP listen address (overrides the config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	cfg, err := config.Load(*cfgPath, *envFile)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Action store ─────────────────────────────────────────────────────────
	var (
		st       store.Store
		reloader api.Reloader
		storeDB  *sql.DB
	)
	switch cfg.Store.Driver {
	case config.DriverMySQL:
		storeDB, err = store.OpenMySQL(ctx, cfg.Store.DSN)
		if err != nil {
			slog.Error("failed to open action store", "err", err)
			os.Exit(1)
		}
		defer storeDB.Close()
		st = store.NewSQLStore(storeDB)
		slog.Info("action store ready", "driver", cfg.Store.Driver)
	default:
		fs, err := store.NewFileStore(cfg.Store.Path)
		if err != nil {
			slog.Error("failed to load action store", "path", cfg.Store.Path, "err", err)
			os.Exit(1)
		}
		fs.OnChange(func(actions int) {
			slog.Info("action store reloaded", "path", cfg.Store.Path, "actions", actions)
		})
		if cfg.Store.Watch {
			stopWatch, err := fs.Watch()
			if err != nil {
				slog.Warn("store watcher unavailable (hot-reload disabled)", "err", err)
			} else {
				defer stopWatch()
			}
		}
		st, reloader = fs, fs
		slog.Info("action store ready", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	}

	// ── Audit sinks ──────────────────────────────────────────────────────────
	var sinks audit.Multi
	for _, name := range cfg.Audit.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, audit.NewLogSink(logger.With("component", "audit")))
		case config.SinkMySQL:
			db := storeDB
			if db == nil || cfg.AuditDSN() != cfg.Store.DSN {
				db, err = store.OpenMySQL(ctx, cfg.AuditDSN())
				if err != nil {
					slog.Error("failed to open audit database", "err", err)
					os.Exit(1)
				}
				defer db.Close()
			}
			sinks = append(sinks, audit.NewSQLSink(db))
		case config.SinkMQTT:
			client, err := audit.ConnectMQTT(cfg.Audit.MQTT.Broker, cfg.Audit.MQTT.ClientID)
			if err != nil {
				slog.Error("failed to connect audit broker", "err", err)
				os.Exit(1)
			}
			defer client.Disconnect(250)
			sinks = append(sinks, audit.NewMQTTSink(client, cfg.Audit.MQTT.TopicPrefix, 0))
		}
	}
	var sink audit.Sink = sinks
	if len(sinks) == 1 {
		sink = sinks[0]
	}

	// ── Script evaluator ─────────────────────────────────────────────────────
	var script expression.ScriptEvaluator
	switch cfg.Evaluator.Mode {
	case config.EvaluatorHTTP:
		script = &expression.HTTPScriptEvaluator{
			URL:    cfg.Evaluator.URL,
			Client: connector.NewHTTPClient(ms(cfg.Connectors.HTTPTimeoutMs)),
		}
	case config.EvaluatorLocal:
		script = expression.LocalScriptEvaluator{}
	}

	// ── Action registry ───────────────────────────────────────────────────────
	client := connector.NewHTTPClient(ms(cfg.Connectors.HTTPTimeoutMs))
	reg := action.NewRegistry()
	reg.Register(httpcall.New(client))
	reg.Register(slotset.New())
	reg.Register(formvalidation.New())
	reg.Register(email.New(&connector.SMTPMailer{Timeout: ms(cfg.Connectors.SMTPTimeoutMs)}))
	reg.Register(search.New(&connector.GoogleSearch{Client: client}))
	reg.Register(jira.New(&connector.Jira{Client: client}))
	reg.Register(zendesk.New(&connector.Zendesk{Client: client}))
	reg.Register(pipedrive.New(&connector.Pipedrive{Client: client}))
	reg.Register(hubspot.New(&connector.Hubspot{Client: client}))
	reg.Register(fallback.New())
	slog.Info("actions registered", "types", reg.Types(), "evaluator", cfg.Evaluator.Mode)

	// ── Engine ────────────────────────────────────────────────────────────────
	eng := engine.New(ctx, st, reg, script, sink, cfg.Engine)

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.New(eng, reloader),
		ReadTimeout:  ms(cfg.Server.ReadTimeoutMs),
		WriteTimeout: ms(cfg.Server.WriteTimeoutMs),
		IdleTimeout:  ms(cfg.Server.IdleTimeoutMs),
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown() // flush queued audit records
	cancel()
	slog.Info("goodbye")
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
