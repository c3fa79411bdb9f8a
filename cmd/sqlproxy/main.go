// Command sqlproxy exposes a database over HTTP: POST runs a parameterized
// query and GET checks connectivity.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/magazyn/internal/config"
	"github.com/erazemk/magazyn/internal/db"
	"github.com/erazemk/magazyn/internal/logging"
	"github.com/erazemk/magazyn/internal/proxy"
)

// functionPath is where the hosted deployment serves the proxy.
const functionPath = "/.netlify/functions/neon-proxy"

func main() {
	fs := flag.NewFlagSet("sqlproxy", flag.ContinueOnError)

	var envFile string
	fs.StringVar(&envFile, "env", "", "")
	fs.StringVar(&envFile, "e", "", "")

	var dsn string
	fs.StringVar(&dsn, "db", "", "")
	fs.StringVar(&dsn, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var verbose bool
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.BoolVar(&verbose, "v", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: sqlproxy [flags]

Flags:
  -e, -env <path>         env file to load (default: .env if present)
  -d, -db <dsn>           database path or postgres URL (default: DATABASE_URL or magazyn.sqlite3)
  -a, -addr <host:port>   listen address (default: :8888)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -v, -verbose            log every query (overrides LOG_LEVEL)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load(envFile, ":8888")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if dsn != "" {
		cfg.Database = dsn
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logPath != "" {
		cfg.LogFile = logPath
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	closeLog, err := logging.Setup(cfg.LogFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	dialect := db.DialectOf(cfg.Database)
	database, err := db.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database, dialect); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "dialect", string(dialect))

	h := &proxy.Handler{
		Exec:        proxy.NewDBExecutor(database),
		HealthQuery: db.HealthQuery(dialect),
		Token:       cfg.ProxyToken,
	}

	mux := http.NewServeMux()
	mux.Handle("/", h)
	mux.Handle(functionPath, h)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           proxy.CORS(cfg.CORSOrigin)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("sql proxy started", "addr", cfg.Addr, "auth", cfg.ProxyToken != "")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("sql proxy stopped")
}
