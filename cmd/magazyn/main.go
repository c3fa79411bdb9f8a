package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/magazyn/internal/api"
	"github.com/erazemk/magazyn/internal/config"
	"github.com/erazemk/magazyn/internal/db"
	"github.com/erazemk/magazyn/internal/logging"
	"github.com/erazemk/magazyn/internal/model"
	"github.com/erazemk/magazyn/internal/proxy"
	"github.com/erazemk/magazyn/internal/scheduler"
	"github.com/erazemk/magazyn/internal/store"
)

func main() {
	fs := flag.NewFlagSet("magazyn", flag.ContinueOnError)

	var envFile string
	fs.StringVar(&envFile, "env", "", "")
	fs.StringVar(&envFile, "e", "", "")

	var dsn string
	fs.StringVar(&dsn, "db", "", "")
	fs.StringVar(&dsn, "d", "", "")

	var proxyURL string
	fs.StringVar(&proxyURL, "proxy", "", "")
	fs.StringVar(&proxyURL, "p", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var adminUser string
	fs.StringVar(&adminUser, "user", "", "")
	fs.StringVar(&adminUser, "u", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var verbose bool
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.BoolVar(&verbose, "v", false, "")

	var migrate bool
	fs.BoolVar(&migrate, "migrate", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: magazyn [flags]

Flags:
  -e, -env <path>         env file to load (default: .env if present)
  -d, -db <dsn>           database path or postgres URL (default: DATABASE_URL or magazyn.sqlite3)
  -p, -proxy <url>        query through a SQL proxy instead of the database
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username when no users exist (default: admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -v, -verbose            log debug messages (overrides LOG_LEVEL)
      -migrate            add missing columns to an existing items table
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(envFile, ":8080")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment.
	if dsn != "" {
		cfg.Database = dsn
	}
	if proxyURL != "" {
		cfg.ProxyURL = proxyURL
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if adminUser != "" {
		cfg.AdminUser = adminUser
	}
	if logPath != "" {
		cfg.LogFile = logPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
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

	exec, closeExec, err := openExecutor(cfg, migrate)
	if err != nil {
		slog.Error("failed to set up database access", "error", err)
		os.Exit(1)
	}
	defer closeExec()

	ctx := context.Background()

	password, err := bootstrapAdmin(ctx, exec, cfg.AdminUser)
	if err != nil {
		slog.Error("failed to create admin user", "error", err)
		os.Exit(1)
	}
	if password != "" {
		printAdmin(cfg.AdminUser, password)
		fmt.Println()
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		// Generated and persisted on first run.
		jwtSecret, err = store.GetJWTSecret(ctx, exec)
		if err != nil {
			slog.Error("failed to get JWT secret", "error", err)
			os.Exit(1)
		}
	}

	sched := scheduler.New(exec)
	if err := sched.Start(cfg.PruneSchedule); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	handler := proxy.CORS(cfg.CORSOrigin)(api.LoggingMiddleware(api.NewRouter(exec, jwtSecret)))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
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

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// openExecutor returns the proxy client when a proxy URL is configured and
// a direct database executor otherwise.
func openExecutor(cfg *config.Config, migrate bool) (proxy.Executor, func(), error) {
	if cfg.UsesProxy() {
		client := proxy.NewClient(cfg.ProxyURL, cfg.ProxyToken)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("reaching proxy: %w", err)
		}

		slog.Info("using sql proxy", "url", cfg.ProxyURL)
		return client, func() {}, nil
	}

	dialect := db.DialectOf(cfg.Database)
	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database, dialect); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("ensuring schema: %w", err)
	}
	if migrate {
		if err := db.Migrate(database, dialect); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("migrating schema: %w", err)
		}
		slog.Info("schema migrated")
	}

	slog.Info("database ready", "dialect", string(dialect))
	return proxy.NewDBExecutor(database), func() { database.Close() }, nil
}

// bootstrapAdmin creates an admin with a random password when no users
// exist. Returns the password, or "" if users were already present.
func bootstrapAdmin(ctx context.Context, exec proxy.Executor, username string) (string, error) {
	n, err := store.CountUsers(ctx, exec)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return "", nil
	}

	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := store.RegisterUser(ctx, exec, username, string(hash), model.RoleAdmin); err != nil {
		return "", err
	}

	slog.Info("admin user created", "user", username)
	return password, nil
}

// printAdmin prints the bootstrap admin credentials to stdout.
func printAdmin(username, password string) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
